package workflow

import "github.com/jabbar-dev/bnb-aimtech/internal/model"

// ValidVisitorTarget 访客登记只能迁移到 in 或 out,来源状态不限
func ValidVisitorTarget(to model.VisitorStatus) bool {
	return to == model.VisitorIn || to == model.VisitorOut
}
