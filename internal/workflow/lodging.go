package workflow

import "github.com/jabbar-dev/bnb-aimtech/internal/model"

// lodgingTransitions 目标状态 -> 允许的来源状态
// 任何状态都可以退房(包括取消后补办退房结账),时间戳和账单只在第一次写入
var lodgingTransitions = map[model.BookingStatus][]model.BookingStatus{
	model.BookingCheckedIn:  {model.BookingReserved},
	model.BookingCheckedOut: {model.BookingReserved, model.BookingCheckedIn, model.BookingCheckedOut, model.BookingCancelled},
	model.BookingCancelled:  {model.BookingReserved, model.BookingCheckedIn},
}

// ValidLodgingTransition 判断预订迁移是否合法
func ValidLodgingTransition(from, to model.BookingStatus) bool {
	allowed, ok := lodgingTransitions[to]
	if !ok {
		return false
	}
	for _, status := range allowed {
		if status == from {
			return true
		}
	}
	return false
}
