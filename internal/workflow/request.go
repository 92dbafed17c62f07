package workflow

import "github.com/jabbar-dev/bnb-aimtech/internal/model"

// Actor 驱动请假单迁移的一方
type Actor string

const (
	ActorApprover Actor = "approver"
	ActorGate     Actor = "gate"
)

type requestRule struct {
	from  model.RequestStatus
	actor Actor
}

// requestTransitions 目标状态 -> 允许的来源状态和执行方
// 表外的迁移一律非法,rejected 和 in 为终态
var requestTransitions = map[model.RequestStatus]requestRule{
	model.RequestApproved: {from: model.RequestPending, actor: ActorApprover},
	model.RequestRejected: {from: model.RequestPending, actor: ActorApprover},
	model.RequestOut:      {from: model.RequestApproved, actor: ActorGate},
	model.RequestIn:       {from: model.RequestOut, actor: ActorGate},
}

// ValidRequestTransition 判断请假单迁移是否合法
func ValidRequestTransition(actor Actor, from, to model.RequestStatus) bool {
	rule, ok := requestTransitions[to]
	if !ok {
		return false
	}
	return rule.actor == actor && rule.from == from
}

// IsRequestTarget 判断 to 是否是该执行方可以请求的目标状态
func IsRequestTarget(actor Actor, to model.RequestStatus) bool {
	rule, ok := requestTransitions[to]
	return ok && rule.actor == actor
}

// RequestTerminal 判断是否为终态
func RequestTerminal(status model.RequestStatus) bool {
	return status == model.RequestRejected || status == model.RequestIn
}
