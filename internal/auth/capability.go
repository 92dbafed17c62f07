package auth

import "github.com/jabbar-dev/bnb-aimtech/internal/model"

// Capability 接口权限
type Capability string

const (
	CapSubmitRequest     Capability = "submit_request"
	CapDecideRequest     Capability = "decide_request"
	CapGateRequest       Capability = "gate_request"
	CapViewAllRequests   Capability = "view_all_requests"
	CapManageVisitors    Capability = "manage_visitors"
	CapManageLodging     Capability = "manage_lodging"
	CapManageSettlements Capability = "manage_settlements"
	CapManageAssignments Capability = "manage_assignments"
)

// roleCapabilities 角色到权限的映射,superadmin 拥有全部权限
var roleCapabilities = map[model.Role][]Capability{
	model.RoleStudent:    {CapSubmitRequest},
	model.RoleWarden:     {CapDecideRequest},
	model.RoleGatekeeper: {CapGateRequest, CapManageVisitors, CapManageSettlements},
	model.RoleVCOffice:   {CapManageVisitors, CapManageLodging, CapManageSettlements},
	model.RoleGuestHouse: {CapManageVisitors, CapManageLodging, CapManageSettlements},
	model.RoleAdmin:      {CapViewAllRequests, CapManageVisitors, CapManageSettlements, CapManageAssignments},
}

// Allows 判断角色是否拥有权限
func Allows(role model.Role, capability Capability) bool {
	if role == model.RoleSuperAdmin {
		return true
	}
	for _, c := range roleCapabilities[role] {
		if c == capability {
			return true
		}
	}
	return false
}
