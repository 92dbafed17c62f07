package api

import (
	"github.com/gin-gonic/gin"
	"github.com/jabbar-dev/bnb-aimtech/internal/service"
)

// AssignmentController 审批人分配控制器
type AssignmentController struct {
	assignments service.AssignmentService
}

// NewAssignmentController 创建审批人分配控制器
func NewAssignmentController(assignments service.AssignmentService) *AssignmentController {
	return &AssignmentController{assignments: assignments}
}

// Get 当前主配置
func (ac *AssignmentController) Get(c *gin.Context) {
	view, err := ac.assignments.Current(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	Success(c, view)
}

// Put 追加新的主配置
func (ac *AssignmentController) Put(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req service.PutAssignmentRequest
	if !bindJSON(c, &req) {
		return
	}
	view, err := ac.assignments.Replace(c.Request.Context(), actor, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	Success(c, view)
}

// Approvers 在职宿管列表
func (ac *AssignmentController) Approvers(c *gin.Context) {
	list, err := ac.assignments.Approvers(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	Success(c, list)
}
