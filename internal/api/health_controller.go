package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jabbar-dev/bnb-aimtech/internal/database"
	"gorm.io/gorm"
)

// PushStats 推送通道统计
type PushStats interface {
	GetClientCount() int
}

// HealthController 健康检查控制器
type HealthController struct {
	db   *gorm.DB
	push PushStats
}

// NewHealthController 创建健康检查控制器
func NewHealthController(db *gorm.DB, push PushStats) *HealthController {
	return &HealthController{db: db, push: push}
}

// Check 健康检查,数据库不可用时返回 503
func (h *HealthController) Check(c *gin.Context) {
	status := "healthy"
	checks := make(map[string]interface{})

	if h.db == nil {
		checks["database"] = "not configured"
	} else if err := database.Ping(h.db); err != nil {
		status = "unhealthy"
		checks["database"] = "unhealthy: " + err.Error()
	} else {
		checks["database"] = "healthy"
	}

	if h.push != nil {
		checks["push_clients"] = h.push.GetClientCount()
	}

	httpStatus := http.StatusOK
	if status != "healthy" {
		httpStatus = http.StatusServiceUnavailable
	}
	c.JSON(httpStatus, gin.H{
		"status":    status,
		"timestamp": time.Now().Unix(),
		"checks":    checks,
	})
}
