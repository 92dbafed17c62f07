package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jabbar-dev/bnb-aimtech/internal/auth"
)

// currentActor 读取认证中间件放入的操作人,缺失时直接返回 401
func currentActor(c *gin.Context) (auth.Actor, bool) {
	actor, ok := auth.ActorFromContext(c.Request.Context())
	if !ok {
		Error(c, http.StatusUnauthorized, "unauthenticated", "")
	}
	return actor, ok
}

// bindJSON 解析请求体,失败时挂上校验错误
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		_ = c.Error(invalidRequest(err))
		return false
	}
	return true
}
