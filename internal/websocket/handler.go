package websocket

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	gorillaWS "github.com/gorilla/websocket"
	"github.com/jabbar-dev/bnb-aimtech/internal/auth"
	"github.com/sirupsen/logrus"
)

// NewUpgrader 根据允许的来源创建升级器,包含 "*" 时不限制来源
func NewUpgrader(allowedOrigins []string) gorillaWS.Upgrader {
	allowAll := false
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = struct{}{}
	}

	return gorillaWS.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if allowAll || origin == "" {
				return true
			}
			_, ok := allowed[origin]
			return ok
		},
	}
}

// Handler WebSocket 处理器,需挂在认证中间件之后
// 浏览器无法设置 Authorization 头,令牌通过 ?token= 传入
func Handler(hub *Hub, upgrader gorillaWS.Upgrader, logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := auth.ActorFromContext(c.Request.Context())
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "unauthenticated"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade 已经写了错误响应
			logger.WithError(err).Warn("failed to upgrade websocket connection")
			return
		}

		client := NewClient(uuid.New().String(), actor.ID, hub, conn, logger)
		hub.Register <- client

		go client.ReadPump()
		go client.WritePump()
	}
}
