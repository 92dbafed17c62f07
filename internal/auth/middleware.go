package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jabbar-dev/bnb-aimtech/internal/model"
)

// Actor 当前请求的操作人
type Actor struct {
	ID    string
	Role  model.Role
	Name  string
	Email string
}

type actorKey struct{}

// WithActor 把操作人放入 context
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext 从 context 取出操作人
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(Actor)
	return actor, ok
}

// UserLookup 用户目录查询
type UserLookup interface {
	FindByID(ctx context.Context, id string) (*model.UserModel, error)
}

// Middleware JWT 认证中间件
// 令牌只证明身份,角色以用户目录为准,停用账号视为未认证
func Middleware(validator *TokenValidator, users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("Authorization")
		if token == "" {
			token = c.Query("token")
		}
		token = strings.TrimPrefix(token, "Bearer ")
		if token == "" {
			abort(c, http.StatusUnauthorized, "missing authorization header")
			return
		}

		claims, err := validator.ValidateToken(c.Request.Context(), token)
		if err != nil {
			abort(c, http.StatusUnauthorized, "invalid token")
			return
		}

		user, err := users.FindByID(c.Request.Context(), claims.Subject)
		if err != nil || !user.Active || !user.Role.Valid() {
			abort(c, http.StatusUnauthorized, "user no longer exists")
			return
		}

		actor := Actor{ID: user.ID, Role: user.Role, Name: user.Name, Email: user.Email}
		c.Set("user_id", actor.ID)
		c.Set("role", string(actor.Role))
		c.Request = c.Request.WithContext(WithActor(c.Request.Context(), actor))

		c.Next()
	}
}

// RequireCapability 权限检查中间件
func RequireCapability(capability Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFromContext(c.Request.Context())
		if !ok {
			abort(c, http.StatusUnauthorized, "unauthenticated")
			return
		}
		if !Allows(actor.Role, capability) {
			abort(c, http.StatusForbidden, "access forbidden: insufficient rights")
			return
		}
		c.Next()
	}
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"code":    status,
		"message": message,
	})
}
