package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jabbar-dev/bnb-aimtech/internal/service"
	"github.com/sirupsen/logrus"
)

// APIError 已经确定 HTTP 状态的错误
type APIError struct {
	Code    int
	Message string
	Detail  string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return e.Message
	}
	return e.Message + ": " + e.Detail
}

// WrapError 包装错误
func WrapError(err error, code int, message string) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
		Detail:  err.Error(),
	}
}

// invalidRequest 请求体或参数无法解析
func invalidRequest(err error) error {
	return fmt.Errorf("%w: %v", service.ErrValidation, err)
}

// classify 把服务层错误映射为 HTTP 状态
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, "invalid request"
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, "access forbidden"
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict, "conflict"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// ErrorHandlerMiddleware 错误处理中间件
// 处理器通过 c.Error 挂上错误,这里统一渲染;5xx 只记录原因,不回显
func ErrorHandlerMiddleware(logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err

		var apiErr *APIError
		if errors.As(err, &apiErr) {
			Error(c, apiErr.Code, apiErr.Message, apiErr.Detail)
			return
		}

		status, message := classify(err)
		if status == http.StatusInternalServerError {
			logger.WithError(err).WithFields(logrus.Fields{
				"request_id": c.GetString("request_id"),
				"method":     c.Request.Method,
				"path":       c.Request.URL.Path,
			}).Error("request failed")
			Error(c, status, message, "")
			return
		}
		Error(c, status, message, err.Error())
	}
}
