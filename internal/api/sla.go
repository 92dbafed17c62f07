package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// SLAConfig 各类操作的响应时间上限
type SLAConfig struct {
	GateScanMaxTime   time.Duration // 门卫出入登记
	DecisionMaxTime   time.Duration // 宿管审批
	SettlementMaxTime time.Duration // 解缴单创建/关闭
	QueryMaxTime      time.Duration // 列表查询
}

// DefaultSLAConfig 返回默认 SLA 配置
func DefaultSLAConfig() *SLAConfig {
	return &SLAConfig{
		GateScanMaxTime:   300 * time.Millisecond,
		DecisionMaxTime:   1 * time.Second,
		SettlementMaxTime: 2 * time.Second,
		QueryMaxTime:      500 * time.Millisecond,
	}
}

// getOperation 根据路由模板和方法归类操作
func getOperation(c *gin.Context) string {
	route := c.FullPath()
	method := c.Request.Method

	switch {
	case route == "":
		return "unknown"
	case strings.HasPrefix(route, "/api/v1/requests/gate/") && method == http.MethodPut:
		return "gate_scan"
	case strings.HasPrefix(route, "/api/v1/guests/") && method == http.MethodPut:
		return "gate_scan"
	case strings.HasPrefix(route, "/api/v1/requests/approver/") && method == http.MethodPut:
		return "decision"
	case strings.HasPrefix(route, "/api/v1/settlements") && method != http.MethodGet:
		return "settlement"
	case method == http.MethodGet && strings.HasPrefix(route, "/api/v1/"):
		return "query"
	default:
		return "unknown"
	}
}

// expected 返回操作的时间上限,0 表示不检查
func (s *SLAConfig) expected(operation string) time.Duration {
	switch operation {
	case "gate_scan":
		return s.GateScanMaxTime
	case "decision":
		return s.DecisionMaxTime
	case "settlement":
		return s.SettlementMaxTime
	case "query":
		return s.QueryMaxTime
	default:
		return 0
	}
}

// CheckSLA 检查耗时是否在上限内
func CheckSLA(operation string, duration time.Duration, config *SLAConfig) bool {
	limit := config.expected(operation)
	return limit == 0 || duration <= limit
}

// SLAMonitorMiddleware 超时请求打 WARN 日志并带上响应头
func SLAMonitorMiddleware(config *SLAConfig, logger logrus.FieldLogger) gin.HandlerFunc {
	if config == nil {
		config = DefaultSLAConfig()
	}

	return func(c *gin.Context) {
		start := time.Now()
		operation := getOperation(c)

		// 响应头必须在写 body 之前设置
		c.Writer = &slaWriter{ResponseWriter: c.Writer, start: start, operation: operation, config: config}
		c.Next()

		duration := time.Since(start)
		if CheckSLA(operation, duration, config) || logger == nil {
			return
		}
		logger.WithFields(logrus.Fields{
			"request_id": c.GetString("request_id"),
			"operation":  operation,
			"route":      c.FullPath(),
			"duration":   duration.String(),
			"expected":   config.expected(operation).String(),
		}).Warn("SLA violation")
	}
}

// slaWriter 在写出响应头时标记超时
type slaWriter struct {
	gin.ResponseWriter
	start     time.Time
	operation string
	config    *SLAConfig
	marked    bool
}

func (w *slaWriter) mark() {
	if w.marked {
		return
	}
	w.marked = true
	duration := time.Since(w.start)
	if CheckSLA(w.operation, duration, w.config) {
		return
	}
	h := w.Header()
	h.Set("X-SLA-Violation", "true")
	h.Set("X-SLA-Operation", w.operation)
	h.Set("X-SLA-Duration", duration.String())
	h.Set("X-SLA-Expected", w.config.expected(w.operation).String())
}

func (w *slaWriter) WriteHeader(code int) {
	w.mark()
	w.ResponseWriter.WriteHeader(code)
}

func (w *slaWriter) WriteHeaderNow() {
	w.mark()
	w.ResponseWriter.WriteHeaderNow()
}

func (w *slaWriter) Write(data []byte) (int, error) {
	w.mark()
	return w.ResponseWriter.Write(data)
}

func (w *slaWriter) WriteString(s string) (int, error) {
	w.mark()
	return w.ResponseWriter.WriteString(s)
}
