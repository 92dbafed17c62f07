package metrics

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

var (
	// API 请求计数器
	apiRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "path", "status"},
	)

	// API 请求响应时间
	apiRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// 请假单创建数
	leaveRequestsCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leave_requests_created_total",
			Help: "Total number of leave requests created",
		},
		[]string{"category"},
	)

	// 状态迁移数
	transitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workflow_transitions_total",
			Help: "Total number of applied workflow transitions",
		},
		[]string{"workflow", "to"},
	)

	// 分配回退次数
	assignmentFallbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assignment_fallback_total",
			Help: "Number of times approver resolution fell back to all wardens",
		},
		[]string{"category"},
	)

	// 解缴单创建数
	settlementsCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "settlements_created_total",
			Help: "Total number of cash settlements created",
		},
	)

	// 解缴单分配重试次数
	settlementRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "settlement_retries_total",
			Help: "Settlement allocation attempts rolled back and retried",
		},
		[]string{"reason"}, // duplicate_serial, drift
	)

	// 通知结果
	notificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_total",
			Help: "Notifications by channel and outcome",
		},
		[]string{"channel", "result"}, // sent, failed, dropped
	)

	// 未解缴现金
	unbankedCashAmount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "lodging_unbanked_cash_amount",
			Help: "Total cash collected but not yet bundled into a settlement, in minor units",
		},
	)

	// 请假单状态分布
	leaveRequestsByStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "leave_requests_by_status",
			Help: "Number of leave requests by status",
		},
		[]string{"status"},
	)

	// 数据库连接数
	databaseConnectionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "database_connections_active",
			Help: "Number of active database connections",
		},
	)

	databaseConnectionsIdle = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "database_connections_idle",
			Help: "Number of idle database connections",
		},
	)

	databaseConnectionsMax = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "database_connections_max",
			Help: "Maximum number of database connections",
		},
	)
)

var (
	once sync.Once
)

func init() {
	prometheus.MustRegister(apiRequestsTotal)
	prometheus.MustRegister(apiRequestDuration)
	prometheus.MustRegister(leaveRequestsCreatedTotal)
	prometheus.MustRegister(transitionsTotal)
	prometheus.MustRegister(assignmentFallbackTotal)
	prometheus.MustRegister(settlementsCreatedTotal)
	prometheus.MustRegister(settlementRetriesTotal)
	prometheus.MustRegister(notificationsTotal)
	prometheus.MustRegister(unbankedCashAmount)
	prometheus.MustRegister(leaveRequestsByStatus)
	prometheus.MustRegister(databaseConnectionsActive)
	prometheus.MustRegister(databaseConnectionsIdle)
	prometheus.MustRegister(databaseConnectionsMax)

	// Go 运行时指标只注册一次
	once.Do(func() {
		_ = prometheus.Register(prometheus.NewGoCollector())
		_ = prometheus.Register(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	})
}

// Handler 返回 Prometheus 指标处理器
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordAPIRequest 记录 API 请求
func RecordAPIRequest(method, path string, status int, duration float64) {
	statusText := http.StatusText(status)
	if statusText == "" {
		statusText = fmt.Sprintf("%d", status)
	}
	apiRequestsTotal.WithLabelValues(method, path, statusText).Inc()
	apiRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// RecordRequestCreated 记录请假单创建
func RecordRequestCreated(category string) {
	leaveRequestsCreatedTotal.WithLabelValues(category).Inc()
}

// RecordTransition 记录状态迁移
func RecordTransition(workflow, to string) {
	transitionsTotal.WithLabelValues(workflow, to).Inc()
}

// RecordAssignmentFallback 记录分配回退
func RecordAssignmentFallback(category string) {
	assignmentFallbackTotal.WithLabelValues(category).Inc()
}

// RecordSettlementCreated 记录解缴单创建
func RecordSettlementCreated() {
	settlementsCreatedTotal.Inc()
}

// RecordSettlementRetry 记录解缴分配重试
func RecordSettlementRetry(reason string) {
	settlementRetriesTotal.WithLabelValues(reason).Inc()
}

// RecordNotification 记录通知结果
func RecordNotification(channel, result string) {
	notificationsTotal.WithLabelValues(channel, result).Inc()
}

// SetUnbankedCash 更新未解缴现金
func SetUnbankedCash(amount int64) {
	unbankedCashAmount.Set(float64(amount))
}

// UpdateRequestsByStatus 更新请假单状态分布
func UpdateRequestsByStatus(status string, count float64) {
	leaveRequestsByStatus.WithLabelValues(status).Set(count)
}

// UpdateDatabaseConnections 更新数据库连接数指标
func UpdateDatabaseConnections(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	stats := sqlDB.Stats()
	databaseConnectionsActive.Set(float64(stats.OpenConnections - stats.Idle))
	databaseConnectionsIdle.Set(float64(stats.Idle))
	databaseConnectionsMax.Set(float64(stats.MaxOpenConnections))

	return nil
}
