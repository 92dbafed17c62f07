package metrics

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Collector 定期从数据库刷新状态类指标
type Collector struct {
	db       *gorm.DB
	interval time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewCollector 创建指标收集器
func NewCollector(db *gorm.DB, interval time.Duration) *Collector {
	ctx, cancel := context.WithCancel(context.Background())
	return &Collector{
		db:       db,
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// Start 启动指标收集器
func (c *Collector) Start() {
	go c.collect()
}

// Stop 停止指标收集器
func (c *Collector) Stop() {
	c.cancel()
	<-c.done
}

func (c *Collector) collect() {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	defer close(c.done)

	c.Refresh(c.ctx)
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.Refresh(c.ctx)
		}
	}
}

// Refresh 刷新一次指标,查询失败时保留旧值
func (c *Collector) Refresh(ctx context.Context) {
	_ = UpdateDatabaseConnections(c.db)

	var rows []struct {
		Status string
		Count  int64
	}
	if err := c.db.WithContext(ctx).Table("leave_requests").
		Select("status, COUNT(*) AS count").Group("status").Scan(&rows).Error; err == nil {
		for _, row := range rows {
			UpdateRequestsByStatus(row.Status, float64(row.Count))
		}
	}

	var unbanked int64
	if err := c.db.WithContext(ctx).Table("lodging_bookings").
		Where("payment_method = ? AND deposited = ?", "cash", false).
		Select("COALESCE(SUM(bill_amount), 0)").Scan(&unbanked).Error; err == nil {
		SetUnbankedCash(unbanked)
	}
}
