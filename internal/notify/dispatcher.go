package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jabbar-dev/bnb-aimtech/internal/metrics"
	"github.com/sirupsen/logrus"
)

const defaultSendTimeout = 30 * time.Second

// Dispatcher 异步通知分发器
// 队列满时直接丢弃并记录,不阻塞业务迁移
type Dispatcher struct {
	providers map[Channel]Provider
	logger    logrus.FieldLogger
	queue     chan Message
	workers   int
	timeout   time.Duration

	wg      sync.WaitGroup
	mu      sync.RWMutex
	started bool
	closed  bool
}

// NewDispatcher 创建分发器
func NewDispatcher(providers map[Channel]Provider, workers, queueSize int, logger logrus.FieldLogger) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 1000
	}
	return &Dispatcher{
		providers: providers,
		logger:    logger,
		queue:     make(chan Message, queueSize),
		workers:   workers,
		timeout:   defaultSendTimeout,
	}
}

// Start 启动 worker goroutines
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.closed {
		return
	}
	d.started = true
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
}

// Notify 入队一条通知,队列满或已关闭时丢弃
func (d *Dispatcher) Notify(_ context.Context, msg Message) {
	if len(msg.Recipients) == 0 {
		return
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.drop(msg, "dispatcher closed")
		return
	}

	select {
	case d.queue <- msg:
	default:
		d.drop(msg, "queue full")
	}
}

// Stop 停止接收新通知,等待队列中的通知处理完毕或 ctx 结束
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("notification dispatcher stop: %w", ctx.Err())
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for msg := range d.queue {
		d.deliver(msg)
	}
}

func (d *Dispatcher) deliver(msg Message) {
	entry := d.logger.WithFields(logrus.Fields{
		"channel":    msg.Channel,
		"recipients": len(msg.Recipients),
	})

	defer func() {
		if r := recover(); r != nil {
			metrics.RecordNotification(string(msg.Channel), "failed")
			entry.WithField("panic", r).Error("notification provider panicked")
		}
	}()

	provider, ok := d.providers[msg.Channel]
	if !ok {
		d.drop(msg, "no provider for channel")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if err := provider.Send(ctx, msg); err != nil {
		metrics.RecordNotification(string(msg.Channel), "failed")
		entry.WithError(err).Warn("notification delivery failed")
		return
	}
	metrics.RecordNotification(string(msg.Channel), "sent")
}

func (d *Dispatcher) drop(msg Message, reason string) {
	metrics.RecordNotification(string(msg.Channel), "dropped")
	d.logger.WithFields(logrus.Fields{
		"channel": msg.Channel,
		"subject": msg.Subject,
		"reason":  reason,
	}).Warn("notification dropped")
}
