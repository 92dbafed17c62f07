package container

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jabbar-dev/bnb-aimtech/internal/api"
	"github.com/jabbar-dev/bnb-aimtech/internal/assignment"
	"github.com/jabbar-dev/bnb-aimtech/internal/auth"
	"github.com/jabbar-dev/bnb-aimtech/internal/config"
	"github.com/jabbar-dev/bnb-aimtech/internal/database"
	"github.com/jabbar-dev/bnb-aimtech/internal/metrics"
	"github.com/jabbar-dev/bnb-aimtech/internal/notify"
	"github.com/jabbar-dev/bnb-aimtech/internal/repository"
	"github.com/jabbar-dev/bnb-aimtech/internal/service"
	"github.com/jabbar-dev/bnb-aimtech/internal/websocket"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// metricsInterval 状态类指标的刷新间隔
const metricsInterval = 30 * time.Second

// Container 依赖注入容器
// 管理数据库、通知通道、推送 hub 和业务服务
type Container struct {
	cfg        *config.Config
	logger     *logrus.Logger
	db         *gorm.DB
	validator  *auth.TokenValidator
	users      repository.UserRepository
	hub        *websocket.Hub
	dispatcher *notify.Dispatcher
	collector  *metrics.Collector
	mqtt       *notify.MQTTProvider
	redis      *notify.RedisProvider
	services   api.Services
	cancel     context.CancelFunc
}

// NewContainer 创建依赖注入容器
func NewContainer(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*Container, error) {
	c := &Container{cfg: cfg, logger: logger}
	if err := c.init(ctx); err != nil {
		_ = c.Close(context.Background())
		return nil, err
	}
	return c, nil
}

func (c *Container) init(ctx context.Context) (err error) {
	cfg, logger := c.cfg, c.logger

	// 1. 数据库,重试 3 次,指数退避
	c.db, err = database.ConnectWithRetry(cfg.Database, 3, time.Second)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	if err = database.Migrate(c.db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	// 2. 令牌校验
	c.validator, err = auth.NewTokenValidator(cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to initialize token validator: %w", err)
	}

	// 3. 通知通道,push 固定走 websocket hub
	c.hub = websocket.NewHub()
	providers, err := c.buildProviders(ctx)
	if err != nil {
		return err
	}
	providers[notify.ChannelPush] = c.hub
	c.dispatcher = notify.NewDispatcher(providers, cfg.Notify.Workers, cfg.Notify.QueueSize, logger)

	// 4. 业务服务
	c.users = repository.NewUserRepository(c.db)
	resolver := assignment.NewResolver(
		assignment.DefaultSources(repository.NewAssignmentRepository(c.db)),
		assignment.NewDirectory(c.users),
		cfg.Assignment.ScanWindow,
	)
	loc := cfg.Server.Location()
	c.services = api.Services{
		Requests:    service.NewRequestService(c.db, resolver, c.dispatcher, cfg.Workflow, loc, logger),
		Visitors:    service.NewVisitorService(c.db),
		Lodging:     service.NewLodgingService(c.db, loc, logger),
		Settlements: service.NewSettlementService(c.db, cfg.Settlement.MaxAttempts, logger),
		Assignments: service.NewAssignmentService(c.db, logger),
	}

	c.collector = metrics.NewCollector(c.db, metricsInterval)
	return nil
}

// buildProviders 按配置创建邮件和短信通道
func (c *Container) buildProviders(ctx context.Context) (map[notify.Channel]notify.Provider, error) {
	ncfg := c.cfg.Notify
	kinds := map[notify.Channel]string{
		notify.ChannelEmail: ncfg.Email.Provider,
		notify.ChannelSMS:   ncfg.SMS.Provider,
	}

	// 外部连接只在被引用时建立,两个通道共用
	shared := make(map[string]notify.Provider)
	for _, kind := range kinds {
		switch kind {
		case "mqtt":
			if c.mqtt == nil {
				p, err := notify.NewMQTTProvider(ncfg.MQTT, c.logger)
				if err != nil {
					return nil, fmt.Errorf("failed to initialize mqtt provider: %w", err)
				}
				c.mqtt = p
				shared["mqtt"] = p
			}
		case "redis":
			if c.redis == nil {
				p, err := notify.NewRedisProvider(ctx, ncfg.Redis)
				if err != nil {
					return nil, fmt.Errorf("failed to initialize redis provider: %w", err)
				}
				c.redis = p
				shared["redis"] = p
			}
		}
	}

	providers := make(map[notify.Channel]notify.Provider, len(kinds)+1)
	for channel, kind := range kinds {
		p, err := notify.NewProvider(kind, channel, ncfg, c.logger, shared)
		if err != nil {
			return nil, err
		}
		providers[channel] = p
	}
	return providers, nil
}

// Start 启动后台组件
func (c *Container) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	go c.hub.Run(ctx)
	c.dispatcher.Start()
	c.collector.Start()
}

// Router 创建 HTTP 路由
func (c *Container) Router() *gin.Engine {
	return api.SetupRoutes(api.RouterOptions{
		Config:    c.cfg,
		Logger:    c.logger,
		DB:        c.db,
		Validator: c.validator,
		Users:     c.users,
		Hub:       c.hub,
		Services:  c.services,
	})
}

// DB 获取数据库连接
func (c *Container) DB() *gorm.DB {
	return c.db
}

// Services 获取业务服务
func (c *Container) Services() api.Services {
	return c.services
}

// Close 关闭容器,先排空通知队列再断开外部连接
func (c *Container) Close(ctx context.Context) error {
	var errs []error
	// collector 只有启动后才需要停止
	if c.collector != nil && c.cancel != nil {
		c.collector.Stop()
	}
	if c.dispatcher != nil {
		if err := c.dispatcher.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("notification dispatcher: %w", err))
		}
	}
	if c.cancel != nil {
		c.cancel()
	}
	if c.mqtt != nil {
		c.mqtt.Close()
	}
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	if err := database.Close(c.db); err != nil {
		errs = append(errs, fmt.Errorf("database: %w", err))
	}
	return errors.Join(errs...)
}
