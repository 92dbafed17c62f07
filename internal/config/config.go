package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	Env        string           `mapstructure:"env"` // 环境: development, production
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Auth       AuthConfig       `mapstructure:"auth"`
	CORS       CORSConfig       `mapstructure:"cors"`
	Log        LogConfig        `mapstructure:"log"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Tracing    TracingConfig    `mapstructure:"tracing"`
	Notify     NotifyConfig     `mapstructure:"notify"`
	Assignment AssignmentConfig `mapstructure:"assignment"`
	Settlement SettlementConfig `mapstructure:"settlement"`
	Workflow   WorkflowConfig   `mapstructure:"workflow"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Timezone string `mapstructure:"timezone"` // 预订冲突按该时区的自然日计算
}

// Location 返回业务时区,无法解析时退回 UTC
func (s ServerConfig) Location() *time.Location {
	if s.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"` // postgres, mysql, sqlite
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"dbname"`
	SSLMode         string `mapstructure:"sslmode"`
	Path            string `mapstructure:"path"` // sqlite 文件路径
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // 秒
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // 秒
}

// AuthConfig Token 验证配置
// 令牌由外部身份服务签发,这里只做校验
type AuthConfig struct {
	HMACSecret string `mapstructure:"hmac_secret"`
	Issuer     string `mapstructure:"issuer"`
	JWKSURL    string `mapstructure:"jwks_url"`
}

// CORSConfig CORS 配置
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
	MaxAge         int      `mapstructure:"max_age"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`  // 日志级别: debug, info, warn, error
	Format string `mapstructure:"format"` // 日志格式: json, text
	Output string `mapstructure:"output"` // 输出位置: stdout, file, both
}

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

// TracingConfig 链路追踪配置,endpoint 为空时不启用
type TracingConfig struct {
	Endpoint    string `mapstructure:"endpoint"`
	Insecure    bool   `mapstructure:"insecure"`
	ServiceName string `mapstructure:"service_name"`
}

// NotifyConfig 通知配置
type NotifyConfig struct {
	Workers   int                 `mapstructure:"workers"`
	QueueSize int                 `mapstructure:"queue_size"`
	Email     EmailProviderConfig `mapstructure:"email"`
	SMS       SMSProviderConfig   `mapstructure:"sms"`
	MQTT      MQTTProviderConfig  `mapstructure:"mqtt"`
	Redis     RedisProviderConfig `mapstructure:"redis"`
}

// EmailProviderConfig 邮件通道: provider 为 log, smtp, mqtt, redis
type EmailProviderConfig struct {
	Provider string `mapstructure:"provider"`
	From     string `mapstructure:"from"`
	SMTPHost string `mapstructure:"smtp_host"`
	SMTPPort int    `mapstructure:"smtp_port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// SMSProviderConfig 短信通道: provider 为 log, webhook, mqtt, redis
type SMSProviderConfig struct {
	Provider   string `mapstructure:"provider"`
	WebhookURL string `mapstructure:"webhook_url"`
	LoginID    string `mapstructure:"login_id"`
	Password   string `mapstructure:"password"`
	Mask       string `mapstructure:"mask"`
	Timeout    int    `mapstructure:"timeout"` // 秒
}

// MQTTProviderConfig MQTT 网关配置
type MQTTProviderConfig struct {
	Broker   string `mapstructure:"broker"`
	ClientID string `mapstructure:"client_id"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Topic    string `mapstructure:"topic"`
	QoS      int    `mapstructure:"qos"`
}

// RedisProviderConfig Redis 投递队列配置
type RedisProviderConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	List     string `mapstructure:"list"`
}

// AssignmentConfig 审批人分配配置
type AssignmentConfig struct {
	ScanWindow int `mapstructure:"scan_window"`
}

// SettlementConfig 现金解缴配置
type SettlementConfig struct {
	MaxAttempts int `mapstructure:"max_attempts"`
}

// WorkflowConfig 请假流程策略
type WorkflowConfig struct {
	// RequireActiveApprover 为 true 时,冻结名单中已失去宿管角色的用户不能再审批
	RequireActiveApprover bool `mapstructure:"require_active_approver"`
}

// Load 加载配置,支持配置文件和环境变量
func Load(configPath string) (*Config, error) {
	// .env 只补充尚未设置的环境变量
	_ = godotenv.Load()

	v := viper.New()

	// 设置默认值
	setDefaults(v)

	// 如果提供了配置文件路径,从文件加载
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		// 尝试从默认位置加载
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("$HOME/.gatepass")
		// 忽略配置文件不存在的错误,使用默认值
		_ = v.ReadInConfig()
	}

	// 支持环境变量
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// IsProduction 判断是否为生产环境
func IsProduction(cfg *Config) bool {
	if cfg == nil {
		return false
	}
	return cfg.Env == "production"
}

// Default 返回默认配置
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// setDefaults 设置配置默认值
func setDefaults(v *viper.Viper) {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	v.SetDefault("env", env)

	// 服务器默认配置
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.timezone", "Asia/Karachi")

	// 数据库默认配置
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "gatepass")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.path", "gatepass.db")

	// 数据库连接池配置（根据环境设置默认值）
	if env == "production" {
		v.SetDefault("database.max_idle_conns", 20)
		v.SetDefault("database.max_open_conns", 200)
		v.SetDefault("database.conn_max_lifetime", 3600) // 1 小时
		v.SetDefault("database.conn_max_idle_time", 300) // 5 分钟
	} else {
		v.SetDefault("database.max_idle_conns", 10)
		v.SetDefault("database.max_open_conns", 100)
		v.SetDefault("database.conn_max_lifetime", 3600) // 1 小时
		v.SetDefault("database.conn_max_idle_time", 600) // 10 分钟
	}

	v.SetDefault("auth.hmac_secret", "")
	v.SetDefault("auth.issuer", "")
	v.SetDefault("auth.jwks_url", "")

	// CORS 默认配置
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Content-Type", "Authorization", "X-Request-ID"})
	v.SetDefault("cors.max_age", 86400)

	// 日志配置（根据环境设置默认值）
	if env == "production" {
		v.SetDefault("log.level", "warn")
		v.SetDefault("log.format", "json")
	} else {
		v.SetDefault("log.level", "debug")
		v.SetDefault("log.format", "text")
	}
	v.SetDefault("log.output", "stdout")

	v.SetDefault("rate_limit.rps", 50)
	v.SetDefault("rate_limit.burst", 100)

	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.insecure", true)
	v.SetDefault("tracing.service_name", "gatepass")

	// 通知默认走日志,不依赖外部网关
	v.SetDefault("notify.workers", 4)
	v.SetDefault("notify.queue_size", 1000)
	v.SetDefault("notify.email.provider", "log")
	v.SetDefault("notify.email.from", "Hostel System <noreply@localhost>")
	v.SetDefault("notify.email.smtp_port", 587)
	v.SetDefault("notify.sms.provider", "log")
	v.SetDefault("notify.sms.mask", "BNBWU-SUK")
	v.SetDefault("notify.sms.timeout", 15)
	v.SetDefault("notify.mqtt.client_id", "gatepass")
	v.SetDefault("notify.mqtt.topic", "gatepass/notifications")
	v.SetDefault("notify.mqtt.qos", 1)
	v.SetDefault("notify.redis.addr", "localhost:6379")
	v.SetDefault("notify.redis.list", "gatepass:notifications")

	v.SetDefault("assignment.scan_window", 10)
	v.SetDefault("settlement.max_attempts", 5)
	v.SetDefault("workflow.require_active_approver", false)
}
