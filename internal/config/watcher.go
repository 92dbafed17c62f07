package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Watcher 监听配置文件变更,把新配置分发给订阅者
// 目前只有日志级别支持热更新,其余字段需重启生效
type Watcher struct {
	current   *Config
	viper     *viper.Viper
	logger    logrus.FieldLogger
	callbacks []func(*Config)
	mu        sync.RWMutex
	stopped   bool
}

// NewWatcher 创建配置监听器
func NewWatcher(cfg *Config, configPath string, logger logrus.FieldLogger) *Watcher {
	v := viper.New()
	v.SetConfigFile(configPath)
	setDefaults(v)
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Watcher{
		current: cfg,
		viper:   v,
		logger:  logger,
	}
}

// OnChange 注册配置变更回调
func (w *Watcher) OnChange(callback func(*Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, callback)
}

// Start 读取配置文件并开始监听
func (w *Watcher) Start() error {
	if err := w.viper.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	w.viper.OnConfigChange(func(e fsnotify.Event) {
		w.mu.RLock()
		stopped := w.stopped
		callbacks := make([]func(*Config), len(w.callbacks))
		copy(callbacks, w.callbacks)
		w.mu.RUnlock()

		if stopped {
			return
		}

		var next Config
		if err := w.viper.Unmarshal(&next); err != nil {
			w.logger.WithError(err).WithField("file", e.Name).Error("failed to reload config")
			return
		}

		w.mu.Lock()
		w.current = &next
		w.mu.Unlock()

		w.logger.WithField("file", e.Name).Info("config reloaded")

		// 回调在锁外执行
		for _, callback := range callbacks {
			callback(&next)
		}
	})
	w.viper.WatchConfig()

	return nil
}

// Stop 停止分发变更
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopped = true
}

// Current 获取当前配置
func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}
