package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/jabbar-dev/bnb-aimtech/internal/config"
	"github.com/sirupsen/logrus"
)

// envelope MQTT 和 Redis 通道发布的消息结构
type envelope struct {
	Message
	Timestamp int64 `json:"timestamp"`
}

func encodeEnvelope(msg Message, now time.Time) ([]byte, error) {
	return json.Marshal(envelope{Message: msg, Timestamp: now.UnixMilli()})
}

// MQTTProvider 把通知发布到下游网关订阅的主题
// 主题为 <topic>/<channel>
type MQTTProvider struct {
	client mqtt.Client
	topic  string
	qos    byte
	logger logrus.FieldLogger
}

// NewMQTTProvider 创建并连接 MQTT 通道
func NewMQTTProvider(cfg config.MQTTProviderConfig, logger logrus.FieldLogger) (*MQTTProvider, error) {
	if cfg.Broker == "" {
		return nil, fmt.Errorf("mqtt broker missing: %w", ErrNotConfigured)
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectTimeout(10 * time.Second).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			logger.WithError(err).Warn("mqtt connection lost")
		})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10*time.Second) {
		return nil, fmt.Errorf("mqtt connect to %s timed out", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect to %s: %w", cfg.Broker, err)
	}
	logger.WithField("broker", cfg.Broker).Info("mqtt notification provider connected")

	return &MQTTProvider{
		client: client,
		topic:  cfg.Topic,
		qos:    byte(cfg.QoS),
		logger: logger,
	}, nil
}

// Send 发布一条通知
func (p *MQTTProvider) Send(ctx context.Context, msg Message) error {
	payload, err := encodeEnvelope(msg, time.Now())
	if err != nil {
		return err
	}

	token := p.client.Publish(p.topic+"/"+string(msg.Channel), p.qos, false, payload)
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close 断开连接
func (p *MQTTProvider) Close() {
	p.client.Disconnect(250)
}
