package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/smtp"
	"strings"
	"time"

	"github.com/jabbar-dev/bnb-aimtech/internal/config"
	"github.com/jabbar-dev/bnb-aimtech/internal/utils"
	"github.com/sirupsen/logrus"
)

// ErrNotConfigured 通道缺少必要配置
var ErrNotConfigured = errors.New("notification provider not configured")

// NewProvider 按名称创建通道实现
// mqtt 和 redis 需要外部连接,由调用方创建后传入 shared
func NewProvider(kind string, channel Channel, cfg config.NotifyConfig, logger logrus.FieldLogger, shared map[string]Provider) (Provider, error) {
	switch kind {
	case "", "log":
		return &LogProvider{Channel: channel, Logger: logger}, nil
	case "noop":
		return ProviderFunc(func(context.Context, Message) error { return nil }), nil
	case "smtp":
		return NewSMTPProvider(cfg.Email), nil
	case "webhook":
		return NewSMSWebhookProvider(cfg.SMS, logger), nil
	case "mqtt", "redis":
		p, ok := shared[kind]
		if !ok {
			return nil, fmt.Errorf("%s provider for %s: %w", kind, channel, ErrNotConfigured)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown notification provider %q for %s", kind, channel)
	}
}

// LogProvider 只把通知写入日志
type LogProvider struct {
	Channel Channel
	Logger  logrus.FieldLogger
}

// Send 记录通知内容
func (p *LogProvider) Send(_ context.Context, msg Message) error {
	p.Logger.WithFields(logrus.Fields{
		"channel":    p.Channel,
		"recipients": strings.Join(msg.Recipients, ","),
		"subject":    msg.Subject,
	}).Info(msg.Body)
	return nil
}

// SMSWebhookProvider 通过短信网关 REST 接口发送
type SMSWebhookProvider struct {
	cfg    config.SMSProviderConfig
	client *http.Client
	logger logrus.FieldLogger
}

// smsPayload 网关要求的请求体
type smsPayload struct {
	LoginID           string `json:"loginId"`
	LoginPassword     string `json:"loginPassword"`
	Destination       string `json:"Destination"`
	Mask              string `json:"Mask"`
	Message           string `json:"Message"`
	UniCode           string `json:"UniCode"`
	ShortCodePrefered string `json:"ShortCodePrefered"`
}

// NewSMSWebhookProvider 创建短信网关通道
func NewSMSWebhookProvider(cfg config.SMSProviderConfig, logger logrus.FieldLogger) *SMSWebhookProvider {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &SMSWebhookProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Send 逐个号码发送,号码无法识别时跳过
func (p *SMSWebhookProvider) Send(ctx context.Context, msg Message) error {
	if p.cfg.WebhookURL == "" || p.cfg.LoginID == "" || p.cfg.Password == "" {
		return fmt.Errorf("sms gateway credentials missing: %w", ErrNotConfigured)
	}

	var errs []error
	for _, recipient := range msg.Recipients {
		dest := utils.NormalizePKPhone(recipient)
		if dest == "" {
			p.logger.WithField("recipient", recipient).Warn("skipping sms to unrecognised number")
			continue
		}
		if err := p.post(ctx, dest, msg.Body); err != nil {
			errs = append(errs, fmt.Errorf("sms to %s: %w", dest, err))
		}
	}
	return errors.Join(errs...)
}

func (p *SMSWebhookProvider) post(ctx context.Context, dest, body string) error {
	payload, err := json.Marshal(smsPayload{
		LoginID:           p.cfg.LoginID,
		LoginPassword:     p.cfg.Password,
		Destination:       dest,
		Mask:              p.cfg.Mask,
		Message:           body,
		UniCode:           "0",
		ShortCodePrefered: "n",
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("gateway rejected request: %s", resp.Status)
	}
	return nil
}

// SMTPProvider 通过 SMTP 发送邮件
type SMTPProvider struct {
	cfg  config.EmailProviderConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPProvider 创建 SMTP 通道
func NewSMTPProvider(cfg config.EmailProviderConfig) *SMTPProvider {
	return &SMTPProvider{cfg: cfg, send: smtp.SendMail}
}

// Send 一次发送给所有收件人
func (p *SMTPProvider) Send(_ context.Context, msg Message) error {
	if p.cfg.SMTPHost == "" {
		return fmt.Errorf("smtp host missing: %w", ErrNotConfigured)
	}

	var auth smtp.Auth
	if p.cfg.Username != "" {
		auth = smtp.PlainAuth("", p.cfg.Username, p.cfg.Password, p.cfg.SMTPHost)
	}

	addr := fmt.Sprintf("%s:%d", p.cfg.SMTPHost, p.cfg.SMTPPort)
	return p.send(addr, auth, envelopeAddress(p.cfg.From), msg.Recipients, composeMail(p.cfg.From, msg))
}

// composeMail 生成纯文本邮件
func composeMail(from string, msg Message) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + strings.Join(msg.Recipients, ", ") + "\r\n")
	b.WriteString("Subject: " + msg.Subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	return []byte(b.String())
}

// envelopeAddress 从 "Name <addr>" 中取出地址
func envelopeAddress(from string) string {
	if i := strings.LastIndex(from, "<"); i >= 0 {
		if j := strings.LastIndex(from, ">"); j > i {
			return from[i+1 : j]
		}
	}
	return strings.TrimSpace(from)
}
