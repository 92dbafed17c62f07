package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"sync"
	"testing"
	"time"

	"github.com/jabbar-dev/bnb-aimtech/internal/config"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSMSWebhookProvider_Send 测试网关请求体和号码规范化
func TestSMSWebhookProvider_Send(t *testing.T) {
	var mu sync.Mutex
	var got []smsPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var p smsPayload
		_ = json.Unmarshal(body, &p)
		mu.Lock()
		got = append(got, p)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	logger, hook := test.NewNullLogger()
	p := NewSMSWebhookProvider(config.SMSProviderConfig{
		WebhookURL: srv.URL, LoginID: "id", Password: "pw", Mask: "BNBWU-SUK", Timeout: 5,
	}, logger)

	err := p.Send(context.Background(), Message{Channel: ChannelSMS, Recipients: []string{"0300-1234567", "none"}, Body: "left campus"})
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, "923001234567", got[0].Destination)
	assert.Equal(t, "BNBWU-SUK", got[0].Mask)
	assert.Equal(t, "left campus", got[0].Message)
	assert.Equal(t, "0", got[0].UniCode)
	assert.NotNil(t, hook.LastEntry())
}

func TestSMSWebhookProvider_Errors(t *testing.T) {
	logger, _ := test.NewNullLogger()
	p := NewSMSWebhookProvider(config.SMSProviderConfig{}, logger)
	err := p.Send(context.Background(), Message{Recipients: []string{"03001234567"}})
	assert.ErrorIs(t, err, ErrNotConfigured)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()
	p = NewSMSWebhookProvider(config.SMSProviderConfig{WebhookURL: srv.URL, LoginID: "id", Password: "pw"}, logger)
	err = p.Send(context.Background(), Message{Recipients: []string{"03001234567"}})
	assert.Error(t, err)
}

// TestSMTPProvider_Send 测试邮件组装
func TestSMTPProvider_Send(t *testing.T) {
	p := NewSMTPProvider(config.EmailProviderConfig{
		From: "Hostel System <noreply@campus.edu>", SMTPHost: "mail.local", SMTPPort: 25,
	})

	var addr, from string
	var to []string
	var body []byte
	p.send = func(a string, _ smtp.Auth, f string, rcpt []string, msg []byte) error {
		addr, from, to, body = a, f, rcpt, msg
		return nil
	}

	err := p.Send(context.Background(), Message{Recipients: []string{"w1@campus.edu", "w2@campus.edu"}, Subject: "New Leave Request Submitted", Body: "line1\nline2"})
	require.NoError(t, err)
	assert.Equal(t, "mail.local:25", addr)
	assert.Equal(t, "noreply@campus.edu", from)
	assert.Equal(t, []string{"w1@campus.edu", "w2@campus.edu"}, to)
	assert.Contains(t, string(body), "Subject: New Leave Request Submitted\r\n")
	assert.Contains(t, string(body), "line1\r\nline2")

	p.send = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("refused") }
	assert.Error(t, p.Send(context.Background(), Message{Recipients: []string{"x"}}))

	assert.ErrorIs(t, NewSMTPProvider(config.EmailProviderConfig{}).Send(context.Background(), Message{}), ErrNotConfigured)
}

func TestNewProvider(t *testing.T) {
	logger, _ := test.NewNullLogger()
	cfg := config.NotifyConfig{}

	p, err := NewProvider("log", ChannelEmail, cfg, logger, nil)
	require.NoError(t, err)
	assert.IsType(t, &LogProvider{}, p)

	_, err = NewProvider("mqtt", ChannelSMS, cfg, logger, nil)
	assert.ErrorIs(t, err, ErrNotConfigured)

	shared := map[string]Provider{"redis": ProviderFunc(func(context.Context, Message) error { return nil })}
	p, err = NewProvider("redis", ChannelSMS, cfg, logger, shared)
	require.NoError(t, err)
	assert.NotNil(t, p)

	_, err = NewProvider("pigeon", ChannelSMS, cfg, logger, nil)
	assert.Error(t, err)
}

func TestEncodeEnvelope(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	data, err := encodeEnvelope(Message{Channel: ChannelPush, Recipients: []string{"u1"}, Body: "hi"}, now)
	require.NoError(t, err)
	assert.JSONEq(t, `{"channel":"push","recipients":["u1"],"body":"hi","timestamp":1700000000000}`, string(data))
}
