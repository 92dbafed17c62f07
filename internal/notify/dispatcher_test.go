package notify_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jabbar-dev/bnb-aimtech/internal/notify"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingProvider 记录收到的通知
type recordingProvider struct {
	mu   sync.Mutex
	msgs []notify.Message
	err  error
}

func (p *recordingProvider) Send(_ context.Context, msg notify.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return p.err
}

func (p *recordingProvider) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.msgs)
}

// TestDispatcher_Delivers 测试通知按通道投递
func TestDispatcher_Delivers(t *testing.T) {
	logger, _ := test.NewNullLogger()
	email := &recordingProvider{}
	sms := &recordingProvider{}

	d := notify.NewDispatcher(map[notify.Channel]notify.Provider{
		notify.ChannelEmail: email,
		notify.ChannelSMS:   sms,
	}, 2, 10, logger)
	d.Start()

	d.Notify(context.Background(), notify.Message{Channel: notify.ChannelEmail, Recipients: []string{"a@x"}, Body: "hi"})
	d.Notify(context.Background(), notify.Message{Channel: notify.ChannelSMS, Recipients: []string{"03001234567"}, Body: "hi"})
	// 没有收件人的通知直接忽略
	d.Notify(context.Background(), notify.Message{Channel: notify.ChannelSMS, Body: "nobody"})

	require.NoError(t, d.Stop(context.Background()))
	assert.Equal(t, 1, email.count())
	assert.Equal(t, 1, sms.count())
}

// TestDispatcher_DropsWhenFull 测试队列满时丢弃并记录 WARN
func TestDispatcher_DropsWhenFull(t *testing.T) {
	logger, hook := test.NewNullLogger()
	p := &recordingProvider{}
	d := notify.NewDispatcher(map[notify.Channel]notify.Provider{notify.ChannelEmail: p}, 1, 1, logger)

	msg := notify.Message{Channel: notify.ChannelEmail, Recipients: []string{"a@x"}, Body: "x"}
	start := time.Now()
	d.Notify(context.Background(), msg)
	d.Notify(context.Background(), msg)
	assert.Less(t, time.Since(start), time.Second, "Notify must not block")

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, "queue full", hook.LastEntry().Data["reason"])

	d.Start()
	require.NoError(t, d.Stop(context.Background()))
	assert.Equal(t, 1, p.count())

	// 关闭后的通知被丢弃
	d.Notify(context.Background(), msg)
	assert.Equal(t, "dispatcher closed", hook.LastEntry().Data["reason"])
}

// TestDispatcher_ProviderFailureIsLogged 测试投递失败只记录日志
func TestDispatcher_ProviderFailureIsLogged(t *testing.T) {
	logger, hook := test.NewNullLogger()
	p := &recordingProvider{err: errors.New("gateway down")}
	d := notify.NewDispatcher(map[notify.Channel]notify.Provider{notify.ChannelSMS: p}, 1, 10, logger)
	d.Start()

	d.Notify(context.Background(), notify.Message{Channel: notify.ChannelSMS, Recipients: []string{"1"}, Body: "x"})
	require.NoError(t, d.Stop(context.Background()))

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, "notification delivery failed", hook.LastEntry().Message)
}

// TestDispatcher_PanicRecovered 测试通道实现 panic 不会带垮 worker
func TestDispatcher_PanicRecovered(t *testing.T) {
	logger, _ := test.NewNullLogger()
	ok := &recordingProvider{}
	d := notify.NewDispatcher(map[notify.Channel]notify.Provider{
		notify.ChannelPush:  notify.ProviderFunc(func(context.Context, notify.Message) error { panic("boom") }),
		notify.ChannelEmail: ok,
	}, 1, 10, logger)
	d.Start()

	d.Notify(context.Background(), notify.Message{Channel: notify.ChannelPush, Recipients: []string{"u"}})
	d.Notify(context.Background(), notify.Message{Channel: notify.ChannelEmail, Recipients: []string{"u"}})
	require.NoError(t, d.Stop(context.Background()))
	assert.Equal(t, 1, ok.count())
}

func TestDispatcher_MissingProvider(t *testing.T) {
	logger, hook := test.NewNullLogger()
	d := notify.NewDispatcher(map[notify.Channel]notify.Provider{}, 1, 10, logger)
	d.Start()
	d.Notify(context.Background(), notify.Message{Channel: notify.ChannelPush, Recipients: []string{"u"}})
	require.NoError(t, d.Stop(context.Background()))

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "no provider for channel", hook.LastEntry().Data["reason"])
}
