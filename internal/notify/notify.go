package notify

import "context"

// Channel 通知通道
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
	ChannelPush  Channel = "push"
)

// Message 一条待投递的通知
type Message struct {
	Channel    Channel                `json:"channel"`
	Recipients []string               `json:"recipients"`
	Subject    string                 `json:"subject,omitempty"`
	Body       string                 `json:"body"`
	Data       map[string]interface{} `json:"data,omitempty"`
}

// Notifier 业务侧使用的通知能力
// 投递是尽力而为的,调用方不会收到失败
type Notifier interface {
	Notify(ctx context.Context, msg Message)
}

// Provider 某个通道的实际投递实现
type Provider interface {
	Send(ctx context.Context, msg Message) error
}

// ProviderFunc 函数适配为 Provider
type ProviderFunc func(ctx context.Context, msg Message) error

// Send 调用函数本身
func (f ProviderFunc) Send(ctx context.Context, msg Message) error {
	return f(ctx, msg)
}

// Nop 丢弃所有通知
type Nop struct{}

// Notify 什么也不做
func (Nop) Notify(context.Context, Message) {}
