package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/jabbar-dev/bnb-aimtech/internal/notify"
)

// Hub 管理所有在线连接,按用户推送站内通知
type Hub struct {
	clients map[*Client]struct{}

	// 注册新客户端
	Register chan *Client

	// 注销客户端
	Unregister chan *Client

	mu sync.RWMutex
}

// NewHub 创建新的 Hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// Run 处理注册和注销,ctx 取消后关闭所有连接
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			h.mu.Unlock()

		case client := <-h.Unregister:
			h.remove(client)

		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mu.Unlock()
			return
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.Send)
	}
}

// pushFrame 推送给浏览器的消息体
type pushFrame struct {
	Channel   notify.Channel         `json:"channel"`
	Subject   string                 `json:"subject,omitempty"`
	Body      string                 `json:"body"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Send 实现 notify.Provider,把消息推给收件人的所有在线连接
// 收件人离线不算失败
func (h *Hub) Send(ctx context.Context, msg notify.Message) error {
	payload, err := json.Marshal(pushFrame{
		Channel:   msg.Channel,
		Subject:   msg.Subject,
		Body:      msg.Body,
		Data:      msg.Data,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode push frame: %w", err)
	}

	for _, userID := range msg.Recipients {
		if err := ctx.Err(); err != nil {
			return err
		}
		h.SendToUser(userID, payload)
	}
	return nil
}

// SendToUser 向特定用户的连接写入消息,缓冲区满的连接会被断开
func (h *Hub) SendToUser(userID string, message []byte) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	delivered := 0
	for client := range h.clients {
		if client.UserID != userID {
			continue
		}
		select {
		case client.Send <- message:
			delivered++
		default:
			delete(h.clients, client)
			close(client.Send)
		}
	}
	return delivered
}

// HasUser 检查用户是否在线
func (h *Hub) HasUser(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		if client.UserID == userID {
			return true
		}
	}
	return false
}

// GetClientCount 获取客户端数量
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}
