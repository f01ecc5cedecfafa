package handlers

import (
	"IMProject/service/chat"
	"encoding/json"
	"fmt"
)

// SendMessageHandler relays a frame to the receiver's live connections
// without persisting anything. Clients that need durability use the
// messages API; this path only buys latency.
type SendMessageHandler struct{}

func NewSendMessageHandler() chat.Handler { return &SendMessageHandler{} }

func (h *SendMessageHandler) Event() string { return chat.EventSendMessage }

func (h *SendMessageHandler) Handle(ctx *chat.Context, f *chat.Frame, c *chat.Client) error {
	var p chat.SendMessagePayload
	if err := json.Unmarshal(f.Payload, &p); err != nil {
		return fmt.Errorf("sendMessage payload: %w", err)
	}
	return ctx.S.PushDirect(c, &p)
}
