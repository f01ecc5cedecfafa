package handlers

import (
	"IMProject/service/chat"
	"encoding/json"
	"fmt"
)

// RegisterHandler binds a connection to the user id it claims. The claim is
// not authenticated; the resulting binding is tagged Unverified and a
// re-register for a different user rebinds atomically.
type RegisterHandler struct{}

func NewRegisterHandler() chat.Handler { return &RegisterHandler{} }

func (h *RegisterHandler) Event() string { return chat.EventRegister }

func (h *RegisterHandler) Handle(ctx *chat.Context, f *chat.Frame, c *chat.Client) error {
	var p chat.RegisterPayload
	if err := json.Unmarshal(f.Payload, &p); err != nil {
		return fmt.Errorf("register payload: %w", err)
	}
	if p.UserID == "" {
		return fmt.Errorf("register without userId")
	}
	return ctx.S.Bind(c, p.UserID, chat.TrustUnverified)
}
