package handlers

import "IMProject/service/chat"

// PingHandler answers application-level pings from clients that cannot use
// websocket control frames (some browser proxies strip them).
type PingHandler struct{}

func NewPingHandler() chat.Handler { return &PingHandler{} }

func (h *PingHandler) Event() string { return chat.EventPing }

func (h *PingHandler) Handle(_ *chat.Context, _ *chat.Frame, c *chat.Client) error {
	c.Enqueue(chat.BuildPong())
	return nil
}

// RegisterAll wires the default frame handlers into a gateway.
func RegisterAll(s *chat.Server) {
	s.Disp().Register(NewRegisterHandler())
	s.Disp().Register(NewSendMessageHandler())
	s.Disp().Register(NewPingHandler())
}
