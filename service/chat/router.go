package chat

import (
	"IMProject/module/message/model"
	"fmt"
)

// Router pushes a freshly persisted message to the live connections of both
// parties: every receiver connection and every sender connection, exactly
// once per connection. The sender also gets the message back in the HTTP
// response, so clients dedupe by message id; pushing to the sender's other
// devices is what keeps multi-device sessions in sync.
//
// Push is at-most-once best effort. Durability comes from the store, never
// from this path: an offline receiver is a successful send with zero pushes.
type Router struct {
	reg *Registry
	fan *Fanout
}

func NewRouter(reg *Registry, fan *Fanout) *Router {
	return &Router{reg: reg, fan: fan}
}

func (r *Router) Deliver(m *model.Message) error {
	if m == nil {
		return fmt.Errorf("nil message")
	}
	if m.Empty() {
		// validation belongs to the send handler; reaching here empty is a
		// programming error, not a droppable event
		return fmt.Errorf("message %s has neither text nor image", m.ID)
	}

	payload, err := BuildReceiveMessage(m)
	if err != nil {
		return err
	}

	targets := r.reg.Lookup(m.ReceiverID)
	seen := make(map[string]struct{}, len(targets))
	for _, c := range targets {
		seen[c.ConnID] = struct{}{}
	}
	for _, c := range r.reg.Lookup(m.SenderID) {
		if _, dup := seen[c.ConnID]; !dup {
			targets = append(targets, c)
		}
	}
	if len(targets) == 0 {
		return nil
	}

	r.fan.Broadcast(targets, payload)
	return nil
}
