package chat

import (
	"IMProject/module/message/model"
	"IMProject/tools/errs"
	"encoding/json"
	"fmt"
)

// Wire protocol: JSON text frames {"event": ..., "payload": ...}.
const (
	// inbound
	EventRegister    = "register"
	EventSendMessage = "sendMessage"
	EventPing        = "ping"

	// outbound
	EventOnlineUsers    = "onlineUsers"
	EventReceiveMessage = "receiveMessage"
	EventPong           = "pong"
	EventError          = "error"
)

type Frame struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func ParseFrame(raw []byte) (*Frame, error) {
	f := &Frame{}
	if err := json.Unmarshal(raw, f); err != nil {
		return nil, fmt.Errorf("unmarshal frame: %w", err)
	}
	if f.Event == "" {
		return nil, fmt.Errorf("frame missing event")
	}
	return f, nil
}

// RegisterPayload is an explicit identity claim sent after connect. No
// credential check happens on this path; the binding is tagged Unverified.
type RegisterPayload struct {
	UserID string `json:"userId"`
}

// SendMessagePayload rides the ephemeral push path: forwarded to the
// receiver's live connections with the sender's bound identity attached,
// never persisted. The durable path is POST /api/messages/send/:id.
type SendMessagePayload struct {
	ReceiverID string `json:"receiverId"`
	Text       string `json:"text"`
	Image      string `json:"image,omitempty"`
}

func buildFrame(event string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", event, err)
	}
	return json.Marshal(Frame{Event: event, Payload: raw})
}

// BuildOnlineUsers encodes the full current roster (latest-wins state, not a
// diff).
func BuildOnlineUsers(users []string) []byte {
	if users == nil {
		users = []string{}
	}
	b, _ := buildFrame(EventOnlineUsers, users)
	return b
}

func BuildReceiveMessage(m *model.Message) ([]byte, error) {
	return buildFrame(EventReceiveMessage, m)
}

// BuildDirectMessage carries an ephemeral push with the sender identity the
// gateway resolved, ignoring whatever the client may claim.
func BuildDirectMessage(senderID string, p *SendMessagePayload) []byte {
	b, _ := buildFrame(EventReceiveMessage, struct {
		SenderID   string `json:"senderId"`
		ReceiverID string `json:"receiverId"`
		Text       string `json:"text"`
		Image      string `json:"image,omitempty"`
	}{senderID, p.ReceiverID, p.Text, p.Image})
	return b
}

func BuildError(e errs.CodeError) []byte {
	b, _ := buildFrame(EventError, e)
	return b
}

func BuildPong() []byte {
	b, _ := json.Marshal(Frame{Event: EventPong})
	return b
}
