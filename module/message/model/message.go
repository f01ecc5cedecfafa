package model

import "time"

// Message is one direct message between two users. Identifier fields are
// plain strings on the wire. At least one of Text/Image must be set; the
// send handler enforces that before anything is persisted.
type Message struct {
	ID         string    `bson:"_id" json:"id"`
	SenderID   string    `bson:"sender_id" json:"senderId"`
	ReceiverID string    `bson:"receiver_id" json:"receiverId"`
	Text       string    `bson:"text,omitempty" json:"text"`
	Image      string    `bson:"image,omitempty" json:"image,omitempty"`
	CreatedAt  time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `bson:"updated_at" json:"updatedAt"`
}

// Empty reports whether the message carries no payload at all.
func (m *Message) Empty() bool {
	return m.Text == "" && m.Image == ""
}
