package service

import (
	"IMProject/module/message/model"
	"IMProject/tools/ids"
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const messagesCollection = "messages"

// MongoStore is the durable message log. The push path in service/chat is
// best effort; this store is where delivery guarantees actually live.
type MongoStore struct {
	db *mongo.Database
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{db: db}
}

// Append assigns id and timestamps and persists the message.
func (s *MongoStore) Append(ctx context.Context, m *model.Message) error {
	if s.db == nil {
		return fmt.Errorf("message store unavailable")
	}
	now := time.Now()
	if m.ID == "" {
		m.ID = ids.GenerateString()
	}
	m.CreatedAt = now
	m.UpdatedAt = now
	_, err := s.db.Collection(messagesCollection).InsertOne(ctx, m)
	return err
}

// History returns the full conversation between two users, both directions,
// ordered by creation time ascending.
func (s *MongoStore) History(ctx context.Context, a, b string) ([]model.Message, error) {
	if s.db == nil {
		return nil, fmt.Errorf("message store unavailable")
	}
	filter := bson.M{"$or": bson.A{
		bson.M{"sender_id": a, "receiver_id": b},
		bson.M{"sender_id": b, "receiver_id": a},
	}}
	cur, err := s.db.Collection(messagesCollection).Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]model.Message, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
