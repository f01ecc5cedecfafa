package nats

import (
	"IMProject/logger"
	"IMProject/module/message/model"
	"encoding/json"

	natsio "github.com/nats-io/nats.go"
)

// Producer mirrors persisted messages onto a NATS subject so downstream
// services (search indexers, push notification workers) can consume them.
// Fire-and-forget: a missing or dead broker never blocks a send.
type Producer struct {
	nc      *natsio.Conn
	subject string
}

// Connect returns nil and no error when url is empty: the gateway runs
// without a broker and every publish becomes a no-op.
func Connect(url, subject string) (*Producer, error) {
	if url == "" {
		return nil, nil
	}
	nc, err := natsio.Connect(url,
		natsio.Name("dm-gateway"),
		natsio.MaxReconnects(-1),
	)
	if err != nil {
		return nil, err
	}
	return &Producer{nc: nc, subject: subject}, nil
}

func (p *Producer) PublishMessage(m *model.Message) {
	if p == nil || p.nc == nil {
		return
	}
	b, err := json.Marshal(m)
	if err != nil {
		logger.Errorf("[nats] marshal message id=%s: %v", m.ID, err)
		return
	}
	if err := p.nc.Publish(p.subject, b); err != nil {
		logger.Warnf("[nats] publish id=%s: %v", m.ID, err)
	}
}

func (p *Producer) Close() {
	if p == nil || p.nc == nil {
		return
	}
	p.nc.Drain()
}
