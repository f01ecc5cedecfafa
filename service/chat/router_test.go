package chat

import (
	"encoding/json"
	"testing"

	"IMProject/module/message/model"

	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (*Registry, *Router) {
	t.Helper()
	reg := NewRegistry()
	fan := NewFanout(2, 64)
	t.Cleanup(fan.Close)
	return reg, NewRouter(reg, fan)
}

func TestDeliverReachesBothSidesExactlyOnce(t *testing.T) {
	req := require.New(t)
	reg, router := newTestRouter(t)

	// alice on two devices, bob on one
	s1 := trackBound(t, reg, "alice")
	s2 := trackBound(t, reg, "alice")
	r1 := trackBound(t, reg, "bob")

	m := &model.Message{ID: "m1", SenderID: "alice", ReceiverID: "bob", Text: "hi"}
	req.NoError(router.Deliver(m))

	for _, c := range []*Client{s1, s2, r1} {
		f := recvFrame(t, c)
		req.Equal(EventReceiveMessage, f.Event)
		var got model.Message
		req.NoError(json.Unmarshal(f.Payload, &got))
		req.Equal("m1", got.ID)
		req.Equal("hi", got.Text)

		expectNoFrame(t, c)
	}
}

func TestDeliverOfflineReceiverSucceedsWithNoPushes(t *testing.T) {
	req := require.New(t)
	reg, router := newTestRouter(t)

	s1 := trackBound(t, reg, "alice")

	m := &model.Message{ID: "m2", SenderID: "alice", ReceiverID: "ghost", Text: "anyone?"}
	req.NoError(router.Deliver(m))

	// sender conns still get the push for multi-device sync
	f := recvFrame(t, s1)
	req.Equal(EventReceiveMessage, f.Event)
	expectNoFrame(t, s1)
}

func TestDeliverBothPartiesOffline(t *testing.T) {
	_, router := newTestRouter(t)
	m := &model.Message{ID: "m3", SenderID: "alice", ReceiverID: "bob", Text: "void"}
	require.NoError(t, router.Deliver(m))
}

func TestDeliverSelfMessageOncePerConn(t *testing.T) {
	req := require.New(t)
	reg, router := newTestRouter(t)

	c := trackBound(t, reg, "alice")

	m := &model.Message{ID: "m4", SenderID: "alice", ReceiverID: "alice", Text: "note"}
	req.NoError(router.Deliver(m))

	f := recvFrame(t, c)
	req.Equal(EventReceiveMessage, f.Event)
	expectNoFrame(t, c)
}

func TestDeliverRejectsEmptyMessage(t *testing.T) {
	req := require.New(t)
	_, router := newTestRouter(t)

	req.Error(router.Deliver(nil))
	req.Error(router.Deliver(&model.Message{ID: "m5", SenderID: "a", ReceiverID: "b"}))
}
