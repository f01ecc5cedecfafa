package chat

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// recvFrame pops the next queued frame off a client's send queue.
func recvFrame(t *testing.T, c *Client) *Frame {
	t.Helper()
	select {
	case raw, ok := <-c.Send:
		require.True(t, ok, "send queue closed")
		f, err := ParseFrame(raw)
		require.NoError(t, err)
		return f
	case <-time.After(2 * time.Second):
		t.Fatalf("no frame delivered to conn %s", c.ConnID)
		return nil
	}
}

// expectNoFrame asserts the client's queue stays empty for a short window.
func expectNoFrame(t *testing.T, c *Client) {
	t.Helper()
	select {
	case raw := <-c.Send:
		t.Fatalf("unexpected frame on conn %s: %s", c.ConnID, raw)
	case <-time.After(100 * time.Millisecond):
	}
}

func rosterOf(t *testing.T, f *Frame) []string {
	t.Helper()
	require.Equal(t, EventOnlineUsers, f.Event)
	var users []string
	require.NoError(t, json.Unmarshal(f.Payload, &users))
	return users
}
