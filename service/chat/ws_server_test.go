package chat_test

import (
	"encoding/json"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"IMProject/module/message/model"
	"IMProject/service/chat"
	"IMProject/service/chat/handlers"
	"IMProject/tools/security"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

var gatewayJWT = security.DefaultOptions([]byte("gateway-e2e-secret"))

func newTestGateway(t *testing.T) (*chat.Server, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := chat.NewServer("gw-test", gatewayJWT, chat.WithFanout(2, 256))
	handlers.RegisterAll(s)

	r := gin.New()
	r.GET("/chat", s.HandleWS)
	ts := httptest.NewServer(r)

	t.Cleanup(func() {
		ts.Close()
		s.Close()
	})
	return s, ts
}

// dial opens a websocket to the gateway with the given raw query string.
func dial(t *testing.T, ts *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(ts.URL, "http") + "/chat"
	if query != "" {
		u += "?" + query
	}
	ws, resp, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { ws.Close() })
	return ws
}

func readFrame(t *testing.T, ws *websocket.Conn) *chat.Frame {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, raw, err := ws.ReadMessage()
	require.NoError(t, err)
	f, err := chat.ParseFrame(raw)
	require.NoError(t, err)
	return f
}

// waitRoster reads frames until an onlineUsers event satisfies want, skipping
// anything else. Rosters are latest-wins state so intermediate ones are fine
// to drop.
func waitRoster(t *testing.T, ws *websocket.Conn, want func([]string) bool) []string {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		f := readFrame(t, ws)
		if f.Event != chat.EventOnlineUsers {
			continue
		}
		var users []string
		require.NoError(t, json.Unmarshal(f.Payload, &users))
		if want(users) {
			return users
		}
	}
	t.Fatal("roster condition never met")
	return nil
}

func waitEvent(t *testing.T, ws *websocket.Conn, event string) *chat.Frame {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		f := readFrame(t, ws)
		if f.Event == event {
			return f
		}
	}
	t.Fatalf("no %s event received", event)
	return nil
}

func hasAll(users ...string) func([]string) bool {
	return func(got []string) bool {
		set := make(map[string]struct{}, len(got))
		for _, u := range got {
			set[u] = struct{}{}
		}
		for _, u := range users {
			if _, ok := set[u]; !ok {
				return false
			}
		}
		return true
	}
}

func lacks(user string) func([]string) bool {
	return func(got []string) bool {
		for _, u := range got {
			if u == user {
				return false
			}
		}
		return true
	}
}

func TestConnectAndPresenceRoster(t *testing.T) {
	req := require.New(t)
	_, ts := newTestGateway(t)

	alice := dial(t, ts, "userId=alice")
	users := waitRoster(t, alice, hasAll("alice"))
	req.Contains(users, "alice")

	bob := dial(t, ts, "userId=bob")
	waitRoster(t, bob, hasAll("alice", "bob"))
	// the earlier conn gets the transition broadcast too
	waitRoster(t, alice, hasAll("alice", "bob"))
}

func TestHandshakeWithVerifiedToken(t *testing.T) {
	req := require.New(t)
	s, ts := newTestGateway(t)

	token, _, _, err := security.Generate(gatewayJWT, "dave", nil)
	req.NoError(err)

	ws := dial(t, ts, "token="+url.QueryEscape(token))
	waitRoster(t, ws, hasAll("dave"))

	conns := s.Registry().Lookup("dave")
	req.Len(conns, 1)
	_, trust := s.Registry().BoundUser(conns[0].ConnID)
	req.Equal(chat.TrustVerified, trust)
}

func TestPersistedMessageFansOutToBothParties(t *testing.T) {
	req := require.New(t)
	s, ts := newTestGateway(t)

	alice1 := dial(t, ts, "userId=alice")
	alice2 := dial(t, ts, "userId=alice")
	bob := dial(t, ts, "userId=bob")
	waitRoster(t, bob, hasAll("alice", "bob"))

	m := &model.Message{ID: "77001", SenderID: "alice", ReceiverID: "bob", Text: "over the wire"}
	req.NoError(s.Router().Deliver(m))

	for _, ws := range []*websocket.Conn{alice1, alice2, bob} {
		f := waitEvent(t, ws, chat.EventReceiveMessage)
		var got model.Message
		req.NoError(json.Unmarshal(f.Payload, &got))
		req.Equal("77001", got.ID)
		req.Equal("over the wire", got.Text)
	}
}

func TestEphemeralSendMessageFrame(t *testing.T) {
	req := require.New(t)
	_, ts := newTestGateway(t)

	alice := dial(t, ts, "userId=alice")
	bob := dial(t, ts, "userId=bob")
	waitRoster(t, alice, hasAll("alice", "bob"))

	frame, err := json.Marshal(map[string]any{
		"event":   chat.EventSendMessage,
		"payload": map[string]string{"receiverId": "bob", "text": "psst"},
	})
	req.NoError(err)
	req.NoError(alice.WriteMessage(websocket.TextMessage, frame))

	f := waitEvent(t, bob, chat.EventReceiveMessage)
	var got map[string]string
	req.NoError(json.Unmarshal(f.Payload, &got))
	// sender identity comes from the gateway's binding, not the payload
	req.Equal("alice", got["senderId"])
	req.Equal("psst", got["text"])
}

func TestUnboundSenderGetsErrorFrame(t *testing.T) {
	req := require.New(t)
	_, ts := newTestGateway(t)

	ws := dial(t, ts, "")

	frame, err := json.Marshal(map[string]any{
		"event":   chat.EventSendMessage,
		"payload": map[string]string{"receiverId": "bob", "text": "who am I"},
	})
	req.NoError(err)
	req.NoError(ws.WriteMessage(websocket.TextMessage, frame))

	waitEvent(t, ws, chat.EventError)
}

func TestRegisterFrameBindsAndRebinds(t *testing.T) {
	req := require.New(t)
	s, ts := newTestGateway(t)

	ws := dial(t, ts, "")
	waitRoster(t, ws, func(users []string) bool { return len(users) == 0 })

	reg := func(user string) {
		frame, err := json.Marshal(map[string]any{
			"event":   chat.EventRegister,
			"payload": map[string]string{"userId": user},
		})
		req.NoError(err)
		req.NoError(ws.WriteMessage(websocket.TextMessage, frame))
	}

	reg("carol")
	waitRoster(t, ws, hasAll("carol"))

	// re-register moves the conn, old identity disappears
	reg("carla")
	waitRoster(t, ws, func(users []string) bool {
		return hasAll("carla")(users) && lacks("carol")(users)
	})
	req.Empty(s.Registry().Lookup("carol"))
	req.Len(s.Registry().Lookup("carla"), 1)
}

func TestDisconnectUpdatesRoster(t *testing.T) {
	_, ts := newTestGateway(t)

	alice := dial(t, ts, "userId=alice")
	bob := dial(t, ts, "userId=bob")
	waitRoster(t, alice, hasAll("alice", "bob"))

	bob.Close()
	waitRoster(t, alice, lacks("bob"))
}

func TestSecondDeviceDisconnectKeepsUserOnline(t *testing.T) {
	req := require.New(t)
	s, ts := newTestGateway(t)

	a1 := dial(t, ts, "userId=alice")
	a2 := dial(t, ts, "userId=alice")
	waitRoster(t, a1, hasAll("alice"))
	waitRoster(t, a2, hasAll("alice"))

	a2.Close()
	req.Eventually(func() bool {
		return len(s.Registry().Lookup("alice")) == 1
	}, 3*time.Second, 20*time.Millisecond)
	req.Equal([]string{"alice"}, s.Registry().Snapshot())
}

func TestPingFrameAnswersPong(t *testing.T) {
	req := require.New(t)
	_, ts := newTestGateway(t)

	ws := dial(t, ts, "userId=alice")
	req.NoError(ws.WriteMessage(websocket.TextMessage, []byte(`{"event":"ping"}`)))
	waitEvent(t, ws, chat.EventPong)
}

func TestMalformedFrameGetsErrorNotDisconnect(t *testing.T) {
	req := require.New(t)
	_, ts := newTestGateway(t)

	ws := dial(t, ts, "userId=alice")
	waitRoster(t, ws, hasAll("alice"))

	req.NoError(ws.WriteMessage(websocket.TextMessage, []byte("not json")))
	waitEvent(t, ws, chat.EventError)

	// connection survives a bad frame
	req.NoError(ws.WriteMessage(websocket.TextMessage, []byte(`{"event":"ping"}`)))
	waitEvent(t, ws, chat.EventPong)
}
