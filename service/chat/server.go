package chat

import (
	"IMProject/tools/errs"
	"IMProject/tools/security"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// PresenceMirror receives bind/unbind notifications so an external store
// (redis) can advertise liveness to other services. Calls are advisory and
// must never block registry progress.
type PresenceMirror interface {
	Online(user string)
	Offline(user string)
}

// Server owns the connection lifecycle: it is the only component that
// mutates the registry. Handlers and the REST layer reach routing and
// presence through it.
// mirrorRefreshPeriod keeps presence keys renewed well inside the mirror's
// TTL so a long-lived connection never reads as offline.
const mirrorRefreshPeriod = 30 * time.Second

type Server struct {
	gwID     string
	reg      *Registry
	fan      *Fanout
	presence *Presence
	router   *Router
	disp     *Dispatcher
	resolver *Resolver
	mirror   PresenceMirror

	mirrorRefresh time.Duration
	stop          chan struct{}
	closeOnce     sync.Once
}

type Option func(*Server)

func WithMirror(m PresenceMirror) Option {
	return func(s *Server) { s.mirror = m }
}

// WithMirrorRefresh overrides how often online users are re-announced to the
// presence mirror.
func WithMirrorRefresh(d time.Duration) Option {
	return func(s *Server) { s.mirrorRefresh = d }
}

func WithFanout(workers, queue int) Option {
	return func(s *Server) { s.fan = NewFanout(workers, queue) }
}

func NewServer(gwID string, jwtOpts security.Options, opts ...Option) *Server {
	s := &Server{
		gwID:          gwID,
		reg:           NewRegistry(),
		disp:          NewDispatcher(),
		resolver:      NewResolver(jwtOpts),
		mirrorRefresh: mirrorRefreshPeriod,
		stop:          make(chan struct{}),
	}
	for _, o := range opts {
		o(s)
	}
	if s.fan == nil {
		s.fan = NewFanout(4, 4096)
	}
	s.presence = NewPresence(s.reg, s.fan)
	s.router = NewRouter(s.reg, s.fan)
	if s.mirror != nil {
		go s.refreshMirror()
	}
	return s
}

// refreshMirror re-announces every online user so their mirror keys stay
// ahead of the TTL. Bind/drop remain the authoritative edge signals; this
// loop only fights key expiry.
func (s *Server) refreshMirror() {
	ticker := time.NewTicker(s.mirrorRefresh)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			for _, u := range s.reg.Snapshot() {
				s.mirror.Online(u)
			}
		}
	}
}

func (s *Server) GwID() string        { return s.gwID }
func (s *Server) Registry() *Registry { return s.reg }
func (s *Server) Router() *Router     { return s.router }
func (s *Server) Disp() *Dispatcher   { return s.disp }

// Bind attaches a connection to a user and propagates the side effects:
// presence mirror refresh and, when the online set actually changed, a
// roster broadcast. Used for handshake bindings and register frames alike.
func (s *Server) Bind(c *Client, userID string, trust Trust) error {
	res, err := s.reg.Bind(c.ConnID, userID, trust)
	if err != nil {
		return err
	}
	if s.mirror != nil {
		if res.WentOffline && res.PrevUser != "" {
			s.mirror.Offline(res.PrevUser)
		}
		if res.Changed {
			s.mirror.Online(userID)
		}
	}
	if res.CameOnline || res.WentOffline {
		s.presence.Broadcast()
	}
	return nil
}

// PushDirect is the ephemeral send path: forward a payload to the
// receiver's live connections with the sender's bound identity attached.
// Nothing is persisted; the durable path is the messages API.
func (s *Server) PushDirect(c *Client, p *SendMessagePayload) error {
	sender, _ := s.reg.BoundUser(c.ConnID)
	if sender == "" {
		return errs.ErrBadRequest.WithDetail("connection not bound, register first")
	}
	if p.ReceiverID == "" {
		return errs.ErrBadRequest.WithDetail("receiverId required")
	}
	if p.Text == "" && p.Image == "" {
		return errs.ErrBadRequest.WithDetail("text or image required")
	}
	s.fan.Broadcast(s.reg.Lookup(p.ReceiverID), BuildDirectMessage(sender, p))
	return nil
}

// dropConn finishes a connection's lifecycle: registry removal for whatever
// identity it last held, mirror cleanup, roster broadcast if the user went
// offline. Closed is terminal; reconnects arrive as brand-new handles.
func (s *Server) dropConn(c *Client) {
	user, wentOffline := s.reg.Drop(c.ConnID)
	if wentOffline {
		if s.mirror != nil {
			s.mirror.Offline(user)
		}
		s.presence.Broadcast()
	}
	c.Close()
}

// HandleDump serves the debug view of the registry. Routed behind the same
// auth middleware as every privileged endpoint.
func (s *Server) HandleDump(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"gateway": s.gwID,
		"conns":   s.reg.Dump(),
	})
}

// Close stops the fan-out workers and the mirror refresher. Live
// connections close on their own as their sockets drop.
func (s *Server) Close() {
	s.closeOnce.Do(func() {
		close(s.stop)
		s.fan.Close()
	})
}
