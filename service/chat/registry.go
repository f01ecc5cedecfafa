package chat

import (
	"errors"
	"sort"
	"sync"
)

// Trust records how a connection's user binding was established.
type Trust int

const (
	TrustNone       Trust = iota // connection not bound to any user
	TrustUnverified              // plaintext userId param or register frame, no credential check
	TrustVerified                // credential verified against the token service
)

func (t Trust) String() string {
	switch t {
	case TrustVerified:
		return "verified"
	case TrustUnverified:
		return "unverified"
	default:
		return "none"
	}
}

// BindResult describes how a Bind call changed the online-user set.
type BindResult struct {
	Changed     bool   // the connection moved to a different user
	CameOnline  bool   // the new user gained their first connection
	WentOffline bool   // the previous user lost their last connection
	PrevUser    string // previous binding, empty if the conn was unbound
}

// Registry is the process-wide map from user id to that user's live
// connections. It is the single authority for presence and routing; it holds
// no persistent state and is rebuilt from zero on restart.
//
// One RWMutex serializes all mutations. Nothing network-blocking ever runs
// under the lock: callers resolve credentials first and deliver payloads
// after the lookup copies are taken.
type Registry struct {
	mu     sync.RWMutex
	byUser map[string]map[string]*Client // user -> conn_id -> conn
	byConn map[string]*Client            // conn_id -> conn (bound or not)
}

func NewRegistry() *Registry {
	return &Registry{
		byUser: make(map[string]map[string]*Client),
		byConn: make(map[string]*Client),
	}
}

// Track registers a live connection before any identity is known. Unbound
// connections receive presence broadcasts but take no part in routing.
func (r *Registry) Track(c *Client) error {
	if c == nil || c.ConnID == "" {
		return errors.New("nil client or empty conn id")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byConn[c.ConnID]; exists {
		return errors.New("conn id already tracked")
	}
	c.userID, c.trust = "", TrustNone
	r.byConn[c.ConnID] = c
	return nil
}

// Bind attaches the connection to userID, replacing any previous binding in
// the same critical section so concurrent lookups never see the connection
// under neither or both users. Binding the same pair again is a no-op apart
// from a possible trust upgrade.
func (r *Registry) Bind(connID, userID string, trust Trust) (BindResult, error) {
	var res BindResult
	if connID == "" || userID == "" {
		return res, errors.New("conn id or user id empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.byConn[connID]
	if !ok {
		return res, errors.New("conn id not tracked")
	}

	if c.userID == userID {
		if trust > c.trust {
			c.trust = trust
		}
		return res, nil
	}

	// unbind-old + bind-new, atomic under r.mu
	if c.userID != "" {
		res.PrevUser = c.userID
		m := r.byUser[c.userID]
		if m == nil || m[connID] == nil {
			// a conn bound in byConn must sit under exactly that user
			panic("registry corrupted: conn missing from owner set")
		}
		delete(m, connID)
		if len(m) == 0 {
			delete(r.byUser, c.userID)
			res.WentOffline = true
		}
	}

	m := r.byUser[userID]
	if m == nil {
		m = make(map[string]*Client)
		r.byUser[userID] = m
		res.CameOnline = true
	}
	m[connID] = c
	c.userID = userID
	c.trust = trust
	res.Changed = true
	return res, nil
}

// Drop removes the connection entirely, whatever identity it last held.
// Returns that identity and whether the user just lost their last connection.
func (r *Registry) Drop(connID string) (userID string, wentOffline bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.byConn[connID]
	if !ok {
		return "", false
	}
	delete(r.byConn, connID)
	if c.userID == "" {
		return "", false
	}
	userID = c.userID
	if m := r.byUser[userID]; m != nil {
		delete(m, connID)
		if len(m) == 0 {
			delete(r.byUser, userID)
			wentOffline = true
		}
	}
	c.userID, c.trust = "", TrustNone
	return userID, wentOffline
}

// Lookup returns a copy of the user's live connections. Exact-key only:
// a user id never matches prefixes or substrings of another.
func (r *Registry) Lookup(userID string) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m := r.byUser[userID]
	if len(m) == 0 {
		return nil
	}
	out := make([]*Client, 0, len(m))
	for _, c := range m {
		out = append(out, c)
	}
	return out
}

// Snapshot returns the current set of online users as one consistent view.
func (r *Registry) Snapshot() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.byUser))
	for u := range r.byUser {
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}

// Conns returns every live connection, bound or not.
func (r *Registry) Conns() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Client, 0, len(r.byConn))
	for _, c := range r.byConn {
		out = append(out, c)
	}
	return out
}

// BoundUser reports the identity a connection currently holds.
func (r *Registry) BoundUser(connID string) (string, Trust) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byConn[connID]
	if !ok {
		return "", TrustNone
	}
	return c.userID, c.trust
}

// Dump exposes the full mapping for the authenticated debug endpoint.
func (r *Registry) Dump() map[string][]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string][]string, len(r.byUser))
	for u, m := range r.byUser {
		conns := make([]string, 0, len(m))
		for id := range m {
			conns = append(conns, id)
		}
		sort.Strings(conns)
		out[u] = conns
	}
	return out
}
