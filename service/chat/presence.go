package chat

// Presence pushes the online-user roster to every live connection, bound or
// not. Snapshot and connection list are taken under the registry lock; the
// sends happen after release through the fan-out pool.
type Presence struct {
	reg *Registry
	fan *Fanout
}

func NewPresence(reg *Registry, fan *Fanout) *Presence {
	return &Presence{reg: reg, fan: fan}
}

// Broadcast is called on every mutation that changed the distinct online
// set: a user's first connection, their last disconnect, or a rebind that
// moved either side across that edge.
func (p *Presence) Broadcast() {
	payload := BuildOnlineUsers(p.reg.Snapshot())
	p.fan.Broadcast(p.reg.Conns(), payload)
}

// SendTo hands the current roster to a single (usually brand-new)
// connection so it does not wait for the next set change.
func (p *Presence) SendTo(c *Client) {
	c.Enqueue(BuildOnlineUsers(p.reg.Snapshot()))
}
