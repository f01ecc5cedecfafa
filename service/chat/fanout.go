package chat

import "sync"

type fanoutJob struct {
	conns   []*Client
	payload []byte
}

// Fanout delivers one payload to many connections through a small worker
// pool, keeping slow per-connection sends off the callers' goroutines.
// Delivery is fire-and-forget: a full client queue drops the event.
type Fanout struct {
	jobs chan fanoutJob

	mu     sync.RWMutex
	closed bool
}

func NewFanout(workers, queue int) *Fanout {
	f := &Fanout{jobs: make(chan fanoutJob, queue)}
	for i := 0; i < workers; i++ {
		go func() {
			for job := range f.jobs {
				for _, c := range job.conns {
					c.Enqueue(job.payload)
				}
			}
		}()
	}
	return f
}

// Broadcast after Close is a no-op, mirroring Enqueue on a closed client.
func (f *Fanout) Broadcast(conns []*Client, payload []byte) {
	if len(conns) == 0 || len(payload) == 0 {
		return
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.closed {
		return
	}
	f.jobs <- fanoutJob{conns: conns, payload: payload}
}

func (f *Fanout) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	close(f.jobs)
}
