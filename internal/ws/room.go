package ws

import (
	"sync"
)

// room is the ordered member list for one room name.
type room struct {
	mu    sync.RWMutex
	conns []*clientConn
}

func newRoom() *room { return &room{} }

func (r *room) add(c *clientConn) {
	r.mu.Lock()
	r.conns = append(r.conns, c)
	r.mu.Unlock()
}

// remove matches by identity, not position; it reports whether c was present.
func (r *room) remove(c *clientConn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, cc := range r.conns {
		if cc == c {
			last := len(r.conns) - 1
			copy(r.conns[i:], r.conns[i+1:])
			r.conns[last] = nil
			r.conns = r.conns[:last]
			return true
		}
	}
	return false
}

func (r *room) size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

func (r *room) snapshot() []*clientConn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conns := make([]*clientConn, len(r.conns))
	copy(conns, r.conns)
	return conns
}
