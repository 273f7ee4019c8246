package ws

import (
	"sync"
)

// Hub is the connection registry: live connections grouped by room name.
// A room exists in the map only while it has at least one member.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]*room
}

func NewHub() *Hub { return &Hub{rooms: make(map[string]*room)} }

func (h *Hub) Register(roomName string, c *clientConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.rooms[roomName]
	if !ok {
		r = newRoom()
		h.rooms[roomName] = r
	}
	r.add(c)
}

// Deregister is idempotent. Empty rooms are dropped under the same lock that
// guards Register, so a detached room can never gain members.
func (h *Hub) Deregister(roomName string, c *clientConn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.rooms[roomName]
	if !ok {
		return false
	}
	removed := r.remove(c)
	if r.size() == 0 {
		delete(h.rooms, roomName)
	}
	return removed
}

// Snapshot returns a point-in-time copy of the room's members.
func (h *Hub) Snapshot(roomName string) []*clientConn {
	h.mu.RLock()
	r, ok := h.rooms[roomName]
	h.mu.RUnlock()
	if !ok {
		return []*clientConn{}
	}
	return r.snapshot()
}

func (h *Hub) Count(roomName string) int {
	h.mu.RLock()
	r, ok := h.rooms[roomName]
	h.mu.RUnlock()
	if !ok {
		return 0
	}
	return r.size()
}

// Rooms lists live rooms with their member counts.
func (h *Hub) Rooms() map[string]int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make(map[string]int, len(h.rooms))
	for name, r := range h.rooms {
		out[name] = r.size()
	}
	return out
}

