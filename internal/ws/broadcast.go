package ws

import (
	"go.uber.org/zap"
)

// Broadcaster fans one message out to every member of a room.
type Broadcaster struct {
	hub *Hub
}

func NewBroadcaster(hub *Hub) *Broadcaster { return &Broadcaster{hub: hub} }

// Broadcast returns how many members accepted the message. A failed recipient
// is logged and skipped; it is never retried and never removed here, its own
// session does the cleanup.
func (b *Broadcaster) Broadcast(roomName string, msg []byte) int {
	delivered := 0
	for _, c := range b.hub.Snapshot(roomName) {
		if err := c.enqueue(msg); err != nil {
			zap.L().Warn("ws.deliver",
				zap.String("room", roomName),
				zap.String("conn", c.id),
				zap.String("identity", c.identity),
				zap.Error(err))
			continue
		}
		delivered++
	}
	return delivered
}
