package ws

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var (
	errConnClosed    = errors.New("connection closed")
	errSendQueueFull = errors.New("send queue full")
)

const minSendQueue = 256

// clientConn is one admitted websocket plus the identity bound to it.
// Outbound frames go through send and are written only by writePump.
type clientConn struct {
	id       string
	identity string
	rawConn  *websocket.Conn

	mu     sync.Mutex
	closed bool
	send   chan []byte
}

func newClientConn(rawConn *websocket.Conn, identity string, queueSize int) *clientConn {
	if queueSize < minSendQueue {
		queueSize = minSendQueue
	}
	return &clientConn{
		id:       uuid.NewString(),
		identity: identity,
		rawConn:  rawConn,
		send:     make(chan []byte, queueSize),
	}
}

// enqueue never blocks: a slow or dead peer must not stall the room.
func (c *clientConn) enqueue(msg []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errConnClosed
	}
	select {
	case c.send <- msg:
		return nil
	default:
		return errSendQueueFull
	}
}

// closeSend stops the write pump after it flushes what is already queued.
func (c *clientConn) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *clientConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.rawConn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.rawConn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.rawConn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.rawConn.WriteMessage(websocket.TextMessage, msg); err != nil {
				if !isExpectedCloseError(err) {
					zap.L().Debug("ws.write", zap.String("conn", c.id), zap.Error(err))
				}
				return
			}
		case <-ticker.C:
			_ = c.rawConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.rawConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				zap.L().Debug("ws.ping", zap.String("conn", c.id), zap.Error(err))
				return
			}
		}
	}
}

func isExpectedCloseError(err error) bool {
	return errors.Is(err, websocket.ErrCloseSent) ||
		websocket.IsCloseError(err,
			websocket.CloseNormalClosure,
			websocket.CloseGoingAway,
			websocket.CloseNoStatusReceived)
}
