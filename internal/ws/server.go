package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"roomrelay/internal/history"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second // must be < pongWait
	historyTimeout = 4 * time.Second

	DefaultRoom    = "default"
	maxRoomNameLen = 128
)

type Options struct {
	HistoryMaxLen  int
	HistoryReplay  int
	MaxMessageSize int64
	// Empty means any origin is accepted.
	AllowedOrigins []string
}

type WsServer struct {
	hub         *Hub
	seq         *sequencer
	broadcaster *Broadcaster
	gate        *Gate
	history     history.Store
	opts        Options
	upgrader    websocket.Upgrader

	baseCtx  context.Context
	cancel   context.CancelFunc
	sessions sync.WaitGroup

	// upgraded connections not yet through their close path
	mu       sync.Mutex
	closing  bool
	rawConns map[*websocket.Conn]struct{}
}

func NewWsServer(hub *Hub, store history.Store, verifier ClaimVerifier, opts Options) *WsServer {
	if opts.HistoryMaxLen <= 0 {
		opts.HistoryMaxLen = history.DefaultMaxLen
	}
	if opts.HistoryReplay < 0 || opts.HistoryReplay > opts.HistoryMaxLen {
		opts.HistoryReplay = min(history.DefaultReplay, opts.HistoryMaxLen)
	}
	if opts.MaxMessageSize <= 0 {
		opts.MaxMessageSize = 4096
	}

	ctx, cancel := context.WithCancel(context.Background())
	srv := &WsServer{
		hub:         hub,
		seq:         newSequencer(),
		broadcaster: NewBroadcaster(hub),
		gate:        NewGate(verifier),
		history:     store,
		opts:        opts,
		baseCtx:     ctx,
		cancel:      cancel,
		rawConns:    make(map[*websocket.Conn]struct{}),
	}
	srv.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     srv.checkOrigin,
	}
	return srv
}

// Handle is the gin entry-point for GET /ws?token=<claim>&room=<name>.
func (s *WsServer) Handle(ginCtx *gin.Context) {
	roomName := ginCtx.DefaultQuery("room", DefaultRoom)
	if roomName == "" {
		roomName = DefaultRoom
	}
	if len(roomName) > maxRoomNameLen {
		ginCtx.JSON(http.StatusBadRequest, gin.H{"error": "room name too long"})
		return
	}
	claim := ginCtx.Query("token")

	rawConn, err := s.upgrader.Upgrade(ginCtx.Writer, ginCtx.Request, nil)
	if err != nil {
		zap.L().Warn("ws.accept", zap.Error(err))
		return
	}

	if !s.track(rawConn) {
		_ = rawConn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
			time.Now().Add(writeWait))
		_ = rawConn.Close()
		return
	}
	defer s.untrack(rawConn)
	newSession(s, rawConn, roomName).run(s.baseCtx, claim)
}

// track counts the session in under the same lock Shutdown takes, so no
// session can start after Shutdown began waiting.
func (s *WsServer) track(rawConn *websocket.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return false
	}
	s.rawConns[rawConn] = struct{}{}
	s.sessions.Add(1)
	return true
}

func (s *WsServer) untrack(rawConn *websocket.Conn) {
	s.mu.Lock()
	delete(s.rawConns, rawConn)
	s.mu.Unlock()
	s.sessions.Done()
}

// Shutdown refuses new sessions, closes every upgraded connection (admitted
// or not) and waits for the sessions to run their close path, up to timeout.
func (s *WsServer) Shutdown(timeout time.Duration) error {
	s.mu.Lock()
	s.closing = true
	conns := make([]*websocket.Conn, 0, len(s.rawConns))
	for c := range s.rawConns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	s.cancel()
	for _, c := range conns {
		_ = c.Close()
	}

	done := make(chan struct{})
	go func() {
		s.sessions.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		zap.L().Warn("ws.shutdown_timeout", zap.Duration("timeout", timeout))
		return context.DeadlineExceeded
	}
}

// Rooms lists live rooms with member counts.
func (s *WsServer) Rooms() map[string]int { return s.hub.Rooms() }

func (s *WsServer) checkOrigin(r *http.Request) bool {
	if len(s.opts.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	for _, o := range s.opts.AllowedOrigins {
		if o == "*" || o == origin {
			return true
		}
	}
	zap.L().Warn("ws.origin_blocked", zap.String("origin", origin))
	return false
}
