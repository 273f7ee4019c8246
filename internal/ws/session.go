package ws

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type sessionState int

const (
	stateConnecting sessionState = iota
	stateAdmitted
	stateActive
	stateClosed
)

func (st sessionState) String() string {
	switch st {
	case stateConnecting:
		return "connecting"
	case stateAdmitted:
		return "admitted"
	case stateActive:
		return "active"
	case stateClosed:
		return "closed"
	}
	return "unknown"
}

// session drives one upgraded connection from admission to close.
type session struct {
	srv      *WsServer
	rawConn  *websocket.Conn
	roomName string
	state    sessionState

	conn  *clientConn
	token *roomToken
	log   *zap.Logger
}

func newSession(srv *WsServer, rawConn *websocket.Conn, roomName string) *session {
	return &session{
		srv:      srv,
		rawConn:  rawConn,
		roomName: roomName,
		state:    stateConnecting,
		log:      zap.L().With(zap.String("room", roomName)),
	}
}

func (ss *session) setState(st sessionState) {
	ss.log.Debug("ws.session_state",
		zap.Stringer("from", ss.state), zap.Stringer("to", st))
	ss.state = st
}

// run blocks until the connection ends.
func (ss *session) run(ctx context.Context, claim string) {
	identity, err := ss.srv.gate.Admit(claim)
	if err != nil {
		ss.reject(err)
		return
	}

	ss.conn = newClientConn(ss.rawConn, identity, ss.srv.opts.HistoryReplay+minSendQueue)
	ss.log = ss.log.With(zap.String("conn", ss.conn.id), zap.String("identity", identity))
	ss.setState(stateAdmitted)

	go ss.conn.writePump()
	ss.admit(ctx)
	ss.publish(ctx, joinAnnouncement(identity, ss.roomName), false)

	ss.setState(stateActive)
	ss.readLoop(ctx)

	ss.close(ctx)
}

// reject ends a connection that never got past the gate: policy-violation
// close, no payload, no registry or history access.
func (ss *session) reject(err error) {
	ss.log.Info("ws.admission_rejected", zap.Error(err))
	_ = ss.rawConn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, ""),
		time.Now().Add(writeWait))
	_ = ss.rawConn.Close()
	ss.setState(stateClosed)
}

// admit registers the connection and queues the replay while holding the
// room's token, so no live message can slip between replay and membership.
func (ss *session) admit(ctx context.Context) {
	ss.token = ss.srv.seq.acquire(ss.roomName)
	ss.token.Lock()
	defer ss.token.Unlock()

	ss.srv.hub.Register(ss.roomName, ss.conn)

	hctx, cancel := context.WithTimeout(ctx, historyTimeout)
	entries, err := ss.srv.history.Recent(hctx, ss.roomName, ss.srv.opts.HistoryReplay)
	cancel()
	if err != nil {
		ss.log.Warn("history.replay", zap.Error(err))
		return
	}
	for _, e := range entries {
		if err := ss.conn.enqueue([]byte(e)); err != nil {
			ss.log.Warn("ws.replay", zap.Error(err))
			return
		}
	}
}

// publish appends (when persist is set) and then broadcasts, in that order,
// under the room's token. A failed append is logged and the line is still
// broadcast so live members keep real-time delivery.
func (ss *session) publish(ctx context.Context, line string, persist bool) int {
	ss.token.Lock()
	defer ss.token.Unlock()

	if persist {
		hctx, cancel := context.WithTimeout(ctx, historyTimeout)
		err := ss.srv.history.AppendTrimmed(hctx, ss.roomName, line, ss.srv.opts.HistoryMaxLen)
		cancel()
		if err != nil {
			ss.log.Error("history.append", zap.Error(err))
		}
	}
	return ss.srv.broadcaster.Broadcast(ss.roomName, []byte(line))
}

func (ss *session) readLoop(ctx context.Context) {
	ss.rawConn.SetReadLimit(ss.srv.opts.MaxMessageSize)
	_ = ss.rawConn.SetReadDeadline(time.Now().Add(pongWait))
	ss.rawConn.SetPongHandler(func(string) error {
		return ss.rawConn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		mt, data, err := ss.rawConn.ReadMessage()
		if err != nil {
			ss.logReadError(err)
			return
		}
		if mt != websocket.TextMessage {
			ss.refuseFrame(websocket.CloseUnsupportedData, "text frames only")
			return
		}
		if !utf8.Valid(data) {
			ss.refuseFrame(websocket.CloseInvalidFramePayloadData, "invalid utf-8")
			return
		}
		n := ss.publish(ctx, formatEntry(ss.conn.identity, data), true)
		ss.log.Debug("ws.message", zap.Int("delivered", n))
	}
}

// refuseFrame ends the session on a frame that can never be relayed as chat
// text. Nothing is appended or broadcast for it.
func (ss *session) refuseFrame(code int, reason string) {
	ss.log.Info("ws.frame_refused", zap.Int("code", code), zap.String("reason", reason))
	_ = ss.rawConn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason),
		time.Now().Add(writeWait))
}

func (ss *session) logReadError(err error) {
	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		ss.log.Info("ws.read_limit", zap.Int64("max", ss.srv.opts.MaxMessageSize))
	case isExpectedCloseError(err):
		ss.log.Debug("ws.disconnect", zap.Error(err))
	default:
		ss.log.Info("ws.read", zap.Error(err))
	}
}

// close runs the same path for clean and error closes: deregister, announce
// the leave to whoever is left, stop the write pump, drop the room token.
func (ss *session) close(ctx context.Context) {
	ss.setState(stateClosed)

	if ss.srv.hub.Deregister(ss.roomName, ss.conn) {
		ss.publish(ctx, leaveAnnouncement(ss.conn.identity, ss.roomName), false)
	}
	ss.conn.closeSend()
	ss.srv.seq.release(ss.roomName)
}
