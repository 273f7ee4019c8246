package http_server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomrelay/internal/auth"
	"roomrelay/internal/history"
	"roomrelay/internal/services/account"
	"roomrelay/internal/ws"
)

type noAccounts struct{}

func (noAccounts) Register(context.Context, string, string) error { return nil }
func (noAccounts) Login(context.Context, string, string) (*account.TokenDTO, error) {
	return nil, account.ErrInvalidCredentials
}
func (noAccounts) Verify(context.Context, string, string) (bool, error) { return false, nil }

func TestRoutesWireRelayAndStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tokens, err := auth.NewTokenManager(auth.TokenConfig{SecretKey: "wiring-test-secret-01", Algorithm: "HS256", TTL: time.Hour})
	require.NoError(t, err)
	wsSrv := ws.NewWsServer(ws.NewHub(), history.NewMemoryStore(), tokens, ws.Options{})

	h := NewHttpServer(context.Background(), 8085, wsSrv, noAccounts{}, nil)
	ts := httptest.NewServer(h.routes())
	t.Cleanup(func() {
		_ = wsSrv.Shutdown(time.Second)
		ts.Close()
	})

	tok, err := tokens.Issue("alice")
	require.NoError(t, err)
	c, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws?room=lobby&token="+tok, nil)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, msg, err := c.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "✅ alice joined [lobby]", string(msg))

	resp, err := http.Get(ts.URL + "/rooms")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp2, err := http.Post(ts.URL+"/login", "application/json", strings.NewReader(`{"id":"alice","password":"whatever1"}`))
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp2.StatusCode)
}

func TestDisposeBeforeStartStopsServing(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tokens, err := auth.NewTokenManager(auth.TokenConfig{SecretKey: "wiring-test-secret-01", Algorithm: "HS256", TTL: time.Hour})
	require.NoError(t, err)
	wsSrv := ws.NewWsServer(ws.NewHub(), history.NewMemoryStore(), tokens, ws.Options{})

	h := NewHttpServer(context.Background(), 0, wsSrv, noAccounts{}, nil)
	require.NoError(t, h.Dispose())

	done := make(chan error, 1)
	go func() { done <- h.Start() }()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Start kept serving after Dispose")
	}
}
