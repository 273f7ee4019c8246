package http_server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"roomrelay/internal/http/accounthandler"
	"roomrelay/internal/http/statushandler"
	"roomrelay/internal/services/account"
	"roomrelay/internal/ws"
)

const (
	shutdownTimeout   = 10 * time.Second
	wsShutdownTimeout = 5 * time.Second
)

type httpServer struct {
	listenPort     uint16
	srv            *http.Server
	accountService account.IAccountService
	wsSrv          *ws.WsServer
	checks         map[string]statushandler.Check
	ctx            context.Context
}

func NewHttpServer(ctx context.Context, listenPort uint16, wsSrv *ws.WsServer,
	accountService account.IAccountService, checks map[string]statushandler.Check) *httpServer {
	h := &httpServer{
		listenPort:     listenPort,
		wsSrv:          wsSrv,
		accountService: accountService,
		checks:         checks,
		ctx:            ctx,
	}
	h.srv = &http.Server{
		Handler:           h.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return h
}

func (h *httpServer) routes() *gin.Engine {
	routerEngine := gin.New()

	routerEngine.Use(ginzap.Ginzap(zap.L(), time.RFC3339, true))
	routerEngine.Use(ginzap.RecoveryWithZap(zap.L(), true))

	// websocket endpoint
	routerEngine.GET("/ws", h.wsSrv.Handle)

	accounthandler.New(h.accountService).Register(routerEngine)
	statushandler.New(h.wsSrv, h.checks).Register(routerEngine)

	return routerEngine
}

// Start blocks serving until Dispose is called. Called after Dispose it
// returns nil straight away.
func (h *httpServer) Start() error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", h.listenPort))
	if err != nil {
		return err
	}
	zap.L().Info("http_listen", zap.String("addr", ln.Addr().String()))

	if err := h.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Dispose stops accepting requests, then closes live relay sessions.
// Hijacked websocket connections are not covered by http.Server.Shutdown.
func (h *httpServer) Dispose() error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(h.ctx), shutdownTimeout)
	defer cancel()

	err := h.srv.Shutdown(ctx)
	if err != nil {
		zap.L().Error("http_dispose", zap.Error(err))
	}
	if wsErr := h.wsSrv.Shutdown(wsShutdownTimeout); wsErr != nil {
		zap.L().Error("ws_dispose", zap.Error(wsErr))
		err = errors.Join(err, wsErr)
	}
	return err
}
