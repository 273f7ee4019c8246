package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"roomrelay/internal/auth"
	"roomrelay/internal/config"
	"roomrelay/internal/database/db_client"
	"roomrelay/internal/history"
	"roomrelay/internal/http/http_server"
	"roomrelay/internal/http/statushandler"
	"roomrelay/internal/redis/redis_client"
	"roomrelay/internal/services/account"
	"roomrelay/internal/ws"
)

var (
	Log, _ = zap.NewDevelopment()
)

func main() {
	defer Log.Sync()
	zap.ReplaceGlobals(Log)

	var err error
	var cfg *config.Config
	var redisClient *redis.Client

	// 1. Load configuration
	cfg, err = config.LoadConfig()
	if err != nil {
		Log.Fatal("Failed to load configuration", zap.Error(err))
	}
	if cfg.LogFormat == "json" {
		if prod, perr := zap.NewProduction(); perr == nil {
			Log = prod
			zap.ReplaceGlobals(Log)
		}
	}
	Log.Debug("Configuration loaded successfully",
		zap.String("redis_host", cfg.RedisHost),
		zap.Int("redis_db", cfg.RedisDb),
		zap.String("algorithm", cfg.Algorithm),
		zap.Uint16("http_port", cfg.HttpServerPort))

	// 2. Context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGINT, syscall.SIGTERM,
	)
	defer stop()

	// 3. Redis (history backing store)
	redisClient, err = redis_client.NewRedisClient(cfg.RedisHost, int(cfg.RedisPort), cfg.RedisDb, cfg.RedisPassword)
	if err != nil {
		Log.Fatal("Failed to create Redis client", zap.Error(err))
	}
	defer redisClient.Close()
	Log.Debug("Redis client created successfully")

	// 4. Postgres (credential store)
	pgDb, err := db_client.Open(cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresUser, cfg.PostgresPassword, cfg.PostgresDb)
	if err != nil {
		Log.Fatal("pg-open", zap.Error(err))
	}
	defer pgDb.Close()
	if err := db_client.EnsureSchema(ctx, pgDb); err != nil {
		Log.Fatal("pg-schema", zap.Error(err))
	}

	// 5. Claims + accounts
	tokens, err := auth.NewTokenManager(auth.TokenConfig{
		SecretKey: cfg.SecretKey,
		Algorithm: cfg.Algorithm,
		TTL:       time.Duration(cfg.AccessTokenExpireMinutes) * time.Minute,
	})
	if err != nil {
		Log.Fatal("token-manager", zap.Error(err))
	}
	accountService := account.NewAccountService(pgDb, auth.NewPasswordHasher(cfg.BcryptCost), tokens)

	// 6. Relay: registry + history + admission
	wsSrv := ws.NewWsServer(ws.NewHub(), history.NewRedisStore(redisClient), tokens, ws.Options{
		HistoryMaxLen:  cfg.HistoryMaxLen,
		HistoryReplay:  cfg.HistoryReplay,
		MaxMessageSize: cfg.MaxMessageSize,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	// 7. HTTP + WS server
	httpServer := http_server.NewHttpServer(ctx, cfg.HttpServerPort, wsSrv, accountService,
		map[string]statushandler.Check{
			"redis":    func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
			"postgres": pgDb.PingContext,
		})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(httpServer.Start)
	g.Go(func() error {
		<-gctx.Done()
		Log.Info("shutting down")
		return httpServer.Dispose()
	})
	if err := g.Wait(); err != nil {
		Log.Error("server stopped", zap.Error(err))
	}
}
