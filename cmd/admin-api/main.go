package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/betbot/internal/adminapi"
	"github.com/radieske/betbot/internal/adminapi/ws"
	"github.com/radieske/betbot/internal/app"
	"github.com/radieske/betbot/internal/shared/cache"
	"github.com/radieske/betbot/internal/shared/config"
	"github.com/radieske/betbot/internal/shared/logger"
	"github.com/radieske/betbot/internal/shared/metrics"
)

func main() {
	cfg, err := config.LoadService("admin-api")
	if err != nil {
		panic(err)
	}
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid config", zap.Error(err))
	}
	if cfg.AdminAPIToken == "" {
		log.Warn("ADMIN_API_TOKEN not set; only X-Admin-ID is checked")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	m := metrics.NewCollectors(prometheus.DefaultRegisterer)

	core, err := app.NewCore(ctx, cfg, log, m)
	if err != nil {
		log.Fatal("core init", zap.Error(err))
	}
	defer core.Close()

	api := &adminapi.API{
		Log:      log,
		Accounts: core.Accounts,
		Bets:     core.Bets,
		Payments: core.Payments,
		Token:    cfg.AdminAPIToken,
	}
	if core.PG != nil {
		api.Matches = core.PG
	}

	checks := []metrics.HealthFunc{core.Health}

	// Feed /ws/odds alimentado pelo pub/sub do odds-worker
	if cfg.RedisAddr != "" {
		rdb, err := cache.ConnectRedis(ctx, cfg.RedisAddr)
		if err != nil {
			log.Fatal("redis connect", zap.Error(err))
		}
		defer rdb.Close()

		// nil mantém a checagem de mesma origem do gorilla; local libera tudo
		var allowOrigin func(*http.Request) bool
		if cfg.Env == "local" {
			allowOrigin = func(*http.Request) bool { return true }
		}
		hub := ws.NewHub(log, allowOrigin)
		ws.StartRedisSubscriber(ctx, log, rdb, cfg.RedisPubSubChannel, hub)
		api.Hub = hub
		checks = append(checks, func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	}

	msrv := metrics.StartMetricsServer(log, cfg.MetricsPort, metrics.Checks(checks...))
	defer msrv.Close()

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("admin-api listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("admin-api", zap.Error(err))
			cancel()
		}
	}()

	<-ctx.Done()
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("admin-api shutdown", zap.Error(err))
	}
	log.Info("admin-api stopped")
}
