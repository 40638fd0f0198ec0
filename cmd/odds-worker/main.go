package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/betbot/internal/odds"
	"github.com/radieske/betbot/internal/shared/cache"
	"github.com/radieske/betbot/internal/shared/config"
	"github.com/radieske/betbot/internal/shared/db"
	"github.com/radieske/betbot/internal/shared/logger"
	"github.com/radieske/betbot/internal/shared/metrics"
	"github.com/radieske/betbot/internal/storage/postgres"
)

func main() {
	cfg, err := config.LoadService("odds-worker")
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

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	redisClient, err := cache.ConnectRedis(ctx, cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer redisClient.Close()

	m := metrics.NewCollectors(prometheus.DefaultRegisterer)
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "betbot_odds_errors_total", Help: "erros do refresh por estágio",
	}, []string{"stage"})
	prometheus.MustRegister(errorsBy)

	refresher := &odds.Refresher{
		Log:         log,
		Source:      odds.NewClient(cfg.Odds.BaseURL, cfg.Odds.APIKey),
		Cache:       odds.NewRedisCache(redisClient, cfg.Odds.CacheTTL),
		Broadcaster: odds.NewRedisBroadcaster(redisClient, cfg.RedisPubSubChannel),
		Sports:      cfg.Odds.Sports,
		Interval:    cfg.Odds.RefreshInterval,
		OnRefresh:   func(result string) { m.OddsRefresh.WithLabelValues(result).Inc() },
		OnError:     func(stage string) { errorsBy.WithLabelValues(stage).Inc() },
	}

	checks := []metrics.HealthFunc{func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }}

	// Postgres guarda o snapshot das partidas para o admin-api; sem ele o worker só alimenta o cache
	if cfg.Storage == "postgres" {
		pg, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Fatal("postgres connect", zap.Error(err))
		}
		defer pg.Close()
		store := postgres.New(pg)
		if err := store.Migrate(ctx); err != nil {
			log.Fatal("migrate", zap.Error(err))
		}
		refresher.Matches = store
		checks = append(checks, pg.PingContext)
	}

	msrv := metrics.StartMetricsServer(log, cfg.MetricsPort, metrics.Checks(checks...))
	defer msrv.Close()

	log.Info("odds-worker started",
		zap.Strings("sports", cfg.Odds.Sports),
		zap.Duration("interval", cfg.Odds.RefreshInterval),
	)
	if err := refresher.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("refresher stopped with error", zap.Error(err))
	}
	log.Info("odds-worker stopped")
}
