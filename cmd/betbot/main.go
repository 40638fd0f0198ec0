package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/radieske/betbot/internal/app"
	"github.com/radieske/betbot/internal/assistant"
	"github.com/radieske/betbot/internal/bot"
	"github.com/radieske/betbot/internal/odds"
	"github.com/radieske/betbot/internal/shared/cache"
	"github.com/radieske/betbot/internal/shared/config"
	"github.com/radieske/betbot/internal/shared/logger"
	"github.com/radieske/betbot/internal/shared/metrics"
	"github.com/radieske/betbot/internal/voice"
)

func main() {
	cfg, err := config.LoadService("betbot")
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

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	m := metrics.NewCollectors(prometheus.DefaultRegisterer)

	core, err := app.NewCore(ctx, cfg, log, m)
	if err != nil {
		log.Fatal("core init", zap.Error(err))
	}
	defer core.Close()

	// Redis é opcional no bot: sem ele, cache de odds e histórico da IA ficam em memória
	var (
		rdb       *redis.Client
		oddsCache odds.Cache
		aiHistory assistant.History
		checks    = []metrics.HealthFunc{core.Health}
	)
	if cfg.RedisAddr != "" {
		rdb, err = cache.ConnectRedis(ctx, cfg.RedisAddr)
		if err != nil {
			log.Fatal("redis connect", zap.Error(err))
		}
		defer rdb.Close()
		oddsCache = odds.NewRedisCache(rdb, cfg.Odds.CacheTTL)
		aiHistory = assistant.NewRedisHistory(rdb, cfg.AI.HistoryTurns, cfg.AI.HistoryTTL)
		checks = append(checks, func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	} else {
		oddsCache = odds.NewMemoryCache(cfg.Odds.CacheTTL)
		aiHistory = assistant.NewMemoryHistory(cfg.AI.HistoryTurns)
	}

	var source odds.Source
	if cfg.Odds.APIKey != "" {
		source = odds.NewClient(cfg.Odds.BaseURL, cfg.Odds.APIKey)
	}
	provider := odds.NewProvider(log, oddsCache, source)

	advisor := assistant.New(log, assistant.NewOpenAI(cfg.AI.BaseURL, cfg.AI.APIKey, cfg.AI.Model), aiHistory)
	advisor.Hooks.OnCall = func(kind, result string) { m.AssistantCalls.WithLabelValues(kind, result).Inc() }

	var synth voice.Synthesizer = voice.Nop{}
	if cfg.Voice.Enabled && cfg.Voice.APIKey != "" {
		synth = voice.NewElevenLabs(cfg.Voice.APIKey, cfg.Voice.VoiceID, cfg.Voice.Model)
	}

	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		log.Fatal("telegram init", zap.Error(err))
	}
	api.Debug = cfg.Env == "local"

	handler := bot.NewHandler(bot.Deps{
		Log:          log,
		Bot:          api,
		Accounts:     core.Accounts,
		Bets:         core.Bets,
		Payments:     core.Payments,
		Odds:         provider,
		Advisor:      advisor,
		Voice:        synth,
		Admins:       core.Admins,
		Sports:       cfg.Odds.Sports,
		DefaultSport: cfg.Odds.DefaultSport,
	})
	handler.Hooks.OnUpdate = func() { m.BotUpdates.Inc() }

	msrv := metrics.StartMetricsServer(log, cfg.MetricsPort, metrics.Checks(checks...))
	defer msrv.Close()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := api.GetUpdatesChan(u)

	log.Info("betbot started",
		zap.String("bot", api.Self.UserName),
		zap.String("storage", cfg.Storage),
		zap.Int("admins", len(cfg.AdminIDs)),
	)

	go func() {
		<-ctx.Done()
		api.StopReceivingUpdates()
	}()
	handler.Run(ctx, updates)
	log.Info("betbot stopped")
}
