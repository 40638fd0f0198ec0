package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/betbot/internal/notifier"
	"github.com/radieske/betbot/internal/shared/config"
	"github.com/radieske/betbot/internal/shared/kafka"
	"github.com/radieske/betbot/internal/shared/logger"
	"github.com/radieske/betbot/internal/shared/metrics"
)

func main() {
	cfg, err := config.LoadService("notification-worker")
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

	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		log.Fatal("telegram init", zap.Error(err))
	}

	// Consumer group próprio: cada evento do ledger vira no máximo um aviso
	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicLedger, "notification-worker")
	defer reader.Close()

	m := metrics.NewCollectors(prometheus.DefaultRegisterer)
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "betbot_notifier_errors_total", Help: "erros do notifier por estágio",
	}, []string{"stage"})
	prometheus.MustRegister(errorsBy)

	n := &notifier.Notifier{
		Log:     log,
		Reader:  reader,
		Sender:  api,
		Retries: 3,
		Backoff: 300 * time.Millisecond,
		OnSent:  func(result string) { m.Notifications.WithLabelValues(result).Inc() },
		OnError: func(stage string) { errorsBy.WithLabelValues(stage).Inc() },
	}
	if cfg.TopicLedgerDLQ != "" {
		dlq := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicLedgerDLQ)
		defer dlq.Close()
		n.DLQ = dlq
	}

	msrv := metrics.StartMetricsServer(log, cfg.MetricsPort, nil)
	defer msrv.Close()

	log.Info("notification-worker started",
		zap.String("consume", cfg.TopicLedger),
		zap.String("dlq", cfg.TopicLedgerDLQ),
	)
	if err := n.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("notifier stopped with error", zap.Error(err))
	}
	log.Info("notification-worker stopped")
}
