package app

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/radieske/betbot/internal/accounts"
	"github.com/radieske/betbot/internal/betting"
	"github.com/radieske/betbot/internal/ledger"
	"github.com/radieske/betbot/internal/payments"
	"github.com/radieske/betbot/internal/producer"
	"github.com/radieske/betbot/internal/shared/config"
	"github.com/radieske/betbot/internal/shared/db"
	"github.com/radieske/betbot/internal/shared/kafka"
	"github.com/radieske/betbot/internal/shared/metrics"
	"github.com/radieske/betbot/internal/storage/memory"
	"github.com/radieske/betbot/internal/storage/postgres"
)

// Core junta o que betbot e admin-api compartilham: store, ledger e os três serviços
type Core struct {
	Store    ledger.Store
	PG       *postgres.Store // nil com STORAGE=memory
	DB       *sql.DB
	Accounts *accounts.Service
	Bets     *betting.Manager
	Payments *payments.Workflow
	Admins   ledger.Admins

	writer *kafka.Writer
}

// NewCore abre o storage escolhido, roda a migração e liga os hooks de métricas
func NewCore(ctx context.Context, cfg config.Config, log *zap.Logger, m *metrics.Collectors) (*Core, error) {
	c := &Core{Admins: ledger.Admins(cfg.AdminIDs)}

	switch cfg.Storage {
	case "postgres":
		pg, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		c.DB = pg
		c.PG = postgres.New(pg)
		if err := c.PG.Migrate(ctx); err != nil {
			_ = pg.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		c.Store = c.PG
	default:
		log.Warn("using in-memory storage; data is lost on restart")
		c.Store = memory.New()
	}

	var pub producer.Publisher = producer.Nop{}
	if cfg.KafkaBrokers != "" && cfg.TopicLedger != "" {
		c.writer = kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicLedger)
		pub = producer.NewKafkaPublisher(c.writer)
	}

	c.Accounts = accounts.NewService(log, c.Store, c.Admins, cfg.Limits.InitialBalance)
	c.Bets = betting.NewManager(log, c.Store, c.Admins, pub, betting.Limits{
		Min: cfg.Limits.MinBet,
		Max: cfg.Limits.MaxBet,
	})
	c.Payments = payments.NewWorkflow(log, c.Store, c.Admins, pub, payments.Limits{
		MinDeposit:    cfg.Limits.MinDeposit,
		MaxDeposit:    cfg.Limits.MaxDeposit,
		MinWithdrawal: cfg.Limits.MinWithdrawal,
		Assets:        cfg.Limits.SupportedAssets,
	})

	if m != nil {
		c.Bets.Hooks = betting.Hooks{
			OnPlaced:       func() { m.BetsPlaced.Inc() },
			OnSettled:      func(r ledger.BetResult) { m.BetsSettled.WithLabelValues(string(r)).Inc() },
			OnError:        func(op string) { m.LedgerErrors.WithLabelValues(op).Inc() },
			OnPublishError: func() { m.PublishErrors.Inc() },
		}
		c.Payments.Hooks = payments.Hooks{
			OnRequested: func(k ledger.TxKind) {
				m.Transactions.WithLabelValues(string(k), string(ledger.TxPending)).Inc()
			},
			OnResolved: func(k ledger.TxKind, s ledger.TxStatus) {
				m.Transactions.WithLabelValues(string(k), string(s)).Inc()
			},
			OnError:        func(op string) { m.LedgerErrors.WithLabelValues(op).Inc() },
			OnPublishError: func() { m.PublishErrors.Inc() },
		}
	}
	return c, nil
}

// Health pinga o postgres quando ele é o storage
func (c *Core) Health(ctx context.Context) error {
	if c.DB == nil {
		return nil
	}
	return c.DB.PingContext(ctx)
}

func (c *Core) Close() {
	if c.writer != nil {
		_ = c.writer.Close()
	}
	if c.DB != nil {
		_ = c.DB.Close()
	}
}
