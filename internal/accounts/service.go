package accounts

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/betbot/internal/ledger"
)

// Service cuida do cadastro de usuários e das leituras agregadas
type Service struct {
	log            *zap.Logger
	store          ledger.Store
	admins         ledger.Authorizer
	initialBalance decimal.Decimal
}

func NewService(log *zap.Logger, store ledger.Store, admins ledger.Authorizer, initialBalance decimal.Decimal) *Service {
	return &Service{log: log, store: store, admins: admins, initialBalance: initialBalance}
}

// Register devolve o usuário, criando no primeiro contato com o saldo inicial
func (s *Service) Register(ctx context.Context, p ledger.Profile) (*ledger.User, error) {
	if u, err := s.store.User(ctx, p.ID); err == nil {
		return u, nil
	}

	var created bool
	err := s.store.WithinTx(ctx, func(tx ledger.Tx) error {
		if _, err := tx.LockUser(ctx, p.ID); err == nil {
			return nil // outro update do mesmo usuário chegou antes
		}
		created = true
		return tx.CreateUser(ctx, &ledger.User{
			ID:        p.ID,
			Username:  p.Username,
			FirstName: p.FirstName,
			LastName:  p.LastName,
			Balance:   s.initialBalance,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("register user %d: %w", p.ID, err)
	}
	if created {
		s.log.Info("user registered", zap.Int64("user_id", p.ID), zap.String("username", p.Username))
	}
	return s.store.User(ctx, p.ID)
}

func (s *Service) User(ctx context.Context, userID int64) (*ledger.User, error) {
	return s.store.User(ctx, userID)
}

func (s *Service) Users(ctx context.Context, limit int) ([]ledger.User, error) {
	return s.store.Users(ctx, limit)
}

func (s *Service) Stats(ctx context.Context) (ledger.Stats, error) {
	return s.store.Stats(ctx)
}

func (s *Service) AuditLog(ctx context.Context, limit int) ([]ledger.AuditEntry, error) {
	return s.store.AuditLog(ctx, limit)
}

func (s *Service) IsAdmin(id int64) bool { return s.admins.IsAdmin(id) }
