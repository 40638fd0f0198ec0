package ledger

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// Ledger aplica mutações de saldo e contadores sobre uma Tx aberta.
// Não verifica suficiência de saldo: quem chama decide antes de debitar.
type Ledger struct {
	store Store
}

func New(store Store) *Ledger { return &Ledger{store: store} }

// Credit soma amount ao saldo do usuário e retorna o novo saldo
func (l *Ledger) Credit(ctx context.Context, tx Tx, userID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	bal, err := tx.AdjustBalance(ctx, userID, amount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("credit user %d: %w", userID, err)
	}
	return bal, nil
}

// Debit subtrai amount do saldo do usuário e retorna o novo saldo
func (l *Ledger) Debit(ctx context.Context, tx Tx, userID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	bal, err := tx.AdjustBalance(ctx, userID, amount.Neg())
	if err != nil {
		return decimal.Zero, fmt.Errorf("debit user %d: %w", userID, err)
	}
	return bal, nil
}

// RecordBetCount incrementa total_bet, total_win ou total_loss
func (l *Ledger) RecordBetCount(ctx context.Context, tx Tx, userID int64, c Counter) error {
	switch c {
	case CounterBet, CounterWin, CounterLoss:
	default:
		return ErrInvalidCounter
	}
	if err := tx.IncrementCounter(ctx, userID, c); err != nil {
		return fmt.Errorf("count %s for user %d: %w", c, userID, err)
	}
	return nil
}

// Balance lê o saldo atual fora de transação
func (l *Ledger) Balance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	u, err := l.store.User(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	return u.Balance, nil
}
