package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/radieske/betbot/internal/ledger"
)

// tx implementa ledger.Tx sobre uma *sql.Tx aberta por WithinTx
type tx struct{ q querier }

// check_violation: dispara quando balance ficaria negativo
const pqCheckViolation = "23514"

func (t *tx) LockUser(ctx context.Context, userID int64) (*ledger.User, error) {
	return scanUser(t.q.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE id=$1 FOR UPDATE`, userID))
}

// CreateUser não sobrescreve um usuário existente
func (t *tx) CreateUser(ctx context.Context, u *ledger.User) error {
	err := t.q.QueryRowContext(ctx, `
		INSERT INTO users (id, username, first_name, last_name, balance)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (id) DO NOTHING
		RETURNING created_at`,
		u.ID, u.Username, u.FirstName, u.LastName, u.Balance).Scan(&u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	return err
}

// AdjustBalance aplica delta numa única instrução e devolve o saldo novo
func (t *tx) AdjustBalance(ctx context.Context, userID int64, delta decimal.Decimal) (decimal.Decimal, error) {
	var bal decimal.Decimal
	err := t.q.QueryRowContext(ctx,
		`UPDATE users SET balance = balance + $1 WHERE id=$2 RETURNING balance`,
		delta, userID).Scan(&bal)
	if err != nil {
		return decimal.Zero, mapPQErr(err)
	}
	return bal, nil
}

// mapPQErr traduz erros do driver para os erros do ledger
// CHECK (balance >= 0) violado vira ErrInsufficientFunds
func mapPQErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqCheckViolation {
		return ledger.ErrInsufficientFunds
	}
	return err
}

func (t *tx) IncrementCounter(ctx context.Context, userID int64, c ledger.Counter) error {
	var col string
	switch c {
	case ledger.CounterBet:
		col = "total_bet"
	case ledger.CounterWin:
		col = "total_win"
	case ledger.CounterLoss:
		col = "total_loss"
	default:
		return ledger.ErrInvalidCounter
	}
	res, err := t.q.ExecContext(ctx, `UPDATE users SET `+col+` = `+col+` + 1 WHERE id=$1`, userID)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

func (t *tx) InsertBet(ctx context.Context, b *ledger.Bet) error {
	return t.q.QueryRowContext(ctx, `
		INSERT INTO bets (user_id, match_id, team, odds, amount, potential_win, status, result)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id, created_at`,
		b.UserID, b.MatchID, b.Team, b.Odds, b.Amount, b.PotentialWin, b.Status, b.Result,
	).Scan(&b.ID, &b.CreatedAt)
}

func (t *tx) LockBet(ctx context.Context, betID int64) (*ledger.Bet, error) {
	return scanBet(t.q.QueryRowContext(ctx, `SELECT `+betCols+` FROM bets WHERE id=$1 FOR UPDATE`, betID))
}

func (t *tx) ResolveBet(ctx context.Context, b *ledger.Bet) error {
	res, err := t.q.ExecContext(ctx,
		`UPDATE bets SET status=$1, result=$2, resolved_at=$3 WHERE id=$4`,
		b.Status, b.Result, b.ResolvedAt, b.ID)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

func (t *tx) InsertTransaction(ctx context.Context, tr *ledger.Transaction) error {
	return t.q.QueryRowContext(ctx, `
		INSERT INTO transactions (user_id, type, amount, method, address, reference, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING id, created_at`,
		tr.UserID, tr.Kind, tr.Amount, tr.Method, tr.Address, tr.Reference, tr.Status,
	).Scan(&tr.ID, &tr.CreatedAt)
}

func (t *tx) LockTransaction(ctx context.Context, txID int64) (*ledger.Transaction, error) {
	return scanTransaction(t.q.QueryRowContext(ctx, `SELECT `+txCols+` FROM transactions WHERE id=$1 FOR UPDATE`, txID))
}

func (t *tx) ResolveTransaction(ctx context.Context, tr *ledger.Transaction) error {
	res, err := t.q.ExecContext(ctx,
		`UPDATE transactions SET status=$1, admin_id=$2, resolved_at=$3 WHERE id=$4`,
		tr.Status, tr.AdminID, tr.ResolvedAt, tr.ID)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

func (t *tx) UpsertWalletAddress(ctx context.Context, w *ledger.WalletAddress) error {
	w.Asset = strings.ToUpper(w.Asset)
	return t.q.QueryRowContext(ctx, `
		INSERT INTO wallet_addresses (asset, address, updated_by, updated_at)
		VALUES ($1,$2,$3,NOW())
		ON CONFLICT (asset) DO UPDATE SET
		  address    = EXCLUDED.address,
		  updated_by = EXCLUDED.updated_by,
		  updated_at = EXCLUDED.updated_at
		RETURNING updated_at`,
		w.Asset, w.Address, w.UpdatedBy).Scan(&w.UpdatedAt)
}

func (t *tx) InsertAudit(ctx context.Context, e *ledger.AuditEntry) error {
	return t.q.QueryRowContext(ctx,
		`INSERT INTO audit_log (admin_id, action, details) VALUES ($1,$2,$3) RETURNING id, created_at`,
		e.AdminID, e.Action, e.Details).Scan(&e.ID, &e.CreatedAt)
}

func mustAffect(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ledger.ErrNotFound
	}
	return nil
}
