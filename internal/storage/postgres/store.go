package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/radieske/betbot/internal/ledger"
)

// Store implementa ledger.Store em Postgres
type Store struct{ db *sql.DB }

func New(db *sql.DB) *Store { return &Store{db: db} }

// querier é o subconjunto comum de *sql.DB e *sql.Tx
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type scanner interface {
	Scan(dest ...any) error
}

// WithinTx abre a transação, executa fn e faz commit só se fn não falhar
func (s *Store) WithinTx(ctx context.Context, fn func(ledger.Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&tx{q: sqlTx}); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

const (
	userCols = `id, username, first_name, last_name, balance, total_bet, total_win, total_loss, is_verified, created_at`
	betCols  = `id, user_id, match_id, team, odds, amount, potential_win, status, result, created_at, resolved_at`
	txCols   = `id, user_id, type, amount, method, address, reference, status, COALESCE(admin_id, 0), created_at, resolved_at`
)

func scanUser(row scanner) (*ledger.User, error) {
	var u ledger.User
	err := row.Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.Balance,
		&u.TotalBet, &u.TotalWin, &u.TotalLoss, &u.IsVerified, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func scanBet(row scanner) (*ledger.Bet, error) {
	var (
		b        ledger.Bet
		resolved sql.NullTime
	)
	err := row.Scan(&b.ID, &b.UserID, &b.MatchID, &b.Team, &b.Odds, &b.Amount,
		&b.PotentialWin, &b.Status, &b.Result, &b.CreatedAt, &resolved)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	b.ResolvedAt = nullTime(resolved)
	return &b, nil
}

func scanTransaction(row scanner) (*ledger.Transaction, error) {
	var (
		t        ledger.Transaction
		resolved sql.NullTime
	)
	err := row.Scan(&t.ID, &t.UserID, &t.Kind, &t.Amount, &t.Method, &t.Address,
		&t.Reference, &t.Status, &t.AdminID, &t.CreatedAt, &resolved)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	t.ResolvedAt = nullTime(resolved)
	return &t, nil
}

func nullTime(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

func (s *Store) User(ctx context.Context, userID int64) (*ledger.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE id=$1`, userID))
}

func (s *Store) Users(ctx context.Context, limit int) ([]ledger.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userCols+` FROM users ORDER BY created_at DESC LIMIT $1`, limitOrAll(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

func (s *Store) Bet(ctx context.Context, betID int64) (*ledger.Bet, error) {
	return scanBet(s.db.QueryRowContext(ctx, `SELECT `+betCols+` FROM bets WHERE id=$1`, betID))
}

func (s *Store) UserBets(ctx context.Context, userID int64, limit int) ([]ledger.Bet, error) {
	return s.queryBets(ctx, `SELECT `+betCols+` FROM bets WHERE user_id=$1 ORDER BY id DESC LIMIT $2`, userID, limitOrAll(limit))
}

func (s *Store) PendingBetsByMatch(ctx context.Context, matchID string) ([]ledger.Bet, error) {
	return s.queryBets(ctx, `SELECT `+betCols+` FROM bets WHERE match_id=$1 AND status='pending' ORDER BY id`, matchID)
}

func (s *Store) queryBets(ctx context.Context, q string, args ...any) ([]ledger.Bet, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.Bet
	for rows.Next() {
		b, err := scanBet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func (s *Store) Transaction(ctx context.Context, txID int64) (*ledger.Transaction, error) {
	return scanTransaction(s.db.QueryRowContext(ctx, `SELECT `+txCols+` FROM transactions WHERE id=$1`, txID))
}

func (s *Store) PendingTransactions(ctx context.Context, kind ledger.TxKind) ([]ledger.Transaction, error) {
	if kind == "" {
		return s.queryTransactions(ctx, `SELECT `+txCols+` FROM transactions WHERE status='pending' ORDER BY id`)
	}
	return s.queryTransactions(ctx, `SELECT `+txCols+` FROM transactions WHERE status='pending' AND type=$1 ORDER BY id`, kind)
}

func (s *Store) UserTransactions(ctx context.Context, userID int64, limit int) ([]ledger.Transaction, error) {
	return s.queryTransactions(ctx, `SELECT `+txCols+` FROM transactions WHERE user_id=$1 ORDER BY id DESC LIMIT $2`, userID, limitOrAll(limit))
}

func (s *Store) queryTransactions(ctx context.Context, q string, args ...any) ([]ledger.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (s *Store) WalletAddress(ctx context.Context, asset string) (*ledger.WalletAddress, error) {
	var w ledger.WalletAddress
	err := s.db.QueryRowContext(ctx,
		`SELECT asset, address, updated_by, updated_at FROM wallet_addresses WHERE asset=$1`,
		strings.ToUpper(asset)).Scan(&w.Asset, &w.Address, &w.UpdatedBy, &w.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (s *Store) WalletAddresses(ctx context.Context) ([]ledger.WalletAddress, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT asset, address, updated_by, updated_at FROM wallet_addresses ORDER BY asset`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.WalletAddress
	for rows.Next() {
		var w ledger.WalletAddress
		if err := rows.Scan(&w.Asset, &w.Address, &w.UpdatedBy, &w.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (s *Store) AuditLog(ctx context.Context, limit int) ([]ledger.AuditEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, admin_id, action, details, created_at FROM audit_log ORDER BY id DESC LIMIT $1`, limitOrAll(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.AuditEntry
	for rows.Next() {
		var e ledger.AuditEntry
		if err := rows.Scan(&e.ID, &e.AdminID, &e.Action, &e.Details, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) Stats(ctx context.Context) (ledger.Stats, error) {
	var st ledger.Stats
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(balance), 0) FROM users`).Scan(&st.TotalUsers, &st.TotalBalance); err != nil {
		return st, fmt.Errorf("user stats: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE result = 'won'),
		       COUNT(*) FILTER (WHERE result = 'lost')
		FROM bets`).Scan(&st.TotalBets, &st.Wins, &st.Losses); err != nil {
		return st, fmt.Errorf("bet stats: %w", err)
	}
	return st, nil
}

// limitOrAll converte limit <= 0 em NULL (LIMIT ALL no Postgres)
func limitOrAll(limit int) any {
	if limit <= 0 {
		return nil
	}
	return limit
}
