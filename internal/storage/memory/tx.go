package memory

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/radieske/betbot/internal/ledger"
)

// tx opera sobre o estado copiado; o lock já está com WithinTx
type tx struct {
	st  *state
	now func() time.Time
}

func (t *tx) LockUser(_ context.Context, userID int64) (*ledger.User, error) {
	u, ok := t.st.users[userID]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	return &u, nil
}

func (t *tx) CreateUser(_ context.Context, u *ledger.User) error {
	if _, ok := t.st.users[u.ID]; ok {
		return nil
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = t.now()
	}
	t.st.users[u.ID] = *u
	return nil
}

// AdjustBalance imita o CHECK (balance >= 0) da tabela users
func (t *tx) AdjustBalance(_ context.Context, userID int64, delta decimal.Decimal) (decimal.Decimal, error) {
	u, ok := t.st.users[userID]
	if !ok {
		return decimal.Zero, ledger.ErrNotFound
	}
	next := u.Balance.Add(delta)
	if next.IsNegative() {
		return decimal.Zero, ledger.ErrInsufficientFunds
	}
	u.Balance = next
	t.st.users[userID] = u
	return next, nil
}

func (t *tx) IncrementCounter(_ context.Context, userID int64, c ledger.Counter) error {
	u, ok := t.st.users[userID]
	if !ok {
		return ledger.ErrNotFound
	}
	switch c {
	case ledger.CounterBet:
		u.TotalBet++
	case ledger.CounterWin:
		u.TotalWin++
	case ledger.CounterLoss:
		u.TotalLoss++
	default:
		return ledger.ErrInvalidCounter
	}
	t.st.users[userID] = u
	return nil
}

func (t *tx) InsertBet(_ context.Context, b *ledger.Bet) error {
	t.st.betSeq++
	b.ID = t.st.betSeq
	b.CreatedAt = t.now()
	t.st.bets[b.ID] = *b
	return nil
}

func (t *tx) LockBet(_ context.Context, betID int64) (*ledger.Bet, error) {
	b, ok := t.st.bets[betID]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	return &b, nil
}

func (t *tx) ResolveBet(_ context.Context, b *ledger.Bet) error {
	if _, ok := t.st.bets[b.ID]; !ok {
		return ledger.ErrNotFound
	}
	t.st.bets[b.ID] = *b
	return nil
}

func (t *tx) InsertTransaction(_ context.Context, tr *ledger.Transaction) error {
	t.st.txSeq++
	tr.ID = t.st.txSeq
	tr.CreatedAt = t.now()
	t.st.txs[tr.ID] = *tr
	return nil
}

func (t *tx) LockTransaction(_ context.Context, txID int64) (*ledger.Transaction, error) {
	tr, ok := t.st.txs[txID]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	return &tr, nil
}

func (t *tx) ResolveTransaction(_ context.Context, tr *ledger.Transaction) error {
	if _, ok := t.st.txs[tr.ID]; !ok {
		return ledger.ErrNotFound
	}
	t.st.txs[tr.ID] = *tr
	return nil
}

func (t *tx) UpsertWalletAddress(_ context.Context, w *ledger.WalletAddress) error {
	w.Asset = strings.ToUpper(w.Asset)
	w.UpdatedAt = t.now()
	t.st.wallets[w.Asset] = *w
	return nil
}

func (t *tx) InsertAudit(_ context.Context, e *ledger.AuditEntry) error {
	t.st.auditSeq++
	e.ID = t.st.auditSeq
	e.CreatedAt = t.now()
	t.st.audit = append(t.st.audit, *e)
	return nil
}
