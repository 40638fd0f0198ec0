package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/radieske/betbot/internal/ledger"
)

// Store mantém o ledger inteiro em memória
// Cada WithinTx trabalha numa cópia do estado e só publica a cópia se fn
// retornar nil, então uma falha no meio não deixa escrita parcial.
type Store struct {
	mu    sync.Mutex
	state *state
	now   func() time.Time
}

type state struct {
	users   map[int64]ledger.User
	bets    map[int64]ledger.Bet
	txs     map[int64]ledger.Transaction
	wallets map[string]ledger.WalletAddress
	audit   []ledger.AuditEntry

	betSeq   int64
	txSeq    int64
	auditSeq int64
}

func New() *Store {
	return &Store{
		state: &state{
			users:   make(map[int64]ledger.User),
			bets:    make(map[int64]ledger.Bet),
			txs:     make(map[int64]ledger.Transaction),
			wallets: make(map[string]ledger.WalletAddress),
		},
		now: time.Now,
	}
}

func (s *state) clone() *state {
	c := &state{
		users:    make(map[int64]ledger.User, len(s.users)),
		bets:     make(map[int64]ledger.Bet, len(s.bets)),
		txs:      make(map[int64]ledger.Transaction, len(s.txs)),
		wallets:  make(map[string]ledger.WalletAddress, len(s.wallets)),
		audit:    append([]ledger.AuditEntry(nil), s.audit...),
		betSeq:   s.betSeq,
		txSeq:    s.txSeq,
		auditSeq: s.auditSeq,
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.bets {
		c.bets[k] = v
	}
	for k, v := range s.txs {
		c.txs[k] = v
	}
	for k, v := range s.wallets {
		c.wallets[k] = v
	}
	return c
}

// WithinTx serializa as transações com o mutex do store
// fn não pode chamar métodos de leitura do Store (deadlock); use a Tx
func (s *Store) WithinTx(ctx context.Context, fn func(ledger.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := s.state.clone()
	if err := fn(&tx{st: staged, now: s.now}); err != nil {
		return err
	}
	s.state = staged
	return nil
}

func (s *Store) User(_ context.Context, userID int64) (*ledger.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.state.users[userID]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	return &u, nil
}

func (s *Store) Users(_ context.Context, limit int) ([]ledger.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ledger.User, 0, len(s.state.users))
	for _, u := range s.state.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return capped(out, limit), nil
}

func (s *Store) Bet(_ context.Context, betID int64) (*ledger.Bet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.state.bets[betID]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	return &b, nil
}

func (s *Store) UserBets(_ context.Context, userID int64, limit int) ([]ledger.Bet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []ledger.Bet
	for _, b := range s.state.bets {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return capped(out, limit), nil
}

func (s *Store) PendingBetsByMatch(_ context.Context, matchID string) ([]ledger.Bet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []ledger.Bet
	for _, b := range s.state.bets {
		if b.MatchID == matchID && b.Status == ledger.BetPending {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) Transaction(_ context.Context, txID int64) (*ledger.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.state.txs[txID]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	return &t, nil
}

// PendingTransactions filtra por tipo quando kind não é vazio
func (s *Store) PendingTransactions(_ context.Context, kind ledger.TxKind) ([]ledger.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []ledger.Transaction
	for _, t := range s.state.txs {
		if t.Status != ledger.TxPending || (kind != "" && t.Kind != kind) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) UserTransactions(_ context.Context, userID int64, limit int) ([]ledger.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []ledger.Transaction
	for _, t := range s.state.txs {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return capped(out, limit), nil
}

func (s *Store) WalletAddress(_ context.Context, asset string) (*ledger.WalletAddress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.state.wallets[strings.ToUpper(asset)]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	return &w, nil
}

func (s *Store) WalletAddresses(_ context.Context) ([]ledger.WalletAddress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ledger.WalletAddress, 0, len(s.state.wallets))
	for _, w := range s.state.wallets {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Asset < out[j].Asset })
	return out, nil
}

func (s *Store) AuditLog(_ context.Context, limit int) ([]ledger.AuditEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ledger.AuditEntry, len(s.state.audit))
	for i, e := range s.state.audit {
		out[len(out)-1-i] = e
	}
	return capped(out, limit), nil
}

func (s *Store) Stats(_ context.Context) (ledger.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := ledger.Stats{TotalUsers: int64(len(s.state.users)), TotalBalance: decimal.Zero}
	for _, u := range s.state.users {
		st.TotalBalance = st.TotalBalance.Add(u.Balance)
	}
	for _, b := range s.state.bets {
		st.TotalBets++
		switch b.Result {
		case ledger.ResultWon:
			st.Wins++
		case ledger.ResultLost:
			st.Losses++
		}
	}
	return st, nil
}

func capped[T any](in []T, limit int) []T {
	if limit > 0 && len(in) > limit {
		return in[:limit]
	}
	return in
}
