package ledger

import (
	"context"

	"github.com/shopspring/decimal"
)

// Tx é o escopo transacional de escrita. Toda operação que mexe em saldo
// roda dentro de uma Tx e é confirmada ou desfeita por inteiro.
// Métodos Lock* seguram a linha até o fim da Tx e retornam ErrNotFound.
type Tx interface {
	LockUser(ctx context.Context, userID int64) (*User, error)
	CreateUser(ctx context.Context, u *User) error
	AdjustBalance(ctx context.Context, userID int64, delta decimal.Decimal) (decimal.Decimal, error)
	IncrementCounter(ctx context.Context, userID int64, c Counter) error

	InsertBet(ctx context.Context, b *Bet) error
	LockBet(ctx context.Context, betID int64) (*Bet, error)
	ResolveBet(ctx context.Context, b *Bet) error

	InsertTransaction(ctx context.Context, t *Transaction) error
	LockTransaction(ctx context.Context, txID int64) (*Transaction, error)
	ResolveTransaction(ctx context.Context, t *Transaction) error

	UpsertWalletAddress(ctx context.Context, w *WalletAddress) error
	InsertAudit(ctx context.Context, e *AuditEntry) error
}

// Store agrupa as leituras e a abertura de transações
type Store interface {
	WithinTx(ctx context.Context, fn func(Tx) error) error

	User(ctx context.Context, userID int64) (*User, error)
	Users(ctx context.Context, limit int) ([]User, error)
	Bet(ctx context.Context, betID int64) (*Bet, error)
	UserBets(ctx context.Context, userID int64, limit int) ([]Bet, error)
	PendingBetsByMatch(ctx context.Context, matchID string) ([]Bet, error)
	Transaction(ctx context.Context, txID int64) (*Transaction, error)
	PendingTransactions(ctx context.Context, kind TxKind) ([]Transaction, error)
	UserTransactions(ctx context.Context, userID int64, limit int) ([]Transaction, error)
	WalletAddress(ctx context.Context, asset string) (*WalletAddress, error)
	WalletAddresses(ctx context.Context) ([]WalletAddress, error)
	AuditLog(ctx context.Context, limit int) ([]AuditEntry, error)
	Stats(ctx context.Context) (Stats, error)
}
