package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

type BetStatus string

const (
	BetPending  BetStatus = "pending"
	BetResolved BetStatus = "resolved"
)

type BetResult string

const (
	ResultWaiting BetResult = "waiting"
	ResultWon     BetResult = "won"
	ResultLost    BetResult = "lost"
)

type TxKind string

const (
	KindDeposit  TxKind = "deposit"
	KindWithdraw TxKind = "withdraw"
)

type TxStatus string

const (
	TxPending  TxStatus = "pending"
	TxApproved TxStatus = "approved"
	TxRejected TxStatus = "rejected"
)

// Counter identifica qual contador agregado do usuário incrementar
type Counter string

const (
	CounterBet  Counter = "bet"
	CounterWin  Counter = "win"
	CounterLoss Counter = "loss"
)

// User é a conta do jogador, identificada pelo id do Telegram
// Balance só muda via Credit/Debit dentro de uma Tx
type User struct {
	ID         int64           `json:"id"`
	Username   string          `json:"username"`
	FirstName  string          `json:"first_name"`
	LastName   string          `json:"last_name"`
	Balance    decimal.Decimal `json:"balance"`
	TotalBet   int64           `json:"total_bet"`
	TotalWin   int64           `json:"total_win"`
	TotalLoss  int64           `json:"total_loss"`
	IsVerified bool            `json:"is_verified"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Profile são os dados públicos recebidos do Telegram no primeiro contato
type Profile struct {
	ID        int64
	Username  string
	FirstName string
	LastName  string
}

// Bet guarda odds e stake congelados no momento da aposta
type Bet struct {
	ID           int64           `json:"id"`
	UserID       int64           `json:"user_id"`
	MatchID      string          `json:"match_id"`
	Team         string          `json:"team"`
	Odds         decimal.Decimal `json:"odds"`
	Amount       decimal.Decimal `json:"amount"`
	PotentialWin decimal.Decimal `json:"potential_win"`
	Status       BetStatus       `json:"status"`
	Result       BetResult       `json:"result"`
	CreatedAt    time.Time       `json:"created_at"`
	ResolvedAt   *time.Time      `json:"resolved_at,omitempty"`
}

// Transaction é um pedido de depósito/saque aguardando reconciliação manual
type Transaction struct {
	ID         int64           `json:"id"`
	UserID     int64           `json:"user_id"`
	Kind       TxKind          `json:"type"`
	Amount     decimal.Decimal `json:"amount"`
	Method     string          `json:"method"`
	Address    string          `json:"address,omitempty"`
	Reference  string          `json:"reference,omitempty"`
	Status     TxStatus        `json:"status"`
	AdminID    int64           `json:"admin_id,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	ResolvedAt *time.Time      `json:"resolved_at,omitempty"`
}

type WalletAddress struct {
	Asset     string    `json:"asset"`
	Address   string    `json:"address"`
	UpdatedBy int64     `json:"updated_by"`
	UpdatedAt time.Time `json:"updated_at"`
}

type AuditEntry struct {
	ID        int64     `json:"id"`
	AdminID   int64     `json:"admin_id"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
	CreatedAt time.Time `json:"created_at"`
}

type Stats struct {
	TotalUsers   int64           `json:"total_users"`
	TotalBets    int64           `json:"total_bets"`
	Wins         int64           `json:"wins"`
	Losses       int64           `json:"losses"`
	TotalBalance decimal.Decimal `json:"total_balance"`
}
