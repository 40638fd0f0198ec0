package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de evento publicados no tópico "ledger_events"
const (
	TypeBetPlaced            = "bet.placed"
	TypeBetSettled           = "bet.settled"
	TypeTransactionRequested = "transaction.requested"
	TypeTransactionApproved  = "transaction.approved"
	TypeTransactionRejected  = "transaction.rejected"
)

// LedgerEvent é emitido depois do commit de cada operação do ledger.
// Campos não usados pelo tipo ficam vazios.
type LedgerEvent struct {
	ID            string           `json:"id"`
	Type          string           `json:"type"`
	UserID        int64            `json:"user_id"`
	BetID         int64            `json:"bet_id,omitempty"`
	TransactionID int64            `json:"transaction_id,omitempty"`
	MatchID       string           `json:"match_id,omitempty"`
	Team          string           `json:"team,omitempty"`
	Kind          string           `json:"kind,omitempty"`   // deposit | withdraw
	Result        string           `json:"result,omitempty"` // won | lost
	Amount        decimal.Decimal  `json:"amount"`
	Balance       *decimal.Decimal `json:"balance,omitempty"`
	OccurredAt    time.Time        `json:"occurred_at"`
}
