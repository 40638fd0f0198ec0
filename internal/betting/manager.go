package betting

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/betbot/internal/ledger"
	"github.com/radieske/betbot/internal/producer"
	"github.com/radieske/betbot/pkg/contracts/events"
)

// Limits é a faixa de stake aceita por aposta
type Limits struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

// Hooks são callbacks de métricas; todos opcionais
type Hooks struct {
	OnPlaced       func()
	OnSettled      func(result ledger.BetResult)
	OnError        func(op string)
	OnPublishError func()
}

// Manager controla o ciclo de vida das apostas: pending -> resolved
type Manager struct {
	log    *zap.Logger
	store  ledger.Store
	ledger *ledger.Ledger
	admins ledger.Authorizer
	pub    producer.Publisher
	limits Limits
	now    func() time.Time

	Hooks Hooks
}

func NewManager(log *zap.Logger, store ledger.Store, admins ledger.Authorizer, pub producer.Publisher, limits Limits) *Manager {
	return &Manager{
		log:    log,
		store:  store,
		ledger: ledger.New(store),
		admins: admins,
		pub:    pub,
		limits: limits,
		now:    time.Now,
	}
}

type PlaceBetInput struct {
	UserID  int64
	MatchID string
	Team    string
	Odds    decimal.Decimal // americanas, ex: +120 / -110
	Stake   decimal.Decimal
}

// PlaceBet valida, debita o stake e grava a aposta numa única transação
func (m *Manager) PlaceBet(ctx context.Context, in PlaceBetInput) (*ledger.Bet, error) {
	if strings.TrimSpace(in.MatchID) == "" || strings.TrimSpace(in.Team) == "" {
		return nil, ledger.ErrInvalidSelection
	}
	if err := m.checkStake(in.Stake); err != nil {
		return nil, err
	}
	potential, err := ledger.Payout(in.Stake, in.Odds)
	if err != nil {
		return nil, err
	}

	bet := &ledger.Bet{
		UserID:       in.UserID,
		MatchID:      in.MatchID,
		Team:         in.Team,
		Odds:         in.Odds,
		Amount:       in.Stake,
		PotentialWin: potential,
		Status:       ledger.BetPending,
		Result:       ledger.ResultWaiting,
	}
	var balance decimal.Decimal

	err = m.store.WithinTx(ctx, func(tx ledger.Tx) error {
		u, err := tx.LockUser(ctx, in.UserID)
		if err != nil {
			return err
		}
		// saldo lido com a linha travada: duas apostas simultâneas não passam juntas
		if u.Balance.LessThan(in.Stake) {
			return ledger.ErrInsufficientFunds
		}
		if err := tx.InsertBet(ctx, bet); err != nil {
			return fmt.Errorf("insert bet: %w", err)
		}
		if balance, err = m.ledger.Debit(ctx, tx, in.UserID, in.Stake); err != nil {
			return err
		}
		return m.ledger.RecordBetCount(ctx, tx, in.UserID, ledger.CounterBet)
	})
	if err != nil {
		m.fail("place_bet")
		return nil, fmt.Errorf("place bet: %w", err)
	}

	m.log.Info("bet placed",
		zap.Int64("bet_id", bet.ID),
		zap.Int64("user_id", bet.UserID),
		zap.String("match_id", bet.MatchID),
		zap.String("stake", bet.Amount.StringFixed(2)),
		zap.String("odds", bet.Odds.String()),
	)
	if m.Hooks.OnPlaced != nil {
		m.Hooks.OnPlaced()
	}
	m.publish(ctx, events.LedgerEvent{
		Type:    events.TypeBetPlaced,
		UserID:  bet.UserID,
		BetID:   bet.ID,
		MatchID: bet.MatchID,
		Team:    bet.Team,
		Amount:  bet.Amount,
		Balance: &balance,
	})
	return bet, nil
}

// SettleBet resolve uma aposta pendente. Só admins.
// won credita winAmount (zero usa potential_win); lost só conta a derrota.
func (m *Manager) SettleBet(ctx context.Context, adminID, betID int64, result ledger.BetResult, winAmount decimal.Decimal) (*ledger.Bet, error) {
	if !m.admins.IsAdmin(adminID) {
		return nil, ledger.ErrUnauthorized
	}
	if result != ledger.ResultWon && result != ledger.ResultLost {
		return nil, ledger.ErrInvalidResult
	}
	// mesma escala de centavos do NUMERIC(20,2); memória e postgres não podem divergir
	if winAmount.IsNegative() || !winAmount.Equal(winAmount.Round(2)) {
		return nil, ledger.ErrInvalidAmount
	}

	bet, err := m.settle(ctx, adminID, betID, result, winAmount)
	if err != nil {
		m.fail("settle_bet")
		return nil, fmt.Errorf("settle bet %d: %w", betID, err)
	}
	return bet, nil
}

func (m *Manager) settle(ctx context.Context, adminID, betID int64, result ledger.BetResult, winAmount decimal.Decimal) (*ledger.Bet, error) {
	var (
		bet     *ledger.Bet
		credit  decimal.Decimal
		balance *decimal.Decimal
	)
	err := m.store.WithinTx(ctx, func(tx ledger.Tx) error {
		var err error
		if bet, err = tx.LockBet(ctx, betID); err != nil {
			return err
		}
		if bet.Status != ledger.BetPending {
			return ledger.ErrAlreadyResolved
		}

		now := m.now().UTC()
		bet.Status = ledger.BetResolved
		bet.Result = result
		bet.ResolvedAt = &now
		if err := tx.ResolveBet(ctx, bet); err != nil {
			return fmt.Errorf("resolve bet: %w", err)
		}

		counter := ledger.CounterLoss
		if result == ledger.ResultWon {
			counter = ledger.CounterWin
			credit = winAmount
			if credit.IsZero() {
				credit = bet.PotentialWin
			}
			bal, err := m.ledger.Credit(ctx, tx, bet.UserID, credit)
			if err != nil {
				return err
			}
			balance = &bal
		}
		if err := m.ledger.RecordBetCount(ctx, tx, bet.UserID, counter); err != nil {
			return err
		}

		return tx.InsertAudit(ctx, &ledger.AuditEntry{
			AdminID: adminID,
			Action:  "settle_bet",
			Details: fmt.Sprintf("bet=%d user=%d result=%s credit=%s", bet.ID, bet.UserID, result, credit.StringFixed(2)),
		})
	})
	if err != nil {
		return nil, err
	}

	m.log.Info("bet settled",
		zap.Int64("bet_id", bet.ID),
		zap.Int64("user_id", bet.UserID),
		zap.Int64("admin_id", adminID),
		zap.String("result", string(result)),
		zap.String("credit", credit.StringFixed(2)),
	)
	if m.Hooks.OnSettled != nil {
		m.Hooks.OnSettled(result)
	}
	m.publish(ctx, events.LedgerEvent{
		Type:    events.TypeBetSettled,
		UserID:  bet.UserID,
		BetID:   bet.ID,
		MatchID: bet.MatchID,
		Team:    bet.Team,
		Result:  string(result),
		Amount:  credit,
		Balance: balance,
	})
	return bet, nil
}

// MatchSettlement resume uma liquidação em lote
type MatchSettlement struct {
	MatchID string          `json:"match_id"`
	Winner  string          `json:"winner"`
	Won     int             `json:"won"`
	Lost    int             `json:"lost"`
	Skipped int             `json:"skipped"`
	Paid    decimal.Decimal `json:"paid"`
	Failed  []int64         `json:"failed,omitempty"`
}

// SettleMatch liquida todas as apostas pendentes de uma partida.
// Ganha quem apostou em winner (comparação sem caixa), pagando potential_win.
// Cada aposta tem sua própria transação; devolve o resumo e o primeiro erro.
func (m *Manager) SettleMatch(ctx context.Context, adminID int64, matchID, winner string) (MatchSettlement, error) {
	sum := MatchSettlement{MatchID: matchID, Winner: winner, Paid: decimal.Zero}
	if !m.admins.IsAdmin(adminID) {
		return sum, ledger.ErrUnauthorized
	}
	if strings.TrimSpace(matchID) == "" || strings.TrimSpace(winner) == "" {
		return sum, ledger.ErrInvalidSelection
	}

	pending, err := m.store.PendingBetsByMatch(ctx, matchID)
	if err != nil {
		return sum, fmt.Errorf("list pending bets: %w", err)
	}

	var firstErr error
	for _, b := range pending {
		result := ledger.ResultLost
		if strings.EqualFold(strings.TrimSpace(b.Team), strings.TrimSpace(winner)) {
			result = ledger.ResultWon
		}
		settled, err := m.settle(ctx, adminID, b.ID, result, decimal.Zero)
		switch {
		case errors.Is(err, ledger.ErrNotPending):
			// liquidada por outro admin entre a listagem e o lock
			sum.Skipped++
			continue
		case err != nil:
			m.fail("settle_match")
			sum.Failed = append(sum.Failed, b.ID)
			if firstErr == nil {
				firstErr = fmt.Errorf("settle bet %d: %w", b.ID, err)
			}
			continue
		}
		if result == ledger.ResultWon {
			sum.Won++
			sum.Paid = sum.Paid.Add(settled.PotentialWin)
		} else {
			sum.Lost++
		}
	}

	m.log.Info("match settled",
		zap.String("match_id", matchID),
		zap.String("winner", winner),
		zap.Int("won", sum.Won),
		zap.Int("lost", sum.Lost),
		zap.Int("failed", len(sum.Failed)),
	)
	return sum, firstErr
}

func (m *Manager) Bet(ctx context.Context, betID int64) (*ledger.Bet, error) {
	return m.store.Bet(ctx, betID)
}

func (m *Manager) UserBets(ctx context.Context, userID int64, limit int) ([]ledger.Bet, error) {
	return m.store.UserBets(ctx, userID, limit)
}

func (m *Manager) Limits() Limits { return m.limits }

func (m *Manager) checkStake(stake decimal.Decimal) error {
	if !stake.IsPositive() || !stake.Equal(stake.Round(2)) {
		return ledger.ErrInvalidAmount
	}
	if stake.LessThan(m.limits.Min) || stake.GreaterThan(m.limits.Max) {
		return fmt.Errorf("%w: stake must be between %s and %s", ledger.ErrInvalidAmount,
			m.limits.Min.StringFixed(2), m.limits.Max.StringFixed(2))
	}
	return nil
}

// publish roda depois do commit; falha aqui só vira log e métrica
func (m *Manager) publish(ctx context.Context, e events.LedgerEvent) {
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()
	if err := m.pub.Publish(pctx, e); err != nil {
		m.log.Warn("publish ledger event", zap.String("type", e.Type), zap.Error(err))
		if m.Hooks.OnPublishError != nil {
			m.Hooks.OnPublishError()
		}
	}
}

func (m *Manager) fail(op string) {
	if m.Hooks.OnError != nil {
		m.Hooks.OnError(op)
	}
}
