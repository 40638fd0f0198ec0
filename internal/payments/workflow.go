package payments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/betbot/internal/ledger"
	"github.com/radieske/betbot/internal/producer"
	"github.com/radieske/betbot/pkg/contracts/events"
)

type Limits struct {
	MinDeposit    decimal.Decimal
	MaxDeposit    decimal.Decimal
	MinWithdrawal decimal.Decimal
	Assets        []string // BTC, ETH, USDT...
}

type Hooks struct {
	OnRequested    func(kind ledger.TxKind)
	OnResolved     func(kind ledger.TxKind, status ledger.TxStatus)
	OnError        func(op string)
	OnPublishError func()
}

// Workflow conduz depósitos e saques pela aprovação manual do admin.
// O saldo só muda na transição pending -> approved, e uma única vez.
type Workflow struct {
	log    *zap.Logger
	store  ledger.Store
	ledger *ledger.Ledger
	admins ledger.Authorizer
	pub    producer.Publisher
	limits Limits
	now    func() time.Time

	Hooks Hooks
}

func NewWorkflow(log *zap.Logger, store ledger.Store, admins ledger.Authorizer, pub producer.Publisher, limits Limits) *Workflow {
	return &Workflow{
		log:    log,
		store:  store,
		ledger: ledger.New(store),
		admins: admins,
		pub:    pub,
		limits: limits,
		now:    time.Now,
	}
}

// RequestDeposit registra a intenção de depósito; nada muda no saldo
func (w *Workflow) RequestDeposit(ctx context.Context, userID int64, amount decimal.Decimal, method, reference string) (*ledger.Transaction, error) {
	if err := checkAmount(amount); err != nil {
		return nil, err
	}
	if amount.LessThan(w.limits.MinDeposit) || amount.GreaterThan(w.limits.MaxDeposit) {
		return nil, fmt.Errorf("%w: deposit must be between %s and %s", ledger.ErrInvalidAmount,
			w.limits.MinDeposit.StringFixed(2), w.limits.MaxDeposit.StringFixed(2))
	}
	asset, err := w.asset(method)
	if err != nil {
		return nil, err
	}

	t := &ledger.Transaction{
		UserID:    userID,
		Kind:      ledger.KindDeposit,
		Amount:    amount,
		Method:    asset,
		Reference: strings.TrimSpace(reference),
		Status:    ledger.TxPending,
	}
	err = w.store.WithinTx(ctx, func(tx ledger.Tx) error {
		if _, err := tx.LockUser(ctx, userID); err != nil {
			return err
		}
		return tx.InsertTransaction(ctx, t)
	})
	if err != nil {
		w.fail("request_deposit")
		return nil, fmt.Errorf("request deposit: %w", err)
	}

	w.requested(ctx, t)
	return t, nil
}

// RequestWithdrawal exige saldo suficiente já no pedido; a aprovação confere de novo
func (w *Workflow) RequestWithdrawal(ctx context.Context, userID int64, amount decimal.Decimal, method, address string) (*ledger.Transaction, error) {
	if err := checkAmount(amount); err != nil {
		return nil, err
	}
	if amount.LessThan(w.limits.MinWithdrawal) {
		return nil, fmt.Errorf("%w: minimum withdrawal is %s", ledger.ErrInvalidAmount, w.limits.MinWithdrawal.StringFixed(2))
	}
	asset, err := w.asset(method)
	if err != nil {
		return nil, err
	}
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, fmt.Errorf("%w: withdrawal address required", ledger.ErrInvalidSelection)
	}

	t := &ledger.Transaction{
		UserID:  userID,
		Kind:    ledger.KindWithdraw,
		Amount:  amount,
		Method:  asset,
		Address: address,
		Status:  ledger.TxPending,
	}
	err = w.store.WithinTx(ctx, func(tx ledger.Tx) error {
		u, err := tx.LockUser(ctx, userID)
		if err != nil {
			return err
		}
		if u.Balance.LessThan(amount) {
			return ledger.ErrInsufficientFunds
		}
		return tx.InsertTransaction(ctx, t)
	})
	if err != nil {
		w.fail("request_withdrawal")
		return nil, fmt.Errorf("request withdrawal: %w", err)
	}

	w.requested(ctx, t)
	return t, nil
}

// Approve aplica o efeito no saldo e marca approved. Só admins; só pending.
func (w *Workflow) Approve(ctx context.Context, txID, adminID int64) (*ledger.Transaction, error) {
	if !w.admins.IsAdmin(adminID) {
		return nil, ledger.ErrUnauthorized
	}

	var (
		t       *ledger.Transaction
		balance decimal.Decimal
	)
	err := w.store.WithinTx(ctx, func(tx ledger.Tx) error {
		var err error
		if t, err = tx.LockTransaction(ctx, txID); err != nil {
			return err
		}
		if t.Status != ledger.TxPending {
			return ledger.ErrNotPending
		}
		u, err := tx.LockUser(ctx, t.UserID)
		if err != nil {
			return err
		}

		switch t.Kind {
		case ledger.KindDeposit:
			balance, err = w.ledger.Credit(ctx, tx, t.UserID, t.Amount)
		case ledger.KindWithdraw:
			// o saldo pode ter caído desde o pedido (apostas); o pedido fica pendente
			if u.Balance.LessThan(t.Amount) {
				return ledger.ErrInsufficientFunds
			}
			balance, err = w.ledger.Debit(ctx, tx, t.UserID, t.Amount)
		default:
			err = fmt.Errorf("unknown transaction type %q", t.Kind)
		}
		if err != nil {
			return err
		}

		if err := w.resolve(ctx, tx, t, adminID, ledger.TxApproved); err != nil {
			return err
		}
		return tx.InsertAudit(ctx, &ledger.AuditEntry{
			AdminID: adminID,
			Action:  "approve_" + string(t.Kind),
			Details: fmt.Sprintf("tx=%d user=%d amount=%s %s", t.ID, t.UserID, t.Amount.StringFixed(2), t.Method),
		})
	})
	if err != nil {
		w.fail("approve")
		return nil, fmt.Errorf("approve transaction %d: %w", txID, err)
	}

	w.resolved(ctx, t, &balance)
	return t, nil
}

// Reject encerra um pedido pendente sem tocar no saldo
func (w *Workflow) Reject(ctx context.Context, txID, adminID int64) (*ledger.Transaction, error) {
	if !w.admins.IsAdmin(adminID) {
		return nil, ledger.ErrUnauthorized
	}

	var t *ledger.Transaction
	err := w.store.WithinTx(ctx, func(tx ledger.Tx) error {
		var err error
		if t, err = tx.LockTransaction(ctx, txID); err != nil {
			return err
		}
		if t.Status != ledger.TxPending {
			return ledger.ErrNotPending
		}
		if err := w.resolve(ctx, tx, t, adminID, ledger.TxRejected); err != nil {
			return err
		}
		return tx.InsertAudit(ctx, &ledger.AuditEntry{
			AdminID: adminID,
			Action:  "reject_" + string(t.Kind),
			Details: fmt.Sprintf("tx=%d user=%d amount=%s %s", t.ID, t.UserID, t.Amount.StringFixed(2), t.Method),
		})
	})
	if err != nil {
		w.fail("reject")
		return nil, fmt.Errorf("reject transaction %d: %w", txID, err)
	}

	w.resolved(ctx, t, nil)
	return t, nil
}

func (w *Workflow) resolve(ctx context.Context, tx ledger.Tx, t *ledger.Transaction, adminID int64, status ledger.TxStatus) error {
	now := w.now().UTC()
	t.Status = status
	t.AdminID = adminID
	t.ResolvedAt = &now
	if err := tx.ResolveTransaction(ctx, t); err != nil {
		return fmt.Errorf("resolve transaction: %w", err)
	}
	return nil
}

// Pending lista pedidos pendentes; kind vazio traz os dois tipos
func (w *Workflow) Pending(ctx context.Context, kind ledger.TxKind) ([]ledger.Transaction, error) {
	return w.store.PendingTransactions(ctx, kind)
}

func (w *Workflow) Transaction(ctx context.Context, txID int64) (*ledger.Transaction, error) {
	return w.store.Transaction(ctx, txID)
}

func (w *Workflow) UserTransactions(ctx context.Context, userID int64, limit int) ([]ledger.Transaction, error) {
	return w.store.UserTransactions(ctx, userID, limit)
}

func (w *Workflow) Limits() Limits { return w.limits }

func (w *Workflow) asset(method string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(method))
	for _, a := range w.limits.Assets {
		if a == code {
			return code, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ledger.ErrUnsupportedAsset, method)
}

func checkAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() || !amount.Equal(amount.Round(2)) {
		return ledger.ErrInvalidAmount
	}
	return nil
}

func (w *Workflow) requested(ctx context.Context, t *ledger.Transaction) {
	w.log.Info("transaction requested",
		zap.Int64("tx_id", t.ID),
		zap.Int64("user_id", t.UserID),
		zap.String("type", string(t.Kind)),
		zap.String("amount", t.Amount.StringFixed(2)),
		zap.String("method", t.Method),
	)
	if w.Hooks.OnRequested != nil {
		w.Hooks.OnRequested(t.Kind)
	}
	w.publish(ctx, events.LedgerEvent{
		Type:          events.TypeTransactionRequested,
		UserID:        t.UserID,
		TransactionID: t.ID,
		Kind:          string(t.Kind),
		Amount:        t.Amount,
	})
}

func (w *Workflow) resolved(ctx context.Context, t *ledger.Transaction, balance *decimal.Decimal) {
	w.log.Info("transaction resolved",
		zap.Int64("tx_id", t.ID),
		zap.Int64("user_id", t.UserID),
		zap.Int64("admin_id", t.AdminID),
		zap.String("type", string(t.Kind)),
		zap.String("status", string(t.Status)),
	)
	if w.Hooks.OnResolved != nil {
		w.Hooks.OnResolved(t.Kind, t.Status)
	}
	typ := events.TypeTransactionApproved
	if t.Status == ledger.TxRejected {
		typ = events.TypeTransactionRejected
	}
	w.publish(ctx, events.LedgerEvent{
		Type:          typ,
		UserID:        t.UserID,
		TransactionID: t.ID,
		Kind:          string(t.Kind),
		Amount:        t.Amount,
		Balance:       balance,
	})
}

func (w *Workflow) publish(ctx context.Context, e events.LedgerEvent) {
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()
	if err := w.pub.Publish(pctx, e); err != nil {
		w.log.Warn("publish ledger event", zap.String("type", e.Type), zap.Error(err))
		if w.Hooks.OnPublishError != nil {
			w.Hooks.OnPublishError()
		}
	}
}

func (w *Workflow) fail(op string) {
	if w.Hooks.OnError != nil {
		w.Hooks.OnError(op)
	}
}
