package payments

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/betbot/internal/ledger"
	"github.com/radieske/betbot/internal/producer"
	"github.com/radieske/betbot/internal/storage/memory"
)

const adminID int64 = 7

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testLimits() Limits {
	return Limits{
		MinDeposit:    dec("1"),
		MaxDeposit:    dec("10000"),
		MinWithdrawal: dec("100"),
		Assets:        []string{"BTC", "ETH", "USDT"},
	}
}

func newTestWorkflow(t *testing.T, balances map[int64]string) (*Workflow, *memory.Store) {
	t.Helper()
	store := memory.New()
	ctx := context.Background()
	for id, bal := range balances {
		err := store.WithinTx(ctx, func(tx ledger.Tx) error {
			return tx.CreateUser(ctx, &ledger.User{ID: id, Balance: dec(bal)})
		})
		if err != nil {
			t.Fatalf("seed user %d: %v", id, err)
		}
	}
	return NewWorkflow(zap.NewNop(), store, ledger.Admins{adminID}, producer.Nop{}, testLimits()), store
}

func balanceOf(t *testing.T, store *memory.Store, id int64) decimal.Decimal {
	t.Helper()
	u, err := store.User(context.Background(), id)
	if err != nil {
		t.Fatalf("user %d: %v", id, err)
	}
	return u.Balance
}

func TestDepositApprovedOnce(t *testing.T) {
	w, store := newTestWorkflow(t, map[int64]string{1: "0"})
	ctx := context.Background()

	tx, err := w.RequestDeposit(ctx, 1, dec("100"), "usdt", "0xabc")
	if err != nil {
		t.Fatalf("RequestDeposit: %v", err)
	}
	if tx.Status != ledger.TxPending || tx.Method != "USDT" {
		t.Fatalf("Expected pending USDT deposit, got %s %s", tx.Status, tx.Method)
	}
	if bal := balanceOf(t, store, 1); !bal.IsZero() {
		t.Fatalf("Request must not touch balance, got %s", bal)
	}

	approved, err := w.Approve(ctx, tx.ID, adminID)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if approved.Status != ledger.TxApproved || approved.AdminID != adminID || approved.ResolvedAt == nil {
		t.Fatalf("Expected approved by admin, got %+v", approved)
	}

	if _, err := w.Approve(ctx, tx.ID, adminID); !errors.Is(err, ledger.ErrNotPending) {
		t.Fatalf("Expected ErrNotPending on second approval, got %v", err)
	}
	if bal := balanceOf(t, store, 1); !bal.Equal(dec("100")) {
		t.Fatalf("Expected balance 100 after double approval, got %s", bal)
	}
}

func TestDepositLimits(t *testing.T) {
	w, _ := newTestWorkflow(t, map[int64]string{1: "0"})
	ctx := context.Background()

	for _, amount := range []string{"0", "-5", "0.99", "10000.01", "1.005"} {
		if _, err := w.RequestDeposit(ctx, 1, dec(amount), "BTC", ""); !errors.Is(err, ledger.ErrInvalidAmount) {
			t.Errorf("deposit %s: expected ErrInvalidAmount, got %v", amount, err)
		}
	}
	if _, err := w.RequestDeposit(ctx, 1, dec("10"), "DOGE", ""); !errors.Is(err, ledger.ErrUnsupportedAsset) {
		t.Errorf("Expected ErrUnsupportedAsset, got %v", err)
	}
	if _, err := w.RequestDeposit(ctx, 2, dec("10"), "BTC", ""); !errors.Is(err, ledger.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown user, got %v", err)
	}
}

func TestWithdrawalApproveDebits(t *testing.T) {
	w, store := newTestWorkflow(t, map[int64]string{1: "500"})
	ctx := context.Background()

	tx, err := w.RequestWithdrawal(ctx, 1, dec("150"), "BTC", "bc1qxyz")
	if err != nil {
		t.Fatalf("RequestWithdrawal: %v", err)
	}
	if bal := balanceOf(t, store, 1); !bal.Equal(dec("500")) {
		t.Fatalf("Request must not touch balance, got %s", bal)
	}
	if _, err := w.Approve(ctx, tx.ID, adminID); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if bal := balanceOf(t, store, 1); !bal.Equal(dec("350")) {
		t.Fatalf("Expected balance 350, got %s", bal)
	}
}

func TestWithdrawalRejectKeepsBalance(t *testing.T) {
	w, store := newTestWorkflow(t, map[int64]string{1: "500"})
	ctx := context.Background()

	tx, _ := w.RequestWithdrawal(ctx, 1, dec("150"), "ETH", "0xdef")
	rejected, err := w.Reject(ctx, tx.ID, adminID)
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if rejected.Status != ledger.TxRejected {
		t.Fatalf("Expected rejected, got %s", rejected.Status)
	}
	if bal := balanceOf(t, store, 1); !bal.Equal(dec("500")) {
		t.Fatalf("Expected balance 500, got %s", bal)
	}
	if _, err := w.Approve(ctx, tx.ID, adminID); !errors.Is(err, ledger.ErrNotPending) {
		t.Fatalf("Expected ErrNotPending approving a rejected tx, got %v", err)
	}
	if _, err := w.Reject(ctx, tx.ID, adminID); !errors.Is(err, ledger.ErrNotPending) {
		t.Fatalf("Expected ErrNotPending rejecting twice, got %v", err)
	}
}

func TestWithdrawalRequestChecks(t *testing.T) {
	w, _ := newTestWorkflow(t, map[int64]string{1: "150"})
	ctx := context.Background()

	if _, err := w.RequestWithdrawal(ctx, 1, dec("99.99"), "BTC", "addr"); !errors.Is(err, ledger.ErrInvalidAmount) {
		t.Errorf("Expected ErrInvalidAmount below minimum, got %v", err)
	}
	if _, err := w.RequestWithdrawal(ctx, 1, dec("200"), "BTC", "addr"); !errors.Is(err, ledger.ErrInsufficientFunds) {
		t.Errorf("Expected ErrInsufficientFunds, got %v", err)
	}
	if _, err := w.RequestWithdrawal(ctx, 1, dec("100"), "BTC", "  "); !errors.Is(err, ledger.ErrInvalidSelection) {
		t.Errorf("Expected ErrInvalidSelection without address, got %v", err)
	}
}

func TestWithdrawalRecheckedAtApproval(t *testing.T) {
	w, store := newTestWorkflow(t, map[int64]string{1: "300"})
	ctx := context.Background()

	first, _ := w.RequestWithdrawal(ctx, 1, dec("200"), "BTC", "addr")
	second, _ := w.RequestWithdrawal(ctx, 1, dec("200"), "BTC", "addr")

	if _, err := w.Approve(ctx, first.ID, adminID); err != nil {
		t.Fatalf("Approve first: %v", err)
	}
	if _, err := w.Approve(ctx, second.ID, adminID); !errors.Is(err, ledger.ErrInsufficientFunds) {
		t.Fatalf("Expected ErrInsufficientFunds on second approval, got %v", err)
	}
	if bal := balanceOf(t, store, 1); !bal.Equal(dec("100")) {
		t.Fatalf("Expected balance 100, got %s", bal)
	}
	if tx, _ := w.Transaction(ctx, second.ID); tx.Status != ledger.TxPending {
		t.Fatalf("Expected second withdrawal still pending, got %s", tx.Status)
	}
}

func TestAdminOnly(t *testing.T) {
	w, store := newTestWorkflow(t, map[int64]string{1: "0"})
	ctx := context.Background()

	tx, _ := w.RequestDeposit(ctx, 1, dec("50"), "BTC", "")
	if _, err := w.Approve(ctx, tx.ID, 1); !errors.Is(err, ledger.ErrUnauthorized) {
		t.Errorf("Expected ErrUnauthorized approving, got %v", err)
	}
	if _, err := w.Reject(ctx, tx.ID, 1); !errors.Is(err, ledger.ErrUnauthorized) {
		t.Errorf("Expected ErrUnauthorized rejecting, got %v", err)
	}
	if _, err := w.SetWalletAddress(ctx, 1, "BTC", "addr"); !errors.Is(err, ledger.ErrUnauthorized) {
		t.Errorf("Expected ErrUnauthorized setting wallet, got %v", err)
	}
	if _, err := w.Approve(ctx, 404, adminID); !errors.Is(err, ledger.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if bal := balanceOf(t, store, 1); !bal.IsZero() {
		t.Errorf("Expected balance 0, got %s", bal)
	}
}

func TestPendingAndAudit(t *testing.T) {
	w, store := newTestWorkflow(t, map[int64]string{1: "1000"})
	ctx := context.Background()

	d, _ := w.RequestDeposit(ctx, 1, dec("10"), "BTC", "")
	_, _ = w.RequestWithdrawal(ctx, 1, dec("100"), "ETH", "addr")
	_, _ = w.RequestDeposit(ctx, 1, dec("20"), "USDT", "")

	all, _ := w.Pending(ctx, "")
	deposits, _ := w.Pending(ctx, ledger.KindDeposit)
	if len(all) != 3 || len(deposits) != 2 {
		t.Fatalf("Expected 3 pending (2 deposits), got %d (%d)", len(all), len(deposits))
	}

	if _, err := w.Approve(ctx, d.ID, adminID); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if all, _ = w.Pending(ctx, ""); len(all) != 2 {
		t.Fatalf("Expected 2 pending after approval, got %d", len(all))
	}

	audit, _ := store.AuditLog(ctx, 10)
	if len(audit) != 1 || audit[0].Action != "approve_deposit" || audit[0].AdminID != adminID {
		t.Fatalf("Expected one approve_deposit audit entry, got %+v", audit)
	}
}
