package betting

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/betbot/internal/ledger"
	"github.com/radieske/betbot/internal/storage/memory"
	"github.com/radieske/betbot/pkg/contracts/events"
)

const adminID int64 = 999

// recorder guarda os eventos publicados; err simula kafka fora do ar
type recorder struct {
	mu     sync.Mutex
	events []events.LedgerEvent
	err    error
}

func (r *recorder) Publish(_ context.Context, e events.LedgerEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newTestManager(t *testing.T, balances map[int64]string) (*Manager, *memory.Store, *recorder) {
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
	pub := &recorder{}
	m := NewManager(zap.NewNop(), store, ledger.Admins{adminID}, pub, Limits{Min: dec("1"), Max: dec("10000")})
	return m, store, pub
}

func mustUser(t *testing.T, store *memory.Store, id int64) *ledger.User {
	t.Helper()
	u, err := store.User(context.Background(), id)
	if err != nil {
		t.Fatalf("user %d: %v", id, err)
	}
	return u
}

func TestPlaceBetDebitsStake(t *testing.T) {
	m, store, pub := newTestManager(t, map[int64]string{1: "100"})

	bet, err := m.PlaceBet(context.Background(), PlaceBetInput{
		UserID: 1, MatchID: "m1", Team: "Chiefs", Odds: dec("150"), Stake: dec("40"),
	})
	if err != nil {
		t.Fatalf("PlaceBet: %v", err)
	}
	if bet.Status != ledger.BetPending || bet.Result != ledger.ResultWaiting {
		t.Errorf("Expected pending/waiting, got %s/%s", bet.Status, bet.Result)
	}
	if !bet.PotentialWin.Equal(dec("60")) {
		t.Errorf("Expected potential win 60, got %s", bet.PotentialWin)
	}

	u := mustUser(t, store, 1)
	if !u.Balance.Equal(dec("60")) {
		t.Errorf("Expected balance 60, got %s", u.Balance)
	}
	if u.TotalBet != 1 {
		t.Errorf("Expected total_bet 1, got %d", u.TotalBet)
	}
	if got := pub.types(); len(got) != 1 || got[0] != events.TypeBetPlaced {
		t.Errorf("Expected one bet.placed event, got %v", got)
	}
}

func TestPlaceBetValidation(t *testing.T) {
	m, store, _ := newTestManager(t, map[int64]string{1: "20000"})
	ctx := context.Background()

	cases := []struct {
		name string
		in   PlaceBetInput
		want error
	}{
		{"below min", PlaceBetInput{UserID: 1, MatchID: "m", Team: "A", Odds: dec("100"), Stake: dec("0.5")}, ledger.ErrInvalidAmount},
		{"above max", PlaceBetInput{UserID: 1, MatchID: "m", Team: "A", Odds: dec("100"), Stake: dec("10000.01")}, ledger.ErrInvalidAmount},
		{"fractional cents", PlaceBetInput{UserID: 1, MatchID: "m", Team: "A", Odds: dec("100"), Stake: dec("10.001")}, ledger.ErrInvalidAmount},
		{"zero odds", PlaceBetInput{UserID: 1, MatchID: "m", Team: "A", Odds: decimal.Zero, Stake: dec("10")}, ledger.ErrInvalidOdds},
		{"no team", PlaceBetInput{UserID: 1, MatchID: "m", Odds: dec("100"), Stake: dec("10")}, ledger.ErrInvalidSelection},
		{"unknown user", PlaceBetInput{UserID: 2, MatchID: "m", Team: "A", Odds: dec("100"), Stake: dec("10")}, ledger.ErrNotFound},
	}
	for _, c := range cases {
		if _, err := m.PlaceBet(ctx, c.in); !errors.Is(err, c.want) {
			t.Errorf("%s: expected %v, got %v", c.name, c.want, err)
		}
	}

	if u := mustUser(t, store, 1); !u.Balance.Equal(dec("20000")) || u.TotalBet != 0 {
		t.Fatalf("Expected untouched account, got balance %s total_bet %d", u.Balance, u.TotalBet)
	}
}

func TestPlaceBetInsufficientFunds(t *testing.T) {
	m, store, pub := newTestManager(t, map[int64]string{1: "10"})

	_, err := m.PlaceBet(context.Background(), PlaceBetInput{
		UserID: 1, MatchID: "m1", Team: "A", Odds: dec("-110"), Stake: dec("10.01"),
	})
	if !errors.Is(err, ledger.ErrInsufficientFunds) {
		t.Fatalf("Expected ErrInsufficientFunds, got %v", err)
	}
	if u := mustUser(t, store, 1); !u.Balance.Equal(dec("10")) {
		t.Fatalf("Expected balance 10, got %s", u.Balance)
	}
	if len(pub.types()) != 0 {
		t.Fatalf("Expected no events, got %v", pub.types())
	}
}

func TestSettleWonCreditsWinAmount(t *testing.T) {
	m, store, _ := newTestManager(t, map[int64]string{1: "100"})
	ctx := context.Background()

	bet, err := m.PlaceBet(ctx, PlaceBetInput{UserID: 1, MatchID: "m1", Team: "A", Odds: dec("-110"), Stake: dec("55")})
	if err != nil {
		t.Fatalf("PlaceBet: %v", err)
	}

	settled, err := m.SettleBet(ctx, adminID, bet.ID, ledger.ResultWon, dec("50"))
	if err != nil {
		t.Fatalf("SettleBet: %v", err)
	}
	if settled.Status != ledger.BetResolved || settled.Result != ledger.ResultWon || settled.ResolvedAt == nil {
		t.Errorf("Expected resolved/won with timestamp, got %+v", settled)
	}

	u := mustUser(t, store, 1)
	if !u.Balance.Equal(dec("95")) {
		t.Errorf("Expected balance 95, got %s", u.Balance)
	}
	if u.TotalWin != 1 || u.TotalLoss != 0 {
		t.Errorf("Expected 1 win 0 losses, got %d/%d", u.TotalWin, u.TotalLoss)
	}
}

func TestSettleWonDefaultsToPotentialWin(t *testing.T) {
	m, store, _ := newTestManager(t, map[int64]string{1: "100"})
	ctx := context.Background()

	bet, _ := m.PlaceBet(ctx, PlaceBetInput{UserID: 1, MatchID: "m1", Team: "A", Odds: dec("150"), Stake: dec("100")})
	if _, err := m.SettleBet(ctx, adminID, bet.ID, ledger.ResultWon, decimal.Zero); err != nil {
		t.Fatalf("SettleBet: %v", err)
	}
	if u := mustUser(t, store, 1); !u.Balance.Equal(dec("150")) {
		t.Fatalf("Expected balance 150, got %s", u.Balance)
	}
}

func TestSettleLostOnlyCounts(t *testing.T) {
	m, store, pub := newTestManager(t, map[int64]string{1: "100"})
	ctx := context.Background()

	bet, _ := m.PlaceBet(ctx, PlaceBetInput{UserID: 1, MatchID: "m1", Team: "A", Odds: dec("150"), Stake: dec("30")})
	if _, err := m.SettleBet(ctx, adminID, bet.ID, ledger.ResultLost, decimal.Zero); err != nil {
		t.Fatalf("SettleBet: %v", err)
	}

	u := mustUser(t, store, 1)
	if !u.Balance.Equal(dec("70")) || u.TotalLoss != 1 || u.TotalWin != 0 {
		t.Fatalf("Expected 70 / 1 loss / 0 wins, got %s / %d / %d", u.Balance, u.TotalLoss, u.TotalWin)
	}
	if got := pub.types(); len(got) != 2 || got[1] != events.TypeBetSettled {
		t.Fatalf("Expected placed+settled events, got %v", got)
	}
}

func TestSettleTwiceFails(t *testing.T) {
	m, store, _ := newTestManager(t, map[int64]string{1: "100"})
	ctx := context.Background()

	bet, _ := m.PlaceBet(ctx, PlaceBetInput{UserID: 1, MatchID: "m1", Team: "A", Odds: dec("100"), Stake: dec("10")})
	if _, err := m.SettleBet(ctx, adminID, bet.ID, ledger.ResultWon, dec("10")); err != nil {
		t.Fatalf("first SettleBet: %v", err)
	}
	before := mustUser(t, store, 1)

	_, err := m.SettleBet(ctx, adminID, bet.ID, ledger.ResultWon, dec("10"))
	if !errors.Is(err, ledger.ErrAlreadyResolved) || !errors.Is(err, ledger.ErrNotPending) {
		t.Fatalf("Expected ErrAlreadyResolved, got %v", err)
	}
	after := mustUser(t, store, 1)
	if !after.Balance.Equal(before.Balance) || after.TotalWin != before.TotalWin {
		t.Fatalf("Second settle changed the account: %s -> %s", before.Balance, after.Balance)
	}
}

func TestSettleGuards(t *testing.T) {
	m, _, _ := newTestManager(t, map[int64]string{1: "100"})
	ctx := context.Background()
	bet, _ := m.PlaceBet(ctx, PlaceBetInput{UserID: 1, MatchID: "m1", Team: "A", Odds: dec("100"), Stake: dec("10")})

	if _, err := m.SettleBet(ctx, 1, bet.ID, ledger.ResultWon, dec("10")); !errors.Is(err, ledger.ErrUnauthorized) {
		t.Errorf("Expected ErrUnauthorized, got %v", err)
	}
	if _, err := m.SettleBet(ctx, adminID, bet.ID, ledger.ResultWaiting, decimal.Zero); !errors.Is(err, ledger.ErrInvalidResult) {
		t.Errorf("Expected ErrInvalidResult, got %v", err)
	}
	if _, err := m.SettleBet(ctx, adminID, 404, ledger.ResultLost, decimal.Zero); !errors.Is(err, ledger.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestSettleRejectsSubCentWinAmount(t *testing.T) {
	m, store, _ := newTestManager(t, map[int64]string{1: "100"})
	ctx := context.Background()
	bet, _ := m.PlaceBet(ctx, PlaceBetInput{UserID: 1, MatchID: "m1", Team: "A", Odds: dec("120"), Stake: dec("20")})

	if _, err := m.SettleBet(ctx, adminID, bet.ID, ledger.ResultWon, dec("24.005")); !errors.Is(err, ledger.ErrInvalidAmount) {
		t.Fatalf("Expected ErrInvalidAmount, got %v", err)
	}
	b, _ := store.Bet(ctx, bet.ID)
	if b.Status != ledger.BetPending {
		t.Fatalf("bet status = %s, want pending", b.Status)
	}
	u, _ := store.User(ctx, 1)
	if !u.Balance.Equal(dec("80")) {
		t.Fatalf("balance = %s, want 80", u.Balance)
	}
}

func TestConcurrentBetsCannotOverdraw(t *testing.T) {
	m, store, _ := newTestManager(t, map[int64]string{1: "100"})
	ctx := context.Background()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok       int
		declined int
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.PlaceBet(ctx, PlaceBetInput{UserID: 1, MatchID: "m1", Team: "A", Odds: dec("100"), Stake: dec("60")})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, ledger.ErrInsufficientFunds):
				declined++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if ok != 1 || declined != 1 {
		t.Fatalf("Expected exactly one success and one decline, got %d/%d", ok, declined)
	}
	if u := mustUser(t, store, 1); !u.Balance.Equal(dec("40")) {
		t.Fatalf("Expected balance 40, got %s", u.Balance)
	}
}

func TestSettleMatch(t *testing.T) {
	m, store, _ := newTestManager(t, map[int64]string{1: "100", 2: "100"})
	ctx := context.Background()

	b1, _ := m.PlaceBet(ctx, PlaceBetInput{UserID: 1, MatchID: "m1", Team: "Chiefs", Odds: dec("120"), Stake: dec("20")})
	b2, _ := m.PlaceBet(ctx, PlaceBetInput{UserID: 2, MatchID: "m1", Team: "Eagles", Odds: dec("-140"), Stake: dec("70")})
	_, _ = m.PlaceBet(ctx, PlaceBetInput{UserID: 2, MatchID: "other", Team: "Eagles", Odds: dec("100"), Stake: dec("10")})

	if _, err := m.SettleMatch(ctx, 1, "m1", "Chiefs"); !errors.Is(err, ledger.ErrUnauthorized) {
		t.Fatalf("Expected ErrUnauthorized, got %v", err)
	}

	sum, err := m.SettleMatch(ctx, adminID, "m1", "chiefs")
	if err != nil {
		t.Fatalf("SettleMatch: %v", err)
	}
	if sum.Won != 1 || sum.Lost != 1 || !sum.Paid.Equal(dec("24")) {
		t.Fatalf("Expected 1 won / 1 lost / paid 24, got %+v", sum)
	}

	if u := mustUser(t, store, 1); !u.Balance.Equal(dec("104")) {
		t.Errorf("Expected winner balance 104, got %s", u.Balance)
	}
	if u := mustUser(t, store, 2); !u.Balance.Equal(dec("20")) || u.TotalLoss != 1 {
		t.Errorf("Expected loser balance 20 with 1 loss, got %s / %d", u.Balance, u.TotalLoss)
	}
	for _, id := range []int64{b1.ID, b2.ID} {
		if b, _ := m.Bet(ctx, id); b.Status != ledger.BetResolved {
			t.Errorf("bet %d not resolved", id)
		}
	}
	pending, _ := store.PendingBetsByMatch(ctx, "other")
	if len(pending) != 1 {
		t.Errorf("Expected other match untouched, got %d pending", len(pending))
	}
}

func TestPublishFailureKeepsBet(t *testing.T) {
	m, store, pub := newTestManager(t, map[int64]string{1: "100"})
	pub.err = errors.New("kafka down")

	var publishErrors int
	m.Hooks.OnPublishError = func() { publishErrors++ }

	bet, err := m.PlaceBet(context.Background(), PlaceBetInput{UserID: 1, MatchID: "m1", Team: "A", Odds: dec("100"), Stake: dec("10")})
	if err != nil {
		t.Fatalf("PlaceBet must not fail on publish errors: %v", err)
	}
	if _, err := store.Bet(context.Background(), bet.ID); err != nil {
		t.Fatalf("bet not stored: %v", err)
	}
	if publishErrors != 1 {
		t.Fatalf("Expected one publish error, got %d", publishErrors)
	}
}
