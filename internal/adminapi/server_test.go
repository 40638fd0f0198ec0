package adminapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/betbot/internal/accounts"
	"github.com/radieske/betbot/internal/betting"
	"github.com/radieske/betbot/internal/ledger"
	"github.com/radieske/betbot/internal/payments"
	"github.com/radieske/betbot/internal/producer"
	"github.com/radieske/betbot/internal/storage/memory"
)

const (
	adminID int64 = 77
	userID  int64 = 5
)

type fixture struct {
	srv   *httptest.Server
	store *memory.Store
	bets  *betting.Manager
	pay   *payments.Workflow
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newFixture(t *testing.T, token string) *fixture {
	t.Helper()
	log := zap.NewNop()
	store := memory.New()
	admins := ledger.Admins{adminID}
	acc := accounts.NewService(log, store, admins, decimal.Zero)
	bets := betting.NewManager(log, store, admins, producer.Nop{}, betting.Limits{Min: dec("1"), Max: dec("1000")})
	pay := payments.NewWorkflow(log, store, admins, producer.Nop{}, payments.Limits{
		MinDeposit: dec("1"), MaxDeposit: dec("10000"), MinWithdrawal: dec("10"),
		Assets: []string{"BTC", "ETH", "USDT"},
	})
	if _, err := acc.Register(context.Background(), ledger.Profile{ID: userID, Username: "ann"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	api := &API{Log: log, Accounts: acc, Bets: bets, Payments: pay, Token: token}
	srv := httptest.NewServer(api.Router())
	t.Cleanup(srv.Close)
	return &fixture{srv: srv, store: store, bets: bets, pay: pay}
}

func (f *fixture) do(t *testing.T, method, path, body string, admin int64) (int, string) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, f.srv.URL+path, rd)
	if err != nil {
		t.Fatal(err)
	}
	if admin != 0 {
		req.Header.Set("X-Admin-ID", fmt.Sprint(admin))
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()
	b, _ := io.ReadAll(res.Body)
	return res.StatusCode, string(b)
}

func (f *fixture) deposit(t *testing.T, amount string) *ledger.Transaction {
	t.Helper()
	tx, err := f.pay.RequestDeposit(context.Background(), userID, dec(amount), "BTC", "hash")
	if err != nil {
		t.Fatalf("request deposit: %v", err)
	}
	return tx
}

func (f *fixture) balance(t *testing.T) decimal.Decimal {
	t.Helper()
	u, err := f.store.User(context.Background(), userID)
	if err != nil {
		t.Fatal(err)
	}
	return u.Balance
}

func TestAdminHeaderRequired(t *testing.T) {
	f := newFixture(t, "")
	if code, _ := f.do(t, http.MethodGet, "/v1/stats", "", 0); code != http.StatusUnauthorized {
		t.Fatalf("no header: %d", code)
	}
	if code, _ := f.do(t, http.MethodGet, "/v1/stats", "", userID); code != http.StatusForbidden {
		t.Fatalf("non-admin: %d", code)
	}
	if code, _ := f.do(t, http.MethodGet, "/v1/stats", "", adminID); code != http.StatusOK {
		t.Fatalf("admin: %d", code)
	}
}

func TestBearerToken(t *testing.T) {
	f := newFixture(t, "s3cret")
	if code, _ := f.do(t, http.MethodGet, "/v1/stats", "", adminID); code != http.StatusUnauthorized {
		t.Fatalf("missing token: %d", code)
	}

	req, _ := http.NewRequest(http.MethodGet, f.srv.URL+"/v1/stats", nil)
	req.Header.Set("X-Admin-ID", fmt.Sprint(adminID))
	req.Header.Set("Authorization", "Bearer s3cret")
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("with token: %d", res.StatusCode)
	}
}

func TestApproveDepositOnce(t *testing.T) {
	f := newFixture(t, "")
	tx := f.deposit(t, "100")

	code, body := f.do(t, http.MethodPost, fmt.Sprintf("/v1/transactions/%d/approve", tx.ID), "", adminID)
	if code != http.StatusOK || !strings.Contains(body, `"status":"approved"`) {
		t.Fatalf("approve: %d %s", code, body)
	}
	code, _ = f.do(t, http.MethodPost, fmt.Sprintf("/v1/transactions/%d/approve", tx.ID), "", adminID)
	if code != http.StatusConflict {
		t.Fatalf("second approve: %d", code)
	}
	if got := f.balance(t); !got.Equal(dec("100")) {
		t.Fatalf("balance = %s, want 100", got)
	}
}

func TestRejectAndNotFound(t *testing.T) {
	f := newFixture(t, "")
	tx := f.deposit(t, "50")

	if code, _ := f.do(t, http.MethodPost, fmt.Sprintf("/v1/transactions/%d/reject", tx.ID), "", adminID); code != http.StatusOK {
		t.Fatalf("reject: %d", code)
	}
	if got := f.balance(t); !got.IsZero() {
		t.Fatalf("balance = %s after reject", got)
	}
	if code, _ := f.do(t, http.MethodPost, "/v1/transactions/999/approve", "", adminID); code != http.StatusNotFound {
		t.Fatalf("unknown tx: %d", code)
	}
	if code, _ := f.do(t, http.MethodPost, "/v1/transactions/abc/approve", "", adminID); code != http.StatusBadRequest {
		t.Fatalf("bad id: %d", code)
	}
}

func TestPendingFilter(t *testing.T) {
	f := newFixture(t, "")
	f.deposit(t, "20")

	code, body := f.do(t, http.MethodGet, "/v1/transactions/pending?type=deposit", "", adminID)
	if code != http.StatusOK {
		t.Fatalf("pending: %d", code)
	}
	var list []ledger.Transaction
	if err := json.Unmarshal([]byte(body), &list); err != nil || len(list) != 1 {
		t.Fatalf("list = %s (%v)", body, err)
	}
	if _, body := f.do(t, http.MethodGet, "/v1/transactions/pending?type=withdraw", "", adminID); strings.TrimSpace(body) != "[]" {
		t.Fatalf("withdraw list = %s", body)
	}
	if code, _ := f.do(t, http.MethodGet, "/v1/transactions/pending?type=bonus", "", adminID); code != http.StatusBadRequest {
		t.Fatalf("bad type: %d", code)
	}
}

func TestSettleBetEndpoint(t *testing.T) {
	f := newFixture(t, "")
	tx := f.deposit(t, "100")
	if _, err := f.pay.Approve(context.Background(), tx.ID, adminID); err != nil {
		t.Fatal(err)
	}
	bet, err := f.bets.PlaceBet(context.Background(), betting.PlaceBetInput{
		UserID: userID, MatchID: "m1", Team: "Chiefs", Odds: dec("120"), Stake: dec("20"),
	})
	if err != nil {
		t.Fatal(err)
	}

	path := fmt.Sprintf("/v1/bets/%d/settle", bet.ID)
	if code, _ := f.do(t, http.MethodPost, path, `{"result":"draw"}`, adminID); code != http.StatusBadRequest {
		t.Fatalf("invalid result: %d", code)
	}
	if code, _ := f.do(t, http.MethodPost, path, `{"result":"won","win_amount":"24.005"}`, adminID); code != http.StatusBadRequest {
		t.Fatalf("sub-cent win amount: %d", code)
	}
	code, body := f.do(t, http.MethodPost, path, `{"result":"won","win_amount":"24.00"}`, adminID)
	if code != http.StatusOK || !strings.Contains(body, `"result":"won"`) {
		t.Fatalf("settle: %d %s", code, body)
	}
	if got := f.balance(t); !got.Equal(dec("104")) {
		t.Fatalf("balance = %s, want 104", got)
	}
	if code, _ := f.do(t, http.MethodPost, path, `{"result":"lost"}`, adminID); code != http.StatusConflict {
		t.Fatalf("second settle: %d", code)
	}
}

func TestSettleMatchEndpoint(t *testing.T) {
	f := newFixture(t, "")
	tx := f.deposit(t, "100")
	if _, err := f.pay.Approve(context.Background(), tx.ID, adminID); err != nil {
		t.Fatal(err)
	}
	for _, team := range []string{"Chiefs", "Bills"} {
		if _, err := f.bets.PlaceBet(context.Background(), betting.PlaceBetInput{
			UserID: userID, MatchID: "m1", Team: team, Odds: dec("100"), Stake: dec("10"),
		}); err != nil {
			t.Fatal(err)
		}
	}

	code, body := f.do(t, http.MethodPost, "/v1/matches/m1/settle", `{"winner":"chiefs"}`, adminID)
	if code != http.StatusOK {
		t.Fatalf("settle match: %d %s", code, body)
	}
	var sum betting.MatchSettlement
	if err := json.Unmarshal([]byte(body), &sum); err != nil {
		t.Fatal(err)
	}
	if sum.Won != 1 || sum.Lost != 1 || !sum.Paid.Equal(dec("10")) {
		t.Fatalf("summary = %+v", sum)
	}
	if got := f.balance(t); !got.Equal(dec("90")) {
		t.Fatalf("balance = %s, want 90", got)
	}
}

func TestWalletsAndAudit(t *testing.T) {
	f := newFixture(t, "")

	if code, _ := f.do(t, http.MethodPut, "/v1/wallets/doge", `{"address":"DAbcdefghijkl"}`, adminID); code != http.StatusBadRequest {
		t.Fatalf("unsupported asset: %d", code)
	}
	if code, _ := f.do(t, http.MethodPut, "/v1/wallets/btc", `{"address":"x"}`, adminID); code != http.StatusBadRequest {
		t.Fatalf("short address: %d", code)
	}
	code, body := f.do(t, http.MethodPut, "/v1/wallets/btc", `{"address":"bc1qexampleaddress"}`, adminID)
	if code != http.StatusOK || !strings.Contains(body, `"asset":"BTC"`) {
		t.Fatalf("set wallet: %d %s", code, body)
	}

	_, body = f.do(t, http.MethodGet, "/v1/wallets", "", adminID)
	if !strings.Contains(body, "bc1qexampleaddress") {
		t.Fatalf("wallets = %s", body)
	}
	_, body = f.do(t, http.MethodGet, "/v1/audit", "", adminID)
	if !strings.Contains(body, `"action":"set_wallet"`) {
		t.Fatalf("audit = %s", body)
	}
}

func TestUserEndpoints(t *testing.T) {
	f := newFixture(t, "")
	f.deposit(t, "15")

	code, body := f.do(t, http.MethodGet, fmt.Sprintf("/v1/users/%d", userID), "", adminID)
	if code != http.StatusOK || !strings.Contains(body, `"username":"ann"`) {
		t.Fatalf("user: %d %s", code, body)
	}
	if code, _ := f.do(t, http.MethodGet, "/v1/users/12345", "", adminID); code != http.StatusNotFound {
		t.Fatalf("unknown user: %d", code)
	}
	_, body = f.do(t, http.MethodGet, fmt.Sprintf("/v1/users/%d/transactions", userID), "", adminID)
	if !strings.Contains(body, `"type":"deposit"`) {
		t.Fatalf("transactions = %s", body)
	}
	if _, body := f.do(t, http.MethodGet, fmt.Sprintf("/v1/users/%d/bets", userID), "", adminID); strings.TrimSpace(body) != "[]" {
		t.Fatalf("bets = %s", body)
	}
}
