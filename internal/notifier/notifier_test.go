package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/betbot/internal/shared/kafka"
	"github.com/radieske/betbot/pkg/contracts/events"
)

type fakeSender struct {
	fails int
	calls int
	sent  []tgbotapi.MessageConfig
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.calls++
	if f.calls <= f.fails {
		return tgbotapi.Message{}, errors.New("telegram down")
	}
	f.sent = append(f.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{}, nil
}

type fakeDLQ struct {
	msgs   []kafka.Message
	ctxErr error
}

func (f *fakeDLQ) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	f.ctxErr = ctx.Err()
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func message(t *testing.T, e events.LedgerEvent) kafka.Message {
	t.Helper()
	b, err := json.Marshal(e)
	if err != nil {
		t.Fatal(err)
	}
	return kafka.Message{Key: []byte("7"), Value: b}
}

func newNotifier(s *fakeSender, dlq *fakeDLQ, results *[]string) *Notifier {
	return &Notifier{
		Log:     zap.NewNop(),
		Sender:  s,
		DLQ:     dlq,
		Retries: 2,
		OnSent:  func(r string) { *results = append(*results, r) },
	}
}

func TestHandleBetWonSendsToUser(t *testing.T) {
	s := &fakeSender{}
	var results []string
	n := newNotifier(s, &fakeDLQ{}, &results)

	bal := decimal.RequireFromString("104")
	err := n.Handle(context.Background(), message(t, events.LedgerEvent{
		Type: events.TypeBetSettled, UserID: 7, BetID: 3, Team: "Bills",
		Result: "won", Amount: decimal.RequireFromString("24"), Balance: &bal,
	}))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(s.sent) != 1 || s.sent[0].ChatID != 7 {
		t.Fatalf("sent = %+v", s.sent)
	}
	txt := s.sent[0].Text
	if !strings.Contains(txt, "+$24.00") || !strings.Contains(txt, "Balance: $104.00") {
		t.Fatalf("text = %q", txt)
	}
	if len(results) != 1 || results[0] != "sent" {
		t.Fatalf("results = %v", results)
	}
}

func TestHandleSkipsEventsAnsweredInChat(t *testing.T) {
	s := &fakeSender{}
	var results []string
	n := newNotifier(s, &fakeDLQ{}, &results)

	for _, typ := range []string{events.TypeBetPlaced, events.TypeTransactionRequested} {
		if err := n.Handle(context.Background(), message(t, events.LedgerEvent{Type: typ, UserID: 7})); err != nil {
			t.Fatalf("%s: %v", typ, err)
		}
	}
	if s.calls != 0 {
		t.Fatalf("sender called %d times", s.calls)
	}
	if len(results) != 2 || results[0] != "skipped" {
		t.Fatalf("results = %v", results)
	}
}

func TestHandleRetriesThenSucceeds(t *testing.T) {
	s := &fakeSender{fails: 2}
	dlq := &fakeDLQ{}
	var results []string
	n := newNotifier(s, dlq, &results)

	err := n.Handle(context.Background(), message(t, events.LedgerEvent{
		Type: events.TypeTransactionRejected, UserID: 7, TransactionID: 9, Kind: "withdraw",
		Amount: decimal.RequireFromString("150"),
	}))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if s.calls != 3 || len(s.sent) != 1 {
		t.Fatalf("calls=%d sent=%d", s.calls, len(s.sent))
	}
	if !strings.Contains(s.sent[0].Text, "withdrawal request #9") {
		t.Fatalf("text = %q", s.sent[0].Text)
	}
	if len(dlq.msgs) != 0 {
		t.Fatal("nothing should reach the dlq")
	}
}

func TestHandleExhaustedGoesToDLQ(t *testing.T) {
	s := &fakeSender{fails: 10}
	dlq := &fakeDLQ{}
	var results []string
	var stages []string
	n := newNotifier(s, dlq, &results)
	n.OnError = func(st string) { stages = append(stages, st) }

	m := message(t, events.LedgerEvent{
		Type: events.TypeTransactionApproved, UserID: 7, TransactionID: 1, Kind: "deposit",
		Amount: decimal.RequireFromString("100"),
	})
	if err := n.Handle(context.Background(), m); err == nil {
		t.Fatal("expected error")
	}
	if s.calls != 3 {
		t.Fatalf("calls = %d", s.calls)
	}
	if len(dlq.msgs) != 1 || string(dlq.msgs[0].Value) != string(m.Value) || string(dlq.msgs[0].Key) != "7" {
		t.Fatalf("dlq = %+v", dlq.msgs)
	}
	if len(results) != 1 || results[0] != "dlq" || len(stages) != 1 || stages[0] != "send" {
		t.Fatalf("results=%v stages=%v", results, stages)
	}
}

func TestHandleInvalidPayloadIsDropped(t *testing.T) {
	s := &fakeSender{}
	var stages []string
	n := &Notifier{Log: zap.NewNop(), Sender: s, OnError: func(st string) { stages = append(stages, st) }}

	if err := n.Handle(context.Background(), kafka.Message{Value: []byte("{")}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if s.calls != 0 || len(stages) != 1 || stages[0] != "decode" {
		t.Fatalf("calls=%d stages=%v", s.calls, stages)
	}
}

func TestFormat(t *testing.T) {
	bal := decimal.RequireFromString("60")
	cases := []struct {
		name string
		e    events.LedgerEvent
		want string
	}{
		{"lost", events.LedgerEvent{Type: events.TypeBetSettled, BetID: 2, Team: "A&B", Result: "lost"}, "<b>A&amp;B</b> lost"},
		{"deposit", events.LedgerEvent{Type: events.TypeTransactionApproved, TransactionID: 4, Kind: "deposit", Amount: decimal.NewFromInt(50), Balance: &bal}, "deposit #4 of $50.00 was approved.\nBalance: $60.00"},
		{"withdraw", events.LedgerEvent{Type: events.TypeTransactionApproved, TransactionID: 5, Kind: "withdraw", Amount: decimal.NewFromInt(100)}, "withdrawal #5 of $100.00"},
		{"rejected deposit", events.LedgerEvent{Type: events.TypeTransactionRejected, TransactionID: 6, Kind: "deposit", Amount: decimal.NewFromInt(10)}, "deposit request #6"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := Format(c.e); !strings.Contains(got, c.want) {
				t.Fatalf("Format = %q, want substring %q", got, c.want)
			}
		})
	}
	if got := Format(events.LedgerEvent{Type: "unknown"}); got != "" {
		t.Fatalf("unknown type = %q", got)
	}
}

func TestHandleCancelStopsBackoff(t *testing.T) {
	s := &fakeSender{fails: 10}
	dlq := &fakeDLQ{}
	var results []string
	n := newNotifier(s, dlq, &results)
	n.Backoff = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	start := time.Now()
	err := n.Handle(ctx, message(t, events.LedgerEvent{
		Type: events.TypeTransactionApproved, UserID: 7, TransactionID: 2, Kind: "deposit",
		Amount: decimal.RequireFromString("10"),
	}))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if took := time.Since(start); took > 5*time.Second {
		t.Fatalf("handle took %s after cancel", took)
	}
	if s.calls != 1 {
		t.Fatalf("calls = %d, want 1", s.calls)
	}
	if len(dlq.msgs) != 1 || dlq.ctxErr != nil {
		t.Fatalf("dlq msgs=%d ctxErr=%v", len(dlq.msgs), dlq.ctxErr)
	}
}
