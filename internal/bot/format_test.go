package bot

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/radieske/betbot/internal/ledger"
	"github.com/radieske/betbot/internal/odds"
	"github.com/radieske/betbot/pkg/contracts/events"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"20", "20", true},
		{" 12.50 ", "12.5", true},
		{"$1,000", "1000", true},
		{"0", "", false},
		{"-5", "", false},
		{"1.234", "", false},
		{"abc", "", false},
		{"", "", false},
		{"1e3", "", false},
		{"1E2", "", false},
		{"1e-10000000", "", false},
		{"1234567890123", "", false},
		{"12.", "", false},
	}
	for _, c := range cases {
		got, err := parseAmount(c.in)
		if c.ok != (err == nil) {
			t.Fatalf("parseAmount(%q) err = %v", c.in, err)
		}
		if c.ok && !got.Equal(dec(c.want)) {
			t.Fatalf("parseAmount(%q) = %s, want %s", c.in, got, c.want)
		}
		if !c.ok && !errors.Is(err, ledger.ErrInvalidAmount) {
			t.Fatalf("parseAmount(%q) err = %v, want ErrInvalidAmount", c.in, err)
		}
	}
}

func TestParseSettleArgs(t *testing.T) {
	id, res, amt, err := parseSettleArgs("#12 WON 24.00")
	if err != nil || id != 12 || res != ledger.ResultWon || !amt.Equal(dec("24")) {
		t.Fatalf("got %d %s %s %v", id, res, amt, err)
	}
	if _, _, amt, err := parseSettleArgs("3 lost"); err != nil || !amt.IsZero() {
		t.Fatalf("lost without amount: %s %v", amt, err)
	}
	for _, bad := range []string{"", "3", "3 draw", "x won", "3 won 1 2"} {
		if _, _, _, err := parseSettleArgs(bad); err == nil {
			t.Fatalf("parseSettleArgs(%q) should fail", bad)
		}
	}
}

func TestParseCallback(t *testing.T) {
	a, arg := parseCallback("team:1")
	if a != cbTeam || arg != "1" {
		t.Fatalf("got %q %q", a, arg)
	}
	if a, arg := parseCallback("dep:"); a != cbDeposit || arg != "" {
		t.Fatalf("got %q %q", a, arg)
	}
}

func TestAmericanOdds(t *testing.T) {
	for in, want := range map[string]string{"150": "+150", "-110": "-110", "100": "+100"} {
		if got := americanOdds(dec(in)); got != want {
			t.Fatalf("americanOdds(%s) = %s, want %s", in, got, want)
		}
	}
}

func TestFormatMatchEscapesNames(t *testing.T) {
	p := -1.5
	out := formatMatch(events.OddsUpdate{
		HomeTeam: "A&M", AwayTeam: "<Bills>",
		Markets: []events.Market{
			{Key: "h2h", Outcomes: []events.Outcome{{Name: "A&M", Price: dec("120")}}},
			{Key: "spreads", Outcomes: []events.Outcome{{Name: "A&M", Price: dec("-110"), Point: &p}}},
		},
	})
	for _, want := range []string{"A&amp;M vs &lt;Bills&gt;", "A&amp;M: <b>+120</b>", "A&amp;M -1.5: <b>-110</b>"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestErrorText(t *testing.T) {
	cases := map[error]string{
		fmt.Errorf("place bet: %w", ledger.ErrInsufficientFunds): "Insufficient",
		ledger.ErrAlreadyResolved:                                "Already processed",
		fmt.Errorf("x: %w", odds.ErrSelectionNotFound):           "no longer available",
		ledger.ErrUnauthorized:                                   "admins only",
		errors.New("db down"):                                    "Something went wrong",
	}
	for err, want := range cases {
		if got := errorText(err); !strings.Contains(got, want) {
			t.Fatalf("errorText(%v) = %q, want %q", err, got, want)
		}
	}
}
