package ledger

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestPayout(t *testing.T) {
	cases := []struct {
		stake, odds, want string
	}{
		{"100", "150", "150"},
		{"110", "-110", "100"},
		{"20", "120", "24"},
		{"10", "-150", "6.67"},
		{"33.33", "105", "35"},
		{"1", "-200", "0.5"},
	}
	for _, c := range cases {
		got, err := Payout(decimal.RequireFromString(c.stake), decimal.RequireFromString(c.odds))
		if err != nil {
			t.Fatalf("Payout(%s, %s): unexpected error %v", c.stake, c.odds, err)
		}
		if !got.Equal(decimal.RequireFromString(c.want)) {
			t.Errorf("Payout(%s, %s) = %s, expected %s", c.stake, c.odds, got, c.want)
		}
	}
}

func TestPayoutZeroOdds(t *testing.T) {
	_, err := Payout(decimal.NewFromInt(10), decimal.Zero)
	if !errors.Is(err, ErrInvalidOdds) {
		t.Fatalf("Expected ErrInvalidOdds, got %v", err)
	}
}

func TestAlreadyResolvedIsNotPending(t *testing.T) {
	if !errors.Is(ErrAlreadyResolved, ErrNotPending) {
		t.Fatal("ErrAlreadyResolved must match ErrNotPending")
	}
}
