package ledger

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Payout calcula o lucro de uma aposta em odds americanas
// +150 paga 150 a cada 100 apostados; -110 exige 110 para ganhar 100
func Payout(stake, odds decimal.Decimal) (decimal.Decimal, error) {
	switch odds.Sign() {
	case 1:
		return stake.Mul(odds).Div(hundred).Round(2), nil
	case -1:
		return stake.Mul(hundred).Div(odds.Abs()).Round(2), nil
	default:
		return decimal.Zero, ErrInvalidOdds
	}
}
