package bot

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/radieske/betbot/internal/ledger"
)

// prefixos de callback_data (limite do Telegram: 64 bytes)
const (
	cbSport    = "sport"
	cbMatch    = "match"
	cbBet      = "bet"
	cbTeam     = "team"
	cbTip      = "tip"
	cbDeposit  = "dep"
	cbWithdraw = "wd"
	cbApprove  = "approve"
	cbReject   = "reject"
)

func parseCallback(data string) (action, arg string) {
	action, arg, _ = strings.Cut(data, ":")
	return action, arg
}

// amountRe: sem expoente e no máximo 12 dígitos inteiros, checado antes do decimal
var amountRe = regexp.MustCompile(`^\d{1,12}(\.\d{1,2})?$`)

// parseAmount aceita "20", "12.50", "$1,000"; no máximo 2 casas
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if !amountRe.MatchString(s) {
		return decimal.Zero, ledger.ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsPositive() {
		return decimal.Zero, ledger.ErrInvalidAmount
	}
	return d, nil
}
