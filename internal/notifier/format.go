package notifier

import (
	"fmt"
	"html"
	"strings"

	"github.com/radieske/betbot/pkg/contracts/events"
)

// Format monta o texto do aviso. Vazio = evento que o bot já respondeu na conversa
func Format(e events.LedgerEvent) string {
	switch e.Type {
	case events.TypeBetSettled:
		team := html.EscapeString(e.Team)
		if e.Result == "won" {
			return fmt.Sprintf("🎉 Your bet #%d on <b>%s</b> won!\n+$%s credited.%s",
				e.BetID, team, e.Amount.StringFixed(2), balanceLine(e))
		}
		return fmt.Sprintf("😞 Your bet #%d on <b>%s</b> lost. Better luck next time.", e.BetID, team)

	case events.TypeTransactionApproved:
		if e.Kind == "withdraw" {
			return fmt.Sprintf("✅ Your withdrawal #%d of $%s was approved and will be sent shortly.%s",
				e.TransactionID, e.Amount.StringFixed(2), balanceLine(e))
		}
		return fmt.Sprintf("✅ Your deposit #%d of $%s was approved.%s",
			e.TransactionID, e.Amount.StringFixed(2), balanceLine(e))

	case events.TypeTransactionRejected:
		return fmt.Sprintf("❌ Your %s request #%d of $%s was rejected.\nContact support if you think this is a mistake.",
			kindLabel(e.Kind), e.TransactionID, e.Amount.StringFixed(2))
	}
	return ""
}

func balanceLine(e events.LedgerEvent) string {
	if e.Balance == nil {
		return ""
	}
	return "\nBalance: $" + e.Balance.StringFixed(2)
}

func kindLabel(kind string) string {
	if kind == "withdraw" {
		return "withdrawal"
	}
	if kind == "" {
		return "transaction"
	}
	return strings.ToLower(kind)
}
