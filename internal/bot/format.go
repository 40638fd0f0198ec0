package bot

import (
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/radieske/betbot/internal/ledger"
	"github.com/radieske/betbot/internal/odds"
	"github.com/radieske/betbot/pkg/contracts/events"
)

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

// americanOdds formata com sinal explícito: +150, -110
func americanOdds(d decimal.Decimal) string {
	s := d.Round(0).String()
	if d.IsPositive() {
		return "+" + s
	}
	return s
}

func sportLabel(key string) string {
	switch key {
	case "americanfootball_nfl":
		return "NFL"
	case "basketball_nba":
		return "NBA"
	case "baseball_mlb":
		return "MLB"
	case "icehockey_nhl":
		return "NHL"
	case "soccer_epl":
		return "Premier League"
	}
	return key
}

func formatMatch(m events.OddsUpdate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🏆 <b>%s vs %s</b>\n", html.EscapeString(m.HomeTeam), html.EscapeString(m.AwayTeam))
	if !m.CommenceTime.IsZero() {
		fmt.Fprintf(&b, "🕒 %s\n", m.CommenceTime.UTC().Format("Mon 02 Jan 15:04 UTC"))
	}

	for _, mk := range m.Markets {
		switch mk.Key {
		case "h2h":
			b.WriteString("\n📊 <b>Moneyline</b>")
			for _, o := range mk.Outcomes {
				fmt.Fprintf(&b, "\n  • %s: <b>%s</b>", html.EscapeString(o.Name), americanOdds(o.Price))
			}
		case "spreads":
			b.WriteString("\n\n📈 <b>Spreads</b>")
			for _, o := range mk.Outcomes {
				fmt.Fprintf(&b, "\n  • %s %s: <b>%s</b>", html.EscapeString(o.Name), point(o.Point, true), americanOdds(o.Price))
			}
		case "totals":
			b.WriteString("\n\n🎯 <b>Totals</b>")
			for _, o := range mk.Outcomes {
				fmt.Fprintf(&b, "\n  • %s %s: <b>%s</b>", html.EscapeString(o.Name), point(o.Point, false), americanOdds(o.Price))
			}
		}
	}
	if m.Bookmaker != "" {
		fmt.Fprintf(&b, "\n\n<i>%s</i>", html.EscapeString(m.Bookmaker))
	}
	return b.String()
}

func point(p *float64, signed bool) string {
	if p == nil {
		return ""
	}
	if signed {
		return fmt.Sprintf("%+.1f", *p)
	}
	return fmt.Sprintf("%.1f", *p)
}

func formatBetPlaced(bet *ledger.Bet, balance decimal.Decimal) string {
	return fmt.Sprintf(`✅ <b>Bet successfully placed!</b>

📋 Bet #%d
• Team: %s
• Odds: %s
• Amount: %s
• Potential win: %s

Your new balance: %s`,
		bet.ID, html.EscapeString(bet.Team), americanOdds(bet.Odds),
		money(bet.Amount), money(bet.PotentialWin), money(balance))
}

func formatBets(bets []ledger.Bet) string {
	if len(bets) == 0 {
		return "You have no bets yet. Use /live to place one."
	}
	var b strings.Builder
	b.WriteString("📋 <b>Your bets</b>\n")
	for _, bet := range bets {
		icon := "⏳"
		switch bet.Result {
		case ledger.ResultWon:
			icon = "✅"
		case ledger.ResultLost:
			icon = "❌"
		}
		fmt.Fprintf(&b, "\n%s #%d %s %s\n    %s → %s (%s)\n",
			icon, bet.ID, html.EscapeString(bet.Team), americanOdds(bet.Odds),
			money(bet.Amount), money(bet.PotentialWin), bet.Result)
	}
	return b.String()
}

func formatBalance(u *ledger.User) string {
	return fmt.Sprintf(`💰 <b>Balance: %s</b>

📊 Bets: %d
✅ Wins: %d
❌ Losses: %d`, money(u.Balance), u.TotalBet, u.TotalWin, u.TotalLoss)
}

func formatTxLine(t *ledger.Transaction) string {
	icon := "💵"
	if t.Kind == ledger.KindWithdraw {
		icon = "💸"
	}
	line := fmt.Sprintf("%s #%d %s %s %s · user <code>%d</code>", icon, t.ID, t.Kind, money(t.Amount), t.Method, t.UserID)
	if t.Reference != "" {
		line += " · ref <code>" + html.EscapeString(t.Reference) + "</code>"
	}
	if t.Address != "" {
		line += " · to <code>" + html.EscapeString(t.Address) + "</code>"
	}
	return line
}

func formatRequested(t *ledger.Transaction) string {
	what := "Deposit"
	if t.Kind == ledger.KindWithdraw {
		what = "Withdrawal"
	}
	return fmt.Sprintf(`✅ <b>%s request submitted</b>

📋 Request ID: <code>%d</code>
💰 Amount: %s
💱 Method: %s
🔄 Status: ⏳ pending admin approval`, what, t.ID, money(t.Amount), t.Method)
}

func formatAdminRequest(u *ledger.User, t *ledger.Transaction) string {
	who := fmt.Sprintf("<code>%d</code>", u.ID)
	if u.Username != "" {
		who += " @" + html.EscapeString(u.Username)
	}
	return fmt.Sprintf("📩 <b>New %s request</b>\n\n👤 User: %s\n%s", t.Kind, who, formatTxLine(t))
}

func formatResolved(t *ledger.Transaction) string {
	icon := "✅"
	if t.Status == ledger.TxRejected {
		icon = "❌"
	}
	return fmt.Sprintf("%s %s #%d %s (%s, user %d).", icon, t.Kind, t.ID, t.Status, money(t.Amount), t.UserID)
}

func formatStats(st ledger.Stats) string {
	return fmt.Sprintf(`📈 <b>Platform stats</b>

👥 Users: %d
🎯 Bets: %d
✅ Wins: %d
❌ Losses: %d
💰 Total balance: %s`, st.TotalUsers, st.TotalBets, st.Wins, st.Losses, money(st.TotalBalance))
}

// errorText traduz os erros do core para mensagens de usuário
func errorText(err error) string {
	switch {
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return "❌ Insufficient balance."
	case errors.Is(err, ledger.ErrInvalidAmount):
		return "❌ Invalid amount."
	case errors.Is(err, ledger.ErrNotPending):
		return "⚠️ Already processed."
	case errors.Is(err, ledger.ErrUnauthorized):
		return "⛔ This command is for admins only."
	case errors.Is(err, ledger.ErrUnsupportedAsset):
		return "❌ Unsupported payment method."
	case errors.Is(err, ledger.ErrInvalidOdds),
		errors.Is(err, odds.ErrSelectionNotFound),
		errors.Is(err, odds.ErrMatchNotFound):
		return "❌ Odds for this match are no longer available. Check /live again."
	case errors.Is(err, ledger.ErrInvalidSelection), errors.Is(err, ledger.ErrInvalidResult):
		return "❌ Invalid input."
	case errors.Is(err, ledger.ErrNotFound):
		return "❌ Not found."
	}
	return "❌ Something went wrong. Please try again later."
}
