package bot

import (
	"context"
	"fmt"
	"html"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/radieske/betbot/internal/ledger"
)

const userHelp = `📋 <b>Commands</b>
/live [sport] - matches with odds
/mybets - your last bets
/balance - balance and stats
/deposit - request a crypto deposit
/withdraw - request a withdrawal
/tip - AI review of your betting
/ai [question] - chat with the AI assistant
/cancel - cancel the current action`

const adminHelp = `

🔐 <b>Admin</b>
/pending - pending deposits and withdrawals
/approve &lt;tx&gt; | /reject &lt;tx&gt;
/settle &lt;bet&gt; &lt;won|lost&gt; [amount]
/settlematch &lt;match&gt; &lt;winning team&gt;
/setwallet &lt;asset&gt; &lt;address&gt;
/stats - platform totals`

func (h *Handler) handleStart(chatID int64, u *ledger.User) {
	name := u.FirstName
	if name == "" {
		name = u.Username
	}
	text := fmt.Sprintf(`👋 Welcome, <b>%s</b>!

I'm your sports betting bot. Browse live odds, place bets in American odds and manage your balance with crypto deposits.

💰 Balance: <b>%s</b>

`, html.EscapeString(name), money(u.Balance)) + userHelp

	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🏆 Live Games", cbSport+":"+h.defaultSport),
			tgbotapi.NewInlineKeyboardButtonData("💵 Deposit", cbDeposit+":"),
		),
	)
	h.send(chatID, text, kb)
}

func (h *Handler) handleHelp(chatID, userID int64) {
	text := userHelp
	if h.admins.IsAdmin(userID) {
		text += adminHelp
	}
	h.reply(chatID, text)
}

func (h *Handler) handleLive(ctx context.Context, chatID int64, sport string) {
	sport = strings.TrimSpace(sport)
	if sport == "" {
		sport = h.defaultSport
	}
	matches, err := h.odds.Matches(ctx, sport)
	if err != nil {
		h.log.Warn("list matches", zap.String("sport", sport), zap.Error(err))
		h.reply(chatID, "❌ Could not load odds right now. Try again in a minute.")
		return
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, m := range matches {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(m.HomeTeam+" vs "+m.AwayTeam, cbMatch+":"+m.MatchID),
		))
	}
	var others []tgbotapi.InlineKeyboardButton
	for _, s := range h.sports {
		if s != sport {
			others = append(others, tgbotapi.NewInlineKeyboardButtonData("🔁 "+sportLabel(s), cbSport+":"+s))
		}
	}
	if len(others) > 0 {
		rows = append(rows, others)
	}

	text := fmt.Sprintf("🏆 <b>%s</b>\n\n", html.EscapeString(sportLabel(sport)))
	if len(matches) == 0 {
		text += "No matches with odds right now."
	} else {
		text += "Pick a match to see the odds:"
	}
	if len(rows) == 0 {
		h.reply(chatID, text)
		return
	}
	h.send(chatID, text, tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (h *Handler) handleMyBets(ctx context.Context, chatID, userID int64) {
	bets, err := h.bets.UserBets(ctx, userID, 10)
	if err != nil {
		h.log.Error("user bets", zap.Int64("user_id", userID), zap.Error(err))
		h.reply(chatID, errorText(err))
		return
	}
	h.reply(chatID, formatBets(bets))
}

func (h *Handler) handleBalance(chatID int64, u *ledger.User) {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💵 Deposit", cbDeposit+":"),
			tgbotapi.NewInlineKeyboardButtonData("💸 Withdraw", cbWithdraw+":"),
		),
	)
	h.send(chatID, formatBalance(u), kb)
}

func (h *Handler) handleTip(ctx context.Context, chatID int64, u *ledger.User) {
	if u.TotalBet == 0 {
		h.reply(chatID, "You have no bets yet. Place one with /live and come back for a review.")
		return
	}
	h.reply(chatID, "🤖 "+html.EscapeString(h.advisor.Analyze(ctx, u)))
}

func (h *Handler) handleAI(ctx context.Context, chatID, userID int64, question string) {
	question = strings.TrimSpace(question)
	if question != "" {
		h.chat(ctx, chatID, userID, question)
		return
	}
	if err := h.advisor.Reset(ctx, userID); err != nil {
		h.log.Warn("reset ai history", zap.Int64("user_id", userID), zap.Error(err))
	}
	h.setState(userID, userState{step: stepChat})
	h.reply(chatID, "🤖 AI assistant is listening. Ask me anything about matches or betting. /cancel to stop.")
}

func (h *Handler) chat(ctx context.Context, chatID, userID int64, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	h.reply(chatID, "🤖 "+html.EscapeString(h.advisor.Chat(ctx, userID, text)))
}

func (h *Handler) matchTip(ctx context.Context, chatID int64, matchID string) {
	m, err := h.odds.Match(ctx, matchID)
	if err != nil {
		h.reply(chatID, errorText(err))
		return
	}
	h.reply(chatID, "🤖 <b>AI tip</b>\n\n"+html.EscapeString(h.advisor.Tip(ctx, *m)))
}
