package bot

import (
	"context"
	"fmt"
	"html"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/radieske/betbot/internal/betting"
	"github.com/radieske/betbot/internal/ledger"
	"github.com/radieske/betbot/internal/voice"
)

func (h *Handler) showMatch(ctx context.Context, chatID int64, matchID string) {
	m, err := h.odds.Match(ctx, matchID)
	if err != nil {
		h.reply(chatID, errorText(err))
		return
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎯 Place Bet", cbBet+":"+m.MatchID),
			tgbotapi.NewInlineKeyboardButtonData("🤖 AI Tip", cbTip+":"+m.MatchID),
		),
	)
	h.send(chatID, formatMatch(*m), kb)
}

func (h *Handler) startBet(ctx context.Context, chatID int64, u *ledger.User, matchID string) {
	m, err := h.odds.Match(ctx, matchID)
	if err != nil {
		h.reply(chatID, errorText(err))
		return
	}
	var teams []string
	for _, o := range m.Moneyline() {
		teams = append(teams, o.Name)
	}
	if len(teams) == 0 {
		h.reply(chatID, "❌ No moneyline odds for this match yet.")
		return
	}
	if !u.Balance.IsPositive() {
		h.reply(chatID, fmt.Sprintf("❌ Your balance is %s. Use /deposit first.", money(u.Balance)))
		return
	}

	lim := h.bets.Limits()
	h.setState(u.ID, userState{step: stepStake, matchID: m.MatchID, teams: teams})
	h.reply(chatID, fmt.Sprintf(`💰 <b>Place Bet</b>
%s vs %s

Balance: %s
Min bet: %s
Max bet: %s

Enter the amount:`,
		html.EscapeString(m.HomeTeam), html.EscapeString(m.AwayTeam),
		money(u.Balance), money(lim.Min), money(lim.Max)))
}

func (h *Handler) onStake(ctx context.Context, chatID int64, u *ledger.User, s userState, text string) {
	stake, err := parseAmount(text)
	if err != nil {
		h.reply(chatID, "❌ Please enter a valid amount, e.g. 20 or 12.50")
		return
	}
	lim := h.bets.Limits()
	if stake.LessThan(lim.Min) || stake.GreaterThan(lim.Max) {
		h.reply(chatID, fmt.Sprintf("❌ Bet amount must be between %s and %s.", money(lim.Min), money(lim.Max)))
		return
	}
	if stake.GreaterThan(u.Balance) {
		h.reply(chatID, fmt.Sprintf("❌ Insufficient balance. You have %s.", money(u.Balance)))
		return
	}

	s.step = stepTeam
	s.stake = stake
	h.setState(u.ID, s)

	var rows [][]tgbotapi.InlineKeyboardButton
	for i, t := range s.teams {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(t, cbTeam+":"+strconv.Itoa(i)),
		))
	}
	h.send(chatID, fmt.Sprintf("🏆 <b>Choose Team</b>\n\nBet amount: %s\n\nWhich team would you like to bet on?", money(stake)),
		tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (h *Handler) onTeam(ctx context.Context, q *tgbotapi.CallbackQuery, u *ledger.User, arg string) {
	s, ok := h.state(u.ID)
	idx, err := strconv.Atoi(arg)
	if !ok || s.step != stepTeam || err != nil || idx < 0 || idx >= len(s.teams) {
		h.answer(q, "This bet slip expired. Start again with /live.")
		return
	}
	team := s.teams[idx]

	// odd atual no momento do clique; é ela que fica congelada na aposta
	price, err := h.odds.Price(ctx, s.matchID, team)
	if err != nil {
		h.answer(q, "")
		h.reply(q.Message.Chat.ID, errorText(err))
		return
	}

	bet, err := h.bets.PlaceBet(ctx, betting.PlaceBetInput{
		UserID:  u.ID,
		MatchID: s.matchID,
		Team:    team,
		Odds:    price,
		Stake:   s.stake,
	})
	h.clearState(u.ID)
	if err != nil {
		h.log.Info("bet rejected", zap.Int64("user_id", u.ID), zap.Error(err))
		h.answer(q, "")
		h.reply(q.Message.Chat.ID, errorText(err))
		return
	}
	h.answer(q, "✅ Bet placed")

	balance := u.Balance.Sub(bet.Amount)
	if fresh, err := h.accounts.User(ctx, u.ID); err == nil {
		balance = fresh.Balance
	}
	h.reply(q.Message.Chat.ID, formatBetPlaced(bet, balance))
	h.sendVoice(ctx, q.Message.Chat.ID, voice.BetConfirmation(bet.Team, bet.Odds, bet.Amount))
}

// sendVoice é best-effort: falha de TTS nunca afeta a aposta
func (h *Handler) sendVoice(ctx context.Context, chatID int64, text string) {
	vctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	audio, err := h.voice.Synthesize(vctx, text)
	if err != nil {
		h.log.Warn("voice synthesis", zap.Error(err))
		return
	}
	if len(audio) == 0 {
		return
	}
	v := tgbotapi.NewVoice(chatID, tgbotapi.FileBytes{Name: "bet.mp3", Bytes: audio})
	if _, err := h.bot.Send(v); err != nil {
		h.log.Warn("send voice", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
