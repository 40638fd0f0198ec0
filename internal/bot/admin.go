package bot

import (
	"context"
	"fmt"
	"html"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/betbot/internal/ledger"
)

// os comandos de admin checam aqui só para dar uma resposta amigável;
// a autorização real é feita pelo core
func (h *Handler) requireAdmin(chatID, userID int64) bool {
	if h.admins.IsAdmin(userID) {
		return true
	}
	h.reply(chatID, errorText(ledger.ErrUnauthorized))
	return false
}

func (h *Handler) handlePending(ctx context.Context, chatID, adminID int64) {
	if !h.requireAdmin(chatID, adminID) {
		return
	}
	list, err := h.payments.Pending(ctx, "")
	if err != nil {
		h.log.Error("pending transactions", zap.Error(err))
		h.reply(chatID, errorText(err))
		return
	}
	if len(list) == 0 {
		h.reply(chatID, "✅ No pending requests.")
		return
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	var b strings.Builder
	b.WriteString("⏳ <b>Pending requests</b>\n")
	for i := range list {
		t := &list[i]
		b.WriteString("\n" + formatTxLine(t))
		rows = append(rows, resolveKeyboard(t.ID).InlineKeyboard...)
	}
	h.send(chatID, b.String(), tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (h *Handler) handleResolveCommand(ctx context.Context, chatID, adminID int64, args string, approve bool) {
	if !h.requireAdmin(chatID, adminID) {
		return
	}
	txID, err := strconv.ParseInt(strings.TrimPrefix(strings.TrimSpace(args), "#"), 10, 64)
	if err != nil {
		h.reply(chatID, "Usage: /approve &lt;tx id&gt; or /reject &lt;tx id&gt;")
		return
	}
	h.reply(chatID, h.resolveTx(ctx, txID, adminID, approve))
}

func (h *Handler) onResolveButton(ctx context.Context, q *tgbotapi.CallbackQuery, adminID int64, approve bool, arg string) {
	txID, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		h.answer(q, "")
		return
	}
	text := h.resolveTx(ctx, txID, adminID, approve)
	h.answer(q, "")
	h.reply(q.Message.Chat.ID, text)
}

func (h *Handler) resolveTx(ctx context.Context, txID, adminID int64, approve bool) string {
	var (
		t   *ledger.Transaction
		err error
	)
	if approve {
		t, err = h.payments.Approve(ctx, txID, adminID)
	} else {
		t, err = h.payments.Reject(ctx, txID, adminID)
	}
	if err != nil {
		h.log.Info("resolve transaction failed", zap.Int64("tx_id", txID), zap.Int64("admin_id", adminID), zap.Error(err))
		return errorText(err)
	}
	return formatResolved(t)
}

func (h *Handler) handleSettle(ctx context.Context, chatID, adminID int64, args string) {
	if !h.requireAdmin(chatID, adminID) {
		return
	}
	betID, result, amount, err := parseSettleArgs(args)
	if err != nil {
		h.reply(chatID, "Usage: /settle &lt;bet id&gt; &lt;won|lost&gt; [amount]")
		return
	}
	bet, err := h.bets.SettleBet(ctx, adminID, betID, result, amount)
	if err != nil {
		h.log.Info("settle failed", zap.Int64("bet_id", betID), zap.Error(err))
		h.reply(chatID, errorText(err))
		return
	}
	h.reply(chatID, fmt.Sprintf("✅ Bet #%d settled as <b>%s</b>.", bet.ID, bet.Result))
}

func (h *Handler) handleSettleMatch(ctx context.Context, chatID, adminID int64, args string) {
	if !h.requireAdmin(chatID, adminID) {
		return
	}
	matchID, winner, ok := strings.Cut(strings.TrimSpace(args), " ")
	if !ok || strings.TrimSpace(winner) == "" {
		h.reply(chatID, "Usage: /settlematch &lt;match id&gt; &lt;winning team&gt;")
		return
	}
	sum, err := h.bets.SettleMatch(ctx, adminID, matchID, strings.TrimSpace(winner))
	text := fmt.Sprintf("🏁 <b>%s</b> won\nWon: %d\nLost: %d\nSkipped: %d\nPaid: %s",
		html.EscapeString(sum.Winner), sum.Won, sum.Lost, sum.Skipped, money(sum.Paid))
	if err != nil {
		text += fmt.Sprintf("\n\n⚠️ %d bet(s) failed: %s", len(sum.Failed), html.EscapeString(err.Error()))
	}
	h.reply(chatID, text)
}

func (h *Handler) handleSetWallet(ctx context.Context, chatID, adminID int64, args string) {
	if !h.requireAdmin(chatID, adminID) {
		return
	}
	fields := strings.Fields(args)
	if len(fields) != 2 {
		h.reply(chatID, "Usage: /setwallet &lt;asset&gt; &lt;address&gt;")
		return
	}
	w, err := h.payments.SetWalletAddress(ctx, adminID, fields[0], fields[1])
	if err != nil {
		h.reply(chatID, errorText(err))
		return
	}
	h.reply(chatID, fmt.Sprintf("✅ %s address set to <code>%s</code>", w.Asset, html.EscapeString(w.Address)))
}

func (h *Handler) handleStats(ctx context.Context, chatID, adminID int64) {
	if !h.requireAdmin(chatID, adminID) {
		return
	}
	st, err := h.accounts.Stats(ctx)
	if err != nil {
		h.log.Error("stats", zap.Error(err))
		h.reply(chatID, errorText(err))
		return
	}
	h.reply(chatID, formatStats(st))
}

func parseSettleArgs(args string) (int64, ledger.BetResult, decimal.Decimal, error) {
	f := strings.Fields(args)
	if len(f) < 2 || len(f) > 3 {
		return 0, "", decimal.Zero, fmt.Errorf("want 2 or 3 args, got %d", len(f))
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(f[0], "#"), 10, 64)
	if err != nil {
		return 0, "", decimal.Zero, err
	}
	result := ledger.BetResult(strings.ToLower(f[1]))
	if result != ledger.ResultWon && result != ledger.ResultLost {
		return 0, "", decimal.Zero, ledger.ErrInvalidResult
	}
	amount := decimal.Zero
	if len(f) == 3 {
		if amount, err = parseAmount(f[2]); err != nil {
			return 0, "", decimal.Zero, err
		}
	}
	return id, result, amount, nil
}
