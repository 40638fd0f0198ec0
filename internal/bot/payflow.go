package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/radieske/betbot/internal/ledger"
)

func (h *Handler) assetKeyboard(prefix string) tgbotapi.InlineKeyboardMarkup {
	var row []tgbotapi.InlineKeyboardButton
	for _, a := range h.payments.Limits().Assets {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(a, prefix+":"+a))
	}
	return tgbotapi.NewInlineKeyboardMarkup(row)
}

func (h *Handler) handleDeposit(chatID int64) {
	lim := h.payments.Limits()
	h.send(chatID, fmt.Sprintf("💵 <b>Deposit</b>\n\nMin: %s\nMax: %s\n\nChoose a payment method:",
		money(lim.MinDeposit), money(lim.MaxDeposit)), h.assetKeyboard(cbDeposit))
}

func (h *Handler) startDeposit(ctx context.Context, chatID, userID int64, asset string) {
	if asset == "" {
		h.handleDeposit(chatID)
		return
	}
	if _, err := h.payments.WalletAddress(ctx, asset); err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			h.reply(chatID, fmt.Sprintf("❌ <b>%s</b> wallet address is not configured yet. Please contact support.", html.EscapeString(asset)))
			return
		}
		h.reply(chatID, errorText(err))
		return
	}
	h.setState(userID, userState{step: stepDepositAmount, asset: asset})
	h.reply(chatID, fmt.Sprintf("💵 <b>%s deposit</b>\n\nEnter the amount in USD:", html.EscapeString(asset)))
}

func (h *Handler) onDepositAmount(ctx context.Context, chatID, userID int64, s userState, text string) {
	amount, err := parseAmount(text)
	if err != nil {
		h.reply(chatID, "❌ Invalid amount. Please enter a number (e.g. 50 or 100.50).")
		return
	}
	lim := h.payments.Limits()
	if amount.LessThan(lim.MinDeposit) || amount.GreaterThan(lim.MaxDeposit) {
		h.reply(chatID, fmt.Sprintf("❌ Deposit must be between %s and %s.", money(lim.MinDeposit), money(lim.MaxDeposit)))
		return
	}
	w, err := h.payments.WalletAddress(ctx, s.asset)
	if err != nil {
		h.clearState(userID)
		h.reply(chatID, errorText(err))
		return
	}

	s.step = stepDepositRef
	s.amount = amount
	h.setState(userID, s)
	h.reply(chatID, fmt.Sprintf(`✅ <b>Amount confirmed: %s</b>

📬 Send <b>%s</b> worth of %s to:

<code>%s</code>

Then reply with the transaction hash (TX ID) so the admin can verify it.`,
		money(amount), money(amount), html.EscapeString(s.asset), html.EscapeString(w.Address)))
}

func (h *Handler) onDepositRef(ctx context.Context, chatID int64, u *ledger.User, s userState, text string) {
	ref := strings.TrimSpace(text)
	if ref == "" {
		h.reply(chatID, "Please reply with the transaction hash, or /cancel.")
		return
	}
	t, err := h.payments.RequestDeposit(ctx, u.ID, s.amount, s.asset, ref)
	h.clearState(u.ID)
	if err != nil {
		h.reply(chatID, errorText(err))
		return
	}
	h.reply(chatID, formatRequested(t))
	h.notifyAdmins(u, t)
}

func (h *Handler) handleWithdraw(chatID int64, u *ledger.User) {
	lim := h.payments.Limits()
	if u.Balance.LessThan(lim.MinWithdrawal) {
		h.reply(chatID, fmt.Sprintf("❌ Minimum withdrawal is %s. Your balance: %s.", money(lim.MinWithdrawal), money(u.Balance)))
		return
	}
	h.send(chatID, fmt.Sprintf("💸 <b>Withdraw</b>\n\nAvailable: %s\n\nChoose the asset to receive:", money(u.Balance)),
		h.assetKeyboard(cbWithdraw))
}

func (h *Handler) startWithdraw(chatID int64, u *ledger.User, asset string) {
	if asset == "" {
		h.handleWithdraw(chatID, u)
		return
	}
	h.setState(u.ID, userState{step: stepWithdrawAmount, asset: asset})
	h.reply(chatID, fmt.Sprintf("💸 <b>%s withdrawal</b>\n\nAvailable: %s\nEnter the amount:", html.EscapeString(asset), money(u.Balance)))
}

func (h *Handler) onWithdrawAmount(chatID int64, u *ledger.User, s userState, text string) {
	amount, err := parseAmount(text)
	if err != nil {
		h.reply(chatID, "❌ Invalid amount. Please enter a number (e.g. 50 or 100.50).")
		return
	}
	if lim := h.payments.Limits(); amount.LessThan(lim.MinWithdrawal) {
		h.reply(chatID, fmt.Sprintf("❌ Minimum withdrawal is %s.", money(lim.MinWithdrawal)))
		return
	}
	if amount.GreaterThan(u.Balance) {
		h.reply(chatID, fmt.Sprintf("❌ Insufficient balance. You have %s.", money(u.Balance)))
		return
	}
	s.step = stepWithdrawAddress
	s.amount = amount
	h.setState(u.ID, s)
	h.reply(chatID, fmt.Sprintf("📬 Send your <b>%s</b> address:", html.EscapeString(s.asset)))
}

func (h *Handler) onWithdrawAddress(ctx context.Context, chatID int64, u *ledger.User, s userState, text string) {
	t, err := h.payments.RequestWithdrawal(ctx, u.ID, s.amount, s.asset, text)
	if err != nil {
		if errors.Is(err, ledger.ErrInvalidSelection) {
			h.reply(chatID, "Please send a valid address, or /cancel.")
			return
		}
		h.clearState(u.ID)
		h.reply(chatID, errorText(err))
		return
	}
	h.clearState(u.ID)
	h.reply(chatID, formatRequested(t))
	h.notifyAdmins(u, t)
}

// notifyAdmins manda o pedido com botões de aprovar/rejeitar para cada admin
func (h *Handler) notifyAdmins(u *ledger.User, t *ledger.Transaction) {
	kb := resolveKeyboard(t.ID)
	for _, adminID := range h.admins {
		m := tgbotapi.NewMessage(adminID, formatAdminRequest(u, t))
		m.ParseMode = tgbotapi.ModeHTML
		m.ReplyMarkup = kb
		if _, err := h.bot.Send(m); err != nil {
			h.log.Warn("notify admin", zap.Int64("admin_id", adminID), zap.Int64("tx_id", t.ID), zap.Error(err))
		}
	}
}

func resolveKeyboard(txID int64) tgbotapi.InlineKeyboardMarkup {
	id := fmt.Sprint(txID)
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Approve #"+id, cbApprove+":"+id),
			tgbotapi.NewInlineKeyboardButtonData("❌ Reject #"+id, cbReject+":"+id),
		),
	)
}
