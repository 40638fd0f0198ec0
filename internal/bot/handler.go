package bot

import (
	"context"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/betbot/internal/accounts"
	"github.com/radieske/betbot/internal/betting"
	"github.com/radieske/betbot/internal/ledger"
	"github.com/radieske/betbot/internal/payments"
	"github.com/radieske/betbot/internal/voice"
	"github.com/radieske/betbot/pkg/contracts/events"
)

// Sender é o pedaço do *tgbotapi.BotAPI que o handler usa
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type OddsSource interface {
	Matches(ctx context.Context, sport string) ([]events.OddsUpdate, error)
	Match(ctx context.Context, matchID string) (*events.OddsUpdate, error)
	Price(ctx context.Context, matchID, team string) (decimal.Decimal, error)
}

type Advisor interface {
	Tip(ctx context.Context, m events.OddsUpdate) string
	Chat(ctx context.Context, userID int64, text string) string
	Analyze(ctx context.Context, u *ledger.User) string
	Reset(ctx context.Context, userID int64) error
}

type Deps struct {
	Log          *zap.Logger
	Bot          Sender
	Accounts     *accounts.Service
	Bets         *betting.Manager
	Payments     *payments.Workflow
	Odds         OddsSource
	Advisor      Advisor
	Voice        voice.Synthesizer
	Admins       ledger.Admins
	Sports       []string
	DefaultSport string
}

type Hooks struct {
	OnUpdate func()
}

// Handler é a camada de conversa: traduz comandos e botões em chamadas ao core
type Handler struct {
	log          *zap.Logger
	bot          Sender
	accounts     *accounts.Service
	bets         *betting.Manager
	payments     *payments.Workflow
	odds         OddsSource
	advisor      Advisor
	voice        voice.Synthesizer
	admins       ledger.Admins
	sports       []string
	defaultSport string

	mu     sync.Mutex
	states map[int64]*userState

	Hooks Hooks
}

func NewHandler(d Deps) *Handler {
	if d.Voice == nil {
		d.Voice = voice.Nop{}
	}
	return &Handler{
		log:          d.Log,
		bot:          d.Bot,
		accounts:     d.Accounts,
		bets:         d.Bets,
		payments:     d.Payments,
		odds:         d.Odds,
		advisor:      d.Advisor,
		voice:        d.Voice,
		admins:       d.Admins,
		sports:       d.Sports,
		defaultSport: d.DefaultSport,
		states:       make(map[int64]*userState),
	}
}

type step int

const (
	stepNone step = iota
	stepStake
	stepTeam
	stepDepositAmount
	stepDepositRef
	stepWithdrawAmount
	stepWithdrawAddress
	stepChat
)

// userState guarda a conversa em andamento de um usuário
type userState struct {
	step    step
	matchID string
	teams   []string
	stake   decimal.Decimal
	asset   string
	amount  decimal.Decimal
}

func (h *Handler) state(userID int64) (userState, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.states[userID]
	if !ok {
		return userState{}, false
	}
	return *s, true
}

func (h *Handler) setState(userID int64, s userState) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.states[userID] = &s
}

func (h *Handler) clearState(userID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.states, userID)
}

const maxInFlight = 16

// Run consome updates até ctx acabar ou o canal fechar
func (h *Handler) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	sem := make(chan struct{}, maxInFlight)
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer func() { <-sem }()
				h.HandleUpdate(ctx, u)
			}()
		}
	}
}

func (h *Handler) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Error("panic handling update", zap.Int("update_id", update.UpdateID), zap.Any("panic", r))
		}
	}()
	if h.Hooks.OnUpdate != nil {
		h.Hooks.OnUpdate()
	}

	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	switch {
	case update.Message != nil:
		h.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		h.handleCallback(ctx, update.CallbackQuery)
	}
}

func (h *Handler) register(ctx context.Context, from *tgbotapi.User) (*ledger.User, error) {
	return h.accounts.Register(ctx, ledger.Profile{
		ID:        from.ID,
		Username:  from.UserName,
		FirstName: from.FirstName,
		LastName:  from.LastName,
	})
}

func (h *Handler) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	user, err := h.register(ctx, msg.From)
	if err != nil {
		h.log.Error("register user", zap.Int64("user_id", msg.From.ID), zap.Error(err))
		h.reply(msg.Chat.ID, errorText(err))
		return
	}

	if msg.IsCommand() {
		h.handleCommand(ctx, msg, user)
		return
	}

	if s, ok := h.state(user.ID); ok {
		h.handleStateInput(ctx, msg, user, s)
		return
	}
	h.reply(msg.Chat.ID, "Use /help to see what I can do.")
}

func (h *Handler) handleCommand(ctx context.Context, msg *tgbotapi.Message, user *ledger.User) {
	chatID := msg.Chat.ID
	args := msg.CommandArguments()

	switch msg.Command() {
	case "start":
		h.clearState(user.ID)
		h.handleStart(chatID, user)
	case "help":
		h.handleHelp(chatID, user.ID)
	case "live":
		h.handleLive(ctx, chatID, args)
	case "mybets":
		h.handleMyBets(ctx, chatID, user.ID)
	case "balance":
		h.handleBalance(chatID, user)
	case "deposit":
		h.clearState(user.ID)
		h.handleDeposit(chatID)
	case "withdraw":
		h.clearState(user.ID)
		h.handleWithdraw(chatID, user)
	case "tip":
		h.handleTip(ctx, chatID, user)
	case "ai":
		h.handleAI(ctx, chatID, user.ID, args)
	case "cancel":
		h.clearState(user.ID)
		h.reply(chatID, "❌ Cancelled.")

	case "pending":
		h.handlePending(ctx, chatID, user.ID)
	case "approve":
		h.handleResolveCommand(ctx, chatID, user.ID, args, true)
	case "reject":
		h.handleResolveCommand(ctx, chatID, user.ID, args, false)
	case "settle":
		h.handleSettle(ctx, chatID, user.ID, args)
	case "settlematch":
		h.handleSettleMatch(ctx, chatID, user.ID, args)
	case "setwallet":
		h.handleSetWallet(ctx, chatID, user.ID, args)
	case "stats":
		h.handleStats(ctx, chatID, user.ID)
	default:
		h.reply(chatID, "Unknown command. Use /help.")
	}
}

func (h *Handler) handleStateInput(ctx context.Context, msg *tgbotapi.Message, user *ledger.User, s userState) {
	switch s.step {
	case stepStake:
		h.onStake(ctx, msg.Chat.ID, user, s, msg.Text)
	case stepTeam:
		h.reply(msg.Chat.ID, "Pick a team with the buttons above, or /cancel.")
	case stepDepositAmount:
		h.onDepositAmount(ctx, msg.Chat.ID, user.ID, s, msg.Text)
	case stepDepositRef:
		h.onDepositRef(ctx, msg.Chat.ID, user, s, msg.Text)
	case stepWithdrawAmount:
		h.onWithdrawAmount(msg.Chat.ID, user, s, msg.Text)
	case stepWithdrawAddress:
		h.onWithdrawAddress(ctx, msg.Chat.ID, user, s, msg.Text)
	case stepChat:
		h.chat(ctx, msg.Chat.ID, user.ID, msg.Text)
	}
}

func (h *Handler) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) {
	if q.From == nil || q.Message == nil {
		h.answer(q, "")
		return
	}
	user, err := h.register(ctx, q.From)
	if err != nil {
		h.log.Error("register user", zap.Int64("user_id", q.From.ID), zap.Error(err))
		h.answer(q, errorText(err))
		return
	}
	chatID := q.Message.Chat.ID
	action, arg := parseCallback(q.Data)

	switch action {
	case cbSport:
		h.answer(q, "")
		h.handleLive(ctx, chatID, arg)
	case cbMatch:
		h.answer(q, "")
		h.showMatch(ctx, chatID, arg)
	case cbBet:
		h.answer(q, "")
		h.startBet(ctx, chatID, user, arg)
	case cbTeam:
		h.onTeam(ctx, q, user, arg)
	case cbTip:
		h.answer(q, "🤖 Thinking...")
		h.matchTip(ctx, chatID, arg)
	case cbDeposit:
		h.answer(q, "")
		h.startDeposit(ctx, chatID, user.ID, arg)
	case cbWithdraw:
		h.answer(q, "")
		h.startWithdraw(chatID, user, arg)
	case cbApprove, cbReject:
		h.onResolveButton(ctx, q, user.ID, action == cbApprove, arg)
	default:
		h.answer(q, "")
	}
}

func (h *Handler) reply(chatID int64, text string) {
	h.send(chatID, text, nil)
}

func (h *Handler) send(chatID int64, text string, markup any) {
	m := tgbotapi.NewMessage(chatID, text)
	m.ParseMode = tgbotapi.ModeHTML
	m.DisableWebPagePreview = true
	if markup != nil {
		m.ReplyMarkup = markup
	}
	if _, err := h.bot.Send(m); err != nil {
		h.log.Warn("telegram send", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (h *Handler) answer(q *tgbotapi.CallbackQuery, text string) {
	if _, err := h.bot.Request(tgbotapi.NewCallback(q.ID, text)); err != nil {
		h.log.Debug("answer callback", zap.Error(err))
	}
}
