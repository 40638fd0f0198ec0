package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/radieske/betbot/internal/ledger"
	"github.com/radieske/betbot/pkg/contracts/events"
)

const (
	tipTokens     = 500
	chatTokens    = 300
	analyzeTokens = 400
)

const (
	tipSystem     = "You are a helpful betting consultant who promotes responsible gambling. Answer in English, briefly."
	chatSystem    = "You are a friendly sports betting bot. Help users with matches, odds and bot usage, and always promote responsible betting. Keep answers short."
	analyzeSystem = "You are a betting analyst who promotes responsible gaming. Be concise and practical."

	chatFallback    = "I can't answer right now, but you can still place bets and check your balance. See /help."
	analyzeFallback = "Betting pattern analysis is not available right now. Try again later."
)

// Hooks para métricas (opcional)
type Hooks struct {
	OnCall func(kind, result string) // kind: tip|chat|analyze, result: ok|error|fallback
}

// Assistant gera dicas e conversa. Nunca toca no ledger:
// em qualquer falha devolve um texto padrão.
type Assistant struct {
	log     *zap.Logger
	model   Completer
	history History
	Hooks   Hooks
}

func New(log *zap.Logger, model Completer, history History) *Assistant {
	return &Assistant{log: log, model: model, history: history}
}

// Tip sugere uma aposta para a partida
func (a *Assistant) Tip(ctx context.Context, m events.OddsUpdate) string {
	var odds []string
	for _, o := range m.Moneyline() {
		odds = append(odds, fmt.Sprintf("%s %s", o.Name, signed(o.Price.String())))
	}
	prompt := fmt.Sprintf(`Analyze this match and give a smart betting suggestion.

Home team: %s
Away team: %s
Kick-off: %s
Moneyline (American odds): %s

Include the most likely outcome, a suggested bet and stake size, and a short risk note.`,
		m.HomeTeam, m.AwayTeam, m.CommenceTime.UTC().Format("2006-01-02 15:04 MST"), strings.Join(odds, ", "))

	out, err := a.model.Complete(ctx, []Message{
		{Role: "system", Content: tipSystem},
		{Role: "user", Content: prompt},
	}, tipTokens)
	if err != nil {
		a.failed("tip", err)
		return defaultTip(m)
	}
	a.called("tip", "ok")
	return out
}

// Chat responde com o histórico recente do usuário como contexto
func (a *Assistant) Chat(ctx context.Context, userID int64, text string) string {
	prev, err := a.history.Recent(ctx, userID)
	if err != nil {
		a.log.Warn("ai history read", zap.Int64("user_id", userID), zap.Error(err))
	}
	user := Message{Role: "user", Content: text}
	msgs := append([]Message{{Role: "system", Content: chatSystem}}, prev...)
	msgs = append(msgs, user)

	out, err := a.model.Complete(ctx, msgs, chatTokens)
	if err != nil {
		a.failed("chat", err)
		return chatFallback
	}
	if err := a.history.Append(ctx, userID, user, Message{Role: "assistant", Content: out}); err != nil {
		a.log.Warn("ai history write", zap.Int64("user_id", userID), zap.Error(err))
	}
	a.called("chat", "ok")
	return out
}

// Analyze comenta o histórico de apostas do usuário
func (a *Assistant) Analyze(ctx context.Context, u *ledger.User) string {
	prompt := fmt.Sprintf(`Analyze this user's betting pattern and suggest improvements:

- Total bets: %d
- Total wins: %d
- Total losses: %d
- Current balance: %s`, u.TotalBet, u.TotalWin, u.TotalLoss, u.Balance.StringFixed(2))

	out, err := a.model.Complete(ctx, []Message{
		{Role: "system", Content: analyzeSystem},
		{Role: "user", Content: prompt},
	}, analyzeTokens)
	if err != nil {
		a.failed("analyze", err)
		return analyzeFallback
	}
	a.called("analyze", "ok")
	return out
}

func (a *Assistant) Reset(ctx context.Context, userID int64) error {
	return a.history.Clear(ctx, userID)
}

func (a *Assistant) failed(kind string, err error) {
	if errors.Is(err, ErrDisabled) {
		a.called(kind, "fallback")
		return
	}
	a.log.Warn("ai call failed", zap.String("kind", kind), zap.Error(err))
	a.called(kind, "error")
}

func (a *Assistant) called(kind, result string) {
	if a.Hooks.OnCall != nil {
		a.Hooks.OnCall(kind, result)
	}
}

func defaultTip(m events.OddsUpdate) string {
	return fmt.Sprintf(`AI tips are not available right now.

Match: %s vs %s

General advice:
• Keep your stakes small
• Only bet what you can afford to lose
• Stick to a long-term strategy`, m.HomeTeam, m.AwayTeam)
}

func signed(s string) string {
	if strings.HasPrefix(s, "-") {
		return s
	}
	return "+" + s
}
