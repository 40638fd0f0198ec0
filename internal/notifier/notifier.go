package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/radieske/betbot/internal/shared/kafka"
	"github.com/radieske/betbot/pkg/contracts/events"
)

// Source é o lado de leitura do consumer group (*kafka.Reader)
type Source interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// DLQ recebe a mensagem original quando o envio esgota as tentativas (*kafka.Writer)
type DLQ interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Sender é o pedaço do *tgbotapi.BotAPI usado aqui
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier consome ledger_events e avisa o usuário no Telegram
// Callbacks de métricas são opcionais
type Notifier struct {
	Log     *zap.Logger
	Reader  Source
	Sender  Sender
	DLQ     DLQ // opcional
	Retries int
	Backoff time.Duration

	OnSent  func(result string) // "sent" | "skipped" | "dlq"
	OnError func(stage string)
}

// Run inicia o loop de consumo até ctx ser cancelado
func (n *Notifier) Run(ctx context.Context) error {
	for {
		m, err := n.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			n.Log.Warn("kafka read failed", zap.Error(err))
			n.stage("read")
			if wait(ctx, 500*time.Millisecond) != nil {
				return ctx.Err()
			}
			continue
		}
		if err := n.Handle(ctx, m); err != nil {
			n.Log.Error("notify failed", zap.ByteString("key", m.Key), zap.Error(err))
		}
	}
}

// Handle processa uma mensagem. Mensagem inválida é descartada;
// falha de envio vai para a DLQ depois das tentativas
func (n *Notifier) Handle(ctx context.Context, m kafka.Message) error {
	var e events.LedgerEvent
	if err := json.Unmarshal(m.Value, &e); err != nil {
		n.Log.Warn("invalid message", zap.Error(err))
		n.stage("decode")
		return nil
	}

	text := Format(e)
	if text == "" || e.UserID == 0 {
		n.result("skipped")
		return nil
	}

	msg := tgbotapi.NewMessage(e.UserID, text)
	msg.ParseMode = tgbotapi.ModeHTML

	err := n.send(ctx, msg)
	if err == nil {
		n.Log.Debug("notification sent", zap.String("type", e.Type), zap.Int64("user_id", e.UserID))
		n.result("sent")
		return nil
	}

	n.stage("send")
	if n.DLQ != nil {
		dlq := kafka.Message{Key: m.Key, Value: m.Value, Time: time.Now()}
		// no shutdown a mensagem ainda precisa chegar na DLQ
		dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if derr := n.DLQ.WriteMessages(dctx, dlq); derr != nil {
			n.stage("dlq")
			return errors.Join(err, fmt.Errorf("write dlq: %w", derr))
		}
		n.result("dlq")
	}
	return fmt.Errorf("send %s to %d: %w", e.Type, e.UserID, err)
}

// send tenta 1 + Retries vezes com backoff linear; ctx cancelado interrompe a espera
func (n *Notifier) send(ctx context.Context, msg tgbotapi.MessageConfig) error {
	_, err := n.Sender.Send(msg)
	for i := 0; err != nil && i < n.Retries; i++ {
		if werr := wait(ctx, n.Backoff*time.Duration(i+1)); werr != nil {
			return errors.Join(err, werr)
		}
		_, err = n.Sender.Send(msg)
	}
	return err
}

func wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (n *Notifier) result(r string) {
	if n.OnSent != nil {
		n.OnSent(r)
	}
}

func (n *Notifier) stage(s string) {
	if n.OnError != nil {
		n.OnError(s)
	}
}
