package producer

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/radieske/betbot/internal/shared/kafka"
	"github.com/radieske/betbot/pkg/contracts/events"
)

// Publisher é o que o core precisa para anunciar mudanças já commitadas
type Publisher interface {
	Publish(ctx context.Context, e events.LedgerEvent) error
}

// KafkaPublisher grava LedgerEvent no tópico de ledger, com chave = user_id
type KafkaPublisher struct {
	Writer *kafka.Writer
}

func NewKafkaPublisher(w *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{Writer: w}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e events.LedgerEvent) error {
	stamp(&e)
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", e.Type, err)
	}
	return kafka.WriteJSON(ctx, p.Writer, strconv.FormatInt(e.UserID, 10), b)
}

// Nop descarta eventos; usado com STORAGE=memory e em testes
type Nop struct{}

func (Nop) Publish(context.Context, events.LedgerEvent) error { return nil }

// stamp preenche id e horário quando quem publica não informou
func stamp(e *events.LedgerEvent) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
}
