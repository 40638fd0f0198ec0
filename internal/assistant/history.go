package assistant

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// History guarda as últimas N mensagens de cada usuário.
// É um cache: perder o histórico só empobrece a conversa.
type History interface {
	Append(ctx context.Context, userID int64, msgs ...Message) error
	Recent(ctx context.Context, userID int64) ([]Message, error)
	Clear(ctx context.Context, userID int64) error
}

type RedisHistory struct {
	r     *redis.Client
	limit int
	ttl   time.Duration
}

func NewRedisHistory(r *redis.Client, limit int, ttl time.Duration) *RedisHistory {
	return &RedisHistory{r: r, limit: limit, ttl: ttl}
}

func historyKey(userID int64) string { return "ai:history:" + strconv.FormatInt(userID, 10) }

func (h *RedisHistory) Append(ctx context.Context, userID int64, msgs ...Message) error {
	if len(msgs) == 0 {
		return nil
	}
	vals := make([]any, 0, len(msgs))
	for _, m := range msgs {
		b, err := json.Marshal(m)
		if err != nil {
			return err
		}
		vals = append(vals, b)
	}
	key := historyKey(userID)
	pipe := h.r.TxPipeline()
	pipe.RPush(ctx, key, vals...)
	pipe.LTrim(ctx, key, int64(-h.limit), -1)
	pipe.Expire(ctx, key, h.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (h *RedisHistory) Recent(ctx context.Context, userID int64) ([]Message, error) {
	raw, err := h.r.LRange(ctx, historyKey(userID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]Message, 0, len(raw))
	for _, s := range raw {
		var m Message
		if err := json.Unmarshal([]byte(s), &m); err != nil {
			continue // entrada corrompida não derruba a conversa
		}
		out = append(out, m)
	}
	return out, nil
}

func (h *RedisHistory) Clear(ctx context.Context, userID int64) error {
	return h.r.Del(ctx, historyKey(userID)).Err()
}

// MemoryHistory é o equivalente em processo, sem TTL
type MemoryHistory struct {
	mu    sync.Mutex
	limit int
	byID  map[int64][]Message
}

func NewMemoryHistory(limit int) *MemoryHistory {
	return &MemoryHistory{limit: limit, byID: map[int64][]Message{}}
}

func (h *MemoryHistory) Append(_ context.Context, userID int64, msgs ...Message) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	list := append(h.byID[userID], msgs...)
	if len(list) > h.limit {
		list = append([]Message(nil), list[len(list)-h.limit:]...)
	}
	h.byID[userID] = list
	return nil
}

func (h *MemoryHistory) Recent(_ context.Context, userID int64) ([]Message, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Message(nil), h.byID[userID]...), nil
}

func (h *MemoryHistory) Clear(_ context.Context, userID int64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.byID, userID)
	return nil
}
