package odds

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/betbot/pkg/contracts/events"
)

// RedisCache guarda o último snapshot de odds por esporte e por partida
type RedisCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisCache(c *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{Client: c, TTL: ttl}
}

func sportKey(sport string) string   { return "odds:sport:" + sport }
func matchKey(matchID string) string { return "odds:match:" + matchID }

// SetSport grava a lista do esporte e cada partida numa pipeline só
func (r *RedisCache) SetSport(ctx context.Context, sport string, updates []events.OddsUpdate) error {
	b, err := json.Marshal(updates)
	if err != nil {
		return err
	}
	pipe := r.Client.TxPipeline()
	pipe.Set(ctx, sportKey(sport), b, r.TTL)
	for _, u := range updates {
		mb, err := json.Marshal(u)
		if err != nil {
			return err
		}
		pipe.Set(ctx, matchKey(u.MatchID), mb, r.TTL)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// Sport devolve found=false quando a chave expirou ou nunca existiu
func (r *RedisCache) Sport(ctx context.Context, sport string) ([]events.OddsUpdate, bool, error) {
	var out []events.OddsUpdate
	ok, err := r.get(ctx, sportKey(sport), &out)
	return out, ok, err
}

func (r *RedisCache) Match(ctx context.Context, matchID string) (*events.OddsUpdate, bool, error) {
	var out events.OddsUpdate
	ok, err := r.get(ctx, matchKey(matchID), &out)
	if !ok || err != nil {
		return nil, ok, err
	}
	return &out, true, nil
}

func (r *RedisCache) get(ctx context.Context, key string, dst any) (bool, error) {
	b, err := r.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(b, dst)
}
