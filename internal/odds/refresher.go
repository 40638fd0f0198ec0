package odds

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/betbot/pkg/contracts/events"
)

type Source interface {
	Odds(ctx context.Context, sport string) ([]events.OddsUpdate, error)
}

type Cache interface {
	SetSport(ctx context.Context, sport string, updates []events.OddsUpdate) error
	Sport(ctx context.Context, sport string) ([]events.OddsUpdate, bool, error)
	Match(ctx context.Context, matchID string) (*events.OddsUpdate, bool, error)
}

type Broadcaster interface {
	Broadcast(ctx context.Context, u events.OddsUpdate) error
}

// MatchWriter persiste o snapshot informativo da partida (tabela matches)
type MatchWriter interface {
	SaveMatch(ctx context.Context, u events.OddsUpdate) error
}

// Refresher puxa odds do provedor em intervalo fixo, grava no cache,
// persiste as partidas e avisa os clientes via pub/sub
// Callbacks de métricas são opcionais
type Refresher struct {
	Log         *zap.Logger
	Source      Source
	Cache       Cache
	Matches     MatchWriter // opcional
	Broadcaster Broadcaster // opcional
	Sports      []string
	Interval    time.Duration

	OnRefresh func(result string) // "ok" | "error"
	OnError   func(stage string)
}

// Run faz um refresh imediato e depois a cada Interval até ctx acabar
func (r *Refresher) Run(ctx context.Context) error {
	r.RefreshAll(ctx)

	t := time.NewTicker(r.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			r.RefreshAll(ctx)
		}
	}
}

// RefreshAll atualiza cada esporte; falha num esporte não bloqueia os outros
func (r *Refresher) RefreshAll(ctx context.Context) {
	for _, sport := range r.Sports {
		if err := r.Refresh(ctx, sport); err != nil {
			r.Log.Warn("odds refresh failed", zap.String("sport", sport), zap.Error(err))
			r.count("error")
			continue
		}
		r.count("ok")
	}
}

func (r *Refresher) Refresh(ctx context.Context, sport string) error {
	updates, err := r.Source.Odds(ctx, sport)
	if err != nil {
		r.stage("fetch")
		return err
	}
	if len(updates) > MaxMatches {
		updates = updates[:MaxMatches]
	}

	if err := r.Cache.SetSport(ctx, sport, updates); err != nil {
		r.stage("cache")
		return err
	}

	for _, u := range updates {
		if r.Matches != nil {
			if err := r.Matches.SaveMatch(ctx, u); err != nil {
				// cache já está atualizado; segue sem persistir
				r.Log.Warn("match upsert failed", zap.String("match_id", u.MatchID), zap.Error(err))
				r.stage("db_upsert")
			}
		}
		if r.Broadcaster != nil {
			if err := r.Broadcaster.Broadcast(ctx, u); err != nil {
				r.Log.Warn("odds broadcast failed", zap.String("match_id", u.MatchID), zap.Error(err))
				r.stage("broadcast")
			}
		}
	}

	r.Log.Debug("odds refreshed", zap.String("sport", sport), zap.Int("matches", len(updates)))
	return nil
}

func (r *Refresher) count(result string) {
	if r.OnRefresh != nil {
		r.OnRefresh(result)
	}
}

func (r *Refresher) stage(s string) {
	if r.OnError != nil {
		r.OnError(s)
	}
}
