package odds

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/betbot/pkg/contracts/events"
)

var (
	ErrMatchNotFound     = errors.New("match not found")
	ErrSelectionNotFound = errors.New("selection not offered")
)

// Provider é o lado de leitura usado pelo bot: cache primeiro, API como fallback
type Provider struct {
	log    *zap.Logger
	cache  Cache
	source Source // opcional; nil = somente cache
}

func NewProvider(log *zap.Logger, cache Cache, source Source) *Provider {
	return &Provider{log: log, cache: cache, source: source}
}

// Matches lista até MaxMatches partidas do esporte
func (p *Provider) Matches(ctx context.Context, sport string) ([]events.OddsUpdate, error) {
	list, ok, err := p.cache.Sport(ctx, sport)
	if err != nil {
		p.log.Warn("odds cache read", zap.String("sport", sport), zap.Error(err))
	}
	if ok {
		return list, nil
	}
	if p.source == nil {
		return nil, nil
	}

	list, err = p.source.Odds(ctx, sport)
	if err != nil {
		return nil, err
	}
	if len(list) > MaxMatches {
		list = list[:MaxMatches]
	}
	if err := p.cache.SetSport(ctx, sport, list); err != nil {
		p.log.Warn("odds cache write", zap.String("sport", sport), zap.Error(err))
	}
	return list, nil
}

func (p *Provider) Match(ctx context.Context, matchID string) (*events.OddsUpdate, error) {
	m, ok, err := p.cache.Match(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrMatchNotFound
	}
	return m, nil
}

// Price devolve a odd moneyline atual de team na partida
// É essa odd que fica congelada na aposta
func (p *Provider) Price(ctx context.Context, matchID, team string) (decimal.Decimal, error) {
	m, err := p.Match(ctx, matchID)
	if err != nil {
		return decimal.Zero, err
	}
	for _, o := range m.Moneyline() {
		if strings.EqualFold(o.Name, team) {
			return o.Price, nil
		}
	}
	return decimal.Zero, ErrSelectionNotFound
}
