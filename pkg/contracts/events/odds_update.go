package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// Outcome é uma seleção de mercado em odds americanas (ex: +150, -110)
type Outcome struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Point *float64        `json:"point,omitempty"` // spreads/totals
}

type Market struct {
	Key      string    `json:"key"` // h2h | spreads | totals
	Outcomes []Outcome `json:"outcomes"`
}

// OddsUpdate é publicado no canal Redis "odds_updates_broadcast" a cada refresh
type OddsUpdate struct {
	MatchID      string    `json:"match_id"`
	Sport        string    `json:"sport"`
	HomeTeam     string    `json:"home_team"`
	AwayTeam     string    `json:"away_team"`
	CommenceTime time.Time `json:"commence_time"`
	Bookmaker    string    `json:"bookmaker"`
	Markets      []Market  `json:"markets"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Moneyline retorna as odds h2h, se o bookmaker ofereceu
func (u OddsUpdate) Moneyline() []Outcome {
	for _, m := range u.Markets {
		if m.Key == "h2h" {
			return m.Outcomes
		}
	}
	return nil
}
