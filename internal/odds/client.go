package odds

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/radieske/betbot/pkg/contracts/events"
)

// MaxMatches limita quantas partidas por esporte vão para o bot
const MaxMatches = 8

// Client fala com The Odds API (v4), sempre em odds americanas
type Client struct {
	BaseURL string
	APIKey  string
	Regions string
	Markets string
	HTTP    *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Regions: "us",
		Markets: "h2h,spreads,totals",
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

// formato de resposta de /sports/{sport}/odds
type apiEvent struct {
	ID           string         `json:"id"`
	SportKey     string         `json:"sport_key"`
	CommenceTime time.Time      `json:"commence_time"`
	HomeTeam     string         `json:"home_team"`
	AwayTeam     string         `json:"away_team"`
	Bookmakers   []apiBookmaker `json:"bookmakers"`
}

type apiBookmaker struct {
	Key     string      `json:"key"`
	Title   string      `json:"title"`
	Markets []apiMarket `json:"markets"`
}

type apiMarket struct {
	Key      string       `json:"key"`
	Outcomes []apiOutcome `json:"outcomes"`
}

type apiOutcome struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Point *float64        `json:"point,omitempty"`
}

type Sport struct {
	Key    string `json:"key"`
	Group  string `json:"group"`
	Title  string `json:"title"`
	Active bool   `json:"active"`
}

// Odds busca as partidas com odds de um esporte. Usa o primeiro bookmaker.
func (c *Client) Odds(ctx context.Context, sport string) ([]events.OddsUpdate, error) {
	q := url.Values{}
	q.Set("apiKey", c.APIKey)
	q.Set("regions", c.Regions)
	q.Set("markets", c.Markets)
	q.Set("oddsFormat", "american")

	var raw []apiEvent
	if err := c.get(ctx, "/sports/"+url.PathEscape(sport)+"/odds", q, &raw); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	out := make([]events.OddsUpdate, 0, len(raw))
	for _, ev := range raw {
		u := events.OddsUpdate{
			MatchID:      ev.ID,
			Sport:        sport,
			HomeTeam:     ev.HomeTeam,
			AwayTeam:     ev.AwayTeam,
			CommenceTime: ev.CommenceTime,
			UpdatedAt:    now,
		}
		if len(ev.Bookmakers) > 0 {
			bm := ev.Bookmakers[0]
			u.Bookmaker = bm.Title
			for _, m := range bm.Markets {
				mk := events.Market{Key: m.Key}
				for _, o := range m.Outcomes {
					mk.Outcomes = append(mk.Outcomes, events.Outcome{Name: o.Name, Price: o.Price, Point: o.Point})
				}
				u.Markets = append(u.Markets, mk)
			}
		}
		out = append(out, u)
	}
	return out, nil
}

// Sports lista os esportes ativos no provedor
func (c *Client) Sports(ctx context.Context) ([]Sport, error) {
	q := url.Values{}
	q.Set("apiKey", c.APIKey)
	var out []Sport
	if err := c.get(ctx, "/sports", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	res, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("odds api %s: %w", path, err)
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return fmt.Errorf("odds api %s: http %d", path, res.StatusCode)
	}
	if err := json.NewDecoder(res.Body).Decode(dst); err != nil {
		return fmt.Errorf("odds api %s: decode: %w", path, err)
	}
	return nil
}
