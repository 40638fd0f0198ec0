package postgres

import (
	"context"
	"time"

	"github.com/radieske/betbot/pkg/contracts/events"
)

// Match é o snapshot informativo de uma partida gravado pelo odds-worker
type Match struct {
	ID           string    `json:"id"`
	Sport        string    `json:"sport"`
	HomeTeam     string    `json:"home_team"`
	AwayTeam     string    `json:"away_team"`
	CommenceTime time.Time `json:"commence_time"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UpsertMatch insere ou atualiza a partida por id
func (s *Store) UpsertMatch(ctx context.Context, m Match) error {
	const q = `
		INSERT INTO matches (id, sport, home_team, away_team, commence_time, updated_at)
		VALUES ($1,$2,$3,$4,$5,NOW())
		ON CONFLICT (id) DO UPDATE SET
		  sport         = EXCLUDED.sport,
		  home_team     = EXCLUDED.home_team,
		  away_team     = EXCLUDED.away_team,
		  commence_time = EXCLUDED.commence_time,
		  updated_at    = EXCLUDED.updated_at
	`
	_, err := s.db.ExecContext(ctx, q, m.ID, m.Sport, m.HomeTeam, m.AwayTeam, m.CommenceTime)
	return err
}

// SaveMatch grava a partida de um OddsUpdate vindo do refresher
func (s *Store) SaveMatch(ctx context.Context, u events.OddsUpdate) error {
	return s.UpsertMatch(ctx, Match{
		ID:           u.MatchID,
		Sport:        u.Sport,
		HomeTeam:     u.HomeTeam,
		AwayTeam:     u.AwayTeam,
		CommenceTime: u.CommenceTime,
	})
}

// Matches lista as partidas que começam a partir de since
func (s *Store) Matches(ctx context.Context, since time.Time, limit int) ([]Match, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sport, home_team, away_team, commence_time, updated_at
		FROM matches
		WHERE commence_time >= $1
		ORDER BY commence_time
		LIMIT $2`, since, limitOrAll(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Match
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.ID, &m.Sport, &m.HomeTeam, &m.AwayTeam, &m.CommenceTime, &m.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
