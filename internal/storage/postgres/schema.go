package postgres

import (
	"context"
	"fmt"
)

// schema é idempotente; roda em todo start
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id          BIGINT PRIMARY KEY,
	username    TEXT NOT NULL DEFAULT '',
	first_name  TEXT NOT NULL DEFAULT '',
	last_name   TEXT NOT NULL DEFAULT '',
	balance     NUMERIC(20,2) NOT NULL DEFAULT 0 CHECK (balance >= 0),
	total_bet   BIGINT NOT NULL DEFAULT 0,
	total_win   BIGINT NOT NULL DEFAULT 0,
	total_loss  BIGINT NOT NULL DEFAULT 0,
	is_verified BOOLEAN NOT NULL DEFAULT FALSE,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS bets (
	id            BIGSERIAL PRIMARY KEY,
	user_id       BIGINT NOT NULL REFERENCES users(id),
	match_id      TEXT NOT NULL,
	team          TEXT NOT NULL,
	odds          NUMERIC(10,2) NOT NULL,
	amount        NUMERIC(20,2) NOT NULL CHECK (amount > 0),
	potential_win NUMERIC(20,2) NOT NULL,
	status        TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending','resolved')),
	result        TEXT NOT NULL DEFAULT 'waiting' CHECK (result IN ('waiting','won','lost')),
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	resolved_at   TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_bets_user ON bets(user_id, id DESC);
CREATE INDEX IF NOT EXISTS idx_bets_match_pending ON bets(match_id) WHERE status = 'pending';

CREATE TABLE IF NOT EXISTS transactions (
	id          BIGSERIAL PRIMARY KEY,
	user_id     BIGINT NOT NULL REFERENCES users(id),
	type        TEXT NOT NULL CHECK (type IN ('deposit','withdraw')),
	amount      NUMERIC(20,2) NOT NULL CHECK (amount > 0),
	method      TEXT NOT NULL,
	address     TEXT NOT NULL DEFAULT '',
	reference   TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending','approved','rejected')),
	admin_id    BIGINT,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	resolved_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_transactions_pending ON transactions(id) WHERE status = 'pending';
CREATE INDEX IF NOT EXISTS idx_transactions_user ON transactions(user_id, id DESC);

CREATE TABLE IF NOT EXISTS wallet_addresses (
	asset      TEXT PRIMARY KEY,
	address    TEXT NOT NULL,
	updated_by BIGINT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS audit_log (
	id         BIGSERIAL PRIMARY KEY,
	admin_id   BIGINT NOT NULL,
	action     TEXT NOT NULL,
	details    TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS matches (
	id            TEXT PRIMARY KEY,
	sport         TEXT NOT NULL,
	home_team     TEXT NOT NULL,
	away_team     TEXT NOT NULL,
	commence_time TIMESTAMPTZ NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// Migrate cria as tabelas que ainda não existem
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}
