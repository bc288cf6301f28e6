package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// Connect opens the PostgreSQL pool. Idle connections are not kept so a
// serverless database can suspend between requests.
func Connect(ctx context.Context, url string, logger *zap.Logger) (*sql.DB, error) {
	if url == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable not set")
	}

	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		logger.Warn("Database ping failed, proceeding carefully", zap.Error(err))
	}

	db.SetMaxIdleConns(0)
	db.SetMaxOpenConns(10)

	logger.Info("Connected to PostgreSQL")
	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id         UUID PRIMARY KEY,
	email      TEXT NOT NULL UNIQUE,
	name       TEXT NOT NULL DEFAULT '',
	role       TEXT NOT NULL DEFAULT 'USER'
);

CREATE TABLE IF NOT EXISTS centers (
	id         UUID PRIMARY KEY,
	slug       TEXT NOT NULL UNIQUE,
	name       TEXT NOT NULL,
	address    TEXT NOT NULL DEFAULT '',
	phone      TEXT NOT NULL DEFAULT '',
	website    TEXT NOT NULL DEFAULT '',
	state      TEXT NOT NULL,
	city       TEXT NOT NULL DEFAULT '',
	units      TEXT[] NOT NULL DEFAULT '{}',
	latitude   DOUBLE PRECISION,
	longitude  DOUBLE PRECISION,
	geo_status TEXT NOT NULL DEFAULT 'PENDING',
	owner_id   UUID REFERENCES users(id) ON DELETE SET NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS centers_state_city_idx ON centers (state, city);
CREATE INDEX IF NOT EXISTS centers_owner_idx ON centers (owner_id);
`

// Migrate creates the tables used by the importer and the API.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
