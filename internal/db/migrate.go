package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS booking_store (
		id         TEXT PRIMARY KEY,
		doc        JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS booking_events (
		id           BIGSERIAL PRIMARY KEY,
		event_type   TEXT NOT NULL,
		confirmation TEXT NOT NULL,
		payload      JSONB,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS booking_events_confirmation_idx
		ON booking_events (confirmation, created_at)`,
}

// Migrate creates the booking tables when they do not exist yet.
func Migrate(ctx context.Context, conn execer) error {
	for i, stmt := range schema {
		if _, err := conn.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
