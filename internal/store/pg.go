package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DefaultDocument is the row id used when no store name is configured.
const DefaultDocument = "default"

// PgConn is the subset of *pgxpool.Pool the postgres backends need.
type PgConn interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
}

// PgStore keeps the state as one jsonb document row in booking_store.
type PgStore struct {
	conn PgConn
	name string
}

func NewPgStore(conn PgConn, name string) *PgStore {
	if name == "" {
		name = DefaultDocument
	}
	return &PgStore{conn: conn, name: name}
}

func (p *PgStore) Load(ctx context.Context) (*State, error) {
	var doc []byte

	err := p.conn.QueryRow(ctx, `
		SELECT doc
		FROM booking_store
		WHERE id = $1
	`, p.name).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return NewState(), nil
		}
		return nil, fmt.Errorf("load booking store: %w", err)
	}

	return Decode(doc), nil
}

func (p *PgStore) Save(ctx context.Context, st *State) error {
	doc, err := Encode(st)
	if err != nil {
		return err
	}

	_, err = p.conn.Exec(ctx, `
		INSERT INTO booking_store (id, doc, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (id) DO UPDATE
		SET doc = EXCLUDED.doc,
		    updated_at = now()
	`, p.name, doc)
	if err != nil {
		return fmt.Errorf("save booking store: %w", err)
	}

	return nil
}

func (p *PgStore) Ping(ctx context.Context) error {
	return p.conn.Ping(ctx)
}
