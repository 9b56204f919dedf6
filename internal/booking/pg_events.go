package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PgEventLog appends booking events to the booking_events table.
type PgEventLog struct {
	conn execer
}

func NewPgEventLog(conn execer) *PgEventLog {
	return &PgEventLog{conn: conn}
}

func (l *PgEventLog) InsertEvent(ctx context.Context, ev Event) error {
	_, err := l.conn.Exec(ctx, `
		INSERT INTO booking_events (event_type, confirmation, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.Confirmation, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert booking event: %w", err)
	}

	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
