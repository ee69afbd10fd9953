package eventlog

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/snipelabs/sniper/internal/event"
	"github.com/snipelabs/sniper/internal/persistence"
)

// pollInterval is how often a blocking read re-checks the events table.
// Each poll runs as its own statement so it sees freshly committed rows.
const pollInterval = 100 * time.Millisecond

// PostgresLog is the durable backend: an append-only events table with
// dense offsets assigned under an exclusive table lock.
type PostgresLog struct{}

// NewPostgresLog creates the PostgreSQL-backed log. State lives entirely
// in the database; the value itself is stateless.
func NewPostgresLog() *PostgresLog {
	return &PostgresLog{}
}

// StartOffset implements Reader. The events table starts at zero.
func (l *PostgresLog) StartOffset(ctx context.Context) (Offset, error) {
	return 0, nil
}

// Read implements Reader.
func (l *PostgresLog) Read(ctx context.Context, conn persistence.Connection, offset Offset, limit int, timeout time.Duration) (Batch, error) {
	pgConn, err := persistence.AsPostgresConn(conn)
	if err != nil {
		return Batch{}, err
	}

	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}

	for {
		batch, err := l.readSuffix(ctx, pgConn, offset, limit)
		if err != nil {
			return Batch{}, err
		}
		if len(batch.Events) > 0 || timeout == 0 {
			return batch, nil
		}
		if timeout > 0 && !time.Now().Before(deadline) {
			return batch, nil
		}

		select {
		case <-time.After(pollInterval):
		case <-ctx.Done():
			return batch, nil
		}
	}
}

type pgQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (l *PostgresLog) readSuffix(ctx context.Context, q pgQuerier, offset Offset, limit int) (Batch, error) {
	rows, err := q.Query(ctx, `
		SELECT event_offset, payload
		FROM events
		WHERE event_offset >= $1
		ORDER BY event_offset ASC
		LIMIT $2
	`, int64(offset), limit)
	if err != nil {
		return Batch{}, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	batch := Batch{NextOffset: offset}
	for rows.Next() {
		var (
			eventOffset int64
			payload     []byte
		)
		if err := rows.Scan(&eventOffset, &payload); err != nil {
			return Batch{}, fmt.Errorf("failed to scan event: %w", err)
		}
		e, err := event.Unmarshal(payload)
		if err != nil {
			return Batch{}, err
		}
		batch.Events = append(batch.Events, LogEvent{Offset: Offset(eventOffset), Event: e})
	}
	if err := rows.Err(); err != nil {
		return Batch{}, fmt.Errorf("failed to read events: %w", err)
	}

	batch.NextOffset = offset + Offset(len(batch.Events))
	return batch, nil
}

// Write implements Writer with a transaction of its own.
func (l *PostgresLog) Write(ctx context.Context, conn persistence.Connection, events []event.Event) (Offset, error) {
	tx, err := conn.StartTransaction(ctx)
	if err != nil {
		return 0, err
	}
	next, err := l.WriteTx(ctx, tx, events)
	if err != nil {
		_ = tx.Rollback(ctx)
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return next, nil
}

// WriteTx implements Writer. The exclusive table lock keeps offsets dense
// under concurrent writers; appends from distinct writers are linearized
// by commit order.
func (l *PostgresLog) WriteTx(ctx context.Context, tx persistence.Transaction, events []event.Event) (Offset, error) {
	pgTx, err := persistence.AsPostgres(tx)
	if err != nil {
		return 0, err
	}

	if len(events) == 0 {
		var tail int64
		if err := pgTx.QueryRow(ctx, `SELECT COALESCE(MAX(event_offset) + 1, 0) FROM events`).Scan(&tail); err != nil {
			return 0, fmt.Errorf("failed to read log tail: %w", err)
		}
		return Offset(tail), nil
	}

	if _, err := pgTx.Exec(ctx, `LOCK TABLE events IN EXCLUSIVE MODE`); err != nil {
		return 0, fmt.Errorf("failed to lock events table: %w", err)
	}

	var tail int64
	if err := pgTx.QueryRow(ctx, `SELECT COALESCE(MAX(event_offset) + 1, 0) FROM events`).Scan(&tail); err != nil {
		return 0, fmt.Errorf("failed to read log tail: %w", err)
	}

	for i, e := range events {
		payload, err := event.Marshal(e)
		if err != nil {
			return 0, err
		}
		if _, err := pgTx.Exec(ctx, `
			INSERT INTO events (event_offset, payload)
			VALUES ($1, $2)
		`, tail+int64(i), payload); err != nil {
			return 0, fmt.Errorf("failed to insert event: %w", err)
		}
	}

	return Offset(tail) + Offset(len(events)), nil
}
