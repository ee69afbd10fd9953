package progress

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/snipelabs/sniper/internal/eventlog"
	"github.com/snipelabs/sniper/internal/persistence"
)

// PostgresTracker keeps cursors in the progress table.
type PostgresTracker struct{}

// NewPostgresTracker creates the PostgreSQL-backed tracker.
func NewPostgresTracker() *PostgresTracker {
	return &PostgresTracker{}
}

const loadQuery = `SELECT next_offset FROM progress WHERE service_id = $1`

// Load implements Tracker.
func (t *PostgresTracker) Load(ctx context.Context, conn persistence.Connection, serviceID string) (*eventlog.Offset, error) {
	pgConn, err := persistence.AsPostgresConn(conn)
	if err != nil {
		return nil, err
	}
	return scanOffset(pgConn.QueryRow(ctx, loadQuery, serviceID))
}

// LoadTx implements Tracker.
func (t *PostgresTracker) LoadTx(ctx context.Context, tx persistence.Transaction, serviceID string) (*eventlog.Offset, error) {
	pgTx, err := persistence.AsPostgres(tx)
	if err != nil {
		return nil, err
	}
	return scanOffset(pgTx.QueryRow(ctx, loadQuery, serviceID))
}

// StoreTx implements Tracker.
func (t *PostgresTracker) StoreTx(ctx context.Context, tx persistence.Transaction, serviceID string, offset eventlog.Offset) error {
	pgTx, err := persistence.AsPostgres(tx)
	if err != nil {
		return err
	}
	_, err = pgTx.Exec(ctx, `
		INSERT INTO progress (service_id, next_offset)
		VALUES ($1, $2)
		ON CONFLICT (service_id) DO UPDATE SET next_offset = EXCLUDED.next_offset
	`, serviceID, int64(offset))
	if err != nil {
		return fmt.Errorf("failed to store progress for %q: %w", serviceID, err)
	}
	return nil
}

func scanOffset(row pgx.Row) (*eventlog.Offset, error) {
	var next int64
	if err := row.Scan(&next); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load progress: %w", err)
	}
	offset := eventlog.Offset(next)
	return &offset, nil
}
