package persistence

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres is the PostgreSQL backend on a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates the PostgreSQL backend.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// GetConnection acquires a pooled connection.
func (p *Postgres) GetConnection(ctx context.Context) (Connection, error) {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	return &PostgresConnection{conn: conn}, nil
}

// PostgresConnection wraps a pooled pgx connection.
type PostgresConnection struct {
	conn *pgxpool.Conn
}

// StartTransaction begins a serializable transaction. The log and the
// cursor tables require serializable or stronger commit semantics.
func (c *PostgresConnection) StartTransaction(ctx context.Context) (Transaction, error) {
	tx, err := c.conn.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &PostgresTransaction{tx: tx}, nil
}

// Close releases the connection back to the pool.
func (c *PostgresConnection) Close() {
	c.conn.Release()
}

// PostgresTransaction wraps a pgx transaction.
type PostgresTransaction struct {
	tx   pgx.Tx
	done bool
}

// Commit implements Transaction.
func (t *PostgresTransaction) Commit(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	if err := t.tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Rollback implements Transaction.
func (t *PostgresTransaction) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	if err := t.tx.Rollback(ctx); err != nil {
		return fmt.Errorf("failed to roll back transaction: %w", err)
	}
	return nil
}

// AsPostgres recovers the pgx transaction behind the abstract one. Stores
// built for the PostgreSQL backend call this at their entry point.
func AsPostgres(tx Transaction) (pgx.Tx, error) {
	pt, ok := tx.(*PostgresTransaction)
	if !ok {
		return nil, ErrWrongBackend
	}
	return pt.tx, nil
}

// AsPostgresConn recovers the pooled pgx connection behind the abstract
// one, for reads that run outside a caller-owned transaction.
func AsPostgresConn(conn Connection) (*pgxpool.Conn, error) {
	pc, ok := conn.(*PostgresConnection)
	if !ok {
		return nil, ErrWrongBackend
	}
	return pc.conn, nil
}
