// Package persistence abstracts the storage backend behind a single
// transactional contract.
//
// Connections and transactions are first-class values shared by every
// stateful component within one atomic step. Repositories are written
// against the abstract Transaction but must recover the concrete backend
// they were built for; a store handed a transaction from the wrong backend
// fails fast with ErrWrongBackend.
package persistence

import (
	"context"
	"errors"
)

var (
	// ErrWrongBackend is returned by a store handed a connection or
	// transaction from a backend it was not built for.
	ErrWrongBackend = errors.New("wrong persistence backend")

	// ErrRollbackUnsupported is returned by the in-memory backend, which
	// cannot undo writes. Callers must design their flows to commit or
	// crash.
	ErrRollbackUnsupported = errors.New("rollback is not supported by the in-memory backend")
)

// Persistence hands out connections to a storage backend.
type Persistence interface {
	// GetConnection acquires a connection. Cheap; may fail when the
	// backend's pool is exhausted or unreachable.
	GetConnection(ctx context.Context) (Connection, error)
}

// Connection is a single connection to the backend. Concurrent
// transactions on one connection are disallowed.
type Connection interface {
	// StartTransaction begins a transaction scoped to this connection.
	StartTransaction(ctx context.Context) (Transaction, error)

	// Close releases the connection back to the backend.
	Close()
}

// Transaction either commits or rolls back; all held resources are
// released on every exit path. Commit and Rollback are each called at most
// once, and calling the other afterwards is a no-op.
type Transaction interface {
	// Commit publishes all writes atomically.
	Commit(ctx context.Context) error

	// Rollback discards writes. The in-memory backend reports
	// ErrRollbackUnsupported instead of silently succeeding, but still
	// releases its lock.
	Rollback(ctx context.Context) error
}
