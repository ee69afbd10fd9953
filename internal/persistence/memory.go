package persistence

import (
	"context"
	"sync"
)

// Memory is the in-memory backend. A single process-wide mutex gates
// transactions: starting one acquires the lock, commit or rollback
// releases it. Every in-memory transaction is therefore globally
// serializable, which is the entire reason this backend exists (test
// determinism).
type Memory struct {
	mu sync.Mutex
}

// NewMemory creates the in-memory backend.
func NewMemory() *Memory {
	return &Memory{}
}

// GetConnection implements Persistence.
func (m *Memory) GetConnection(ctx context.Context) (Connection, error) {
	return &MemoryConnection{backend: m}, nil
}

// MemoryConnection is a connection to the in-memory backend.
type MemoryConnection struct {
	backend *Memory
}

// StartTransaction acquires the process-wide transaction lock.
func (c *MemoryConnection) StartTransaction(ctx context.Context) (Transaction, error) {
	c.backend.mu.Lock()
	return &MemoryTransaction{backend: c.backend}, nil
}

// Close implements Connection. In-memory connections hold nothing.
func (c *MemoryConnection) Close() {}

// MemoryTransaction holds the process-wide lock until finished.
type MemoryTransaction struct {
	backend *Memory
	done    bool
}

// Commit releases the lock. In-memory writes are already visible.
func (t *MemoryTransaction) Commit(ctx context.Context) error {
	t.release()
	return nil
}

// Rollback releases the lock and reports that rollback is unsupported.
func (t *MemoryTransaction) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.release()
	return ErrRollbackUnsupported
}

func (t *MemoryTransaction) release() {
	if t.done {
		return
	}
	t.done = true
	t.backend.mu.Unlock()
}

// AsMemory recovers the in-memory transaction behind the abstract one.
// Stores built for the in-memory backend call this at their entry point.
func AsMemory(tx Transaction) (*MemoryTransaction, error) {
	mt, ok := tx.(*MemoryTransaction)
	if !ok {
		return nil, ErrWrongBackend
	}
	return mt, nil
}
