package progress

import (
	"context"
	"sync"

	"github.com/snipelabs/sniper/internal/eventlog"
	"github.com/snipelabs/sniper/internal/persistence"
)

// MemoryTracker keeps cursors in a mutex-guarded map. It ignores
// transaction boundaries beyond the backend check; the in-memory
// backend's process-wide lock already serializes writers.
type MemoryTracker struct {
	mu      sync.Mutex
	cursors map[string]eventlog.Offset
}

// NewMemoryTracker creates an empty in-memory tracker.
func NewMemoryTracker() *MemoryTracker {
	return &MemoryTracker{cursors: make(map[string]eventlog.Offset)}
}

// Load implements Tracker.
func (t *MemoryTracker) Load(ctx context.Context, conn persistence.Connection, serviceID string) (*eventlog.Offset, error) {
	if _, ok := conn.(*persistence.MemoryConnection); !ok {
		return nil, persistence.ErrWrongBackend
	}
	return t.load(serviceID), nil
}

// LoadTx implements Tracker.
func (t *MemoryTracker) LoadTx(ctx context.Context, tx persistence.Transaction, serviceID string) (*eventlog.Offset, error) {
	if _, err := persistence.AsMemory(tx); err != nil {
		return nil, err
	}
	return t.load(serviceID), nil
}

// StoreTx implements Tracker.
func (t *MemoryTracker) StoreTx(ctx context.Context, tx persistence.Transaction, serviceID string, offset eventlog.Offset) error {
	if _, err := persistence.AsMemory(tx); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cursors[serviceID] = offset
	return nil
}

func (t *MemoryTracker) load(serviceID string) *eventlog.Offset {
	t.mu.Lock()
	defer t.mu.Unlock()
	offset, ok := t.cursors[serviceID]
	if !ok {
		return nil
	}
	return &offset
}
