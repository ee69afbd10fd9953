package bidding

import (
	"context"
	"sync"

	"github.com/snipelabs/sniper/internal/auction"
	"github.com/snipelabs/sniper/internal/persistence"
)

// StateStore persists one State per item.
type StateStore interface {
	// Load reads an item's state outside a transaction.
	Load(ctx context.Context, conn persistence.Connection, item auction.ItemID) (*State, error)

	// LoadTx reads an item's state inside a transaction.
	LoadTx(ctx context.Context, tx persistence.Transaction, item auction.ItemID) (*State, error)

	// StoreTx writes an item's state inside a transaction.
	StoreTx(ctx context.Context, tx persistence.Transaction, item auction.ItemID, state State) error
}

// MemoryStateStore keeps states in a mutex-guarded map. It ignores
// transaction boundaries beyond the backend check; the in-memory
// backend's process-wide lock already serializes writers.
type MemoryStateStore struct {
	mu     sync.Mutex
	states map[auction.ItemID]State
}

// NewMemoryStateStore creates an empty in-memory store.
func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{states: make(map[auction.ItemID]State)}
}

// Load implements StateStore.
func (s *MemoryStateStore) Load(ctx context.Context, conn persistence.Connection, item auction.ItemID) (*State, error) {
	if _, ok := conn.(*persistence.MemoryConnection); !ok {
		return nil, persistence.ErrWrongBackend
	}
	return s.load(item), nil
}

// LoadTx implements StateStore.
func (s *MemoryStateStore) LoadTx(ctx context.Context, tx persistence.Transaction, item auction.ItemID) (*State, error) {
	if _, err := persistence.AsMemory(tx); err != nil {
		return nil, err
	}
	return s.load(item), nil
}

// StoreTx implements StateStore.
func (s *MemoryStateStore) StoreTx(ctx context.Context, tx persistence.Transaction, item auction.ItemID, state State) error {
	if _, err := persistence.AsMemory(tx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[item] = state
	return nil
}

func (s *MemoryStateStore) load(item auction.ItemID) *State {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.states[item]
	if !ok {
		return nil
	}
	return &state
}
