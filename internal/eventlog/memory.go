package eventlog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/snipelabs/sniper/internal/event"
	"github.com/snipelabs/sniper/internal/persistence"
)

// MemoryLog is the in-memory backend: an ordered slice where offsets are
// indices. Readers that observe an empty suffix wait on a broadcast
// channel closed on every write.
type MemoryLog struct {
	mu     sync.RWMutex
	events []event.Event
	notify chan struct{}
}

// NewMemoryLog creates an empty in-memory log. The returned value is both
// the Reader and the Writer.
func NewMemoryLog() *MemoryLog {
	return &MemoryLog{notify: make(chan struct{})}
}

// StartOffset implements Reader. In-memory logs start at zero.
func (l *MemoryLog) StartOffset(ctx context.Context) (Offset, error) {
	return 0, nil
}

// Read implements Reader.
func (l *MemoryLog) Read(ctx context.Context, conn persistence.Connection, offset Offset, limit int, timeout time.Duration) (Batch, error) {
	if _, ok := conn.(*persistence.MemoryConnection); !ok {
		return Batch{}, persistence.ErrWrongBackend
	}

	var deadline <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	for {
		batch, notify, err := l.readSuffix(offset, limit)
		if err != nil {
			return Batch{}, err
		}
		if len(batch.Events) > 0 || timeout == 0 {
			return batch, nil
		}

		select {
		case <-notify:
		case <-deadline:
			return batch, nil
		case <-ctx.Done():
			return batch, nil
		}
	}
}

func (l *MemoryLog) readSuffix(offset Offset, limit int) (Batch, <-chan struct{}, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if offset > Offset(len(l.events)) {
		return Batch{}, nil, fmt.Errorf("offset %d out of bounds (log tail is %d)", offset, len(l.events))
	}

	suffix := l.events[offset:]
	if limit < len(suffix) {
		suffix = suffix[:limit]
	}

	batch := Batch{NextOffset: offset + Offset(len(suffix))}
	for i, e := range suffix {
		batch.Events = append(batch.Events, LogEvent{Offset: offset + Offset(i), Event: e})
	}
	return batch, l.notify, nil
}

// Write implements Writer. In-memory appends are immediately visible.
func (l *MemoryLog) Write(ctx context.Context, conn persistence.Connection, events []event.Event) (Offset, error) {
	if _, ok := conn.(*persistence.MemoryConnection); !ok {
		return 0, persistence.ErrWrongBackend
	}
	return l.append(events), nil
}

// WriteTx implements Writer. The in-memory backend cannot defer
// visibility to commit time; appends are published immediately, which is
// consistent with rollback being unsupported.
func (l *MemoryLog) WriteTx(ctx context.Context, tx persistence.Transaction, events []event.Event) (Offset, error) {
	if _, err := persistence.AsMemory(tx); err != nil {
		return 0, err
	}
	return l.append(events), nil
}

func (l *MemoryLog) append(events []event.Event) Offset {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.events = append(l.events, events...)
	if len(events) > 0 {
		close(l.notify)
		l.notify = make(chan struct{})
	}
	return Offset(len(l.events))
}
