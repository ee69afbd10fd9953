// Package eventlog is the append-only, totally ordered log of events with
// blocking tail reads. It is the only coordination channel between
// services.
package eventlog

import (
	"context"
	"time"

	"github.com/snipelabs/sniper/internal/event"
	"github.com/snipelabs/sniper/internal/persistence"
)

// Offset is a monotonic position in the log. Offsets are dense, assigned
// starting at the backend's start offset, and uniquely identify an event.
type Offset = uint64

// NoTimeout makes Read block until at least one event is appended or the
// context is cancelled.
const NoTimeout time.Duration = -1

// LogEvent is an event together with the offset it was appended at.
type LogEvent struct {
	Offset Offset
	Event  event.Event
}

// Batch is the result of a read: the events found and the offset a
// subsequent read should supply to see what follows them.
type Batch struct {
	NextOffset Offset
	Events     []LogEvent
}

// Reader reads the log in offset order.
type Reader interface {
	// StartOffset is the earliest valid read offset.
	StartOffset(ctx context.Context) (Offset, error)

	// Read returns up to limit events at offsets >= offset, in ascending
	// order. With timeout 0 it returns immediately; with a positive
	// timeout it blocks at most that long, returning as soon as at least
	// one event is appended; with NoTimeout it blocks until an event
	// arrives or ctx is cancelled. Cancellation and timeouts yield an
	// empty batch, not an error.
	Read(ctx context.Context, conn persistence.Connection, offset Offset, limit int, timeout time.Duration) (Batch, error)
}

// Writer appends events to the log.
type Writer interface {
	// Write appends all events atomically and returns the offset past the
	// last appended event. Empty batches are a no-op returning the
	// current tail.
	Write(ctx context.Context, conn persistence.Connection, events []event.Event) (Offset, error)

	// WriteTx is Write inside a caller-owned transaction: the events
	// become visible if and only if the transaction commits.
	WriteTx(ctx context.Context, tx persistence.Transaction, events []event.Event) (Offset, error)
}

// ReadOne reads a single event without blocking. It returns nil when the
// log has nothing at or past the offset, along with the advanced offset.
func ReadOne(ctx context.Context, r Reader, conn persistence.Connection, offset Offset) (*LogEvent, Offset, error) {
	batch, err := r.Read(ctx, conn, offset, 1, 0)
	if err != nil {
		return nil, offset, err
	}
	if len(batch.Events) == 0 {
		return nil, batch.NextOffset, nil
	}
	return &batch.Events[0], batch.NextOffset, nil
}

// Append opens a connection, appends the events in one transaction and
// commits. Convenience for writers outside a log-follower step, such as
// the UI and the auction house receiver.
func Append(ctx context.Context, p persistence.Persistence, w Writer, events ...event.Event) (Offset, error) {
	conn, err := p.GetConnection(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Close()
	return w.Write(ctx, conn, events)
}
