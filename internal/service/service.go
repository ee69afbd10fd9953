// Package service is the process-wide supervisor: it spawns workers,
// propagates stop signals between them and contains panics.
//
// Two worker shapes exist. Loop services run an idempotent iteration
// (poll an external source, sleep, retry). Log followers consume the
// event log from their last committed offset and handle each event inside
// a transaction shared with their cursor advance.
package service

import (
	"context"

	"github.com/snipelabs/sniper/internal/event"
	"github.com/snipelabs/sniper/internal/persistence"
)

// LoopService runs one idempotent iteration per call. An error terminates
// the worker and stops all of its siblings.
type LoopService interface {
	RunIteration(ctx context.Context) error
}

// LoopFunc adapts a plain function to a LoopService.
type LoopFunc func(ctx context.Context) error

// RunIteration implements LoopService.
func (f LoopFunc) RunIteration(ctx context.Context) error {
	return f(ctx)
}

// LogFollower is a service driven by the event log. HandleEvent runs
// inside the follower's per-iteration transaction: state changes and
// events it emits become visible atomically with the cursor advance.
type LogFollower interface {
	// ServiceID is the stable progress key for this follower.
	ServiceID() string

	HandleEvent(ctx context.Context, tx persistence.Transaction, ev event.Event) error
}
