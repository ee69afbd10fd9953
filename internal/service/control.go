package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/snipelabs/sniper/internal/eventlog"
	"github.com/snipelabs/sniper/internal/persistence"
	"github.com/snipelabs/sniper/internal/progress"
)

// Control supervises every worker in the process. A single shared stop
// flag makes any worker failure drain all of them.
type Control struct {
	persistence persistence.Persistence
	progress    progress.Tracker
	logger      *slog.Logger

	stopAll atomic.Bool

	mu      sync.Mutex
	cancels []context.CancelFunc
}

// NewControl creates the supervisor.
func NewControl(p persistence.Persistence, tracker progress.Tracker, logger *slog.Logger) *Control {
	return &Control{
		persistence: p,
		progress:    tracker,
		logger:      logger,
	}
}

// StopAll asks every worker to stop. Level-triggered: workers notice on
// their next iteration boundary; in-flight blocking reads are bounded by
// their timeouts and by context cancellation.
func (c *Control) StopAll() {
	c.stopAll.Store(true)

	c.mu.Lock()
	cancels := c.cancels
	c.mu.Unlock()
	for _, cancel := range cancels {
		cancel()
	}
}

// Stopping reports whether StopAll has been called.
func (c *Control) Stopping() bool {
	return c.stopAll.Load()
}

// Handle owns a running worker: a per-worker stop flag and a join token.
type Handle struct {
	name   string
	stop   atomic.Bool
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// Name is the worker's service name.
func (h *Handle) Name() string {
	return h.name
}

// Stop asks this worker (only) to stop.
func (h *Handle) Stop() {
	h.stop.Store(true)
	h.cancel()
}

// Join waits for the worker and returns its terminal result.
func (h *Handle) Join() error {
	<-h.done
	return h.err
}

// Close stops the worker, waits for it and surfaces its error. Meant for
// defer: discarding a handle must never leak a running worker.
func (h *Handle) Close() error {
	h.Stop()
	return h.Join()
}

// SpawnLoop runs svc.RunIteration repeatedly until the per-worker stop
// flag or the shared one is set, or an iteration fails. A panic inside an
// iteration is caught, converted to an error and stops all workers.
func (c *Control) SpawnLoop(name string, svc LoopService) *Handle {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Handle{name: name, cancel: cancel, done: make(chan struct{})}

	c.mu.Lock()
	c.cancels = append(c.cancels, cancel)
	c.mu.Unlock()

	go func() {
		defer close(h.done)
		if cl, ok := svc.(Cleaner); ok {
			defer cl.Cleanup()
		}
		for !c.stopAll.Load() && !h.stop.Load() {
			if err := runIteration(ctx, svc); err != nil {
				c.logger.Error("worker failed", "service", name, "error", err)
				c.StopAll()
				h.err = fmt.Errorf("%s: %w", name, err)
				return
			}
		}
		c.logger.Info("worker stopped", "service", name)
	}()

	return h
}

// SpawnLogFollower runs the event-loop algorithm for a log follower:
// read one event, handle it, advance the cursor, commit — the handling
// and the cursor advance in one transaction.
func (c *Control) SpawnLogFollower(follower LogFollower, reader eventlog.Reader) *Handle {
	loop := &followerLoop{
		control:  c,
		follower: follower,
		reader:   reader,
	}
	return c.SpawnLoop(follower.ServiceID(), loop)
}

// Cleaner lets a loop service release resources when its worker exits.
type Cleaner interface {
	Cleanup()
}

func runIteration(ctx context.Context, svc LoopService) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("service panicked: %v", r)
		}
	}()
	return svc.RunIteration(ctx)
}
