package service

import (
	"context"
	"time"

	"github.com/snipelabs/sniper/internal/eventlog"
	"github.com/snipelabs/sniper/internal/persistence"
)

// readTimeout bounds the blocking tail read so a stop request is noticed
// within roughly a second in steady state.
const readTimeout = time.Second

// followerLoop drives one log follower. Each iteration is one atomic
// step: read the next event, dispatch it, store the advanced cursor and
// commit — dispatch and cursor share the transaction, so the follower's
// side effects and its progress become visible together or not at all.
type followerLoop struct {
	control  *Control
	follower LogFollower
	reader   eventlog.Reader

	conn        persistence.Connection
	offset      eventlog.Offset
	initialized bool
}

// RunIteration implements LoopService.
func (l *followerLoop) RunIteration(ctx context.Context) error {
	if !l.initialized {
		if err := l.init(ctx); err != nil {
			return err
		}
	}

	batch, err := l.reader.Read(ctx, l.conn, l.offset, 1, readTimeout)
	if err != nil {
		return err
	}
	if len(batch.Events) == 0 {
		// Heartbeat: nothing arrived within the timeout.
		return nil
	}

	conn, err := l.control.persistence.GetConnection(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	tx, err := conn.StartTransaction(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx) // no-op after commit
	}()

	for _, ev := range batch.Events {
		if err := l.follower.HandleEvent(ctx, tx, ev.Event); err != nil {
			return err
		}
	}
	if err := l.control.progress.StoreTx(ctx, tx, l.follower.ServiceID(), batch.NextOffset); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	// Advance only after the commit succeeded.
	l.offset = batch.NextOffset
	return nil
}

// Cleanup implements Cleaner.
func (l *followerLoop) Cleanup() {
	if l.conn != nil {
		l.conn.Close()
		l.conn = nil
	}
}

func (l *followerLoop) init(ctx context.Context) error {
	conn, err := l.control.persistence.GetConnection(ctx)
	if err != nil {
		return err
	}

	stored, err := l.control.progress.Load(ctx, conn, l.follower.ServiceID())
	if err != nil {
		conn.Close()
		return err
	}
	if stored != nil {
		l.offset = *stored
	} else {
		start, err := l.reader.StartOffset(ctx)
		if err != nil {
			conn.Close()
			return err
		}
		l.offset = start
	}

	l.conn = conn
	l.initialized = true
	l.control.logger.Info("log follower resuming",
		"service", l.follower.ServiceID(), "offset", l.offset)
	return nil
}
