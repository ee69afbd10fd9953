package auctionhouse

import (
	"context"
	"log/slog"
	"time"

	"github.com/snipelabs/sniper/internal/event"
	"github.com/snipelabs/sniper/internal/eventlog"
	"github.com/snipelabs/sniper/internal/persistence"
)

// ReceiverServiceName names the receiver worker in logs.
const ReceiverServiceName = "auction-house-receiver"

// pollTimeout bounds each remote poll so stop requests are noticed.
const pollTimeout = time.Second

// Receiver is a loop worker that polls the remote auction house and
// appends whatever it reports to the log. The append is not atomic with
// the remote poll; a crash in between loses at most the polled event.
type Receiver struct {
	client      Client
	persistence persistence.Persistence
	writer      eventlog.Writer
	logger      *slog.Logger
}

// NewReceiver creates the receiver.
func NewReceiver(client Client, p persistence.Persistence, writer eventlog.Writer, logger *slog.Logger) *Receiver {
	return &Receiver{
		client:      client,
		persistence: p,
		writer:      writer,
		logger:      logger,
	}
}

// RunIteration implements service.LoopService.
func (r *Receiver) RunIteration(ctx context.Context) error {
	e, err := r.client.Poll(ctx, pollTimeout)
	if err != nil {
		return err
	}
	if e == nil {
		return nil
	}

	r.logger.Info("auction house event received", "item", e.Item, "closed", e.Closed)
	_, err = eventlog.Append(ctx, r.persistence, r.writer, event.Event{AuctionHouse: e})
	return err
}
