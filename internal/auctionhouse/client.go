// Package auctionhouse adapts the remote auction house: an outbound
// client for placing bids and polling notifications, a log follower that
// forwards the engine's bids, and a loop worker that appends incoming
// notifications to the log.
package auctionhouse

import (
	"context"
	"sync"
	"time"

	"github.com/snipelabs/sniper/internal/auction"
	"github.com/snipelabs/sniper/internal/event"
)

// Client talks to the remote auction house. PlaceBid is assumed
// idempotent on the remote side; no deduplication key is defined.
type Client interface {
	// PlaceBid offers the given amount on an item.
	PlaceBid(ctx context.Context, item auction.ItemID, amount auction.Amount) error

	// Poll waits up to timeout for one notification, returning nil when
	// none arrived.
	Poll(ctx context.Context, timeout time.Duration) (*event.AuctionHouseEvent, error)
}

// StubClient is an in-process Client for tests and local runs without a
// broker. Notifications are pushed in by hand; placed bids are recorded.
type StubClient struct {
	mu     sync.Mutex
	placed []auction.ItemBid

	incoming chan event.AuctionHouseEvent
}

// NewStubClient creates a stub with room for a few queued notifications.
func NewStubClient() *StubClient {
	return &StubClient{incoming: make(chan event.AuctionHouseEvent, 16)}
}

// PlaceBid implements Client.
func (c *StubClient) PlaceBid(ctx context.Context, item auction.ItemID, amount auction.Amount) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.placed = append(c.placed, auction.ItemBid{Item: item, Price: amount})
	return nil
}

// Poll implements Client.
func (c *StubClient) Poll(ctx context.Context, timeout time.Duration) (*event.AuctionHouseEvent, error) {
	var deadline <-chan time.Time
	if timeout >= 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	select {
	case e := <-c.incoming:
		return &e, nil
	case <-deadline:
		return nil, nil
	case <-ctx.Done():
		return nil, nil
	}
}

// Push queues a notification for the next Poll.
func (c *StubClient) Push(e event.AuctionHouseEvent) {
	c.incoming <- e
}

// PlacedBids returns a snapshot of every bid placed so far.
func (c *StubClient) PlacedBids() []auction.ItemBid {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]auction.ItemBid(nil), c.placed...)
}
