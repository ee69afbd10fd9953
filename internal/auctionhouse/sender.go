package auctionhouse

import (
	"context"

	"github.com/snipelabs/sniper/internal/event"
	"github.com/snipelabs/sniper/internal/persistence"
)

// SenderServiceID is the sender's stable progress key.
const SenderServiceID = "auction-house-sender"

// Sender is a log follower that forwards the bidding engine's decisions
// to the remote auction house. It does not retry: a failed call
// terminates the worker and the bid is re-sent on restart, relying on the
// remote side being idempotent.
type Sender struct {
	client Client
}

// NewSender creates the sender.
func NewSender(client Client) *Sender {
	return &Sender{client: client}
}

// ServiceID implements service.LogFollower.
func (s *Sender) ServiceID() string {
	return SenderServiceID
}

// HandleEvent implements service.LogFollower.
func (s *Sender) HandleEvent(ctx context.Context, tx persistence.Transaction, ev event.Event) error {
	if ev.BiddingEngine == nil || ev.BiddingEngine.Bid == nil {
		return nil
	}
	bid := ev.BiddingEngine.Bid
	return s.client.PlaceBid(ctx, bid.Item, bid.Price)
}
