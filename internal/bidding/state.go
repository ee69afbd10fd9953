// Package bidding is the domain state machine: it watches auction house
// and UI events and decides when to place bids, up to the user's ceiling.
package bidding

import (
	"github.com/snipelabs/sniper/internal/auction"
	"github.com/snipelabs/sniper/internal/event"
)

// AuctionState is the remote auction's state for one item, reconstructed
// from auction house events. Once Closed it never reverts.
type AuctionState struct {
	HighestBid *auction.BidDetails `json:"highest_bid,omitempty"`
	Closed     bool                `json:"closed"`
}

// Apply folds one auction house notification into the state. A new bid is
// accepted only if the auction is open and it strictly outbids the
// current highest; first writer wins ties. Closed is idempotent.
func (s AuctionState) Apply(e *event.AuctionHouseEvent) AuctionState {
	switch {
	case e.Closed:
		s.Closed = true
	case e.Bid != nil:
		if !s.Closed && (s.HighestBid == nil || s.HighestBid.IsOutbidBy(e.Bid.Price)) {
			bid := *e.Bid
			s.HighestBid = &bid
		}
	}
	return s
}

// NextBid is the pure bidding decision: the amount we should offer next,
// or nil when there is nothing to do. openingBid is the amount offered
// when nobody has bid yet.
func (s AuctionState) NextBid(maxLimit, openingBid auction.Amount) *auction.Amount {
	if s.Closed {
		return nil
	}

	var candidate auction.Amount
	switch {
	case s.HighestBid == nil:
		candidate = openingBid
	case s.HighestBid.Bidder == auction.BidderSniper:
		// We are already winning.
		return nil
	default:
		candidate = s.HighestBid.OutbidPrice()
	}

	if candidate > maxLimit {
		return nil
	}
	return &candidate
}

// Equal compares two auction states structurally.
func (s AuctionState) Equal(o AuctionState) bool {
	if s.Closed != o.Closed {
		return false
	}
	if (s.HighestBid == nil) != (o.HighestBid == nil) {
		return false
	}
	return s.HighestBid == nil || *s.HighestBid == *o.HighestBid
}

// State is everything the engine tracks per item: the user's spending
// ceiling, the highest bid we ever sent, and the remote auction's state.
// The record exists iff the engine has seen the item at least once.
type State struct {
	MaxBidLimit auction.Amount  `json:"max_bid_limit"`
	LastBidSent *auction.Amount `json:"last_bid_sent,omitempty"`
	Auction     AuctionState    `json:"auction"`
}

// Equal compares two engine states structurally.
func (s State) Equal(o State) bool {
	if s.MaxBidLimit != o.MaxBidLimit {
		return false
	}
	if (s.LastBidSent == nil) != (o.LastBidSent == nil) {
		return false
	}
	if s.LastBidSent != nil && *s.LastBidSent != *o.LastBidSent {
		return false
	}
	return s.Auction.Equal(o.Auction)
}
