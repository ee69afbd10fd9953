// Package event defines the one event type that flows through the log.
//
// Every service consumes and produces values of this type, so it lives at
// the core boundary: services import it, never each other.
package event

import "github.com/snipelabs/sniper/internal/auction"

// UserError classifies a rejected user request. It is recorded on the log
// rather than returned to the user, so downstream observers see it too.
type UserError string

const (
	UserErrorAlreadyClosed UserError = "already_closed"
	UserErrorTooLow        UserError = "too_low"
)

// AuctionError reports an auction house event the engine could not apply.
type AuctionError struct {
	UnknownAuction auction.ItemID `json:"unknown_auction"`
}

// AuctionHouseEvent is a notification from the remote auction house about
// one item. Exactly one of Bid and Closed is set.
type AuctionHouseEvent struct {
	Item   auction.ItemID      `json:"item"`
	Bid    *auction.BidDetails `json:"bid,omitempty"`
	Closed bool                `json:"closed,omitempty"`
}

// BiddingEngineEvent is a decision or complaint made by the bidding engine.
// Exactly one field is set.
type BiddingEngineEvent struct {
	Bid          *auction.ItemBid `json:"bid,omitempty"`
	AuctionError *AuctionError    `json:"auction_error,omitempty"`
	UserError    *UserError       `json:"user_error,omitempty"`
}

// UIEvent is a user intent accepted by the HTTP UI.
type UIEvent struct {
	MaxBidSet *auction.ItemBid `json:"max_bid_set,omitempty"`
}

// Event is the sum of everything that can appear on the log. Exactly one
// field is non-nil, discriminated by the producing service.
type Event struct {
	AuctionHouse  *AuctionHouseEvent  `json:"auction_house,omitempty"`
	BiddingEngine *BiddingEngineEvent `json:"bidding_engine,omitempty"`
	UI            *UIEvent            `json:"ui,omitempty"`
}

// AuctionHouseBid builds an auction house bid notification.
func AuctionHouseBid(item auction.ItemID, bid auction.BidDetails) Event {
	return Event{AuctionHouse: &AuctionHouseEvent{Item: item, Bid: &bid}}
}

// AuctionHouseClosed builds an auction house closed notification.
func AuctionHouseClosed(item auction.ItemID) Event {
	return Event{AuctionHouse: &AuctionHouseEvent{Item: item, Closed: true}}
}

// EngineBid builds a "place this bid" decision.
func EngineBid(item auction.ItemID, price auction.Amount) Event {
	return Event{BiddingEngine: &BiddingEngineEvent{Bid: &auction.ItemBid{Item: item, Price: price}}}
}

// EngineAuctionError builds an unknown-auction complaint.
func EngineAuctionError(item auction.ItemID) Event {
	return Event{BiddingEngine: &BiddingEngineEvent{AuctionError: &AuctionError{UnknownAuction: item}}}
}

// EngineUserError builds a rejected-user-request record.
func EngineUserError(ue UserError) Event {
	return Event{BiddingEngine: &BiddingEngineEvent{UserError: &ue}}
}

// MaxBidSet builds the UI event that sets the spending ceiling for an item.
func MaxBidSet(item auction.ItemID, price auction.Amount) Event {
	return Event{UI: &UIEvent{MaxBidSet: &auction.ItemBid{Item: item, Price: price}}}
}

// Equal compares two events structurally.
func (e Event) Equal(other Event) bool {
	switch {
	case e.AuctionHouse != nil && other.AuctionHouse != nil:
		a, b := e.AuctionHouse, other.AuctionHouse
		if a.Item != b.Item || a.Closed != b.Closed {
			return false
		}
		if (a.Bid == nil) != (b.Bid == nil) {
			return false
		}
		return a.Bid == nil || *a.Bid == *b.Bid
	case e.BiddingEngine != nil && other.BiddingEngine != nil:
		a, b := e.BiddingEngine, other.BiddingEngine
		if (a.Bid == nil) != (b.Bid == nil) ||
			(a.AuctionError == nil) != (b.AuctionError == nil) ||
			(a.UserError == nil) != (b.UserError == nil) {
			return false
		}
		if a.Bid != nil && *a.Bid != *b.Bid {
			return false
		}
		if a.AuctionError != nil && *a.AuctionError != *b.AuctionError {
			return false
		}
		if a.UserError != nil && *a.UserError != *b.UserError {
			return false
		}
		return true
	case e.UI != nil && other.UI != nil:
		a, b := e.UI, other.UI
		if (a.MaxBidSet == nil) != (b.MaxBidSet == nil) {
			return false
		}
		return a.MaxBidSet == nil || *a.MaxBidSet == *b.MaxBidSet
	default:
		return e == Event{} && other == (Event{})
	}
}
