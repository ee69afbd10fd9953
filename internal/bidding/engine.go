package bidding

import (
	"context"

	"github.com/snipelabs/sniper/internal/auction"
	"github.com/snipelabs/sniper/internal/event"
	"github.com/snipelabs/sniper/internal/eventlog"
	"github.com/snipelabs/sniper/internal/persistence"
)

// ServiceID is the engine's stable progress key.
const ServiceID = "bidding-engine"

// Engine consumes auction house and UI events, owns one State per item
// and emits bid decisions back onto the log. It implements
// service.LogFollower; everything it does inside HandleEvent shares the
// follower's transaction.
type Engine struct {
	store      StateStore
	writer     eventlog.Writer
	openingBid auction.Amount
}

// NewEngine creates the bidding engine. openingBid is the amount offered
// on an auction nobody has bid on yet; the auction house's literal
// behavior is an opening bid of zero.
func NewEngine(store StateStore, writer eventlog.Writer, openingBid auction.Amount) *Engine {
	return &Engine{
		store:      store,
		writer:     writer,
		openingBid: openingBid,
	}
}

// ServiceID implements service.LogFollower.
func (e *Engine) ServiceID() string {
	return ServiceID
}

// HandleEvent implements service.LogFollower.
func (e *Engine) HandleEvent(ctx context.Context, tx persistence.Transaction, ev event.Event) error {
	switch {
	case ev.UI != nil && ev.UI.MaxBidSet != nil:
		bid := ev.UI.MaxBidSet
		return e.handleWith(ctx, tx, bid.Item, func(old *State) (*State, []event.Event) {
			return e.handleMaxBidSet(bid.Item, old, bid.Price)
		})
	case ev.AuctionHouse != nil:
		ahe := ev.AuctionHouse
		return e.handleWith(ctx, tx, ahe.Item, func(old *State) (*State, []event.Event) {
			return e.handleAuctionHouseEvent(ahe.Item, old, ahe)
		})
	default:
		// Not for us (including our own emissions).
		return nil
	}
}

// handleWith loads the item's state, applies the pure handler, persists
// the state when it changed and appends the emitted events — all within
// the follower's transaction.
func (e *Engine) handleWith(
	ctx context.Context,
	tx persistence.Transaction,
	item auction.ItemID,
	handle func(old *State) (*State, []event.Event),
) error {
	old, err := e.store.LoadTx(ctx, tx, item)
	if err != nil {
		return err
	}

	newState, emitted := handle(old)

	if newState != nil {
		if err := e.store.StoreTx(ctx, tx, item, *newState); err != nil {
			return err
		}
	}
	if len(emitted) > 0 {
		if _, err := e.writer.WriteTx(ctx, tx, emitted); err != nil {
			return err
		}
	}
	return nil
}

// handleMaxBidSet applies a new spending ceiling. The ceiling is taken as
// the current value, not a delta. Setting a ceiling on a closed auction
// is recorded as a user error, but the ceiling still updates.
func (e *Engine) handleMaxBidSet(item auction.ItemID, old *State, price auction.Amount) (*State, []event.Event) {
	state := State{}
	if old != nil {
		state = *old
	}
	state.MaxBidLimit = price

	var emitted []event.Event
	if state.Auction.Closed {
		emitted = append(emitted, event.EngineUserError(event.UserErrorAlreadyClosed))
	} else {
		emitted = append(emitted, e.decideBid(item, &state)...)
	}

	if old != nil && state.Equal(*old) {
		return nil, emitted
	}
	return &state, emitted
}

// handleAuctionHouseEvent folds a remote notification into the item's
// state. An event for an item the engine never saw is a contract
// violation recorded on the log, not a worker failure.
func (e *Engine) handleAuctionHouseEvent(item auction.ItemID, old *State, ahe *event.AuctionHouseEvent) (*State, []event.Event) {
	if old == nil {
		return nil, []event.Event{event.EngineAuctionError(item)}
	}

	state := *old
	state.Auction = state.Auction.Apply(ahe)

	emitted := e.decideBid(item, &state)

	if state.Equal(*old) {
		return nil, emitted
	}
	return &state, emitted
}

// decideBid derives the next bid from the (already updated) state. A
// candidate is emitted only the first time it is reached: LastBidSent
// never decreases, which keeps replayed events from re-emitting bids.
func (e *Engine) decideBid(item auction.ItemID, state *State) []event.Event {
	candidate := state.Auction.NextBid(state.MaxBidLimit, e.openingBid)
	if candidate == nil {
		return nil
	}
	if state.LastBidSent != nil && *candidate <= *state.LastBidSent {
		return nil
	}

	sent := *candidate
	state.LastBidSent = &sent
	return []event.Event{event.EngineBid(item, sent)}
}
