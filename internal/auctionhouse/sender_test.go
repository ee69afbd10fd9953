package auctionhouse

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snipelabs/sniper/internal/auction"
	"github.com/snipelabs/sniper/internal/event"
)

func TestSender_ForwardsEngineBids(t *testing.T) {
	ctx := context.Background()
	client := NewStubClient()
	sender := NewSender(client)

	require.NoError(t, sender.HandleEvent(ctx, nil, event.EngineBid("foo", 12)))
	require.NoError(t, sender.HandleEvent(ctx, nil, event.EngineBid("bar", 3)))

	placed := client.PlacedBids()
	require.Len(t, placed, 2)
	assert.Equal(t, auction.ItemBid{Item: "foo", Price: 12}, placed[0])
	assert.Equal(t, auction.ItemBid{Item: "bar", Price: 3}, placed[1])
}

func TestSender_IgnoresEverythingElse(t *testing.T) {
	ctx := context.Background()
	client := NewStubClient()
	sender := NewSender(client)

	others := []event.Event{
		event.MaxBidSet("foo", 100),
		event.AuctionHouseClosed("foo"),
		event.AuctionHouseBid("foo", auction.BidDetails{Bidder: auction.BidderOther, Price: 1, Increment: 1}),
		event.EngineAuctionError("foo"),
		event.EngineUserError(event.UserErrorAlreadyClosed),
	}
	for _, ev := range others {
		require.NoError(t, sender.HandleEvent(ctx, nil, ev))
	}

	assert.Empty(t, client.PlacedBids())
}

type failingClient struct {
	StubClient
	err error
}

func (c *failingClient) PlaceBid(ctx context.Context, item auction.ItemID, amount auction.Amount) error {
	return c.err
}

func TestSender_PropagatesClientFailure(t *testing.T) {
	boom := errors.New("broker unreachable")
	sender := NewSender(&failingClient{err: boom})

	err := sender.HandleEvent(context.Background(), nil, event.EngineBid("foo", 1))
	assert.ErrorIs(t, err, boom)
}

func TestStubClient_PollDeliversPushed(t *testing.T) {
	ctx := context.Background()
	client := NewStubClient()

	pushed := event.AuctionHouseClosed("foo")
	client.Push(*pushed.AuctionHouse)

	got, err := client.Poll(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, pushed.Equal(event.Event{AuctionHouse: got}))
}

func TestStubClient_PollTimesOutNil(t *testing.T) {
	got, err := NewStubClient().Poll(context.Background(), 10*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStubClient_PollHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	got, err := NewStubClient().Poll(ctx, time.Minute)
	require.NoError(t, err)
	assert.Nil(t, got)
}
