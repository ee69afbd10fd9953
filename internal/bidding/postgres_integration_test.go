package bidding_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snipelabs/sniper/internal/auction"
	"github.com/snipelabs/sniper/internal/bidding"
	"github.com/snipelabs/sniper/internal/persistence"
	"github.com/snipelabs/sniper/internal/testhelpers"
)

func TestPostgresStateStoreIntegration(t *testing.T) {
	testDB := testhelpers.NewTestDatabase(t)
	defer testDB.Close()

	ctx := context.Background()
	backend := persistence.NewPostgres(testDB.Pool)
	store := bidding.NewPostgresStateStore()

	conn, err := backend.GetConnection(ctx)
	require.NoError(t, err)
	defer conn.Close()

	storeState := func(t *testing.T, item auction.ItemID, state bidding.State) {
		t.Helper()
		tx, err := conn.StartTransaction(ctx)
		require.NoError(t, err)
		require.NoError(t, store.StoreTx(ctx, tx, item, state))
		require.NoError(t, tx.Commit(ctx))
	}

	t.Run("unknown item loads as nil", func(t *testing.T) {
		state, err := store.Load(ctx, conn, "nope")
		require.NoError(t, err)
		assert.Nil(t, state)
	})

	t.Run("minimal state round trips", func(t *testing.T) {
		written := bidding.State{MaxBidLimit: 100}
		storeState(t, "bare", written)

		loaded, err := store.Load(ctx, conn, "bare")
		require.NoError(t, err)
		require.NotNil(t, loaded)
		assert.True(t, written.Equal(*loaded))
		assert.Nil(t, loaded.LastBidSent)
		assert.Nil(t, loaded.Auction.HighestBid)
	})

	t.Run("full state round trips", func(t *testing.T) {
		lastSent := auction.Amount(12)
		written := bidding.State{
			MaxBidLimit: 100,
			LastBidSent: &lastSent,
			Auction: bidding.AuctionState{
				HighestBid: &auction.BidDetails{
					Bidder: auction.BidderOther, Price: 11, Increment: 1,
				},
				Closed: true,
			},
		}
		storeState(t, "full", written)

		loaded, err := store.Load(ctx, conn, "full")
		require.NoError(t, err)
		require.NotNil(t, loaded)
		assert.True(t, written.Equal(*loaded))
	})

	t.Run("store overwrites", func(t *testing.T) {
		storeState(t, "item", bidding.State{MaxBidLimit: 10})
		storeState(t, "item", bidding.State{MaxBidLimit: 20, Auction: bidding.AuctionState{Closed: true}})

		loaded, err := store.Load(ctx, conn, "item")
		require.NoError(t, err)
		require.NotNil(t, loaded)
		assert.Equal(t, auction.Amount(20), loaded.MaxBidLimit)
		assert.True(t, loaded.Auction.Closed)
	})

	t.Run("rollback discards the write", func(t *testing.T) {
		tx, err := conn.StartTransaction(ctx)
		require.NoError(t, err)
		require.NoError(t, store.StoreTx(ctx, tx, "discarded", bidding.State{MaxBidLimit: 1}))
		require.NoError(t, tx.Rollback(ctx))

		loaded, err := store.Load(ctx, conn, "discarded")
		require.NoError(t, err)
		assert.Nil(t, loaded)
	})
}
