package progress_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snipelabs/sniper/internal/persistence"
	"github.com/snipelabs/sniper/internal/progress"
	"github.com/snipelabs/sniper/internal/testhelpers"
)

func TestPostgresTrackerIntegration(t *testing.T) {
	testDB := testhelpers.NewTestDatabase(t)
	defer testDB.Close()

	ctx := context.Background()
	backend := persistence.NewPostgres(testDB.Pool)
	tracker := progress.NewPostgresTracker()

	conn, err := backend.GetConnection(ctx)
	require.NoError(t, err)
	defer conn.Close()

	t.Run("absent cursor loads as nil", func(t *testing.T) {
		stored, err := tracker.Load(ctx, conn, "bidding-engine")
		require.NoError(t, err)
		assert.Nil(t, stored)
	})

	t.Run("store then load", func(t *testing.T) {
		tx, err := conn.StartTransaction(ctx)
		require.NoError(t, err)
		require.NoError(t, tracker.StoreTx(ctx, tx, "bidding-engine", 42))

		// Visible inside the transaction before the commit.
		inTx, err := tracker.LoadTx(ctx, tx, "bidding-engine")
		require.NoError(t, err)
		require.NotNil(t, inTx)
		assert.Equal(t, uint64(42), *inTx)

		require.NoError(t, tx.Commit(ctx))

		stored, err := tracker.Load(ctx, conn, "bidding-engine")
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, uint64(42), *stored)
	})

	t.Run("store overwrites", func(t *testing.T) {
		tx, err := conn.StartTransaction(ctx)
		require.NoError(t, err)
		require.NoError(t, tracker.StoreTx(ctx, tx, "bidding-engine", 43))
		require.NoError(t, tx.Commit(ctx))

		stored, err := tracker.Load(ctx, conn, "bidding-engine")
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, uint64(43), *stored)
	})

	t.Run("rollback discards the cursor", func(t *testing.T) {
		tx, err := conn.StartTransaction(ctx)
		require.NoError(t, err)
		require.NoError(t, tracker.StoreTx(ctx, tx, "auction-house-sender", 7))
		require.NoError(t, tx.Rollback(ctx))

		stored, err := tracker.Load(ctx, conn, "auction-house-sender")
		require.NoError(t, err)
		assert.Nil(t, stored)
	})
}
