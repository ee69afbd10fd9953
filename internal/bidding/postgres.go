package bidding

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/snipelabs/sniper/internal/auction"
	"github.com/snipelabs/sniper/internal/persistence"
)

// PostgresStateStore keeps engine states in the bidding_state table.
type PostgresStateStore struct{}

// NewPostgresStateStore creates the PostgreSQL-backed store.
func NewPostgresStateStore() *PostgresStateStore {
	return &PostgresStateStore{}
}

const stateQuery = `
	SELECT max_bid_limit, last_bid_sent,
	       highest_bid_bidder, highest_bid_price, highest_bid_increment,
	       closed
	FROM bidding_state
	WHERE item_id = $1
`

// Load implements StateStore.
func (s *PostgresStateStore) Load(ctx context.Context, conn persistence.Connection, item auction.ItemID) (*State, error) {
	pgConn, err := persistence.AsPostgresConn(conn)
	if err != nil {
		return nil, err
	}
	return scanState(pgConn.QueryRow(ctx, stateQuery, item))
}

// LoadTx implements StateStore.
func (s *PostgresStateStore) LoadTx(ctx context.Context, tx persistence.Transaction, item auction.ItemID) (*State, error) {
	pgTx, err := persistence.AsPostgres(tx)
	if err != nil {
		return nil, err
	}
	return scanState(pgTx.QueryRow(ctx, stateQuery, item))
}

// StoreTx implements StateStore.
func (s *PostgresStateStore) StoreTx(ctx context.Context, tx persistence.Transaction, item auction.ItemID, state State) error {
	pgTx, err := persistence.AsPostgres(tx)
	if err != nil {
		return err
	}

	var lastBidSent *int64
	if state.LastBidSent != nil {
		v := int64(*state.LastBidSent)
		lastBidSent = &v
	}
	var (
		bidder                 *string
		bidPrice, bidIncrement *int64
	)
	if hb := state.Auction.HighestBid; hb != nil {
		b := string(hb.Bidder)
		p := int64(hb.Price)
		i := int64(hb.Increment)
		bidder, bidPrice, bidIncrement = &b, &p, &i
	}

	_, err = pgTx.Exec(ctx, `
		INSERT INTO bidding_state (
			item_id, max_bid_limit, last_bid_sent,
			highest_bid_bidder, highest_bid_price, highest_bid_increment,
			closed
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (item_id) DO UPDATE SET
			max_bid_limit = EXCLUDED.max_bid_limit,
			last_bid_sent = EXCLUDED.last_bid_sent,
			highest_bid_bidder = EXCLUDED.highest_bid_bidder,
			highest_bid_price = EXCLUDED.highest_bid_price,
			highest_bid_increment = EXCLUDED.highest_bid_increment,
			closed = EXCLUDED.closed
	`, item, int64(state.MaxBidLimit), lastBidSent, bidder, bidPrice, bidIncrement, state.Auction.Closed)
	if err != nil {
		return fmt.Errorf("failed to store bidding state for %q: %w", item, err)
	}
	return nil
}

func scanState(row pgx.Row) (*State, error) {
	var (
		maxBidLimit            int64
		lastBidSent            *int64
		bidder                 *string
		bidPrice, bidIncrement *int64
		closed                 bool
	)
	if err := row.Scan(&maxBidLimit, &lastBidSent, &bidder, &bidPrice, &bidIncrement, &closed); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load bidding state: %w", err)
	}

	state := State{
		MaxBidLimit: auction.Amount(maxBidLimit),
		Auction:     AuctionState{Closed: closed},
	}
	if lastBidSent != nil {
		v := auction.Amount(*lastBidSent)
		state.LastBidSent = &v
	}
	if bidder != nil && bidPrice != nil && bidIncrement != nil {
		state.Auction.HighestBid = &auction.BidDetails{
			Bidder:    auction.Bidder(*bidder),
			Price:     auction.Amount(*bidPrice),
			Increment: auction.Amount(*bidIncrement),
		}
	}
	return &state, nil
}
