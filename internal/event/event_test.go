package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snipelabs/sniper/internal/auction"
)

func TestEvent_Equal(t *testing.T) {
	bid := auction.BidDetails{Bidder: auction.BidderOther, Price: 10, Increment: 1}

	tests := []struct {
		name string
		a, b Event
		want bool
	}{
		{
			name: "identical auction house bids",
			a:    AuctionHouseBid("foo", bid),
			b:    AuctionHouseBid("foo", bid),
			want: true,
		},
		{
			name: "different items",
			a:    AuctionHouseBid("foo", bid),
			b:    AuctionHouseBid("bar", bid),
			want: false,
		},
		{
			name: "bid vs closed",
			a:    AuctionHouseBid("foo", bid),
			b:    AuctionHouseClosed("foo"),
			want: false,
		},
		{
			name: "different producing services",
			a:    MaxBidSet("foo", 10),
			b:    EngineBid("foo", 10),
			want: false,
		},
		{
			name: "identical engine bids",
			a:    EngineBid("foo", 12),
			b:    EngineBid("foo", 12),
			want: true,
		},
		{
			name: "identical user errors",
			a:    EngineUserError(UserErrorAlreadyClosed),
			b:    EngineUserError(UserErrorAlreadyClosed),
			want: true,
		},
		{
			name: "different user errors",
			a:    EngineUserError(UserErrorAlreadyClosed),
			b:    EngineUserError(UserErrorTooLow),
			want: false,
		},
		{
			name: "identical auction errors",
			a:    EngineAuctionError("foo"),
			b:    EngineAuctionError("foo"),
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Equal(tt.b))
			assert.Equal(t, tt.want, tt.b.Equal(tt.a))
		})
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	events := []Event{
		AuctionHouseBid("foo", auction.BidDetails{Bidder: auction.BidderSniper, Price: 5, Increment: 2}),
		AuctionHouseClosed("bar"),
		EngineBid("foo", 7),
		EngineAuctionError("baz"),
		EngineUserError(UserErrorTooLow),
		MaxBidSet("foo", 100),
	}

	for _, original := range events {
		payload, err := Marshal(original)
		require.NoError(t, err)

		decoded, err := Unmarshal(payload)
		require.NoError(t, err)
		assert.True(t, original.Equal(decoded), "event %s did not survive the round trip", payload)
	}
}
