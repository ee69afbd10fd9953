package auction

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBidDetails_OutbidPrice(t *testing.T) {
	bid := BidDetails{Bidder: BidderOther, Price: 10, Increment: 2}
	assert.Equal(t, Amount(12), bid.OutbidPrice())
}

func TestBidDetails_IsOutbidBy(t *testing.T) {
	tests := []struct {
		name   string
		bid    BidDetails
		amount Amount
		want   bool
	}{
		{
			name:   "amount below next valid bid",
			bid:    BidDetails{Bidder: BidderOther, Price: 10, Increment: 2},
			amount: 11,
			want:   false,
		},
		{
			name:   "amount equal to next valid bid",
			bid:    BidDetails{Bidder: BidderOther, Price: 10, Increment: 2},
			amount: 12,
			want:   true,
		},
		{
			name:   "amount above next valid bid",
			bid:    BidDetails{Bidder: BidderOther, Price: 10, Increment: 2},
			amount: 100,
			want:   true,
		},
		{
			name:   "amount equal to current price only",
			bid:    BidDetails{Bidder: BidderSniper, Price: 10, Increment: 1},
			amount: 10,
			want:   false,
		},
		{
			name:   "zero increment means matching price outbids",
			bid:    BidDetails{Bidder: BidderOther, Price: 10, Increment: 0},
			amount: 10,
			want:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.bid.IsOutbidBy(tt.amount))
		})
	}
}
