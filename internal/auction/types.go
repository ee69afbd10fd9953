// Package auction defines the domain vocabulary shared by every service:
// items, amounts, bidders and bids.
package auction

// Amount is a non-negative amount of money in the auction house's units.
type Amount = uint64

// ItemID identifies a single auction on the remote auction house.
type ItemID = string

// Bidder says who placed a bid on the remote auction house.
type Bidder string

const (
	// BidderSniper is this process's own bidding identity.
	BidderSniper Bidder = "sniper"
	// BidderOther is anyone else bidding against us.
	BidderOther Bidder = "other"
)

// BidDetails describes the current highest bid on an item as reported by
// the auction house.
type BidDetails struct {
	Bidder    Bidder `json:"bidder"`
	Price     Amount `json:"price"`
	Increment Amount `json:"increment"`
}

// OutbidPrice is the lowest amount that legally outbids this bid.
func (b BidDetails) OutbidPrice() Amount {
	return b.Price + b.Increment
}

// IsOutbidBy reports whether a bid of the given amount outbids this one.
func (b BidDetails) IsOutbidBy(amount Amount) bool {
	return b.OutbidPrice() <= amount
}

// ItemBid is a bid we intend to place (or a ceiling the user set) on an item.
type ItemBid struct {
	Item  ItemID `json:"item"`
	Price Amount `json:"price"`
}
