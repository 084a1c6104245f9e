// Package auctionapi defines the JSON envelope types spoken by auctiond.
// Every request carries a "type" discriminator; responses share a uniform
// Success/Message shape so clients can handle failures generically.
package auctionapi

// Request type discriminators.
const (
	TypePing          = "ping"
	TypeCreateAuction = "create_auction"
	TypeSetupAuction  = "setup_auction"
	TypePlaceBid      = "place_bid"
	TypeCloseAuction  = "close_auction"
	TypeQueryAuction  = "query_auction"
	TypeQueryBalance  = "query_balance"
)

// BaseRequest is decoded first to dispatch on the request type.
type BaseRequest struct {
	Type string `json:"type"`
}

// CreateAuctionRequest creates a new auction instance. Amounts are in
// micro-units of the ledger currency; times are unix seconds.
type CreateAuctionRequest struct {
	Type            string `json:"type"`
	Seller          string `json:"seller"`
	AssetID         uint64 `json:"asset_id"`
	AssetAmount     uint64 `json:"asset_amount"`
	StartTime       int64  `json:"start_time"`
	EndTime         int64  `json:"end_time"`
	ReservePrice    uint64 `json:"reserve_price"`
	MinBidIncrement uint64 `json:"min_bid_increment"`
	RoyaltyPct      uint8  `json:"royalty_percentage"`
	AssetCreator    string `json:"asset_creator"`
}

// SetupAuctionRequest funds an auction's escrow with the asset and the
// minimum-balance seed.
type SetupAuctionRequest struct {
	Type        string `json:"type"`
	AuctionID   string `json:"auction_id"`
	Funder      string `json:"funder"`
	AssetHolder string `json:"asset_holder"`
}

// PlaceBidRequest submits a bid on an open auction.
type PlaceBidRequest struct {
	Type      string `json:"type"`
	AuctionID string `json:"auction_id"`
	Bidder    string `json:"bidder"`
	BidAmount uint64 `json:"bid_amount"`
}

// CloseAuctionRequest settles an auction after its end time.
type CloseAuctionRequest struct {
	Type      string `json:"type"`
	AuctionID string `json:"auction_id"`
	Caller    string `json:"caller"`
}

// QueryAuctionRequest fetches a snapshot of one auction.
type QueryAuctionRequest struct {
	Type      string `json:"type"`
	AuctionID string `json:"auction_id"`
}

// AuctionInfo is the wire snapshot of an auction instance.
type AuctionInfo struct {
	AuctionID       string `json:"auction_id"`
	EscrowAddress   string `json:"escrow_address"`
	Seller          string `json:"seller"`
	AssetID         uint64 `json:"asset_id"`
	AssetAmount     uint64 `json:"asset_amount"`
	StartTime       int64  `json:"start_time"`
	EndTime         int64  `json:"end_time"`
	ReservePrice    uint64 `json:"reserve_price"`
	MinBidIncrement uint64 `json:"min_bid_increment"`
	RoyaltyPct      uint8  `json:"royalty_percentage"`
	AssetCreator    string `json:"asset_creator"`
	Status          string `json:"status"`
	HighestBidder   string `json:"highest_bidder,omitempty"`
	HighestBid      uint64 `json:"highest_bid"`
}

// QueryBalanceRequest fetches an account's currency balance and, when
// asset_id is non-zero, its holding of that asset.
type QueryBalanceRequest struct {
	Type    string `json:"type"`
	Account string `json:"account"`
	AssetID uint64 `json:"asset_id,omitempty"`
}

// BalanceInfo reports an account's holdings. Currency is given both in
// micro-units and as a display-unit string.
type BalanceInfo struct {
	Account        string `json:"account"`
	Balance        uint64 `json:"balance"`
	BalanceDisplay string `json:"balance_display"`
	AssetID        uint64 `json:"asset_id,omitempty"`
	AssetBalance   uint64 `json:"asset_balance,omitempty"`
}

// Response is the uniform reply envelope.
type Response struct {
	Type    string       `json:"type"`
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Auction *AuctionInfo `json:"auction,omitempty"`
	Balance *BalanceInfo `json:"balance,omitempty"`
}
