package auction

import (
	sdkmath "cosmossdk.io/math"

	"github.com/SanatSharma/auction-demo/ledger"
)

// SplitRoyalty divides a winning bid between the seller and the asset
// creator.
//
// Formula: royalty = floor(bid * pct / 100), sellerNet = bid - royalty
//
// The split is computed with big-integer arithmetic so it is exact for every
// uint64 bid (bid * pct overflows uint64 for large bids), and sellerNet +
// royalty always equals bid — no remainder is lost or created.
func SplitRoyalty(bid uint64, pct uint8) (sellerNet, royalty uint64) {
	if pct > 100 {
		pct = 100
	}
	r := sdkmath.NewIntFromUint64(bid).
		MulRaw(int64(pct)).
		QuoRaw(100)
	royalty = r.Uint64()
	return bid - royalty, royalty
}

// settlementBatch stages the final transfer set for a close. Invoked exactly
// once per auction, from CloseAuction, and committed jointly with the
// Closed status write.
//
// With a qualifying bid: sellerNet to the seller, royalty to the asset
// creator, the full asset amount to the winner, and the setup seed back to
// the funder. Without one: the asset returns to the seller and only the seed
// moves. Either way the escrow ends at zero currency and zero asset.
func (s *state) settlementBatch() *ledger.Batch {
	batch := ledger.NewBatch(s.controller)

	if s.highestBid > 0 {
		sellerNet, royalty := SplitRoyalty(s.highestBid, s.params.RoyaltyPct)
		if sellerNet > 0 {
			batch.TransferCurrency(sellerNet, s.escrow, s.params.Seller)
		}
		if royalty > 0 {
			batch.TransferCurrency(royalty, s.escrow, s.params.AssetCreator)
		}
		batch.TransferAsset(s.params.AssetID, s.params.AssetAmount, s.escrow, s.highestBidder)
	} else {
		batch.TransferAsset(s.params.AssetID, s.params.AssetAmount, s.escrow, s.params.Seller)
	}

	// Return the minimum-balance seed paid at setup, draining the escrow.
	batch.TransferCurrency(ledger.MinBalance, s.escrow, s.funder)
	return batch
}
