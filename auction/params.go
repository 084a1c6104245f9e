package auction

import (
	"math/bits"

	errorsmod "cosmossdk.io/errors"

	"github.com/SanatSharma/auction-demo/ledger"
)

// Parameters are the immutable terms of an auction, fixed at creation.
// Times are unix seconds on the injected clock's timeline.
type Parameters struct {
	Seller          ledger.AccountID
	AssetID         ledger.AssetID
	AssetAmount     uint64
	StartTime       int64
	EndTime         int64
	ReservePrice    uint64
	MinBidIncrement uint64
	RoyaltyPct      uint8
	AssetCreator    ledger.AccountID
}

// Validate checks the parameter invariants. Every violation maps to
// ErrInvalidParameters so callers can treat the whole class uniformly.
func (p Parameters) Validate() error {
	if p.StartTime >= p.EndTime {
		return errorsmod.Wrapf(ErrInvalidParameters,
			"start time (%d) must be before end time (%d)", p.StartTime, p.EndTime)
	}
	if p.RoyaltyPct > 100 {
		return errorsmod.Wrapf(ErrInvalidParameters,
			"royalty percentage %d out of range [0,100]", p.RoyaltyPct)
	}
	if p.AssetAmount == 0 {
		return errorsmod.Wrap(ErrInvalidParameters, "asset amount must be positive")
	}
	if p.Seller == "" {
		return errorsmod.Wrap(ErrInvalidParameters, "seller is required")
	}
	if p.AssetCreator == "" {
		return errorsmod.Wrap(ErrInvalidParameters, "asset creator is required")
	}
	return nil
}

// minQualifyingBid returns the smallest bid the auction currently accepts:
// the reserve price for the first bid, previous highest plus the increment
// afterwards. ok is false when that minimum exceeds the uint64 ceiling, in
// which case no bid can displace the current highest.
func (p Parameters) minQualifyingBid(highestBid uint64) (minBid uint64, ok bool) {
	if highestBid == 0 {
		return p.ReservePrice, true
	}
	sum, carry := bits.Add64(highestBid, p.MinBidIncrement, 0)
	return sum, carry == 0
}
