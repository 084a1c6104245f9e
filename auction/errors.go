package auction

import (
	errorsmod "cosmossdk.io/errors"
)

// auction protocol sentinel errors
var (
	// parameter errors: rejected before any state is allocated
	ErrInvalidParameters = errorsmod.Register(codespace, 1, "invalid auction parameters")

	// sequencing errors: caller or time-window misuse, state unchanged
	ErrAuctionNotFound   = errorsmod.Register(codespace, 2, "auction not found")
	ErrAlreadyFunded     = errorsmod.Register(codespace, 3, "auction already funded")
	ErrAuctionNotStarted = errorsmod.Register(codespace, 4, "auction has not started")
	ErrAuctionEnded      = errorsmod.Register(codespace, 5, "auction has ended")
	ErrAuctionNotEnded   = errorsmod.Register(codespace, 6, "auction has not ended")
	ErrAlreadyClosed     = errorsmod.Register(codespace, 7, "auction already closed")

	// value errors: rejected before any transfer is attempted
	ErrBidTooLow           = errorsmod.Register(codespace, 8, "bid below required minimum")
	ErrAssetMismatch       = errorsmod.Register(codespace, 9, "escrowed asset does not match auction parameters")
	ErrInsufficientFunds   = errorsmod.Register(codespace, 10, "bidder cannot cover bid amount")
	ErrInsufficientFunding = errorsmod.Register(codespace, 11, "funder cannot cover escrow seed")
)

const codespace = "auction"
