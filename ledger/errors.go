package ledger

import (
	errorsmod "cosmossdk.io/errors"
)

// ledger sentinel errors
var (
	ErrUnknownAccount           = errorsmod.Register(codespace, 1, "unknown account")
	ErrUnknownAsset             = errorsmod.Register(codespace, 2, "unknown asset")
	ErrInsufficientBalance      = errorsmod.Register(codespace, 3, "insufficient currency balance")
	ErrInsufficientAssetBalance = errorsmod.Register(codespace, 4, "insufficient asset balance")
	ErrUnauthorized             = errorsmod.Register(codespace, 5, "debit from controlled account requires its controller")
	ErrBelowMinBalance          = errorsmod.Register(codespace, 6, "debit would leave account below minimum balance")
	ErrBalanceOverflow          = errorsmod.Register(codespace, 7, "credit would overflow account balance")
	ErrEmptyBatch               = errorsmod.Register(codespace, 8, "batch contains no steps")
)

const codespace = "ledger"
