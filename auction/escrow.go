package auction

import (
	"crypto/sha256"
	"fmt"

	"github.com/google/uuid"

	"github.com/SanatSharma/auction-demo/ledger"
)

// EscrowAddress derives the escrow account for an auction instance.
//
// Formula: "escrow-" + hex(SHA256("auction-escrow|" + instanceID))
//
// The derivation is a pure function of the instance ID with no key material,
// so any external party can recompute it and verify that a given account is
// the correct escrow for auction X without consulting stored state.
func EscrowAddress(id uuid.UUID) ledger.AccountID {
	data := fmt.Sprintf("auction-escrow|%s", id)
	hash := sha256.Sum256([]byte(data))
	return ledger.AccountID(fmt.Sprintf("escrow-%x", hash))
}
