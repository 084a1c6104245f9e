// Command escrow-verify recomputes the escrow account for an auction ID and,
// optionally, checks a claimed escrow address against it. The derivation is a
// pure function of the ID, so any party can verify "this is the correct
// escrow for auction X" without trusting stored state.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/SanatSharma/auction-demo/auction"
)

func main() {
	var (
		auctionID = flag.String("auction-id", "", "Auction instance ID (UUID)")
		claimed   = flag.String("escrow", "", "Claimed escrow address to check (optional)")
	)
	flag.Parse()

	if *auctionID == "" {
		fmt.Fprintln(os.Stderr, "Usage: escrow-verify --auction-id <uuid> [--escrow <address>]")
		os.Exit(1)
	}

	id, err := uuid.Parse(*auctionID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid auction id %q: %v\n", *auctionID, err)
		os.Exit(2)
	}

	derived := auction.EscrowAddress(id)
	fmt.Printf("Auction:  %s\n", id)
	fmt.Printf("Escrow:   %s\n", derived)

	if *claimed != "" {
		if string(derived) == *claimed {
			fmt.Println("Result:   MATCH")
		} else {
			fmt.Println("Result:   MISMATCH")
			os.Exit(3)
		}
	}
}
