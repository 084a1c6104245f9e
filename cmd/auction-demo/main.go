// Command auction-demo runs the full auction flow against an in-process
// ledger: Alice mints an NFT and sells it to Jack, Bob creates an auction for
// it, Carla bids, and Jack closes the auction after it ends. Balances are
// printed at each step so the settlement can be followed by eye.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/SanatSharma/auction-demo/auction"
	"github.com/SanatSharma/auction-demo/auctionapi"
	"github.com/SanatSharma/auction-demo/ledger"
	"github.com/SanatSharma/auction-demo/store"
)

const (
	initialBalance = 10_000_000 // 10 units for every demo account
	reserve        = 1_000_000
	increment      = 100_000
	royaltyPct     = 10
	nftAmount      = 1
)

func main() {
	var (
		duration = flag.Int64("duration", 30, "auction length in seconds (demo clock)")
		lead     = flag.Int64("lead", 10, "seconds between creation and start (demo clock)")
	)
	flag.Parse()

	if err := run(*lead, *duration); err != nil {
		fmt.Fprintf(os.Stderr, "demo failed: %v\n", err)
		os.Exit(1)
	}
}

func run(lead, duration int64) error {
	l := ledger.NewLedger()
	clock := ledger.NewManualClock(1_000_000)
	engine, err := auction.NewEngine(l, clock, store.NewMemStore())
	if err != nil {
		return err
	}

	const (
		alice ledger.AccountID = "alice" // NFT creator, receives the royalty
		jack  ledger.AccountID = "jack"  // current seller
		bob   ledger.AccountID = "bob"   // auction creator and funder
		carla ledger.AccountID = "carla" // bidder
	)
	for _, acct := range []ledger.AccountID{alice, jack, bob, carla} {
		l.Fund(acct, initialBalance)
	}

	fmt.Println("Generating demo accounts...")
	fmt.Println("Alice (NFT creator):", alice)
	fmt.Println("Jack (seller):", jack)
	fmt.Println("Bob (auction creator):", bob)
	fmt.Println("Carla (bidder):", carla)
	fmt.Println()

	fmt.Println("Alice is minting an example NFT...")
	nftID := l.Mint(alice, nftAmount)
	fmt.Println("The NFT ID is", nftID)
	fmt.Println("Alice owns the NFT:", l.HasAsset(alice, nftID, nftAmount))
	fmt.Println()

	fmt.Println("Alice sold the NFT to Jack...")
	sale := ledger.NewBatch(uuid.Nil).
		TransferAsset(nftID, nftAmount, alice, jack)
	if err := l.Execute(sale, nil); err != nil {
		return err
	}
	fmt.Println("Jack owns the NFT:", l.HasAsset(jack, nftID, nftAmount))
	fmt.Println()

	startTime := clock.Now() + lead
	endTime := startTime + duration
	fmt.Printf("Bob is creating an auction that lasts %d seconds to auction off the NFT...\n", duration)
	handle, err := engine.CreateAuctionApp(auction.Parameters{
		Seller:          jack,
		AssetID:         nftID,
		AssetAmount:     nftAmount,
		StartTime:       startTime,
		EndTime:         endTime,
		ReservePrice:    reserve,
		MinBidIncrement: increment,
		RoyaltyPct:      royaltyPct,
		AssetCreator:    alice,
	})
	if err != nil {
		return err
	}
	fmt.Println("Done. The auction ID is", handle.ID, "and the escrow account is", handle.Escrow)
	fmt.Println()

	fmt.Println("Bob is setting up and funding the NFT auction...")
	if err := engine.SetupAuctionApp(handle, bob, jack); err != nil {
		return err
	}
	fmt.Println("Escrow now holds the NFT:", l.HasAsset(handle.Escrow, nftID, nftAmount))
	printBalances(l, "Escrow", handle.Escrow)
	fmt.Println()

	sellerBefore := l.BalanceOf(jack)
	creatorBefore := l.BalanceOf(alice)

	clock.SetNow(startTime + 1)
	fmt.Printf("Carla is placing a bid for %s\n", auctionapi.FormatAmount(reserve))
	if err := engine.PlaceBid(handle, carla, reserve); err != nil {
		return err
	}
	info, err := engine.GetAuction(handle.ID)
	if err != nil {
		return err
	}
	fmt.Printf("Highest bid is now %s by %s (status %s)\n",
		auctionapi.FormatAmount(info.HighestBid), info.HighestBidder, info.Status)
	fmt.Println()

	clock.SetNow(endTime + 1)
	fmt.Println("The auction has ended. Jack is closing it out...")
	if err := engine.CloseAuction(handle, jack); err != nil {
		return err
	}
	fmt.Println()

	sellerNet, royalty := auction.SplitRoyalty(reserve, royaltyPct)
	fmt.Println("Carla owns the NFT:", l.HasAsset(carla, nftID, nftAmount))
	fmt.Printf("Jack received %s for the sale\n", auctionapi.FormatAmount(l.BalanceOf(jack)-sellerBefore))
	fmt.Printf("Alice received %s in royalties\n", auctionapi.FormatAmount(l.BalanceOf(alice)-creatorBefore))
	printBalances(l, "Escrow", handle.Escrow)

	if l.BalanceOf(jack)-sellerBefore != sellerNet {
		return fmt.Errorf("seller proceeds mismatch: got %d, want %d", l.BalanceOf(jack)-sellerBefore, sellerNet)
	}
	if l.BalanceOf(alice)-creatorBefore != royalty {
		return fmt.Errorf("royalty mismatch: got %d, want %d", l.BalanceOf(alice)-creatorBefore, royalty)
	}
	if l.BalanceOf(handle.Escrow) != 0 || l.AssetBalanceOf(handle.Escrow, nftID) != 0 {
		return fmt.Errorf("escrow not drained")
	}

	fmt.Println("\nAuction settled cleanly.")
	return nil
}

func printBalances(l *ledger.Ledger, name string, id ledger.AccountID) {
	fmt.Printf("%s balance: %s\n", name, auctionapi.FormatAmount(l.BalanceOf(id)))
}
