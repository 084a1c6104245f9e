// Package auction implements a single-item ascending-price auction as a set
// of deterministic, totally ordered state transitions: create, setup, bid,
// close. An escrow account derived from the instance ID holds the asset and
// the pending highest bid; displaced bidders are refunded in the same atomic
// batch that admits the new bid, and closing performs the full settlement
// transfer set jointly with the terminal status write.
package auction

import (
	"fmt"
	"sync"

	errorsmod "cosmossdk.io/errors"
	"github.com/google/uuid"

	"github.com/SanatSharma/auction-demo/ledger"
	"github.com/SanatSharma/auction-demo/store"
)

// Handle identifies an auction instance and its derived escrow account.
type Handle struct {
	ID     uuid.UUID
	Escrow ledger.AccountID
}

// Info is a consistent snapshot of one auction, taken between operations.
type Info struct {
	Handle        Handle
	Params        Parameters
	Status        Status
	HighestBidder ledger.AccountID // empty when no bid admitted
	HighestBid    uint64           // zero when no bid admitted
}

// state is the mutable record of one auction. The bid slot (highestBidder,
// highestBid) is written only inside PlaceBid under the engine mutex.
type state struct {
	id     uuid.UUID
	escrow ledger.AccountID
	params Parameters

	status        Status
	highestBidder ledger.AccountID
	highestBid    uint64

	// funder paid the escrow seed at setup and receives it back at close.
	funder ledger.AccountID

	// controller authorizes debits from the escrow account. It never leaves
	// the engine, so the escrow is exclusively controlled by auction logic.
	controller uuid.UUID
}

// Engine owns every auction instance and validates and applies operations
// against the ledger substrate. Each operation executes as one indivisible
// unit under the engine mutex; concurrent callers are resolved purely by the
// order in which they acquire it.
type Engine struct {
	mu       sync.Mutex
	ledger   *ledger.Ledger
	clock    ledger.Clock
	store    store.Store
	auctions map[uuid.UUID]*state
}

// NewEngine creates an engine over the given substrate and reloads any
// auctions the store already holds.
func NewEngine(l *ledger.Ledger, clock ledger.Clock, st store.Store) (*Engine, error) {
	e := &Engine{
		ledger:   l,
		clock:    clock,
		store:    st,
		auctions: make(map[uuid.UUID]*state),
	}

	records, err := st.Load()
	if err != nil {
		return nil, fmt.Errorf("load auction records: %w", err)
	}
	for _, rec := range records {
		s := stateFromRecord(rec)
		l.RegisterControlled(s.escrow, s.controller)
		e.auctions[s.id] = s
	}
	return e, nil
}

// CreateAuctionApp validates the parameters, allocates a new auction in
// Created status and derives its escrow account. No funds move.
func (e *Engine) CreateAuctionApp(params Parameters) (Handle, error) {
	if err := params.Validate(); err != nil {
		return Handle{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	id := uuid.New()
	s := &state{
		id:         id,
		escrow:     EscrowAddress(id),
		params:     params,
		status:     StatusCreated,
		controller: uuid.New(),
	}
	e.ledger.RegisterControlled(s.escrow, s.controller)
	e.auctions[id] = s

	if err := e.persist(s); err != nil {
		delete(e.auctions, id)
		return Handle{}, err
	}
	return Handle{ID: id, Escrow: s.escrow}, nil
}

// SetupAuctionApp funds the escrow: the full asset amount from assetHolder
// plus the minimum-balance currency seed from funder, committed jointly with
// the Created→Funded transition.
func (e *Engine) SetupAuctionApp(h Handle, funder, assetHolder ledger.AccountID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.get(h)
	if err != nil {
		return err
	}
	if s.status != StatusCreated {
		return errorsmod.Wrapf(ErrAlreadyFunded, "status is %s", s.status)
	}
	if !e.ledger.HasAsset(assetHolder, s.params.AssetID, s.params.AssetAmount) {
		return errorsmod.Wrapf(ErrAssetMismatch,
			"%s does not hold %d units of asset %d", assetHolder, s.params.AssetAmount, s.params.AssetID)
	}
	if err := coversDebit(e.ledger.BalanceOf(funder), ledger.MinBalance); err != nil {
		return errorsmod.Wrapf(ErrInsufficientFunding,
			"funder %s cannot cover the %d escrow seed: %v", funder, ledger.MinBalance, err)
	}

	batch := ledger.NewBatch(s.controller).
		TransferCurrency(ledger.MinBalance, funder, s.escrow).
		TransferAsset(s.params.AssetID, s.params.AssetAmount, assetHolder, s.escrow)

	return e.ledger.Execute(batch, func() {
		s.status = StatusFunded
		s.funder = funder
		e.mustPersist(s)
	})
}

// PlaceBid admits a bid inside the time window, refunding the displaced
// bidder in the same atomic batch that escrows the new amount. A rejected
// bid leaves the auction state unchanged.
func (e *Engine) PlaceBid(h Handle, bidder ledger.AccountID, amount uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.get(h)
	if err != nil {
		return err
	}
	switch s.status {
	case StatusCreated:
		return errorsmod.Wrap(ErrAuctionNotStarted, "auction is not funded")
	case StatusClosed:
		return errorsmod.Wrap(ErrAuctionEnded, "auction is closed")
	}

	now := e.clock.Now()
	if now < s.params.StartTime {
		return errorsmod.Wrapf(ErrAuctionNotStarted,
			"now %d is before start time %d", now, s.params.StartTime)
	}
	if now >= s.params.EndTime {
		return errorsmod.Wrapf(ErrAuctionEnded,
			"now %d is past end time %d", now, s.params.EndTime)
	}

	minBid, ok := s.params.minQualifyingBid(s.highestBid)
	if !ok {
		return errorsmod.Wrapf(ErrBidTooLow,
			"required minimum above current highest %d is not representable", s.highestBid)
	}
	if amount < minBid {
		return errorsmod.Wrapf(ErrBidTooLow, "bid %d below minimum %d", amount, minBid)
	}
	if err := coversDebit(e.ledger.BalanceOf(bidder), amount); err != nil {
		return errorsmod.Wrapf(ErrInsufficientFunds,
			"bidder %s cannot cover bid of %d: %v", bidder, amount, err)
	}

	// Refund-then-accept as one batch: at no observable point are both the
	// old and new bid amounts held, or neither.
	batch := ledger.NewBatch(s.controller)
	if s.highestBid > 0 {
		batch.TransferCurrency(s.highestBid, s.escrow, s.highestBidder)
	}
	batch.TransferCurrency(amount, bidder, s.escrow)

	return e.ledger.Execute(batch, func() {
		s.highestBidder = bidder
		s.highestBid = amount
		s.status = StatusOpen
		e.mustPersist(s)
	})
}

// CloseAuction settles the auction after its end time: proceeds to the
// seller, royalty to the asset creator, the asset to the winner (or back to
// the seller when no bid qualified) and the seed back to the funder, all
// committed jointly with the transition to Closed. A second close fails with
// ErrAlreadyClosed and performs no transfers.
func (e *Engine) CloseAuction(h Handle, caller ledger.AccountID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.get(h)
	if err != nil {
		return err
	}
	if s.status == StatusClosed {
		return errorsmod.Wrapf(ErrAlreadyClosed, "close requested by %s", caller)
	}
	if s.status == StatusCreated {
		return errorsmod.Wrap(ErrAuctionNotEnded, "auction was never funded")
	}

	now := e.clock.Now()
	if now < s.params.EndTime {
		return errorsmod.Wrapf(ErrAuctionNotEnded,
			"now %d is before end time %d", now, s.params.EndTime)
	}

	return e.ledger.Execute(s.settlementBatch(), func() {
		s.status = StatusClosed
		e.mustPersist(s)
	})
}

// GetAuction returns a consistent snapshot of the auction.
func (e *Engine) GetAuction(id uuid.UUID) (Info, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.auctions[id]
	if !ok {
		return Info{}, errorsmod.Wrapf(ErrAuctionNotFound, "%s", id)
	}
	return Info{
		Handle:        Handle{ID: s.id, Escrow: s.escrow},
		Params:        s.params,
		Status:        s.status,
		HighestBidder: s.highestBidder,
		HighestBid:    s.highestBid,
	}, nil
}

// coversDebit reports whether a balance can pay amount under the ledger's
// retention rule: the payer must either retain MinBalance or be closed out to
// exactly zero.
func coversDebit(balance, amount uint64) error {
	if balance < amount {
		return fmt.Errorf("holds %d", balance)
	}
	remaining := balance - amount
	if remaining > 0 && remaining < ledger.MinBalance {
		return fmt.Errorf("would retain %d, below the %d minimum", remaining, ledger.MinBalance)
	}
	return nil
}

func (e *Engine) get(h Handle) (*state, error) {
	s, ok := e.auctions[h.ID]
	if !ok {
		return nil, errorsmod.Wrapf(ErrAuctionNotFound, "%s", h.ID)
	}
	return s, nil
}

func (e *Engine) persist(s *state) error {
	if err := e.store.Save(recordFromState(s)); err != nil {
		return fmt.Errorf("persist auction %s: %w", s.id, err)
	}
	return nil
}

// mustPersist is used inside ledger commits, where the transfers are
// already final and cannot be unwound. Losing the durable record of a
// committed transition is a fatal inconsistency, not a recoverable error.
func (e *Engine) mustPersist(s *state) {
	if err := e.persist(s); err != nil {
		panic(fmt.Sprintf("auction %s: committed state lost: %v", s.id, err))
	}
}

func recordFromState(s *state) store.Record {
	return store.Record{
		ID:            s.id,
		Escrow:        string(s.escrow),
		Seller:        string(s.params.Seller),
		AssetID:       uint64(s.params.AssetID),
		AssetAmount:   s.params.AssetAmount,
		StartTime:     s.params.StartTime,
		EndTime:       s.params.EndTime,
		ReservePrice:  s.params.ReservePrice,
		MinIncrement:  s.params.MinBidIncrement,
		RoyaltyPct:    s.params.RoyaltyPct,
		AssetCreator:  string(s.params.AssetCreator),
		Status:        uint8(s.status),
		HighestBidder: string(s.highestBidder),
		HighestBid:    s.highestBid,
		Funder:        string(s.funder),
	}
}

func stateFromRecord(rec store.Record) *state {
	return &state{
		id:     rec.ID,
		escrow: ledger.AccountID(rec.Escrow),
		params: Parameters{
			Seller:          ledger.AccountID(rec.Seller),
			AssetID:         ledger.AssetID(rec.AssetID),
			AssetAmount:     rec.AssetAmount,
			StartTime:       rec.StartTime,
			EndTime:         rec.EndTime,
			ReservePrice:    rec.ReservePrice,
			MinBidIncrement: rec.MinIncrement,
			RoyaltyPct:      rec.RoyaltyPct,
			AssetCreator:    ledger.AccountID(rec.AssetCreator),
		},
		status:        Status(rec.Status),
		highestBidder: ledger.AccountID(rec.HighestBidder),
		highestBid:    rec.HighestBid,
		funder:        ledger.AccountID(rec.Funder),
		controller:    uuid.New(),
	}
}
