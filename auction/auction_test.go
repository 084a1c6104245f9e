package auction

import (
	"errors"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"

	"github.com/SanatSharma/auction-demo/ledger"
	"github.com/SanatSharma/auction-demo/store"
)

const (
	startTime = int64(1_000)
	endTime   = int64(2_000)
	reserve   = uint64(1_000_000)
	increment = uint64(100_000)

	seller  = ledger.AccountID("jack")
	creator = ledger.AccountID("alice")
	funder  = ledger.AccountID("bob")
	carla   = ledger.AccountID("carla")
	dave    = ledger.AccountID("dave")

	startingBalance = uint64(10_000_000)
)

type testEnv struct {
	engine *Engine
	ledger *ledger.Ledger
	clock  *ledger.ManualClock
	store  *store.MemStore
	nftID  ledger.AssetID
}

// newTestEnv builds a funded world: every named account holds currency, the
// seller holds one freshly minted NFT, and the clock sits before startTime.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	l := ledger.NewLedger()
	for _, acct := range []ledger.AccountID{seller, creator, funder, carla, dave} {
		l.Fund(acct, startingBalance)
	}
	nftID := l.Mint(seller, 1)

	clock := ledger.NewManualClock(startTime - 100)
	st := store.NewMemStore()
	engine, err := NewEngine(l, clock, st)
	assert.Nil(t, err)

	return &testEnv{engine: engine, ledger: l, clock: clock, store: st, nftID: nftID}
}

func (env *testEnv) params() Parameters {
	return Parameters{
		Seller:          seller,
		AssetID:         env.nftID,
		AssetAmount:     1,
		StartTime:       startTime,
		EndTime:         endTime,
		ReservePrice:    reserve,
		MinBidIncrement: increment,
		RoyaltyPct:      10,
		AssetCreator:    creator,
	}
}

// createFunded creates and sets up an auction, leaving it in Funded status.
func (env *testEnv) createFunded(t *testing.T) Handle {
	t.Helper()
	handle, err := env.engine.CreateAuctionApp(env.params())
	assert.Nil(t, err)
	assert.Nil(t, env.engine.SetupAuctionApp(handle, funder, seller))
	return handle
}

func (env *testEnv) info(t *testing.T, h Handle) Info {
	t.Helper()
	info, err := env.engine.GetAuction(h.ID)
	assert.Nil(t, err)
	return info
}

func TestCreateAuctionApp(t *testing.T) {
	env := newTestEnv(t)

	handle, err := env.engine.CreateAuctionApp(env.params())
	assert.Nil(t, err)

	// The escrow address is the pure derivation of the instance ID.
	check.Equal(t, EscrowAddress(handle.ID), handle.Escrow)

	info := env.info(t, handle)
	check.Equal(t, StatusCreated, info.Status)
	check.Equal(t, uint64(0), info.HighestBid)
	check.Equal(t, ledger.AccountID(""), info.HighestBidder)

	// No funds move at creation.
	check.Equal(t, uint64(0), env.ledger.BalanceOf(handle.Escrow))
	check.Equal(t, uint64(0), env.ledger.AssetBalanceOf(handle.Escrow, env.nftID))
}

func TestCreateAuctionApp_InvalidParameters(t *testing.T) {
	env := newTestEnv(t)

	params := env.params()
	params.StartTime = params.EndTime
	_, err := env.engine.CreateAuctionApp(params)
	check.True(t, errors.Is(err, ErrInvalidParameters))
}

func TestGetAuction_UnknownID(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.engine.GetAuction(uuid.New())
	check.True(t, errors.Is(err, ErrAuctionNotFound))
}

func TestSetupAuctionApp(t *testing.T) {
	env := newTestEnv(t)
	handle, err := env.engine.CreateAuctionApp(env.params())
	assert.Nil(t, err)

	assert.Nil(t, env.engine.SetupAuctionApp(handle, funder, seller))

	info := env.info(t, handle)
	check.Equal(t, StatusFunded, info.Status)

	// Escrow holds the asset and the minimum-balance seed.
	check.Equal(t, uint64(1), env.ledger.AssetBalanceOf(handle.Escrow, env.nftID))
	check.Equal(t, ledger.MinBalance, env.ledger.BalanceOf(handle.Escrow))
	check.Equal(t, startingBalance-ledger.MinBalance, env.ledger.BalanceOf(funder))
	check.Equal(t, uint64(0), env.ledger.AssetBalanceOf(seller, env.nftID))
}

func TestSetupAuctionApp_AlreadyFunded(t *testing.T) {
	env := newTestEnv(t)
	handle := env.createFunded(t)

	err := env.engine.SetupAuctionApp(handle, funder, seller)
	check.True(t, errors.Is(err, ErrAlreadyFunded))

	// The failed second setup moved nothing.
	check.Equal(t, ledger.MinBalance, env.ledger.BalanceOf(handle.Escrow))
	check.Equal(t, startingBalance-ledger.MinBalance, env.ledger.BalanceOf(funder))
}

func TestSetupAuctionApp_AssetMismatch(t *testing.T) {
	env := newTestEnv(t)
	handle, err := env.engine.CreateAuctionApp(env.params())
	assert.Nil(t, err)

	// Carla never held the NFT.
	err = env.engine.SetupAuctionApp(handle, funder, carla)
	check.True(t, errors.Is(err, ErrAssetMismatch))

	info := env.info(t, handle)
	check.Equal(t, StatusCreated, info.Status)
	check.Equal(t, uint64(0), env.ledger.BalanceOf(handle.Escrow))
}

func TestSetupAuctionApp_InsufficientFunding(t *testing.T) {
	env := newTestEnv(t)
	handle, err := env.engine.CreateAuctionApp(env.params())
	assert.Nil(t, err)

	env.ledger.CreateAccount("pauper")
	err = env.engine.SetupAuctionApp(handle, "pauper", seller)
	check.True(t, errors.Is(err, ErrInsufficientFunding))

	// Neither leg of the pairing applied: the seller still holds the asset.
	info := env.info(t, handle)
	check.Equal(t, StatusCreated, info.Status)
	check.Equal(t, uint64(1), env.ledger.AssetBalanceOf(seller, env.nftID))
}

func TestPlaceBid_BeforeStart(t *testing.T) {
	env := newTestEnv(t)
	handle := env.createFunded(t)

	err := env.engine.PlaceBid(handle, carla, reserve)
	check.True(t, errors.Is(err, ErrAuctionNotStarted))
	check.Equal(t, startingBalance, env.ledger.BalanceOf(carla))
}

func TestPlaceBid_OnUnfundedAuction(t *testing.T) {
	env := newTestEnv(t)
	handle, err := env.engine.CreateAuctionApp(env.params())
	assert.Nil(t, err)

	env.clock.SetNow(startTime + 1)
	err = env.engine.PlaceBid(handle, carla, reserve)
	check.True(t, errors.Is(err, ErrAuctionNotStarted))
}

func TestPlaceBid_AfterEnd(t *testing.T) {
	env := newTestEnv(t)
	handle := env.createFunded(t)

	env.clock.SetNow(endTime)
	err := env.engine.PlaceBid(handle, carla, reserve)
	check.True(t, errors.Is(err, ErrAuctionEnded))
}

func TestPlaceBid_BelowReserve(t *testing.T) {
	env := newTestEnv(t)
	handle := env.createFunded(t)
	env.clock.SetNow(startTime + 1)

	before := env.info(t, handle)
	err := env.engine.PlaceBid(handle, carla, reserve-1)
	check.True(t, errors.Is(err, ErrBidTooLow))

	// Rejected bids never touch the ledger slot.
	check.Equal(t, before, env.info(t, handle))
	check.Equal(t, startingBalance, env.ledger.BalanceOf(carla))
}

func TestPlaceBid_FirstQualifyingBidOpensAuction(t *testing.T) {
	env := newTestEnv(t)
	handle := env.createFunded(t)
	env.clock.SetNow(startTime + 1)

	assert.Nil(t, env.engine.PlaceBid(handle, carla, reserve))

	info := env.info(t, handle)
	check.Equal(t, StatusOpen, info.Status)
	check.Equal(t, carla, info.HighestBidder)
	check.Equal(t, reserve, info.HighestBid)

	check.Equal(t, startingBalance-reserve, env.ledger.BalanceOf(carla))
	check.Equal(t, ledger.MinBalance+reserve, env.ledger.BalanceOf(handle.Escrow))
}

func TestPlaceBid_BelowIncrement(t *testing.T) {
	env := newTestEnv(t)
	handle := env.createFunded(t)
	env.clock.SetNow(startTime + 1)

	assert.Nil(t, env.engine.PlaceBid(handle, carla, reserve))

	before := env.info(t, handle)
	err := env.engine.PlaceBid(handle, dave, reserve+increment-1)
	check.True(t, errors.Is(err, ErrBidTooLow))

	check.Equal(t, before, env.info(t, handle))
	check.Equal(t, startingBalance, env.ledger.BalanceOf(dave))
	check.Equal(t, startingBalance-reserve, env.ledger.BalanceOf(carla))
}

func TestPlaceBid_InsufficientFunds(t *testing.T) {
	env := newTestEnv(t)
	handle := env.createFunded(t)
	env.clock.SetNow(startTime + 1)

	env.ledger.Fund("poor", reserve-1)
	err := env.engine.PlaceBid(handle, "poor", reserve)
	check.True(t, errors.Is(err, ErrInsufficientFunds))

	info := env.info(t, handle)
	check.Equal(t, uint64(0), info.HighestBid)
}

func TestPlaceBid_DisplacedBidderRefundedExactly(t *testing.T) {
	env := newTestEnv(t)
	handle := env.createFunded(t)
	env.clock.SetNow(startTime + 1)

	assert.Nil(t, env.engine.PlaceBid(handle, carla, reserve))
	assert.Nil(t, env.engine.PlaceBid(handle, dave, reserve+increment))

	// Carla got back exactly what she escrowed, no more and no less.
	check.Equal(t, startingBalance, env.ledger.BalanceOf(carla))
	check.Equal(t, startingBalance-reserve-increment, env.ledger.BalanceOf(dave))

	// The escrow holds exactly the current highest bid plus the seed.
	check.Equal(t, ledger.MinBalance+reserve+increment, env.ledger.BalanceOf(handle.Escrow))

	info := env.info(t, handle)
	check.Equal(t, dave, info.HighestBidder)
	check.Equal(t, reserve+increment, info.HighestBid)
}

func TestPlaceBid_BidderCanRaiseOwnBid(t *testing.T) {
	env := newTestEnv(t)
	handle := env.createFunded(t)
	env.clock.SetNow(startTime + 1)

	assert.Nil(t, env.engine.PlaceBid(handle, carla, reserve))
	assert.Nil(t, env.engine.PlaceBid(handle, carla, reserve+increment))

	// Only the new amount is held: the old bid was refunded in the same batch.
	check.Equal(t, startingBalance-reserve-increment, env.ledger.BalanceOf(carla))
	check.Equal(t, ledger.MinBalance+reserve+increment, env.ledger.BalanceOf(handle.Escrow))
}

func TestPlaceBid_HighestBidIsMaxSubmitted(t *testing.T) {
	env := newTestEnv(t)
	handle := env.createFunded(t)
	env.clock.SetNow(startTime + 1)

	bids := []struct {
		bidder ledger.AccountID
		amount uint64
	}{
		{carla, reserve},
		{dave, reserve + increment},
		{carla, reserve + 3*increment},
		{dave, reserve + 5*increment},
	}
	var maxBid uint64
	for _, b := range bids {
		assert.Nil(t, env.engine.PlaceBid(handle, b.bidder, b.amount))
		info := env.info(t, handle)
		// Monotonically non-decreasing across the auction's lifetime.
		check.True(t, info.HighestBid >= maxBid)
		maxBid = info.HighestBid
	}

	info := env.info(t, handle)
	check.Equal(t, reserve+5*increment, info.HighestBid)
	check.Equal(t, dave, info.HighestBidder)
}

func TestPlaceBid_HugeHighestBidNotDisplacedByLowerBid(t *testing.T) {
	env := newTestEnv(t)
	params := env.params()
	params.ReservePrice = math.MaxUint64 - 150_000
	params.MinBidIncrement = 200_000

	handle, err := env.engine.CreateAuctionApp(params)
	assert.Nil(t, err)
	assert.Nil(t, env.engine.SetupAuctionApp(handle, funder, seller))

	whale := ledger.AccountID("whale")
	env.ledger.Fund(whale, params.ReservePrice)

	env.clock.SetNow(startTime + 1)
	assert.Nil(t, env.engine.PlaceBid(handle, whale, params.ReservePrice))

	// highest + increment exceeds the uint64 ceiling here; the required
	// minimum must not wrap around and let a lowball bid take the lead.
	err = env.engine.PlaceBid(handle, dave, 1_000_000)
	check.True(t, errors.Is(err, ErrBidTooLow))

	info := env.info(t, handle)
	check.Equal(t, params.ReservePrice, info.HighestBid)
	check.Equal(t, whale, info.HighestBidder)
	check.Equal(t, startingBalance, env.ledger.BalanceOf(dave))
}

func TestPlaceBid_CannotStrandBidderBelowMinBalance(t *testing.T) {
	env := newTestEnv(t)
	handle := env.createFunded(t)
	env.clock.SetNow(startTime + 1)

	// The bid would leave the bidder above zero but below the ledger
	// minimum, which no debit may do.
	env.ledger.Fund("tight", reserve+ledger.MinBalance-1)
	err := env.engine.PlaceBid(handle, "tight", reserve)
	check.True(t, errors.Is(err, ErrInsufficientFunds))
	check.Equal(t, uint64(0), env.info(t, handle).HighestBid)

	// An exact-balance bid closes the bidder out to zero and is accepted.
	env.ledger.Fund("exact", reserve)
	assert.Nil(t, env.engine.PlaceBid(handle, "exact", reserve))
	check.Equal(t, uint64(0), env.ledger.BalanceOf("exact"))
}

func TestSetupAuctionApp_SeedCannotStrandFunder(t *testing.T) {
	env := newTestEnv(t)
	handle, err := env.engine.CreateAuctionApp(env.params())
	assert.Nil(t, err)

	// This funder can pay the seed but would retain less than the minimum.
	env.ledger.Fund("scraping", ledger.MinBalance+1)
	err = env.engine.SetupAuctionApp(handle, "scraping", seller)
	check.True(t, errors.Is(err, ErrInsufficientFunding))
	check.Equal(t, StatusCreated, env.info(t, handle).Status)
}

func TestCloseAuction_BeforeEnd(t *testing.T) {
	env := newTestEnv(t)
	handle := env.createFunded(t)
	env.clock.SetNow(endTime - 1)

	err := env.engine.CloseAuction(handle, seller)
	check.True(t, errors.Is(err, ErrAuctionNotEnded))

	info := env.info(t, handle)
	check.Equal(t, StatusFunded, info.Status)
}

func TestCloseAuction_Settlement(t *testing.T) {
	env := newTestEnv(t)
	handle := env.createFunded(t)
	env.clock.SetNow(startTime + 1)

	assert.Nil(t, env.engine.PlaceBid(handle, carla, reserve))

	env.clock.SetNow(endTime + 1)
	assert.Nil(t, env.engine.CloseAuction(handle, seller))

	// reserve = 1_000_000, royalty 10%: seller nets 900_000, creator 100_000,
	// the bidder receives the asset, the funder recovers the seed, and the
	// escrow ends empty.
	check.Equal(t, startingBalance+900_000, env.ledger.BalanceOf(seller))
	check.Equal(t, startingBalance+100_000, env.ledger.BalanceOf(creator))
	check.Equal(t, uint64(1), env.ledger.AssetBalanceOf(carla, env.nftID))
	check.Equal(t, startingBalance, env.ledger.BalanceOf(funder))
	check.Equal(t, uint64(0), env.ledger.BalanceOf(handle.Escrow))
	check.Equal(t, uint64(0), env.ledger.AssetBalanceOf(handle.Escrow, env.nftID))

	info := env.info(t, handle)
	check.Equal(t, StatusClosed, info.Status)
}

func TestCloseAuction_NoBid(t *testing.T) {
	env := newTestEnv(t)
	handle := env.createFunded(t)

	env.clock.SetNow(endTime + 1)
	assert.Nil(t, env.engine.CloseAuction(handle, seller))

	// The asset returns to the seller; no auction proceeds move.
	check.Equal(t, uint64(1), env.ledger.AssetBalanceOf(seller, env.nftID))
	check.Equal(t, startingBalance, env.ledger.BalanceOf(seller))
	check.Equal(t, startingBalance, env.ledger.BalanceOf(creator))
	check.Equal(t, startingBalance, env.ledger.BalanceOf(funder))
	check.Equal(t, uint64(0), env.ledger.BalanceOf(handle.Escrow))
	check.Equal(t, uint64(0), env.ledger.AssetBalanceOf(handle.Escrow, env.nftID))
}

func TestCloseAuction_SecondCloseFailsWithoutTransfers(t *testing.T) {
	env := newTestEnv(t)
	handle := env.createFunded(t)
	env.clock.SetNow(startTime + 1)
	assert.Nil(t, env.engine.PlaceBid(handle, carla, reserve))

	env.clock.SetNow(endTime + 1)
	assert.Nil(t, env.engine.CloseAuction(handle, seller))

	sellerAfter := env.ledger.BalanceOf(seller)
	creatorAfter := env.ledger.BalanceOf(creator)

	err := env.engine.CloseAuction(handle, seller)
	check.True(t, errors.Is(err, ErrAlreadyClosed))

	// Zero transfers on the retry.
	check.Equal(t, sellerAfter, env.ledger.BalanceOf(seller))
	check.Equal(t, creatorAfter, env.ledger.BalanceOf(creator))
}

func TestCloseAuction_UnfundedAuction(t *testing.T) {
	env := newTestEnv(t)
	handle, err := env.engine.CreateAuctionApp(env.params())
	assert.Nil(t, err)

	env.clock.SetNow(endTime + 1)
	err = env.engine.CloseAuction(handle, seller)
	check.True(t, errors.Is(err, ErrAuctionNotEnded))
}

func TestPlaceBid_AfterClose(t *testing.T) {
	env := newTestEnv(t)
	handle := env.createFunded(t)
	env.clock.SetNow(endTime + 1)
	assert.Nil(t, env.engine.CloseAuction(handle, seller))

	err := env.engine.PlaceBid(handle, carla, reserve)
	check.True(t, errors.Is(err, ErrAuctionEnded))
}

func TestStatusNeverRegresses(t *testing.T) {
	env := newTestEnv(t)
	handle, err := env.engine.CreateAuctionApp(env.params())
	assert.Nil(t, err)
	check.Equal(t, StatusCreated, env.info(t, handle).Status)

	assert.Nil(t, env.engine.SetupAuctionApp(handle, funder, seller))
	check.Equal(t, StatusFunded, env.info(t, handle).Status)

	env.clock.SetNow(startTime + 1)
	assert.Nil(t, env.engine.PlaceBid(handle, carla, reserve))
	check.Equal(t, StatusOpen, env.info(t, handle).Status)

	// Failed operations do not move the status either way.
	check.True(t, errors.Is(env.engine.PlaceBid(handle, dave, reserve), ErrBidTooLow))
	check.Equal(t, StatusOpen, env.info(t, handle).Status)

	env.clock.SetNow(endTime + 1)
	assert.Nil(t, env.engine.CloseAuction(handle, seller))
	check.Equal(t, StatusClosed, env.info(t, handle).Status)

	check.True(t, errors.Is(env.engine.CloseAuction(handle, seller), ErrAlreadyClosed))
	check.Equal(t, StatusClosed, env.info(t, handle).Status)
}

func TestEngine_ReloadsAuctionsFromStore(t *testing.T) {
	env := newTestEnv(t)
	handle := env.createFunded(t)
	env.clock.SetNow(startTime + 1)
	assert.Nil(t, env.engine.PlaceBid(handle, carla, reserve))

	// A second engine over the same store sees the same auction state.
	restarted, err := NewEngine(env.ledger, env.clock, env.store)
	assert.Nil(t, err)

	info, err := restarted.GetAuction(handle.ID)
	assert.Nil(t, err)
	check.Equal(t, StatusOpen, info.Status)
	check.Equal(t, carla, info.HighestBidder)
	check.Equal(t, reserve, info.HighestBid)
	check.Equal(t, env.params(), info.Params)
	check.Equal(t, handle.Escrow, info.Handle.Escrow)
}
