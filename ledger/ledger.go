package ledger

import (
	"fmt"
	"math/bits"
	"sync"

	errorsmod "cosmossdk.io/errors"
	"github.com/google/uuid"
)

// AccountID identifies a party on the ledger. IDs are opaque to the auction
// core; no key material is attached to them.
type AccountID string

// AssetID identifies a minted asset class.
type AssetID uint64

// MinBalance is the minimum currency balance an account must retain after any
// debit, unless the debit closes the account out to exactly zero. The escrow
// seed top-up paid at auction setup equals it, which is what lets the close
// settlement drain the escrow completely.
const MinBalance uint64 = 100_000

type account struct {
	currency uint64
	assets   map[AssetID]uint64

	// controller, when set, must accompany every debit from this account.
	// Only the party holding the token can move funds out, which is how
	// escrow exclusivity is enforced.
	controller uuid.UUID
	controlled bool
}

// Ledger is an in-process substrate holding currency and asset balances.
// Every mutation happens under one mutex, so each operation is an indivisible
// unit and concurrent submissions are resolved purely by lock acquisition
// order — the in-process equivalent of consensus transaction ordering.
type Ledger struct {
	mu          sync.Mutex
	accounts    map[AccountID]*account
	nextAssetID AssetID
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		accounts:    make(map[AccountID]*account),
		nextAssetID: 1,
	}
}

// CreateAccount registers an account with zero balances. Creating an account
// that already exists is a no-op.
func (l *Ledger) CreateAccount(id AccountID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ensureAccount(id)
}

// RegisterControlled registers an account whose debits require the given
// controller token. The token is returned only to the caller; anyone may pay
// into the account, nobody else can move funds out.
func (l *Ledger) RegisterControlled(id AccountID, controller uuid.UUID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	acc := l.ensureAccount(id)
	acc.controller = controller
	acc.controlled = true
}

// Mint creates a new asset class and credits the full supply to creator.
// Returns the new asset's ID.
func (l *Ledger) Mint(creator AccountID, supply uint64) AssetID {
	l.mu.Lock()
	defer l.mu.Unlock()
	acc := l.ensureAccount(creator)
	id := l.nextAssetID
	l.nextAssetID++
	acc.assets[id] = supply
	return id
}

// Fund credits currency to an account out of thin air. Demo and test faucet;
// funding past the uint64 ceiling is caller error and panics rather than
// wrapping the balance.
func (l *Ledger) Fund(id AccountID, amount uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	acc := l.ensureAccount(id)
	sum, carry := bits.Add64(acc.currency, amount, 0)
	if carry != 0 {
		panic(fmt.Sprintf("ledger: funding %s with %d overflows its balance", id, amount))
	}
	acc.currency = sum
}

// BalanceOf returns the currency balance of an account. Unknown accounts
// report zero.
func (l *Ledger) BalanceOf(id AccountID) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	acc, ok := l.accounts[id]
	if !ok {
		return 0
	}
	return acc.currency
}

// AssetBalanceOf returns how many units of asset the account holds.
func (l *Ledger) AssetBalanceOf(id AccountID, asset AssetID) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	acc, ok := l.accounts[id]
	if !ok {
		return 0
	}
	return acc.assets[asset]
}

// HasAsset reports whether the account holds at least amount units of asset.
func (l *Ledger) HasAsset(id AccountID, asset AssetID, amount uint64) bool {
	return l.AssetBalanceOf(id, asset) >= amount
}

func (l *Ledger) ensureAccount(id AccountID) *account {
	acc, ok := l.accounts[id]
	if !ok {
		acc = &account{assets: make(map[AssetID]uint64)}
		l.accounts[id] = acc
	}
	return acc
}

// checkStep validates a single batch step against current balances without
// applying it. pending carries the staged balances written by earlier steps of
// the same batch so that a refund staged first can fund a later debit check.
func (l *Ledger) checkStep(step Step, auth uuid.UUID, pending *pendingState) error {
	from, ok := l.accounts[step.From]
	if !ok {
		return errorsmod.Wrapf(ErrUnknownAccount, "%s", step.From)
	}
	to, ok := l.accounts[step.To]
	if !ok {
		return errorsmod.Wrapf(ErrUnknownAccount, "%s", step.To)
	}
	if from.controlled && from.controller != auth {
		return errorsmod.Wrapf(ErrUnauthorized, "account %s", step.From)
	}

	switch step.Kind {
	case StepCurrency:
		have := pending.currencyBal(step.From, from.currency)
		if have < step.Amount {
			return errorsmod.Wrapf(ErrInsufficientBalance,
				"account %s holds %d, needs %d", step.From, have, step.Amount)
		}
		remaining := have - step.Amount
		if remaining > 0 && remaining < MinBalance {
			return errorsmod.Wrapf(ErrBelowMinBalance,
				"account %s would retain %d, minimum is %d", step.From, remaining, MinBalance)
		}
		if step.From == step.To {
			return nil
		}
		sum, carry := bits.Add64(pending.currencyBal(step.To, to.currency), step.Amount, 0)
		if carry != 0 {
			return errorsmod.Wrapf(ErrBalanceOverflow, "account %s", step.To)
		}
		pending.setCurrency(step.From, remaining)
		pending.setCurrency(step.To, sum)
	case StepAsset:
		if step.Asset == 0 || step.Asset >= l.nextAssetID {
			return errorsmod.Wrapf(ErrUnknownAsset, "asset %d was never minted", step.Asset)
		}
		have := pending.assetBal(step.From, step.Asset, from.assets[step.Asset])
		if have < step.Amount {
			return errorsmod.Wrapf(ErrInsufficientAssetBalance,
				"account %s holds %d of asset %d, needs %d", step.From, have, step.Asset, step.Amount)
		}
		if step.From == step.To {
			return nil
		}
		sum, carry := bits.Add64(pending.assetBal(step.To, step.Asset, to.assets[step.Asset]), step.Amount, 0)
		if carry != 0 {
			return errorsmod.Wrapf(ErrBalanceOverflow, "account %s, asset %d", step.To, step.Asset)
		}
		pending.setAsset(step.From, step.Asset, have-step.Amount)
		pending.setAsset(step.To, step.Asset, sum)
	}
	return nil
}

// applyStep applies a previously validated step. Must hold l.mu.
func (l *Ledger) applyStep(step Step) {
	from := l.accounts[step.From]
	to := l.accounts[step.To]
	switch step.Kind {
	case StepCurrency:
		from.currency -= step.Amount
		to.currency += step.Amount
	case StepAsset:
		from.assets[step.Asset] -= step.Amount
		to.assets[step.Asset] += step.Amount
		if from.assets[step.Asset] == 0 {
			delete(from.assets, step.Asset)
		}
	}
}
