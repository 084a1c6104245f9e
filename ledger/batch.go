package ledger

import (
	"github.com/google/uuid"
)

// StepKind distinguishes currency movements from asset movements.
type StepKind uint8

const (
	StepCurrency StepKind = iota
	StepAsset
)

// Step is one staged transfer inside a batch.
type Step struct {
	Kind   StepKind
	Asset  AssetID // meaningful for StepAsset only
	Amount uint64
	From   AccountID
	To     AccountID
}

// Batch stages a set of transfers that commit together or not at all. The
// refund-then-accept pairing of a bid and the triple-transfer settlement of a
// close are each one batch, so no observer ever sees a partial transfer set.
type Batch struct {
	steps []Step

	// auth authorizes debits from controlled accounts staged in this batch.
	auth uuid.UUID
}

// NewBatch creates an empty batch. controller authorizes debits from
// controlled accounts; use uuid.Nil for batches that touch none.
func NewBatch(controller uuid.UUID) *Batch {
	return &Batch{auth: controller}
}

// TransferCurrency stages a currency movement.
func (b *Batch) TransferCurrency(amount uint64, from, to AccountID) *Batch {
	b.steps = append(b.steps, Step{Kind: StepCurrency, Amount: amount, From: from, To: to})
	return b
}

// TransferAsset stages an asset movement.
func (b *Batch) TransferAsset(asset AssetID, amount uint64, from, to AccountID) *Batch {
	b.steps = append(b.steps, Step{Kind: StepAsset, Asset: asset, Amount: amount, From: from, To: to})
	return b
}

// Len returns the number of staged steps.
func (b *Batch) Len() int {
	return len(b.steps)
}

// Execute validates every staged step and then applies them all under one
// lock hold, running onCommit (if non-nil) inside the same critical section.
// If any step fails validation, nothing is applied and onCommit does not run:
// a status write passed as onCommit therefore commits jointly with the
// transfers.
func (l *Ledger) Execute(b *Batch, onCommit func()) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if b == nil || len(b.steps) == 0 {
		return ErrEmptyBatch
	}

	pending := newPendingState()
	for _, step := range b.steps {
		if err := l.checkStep(step, b.auth, pending); err != nil {
			return err
		}
	}

	for _, step := range b.steps {
		l.applyStep(step)
	}
	if onCommit != nil {
		onCommit()
	}
	return nil
}

// pendingState tracks the staged balances of accounts touched by earlier
// steps of a batch so validation sees the batch's own intermediate credits.
// A refund staged before a debit of the same account must count toward that
// debit's funding. Staged balances are held as full uint64 values, never as
// signed deltas, so a step amount near the uint64 ceiling cannot wrap the
// bookkeeping itself.
type pendingState struct {
	currency map[AccountID]uint64
	assets   map[AccountID]map[AssetID]uint64
}

func newPendingState() *pendingState {
	return &pendingState{
		currency: make(map[AccountID]uint64),
		assets:   make(map[AccountID]map[AssetID]uint64),
	}
}

// currencyBal returns the staged currency balance of id, falling back to base
// when no earlier step touched the account.
func (p *pendingState) currencyBal(id AccountID, base uint64) uint64 {
	if v, ok := p.currency[id]; ok {
		return v
	}
	return base
}

func (p *pendingState) setCurrency(id AccountID, v uint64) {
	p.currency[id] = v
}

func (p *pendingState) assetBal(id AccountID, asset AssetID, base uint64) uint64 {
	if held, ok := p.assets[id]; ok {
		if v, ok := held[asset]; ok {
			return v
		}
	}
	return base
}

func (p *pendingState) setAsset(id AccountID, asset AssetID, v uint64) {
	if p.assets[id] == nil {
		p.assets[id] = make(map[AssetID]uint64)
	}
	p.assets[id][asset] = v
}
