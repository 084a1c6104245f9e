// Package store persists auction state across process restarts. Records are
// written as canonical CBOR, one file per auction, via temp-file-and-rename so
// a crash mid-write never leaves a torn record behind.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
)

// Record is the durable snapshot of one auction instance. It mirrors the
// in-memory state field for field; the engine is the only writer.
type Record struct {
	ID            uuid.UUID `cbor:"id"`
	Escrow        string    `cbor:"escrow"`
	Seller        string    `cbor:"seller"`
	AssetID       uint64    `cbor:"asset_id"`
	AssetAmount   uint64    `cbor:"asset_amount"`
	StartTime     int64     `cbor:"start_time"`
	EndTime       int64     `cbor:"end_time"`
	ReservePrice  uint64    `cbor:"reserve_price"`
	MinIncrement  uint64    `cbor:"min_increment"`
	RoyaltyPct    uint8     `cbor:"royalty_pct"`
	AssetCreator  string    `cbor:"asset_creator"`
	Status        uint8     `cbor:"status"`
	HighestBidder string    `cbor:"highest_bidder,omitempty"`
	HighestBid    uint64    `cbor:"highest_bid"`
	Funder        string    `cbor:"funder,omitempty"`
}

// Store is the durability surface the auction engine writes through.
type Store interface {
	// Save durably associates the record with its instance ID, replacing any
	// previous version.
	Save(rec Record) error
	// Load returns every stored record.
	Load() ([]Record, error)
}

var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("store: cbor encoder init: %v", err))
	}
}

// DirStore keeps one <id>.cbor file per auction under a directory.
type DirStore struct {
	dir string
}

// NewDirStore creates the directory if needed and returns a store over it.
func NewDirStore(dir string) (*DirStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &DirStore{dir: dir}, nil
}

func (s *DirStore) Save(rec Record) error {
	data, err := encMode.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record %s: %w", rec.ID, err)
	}

	final := filepath.Join(s.dir, rec.ID.String()+".cbor")
	tmp, err := os.CreateTemp(s.dir, "rec-*.tmp")
	if err != nil {
		return fmt.Errorf("stage record %s: %w", rec.ID, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write record %s: %w", rec.ID, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write record %s: %w", rec.ID, err)
	}
	if err := os.Rename(tmpName, final); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("commit record %s: %w", rec.ID, err)
	}
	return nil
}

func (s *DirStore) Load() ([]Record, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read store dir: %w", err)
	}

	var records []Record
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".cbor") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read record %s: %w", entry.Name(), err)
		}
		var rec Record
		if err := cbor.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("decode record %s: %w", entry.Name(), err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// MemStore is an in-memory Store for tests.
type MemStore struct {
	records map[uuid.UUID]Record
}

func NewMemStore() *MemStore {
	return &MemStore{records: make(map[uuid.UUID]Record)}
}

func (s *MemStore) Save(rec Record) error {
	// Round-trip through the codec so tests exercise the same encoding path
	// as the durable store.
	data, err := encMode.Marshal(rec)
	if err != nil {
		return err
	}
	var copied Record
	if err := cbor.Unmarshal(data, &copied); err != nil {
		return err
	}
	s.records[rec.ID] = copied
	return nil
}

func (s *MemStore) Load() ([]Record, error) {
	records := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		records = append(records, rec)
	}
	return records, nil
}
