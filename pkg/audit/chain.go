package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/verityhq/verdict/pkg/contracts"
)

var (
	// ErrChainBroken reports a hash chain whose links no longer verify.
	ErrChainBroken = errors.New("audit chain is broken")
	// ErrNoEntries reports an export over an empty selection.
	ErrNoEntries = errors.New("no audit entries match")
)

// ChainRecord wraps one audit entry with its position in the hash chain.
// Records are immutable once appended.
type ChainRecord struct {
	Sequence     uint64               `json:"sequence"`
	Entry        contracts.AuditEntry `json:"entry"`
	PayloadHash  string               `json:"payload_hash"`
	PreviousHash string               `json:"previous_hash"`
	EntryHash    string               `json:"entry_hash"`
}

// ChainStore is an append-only audit sink with hash chaining: every record
// commits to its predecessor, so any later tampering breaks verification.
type ChainStore struct {
	mu        sync.RWMutex
	records   []*ChainRecord
	bySession map[string][]*ChainRecord
	sequence  uint64
	chainHead string
}

// NewChainStore creates an empty chained store. The chain head starts at
// the genesis marker.
func NewChainStore() *ChainStore {
	return &ChainStore{
		bySession: make(map[string][]*ChainRecord),
		chainHead: "genesis",
	}
}

// CreateEntry implements Sink by appending the entry to the chain.
func (s *ChainStore) CreateEntry(_ context.Context, entry contracts.AuditEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("serialize audit entry: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sequence++
	rec := &ChainRecord{
		Sequence:     s.sequence,
		Entry:        entry,
		PayloadHash:  computeHash(payload),
		PreviousHash: s.chainHead,
	}
	rec.EntryHash = recordHash(rec)
	s.chainHead = rec.EntryHash

	s.records = append(s.records, rec)
	s.bySession[entry.SessionID] = append(s.bySession[entry.SessionID], rec)
	return nil
}

// BySession returns the chain records for one verification in append
// order.
func (s *ChainStore) BySession(sessionID string) []ChainRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := s.bySession[sessionID]
	out := make([]ChainRecord, len(recs))
	for i, r := range recs {
		out[i] = *r
	}
	return out
}

// Head returns the current chain head hash.
func (s *ChainStore) Head() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chainHead
}

// Size returns the number of records in the store.
func (s *ChainStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// VerifyChain walks the whole chain and recomputes every link.
func (s *ChainStore) VerifyChain() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expectedPrev := "genesis"
	for i, rec := range s.records {
		if rec.PreviousHash != expectedPrev {
			return fmt.Errorf("%w: record %d has previous_hash %s, want %s",
				ErrChainBroken, i, rec.PreviousHash, expectedPrev)
		}
		if err := verifyRecord(rec); err != nil {
			return fmt.Errorf("%w: record %d: %w", ErrChainBroken, i, err)
		}
		expectedPrev = rec.EntryHash
	}
	return nil
}

// verifyRecord recomputes both hashes of a record: the payload hash from
// the embedded entry and the record hash from the chain fields.
func verifyRecord(rec *ChainRecord) error {
	payload, err := json.Marshal(rec.Entry)
	if err != nil {
		return fmt.Errorf("serialize entry: %w", err)
	}
	if computed := computeHash(payload); computed != rec.PayloadHash {
		return fmt.Errorf("payload hash mismatch (computed %s, stored %s)", computed, rec.PayloadHash)
	}
	if computed := recordHash(rec); computed != rec.EntryHash {
		return fmt.Errorf("record hash mismatch (computed %s, stored %s)", computed, rec.EntryHash)
	}
	return nil
}

// EvidenceBundle is an exportable slice of the audit chain, typically one
// verification's records, sealed with a bundle hash.
type EvidenceBundle struct {
	BundleID   string        `json:"bundle_id"`
	SessionID  string        `json:"session_id,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
	StartSeq   uint64        `json:"start_sequence"`
	EndSeq     uint64        `json:"end_sequence"`
	EntryCount int           `json:"entry_count"`
	Records    []ChainRecord `json:"records"`
	BundleHash string        `json:"bundle_hash"`
}

// ExportBundle seals one verification's records into an evidence bundle.
func (s *ChainStore) ExportBundle(sessionID string) (*EvidenceBundle, error) {
	records := s.BySession(sessionID)
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: session %s", ErrNoEntries, sessionID)
	}

	bundle := &EvidenceBundle{
		BundleID:   uuid.NewString(),
		SessionID:  sessionID,
		CreatedAt:  time.Now().UTC(),
		StartSeq:   records[0].Sequence,
		EndSeq:     records[len(records)-1].Sequence,
		EntryCount: len(records),
		Records:    records,
	}

	data, err := json.Marshal(bundle.Records)
	if err != nil {
		return nil, fmt.Errorf("serialize bundle records: %w", err)
	}
	bundle.BundleHash = computeHash(data)
	return bundle, nil
}

// VerifyBundle checks a bundle's seal and the per-record hashes. Bundles
// hold one session's records, which interleave with other sessions in the
// full chain, so only record integrity is checked, not adjacency.
func VerifyBundle(bundle *EvidenceBundle) error {
	if len(bundle.Records) == 0 {
		return ErrNoEntries
	}

	data, err := json.Marshal(bundle.Records)
	if err != nil {
		return fmt.Errorf("serialize bundle records: %w", err)
	}
	if computeHash(data) != bundle.BundleHash {
		return fmt.Errorf("%w: bundle hash mismatch", ErrChainBroken)
	}

	for i := range bundle.Records {
		if err := verifyRecord(&bundle.Records[i]); err != nil {
			return fmt.Errorf("%w: bundle record %d: %w", ErrChainBroken, i, err)
		}
	}
	return nil
}

func computeHash(data []byte) string {
	sum := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(sum[:])
}

// recordHash commits to the record's position, payload, and predecessor.
func recordHash(rec *ChainRecord) string {
	hashable := struct {
		Sequence     uint64 `json:"sequence"`
		EntryID      string `json:"entry_id"`
		PayloadHash  string `json:"payload_hash"`
		PreviousHash string `json:"previous_hash"`
	}{
		Sequence:     rec.Sequence,
		EntryID:      rec.Entry.ID,
		PayloadHash:  rec.PayloadHash,
		PreviousHash: rec.PreviousHash,
	}
	data, _ := json.Marshal(hashable)
	return computeHash(data)
}
