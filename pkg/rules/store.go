// Package rules stores, validates, and compiles the compliance rules
// consumed by domain scoring modules. Rules are validated and compiled
// once at load time; the scoring hot path only ever sees rules whose
// patterns and conditions are known-good.
package rules

import (
	"context"
	"sort"
	"sync"

	"github.com/verityhq/verdict/pkg/contracts"
)

// Store supplies the active rules that apply to a verification request.
type Store interface {
	// GetApplicableRules returns every active rule matching the domain and
	// jurisdiction, sorted by rule ID for deterministic scoring.
	GetApplicableRules(ctx context.Context, domain contracts.Domain, jurisdiction string) ([]contracts.ComplianceRule, error)
}

// MemoryStore is an in-memory Store keyed by rule ID.
type MemoryStore struct {
	mu    sync.RWMutex
	rules map[string]contracts.ComplianceRule
}

// NewMemoryStore creates an empty in-memory rule store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rules: make(map[string]contracts.ComplianceRule)}
}

// Put inserts or replaces a rule.
func (s *MemoryStore) Put(rule contracts.ComplianceRule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules[rule.ID] = rule
}

// PutAll inserts or replaces a batch of rules.
func (s *MemoryStore) PutAll(rules []contracts.ComplianceRule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range rules {
		s.rules[r.ID] = r
	}
}

// Delete removes a rule by ID. Deleting an unknown ID is a no-op.
func (s *MemoryStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rules, id)
}

// Len reports the number of stored rules.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rules)
}

// GetApplicableRules implements Store.
func (s *MemoryStore) GetApplicableRules(ctx context.Context, domain contracts.Domain, jurisdiction string) ([]contracts.ComplianceRule, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]contracts.ComplianceRule, 0, len(s.rules))
	for _, r := range s.rules {
		if r.AppliesTo(domain, jurisdiction) {
			matched = append(matched, r)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	return matched, nil
}
