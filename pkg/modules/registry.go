// Package modules defines the domain module contract and the runtime
// registry the verification engine dispatches through. A domain module
// owns validation for exactly one domain; modules are registered and
// replaced at runtime without versioning or transactions.
package modules

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Masterminds/semver/v3"

	"github.com/verityhq/verdict/pkg/contracts"
)

// DomainModule validates content for one domain.
type DomainModule interface {
	// Domain names the single domain this module serves.
	Domain() contracts.Domain
	// Version is the module's semantic version.
	Version() string
	// ValidateContent inspects the content and reports issues with a
	// confidence score. Implementations must honor ctx cancellation.
	ValidateContent(ctx context.Context, content contracts.ParsedContent) (contracts.ValidationResult, error)
}

// Registry maps domains to their registered module. One module per
// domain; registering over an existing entry replaces it.
type Registry struct {
	mu      sync.RWMutex
	modules map[contracts.Domain]DomainModule
}

// NewRegistry creates an empty module registry.
func NewRegistry() *Registry {
	return &Registry{modules: make(map[contracts.Domain]DomainModule)}
}

// Register adds or replaces the module for its domain. The module's
// domain must be supported and its version must parse as semver.
func (r *Registry) Register(m DomainModule) error {
	if m == nil {
		return fmt.Errorf("nil module")
	}
	if !m.Domain().Valid() {
		return fmt.Errorf("unsupported domain %q", m.Domain())
	}
	if _, err := semver.NewVersion(m.Version()); err != nil {
		return fmt.Errorf("module version %q is not semver: %w", m.Version(), err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.modules[m.Domain()] = m
	return nil
}

// Unregister removes the module for a domain, reporting whether one was
// registered.
func (r *Registry) Unregister(domain contracts.Domain) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.modules[domain]; !ok {
		return false
	}
	delete(r.modules, domain)
	return true
}

// Resolve returns the modules to dispatch for a domain. An unregistered
// domain resolves to an empty slice, never an error — the engine treats
// absence as zero modules to run.
func (r *Registry) Resolve(domain contracts.Domain) []DomainModule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if m, ok := r.modules[domain]; ok {
		return []DomainModule{m}
	}
	return nil
}

// Registered lists the domains with a registered module, sorted.
func (r *Registry) Registered() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.modules))
	for domain := range r.modules {
		out = append(out, string(domain))
	}
	sort.Strings(out)
	return out
}
