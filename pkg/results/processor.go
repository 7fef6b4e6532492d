// Package results aggregates per-module validation results into a single
// verification verdict: confidence averaging, domain weighting, risk
// classification, recommendations, caching, persistence, and running
// metrics.
package results

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/verityhq/verdict/pkg/cache"
	"github.com/verityhq/verdict/pkg/contracts"
)

// ErrResultNotFound reports a verification ID with no cached or persisted
// result. Store implementations return it (possibly wrapped) on miss.
var ErrResultNotFound = errors.New("verification result not found")

// ResultStore persists formatted verification results. Persistence is
// fire-and-forget from the processor's point of view: failures are logged,
// never raised to the caller.
type ResultStore interface {
	SaveResult(ctx context.Context, result *contracts.VerificationResult) error
	GetResult(ctx context.Context, verificationID string) (*contracts.VerificationResult, error)
}

// Config wires a Processor. Cache and Store are optional: a nil Cache
// disables result reuse, a nil Store disables persistence.
type Config struct {
	Cache  cache.Cache
	Store  ResultStore
	Policy Policy
	Logger *slog.Logger
}

// Processor turns raw module results into the final VerificationResult.
// It is safe for concurrent use.
type Processor struct {
	cache   cache.Cache
	store   ResultStore
	policy  Policy
	metrics *Metrics
	logger  *slog.Logger

	// idKeys maps recently issued verification IDs to their content
	// fingerprint so results remain addressable by ID while cached.
	idKeys *expirable.LRU[string, string]

	now func() time.Time
}

// NewProcessor creates a results processor. A zero-value Policy falls back
// to DefaultPolicy; a nil logger falls back to slog.Default.
func NewProcessor(cfg Config) *Processor {
	if cfg.Policy.DomainWeights == nil {
		cfg.Policy = DefaultPolicy()
	}
	if cfg.Policy.CacheTTL <= 0 {
		cfg.Policy.CacheTTL = cache.DefaultTTL
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	p := &Processor{
		cache:   cfg.Cache,
		store:   cfg.Store,
		policy:  cfg.Policy,
		metrics: NewMetrics(),
		logger:  cfg.Logger,
		now:     time.Now,
	}
	if p.cache != nil {
		p.idKeys = expirable.NewLRU[string, string](cache.DefaultMaxEntries, nil, cfg.Policy.CacheTTL)
	}
	return p
}

// Process aggregates module results for one verification.
//
// A live cache entry for the request's fingerprint is returned re-stamped
// with the current verification ID and timestamp; the cached payload is
// not re-validated beyond key equality. Otherwise the module results are
// aggregated, weighted by domain, classified, formatted, cached, and
// handed to the persistence store.
func (p *Processor) Process(ctx context.Context, verificationID string, req contracts.VerificationRequest, moduleResults []contracts.ValidationResult, elapsed time.Duration) (*contracts.VerificationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := p.fingerprint(req)
	if key != "" {
		if hit := p.cacheGet(ctx, key); hit != nil {
			out := *hit
			out.VerificationID = verificationID
			out.Timestamp = p.now().UTC()
			p.idKeys.Add(verificationID, key)
			return &out, nil
		}
	}

	issues := collectIssues(moduleResults)
	confidence := meanPositiveConfidence(moduleResults)

	if t := req.Options.ConfidenceThreshold; t != nil && confidence < *t {
		issues = append(issues, contracts.Issue{
			ID:           uuid.NewString(),
			Type:         contracts.IssueFactualError,
			Severity:     contracts.SeverityMedium,
			Description:  fmt.Sprintf("Overall confidence %d%% is below the requested threshold of %d%%", confidence, *t),
			Confidence:   100,
			ModuleSource: "VerificationEngine",
		})
	}

	weighted := clampConfidence(int(math.Round(float64(confidence) * p.policy.Weight(req.Domain))))
	risk := p.policy.ClassifyRisk(issues, weighted)
	recommendations := buildRecommendations(moduleResults, issues, risk)
	contracts.SortIssues(issues)

	result := &contracts.VerificationResult{
		VerificationID:    verificationID,
		OverallConfidence: weighted,
		RiskLevel:         risk,
		Issues:            issues,
		ProcessingTime:    elapsed,
		Recommendations:   recommendations,
		Timestamp:         p.now().UTC(),
	}

	if key != "" {
		p.cacheSet(ctx, key, result)
		p.idKeys.Add(verificationID, key)
	}
	if p.store != nil {
		p.persistAsync(ctx, result)
	}
	p.metrics.Observe(result)
	return result, nil
}

// GetResult looks a verification up by ID: cache first, then the
// persistence store. Both missing yields ErrResultNotFound.
func (p *Processor) GetResult(ctx context.Context, verificationID string) (*contracts.VerificationResult, error) {
	if p.cache != nil {
		if key, ok := p.idKeys.Get(verificationID); ok {
			if hit := p.cacheGet(ctx, key); hit != nil {
				out := *hit
				out.VerificationID = verificationID
				return &out, nil
			}
		}
	}

	if p.store != nil {
		result, err := p.store.GetResult(ctx, verificationID)
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, ErrResultNotFound) {
			return nil, fmt.Errorf("result store lookup: %w", err)
		}
	}
	return nil, ErrResultNotFound
}

// InvalidateCache removes one cached result by fingerprint key, or every
// cached result when key is empty.
func (p *Processor) InvalidateCache(ctx context.Context, key string) error {
	if p.cache == nil {
		return nil
	}
	if key == "" {
		return p.cache.Clear(ctx)
	}
	return p.cache.Delete(ctx, key)
}

// CacheStats reports the underlying cache's effectiveness. A processor
// without a cache reports zeros.
func (p *Processor) CacheStats(ctx context.Context) (cache.Stats, error) {
	if p.cache == nil {
		return cache.Stats{}, nil
	}
	return p.cache.Stats(ctx)
}

// ProcessingMetrics returns a snapshot of the running aggregates.
func (p *Processor) ProcessingMetrics() Snapshot {
	return p.metrics.Snapshot()
}

// fingerprint computes the request's cache key. Caching problems are
// contained: a fingerprint failure logs a warning and disables caching for
// this call only.
func (p *Processor) fingerprint(req contracts.VerificationRequest) string {
	if p.cache == nil {
		return ""
	}
	key, err := cache.Fingerprint(req.Content, req.Domain, req.Options)
	if err != nil {
		p.logger.Warn("fingerprint failed, skipping cache", "error", err)
		return ""
	}
	return key
}

func (p *Processor) cacheGet(ctx context.Context, key string) *contracts.VerificationResult {
	hit, ok, err := p.cache.Get(ctx, key)
	if err != nil {
		p.logger.Warn("cache read failed", "error", err)
		return nil
	}
	if !ok {
		return nil
	}
	return hit
}

func (p *Processor) cacheSet(ctx context.Context, key string, result *contracts.VerificationResult) {
	// Cache a snapshot: the caller may attach an audit trail to the
	// returned result, and cached entries must never change.
	snapshot := *result
	if err := p.cache.Set(ctx, key, &snapshot); err != nil {
		p.logger.Warn("cache write failed", "error", err)
	}
}

// persistAsync hands the result to the external store without blocking or
// failing the verification. The write survives the request context but
// carries its values.
func (p *Processor) persistAsync(ctx context.Context, result *contracts.VerificationResult) {
	snapshot := *result
	bgCtx := context.WithoutCancel(ctx)
	go func() {
		saveCtx, cancel := context.WithTimeout(bgCtx, 10*time.Second)
		defer cancel()
		if err := p.store.SaveResult(saveCtx, &snapshot); err != nil {
			p.logger.Warn("result persistence failed",
				"verification_id", snapshot.VerificationID,
				"error", err)
		}
	}()
}

// collectIssues concatenates module issues, stamping each with the module
// that produced it.
func collectIssues(moduleResults []contracts.ValidationResult) []contracts.Issue {
	total := 0
	for i := range moduleResults {
		total += len(moduleResults[i].Issues)
	}
	issues := make([]contracts.Issue, 0, total)
	for i := range moduleResults {
		for _, issue := range moduleResults[i].Issues {
			issue.ModuleSource = moduleResults[i].ModuleID
			issues = append(issues, issue)
		}
	}
	return issues
}

// meanPositiveConfidence averages the module confidences greater than
// zero, rounding half away from zero. No positive confidence at all means
// no module weighed in, which defaults to 100.
func meanPositiveConfidence(moduleResults []contracts.ValidationResult) int {
	sum, n := 0, 0
	for i := range moduleResults {
		if c := moduleResults[i].Confidence; c > 0 {
			sum += c
			n++
		}
	}
	if n == 0 {
		return 100
	}
	return int(math.Round(float64(sum) / float64(n)))
}

func clampConfidence(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
