// Package engine orchestrates verifications end to end: admission control,
// request validation, concurrent module dispatch with per-module timeouts,
// result aggregation, and live status tracking.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/verityhq/verdict/pkg/audit"
	"github.com/verityhq/verdict/pkg/contracts"
	"github.com/verityhq/verdict/pkg/modules"
	"github.com/verityhq/verdict/pkg/results"
)

// Defaults applied by New for zero Config fields.
const (
	DefaultMaxConcurrent = 100
	DefaultModuleTimeout = 30 * time.Second
)

// Module failure classifications carried in degraded result metadata and
// module_failed audit entries.
const (
	failureTimeout   = "module_timeout"
	failureExecution = "module_execution_error"
	failureCancelled = "module_cancelled"
)

const componentEngine = "engine"

// ResultsProcessor aggregates module results into the final verdict.
// *results.Processor is the production implementation.
type ResultsProcessor interface {
	Process(ctx context.Context, verificationID string, req contracts.VerificationRequest, moduleResults []contracts.ValidationResult, elapsed time.Duration) (*contracts.VerificationResult, error)
}

// Config wires an Engine.
type Config struct {
	// Registry holds the domain modules. Nil starts empty.
	Registry *modules.Registry

	// Processor aggregates module results. Nil falls back to an uncached,
	// store-less processor with the default scoring policy.
	Processor ResultsProcessor

	// Sink receives audit entries as they are recorded. Optional; entries
	// always travel with the result regardless.
	Sink audit.Sink

	Logger *slog.Logger

	// MaxConcurrent bounds in-flight verifications. Requests beyond the
	// bound fail fast with ErrResourceExhausted. Zero means 100.
	MaxConcurrent int

	// ModuleTimeout bounds each module invocation unless the request's
	// Options.MaxProcessingTime overrides it. Zero means 30s.
	ModuleTimeout time.Duration
}

// Engine runs verifications. It is safe for concurrent use.
type Engine struct {
	registry      *modules.Registry
	processor     ResultsProcessor
	sink          audit.Sink
	logger        *slog.Logger
	clock         Clock
	sem           *semaphore.Weighted
	statuses      *statusTable
	moduleTimeout time.Duration
}

// New creates an engine. If clock is omitted, wall-clock time is used.
func New(cfg Config, clock ...Clock) *Engine {
	var c Clock
	if len(clock) > 0 && clock[0] != nil {
		c = clock[0]
	} else {
		c = wallClock{}
	}

	if cfg.Registry == nil {
		cfg.Registry = modules.NewRegistry()
	}
	if cfg.Processor == nil {
		cfg.Processor = results.NewProcessor(results.Config{Logger: cfg.Logger})
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = DefaultMaxConcurrent
	}
	if cfg.ModuleTimeout <= 0 {
		cfg.ModuleTimeout = DefaultModuleTimeout
	}

	return &Engine{
		registry:      cfg.Registry,
		processor:     cfg.Processor,
		sink:          cfg.Sink,
		logger:        cfg.Logger,
		clock:         c,
		sem:           semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
		statuses:      newStatusTable(),
		moduleTimeout: cfg.ModuleTimeout,
	}
}

// Verify runs one verification: admission, validation, module dispatch,
// aggregation. It returns the aggregated result or a typed error
// (ErrResourceExhausted, *InvalidRequestError, ErrCancelled,
// *AggregationError). A module failure alone never fails a verification;
// the failed module contributes a zero-confidence result instead.
func (e *Engine) Verify(ctx context.Context, req contracts.VerificationRequest) (*contracts.VerificationResult, error) {
	if !e.sem.TryAcquire(1) {
		return nil, ErrResourceExhausted
	}
	defer e.sem.Release(1)

	verificationID := uuid.NewString()
	started := e.clock.Now()

	// dispatchCtx is cancelled by CancelVerification, stopping in-flight
	// module calls. Audit writes stay on the caller's ctx.
	dispatchCtx, stopDispatch := context.WithCancel(ctx)
	defer stopDispatch()

	// The status entry is registered before validation so concurrency
	// accounting covers requests that are about to be rejected, and
	// removed on every exit path.
	e.statuses.put(verificationID, stopDispatch)
	defer e.statuses.remove(verificationID)

	trail := audit.NewTrail(verificationID, req.UserID, e.sink, e.logger)

	if err := validateRequest(req); err != nil {
		e.statuses.fail(verificationID, err.Error())
		trail.Record(ctx, contracts.AuditVerificationFailed, componentEngine, map[string]any{
			"error": err.Error(),
		})
		return nil, err
	}

	trail.Record(ctx, contracts.AuditVerificationStarted, componentEngine, map[string]any{
		"domain":          string(req.Domain),
		"urgency":         string(req.Urgency),
		"content_id":      req.Content.ID,
		"user_id":         req.UserID,
		"organization_id": req.OrganizationID,
	})
	e.statuses.progress(verificationID, 20, "dispatching")

	mods := e.registry.Resolve(req.Domain)
	if len(mods) == 0 {
		e.logger.WarnContext(ctx, "no module registered for domain",
			"verification_id", verificationID,
			"domain", string(req.Domain))
	}

	moduleResults := e.dispatch(ctx, dispatchCtx, trail, verificationID, req, mods)

	// Cancellation point: a cancelled verification stops here instead of
	// aggregating, after its interrupted modules have settled.
	if err := e.checkCancelled(ctx, trail, verificationID); err != nil {
		return nil, err
	}

	e.statuses.progress(verificationID, 80, "aggregating")

	result, err := e.processor.Process(ctx, verificationID, req, moduleResults, e.clock.Now().Sub(started))
	if err != nil {
		aggErr := &AggregationError{Err: err}
		e.statuses.fail(verificationID, aggErr.Error())
		trail.Record(ctx, contracts.AuditVerificationFailed, componentEngine, map[string]any{
			"error": aggErr.Error(),
		})
		return nil, aggErr
	}

	e.statuses.progress(verificationID, 100, "completed")

	// Recorded before the trail is attached so the completion entry is
	// part of the returned result.
	trail.Record(ctx, contracts.AuditVerificationCompleted, componentEngine, map[string]any{
		"confidence":      result.OverallConfidence,
		"risk_level":      string(result.RiskLevel),
		"issue_count":     len(result.Issues),
		"processing_time": result.ProcessingTime.Milliseconds(),
	})
	result.AuditTrail = trail.Entries()

	return result, nil
}

// GetVerificationStatus returns the live snapshot of an active verification.
// Terminal verifications leave the active table, so their outcome is
// reported by the returned VerificationResult, not here.
func (e *Engine) GetVerificationStatus(verificationID string) (contracts.VerificationStatus, error) {
	st, ok := e.statuses.get(verificationID)
	if !ok {
		return contracts.VerificationStatus{}, fmt.Errorf("verification %s: %w", verificationID, ErrNotFound)
	}
	return st, nil
}

// CancelVerification marks an active verification cancelled and reports
// whether it did. Cancelling tears down the verification's dispatch
// context, interrupting in-flight module calls; Verify stops before
// aggregation and returns ErrCancelled.
func (e *Engine) CancelVerification(verificationID string) bool {
	return e.statuses.cancel(verificationID)
}

// RegisterModule adds or replaces the module for its domain.
func (e *Engine) RegisterModule(m modules.DomainModule) error {
	return e.registry.Register(m)
}

// UnregisterModule removes the module for domain, reporting whether one was
// registered.
func (e *Engine) UnregisterModule(domain contracts.Domain) bool {
	return e.registry.Unregister(domain)
}

// RegisteredModules lists the registered domains in stable order.
func (e *Engine) RegisteredModules() []string {
	return e.registry.Registered()
}

// ActiveVerifications reports how many verifications are in flight.
func (e *Engine) ActiveVerifications() int {
	return e.statuses.size()
}

// outcome carries one module's settled result back to the collector.
type outcome struct {
	index   int
	result  contracts.ValidationResult
	failure string // empty on success
	errMsg  string
}

// dispatch fans the request out to every resolved module and collects one
// ValidationResult per module, degraded to zero confidence on timeout,
// cancellation, or error. Modules run on modCtx so CancelVerification can
// interrupt them; trail records stay on ctx so the audit chain survives a
// cancel. module_started entries go out in dispatch order before any module
// can settle; completion entries follow in completion order.
func (e *Engine) dispatch(ctx, modCtx context.Context, trail *audit.Trail, verificationID string, req contracts.VerificationRequest, mods []modules.DomainModule) []contracts.ValidationResult {
	if len(mods) == 0 {
		return nil
	}

	timeout := req.Options.MaxProcessingTime
	if timeout <= 0 {
		timeout = e.moduleTimeout
	}

	outcomes := make(chan outcome, len(mods))
	for i, mod := range mods {
		name := moduleName(mod)
		trail.Record(ctx, contracts.AuditModuleStarted, name, map[string]any{
			"module":  name,
			"version": mod.Version(),
		})
		go func(i int, mod modules.DomainModule, name string) {
			outcomes <- e.runModule(modCtx, i, mod, name, req.Content, timeout)
		}(i, mod, name)
	}

	collected := make([]contracts.ValidationResult, len(mods))
	for done := 1; done <= len(mods); done++ {
		out := <-outcomes
		collected[out.index] = out.result

		name := out.result.ModuleID
		if out.failure != "" {
			trail.Record(ctx, contracts.AuditModuleFailed, name, map[string]any{
				"module":  name,
				"failure": out.failure,
				"error":   out.errMsg,
			})
		} else {
			trail.Record(ctx, contracts.AuditModuleCompleted, name, map[string]any{
				"module":          name,
				"issue_count":     len(out.result.Issues),
				"confidence":      out.result.Confidence,
				"processing_time": out.result.ProcessingTime.Milliseconds(),
			})
		}
		e.statuses.progress(verificationID, 20+60*done/len(mods), "dispatching")
	}
	return collected
}

// runModule races one module call against its timeout. The module receives
// a context that expires with the timeout, so well-behaved modules stop
// instead of running on as orphaned work.
func (e *Engine) runModule(ctx context.Context, index int, mod modules.DomainModule, name string, content contracts.ParsedContent, timeout time.Duration) outcome {
	started := e.clock.Now()

	mctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type settled struct {
		result contracts.ValidationResult
		err    error
	}
	done := make(chan settled, 1)
	go func() {
		res, err := mod.ValidateContent(mctx, content)
		done <- settled{result: res, err: err}
	}()

	select {
	case s := <-done:
		if s.err != nil {
			return e.degraded(index, name, started, classifyFailure(s.err), s.err)
		}
		res := s.result
		if res.ModuleID == "" {
			res.ModuleID = name
		}
		return outcome{index: index, result: res}
	case <-mctx.Done():
		return e.degraded(index, name, started, classifyFailure(mctx.Err()), mctx.Err())
	}
}

// classifyFailure maps a module error onto the failure taxonomy recorded in
// module_failed audit entries.
func classifyFailure(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return failureTimeout
	case errors.Is(err, context.Canceled):
		return failureCancelled
	default:
		return failureExecution
	}
}

// degraded synthesizes the zero-confidence result a failed module
// contributes to aggregation.
func (e *Engine) degraded(index int, name string, started time.Time, failure string, err error) outcome {
	return outcome{
		index: index,
		result: contracts.ValidationResult{
			ModuleID:       name,
			Issues:         []contracts.Issue{},
			Confidence:     0,
			ProcessingTime: e.clock.Now().Sub(started),
			Metadata: map[string]any{
				"error":   err.Error(),
				"failure": failure,
			},
		},
		failure: failure,
		errMsg:  err.Error(),
	}
}

func (e *Engine) checkCancelled(ctx context.Context, trail *audit.Trail, verificationID string) error {
	var reason string
	switch {
	case e.statuses.cancelled(verificationID):
		reason = "cancelled by caller"
	case ctx.Err() != nil:
		reason = ctx.Err().Error()
	default:
		return nil
	}
	trail.Record(ctx, contracts.AuditVerificationCancelled, componentEngine, map[string]any{
		"reason": reason,
	})
	return fmt.Errorf("%w: %s", ErrCancelled, reason)
}

func validateRequest(req contracts.VerificationRequest) error {
	switch {
	case req.Content.ID == "":
		return &InvalidRequestError{Reason: "content id is required"}
	case req.Content.ExtractedText == "":
		return &InvalidRequestError{Reason: "content text is required"}
	case req.Domain == "":
		return &InvalidRequestError{Reason: "domain is required"}
	case !req.Domain.Valid():
		return &InvalidRequestError{Reason: fmt.Sprintf("domain %q is not supported", req.Domain)}
	case req.Urgency == "":
		return &InvalidRequestError{Reason: "urgency is required"}
	case !req.Urgency.Valid():
		return &InvalidRequestError{Reason: fmt.Sprintf("urgency %q is not supported", req.Urgency)}
	}
	return nil
}

// moduleName prefers a module's own identifier when it exposes one.
func moduleName(mod modules.DomainModule) string {
	if n, ok := mod.(interface{ ModuleID() string }); ok {
		return n.ModuleID()
	}
	return string(mod.Domain()) + "-module"
}
