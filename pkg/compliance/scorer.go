// Package compliance scores content against regulatory rules: keyword
// matching with contextual weighting, precompiled regex patterns, fixed
// industry detectors, and semantic checks for missing disclosures and
// contradictory statements. The scorer plugs into the verification engine
// as a domain module via Module.
package compliance

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"github.com/verityhq/verdict/pkg/contracts"
	"github.com/verityhq/verdict/pkg/rules"
)

// CheckResult is the outcome of scoring one document against the rules
// applicable to a domain and jurisdiction.
type CheckResult struct {
	Violations      []contracts.ComplianceViolation `json:"violations"`
	OverallRisk     contracts.RiskLevel             `json:"overall_risk"`
	ComplianceScore int                             `json:"compliance_score"`
	CheckedRules    int                             `json:"checked_rules"`
	ApplicableRules int                             `json:"applicable_rules"`
}

// Scorer evaluates content against compliance rules. It is safe for
// concurrent use; compiled patterns are cached across checks.
type Scorer struct {
	store      rules.Store
	conditions *rules.ConditionEvaluator
	policy     Policy
	logger     *slog.Logger

	mu       sync.RWMutex
	compiled map[string]*regexp.Regexp // regex source -> compiled, nil = known bad
}

// NewScorer creates a scorer backed by the given rule store. A nil logger
// falls back to slog.Default.
func NewScorer(store rules.Store, policy Policy, logger *slog.Logger) (*Scorer, error) {
	eval, err := rules.NewConditionEvaluator()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scorer{
		store:      store,
		conditions: eval,
		policy:     policy,
		logger:     logger,
		compiled:   make(map[string]*regexp.Regexp),
	}, nil
}

// CheckCompliance scores content for a domain and jurisdiction. Rule
// matches, industry detector hits, and semantic findings all contribute
// violations; the compliance score and overall risk summarize them.
func (s *Scorer) CheckCompliance(ctx context.Context, content contracts.ParsedContent, domain contracts.Domain, jurisdiction string) (*CheckResult, error) {
	applicable, err := s.store.GetApplicableRules(ctx, domain, jurisdiction)
	if err != nil {
		return nil, fmt.Errorf("fetch rules: %w", err)
	}

	// Scanning runs over NFC-normalized text so equivalent encodings of
	// the same content score identically; locations index the normalized
	// form.
	text := norm.NFC.String(content.ExtractedText)
	source := ModuleID(domain)
	condInput := rules.ConditionInput{
		Text:         text,
		Domain:       string(domain),
		Jurisdiction: jurisdiction,
		Metadata:     content.Metadata,
	}

	var violations []contracts.ComplianceViolation
	checked := 0
	for i := range applicable {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rule := applicable[i]

		hold, err := s.conditions.Eval(rule.Condition, condInput)
		if err != nil {
			// A broken condition disables its rule, never the check.
			s.logger.Warn("rule condition failed, skipping rule",
				"rule_id", rule.ID, "error", err)
			continue
		}
		if !hold {
			continue
		}
		checked++
		if len(rule.Keywords) == 0 && len(rule.Patterns) == 0 {
			// Nothing to scan for: the holding condition is the finding.
			violations = append(violations, s.conditionViolation(rule, source))
			continue
		}
		violations = append(violations, s.matchRule(rule, text, domain, source)...)
	}

	if d := detectors[domain]; d != nil {
		violations = append(violations, d.Run(text, source)...)
	}
	violations = append(violations, s.checkDisclosures(domain, text, source)...)
	violations = append(violations, s.checkContradictions(text, source)...)

	return &CheckResult{
		Violations:      violations,
		OverallRisk:     s.overallRisk(violations),
		ComplianceScore: s.score(violations, len(applicable)),
		CheckedRules:    checked,
		ApplicableRules: len(applicable),
	}, nil
}

// matchRule scans text with one rule's keywords and patterns. Keyword hits
// pass through contextual scoring before emission; pattern hits always emit
// with formula-derived confidence.
func (s *Scorer) matchRule(rule contracts.ComplianceRule, text string, domain contracts.Domain, source string) []contracts.ComplianceViolation {
	var out []contracts.ComplianceViolation
	snapshot := rule

	for _, kw := range rule.Keywords {
		re := s.regexpFor(`(?i)`+regexp.QuoteMeta(kw), rule.ID, kw)
		if re == nil {
			continue
		}
		for _, loc := range re.FindAllStringIndex(text, -1) {
			score := s.contextScore(text, domain, loc)
			if score <= s.policy.EmitThreshold {
				continue
			}
			out = append(out, contracts.ComplianceViolation{
				Issue: contracts.Issue{
					ID:           uuid.NewString(),
					Type:         contracts.IssueComplianceViolation,
					Severity:     rule.Severity,
					Location:     contracts.Location{Start: loc[0], End: loc[1]},
					Description:  fmt.Sprintf("Restricted keyword %q matched in a sensitive context (%s)", kw, rule.Regulation),
					Evidence:     []string{snippet(text, loc[0], loc[1], 40)},
					Confidence:   int(math.Round(score * 100)),
					ModuleSource: source,
				},
				RuleID:              rule.ID,
				Rule:                &snapshot,
				ViolationType:       contracts.ViolationKeywordMatch,
				RegulatoryReference: rule.Regulation,
				SuggestedFix:        fmt.Sprintf("Review or remove %q; see %s.", kw, rule.Regulation),
			})
		}
	}

	for _, p := range rule.Patterns {
		re := s.regexpFor(`(?i)`+p, rule.ID, p)
		if re == nil {
			continue
		}
		for _, loc := range re.FindAllStringIndex(text, -1) {
			match := text[loc[0]:loc[1]]
			out = append(out, contracts.ComplianceViolation{
				Issue: contracts.Issue{
					ID:           uuid.NewString(),
					Type:         contracts.IssueComplianceViolation,
					Severity:     rule.Severity,
					Location:     contracts.Location{Start: loc[0], End: loc[1]},
					Description:  fmt.Sprintf("Content matches a restricted pattern for %s", rule.Regulation),
					Evidence:     []string{snippet(text, loc[0], loc[1], 40)},
					Confidence:   s.patternConfidence(match, p, rule.Severity),
					ModuleSource: source,
				},
				RuleID:              rule.ID,
				Rule:                &snapshot,
				ViolationType:       contracts.ViolationPatternMatch,
				RegulatoryReference: rule.Regulation,
				SuggestedFix:        fmt.Sprintf("Mask or remove the matched text; see %s.", rule.Regulation),
			})
		}
	}

	return out
}

// conditionViolation reports a rule that carries no keywords or patterns.
// Such rules are purely conditional; like other semantic findings the
// violation has no match location.
func (s *Scorer) conditionViolation(rule contracts.ComplianceRule, source string) contracts.ComplianceViolation {
	snapshot := rule
	return contracts.ComplianceViolation{
		Issue: contracts.Issue{
			ID:           uuid.NewString(),
			Type:         contracts.IssueComplianceViolation,
			Severity:     rule.Severity,
			Description:  fmt.Sprintf("Content meets the restricted conditions of %s", rule.Regulation),
			Evidence:     []string{rule.RuleText},
			Confidence:   s.policy.SemanticConfidence,
			ModuleSource: source,
		},
		RuleID:              rule.ID,
		Rule:                &snapshot,
		ViolationType:       contracts.ViolationSemanticMatch,
		RegulatoryReference: rule.Regulation,
		SuggestedFix:        fmt.Sprintf("Review the content against %s.", rule.Regulation),
	}
}

// contextScore weights a keyword match by its surrounding window: a base
// score, one bonus per domain risk term and per generic sensitive term
// present, one penalty per benign term, clamped to [0,1].
func (s *Scorer) contextScore(text string, domain contracts.Domain, loc []int) float64 {
	start := loc[0] - s.policy.ContextWindow
	if start < 0 {
		start = 0
	}
	end := loc[1] + s.policy.ContextWindow
	if end > len(text) {
		end = len(text)
	}
	window := strings.ToLower(text[start:end])

	score := s.policy.ContextBase
	for _, term := range s.policy.DomainRiskTerms[domain] {
		if strings.Contains(window, term) {
			score += s.policy.DomainTermBonus
		}
	}
	for _, term := range s.policy.SensitiveTerms {
		if strings.Contains(window, term) {
			score += s.policy.SensitiveTermBonus
		}
	}
	for _, term := range s.policy.BenignTerms {
		if strings.Contains(window, term) {
			score -= s.policy.BenignTermPenalty
		}
	}

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// patternConfidence starts from the base, rewards a match whose length
// equals the pattern source length, adds the severity bump, and caps at
// the policy maximum.
func (s *Scorer) patternConfidence(match, pattern string, severity contracts.Severity) int {
	c := s.policy.PatternBaseConfidence
	if len(match) == len(pattern) {
		c += s.policy.ExactLengthBonus
	}
	c += s.policy.SeverityBonus[severity]
	if c > s.policy.MaxConfidence {
		c = s.policy.MaxConfidence
	}
	return c
}

// overallRisk classifies the violation set: any critical violation, or
// more highs than the limit, is critical; any high, or more mediums than
// the limit, is high; any medium is medium; otherwise low.
func (s *Scorer) overallRisk(violations []contracts.ComplianceViolation) contracts.RiskLevel {
	var highs, mediums int
	var anyCritical, anyHigh, anyMedium bool
	for _, v := range violations {
		switch v.Severity {
		case contracts.SeverityCritical:
			anyCritical = true
		case contracts.SeverityHigh:
			anyHigh = true
			highs++
		case contracts.SeverityMedium:
			anyMedium = true
			mediums++
		}
	}

	switch {
	case anyCritical || highs > s.policy.HighViolationLimit:
		return contracts.RiskCritical
	case anyHigh || mediums > s.policy.MediumViolationLimit:
		return contracts.RiskHigh
	case anyMedium:
		return contracts.RiskMedium
	default:
		return contracts.RiskLow
	}
}

// score subtracts a per-severity penalty for each violation from 100,
// flooring at 0. A check with no applicable rules scores 100.
func (s *Scorer) score(violations []contracts.ComplianceViolation, applicableRules int) int {
	if applicableRules == 0 {
		return 100
	}
	total := 0
	for _, v := range violations {
		total += s.policy.PenaltyTable[v.Severity]
	}
	if total >= 100 {
		return 0
	}
	return 100 - total
}

// regexpFor returns the compiled form of src, compiling and caching it on
// first use. A source that fails to compile disables only itself: the
// failure is logged once and nil is cached so the scan skips it cheaply.
func (s *Scorer) regexpFor(src, ruleID, original string) *regexp.Regexp {
	s.mu.RLock()
	re, hit := s.compiled[src]
	s.mu.RUnlock()
	if hit {
		return re
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if re, hit = s.compiled[src]; hit {
		return re
	}
	re, err := regexp.Compile(src)
	if err != nil {
		s.logger.Warn("invalid rule pattern skipped",
			"rule_id", ruleID, "pattern", original, "error", err)
		s.compiled[src] = nil
		return nil
	}
	s.compiled[src] = re
	return re
}

// snippet returns the matched text with up to pad bytes of context on
// each side.
func snippet(text string, start, end, pad int) string {
	lo := start - pad
	if lo < 0 {
		lo = 0
	}
	hi := end + pad
	if hi > len(text) {
		hi = len(text)
	}
	return text[lo:hi]
}
