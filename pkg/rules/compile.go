package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/verityhq/verdict/pkg/contracts"
)

// CompiledPattern pairs a rule pattern with its compiled form. The source
// text is retained because match scoring compares match length against it.
type CompiledPattern struct {
	Source string
	Regexp *regexp.Regexp
}

// CompiledRule carries a rule with its match artifacts precompiled: one
// case-insensitive regexp per pattern and per keyword.
type CompiledRule struct {
	Rule     contracts.ComplianceRule
	Keywords []CompiledPattern
	Patterns []CompiledPattern
}

// CompileError records a pattern that failed to compile.
type CompileError struct {
	RuleID  string
	Pattern string
	Err     error
}

func (e CompileError) Error() string {
	return fmt.Sprintf("rule %s: pattern %q: %v", e.RuleID, e.Pattern, e.Err)
}

// CompileReport is the outcome of compiling a batch of rules. Rules holds
// every rule whose patterns all compiled; Errors lists the rejects.
type CompileReport struct {
	Rules  []CompiledRule
	Errors []CompileError
}

// Err returns an aggregate error when any rule failed to compile.
func (r CompileReport) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Error()
	}
	return fmt.Errorf("%d rule pattern(s) rejected: %s", len(r.Errors), strings.Join(msgs, "; "))
}

// Compile precompiles the match artifacts for a batch of rules. A pattern
// that fails to compile is reported and skipped; the rule stays in the
// result with its remaining keywords and patterns intact. Loaders treat a
// non-empty Errors list as fatal via Err; runtime callers may proceed with
// the valid remainder.
func Compile(in []contracts.ComplianceRule) CompileReport {
	report := CompileReport{Rules: make([]CompiledRule, 0, len(in))}

	for _, rule := range in {
		cr := CompiledRule{Rule: rule}

		for _, kw := range rule.Keywords {
			// Quoted keywords always compile; they match literally,
			// case-insensitive, at their exact byte offsets.
			cr.Keywords = append(cr.Keywords, CompiledPattern{
				Source: kw,
				Regexp: regexp.MustCompile(`(?i)` + regexp.QuoteMeta(kw)),
			})
		}
		for _, p := range rule.Patterns {
			re, err := regexp.Compile(`(?i)` + p)
			if err != nil {
				report.Errors = append(report.Errors, CompileError{RuleID: rule.ID, Pattern: p, Err: err})
				continue
			}
			cr.Patterns = append(cr.Patterns, CompiledPattern{Source: p, Regexp: re})
		}

		report.Rules = append(report.Rules, cr)
	}
	return report
}
