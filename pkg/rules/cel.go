package rules

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/verityhq/verdict/pkg/contracts"
)

// ConditionInput is the variable bundle a rule condition evaluates against.
type ConditionInput struct {
	Text         string
	Domain       string
	Jurisdiction string
	Metadata     map[string]any
}

// ConditionEvaluator evaluates the optional CEL conditions attached to
// rules. Programs are compiled once and cached; evaluation carries a hard
// cost limit so a pathological expression cannot stall scoring.
type ConditionEvaluator struct {
	env      *cel.Env
	mu       sync.RWMutex
	programs map[string]cel.Program
}

// NewConditionEvaluator builds the CEL environment shared by all rules.
func NewConditionEvaluator() (*ConditionEvaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable("text", cel.StringType),
		cel.Variable("domain", cel.StringType),
		cel.Variable("jurisdiction", cel.StringType),
		cel.Variable("metadata", cel.DynType),
	)
	if err != nil {
		return nil, fmt.Errorf("cel environment: %w", err)
	}
	return &ConditionEvaluator{
		env:      env,
		programs: make(map[string]cel.Program),
	}, nil
}

// Eval reports whether the condition holds for the input. An empty
// condition always holds.
func (e *ConditionEvaluator) Eval(condition string, input ConditionInput) (bool, error) {
	if condition == "" {
		return true, nil
	}
	prg, err := e.program(condition)
	if err != nil {
		return false, err
	}

	out, _, err := prg.Eval(map[string]any{
		"text":         input.Text,
		"domain":       input.Domain,
		"jurisdiction": input.Jurisdiction,
		"metadata":     metadataOrEmpty(input.Metadata),
	})
	if err != nil {
		return false, fmt.Errorf("eval condition: %w", err)
	}
	val, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("condition result is %T, want bool", out.Value())
	}
	return val, nil
}

// Precompile compiles every non-empty condition in the batch so malformed
// expressions surface at load time rather than mid-verification.
func (e *ConditionEvaluator) Precompile(in []contracts.ComplianceRule) error {
	for _, r := range in {
		if r.Condition == "" {
			continue
		}
		if _, err := e.program(r.Condition); err != nil {
			return fmt.Errorf("rule %s: %w", r.ID, err)
		}
	}
	return nil
}

func (e *ConditionEvaluator) program(expr string) (cel.Program, error) {
	e.mu.RLock()
	prg, hit := e.programs[expr]
	e.mu.RUnlock()
	if hit {
		return prg, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	// Double check under the write lock.
	if prg, hit = e.programs[expr]; hit {
		return prg, nil
	}

	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile condition: %w", issues.Err())
	}
	prg, err := e.env.Program(ast,
		cel.InterruptCheckFrequency(100),
		cel.CostLimit(10000),
	)
	if err != nil {
		return nil, fmt.Errorf("program condition: %w", err)
	}
	e.programs[expr] = prg
	return prg, nil
}

func metadataOrEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
