package rules

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/verityhq/verdict/pkg/contracts"
)

// ruleFileSchema validates rule files before they are decoded.
const ruleFileSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["rules"],
  "properties": {
    "rules": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "rule_text", "regulation", "domain", "severity"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "rule_text": {"type": "string", "minLength": 1},
          "regulation": {"type": "string", "minLength": 1},
          "jurisdiction": {"type": "string"},
          "domain": {"type": "string", "enum": ["legal", "financial", "healthcare", "insurance"]},
          "severity": {"type": "string", "enum": ["low", "medium", "high", "critical"]},
          "keywords": {"type": "array", "items": {"type": "string", "minLength": 1}},
          "patterns": {"type": "array", "items": {"type": "string", "minLength": 1}},
          "condition": {"type": "string"},
          "is_active": {"type": "boolean"}
        },
        "additionalProperties": false
      }
    }
  },
  "additionalProperties": false
}`

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func fileSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft2020
		const url = "https://verdict.schemas.local/rules.schema.json"
		if err := c.AddResource(url, strings.NewReader(ruleFileSchema)); err != nil {
			schemaErr = fmt.Errorf("rule schema load failed: %w", err)
			return
		}
		compiledSchema, schemaErr = c.Compile(url)
	})
	return compiledSchema, schemaErr
}

type ruleFile struct {
	Rules []ruleEntry `yaml:"rules"`
}

type ruleEntry struct {
	ID           string   `yaml:"id"`
	RuleText     string   `yaml:"rule_text"`
	Regulation   string   `yaml:"regulation"`
	Jurisdiction string   `yaml:"jurisdiction"`
	Domain       string   `yaml:"domain"`
	Severity     string   `yaml:"severity"`
	Keywords     []string `yaml:"keywords"`
	Patterns     []string `yaml:"patterns"`
	Condition    string   `yaml:"condition"`
	IsActive     *bool    `yaml:"is_active"`
}

// LoadFile reads a YAML rule file, validates it against the embedded JSON
// Schema, and verifies every pattern and condition compiles. A file with
// any invalid entry is rejected whole.
func LoadFile(path string) ([]contracts.ComplianceRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rule file: %w", err)
	}
	return Parse(data)
}

// Parse validates and decodes a YAML rule document.
func Parse(data []byte) ([]contracts.ComplianceRule, error) {
	schema, err := fileSchema()
	if err != nil {
		return nil, err
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse rule file: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("rule file schema validation failed: %w", err)
	}

	var file ruleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode rule file: %w", err)
	}

	out := make([]contracts.ComplianceRule, 0, len(file.Rules))
	for _, e := range file.Rules {
		active := true
		if e.IsActive != nil {
			active = *e.IsActive
		}
		out = append(out, contracts.ComplianceRule{
			ID:           e.ID,
			RuleText:     e.RuleText,
			Regulation:   e.Regulation,
			Jurisdiction: e.Jurisdiction,
			Domain:       contracts.Domain(e.Domain),
			Severity:     contracts.Severity(e.Severity),
			Keywords:     e.Keywords,
			Patterns:     e.Patterns,
			Condition:    e.Condition,
			IsActive:     active,
		})
	}

	if err := Compile(out).Err(); err != nil {
		return nil, err
	}
	eval, err := NewConditionEvaluator()
	if err != nil {
		return nil, err
	}
	if err := eval.Precompile(out); err != nil {
		return nil, err
	}
	return out, nil
}

// LoadDir loads every rules_*.yaml file under dir.
func LoadDir(dir string) ([]contracts.ComplianceRule, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "rules_*.yaml"))
	if err != nil {
		return nil, err
	}

	var all []contracts.ComplianceRule
	for _, path := range matches {
		loaded, err := LoadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		all = append(all, loaded...)
	}
	return all, nil
}
