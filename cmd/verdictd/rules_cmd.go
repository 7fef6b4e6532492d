package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"path/filepath"

	"github.com/verityhq/verdict/pkg/rules"
)

func runRulesCmd(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 || args[0] != "lint" {
		_, _ = fmt.Fprintln(stderr, "Usage: verdictd rules lint [flags] <dir>")
		return 2
	}
	return runRulesLint(args[1:], stdout, stderr)
}

// lintReport is the per-file outcome of a lint run.
type lintReport struct {
	File  string `json:"file"`
	Rules int    `json:"rules"`
	Error string `json:"error,omitempty"`
}

// runRulesLint implements `verdictd rules lint <dir>`.
//
// Validates every rules_*.yaml file in the directory: schema, pattern
// compilation, and condition compilation. Files are checked independently
// so one broken file does not hide findings in the others.
//
// Exit codes:
//
//	0 = every file valid
//	1 = at least one file invalid, or no rule files found
//	2 = runtime or usage error
func runRulesLint(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("rules lint", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var jsonOutput bool
	cmd.BoolVar(&jsonOutput, "json", false, "Output findings as JSON")

	if err := cmd.Parse(args); err != nil {
		return 2
	}

	dir := cmd.Arg(0)
	if dir == "" {
		_, _ = fmt.Fprintln(stderr, "Error: a rules directory argument is required")
		return 2
	}

	matches, err := filepath.Glob(filepath.Join(dir, "rules_*.yaml"))
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	reports := make([]lintReport, 0, len(matches))
	failed := 0
	for _, path := range matches {
		report := lintReport{File: filepath.Base(path)}
		loaded, err := rules.LoadFile(path)
		if err != nil {
			report.Error = err.Error()
			failed++
		} else {
			report.Rules = len(loaded)
		}
		reports = append(reports, report)
	}

	if jsonOutput {
		summary := map[string]any{
			"dir":   dir,
			"files": reports,
			"valid": failed == 0 && len(reports) > 0,
		}
		data, _ := json.MarshalIndent(summary, "", "  ")
		_, _ = fmt.Fprintln(stdout, string(data))
	} else {
		for _, report := range reports {
			if report.Error != "" {
				_, _ = fmt.Fprintf(stdout, "FAIL %s: %s\n", report.File, report.Error)
			} else {
				_, _ = fmt.Fprintf(stdout, "OK   %s (%d rules)\n", report.File, report.Rules)
			}
		}
		_, _ = fmt.Fprintf(stdout, "%d files checked, %d invalid\n", len(reports), failed)
	}

	if len(reports) == 0 {
		_, _ = fmt.Fprintf(stderr, "Error: no rules_*.yaml files in %s\n", dir)
		return 1
	}
	if failed > 0 {
		return 1
	}
	return 0
}
