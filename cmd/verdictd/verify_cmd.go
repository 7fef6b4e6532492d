package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/verityhq/verdict/pkg/audit"
	"github.com/verityhq/verdict/pkg/contracts"
)

// runVerifyCmd implements `verdictd verify <file>`.
//
// Runs one verification in-process against the rule files in -rules and
// prints the verdict.
//
// Exit codes:
//
//	0 = completed below the -fail-at risk level
//	1 = completed at or above the -fail-at risk level
//	2 = runtime or usage error
func runVerifyCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("verify", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		domain       string
		urgency      string
		rulesDir     string
		jurisdiction string
		failAt       string
		jsonOutput   bool
	)
	cmd.StringVar(&domain, "domain", "", "Verification domain: legal, financial, healthcare or insurance (REQUIRED)")
	cmd.StringVar(&urgency, "urgency", "normal", "Request urgency: low, normal, high or critical")
	cmd.StringVar(&rulesDir, "rules", "rules", "Directory holding rules_*.yaml files")
	cmd.StringVar(&jurisdiction, "jurisdiction", "", "Jurisdiction filter; empty applies every rule")
	cmd.StringVar(&failAt, "fail-at", "critical", "Risk level at which the command exits non-zero")
	cmd.BoolVar(&jsonOutput, "json", false, "Print the full result as JSON")

	if err := cmd.Parse(args); err != nil {
		return 2
	}

	path := cmd.Arg(0)
	if path == "" {
		_, _ = fmt.Fprintln(stderr, "Error: a content file argument is required")
		return 2
	}
	if domain == "" {
		_, _ = fmt.Fprintln(stderr, "Error: --domain is required")
		return 2
	}
	threshold := contracts.RiskLevel(failAt)
	if threshold.Rank() < 0 {
		_, _ = fmt.Fprintf(stderr, "Error: unknown risk level %q\n", failAt)
		return 2
	}

	result, ruleCount, code := verifyFile(path, domain, urgency, rulesDir, jurisdiction, nil, stderr)
	if code != 0 {
		return code
	}

	if jsonOutput {
		data, _ := json.MarshalIndent(result, "", "  ")
		_, _ = fmt.Fprintln(stdout, string(data))
	} else {
		printVerdict(stdout, result, ruleCount)
	}

	if result.RiskLevel.Rank() >= threshold.Rank() {
		return 1
	}
	return 0
}

// verifyFile reads path and runs it through a local pipeline, with audit
// entries mirrored to sink when one is given. A non-zero exit code means
// the error was already reported on stderr.
func verifyFile(path, domain, urgency, rulesDir, jurisdiction string, sink audit.Sink, stderr io.Writer) (*contracts.VerificationResult, int, int) {
	data, err := os.ReadFile(path)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return nil, 0, 2
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	eng, ruleCount, err := localPipeline(rulesDir, jurisdiction, sink, logger)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return nil, 0, 2
	}

	req := contracts.VerificationRequest{
		Content: contracts.ParsedContent{
			ID:            filepath.Base(path),
			ExtractedText: string(data),
		},
		Domain:  contracts.Domain(domain),
		Urgency: contracts.Urgency(urgency),
		UserID:  "cli",
	}

	result, err := eng.Verify(context.Background(), req)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return nil, 0, 2
	}
	return result, ruleCount, 0
}

func printVerdict(w io.Writer, result *contracts.VerificationResult, ruleCount int) {
	_, _ = fmt.Fprintf(w, "Verification %s\n", result.VerificationID)
	_, _ = fmt.Fprintf(w, "  Rules:      %d\n", ruleCount)
	_, _ = fmt.Fprintf(w, "  Risk:       %s\n", result.RiskLevel)
	_, _ = fmt.Fprintf(w, "  Confidence: %d\n", result.OverallConfidence)
	_, _ = fmt.Fprintf(w, "  Issues:     %d\n", len(result.Issues))
	for _, issue := range result.Issues {
		_, _ = fmt.Fprintf(w, "    [%s] %s\n", issue.Severity, issue.Description)
	}
	for _, rec := range result.Recommendations {
		_, _ = fmt.Fprintf(w, "  * %s\n", rec)
	}
}
