package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"

	"github.com/verityhq/verdict/pkg/audit"
	"github.com/verityhq/verdict/pkg/audit/evidence"
)

// runExportCmd implements `verdictd export <file>`.
//
// Verifies a content file in-process and seals the verification's audit
// chain into an evidence bundle under -out. The printed hash addresses the
// bundle in the store.
//
// Exit codes:
//
//	0 = bundle exported
//	2 = runtime or usage error
func runExportCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("export", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		domain       string
		urgency      string
		rulesDir     string
		jurisdiction string
		outDir       string
		jsonOutput   bool
	)
	cmd.StringVar(&domain, "domain", "", "Verification domain: legal, financial, healthcare or insurance (REQUIRED)")
	cmd.StringVar(&urgency, "urgency", "normal", "Request urgency: low, normal, high or critical")
	cmd.StringVar(&rulesDir, "rules", "rules", "Directory holding rules_*.yaml files")
	cmd.StringVar(&jurisdiction, "jurisdiction", "", "Jurisdiction filter; empty applies every rule")
	cmd.StringVar(&outDir, "out", "evidence", "Directory for the evidence bundle store")
	cmd.BoolVar(&jsonOutput, "json", false, "Print the export summary as JSON")

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

	chain := audit.NewChainStore()
	result, _, code := verifyFile(path, domain, urgency, rulesDir, jurisdiction, chain, stderr)
	if code != 0 {
		return code
	}

	store, err := evidence.NewFileStore(outDir)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	exporter := audit.NewExporter(chain, store, logger)
	hash, err := exporter.Export(context.Background(), result.VerificationID)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	if jsonOutput {
		summary := map[string]any{
			"verification_id": result.VerificationID,
			"risk_level":      result.RiskLevel,
			"bundle_hash":     hash,
			"store_dir":       outDir,
		}
		data, _ := json.MarshalIndent(summary, "", "  ")
		_, _ = fmt.Fprintln(stdout, string(data))
	} else {
		_, _ = fmt.Fprintf(stdout, "Verification %s (risk %s)\n", result.VerificationID, result.RiskLevel)
		_, _ = fmt.Fprintf(stdout, "Evidence bundle %s stored in %s\n", hash, outDir)
	}
	return 0
}
