package main

import (
	"log/slog"

	"github.com/verityhq/verdict/pkg/audit"
	"github.com/verityhq/verdict/pkg/compliance"
	"github.com/verityhq/verdict/pkg/contracts"
	"github.com/verityhq/verdict/pkg/engine"
	"github.com/verityhq/verdict/pkg/modules"
	"github.com/verityhq/verdict/pkg/results"
	"github.com/verityhq/verdict/pkg/rules"
)

// localPipeline wires an in-process engine over the rule files in rulesDir
// for one-shot subcommands: no cache, no store, no server. Returns the
// engine and the number of rules loaded.
func localPipeline(rulesDir, jurisdiction string, sink audit.Sink, logger *slog.Logger) (*engine.Engine, int, error) {
	ruleSet, err := rules.LoadDir(rulesDir)
	if err != nil {
		return nil, 0, err
	}
	ruleStore := rules.NewMemoryStore()
	ruleStore.PutAll(ruleSet)

	scorer, err := compliance.NewScorer(ruleStore, compliance.DefaultPolicy(), logger)
	if err != nil {
		return nil, 0, err
	}
	registry := modules.NewRegistry()
	for _, domain := range contracts.Domains() {
		if err := registry.Register(compliance.NewModule(scorer, domain, jurisdiction, serverVersion)); err != nil {
			return nil, 0, err
		}
	}

	eng := engine.New(engine.Config{
		Registry:  registry,
		Processor: results.NewProcessor(results.Config{Logger: logger}),
		Sink:      sink,
		Logger:    logger,
	})
	return eng, len(ruleSet), nil
}
