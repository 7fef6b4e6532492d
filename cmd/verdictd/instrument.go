package main

import (
	"context"

	"github.com/verityhq/verdict/pkg/contracts"
	"github.com/verityhq/verdict/pkg/engine"
	"github.com/verityhq/verdict/pkg/observability"
)

// tracedEngine spans every verification with RED metrics at the assembly
// boundary, keeping the engine itself free of the otel SDK.
type tracedEngine struct {
	*engine.Engine
	obs *observability.Provider
}

func (t *tracedEngine) Verify(ctx context.Context, req contracts.VerificationRequest) (*contracts.VerificationResult, error) {
	ctx, finish := t.obs.TrackOperation(ctx, "verdict.verify",
		observability.AttrDomain.String(string(req.Domain)),
		observability.AttrUrgency.String(string(req.Urgency)),
	)
	result, err := t.Engine.Verify(ctx, req)
	if result != nil {
		attrs := observability.VerificationOutcome(
			string(result.RiskLevel), result.OverallConfidence, len(result.Issues))
		attrs = append(attrs, observability.AttrVerificationID.String(result.VerificationID))
		observability.AddSpanEvent(ctx, "verification.settled", attrs...)
	}
	finish(err)
	return result, err
}
