package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Semantic convention attributes for the verification pipeline.
var (
	AttrVerificationID = attribute.Key("verdict.verification.id")
	AttrDomain         = attribute.Key("verdict.domain")
	AttrUrgency        = attribute.Key("verdict.urgency")

	AttrRiskLevel  = attribute.Key("verdict.risk_level")
	AttrConfidence = attribute.Key("verdict.confidence")
	AttrIssueCount = attribute.Key("verdict.issue_count")

	AttrModuleID      = attribute.Key("verdict.module.id")
	AttrModuleFailure = attribute.Key("verdict.module.failure")

	AttrCacheOutcome = attribute.Key("verdict.cache.outcome")
)

// VerificationOperation builds attributes for an incoming verification.
func VerificationOperation(verificationID, domain, urgency string) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrVerificationID.String(verificationID),
		AttrDomain.String(domain),
		AttrUrgency.String(urgency),
	}
}

// VerificationOutcome builds attributes for a completed verification.
func VerificationOutcome(riskLevel string, confidence, issueCount int) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrRiskLevel.String(riskLevel),
		AttrConfidence.Int(confidence),
		AttrIssueCount.Int(issueCount),
	}
}

// ModuleOperation builds attributes for a single module dispatch. failure is
// empty when the module settled normally.
func ModuleOperation(moduleID, failure string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{AttrModuleID.String(moduleID)}
	if failure != "" {
		attrs = append(attrs, AttrModuleFailure.String(failure))
	}
	return attrs
}

// CacheOperation builds attributes for an aggregation cache lookup.
func CacheOperation(outcome string) []attribute.KeyValue {
	return []attribute.KeyValue{AttrCacheOutcome.String(outcome)}
}

// SpanFromContext returns the span recorded on ctx, or a no-op span.
func SpanFromContext(ctx context.Context) trace.Span {
	return trace.SpanFromContext(ctx)
}

// AddSpanEvent attaches an event to the current span.
func AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// SetSpanStatus marks the current span failed or ok based on err.
func SetSpanStatus(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
}
