package contracts

import "time"

// RiskLevel is the coarse verdict derived from issues and confidence. It is
// always computed, never set directly.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Rank orders risk levels: low=0 … critical=3.
func (r RiskLevel) Rank() int {
	switch r {
	case RiskLow:
		return 0
	case RiskMedium:
		return 1
	case RiskHigh:
		return 2
	case RiskCritical:
		return 3
	}
	return -1
}

// ValidationResult is one module's verdict over a piece of content. It is
// produced once per module invocation; the results processor owns it after
// return and may annotate issue provenance in place.
type ValidationResult struct {
	ModuleID       string         `json:"module_id"`
	Issues         []Issue        `json:"issues"`
	Confidence     int            `json:"confidence"` // 0-100
	ProcessingTime time.Duration  `json:"processing_time"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// VerificationResult is the aggregated verdict for one verification call.
// Cached copies are re-stamped with a fresh VerificationID and Timestamp on
// reuse but share the issue/score payload.
type VerificationResult struct {
	VerificationID    string        `json:"verification_id"`
	OverallConfidence int           `json:"overall_confidence"` // 0-100
	RiskLevel         RiskLevel     `json:"risk_level"`
	Issues            []Issue       `json:"issues"`
	AuditTrail        []AuditEntry  `json:"audit_trail"`
	ProcessingTime    time.Duration `json:"processing_time"`
	Recommendations   []string      `json:"recommendations"`
	Timestamp         time.Time     `json:"timestamp"`
}

// VerificationState is the lifecycle phase of an in-flight verification.
// Processing is the only non-terminal state; Completed, Failed and Cancelled
// are terminal and never transition out.
type VerificationState string

const (
	StateProcessing VerificationState = "processing"
	StateCompleted  VerificationState = "completed"
	StateFailed     VerificationState = "failed"
	StateCancelled  VerificationState = "cancelled"
)

// Terminal reports whether the state admits no further transitions.
func (s VerificationState) Terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateCancelled
}

// VerificationStatus is a live snapshot of an in-flight verification. It
// exists only while the verification is active; terminal verifications are
// removed from the active table and report their outcome via the returned
// VerificationResult instead.
type VerificationStatus struct {
	VerificationID string            `json:"verification_id"`
	Status         VerificationState `json:"status"`
	Progress       int               `json:"progress"` // 0-100
	CurrentStep    string            `json:"current_step"`
	Error          string            `json:"error,omitempty"`
}
