package contracts

import "time"

// Audit actions emitted by the verification lifecycle. Entries for a single
// verification are strictly ordered; there is no ordering guarantee between
// verifications.
const (
	AuditVerificationStarted   = "verification_started"
	AuditVerificationCompleted = "verification_completed"
	AuditVerificationFailed    = "verification_failed"
	AuditVerificationCancelled = "verification_cancelled"
	AuditModuleStarted         = "module_started"
	AuditModuleCompleted       = "module_completed"
	AuditModuleFailed          = "module_failed"
)

// AuditEntry is one append-only record in a verification's trail. SessionID
// equals the verification ID so a trail can be reassembled from any sink.
type AuditEntry struct {
	ID        string         `json:"id"`
	SessionID string         `json:"session_id"`
	Timestamp time.Time      `json:"timestamp"`
	Action    string         `json:"action"`
	Component string         `json:"component"`
	Details   map[string]any `json:"details,omitempty"`
	UserID    string         `json:"user_id,omitempty"`
}
