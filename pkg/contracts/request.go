// Package contracts defines the shared data model for the verification
// pipeline: requests, module results, issues, verdicts, and audit entries.
// All pipeline components exchange these types; none of them carry behavior
// beyond validation and ordering helpers.
package contracts

import (
	"encoding/json"
	"time"
)

// Domain selects which rule-evaluation modules apply to a request.
type Domain string

// Supported verification domains.
const (
	DomainLegal      Domain = "legal"
	DomainFinancial  Domain = "financial"
	DomainHealthcare Domain = "healthcare"
	DomainInsurance  Domain = "insurance"
)

// Valid reports whether d is one of the supported domains.
func (d Domain) Valid() bool {
	switch d {
	case DomainLegal, DomainFinancial, DomainHealthcare, DomainInsurance:
		return true
	}
	return false
}

// Domains returns all supported domains in a stable order.
func Domains() []Domain {
	return []Domain{DomainLegal, DomainFinancial, DomainHealthcare, DomainInsurance}
}

// Urgency expresses how quickly the caller needs a verdict. It is carried
// through the audit trail; it does not change scheduling.
type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyNormal   Urgency = "normal"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

// Valid reports whether u is a known urgency level.
func (u Urgency) Valid() bool {
	switch u {
	case UrgencyLow, UrgencyNormal, UrgencyHigh, UrgencyCritical:
		return true
	}
	return false
}

// ParsedContent is the plain-text form of a document, produced by an external
// parsing collaborator. The pipeline never re-parses: ExtractedText is the
// single source of truth for matching and fingerprinting.
type ParsedContent struct {
	ID            string         `json:"id"`
	ExtractedText string         `json:"extracted_text"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// Options tunes a single verification call.
type Options struct {
	// ConfidenceThreshold, when set, marks results whose overall confidence
	// falls below it with a synthetic issue (0-100).
	ConfidenceThreshold *int

	// MaxProcessingTime bounds each module invocation. Zero means the
	// engine default applies.
	MaxProcessingTime time.Duration
}

type optionsWire struct {
	ConfidenceThreshold *int  `json:"confidence_threshold,omitempty"`
	MaxProcessingTimeMS int64 `json:"max_processing_time_ms,omitempty"`
}

// MarshalJSON encodes MaxProcessingTime as integer milliseconds.
func (o Options) MarshalJSON() ([]byte, error) {
	return json.Marshal(optionsWire{
		ConfidenceThreshold: o.ConfidenceThreshold,
		MaxProcessingTimeMS: o.MaxProcessingTime.Milliseconds(),
	})
}

// UnmarshalJSON decodes integer milliseconds into MaxProcessingTime.
func (o *Options) UnmarshalJSON(data []byte) error {
	var w optionsWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	o.ConfidenceThreshold = w.ConfidenceThreshold
	o.MaxProcessingTime = time.Duration(w.MaxProcessingTimeMS) * time.Millisecond
	return nil
}

// VerificationRequest is the immutable input to a verification. Callers must
// not mutate it after submission; the engine and processor only read it.
type VerificationRequest struct {
	Content        ParsedContent `json:"content"`
	Domain         Domain        `json:"domain"`
	Urgency        Urgency       `json:"urgency"`
	Options        Options       `json:"options"`
	UserID         string        `json:"user_id,omitempty"`
	OrganizationID string        `json:"organization_id,omitempty"`
}
