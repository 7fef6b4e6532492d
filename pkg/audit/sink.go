// Package audit records the verification audit trail: ordered entries per
// verification, durable sinks (log, hash-chained store, Kafka), and
// evidence bundle export. Audit failures are contained at the call site —
// a broken sink never alters a verification's outcome.
package audit

import (
	"context"
	"errors"
	"log/slog"

	"github.com/verityhq/verdict/pkg/contracts"
)

// Sink receives audit entries.
type Sink interface {
	CreateEntry(ctx context.Context, entry contracts.AuditEntry) error
}

// SlogSink writes audit entries to a structured logger.
type SlogSink struct {
	logger *slog.Logger
}

// NewSlogSink creates a sink that logs entries at INFO. A nil logger falls
// back to slog.Default.
func NewSlogSink(logger *slog.Logger) *SlogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogSink{logger: logger}
}

// CreateEntry implements Sink.
func (s *SlogSink) CreateEntry(ctx context.Context, entry contracts.AuditEntry) error {
	s.logger.LogAttrs(ctx, slog.LevelInfo, "audit",
		slog.String("entry_id", entry.ID),
		slog.String("session_id", entry.SessionID),
		slog.String("action", entry.Action),
		slog.String("component", entry.Component),
		slog.Time("timestamp", entry.Timestamp),
		slog.Any("details", entry.Details),
	)
	return nil
}

// Fanout returns a sink that forwards each entry to every sink in order.
// All sinks are attempted; their errors are joined.
func Fanout(sinks ...Sink) Sink {
	return fanoutSink(sinks)
}

type fanoutSink []Sink

func (f fanoutSink) CreateEntry(ctx context.Context, entry contracts.AuditEntry) error {
	var errs []error
	for _, s := range f {
		if err := s.CreateEntry(ctx, entry); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
