package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/verityhq/verdict/pkg/contracts"
)

// Trail collects one verification's audit entries in dispatch order and
// forwards each entry to the configured sink. Entries within a trail are
// strictly ordered; there is no ordering between trails. Sink failures are
// logged and swallowed so audit persistence cannot break a verification.
type Trail struct {
	sessionID string
	userID    string
	sink      Sink
	logger    *slog.Logger

	mu      sync.Mutex
	entries []contracts.AuditEntry
}

// NewTrail starts a trail for one verification session. sink may be nil
// when entries only need to travel with the result.
func NewTrail(sessionID, userID string, sink Sink, logger *slog.Logger) *Trail {
	if logger == nil {
		logger = slog.Default()
	}
	return &Trail{
		sessionID: sessionID,
		userID:    userID,
		sink:      sink,
		logger:    logger,
	}
}

// Record appends an entry to the trail and forwards it to the sink.
func (t *Trail) Record(ctx context.Context, action, component string, details map[string]any) {
	entry := contracts.AuditEntry{
		ID:        uuid.NewString(),
		SessionID: t.sessionID,
		Timestamp: time.Now().UTC(),
		Action:    action,
		Component: component,
		Details:   details,
		UserID:    t.userID,
	}

	t.mu.Lock()
	t.entries = append(t.entries, entry)
	t.mu.Unlock()

	if t.sink == nil {
		return
	}
	if err := t.sink.CreateEntry(ctx, entry); err != nil {
		t.logger.Warn("audit sink failed",
			"session_id", t.sessionID,
			"action", action,
			"error", err)
	}
}

// Entries returns a copy of the trail in record order.
func (t *Trail) Entries() []contracts.AuditEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]contracts.AuditEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len reports how many entries the trail holds.
func (t *Trail) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
