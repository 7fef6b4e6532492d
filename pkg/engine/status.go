package engine

import (
	"context"
	"sync"

	"github.com/verityhq/verdict/pkg/contracts"
)

// statusEntry pairs a verification's live status with the function that
// cancels its dispatch context.
type statusEntry struct {
	status *contracts.VerificationStatus
	stop   context.CancelFunc
}

// statusTable tracks in-flight verifications. Entries exist only while a
// verification is active: every exit path removes its entry, so table size
// doubles as the live concurrency count.
type statusTable struct {
	mu     sync.Mutex
	active map[string]*statusEntry
}

func newStatusTable() *statusTable {
	return &statusTable{active: make(map[string]*statusEntry)}
}

func (t *statusTable) put(id string, stop context.CancelFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active[id] = &statusEntry{
		status: &contracts.VerificationStatus{
			VerificationID: id,
			Status:         contracts.StateProcessing,
			CurrentStep:    "validating",
		},
		stop: stop,
	}
}

// progress advances an active entry. Terminal entries are left alone so a
// cancellation cannot be overwritten by a late progress update.
func (t *statusTable) progress(id string, pct int, step string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.active[id]
	if !ok || e.status.Status.Terminal() {
		return
	}
	e.status.Progress = pct
	e.status.CurrentStep = step
}

func (t *statusTable) fail(id, msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.active[id]
	if !ok || e.status.Status.Terminal() {
		return
	}
	e.status.Status = contracts.StateFailed
	e.status.Error = msg
}

// cancel marks an active, non-terminal verification cancelled, stops its
// dispatch context, and reports whether it did so.
func (t *statusTable) cancel(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.active[id]
	if !ok || e.status.Status.Terminal() {
		return false
	}
	e.status.Status = contracts.StateCancelled
	if e.stop != nil {
		e.stop()
	}
	return true
}

func (t *statusTable) cancelled(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.active[id]
	return ok && e.status.Status == contracts.StateCancelled
}

func (t *statusTable) get(id string) (contracts.VerificationStatus, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.active[id]
	if !ok {
		return contracts.VerificationStatus{}, false
	}
	return *e.status, true
}

func (t *statusTable) remove(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.active, id)
}

func (t *statusTable) size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.active)
}
