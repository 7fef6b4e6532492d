package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/verityhq/verdict/pkg/audit/evidence"
)

// Exporter seals finished verification sessions into evidence bundles and
// persists them in content-addressed storage.
type Exporter struct {
	chain  *ChainStore
	store  evidence.Store
	logger *slog.Logger
}

// NewExporter wires a chain store to an evidence backend.
func NewExporter(chain *ChainStore, store evidence.Store, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{chain: chain, store: store, logger: logger}
}

// Export seals the session's chain records and writes the bundle to the
// evidence store. Returns the content hash of the stored bundle.
func (e *Exporter) Export(ctx context.Context, sessionID string) (string, error) {
	bundle, err := e.chain.ExportBundle(sessionID)
	if err != nil {
		return "", fmt.Errorf("export bundle for %s: %w", sessionID, err)
	}

	data, err := json.Marshal(bundle)
	if err != nil {
		return "", fmt.Errorf("marshal bundle for %s: %w", sessionID, err)
	}

	hash, err := e.store.Store(ctx, data)
	if err != nil {
		return "", fmt.Errorf("store bundle for %s: %w", sessionID, err)
	}

	e.logger.InfoContext(ctx, "evidence bundle exported",
		slog.String("session_id", sessionID),
		slog.String("bundle_hash", hash),
		slog.Int("records", len(bundle.Records)))
	return hash, nil
}

// Load retrieves a previously exported bundle by content hash and checks
// its seal before returning it.
func (e *Exporter) Load(ctx context.Context, hash string) (*EvidenceBundle, error) {
	data, err := e.store.Get(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("load bundle %s: %w", hash, err)
	}

	var bundle EvidenceBundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		return nil, fmt.Errorf("decode bundle %s: %w", hash, err)
	}

	if err := VerifyBundle(&bundle); err != nil {
		return nil, fmt.Errorf("bundle %s failed verification: %w", hash, err)
	}
	return &bundle, nil
}
