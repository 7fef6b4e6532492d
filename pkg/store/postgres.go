package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/verityhq/verdict/pkg/contracts"
	"github.com/verityhq/verdict/pkg/results"
)

// PostgresResultStore persists results in PostgreSQL.
type PostgresResultStore struct {
	db *sql.DB
}

func NewPostgresResultStore(db *sql.DB) *PostgresResultStore {
	return &PostgresResultStore{db: db}
}

// Migrate creates the results table when it does not exist. Run it once at
// boot before serving traffic.
func (s *PostgresResultStore) Migrate(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS verification_results (
		verification_id TEXT PRIMARY KEY,
		risk_level TEXT NOT NULL,
		overall_confidence INTEGER NOT NULL,
		issue_count INTEGER NOT NULL,
		payload JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS verification_results_created_at_idx
		ON verification_results (created_at DESC);`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to migrate verification_results: %w", err)
	}
	return nil
}

// SaveResult stores or replaces one result. Persistence retries are
// idempotent: the newest payload for a verification ID wins.
func (s *PostgresResultStore) SaveResult(ctx context.Context, result *contracts.VerificationResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode result %s: %w", result.VerificationID, err)
	}

	query := `
		INSERT INTO verification_results (verification_id, risk_level, overall_confidence, issue_count, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (verification_id) DO UPDATE SET
			risk_level = EXCLUDED.risk_level,
			overall_confidence = EXCLUDED.overall_confidence,
			issue_count = EXCLUDED.issue_count,
			payload = EXCLUDED.payload,
			created_at = EXCLUDED.created_at
	`
	_, err = s.db.ExecContext(ctx, query,
		result.VerificationID,
		string(result.RiskLevel),
		result.OverallConfidence,
		len(result.Issues),
		payload,
		result.Timestamp.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to persist result %s: %w", result.VerificationID, err)
	}
	return nil
}

// GetResult loads one result or reports results.ErrResultNotFound.
func (s *PostgresResultStore) GetResult(ctx context.Context, verificationID string) (*contracts.VerificationResult, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT payload FROM verification_results WHERE verification_id = $1`, verificationID)

	var payload []byte
	if err := row.Scan(&payload); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("result %s: %w", verificationID, results.ErrResultNotFound)
		}
		return nil, fmt.Errorf("failed to load result %s: %w", verificationID, err)
	}
	return decodeResult(payload)
}

// ListRecent returns up to limit results, newest first.
func (s *PostgresResultStore) ListRecent(ctx context.Context, limit int) ([]*contracts.VerificationResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM verification_results ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []*contracts.VerificationResult
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		result, err := decodeResult(payload)
		if err != nil {
			return nil, err
		}
		out = append(out, result)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
