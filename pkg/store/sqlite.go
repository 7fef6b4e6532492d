// Package store persists verification results in SQL databases: SQLite for
// single-process deployments, PostgreSQL for shared ones. Both implement
// results.ResultStore.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/verityhq/verdict/pkg/contracts"
	"github.com/verityhq/verdict/pkg/results"
)

// timeLayout keeps trailing zeros so text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteResultStore persists results in SQLite.
type SQLiteResultStore struct {
	db *sql.DB
}

// NewSQLiteResultStore creates the store and its schema.
func NewSQLiteResultStore(db *sql.DB) (*SQLiteResultStore, error) {
	s := &SQLiteResultStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteResultStore) migrate() error {
	query := `
    CREATE TABLE IF NOT EXISTS verification_results (
        verification_id TEXT PRIMARY KEY,
        risk_level TEXT NOT NULL,
        overall_confidence INTEGER NOT NULL,
        issue_count INTEGER NOT NULL,
        payload JSON NOT NULL,
        created_at DATETIME NOT NULL
    );`
	_, err := s.db.ExecContext(context.Background(), query)
	return err
}

// SaveResult stores or replaces one result. Persistence retries are
// idempotent: the newest payload for a verification ID wins.
func (s *SQLiteResultStore) SaveResult(ctx context.Context, result *contracts.VerificationResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode result %s: %w", result.VerificationID, err)
	}

	query := `INSERT INTO verification_results (
		verification_id, risk_level, overall_confidence, issue_count, payload, created_at
	) VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT (verification_id) DO UPDATE SET
		risk_level = excluded.risk_level,
		overall_confidence = excluded.overall_confidence,
		issue_count = excluded.issue_count,
		payload = excluded.payload,
		created_at = excluded.created_at`

	_, err = s.db.ExecContext(ctx, query,
		result.VerificationID,
		string(result.RiskLevel),
		result.OverallConfidence,
		len(result.Issues),
		string(payload),
		result.Timestamp.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to insert result %s: %w", result.VerificationID, err)
	}
	return nil
}

// GetResult loads one result or reports results.ErrResultNotFound.
func (s *SQLiteResultStore) GetResult(ctx context.Context, verificationID string) (*contracts.VerificationResult, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT payload FROM verification_results WHERE verification_id = ?`, verificationID)

	var payload string
	if err := row.Scan(&payload); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("result %s: %w", verificationID, results.ErrResultNotFound)
		}
		return nil, fmt.Errorf("failed to load result %s: %w", verificationID, err)
	}
	return decodeResult([]byte(payload))
}

// ListRecent returns up to limit results, newest first.
func (s *SQLiteResultStore) ListRecent(ctx context.Context, limit int) ([]*contracts.VerificationResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM verification_results ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []*contracts.VerificationResult
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		result, err := decodeResult([]byte(payload))
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

func decodeResult(payload []byte) (*contracts.VerificationResult, error) {
	var result contracts.VerificationResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("failed to decode stored result: %w", err)
	}
	return &result, nil
}
