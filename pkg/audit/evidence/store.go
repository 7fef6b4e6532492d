// Package evidence persists exported audit bundles in content-addressed
// storage. Evidence is append-only: bundles are written once under their
// SHA-256 hash and never deleted through this interface.
package evidence

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErrNotFound reports a hash with no stored bundle.
var ErrNotFound = errors.New("evidence not found")

// Store is content-addressed storage for evidence bundles.
type Store interface {
	// Store persists data and returns its content hash ("sha256:...").
	Store(ctx context.Context, data []byte) (string, error)
	// Get retrieves data by its content hash.
	Get(ctx context.Context, hash string) ([]byte, error)
	// Exists checks whether a bundle exists for the hash.
	Exists(ctx context.Context, hash string) (bool, error)
}

// FileStore keeps evidence bundles on the local filesystem.
type FileStore struct {
	baseDir string
	mu      sync.RWMutex
}

// NewFileStore creates a file-backed evidence store rooted at baseDir.
func NewFileStore(baseDir string) (*FileStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure evidence dir: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

// Store implements Store with an atomic write-then-rename.
func (s *FileStore) Store(_ context.Context, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, prefixed := hashBytes(data)
	path := filepath.Join(s.baseDir, raw+".json")

	if _, err := os.Stat(path); err == nil {
		return prefixed, nil // already stored
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("write evidence: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("commit evidence: %w", err)
	}
	return prefixed, nil
}

// Get implements Store.
func (s *FileStore) Get(_ context.Context, hash string) ([]byte, error) {
	raw, err := rawHash(hash)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(filepath.Join(s.baseDir, raw+".json"))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read evidence: %w", err)
	}
	return data, nil
}

// Exists implements Store.
func (s *FileStore) Exists(_ context.Context, hash string) (bool, error) {
	raw, err := rawHash(hash)
	if err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, err = os.Stat(filepath.Join(s.baseDir, raw+".json"))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat evidence: %w", err)
	}
	return true, nil
}

func hashBytes(data []byte) (raw, prefixed string) {
	sum := sha256.Sum256(data)
	raw = hex.EncodeToString(sum[:])
	return raw, "sha256:" + raw
}

func rawHash(hash string) (string, error) {
	const prefix = "sha256:"
	if len(hash) <= len(prefix) || hash[:len(prefix)] != prefix {
		return "", fmt.Errorf("invalid hash format: %s", hash)
	}
	return hash[len(prefix):], nil
}
