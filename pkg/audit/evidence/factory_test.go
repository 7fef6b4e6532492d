package evidence

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewStoreFromEnv_Default(t *testing.T) {
	_ = os.Unsetenv("EVIDENCE_STORAGE_TYPE")

	tmpDir := t.TempDir()
	t.Setenv("DATA_DIR", tmpDir)

	store, err := NewStoreFromEnv(context.Background())
	if err != nil {
		t.Fatalf("NewStoreFromEnv failed: %v", err)
	}

	fs, ok := store.(*FileStore)
	if !ok {
		t.Fatalf("Expected *FileStore, got %T", store)
	}

	expectedBase := filepath.Join(tmpDir, "evidence")
	if fs.baseDir != expectedBase {
		t.Errorf("Expected baseDir %s, got %s", expectedBase, fs.baseDir)
	}
}

func TestNewStoreFromEnv_S3MissingBucket(t *testing.T) {
	t.Setenv("EVIDENCE_STORAGE_TYPE", "s3")
	_ = os.Unsetenv("EVIDENCE_S3_BUCKET")

	_, err := NewStoreFromEnv(context.Background())
	if err == nil {
		t.Fatal("Expected error for missing S3 bucket")
	}
	if !strings.Contains(err.Error(), "EVIDENCE_S3_BUCKET is required") {
		t.Errorf("Expected missing-bucket error, got: %v", err)
	}
}

func TestNewStoreFromEnv_UnsupportedType(t *testing.T) {
	t.Setenv("EVIDENCE_STORAGE_TYPE", "azure")

	_, err := NewStoreFromEnv(context.Background())
	if err == nil {
		t.Fatal("Expected error for unsupported storage type")
	}
	if !strings.Contains(err.Error(), "unsupported evidence storage type") {
		t.Errorf("Expected unsupported-type error, got: %v", err)
	}
}

func TestFileStore_RoundTrip(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "evidence"))
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	ctx := context.Background()
	data := []byte(`{"bundle_id":"b-1"}`)

	hash, err := store.Store(ctx, data)
	if err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if !strings.HasPrefix(hash, "sha256:") {
		t.Errorf("Expected hash to start with sha256:, got: %s", hash)
	}

	retrieved, err := store.Get(ctx, hash)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(retrieved) != string(data) {
		t.Errorf("Expected %q, got %q", data, retrieved)
	}

	ok, err := store.Exists(ctx, hash)
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !ok {
		t.Error("Expected stored bundle to exist")
	}
}

func TestFileStore_Idempotent(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "evidence"))
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	ctx := context.Background()
	data := []byte(`{"bundle_id":"b-1"}`)

	hash1, err := store.Store(ctx, data)
	if err != nil {
		t.Fatalf("First store failed: %v", err)
	}
	hash2, err := store.Store(ctx, data)
	if err != nil {
		t.Fatalf("Second store failed: %v", err)
	}
	if hash1 != hash2 {
		t.Errorf("Expected same hash, got %s and %s", hash1, hash2)
	}
}

func TestFileStore_GetNotFound(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "evidence"))
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	_, err = store.Get(context.Background(), "sha256:0000000000000000000000000000000000000000000000000000000000000000")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	ok, err := store.Exists(context.Background(), "sha256:0000000000000000000000000000000000000000000000000000000000000000")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if ok {
		t.Error("Expected missing bundle to not exist")
	}
}

func TestFileStore_InvalidHashFormat(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "evidence"))
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	_, err = store.Get(context.Background(), "invalid-hash")
	if err == nil {
		t.Fatal("Expected error for invalid hash format")
	}
	if !strings.Contains(err.Error(), "invalid hash format") {
		t.Errorf("Expected invalid-format error, got: %v", err)
	}
}
