//go:build gcp

package evidence

import (
	"context"
	"fmt"
	"os"
)

func newGCSStoreFromEnv(ctx context.Context) (Store, error) {
	bucket := os.Getenv("EVIDENCE_GCS_BUCKET")
	if bucket == "" {
		return nil, fmt.Errorf("EVIDENCE_GCS_BUCKET is required for GCS storage")
	}

	cfg := GCSConfig{
		Bucket: bucket,
		Prefix: os.Getenv("EVIDENCE_GCS_PREFIX"),
	}

	return NewGCSStore(ctx, cfg)
}
