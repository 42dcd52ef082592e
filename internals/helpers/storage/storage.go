// file: internals/helpers/storage/storage.go
package storage

import (
	"context"
	"errors"
	"fmt"

	"missionhub_backend/internals/configs"
)

// ErrObjectExists marks an upload that hit an existing object while
// overwrite was forbidden. Callers treat it as a recoverable per-file failure.
var ErrObjectExists = errors.New("object already exists")

type BucketSpec struct {
	Name             string
	Public           bool
	AllowedMimeTypes []string
	FileSizeLimit    int64
}

// AssetsBucketSpec describes the image bucket: public, image MIME types
// only, 5MB per file.
func AssetsBucketSpec(name string) BucketSpec {
	return BucketSpec{
		Name:   name,
		Public: true,
		AllowedMimeTypes: []string{
			"image/jpeg", "image/png", "image/webp", "image/gif", "image/svg+xml",
		},
		FileSizeLimit: 5 * 1024 * 1024,
	}
}

// JSONBucketSpec describes the sidecar document bucket: public, JSON only,
// 10MB per object.
func JSONBucketSpec(name string) BucketSpec {
	return BucketSpec{
		Name:             name,
		Public:           true,
		AllowedMimeTypes: []string{"application/json"},
		FileSizeLimit:    10 * 1024 * 1024,
	}
}

// ObjectStorage is the object-store collaborator: bucket creation is
// idempotent, uploads may forbid overwrite, deletes are idempotent, and
// every stored object has a durable public URL.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context, spec BucketSpec) error
	Upload(ctx context.Context, bucket, path string, data []byte, contentType string, upsert bool) error
	Delete(ctx context.Context, bucket, path string) error
	PublicURL(bucket, path string) string
}

// NewFromEnv picks the backend from STORAGE_DRIVER ("supabase" or "oss").
func NewFromEnv() (ObjectStorage, error) {
	switch configs.StorageDriver {
	case "", "supabase":
		return NewSupabaseStorageFromEnv()
	case "oss":
		return NewOSSStorageFromEnv()
	}
	return nil, fmt.Errorf("unknown STORAGE_DRIVER: %q", configs.StorageDriver)
}
