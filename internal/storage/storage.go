// Package storage keeps file content in a blob store addressed by opaque keys.
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/google/uuid"

	"docvault/internal/config"
)

// Storage defines blob operations. Keys are slash-separated and relative.
type Storage interface {
	// Put stores content under key, replacing any existing blob
	Put(ctx context.Context, key string, content io.Reader) error

	// Get opens the blob stored under key. Returns domain.ErrNotFound when missing.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the blob. Deleting a missing blob succeeds.
	Delete(ctx context.Context, key string) error
}

// New creates the blob store selected by BLOB_BACKEND
func New(ctx context.Context, c *config.Config, logger *slog.Logger) (Storage, error) {
	switch c.BlobBackend {
	case config.BlobBackendS3:
		logger.Info("initializing S3 blob storage",
			"bucket", c.S3Bucket,
			"region", c.S3Region,
			"endpoint", c.S3Endpoint,
		)
		return NewS3Storage(ctx, S3Config{
			Region:    c.S3Region,
			Bucket:    c.S3Bucket,
			AccessKey: c.S3AccessKey,
			SecretKey: c.S3SecretKey,
			Endpoint:  c.S3Endpoint,
		})
	case config.BlobBackendLocal:
		logger.Info("initializing local blob storage", "dir", c.BlobDir)
		return NewLocalStorage(c.BlobDir)
	default:
		return nil, fmt.Errorf("unknown blob backend %q", c.BlobBackend)
	}
}

// NewKey returns a fresh key for a blob uploaded by ownerID. The original
// extension is kept so stored objects stay recognisable; the name itself is not.
func NewKey(ownerID int64, filename string) string {
	ext := strings.ToLower(path.Ext(strings.ReplaceAll(filename, "\\", "/")))
	if len(ext) > 16 || strings.ContainsAny(ext, " /\x00") {
		ext = ""
	}
	return fmt.Sprintf("users/%d/%s%s", ownerID, uuid.NewString(), ext)
}
