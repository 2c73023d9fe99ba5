package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"ticktask-backend/pkg/config"

	"github.com/google/uuid"
)

// Store is a blob store for task attachments addressed by key.
type Store interface {
	Put(ctx context.Context, key string, body io.Reader, contentType string) error
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
}

// Error reports a failure of the storage backend.
type Error struct {
	Op  string
	Key string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// NewKey builds a unique object key for an attachment of the given task.
func NewKey(prefix, taskID, filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "file"
	}
	return prefix + taskID + "/" + uuid.NewString() + "-" + name
}

// New creates the store selected by cfg.StorageBackend.
func New(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.StorageBackend {
	case "s3":
		return NewS3Store(ctx, S3Config{
			Bucket:   cfg.StorageBucket,
			Region:   cfg.StorageRegion,
			Endpoint: cfg.StorageEndpoint,
		})
	case "gcs":
		return NewGCSStore(ctx, cfg.StorageBucket, cfg.GoogleCredentials)
	case "local", "":
		return NewLocalStore(cfg.StorageLocalDir)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
