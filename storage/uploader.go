package storage

import (
	"context"
	"io"
)

// UploadResult describes one stored object.
type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

// FileUploader stores mirrored puzzle content in object storage. Keys are
// "<category>/<points>/<filename>".
type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	GetPublicURL(key string) string
}
