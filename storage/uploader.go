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

// FileUploader persists generated artifacts (battle images, finale
// documents) and hands back public URLs for history entries.
type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)
	PublicURL(key string) string
}
