package storage

import (
	"context"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

// ImageStore persists uploaded images to durable storage.
//
// Save writes one image and returns a storage reference relative to the
// configured root (for example "uploads/img_3f2a….jpg"), suitable for
// recording in the database and serving later. A successful Save is durable
// on its own; callers that need all-or-nothing semantics across several
// saves compensate with Remove.
type ImageStore interface {
	Save(ctx context.Context, originalName, contentType string, r io.Reader, size int64) (string, error)
	Remove(ctx context.Context, ref string) error
}

// newImageName generates a collision-free filename, deriving the extension
// from the original name and defaulting to jpg when it has none.
func newImageName(originalName string) string {
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(originalName)), ".")
	if ext == "" {
		ext = "jpg"
	}
	return "img_" + uuid.NewString() + "." + ext
}
