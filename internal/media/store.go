// Package media abstracts where uploaded recipe images live. Keys are
// opaque references persisted on the recipe row; the store never knows
// about recipes.
package media

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/google/uuid"
)

// Store persists image blobs by key.
type Store interface {
	Save(ctx context.Context, key, contentType string, r io.Reader) error
	Remove(ctx context.Context, key string) error
	// URL returns the public path or URL a client can fetch the blob from.
	URL(key string) string
}

// NewKey generates a fresh object key for an upload, keeping the original
// file extension so content type survives a round trip through dumb
// static file servers.
func NewKey(filename string) string {
	return fmt.Sprintf("recipes/%s%s", uuid.New(), path.Ext(filename))
}
