// internal/core/ports/photo_store.go
package ports

import (
	"context"
	"io"
)

// PhotoStore persists photo blobs under unique keys
type PhotoStore interface {
	// Save stores the bytes read from r and returns the assigned key.
	// An existing key is never overwritten.
	Save(ctx context.Context, r io.Reader, suggestedName string) (string, error)
	Exists(ctx context.Context, key string) (bool, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// PhotoLister is implemented by photo stores that can enumerate their keys
type PhotoLister interface {
	Keys(ctx context.Context) ([]string, error)
}
