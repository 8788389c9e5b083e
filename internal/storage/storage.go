// Package storage persists uploaded product images.
package storage

import (
	"context"
	"io"
)

// Store writes an object and returns the public URL it can be fetched from.
type Store interface {
	Put(ctx context.Context, key, contentType string, body io.Reader) (string, error)
}
