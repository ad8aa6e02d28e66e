package service

import (
	"context"
	"io"
)

type ObjectStorage interface {
	Upload(ctx context.Context, key, contentType string, data io.Reader) error
	PublicURL(key string) string
	Remove(ctx context.Context, keys ...string) error
	// KeyFromURL reverses PublicURL. ok is false for references outside the
	// bucket.
	KeyFromURL(url string) (key string, ok bool)
	Close() error
}
