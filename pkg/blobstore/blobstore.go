// Package blobstore provides content storage for uploaded report files.
// It defines the Store interface, an S3-backed implementation, and an
// in-memory implementation for tests and development.
package blobstore

import (
	"context"
	"errors"
)

var (
	ErrBlobNotFound = errors.New("blob not found")
	ErrFileTooLarge = errors.New("file exceeds maximum allowed size")
	ErrEmptyKey     = errors.New("object key is required")
)

// MaxFileSize is the maximum allowed blob size in bytes (50 MB).
const MaxFileSize = 50 * 1024 * 1024

// Store is the contract for blob storage backends: write bytes under a key
// and hand back a publicly retrievable URL for that key.
type Store interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	PublicURL(key string) string
}
