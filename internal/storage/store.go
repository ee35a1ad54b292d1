// Package storage keeps split outputs retrievable by opaque handle until
// the session releases them. Backends: in-memory (default), local disk, S3.
package storage

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("artifact not found")

// Artifact is one stored output.
type Artifact struct {
	Name string
	Data []byte
}

// Store is the handle registry the realizer writes into and the download
// surface reads from. Handles are single-process scoped; Release drops them
// for good.
type Store interface {
	Put(ctx context.Context, name string, data []byte) (string, error)
	Get(ctx context.Context, handle string) (Artifact, error)
	Release(ctx context.Context, handles ...string) error
	Backend() string
}
