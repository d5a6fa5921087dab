// Package storage persists files uploaded for file-type form fields. The
// returned URL is what gets written into the submission payload.
package storage

import (
	"context"
	"io"
)

type PutInput struct {
	UserID      string // namespaces the key
	Filename    string
	ContentType string
	Size        int64
}

type PutResult struct {
	Key string
	URL string
}

type Storage interface {
	Put(ctx context.Context, r io.Reader, in PutInput) (PutResult, error)
	Delete(ctx context.Context, key string) error
}
