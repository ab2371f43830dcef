package storage

import (
	"context"
	"io"
)

// PutInput describes a single object write.
type PutInput struct {
	Bucket      string
	Key         string
	Body        io.Reader
	ContentType string
}

// Service writes objects to remote object storage.
type Service interface {
	// Put stores the object and returns its s3:// location.
	Put(ctx context.Context, in PutInput) (string, error)
}
