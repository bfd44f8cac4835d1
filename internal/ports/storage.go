package ports

import (
	"context"
	"io"
)

type PutObjectInput struct {
	ObjectKey   string
	ContentType string
	Reader      io.Reader
	Size        int64
	// Overwrite controls clobber behavior: when false and an object
	// already exists under ObjectKey, PutObject fails with a conflict
	// and writes nothing.
	Overwrite bool
}

type PutObjectOutput struct {
	// On localfs this is the same object_key.
	// On gdrive this is the real fileId (so it can be read back later).
	ObjectKey string
	Size      int64
}

// StorageProvider: implementations (localfs, gdrive, s3, ...)
type StorageProvider interface {
	Provider() string

	PutObject(ctx context.Context, in PutObjectInput) (PutObjectOutput, error)
	GetObject(ctx context.Context, objectKey string) (rc io.ReadCloser, contentType string, size int64, err error)
	DeleteObject(ctx context.Context, objectKey string) error
}
