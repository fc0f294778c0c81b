package storage

import (
	"context"
	"io"
	"time"
)

type ObjectContent struct {
	ContentType     string
	ContentLength   int64
	ContentEncoding string
	Content         io.ReadCloser
}

func (c ObjectContent) Close() error {
	if c.Content != nil {
		return c.Content.Close()
	}
	return nil
}

func (c ObjectContent) Read(p []byte) (int, error) {
	return c.Content.Read(p)
}

type ObjectMeta struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// Provider abstracts the object store used to stage datasets and keep model
// artifacts. S3 in production, the local filesystem in tests.
type Provider interface {
	Put(ctx context.Context, key string, content ObjectContent) error
	Get(ctx context.Context, key string) (ObjectContent, error)
	PutLocation(ctx context.Context, key string) (string, error)
	GetLocation(ctx context.Context, key string) (string, error)
	Remove(ctx context.Context, key string, recursive bool) error
	Exists(ctx context.Context, key string) (bool, error)
	List(ctx context.Context, prefix string, recursive bool) ([]ObjectMeta, error)
}
