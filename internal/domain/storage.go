package domain

import (
	"context"
	"io"
)

// ArtifactStore persists downloaded archives on the local filesystem.
type ArtifactStore interface {
	Save(ctx context.Context, filename string, r io.Reader) (path string, size int64, err error)
	Delete(ctx context.Context, filename string) error
	GetPath(filename string) string
}

type Uploader interface {
	Upload(ctx context.Context, localPath string) (*UploadResult, error)
}

type Notifier interface {
	Notify(ctx context.Context, message string) error
}
