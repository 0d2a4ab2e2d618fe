package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/semmidev/cpbackup/internal/domain"
)

const partialSuffix = ".part"

type LocalStorage struct {
	basePath string
}

func NewLocal(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}
	return &LocalStorage{basePath: basePath}, nil
}

// Save streams r into filename. Data lands in a .part file first and is
// renamed into place only after a complete copy, so the final path never
// holds a truncated archive.
func (l *LocalStorage) Save(ctx context.Context, filename string, r io.Reader) (string, int64, error) {
	destPath := l.GetPath(filename)
	partPath := destPath + partialSuffix

	dest, err := os.OpenFile(partPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create dest: %w", err)
	}

	size, err := io.Copy(dest, contextReader{ctx: ctx, r: r})
	if err == nil {
		err = dest.Sync()
	}
	if closeErr := dest.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(partPath)
		return "", 0, fmt.Errorf("failed to copy: %w", err)
	}

	if err := os.Rename(partPath, destPath); err != nil {
		os.Remove(partPath)
		return "", 0, fmt.Errorf("failed to finalize %s: %w", filename, err)
	}

	return destPath, size, nil
}

func (l *LocalStorage) Delete(ctx context.Context, filename string) error {
	filePath := l.GetPath(filename)
	if err := os.Remove(filePath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.NewError(domain.ErrorTypeFileNotFound, "backup file not found: "+filePath, err)
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (l *LocalStorage) GetPath(filename string) string {
	return filepath.Join(l.basePath, filename)
}

type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
