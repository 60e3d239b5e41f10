package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FileSource abstracts where uploaded CSV files live.
// The import pipeline only needs to open a stored file by its path/key;
// ErrFileNotFound lets it fail the job with a clean message.
type FileSource interface {
	// Save streams an upload into storage under key and returns the number
	// of bytes written. maxSize > 0 enforces an upper bound.
	Save(ctx context.Context, key string, r io.Reader, maxSize int64) (int64, error)

	// Open returns a reader for a previously stored file.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Remove deletes a stored file. Missing files are not an error.
	Remove(ctx context.Context, key string) error
}

// ErrFileNotFound is returned by Open when the stored file is gone.
var ErrFileNotFound = fmt.Errorf("file not found")

// ErrFileTooLarge is returned by Save when the stream exceeds maxSize.
var ErrFileTooLarge = fmt.Errorf("file exceeds maximum allowed size")

// LocalFileSource stores uploads on the local filesystem.
type LocalFileSource struct {
	baseDir string
}

func NewLocalFileSource(baseDir string) (*LocalFileSource, error) {
	if baseDir == "" {
		baseDir = "."
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %s: %w", baseDir, err)
	}
	return &LocalFileSource{baseDir: baseDir}, nil
}

func (s *LocalFileSource) path(key string) string {
	if filepath.IsAbs(key) {
		return key
	}
	return filepath.Join(s.baseDir, key)
}

func (s *LocalFileSource) Save(ctx context.Context, key string, r io.Reader, maxSize int64) (int64, error) {
	_ = ctx

	dest := s.path(key)
	f, err := os.Create(dest)
	if err != nil {
		return 0, fmt.Errorf("create file %s: %w", dest, err)
	}
	defer f.Close()

	src := r
	if maxSize > 0 {
		// One extra byte so we can tell "exactly maxSize" from "too large".
		src = io.LimitReader(r, maxSize+1)
	}

	written, err := io.Copy(f, src)
	if err != nil {
		os.Remove(dest)
		return 0, fmt.Errorf("write file %s: %w", dest, err)
	}

	if maxSize > 0 && written > maxSize {
		os.Remove(dest)
		return 0, ErrFileTooLarge
	}

	return written, nil
}

func (s *LocalFileSource) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	_ = ctx

	f, err := os.Open(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("open file %s: %w", key, err)
	}
	return f, nil
}

func (s *LocalFileSource) Remove(ctx context.Context, key string) error {
	_ = ctx

	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove file %s: %w", key, err)
	}
	return nil
}
