package file

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Local is a file storage backed by the local filesystem.
// Relative paths are resolved against basePath; absolute paths are used as is.
type Local struct {
	basePath string
}

// NewLocal creates a Local storage rooted at basePath.
// An empty basePath resolves relative paths against the working directory.
func NewLocal(basePath string) *Local {
	return &Local{basePath: basePath}
}

func (s *Local) resolve(path string) string {
	if s.basePath == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(s.basePath, path)
}

// Load opens the file at path for reading.
func (s *Local) Load(_ context.Context, path string) (io.ReadCloser, error) {
	f, err := os.Open(s.resolve(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return f, nil
}

// Save writes src to path, creating parent directories and overwriting any
// existing file. A partially written file is left in place on failure.
// Returns the path the data was written to.
func (s *Local) Save(_ context.Context, path string, src io.Reader, _ string) (string, error) {
	dstPath := s.resolve(path)

	dir := filepath.Dir(dstPath)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	dst, err := os.Create(dstPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file %s: %w", dstPath, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("failed to save file %s: %w", dstPath, err)
	}

	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("failed to close file %s: %w", dstPath, err)
	}

	return dstPath, nil
}
