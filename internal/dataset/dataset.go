// Package dataset locates and produces the customers data file that the
// query engine reads.
package dataset

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/semquery/semquery/internal/storage"
)

// Source materializes the dataset as a local file and returns its path.
type Source interface {
	Materialize(ctx context.Context) (string, error)
}

// LocalSource serves an existing file on disk.
type LocalSource struct {
	Path string
}

func (s LocalSource) Materialize(_ context.Context) (string, error) {
	if strings.TrimSpace(s.Path) == "" {
		return "", fmt.Errorf("dataset path is required")
	}
	info, err := os.Stat(s.Path)
	if err != nil {
		return "", fmt.Errorf("stat dataset %q: %w", s.Path, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("dataset %q is a directory", s.Path)
	}
	return s.Path, nil
}

// ObjectSource downloads the dataset from object storage once and serves
// the cached copy afterwards. The dataset is immutable for the lifetime of
// the process, so there is no refresh path.
type ObjectSource struct {
	Store    storage.ObjectStore
	Key      string
	CacheDir string

	mu     sync.Mutex
	cached string
}

func (s *ObjectSource) Materialize(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cached != "" {
		return s.cached, nil
	}
	if s.Store == nil {
		return "", fmt.Errorf("object store is required")
	}
	if strings.TrimSpace(s.Key) == "" {
		return "", fmt.Errorf("dataset object key is required")
	}

	cacheDir := s.CacheDir
	if cacheDir == "" {
		cacheDir = os.TempDir()
	}
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return "", fmt.Errorf("create dataset cache dir: %w", err)
	}

	reader, err := s.Store.Get(ctx, s.Key)
	if err != nil {
		return "", fmt.Errorf("get dataset object %q: %w", s.Key, err)
	}
	defer func() { _ = reader.Close() }()

	localPath := filepath.Join(cacheDir, filepath.Base(s.Key))
	file, err := os.Create(localPath)
	if err != nil {
		return "", fmt.Errorf("create dataset file %q: %w", localPath, err)
	}
	if _, err := io.Copy(file, reader); err != nil {
		_ = file.Close()
		return "", fmt.Errorf("write dataset file %q: %w", localPath, err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("close dataset file %q: %w", localPath, err)
	}

	s.cached = localPath
	return localPath, nil
}
