package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"docchat/internal/domain/services"
)

// DiskStore writes uploaded files under a local directory. Meant for
// development and tests; the returned URL is a file:// path and is not
// served by anything.
type DiskStore struct {
	dir    string
	logger *slog.Logger
}

// NewDiskStore creates the directory if needed.
func NewDiskStore(dir string, logger *slog.Logger) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &DiskStore{dir: dir, logger: logger}, nil
}

var _ services.ObjectStore = (*DiskStore)(nil)

// Store writes the file under a unique name and returns a file URL.
func (s *DiskStore) Store(ctx context.Context, data []byte, filename string) (string, error) {
	name := fmt.Sprintf("%s-%s", uuid.NewString(), sanitize(filename))
	fullPath := filepath.Join(s.dir, name)

	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}

	s.logger.Debug("file stored", "path", fullPath, "bytes", len(data))

	abs, err := filepath.Abs(fullPath)
	if err != nil {
		abs = fullPath
	}
	return "file://" + abs, nil
}
