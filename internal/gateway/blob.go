package gateway

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FileBlobStore persists product images on the local filesystem and hands
// back URLs under a configured public prefix. The router serves the root
// directory as static files.
type FileBlobStore struct {
	root    string
	baseURL string
	logger  *zap.Logger
}

// NewFileBlobStore creates the root directory if needed.
func NewFileBlobStore(root, baseURL string, logger *zap.Logger) (*FileBlobStore, error) {
	if root == "" {
		return nil, fmt.Errorf("blob root directory is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &FileBlobStore{root: root, baseURL: strings.TrimRight(baseURL, "/"), logger: logger}, nil
}

// Root returns the directory blobs are written to.
func (s *FileBlobStore) Root() string {
	return s.root
}

func (s *FileBlobStore) Store(ctx context.Context, data []byte, name string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("blob data is empty")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	stored := fmt.Sprintf("%s%s", uuid.NewString(), filepath.Ext(name))
	path := filepath.Join(s.root, stored)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}

	s.logger.Debug("blob stored", zap.String("name", stored), zap.Int("bytes", len(data)))
	return fmt.Sprintf("%s/%s", s.baseURL, stored), nil
}
