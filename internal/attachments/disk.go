package attachments

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DiskStore writes documents below a local directory served at publicBaseURL.
type DiskStore struct {
	dir           string
	publicBaseURL string
}

// NewDiskStore constructs a DiskStore.
func NewDiskStore(dir, publicBaseURL string) *DiskStore {
	return &DiskStore{dir: dir, publicBaseURL: strings.TrimRight(publicBaseURL, "/")}
}

// Upload writes data to dir/objectPath. Existing files are never overwritten.
func (s *DiskStore) Upload(ctx context.Context, objectPath string, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	clean := filepath.Clean(filepath.FromSlash(objectPath))
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("attachments: invalid object path %q", objectPath)
	}
	target := filepath.Join(s.dir, clean)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("attachments: create dir: %w", err)
	}
	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("attachments: create %s: %w", objectPath, err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("attachments: write %s: %w", objectPath, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("attachments: close %s: %w", objectPath, err)
	}
	return s.publicBaseURL + "/" + filepath.ToSlash(clean), nil
}
