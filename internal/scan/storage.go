package scan

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/coviddx/platform/internal/shared/types"
)

// Storage persists uploaded scan images on disk. Files are stored under
// a flat media directory, named by the scan ID so uploads with the same
// original name never collide.
type Storage struct {
	dir string
}

// NewStorage creates a scan storage rooted at dir, creating it if
// needed.
func NewStorage(dir string) (*Storage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create media directory %s: %w", dir, err)
	}
	return &Storage{dir: dir}, nil
}

// Save writes the image to disk and returns the stored path, the hex
// SHA-256 of the content and the byte count. The hash is computed while
// writing; the file is never read back.
func (s *Storage) Save(id types.ID, fileName string, content io.Reader) (path string, hash string, size int64, err error) {
	path = filepath.Join(s.dir, id.String()+"_"+sanitizeFileName(fileName))

	f, err := os.Create(path)
	if err != nil {
		return "", "", 0, fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	size, err = io.Copy(io.MultiWriter(f, h), content)
	if err != nil {
		os.Remove(path)
		return "", "", 0, fmt.Errorf("write %s: %w", path, err)
	}

	return path, hex.EncodeToString(h.Sum(nil)), size, nil
}

// Open returns the stored image for reading.
func (s *Storage) Open(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

// Remove deletes a stored image. Missing files are not an error.
func (s *Storage) Remove(path string) error {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// sanitizeFileName strips any path components from a client-supplied
// name.
func sanitizeFileName(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, string(os.PathSeparator), "_")
	if name == "." || name == ".." || name == "" {
		return "upload.png"
	}
	return name
}
