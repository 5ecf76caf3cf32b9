// Package blob stores uploaded images as files under a configured directory.
//
// Stored names are opaque: a random 128-bit uuid in hex plus the original
// file extension, so concurrent uploads never collide and nothing about the
// uploader leaks into the path. The relational model references blobs by
// these names; writes are assumed durable once acknowledged.
package blob

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Store is a filesystem-backed blob store rooted at a single directory.
type Store struct {
	dir string
}

// New creates the upload directory if needed and returns a Store rooted there.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("blob: upload directory must not be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("blob: creating upload directory %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the root directory, for mounting as a static file route.
func (s *Store) Dir() string {
	return s.dir
}

// Write persists data under a fresh unique name and returns that name.
// ext is the suggested extension of the original upload ("" or ".jpg" style);
// anything that doesn't look like a plain extension is discarded.
func (s *Store) Write(data []byte, ext string) (string, error) {
	name := strings.ReplaceAll(uuid.NewString(), "-", "") + sanitizeExt(ext)

	f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("blob: creating %s: %w", name, err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("blob: writing %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("blob: closing %s: %w", name, err)
	}

	return name, nil
}

// Delete removes a stored blob. Deleting a name that doesn't exist is an error.
func (s *Store) Delete(name string) error {
	path, err := s.resolve(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("blob: deleting %s: %w", name, err)
	}
	return nil
}

// Exists reports whether a blob with the given name is present.
func (s *Store) Exists(name string) bool {
	path, err := s.resolve(name)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// resolve joins name onto the root and rejects anything that would escape it.
func (s *Store) resolve(name string) (string, error) {
	if name == "" || name != filepath.Base(name) {
		return "", fmt.Errorf("blob: invalid name %q", name)
	}
	return filepath.Join(s.dir, name), nil
}

// sanitizeExt keeps a short, plain ".xyz" extension and drops anything else.
func sanitizeExt(ext string) string {
	if ext == "" {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if len(ext) > 10 || strings.ContainsAny(ext[1:], `./\`) {
		return ""
	}
	return strings.ToLower(ext)
}
