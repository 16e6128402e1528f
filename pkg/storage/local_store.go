package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// LocalStore saves images on the local filesystem under a base directory.
// References recorded in the database carry only the public prefix plus the
// generated filename, never the absolute path.
type LocalStore struct {
	root   string
	prefix string
}

// NewLocalStore validates the layout; the directory itself is provisioned
// lazily on first save.
func NewLocalStore(root, prefix string) (*LocalStore, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("storage root is required")
	}
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		prefix = "uploads"
	}
	return &LocalStore{root: root, prefix: prefix}, nil
}

// Save copies the image into the store under a generated unique name.
func (s *LocalStore) Save(_ context.Context, originalName, _ string, r io.Reader, _ int64) (string, error) {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return "", fmt.Errorf("create storage dir: %w", err)
	}
	name := newImageName(originalName)
	target := filepath.Join(s.root, name)

	// O_EXCL guards the generated name against the (unlikely) collision.
	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create image file: %w", err)
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		os.Remove(target)
		return "", fmt.Errorf("write image file: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(target)
		return "", fmt.Errorf("close image file: %w", err)
	}
	return path.Join(s.prefix, name), nil
}

// Remove deletes a previously saved image. Missing files are not an error so
// compensation stays idempotent.
func (s *LocalStore) Remove(_ context.Context, ref string) error {
	name, err := s.fileName(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.root, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove image file: %w", err)
	}
	return nil
}

func (s *LocalStore) fileName(ref string) (string, error) {
	clean := path.Clean(ref)
	if !strings.HasPrefix(clean, s.prefix+"/") {
		return "", fmt.Errorf("ref %q not under prefix %q", ref, s.prefix)
	}
	name := strings.TrimPrefix(clean, s.prefix+"/")
	if name == "" || strings.Contains(name, "/") {
		return "", fmt.Errorf("invalid storage ref %q", ref)
	}
	return name, nil
}
