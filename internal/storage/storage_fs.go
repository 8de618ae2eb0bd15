package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FSStorage writes normalized glyphs under Root/<variant>/<name>.svg and
// remembers the digest of the source each one was built from.
type FSStorage struct {
	Root string
}

func NewFSStorage(root string) *FSStorage {
	return &FSStorage{Root: root}
}

func (s *FSStorage) GlyphPath(variant, name string) string {
	return filepath.Join(s.Root, variant, name+".svg")
}

func (s *FSStorage) WriteGlyph(ctx context.Context, variant, name string, content []byte) error {
	return s.writeFileAbsolute(s.GlyphPath(variant, name), content)
}

func (s *FSStorage) ReadGlyph(variant, name string) ([]byte, error) {
	data, err := os.ReadFile(s.GlyphPath(variant, name))
	if err != nil {
		return nil, fmt.Errorf("read glyph: %w", err)
	}
	return data, nil
}

// CheckCache reports whether the stored glyph was built from a source with
// the given digest and is still present.
func (s *FSStorage) CheckCache(variant, name, digest string) bool {
	data, err := os.ReadFile(s.cachePath(variant, name))
	if err != nil || string(data) != digest {
		return false
	}
	_, err = os.Stat(s.GlyphPath(variant, name))
	return err == nil
}

func (s *FSStorage) WriteCache(ctx context.Context, variant, name, digest string) error {
	if variant == "" {
		return fmt.Errorf("cache variant required")
	}
	return s.writeFileAbsolute(s.cachePath(variant, name), []byte(digest))
}

func (s *FSStorage) cachePath(variant, name string) string {
	return filepath.Join(s.Root, ".cache", variant, name)
}

func (s *FSStorage) writeFileAbsolute(fullPath string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	// Remove any existing file or symlink so os.WriteFile does not
	// follow a stale symlink.
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing: %w", err)
	}
	if err := os.WriteFile(fullPath, content, 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}
