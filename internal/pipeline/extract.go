package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/codex-src/heroicons-viewer/internal/catalog"
)

// Scanner finds icon sources under Root/<variant>/.
type Scanner struct {
	Root string
}

func NewScanner(root string) *Scanner {
	return &Scanner{Root: root}
}

// Scan lists the icons of one variant, sorted by name. Hidden files and
// anything that is not an SVG are skipped.
func (s *Scanner) Scan(ctx context.Context, variant catalog.Variant) ([]SourceFile, error) {
	dir := filepath.Join(s.Root, variant.String())
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("scan %s: %w", variant, err)
	}

	var results []SourceFile
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name()[0] == '.' || !isIconFile(d.Name()) {
			return nil
		}

		rel, err := filepath.Rel(s.Root, path)
		if err != nil {
			return fmt.Errorf("rel path: %w", err)
		}
		v, name, err := ParseIconPath(rel)
		if err != nil {
			return err
		}

		digest, err := fileDigest(path)
		if err != nil {
			return err
		}

		results = append(results, SourceFile{
			Path:         path,
			RelativePath: filepath.ToSlash(rel),
			Name:         name,
			Variant:      v,
			Digest:       digest,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s icons: %w", variant, err)
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })
	return results, nil
}

func fileDigest(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("digest %s: %w", path, err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
