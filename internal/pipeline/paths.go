package pipeline

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/codex-src/heroicons-viewer/internal/catalog"
)

// ParseIconPath splits "<variant>/<name>.svg" (optionally gzipped) into a
// variant and an icon name. File names are lower-cased and underscores or
// spaces become hyphens, so "solid/Chat_Alt.svg" is the icon "chat-alt".
func ParseIconPath(relativePath string) (catalog.Variant, string, error) {
	rel := path.Clean(filepath.ToSlash(relativePath))
	dir, file, ok := strings.Cut(rel, "/")
	if !ok || strings.Contains(file, "/") {
		return catalog.Outline, "", fmt.Errorf("expected <variant>/<name>.svg, got %q", relativePath)
	}

	variant, err := catalog.ParseVariant(dir)
	if err != nil {
		return catalog.Outline, "", err
	}

	base := strings.TrimSuffix(strings.ToLower(file), ".gz")
	if !strings.HasSuffix(base, ".svg") {
		return catalog.Outline, "", fmt.Errorf("not an svg file: %q", relativePath)
	}
	name := normalizeIconName(strings.TrimSuffix(base, ".svg"))
	if name == "" {
		return catalog.Outline, "", fmt.Errorf("empty icon name in %q", relativePath)
	}
	return variant, name, nil
}

func normalizeIconName(s string) string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == '_' || r == ' ' || r == '-'
	})
	return strings.Join(fields, "-")
}

// isIconFile reports whether a file name looks like an icon source.
func isIconFile(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".svg") || strings.HasSuffix(lower, ".svg.gz")
}
