package catalog

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
)

//go:embed data/icons.json
var defaultIcons []byte

// Load returns the catalog bundled with the binary.
func Load() (*Catalog, error) {
	c, err := ReadJSON(bytes.NewReader(defaultIcons))
	if err != nil {
		return nil, fmt.Errorf("load bundled catalog: %w", err)
	}
	return c, nil
}

// ReadJSON decodes a JSON array of records.
func ReadJSON(r io.Reader) (*Catalog, error) {
	var records []Record
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return New(records)
}

// Open loads a catalog from path. A ".db" file is read as a SQLite catalog
// written by the ingest command, a directory as an SVG tree (see ReadDir)
// and anything else as JSON. An empty path returns the bundled catalog.
func Open(ctx context.Context, p string) (*Catalog, error) {
	if p == "" {
		return Load()
	}
	if strings.HasSuffix(p, ".db") {
		return ReadSQLite(ctx, p)
	}
	if info, err := os.Stat(p); err == nil && info.IsDir() {
		return ReadDir(os.DirFS(p))
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ReadJSON(f)
}

// ReadDir builds a catalog from outline/<name>.svg and solid/<name>.svg.
// Icons are ordered by name.
func ReadDir(fsys fs.FS) (*Catalog, error) {
	outline, err := readGlyphDir(fsys, Outline.String())
	if err != nil {
		return nil, err
	}
	solid, err := readGlyphDir(fsys, Solid.String())
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(outline))
	for name := range outline {
		if _, ok := solid[name]; !ok {
			return nil, &InvalidNameError{Name: name, Position: -1, Reason: "missing solid glyph"}
		}
		names = append(names, name)
	}
	for name := range solid {
		if _, ok := outline[name]; !ok {
			return nil, &InvalidNameError{Name: name, Position: -1, Reason: "missing outline glyph"}
		}
	}
	sort.Strings(names)

	records := make([]Record, 0, len(names))
	for _, name := range names {
		records = append(records, Record{Name: name, Outline: outline[name], Solid: solid[name]})
	}
	return New(records)
}

func readGlyphDir(fsys fs.FS, dir string) (map[string]Glyph, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read %s glyphs: %w", dir, err)
	}
	glyphs := make(map[string]Glyph, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".svg") {
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read glyph %s: %w", e.Name(), err)
		}
		glyphs[strings.TrimSuffix(e.Name(), ".svg")] = Glyph(strings.TrimSpace(string(data)))
	}
	return glyphs, nil
}
