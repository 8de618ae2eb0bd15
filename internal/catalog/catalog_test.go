package catalog

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(name string) Record {
	return Record{
		Name:    name,
		Outline: Glyph(`<svg data-variant="outline" data-name="` + name + `"></svg>`),
		Solid:   Glyph(`<svg data-variant="solid" data-name="` + name + `"></svg>`),
	}
}

func TestNewPreservesOrder(t *testing.T) {
	c, err := New([]Record{rec("zoom-in"), rec("academic-cap"), rec("chat-alt")})
	require.NoError(t, err)

	assert.Equal(t, 3, c.Len())
	assert.Equal(t, []string{"zoom-in", "academic-cap", "chat-alt"}, c.Names())
	assert.Equal(t, "academic-cap", c.At(1).Name)

	r, ok := c.Lookup("chat-alt")
	assert.True(t, ok)
	assert.Equal(t, rec("chat-alt"), r)

	_, ok = c.Lookup("chat")
	assert.False(t, ok)
}

func TestNewDuplicateName(t *testing.T) {
	_, err := New([]Record{rec("bell"), rec("cake"), rec("bell")})
	require.Error(t, err)

	var dup *DuplicateNameError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "bell", dup.Name)
	assert.Equal(t, 0, dup.First)
	assert.Equal(t, 2, dup.Second)
}

func TestNewInvalidNames(t *testing.T) {
	for _, name := range []string{"", "Bell", "-bell", "bell-", "chat--alt", "chat alt", "chat_alt"} {
		t.Run(name, func(t *testing.T) {
			_, err := New([]Record{rec(name)})
			var invalid *InvalidNameError
			assert.True(t, errors.As(err, &invalid), "name %q should be rejected", name)
		})
	}
}

func TestNewMissingGlyph(t *testing.T) {
	r := rec("bell")
	r.Solid = ""
	_, err := New([]Record{r})
	var invalid *InvalidNameError
	require.True(t, errors.As(err, &invalid))
	assert.Contains(t, invalid.Reason, "glyph")
}

func TestNewCopiesInput(t *testing.T) {
	records := []Record{rec("bell")}
	c, err := New(records)
	require.NoError(t, err)

	records[0].Name = "mutated"
	assert.Equal(t, "bell", c.At(0).Name)

	all := c.All()
	all[0].Name = "mutated"
	assert.Equal(t, "bell", c.At(0).Name)
}

func TestRecordGlyph(t *testing.T) {
	r := rec("bell")
	assert.Equal(t, r.Outline, r.Glyph(Outline))
	assert.Equal(t, r.Solid, r.Glyph(Solid))
	assert.Equal(t, []string{"chat", "alt", "2"}, rec("chat-alt-2").Segments())
}

func TestParseVariant(t *testing.T) {
	v, err := ParseVariant(" Solid ")
	require.NoError(t, err)
	assert.Equal(t, Solid, v)

	v, err = ParseVariant("outline")
	require.NoError(t, err)
	assert.Equal(t, Outline, v)

	_, err = ParseVariant("duotone")
	assert.Error(t, err)
}

func TestLoadBundled(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)
	assert.Greater(t, c.Len(), 100)

	first, err := Load()
	require.NoError(t, err)
	assert.Equal(t, first.Names(), c.Names())

	for _, name := range []string{"academic-cap", "chat-alt", "chat-alt-2", "chevron-up"} {
		_, ok := c.Lookup(name)
		assert.True(t, ok, name)
	}
}

func TestReadJSONRejectsUnknownFields(t *testing.T) {
	_, err := ReadJSON(strings.NewReader(`[{"name":"bell","outline":"<svg/>","solid":"<svg/>","color":"red"}]`))
	assert.Error(t, err)
}

func TestReadDir(t *testing.T) {
	fsys := fstest.MapFS{
		"outline/bell.svg":     {Data: []byte("<svg>bell-o</svg>\n")},
		"outline/academic.svg": {Data: []byte("<svg>ac-o</svg>")},
		"outline/README.md":    {Data: []byte("ignored")},
		"solid/bell.svg":       {Data: []byte("<svg>bell-s</svg>")},
		"solid/academic.svg":   {Data: []byte("<svg>ac-s</svg>")},
	}
	c, err := ReadDir(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"academic", "bell"}, c.Names())
	assert.Equal(t, Glyph("<svg>bell-o</svg>"), c.At(1).Outline)
}

func TestReadDirMissingVariant(t *testing.T) {
	fsys := fstest.MapFS{
		"outline/bell.svg": {Data: []byte("<svg/>")},
		"outline/cake.svg": {Data: []byte("<svg/>")},
		"solid/bell.svg":   {Data: []byte("<svg/>")},
	}
	_, err := ReadDir(fsys)
	var invalid *InvalidNameError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "cake", invalid.Name)
}

func TestSQLiteRoundTripKeepsOrder(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "catalog.db")

	src, err := New([]Record{rec("zoom-in"), rec("academic-cap"), rec("chat-alt")})
	require.NoError(t, err)

	w, err := NewSQLiteWriter(path)
	require.NoError(t, err)
	require.NoError(t, WriteAll(ctx, w, src))

	got, err := Open(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, src.All(), got.All())
}

func TestReadSQLiteMissingFile(t *testing.T) {
	_, err := ReadSQLite(context.Background(), filepath.Join(t.TempDir(), "nope.db"))
	assert.Error(t, err)
}

func TestOpenEmptyPathIsBundled(t *testing.T) {
	c, err := Open(context.Background(), "")
	require.NoError(t, err)

	bundled, err := ReadJSON(bytes.NewReader(defaultIcons))
	require.NoError(t, err)
	assert.Equal(t, bundled.Len(), c.Len())
}

func TestOpenDirectory(t *testing.T) {
	dir := t.TempDir()
	for _, v := range []string{"outline", "solid"} {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, v), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, v, "bell.svg"), []byte("<svg>"+v+"</svg>"), 0o644))
	}

	c, err := Open(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"bell"}, c.Names())
	assert.Equal(t, Glyph("<svg>solid</svg>"), c.At(0).Solid)
}
