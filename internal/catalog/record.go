package catalog

import (
	"fmt"
	"strings"
)

// Variant selects which of an icon's two glyphs is displayed.
type Variant int

const (
	Outline Variant = iota
	Solid
)

func (v Variant) String() string {
	if v == Solid {
		return "solid"
	}
	return "outline"
}

// ParseVariant accepts "outline" or "solid" in any case.
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "outline":
		return Outline, nil
	case "solid":
		return Solid, nil
	default:
		return Outline, fmt.Errorf("unknown variant %q", s)
	}
}

// Glyph is the SVG markup of one rendering of an icon.
type Glyph string

// Record is one icon of the catalog.
type Record struct {
	Name    string `json:"name"`
	Outline Glyph  `json:"outline"`
	Solid   Glyph  `json:"solid"`
}

// Glyph returns the rendering for v.
func (r Record) Glyph(v Variant) Glyph {
	if v == Solid {
		return r.Solid
	}
	return r.Outline
}

// Segments splits the name on hyphens.
func (r Record) Segments() []string {
	return strings.Split(r.Name, "-")
}

// ValidName reports whether name is lower-case kebab: [a-z0-9]+(-[a-z0-9]+)*.
func ValidName(name string) bool {
	if name == "" || name[0] == '-' || name[len(name)-1] == '-' {
		return false
	}
	prevHyphen := false
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			prevHyphen = false
		case c == '-':
			if prevHyphen {
				return false
			}
			prevHyphen = true
		default:
			return false
		}
	}
	return true
}
