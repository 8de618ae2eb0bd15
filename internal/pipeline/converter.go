package pipeline

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/codex-src/heroicons-viewer/internal/catalog"
)

const defaultMaxBytes = 64 << 10

// Converter normalizes SVG sources into the compact markup embedded in the
// grid: no prolog, comments or doctype, no fixed width/height on the root,
// insignificant whitespace removed.
type Converter struct {
	MaxBytes int
}

func NewConverter(maxBytes int) *Converter {
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	return &Converter{MaxBytes: maxBytes}
}

// ConvertIcon reads and normalizes one source file.
func (c *Converter) ConvertIcon(ctx context.Context, path string) (catalog.Glyph, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	raw, err := readMaybeGzipped(path)
	if err != nil {
		return "", err
	}
	return c.Normalize(raw)
}

var (
	errNotSVG      = errors.New("root element is not <svg>")
	errNoViewBox   = errors.New("root <svg> has no viewBox")
	errEmptySource = errors.New("empty svg source")
)

// droppedRootAttrs are sized by the grid, not the source.
var droppedRootAttrs = map[string]bool{
	"width":  true,
	"height": true,
	"class":  true,
}

func (c *Converter) Normalize(raw []byte) (catalog.Glyph, error) {
	if c.MaxBytes > 0 && len(raw) > c.MaxBytes {
		return "", fmt.Errorf("svg source is %d bytes, limit is %d", len(raw), c.MaxBytes)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return "", errEmptySource
	}

	dec := xml.NewDecoder(bytes.NewReader(raw))
	var out strings.Builder
	var pending *xml.StartElement
	var open []string
	sawRoot := false

	flush := func(selfClose bool) {
		if pending == nil {
			return
		}
		writeStart(&out, *pending, selfClose)
		pending = nil
	}

	for {
		tok, err := dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse svg: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			flush(false)
			if len(open) == 0 {
				if sawRoot {
					return "", errors.New("multiple root elements")
				}
				if t.Name.Local != "svg" {
					return "", errNotSVG
				}
				sawRoot = true
				t = normalizeRoot(t)
				if !hasAttr(t, "viewBox") {
					return "", errNoViewBox
				}
			}
			start := t.Copy()
			pending = &start
			open = append(open, qualified(t.Name))
		case xml.EndElement:
			// RawToken does not match end tags to start tags.
			if len(open) == 0 || open[len(open)-1] != qualified(t.Name) {
				return "", fmt.Errorf("unexpected </%s>", qualified(t.Name))
			}
			open = open[:len(open)-1]
			if pending != nil {
				flush(true)
				continue
			}
			out.WriteString("</" + qualified(t.Name) + ">")
		case xml.CharData:
			if len(open) == 0 || len(bytes.TrimSpace(t)) == 0 {
				continue
			}
			flush(false)
			_ = xml.EscapeText(&out, bytes.TrimSpace(t))
		case xml.Comment, xml.ProcInst, xml.Directive:
		}
	}

	if !sawRoot {
		return "", errNotSVG
	}
	if len(open) != 0 {
		return "", fmt.Errorf("unclosed <%s>", open[len(open)-1])
	}
	return catalog.Glyph(out.String()), nil
}

func normalizeRoot(t xml.StartElement) xml.StartElement {
	attrs := make([]xml.Attr, 0, len(t.Attr)+1)
	hasNS := false
	for _, a := range t.Attr {
		if a.Name.Space == "" && droppedRootAttrs[a.Name.Local] {
			continue
		}
		if a.Name.Space == "" && a.Name.Local == "xmlns" {
			hasNS = true
		}
		attrs = append(attrs, a)
	}
	if !hasNS {
		attrs = append([]xml.Attr{{Name: xml.Name{Local: "xmlns"}, Value: "http://www.w3.org/2000/svg"}}, attrs...)
	}
	t.Attr = attrs
	return t
}

func hasAttr(t xml.StartElement, local string) bool {
	for _, a := range t.Attr {
		if a.Name.Local == local {
			return true
		}
	}
	return false
}

func qualified(n xml.Name) string {
	if n.Space != "" {
		return n.Space + ":" + n.Local
	}
	return n.Local
}

func writeStart(out *strings.Builder, t xml.StartElement, selfClose bool) {
	out.WriteString("<" + qualified(t.Name))
	for _, a := range t.Attr {
		out.WriteString(" " + qualified(a.Name) + `="`)
		_ = xml.EscapeText(out, []byte(a.Value))
		out.WriteString(`"`)
	}
	if selfClose {
		out.WriteString("/>")
		return
	}
	out.WriteString(">")
}
