package pipeline

import "github.com/codex-src/heroicons-viewer/internal/catalog"

// SourceFile is one SVG found in the source tree.
type SourceFile struct {
	Path         string
	RelativePath string
	Name         string
	Variant      catalog.Variant
	Digest       string
}

// VariantStatus represents the progress of ingesting one variant directory.
type VariantStatus struct {
	Variant string
	Stage   string // "waiting", "scanning", "processing", "done", "error"
	Total   int
	Done    int
	Skipped int
	Errors  int
}

// ConvertError wraps an SVG normalization failure so callers can
// distinguish it from other pipeline errors (e.g. to treat it as non-fatal).
type ConvertError struct{ Err error }

func (e *ConvertError) Error() string { return e.Err.Error() }
func (e *ConvertError) Unwrap() error { return e.Err }
