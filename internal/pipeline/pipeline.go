package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/codex-src/heroicons-viewer/internal/catalog"
	"github.com/codex-src/heroicons-viewer/internal/storage"
)

var variants = []catalog.Variant{catalog.Outline, catalog.Solid}

// Runner ingests an SVG source tree: both variant directories are scanned
// and normalized concurrently, glyphs are exported through Storage, and the
// paired icons are written to the catalog Writer in name order.
type Runner struct {
	Scanner      *Scanner
	Converter    *Converter
	Storage      *storage.FSStorage
	Writer       catalog.Writer
	Logger       *slog.Logger
	FailuresPath string
	ForceProcess bool

	mu       sync.Mutex
	statuses []VariantStatus
	failures []string
}

func (r *Runner) Run(ctx context.Context) (*catalog.Catalog, error) {
	if r.Scanner == nil || r.Converter == nil || r.Storage == nil {
		return nil, errors.New("pipeline runner missing dependencies")
	}

	r.statuses = make([]VariantStatus, len(variants))
	r.failures = nil
	for i, v := range variants {
		r.statuses[i] = VariantStatus{Variant: v.String(), Stage: "waiting"}
	}

	// Create the failure log up front so users can tail it during processing.
	if r.FailuresPath != "" {
		_ = os.MkdirAll(filepath.Dir(r.FailuresPath), 0o755)
		_ = os.WriteFile(r.FailuresPath, nil, 0o644)
	}

	glyphs := make([]map[string]catalog.Glyph, len(variants))
	g, gctx := errgroup.WithContext(ctx)
	for i, v := range variants {
		g.Go(func() error {
			out, err := r.runVariant(gctx, i, v)
			if err != nil {
				r.mu.Lock()
				r.statuses[i].Stage = "error"
				r.mu.Unlock()
				return err
			}
			glyphs[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		r.closeWriter()
		return nil, err
	}

	records := pairGlyphs(glyphs[0], glyphs[1], r.recordFailure)
	cat, err := catalog.New(records)
	if err != nil {
		r.closeWriter()
		return nil, fmt.Errorf("assemble catalog: %w", err)
	}

	if r.Writer != nil {
		if err := catalog.WriteAll(ctx, r.Writer, cat); err != nil {
			return nil, fmt.Errorf("write catalog: %w", err)
		}
	}

	r.mu.Lock()
	failures := len(r.failures)
	r.mu.Unlock()
	if failures > 0 && r.Logger != nil {
		r.Logger.Warn("ingest completed with failures", "count", failures)
	}
	if r.Logger != nil {
		r.Logger.Info("ingest done", "icons", cat.Len())
	}
	return cat, nil
}

func (r *Runner) runVariant(ctx context.Context, idx int, v catalog.Variant) (map[string]catalog.Glyph, error) {
	r.setStage(idx, "scanning")
	if r.Logger != nil {
		r.Logger.Info("scanning icons", "variant", v.String())
	}

	files, err := r.Scanner.Scan(ctx, v)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.statuses[idx].Stage = "processing"
	r.statuses[idx].Total = len(files)
	r.mu.Unlock()

	out := make(map[string]catalog.Glyph, len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !catalog.ValidName(f.Name) {
			r.recordFailure(idx, "name", f.RelativePath, fmt.Errorf("invalid icon name %q", f.Name))
			r.mu.Lock()
			r.statuses[idx].Done++
			r.mu.Unlock()
			continue
		}
		glyph, err := r.processIcon(ctx, idx, f)
		if err != nil {
			var ce *ConvertError
			if !errors.As(err, &ce) {
				return nil, err
			}
			r.recordFailure(idx, "convert", f.RelativePath, ce.Unwrap())
		} else if _, dup := out[f.Name]; dup {
			r.recordFailure(idx, "name", f.RelativePath, fmt.Errorf("duplicate icon name %q", f.Name))
		} else {
			out[f.Name] = glyph
		}
		r.mu.Lock()
		r.statuses[idx].Done++
		r.mu.Unlock()
	}

	r.mu.Lock()
	s := r.statuses[idx]
	r.statuses[idx].Stage = "done"
	r.mu.Unlock()
	if r.Logger != nil {
		r.Logger.Info("variant done", "variant", v.String(), "total", s.Total, "skipped", s.Skipped, "errors", s.Errors)
	}
	return out, nil
}

// processIcon returns the normalized glyph for f, reusing the stored one
// when the source digest is unchanged. Conversion failures are returned as
// *ConvertError so callers can decide whether they are fatal.
func (r *Runner) processIcon(ctx context.Context, idx int, f SourceFile) (catalog.Glyph, error) {
	variant := f.Variant.String()
	if !r.ForceProcess && r.Storage.CheckCache(variant, f.Name, f.Digest) {
		data, err := r.Storage.ReadGlyph(variant, f.Name)
		if err == nil {
			if r.Logger != nil {
				r.Logger.Debug("skipping unchanged icon", "variant", variant, "icon", f.Name)
			}
			r.mu.Lock()
			r.statuses[idx].Skipped++
			r.mu.Unlock()
			return catalog.Glyph(data), nil
		}
	}

	if r.Logger != nil {
		r.Logger.Debug("processing", "path", f.RelativePath)
	}
	glyph, err := r.Converter.ConvertIcon(ctx, f.Path)
	if err != nil {
		return "", &ConvertError{Err: fmt.Errorf("convert %s: %w", f.RelativePath, err)}
	}

	if err := r.Storage.WriteGlyph(ctx, variant, f.Name, []byte(glyph)); err != nil {
		return "", fmt.Errorf("write glyph %s: %w", f.RelativePath, err)
	}
	if err := r.Storage.WriteCache(ctx, variant, f.Name, f.Digest); err != nil {
		return "", fmt.Errorf("write cache for %s: %w", f.RelativePath, err)
	}
	return glyph, nil
}

// pairGlyphs joins the two variants by name, sorted. Icons missing either
// variant are reported and left out.
func pairGlyphs(outline, solid map[string]catalog.Glyph, report func(int, string, string, error)) []catalog.Record {
	names := make([]string, 0, len(outline))
	for name := range outline {
		if _, ok := solid[name]; !ok {
			report(1, "pair", name, errors.New("missing solid variant"))
			continue
		}
		names = append(names, name)
	}
	for name := range solid {
		if _, ok := outline[name]; !ok {
			report(0, "pair", name, errors.New("missing outline variant"))
		}
	}
	sort.Strings(names)

	records := make([]catalog.Record, 0, len(names))
	for _, name := range names {
		records = append(records, catalog.Record{Name: name, Outline: outline[name], Solid: solid[name]})
	}
	return records
}

// Statuses returns a snapshot of per-variant progress.
func (r *Runner) Statuses() []VariantStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]VariantStatus, len(r.statuses))
	copy(out, r.statuses)
	return out
}

// Failures returns the messages written to the failure log.
func (r *Runner) Failures() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.failures))
	copy(out, r.failures)
	return out
}

func (r *Runner) closeWriter() {
	if r.Writer != nil {
		_ = r.Writer.Close()
	}
}

func (r *Runner) setStage(idx int, stage string) {
	r.mu.Lock()
	r.statuses[idx].Stage = stage
	r.mu.Unlock()
}

func (r *Runner) recordFailure(idx int, stage string, path string, err error) {
	message := strings.TrimSpace(fmt.Sprintf("%s %s: %v", stage, path, err))
	r.mu.Lock()
	r.failures = append(r.failures, message)
	r.statuses[idx].Errors++
	r.mu.Unlock()

	// Append to the failure log immediately so users can tail it.
	if r.FailuresPath != "" {
		f, ferr := os.OpenFile(r.FailuresPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if ferr == nil {
			_, _ = fmt.Fprintln(f, message)
			_ = f.Close()
		}
	}

	if r.Logger != nil {
		r.Logger.Warn("pipeline failure", "stage", stage, "path", path, "error", err)
	}
}
