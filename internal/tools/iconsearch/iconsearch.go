// Package iconsearch implements the iconsearch command: a one-shot search
// over the catalog, or a line-oriented session where every input line is
// the current text of the search field.
package iconsearch

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/codex-src/heroicons-viewer/internal/browser"
	"github.com/codex-src/heroicons-viewer/internal/catalog"
	"github.com/codex-src/heroicons-viewer/internal/config"
	"github.com/codex-src/heroicons-viewer/internal/debounce"
	"github.com/codex-src/heroicons-viewer/internal/logging"
	"github.com/codex-src/heroicons-viewer/internal/search"
)

// ErrNoMatch is returned by a one-shot search that found nothing.
var ErrNoMatch = errors.New("no icons match")

// Config holds the command line of iconsearch.
type Config struct {
	ConfigPath  string
	CatalogPath string
	Variant     string
	Interactive bool
	PrintSVG    bool
	LogLevel    string
	Query       string

	// Clock drives the interactive debounce; nil means wall time.
	Clock debounce.Clock
}

// ParseConfig parses flags into a Config. Remaining arguments form the
// query.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := Config{ConfigPath: config.DefaultPath(), LogLevel: "warn"}
	fs.StringVar(&cfg.ConfigPath, "config", cfg.ConfigPath, "Path to config JSON")
	fs.StringVar(&cfg.CatalogPath, "catalog", "", "Catalog to search (JSON, SQLite .db or SVG directory); overrides catalog_path")
	fs.StringVar(&cfg.Variant, "variant", "", "Glyph variant for -svg output (outline, solid)")
	fs.BoolVar(&cfg.Interactive, "i", false, "Read search-field text from stdin, one edit per line")
	fs.BoolVar(&cfg.PrintSVG, "svg", false, "Print each icon's SVG after its name")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	cfg.Query = strings.Join(fs.Args(), " ")
	return cfg, nil
}

// Run executes the command. Logs go to logger; results go to out.
func Run(ctx context.Context, cfg Config, in io.Reader, out io.Writer, logger *slog.Logger) error {
	if out == nil {
		return errors.New("output is required")
	}
	if logger == nil {
		logger = logging.Discard()
	}

	appCfg, err := config.Load(cfg.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	variant := appCfg.Variant()
	if cfg.Variant != "" {
		if variant, err = catalog.ParseVariant(cfg.Variant); err != nil {
			return err
		}
	}
	catalogPath := appCfg.CatalogPath
	if cfg.CatalogPath != "" {
		catalogPath = cfg.CatalogPath
	}

	cat, err := catalog.Open(ctx, catalogPath)
	if err != nil {
		return err
	}
	idx, err := search.Build(cat)
	if err != nil {
		return err
	}
	logger.Debug("search index built", "icons", idx.Len(), "nodes", idx.Nodes())

	p := &printer{w: out, svg: cfg.PrintSVG}
	if !cfg.Interactive {
		res := browser.Resolve(idx, cfg.Query)
		if res.State == browser.StateNoMatch {
			return ErrNoMatch
		}
		p.icons(browser.NewView(cfg.Query, res, variant, false))
		return p.Err()
	}

	if in == nil {
		return errors.New("input is required in interactive mode")
	}
	opts := []browser.Option{
		browser.WithDebounce(appCfg.Debounce()),
		browser.WithVariant(variant),
		browser.WithLogger(logger),
	}
	if cfg.Clock != nil {
		opts = append(opts, browser.WithClock(cfg.Clock))
	}
	session := browser.NewSession(idx, browser.RendererFunc(p.view), opts...)
	defer session.Close()

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Text()
		switch line {
		case ":outline":
			session.SetVariant(catalog.Outline)
		case ":solid":
			session.SetVariant(catalog.Solid)
		case ":toggle":
			session.ToggleVariant()
		case ":dark":
			session.ToggleDarkMode()
		default:
			session.Type(line)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	session.Flush()
	return p.Err()
}

// printer keeps the first write error so rendering never has to return one.
type printer struct {
	w   io.Writer
	svg bool

	mu  sync.Mutex
	err error
}

func (p *printer) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *printer) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *printer) view(v browser.View) {
	theme := "light"
	if v.DarkMode {
		theme = "dark"
	}
	p.printf("# %q %s %d icons (%s, %s)\n", v.Query, v.State, len(v.Icons), v.Variant, theme)
	p.icons(v)
}

func (p *printer) icons(v browser.View) {
	for _, ic := range v.Icons {
		if p.svg {
			p.printf("%s\t%s\n", ic.Name, ic.Glyph)
			continue
		}
		p.printf("%s\n", ic.Name)
	}
}
