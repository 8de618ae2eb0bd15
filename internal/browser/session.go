// Package browser drives an interactive icon browsing session: it turns the
// stream of search-field edits into debounced index queries and pushes the
// resulting grid to a Renderer.
package browser

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/codex-src/heroicons-viewer/internal/catalog"
	"github.com/codex-src/heroicons-viewer/internal/debounce"
	"github.com/codex-src/heroicons-viewer/internal/search"
)

// DefaultDebounce is the quiet window between the last keystroke and the
// search it triggers.
const DefaultDebounce = 10 * time.Millisecond

// State says how the icons of a View were chosen.
type State int

const (
	// StateAll is the whole catalog, shown for a blank query.
	StateAll State = iota
	StateMatched
	// StateNoMatch renders an empty grid.
	StateNoMatch
)

func (s State) String() string {
	switch s {
	case StateMatched:
		return "matched"
	case StateNoMatch:
		return "no_match"
	default:
		return "all"
	}
}

// Icon is one grid cell: a name and the glyph for the selected variant.
type Icon struct {
	Name  string
	Glyph catalog.Glyph
}

type View struct {
	Query    string
	State    State
	Icons    []Icon
	Variant  catalog.Variant
	DarkMode bool
}

// Renderer receives every view the session produces, in order. Render is
// called with the session lock held and must not call back into the
// session.
type Renderer interface {
	Render(View)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(View)

func (f RendererFunc) Render(v View) { f(v) }

// Observer is told about every search the session runs.
type Observer interface {
	ObserveSearch(outcome string, elapsed time.Duration)
}

// Searcher is the query side of *search.Index.
type Searcher interface {
	Search(query string) ([]catalog.Record, bool)
	Catalog() *catalog.Catalog
}

// Result is what a query resolves to before a variant is applied.
type Result struct {
	State   State
	Records []catalog.Record
}

// Outcome labels the result for metrics: "match", "no_match" or "empty".
func (r Result) Outcome() string {
	switch r.State {
	case StateMatched:
		return "match"
	case StateNoMatch:
		return "no_match"
	default:
		return "empty"
	}
}

// Resolve runs query against idx. A blank query selects the whole catalog
// and a query without matches selects nothing.
func Resolve(idx Searcher, query string) Result {
	if search.Normalize(query) == "" {
		return Result{State: StateAll, Records: idx.Catalog().All()}
	}
	records, ok := idx.Search(query)
	if !ok {
		return Result{State: StateNoMatch}
	}
	return Result{State: StateMatched, Records: records}
}

// NewView renders res with the glyphs of variant v.
func NewView(query string, res Result, v catalog.Variant, dark bool) View {
	icons := make([]Icon, len(res.Records))
	for i, r := range res.Records {
		icons[i] = Icon{Name: r.Name, Glyph: r.Glyph(v)}
	}
	return View{
		Query:    query,
		State:    res.State,
		Icons:    icons,
		Variant:  v,
		DarkMode: dark,
	}
}

type Option func(*Session)

func WithDebounce(d time.Duration) Option {
	return func(s *Session) { s.window = d }
}

func WithClock(c debounce.Clock) Option {
	return func(s *Session) { s.clock = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

func WithObserver(o Observer) Option {
	return func(s *Session) { s.observer = o }
}

func WithVariant(v catalog.Variant) Option {
	return func(s *Session) {
		s.variant = v
		s.variantSet = true
	}
}

// WithDarkMode sets the initial theme. Like the hosted viewer, a dark
// session starts on solid glyphs unless WithVariant says otherwise.
func WithDarkMode(dark bool) Option {
	return func(s *Session) { s.dark = dark }
}

// Session is safe for concurrent use.
type Session struct {
	index    Searcher
	renderer Renderer
	logger   *slog.Logger
	observer Observer
	window   time.Duration
	clock    debounce.Clock

	debouncer *debounce.Debouncer

	mu         sync.Mutex
	gen        uint64
	query      string
	shown      string
	variant    catalog.Variant
	variantSet bool
	dark       bool
	state      State
	records    []catalog.Record
}

// NewSession starts with a blank query showing the whole catalog.
func NewSession(idx Searcher, r Renderer, opts ...Option) *Session {
	s := &Session{
		index:    idx,
		renderer: r,
		window:   DefaultDebounce,
		state:    StateAll,
		records:  idx.Catalog().All(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.dark && !s.variantSet {
		s.variant = catalog.Solid
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	var dopts []debounce.Option
	if s.clock != nil {
		dopts = append(dopts, debounce.WithClock(s.clock))
	}
	s.debouncer = debounce.New(s.window, dopts...)
	return s
}

// Type records the current text of the search field. The search runs once
// typing pauses for the debounce window; earlier pending text is dropped.
func (s *Session) Type(query string) {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.query = query
	s.mu.Unlock()

	s.debouncer.Trigger(func() { s.apply(gen, query) })
}

func (s *Session) apply(gen uint64, query string) {
	start := time.Now()
	res := Resolve(s.index, query)
	elapsed := time.Since(start)
	if s.observer != nil {
		s.observer.ObserveSearch(res.Outcome(), elapsed)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		s.logger.Debug("dropping stale search", "query", query)
		return
	}
	s.logger.Debug("search", "query", query, "state", res.State.String(), "results", len(res.Records), "duration", elapsed)
	s.state = res.State
	s.shown = query
	s.records = res.Records
	s.renderLocked()
}

// Flush runs a pending search immediately.
func (s *Session) Flush() bool {
	return s.debouncer.Flush()
}

// Close drops any pending search.
func (s *Session) Close() {
	s.debouncer.Cancel()
}

// SetVariant switches glyphs without searching again.
func (s *Session) SetVariant(v catalog.Variant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.variant == v {
		return
	}
	s.variant = v
	s.renderLocked()
}

func (s *Session) ToggleVariant() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.variant == catalog.Solid {
		s.variant = catalog.Outline
	} else {
		s.variant = catalog.Solid
	}
	s.renderLocked()
}

func (s *Session) SetDarkMode(dark bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dark == dark {
		return
	}
	s.dark = dark
	s.renderLocked()
}

func (s *Session) ToggleDarkMode() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dark = !s.dark
	s.renderLocked()
}

// Query returns the text most recently passed to Type.
func (s *Session) Query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// View returns the grid currently displayed. Its Query is the text the grid
// was searched for, which lags Query while a search is pending.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Session) viewLocked() View {
	return NewView(s.shown, Result{State: s.state, Records: s.records}, s.variant, s.dark)
}

func (s *Session) renderLocked() {
	if s.renderer != nil {
		s.renderer.Render(s.viewLocked())
	}
}
