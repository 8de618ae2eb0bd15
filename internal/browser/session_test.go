package browser

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codex-src/heroicons-viewer/internal/catalog"
	"github.com/codex-src/heroicons-viewer/internal/debounce/debouncetest"
	"github.com/codex-src/heroicons-viewer/internal/search"
)

type recordingSearcher struct {
	*search.Index

	mu      sync.Mutex
	queries []string
}

func (r *recordingSearcher) Search(query string) ([]catalog.Record, bool) {
	r.mu.Lock()
	r.queries = append(r.queries, query)
	r.mu.Unlock()
	return r.Index.Search(query)
}

type recordingRenderer struct {
	views []View
}

func (r *recordingRenderer) Render(v View) { r.views = append(r.views, v) }

func (r *recordingRenderer) last(t *testing.T) View {
	t.Helper()
	require.NotEmpty(t, r.views)
	return r.views[len(r.views)-1]
}

type countingObserver struct {
	outcomes []string
}

func (o *countingObserver) ObserveSearch(outcome string, _ time.Duration) {
	o.outcomes = append(o.outcomes, outcome)
}

func newTestSession(t *testing.T, opts ...Option) (*Session, *recordingSearcher, *recordingRenderer, *debouncetest.Clock) {
	t.Helper()
	var records []catalog.Record
	for _, name := range []string{"chat", "chat-alt", "chat-alt-2", "chevron-up", "cake", "bell"} {
		records = append(records, catalog.Record{
			Name:    name,
			Outline: catalog.Glyph("o:" + name),
			Solid:   catalog.Glyph("s:" + name),
		})
	}
	c, err := catalog.New(records)
	require.NoError(t, err)
	idx, err := search.Build(c)
	require.NoError(t, err)

	searcher := &recordingSearcher{Index: idx}
	renderer := &recordingRenderer{}
	clock := debouncetest.New()
	opts = append([]Option{WithClock(clock)}, opts...)
	return NewSession(searcher, renderer, opts...), searcher, renderer, clock
}

func iconNames(v View) []string {
	out := make([]string, len(v.Icons))
	for i, ic := range v.Icons {
		out[i] = ic.Name
	}
	return out
}

func TestKeystrokesWithinWindowSearchOnce(t *testing.T) {
	s, searcher, renderer, clock := newTestSession(t)

	s.Type("c")
	clock.Advance(3 * time.Millisecond)
	s.Type("ch")
	clock.Advance(3 * time.Millisecond)
	s.Type("cha")
	clock.Advance(3 * time.Millisecond)

	assert.Empty(t, searcher.queries)
	assert.Empty(t, renderer.views)

	clock.Advance(DefaultDebounce)

	assert.Equal(t, []string{"cha"}, searcher.queries)
	require.Len(t, renderer.views, 1)
	v := renderer.views[0]
	assert.Equal(t, "cha", v.Query)
	assert.Equal(t, StateMatched, v.State)
	assert.Equal(t, []string{"chat", "chat-alt", "chat-alt-2"}, iconNames(v))
}

func TestInitialViewIsWholeCatalog(t *testing.T) {
	s, _, renderer, _ := newTestSession(t)

	v := s.View()
	assert.Equal(t, StateAll, v.State)
	assert.Len(t, v.Icons, 6)
	assert.Equal(t, catalog.Outline, v.Variant)
	assert.Empty(t, renderer.views)
}

func TestBlankQueryShowsWholeCatalog(t *testing.T) {
	obs := &countingObserver{}
	s, _, renderer, clock := newTestSession(t, WithObserver(obs))

	s.Type("bell")
	clock.Advance(DefaultDebounce)
	assert.Equal(t, []string{"bell"}, iconNames(renderer.last(t)))

	s.Type("   ")
	clock.Advance(DefaultDebounce)
	v := renderer.last(t)
	assert.Equal(t, StateAll, v.State)
	assert.Len(t, v.Icons, 6)
	assert.Equal(t, []string{"match", "empty"}, obs.outcomes)
}

func TestNoMatchRendersEmptyGrid(t *testing.T) {
	obs := &countingObserver{}
	s, _, renderer, clock := newTestSession(t, WithObserver(obs))

	s.Type("zzz-nonexistent")
	clock.Advance(DefaultDebounce)

	v := renderer.last(t)
	assert.Equal(t, StateNoMatch, v.State)
	assert.Empty(t, v.Icons)
	assert.Equal(t, []string{"no_match"}, obs.outcomes)
}

func TestVariantToggleDoesNotSearch(t *testing.T) {
	s, searcher, renderer, clock := newTestSession(t)

	s.Type("chevron")
	clock.Advance(DefaultDebounce)
	assert.Equal(t, catalog.Glyph("o:chevron-up"), renderer.last(t).Icons[0].Glyph)

	s.ToggleVariant()
	v := renderer.last(t)
	assert.Equal(t, catalog.Solid, v.Variant)
	assert.Equal(t, []string{"chevron-up"}, iconNames(v))
	assert.Equal(t, catalog.Glyph("s:chevron-up"), v.Icons[0].Glyph)

	s.SetVariant(catalog.Solid)
	assert.Len(t, renderer.views, 2, "setting the current variant is a no-op")

	s.SetVariant(catalog.Outline)
	assert.Equal(t, catalog.Outline, renderer.last(t).Variant)
	assert.Equal(t, []string{"chevron"}, searcher.queries)
}

func TestDarkModeDefaultsToSolid(t *testing.T) {
	s, _, _, _ := newTestSession(t, WithDarkMode(true))
	assert.Equal(t, catalog.Solid, s.View().Variant)
	assert.True(t, s.View().DarkMode)

	s, _, _, _ = newTestSession(t, WithVariant(catalog.Outline), WithDarkMode(true))
	assert.Equal(t, catalog.Outline, s.View().Variant)
}

func TestToggleDarkMode(t *testing.T) {
	s, _, renderer, _ := newTestSession(t)

	s.ToggleDarkMode()
	assert.True(t, renderer.last(t).DarkMode)
	s.SetDarkMode(true)
	assert.Len(t, renderer.views, 1)
	s.SetDarkMode(false)
	assert.False(t, renderer.last(t).DarkMode)
}

func TestStaleSearchNeverOverwritesNewer(t *testing.T) {
	s, _, renderer, clock := newTestSession(t)

	s.Type("bell")
	clock.Advance(DefaultDebounce)

	// A search that was already dispatched when the user typed again.
	s.mu.Lock()
	staleGen := s.gen
	s.mu.Unlock()
	s.Type("cake")
	s.apply(staleGen, "bell")

	require.Len(t, renderer.views, 1)
	clock.Advance(DefaultDebounce)
	assert.Equal(t, []string{"cake"}, iconNames(renderer.last(t)))
	assert.Len(t, renderer.views, 2)
}

func TestFlushAndClose(t *testing.T) {
	s, searcher, renderer, clock := newTestSession(t)

	s.Type("cake")
	assert.True(t, s.Flush())
	assert.Equal(t, []string{"cake"}, iconNames(renderer.last(t)))

	s.Type("bell")
	assert.Equal(t, "bell", s.Query())
	assert.Equal(t, "cake", s.View().Query)
	s.Close()
	clock.Advance(DefaultDebounce)
	assert.Equal(t, []string{"cake"}, searcher.queries)
	assert.Len(t, renderer.views, 1)
}

func TestRendererFunc(t *testing.T) {
	var got View
	RendererFunc(func(v View) { got = v }).Render(View{Query: "x"})
	assert.Equal(t, "x", got.Query)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "all", StateAll.String())
	assert.Equal(t, "matched", StateMatched.String())
	assert.Equal(t, "no_match", StateNoMatch.String())
}

func TestResolve(t *testing.T) {
	_, searcher, _, _ := newTestSession(t)

	res := Resolve(searcher, "")
	assert.Equal(t, StateAll, res.State)
	assert.Len(t, res.Records, 6)
	assert.Equal(t, "empty", res.Outcome())
	assert.Empty(t, searcher.queries, "blank query must not reach the index")

	res = Resolve(searcher, "Alt")
	assert.Equal(t, StateMatched, res.State)
	assert.Equal(t, "match", res.Outcome())

	res = Resolve(searcher, "hat")
	assert.Equal(t, StateNoMatch, res.State)
	assert.Nil(t, res.Records)
	assert.Equal(t, "no_match", res.Outcome())

	v := NewView("alt", Resolve(searcher, "alt"), catalog.Solid, true)
	assert.Equal(t, []string{"chat-alt", "chat-alt-2"}, iconNames(v))
	assert.Equal(t, catalog.Glyph("s:chat-alt"), v.Icons[0].Glyph)
	assert.True(t, v.DarkMode)
}
