package web

import (
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
	"golang.org/x/time/rate"

	"github.com/codex-src/heroicons-viewer/internal/browser"
	"github.com/codex-src/heroicons-viewer/internal/catalog"
	"github.com/codex-src/heroicons-viewer/internal/config"
	"github.com/codex-src/heroicons-viewer/internal/metrics"
	"github.com/codex-src/heroicons-viewer/internal/search"
	"github.com/codex-src/heroicons-viewer/internal/sitemap"
)

//go:embed templates/base.html templates/index.html templates/icon.html templates/404.html static/app.css static/app.js
var webAssets embed.FS

const (
	themeCookie     = "theme"
	maxRelated      = 12
	requestIDHeader = "X-Request-Id"
)

type Server struct {
	cfg      *config.Config
	logger   *slog.Logger
	index    *template.Template
	iconPage *template.Template
	notFound *template.Template
	search   *search.Index
	metrics  *metrics.Metrics
	limiter  *rate.Limiter
	started  time.Time
}

// pageView carries what base.html needs on every page.
type pageView struct {
	SiteURL      string
	CanonicalURL string
	JSONLD       template.HTML
	Dark         bool
	CatalogSize  int
}

type gridView struct {
	pageView
	Query       string
	State       string
	Variant     string
	Total       int
	Icons       []iconCell
	DebounceMS  int
	OutlineHref string
	SolidHref   string
}

type iconCell struct {
	Name string
	SVG  template.HTML
	Href string
}

type iconPageView struct {
	pageView
	Name        string
	Segments    []string
	Outline     template.HTML
	Solid       template.HTML
	OutlineHref string
	SolidHref   string
	Related     []iconCell
	Variant     string
}

type apiIcon struct {
	Name string `json:"name"`
	SVG  string `json:"svg"`
}

type apiResponse struct {
	Query   string    `json:"query"`
	State   string    `json:"state"`
	Variant string    `json:"variant"`
	Total   int       `json:"total"`
	Icons   []apiIcon `json:"icons"`
}

// NewServer serves idx. m may be nil, in which case /metrics is not
// registered.
func NewServer(cfg *config.Config, logger *slog.Logger, idx *search.Index, m *metrics.Metrics) *Server {
	index := template.Must(template.ParseFS(webAssets, "templates/base.html", "templates/index.html"))
	iconPage := template.Must(template.ParseFS(webAssets, "templates/base.html", "templates/icon.html"))
	notFound := template.Must(template.ParseFS(webAssets, "templates/base.html", "templates/404.html"))

	var limiter *rate.Limiter
	if cfg.SearchRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.SearchRate), cfg.SearchBurst)
	}
	return &Server{
		cfg:      cfg,
		logger:   logger,
		index:    index,
		iconPage: iconPage,
		notFound: notFound,
		search:   idx,
		metrics:  m,
		limiter:  limiter,
		started:  time.Now(),
	}
}

// Handler returns the full route table wrapped in request logging and
// gzip compression.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/robots.txt", s.handleRobotsTxt)
	mux.HandleFunc("/sitemap.xml", s.handleSitemap)
	mux.HandleFunc("GET /api/search", s.handleSearch)
	mux.HandleFunc("GET /icons/{variant}/{file}", s.handleGlyph)
	mux.HandleFunc("GET /icon/{name}", s.handleIconPage)
	mux.HandleFunc("/", s.handleIndex)
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics.Handler())
	}

	staticFS, _ := fs.Sub(webAssets, "static")
	staticETag := computeStaticETag()
	mux.Handle("/static/", staticCacheHandler(staticETag,
		http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))),
	))
	mux.Handle("/assets/icons/", hideDotfiles(http.StripPrefix("/assets/icons/", http.FileServer(http.Dir(s.cfg.GlyphDir())))))
	mux.Handle("/sitemaps/", http.StripPrefix("/sitemaps/", http.FileServer(http.Dir(s.cfg.SitemapDir()))))

	return s.logRequests(gzipHandler(mux))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		s.renderNotFound(w, r)
		return
	}

	query := r.URL.Query().Get("q")
	dark := s.darkMode(w, r)
	variant := s.variant(r, dark)
	res := s.resolve(query)

	view := gridView{
		pageView:    s.page(dark),
		Query:       query,
		State:       res.State.String(),
		Variant:     variant.String(),
		Total:       len(res.Records),
		DebounceMS:  int(s.cfg.Debounce() / time.Millisecond),
		OutlineHref: gridHref(query, catalog.Outline),
		SolidHref:   gridHref(query, catalog.Solid),
	}
	bv := browser.NewView(query, res, variant, dark)
	view.Icons = make([]iconCell, len(bv.Icons))
	for i, ic := range bv.Icons {
		view.Icons[i] = cell(ic)
	}
	view.CanonicalURL = view.SiteURL + "/"
	view.JSONLD = buildIndexJSONLD(view.SiteURL)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.index.ExecuteTemplate(w, "base", view); err != nil {
		s.logger.Error("render error", "template", "index", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if s.limiter != nil && !s.limiter.Allow() {
		if s.metrics != nil {
			s.metrics.RateLimited()
		}
		w.Header().Set("Retry-After", "1")
		writeJSON(w, http.StatusTooManyRequests, map[string]string{
			"error": "too many search requests",
		})
		return
	}

	query := r.URL.Query().Get("q")
	variant := s.cfg.Variant()
	if v := r.URL.Query().Get("variant"); v != "" {
		parsed, err := catalog.ParseVariant(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		variant = parsed
	}

	res := s.resolve(query)
	resp := apiResponse{
		Query:   query,
		State:   res.State.String(),
		Variant: variant.String(),
		Total:   len(res.Records),
		Icons:   make([]apiIcon, 0, len(res.Records)),
	}
	records := res.Records
	if s.cfg.MaxResults > 0 && len(records) > s.cfg.MaxResults {
		records = records[:s.cfg.MaxResults]
	}
	for _, rec := range records {
		resp.Icons = append(resp.Icons, apiIcon{Name: rec.Name, SVG: string(rec.Glyph(variant))})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGlyph(w http.ResponseWriter, r *http.Request) {
	variant, err := catalog.ParseVariant(r.PathValue("variant"))
	file := r.PathValue("file")
	if err != nil || !strings.HasSuffix(file, ".svg") {
		s.renderNotFound(w, r)
		return
	}
	rec, ok := s.search.Catalog().Lookup(strings.TrimSuffix(file, ".svg"))
	if !ok {
		s.renderNotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if r.URL.Query().Has("download") {
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s-%s.svg"`, rec.Name, variant))
	}
	_, _ = w.Write([]byte(rec.Glyph(variant)))
}

func (s *Server) handleIconPage(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.search.Catalog().Lookup(r.PathValue("name"))
	if !ok {
		s.renderNotFound(w, r)
		return
	}

	dark := s.darkMode(w, r)
	variant := s.variant(r, dark)
	view := iconPageView{
		pageView:    s.page(dark),
		Name:        rec.Name,
		Segments:    rec.Segments(),
		Outline:     template.HTML(rec.Outline),
		Solid:       template.HTML(rec.Solid),
		OutlineHref: "/icons/outline/" + url.PathEscape(rec.Name) + ".svg",
		SolidHref:   "/icons/solid/" + url.PathEscape(rec.Name) + ".svg",
		Variant:     variant.String(),
	}
	view.Related = s.related(rec, variant)
	view.CanonicalURL = view.SiteURL + sitemap.IconPath(rec.Name)
	view.JSONLD = buildIconJSONLD(view.SiteURL, view.CanonicalURL, rec.Name)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.iconPage.ExecuteTemplate(w, "base", view); err != nil {
		s.logger.Error("render error", "template", "icon", "error", err)
	}
}

// related lists other icons that share the first name segment.
func (s *Server) related(rec catalog.Record, variant catalog.Variant) []iconCell {
	matches, ok := s.search.Search(rec.Segments()[0])
	if !ok {
		return nil
	}
	var out []iconCell
	for _, m := range matches {
		if m.Name == rec.Name {
			continue
		}
		out = append(out, cell(browser.Icon{Name: m.Name, Glyph: m.Glyph(variant)}))
		if len(out) == maxRelated {
			break
		}
	}
	return out
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"icons":  s.search.Len(),
	})
}

func (s *Server) handleSitemap(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	if err := sitemap.WriteCatalog(w, s.cfg.SiteURL(), s.search.Catalog(), s.started); err != nil {
		s.logger.Error("sitemap error", "error", err)
	}
}

func (s *Server) handleRobotsTxt(w http.ResponseWriter, _ *http.Request) {
	siteURL := s.cfg.SiteURL()
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = fmt.Fprintf(w, `User-agent: *
Allow: /
Disallow: /api/
Disallow: /healthz
Disallow: /metrics

Sitemap: %s/sitemap.xml
`, siteURL)
}

func (s *Server) renderNotFound(w http.ResponseWriter, r *http.Request) {
	view := s.page(s.darkMode(w, r))
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	if err := s.notFound.ExecuteTemplate(w, "base", view); err != nil {
		s.logger.Error("render error", "template", "404", "error", err)
	}
}

// resolve runs one query and records it.
func (s *Server) resolve(query string) browser.Result {
	start := time.Now()
	res := browser.Resolve(s.search, query)
	if s.metrics != nil {
		s.metrics.ObserveSearch(res.Outcome(), time.Since(start))
	}
	return res
}

func (s *Server) page(dark bool) pageView {
	return pageView{
		SiteURL:     s.cfg.SiteURL(),
		Dark:        dark,
		CatalogSize: s.search.Len(),
	}
}

// darkMode reads the theme cookie. A ?theme= parameter overrides it and is
// remembered for later requests.
func (s *Server) darkMode(w http.ResponseWriter, r *http.Request) bool {
	if theme := r.URL.Query().Get("theme"); theme == "dark" || theme == "light" {
		http.SetCookie(w, &http.Cookie{
			Name:     themeCookie,
			Value:    theme,
			Path:     "/",
			MaxAge:   365 * 24 * 60 * 60,
			SameSite: http.SameSiteLaxMode,
		})
		return theme == "dark"
	}
	c, err := r.Cookie(themeCookie)
	return err == nil && c.Value == "dark"
}

// variant picks the glyph set: an explicit ?variant=, else solid in dark
// mode, else the configured default.
func (s *Server) variant(r *http.Request, dark bool) catalog.Variant {
	if v, err := catalog.ParseVariant(r.URL.Query().Get("variant")); err == nil {
		return v
	}
	if dark {
		return catalog.Solid
	}
	return s.cfg.Variant()
}

func cell(ic browser.Icon) iconCell {
	return iconCell{
		Name: ic.Name,
		SVG:  template.HTML(ic.Glyph),
		Href: sitemap.IconPath(ic.Name),
	}
}

func gridHref(query string, v catalog.Variant) string {
	q := url.Values{}
	if query != "" {
		q.Set("q", query)
	}
	q.Set("variant", v.String())
	return "/?" + q.Encode()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.written {
		rw.statusCode = code
		rw.written = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.statusCode = http.StatusOK
		rw.written = true
	}
	return rw.ResponseWriter.Write(b)
}

// Flush implements http.Flusher, delegating to the underlying writer.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// logRequests tags every request with an id, echoed in X-Request-Id. An id
// supplied by a proxy is kept.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		rw := &responseWriter{ResponseWriter: w}
		next.ServeHTTP(rw, r)
		s.logger.Info("request",
			"request_id", id,
			"method", r.Method,
			"path", filepath.Clean(r.URL.Path),
			"status", rw.statusCode,
			"duration", time.Since(start),
		)
	})
}

func computeStaticETag() string {
	h := sha256.New()
	entries, _ := webAssets.ReadDir("static")
	for _, entry := range entries {
		data, _ := webAssets.ReadFile("static/" + entry.Name())
		h.Write([]byte(entry.Name()))
		h.Write(data)
	}
	return `"` + hex.EncodeToString(h.Sum(nil))[:16] + `"`
}

// hideDotfiles keeps the ingest digest cache out of the exported tree.
func hideDotfiles(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, seg := range strings.Split(r.URL.Path, "/") {
			if strings.HasPrefix(seg, ".") {
				http.NotFound(w, r)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func staticCacheHandler(etag string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=86400")
		w.Header().Set("ETag", etag)

		if match := r.Header.Get("If-None-Match"); match == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// gzipResponseWriter conditionally compresses responses for compressible content types.
type gzipResponseWriter struct {
	http.ResponseWriter
	gw      *gzip.Writer
	sniffed bool
}

func (grw *gzipResponseWriter) WriteHeader(code int) {
	if code != http.StatusNotModified {
		grw.sniff()
	}
	grw.ResponseWriter.WriteHeader(code)
}

func (grw *gzipResponseWriter) Write(b []byte) (int, error) {
	grw.sniff()
	if grw.gw != nil {
		return grw.gw.Write(b)
	}
	return grw.ResponseWriter.Write(b)
}

func (grw *gzipResponseWriter) sniff() {
	if grw.sniffed {
		return
	}
	grw.sniffed = true

	ct := grw.ResponseWriter.Header().Get("Content-Type")
	if strings.HasPrefix(ct, "text/") ||
		strings.HasPrefix(ct, "application/json") ||
		strings.HasPrefix(ct, "application/xml") ||
		strings.HasPrefix(ct, "application/javascript") ||
		strings.HasPrefix(ct, "image/svg+xml") {
		grw.ResponseWriter.Header().Set("Content-Encoding", "gzip")
		grw.ResponseWriter.Header().Del("Content-Length")
	} else {
		grw.gw = nil
	}
}

func (grw *gzipResponseWriter) Flush() {
	if grw.gw != nil {
		_ = grw.gw.Flush()
	}
	if f, ok := grw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func gzipHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Accept-Encoding")
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			next.ServeHTTP(w, r)
			return
		}
		gw := gzip.NewWriter(w)
		grw := &gzipResponseWriter{ResponseWriter: w, gw: gw}
		next.ServeHTTP(grw, r)
		if grw.gw != nil {
			_ = grw.gw.Close()
		}
	})
}

func buildJSONLD(data any) template.HTML {
	b, err := json.Marshal(data)
	if err != nil {
		return ""
	}
	return template.HTML(`<script type="application/ld+json">` + string(b) + `</script>`)
}

func buildIndexJSONLD(siteURL string) template.HTML {
	return buildJSONLD(map[string]any{
		"@context": "https://schema.org",
		"@type":    "WebSite",
		"name":     "Heroicons",
		"url":      siteURL,
		"potentialAction": map[string]any{
			"@type":       "SearchAction",
			"target":      siteURL + "/?q={search_term_string}",
			"query-input": "required name=search_term_string",
		},
	})
}

func buildIconJSONLD(siteURL, canonicalURL, name string) template.HTML {
	return buildJSONLD(map[string]any{
		"@context":   "https://schema.org",
		"@type":      "ImageObject",
		"name":       name,
		"url":        canonicalURL,
		"contentUrl": siteURL + "/icons/outline/" + url.PathEscape(name) + ".svg",
		"isPartOf": map[string]any{
			"@type": "WebSite",
			"name":  "Heroicons",
			"url":   siteURL,
		},
	})
}
