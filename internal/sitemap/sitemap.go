package sitemap

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/codex-src/heroicons-viewer/internal/catalog"
)

const (
	maxSitemapURLs = 50000
	sitemapNS      = "http://www.sitemaps.org/schemas/sitemap/0.9"
	dateLayout     = "2006-01-02"
)

type sitemapURL struct {
	XMLName xml.Name `xml:"url"`
	Loc     string   `xml:"loc"`
	LastMod string   `xml:"lastmod,omitempty"`
}

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapIndex struct {
	XMLName  xml.Name          `xml:"sitemapindex"`
	XMLNS    string            `xml:"xmlns,attr"`
	Sitemaps []sitemapIndexRef `xml:"sitemap"`
}

type sitemapIndexRef struct {
	XMLName xml.Name `xml:"sitemap"`
	Loc     string   `xml:"loc"`
	LastMod string   `xml:"lastmod,omitempty"`
}

// IconPath is the URL path of an icon's detail page.
func IconPath(name string) string {
	return "/icon/" + url.PathEscape(name)
}

// WriteCatalog writes a single urlset with the home page and one entry per
// icon, in catalog order. The server renders /sitemap.xml with it.
func WriteCatalog(w io.Writer, siteURL string, c *catalog.Catalog, lastmod time.Time) error {
	urls := catalogURLs(siteURL, c, lastmod.UTC().Format(dateLayout))
	return encodeXML(w, sitemapURLSet{XMLNS: sitemapNS, URLs: urls})
}

func catalogURLs(siteURL string, c *catalog.Catalog, lastmod string) []sitemapURL {
	urls := make([]sitemapURL, 0, c.Len()+1)
	urls = append(urls, sitemapURL{Loc: siteURL + "/", LastMod: lastmod})
	for _, r := range c.Records() {
		urls = append(urls, sitemapURL{Loc: siteURL + IconPath(r.Name), LastMod: lastmod})
	}
	return urls
}

// SitemapGenerator writes sitemap files for a catalog into Root.
type SitemapGenerator struct {
	Root    string // e.g. public/sitemaps
	SiteURL string // e.g. "https://heroicons.example.com"
	Logger  *slog.Logger
}

// Generate writes sitemap-static.xml, one or more sitemap-icons files and a
// sitemap-index.xml referencing all of them.
func (g *SitemapGenerator) Generate(ctx context.Context, c *catalog.Catalog, lastmod time.Time) error {
	if err := os.MkdirAll(g.Root, 0o755); err != nil {
		return fmt.Errorf("create sitemaps dir: %w", err)
	}

	day := lastmod.UTC().Format(dateLayout)
	var indexRefs []sitemapIndexRef

	staticURLs := []sitemapURL{
		{Loc: g.SiteURL + "/", LastMod: day},
		{Loc: g.SiteURL + "/?variant=solid", LastMod: day},
	}
	staticFile := "sitemap-static.xml"
	if err := g.writeSitemap(filepath.Join(g.Root, staticFile), staticURLs); err != nil {
		return fmt.Errorf("write static sitemap: %w", err)
	}
	indexRefs = append(indexRefs, sitemapIndexRef{
		Loc:     g.SiteURL + "/sitemaps/" + staticFile,
		LastMod: day,
	})

	iconURLs := catalogURLs(g.SiteURL, c, day)[1:]
	chunks := splitURLs(iconURLs, maxSitemapURLs)
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if len(chunk) == 0 {
			continue
		}
		filename := "sitemap-icons"
		if len(chunks) > 1 {
			filename = fmt.Sprintf("%s-%d", filename, i+1)
		}
		filename += ".xml"

		if err := g.writeSitemap(filepath.Join(g.Root, filename), chunk); err != nil {
			return fmt.Errorf("write %s: %w", filename, err)
		}
		indexRefs = append(indexRefs, sitemapIndexRef{
			Loc:     g.SiteURL + "/sitemaps/" + filename,
			LastMod: day,
		})
	}

	if g.Logger != nil {
		g.Logger.Info("sitemaps written", "dir", g.Root, "icons", len(iconURLs), "files", len(indexRefs))
	}

	idx := sitemapIndex{
		XMLNS:    sitemapNS,
		Sitemaps: indexRefs,
	}
	return writeXML(filepath.Join(g.Root, "sitemap-index.xml"), idx)
}

func (g *SitemapGenerator) writeSitemap(path string, urls []sitemapURL) error {
	urlset := sitemapURLSet{
		XMLNS: sitemapNS,
		URLs:  urls,
	}
	return writeXML(path, urlset)
}

func writeXML(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := encodeXML(f, v); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func encodeXML(w io.Writer, v any) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func splitURLs(urls []sitemapURL, maxPerFile int) [][]sitemapURL {
	if len(urls) <= maxPerFile {
		return [][]sitemapURL{urls}
	}
	var chunks [][]sitemapURL
	for i := 0; i < len(urls); i += maxPerFile {
		end := min(i+maxPerFile, len(urls))
		chunks = append(chunks, urls[i:end])
	}
	return chunks
}
