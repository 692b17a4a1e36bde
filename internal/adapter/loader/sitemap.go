package loader

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"docsync/internal/domain"
	"docsync/internal/port"
)

const defaultConcurrency = 8

// SitemapLoader fetches every page listed in a sitemap.xml, filtered by
// include/exclude patterns matched against the URL path.
type SitemapLoader struct {
	SitemapURL string
	// Includes and Excludes are doublestar patterns matched against the
	// URL path, e.g. "/docs/**". Empty Includes admits every URL.
	Includes []string
	Excludes []string
	// Meta, if set, post-processes each page's metadata.
	Meta MetaFunc
	// Concurrency bounds parallel page fetches.
	Concurrency int
	// Progress, if set, is called as pages complete.
	Progress port.ProgressFunc

	Client *http.Client
}

type sitemapIndex struct {
	URLs []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc string `xml:"loc"`
}

// Load fetches the sitemap, filters its URLs and fetches all matching pages
// concurrently. The result is fully materialized and ordered like the
// sitemap. Any page failure fails the whole load; a fetch error must never
// be mistaken for a page having been removed upstream.
func (l *SitemapLoader) Load(ctx context.Context) ([]domain.Document, error) {
	urls, err := l.fetchSitemap(ctx)
	if err != nil {
		return nil, err
	}

	var filtered []string
	for _, u := range urls {
		ok, err := l.admit(u)
		if err != nil {
			return nil, err
		}
		if ok {
			filtered = append(filtered, u)
		}
	}

	docs := make([]domain.Document, len(filtered))
	var (
		mu   sync.Mutex
		done int
	)

	g, gctx := errgroup.WithContext(ctx)
	concurrency := l.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	g.SetLimit(concurrency)

	for i, pageURL := range filtered {
		i, pageURL := i, pageURL
		g.Go(func() error {
			doc, err := fetchPage(gctx, l.client(), pageURL, l.Meta)
			if err != nil {
				return err
			}
			docs[i] = doc

			if l.Progress != nil {
				mu.Lock()
				done++
				l.Progress(done, len(filtered))
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}

func (l *SitemapLoader) fetchSitemap(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", l.SitemapURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sitemap: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sitemap %s returned status %d", l.SitemapURL, resp.StatusCode)
	}

	var index sitemapIndex
	if err := xml.NewDecoder(resp.Body).Decode(&index); err != nil {
		return nil, fmt.Errorf("failed to parse sitemap: %w", err)
	}

	urls := make([]string, 0, len(index.URLs))
	for _, u := range index.URLs {
		if u.Loc != "" {
			urls = append(urls, u.Loc)
		}
	}
	return urls, nil
}

func (l *SitemapLoader) admit(rawURL string) (bool, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false, fmt.Errorf("sitemap contains invalid URL %q: %w", rawURL, err)
	}
	path := u.Path
	if path == "" {
		path = "/"
	}

	included := len(l.Includes) == 0
	for _, pattern := range l.Includes {
		matched, err := doublestar.Match(pattern, path)
		if err != nil {
			return false, fmt.Errorf("invalid include pattern %q: %w", pattern, err)
		}
		if matched {
			included = true
			break
		}
	}
	if !included {
		return false, nil
	}

	for _, pattern := range l.Excludes {
		matched, err := doublestar.Match(pattern, path)
		if err != nil {
			return false, fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}
		if matched {
			return false, nil
		}
	}
	return true, nil
}

func (l *SitemapLoader) client() *http.Client {
	if l.Client != nil {
		return l.Client
	}
	return defaultClient
}

var defaultClient = &http.Client{Timeout: 60 * time.Second}

// fetchPage downloads and parses one page into a document.
func fetchPage(ctx context.Context, client *http.Client, pageURL string, metaFn MetaFunc) (domain.Document, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", pageURL, nil)
	if err != nil {
		return domain.Document{}, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return domain.Document{}, fmt.Errorf("failed to fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Document{}, fmt.Errorf("%s returned status %d", pageURL, resp.StatusCode)
	}

	page, err := ExtractPage(resp.Body, pageURL)
	if err != nil {
		return domain.Document{}, fmt.Errorf("failed to parse %s: %w", pageURL, err)
	}

	meta := DefaultMetadata(page)
	if metaFn != nil {
		meta = metaFn(meta, page)
	}
	return domain.Document{Content: page.Text, Metadata: meta}, nil
}
