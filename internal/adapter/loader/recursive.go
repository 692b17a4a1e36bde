package loader

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"docsync/internal/domain"
	"docsync/internal/port"
)

// Link schemes and asset suffixes that never lead to indexable pages.
var (
	ignoredPrefixes = []string{"javascript:", "mailto:", "tel:", "#"}
	ignoredSuffixes = []string{
		".css", ".js", ".ico", ".png", ".jpg", ".jpeg", ".gif", ".svg",
		".pdf", ".zip", ".gz", ".tar", ".csv", ".xml", ".woff", ".woff2",
	}
)

// RecursiveLoader crawls a site breadth-first from a start URL, never
// leaving the start host, up to a maximum link depth.
type RecursiveLoader struct {
	StartURL string
	// MaxDepth bounds how many links deep the crawl goes; the start page
	// is depth 0. Zero means only the start page.
	MaxDepth int
	// MaxPages caps the total number of fetched pages; 0 means no cap.
	MaxPages int
	// Meta, if set, post-processes each page's metadata.
	Meta MetaFunc
	// Progress, if set, is called as pages complete.
	Progress port.ProgressFunc

	Client *http.Client
}

// Load crawls the site and returns all fetched pages in visit order. Any
// fetch failure aborts the whole load.
func (l *RecursiveLoader) Load(ctx context.Context) ([]domain.Document, error) {
	start, err := url.Parse(l.StartURL)
	if err != nil {
		return nil, fmt.Errorf("invalid start URL %q: %w", l.StartURL, err)
	}

	client := l.Client
	if client == nil {
		client = defaultClient
	}

	type target struct {
		url   string
		depth int
	}

	visited := map[string]bool{normalizeURL(start): true}
	queue := []target{{url: normalizeURL(start), depth: 0}}
	var docs []domain.Document

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if l.MaxPages > 0 && len(docs) >= l.MaxPages {
			break
		}

		doc, links, err := l.fetchAndScan(ctx, client, cur.url)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
		if l.Progress != nil {
			l.Progress(len(docs), len(docs)+len(queue))
		}

		if cur.depth >= l.MaxDepth {
			continue
		}
		for _, link := range links {
			u, err := url.Parse(link)
			if err != nil {
				continue
			}
			resolved := mustBase(cur.url).ResolveReference(u)
			if resolved.Host != start.Host {
				continue
			}
			key := normalizeURL(resolved)
			if visited[key] || skipLink(key) {
				continue
			}
			visited[key] = true
			queue = append(queue, target{url: key, depth: cur.depth + 1})
		}
	}
	return docs, nil
}

// fetchAndScan downloads a page, extracts its document and collects href
// targets for further crawling.
func (l *RecursiveLoader) fetchAndScan(ctx context.Context, client *http.Client, pageURL string) (domain.Document, []string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", pageURL, nil)
	if err != nil {
		return domain.Document{}, nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return domain.Document{}, nil, fmt.Errorf("failed to fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Document{}, nil, fmt.Errorf("%s returned status %d", pageURL, resp.StatusCode)
	}

	// The body is parsed once; links and text come from the same tree.
	root, err := html.Parse(resp.Body)
	if err != nil {
		return domain.Document{}, nil, fmt.Errorf("failed to parse %s: %w", pageURL, err)
	}

	var links []string
	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			if href := attr(n, "href"); href != "" {
				links = append(links, href)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(root)

	page, err := extractParsed(root, pageURL)
	if err != nil {
		return domain.Document{}, nil, err
	}
	meta := DefaultMetadata(page)
	if l.Meta != nil {
		meta = l.Meta(meta, page)
	}
	return domain.Document{Content: page.Text, Metadata: meta}, links, nil
}

// normalizeURL strips fragments and trailing slashes so the same page is
// not crawled twice.
func normalizeURL(u *url.URL) string {
	c := *u
	c.Fragment = ""
	c.RawQuery = ""
	s := c.String()
	return strings.TrimSuffix(s, "/")
}

func skipLink(link string) bool {
	lower := strings.ToLower(link)
	for _, p := range ignoredPrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	for _, s := range ignoredSuffixes {
		if strings.HasSuffix(lower, s) {
			return true
		}
	}
	return false
}

func mustBase(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		// Only called with URLs that already round-tripped url.Parse.
		panic(err)
	}
	return u
}
