package loader

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newCrawlServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `<html><head><title>Home</title></head><body>
<a href="/guide">guide</a>
<a href="/guide/">guide again</a>
<a href="/style.css">styles</a>
<a href="#section">fragment</a>
<a href="mailto:docs@example.com">mail</a>
<a href="https://elsewhere.example.org/offsite">offsite</a>
<p>home page</p></body></html>`)
	})
	mux.HandleFunc("/guide", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><title>Guide</title></head><body>
<a href="/guide/deep">deeper</a>
<p>guide page</p></body></html>`)
	})
	mux.HandleFunc("/guide/deep", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><title>Deep</title></head><body><p>deep page</p></body></html>`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRecursiveLoaderStaysOnHost(t *testing.T) {
	srv := newCrawlServer(t)

	l := &RecursiveLoader{
		StartURL: srv.URL,
		MaxDepth: 3,
		Client:   srv.Client(),
	}

	docs, err := l.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	// Home, guide and deep; the duplicate, asset, fragment, mailto and
	// offsite links must all be skipped.
	if len(docs) != 3 {
		t.Fatalf("expected 3 documents, got %d", len(docs))
	}
	titles := make(map[string]bool)
	for _, d := range docs {
		titles[d.Metadata["title"]] = true
	}
	for _, want := range []string{"Home", "Guide", "Deep"} {
		if !titles[want] {
			t.Errorf("missing page %q, crawled: %v", want, titles)
		}
	}
}

func TestRecursiveLoaderDepthLimit(t *testing.T) {
	srv := newCrawlServer(t)

	l := &RecursiveLoader{
		StartURL: srv.URL,
		MaxDepth: 1,
		Client:   srv.Client(),
	}

	docs, err := l.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected depth limit to stop at 2 documents, got %d", len(docs))
	}
}

func TestRecursiveLoaderMaxPages(t *testing.T) {
	srv := newCrawlServer(t)

	l := &RecursiveLoader{
		StartURL: srv.URL,
		MaxDepth: 5,
		MaxPages: 1,
		Client:   srv.Client(),
	}

	docs, err := l.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected page cap of 1, got %d", len(docs))
	}
}

func TestSkipLink(t *testing.T) {
	cases := []struct {
		link string
		skip bool
	}{
		{"http://example.com/docs", false},
		{"javascript:void(0)", true},
		{"mailto:a@b.c", true},
		{"tel:123", true},
		{"http://example.com/app.js", true},
		{"http://example.com/logo.png", true},
		{"http://example.com/manual.pdf", true},
	}
	for _, c := range cases {
		if got := skipLink(c.link); got != c.skip {
			t.Errorf("skipLink(%q) = %v, want %v", c.link, got, c.skip)
		}
	}
}
