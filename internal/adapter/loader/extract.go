// Package loader fetches documentation pages, either from a sitemap or by
// recursively crawling a site, and turns them into plain-text documents with
// source metadata.
package loader

import (
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"docsync/internal/domain"
)

// Page is one parsed HTML page.
type Page struct {
	URL         string
	Title       string
	Description string
	Language    string
	Text        string
}

// MetaFunc lets callers post-process the metadata extracted for a page. It
// receives the default metadata and the parsed page and returns the final
// metadata to attach to the document. Run once per page.
type MetaFunc func(meta map[string]string, page *Page) map[string]string

var blankLines = regexp.MustCompile(`\n\n+`)

// ExtractPage parses an HTML page into text and head metadata. Script,
// style and template contents are dropped; runs of blank lines collapse to
// a single blank line.
func ExtractPage(r io.Reader, pageURL string) (*Page, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	return extractParsed(root, pageURL)
}

// extractParsed extracts a page from an already parsed HTML tree.
func extractParsed(root *html.Node, pageURL string) (*Page, error) {
	page := &Page{URL: pageURL}
	var text strings.Builder

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			switch n.Data {
			case "script", "style", "template", "noscript":
				return
			case "title":
				if page.Title == "" {
					page.Title = strings.TrimSpace(nodeText(n))
				}
			case "meta":
				if attr(n, "name") == "description" {
					page.Description = attr(n, "content")
				}
			case "html":
				if lang := attr(n, "lang"); lang != "" {
					page.Language = lang
				}
			case "br", "p", "div", "li", "tr", "h1", "h2", "h3", "h4", "h5", "h6", "pre", "blockquote":
				text.WriteString("\n")
			}
		case html.TextNode:
			text.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	page.Text = strings.TrimSpace(blankLines.ReplaceAllString(text.String(), "\n\n"))
	return page, nil
}

// DefaultMetadata builds the standard metadata set for a page.
func DefaultMetadata(page *Page) map[string]string {
	return map[string]string{
		domain.MetaSource: page.URL,
		domain.MetaTitle:  page.Title,
		"description":     page.Description,
		"language":        page.Language,
	}
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
