package loader

import (
	"strings"
	"testing"
)

const samplePage = `<!DOCTYPE html>
<html lang="en">
<head>
<title>Getting Started</title>
<meta name="description" content="How to get started.">
<style>body { color: red; }</style>
</head>
<body>
<script>console.log("ignore me")</script>
<article>
<h1>Getting Started</h1>
<p>Install the thing.</p>


<p>Run the thing.</p>
</article>
</body>
</html>`

func TestExtractPage(t *testing.T) {
	page, err := ExtractPage(strings.NewReader(samplePage), "https://docs.example.com/start")
	if err != nil {
		t.Fatal(err)
	}

	if page.Title != "Getting Started" {
		t.Errorf("title = %q", page.Title)
	}
	if page.Description != "How to get started." {
		t.Errorf("description = %q", page.Description)
	}
	if page.Language != "en" {
		t.Errorf("language = %q", page.Language)
	}
	if !strings.Contains(page.Text, "Install the thing.") {
		t.Errorf("text missing body content: %q", page.Text)
	}
	if strings.Contains(page.Text, "console.log") {
		t.Error("script content leaked into text")
	}
	if strings.Contains(page.Text, "color: red") {
		t.Error("style content leaked into text")
	}
	if strings.Contains(page.Text, "\n\n\n") {
		t.Error("blank lines not collapsed")
	}
}

func TestExtractPageMissingHead(t *testing.T) {
	page, err := ExtractPage(strings.NewReader("<html><body><p>just text</p></body></html>"), "https://docs.example.com/x")
	if err != nil {
		t.Fatal(err)
	}
	if page.Title != "" || page.Description != "" {
		t.Errorf("expected empty head metadata, got title=%q description=%q", page.Title, page.Description)
	}
	if !strings.Contains(page.Text, "just text") {
		t.Errorf("text = %q", page.Text)
	}
}

func TestDefaultMetadata(t *testing.T) {
	page := &Page{
		URL:         "https://docs.example.com/p",
		Title:       "P",
		Description: "d",
		Language:    "en",
	}
	meta := DefaultMetadata(page)
	if meta["source"] != page.URL {
		t.Errorf("source = %q", meta["source"])
	}
	if meta["title"] != "P" || meta["description"] != "d" || meta["language"] != "en" {
		t.Errorf("unexpected metadata: %v", meta)
	}
}
