package chunker

import (
	"reflect"
	"strings"
	"testing"

	"docsync/internal/domain"
)

func TestSplitterPropagatesMetadata(t *testing.T) {
	s := NewSplitter(50, 10)

	doc := domain.Document{
		Content: strings.Repeat("some documentation text. ", 20),
		Metadata: map[string]string{
			"source": "https://docs.example.com/page",
			"title":  "Page",
		},
	}

	chunks, err := s.Split([]domain.Document{doc})
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected the document to split into multiple chunks, got %d", len(chunks))
	}

	for i, c := range chunks {
		if c.Content == "" {
			t.Errorf("chunk %d has empty content", i)
		}
		if c.Metadata["source"] != doc.Metadata["source"] {
			t.Errorf("chunk %d lost source metadata", i)
		}
		if c.Metadata["title"] != doc.Metadata["title"] {
			t.Errorf("chunk %d lost title metadata", i)
		}
	}

	// Metadata maps must be independent copies.
	chunks[0].Metadata["extra"] = "x"
	if _, ok := chunks[1].Metadata["extra"]; ok {
		t.Error("chunks share a metadata map")
	}
}

func TestSplitterDeterministic(t *testing.T) {
	doc := domain.Document{
		Content:  strings.Repeat("deterministic splitting please. ", 30),
		Metadata: map[string]string{"source": "u", "title": "t"},
	}

	a, err := NewSplitter(100, 20).Split([]domain.Document{doc})
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewSplitter(100, 20).Split([]domain.Document{doc})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("same input and config produced different chunks")
	}
}

func TestSplitterShortDocumentSingleChunk(t *testing.T) {
	doc := domain.Document{
		Content:  "short",
		Metadata: map[string]string{"source": "u", "title": "t"},
	}
	chunks, err := NewSplitter(4000, 200).Split([]domain.Document{doc})
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Content != "short" {
		t.Errorf("unexpected chunk content %q", chunks[0].Content)
	}
}

func TestSplitterMultipleDocuments(t *testing.T) {
	docs := []domain.Document{
		{Content: "first doc", Metadata: map[string]string{"source": "u1", "title": "t1"}},
		{Content: "second doc", Metadata: map[string]string{"source": "u2", "title": "t2"}},
	}
	chunks, err := NewSplitter(4000, 200).Split(docs)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].Metadata["source"] != "u1" || chunks[1].Metadata["source"] != "u2" {
		t.Error("chunks attributed to the wrong document")
	}
}
