package vstore

import (
	"context"
	"path/filepath"
	"testing"

	"docsync/internal/port"
)

func newTestStore(t *testing.T) *BoltVectorStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "vectors.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestBoltVectorStoreRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	items := []port.VectorItem{
		{ID: "a", Text: "alpha", Vector: []float32{1, 2, 3}, Metadata: map[string]string{"source": "u1", "title": "t1"}},
		{ID: "b", Text: "beta", Vector: []float32{4, 5, 6}, Metadata: map[string]string{"source": "u2", "title": "t2"}},
	}
	if err := s.Upsert(ctx, items); err != nil {
		t.Fatal(err)
	}

	n, err := s.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("expected 2 records, got %d", n)
	}
}

func TestBoltVectorStoreUpsertIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	item := port.VectorItem{ID: "a", Text: "alpha", Vector: []float32{1}}
	for i := 0; i < 3; i++ {
		if err := s.Upsert(ctx, []port.VectorItem{item}); err != nil {
			t.Fatal(err)
		}
	}

	n, _ := s.Count(ctx)
	if n != 1 {
		t.Errorf("re-adding the same id grew the store to %d records", n)
	}
}

func TestBoltVectorStoreDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Upsert(ctx, []port.VectorItem{
		{ID: "a", Text: "alpha", Vector: []float32{1}},
		{ID: "b", Text: "beta", Vector: []float32{2}},
	}); err != nil {
		t.Fatal(err)
	}

	if err := s.Delete(ctx, []string{"a", "missing"}); err != nil {
		t.Fatal(err)
	}

	n, _ := s.Count(ctx)
	if n != 1 {
		t.Errorf("expected 1 record after delete, got %d", n)
	}
}
