// Package vstore contains the vector store adapters: a Chroma-backed one for
// the usual remote deployment and a bbolt-backed one for fully local runs.
package vstore

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"docsync/internal/port"
)

var bucketVectors = []byte("vectors")

// BoltVectorStore persists embedded records in a local bbolt file. Retrieval
// is out of scope here; this store only has to keep (vector, text, metadata)
// records addressable by id for the indexing engine.
type BoltVectorStore struct {
	db *bbolt.DB
}

type storedRecord struct {
	Text     string            `json:"t"`
	Vector   []float32         `json:"v"`
	Metadata map[string]string `json:"m,omitempty"`
}

// NewBoltVectorStore creates a bbolt-backed vector store on an open database.
func NewBoltVectorStore(db *bbolt.DB) (*BoltVectorStore, error) {
	err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketVectors)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create vectors bucket: %w", err)
	}
	return &BoltVectorStore{db: db}, nil
}

// Open opens (creating if needed) a bbolt file at path and returns a vector
// store on it. The caller owns closing via Close.
func Open(path string) (*BoltVectorStore, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open vector db: %w", err)
	}
	return NewBoltVectorStore(db)
}

func (s *BoltVectorStore) Upsert(_ context.Context, items []port.VectorItem) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketVectors)
		for _, item := range items {
			rec := storedRecord{
				Text:     item.Text,
				Vector:   item.Vector,
				Metadata: item.Metadata,
			}
			data, err := json.Marshal(rec)
			if err != nil {
				return err
			}
			if err := b.Put([]byte(item.ID), data); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BoltVectorStore) Delete(_ context.Context, ids []string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketVectors)
		for _, id := range ids {
			if err := b.Delete([]byte(id)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BoltVectorStore) Count(_ context.Context) (int, error) {
	n := 0
	err := s.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket(bucketVectors).Stats().KeyN
		return nil
	})
	return n, err
}

// Close closes the underlying database.
func (s *BoltVectorStore) Close() error {
	return s.db.Close()
}
