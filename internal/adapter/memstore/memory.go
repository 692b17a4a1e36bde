// Package memstore provides in-memory implementations of the vector store
// and record manager ports, used by tests and dry runs.
package memstore

import (
	"context"
	"sync"
	"time"

	"docsync/internal/port"
)

// VectorStore is an in-memory port.VectorStore.
type VectorStore struct {
	mu    sync.RWMutex
	items map[string]port.VectorItem
}

// NewVectorStore creates an empty in-memory vector store.
func NewVectorStore() *VectorStore {
	return &VectorStore{items: make(map[string]port.VectorItem)}
}

func (s *VectorStore) Upsert(_ context.Context, items []port.VectorItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range items {
		s.items[it.ID] = it
	}
	return nil
}

func (s *VectorStore) Delete(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.items, id)
	}
	return nil
}

func (s *VectorStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items), nil
}

// Get returns the stored item for id, if present.
func (s *VectorStore) Get(id string) (port.VectorItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.items[id]
	return it, ok
}

type record struct {
	groupID   string
	updatedAt time.Time
}

// RecordManager is an in-memory port.RecordManager.
type RecordManager struct {
	mu      sync.RWMutex
	records map[string]record
}

// NewRecordManager creates an empty in-memory ledger.
func NewRecordManager() *RecordManager {
	return &RecordManager{records: make(map[string]record)}
}

func (m *RecordManager) EnsureSchema(_ context.Context) error {
	return nil
}

func (m *RecordManager) Exists(_ context.Context, keys []string) (map[string]bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]bool, len(keys))
	for _, k := range keys {
		_, ok := m.records[k]
		out[k] = ok
	}
	return out, nil
}

func (m *RecordManager) Update(_ context.Context, keys, groupIDs []string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, k := range keys {
		m.records[k] = record{groupID: groupIDs[i], updatedAt: at}
	}
	return nil
}

func (m *RecordManager) ListKeys(_ context.Context, olderThan time.Time, groups []string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var groupSet map[string]bool
	if len(groups) > 0 {
		groupSet = make(map[string]bool, len(groups))
		for _, g := range groups {
			groupSet[g] = true
		}
	}
	var keys []string
	for k, r := range m.records {
		if !r.updatedAt.Before(olderThan) {
			continue
		}
		if groupSet != nil && !groupSet[r.groupID] {
			continue
		}
		keys = append(keys, k)
	}
	return keys, nil
}

func (m *RecordManager) DeleteKeys(_ context.Context, keys []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.records, k)
	}
	return nil
}

// Len returns the number of ledger entries.
func (m *RecordManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}
