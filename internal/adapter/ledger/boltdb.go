// Package ledger persists the record manager: the durable map of content
// hash to (group id, last-touched timestamp) that the indexing engine
// reconciles against.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

// BoltLedger implements port.RecordManager on a bbolt database. Each
// namespace gets its own bucket, so several collections can share one file.
type BoltLedger struct {
	db        *bbolt.DB
	namespace []byte
}

type recordMeta struct {
	GroupID   string `json:"group_id"`
	UpdatedAt int64  `json:"updated_at"` // unix nanoseconds
}

// NewBoltLedger opens (creating if needed) the ledger file at path, scoped
// to the given namespace.
func NewBoltLedger(path, namespace string) (*BoltLedger, error) {
	if namespace == "" {
		return nil, fmt.Errorf("ledger namespace must not be empty")
	}
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger db: %w", err)
	}
	return &BoltLedger{db: db, namespace: []byte(namespace)}, nil
}

func (l *BoltLedger) EnsureSchema(_ context.Context) error {
	return l.db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(l.namespace); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", l.namespace, err)
		}
		return nil
	})
}

func (l *BoltLedger) Exists(_ context.Context, keys []string) (map[string]bool, error) {
	out := make(map[string]bool, len(keys))
	err := l.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(l.namespace)
		if b == nil {
			return fmt.Errorf("ledger namespace %s not initialized", l.namespace)
		}
		for _, k := range keys {
			out[k] = b.Get([]byte(k)) != nil
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (l *BoltLedger) Update(_ context.Context, keys, groupIDs []string, at time.Time) error {
	if len(keys) != len(groupIDs) {
		return fmt.Errorf("keys/groups length mismatch: %d != %d", len(keys), len(groupIDs))
	}
	return l.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(l.namespace)
		if b == nil {
			return fmt.Errorf("ledger namespace %s not initialized", l.namespace)
		}
		for i, k := range keys {
			meta := recordMeta{
				GroupID:   groupIDs[i],
				UpdatedAt: at.UnixNano(),
			}
			data, err := json.Marshal(meta)
			if err != nil {
				return err
			}
			if err := b.Put([]byte(k), data); err != nil {
				return err
			}
		}
		return nil
	})
}

func (l *BoltLedger) ListKeys(_ context.Context, olderThan time.Time, groups []string) ([]string, error) {
	var groupSet map[string]bool
	if len(groups) > 0 {
		groupSet = make(map[string]bool, len(groups))
		for _, g := range groups {
			groupSet[g] = true
		}
	}
	cutoff := olderThan.UnixNano()

	var keys []string
	err := l.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(l.namespace)
		if b == nil {
			return fmt.Errorf("ledger namespace %s not initialized", l.namespace)
		}
		return b.ForEach(func(k, v []byte) error {
			var meta recordMeta
			if err := json.Unmarshal(v, &meta); err != nil {
				return fmt.Errorf("corrupt ledger record %s: %w", k, err)
			}
			if meta.UpdatedAt >= cutoff {
				return nil
			}
			if groupSet != nil && !groupSet[meta.GroupID] {
				return nil
			}
			keys = append(keys, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

func (l *BoltLedger) DeleteKeys(_ context.Context, keys []string) error {
	return l.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(l.namespace)
		if b == nil {
			return fmt.Errorf("ledger namespace %s not initialized", l.namespace)
		}
		for _, k := range keys {
			if err := b.Delete([]byte(k)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Len returns the number of records in the namespace.
func (l *BoltLedger) Len() (int, error) {
	n := 0
	err := l.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(l.namespace)
		if b == nil {
			return nil
		}
		n = b.Stats().KeyN
		return nil
	})
	return n, err
}

// Close closes the underlying database.
func (l *BoltLedger) Close() error {
	return l.db.Close()
}
