package store

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"fintrack/internal/core"
)

// MemoryStore is an in-process RecordStore. It backs tests and the memory
// backend used for local development without a database file.
type MemoryStore struct {
	mu      sync.RWMutex
	nextID  int64
	records []core.Transaction
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: 1}
}

// Create implements RecordStore.
func (s *MemoryStore) Create(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if tx.Owner == "" {
		return core.Transaction{}, ErrNoOwner
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := tx
	stored.ID = strconv.FormatInt(s.nextID, 10)
	stored.CreatedAt = time.Now().UTC()
	s.nextID++
	s.records = append(s.records, stored)
	return stored, nil
}

// List implements RecordStore.
func (s *MemoryStore) List(ctx context.Context, owner string) ([]core.Transaction, error) {
	if owner == "" {
		return nil, ErrNoOwner
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []core.Transaction
	for _, r := range s.records {
		if r.Owner == owner {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Time.Equal(out[j].Date.Time) {
			return out[i].Date.Time.After(out[j].Date.Time)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Delete implements RecordStore.
func (s *MemoryStore) Delete(ctx context.Context, id, owner string) error {
	if owner == "" {
		return ErrNoOwner
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, r := range s.records {
		if r.ID == id && r.Owner == owner {
			s.records = append(s.records[:i], s.records[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}
