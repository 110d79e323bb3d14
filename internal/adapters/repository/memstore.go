package repository

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"sync"
)

// MemoryStore keeps documents in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]map[string]Document
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]map[string]Document)}
}

// Put inserts or replaces documents.
func (s *MemoryStore) Put(_ context.Context, docs ...Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range docs {
		byID, ok := s.docs[d.Collection]
		if !ok {
			byID = make(map[string]Document)
			s.docs[d.Collection] = byID
		}
		d.Payload = maps.Clone(d.Payload)
		byID[d.ID] = d
	}
	return nil
}

// Get returns one document.
func (s *MemoryStore) Get(_ context.Context, collection, id string) (Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.docs[collection][id]
	if !ok {
		return Document{}, fmt.Errorf("%w: %s/%s", ErrNotFound, collection, id)
	}
	return d, nil
}

func (s *MemoryStore) matching(collection, scope string) []Document {
	out := make([]Document, 0, len(s.docs[collection]))
	for _, d := range s.docs[collection] {
		if scope == "" || d.Scope == scope {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Seq != out[j].Seq {
			return out[i].Seq < out[j].Seq
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// List returns documents ordered by seq then id.
func (s *MemoryStore) List(_ context.Context, collection, scope string, offset, limit int) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := s.matching(collection, scope)
	if offset < 0 {
		offset = 0
	}
	if offset >= len(all) {
		return nil, nil
	}
	end := len(all)
	if limit > 0 {
		end = min(offset+limit, len(all))
	}
	return all[offset:end], nil
}

// Count returns the number of matching documents.
func (s *MemoryStore) Count(_ context.Context, collection, scope string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if scope == "" {
		return len(s.docs[collection]), nil
	}
	return len(s.matching(collection, scope)), nil
}

// Scopes returns distinct non-empty scopes.
func (s *MemoryStore) Scopes(_ context.Context, collection string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]struct{})
	for _, d := range s.docs[collection] {
		if d.Scope != "" {
			seen[d.Scope] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for scope := range seen {
		out = append(out, scope)
	}
	sort.Strings(out)
	return out, nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }
