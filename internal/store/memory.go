package store

import (
	"context"
	"sync"
	"time"

	"github.com/prepwise/interview-coach/internal/model"
)

// MemoryStore keeps snapshots in a map. The default driver for a single
// instance; nothing survives a restart, which matches the no-history
// policy.
type MemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string]*Snapshot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snapshots: make(map[string]*Snapshot)}
}

func (s *MemoryStore) Create(_ context.Context, snap *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	snap.CreatedAt = now
	snap.UpdatedAt = now
	snap.Version = 1

	s.snapshots[snap.ID] = clone(snap)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.snapshots[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(snap), nil
}

func (s *MemoryStore) Update(_ context.Context, snap *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.snapshots[snap.ID]
	if !ok {
		return ErrNotFound
	}
	if stored.Version != snap.Version {
		return ErrVersionConflict
	}

	snap.Version++
	snap.UpdatedAt = time.Now()
	s.snapshots[snap.ID] = clone(snap)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, id)
	return nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots = nil
	return nil
}

func clone(snap *Snapshot) *Snapshot {
	out := *snap
	out.Transcript = append([]model.Turn(nil), snap.Transcript...)
	out.Scores = append([]int(nil), snap.Scores...)
	if snap.Result != nil {
		r := *snap.Result
		r.Highlights = append([]model.Highlight(nil), snap.Result.Highlights...)
		r.ImprovementSuggestions = append([]string(nil), snap.Result.ImprovementSuggestions...)
		out.Result = &r
	}
	return &out
}
