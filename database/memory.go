package database

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"friendspark/cerr"
	"friendspark/models"
	"friendspark/proximity"
)

// MemoryStore is an EventStore kept in process memory. Prefix scans go
// through a proximity.Index. Events are copied in and out.
type MemoryStore struct {
	mu     sync.RWMutex
	events map[uuid.UUID]models.Event
	index  *proximity.Index
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		events: make(map[uuid.UUID]models.Event),
		index:  proximity.NewIndex(),
	}
}

func (s *MemoryStore) Create(ctx context.Context, e *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[e.ID]; ok {
		return cerr.Conflict(fmt.Errorf("event %s already exists", e.ID))
	}
	if err := s.index.Add(ctx, e.ID.String(), e.Geohash); err != nil {
		return fmt.Errorf("indexing event: %w", err)
	}
	s.events[e.ID] = *e
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id uuid.UUID) (*models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.events[id]
	if !ok {
		return nil, cerr.NotFound(fmt.Errorf("%w: %s", models.ErrEventNotFound, id))
	}
	return &e, nil
}

func (s *MemoryStore) GetMany(_ context.Context, ids []uuid.UUID) ([]*models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Event
	for _, id := range ids {
		if e, ok := s.events[id]; ok {
			out = append(out, &e)
		}
	}
	return out, nil
}

func (s *MemoryStore) Update(ctx context.Context, e *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.events[e.ID]
	if !ok {
		return cerr.NotFound(fmt.Errorf("%w: %s", models.ErrEventNotFound, e.ID))
	}
	if old.Geohash != e.Geohash {
		if err := s.index.Add(ctx, e.ID.String(), e.Geohash); err != nil {
			return fmt.Errorf("indexing event: %w", err)
		}
	}
	updated := *e
	updated.CreatedAt, updated.CreatorID = old.CreatedAt, old.CreatorID
	s.events[e.ID] = updated
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return cerr.NotFound(fmt.Errorf("%w: %s", models.ErrEventNotFound, id))
	}
	delete(s.events, id)
	return s.index.Remove(ctx, id.String(), e.Geohash)
}

func (s *MemoryStore) ScanPrefix(ctx context.Context, prefix string) ([]string, error) {
	return s.index.ScanPrefix(ctx, prefix)
}

func (s *MemoryStore) ByCreator(_ context.Context, creatorID uuid.UUID) ([]*models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Event
	for _, e := range s.events {
		if e.CreatorID == creatorID {
			out = append(out, &e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EventDate.Equal(out[j].EventDate) {
			return out[i].EventDate.Before(out[j].EventDate)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *MemoryStore) Locations(_ context.Context) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	locs := make(map[string]string, len(s.events))
	for id, e := range s.events {
		locs[id.String()] = e.Geohash
	}
	return locs, nil
}
