// Package discovery implements the event use cases: creating, editing and
// removing events while keeping the geohash index in step, and finding
// visible events near a point.
package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"friendspark/cerr"
	"friendspark/log"
	"friendspark/models"
	"friendspark/proximity"
)

const (
	DefaultSearchPrecision = 5
	DefaultLimit           = 50
)

// Store persists events. ScanPrefix lists event ids whose geohash starts
// with a prefix and is used when no Index is configured.
type Store interface {
	proximity.Scanner
	Create(ctx context.Context, e *models.Event) error
	Get(ctx context.Context, id uuid.UUID) (*models.Event, error)
	GetMany(ctx context.Context, ids []uuid.UUID) ([]*models.Event, error)
	Update(ctx context.Context, e *models.Event) error
	Delete(ctx context.Context, id uuid.UUID) error
	// ByCreator returns the events of one creator ordered by event date.
	ByCreator(ctx context.Context, creatorID uuid.UUID) ([]*models.Event, error)
	Locations(ctx context.Context) (map[string]string, error)
}

// Index maps event ids to full-precision geohashes for prefix lookups.
type Index interface {
	proximity.Scanner
	Add(ctx context.Context, id, hash string) error
	Remove(ctx context.Context, id, hash string) error
}

type Service struct {
	store     Store
	index     Index
	precision int
	limit     int
	now       func() time.Time
}

// New builds a Service over store. Options are validated in order and
// the first invalid one is reported.
func New(store Store, opts ...Option) (*Service, error) {
	s := &Service{store: store}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}
	if s.precision == 0 {
		s.precision = DefaultSearchPrecision
	}
	if s.limit == 0 {
		s.limit = DefaultLimit
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

func (s *Service) scanner() proximity.Scanner {
	if s.index != nil {
		return s.index
	}
	return s.store
}

func (s *Service) CreateEvent(ctx context.Context, in models.EventInput) (*models.Event, error) {
	e, err := models.NewEvent(in, s.now())
	if err != nil {
		return nil, cerr.Invalid(err)
	}
	if err := s.store.Create(ctx, e); err != nil {
		return nil, err
	}
	if s.index != nil {
		if err := s.index.Add(ctx, e.ID.String(), e.Geohash); err != nil {
			if derr := s.store.Delete(ctx, e.ID); derr != nil {
				log.Error(ctx, "rolling back unindexed event",
					slog.String("id", e.ID.String()), log.Err("err", derr))
			}
			return nil, fmt.Errorf("indexing event: %w", err)
		}
	}
	log.Info(ctx, "event created",
		slog.String("id", e.ID.String()),
		slog.String("geohash", e.Geohash),
		log.Coordinate("at", e.Latitude, e.Longitude),
	)
	return e, nil
}

func (s *Service) GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	return s.store.Get(ctx, id)
}

// UpdateEvent applies patch to the stored event. A changed location moves
// the event in the index; if that fails the previous event is written
// back so store and index keep agreeing.
func (s *Service) UpdateEvent(ctx context.Context, id uuid.UUID, patch models.EventPatch) (*models.Event, error) {
	e, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	prev := *e
	if err := e.ApplyPatch(patch, s.now()); err != nil {
		return nil, cerr.Invalid(err)
	}
	if err := s.store.Update(ctx, e); err != nil {
		return nil, err
	}
	if s.index == nil || e.Geohash == prev.Geohash {
		return e, nil
	}
	if err := s.index.Add(ctx, e.ID.String(), e.Geohash); err != nil {
		if rerr := s.store.Update(ctx, &prev); rerr != nil {
			log.Error(ctx, "restoring event after failed re-index",
				slog.String("id", id.String()), log.Err("err", rerr))
		}
		return nil, fmt.Errorf("re-indexing event: %w", err)
	}
	log.Debug(ctx, "event moved",
		slog.String("id", e.ID.String()),
		slog.String("from", prev.Geohash),
		slog.String("to", e.Geohash),
	)
	return e, nil
}

// DeleteEvent removes the event from the store, then from the index. A
// failed index removal is only logged: the store no longer has the event,
// so a stale index entry is skipped when results are loaded.
func (s *Service) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	e, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	if s.index != nil {
		if err := s.index.Remove(ctx, id.String(), e.Geohash); err != nil {
			log.Warn(ctx, "event deleted but still indexed",
				slog.String("id", id.String()), log.Err("err", err))
		}
	}
	log.Info(ctx, "event deleted", slog.String("id", id.String()))
	return nil
}

// ByCreator returns the visible events created by creatorID, earliest
// event date first.
func (s *Service) ByCreator(ctx context.Context, creatorID uuid.UUID) ([]*models.Event, error) {
	if creatorID == uuid.Nil {
		return nil, cerr.BadRequestf("creator id is required")
	}
	events, err := s.store.ByCreator(ctx, creatorID)
	if err != nil {
		return nil, err
	}
	return visible(events), nil
}

// Reindex adds every stored event to the index and returns how many were
// added. It is a no-op without an index.
func (s *Service) Reindex(ctx context.Context) (int, error) {
	if s.index == nil {
		return 0, nil
	}
	locs, err := s.store.Locations(ctx)
	if err != nil {
		return 0, err
	}
	for id, hash := range locs {
		if err := s.index.Add(ctx, id, hash); err != nil {
			return 0, fmt.Errorf("indexing %s: %w", id, err)
		}
	}
	log.Info(ctx, "index rebuilt", slog.Int("events", len(locs)))
	return len(locs), nil
}

// load fetches the events behind ids, keeping only visible ones.
func (s *Service) load(ctx context.Context, ids []string) ([]*models.Event, error) {
	keys := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		key, err := uuid.Parse(id)
		if err != nil {
			log.Warn(ctx, "skipping malformed indexed id", slog.String("id", id))
			continue
		}
		keys = append(keys, key)
	}
	events, err := s.store.GetMany(ctx, keys)
	if err != nil {
		return nil, err
	}
	return visible(events), nil
}

func visible(events []*models.Event) []*models.Event {
	out := events[:0]
	for _, e := range events {
		if e.Visible() {
			out = append(out, e)
		}
	}
	return out
}
