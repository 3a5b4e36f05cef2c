package proximity

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/dhconnelly/rtreego"

	"friendspark/geohash"
)

type indexEntry struct {
	hash string
	id   string
}

// Index is an in-memory proximity index over full-precision geohashes.
// Prefix scans use a sorted slice of hashes; radius queries use an R-tree
// of decoded cell centers. It is safe for concurrent use.
type Index struct {
	mu      sync.RWMutex
	entries []indexEntry // sorted by hash, then id
	byID    map[string]*spatialPoint
	hashes  map[string]string
	tree    *rtreego.Rtree
}

// NewIndex returns an empty Index.
func NewIndex() *Index {
	return &Index{
		byID:   make(map[string]*spatialPoint),
		hashes: make(map[string]string),
		tree:   newRTree(),
	}
}

// Add indexes id at hash, which must be a StoragePrecision geohash.
// Adding an id that is already indexed moves it.
func (idx *Index) Add(_ context.Context, id, hash string) error {
	if len(hash) != StoragePrecision {
		return fmt.Errorf("%w: indexed geohash %q must have %d characters",
			geohash.ErrInvalidArgument, hash, StoragePrecision)
	}
	center, err := geohash.Decode(hash)
	if err != nil {
		return err
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.removeLocked(id)

	e := indexEntry{hash: hash, id: id}
	i := sort.Search(len(idx.entries), func(i int) bool {
		return !idx.entries[i].less(e)
	})
	idx.entries = append(idx.entries, indexEntry{})
	copy(idx.entries[i+1:], idx.entries[i:])
	idx.entries[i] = e

	p := newSpatialPoint(id, center.Latitude, center.Longitude)
	idx.tree.Insert(p)
	idx.byID[id] = p
	idx.hashes[id] = hash
	return nil
}

// Remove drops id from the index. The hash argument is accepted for
// symmetry with other index implementations and is not needed here.
func (idx *Index) Remove(_ context.Context, id, _ string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.removeLocked(id)
	return nil
}

func (idx *Index) removeLocked(id string) {
	hash, ok := idx.hashes[id]
	if !ok {
		return
	}
	e := indexEntry{hash: hash, id: id}
	i := sort.Search(len(idx.entries), func(i int) bool {
		return !idx.entries[i].less(e)
	})
	if i < len(idx.entries) && idx.entries[i] == e {
		idx.entries = append(idx.entries[:i], idx.entries[i+1:]...)
	}
	idx.tree.Delete(idx.byID[id])
	delete(idx.byID, id)
	delete(idx.hashes, id)
}

// ScanPrefix returns the ids of every entity whose hash starts with prefix,
// ordered by hash.
func (idx *Index) ScanPrefix(_ context.Context, prefix string) ([]string, error) {
	if err := geohash.Validate(prefix); err != nil {
		return nil, err
	}
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	i := sort.Search(len(idx.entries), func(i int) bool {
		return idx.entries[i].hash >= prefix
	})
	var ids []string
	for ; i < len(idx.entries) && strings.HasPrefix(idx.entries[i].hash, prefix); i++ {
		ids = append(ids, idx.entries[i].id)
	}
	return ids, nil
}

// Within returns the ids of entities within radiusKm of the point, nearest
// first.
func (idx *Index) Within(_ context.Context, latitude, longitude, radiusKm float64) ([]string, error) {
	if err := geohash.ValidatePoint(latitude, longitude); err != nil {
		return nil, err
	}
	if !(radiusKm > 0) {
		return nil, fmt.Errorf("%w: radius %v must be positive", geohash.ErrInvalidArgument, radiusKm)
	}
	rect, err := searchRect(latitude, longitude, radiusKm)
	if err != nil {
		return nil, fmt.Errorf("search rect: %w", err)
	}
	origin := geohash.Coordinate{Latitude: latitude, Longitude: longitude}

	idx.mu.RLock()
	candidates := idx.tree.SearchIntersect(rect)
	idx.mu.RUnlock()

	type hit struct {
		id string
		km float64
	}
	hits := make([]hit, 0, len(candidates))
	for _, c := range candidates {
		p := c.(*spatialPoint)
		km := DistanceKm(origin, geohash.Coordinate{Latitude: p.lat, Longitude: p.lon})
		if km <= radiusKm {
			hits = append(hits, hit{id: p.id, km: km})
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].km != hits[j].km {
			return hits[i].km < hits[j].km
		}
		return hits[i].id < hits[j].id
	})
	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.id
	}
	return ids, nil
}

// Len returns the number of indexed entities.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.hashes)
}

func (e indexEntry) less(o indexEntry) bool {
	if e.hash != o.hash {
		return e.hash < o.hash
	}
	return e.id < o.id
}
