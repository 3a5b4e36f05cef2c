package discovery

import (
	"context"
	"fmt"
	"sort"

	"friendspark/cerr"
	"friendspark/geohash"
	"friendspark/models"
	"friendspark/proximity"
)

// NearbyQuery asks for visible events around a point.
//
// With RadiusKm set and an index that implements RadiusSearcher, the index
// lists the events within the radius itself. Otherwise, with RadiusKm set
// and no Precision, the precision comes from
// proximity.PrecisionForRadius and the neighbouring cells are scanned.
// Otherwise Precision (or the service default) selects the cell and
// Neighbors adds the eight cells around it. Widen retries with shorter
// prefixes while nothing is found.
type NearbyQuery struct {
	Latitude  float64
	Longitude float64
	Precision int
	Neighbors bool
	RadiusKm  float64
	Limit     int
	Widen     int
}

// RadiusSearcher is implemented by indexes that can list the ids within
// a distance of a point directly, such as proximity.Index.
type RadiusSearcher interface {
	Within(ctx context.Context, latitude, longitude, radiusKm float64) ([]string, error)
}

// Match is an event with its distance from the query point.
type Match struct {
	Event      *models.Event `json:"event"`
	DistanceKm float64       `json:"distance_km"`
}

// NearbyResult holds the matches of a Nearby query. Precision and Prefixes
// describe the last prefix scan and are empty when the index answered a
// radius query itself.
type NearbyResult struct {
	Matches   []Match  `json:"events"`
	Precision int      `json:"precision"`
	Prefixes  []string `json:"prefixes"`
}

func (q NearbyQuery) validate() error {
	if err := geohash.ValidatePoint(q.Latitude, q.Longitude); err != nil {
		return err
	}
	if q.Precision != 0 && (q.Precision < geohash.MinPrecision || q.Precision > geohash.MaxPrecision) {
		return fmt.Errorf("%w: precision %d outside [%d, %d]",
			geohash.ErrInvalidArgument, q.Precision, geohash.MinPrecision, geohash.MaxPrecision)
	}
	if q.RadiusKm < 0 {
		return fmt.Errorf("%w: radius %v is negative", geohash.ErrInvalidArgument, q.RadiusKm)
	}
	if q.Limit < 0 || q.Widen < 0 {
		return fmt.Errorf("%w: limit and widen must not be negative", geohash.ErrInvalidArgument)
	}
	return nil
}

func (s *Service) proximityQuery(q NearbyQuery) proximity.Query {
	sq := proximity.Query{
		Latitude:  q.Latitude,
		Longitude: q.Longitude,
		Precision: q.Precision,
		RadiusKm:  q.RadiusKm,
		Widen:     q.Widen,
		Technique: proximity.PrefixTechnique,
	}
	switch {
	case q.RadiusKm > 0 && q.Precision == 0:
		sq.Technique = proximity.RadiusTechnique
	case q.Neighbors || q.RadiusKm > 0:
		sq.Technique = proximity.NeighborsTechnique
	}
	if sq.Precision == 0 {
		sq.Precision = s.precision
	}
	return sq
}

// Nearby returns visible events near the query point, nearest first. When
// a radius is given, events farther away are dropped.
func (s *Service) Nearby(ctx context.Context, q NearbyQuery) (*NearbyResult, error) {
	if err := q.validate(); err != nil {
		return nil, cerr.Invalid(err)
	}
	var res proximity.Result
	if rs, ok := s.index.(RadiusSearcher); ok && q.RadiusKm > 0 {
		ids, err := rs.Within(ctx, q.Latitude, q.Longitude, q.RadiusKm)
		if err != nil {
			return nil, fmt.Errorf("searching within %v km of (%v, %v): %w",
				q.RadiusKm, q.Latitude, q.Longitude, err)
		}
		res.IDs = ids
	} else {
		var err error
		res, err = proximity.Search(ctx, s.scanner(), s.proximityQuery(q))
		if err != nil {
			return nil, fmt.Errorf("searching near (%v, %v): %w", q.Latitude, q.Longitude, err)
		}
	}
	events, err := s.load(ctx, res.IDs)
	if err != nil {
		return nil, err
	}

	origin := geohash.Coordinate{Latitude: q.Latitude, Longitude: q.Longitude}
	matches := make([]Match, 0, len(events))
	for _, e := range events {
		d := proximity.DistanceKm(origin, e.Coordinate())
		if q.RadiusKm > 0 && d > q.RadiusKm {
			continue
		}
		matches = append(matches, Match{Event: e, DistanceKm: d})
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].DistanceKm != matches[j].DistanceKm {
			return matches[i].DistanceKm < matches[j].DistanceKm
		}
		return matches[i].Event.ID.String() < matches[j].Event.ID.String()
	})

	limit := s.limit
	if q.Limit > 0 && q.Limit < limit {
		limit = q.Limit
	}
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return &NearbyResult{Matches: matches, Precision: res.Precision, Prefixes: res.Prefixes}, nil
}

// ByPrefix returns the visible events whose geohash starts with prefix,
// ordered by geohash.
func (s *Service) ByPrefix(ctx context.Context, prefix string) ([]*models.Event, error) {
	if err := geohash.Validate(prefix); err != nil {
		return nil, cerr.Invalid(err)
	}
	ids, err := s.scanner().ScanPrefix(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("scanning prefix %q: %w", prefix, err)
	}
	events, err := s.load(ctx, ids)
	if err != nil {
		return nil, err
	}
	sort.Slice(events, func(i, j int) bool {
		if events[i].Geohash != events[j].Geohash {
			return events[i].Geohash < events[j].Geohash
		}
		return events[i].ID.String() < events[j].ID.String()
	})
	return events, nil
}
