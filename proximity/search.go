package proximity

import (
	"context"
	"errors"
	"fmt"

	"friendspark/geohash"
)

// Technique selects how a search turns a point into prefixes.
type Technique string

const (
	// PrefixTechnique scans the single cell containing the point.
	PrefixTechnique Technique = "prefix"
	// NeighborsTechnique scans the cell and its eight neighbours.
	NeighborsTechnique Technique = "neighbors"
	// RadiusTechnique derives the precision from a radius and scans the
	// 3x3 block. Candidates still need a distance filter.
	RadiusTechnique Technique = "radius"
)

// ErrUnsupportedTechnique is returned for an unknown Technique.
var ErrUnsupportedTechnique = errors.New("unsupported proximity technique")

// Scanner is implemented by anything that can list entity ids by geohash
// prefix: the in-memory Index, the redis cell index and the event store.
type Scanner interface {
	ScanPrefix(ctx context.Context, prefix string) ([]string, error)
}

// Query describes a proximity search.
type Query struct {
	Latitude  float64
	Longitude float64
	Technique Technique
	// Precision is the prefix length. Ignored by RadiusTechnique.
	Precision int
	RadiusKm  float64
	// Widen is how many times a search with no results is retried with a
	// one character shorter prefix.
	Widen int
}

// Result is the outcome of Search.
type Result struct {
	IDs       []string
	Prefixes  []string // prefixes scanned by the last attempt
	Precision int      // precision of the last attempt
}

// Prefixes returns the prefixes q scans at precision.
func (q Query) Prefixes(precision int) ([]string, error) {
	hash, err := PrefixFor(q.Latitude, q.Longitude, precision)
	if err != nil {
		return nil, err
	}
	switch q.technique() {
	case PrefixTechnique:
		return []string{hash}, nil
	case NeighborsTechnique, RadiusTechnique:
		return Expand(hash)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedTechnique, q.Technique)
	}
}

func (q Query) technique() Technique {
	if q.Technique == "" {
		return PrefixTechnique
	}
	return q.Technique
}

func (q Query) precision() int {
	if q.technique() == RadiusTechnique {
		return PrecisionForRadius(q.RadiusKm, q.Latitude)
	}
	return q.Precision
}

// Search scans s for entities near the query point. When an attempt finds
// nothing and q.Widen allows it, the prefix is shortened by one character
// and the scan repeated, down to MinPrecision. Ids are de-duplicated and
// keep the order the scanner returned them in.
func Search(ctx context.Context, s Scanner, q Query) (Result, error) {
	if err := geohash.ValidatePoint(q.Latitude, q.Longitude); err != nil {
		return Result{}, err
	}
	if q.technique() == RadiusTechnique && !(q.RadiusKm > 0) {
		return Result{}, fmt.Errorf("%w: radius %v must be positive", geohash.ErrInvalidArgument, q.RadiusKm)
	}
	precision := q.precision()
	if precision < geohash.MinPrecision || precision > geohash.MaxPrecision {
		return Result{}, fmt.Errorf("%w: precision %d outside [%d, %d]",
			geohash.ErrInvalidArgument, precision, geohash.MinPrecision, geohash.MaxPrecision)
	}

	var res Result
	for attempt := 0; attempt <= q.Widen && precision >= geohash.MinPrecision; attempt++ {
		prefixes, err := q.Prefixes(precision)
		if err != nil {
			return Result{}, err
		}
		ids, err := scanAll(ctx, s, prefixes)
		if err != nil {
			return Result{}, err
		}
		res = Result{IDs: ids, Prefixes: prefixes, Precision: precision}
		if len(ids) > 0 {
			break
		}
		precision--
	}
	return res, nil
}

func scanAll(ctx context.Context, s Scanner, prefixes []string) ([]string, error) {
	var ids []string
	seen := make(map[string]struct{})
	for _, p := range prefixes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		found, err := s.ScanPrefix(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("scan prefix %q: %w", p, err)
		}
		for _, id := range found {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids, nil
}
