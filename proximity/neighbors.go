package proximity

import (
	mgeohash "github.com/mmcloughlin/geohash"

	"friendspark/geohash"
)

// Neighbor directions in the order Neighbors returns them.
var directions = [8][2]float64{
	{1, 0},   // N
	{1, 1},   // NE
	{0, 1},   // E
	{-1, 1},  // SE
	{-1, 0},  // S
	{-1, -1}, // SW
	{0, -1},  // W
	{1, -1},  // NW
}

// Neighbors returns the cells surrounding hash at the same precision, in
// the order N, NE, E, SE, S, SW, W, NW. Longitude wraps at the antimeridian;
// cells on a pole have no neighbours beyond it, so fewer than eight may be
// returned there.
//
// Neighbour lookup is not part of the codec: it is the optional extension
// for callers that need every entity within a radius.
func Neighbors(hash string) ([]string, error) {
	cell, err := geohash.DecodeCell(hash)
	if err != nil {
		return nil, err
	}
	if cell.MinLat > -90 && cell.MaxLat < 90 && cell.MinLon > -180 && cell.MaxLon < 180 {
		return mgeohash.Neighbors(hash), nil
	}
	return edgeNeighbors(cell, len(hash)), nil
}

// edgeNeighbors steps one cell in every direction from the cell center,
// clipping at the poles and wrapping at the antimeridian.
func edgeNeighbors(cell geohash.Cell, precision int) []string {
	center := cell.Center()
	out := make([]string, 0, len(directions))
	for _, d := range directions {
		lat := center.Latitude + d[0]*cell.LatSpan()
		if lat > 90 || lat < -90 {
			continue
		}
		lon := center.Longitude + d[1]*cell.LonSpan()
		if lon > 180 {
			lon -= 360
		} else if lon < -180 {
			lon += 360
		}
		h, err := geohash.Encode(lat, lon, precision)
		if err != nil {
			continue
		}
		out = append(out, h)
	}
	return out
}

// Expand returns hash followed by its distinct neighbours. It is the set of
// prefixes a boundary-safe search scans.
func Expand(hash string) ([]string, error) {
	ns, err := Neighbors(hash)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(ns)+1)
	seen := make(map[string]struct{}, len(ns)+1)
	for _, h := range append([]string{hash}, ns...) {
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, h)
	}
	return out, nil
}
