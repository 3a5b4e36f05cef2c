package geohash

// Cell is the rectangle named by a geohash, in degrees.
type Cell struct {
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLon float64 `json:"max_lon"`
}

// Center returns the midpoint of the cell.
func (c Cell) Center() Coordinate {
	return Coordinate{
		Latitude:  (c.MinLat + c.MaxLat) / 2,
		Longitude: (c.MinLon + c.MaxLon) / 2,
	}
}

// Contains reports whether the point falls inside the cell under the same
// rule Encode uses: lower edges are inclusive, upper edges exclusive, except
// at latitude 90 and longitude 180 which belong to the last cell.
func (c Cell) Contains(latitude, longitude float64) bool {
	return within(latitude, c.MinLat, c.MaxLat, 90) &&
		within(longitude, c.MinLon, c.MaxLon, 180)
}

// LatSpan returns the cell height in degrees.
func (c Cell) LatSpan() float64 {
	return c.MaxLat - c.MinLat
}

// LonSpan returns the cell width in degrees.
func (c Cell) LonSpan() float64 {
	return c.MaxLon - c.MinLon
}

func within(v, lo, hi, limit float64) bool {
	if v < lo {
		return false
	}
	return v < hi || (hi == limit && v == limit)
}
