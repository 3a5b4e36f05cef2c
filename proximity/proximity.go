// Package proximity answers "what is near this point" on top of geohash
// prefixes.
//
// Entities are indexed by their geohash at StoragePrecision. A search near a
// point encodes the point at a shorter precision K and scans every stored
// hash starting with that prefix. Smaller K widens the area. A prefix scan
// alone misses entities just across a cell boundary, so searches that need
// a guaranteed radius also scan the eight neighbouring cells (Expand) and
// filter candidates by distance.
package proximity

import (
	"github.com/umahmood/haversine"

	"friendspark/geohash"
)

// StoragePrecision is the precision stored hashes are indexed at.
const StoragePrecision = geohash.MaxPrecision

// PrefixFor returns the query prefix of length precision for a point.
func PrefixFor(latitude, longitude float64, precision int) (string, error) {
	return geohash.Encode(latitude, longitude, precision)
}

// DistanceKm returns the great-circle distance between a and b.
func DistanceKm(a, b geohash.Coordinate) float64 {
	_, km := haversine.Distance(
		haversine.Coord{Lat: a.Latitude, Lon: a.Longitude},
		haversine.Coord{Lat: b.Latitude, Lon: b.Longitude},
	)
	return km
}
