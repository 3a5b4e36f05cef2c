package proximity

import (
	"fmt"
	"math"

	"friendspark/geohash"
)

// spans returns the cell height and width in degrees at a precision.
func spans(precision int) (latDeg, lonDeg float64) {
	bits := precision * 5
	lonBits := (bits + 1) / 2
	latBits := bits / 2
	return 180 / math.Exp2(float64(latBits)), 360 / math.Exp2(float64(lonBits))
}

// CellSize returns the width and height in kilometres of a cell at the
// given precision whose southern edge (northern, in the southern
// hemisphere) lies at latitude. Width shrinks towards the poles.
func CellSize(precision int, latitude float64) (widthKm, heightKm float64, err error) {
	if precision < geohash.MinPrecision || precision > geohash.MaxPrecision {
		return 0, 0, fmt.Errorf("%w: precision %d outside [%d, %d]",
			geohash.ErrInvalidArgument, precision, geohash.MinPrecision, geohash.MaxPrecision)
	}
	if err := geohash.ValidatePoint(latitude, 0); err != nil {
		return 0, 0, err
	}
	latDeg, lonDeg := spans(precision)
	widthKm = DistanceKm(
		geohash.Coordinate{Latitude: latitude, Longitude: 0},
		geohash.Coordinate{Latitude: latitude, Longitude: lonDeg},
	)
	heightKm = DistanceKm(
		geohash.Coordinate{Latitude: 0, Longitude: 0},
		geohash.Coordinate{Latitude: latDeg, Longitude: 0},
	)
	return widthKm, heightKm, nil
}

// CellDiagonalKm returns the corner-to-corner distance of the cell named
// by hash. It bounds how far a decoded point can be from any point that
// encodes to hash.
func CellDiagonalKm(hash string) (float64, error) {
	cell, err := geohash.DecodeCell(hash)
	if err != nil {
		return 0, err
	}
	return DistanceKm(
		geohash.Coordinate{Latitude: cell.MinLat, Longitude: cell.MinLon},
		geohash.Coordinate{Latitude: cell.MaxLat, Longitude: cell.MaxLon},
	), nil
}

// PrecisionForRadius picks the longest prefix whose cells are at least
// radiusKm wide and high around latitude, so the 3x3 block of cells around
// a query point covers the whole radius. Width is measured one cell closer
// to the pole, where the block is narrowest. It returns MinPrecision when
// no precision is coarse enough and MaxPrecision for a non-positive radius.
func PrecisionForRadius(radiusKm, latitude float64) int {
	if radiusKm <= 0 || math.IsNaN(radiusKm) {
		return geohash.MaxPrecision
	}
	lat := math.Abs(latitude)
	for p := geohash.MaxPrecision; p > geohash.MinPrecision; p-- {
		latDeg, _ := spans(p)
		edge := math.Min(90, lat+latDeg)
		w, h, err := CellSize(p, edge)
		if err != nil {
			return geohash.MinPrecision
		}
		if w >= radiusKm && h >= radiusKm {
			return p
		}
	}
	return geohash.MinPrecision
}
