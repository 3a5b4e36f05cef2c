// Package geohash encodes coordinates into base-32 geohash strings and
// decodes them back into the cell they describe.
//
// A geohash of length N names a rectangular cell built from 5*N bits of
// alternating longitude/latitude bisection, longitude first. Because a
// longer hash only narrows the cell of its prefix, entities stored with a
// full-length hash can be searched by prefix. Nearby points usually share
// a long prefix, but two points on either side of a cell boundary may share
// none at all; callers that need every point within a radius must also
// look at the neighbouring cells (see package proximity).
//
// All functions are pure and safe for concurrent use.
package geohash

import (
	"fmt"
	"math"
	"strings"
)

// Alphabet is the geohash base-32 alphabet. It is lowercase only and
// omits a, i, l and o.
const Alphabet = "0123456789bcdefghjkmnpqrstuvwxyz"

// Precision limits, in characters.
const (
	MinPrecision = 1
	MaxPrecision = 12
)

const bitsPerChar = 5

// symbols maps a byte to its 5-bit value, or -1 if the byte is not in Alphabet.
var symbols [256]int8

func init() {
	for i := range symbols {
		symbols[i] = -1
	}
	for i := 0; i < len(Alphabet); i++ {
		symbols[Alphabet[i]] = int8(i)
	}
}

// Coordinate is a latitude/longitude pair in degrees.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Encode returns the geohash of the given point with precision characters.
// Points exactly on a bisection midpoint fall into the upper half.
func Encode(latitude, longitude float64, precision int) (string, error) {
	if err := ValidatePoint(latitude, longitude); err != nil {
		return "", err
	}
	if precision < MinPrecision || precision > MaxPrecision {
		return "", fmt.Errorf("%w: precision %d outside [%d, %d]",
			ErrInvalidArgument, precision, MinPrecision, MaxPrecision)
	}

	lat := interval{min: -90, max: 90}
	lon := interval{min: -180, max: 180}
	even := true

	var sb strings.Builder
	sb.Grow(precision)
	for i := 0; i < precision; i++ {
		value := 0
		for b := 0; b < bitsPerChar; b++ {
			var bit bool
			if even {
				bit = lon.split(longitude)
			} else {
				bit = lat.split(latitude)
			}
			value <<= 1
			if bit {
				value |= 1
			}
			even = !even
		}
		sb.WriteByte(Alphabet[value])
	}
	return sb.String(), nil
}

// Decode returns the center of the cell named by hash.
func Decode(hash string) (Coordinate, error) {
	cell, err := DecodeCell(hash)
	if err != nil {
		return Coordinate{}, err
	}
	return cell.Center(), nil
}

// DecodeCell returns the bounds of the cell named by hash.
func DecodeCell(hash string) (Cell, error) {
	if err := Validate(hash); err != nil {
		return Cell{}, err
	}

	lat := interval{min: -90, max: 90}
	lon := interval{min: -180, max: 180}
	even := true

	for i := 0; i < len(hash); i++ {
		value := symbols[hash[i]]
		for b := bitsPerChar - 1; b >= 0; b-- {
			bit := (value>>b)&1 == 1
			if even {
				lon.narrow(bit)
			} else {
				lat.narrow(bit)
			}
			even = !even
		}
	}
	return Cell{
		MinLat: lat.min, MaxLat: lat.max,
		MinLon: lon.min, MaxLon: lon.max,
	}, nil
}

// Validate reports whether hash is a well-formed geohash. Matching is
// case-sensitive: uppercase symbols are rejected.
func Validate(hash string) error {
	if hash == "" {
		return fmt.Errorf("%w: empty geohash", ErrInvalidArgument)
	}
	if len(hash) > MaxPrecision {
		return fmt.Errorf("%w: geohash %q longer than %d characters",
			ErrInvalidArgument, hash, MaxPrecision)
	}
	for i, r := range hash {
		if r >= 256 || symbols[r] < 0 {
			return &InvalidCharacterError{Char: r, Index: i}
		}
	}
	return nil
}

// ValidatePoint checks that latitude and longitude are within range.
func ValidatePoint(latitude, longitude float64) error {
	if math.IsNaN(latitude) || latitude < -90 || latitude > 90 {
		return fmt.Errorf("%w: latitude %v outside [-90, 90]", ErrInvalidArgument, latitude)
	}
	if math.IsNaN(longitude) || longitude < -180 || longitude > 180 {
		return fmt.Errorf("%w: longitude %v outside [-180, 180]", ErrInvalidArgument, longitude)
	}
	return nil
}

type interval struct {
	min, max float64
}

// split bisects the interval around v and keeps the half containing it.
func (iv *interval) split(v float64) bool {
	mid := (iv.min + iv.max) / 2
	if v >= mid {
		iv.min = mid
		return true
	}
	iv.max = mid
	return false
}

func (iv *interval) narrow(upper bool) {
	mid := (iv.min + iv.max) / 2
	if upper {
		iv.min = mid
	} else {
		iv.max = mid
	}
}
