package geohash_test

import (
	"math"
	"math/rand"
	"strings"
	"sync"
	"testing"

	mgeohash "github.com/mmcloughlin/geohash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/umahmood/haversine"

	"friendspark/geohash"
)

func distanceKm(a, b geohash.Coordinate) float64 {
	_, km := haversine.Distance(
		haversine.Coord{Lat: a.Latitude, Lon: a.Longitude},
		haversine.Coord{Lat: b.Latitude, Lon: b.Longitude},
	)
	return km
}

func diagonalKm(c geohash.Cell) float64 {
	return distanceKm(
		geohash.Coordinate{Latitude: c.MinLat, Longitude: c.MinLon},
		geohash.Coordinate{Latitude: c.MaxLat, Longitude: c.MaxLon},
	)
}

func randomPoints(n int) []geohash.Coordinate {
	rnd := rand.New(rand.NewSource(42))
	pts := make([]geohash.Coordinate, n)
	for i := range pts {
		pts[i] = geohash.Coordinate{
			Latitude:  rnd.Float64()*180 - 90,
			Longitude: rnd.Float64()*360 - 180,
		}
	}
	return pts
}

func TestEncodeKnownVectors(t *testing.T) {
	for _, tc := range []struct {
		lat, lon  float64
		precision int
		want      string
	}{
		{57.64911, 10.40744, 6, "u4pruy"},
		{57.64911, 10.40744, 12, "u4pruydqqvj8"},
		{0, 0, 1, "s"},
		{42.6, -5.6, 5, "ezs42"},
		{37.7749, -122.4194, 5, "9q8yy"},
		{40.7128, -74.0060, 7, "dr5regw"},
		{-33.8688, 151.2093, 6, "r3gx2f"},
		{90, 180, 3, "zzz"},
		{-90, -180, 3, "000"},
	} {
		got, err := geohash.Encode(tc.lat, tc.lon, tc.precision)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "Encode(%v, %v, %d)", tc.lat, tc.lon, tc.precision)
	}
}

func TestDecodeKnownVectors(t *testing.T) {
	c, err := geohash.Decode("u4pruy")
	require.NoError(t, err)
	want := geohash.Coordinate{Latitude: 57.64911, Longitude: 10.40744}
	assert.Less(t, distanceKm(c, want), 0.6)
	assert.InDelta(t, 57.64801025390625, c.Latitude, 1e-12)
	assert.InDelta(t, 10.4095458984375, c.Longitude, 1e-12)

	cell, err := geohash.DecodeCell("s")
	require.NoError(t, err)
	assert.Equal(t, geohash.Cell{MinLat: 0, MaxLat: 45, MinLon: 0, MaxLon: 45}, cell)
	c, err = geohash.Decode("s")
	require.NoError(t, err)
	assert.Equal(t, geohash.Coordinate{Latitude: 22.5, Longitude: 22.5}, c)

	c, err = geohash.Decode("ezs42")
	require.NoError(t, err)
	assert.InDelta(t, 42.60498046875, c.Latitude, 1e-12)
	assert.InDelta(t, -5.60302734375, c.Longitude, 1e-12)
}

func TestEncodeRejectsInvalidArguments(t *testing.T) {
	nan := math.NaN()
	for _, tc := range []struct {
		name      string
		lat, lon  float64
		precision int
	}{
		{"latitude above range", 91, 0, 5},
		{"latitude below range", -90.0001, 0, 5},
		{"longitude above range", 0, 181, 5},
		{"longitude below range", 0, -180.5, 5},
		{"zero precision", 0, 0, 0},
		{"precision too large", 0, 0, 13},
		{"negative precision", 0, 0, -1},
		{"nan latitude", nan, 0, 5},
		{"nan longitude", 0, nan, 5},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := geohash.Encode(tc.lat, tc.lon, tc.precision)
			require.ErrorIs(t, err, geohash.ErrInvalidArgument)
			assert.Empty(t, got)
		})
	}
}

func TestDecodeRejectsInvalidInput(t *testing.T) {
	_, err := geohash.Decode("")
	assert.ErrorIs(t, err, geohash.ErrInvalidArgument)

	_, err = geohash.Decode("u4pruydqqvj8u")
	assert.ErrorIs(t, err, geohash.ErrInvalidArgument)

	for _, tc := range []struct {
		hash  string
		char  rune
		index int
	}{
		{"u4pa", 'a', 3},
		{"i", 'i', 0},
		{"ezl42", 'l', 2},
		{"o0", 'o', 0},
		{"U4PRUY", 'U', 0},
		{"u4 r", ' ', 2},
		{"u4é", 'é', 2},
	} {
		_, err := geohash.Decode(tc.hash)
		require.ErrorIs(t, err, geohash.ErrInvalidCharacter, tc.hash)
		var ice *geohash.InvalidCharacterError
		require.ErrorAs(t, err, &ice)
		assert.Equal(t, tc.char, ice.Char, tc.hash)
		assert.Equal(t, tc.index, ice.Index, tc.hash)
		assert.NotErrorIs(t, err, geohash.ErrInvalidArgument)
	}
}

func TestEncodeLengthAndAlphabet(t *testing.T) {
	for _, p := range randomPoints(100) {
		for n := geohash.MinPrecision; n <= geohash.MaxPrecision; n++ {
			h, err := geohash.Encode(p.Latitude, p.Longitude, n)
			require.NoError(t, err)
			require.Len(t, h, n)
			for _, r := range h {
				require.True(t, strings.ContainsRune(geohash.Alphabet, r), "symbol %q", r)
			}
		}
	}
}

func TestEncodePrefixMonotonic(t *testing.T) {
	for _, p := range randomPoints(100) {
		full, err := geohash.Encode(p.Latitude, p.Longitude, geohash.MaxPrecision)
		require.NoError(t, err)
		for k := geohash.MinPrecision; k < geohash.MaxPrecision; k++ {
			h, err := geohash.Encode(p.Latitude, p.Longitude, k)
			require.NoError(t, err)
			assert.Equal(t, full[:k], h)
		}
	}
}

func TestRoundTripWithinShrinkingCell(t *testing.T) {
	for _, p := range randomPoints(200) {
		prev := -1.0
		for n := geohash.MinPrecision; n <= geohash.MaxPrecision; n++ {
			h, err := geohash.Encode(p.Latitude, p.Longitude, n)
			require.NoError(t, err)
			cell, err := geohash.DecodeCell(h)
			require.NoError(t, err)
			require.True(t, cell.Contains(p.Latitude, p.Longitude), "%v not in %s", p, h)

			center, err := geohash.Decode(h)
			require.NoError(t, err)
			diag := diagonalKm(cell)
			assert.LessOrEqual(t, distanceKm(center, p), diag+1e-9)
			if prev >= 0 {
				assert.Less(t, diag, prev, "diagonal must shrink at precision %d", n)
			}
			prev = diag
		}
	}
}

func TestDeterministic(t *testing.T) {
	var wg sync.WaitGroup
	pts := randomPoints(50)
	want := make([]string, len(pts))
	for i, p := range pts {
		want[i], _ = geohash.Encode(p.Latitude, p.Longitude, geohash.MaxPrecision)
	}
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i, p := range pts {
				h, err := geohash.Encode(p.Latitude, p.Longitude, geohash.MaxPrecision)
				assert.NoError(t, err)
				assert.Equal(t, want[i], h)
				c1, _ := geohash.Decode(h)
				c2, _ := geohash.Decode(h)
				assert.Equal(t, c1, c2)
			}
		}()
	}
	wg.Wait()
}

func TestMatchesReferenceImplementation(t *testing.T) {
	for _, p := range randomPoints(500) {
		for _, n := range []int{1, 5, 9, 12} {
			h, err := geohash.Encode(p.Latitude, p.Longitude, n)
			require.NoError(t, err)
			assert.Equal(t, mgeohash.EncodeWithPrecision(p.Latitude, p.Longitude, uint(n)), h)

			c, err := geohash.Decode(h)
			require.NoError(t, err)
			lat, lon := mgeohash.DecodeCenter(h)
			assert.InDelta(t, lat, c.Latitude, 1e-9)
			assert.InDelta(t, lon, c.Longitude, 1e-9)
		}
	}
}

func TestCellContainsEdges(t *testing.T) {
	cell, err := geohash.DecodeCell("s")
	require.NoError(t, err)
	assert.True(t, cell.Contains(0, 0))
	assert.False(t, cell.Contains(45, 10))
	assert.False(t, cell.Contains(10, 45))
	assert.Equal(t, 45.0, cell.LatSpan())
	assert.Equal(t, 45.0, cell.LonSpan())

	top, err := geohash.DecodeCell("z")
	require.NoError(t, err)
	assert.True(t, top.Contains(90, 180))
}
