package proximity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchRect(t *testing.T) {
	for _, tc := range []struct {
		name           string
		lat, lon, km   float64
		fullLon        bool
		minLat, maxLat float64
	}{
		{"equator", 0, 0, 100, false, -0.89, 0.89},
		{"east of antimeridian", -16.5, 179.995, 5, true, -16.54, -16.46},
		{"west of antimeridian", 10, -179.99, 20, true, 9.83, 10.17},
		{"near north pole", 89.9, 40, 50, true, 89.46, 90},
		{"near south pole", -89.95, -120, 10, true, -90, -89.87},
	} {
		t.Run(tc.name, func(t *testing.T) {
			r, err := searchRect(tc.lat, tc.lon, tc.km)
			require.NoError(t, err)
			if tc.fullLon {
				assert.Equal(t, -180.0, r.PointCoord(0))
				assert.InDelta(t, 360, r.LengthsCoord(0), 1e-9)
			} else {
				assert.Less(t, r.LengthsCoord(0), 360.0)
				assert.Less(t, r.PointCoord(0), tc.lon)
			}
			assert.LessOrEqual(t, r.PointCoord(1), tc.minLat)
			assert.GreaterOrEqual(t, r.PointCoord(1)+r.LengthsCoord(1), tc.maxLat)
		})
	}
}
