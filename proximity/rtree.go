package proximity

import (
	"math"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// pointTolerance is the side of the box an indexed point occupies, in degrees.
const pointTolerance = 1e-7

// spatialPoint wraps an indexed entity to satisfy rtreego.Spatial.
// Coordinates are stored as (longitude, latitude).
type spatialPoint struct {
	id   string
	lat  float64
	lon  float64
	rect rtreego.Rect
}

func newSpatialPoint(id string, lat, lon float64) *spatialPoint {
	return &spatialPoint{
		id:   id,
		lat:  lat,
		lon:  lon,
		rect: rtreego.Point{lon, lat}.ToRect(pointTolerance),
	}
}

// Bounds returns the box the point occupies in the tree.
func (p *spatialPoint) Bounds() rtreego.Rect {
	return p.rect
}

func newRTree() *rtreego.Rtree {
	return rtreego.NewTree(2, 25, 50)
}

// earthRadiusKm is the mean radius DistanceKm measures with.
const earthRadiusKm = 6371.0

// searchRect returns the tree query box around a point. The distance is
// scaled to orb's earth radius so the box covers every point DistanceKm
// places within radiusKm. Boxes that cross the antimeridian, touch a pole
// or span more than a hemisphere use the full longitude range.
func searchRect(lat, lon, radiusKm float64) (rtreego.Rect, error) {
	meters := radiusKm * 1000 * orb.EarthRadius / (earthRadiusKm * 1000)
	b := geo.NewBoundAroundPoint(orb.Point{lon, lat}, meters*(1+1e-9))
	minLon, maxLon := b.Min.Lon(), b.Max.Lon()
	minLat := math.Max(-90, b.Min.Lat())
	maxLat := math.Min(90, b.Max.Lat())
	dLat := radiusKm / earthRadiusKm * 180 / math.Pi
	if math.IsNaN(minLon) || math.IsNaN(maxLon) || minLon > maxLon ||
		lat-dLat <= -90 || lat+dLat >= 90 {
		minLon, maxLon = -180, 180
	}
	if math.IsNaN(minLat) || math.IsNaN(maxLat) {
		minLat, maxLat = -90, 90
	}
	return rtreego.NewRect(
		rtreego.Point{minLon, minLat},
		[]float64{math.Max(maxLon-minLon, pointTolerance), math.Max(maxLat-minLat, pointTolerance)},
	)
}
