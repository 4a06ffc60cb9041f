package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeoUtils_PointToPoint(t *testing.T) {
	// Seoul riverside test coordinates: Banpo to Jamsil (real running route)
	banpo := Point{Latitude: 37.5124, Longitude: 126.9956}
	jamsil := Point{Latitude: 37.5171, Longitude: 127.0823}

	geoUtils := NewGeoUtils()

	distance, err := geoUtils.PointToPoint(banpo, jamsil)
	require.NoError(t, err)

	// Expected distance ~7.7 km along the Han river
	assert.InDelta(t, 7670, distance, 100, "Distance should be approximately 7.7km")

	// Symmetry
	reverse, err := geoUtils.PointToPoint(jamsil, banpo)
	require.NoError(t, err)
	assert.InDelta(t, distance, reverse, 1e-6, "Distance should be symmetric")

	// Coincident points
	zero, err := geoUtils.PointToPoint(banpo, banpo)
	require.NoError(t, err)
	assert.Zero(t, zero, "Distance between coincident points should be 0")

	// Error cases
	invalidPoint := Point{Latitude: 200, Longitude: -300}
	_, err = geoUtils.PointToPoint(banpo, invalidPoint)
	assert.Error(t, err, "Should return error for invalid coordinates")
}

func TestGeoUtils_PointToPoint_KnownDistance(t *testing.T) {
	geoUtils := NewGeoUtils()

	// 0.001 degree of latitude is ~111.2 m
	a := Point{Latitude: 0, Longitude: 0}
	b := Point{Latitude: 0.001, Longitude: 0}

	distance, err := geoUtils.PointToPoint(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 111.2, distance, 1.0)
}

func TestGeoUtils_Bearing(t *testing.T) {
	geoUtils := NewGeoUtils()

	origin := Point{Latitude: 0, Longitude: 0}

	cases := []struct {
		name     string
		to       Point
		expected float64
	}{
		{"north", Point{Latitude: 1, Longitude: 0}, 0},
		{"east", Point{Latitude: 0, Longitude: 1}, 90},
		{"south", Point{Latitude: -1, Longitude: 0}, 180},
		{"west", Point{Latitude: 0, Longitude: -1}, 270},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			bearing, err := geoUtils.Bearing(origin, tc.to)
			require.NoError(t, err)
			assert.InDelta(t, tc.expected, bearing, 0.01)
		})
	}

	// Always normalized to [0, 360)
	bearing, err := geoUtils.Bearing(Point{Latitude: 37.5, Longitude: 127.0}, Point{Latitude: 37.4, Longitude: 126.9})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, bearing, 0.0)
	assert.Less(t, bearing, 360.0)

	// Coincident points return a stable value
	bearing, err = geoUtils.Bearing(origin, origin)
	require.NoError(t, err)
	assert.Zero(t, bearing)
}

func TestGeoUtils_PointToSegment(t *testing.T) {
	geoUtils := NewGeoUtils()

	a := Point{Latitude: 0, Longitude: 0}
	b := Point{Latitude: 0, Longitude: 0.002}

	// Point perpendicular above the middle of the segment
	p := Point{Latitude: 0.0001, Longitude: 0.001}

	res, err := geoUtils.PointToSegment(p, a, b)
	require.NoError(t, err)

	// 0.0001 degree * 111320 m/degree ~= 11.1 m
	assert.InDelta(t, 11.13, res.Distance, 0.1)
	assert.InDelta(t, 0.0, res.Nearest.Latitude, 1e-9)
	assert.InDelta(t, 0.001, res.Nearest.Longitude, 1e-9)
}

func TestGeoUtils_PointToSegment_ClampsToEndpoints(t *testing.T) {
	geoUtils := NewGeoUtils()

	a := Point{Latitude: 0, Longitude: 0}
	b := Point{Latitude: 0, Longitude: 0.001}

	// Beyond endpoint b: nearest point must be b, not the extension
	p := Point{Latitude: 0, Longitude: 0.005}
	res, err := geoUtils.PointToSegment(p, a, b)
	require.NoError(t, err)
	assert.Equal(t, b, res.Nearest)

	// Before endpoint a
	p = Point{Latitude: 0, Longitude: -0.005}
	res, err = geoUtils.PointToSegment(p, a, b)
	require.NoError(t, err)
	assert.Equal(t, a, res.Nearest)

	// Nearest point always within the segment's bounding range
	for _, lon := range []float64{-0.01, -0.0005, 0.0002, 0.0008, 0.01} {
		res, err := geoUtils.PointToSegment(Point{Latitude: 0.0003, Longitude: lon}, a, b)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, res.Nearest.Longitude, a.Longitude)
		assert.LessOrEqual(t, res.Nearest.Longitude, b.Longitude)
	}
}

func TestGeoUtils_PointToSegment_DegenerateSegment(t *testing.T) {
	geoUtils := NewGeoUtils()

	a := Point{Latitude: 37.5, Longitude: 127.0}
	p := Point{Latitude: 37.5001, Longitude: 127.0}

	// Zero-length segment behaves as a point
	res, err := geoUtils.PointToSegment(p, a, a)
	require.NoError(t, err)
	assert.Equal(t, a, res.Nearest)
	assert.InDelta(t, 11.13, res.Distance, 0.1)
}

func TestGeoUtils_PointToSegment_LatitudeScaling(t *testing.T) {
	plain := NewGeoUtils()
	scaled := NewGeoUtils(WithLatitudeScaling())

	// A longitude displacement at 60N: one real degree of longitude is
	// about half a degree of latitude in ground distance
	a := Point{Latitude: 60, Longitude: 10}
	b := Point{Latitude: 60, Longitude: 10.01}
	p := Point{Latitude: 60, Longitude: 10.02}

	resPlain, err := plain.PointToSegment(p, a, b)
	require.NoError(t, err)
	resScaled, err := scaled.PointToSegment(p, a, b)
	require.NoError(t, err)

	assert.Less(t, resScaled.Distance, resPlain.Distance,
		"scaled variant should shrink east-west distances at high latitude")
	assert.InDelta(t, resPlain.Distance*0.5, resScaled.Distance, resPlain.Distance*0.05)
}

func TestGeoUtils_PointToPolyline(t *testing.T) {
	geoUtils := NewGeoUtils()

	path := []Point{
		{Latitude: 0, Longitude: 0},
		{Latitude: 0, Longitude: 0.001},
		{Latitude: 0.001, Longitude: 0.001},
	}

	// Closest to the second segment
	p := Point{Latitude: 0.0005, Longitude: 0.0012}
	res, err := geoUtils.PointToPolyline(p, path)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Segment)
	assert.InDelta(t, 0.0002*111320, res.Distance, 1.0)

	// Point on the path
	res, err = geoUtils.PointToPolyline(path[0], path)
	require.NoError(t, err)
	assert.InDelta(t, 0, res.Distance, 0.001)

	// Error cases
	_, err = geoUtils.PointToPolyline(p, nil)
	assert.Error(t, err, "Should return error for empty polyline")

	// Single-point polyline degrades to point distance
	res, err = geoUtils.PointToPolyline(p, path[:1])
	require.NoError(t, err)
	assert.Equal(t, path[0], res.Nearest)
}

func TestGeoUtils_DecodePolyline(t *testing.T) {
	geoUtils := NewGeoUtils()

	encoded := "_p~iF~ps|U_ulLnnqC_mqNvxq`@"

	points, err := geoUtils.DecodePolyline(encoded)
	require.NoError(t, err)
	assert.Len(t, points, 3)

	for _, point := range points {
		assert.GreaterOrEqual(t, point.Latitude, -90.0)
		assert.LessOrEqual(t, point.Latitude, 90.0)
		assert.GreaterOrEqual(t, point.Longitude, -180.0)
		assert.LessOrEqual(t, point.Longitude, 180.0)
	}

	_, err = geoUtils.DecodePolyline("")
	assert.Error(t, err, "Should return error for empty input")
}

func TestNewPoint(t *testing.T) {
	p, err := NewPoint(37.5124, 126.9956)
	require.NoError(t, err)
	assert.Equal(t, 37.5124, p.Latitude)

	_, err = NewPoint(91, 0)
	assert.Error(t, err)
	_, err = NewPoint(0, 181)
	assert.Error(t, err)
}
