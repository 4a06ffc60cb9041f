package geo

import (
	"errors"
	"math"

	"github.com/twpayne/go-polyline"
)

const (
	// Earth's radius in meters
	earthRadius = 6371000

	// Planar degrees-to-meters conversion used by the segment math.
	// Valid at city scale; see PointToSegment.
	metersPerDegree = 111320
)

// geoUtils implements the GeoUtils interface
type geoUtils struct {
	latitudeScaling bool
}

// Option configures a GeoUtils instance
type Option func(*geoUtils)

// WithLatitudeScaling makes PointToSegment scale longitude degrees by
// cos(latitude) before projecting. The default keeps the fixed-scale
// approximation so distance thresholds tuned against it keep their meaning.
func WithLatitudeScaling() Option {
	return func(g *geoUtils) {
		g.latitudeScaling = true
	}
}

// NewGeoUtils creates a new GeoUtils implementation
func NewGeoUtils(opts ...Option) GeoUtils {
	g := &geoUtils{}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// PointToPoint calculates great-circle distance between two points using Haversine formula
func (g *geoUtils) PointToPoint(p1, p2 Point) (float64, error) {
	if !isValidCoordinate(p1) || !isValidCoordinate(p2) {
		return 0, errors.New("invalid coordinates: latitude must be [-90, 90], longitude must be [-180, 180]")
	}

	// If points are the same, distance is 0
	if p1.Latitude == p2.Latitude && p1.Longitude == p2.Longitude {
		return 0, nil
	}

	lat1 := p1.Latitude * math.Pi / 180
	lon1 := p1.Longitude * math.Pi / 180
	lat2 := p2.Latitude * math.Pi / 180
	lon2 := p2.Longitude * math.Pi / 180

	dlat := lat2 - lat1
	dlon := lon2 - lon1

	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dlon/2)*math.Sin(dlon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadius * c, nil
}

// Bearing calculates the initial bearing from one point toward another.
// 0 is north, clockwise positive, result in [0, 360). Coincident points
// return 0; callers should not use the bearing when distance is ~0.
func (g *geoUtils) Bearing(from, to Point) (float64, error) {
	if !isValidCoordinate(from) || !isValidCoordinate(to) {
		return 0, errors.New("invalid coordinates: latitude must be [-90, 90], longitude must be [-180, 180]")
	}

	lat1 := from.Latitude * math.Pi / 180
	lat2 := to.Latitude * math.Pi / 180
	dlon := (to.Longitude - from.Longitude) * math.Pi / 180

	y := math.Sin(dlon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dlon)

	theta := math.Atan2(y, x)
	bearing := math.Mod(theta*180/math.Pi+360, 360)

	return bearing, nil
}

// PointToSegment calculates the shortest distance from p to segment [a, b]
// and the nearest point on the segment.
//
// The segment is treated in an equirectangular local approximation: p is
// projected onto [a, b] in (lon, lat) degree space, the projection
// parameter is clamped to [0, 1] so the nearest point always lies on the
// segment, and the planar distance is converted to meters at 111320 m per
// degree. This is NOT geodesically exact; errors of tens of meters are
// expected at continental scale but the approximation holds at the city
// scale the engine operates at. WithLatitudeScaling corrects the longitude
// scale by cos(mid-latitude) for use at high latitudes.
func (g *geoUtils) PointToSegment(p, a, b Point) (SegmentResult, error) {
	if !isValidCoordinate(p) || !isValidCoordinate(a) || !isValidCoordinate(b) {
		return SegmentResult{}, errors.New("invalid coordinates: latitude must be [-90, 90], longitude must be [-180, 180]")
	}

	lonScale := 1.0
	if g.latitudeScaling {
		midLat := (a.Latitude + b.Latitude) / 2 * math.Pi / 180
		lonScale = math.Cos(midLat)
	}

	// Work in (x, y) = (scaled lon, lat) degree space
	px := p.Longitude * lonScale
	py := p.Latitude
	x1 := a.Longitude * lonScale
	y1 := a.Latitude
	x2 := b.Longitude * lonScale
	y2 := b.Latitude

	dx := x2 - x1
	dy := y2 - y1
	lenSq := dx*dx + dy*dy

	var param float64
	if lenSq != 0 {
		param = ((px-x1)*dx + (py-y1)*dy) / lenSq
	}
	// Zero-length segment: param stays 0 and the nearest point is endpoint a

	// Clamp so the nearest point cannot fall on the infinite extension
	if param < 0 {
		param = 0
	} else if param > 1 {
		param = 1
	}

	nx := x1 + param*dx
	ny := y1 + param*dy

	ddx := px - nx
	ddy := py - ny
	distance := math.Sqrt(ddx*ddx+ddy*ddy) * metersPerDegree

	return SegmentResult{
		Distance: distance,
		Nearest:  Point{Latitude: ny, Longitude: nx / lonScale},
	}, nil
}

// PointToPolyline calculates minimum distance from a point to a polyline,
// scanning every segment and keeping the closest result
func (g *geoUtils) PointToPolyline(p Point, path []Point) (PolylineResult, error) {
	if !isValidCoordinate(p) {
		return PolylineResult{}, errors.New("invalid point coordinates")
	}

	if len(path) == 0 {
		return PolylineResult{}, errors.New("polyline has no points")
	}

	if len(path) == 1 {
		distance, err := g.PointToPoint(p, path[0])
		if err != nil {
			return PolylineResult{}, err
		}
		return PolylineResult{Distance: distance, Nearest: path[0]}, nil
	}

	best := PolylineResult{Distance: math.Inf(1)}
	for i := 0; i < len(path)-1; i++ {
		res, err := g.PointToSegment(p, path[i], path[i+1])
		if err != nil {
			return PolylineResult{}, err
		}
		if res.Distance < best.Distance {
			best = PolylineResult{
				Distance: res.Distance,
				Nearest:  res.Nearest,
				Segment:  i,
			}
		}
	}

	return best, nil
}

// DecodePolyline decodes Google polyline string to point sequence
func (g *geoUtils) DecodePolyline(encoded string) ([]Point, error) {
	if encoded == "" {
		return nil, errors.New("encoded polyline string is empty")
	}

	coords, _, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, errors.New("failed to decode polyline: " + err.Error())
	}

	points := make([]Point, len(coords))
	for i, coord := range coords {
		points[i] = Point{
			Latitude:  coord[0],
			Longitude: coord[1],
		}

		if !isValidCoordinate(points[i]) {
			return nil, errors.New("decoded polyline contains invalid coordinates")
		}
	}

	return points, nil
}

// NewPoint creates a Point from latitude and longitude values with validation
func NewPoint(latitude, longitude float64) (Point, error) {
	point := Point{Latitude: latitude, Longitude: longitude}
	if !isValidCoordinate(point) {
		return Point{}, errors.New("invalid coordinates: latitude must be [-90, 90], longitude must be [-180, 180]")
	}
	return point, nil
}

// isValidCoordinate validates latitude and longitude values
func isValidCoordinate(point Point) bool {
	return point.Latitude >= -90 && point.Latitude <= 90 &&
		point.Longitude >= -180 && point.Longitude <= 180
}
