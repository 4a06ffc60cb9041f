package geo

// Point represents a geographic coordinate
type Point struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

// SegmentResult holds the outcome of a point-to-segment query
type SegmentResult struct {
	Distance float64 `json:"distance_meters"`
	Nearest  Point   `json:"nearest_point"`
}

// PolylineResult holds the outcome of a point-to-polyline query:
// the minimum distance over all segments plus the nearest on-path point
type PolylineResult struct {
	Distance float64 `json:"distance_meters"`
	Nearest  Point   `json:"nearest_point"`
	Segment  int     `json:"segment_index"`
}

// GeoUtils interface defines geographic calculation utilities
type GeoUtils interface {
	// Calculate great-circle distance between two points in meters
	PointToPoint(p1, p2 Point) (float64, error)

	// Calculate initial bearing from one point toward another, degrees [0, 360)
	Bearing(from, to Point) (float64, error)

	// Calculate shortest distance from a point to a segment and the
	// nearest point on that segment
	PointToSegment(p, a, b Point) (SegmentResult, error)

	// Calculate minimum distance from a point to a polyline over all
	// of its segments
	PointToPolyline(p Point, path []Point) (PolylineResult, error)

	// Decode Google polyline string to point sequence
	DecodePolyline(encoded string) ([]Point, error)
}

// NewGeoUtils is implemented in geo.go
