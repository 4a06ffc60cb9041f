package course

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/openpace/runguide/internal/lib/geo"
	"github.com/openpace/runguide/internal/lib/guidance"
)

// Course is a planned running route: sparse ordered waypoints for progress
// and turn logic, plus the dense path geometry used for off-route
// distance. Immutable for the session.
type Course struct {
	ID        string              `json:"id"`
	Name      string              `json:"name"`
	Waypoints []guidance.Waypoint `json:"waypoints"`
	Path      []geo.Point         `json:"path"`
}

// courseFile is the on-disk JSON shape. The path may be given either as
// explicit [lng, lat] coordinate pairs (GeoJSON order) or as a Google
// encoded polyline.
type courseFile struct {
	ID              string              `json:"id"`
	Name            string              `json:"name"`
	Waypoints       []guidance.Waypoint `json:"waypoints"`
	PathCoordinates [][]float64         `json:"path_coordinates,omitempty"`
	EncodedPolyline string              `json:"encoded_polyline,omitempty"`
}

// Load reads and validates a course from a JSON file
func Load(path string) (*Course, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read course file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates course JSON
func Parse(data []byte) (*Course, error) {
	var file courseFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse course file: %w", err)
	}

	c := &Course{
		ID:        file.ID,
		Name:      file.Name,
		Waypoints: file.Waypoints,
	}

	switch {
	case file.EncodedPolyline != "":
		points, err := geo.NewGeoUtils().DecodePolyline(file.EncodedPolyline)
		if err != nil {
			return nil, fmt.Errorf("decode course polyline: %w", err)
		}
		c.Path = points
	case len(file.PathCoordinates) > 0:
		c.Path = make([]geo.Point, len(file.PathCoordinates))
		for i, pair := range file.PathCoordinates {
			if len(pair) < 2 {
				return nil, fmt.Errorf("path coordinate %d: want [lng, lat] pair", i)
			}
			point, err := geo.NewPoint(pair[1], pair[0])
			if err != nil {
				return nil, fmt.Errorf("path coordinate %d: %w", i, err)
			}
			c.Path[i] = point
		}
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate applies the same rules guidance construction enforces, so a
// bad course is rejected at load time instead of at session start
func (c *Course) Validate() error {
	if len(c.Waypoints) < 2 {
		return guidance.ErrTooFewWaypoints
	}
	if len(c.Path) < 2 {
		return guidance.ErrEmptyPath
	}
	for i, wp := range c.Waypoints {
		if wp.Order != i {
			return fmt.Errorf("waypoint %d has order %d; waypoints must be ordered start to end", i, wp.Order)
		}
		if _, err := geo.NewPoint(wp.Latitude, wp.Longitude); err != nil {
			return fmt.Errorf("waypoint %d: %w", i, err)
		}
	}
	return nil
}

// Start returns the first waypoint
func (c *Course) Start() guidance.Waypoint {
	return c.Waypoints[0]
}

// End returns the final waypoint
func (c *Course) End() guidance.Waypoint {
	return c.Waypoints[len(c.Waypoints)-1]
}

// Length sums the path segment distances in meters
func (c *Course) Length() (float64, error) {
	geoUtils := geo.NewGeoUtils()
	total := 0.0
	for i := 0; i < len(c.Path)-1; i++ {
		d, err := geoUtils.PointToPoint(c.Path[i], c.Path[i+1])
		if err != nil {
			return 0, err
		}
		total += d
	}
	if total == 0 {
		return 0, errors.New("course has zero length")
	}
	return total, nil
}
