package record

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/twpayne/go-kml/v2"

	"github.com/openpace/runguide/internal/lib/tracking"
)

// Meta describes the session a track belongs to
type Meta struct {
	SessionID  string
	CourseName string
	StartedAt  time.Time
	Distance   float64 // meters
	Elapsed    time.Duration
}

// WriteKML writes the session's accepted location history as a KML
// document: the track as a LineString plus start and finish placemarks.
// This is the persistence shape for a finished running record.
func WriteKML(w io.Writer, meta Meta, history []tracking.Location) error {
	if len(history) == 0 {
		return errors.New("no locations recorded")
	}

	coords := make([]kml.Coordinate, len(history))
	for i, loc := range history {
		c := kml.Coordinate{Lon: loc.Longitude, Lat: loc.Latitude}
		if loc.Altitude != nil {
			c.Alt = *loc.Altitude
		}
		coords[i] = c
	}

	name := meta.CourseName
	if name == "" {
		name = "Running record"
	}

	doc := kml.KML(
		kml.Document(
			kml.Name(name),
			kml.Description(fmt.Sprintf(
				"session %s: %.2f km in %s",
				meta.SessionID, meta.Distance/1000, meta.Elapsed.Round(time.Second),
			)),
			kml.Placemark(
				kml.Name("Track"),
				kml.LineString(
					kml.Tessellate(true),
					kml.Coordinates(coords...),
				),
			),
			kml.Placemark(
				kml.Name("Start"),
				kml.Point(kml.Coordinates(coords[0])),
			),
			kml.Placemark(
				kml.Name("Finish"),
				kml.Point(kml.Coordinates(coords[len(coords)-1])),
			),
		),
	)

	return doc.WriteIndent(w, "", "  ")
}
