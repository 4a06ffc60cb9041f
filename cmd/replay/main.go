package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/openpace/runguide/internal/config"
	"github.com/openpace/runguide/internal/lib/course"
	"github.com/openpace/runguide/internal/lib/geo"
	"github.com/openpace/runguide/internal/lib/guidance"
	"github.com/openpace/runguide/internal/lib/tracking"
	"github.com/openpace/runguide/internal/services"
)

// replay simulates a runner moving along a course at a steady pace and
// prints every announcement the guidance session produces. Useful for
// checking a course file before sending anyone out with it.
func main() {
	coursePath := flag.String("course", "", "Path to course JSON file (required)")
	configPath := flag.String("config", "", "Path to YAML config file (optional)")
	kmlOut := flag.String("kml-out", "", "Write the recorded track as KML to this file")
	speed := flag.Float64("speed", 0, "Override simulated speed in m/s")
	drift := flag.Float64("drift", 0, "Lateral drift in degrees applied mid-course, to exercise off-route detection")
	flag.Parse()

	if *coursePath == "" {
		fmt.Println("Usage: replay --course <file.json> [--config <file.yaml>] [--kml-out <file.kml>] [--speed 3.0] [--drift 0.0001]")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *speed > 0 {
		cfg.Replay.SpeedMPS = *speed
	}

	c, err := course.Load(*coursePath)
	if err != nil {
		log.Fatalf("loading course: %v", err)
	}
	length, err := c.Length()
	if err != nil {
		log.Fatalf("measuring course: %v", err)
	}
	fmt.Printf("Course: %s (%.2fkm, %d waypoints, %d path points)\n",
		c.Name, length/1000, len(c.Waypoints), len(c.Path))

	session, err := services.New(c, cfg, consoleAnnouncer{})
	if err != nil {
		log.Fatalf("creating session: %v", err)
	}
	if err := session.Start(nil); err != nil {
		log.Fatalf("starting session: %v", err)
	}

	runReplay(session, c, cfg, *drift)

	if session.Status() != services.StatusCompleted {
		session.Stop()
	}

	stats := session.Stats()
	fmt.Printf("\nReplay done: %.2fkm in %s, completed=%v\n",
		stats.Distance/1000, stats.Elapsed.Round(time.Second), session.Completed())

	if *kmlOut != "" {
		f, err := os.Create(*kmlOut)
		if err != nil {
			log.Fatalf("creating KML file: %v", err)
		}
		defer f.Close()
		if err := session.ExportKML(f); err != nil {
			log.Fatalf("writing KML: %v", err)
		}
		fmt.Printf("Track written to %s\n", *kmlOut)
	}
}

// runReplay walks the course path emitting synthetic position samples at
// the configured interval and speed. Drift, when set, pushes the middle
// third of the run sideways so off-route warnings fire.
func runReplay(session *services.Session, c *course.Course, cfg *config.Config, drift float64) {
	geoUtils := geo.NewGeoUtils()
	interval := cfg.Replay.SampleInterval
	stepMeters := cfg.Replay.SpeedMPS * interval.Seconds()

	samples := interpolatePath(geoUtils, c.Path, stepMeters)
	driftStart, driftEnd := len(samples)/3, 2*len(samples)/3

	ts := time.Now().UnixMilli()
	for i, p := range samples {
		if session.Status() == services.StatusCompleted {
			break
		}
		lat := p.Latitude
		if i >= driftStart && i < driftEnd {
			lat += drift
		}
		session.ProcessPosition(tracking.PositionSample{
			Latitude:  lat,
			Longitude: p.Longitude,
			Accuracy:  cfg.Replay.AccuracyMeters,
			Speed:     &cfg.Replay.SpeedMPS,
			Heading:   headingTo(geoUtils, samples, i),
			Timestamp: ts,
		})
		ts += interval.Milliseconds()
		if cfg.Replay.Realtime {
			time.Sleep(interval)
		}
	}
}

// interpolatePath resamples the path at a fixed step length. Linear
// interpolation in degrees is fine at running-route scale.
func interpolatePath(geoUtils geo.GeoUtils, path []geo.Point, stepMeters float64) []geo.Point {
	if stepMeters <= 0 {
		return path
	}
	out := []geo.Point{path[0]}
	for i := 0; i+1 < len(path); i++ {
		a, b := path[i], path[i+1]
		dist, err := geoUtils.PointToPoint(a, b)
		if err != nil || dist == 0 {
			continue
		}
		steps := int(dist / stepMeters)
		for s := 1; s <= steps; s++ {
			f := float64(s) * stepMeters / dist
			out = append(out, geo.Point{
				Latitude:  a.Latitude + (b.Latitude-a.Latitude)*f,
				Longitude: a.Longitude + (b.Longitude-a.Longitude)*f,
			})
		}
		out = append(out, b)
	}
	return out
}

func headingTo(geoUtils geo.GeoUtils, samples []geo.Point, i int) tracking.Heading {
	if i+1 >= len(samples) {
		return tracking.Heading{}
	}
	bearing, err := geoUtils.Bearing(samples[i], samples[i+1])
	if err != nil {
		return tracking.Heading{}
	}
	return tracking.KnownHeading(bearing)
}

// consoleAnnouncer renders guidance events as the phrases a voice layer
// would speak
type consoleAnnouncer struct{}

func (consoleAnnouncer) Announce(ev guidance.Event) {
	fmt.Printf("  [%-16s] %s\n", ev.Kind, phrase(ev))
}

func phrase(ev guidance.Event) string {
	switch ev.Kind {
	case guidance.EventStart:
		return "Run started. Follow the route."
	case guidance.EventPause:
		return "Run paused."
	case guidance.EventResume:
		return "Run resumed."
	case guidance.EventWaypointReached:
		return fmt.Sprintf("Waypoint %d of %d reached.", ev.WaypointNumber, ev.WaypointTotal)
	case guidance.EventTurn:
		return fmt.Sprintf("In %.0f meters, turn %s.", ev.Distance, ev.Direction)
	case guidance.EventUTurn:
		return fmt.Sprintf("In %.0f meters, make a U-turn.", ev.Distance)
	case guidance.EventApproachingDestination:
		return fmt.Sprintf("Approaching the finish, %.0f meters to go.", ev.Distance)
	case guidance.EventArrival:
		return "You have arrived at your destination."
	case guidance.EventOffRoute:
		return fmt.Sprintf("You are %.0f meters off the route.", ev.Distance)
	case guidance.EventReturnToRoute:
		return fmt.Sprintf("To return to the route, go %s.", ev.ReturnDirection)
	case guidance.EventBackOnRoute:
		return "Back on route. Keep going."
	case guidance.EventDistanceMilestone:
		return fmt.Sprintf("%.0f kilometers completed.", ev.TotalDistance/1000)
	case guidance.EventFinish:
		return fmt.Sprintf("Run finished: %.2fkm in %s.", ev.TotalDistance/1000, ev.Elapsed.Round(time.Second))
	default:
		return string(ev.Kind)
	}
}
