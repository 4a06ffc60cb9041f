package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/openpace/runguide/internal/lib/course"
	"github.com/openpace/runguide/internal/lib/geo"
	"github.com/openpace/runguide/internal/lib/guidance"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	geoUtils := geo.NewGeoUtils()

	switch command {
	case "point-distance":
		handlePointDistance(geoUtils)
	case "bearing":
		handleBearing(geoUtils)
	case "route-distance":
		handleRouteDistance(geoUtils)
	case "turn-direction":
		handleTurnDirection(geoUtils)
	case "check-course":
		handleCheckCourse(geoUtils)
	case "help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func handlePointDistance(geoUtils geo.GeoUtils) {
	fs := flag.NewFlagSet("point-distance", flag.ExitOnError)
	lat1 := fs.Float64("lat1", 0, "Latitude of first point")
	lng1 := fs.Float64("lng1", 0, "Longitude of first point")
	lat2 := fs.Float64("lat2", 0, "Latitude of second point")
	lng2 := fs.Float64("lng2", 0, "Longitude of second point")

	fs.Parse(os.Args[2:])

	if *lat1 == 0 && *lng1 == 0 && *lat2 == 0 && *lng2 == 0 {
		fmt.Println("Example usage:")
		fmt.Println("  test-guidance point-distance --lat1 37.5124 --lng1 126.9956 --lat2 37.5133 --lng2 127.1001")
		fmt.Println("  (Distance between Banpo and Jamsil bridges)")
		os.Exit(1)
	}

	p1 := geo.Point{Latitude: *lat1, Longitude: *lng1}
	p2 := geo.Point{Latitude: *lat2, Longitude: *lng2}

	distance, err := geoUtils.PointToPoint(p1, p2)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Distance: %.2f meters (%.2f km)\n", distance, distance/1000)
}

func handleBearing(geoUtils geo.GeoUtils) {
	fs := flag.NewFlagSet("bearing", flag.ExitOnError)
	lat1 := fs.Float64("lat1", 0, "Latitude of start point")
	lng1 := fs.Float64("lng1", 0, "Longitude of start point")
	lat2 := fs.Float64("lat2", 0, "Latitude of end point")
	lng2 := fs.Float64("lng2", 0, "Longitude of end point")

	fs.Parse(os.Args[2:])

	if *lat1 == 0 && *lng1 == 0 && *lat2 == 0 && *lng2 == 0 {
		fmt.Println("Example usage:")
		fmt.Println("  test-guidance bearing --lat1 37.5124 --lng1 126.9956 --lat2 37.5133 --lng2 127.1001")
		os.Exit(1)
	}

	bearing, err := geoUtils.Bearing(
		geo.Point{Latitude: *lat1, Longitude: *lng1},
		geo.Point{Latitude: *lat2, Longitude: *lng2},
	)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Bearing: %.1f degrees\n", bearing)
}

// handleRouteDistance measures how far a point sits from a course path,
// the same computation the off-route check runs on every fix
func handleRouteDistance(geoUtils geo.GeoUtils) {
	fs := flag.NewFlagSet("route-distance", flag.ExitOnError)
	coursePath := fs.String("course", "", "Path to course JSON file")
	lat := fs.Float64("lat", 0, "Latitude of runner position")
	lng := fs.Float64("lng", 0, "Longitude of runner position")

	fs.Parse(os.Args[2:])

	if *coursePath == "" {
		fmt.Println("Example usage:")
		fmt.Println("  test-guidance route-distance --course riverside.json --lat 37.5128 --lng 127.0050")
		os.Exit(1)
	}

	c, err := course.Load(*coursePath)
	if err != nil {
		fmt.Printf("Error loading course: %v\n", err)
		os.Exit(1)
	}

	result, err := geoUtils.PointToPolyline(geo.Point{Latitude: *lat, Longitude: *lng}, c.Path)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Distance to route: %.2f meters\n", result.Distance)
	fmt.Printf("Nearest point:     %.6f, %.6f (segment %d)\n",
		result.Nearest.Latitude, result.Nearest.Longitude, result.Segment)
}

func handleTurnDirection(geoUtils geo.GeoUtils) {
	fs := flag.NewFlagSet("turn-direction", flag.ExitOnError)
	inbound := fs.Float64("inbound", -1, "Bearing of the segment being run, degrees")
	outbound := fs.Float64("outbound", -1, "Bearing of the segment after the waypoint, degrees")

	fs.Parse(os.Args[2:])

	if *inbound < 0 || *outbound < 0 {
		fmt.Println("Example usage:")
		fmt.Println("  test-guidance turn-direction --inbound 90 --outbound 180")
		os.Exit(1)
	}

	fmt.Printf("Turn: %s\n", guidance.ClassifyTurn(*inbound, *outbound))
}

// handleCheckCourse validates a course file and summarizes what a runner
// would be told at each waypoint
func handleCheckCourse(geoUtils geo.GeoUtils) {
	fs := flag.NewFlagSet("check-course", flag.ExitOnError)
	coursePath := fs.String("course", "", "Path to course JSON file")

	fs.Parse(os.Args[2:])

	if *coursePath == "" {
		fmt.Println("Example usage:")
		fmt.Println("  test-guidance check-course --course riverside.json")
		os.Exit(1)
	}

	c, err := course.Load(*coursePath)
	if err != nil {
		fmt.Printf("Error loading course: %v\n", err)
		os.Exit(1)
	}

	length, err := c.Length()
	if err != nil {
		fmt.Printf("Error measuring course: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Course: %s\n", c.Name)
	fmt.Printf("Length: %.2f km, %d waypoints, %d path points\n\n",
		length/1000, len(c.Waypoints), len(c.Path))

	for i := 0; i+1 < len(c.Waypoints); i++ {
		a := c.Waypoints[i]
		b := c.Waypoints[i+1]
		leg, err := geoUtils.PointToPoint(
			geo.Point{Latitude: a.Latitude, Longitude: a.Longitude},
			geo.Point{Latitude: b.Latitude, Longitude: b.Longitude},
		)
		if err != nil {
			fmt.Printf("Error on leg %d: %v\n", i, err)
			os.Exit(1)
		}

		turn := "finish"
		if i+2 < len(c.Waypoints) {
			inbound, _ := geoUtils.Bearing(
				geo.Point{Latitude: a.Latitude, Longitude: a.Longitude},
				geo.Point{Latitude: b.Latitude, Longitude: b.Longitude},
			)
			outbound, _ := geoUtils.Bearing(
				geo.Point{Latitude: b.Latitude, Longitude: b.Longitude},
				geo.Point{Latitude: c.Waypoints[i+2].Latitude, Longitude: c.Waypoints[i+2].Longitude},
			)
			turn = string(guidance.ClassifyTurn(inbound, outbound))
		}

		fmt.Printf("  Leg %2d: %7.1fm, then %s\n", i+1, leg, turn)
	}
}

func printUsage() {
	fmt.Println("Guidance diagnostics")
	fmt.Println()
	fmt.Println("Usage: test-guidance <command> [flags]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  point-distance   Haversine distance between two points")
	fmt.Println("  bearing          Initial bearing from one point to another")
	fmt.Println("  route-distance   Distance from a position to a course path")
	fmt.Println("  turn-direction   Classify a turn from inbound/outbound bearings")
	fmt.Println("  check-course     Validate a course file and list its legs")
	fmt.Println("  help             Show this help")
}
