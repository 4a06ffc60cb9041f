package guidance

import (
	"errors"
	"math"
	"time"

	"github.com/openpace/runguide/internal/lib/geo"
	"github.com/openpace/runguide/internal/lib/tracking"
)

var (
	// ErrTooFewWaypoints is returned when a course has fewer than two
	// waypoints; guidance is meaningless without a start and an end
	ErrTooFewWaypoints = errors.New("route must have at least 2 waypoints")

	// ErrEmptyPath is returned when the route polyline has fewer than two
	// points, leaving nothing to measure off-route distance against
	ErrEmptyPath = errors.New("route path must have at least 2 points")
)

// Engine is the stateful per-session route guidance engine. It consumes
// clean locations plus cumulative session stats and decides waypoint
// progress, off-route status and which announcements to emit, with strict
// no-duplicate guarantees.
//
// One engine instance serves one running session; calls must be
// serialized by the host.
type Engine struct {
	geoUtils  geo.GeoUtils
	waypoints []Waypoint
	path      []geo.Point
	opts      Options
	state     State

	// injectable clock for the off-route repeat gate
	now func() time.Time
}

// New validates the route and creates an engine at waypoint 0. Construction
// fails fast on an unusable route rather than silently no-oping.
func New(waypoints []Waypoint, path []geo.Point, opts Options) (*Engine, error) {
	if len(waypoints) < 2 {
		return nil, ErrTooFewWaypoints
	}
	if len(path) < 2 {
		return nil, ErrEmptyPath
	}

	defaults := DefaultOptions()
	if opts.OffRouteThreshold <= 0 {
		opts.OffRouteThreshold = defaults.OffRouteThreshold
	}
	if opts.WaypointReachedThreshold <= 0 {
		opts.WaypointReachedThreshold = defaults.WaypointReachedThreshold
	}
	if opts.TurnWarningDistance <= 0 {
		opts.TurnWarningDistance = defaults.TurnWarningDistance
	}
	if opts.ApproachDistance <= 0 {
		opts.ApproachDistance = defaults.ApproachDistance
	}
	if opts.DistanceAnnouncementInterval <= 0 {
		opts.DistanceAnnouncementInterval = defaults.DistanceAnnouncementInterval
	}
	if opts.OffRouteRepeatInterval <= 0 {
		opts.OffRouteRepeatInterval = defaults.OffRouteRepeatInterval
	}

	return &Engine{
		geoUtils:  geo.NewGeoUtils(),
		waypoints: waypoints,
		path:      path,
		opts:      opts,
		now:       time.Now,
	}, nil
}

// UpdateLocation processes one clean location against the route. It
// returns the announcements emitted during this call and whether the
// course is completed. Once completed it stays completed and mutates
// nothing further.
//
// Checks run in a fixed order: waypoint arrival first (short-circuiting
// the rest of the call), then off-route, turn warning, destination
// approach and the kilometer milestone.
func (e *Engine) UpdateLocation(loc tracking.Location, totalDistance float64, elapsed time.Duration) ([]Event, bool) {
	if e.state.CurrentWaypointIndex >= len(e.waypoints) {
		return nil, true
	}

	var events []Event

	target := e.waypoints[e.state.CurrentWaypointIndex]
	distance, err := e.geoUtils.PointToPoint(
		geo.Point{Latitude: loc.Latitude, Longitude: loc.Longitude},
		geo.Point{Latitude: target.Latitude, Longitude: target.Longitude},
	)
	if err != nil {
		// Degenerate input must not halt the update loop
		return nil, false
	}
	e.state.DistanceToNextWaypoint = distance

	// Waypoint arrival: advance and return early, skipping the remaining
	// checks for this call. Per-leg flags reset here and only here.
	if distance <= e.opts.WaypointReachedThreshold {
		if e.state.CurrentWaypointIndex == len(e.waypoints)-1 {
			events = e.emit(events, Event{Kind: EventArrival})
		} else {
			events = e.emit(events, Event{
				Kind:           EventWaypointReached,
				WaypointNumber: e.state.CurrentWaypointIndex + 1,
				WaypointTotal:  len(e.waypoints),
			})
		}
		e.state.CurrentWaypointIndex++
		e.state.HasAnnouncedApproach = false
		e.state.HasAnnouncedTurn = false
		return events, e.state.CurrentWaypointIndex == len(e.waypoints)
	}

	events = e.checkOffRoute(loc, events)
	events = e.checkTurnWarning(distance, events)
	events = e.checkApproach(distance, events)
	events = e.checkMilestone(totalDistance, elapsed, events)

	return events, false
}

// checkOffRoute scans the whole route polyline for the nearest segment and
// flips the off-route flag on threshold crossings. Exactly one event per
// crossing; while continuously off route, a directional return hint is
// repeated no more often than the repeat interval, and only when the
// runner's heading is known.
func (e *Engine) checkOffRoute(loc tracking.Location, events []Event) []Event {
	res, err := e.geoUtils.PointToPolyline(
		geo.Point{Latitude: loc.Latitude, Longitude: loc.Longitude},
		e.path,
	)
	if err != nil {
		return events
	}

	wasOffRoute := e.state.IsOffRoute
	e.state.IsOffRoute = res.Distance > e.opts.OffRouteThreshold
	e.state.OffRouteDistance = res.Distance

	switch {
	case !wasOffRoute && e.state.IsOffRoute:
		e.state.LastOffRouteWarning = e.now()
		events = e.emit(events, Event{Kind: EventOffRoute, Distance: res.Distance})

	case wasOffRoute && !e.state.IsOffRoute:
		e.state.LastOffRouteWarning = time.Time{}
		events = e.emit(events, Event{Kind: EventBackOnRoute})

	case wasOffRoute && e.state.IsOffRoute:
		if e.now().Sub(e.state.LastOffRouteWarning) < e.opts.OffRouteRepeatInterval {
			break
		}
		if !loc.Heading.Valid {
			// No heading, no guess: skip the directional hint
			break
		}
		bearing, err := e.geoUtils.Bearing(
			geo.Point{Latitude: loc.Latitude, Longitude: loc.Longitude},
			res.Nearest,
		)
		if err != nil {
			break
		}
		e.state.LastOffRouteWarning = e.now()
		events = e.emit(events, Event{
			Kind:            EventReturnToRoute,
			ReturnDirection: returnDirection(bearing, loc.Heading.Degrees),
			Distance:        res.Distance,
		})
	}

	return events
}

// checkTurnWarning announces the turn at the upcoming waypoint once per
// leg, inside the warning band but outside the arrival band. The final
// waypoint gets the destination approach instead.
func (e *Engine) checkTurnWarning(distance float64, events []Event) []Event {
	idx := e.state.CurrentWaypointIndex
	if distance > e.opts.TurnWarningDistance ||
		distance <= e.opts.WaypointReachedThreshold ||
		e.state.HasAnnouncedTurn ||
		idx >= len(e.waypoints)-1 {
		return events
	}

	direction := e.turnDirection(idx)
	e.state.HasAnnouncedTurn = true

	if direction == UTurn {
		return e.emit(events, Event{Kind: EventUTurn, Distance: distance})
	}
	return e.emit(events, Event{Kind: EventTurn, Direction: direction, Distance: distance})
}

// checkApproach announces the destination once when the final leg closes
// within the approach distance
func (e *Engine) checkApproach(distance float64, events []Event) []Event {
	if e.state.CurrentWaypointIndex != len(e.waypoints)-1 ||
		distance > e.opts.ApproachDistance ||
		e.state.HasAnnouncedApproach {
		return events
	}
	e.state.HasAnnouncedApproach = true
	return e.emit(events, Event{Kind: EventApproachingDestination, Distance: distance})
}

// checkMilestone fires once per whole-kilometer crossing of the cumulative
// session distance
func (e *Engine) checkMilestone(totalDistance float64, elapsed time.Duration, events []Event) []Event {
	interval := e.opts.DistanceAnnouncementInterval
	currentKm := math.Floor(totalDistance / interval)
	lastKm := math.Floor(e.state.LastAnnouncedDistance / interval)

	if currentKm <= lastKm || currentKm <= 0 {
		return events
	}
	e.state.LastAnnouncedDistance = totalDistance
	return e.emit(events, Event{
		Kind:          EventDistanceMilestone,
		TotalDistance: totalDistance,
		Elapsed:       elapsed,
	})
}

// turnDirection classifies the turn at the target waypoint by comparing
// the bearing into the next waypoint against the bearing onward from it.
// With no onward waypoint the leg ends straight.
func (e *Engine) turnDirection(idx int) Direction {
	if idx+2 >= len(e.waypoints) {
		return Straight
	}

	current := e.waypoints[idx]
	next := e.waypoints[idx+1]
	nextNext := e.waypoints[idx+2]

	inbound, err1 := e.geoUtils.Bearing(
		geo.Point{Latitude: current.Latitude, Longitude: current.Longitude},
		geo.Point{Latitude: next.Latitude, Longitude: next.Longitude},
	)
	outbound, err2 := e.geoUtils.Bearing(
		geo.Point{Latitude: next.Latitude, Longitude: next.Longitude},
		geo.Point{Latitude: nextNext.Latitude, Longitude: nextNext.Longitude},
	)
	if err1 != nil || err2 != nil {
		return Straight
	}

	return ClassifyTurn(inbound, outbound)
}

// ClassifyTurn buckets the change in bearing between an inbound and an
// outbound course segment. Reversals of 150 degrees or more are U-turns;
// under 30 degrees is straight.
func ClassifyTurn(inbound, outbound float64) Direction {
	delta := normalizeAngle(outbound - inbound)
	abs := math.Abs(delta)

	switch {
	case abs >= 150:
		return UTurn
	case abs < 30:
		return Straight
	case delta > 0:
		return Right
	default:
		return Left
	}
}

// returnDirection buckets the bearing toward the nearest route point,
// relative to the runner's heading, into four 90-degree sectors
func returnDirection(bearingToRoute, heading float64) ReturnDirection {
	delta := normalizeAngle(bearingToRoute - heading)
	abs := math.Abs(delta)

	switch {
	case abs <= 45:
		return ReturnForward
	case abs >= 135:
		return ReturnBackward
	case delta > 0:
		return ReturnRight
	default:
		return ReturnLeft
	}
}

// normalizeAngle maps degrees to [-180, 180]
func normalizeAngle(degrees float64) float64 {
	d := math.Mod(degrees, 360)
	if d > 180 {
		d -= 360
	} else if d < -180 {
		d += 360
	}
	return d
}

// emit appends the event unless voice guidance is muted. State transitions
// happen at the call sites regardless, so re-enabling voice mid-leg does
// not replay announcements already passed.
func (e *Engine) emit(events []Event, ev Event) []Event {
	if e.opts.VoiceMuted {
		return events
	}
	return append(events, ev)
}

// SetVoiceGuidanceEnabled toggles announcement emission. Geometry and
// state computation always run.
func (e *Engine) SetVoiceGuidanceEnabled(enabled bool) {
	e.opts.VoiceMuted = !enabled
}

// VoiceGuidanceEnabled reports whether announcements are emitted
func (e *Engine) VoiceGuidanceEnabled() bool {
	return !e.opts.VoiceMuted
}

// State returns a read-only snapshot of the guidance state
func (e *Engine) State() State {
	return e.state
}

// Waypoints returns the course waypoint count
func (e *Engine) Waypoints() int {
	return len(e.waypoints)
}

// Completed reports whether every waypoint has been passed
func (e *Engine) Completed() bool {
	return e.state.CurrentWaypointIndex >= len(e.waypoints)
}

// Reset returns all state to initial values. Waypoints and path are kept.
func (e *Engine) Reset() {
	e.state = State{}
}
