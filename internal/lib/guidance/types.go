package guidance

import (
	"time"
)

// Waypoint is a progress checkpoint along the course, ordered start to end
type Waypoint struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
	Order     int     `json:"order"`
}

// Direction classifies a turn at an upcoming waypoint
type Direction string

const (
	Left     Direction = "left"
	Right    Direction = "right"
	Straight Direction = "straight"
	UTurn    Direction = "uturn"
)

// ReturnDirection tells an off-route runner which way the route lies,
// relative to their current heading
type ReturnDirection string

const (
	ReturnForward  ReturnDirection = "forward"
	ReturnBackward ReturnDirection = "backward"
	ReturnLeft     ReturnDirection = "left"
	ReturnRight    ReturnDirection = "right"
)

// EventKind identifies a guidance announcement. The engine signals kind
// plus parameters; wording is the announcement sink's concern.
type EventKind string

const (
	EventWaypointReached        EventKind = "waypoint_reached"
	EventArrival                EventKind = "arrival"
	EventOffRoute               EventKind = "off_route"
	EventBackOnRoute            EventKind = "back_on_route"
	EventReturnToRoute          EventKind = "return_to_route"
	EventTurn                   EventKind = "turn"
	EventUTurn                  EventKind = "uturn"
	EventApproachingDestination EventKind = "approaching_destination"
	EventDistanceMilestone      EventKind = "distance_milestone"

	// Session-level announcements, emitted by the orchestrator
	EventStart  EventKind = "start"
	EventPause  EventKind = "pause"
	EventResume EventKind = "resume"
	EventFinish EventKind = "finish"
)

// Event is one guidance announcement with its parameters. Fields are
// populated per kind; unused fields are zero.
type Event struct {
	Kind            EventKind       `json:"kind"`
	Direction       Direction       `json:"direction,omitempty"`
	ReturnDirection ReturnDirection `json:"return_direction,omitempty"`
	Distance        float64         `json:"distance_meters,omitempty"`
	WaypointNumber  int             `json:"waypoint_number,omitempty"` // 1-based
	WaypointTotal   int             `json:"waypoint_total,omitempty"`
	TotalDistance   float64         `json:"total_distance_meters,omitempty"`
	Elapsed         time.Duration   `json:"elapsed,omitempty"`
}

// State is the mutable per-session guidance state. Snapshots are returned
// by value; the engine owns the only live copy.
type State struct {
	CurrentWaypointIndex   int       `json:"current_waypoint_index"`
	DistanceToNextWaypoint float64   `json:"distance_to_next_waypoint"`
	IsOffRoute             bool      `json:"is_off_route"`
	OffRouteDistance       float64   `json:"off_route_distance"`
	LastOffRouteWarning    time.Time `json:"last_off_route_warning"`
	HasAnnouncedApproach   bool      `json:"has_announced_approach"`
	HasAnnouncedTurn       bool      `json:"has_announced_turn"`
	LastAnnouncedDistance  float64   `json:"last_announced_distance"`
}

// Options configures an Engine. Zero thresholds are replaced with
// defaults at construction, so a partially-populated Options is safe.
// Voice guidance is on unless explicitly muted; the zero value carries
// that default.
type Options struct {
	OffRouteThreshold            float64       `json:"off_route_threshold"`             // meters
	WaypointReachedThreshold     float64       `json:"waypoint_reached_threshold"`      // meters
	TurnWarningDistance          float64       `json:"turn_warning_distance"`           // meters
	ApproachDistance             float64       `json:"approach_distance"`               // meters, final-leg warning
	DistanceAnnouncementInterval float64       `json:"distance_announcement_interval"`  // meters
	OffRouteRepeatInterval       time.Duration `json:"off_route_repeat_interval"`
	VoiceMuted                   bool          `json:"voice_muted"`
}

// DefaultOptions returns the thresholds tuned for GPS noise and typical
// urban course geometry
func DefaultOptions() Options {
	return Options{
		OffRouteThreshold:            5,
		WaypointReachedThreshold:     2,
		TurnWarningDistance:          20,
		ApproachDistance:             100,
		DistanceAnnouncementInterval: 1000,
		OffRouteRepeatInterval:       5 * time.Second,
	}
}
