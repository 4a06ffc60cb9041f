package tracking

// Heading is a compass direction in degrees [0, 360) that may be unknown.
// Consumers must check Valid before using Degrees; heading-dependent
// features are skipped when no heading could be resolved.
type Heading struct {
	Degrees float64 `json:"degrees"`
	Valid   bool    `json:"valid"`
}

// KnownHeading wraps degrees in a valid Heading, normalized to [0, 360)
func KnownHeading(degrees float64) Heading {
	normalized := degrees
	for normalized < 0 {
		normalized += 360
	}
	for normalized >= 360 {
		normalized -= 360
	}
	return Heading{Degrees: normalized, Valid: true}
}

// PositionSample is a raw fix from the platform location provider
type PositionSample struct {
	Latitude  float64  `json:"lat"`
	Longitude float64  `json:"lng"`
	Altitude  *float64 `json:"altitude,omitempty"`
	Accuracy  float64  `json:"accuracy"` // horizontal accuracy, meters
	Heading   Heading  `json:"heading"`  // GPS course, often invalid at low speed
	Speed     *float64 `json:"speed,omitempty"` // m/s, as reported
	Timestamp int64    `json:"timestamp"`       // milliseconds
}

// Location is an accepted sample with its heading resolved. It has passed
// the accuracy gate; heading may still be unknown when no fallback existed.
type Location struct {
	Latitude  float64  `json:"lat"`
	Longitude float64  `json:"lng"`
	Altitude  *float64 `json:"altitude,omitempty"`
	Accuracy  float64  `json:"accuracy"`
	Heading   Heading  `json:"heading"`
	Speed     *float64 `json:"speed,omitempty"`
	Timestamp int64    `json:"timestamp"`
}

// State enumerates the processor lifecycle
type State int

const (
	Idle State = iota
	Tracking
	Paused
)

var stateNames = [...]string{"IDLE", "TRACKING", "PAUSED"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "UNKNOWN"
}
