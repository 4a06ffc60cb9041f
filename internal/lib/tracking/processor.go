package tracking

import (
	"errors"
	"fmt"
	"log"
	"math"

	"github.com/openpace/runguide/internal/lib/geo"
)

const (
	// DefaultAccuracyCutoff discards fixes worse than this many meters.
	// Poor fixes corrupt distance accumulation more than they help continuity.
	DefaultAccuracyCutoff = 20.0

	// DefaultMinDistance is the displacement below which a sample updates
	// heading only and accumulates no distance
	DefaultMinDistance = 5.0

	// movingSpeedThreshold is the GPS speed above which the sample's own
	// reported course is trusted over the compass, in m/s
	movingSpeedThreshold = 0.5

	// compassNoiseDegrees is the minimum heading change a stationary
	// compass refresh must show before the current location is touched
	compassNoiseDegrees = 5.0
)

// Options configures a StreamProcessor
type Options struct {
	AccuracyCutoff float64 // meters; 0 means DefaultAccuracyCutoff
	MinDistance    float64 // meters; 0 means DefaultMinDistance

	// OnUpdate fires with the resulting clean location for every accepted
	// sample, including displacement-gated samples whose heading changed.
	// This is the single integration point for the guidance engine.
	OnUpdate func(Location)

	// OnError fires when the upstream provider reports a failure
	OnError func(error)
}

// StreamProcessor turns a noisy position stream into a gated,
// heading-resolved stream of accepted locations plus distance and speed
// aggregates.
//
// The processor is single-threaded by contract: the host must serialize
// calls into it (one position callback processed to completion before the
// next), so no locking is done here.
type StreamProcessor struct {
	geoUtils geo.GeoUtils
	opts     Options

	state   State
	compass Heading

	current *Location
	last    *Location
	history []Location

	totalDistance float64
	currentSpeed  float64

	err error
}

// NewStreamProcessor creates a processor in the Idle state
func NewStreamProcessor(opts Options) *StreamProcessor {
	if opts.AccuracyCutoff <= 0 {
		opts.AccuracyCutoff = DefaultAccuracyCutoff
	}
	if opts.MinDistance <= 0 {
		opts.MinDistance = DefaultMinDistance
	}
	return &StreamProcessor{
		geoUtils: geo.NewGeoUtils(),
		opts:     opts,
	}
}

// Start transitions Idle -> Tracking and clears any provider error so the
// caller can retry after a failure. The host subscribes to the platform
// position stream on its side and feeds ProcessPosition.
func (p *StreamProcessor) Start() error {
	if p.state == Tracking {
		return nil
	}
	if p.state == Paused {
		return errors.New("tracking is paused; call Resume")
	}
	p.state = Tracking
	p.err = nil
	log.Printf("tracking started (accuracy cutoff %.0fm, min displacement %.0fm)",
		p.opts.AccuracyCutoff, p.opts.MinDistance)
	return nil
}

// Pause stops processing updates into state. History and totals are kept.
func (p *StreamProcessor) Pause() {
	if p.state == Tracking {
		p.state = Paused
	}
}

// Resume transitions Paused -> Tracking
func (p *StreamProcessor) Resume() {
	if p.state == Paused {
		p.state = Tracking
	}
}

// Stop transitions any state -> Idle. Totals are retained; Reset clears them.
func (p *StreamProcessor) Stop() {
	p.state = Idle
}

// Reset clears the current location, history, totals, speed and error
// state. Only callable from Idle.
func (p *StreamProcessor) Reset() error {
	if p.state != Idle {
		return fmt.Errorf("cannot reset while %s", p.state)
	}
	p.current = nil
	p.last = nil
	p.history = nil
	p.totalDistance = 0
	p.currentSpeed = 0
	p.compass = Heading{}
	p.err = nil
	return nil
}

// ProcessHeading feeds a compass sample. Active only while tracking; a
// stationary runner's displayed heading follows the compass, but no update
// callback fires for compass-only changes.
func (p *StreamProcessor) ProcessHeading(degrees float64) {
	if p.state != Tracking {
		return
	}
	p.compass = KnownHeading(degrees)

	if p.current == nil {
		return
	}
	speed := 0.0
	if p.current.Speed != nil {
		speed = *p.current.Speed
	}
	if speed > movingSpeedThreshold {
		return
	}

	// Filter sensor noise, tolerating wraparound near north
	if p.current.Heading.Valid {
		diff := math.Abs(p.current.Heading.Degrees - p.compass.Degrees)
		if diff <= compassNoiseDegrees || diff >= 360-compassNoiseDegrees {
			return
		}
	}
	p.current.Heading = p.compass
}

// ProcessPosition runs one raw sample through the accuracy gate, heading
// fusion and displacement gate. Ignored unless tracking.
func (p *StreamProcessor) ProcessPosition(sample PositionSample) {
	if p.state != Tracking {
		return
	}

	// Accuracy gate: discard entirely, no state change
	if sample.Accuracy > p.opts.AccuracyCutoff {
		log.Printf("discarding low-accuracy fix: %.1fm > %.1fm cutoff",
			sample.Accuracy, p.opts.AccuracyCutoff)
		return
	}

	loc := Location{
		Latitude:  sample.Latitude,
		Longitude: sample.Longitude,
		Altitude:  sample.Altitude,
		Accuracy:  sample.Accuracy,
		Heading:   sample.Heading,
		Speed:     sample.Speed,
		Timestamp: sample.Timestamp,
	}

	// First accepted sample of the session: prefer the compass
	if p.last == nil {
		if p.compass.Valid {
			loc.Heading = p.compass
		}
		p.accept(loc, 0)
		return
	}

	displacement, err := p.geoUtils.PointToPoint(
		geo.Point{Latitude: p.last.Latitude, Longitude: p.last.Longitude},
		geo.Point{Latitude: loc.Latitude, Longitude: loc.Longitude},
	)
	if err != nil {
		log.Printf("dropping sample with invalid coordinates: %v", err)
		return
	}

	loc.Heading = p.resolveHeading(loc)

	// Displacement gate: below the minimum, directional info still flows
	// (required for live bearing display) but nothing accumulates
	if displacement < p.opts.MinDistance {
		gated := *p.last
		gated.Heading = loc.Heading
		gated.Timestamp = loc.Timestamp
		gated.Speed = loc.Speed
		gated.Accuracy = loc.Accuracy
		p.current = &gated
		if p.opts.OnUpdate != nil {
			p.opts.OnUpdate(gated)
		}
		return
	}

	p.totalDistance += displacement
	if loc.Speed != nil {
		p.currentSpeed = *loc.Speed
	} else if dt := float64(loc.Timestamp-p.last.Timestamp) / 1000; dt > 0 {
		p.currentSpeed = displacement / dt
	}
	p.accept(loc, displacement)
}

// resolveHeading applies the fallback chain for a sample that has a
// previous accepted location: GPS course while moving, then compass, then
// the bearing computed from the previous location.
func (p *StreamProcessor) resolveHeading(loc Location) Heading {
	speed := 0.0
	if loc.Speed != nil {
		speed = *loc.Speed
	}
	if speed > movingSpeedThreshold && loc.Heading.Valid {
		return loc.Heading
	}
	if p.compass.Valid {
		return p.compass
	}
	bearing, err := p.geoUtils.Bearing(
		geo.Point{Latitude: p.last.Latitude, Longitude: p.last.Longitude},
		geo.Point{Latitude: loc.Latitude, Longitude: loc.Longitude},
	)
	if err != nil {
		return loc.Heading
	}
	return KnownHeading(bearing)
}

func (p *StreamProcessor) accept(loc Location, displacement float64) {
	p.current = &loc
	p.last = &loc
	p.history = append(p.history, loc)
	p.err = nil
	if p.opts.OnUpdate != nil {
		p.opts.OnUpdate(loc)
	}
	if displacement > 0 {
		log.Printf("moved %.2fm (total %.1fm)", displacement, p.totalDistance)
	}
}

// Fail records an upstream provider failure. Previous state stays intact;
// the caller may retry by re-invoking Start.
func (p *StreamProcessor) Fail(err error) {
	p.err = err
	p.state = Idle
	log.Printf("location provider failure: %v", err)
	if p.opts.OnError != nil {
		p.opts.OnError(err)
	}
}

// SetInitialLocation seeds the current location before the first fix
// arrives, so the session does not start without a position.
func (p *StreamProcessor) SetInitialLocation(loc Location) {
	p.current = &loc
	p.last = &loc
}

// State returns the lifecycle state
func (p *StreamProcessor) State() State { return p.state }

// Err returns the recorded provider failure, if any
func (p *StreamProcessor) Err() error { return p.err }

// TotalDistance returns accumulated meters
func (p *StreamProcessor) TotalDistance() float64 { return p.totalDistance }

// CurrentSpeed returns the last computed or reported speed in m/s
func (p *StreamProcessor) CurrentSpeed() float64 { return p.currentSpeed }

// CurrentLocation returns the latest clean location
func (p *StreamProcessor) CurrentLocation() (Location, bool) {
	if p.current == nil {
		return Location{}, false
	}
	return *p.current, true
}

// History returns a copy of the accepted location history
func (p *StreamProcessor) History() []Location {
	out := make([]Location, len(p.history))
	copy(out, p.history)
	return out
}
