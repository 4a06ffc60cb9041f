package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"runtime/debug"
	"time"

	"github.com/dpup/prefab/errors"
	"github.com/dpup/prefab/logging"
	"github.com/google/uuid"

	"github.com/openpace/runguide/internal/config"
	"github.com/openpace/runguide/internal/lib/course"
	"github.com/openpace/runguide/internal/lib/guidance"
	"github.com/openpace/runguide/internal/lib/record"
	"github.com/openpace/runguide/internal/lib/tracking"
)

// Announcer is the injected announcement capability. Implementations turn
// guidance events into speech or UI; the session never formats text.
type Announcer interface {
	Announce(event guidance.Event)
}

// Status enumerates the session lifecycle
type Status int

const (
	StatusIdle Status = iota
	StatusRunning
	StatusPaused
	StatusCompleted
)

var statusNames = [...]string{"IDLE", "RUNNING", "PAUSED", "COMPLETED"}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "UNKNOWN"
}

// Stats is a point-in-time snapshot of session progress
type Stats struct {
	Elapsed        time.Duration `json:"elapsed"`
	Distance       float64       `json:"distance_meters"`
	Speed          float64       `json:"speed_mps"`
	Pace           float64       `json:"pace_seconds_per_km"`
	Progress       float64       `json:"progress_percent"`
	DistanceToNext float64       `json:"distance_to_next_meters"`
	IsOffRoute     bool          `json:"is_off_route"`
	WaypointIndex  int           `json:"waypoint_index"`
}

// Session wires the location stream processor into the guidance engine
// and dispatches the resulting announcements. One session serves one run;
// a new run always starts with a fresh session.
//
// The host must serialize calls into the session, matching the processor
// and engine contracts. Announcement dispatch is the only asynchronous
// side effect and is fire-and-forget.
type Session struct {
	id        string
	course    *course.Course
	announcer Announcer

	processor *tracking.StreamProcessor
	engine    *guidance.Engine

	status      Status
	completed   bool
	startedAt   time.Time
	endedAt     time.Time
	pausedAt    time.Time
	pausedTotal time.Duration

	announcements chan guidance.Event

	now func() time.Time
}

// announcementQueueSize bounds the dispatch backlog. A stalled announcer
// drops announcements rather than blocking the update path.
const announcementQueueSize = 64

// New creates a session for the given course. Fails fast on an unusable
// course rather than producing an engine that silently does nothing.
func New(c *course.Course, cfg *config.Config, announcer Announcer) (*Session, error) {
	if announcer == nil {
		return nil, fmt.Errorf("session requires an announcer")
	}

	engine, err := guidance.New(c.Waypoints, c.Path, guidance.Options{
		OffRouteThreshold:            cfg.Guidance.OffRouteThreshold,
		WaypointReachedThreshold:     cfg.Guidance.WaypointReachedThreshold,
		TurnWarningDistance:          cfg.Guidance.TurnWarningDistance,
		ApproachDistance:             cfg.Guidance.ApproachDistance,
		DistanceAnnouncementInterval: cfg.Guidance.DistanceAnnouncementInterval,
		OffRouteRepeatInterval:       cfg.Guidance.OffRouteRepeatInterval,
		VoiceMuted:                   !cfg.Guidance.VoiceGuidanceEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("invalid route configuration: %w", err)
	}

	s := &Session{
		id:            uuid.NewString(),
		course:        c,
		announcer:     announcer,
		engine:        engine,
		announcements: make(chan guidance.Event, announcementQueueSize),
		now:           time.Now,
	}
	go s.announceLoop()

	s.processor = tracking.NewStreamProcessor(tracking.Options{
		AccuracyCutoff: cfg.Tracking.AccuracyCutoff,
		MinDistance:    cfg.Tracking.MinDistance,
		OnUpdate:       s.onLocationUpdate,
		OnError: func(err error) {
			log.Printf("session %s: location provider error: %v", s.id, err)
		},
	})

	return s, nil
}

// ID returns the session identifier
func (s *Session) ID() string { return s.id }

// Status returns the lifecycle state
func (s *Session) Status() Status { return s.status }

// Start begins tracking. An initial location may be supplied so the
// session does not begin without a position fix.
func (s *Session) Start(initial *tracking.Location) error {
	if s.status != StatusIdle {
		return fmt.Errorf("cannot start session in state %s", s.status)
	}
	if err := s.processor.Start(); err != nil {
		return err
	}
	if initial != nil {
		s.processor.SetInitialLocation(*initial)
	}
	s.startedAt = s.now()
	s.pausedTotal = 0
	s.status = StatusRunning
	log.Printf("session %s: started on course %q (%d waypoints)",
		s.id, s.course.Name, len(s.course.Waypoints))
	s.dispatch([]guidance.Event{{Kind: guidance.EventStart}})
	return nil
}

// Pause suspends tracking; totals and elapsed time hold their values
func (s *Session) Pause() {
	if s.status != StatusRunning {
		return
	}
	s.processor.Pause()
	s.pausedAt = s.now()
	s.status = StatusPaused
	s.dispatch([]guidance.Event{{Kind: guidance.EventPause}})
}

// Resume continues a paused session
func (s *Session) Resume() {
	if s.status != StatusPaused {
		return
	}
	s.processor.Resume()
	s.pausedTotal += s.now().Sub(s.pausedAt)
	s.status = StatusRunning
	s.dispatch([]guidance.Event{{Kind: guidance.EventResume}})
}

// Stop ends the session. Called by the host to abandon a run, or
// internally when the course completes.
func (s *Session) Stop() {
	if s.status == StatusIdle || s.status == StatusCompleted {
		return
	}
	if s.status == StatusPaused {
		s.pausedTotal += s.now().Sub(s.pausedAt)
	}
	// Transition before snapshotting so elapsed() stops treating the
	// session as paused and freezes at the stop instant
	s.status = StatusCompleted
	s.endedAt = s.now()
	s.processor.Stop()
	stats := s.Stats()
	log.Printf("session %s: stopped after %.2fkm in %s (completed course: %v)",
		s.id, stats.Distance/1000, stats.Elapsed.Round(time.Second), s.completed)
	s.dispatch([]guidance.Event{{
		Kind:          guidance.EventFinish,
		TotalDistance: stats.Distance,
		Elapsed:       stats.Elapsed,
	}})
	close(s.announcements)
}

// ProcessPosition feeds a raw provider sample through the pipeline
func (s *Session) ProcessPosition(sample tracking.PositionSample) {
	s.processor.ProcessPosition(sample)
}

// ProcessHeading feeds a compass sample
func (s *Session) ProcessHeading(degrees float64) {
	s.processor.ProcessHeading(degrees)
}

// Fail reports an upstream location provider failure
func (s *Session) Fail(err error) {
	s.processor.Fail(err)
}

// SetVoiceGuidanceEnabled toggles announcements without touching guidance
// computation
func (s *Session) SetVoiceGuidanceEnabled(enabled bool) {
	s.engine.SetVoiceGuidanceEnabled(enabled)
}

// GuidanceState returns a snapshot of the engine state
func (s *Session) GuidanceState() guidance.State {
	return s.engine.State()
}

// Completed reports whether the course was finished (every waypoint
// passed), as opposed to the run being abandoned
func (s *Session) Completed() bool { return s.completed }

// onLocationUpdate is the single integration point between the processor
// and the engine: every accepted or heading-refreshed location lands here.
func (s *Session) onLocationUpdate(loc tracking.Location) {
	if s.status != StatusRunning {
		return
	}

	events, completed := s.engine.UpdateLocation(loc, s.processor.TotalDistance(), s.elapsed())
	s.dispatch(events)

	if completed && !s.completed {
		s.completed = true
		log.Printf("session %s: course completed", s.id)
		s.Stop()
	}
}

// dispatch queues events for the announcer without blocking the update
// path. Delivery order across updates matches emission order; a full
// queue drops rather than stalls.
func (s *Session) dispatch(events []guidance.Event) {
	for _, ev := range events {
		select {
		case s.announcements <- ev:
		default:
			log.Printf("session %s: announcement queue full, dropping %s", s.id, ev.Kind)
		}
	}
}

// announceLoop is the single consumer of the announcement queue. One
// goroutine per session keeps spoken output sequential; it exits when
// Stop closes the queue.
func (s *Session) announceLoop() {
	for ev := range s.announcements {
		s.announceOne(ev)
	}
}

func (s *Session) announceOne(ev guidance.Event) {
	defer func() {
		// Recover from announcer panics so a broken audio layer cannot
		// take down the guidance loop
		if r := recover(); r != nil {
			err, _ := errors.ParseStack(debug.Stack())
			skipFrames := 3
			numFrames := 5
			logging.Errorw(logging.EnsureLogger(context.Background()), "announcement dispatch: recovered from panic",
				"error", r, "error.stack_trace", err.MinimalStack(skipFrames, numFrames))
		}
	}()
	s.announcer.Announce(ev)
}

// elapsed is wall-clock time since start minus paused spans, frozen at
// the stop instant once the session ends
func (s *Session) elapsed() time.Duration {
	if s.startedAt.IsZero() {
		return 0
	}
	end := s.now()
	if s.status == StatusCompleted && !s.endedAt.IsZero() {
		end = s.endedAt
	}
	base := end.Sub(s.startedAt) - s.pausedTotal
	if s.status == StatusPaused {
		base -= s.now().Sub(s.pausedAt)
	}
	if base < 0 {
		return 0
	}
	return base
}

// Stats returns a snapshot of session progress
func (s *Session) Stats() Stats {
	state := s.engine.State()
	distance := s.processor.TotalDistance()
	elapsed := s.elapsed()

	pace := 0.0
	if distance > 0 {
		pace = elapsed.Seconds() / (distance / 1000)
	}

	return Stats{
		Elapsed:        elapsed,
		Distance:       distance,
		Speed:          s.processor.CurrentSpeed(),
		Pace:           pace,
		Progress:       100 * float64(state.CurrentWaypointIndex) / float64(len(s.course.Waypoints)),
		DistanceToNext: state.DistanceToNextWaypoint,
		IsOffRoute:     state.IsOffRoute,
		WaypointIndex:  state.CurrentWaypointIndex,
	}
}

// ExportKML writes the recorded track as a KML running record
func (s *Session) ExportKML(w io.Writer) error {
	stats := s.Stats()
	return record.WriteKML(w, record.Meta{
		SessionID:  s.id,
		CourseName: s.course.Name,
		StartedAt:  s.startedAt,
		Distance:   stats.Distance,
		Elapsed:    stats.Elapsed,
	}, s.processor.History())
}
