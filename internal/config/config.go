package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// envPrefix namespaces environment overrides. Double underscore nests
// sections, e.g. RUNGUIDE_GUIDANCE__OFF_ROUTE_THRESHOLD=10
const envPrefix = "RUNGUIDE_"

// Config is the complete configuration for a guidance session
type Config struct {
	Tracking TrackingConfig `koanf:"tracking" yaml:"tracking"`
	Guidance GuidanceConfig `koanf:"guidance" yaml:"guidance"`
	Replay   ReplayConfig   `koanf:"replay" yaml:"replay"`
}

// TrackingConfig holds location stream processor settings
type TrackingConfig struct {
	AccuracyCutoff float64 `koanf:"accuracy_cutoff" yaml:"accuracy_cutoff"` // meters
	MinDistance    float64 `koanf:"min_distance" yaml:"min_distance"`       // meters
}

// GuidanceConfig holds route guidance engine thresholds
type GuidanceConfig struct {
	OffRouteThreshold            float64       `koanf:"off_route_threshold" yaml:"off_route_threshold"`
	WaypointReachedThreshold     float64       `koanf:"waypoint_reached_threshold" yaml:"waypoint_reached_threshold"`
	TurnWarningDistance          float64       `koanf:"turn_warning_distance" yaml:"turn_warning_distance"`
	ApproachDistance             float64       `koanf:"approach_distance" yaml:"approach_distance"`
	DistanceAnnouncementInterval float64       `koanf:"distance_announcement_interval" yaml:"distance_announcement_interval"`
	OffRouteRepeatInterval       time.Duration `koanf:"off_route_repeat_interval" yaml:"off_route_repeat_interval"`
	VoiceGuidanceEnabled         bool          `koanf:"voice_guidance_enabled" yaml:"voice_guidance_enabled"`
}

// ReplayConfig holds settings for the replay command
type ReplayConfig struct {
	SpeedMPS       float64       `koanf:"speed_mps" yaml:"speed_mps"`             // simulated runner speed
	SampleInterval time.Duration `koanf:"sample_interval" yaml:"sample_interval"` // position emission interval
	AccuracyMeters float64       `koanf:"accuracy_meters" yaml:"accuracy_meters"` // synthetic fix accuracy
	Realtime       bool          `koanf:"realtime" yaml:"realtime"`               // sleep between samples
}

// DefaultConfig returns the defaults observed to work for urban running
func DefaultConfig() *Config {
	return &Config{
		Tracking: TrackingConfig{
			AccuracyCutoff: 20,
			MinDistance:    5,
		},
		Guidance: GuidanceConfig{
			OffRouteThreshold:            5,
			WaypointReachedThreshold:     2,
			TurnWarningDistance:          20,
			ApproachDistance:             100,
			DistanceAnnouncementInterval: 1000,
			OffRouteRepeatInterval:       5 * time.Second,
			VoiceGuidanceEnabled:         true,
		},
		Replay: ReplayConfig{
			SpeedMPS:       3.0, // ~5:30/km pace
			SampleInterval: time.Second,
			AccuracyMeters: 8,
		},
	}
}

// Load builds the config from defaults, an optional YAML file, and
// RUNGUIDE_-prefixed environment variables, in increasing precedence
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	cfg := DefaultConfig()

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("load env config: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return cfg, nil
}
