package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 20.0, cfg.Tracking.AccuracyCutoff)
	assert.Equal(t, 5.0, cfg.Tracking.MinDistance)
	assert.Equal(t, 5.0, cfg.Guidance.OffRouteThreshold)
	assert.Equal(t, 2.0, cfg.Guidance.WaypointReachedThreshold)
	assert.Equal(t, 20.0, cfg.Guidance.TurnWarningDistance)
	assert.Equal(t, 1000.0, cfg.Guidance.DistanceAnnouncementInterval)
	assert.Equal(t, 5*time.Second, cfg.Guidance.OffRouteRepeatInterval)
	assert.True(t, cfg.Guidance.VoiceGuidanceEnabled)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runguide.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
tracking:
  accuracy_cutoff: 35
guidance:
  off_route_threshold: 12
  voice_guidance_enabled: false
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 35.0, cfg.Tracking.AccuracyCutoff)
	assert.Equal(t, 12.0, cfg.Guidance.OffRouteThreshold)
	assert.False(t, cfg.Guidance.VoiceGuidanceEnabled)
	// Untouched keys keep their defaults
	assert.Equal(t, 5.0, cfg.Tracking.MinDistance)
	assert.Equal(t, 2.0, cfg.Guidance.WaypointReachedThreshold)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("RUNGUIDE_GUIDANCE__OFF_ROUTE_THRESHOLD", "8")
	t.Setenv("RUNGUIDE_TRACKING__MIN_DISTANCE", "3")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8.0, cfg.Guidance.OffRouteThreshold)
	assert.Equal(t, 3.0, cfg.Tracking.MinDistance)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Guidance, cfg.Guidance)
}
