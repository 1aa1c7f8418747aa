package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_Validates(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestDefault_HistoricalHeuristic(t *testing.T) {
	cfg := Default()
	assert.Equal(t, HeuristicManhattan, cfg.Planner.Heuristic)
	assert.Equal(t, 128.0, cfg.World.CellSize)
	assert.Equal(t, 0.8, cfg.Separation.SevereFraction)
}

func TestParse_OverlaysDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
planner:
  heuristic: octile
behavior:
  idle_probability: 0.5
  flee_duration: 9
`))
	require.NoError(t, err)
	assert.Equal(t, HeuristicOctile, cfg.Planner.Heuristic)
	assert.Equal(t, 0.5, cfg.Behavior.IdleProbability)
	assert.Equal(t, 9.0, cfg.Behavior.FleeDuration)
	// Untouched keys keep the shipped value.
	assert.Equal(t, Default().Planner.MinWaypointSpacing, cfg.Planner.MinWaypointSpacing)
	assert.Equal(t, Default().Behavior.PatrolDuration, cfg.Behavior.PatrolDuration)
}

func TestParse_RejectsUnknownHeuristic(t *testing.T) {
	_, err := Parse([]byte("planner:\n  heuristic: dijkstra\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalid))
}

func TestParse_RejectsMalformedYAML(t *testing.T) {
	_, err := Parse([]byte("planner: [unterminated"))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrInvalid))
}

func TestValidate_Ranges(t *testing.T) {
	cases := map[string]func(*Config){
		"empty world":        func(c *Config) { c.World.MaxX = c.World.MinX },
		"zero cell":          func(c *Config) { c.World.CellSize = 0 },
		"inverted band":      func(c *Config) { c.Steering.BandInner = 1.4 },
		"radial weight":      func(c *Config) { c.Steering.RadialFar = 1.2 },
		"severe fraction":    func(c *Config) { c.Separation.SevereFraction = 0 },
		"idle probability":   func(c *Config) { c.Behavior.IdleProbability = -0.1 },
		"duration order":     func(c *Config) { c.Behavior.WanderDuration = Range{Min: 5, Max: 1} },
		"patrol points":      func(c *Config) { c.Behavior.PatrolPointsMin = 2 },
		"no interior":        func(c *Config) { c.World.BoundaryMargin = 5000 },
		"trapped after zero": func(c *Config) { c.Progress.TrappedAfter = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestShippedTuningFile(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "configs", "tuning.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.yaml")
	require.NoError(t, os.WriteFile(path, []byte("behavior:\n  idle_probability: 0.3\n"), 0o644))

	w, err := NewWatcher(path)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte("behavior:\n  idle_probability: 0.6\n"), 0o644))

	select {
	case r := <-w.Reloads:
		require.NoError(t, r.Err)
		assert.Equal(t, 0.6, r.Config.Behavior.IdleProbability)
	case <-time.After(3 * time.Second):
		t.Fatal("no reload delivered after write")
	}
}

func TestWatcher_IgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0o644))

	w, err := NewWatcher(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("{}\n"), 0o644))

	select {
	case r := <-w.Reloads:
		t.Fatalf("unexpected reload from sibling file: %+v", r)
	case <-time.After(300 * time.Millisecond):
	}
	require.NoError(t, w.Close())
}
