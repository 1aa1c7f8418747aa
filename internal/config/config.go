// Package config holds the navigation tunables and loads them from YAML.
//
// Every threshold, band multiplier and duration the navigation core uses lives
// here as a plain value. Default returns the shipped tuning; Load overlays a
// YAML file on top of it.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Heuristic names accepted by Planner.Heuristic.
const (
	HeuristicManhattan = "manhattan"
	HeuristicOctile    = "octile"
	HeuristicEuclidean = "euclidean"
)

// Range is an inclusive [Min, Max] interval.
type Range struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// Span returns Max-Min.
func (r Range) Span() float64 { return r.Max - r.Min }

// Config is the full tuning set.
type Config struct {
	World      World      `yaml:"world"`
	Planner    Planner    `yaml:"planner"`
	Steering   Steering   `yaml:"steering"`
	Separation Separation `yaml:"separation"`
	Behavior   Behavior   `yaml:"behavior"`
	Progress   Progress   `yaml:"progress"`
	Kinematics Kinematics `yaml:"kinematics"`
}

// World describes the bounded play area and its grid resolution.
type World struct {
	MinX           float64 `yaml:"min_x"`
	MinY           float64 `yaml:"min_y"`
	MaxX           float64 `yaml:"max_x"`
	MaxY           float64 `yaml:"max_y"`
	CellSize       float64 `yaml:"cell_size"`
	BoundaryMargin float64 `yaml:"boundary_margin"`
}

// Width of the world.
func (w World) Width() float64 { return w.MaxX - w.MinX }

// Height of the world.
func (w World) Height() float64 { return w.MaxY - w.MinY }

// Planner tunes A* and path simplification.
type Planner struct {
	Heuristic          string  `yaml:"heuristic"`
	SimplifyAngleDeg   float64 `yaml:"simplify_angle_deg"`
	MinWaypointSpacing float64 `yaml:"min_waypoint_spacing"`
	// ObstacleInflation scales agent radii when stamping them into the grid.
	ObstacleInflation float64 `yaml:"obstacle_inflation"`
}

// Steering tunes the avoidance force model.
type Steering struct {
	DetectionFactor   float64 `yaml:"detection_factor"`
	BandOuter         float64 `yaml:"band_outer"`
	BandInner         float64 `yaml:"band_inner"`
	RadialFar         float64 `yaml:"radial_far"`
	RadialOuter       float64 `yaml:"radial_outer"`
	RadialInner       float64 `yaml:"radial_inner"`
	RadialPenetrating float64 `yaml:"radial_penetrating"`
	Strength          float64 `yaml:"strength"`
	PenetrationWeight float64 `yaml:"penetration_weight"`
	PlayerRadiusScale float64 `yaml:"player_radius_scale"`
	// StuckSpeed is the per-second displacement under which a moving agent
	// accumulates stuck time.
	StuckSpeed float64 `yaml:"stuck_speed"`
}

// Separation tunes the hard positional correction pass.
type Separation struct {
	SevereFraction float64 `yaml:"severe_fraction"`
	Iterations     int     `yaml:"iterations"`
}

// Behavior tunes the state machine and destination policies.
type Behavior struct {
	IdleProbability      float64 `yaml:"idle_probability"`
	IdleDuration         Range   `yaml:"idle_duration"`
	PatrolDuration       Range   `yaml:"patrol_duration"`
	LongDistanceDuration Range   `yaml:"long_distance_duration"`
	WanderDuration       Range   `yaml:"wander_duration"`
	FleeDuration         float64 `yaml:"flee_duration"`
	DetectionRadius      float64 `yaml:"detection_radius"`
	ArrivalRadius        float64 `yaml:"arrival_radius"`

	PatrolRadius    Range   `yaml:"patrol_radius"`
	PatrolPointsMin int     `yaml:"patrol_points_min"`
	PatrolPointsMax int     `yaml:"patrol_points_max"`
	PatrolMinTravel float64 `yaml:"patrol_min_travel"`

	LongDistanceSpan     Range `yaml:"long_distance_span"`
	LongDistanceAttempts int   `yaml:"long_distance_attempts"`

	WanderDistance      Range   `yaml:"wander_distance"`
	WanderHeadingBlend  float64 `yaml:"wander_heading_blend"`
	WanderMinCenterDist float64 `yaml:"wander_min_center_dist"`
	WanderMinThreatDist float64 `yaml:"wander_min_threat_dist"`
	WanderAttempts      int     `yaml:"wander_attempts"`

	PreferredRange float64 `yaml:"preferred_range"`
	RangeTolerance float64 `yaml:"range_tolerance"`
	AttackRange    float64 `yaml:"attack_range"`
	FireCooldown   float64 `yaml:"fire_cooldown"`
	StrafeOffset   float64 `yaml:"strafe_offset"`

	FleeMinDistance   float64 `yaml:"flee_min_distance"`
	FleeDistanceScale float64 `yaml:"flee_distance_scale"`
}

// Progress tunes stall detection.
type Progress struct {
	MinProgress         float64 `yaml:"min_progress"`
	TrappedAfter        float64 `yaml:"trapped_after"`
	GoalChangeThreshold float64 `yaml:"goal_change_threshold"`
	WaypointReach       float64 `yaml:"waypoint_reach"`
}

// Kinematics tunes the bundled integrator used by the viewer and harness.
type Kinematics struct {
	Acceleration float64 `yaml:"acceleration"`
	Damping      float64 `yaml:"damping"`
	TurnRate     float64 `yaml:"turn_rate"`
}

// Default returns the shipped tuning.
func Default() Config {
	return Config{
		World: World{
			MinX: -5000, MinY: -5000, MaxX: 5000, MaxY: 5000,
			CellSize:       128,
			BoundaryMargin: 128,
		},
		Planner: Planner{
			Heuristic:          HeuristicManhattan,
			SimplifyAngleDeg:   30,
			MinWaypointSpacing: 480,
			ObstacleInflation:  1.0,
		},
		Steering: Steering{
			DetectionFactor:   1.5,
			BandOuter:         1.3,
			BandInner:         1.1,
			RadialFar:         0.2,
			RadialOuter:       0.5,
			RadialInner:       0.7,
			RadialPenetrating: 0.9,
			Strength:          1.0,
			PenetrationWeight: 1.0,
			PlayerRadiusScale: 1.5,
			StuckSpeed:        10,
		},
		Separation: Separation{
			SevereFraction: 0.8,
			Iterations:     4,
		},
		Behavior: Behavior{
			IdleProbability:      0.2,
			IdleDuration:         Range{2, 5},
			PatrolDuration:       Range{10, 20},
			LongDistanceDuration: Range{15, 30},
			WanderDuration:       Range{8, 15},
			FleeDuration:         5,
			DetectionRadius:      1500,
			ArrivalRadius:        150,

			PatrolRadius:    Range{400, 900},
			PatrolPointsMin: 3,
			PatrolPointsMax: 5,
			PatrolMinTravel: 300,

			LongDistanceSpan:     Range{0.75, 1.5},
			LongDistanceAttempts: 8,

			WanderDistance:      Range{1000, 2000},
			WanderHeadingBlend:  0.7,
			WanderMinCenterDist: 800,
			WanderMinThreatDist: 800,
			WanderAttempts:      8,

			PreferredRange: 600,
			RangeTolerance: 150,
			AttackRange:    900,
			FireCooldown:   1.2,
			StrafeOffset:   400,

			FleeMinDistance:   1200,
			FleeDistanceScale: 1.5,
		},
		Progress: Progress{
			MinProgress:         5,
			TrappedAfter:        2,
			GoalChangeThreshold: 200,
			WaypointReach:       128,
		},
		Kinematics: Kinematics{
			Acceleration: 4,
			Damping:      0.9,
			TurnRate:     6,
		},
	}
}

// Load reads a YAML file and overlays it on Default. Keys absent from the file
// keep their default value.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: load %s: %w", path, err)
	}
	return Parse(data)
}

// Parse overlays YAML bytes on Default and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first out-of-range value.
func (c Config) Validate() error {
	w := c.World
	switch {
	case w.Width() <= 0 || w.Height() <= 0:
		return invalid("world bounds are empty")
	case w.CellSize <= 0:
		return invalid("world.cell_size must be positive")
	case w.BoundaryMargin < 0:
		return invalid("world.boundary_margin must not be negative")
	case 2*(w.BoundaryMargin+w.CellSize) >= w.Width() || 2*(w.BoundaryMargin+w.CellSize) >= w.Height():
		return invalid("world has no walkable interior")
	}

	switch c.Planner.Heuristic {
	case HeuristicManhattan, HeuristicOctile, HeuristicEuclidean:
	default:
		return invalid("planner.heuristic %q is not one of manhattan, octile, euclidean", c.Planner.Heuristic)
	}
	if c.Planner.MinWaypointSpacing <= 0 {
		return invalid("planner.min_waypoint_spacing must be positive")
	}
	if c.Planner.ObstacleInflation <= 0 {
		return invalid("planner.obstacle_inflation must be positive")
	}

	s := c.Steering
	if !(s.DetectionFactor >= s.BandOuter && s.BandOuter >= s.BandInner && s.BandInner >= 1) {
		return invalid("steering bands must satisfy detection_factor >= band_outer >= band_inner >= 1")
	}
	for _, v := range []float64{s.RadialFar, s.RadialOuter, s.RadialInner, s.RadialPenetrating} {
		if v < 0 || v > 1 {
			return invalid("steering radial weights must lie in [0,1]")
		}
	}
	if s.PlayerRadiusScale < 1 {
		return invalid("steering.player_radius_scale must be at least 1")
	}

	if c.Separation.SevereFraction <= 0 || c.Separation.SevereFraction > 1 {
		return invalid("separation.severe_fraction must lie in (0,1]")
	}
	if c.Separation.Iterations < 1 {
		return invalid("separation.iterations must be at least 1")
	}

	b := c.Behavior
	if b.IdleProbability < 0 || b.IdleProbability > 1 {
		return invalid("behavior.idle_probability must lie in [0,1]")
	}
	for name, r := range map[string]Range{
		"idle_duration":          b.IdleDuration,
		"patrol_duration":        b.PatrolDuration,
		"long_distance_duration": b.LongDistanceDuration,
		"wander_duration":        b.WanderDuration,
		"patrol_radius":          b.PatrolRadius,
		"long_distance_span":     b.LongDistanceSpan,
		"wander_distance":        b.WanderDistance,
	} {
		if r.Min <= 0 || r.Max < r.Min {
			return invalid("behavior.%s must satisfy 0 < min <= max", name)
		}
	}
	if b.PatrolPointsMin < 3 || b.PatrolPointsMax < b.PatrolPointsMin {
		return invalid("behavior patrol point counts must satisfy 3 <= min <= max")
	}
	if b.FleeDuration <= 0 || b.DetectionRadius <= 0 {
		return invalid("behavior.flee_duration and behavior.detection_radius must be positive")
	}
	if b.WanderHeadingBlend < 0 || b.WanderHeadingBlend > 1 {
		return invalid("behavior.wander_heading_blend must lie in [0,1]")
	}
	if b.LongDistanceAttempts < 1 || b.WanderAttempts < 1 {
		return invalid("behavior destination attempts must be at least 1")
	}
	if b.AttackRange <= 0 || b.PreferredRange <= 0 || b.FireCooldown < 0 {
		return invalid("behavior combat ranges must be positive")
	}

	if c.Progress.TrappedAfter <= 0 || c.Progress.WaypointReach <= 0 {
		return invalid("progress.trapped_after and progress.waypoint_reach must be positive")
	}
	if c.Kinematics.Damping < 0 || c.Kinematics.Damping > 1 {
		return invalid("kinematics.damping must lie in [0,1]")
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("config: %w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}
