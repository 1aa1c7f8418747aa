// Package simtest is a headless scenario harness around sim.Sim, shared by
// scenario tests and the headless report runner.
package simtest

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/jakecoffman/cp"

	"github.com/Garsondee/Ship-Sense/internal/behavior"
	"github.com/Garsondee/Ship-Sense/internal/config"
	"github.com/Garsondee/Ship-Sense/internal/sim"
	"github.com/Garsondee/Ship-Sense/internal/steer"
)

// TickDT is the fixed step every harness run uses.
const TickDT = 1.0 / 60.0

// Default agent tuning for harness spawns.
const (
	DefaultRadius    = 100.0
	DefaultSpeed     = 300.0
	DefaultMaxHealth = 100.0
	PlayerRadius     = 150.0
	PlayerSpeed      = 350.0
)

// TestSim drives a sim.Sim with scripted inputs.
type TestSim struct {
	Sim    *sim.Sim
	SimLog *sim.SimLog
	Config config.Config

	// IDs maps the harness' own agent numbers to sim IDs.
	IDs map[int]sim.AgentID

	seed       int64
	logger     *log.Logger
	playerPath []cp.Vector
	playerIdx  int
	shotDamage float64
	shotsFired int
	tick       int
}

// simOptionKind controls the pass in which an option is applied.
type simOptionKind int

const (
	simOptInfra  simOptionKind = iota // seed, config, logging: applied first
	simOptAgent                       // spawns: applied once the sim exists
	simOptScript                      // player scripts: applied after spawns
)

// SimOption is a builder function applied to a TestSim during construction.
type SimOption struct {
	kind simOptionKind
	fn   func(*TestSim)
}

// WithSeed sets the RNG seed for deterministic runs.
func WithSeed(seed int64) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) { ts.seed = seed }}
}

// WithVerbose enables per-tick verbose logging.
func WithVerbose(v bool) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) { ts.SimLog = sim.NewSimLog(v) }}
}

// WithConfig replaces the default tuning.
func WithConfig(cfg config.Config) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) { ts.Config = cfg }}
}

// WithTuning edits the tuning in place.
func WithTuning(edit func(*config.Config)) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) { edit(&ts.Config) }}
}

// WithLogger routes the sim's debug logging.
func WithLogger(l *log.Logger) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) { ts.logger = l }}
}

// WithAlly spawns a friendly agent at (x,y).
func WithAlly(id int, x, y float64) SimOption {
	return WithAgent(id, DefaultSpec(behavior.KindAlly, x, y))
}

// WithHostile spawns a hostile agent at (x,y).
func WithHostile(id int, x, y float64) SimOption {
	return WithAgent(id, DefaultSpec(behavior.KindHostile, x, y))
}

// WithAgent spawns an agent from a full spec.
func WithAgent(id int, spec sim.AgentSpec) SimOption {
	return SimOption{simOptAgent, func(ts *TestSim) {
		ts.IDs[id] = ts.Sim.Spawn(spec)
	}}
}

// WithPlayer places a stationary player at (x,y).
func WithPlayer(x, y float64) SimOption {
	return SimOption{simOptAgent, func(ts *TestSim) {
		ts.Sim.SpawnPlayer(sim.AgentSpec{
			Kinematics: sim.Kinematics{
				Position: cp.Vector{X: x, Y: y},
				Speed:    PlayerSpeed,
				Radius:   PlayerRadius,
			},
			MaxHealth: DefaultMaxHealth,
		})
	}}
}

// WithPlayerRoute makes the player fly between points in a loop.
func WithPlayerRoute(points ...cp.Vector) SimOption {
	return SimOption{simOptScript, func(ts *TestSim) { ts.playerPath = points }}
}

// WithShotDamage makes every fire request hit the player for dmg.
func WithShotDamage(dmg float64) SimOption {
	return SimOption{simOptScript, func(ts *TestSim) { ts.shotDamage = dmg }}
}

// DefaultSpec is the harness' standard agent.
func DefaultSpec(kind behavior.Kind, x, y float64) sim.AgentSpec {
	return sim.AgentSpec{
		Kind: kind,
		Kinematics: sim.Kinematics{
			Position:            cp.Vector{X: x, Y: y},
			Speed:               DefaultSpeed,
			Radius:              DefaultRadius,
			LookAheadMultiplier: 1,
		},
		MaxHealth: DefaultMaxHealth,
	}
}

// NewTestSim constructs a TestSim from the given options in ordered passes:
//  1. Infrastructure (seed, config, verbose)
//  2. Build the Sim
//  3. Agents
//  4. Scripts
func NewTestSim(opts ...SimOption) *TestSim {
	ts := &TestSim{
		Config: config.Default(),
		SimLog: sim.NewSimLog(false),
		IDs:    map[int]sim.AgentID{},
		seed:   1,
	}
	for _, o := range opts {
		if o.kind == simOptInfra {
			o.fn(ts)
		}
	}
	simOpts := []sim.Option{sim.WithSeed(ts.seed), sim.WithSimLog(ts.SimLog)}
	if ts.logger != nil {
		simOpts = append(simOpts, sim.WithLogger(ts.logger))
	}
	ts.Sim = sim.New(ts.Config, simOpts...)
	for _, o := range opts {
		if o.kind == simOptAgent {
			o.fn(ts)
		}
	}
	for _, o := range opts {
		if o.kind == simOptScript {
			o.fn(ts)
		}
	}
	return ts
}

// ID returns the sim ID for a harness agent number.
func (ts *TestSim) ID(id int) sim.AgentID { return ts.IDs[id] }

// Agent returns the current state of a harness agent.
func (ts *TestSim) Agent(id int) (sim.Agent, bool) { return ts.Sim.Agent(ts.IDs[id]) }

// RunTicks advances the simulation n ticks.
func (ts *TestSim) RunTicks(n int) {
	for i := 0; i < n; i++ {
		ts.runOneTick()
	}
}

// RunUntil advances the simulation up to maxTicks, stopping early if predicate
// returns true. Returns the tick at which the predicate was satisfied, or -1.
func (ts *TestSim) RunUntil(predicate func(*TestSim) bool, maxTicks int) int {
	for i := 0; i < maxTicks; i++ {
		ts.runOneTick()
		if predicate(ts) {
			return ts.tick
		}
	}
	return -1
}

func (ts *TestSim) runOneTick() {
	ts.tick++
	ts.movePlayer()
	ts.Sim.Step(TickDT)
	ts.resolveShots()
}

// movePlayer advances the scripted player toward its next route point.
func (ts *TestSim) movePlayer() {
	pid, ok := ts.Sim.Player()
	if !ok || len(ts.playerPath) == 0 {
		return
	}
	p, _ := ts.Sim.Agent(pid)
	k := p.Kinematics
	goal := ts.playerPath[ts.playerIdx]
	to := goal.Sub(k.Position)
	dir, moving := steer.Unit(to)
	step := k.Speed * TickDT
	if to.Length() <= step {
		k.Position = goal
		ts.playerIdx = (ts.playerIdx + 1) % len(ts.playerPath)
	} else {
		k.Position = k.Position.Add(dir.Mult(step))
	}
	k.Velocity = dir.Mult(k.Speed)
	k.Moving = moving
	ts.Sim.SetKinematics(pid, k)
}

func (ts *TestSim) resolveShots() {
	shots := ts.Sim.Shots()
	ts.shotsFired += len(shots)
	if ts.shotDamage <= 0 {
		return
	}
	pid, ok := ts.Sim.Player()
	if !ok {
		return
	}
	for range shots {
		ts.Sim.ApplyDamage(pid, ts.shotDamage)
	}
}

// ShotsFired counts fire requests over the whole run.
func (ts *TestSim) ShotsFired() int { return ts.shotsFired }

// CurrentTick returns the current simulation tick.
func (ts *TestSim) CurrentTick() int {
	return ts.tick
}

// Snapshot returns the current state of every agent.
func (ts *TestSim) Snapshot() []sim.AgentSnapshot {
	return ts.Sim.Snapshot()
}

// Summary formats the SimLog summary for t.Log output.
func (ts *TestSim) Summary() string {
	return ts.SimLog.Summary(ts.tick, ts.Snapshot())
}

// Describe is a one-line status of a harness agent for failure messages.
func (ts *TestSim) Describe(id int) string {
	in, ok := ts.Sim.Inspect(ts.IDs[id])
	if !ok {
		return fmt.Sprintf("#%d gone", id)
	}
	k := in.Agent.Kinematics
	return fmt.Sprintf("#%d %s at (%.0f,%.0f) hp=%.0f/%.0f path=%d",
		id, in.Behavior.State, k.Position.X, k.Position.Y, in.Agent.Health, in.Agent.MaxHealth, len(in.Path.Waypoints))
}
