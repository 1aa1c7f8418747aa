// Package sim runs the navigation core over a set of agents: behavior
// transitions, destination selection, path planning against a per-query
// obstacle grid, steering, the hard separation pass and progress bookkeeping,
// in that order, once per tick.
package sim

import (
	"fmt"
	"io"
	"math/rand"

	"github.com/charmbracelet/log"
	"github.com/jakecoffman/cp"

	"github.com/Garsondee/Ship-Sense/internal/behavior"
	"github.com/Garsondee/Ship-Sense/internal/config"
	"github.com/Garsondee/Ship-Sense/internal/kinematics"
	"github.com/Garsondee/Ship-Sense/internal/nav"
	"github.com/Garsondee/Ship-Sense/internal/steer"
)

// Integrator moves agents toward their targets between Plan and Settle.
type Integrator interface {
	Integrate(dt float64, bodies []kinematics.Body)
	Forget(key uint64)
}

// Option configures a Sim at construction.
type Option func(*Sim)

// WithSeed seeds the random source shared by every behavior roll.
func WithSeed(seed int64) Option {
	return func(s *Sim) {
		s.rng = rand.New(rand.NewSource(seed)) // #nosec G404 -- gameplay randomness
	}
}

// WithLogger routes debug logging to l.
func WithLogger(l *log.Logger) Option {
	return func(s *Sim) { s.logger = l }
}

// WithSimLog records events into sl.
func WithSimLog(sl *SimLog) Option {
	return func(s *Sim) { s.simLog = sl }
}

// WithIntegrator replaces the bundled chipmunk integrator used by Step.
func WithIntegrator(in Integrator) Option {
	return func(s *Sim) { s.integrator = in }
}

// Sim owns every agent and its per-agent records. It is not safe for
// concurrent use.
type Sim struct {
	cfg        config.Config
	rng        *rand.Rand
	logger     *log.Logger
	simLog     *SimLog
	integrator Integrator

	grid    *nav.ObstacleGrid
	planner *nav.Planner
	machine *behavior.Machine

	arena arena
	// Dense per-slot records, indexed by AgentID.Index.
	agents    []Agent
	hasRecord []bool
	behaviors []behavior.Record
	paths     []nav.PathRecord
	scratch   []steer.Scratch
	outputs   []Output
	damaged   []bool
	dying     []bool

	player    AgentID
	hasPlayer bool

	shots      []Shot
	separation steer.SeparationStats
	tick       int
}

// New builds a simulation over cfg. cfg is assumed valid.
func New(cfg config.Config, opts ...Option) *Sim {
	s := &Sim{cfg: cfg}
	for _, o := range opts {
		o(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(1)) // #nosec G404 -- gameplay randomness
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard)
	}
	if s.simLog == nil {
		s.simLog = NewSimLog(false)
	}
	if s.integrator == nil {
		s.integrator = kinematics.NewSpace(cfg.Kinematics)
	}
	s.grid = nav.NewObstacleGridFromConfig(cfg.World)
	s.planner = nav.NewPlanner(s.grid, cfg.Planner)
	s.machine = behavior.NewMachine(cfg.Behavior, s.rng)
	return s
}

// Config returns the active tunables.
func (s *Sim) Config() config.Config { return s.cfg }

// SetConfig swaps the tunables. A change of world geometry rebuilds the grid
// and drops every plan, since waypoints refer to the old cells.
func (s *Sim) SetConfig(cfg config.Config) {
	worldChanged := cfg.World != s.cfg.World
	s.cfg = cfg
	s.machine.SetConfig(cfg.Behavior)
	if ks, ok := s.integrator.(interface{ SetConfig(config.Kinematics) }); ok {
		ks.SetConfig(cfg.Kinematics)
	}
	if worldChanged {
		s.grid = nav.NewObstacleGridFromConfig(cfg.World)
		s.planner = nav.NewPlanner(s.grid, cfg.Planner)
		for i := range s.paths {
			s.paths[i].Reset()
		}
	} else {
		s.planner.SetConfig(cfg.Planner)
	}
	s.logger.Info("config applied", "world_changed", worldChanged, "heuristic", cfg.Planner.Heuristic)
}

// SimLog returns the event log.
func (s *Sim) SimLog() *SimLog { return s.simLog }

// Tick is the number of completed Plan calls.
func (s *Sim) Tick() int { return s.tick }

// Bounds is the box every destination and target is clamped into.
func (s *Sim) Bounds() nav.Rect { return s.grid.Interior() }

// World is the full world rectangle.
func (s *Sim) World() nav.Rect { return s.grid.Bounds() }

// PlannerStats exposes the planner counters.
func (s *Sim) PlannerStats() nav.Stats { return s.planner.Stats() }

// SeparationStats is the result of the last separation pass.
func (s *Sim) SeparationStats() steer.SeparationStats { return s.separation }

// Spawn adds a non-player agent. Its behavior records are created on its
// first Plan.
func (s *Sim) Spawn(spec AgentSpec) AgentID {
	if spec.Kind == behavior.KindPlayer {
		return s.SpawnPlayer(spec)
	}
	return s.add(spec)
}

// SpawnPlayer adds the player, replacing any previous one. The player is
// steered by the host: it gets no behavior, plan or output.
func (s *Sim) SpawnPlayer(spec AgentSpec) AgentID {
	if s.hasPlayer {
		s.Destroy(s.player)
	}
	spec.Kind = behavior.KindPlayer
	id := s.add(spec)
	s.player, s.hasPlayer = id, true
	return id
}

// Player returns the player's ID.
func (s *Sim) Player() (AgentID, bool) { return s.player, s.hasPlayer }

func (s *Sim) add(spec AgentSpec) AgentID {
	id, grew := s.arena.alloc()
	if grew {
		s.agents = append(s.agents, Agent{})
		s.hasRecord = append(s.hasRecord, false)
		s.behaviors = append(s.behaviors, behavior.Record{})
		s.paths = append(s.paths, nav.PathRecord{})
		s.scratch = append(s.scratch, steer.Scratch{})
		s.outputs = append(s.outputs, Output{})
		s.damaged = append(s.damaged, false)
		s.dying = append(s.dying, false)
	}
	hp := spec.Health
	if hp <= 0 {
		hp = spec.MaxHealth
	}
	k := spec.Kinematics
	if k.LookAheadMultiplier == 0 {
		k.LookAheadMultiplier = 1
	}
	s.agents[id.Index] = Agent{
		ID:         id,
		Kind:       spec.Kind,
		Kinematics: k,
		Health:     hp,
		MaxHealth:  spec.MaxHealth,
	}
	s.outputs[id.Index] = Output{ID: id, Target: k.Position}
	s.record(id, CatLifecycle, "spawn", fmt.Sprintf("(%.0f,%.0f) r=%.0f", k.Position.X, k.Position.Y, k.Radius), k.Radius)
	s.logger.Debug("agent spawned", "id", id, "kind", spec.Kind, "pos", fmtVec(k.Position))
	return id
}

// Destroy removes the agent and every record kept for it immediately.
func (s *Sim) Destroy(id AgentID) bool {
	if !s.arena.valid(id) {
		return false
	}
	s.purge(id, "destroyed")
	return true
}

// Replace swaps an agent's identity, as when a ship changes class. The old
// agent's records are purged and a new agent takes over its position,
// velocity and rotation; everything else comes from spec.
func (s *Sim) Replace(id AgentID, spec AgentSpec) (AgentID, bool) {
	if !s.arena.valid(id) {
		return AgentID{}, false
	}
	old := s.agents[id.Index]
	wasPlayer := s.hasPlayer && s.player == id
	s.purge(id, "replaced")

	spec.Kinematics.Position = old.Kinematics.Position
	spec.Kinematics.Velocity = old.Kinematics.Velocity
	spec.Kinematics.Rotation = old.Kinematics.Rotation
	if wasPlayer {
		return s.SpawnPlayer(spec), true
	}
	return s.Spawn(spec), true
}

// ApplyDamage lowers health and raises the damage trigger for the next Plan.
// Lethal damage marks the agent for removal at the end of the current tick.
func (s *Sim) ApplyDamage(id AgentID, amount float64) bool {
	if !s.arena.valid(id) || s.dying[id.Index] {
		return false
	}
	a := &s.agents[id.Index]
	a.Health -= amount
	s.damaged[id.Index] = true
	s.record(id, CatCombat, "damaged", fmt.Sprintf("-%.1f → %.1f/%.1f", amount, a.Health, a.MaxHealth), amount)
	if a.Health <= 0 {
		s.dying[id.Index] = true
		s.record(id, CatLifecycle, "lethal", "", a.Health)
	}
	return true
}

// SetHealth overwrites health without raising the damage trigger. Health at
// or above max ends Flee on the next Plan.
func (s *Sim) SetHealth(id AgentID, hp float64) bool {
	if !s.arena.valid(id) || s.dying[id.Index] {
		return false
	}
	a := &s.agents[id.Index]
	a.Health = hp
	if a.Health <= 0 {
		s.dying[id.Index] = true
		s.record(id, CatLifecycle, "lethal", "", a.Health)
	}
	return true
}

// SetKinematics refreshes the host-owned motion state.
func (s *Sim) SetKinematics(id AgentID, k Kinematics) bool {
	if !s.arena.valid(id) {
		return false
	}
	s.agents[id.Index].Kinematics = k
	return true
}

// Agent returns a copy of the agent.
func (s *Sim) Agent(id AgentID) (Agent, bool) {
	if !s.arena.valid(id) {
		return Agent{}, false
	}
	return s.agents[id.Index], true
}

// Agents returns every live agent in slot order.
func (s *Sim) Agents() []Agent {
	out := make([]Agent, 0, s.arena.count())
	for i := 0; i < s.arena.size(); i++ {
		if _, ok := s.arena.idAt(i); ok {
			out = append(out, s.agents[i])
		}
	}
	return out
}

// Inspect returns every record kept for id.
func (s *Sim) Inspect(id AgentID) (Inspection, bool) {
	if !s.arena.valid(id) {
		return Inspection{}, false
	}
	i := id.Index
	return Inspection{
		Agent:      s.agents[i],
		Behavior:   s.behaviors[i],
		Path:       s.paths[i],
		Scratch:    s.scratch[i],
		Output:     s.outputs[i],
		HasRecords: s.hasRecord[i],
	}, true
}

// Output returns the last tick's output for id.
func (s *Sim) Output(id AgentID) (Output, bool) {
	if !s.arena.valid(id) || !s.hasRecord[id.Index] {
		return Output{}, false
	}
	return s.outputs[id.Index], true
}

// Outputs returns the last tick's output for every non-player agent.
func (s *Sim) Outputs() []Output {
	var out []Output
	for i := 0; i < s.arena.size(); i++ {
		if _, ok := s.arena.idAt(i); ok && s.hasRecord[i] {
			out = append(out, s.outputs[i])
		}
	}
	return out
}

// Shots returns the fire requests raised by the last Plan.
func (s *Sim) Shots() []Shot { return s.shots }

// PathOf returns a copy of the agent's active waypoints.
func (s *Sim) PathOf(id AgentID) []cp.Vector {
	if !s.arena.valid(id) || !s.paths[id.Index].Active {
		return nil
	}
	return append([]cp.Vector(nil), s.paths[id.Index].Waypoints...)
}

// DebugGrid projects the grid as last built.
func (s *Sim) DebugGrid() (cols, rows int, walkable []bool) {
	return s.grid.Cols(), s.grid.Rows(), s.grid.Walkability()
}

// Grid is the obstacle grid, for overlays.
func (s *Sim) Grid() *nav.ObstacleGrid { return s.grid }

// RecordCount is the number of agents holding behavior records.
func (s *Sim) RecordCount() int {
	n := 0
	for i := 0; i < s.arena.size(); i++ {
		if s.hasRecord[i] {
			n++
		}
	}
	return n
}

// ActivePaths is the number of active path records.
func (s *Sim) ActivePaths() int {
	n := 0
	for i := range s.paths {
		if s.paths[i].Active {
			n++
		}
	}
	return n
}

// purge drops every record for id and frees its slot.
func (s *Sim) purge(id AgentID, reason string) {
	i := id.Index
	s.record(id, CatLifecycle, reason, fmt.Sprintf("records=%v path=%v", s.hasRecord[i], s.paths[i].Active), 0)
	s.logger.Debug("agent removed", "id", id, "reason", reason)

	s.hasRecord[i] = false
	s.behaviors[i] = behavior.Record{}
	s.paths[i].Reset()
	s.scratch[i] = steer.Scratch{}
	s.outputs[i] = Output{}
	s.damaged[i] = false
	s.dying[i] = false
	s.integrator.Forget(id.Key())
	if s.hasPlayer && s.player == id {
		s.hasPlayer = false
	}
	s.arena.release(id)
}

func (s *Sim) record(id AgentID, category, key, value string, num float64) {
	s.simLog.Add(s.tick, id.String(), s.agents[id.Index].Kind.String(), category, key, value, num)
}

func fmtVec(v cp.Vector) string { return fmt.Sprintf("(%.0f,%.0f)", v.X, v.Y) }

// Snapshot copies every live agent in slot order.
func (s *Sim) Snapshot() []AgentSnapshot {
	out := make([]AgentSnapshot, 0, s.arena.count())
	for i := 0; i < s.arena.size(); i++ {
		id, ok := s.arena.idAt(i)
		if !ok {
			continue
		}
		a := s.agents[i]
		out = append(out, AgentSnapshot{
			ID:         id,
			Label:      id.String(),
			Kind:       a.Kind,
			Position:   a.Kinematics.Position,
			Velocity:   a.Kinematics.Velocity,
			Health:     a.Health,
			MaxHealth:  a.MaxHealth,
			Moving:     a.Kinematics.Moving,
			State:      s.behaviors[i].State,
			PathActive: s.paths[i].Active,
			Waypoints:  len(s.paths[i].Waypoints),
			StuckTime:  s.scratch[i].StuckTime,
		})
	}
	return out
}
