package behavior

import (
	"math/rand"

	"github.com/jakecoffman/cp"

	"github.com/Garsondee/Ship-Sense/internal/config"
)

// Record is the per-agent behavior state.
type Record struct {
	State         State
	TimeRemaining float64

	PatrolWaypoints []cp.Vector
	PatrolIndex     int

	Destination    cp.Vector
	HasDestination bool
	LastHeading    cp.Vector

	StrafeSign   float64
	FireCooldown float64
}

// Inputs are the per-tick facts transitions depend on.
type Inputs struct {
	Kind          Kind
	Damaged       bool
	HealthFull    bool
	TargetInRange bool
	DT            float64
}

// Machine evaluates transitions and destination policies with an injected
// random source.
type Machine struct {
	cfg config.Behavior
	rng *rand.Rand
}

// NewMachine returns a machine drawing from rng.
func NewMachine(cfg config.Behavior, rng *rand.Rand) *Machine {
	return &Machine{cfg: cfg, rng: rng}
}

// SetConfig swaps the tunables.
func (m *Machine) SetConfig(cfg config.Behavior) { m.cfg = cfg }

// Config returns the active tunables.
func (m *Machine) Config() config.Behavior { return m.cfg }

// NewRecord rolls the initial roaming state for a fresh agent.
func (m *Machine) NewRecord() Record {
	st, t := Reselect(m.rng, m.cfg)
	return Record{State: st, TimeRemaining: t}
}

// Evaluate applies this tick's triggers in precedence order: damage, health
// recovery while fleeing, target detection or loss, then the timer. At most
// one state change happens per tick. It returns the state held before the
// call and whether it changed.
func (m *Machine) Evaluate(rec *Record, in Inputs) (prev State, changed bool) {
	prev = rec.State
	st, t := rec.State, rec.TimeRemaining

	switch {
	case in.Damaged:
		st, t = Next(st, t, Event{Kind: EventDamaged}, in.Kind, m.rng, m.cfg)
	case st == StateFlee && in.HealthFull:
		st, t = Next(st, t, Event{Kind: EventHealthFull}, in.Kind, m.rng, m.cfg)
	case in.TargetInRange && in.Kind == KindHostile && st != StateFlee && st != StateAggressive:
		st, t = Next(st, t, Event{Kind: EventTargetInRange}, in.Kind, m.rng, m.cfg)
	case st == StateAggressive && !in.TargetInRange:
		st, t = Next(st, t, Event{Kind: EventTargetLost}, in.Kind, m.rng, m.cfg)
	default:
		st, t = Next(st, t, Tick(in.DT), in.Kind, m.rng, m.cfg)
	}

	rec.TimeRemaining = t
	// Repeated damage restarts Flee without counting as a change of state.
	if st == prev && !(in.Damaged && prev == StateFlee) {
		rec.State = st
		return prev, false
	}
	m.enter(rec, prev, st)
	return prev, st != prev
}

// enter resets the per-state scratch left behind by the previous state.
func (m *Machine) enter(rec *Record, prev, next State) {
	rec.State = next
	rec.HasDestination = false
	if prev == StatePatrol {
		rec.PatrolWaypoints = nil
		rec.PatrolIndex = 0
	}
	if prev == StateAggressive {
		rec.StrafeSign = 0
	}
}
