package sim

import (
	"github.com/jakecoffman/cp"

	"github.com/Garsondee/Ship-Sense/internal/behavior"
	"github.com/Garsondee/Ship-Sense/internal/nav"
	"github.com/Garsondee/Ship-Sense/internal/steer"
)

// Kinematics is the motion state the host owns and refreshes every tick.
type Kinematics struct {
	Position            cp.Vector
	Velocity            cp.Vector
	Rotation            float64
	Speed               float64
	Radius              float64
	LookAheadMultiplier float64
	Moving              bool
}

func (k Kinematics) body() steer.Body {
	return steer.Body{
		Position:            k.Position,
		Velocity:            k.Velocity,
		Rotation:            k.Rotation,
		Speed:               k.Speed,
		Radius:              k.Radius,
		LookAheadMultiplier: k.LookAheadMultiplier,
	}
}

func (k Kinematics) circle() steer.Circle {
	return steer.Circle{Center: k.Position, Radius: k.Radius}
}

// AgentSpec describes an agent to spawn. Zero Health means full health.
type AgentSpec struct {
	Kind       behavior.Kind
	Kinematics Kinematics
	MaxHealth  float64
	Health     float64
}

// Agent is the host-visible state of one agent.
type Agent struct {
	ID         AgentID
	Kind       behavior.Kind
	Kinematics Kinematics
	Health     float64
	MaxHealth  float64
}

// Output is what the host reads back for one agent after a tick.
type Output struct {
	ID     AgentID
	Target cp.Vector
	Aim    cp.Vector
	HasAim bool
	State  behavior.State
	Fire   bool
	// Planned is true when Target follows a planner path.
	Planned bool
}

// Label is the behavior name shown to players and in logs.
func (o Output) Label() string { return o.State.String() }

// Shot is a fire request raised by an aggressive agent.
type Shot struct {
	Tick   int
	From   AgentID
	Origin cp.Vector
	Target cp.Vector
}

// Inspection bundles everything the core keeps for one agent.
type Inspection struct {
	Agent    Agent
	Behavior behavior.Record
	Path     nav.PathRecord
	Scratch  steer.Scratch
	Output   Output
	// HasRecords is false until the agent's first behavior evaluation.
	HasRecords bool
}

// AgentSnapshot is a lightweight copy of one agent at a tick.
type AgentSnapshot struct {
	ID         AgentID
	Label      string
	Kind       behavior.Kind
	Position   cp.Vector
	Velocity   cp.Vector
	Health     float64
	MaxHealth  float64
	Moving     bool
	State      behavior.State
	PathActive bool
	Waypoints  int
	StuckTime  float64
}
