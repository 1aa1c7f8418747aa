// Package steer turns a destination or a planned path into the single target
// point an agent should head for this tick, bending it around nearby agents.
// It also owns the hard separation pass that runs after kinematics.
package steer

import (
	"math"

	"github.com/jakecoffman/cp"
)

// Body is the steering view of one agent.
type Body struct {
	Position            cp.Vector
	Velocity            cp.Vector
	Rotation            float64
	Speed               float64
	Radius              float64
	LookAheadMultiplier float64
}

// Circle is a blocking footprint.
type Circle struct {
	Center cp.Vector
	Radius float64
}

// Unit normalizes v. ok is false for vectors too short to have a direction.
func Unit(v cp.Vector) (u cp.Vector, ok bool) {
	l := v.Length()
	if l < 1e-9 || math.IsNaN(l) {
		return cp.Vector{}, false
	}
	return v.Mult(1 / l), true
}

// Heading is the direction of travel, or the facing when stationary.
func (b Body) Heading() cp.Vector {
	if h, ok := Unit(b.Velocity); ok {
		return h
	}
	return cp.ForAngle(b.Rotation)
}

// LookAheadDistance is how far ahead the agent probes.
func (b Body) LookAheadDistance() float64 {
	return b.Speed * b.LookAheadMultiplier
}

// LookAheadPoint projects the position along the heading.
func (b Body) LookAheadPoint() cp.Vector {
	return b.Position.Add(b.Heading().Mult(b.LookAheadDistance()))
}
