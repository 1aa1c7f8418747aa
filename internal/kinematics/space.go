// Package kinematics moves agents toward their steering targets. It stands in
// for the host game's movement code so the navigation core can be run
// headless and in the viewer. Bodies live in a chipmunk space with no shapes:
// collision is left to the separation pass.
package kinematics

import (
	"math"

	"github.com/jakecoffman/cp"

	"github.com/Garsondee/Ship-Sense/internal/config"
)

// movingSpeed is the speed under which a body reports itself as stationary.
const movingSpeed = 1.0

// Body is one agent's motion state. Target, Aim, HasAim and Speed are inputs;
// Position, Velocity, Rotation and Moving are read back after Integrate.
type Body struct {
	Key      uint64
	Position cp.Vector
	Velocity cp.Vector
	Rotation float64
	Speed    float64
	Radius   float64

	Target cp.Vector
	Aim    cp.Vector
	HasAim bool

	Moving bool
}

// Space integrates bodies on a chipmunk space, one cp.Body per key.
type Space struct {
	cfg    config.Kinematics
	space  *cp.Space
	bodies map[uint64]*cp.Body
}

// NewSpace returns an empty integrator.
func NewSpace(cfg config.Kinematics) *Space {
	space := cp.NewSpace()
	space.SetGravity(cp.Vector{})
	space.SetDamping(cfg.Damping)
	return &Space{
		cfg:    cfg,
		space:  space,
		bodies: make(map[uint64]*cp.Body),
	}
}

// SetConfig swaps the tunables.
func (s *Space) SetConfig(cfg config.Kinematics) {
	s.cfg = cfg
	s.space.SetDamping(cfg.Damping)
}

// Len is the number of tracked bodies.
func (s *Space) Len() int { return len(s.bodies) }

// Integrate steers every body toward its target for dt seconds and writes the
// result back in place.
func (s *Space) Integrate(dt float64, bodies []Body) {
	if dt <= 0 {
		return
	}
	blend := math.Min(1, s.cfg.Acceleration*dt)
	for i := range bodies {
		b := &bodies[i]
		cb := s.ensure(b)
		cb.SetPosition(b.Position)
		cb.SetVelocityVector(b.Velocity.Lerp(s.arrive(b), blend))
	}

	s.space.Step(dt)

	for i := range bodies {
		b := &bodies[i]
		cb := s.bodies[b.Key]
		b.Position = cb.Position()
		b.Velocity = cb.Velocity()
		b.Moving = b.Velocity.Length() > movingSpeed
		b.Rotation = s.turn(b, dt)
		cb.SetAngle(b.Rotation)
	}
}

// Forget drops the body for key. Unknown keys are ignored.
func (s *Space) Forget(key uint64) {
	cb, ok := s.bodies[key]
	if !ok {
		return
	}
	s.space.RemoveBody(cb)
	delete(s.bodies, key)
}

func (s *Space) ensure(b *Body) *cp.Body {
	if cb, ok := s.bodies[b.Key]; ok {
		return cb
	}
	r := math.Max(b.Radius, 1)
	cb := cp.NewBody(1, cp.MomentForCircle(1, 0, r, cp.Vector{}))
	cb.SetAngle(b.Rotation)
	s.space.AddBody(cb)
	s.bodies[b.Key] = cb
	return cb
}

// arrive is the desired velocity: full speed toward the target, easing off
// inside the braking distance.
func (s *Space) arrive(b *Body) cp.Vector {
	to := b.Target.Sub(b.Position)
	d := to.Length()
	if d < movingSpeed || b.Speed <= 0 {
		return cp.Vector{}
	}
	speed := b.Speed
	if s.cfg.Acceleration > 0 {
		if brake := b.Speed / s.cfg.Acceleration; d < brake {
			speed *= d / brake
		}
	}
	return to.Mult(speed / d)
}

// turn rotates toward the aim point, or the direction of travel, by at most
// TurnRate*dt.
func (s *Space) turn(b *Body, dt float64) float64 {
	var face cp.Vector
	if b.HasAim {
		face = b.Aim.Sub(b.Position)
	} else if b.Moving {
		face = b.Velocity
	}
	if face.LengthSq() < 1e-12 {
		return b.Rotation
	}
	want := math.Atan2(face.Y, face.X)
	diff := math.Remainder(want-b.Rotation, 2*math.Pi)
	maxStep := s.cfg.TurnRate * dt
	if math.Abs(diff) <= maxStep {
		return want
	}
	return b.Rotation + math.Copysign(maxStep, diff)
}
