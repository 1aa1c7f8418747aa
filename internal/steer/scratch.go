package steer

import "github.com/jakecoffman/cp"

// Scratch is per-agent steering memory carried between ticks.
type Scratch struct {
	LastDirection cp.Vector
	LastPosition  cp.Vector
	StuckTime     float64

	seeded bool
}

// Update records this tick's position. StuckTime grows while the agent wants
// to move but covers less than stuckSpeed*dt, and resets otherwise.
func (s *Scratch) Update(pos cp.Vector, wantsMove bool, dt, stuckSpeed float64) {
	if !s.seeded {
		s.seeded = true
		s.LastPosition = pos
		return
	}
	moved := pos.Sub(s.LastPosition)
	if dir, ok := Unit(moved); ok {
		s.LastDirection = dir
	}
	if wantsMove && moved.Length() < stuckSpeed*dt {
		s.StuckTime += dt
	} else {
		s.StuckTime = 0
	}
	s.LastPosition = pos
}
