package steer

import (
	"math"

	"github.com/jakecoffman/cp"

	"github.com/Garsondee/Ship-Sense/internal/config"
)

// SeparationBody is the mutable view the separation pass corrects.
type SeparationBody struct {
	Position cp.Vector
	Velocity cp.Vector
	Radius   float64
	Moving   bool
}

// SeparationStats summarises one pass.
type SeparationStats struct {
	Overlaps       int
	Severe         int
	Iterations     int
	MaxPenetration float64
}

// Separate pushes overlapping bodies apart until every pair is at least the
// larger of their radii apart, or cfg.Iterations passes have run. Agent pairs
// share the correction equally; against the player the agent takes all of it.
// Any pair closer than SevereFraction of the safe distance on the first pass
// is stopped dead. player may be nil and is never moved.
func Separate(bodies []*SeparationBody, player *SeparationBody, cfg config.Separation) SeparationStats {
	var stats SeparationStats
	for it := 0; it < cfg.Iterations; it++ {
		first := it == 0
		overlaps := 0
		for i := 0; i < len(bodies); i++ {
			a := bodies[i]
			for j := i + 1; j < len(bodies); j++ {
				b := bodies[j]
				safe := math.Max(a.Radius, b.Radius)
				axis, dist, hit := overlap(a.Position, b.Position, safe)
				if !hit {
					continue
				}
				overlaps++
				pen := safe - dist
				a.Position = a.Position.Sub(axis.Mult(pen / 2))
				b.Position = b.Position.Add(axis.Mult(pen / 2))
				if first {
					stats.record(pen)
					if dist < cfg.SevereFraction*safe {
						stats.Severe++
						stop(a)
						stop(b)
					}
				}
			}
			if player != nil {
				safe := math.Max(a.Radius, player.Radius)
				axis, dist, hit := overlap(player.Position, a.Position, safe)
				if !hit {
					continue
				}
				overlaps++
				pen := safe - dist
				a.Position = a.Position.Add(axis.Mult(pen))
				if first {
					stats.record(pen)
					if dist < cfg.SevereFraction*safe {
						stats.Severe++
						stop(a)
					}
				}
			}
		}
		stats.Iterations = it + 1
		if overlaps == 0 {
			break
		}
	}
	return stats
}

// overlap returns the unit axis from a to b and their distance when they are
// closer than safe. Coincident points separate along +X.
func overlap(a, b cp.Vector, safe float64) (axis cp.Vector, dist float64, hit bool) {
	delta := b.Sub(a)
	dist = delta.Length()
	if dist >= safe {
		return cp.Vector{}, dist, false
	}
	axis, ok := Unit(delta)
	if !ok {
		axis = cp.Vector{X: 1}
	}
	return axis, dist, true
}

func stop(b *SeparationBody) {
	b.Velocity = cp.Vector{}
	b.Moving = false
}

func (s *SeparationStats) record(pen float64) {
	s.Overlaps++
	s.MaxPenetration = math.Max(s.MaxPenetration, pen)
}
