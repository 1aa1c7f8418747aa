package steer

import (
	"math"

	"github.com/jakecoffman/cp"

	"github.com/Garsondee/Ship-Sense/internal/config"
)

// RadialWeight returns the radial share of the avoidance direction for an
// agent at ratio = distance / radius. The rest is tangential.
func RadialWeight(ratio float64, cfg config.Steering) float64 {
	switch {
	case ratio >= cfg.BandOuter:
		return cfg.RadialFar
	case ratio >= cfg.BandInner:
		return cfg.RadialOuter
	case ratio >= 1:
		return cfg.RadialInner
	default:
		return cfg.RadialPenetrating
	}
}

// PairForce is the avoidance push on self from one other footprint. It is
// zero unless the two are within DetectionFactor of the larger radius, or
// self's look-ahead point lands inside that radius. The tangential part is
// turned to agree with self's heading so the agent orbits instead of
// reversing. Coincident positions give no force.
func PairForce(self Body, other Circle, cfg config.Steering) cp.Vector {
	r := math.Max(self.Radius, other.Radius)
	if r <= 0 {
		return cp.Vector{}
	}
	offset := self.Position.Sub(other.Center)
	dist := offset.Length()
	away, ok := Unit(offset)
	if !ok {
		return cp.Vector{}
	}

	detect := cfg.DetectionFactor * r
	aheadDist := self.LookAheadPoint().Distance(other.Center)
	if dist >= detect && aheadDist >= r {
		return cp.Vector{}
	}

	tangent := away.Perp()
	if tangent.Dot(self.Heading()) < 0 {
		tangent = tangent.Neg()
	}
	w := RadialWeight(dist/r, cfg)
	dir, _ := Unit(away.Mult(w).Add(tangent.Mult(1 - w)))

	proximity := clamp01((detect - dist) / detect)
	penetration := clamp01((r - aheadDist) / r)
	return dir.Mult(cfg.Strength * (proximity + cfg.PenetrationWeight*penetration))
}

// Avoidance sums PairForce over every neighbor and the player. The player's
// radius is widened by PlayerRadiusScale. player may be nil.
func Avoidance(self Body, neighbors []Circle, player *Circle, cfg config.Steering) cp.Vector {
	var sum cp.Vector
	for _, n := range neighbors {
		sum = sum.Add(PairForce(self, n, cfg))
	}
	if player != nil {
		widened := Circle{Center: player.Center, Radius: player.Radius * cfg.PlayerRadiusScale}
		sum = sum.Add(PairForce(self, widened, cfg))
	}
	return sum
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
