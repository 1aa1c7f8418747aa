package steer

import (
	"math"

	"github.com/jakecoffman/cp"

	"github.com/Garsondee/Ship-Sense/internal/config"
	"github.com/Garsondee/Ship-Sense/internal/nav"
)

// pushPasses bounds PushOutsideRadius when blockers overlap each other.
const pushPasses = 3

// LookAhead walks the waypoint chain from pos, starting at waypoints[index],
// for distance units and returns the point reached. The last segment walked is
// interpolated; running off the end yields the final waypoint.
func LookAhead(pos cp.Vector, waypoints []cp.Vector, index int, distance float64) cp.Vector {
	if index >= len(waypoints) {
		if len(waypoints) == 0 {
			return pos
		}
		return waypoints[len(waypoints)-1]
	}
	if distance <= 0 {
		return waypoints[index]
	}
	remaining := distance
	cur := pos
	for i := index; i < len(waypoints); i++ {
		seg := waypoints[i].Sub(cur)
		l := seg.Length()
		if l >= remaining {
			return cur.Add(seg.Mult(remaining / l))
		}
		remaining -= l
		cur = waypoints[i]
	}
	return waypoints[len(waypoints)-1]
}

// PushOutsideRadius moves point out of every blocker it falls inside. The
// point slides along the ray from origin through point until it clears the
// blocker's edge. When point and origin coincide the push is straight out from
// the blocker's center.
func PushOutsideRadius(point, origin cp.Vector, blockers []Circle) cp.Vector {
	for pass := 0; pass < pushPasses; pass++ {
		moved := false
		for _, b := range blockers {
			if b.Radius <= 0 || point.DistanceSq(b.Center) >= b.Radius*b.Radius {
				continue
			}
			point = exitPoint(point, origin, b)
			moved = true
		}
		if !moved {
			break
		}
	}
	return point
}

func exitPoint(point, origin cp.Vector, b Circle) cp.Vector {
	dir, ok := Unit(point.Sub(origin))
	if !ok {
		dir, ok = Unit(point.Sub(b.Center))
		if !ok {
			dir = cp.Vector{X: 1}
		}
		return b.Center.Add(dir.Mult(b.Radius))
	}
	// Largest t with |origin + dir*t - center| = radius.
	m := origin.Sub(b.Center)
	bb := m.Dot(dir)
	disc := bb*bb - (m.Dot(m) - b.Radius*b.Radius)
	if disc < 0 {
		return point
	}
	return origin.Add(dir.Mult(-bb + math.Sqrt(disc)))
}

// PathTarget is the steering target while following a plan: the look-ahead
// point offset by the avoidance vector, kept out of the player's widened
// radius and inside bounds. player may be nil.
func PathTarget(self Body, look, avoidance cp.Vector, player *Circle, cfg config.Steering, bounds nav.Rect) cp.Vector {
	target := look.Add(avoidance.Mult(self.LookAheadDistance()))
	if player != nil {
		target = PushOutsideRadius(target, self.Position, []Circle{{
			Center: player.Center,
			Radius: player.Radius * cfg.PlayerRadiusScale,
		}})
	}
	return bounds.Clamp(target)
}

// DirectTarget is the steering target without a plan. With avoidance active
// the agent heads along it for one look-ahead distance; otherwise it heads
// straight for dest.
func DirectTarget(self Body, dest, avoidance cp.Vector, bounds nav.Rect) cp.Vector {
	if dir, ok := Unit(avoidance); ok {
		return bounds.Clamp(self.Position.Add(dir.Mult(math.Max(self.LookAheadDistance(), self.Radius))))
	}
	return bounds.Clamp(dest)
}
