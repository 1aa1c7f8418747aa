package behavior

import (
	"math"

	"github.com/jakecoffman/cp"

	"github.com/Garsondee/Ship-Sense/internal/nav"
	"github.com/Garsondee/Ship-Sense/internal/steer"
)

// Neighbor is another live agent as seen by a destination policy.
type Neighbor struct {
	steer.Circle
	Kind Kind
}

// Context is everything a destination policy reads.
type Context struct {
	Self   steer.Body
	Kind   Kind
	Moving bool
	// Player is nil when there is no player in the scene.
	Player *steer.Circle
	Others []Neighbor
	// Bounds is the box destinations are clamped into.
	Bounds nav.Rect
	// World is the full world rect; distances scaled by world size use it.
	World  nav.Rect
	DT     float64
}

// Decision is the output of a destination policy.
type Decision struct {
	Destination cp.Vector
	Aim         cp.Vector
	HasAim      bool
	// UsePlanner is false when the agent must steer straight at Destination.
	UsePlanner bool
	Fire       bool
}

// Destination runs the policy for rec.State.
func (m *Machine) Destination(rec *Record, ctx Context) Decision {
	rec.FireCooldown = math.Max(0, rec.FireCooldown-ctx.DT)

	var d Decision
	switch rec.State {
	case StateIdle:
		d = Decision{Destination: ctx.Self.Position}
	case StatePatrol:
		d = m.patrol(rec, ctx)
	case StateLongDistance:
		d = m.longDistance(rec, ctx)
	case StateWander:
		d = m.wander(rec, ctx)
	case StateAggressive:
		d = m.aggressive(rec, ctx)
	case StateFlee:
		d = m.flee(rec, ctx)
	}
	rec.Destination = d.Destination
	rec.HasDestination = true
	return d
}

func (m *Machine) blockers(ctx Context) []steer.Circle {
	out := make([]steer.Circle, 0, len(ctx.Others)+1)
	if ctx.Player != nil {
		out = append(out, *ctx.Player)
	}
	for _, n := range ctx.Others {
		out = append(out, n.Circle)
	}
	return out
}

func insideAny(p cp.Vector, blockers []steer.Circle) bool {
	for _, b := range blockers {
		if p.DistanceSq(b.Center) < b.Radius*b.Radius {
			return true
		}
	}
	return false
}

func (m *Machine) arrived(rec *Record, pos cp.Vector) bool {
	return pos.Distance(rec.Destination) <= m.cfg.ArrivalRadius
}

// patrol lazily lays a ring of points around the entry position and cycles
// through them, nearest first. The leg target is fixed when the index changes
// and held in rec.Destination until the agent arrives or stops.
func (m *Machine) patrol(rec *Record, ctx Context) Decision {
	pos := ctx.Self.Position
	blockers := m.blockers(ctx)

	switch {
	case len(rec.PatrolWaypoints) == 0:
		rec.PatrolWaypoints = m.patrolRing(pos, blockers, ctx.Bounds)
		rec.PatrolIndex = nearestIndex(pos, rec.PatrolWaypoints)
		rec.Destination = m.patrolLeg(rec, pos, blockers, ctx.Bounds)
	case !rec.HasDestination:
		rec.Destination = m.patrolLeg(rec, pos, blockers, ctx.Bounds)
	case !ctx.Moving || m.arrived(rec, pos):
		rec.PatrolIndex = m.nextPatrolIndex(rec, pos)
		rec.Destination = m.patrolLeg(rec, pos, blockers, ctx.Bounds)
	}
	return Decision{Destination: rec.Destination, UsePlanner: true}
}

// patrolLeg is the target for the current ring index, extended along the
// same bearing when the point is closer than the minimum travel distance.
func (m *Machine) patrolLeg(rec *Record, pos cp.Vector, blockers []steer.Circle, bounds nav.Rect) cp.Vector {
	wp := rec.PatrolWaypoints[rec.PatrolIndex]
	if wp.Distance(pos) < m.cfg.PatrolMinTravel {
		dir, ok := steer.Unit(wp.Sub(pos))
		if !ok {
			dir = cp.ForAngle(m.rng.Float64() * 2 * math.Pi)
		}
		wp = pos.Add(dir.Mult(m.cfg.PatrolMinTravel))
	}
	return bounds.Clamp(steer.PushOutsideRadius(wp, pos, blockers))
}

func (m *Machine) patrolRing(center cp.Vector, blockers []steer.Circle, bounds nav.Rect) []cp.Vector {
	n := m.cfg.PatrolPointsMin + m.rng.Intn(m.cfg.PatrolPointsMax-m.cfg.PatrolPointsMin+1)
	radius := uniform(m.rng, m.cfg.PatrolRadius)
	phase := m.rng.Float64() * 2 * math.Pi
	ring := make([]cp.Vector, n)
	for i := range ring {
		p := center.Add(cp.ForAngle(phase + 2*math.Pi*float64(i)/float64(n)).Mult(radius))
		ring[i] = bounds.Clamp(steer.PushOutsideRadius(p, center, blockers))
	}
	return ring
}

// nextPatrolIndex steps to the next ring point, skipping any closer than the
// minimum travel distance. If every point is that close the plain next one is
// used and extended by the caller.
func (m *Machine) nextPatrolIndex(rec *Record, pos cp.Vector) int {
	n := len(rec.PatrolWaypoints)
	for step := 1; step <= n; step++ {
		i := (rec.PatrolIndex + step) % n
		if rec.PatrolWaypoints[i].Distance(pos) >= m.cfg.PatrolMinTravel {
			return i
		}
	}
	return (rec.PatrolIndex + 1) % n
}

func nearestIndex(pos cp.Vector, pts []cp.Vector) int {
	best, bestD := 0, math.Inf(1)
	for i, p := range pts {
		if d := p.DistanceSq(pos); d < bestD {
			best, bestD = i, d
		}
	}
	return best
}

// longDistance crosses a large share of the world span, re-rolling only after
// the previous target is reached. Candidates are clamped into Bounds.
func (m *Machine) longDistance(rec *Record, ctx Context) Decision {
	pos := ctx.Self.Position
	if rec.HasDestination && !m.arrived(rec, pos) {
		return Decision{Destination: rec.Destination, UsePlanner: true}
	}
	blockers := m.blockers(ctx)
	span := ctx.World.Span()
	for attempt := 0; attempt < m.cfg.LongDistanceAttempts; attempt++ {
		bearing := cp.ForAngle(m.rng.Float64() * 2 * math.Pi)
		cand := ctx.Bounds.Clamp(pos.Add(bearing.Mult(span * uniform(m.rng, m.cfg.LongDistanceSpan))))
		if insideAny(cand, blockers) || cand.Distance(pos) <= 2*m.cfg.ArrivalRadius {
			continue
		}
		return Decision{Destination: cand, UsePlanner: true}
	}
	return Decision{Destination: farthestCorner(pos, ctx.Bounds), UsePlanner: true}
}

func farthestCorner(pos cp.Vector, bounds nav.Rect) cp.Vector {
	var best cp.Vector
	bestD := -1.0
	for _, c := range bounds.Corners() {
		if d := c.DistanceSq(pos); d > bestD {
			best, bestD = c, d
		}
	}
	return best
}

// wander picks medium-range destinations that drift away from the world
// center and from threats while keeping most of the previous heading.
func (m *Machine) wander(rec *Record, ctx Context) Decision {
	pos := ctx.Self.Position
	if rec.HasDestination && !m.arrived(rec, pos) {
		return Decision{Destination: rec.Destination, UsePlanner: true}
	}
	center := ctx.Bounds.Center()
	threats := m.threats(ctx)

	var bias cp.Vector
	if away, ok := steer.Unit(pos.Sub(center)); ok {
		bias = bias.Add(away.Mult(0.5))
	}
	if ctx.Player != nil {
		if away, ok := steer.Unit(pos.Sub(ctx.Player.Center)); ok {
			bias = bias.Add(away.Mult(0.5))
		}
	}

	var cand cp.Vector
	for attempt := 0; attempt < m.cfg.WanderAttempts; attempt++ {
		dir, ok := steer.Unit(cp.ForAngle(m.rng.Float64() * 2 * math.Pi).Add(bias))
		if !ok {
			dir = cp.ForAngle(m.rng.Float64() * 2 * math.Pi)
		}
		if _, had := steer.Unit(rec.LastHeading); had {
			w := m.cfg.WanderHeadingBlend
			if blended, ok := steer.Unit(dir.Mult(w).Add(rec.LastHeading.Mult(1 - w))); ok {
				dir = blended
			}
		}
		cand = ctx.Bounds.Clamp(pos.Add(dir.Mult(uniform(m.rng, m.cfg.WanderDistance))))
		if cand.Distance(center) >= m.cfg.WanderMinCenterDist && farFromAll(cand, threats, m.cfg.WanderMinThreatDist) {
			break
		}
	}
	if h, ok := steer.Unit(cand.Sub(pos)); ok {
		rec.LastHeading = h
	}
	return Decision{Destination: cand, UsePlanner: true}
}

func (m *Machine) threats(ctx Context) []cp.Vector {
	var out []cp.Vector
	if ctx.Player != nil {
		out = append(out, ctx.Player.Center)
	}
	if ctx.Kind != KindHostile {
		for _, n := range ctx.Others {
			if n.Kind == KindHostile {
				out = append(out, n.Center)
			}
		}
	}
	return out
}

func farFromAll(p cp.Vector, pts []cp.Vector, minDist float64) bool {
	for _, q := range pts {
		if p.Distance(q) < minDist {
			return false
		}
	}
	return true
}

// aggressive holds a stand-off ring around the player, firing whenever in
// range and off cooldown.
func (m *Machine) aggressive(rec *Record, ctx Context) Decision {
	pos := ctx.Self.Position
	if ctx.Player == nil {
		return Decision{Destination: pos}
	}
	target := ctx.Player.Center
	to := target.Sub(pos)
	dist := to.Length()
	dir, ok := steer.Unit(to)
	if !ok {
		dir = ctx.Self.Heading()
	}
	if rec.StrafeSign == 0 {
		rec.StrafeSign = 1
		if m.rng.Intn(2) == 0 {
			rec.StrafeSign = -1
		}
	}
	side := dir.Perp().Mult(rec.StrafeSign)

	want, tol := m.cfg.PreferredRange, m.cfg.RangeTolerance
	d := Decision{Aim: target, HasAim: true}
	switch {
	case dist > want+tol:
		d.Destination = target.Sub(dir.Mult(want))
		d.UsePlanner = true
	case dist < want-tol:
		d.Destination = pos.Sub(dir.Mult(want - dist)).Add(side.Mult(m.cfg.StrafeOffset))
	default:
		d.Destination = pos.Add(side.Mult(m.cfg.StrafeOffset))
	}
	d.Destination = ctx.Bounds.Clamp(d.Destination)

	if dist <= m.cfg.AttackRange && rec.FireCooldown <= 0 {
		d.Fire = true
		rec.FireCooldown = m.cfg.FireCooldown
	}
	return d
}

// flee runs directly away from the nearest threat, further the closer it is.
// The planner is bypassed so routing cannot pull the agent back toward it.
func (m *Machine) flee(rec *Record, ctx Context) Decision {
	pos := ctx.Self.Position
	threat, ok := NearestThreat(pos, ctx.Kind, ctx.Player, ctx.Others)
	if !ok {
		ahead := pos.Add(ctx.Self.Heading().Mult(m.cfg.FleeMinDistance))
		return Decision{Destination: ctx.Bounds.Clamp(ahead), Aim: ahead, HasAim: true}
	}
	away, ok := steer.Unit(pos.Sub(threat))
	if !ok {
		away = ctx.Self.Heading()
	}
	d := pos.Distance(threat)
	proximity := math.Max(0, 1-d/m.cfg.DetectionRadius)
	run := math.Max(m.cfg.FleeMinDistance*(1+proximity), d*m.cfg.FleeDistanceScale)
	aim := pos.Add(away.Mult(run))
	return Decision{Destination: ctx.Bounds.Clamp(aim), Aim: aim, HasAim: true}
}

// NearestThreat returns the closest thing self should run from: the player,
// and for non-hostile agents also any hostile.
func NearestThreat(pos cp.Vector, kind Kind, player *steer.Circle, others []Neighbor) (cp.Vector, bool) {
	var best cp.Vector
	bestD := math.Inf(1)
	found := false
	if player != nil {
		best, bestD, found = player.Center, player.Center.DistanceSq(pos), true
	}
	if kind == KindHostile {
		return best, found
	}
	for _, n := range others {
		if n.Kind != KindHostile {
			continue
		}
		if d := n.Center.DistanceSq(pos); d < bestD {
			best, bestD, found = n.Center, d, true
		}
	}
	return best, found
}
