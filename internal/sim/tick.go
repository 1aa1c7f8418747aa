package sim

import (
	"fmt"

	"github.com/jakecoffman/cp"

	"github.com/Garsondee/Ship-Sense/internal/behavior"
	"github.com/Garsondee/Ship-Sense/internal/kinematics"
	"github.com/Garsondee/Ship-Sense/internal/steer"
)

// snapshot is every agent's footprint as of the start of the tick. All path
// queries in one tick read it, never positions updated mid-tick.
type snapshot struct {
	agents []snapEntry
	player *steer.Circle
}

type snapEntry struct {
	index int
	kind  behavior.Kind
	steer.Circle
}

func (s *Sim) snapshot() snapshot {
	var snap snapshot
	for i := 0; i < s.arena.size(); i++ {
		id, ok := s.arena.idAt(i)
		if !ok {
			continue
		}
		a := s.agents[i]
		if s.hasPlayer && id == s.player {
			c := a.Kinematics.circle()
			snap.player = &c
			continue
		}
		snap.agents = append(snap.agents, snapEntry{index: i, kind: a.Kind, Circle: a.Kinematics.circle()})
	}
	return snap
}

// neighbors lists everyone in the snapshot except slot self.
func (snap snapshot) neighbors(self int) ([]behavior.Neighbor, []steer.Circle) {
	others := make([]behavior.Neighbor, 0, len(snap.agents))
	circles := make([]steer.Circle, 0, len(snap.agents))
	for _, e := range snap.agents {
		if e.index == self {
			continue
		}
		others = append(others, behavior.Neighbor{Circle: e.Circle, Kind: e.kind})
		circles = append(circles, e.Circle)
	}
	return others, circles
}

// Step runs one full tick: Plan, the integrator, then Settle.
func (s *Sim) Step(dt float64) {
	s.Plan(dt)
	s.integrate(dt)
	s.Settle(dt)
}

// Plan evaluates behavior, picks destinations, plans paths and computes each
// agent's steering target. Hosts that move agents themselves call Plan, apply
// the outputs, push the new kinematics with SetKinematics and then Settle.
func (s *Sim) Plan(dt float64) {
	s.tick++
	s.shots = s.shots[:0]
	snap := s.snapshot()
	for _, e := range snap.agents {
		if s.dying[e.index] {
			continue
		}
		s.planAgent(e.index, snap, dt)
	}
	// Leave the grid showing every obstacle for debug overlays.
	s.rebuildGrid(snap, -1)
}

func (s *Sim) planAgent(i int, snap snapshot, dt float64) {
	a := &s.agents[i]
	id := a.ID
	pos := a.Kinematics.Position
	bcfg := s.cfg.Behavior

	if !s.hasRecord[i] {
		s.behaviors[i] = s.machine.NewRecord()
		s.hasRecord[i] = true
		s.record(id, CatState, "init", s.behaviors[i].State.String(), s.behaviors[i].TimeRemaining)
	}
	rec := &s.behaviors[i]

	inRange := snap.player != nil && pos.Distance(snap.player.Center) <= bcfg.DetectionRadius
	prev, changed := s.machine.Evaluate(rec, behavior.Inputs{
		Kind:          a.Kind,
		Damaged:       s.damaged[i],
		HealthFull:    a.Health >= a.MaxHealth,
		TargetInRange: inRange,
		DT:            dt,
	})
	s.damaged[i] = false
	if changed {
		s.record(id, CatState, "change", fmt.Sprintf("%s → %s", prev, rec.State), rec.TimeRemaining)
		s.logger.Debug("behavior changed", "id", id, "from", prev, "to", rec.State)
	}

	others, circles := snap.neighbors(i)
	body := a.Kinematics.body()
	bounds := s.grid.Interior()
	d := s.machine.Destination(rec, behavior.Context{
		Self:   body,
		Kind:   a.Kind,
		Moving: a.Kinematics.Moving,
		Player: snap.player,
		Others: others,
		Bounds: bounds,
		World:  s.grid.Bounds(),
		DT:     dt,
	})
	if d.Fire {
		s.shots = append(s.shots, Shot{Tick: s.tick, From: id, Origin: pos, Target: d.Aim})
		s.record(id, CatCombat, "fire", fmtVec(d.Aim), pos.Distance(d.Aim))
	}

	avoid := steer.Avoidance(body, circles, snap.player, s.cfg.Steering)
	path := &s.paths[i]
	var target cp.Vector
	if d.UsePlanner {
		if path.ObserveGoal(d.Destination, s.cfg.Progress.GoalChangeThreshold) {
			s.simLog.AddVerbose(s.tick, id.String(), a.Kind.String(), CatPath, "goal", fmtVec(d.Destination), 0)
		}
		replan := !path.Active
		if !replan && path.Advance(pos, d.Destination, s.cfg.Progress.WaypointReach, bcfg.ArrivalRadius) {
			replan = true
			s.record(id, CatPath, "end_short", fmtVec(d.Destination), pos.Distance(d.Destination))
		}
		if replan {
			s.rebuildGrid(snap, i)
			wps := s.planner.FindPath(pos, d.Destination)
			path.SetPath(wps)
			path.Advance(pos, d.Destination, s.cfg.Progress.WaypointReach, bcfg.ArrivalRadius)
			s.record(id, CatPath, "replan", fmt.Sprintf("%d waypoints → %s", len(wps), fmtVec(d.Destination)), float64(len(wps)))
		}
		look := steer.LookAhead(pos, path.Waypoints, path.CurrentIndex, body.LookAheadDistance())
		target = steer.PathTarget(body, look, avoid, snap.player, s.cfg.Steering, bounds)
	} else {
		if path.Active {
			path.ClearPath()
			path.ResetProgress()
		}
		target = steer.DirectTarget(body, d.Destination, avoid, bounds)
	}

	s.outputs[i] = Output{
		ID:      id,
		Target:  target,
		Aim:     d.Aim,
		HasAim:  d.HasAim,
		State:   rec.State,
		Fire:    d.Fire,
		Planned: d.UsePlanner,
	}
}

// rebuildGrid stamps every snapshot footprint except slot exclude. The player
// footprint is widened like it is for steering.
func (s *Sim) rebuildGrid(snap snapshot, exclude int) {
	s.grid.Clear()
	inflate := s.cfg.Planner.ObstacleInflation
	for _, e := range snap.agents {
		if e.index == exclude {
			continue
		}
		s.grid.MarkObstacle(e.Center, e.Radius*inflate, true)
	}
	if snap.player != nil {
		s.grid.MarkObstacle(snap.player.Center, snap.player.Radius*s.cfg.Steering.PlayerRadiusScale, true)
	}
}

// integrate runs the integrator over every planned agent.
func (s *Sim) integrate(dt float64) {
	var bodies []kinematics.Body
	var slots []int
	for i := 0; i < s.arena.size(); i++ {
		if _, ok := s.arena.idAt(i); !ok || !s.hasRecord[i] || s.dying[i] {
			continue
		}
		k := s.agents[i].Kinematics
		out := s.outputs[i]
		bodies = append(bodies, kinematics.Body{
			Key:      s.agents[i].ID.Key(),
			Position: k.Position,
			Velocity: k.Velocity,
			Rotation: k.Rotation,
			Speed:    k.Speed,
			Radius:   k.Radius,
			Target:   out.Target,
			Aim:      out.Aim,
			HasAim:   out.HasAim,
		})
		slots = append(slots, i)
	}
	if len(bodies) == 0 {
		return
	}
	s.integrator.Integrate(dt, bodies)
	for n, i := range slots {
		k := &s.agents[i].Kinematics
		b := bodies[n]
		k.Position, k.Velocity, k.Rotation, k.Moving = b.Position, b.Velocity, b.Rotation, b.Moving
	}
}

// Settle runs the hard separation pass, progress bookkeeping and the purge of
// agents killed this tick.
func (s *Sim) Settle(dt float64) {
	s.separate()
	s.bookkeep(dt)
	for i := 0; i < s.arena.size(); i++ {
		if id, ok := s.arena.idAt(i); ok && s.dying[i] {
			s.purge(id, "killed")
		}
	}
}

func (s *Sim) separate() {
	var bodies []*steer.SeparationBody
	var slots []int
	var player *steer.SeparationBody
	for i := 0; i < s.arena.size(); i++ {
		id, ok := s.arena.idAt(i)
		if !ok {
			continue
		}
		k := s.agents[i].Kinematics
		b := &steer.SeparationBody{Position: k.Position, Velocity: k.Velocity, Radius: k.Radius, Moving: k.Moving}
		if s.hasPlayer && id == s.player {
			player = b
			continue
		}
		bodies = append(bodies, b)
		slots = append(slots, i)
	}
	s.separation = steer.Separate(bodies, player, s.cfg.Separation)

	world := s.grid.Bounds()
	for n, i := range slots {
		k := &s.agents[i].Kinematics
		b := bodies[n]
		if k.Moving && !b.Moving {
			s.record(s.agents[i].ID, CatSeparation, "stop", fmtVec(b.Position), 0)
		}
		k.Position = world.Clamp(b.Position)
		k.Velocity = b.Velocity
		k.Moving = b.Moving
	}
	if s.separation.Overlaps > 0 {
		s.simLog.AddVerbose(s.tick, "--", "--", CatSeparation, "overlaps",
			fmt.Sprintf("%d (%d severe) in %d passes", s.separation.Overlaps, s.separation.Severe, s.separation.Iterations),
			s.separation.MaxPenetration)
	}
}

func (s *Sim) bookkeep(dt float64) {
	pcfg := s.cfg.Progress
	for i := 0; i < s.arena.size(); i++ {
		if _, ok := s.arena.idAt(i); !ok || !s.hasRecord[i] || s.dying[i] {
			continue
		}
		a := s.agents[i]
		pos := a.Kinematics.Position
		out := s.outputs[i]

		sc := &s.scratch[i]
		wasStuck := sc.StuckTime > pcfg.TrappedAfter
		sc.Update(pos, out.Target.Distance(pos) > s.cfg.Behavior.ArrivalRadius, dt, s.cfg.Steering.StuckSpeed)
		if !wasStuck && sc.StuckTime > pcfg.TrappedAfter {
			s.record(a.ID, CatProgress, "stuck", fmtVec(pos), sc.StuckTime)
		}

		path := &s.paths[i]
		if !path.Active {
			continue
		}
		if pos.Distance(path.LastGoal) <= s.cfg.Behavior.ArrivalRadius {
			path.ResetProgress()
			continue
		}
		if path.Track(pos, path.LastGoal, dt, pcfg) {
			s.record(a.ID, CatProgress, "trapped", fmtVec(path.LastGoal), pos.Distance(path.LastGoal))
			s.logger.Debug("agent trapped, replanning", "id", a.ID, "goal", fmtVec(path.LastGoal))
		}
		s.simLog.AddVerbose(s.tick, a.ID.String(), a.Kind.String(), CatMove, "position", fmtVec(pos), a.Kinematics.Velocity.Length())
	}
}
