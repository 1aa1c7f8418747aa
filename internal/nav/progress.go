package nav

import (
	"github.com/jakecoffman/cp"

	"github.com/Garsondee/Ship-Sense/internal/config"
)

// PathRecord is the per-agent path follower and stall monitor.
type PathRecord struct {
	Waypoints    []cp.Vector
	CurrentIndex int
	Active       bool

	ClosestDistance float64
	NoProgressTime  float64
	LastGoal        cp.Vector

	hasGoal  bool
	tracking bool
}

// SetPath installs a fresh plan. An empty plan leaves the record inactive.
func (r *PathRecord) SetPath(waypoints []cp.Vector) {
	r.Waypoints = waypoints
	r.CurrentIndex = 0
	r.Active = len(waypoints) > 0
}

// ClearPath drops the plan but keeps progress history.
func (r *PathRecord) ClearPath() {
	r.Waypoints = nil
	r.CurrentIndex = 0
	r.Active = false
}

// ResetProgress forgets the closest-approach history.
func (r *PathRecord) ResetProgress() {
	r.tracking = false
	r.ClosestDistance = 0
	r.NoProgressTime = 0
}

// Reset clears the record completely.
func (r *PathRecord) Reset() {
	*r = PathRecord{}
}

// Current returns the waypoint being steered toward.
func (r *PathRecord) Current() (cp.Vector, bool) {
	if !r.Active || r.CurrentIndex >= len(r.Waypoints) {
		return cp.Vector{}, false
	}
	return r.Waypoints[r.CurrentIndex], true
}

// ObserveGoal records the goal for this tick. A goal that moved more than
// threshold since the last one drops the plan and the progress history and
// returns true.
func (r *PathRecord) ObserveGoal(goal cp.Vector, threshold float64) bool {
	if r.hasGoal && goal.Distance(r.LastGoal) <= threshold {
		return false
	}
	r.hasGoal = true
	r.LastGoal = goal
	r.ClearPath()
	r.ResetProgress()
	return true
}

// Advance moves the cursor past every waypoint within reach of pos. It returns
// true when the final waypoint has been reached but the goal is still farther
// than arrival, meaning the plan should be recomputed now.
func (r *PathRecord) Advance(pos, goal cp.Vector, reach, arrival float64) bool {
	if !r.Active {
		return false
	}
	last := len(r.Waypoints) - 1
	for r.CurrentIndex < last && pos.Distance(r.Waypoints[r.CurrentIndex]) <= reach {
		r.CurrentIndex++
	}
	if r.CurrentIndex == last && pos.Distance(r.Waypoints[last]) <= reach {
		return pos.Distance(goal) > arrival
	}
	return false
}

// Track updates the closest approach to goal. Progress counts only when the
// agent beats its best distance by at least MinProgress; otherwise dt is added
// to the no-progress timer. Past TrappedAfter the plan and history are dropped
// and Track returns true.
func (r *PathRecord) Track(pos, goal cp.Vector, dt float64, cfg config.Progress) bool {
	d := pos.Distance(goal)
	if !r.tracking {
		r.tracking = true
		r.ClosestDistance = d
		r.NoProgressTime = 0
		return false
	}
	if d < r.ClosestDistance-cfg.MinProgress {
		r.ClosestDistance = d
		r.NoProgressTime = 0
		return false
	}
	r.NoProgressTime += dt
	if r.NoProgressTime > cfg.TrappedAfter {
		r.ClearPath()
		r.ResetProgress()
		return true
	}
	return false
}
