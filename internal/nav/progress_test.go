package nav

import (
	"testing"

	"github.com/jakecoffman/cp"

	"github.com/Garsondee/Ship-Sense/internal/config"
)

const tickDT = 1.0 / 60.0

func TestPathRecord_TrappedAfterNoProgress(t *testing.T) {
	cfg := config.Default().Progress
	var r PathRecord
	goal := cp.Vector{X: 1000, Y: 0}
	r.ObserveGoal(goal, cfg.GoalChangeThreshold)
	r.SetPath([]cp.Vector{{X: 0, Y: 0}, goal})

	pos := cp.Vector{X: 0, Y: 0}
	trappedAt := -1
	for tick := 0; tick < 600; tick++ {
		if r.Track(pos, goal, tickDT, cfg) {
			trappedAt = tick
			break
		}
	}
	if trappedAt < 0 {
		t.Fatal("a motionless agent should be flagged as trapped")
	}
	if want := int(cfg.TrappedAfter / tickDT); trappedAt < want-2 || trappedAt > want+2 {
		t.Fatalf("trapped at tick %d, expected around %d", trappedAt, want)
	}
	if r.Active || len(r.Waypoints) != 0 {
		t.Fatal("trapped agent should have its path cleared")
	}
	if r.NoProgressTime != 0 {
		t.Fatal("trapped agent should have its progress reset")
	}
}

func TestPathRecord_SteadyProgressNeverTraps(t *testing.T) {
	cfg := config.Default().Progress
	var r PathRecord
	goal := cp.Vector{X: 5000, Y: 0}
	r.ObserveGoal(goal, cfg.GoalChangeThreshold)
	r.SetPath([]cp.Vector{{}, goal})

	// Slow crawl: 1 unit per tick, under MinProgress per tick but steady.
	pos := cp.Vector{}
	for tick := 0; tick < 1200; tick++ {
		pos.X += 1
		if r.Track(pos, goal, tickDT, cfg) {
			t.Fatalf("steady progress flagged as trapped at tick %d", tick)
		}
	}
}

func TestPathRecord_GoalChangeResetsProgress(t *testing.T) {
	cfg := config.Default().Progress
	var r PathRecord
	goal := cp.Vector{X: 1000, Y: 0}
	r.ObserveGoal(goal, cfg.GoalChangeThreshold)
	r.SetPath([]cp.Vector{{}, goal})
	for i := 0; i < 60; i++ {
		r.Track(cp.Vector{}, goal, tickDT, cfg)
	}
	if r.NoProgressTime == 0 {
		t.Fatal("expected accumulated no-progress time")
	}

	if r.ObserveGoal(goal.Add(cp.Vector{X: 50}), cfg.GoalChangeThreshold) {
		t.Fatal("a small goal nudge should not reset progress")
	}
	if !r.Active {
		t.Fatal("a small goal nudge should keep the path")
	}

	if !r.ObserveGoal(cp.Vector{X: -3000, Y: 0}, cfg.GoalChangeThreshold) {
		t.Fatal("a goal jump beyond the threshold should be reported")
	}
	if r.NoProgressTime != 0 || r.Active {
		t.Fatal("goal change should clear progress and force a replan")
	}
}

func TestPathRecord_AdvanceWalksWaypoints(t *testing.T) {
	var r PathRecord
	goal := cp.Vector{X: 2000, Y: 0}
	r.SetPath([]cp.Vector{{}, {X: 1000, Y: 500}, goal})

	if r.Advance(cp.Vector{}, goal, 128, 150) {
		t.Fatal("should not request a replan at the start")
	}
	if r.CurrentIndex != 1 {
		t.Fatalf("start waypoint should be passed immediately, index %d", r.CurrentIndex)
	}
	r.Advance(cp.Vector{X: 990, Y: 480}, goal, 128, 150)
	if r.CurrentIndex != 2 {
		t.Fatalf("expected index 2 after reaching the middle waypoint, got %d", r.CurrentIndex)
	}
	if r.Advance(goal, goal, 128, 150) {
		t.Fatal("arriving at the goal must not request a replan")
	}
}

func TestPathRecord_EndReachedShortOfGoalReplans(t *testing.T) {
	var r PathRecord
	r.SetPath([]cp.Vector{{}, {X: 1000, Y: 0}})
	goal := cp.Vector{X: 1180, Y: 0} // drifted after planning
	r.Advance(cp.Vector{}, goal, 128, 150)
	if !r.Advance(cp.Vector{X: 1000, Y: 0}, goal, 128, 150) {
		t.Fatal("reaching the end of the path short of the goal should request a replan")
	}
}

func TestPathRecord_InactiveRecord(t *testing.T) {
	var r PathRecord
	r.SetPath(nil)
	if r.Active {
		t.Fatal("empty path must not be active")
	}
	if _, ok := r.Current(); ok {
		t.Fatal("inactive record has no current waypoint")
	}
	if r.Advance(cp.Vector{}, cp.Vector{X: 10}, 128, 150) {
		t.Fatal("inactive record never requests a replan")
	}
}
