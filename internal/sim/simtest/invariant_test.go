package simtest

import (
	"math"
	"strings"
	"testing"

	"github.com/Garsondee/Ship-Sense/internal/behavior"
	"github.com/Garsondee/Ship-Sense/internal/sim"
)

// --- Invariant helpers ---

// checkInsideWorld verifies every agent position is finite and inside the
// world rectangle.
func checkInsideWorld(t *testing.T, ts *TestSim) {
	t.Helper()
	world := ts.Sim.World()
	for _, a := range ts.Sim.Agents() {
		p := a.Kinematics.Position
		if math.IsNaN(p.X) || math.IsNaN(p.Y) {
			t.Fatalf("T=%d %s has a NaN position", ts.CurrentTick(), a.ID)
		}
		if !world.Contains(p) {
			t.Fatalf("T=%d %s left the world at (%.1f,%.1f)", ts.CurrentTick(), a.ID, p.X, p.Y)
		}
	}
}

// checkTargetsInBounds verifies every output target lies in the walkable box.
func checkTargetsInBounds(t *testing.T, ts *TestSim) {
	t.Helper()
	bounds := ts.Sim.Bounds()
	for _, out := range ts.Sim.Outputs() {
		if !bounds.Contains(out.Target) {
			t.Fatalf("T=%d %s target (%.1f,%.1f) outside bounds", ts.CurrentTick(), out.ID, out.Target.X, out.Target.Y)
		}
	}
}

// checkOneRecordPerAgent verifies every live non-player agent holds exactly
// one record set and no dead agent left one behind.
func checkOneRecordPerAgent(t *testing.T, ts *TestSim) {
	t.Helper()
	want := 0
	for _, a := range ts.Sim.Agents() {
		if a.Kind != behavior.KindPlayer {
			want++
		}
	}
	if got := ts.Sim.RecordCount(); got != want {
		t.Fatalf("T=%d %d record sets for %d agents", ts.CurrentTick(), got, want)
	}
	if paths := ts.Sim.ActivePaths(); paths > want {
		t.Fatalf("T=%d %d active paths for %d agents", ts.CurrentTick(), paths, want)
	}
}

// checkActivePathsNonEmpty verifies no active path record has zero waypoints.
func checkActivePathsNonEmpty(t *testing.T, ts *TestSim) {
	t.Helper()
	for _, a := range ts.Sim.Agents() {
		in, _ := ts.Sim.Inspect(a.ID)
		if in.Path.Active && len(in.Path.Waypoints) == 0 {
			t.Fatalf("T=%d %s has an active empty path", ts.CurrentTick(), a.ID)
		}
	}
}

// checkEveryTick runs the per-tick invariants.
func checkEveryTick(t *testing.T, ts *TestSim) {
	t.Helper()
	checkInsideWorld(t, ts)
	checkTargetsInBounds(t, ts)
	checkOneRecordPerAgent(t, ts)
	checkActivePathsNonEmpty(t, ts)
}

// checkFleeOnlyAfterDamage verifies every change into flee follows a damage
// entry for the same agent on the same or the previous tick.
func checkFleeOnlyAfterDamage(t *testing.T, ts *TestSim) {
	t.Helper()
	damaged := map[string][]int{}
	for _, e := range ts.SimLog.Filter(sim.CatCombat, "damaged") {
		damaged[e.Agent] = append(damaged[e.Agent], e.Tick)
	}
	for _, e := range ts.SimLog.Filter(sim.CatState, "") {
		if !strings.HasSuffix(e.Value, "flee") {
			continue
		}
		ok := false
		for _, tick := range damaged[e.Agent] {
			if tick == e.Tick || tick == e.Tick-1 {
				ok = true
				break
			}
		}
		if !ok {
			t.Errorf("%s entered flee without damage: %s", e.Agent, e.String())
		}
	}
}

// checkSeparated verifies no two agents sit closer than frac of the larger
// radius.
func checkSeparated(t *testing.T, ts *TestSim, frac float64) {
	t.Helper()
	agents := ts.Sim.Agents()
	for i := range agents {
		for j := i + 1; j < len(agents); j++ {
			a, b := agents[i].Kinematics, agents[j].Kinematics
			safe := math.Max(a.Radius, b.Radius)
			if d := a.Position.Distance(b.Position); d < safe*frac {
				t.Errorf("T=%d %s and %s overlap: %.1f < %.1f", ts.CurrentTick(), agents[i].ID, agents[j].ID, d, safe)
			}
		}
	}
}
