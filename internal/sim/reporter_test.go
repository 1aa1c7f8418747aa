package sim

import (
	"math"
	"strings"
	"testing"

	"github.com/jakecoffman/cp"

	"github.com/Garsondee/Ship-Sense/internal/behavior"
)

func snap(kind behavior.Kind, st behavior.State, moving bool) AgentSnapshot {
	return AgentSnapshot{Kind: kind, State: st, Moving: moving, Health: 100, MaxHealth: 100}
}

func TestReporter_CountsStateOccupancy(t *testing.T) {
	r := NewSimReporter(600, 2, false)
	agents := []AgentSnapshot{
		snap(behavior.KindAlly, behavior.StatePatrol, true),
		snap(behavior.KindAlly, behavior.StatePatrol, false),
		snap(behavior.KindAlly, behavior.StateIdle, false),
		snap(behavior.KindHostile, behavior.StateAggressive, true),
		snap(behavior.KindPlayer, behavior.StateIdle, true),
	}
	agents[1].Health = 40
	agents[2].StuckTime = 3

	r.Collect(60, agents)
	rpt := r.Latest()
	if rpt == nil {
		t.Fatal("expected a report after Collect")
	}
	ally := rpt.Kinds[behavior.KindAlly]
	if ally == nil {
		t.Fatal("no ally tally")
	}
	if ally.Alive != 3 || ally.States[behavior.StatePatrol] != 2 {
		t.Fatalf("alive=%d patrol=%d, want 3 and 2", ally.Alive, ally.States[behavior.StatePatrol])
	}
	if ally.Injured != 1 || ally.Moving != 1 || ally.Stuck != 1 {
		t.Fatalf("injured=%d moving=%d stuck=%d, want 1 each", ally.Injured, ally.Moving, ally.Stuck)
	}
	if _, ok := rpt.Kinds[behavior.KindPlayer]; ok {
		t.Fatal("the player is not tallied")
	}
}

func TestReporter_WindowSummary(t *testing.T) {
	r := NewSimReporter(120, 2, false)
	if r.WindowSummary() != nil {
		t.Fatal("empty reporter should have no window")
	}
	if got := r.WindowSummary().Format(); got != "No data collected yet.\n" {
		t.Fatalf("empty format = %q", got)
	}

	patrol := []AgentSnapshot{snap(behavior.KindAlly, behavior.StatePatrol, true)}
	wander := []AgentSnapshot{snap(behavior.KindAlly, behavior.StateWander, true)}
	r.Collect(0, patrol) // outside the window by the end
	r.Collect(60, patrol)
	r.Collect(120, wander)
	r.Collect(180, wander)

	wr := r.WindowSummary()
	if wr == nil {
		t.Fatal("expected a window summary")
	}
	if wr.SampleCount != 3 || wr.FromTick != 60 {
		t.Fatalf("samples=%d from=%d, want 3 from 60", wr.SampleCount, wr.FromTick)
	}
	if got := wr.StatePct[behavior.KindAlly][behavior.StatePatrol]; math.Abs(got-100.0/3) > 1e-9 {
		t.Errorf("patrol share %.3f", got)
	}
	if got := wr.StatePct[behavior.KindAlly][behavior.StateWander]; math.Abs(got-200.0/3) > 1e-9 {
		t.Errorf("wander share %.3f", got)
	}
	if got := wr.AvgMoving[behavior.KindAlly]; math.Abs(got-1) > 1e-9 {
		t.Errorf("avg moving %.3f", got)
	}
	if !strings.Contains(wr.Format(), "wander") {
		t.Errorf("format missing wander:\n%s", wr.Format())
	}
}

func TestStateProportions(t *testing.T) {
	props := StateProportions([]AgentSnapshot{
		snap(behavior.KindAlly, behavior.StateFlee, true),
		snap(behavior.KindHostile, behavior.StateWander, true),
		snap(behavior.KindPlayer, behavior.StateIdle, true),
	})
	if math.Abs(props[behavior.StateFlee]-0.5) > 1e-9 {
		t.Fatalf("flee share %.3f, want 0.5", props[behavior.StateFlee])
	}
	if props[behavior.StateIdle] != 0 {
		t.Fatal("the player is not counted")
	}
}

func TestSimLog_Queries(t *testing.T) {
	sl := NewSimLog(false)
	sl.Add(1, "A0", "ally", CatState, "change", "patrol → flee", 5)
	sl.Add(2, "A1", "hostile", CatPath, "replan", "3 waypoints", 3)
	sl.Add(3, "A0", "ally", CatState, "change", "flee → wander", 9)
	sl.AddVerbose(3, "A0", "ally", CatMove, "position", "(0,0)", 0)

	if n := len(sl.Entries()); n != 3 {
		t.Fatalf("verbose entries dropped when not verbose: got %d entries", n)
	}
	if n := sl.CountCategory(CatState, "change"); n != 2 {
		t.Errorf("state changes = %d", n)
	}
	if n := len(sl.FilterAgent("A0")); n != 2 {
		t.Errorf("A0 entries = %d", n)
	}
	if n := len(sl.FilterTickRange(2, 3)); n != 2 {
		t.Errorf("ticks 2-3 entries = %d", n)
	}
	last, ok := sl.LastOf(CatState, "change")
	if !ok || last.Value != "flee → wander" {
		t.Errorf("last change = %q %v", last.Value, ok)
	}
	if !sl.HasEntry(CatState, "", "→ flee") || sl.HasEntry(CatCombat, "", "") {
		t.Error("HasEntry matched the wrong entries")
	}
	tally := sl.Tally()
	if len(tally) != 2 || tally["state/change"] != 2 || tally["path/replan"] != 1 {
		t.Errorf("tally = %v", tally)
	}
	if n := strings.Count(sl.FormatRange(1, 2), "\n"); n != 2 {
		t.Errorf("FormatRange lines = %d", n)
	}

	if n := sl.DropBefore(2); n != 1 {
		t.Fatalf("DropBefore dropped %d, want 1", n)
	}
	if tick := sl.Entries()[0].Tick; tick != 2 {
		t.Fatalf("first remaining tick %d", tick)
	}
	if n := sl.DropBefore(2); n != 0 {
		t.Fatalf("second DropBefore dropped %d", n)
	}

	summary := sl.Summary(3, []AgentSnapshot{
		{Kind: behavior.KindAlly, State: behavior.StateWander, Position: cp.Vector{}},
	})
	for _, want := range []string{"ally states: wander=1", "path/replan"} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary missing %q:\n%s", want, summary)
		}
	}
}
