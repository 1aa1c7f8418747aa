package behavior

import (
	"math"
	"testing"

	"github.com/jakecoffman/cp"

	"github.com/Garsondee/Ship-Sense/internal/config"
	"github.com/Garsondee/Ship-Sense/internal/nav"
	"github.com/Garsondee/Ship-Sense/internal/steer"
)

const dt = 1.0 / 60.0

func newMachine(seed int64) *Machine {
	return NewMachine(config.Default().Behavior, seeded(seed))
}

func bounds() nav.Rect {
	g := nav.NewObstacleGridFromConfig(config.Default().World)
	return g.Interior()
}

func ctxAt(pos cp.Vector, kind Kind) Context {
	return Context{
		Self:   steer.Body{Position: pos, Radius: 100, Speed: 300, LookAheadMultiplier: 1},
		Kind:   kind,
		Moving: true,
		Bounds: bounds(),
		World:  nav.RectFromWorld(config.Default().World),
		DT:     dt,
	}
}

func TestEvaluate_DamageBeatsDetection(t *testing.T) {
	m := newMachine(1)
	rec := Record{State: StatePatrol, TimeRemaining: 5}
	prev, changed := m.Evaluate(&rec, Inputs{Kind: KindHostile, Damaged: true, TargetInRange: true, DT: dt})
	if prev != StatePatrol || !changed || rec.State != StateFlee {
		t.Fatalf("expected patrol→flee, got prev=%s changed=%v state=%s", prev, changed, rec.State)
	}
	// Still in range next tick: flee holds.
	m.Evaluate(&rec, Inputs{Kind: KindHostile, TargetInRange: true, DT: dt})
	if rec.State != StateFlee {
		t.Fatalf("flee must not be overridden by detection, got %s", rec.State)
	}
}

func TestEvaluate_AggressiveEntersAndLeavesWithinOneTick(t *testing.T) {
	m := newMachine(2)
	rec := Record{State: StateWander, TimeRemaining: 5}
	m.Evaluate(&rec, Inputs{Kind: KindHostile, TargetInRange: true, DT: dt})
	if rec.State != StateAggressive || !math.IsInf(rec.TimeRemaining, 1) {
		t.Fatalf("expected aggressive with unbounded timer, got %s %.2f", rec.State, rec.TimeRemaining)
	}
	for i := 0; i < 600; i++ {
		m.Evaluate(&rec, Inputs{Kind: KindHostile, TargetInRange: true, DT: dt})
	}
	if rec.State != StateAggressive {
		t.Fatalf("aggressive should hold while the target stays in range, got %s", rec.State)
	}
	_, changed := m.Evaluate(&rec, Inputs{Kind: KindHostile, DT: dt})
	if !changed || rec.State == StateAggressive || rec.State == StateFlee {
		t.Fatalf("losing the target should roll a roaming state, got %s", rec.State)
	}
	if math.IsInf(rec.TimeRemaining, 1) {
		t.Fatal("roaming states have finite timers")
	}
}

func TestEvaluate_HealthFullExitsFlee(t *testing.T) {
	m := newMachine(3)
	rec := Record{State: StateFlee, TimeRemaining: 4}
	m.Evaluate(&rec, Inputs{Kind: KindAlly, HealthFull: true, DT: dt})
	if rec.State == StateFlee {
		t.Fatal("full health should end flee immediately")
	}
}

func TestEvaluate_RepeatedDamageRestartsFlee(t *testing.T) {
	m := newMachine(4)
	rec := Record{State: StateFlee, TimeRemaining: 0.2, HasDestination: true}
	_, changed := m.Evaluate(&rec, Inputs{Kind: KindAlly, Damaged: true, DT: dt})
	if changed {
		t.Fatal("flee→flee is not a state change")
	}
	if rec.TimeRemaining != m.Config().FleeDuration {
		t.Fatalf("flee timer should restart, got %.2f", rec.TimeRemaining)
	}
	if rec.HasDestination {
		t.Fatal("restarted flee should pick a fresh destination")
	}
}

func TestEvaluate_LeavingPatrolClearsRing(t *testing.T) {
	m := newMachine(5)
	rec := Record{State: StatePatrol, TimeRemaining: 5}
	m.Destination(&rec, ctxAt(cp.Vector{}, KindAlly))
	if len(rec.PatrolWaypoints) == 0 {
		t.Fatal("patrol should lay its ring on first use")
	}
	m.Evaluate(&rec, Inputs{Kind: KindAlly, Damaged: true, DT: dt})
	if rec.PatrolWaypoints != nil {
		t.Fatal("leaving patrol must drop the ring")
	}
}

func TestEvaluate_NeverRandomlyEntersFlee(t *testing.T) {
	m := newMachine(6)
	rec := m.NewRecord()
	for i := 0; i < 60*600; i++ {
		m.Evaluate(&rec, Inputs{Kind: KindAlly, DT: dt})
		if rec.State == StateFlee || rec.State == StateAggressive {
			t.Fatalf("tick %d: timer-driven rolls reached %s", i, rec.State)
		}
	}
}
