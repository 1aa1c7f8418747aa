package behavior

import (
	"math"
	"math/rand"
	"testing"

	"github.com/Garsondee/Ship-Sense/internal/config"
)

func seeded(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed)) // #nosec G404 -- test determinism
}

func inRange(v float64, r config.Range) bool { return v >= r.Min && v <= r.Max }

func TestReselect_NeverFleeOrAggressive(t *testing.T) {
	cfg := config.Default().Behavior
	rng := seeded(1)
	counts := map[State]int{}
	for i := 0; i < 10000; i++ {
		st, dur := Reselect(rng, cfg)
		counts[st]++
		if st == StateFlee || st == StateAggressive {
			t.Fatalf("reselect drew %s", st)
		}
		var r config.Range
		switch st {
		case StateIdle:
			r = cfg.IdleDuration
		case StatePatrol:
			r = cfg.PatrolDuration
		case StateLongDistance:
			r = cfg.LongDistanceDuration
		case StateWander:
			r = cfg.WanderDuration
		}
		if !inRange(dur, r) {
			t.Fatalf("%s duration %.2f outside [%.0f,%.0f]", st, dur, r.Min, r.Max)
		}
	}
	idle := float64(counts[StateIdle]) / 10000
	if math.Abs(idle-cfg.IdleProbability) > 0.03 {
		t.Fatalf("idle share %.3f far from configured %.2f", idle, cfg.IdleProbability)
	}
	for _, st := range []State{StatePatrol, StateLongDistance, StateWander} {
		if counts[st] < 2300 || counts[st] > 3000 {
			t.Fatalf("%s drawn %d times, expected roughly an equal split", st, counts[st])
		}
	}
}

func TestReselect_IdleProbabilityExtremes(t *testing.T) {
	cfg := config.Default().Behavior
	rng := seeded(2)
	cfg.IdleProbability = 1
	for i := 0; i < 100; i++ {
		if st, _ := Reselect(rng, cfg); st != StateIdle {
			t.Fatalf("idle probability 1 drew %s", st)
		}
	}
	cfg.IdleProbability = 0
	for i := 0; i < 100; i++ {
		if st, _ := Reselect(rng, cfg); st == StateIdle {
			t.Fatal("idle probability 0 drew idle")
		}
	}
}

func TestNext_DamageForcesFlee(t *testing.T) {
	cfg := config.Default().Behavior
	rng := seeded(3)
	for _, from := range []State{StateIdle, StatePatrol, StateLongDistance, StateWander, StateAggressive} {
		st, dur := Next(from, 3, Event{Kind: EventDamaged}, KindHostile, rng, cfg)
		if st != StateFlee || dur != cfg.FleeDuration {
			t.Fatalf("damage from %s gave (%s, %.2f)", from, st, dur)
		}
	}
	// Repeated damage restarts the flee timer.
	st, dur := Next(StateFlee, 0.5, Event{Kind: EventDamaged}, KindAlly, rng, cfg)
	if st != StateFlee || dur != cfg.FleeDuration {
		t.Fatalf("repeated damage gave (%s, %.2f)", st, dur)
	}
}

func TestNext_HealthFullEndsFlee(t *testing.T) {
	cfg := config.Default().Behavior
	rng := seeded(4)
	for i := 0; i < 200; i++ {
		st, dur := Next(StateFlee, 4, Event{Kind: EventHealthFull}, KindAlly, rng, cfg)
		if st == StateFlee || st == StateAggressive {
			t.Fatalf("health recovery left the agent in %s", st)
		}
		if math.IsInf(dur, 1) || dur <= 0 {
			t.Fatalf("recovered state has timer %.2f", dur)
		}
	}
	st, dur := Next(StateWander, 4, Event{Kind: EventHealthFull}, KindAlly, rng, cfg)
	if st != StateWander || dur != 4 {
		t.Fatal("health recovery outside Flee is a no-op")
	}
}

func TestNext_TargetInRange(t *testing.T) {
	cfg := config.Default().Behavior
	rng := seeded(5)
	st, dur := Next(StatePatrol, 4, Event{Kind: EventTargetInRange}, KindHostile, rng, cfg)
	if st != StateAggressive || !math.IsInf(dur, 1) {
		t.Fatalf("hostile in range gave (%s, %.2f)", st, dur)
	}
	if st, _ := Next(StatePatrol, 4, Event{Kind: EventTargetInRange}, KindAlly, rng, cfg); st != StatePatrol {
		t.Fatalf("allies never turn aggressive, got %s", st)
	}
	if st, _ := Next(StateFlee, 4, Event{Kind: EventTargetInRange}, KindHostile, rng, cfg); st != StateFlee {
		t.Fatalf("fleeing takes precedence over aggression, got %s", st)
	}
}

func TestNext_TargetLostLeavesAggressive(t *testing.T) {
	cfg := config.Default().Behavior
	rng := seeded(6)
	for i := 0; i < 200; i++ {
		st, _ := Next(StateAggressive, Unbounded, Event{Kind: EventTargetLost}, KindHostile, rng, cfg)
		if st == StateAggressive || st == StateFlee {
			t.Fatalf("target loss produced %s", st)
		}
	}
}

func TestNext_TickCountsDownAndRerolls(t *testing.T) {
	cfg := config.Default().Behavior
	rng := seeded(7)
	st, rem := Next(StateWander, 1, Tick(0.25), KindAlly, rng, cfg)
	if st != StateWander || rem != 0.75 {
		t.Fatalf("expected (wander, 0.75), got (%s, %.2f)", st, rem)
	}
	_, rem = Next(StateWander, 0.1, Tick(0.25), KindAlly, rng, cfg)
	if rem <= 0 {
		t.Fatalf("expiry should roll a fresh positive timer, got %.2f", rem)
	}
}

func TestNext_FleeExpiryNeverRerollsFlee(t *testing.T) {
	cfg := config.Default().Behavior
	rng := seeded(8)
	for i := 0; i < 200; i++ {
		st, _ := Next(StateFlee, 0.01, Tick(0.1), KindAlly, rng, cfg)
		if st == StateFlee {
			t.Fatal("flee timer expiry re-entered flee")
		}
	}
}

func TestNext_AggressiveTimerUnbounded(t *testing.T) {
	cfg := config.Default().Behavior
	st, rem := Next(StateAggressive, Unbounded, Tick(1000), KindHostile, seeded(9), cfg)
	if st != StateAggressive || !math.IsInf(rem, 1) {
		t.Fatalf("aggressive must not time out, got (%s, %.2f)", st, rem)
	}
}

func TestStateStrings(t *testing.T) {
	want := map[State]string{
		StateIdle: "idle", StatePatrol: "patrol", StateLongDistance: "long_distance",
		StateWander: "wander", StateAggressive: "aggressive", StateFlee: "flee",
	}
	for st, s := range want {
		if st.String() != s {
			t.Fatalf("State(%d).String() = %q, want %q", st, st.String(), s)
		}
	}
	if KindHostile.String() != "hostile" || EventDamaged.String() != "damaged" {
		t.Fatal("kind/event labels changed")
	}
}
