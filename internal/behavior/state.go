// Package behavior decides where each agent wants to go. A pure transition
// function moves an agent between states; per-state policies turn the current
// state into a destination, an aim point and a fire request.
package behavior

import (
	"math"
	"math/rand"

	"github.com/Garsondee/Ship-Sense/internal/config"
)

// Kind tags an agent as the player, a friendly, or a hostile.
type Kind int

const (
	KindPlayer Kind = iota
	KindAlly
	KindHostile
)

func (k Kind) String() string {
	switch k {
	case KindPlayer:
		return "player"
	case KindAlly:
		return "ally"
	case KindHostile:
		return "hostile"
	default:
		return "unknown"
	}
}

// State is one behavior mode.
type State int

const (
	StateIdle State = iota
	StatePatrol
	StateLongDistance
	StateWander
	StateAggressive
	StateFlee
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePatrol:
		return "patrol"
	case StateLongDistance:
		return "long_distance"
	case StateWander:
		return "wander"
	case StateAggressive:
		return "aggressive"
	case StateFlee:
		return "flee"
	default:
		return "unknown"
	}
}

// Unbounded is the timer Aggressive runs with.
var Unbounded = math.Inf(1)

// EventKind names a transition trigger.
type EventKind int

const (
	EventTick EventKind = iota
	EventDamaged
	EventHealthFull
	EventTargetInRange
	EventTargetLost
)

func (e EventKind) String() string {
	switch e {
	case EventTick:
		return "tick"
	case EventDamaged:
		return "damaged"
	case EventHealthFull:
		return "health_full"
	case EventTargetInRange:
		return "target_in_range"
	case EventTargetLost:
		return "target_lost"
	default:
		return "unknown"
	}
}

// Event is a trigger. DT is only read for EventTick.
type Event struct {
	Kind EventKind
	DT   float64
}

// Tick is the elapsed-time event.
func Tick(dt float64) Event { return Event{Kind: EventTick, DT: dt} }

// Next applies one event to (st, remaining). It has no side effects other
// than drawing from rng when a fresh state is rolled.
func Next(st State, remaining float64, ev Event, kind Kind, rng *rand.Rand, cfg config.Behavior) (State, float64) {
	switch ev.Kind {
	case EventDamaged:
		return StateFlee, cfg.FleeDuration
	case EventHealthFull:
		if st == StateFlee {
			return Reselect(rng, cfg)
		}
	case EventTargetInRange:
		if kind == KindHostile && st != StateFlee {
			return StateAggressive, Unbounded
		}
	case EventTargetLost:
		if st == StateAggressive {
			return Reselect(rng, cfg)
		}
	case EventTick:
		if st == StateAggressive {
			return st, Unbounded
		}
		remaining -= ev.DT
		if remaining <= 0 {
			return Reselect(rng, cfg)
		}
	}
	return st, remaining
}

// Reselect rolls a fresh roaming state: Idle with IdleProbability, otherwise
// Patrol, LongDistance or Wander with equal odds. Flee and Aggressive are
// never drawn.
func Reselect(rng *rand.Rand, cfg config.Behavior) (State, float64) {
	if rng.Float64() < cfg.IdleProbability {
		return StateIdle, uniform(rng, cfg.IdleDuration)
	}
	switch rng.Intn(3) {
	case 0:
		return StatePatrol, uniform(rng, cfg.PatrolDuration)
	case 1:
		return StateLongDistance, uniform(rng, cfg.LongDistanceDuration)
	default:
		return StateWander, uniform(rng, cfg.WanderDuration)
	}
}

func uniform(rng *rand.Rand, r config.Range) float64 {
	return r.Min + rng.Float64()*r.Span()
}
