package sim

import (
	"fmt"
	"strings"

	"github.com/Garsondee/Ship-Sense/internal/behavior"
)

// reportWindowTicks is the default sliding window for recent-behaviour reports (~10s at 60TPS).
const reportWindowTicks = 600

// KindReport is the per-kind tally in one SimReport.
type KindReport struct {
	Alive      int
	Injured    int // health < max but > 0
	Moving     int
	PathActive int
	Stuck      int
	States     map[behavior.State]int
}

// SimReport is a snapshot of the simulation at one tick.
type SimReport struct {
	Tick  int
	Kinds map[behavior.Kind]*KindReport
	// Agents is filled only by verbose reporters.
	Agents []AgentSnapshot
}

// SimReporter collects periodic reports and summarises them over a sliding
// window of ticks.
type SimReporter struct {
	history      []SimReport
	windowTicks  int
	verbose      bool
	stuckSeconds float64
}

// NewSimReporter creates a reporter. Agents stuck for longer than
// stuckSeconds are counted as stuck.
func NewSimReporter(windowTicks int, stuckSeconds float64, verbose bool) *SimReporter {
	if windowTicks <= 0 {
		windowTicks = reportWindowTicks
	}
	return &SimReporter{
		windowTicks:  windowTicks,
		verbose:      verbose,
		stuckSeconds: stuckSeconds,
	}
}

// Collect gathers a report from a snapshot. Call it periodically, e.g. every
// 60 ticks.
func (r *SimReporter) Collect(tick int, agents []AgentSnapshot) {
	report := SimReport{Tick: tick, Kinds: map[behavior.Kind]*KindReport{}}
	for _, a := range agents {
		if a.Kind == behavior.KindPlayer {
			continue
		}
		kr := report.Kinds[a.Kind]
		if kr == nil {
			kr = &KindReport{States: map[behavior.State]int{}}
			report.Kinds[a.Kind] = kr
		}
		kr.Alive++
		kr.States[a.State]++
		if a.Health > 0 && a.Health < a.MaxHealth {
			kr.Injured++
		}
		if a.Moving {
			kr.Moving++
		}
		if a.PathActive {
			kr.PathActive++
		}
		if a.StuckTime > r.stuckSeconds {
			kr.Stuck++
		}
	}
	if r.verbose {
		report.Agents = append([]AgentSnapshot(nil), agents...)
	}
	r.history = append(r.history, report)

	// Keep at most two windows of samples at one sample per second.
	maxKeep := r.windowTicks / 60 * 2
	if maxKeep < 100 {
		maxKeep = 100
	}
	if len(r.history) > maxKeep {
		r.history = r.history[len(r.history)-maxKeep:]
	}
}

// Latest returns the most recent report, or nil if none collected yet.
func (r *SimReporter) Latest() *SimReport {
	if len(r.history) == 0 {
		return nil
	}
	return &r.history[len(r.history)-1]
}

// History returns all retained reports.
func (r *SimReporter) History() []SimReport {
	return r.history
}

// WindowReport is an aggregate over a time window.
type WindowReport struct {
	FromTick, ToTick int
	SampleCount      int

	// StatePct is the share of agent-samples per state, 0-100.
	StatePct map[behavior.Kind]map[behavior.State]float64

	AvgAlive      map[behavior.Kind]float64
	AvgMoving     map[behavior.Kind]float64
	AvgPathActive map[behavior.Kind]float64
	AvgStuck      map[behavior.Kind]float64
}

// WindowSummary aggregates every report within the window ending at the
// latest one.
func (r *SimReporter) WindowSummary() *WindowReport {
	if len(r.history) == 0 {
		return nil
	}
	latestTick := r.history[len(r.history)-1].Tick
	cutoff := latestTick - r.windowTicks
	var window []SimReport
	for i := len(r.history) - 1; i >= 0; i-- {
		if r.history[i].Tick < cutoff {
			break
		}
		window = append(window, r.history[i])
	}

	n := float64(len(window))
	wr := &WindowReport{
		FromTick:      window[len(window)-1].Tick,
		ToTick:        window[0].Tick,
		SampleCount:   len(window),
		StatePct:      map[behavior.Kind]map[behavior.State]float64{},
		AvgAlive:      map[behavior.Kind]float64{},
		AvgMoving:     map[behavior.Kind]float64{},
		AvgPathActive: map[behavior.Kind]float64{},
		AvgStuck:      map[behavior.Kind]float64{},
	}
	totals := map[behavior.Kind]float64{}
	for _, rpt := range window {
		for kind, kr := range rpt.Kinds {
			if wr.StatePct[kind] == nil {
				wr.StatePct[kind] = map[behavior.State]float64{}
			}
			for st, c := range kr.States {
				wr.StatePct[kind][st] += float64(c)
				totals[kind] += float64(c)
			}
			wr.AvgAlive[kind] += float64(kr.Alive) / n
			wr.AvgMoving[kind] += float64(kr.Moving) / n
			wr.AvgPathActive[kind] += float64(kr.PathActive) / n
			wr.AvgStuck[kind] += float64(kr.Stuck) / n
		}
	}
	for kind, states := range wr.StatePct {
		for st := range states {
			states[st] = states[st] / totals[kind] * 100
		}
	}
	return wr
}

// Format returns a human-readable multi-line summary.
func (wr *WindowReport) Format() string {
	if wr == nil {
		return "No data collected yet.\n"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "=== Behaviour Report (T=%d..%d, %d samples) ===\n",
		wr.FromTick, wr.ToTick, wr.SampleCount)
	for _, kind := range []behavior.Kind{behavior.KindAlly, behavior.KindHostile} {
		states, ok := wr.StatePct[kind]
		if !ok {
			continue
		}
		fmt.Fprintf(&sb, "\n--- %s state distribution ---\n", strings.ToUpper(kind.String()))
		for st := behavior.StateIdle; st <= behavior.StateFlee; st++ {
			if pct := states[st]; pct > 0.5 {
				fmt.Fprintf(&sb, "  %-14s %5.1f%%\n", st, pct)
			}
		}
		fmt.Fprintf(&sb, "  alive=%.1f moving=%.1f pathing=%.1f stuck=%.1f\n",
			wr.AvgAlive[kind], wr.AvgMoving[kind], wr.AvgPathActive[kind], wr.AvgStuck[kind])
	}
	return sb.String()
}

// FormatLatest returns a concise snapshot of the most recent report.
func (r *SimReporter) FormatLatest() string {
	rpt := r.Latest()
	if rpt == nil {
		return "No data.\n"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "--- Snapshot T=%d ---\n", rpt.Tick)
	for _, kind := range []behavior.Kind{behavior.KindAlly, behavior.KindHostile} {
		kr, ok := rpt.Kinds[kind]
		if !ok {
			continue
		}
		fmt.Fprintf(&sb, "%-8s alive=%d injured=%d moving=%d pathing=%d stuck=%d  ",
			kind.String()+":", kr.Alive, kr.Injured, kr.Moving, kr.PathActive, kr.Stuck)
		for st := behavior.StateIdle; st <= behavior.StateFlee; st++ {
			if c := kr.States[st]; c > 0 {
				fmt.Fprintf(&sb, "%s=%d ", st, c)
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// StateProportions is the share of each state among live non-player agents.
func StateProportions(agents []AgentSnapshot) map[behavior.State]float64 {
	counts := make(map[behavior.State]int)
	total := 0
	for _, a := range agents {
		if a.Kind == behavior.KindPlayer {
			continue
		}
		counts[a.State]++
		total++
	}
	props := make(map[behavior.State]float64, len(counts))
	for st, c := range counts {
		props[st] = float64(c) / float64(total)
	}
	return props
}
