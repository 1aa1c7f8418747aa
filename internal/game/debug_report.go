package game

import (
	"fmt"
	"sort"
	"strings"

	"github.com/atotto/clipboard"

	"github.com/Garsondee/Ship-Sense/internal/sim"
)

// agentDebugReport summarises one agent's records and its recent SimLog
// events as plain text for bug reports.
func agentDebugReport(s *sim.Sim, id sim.AgentID, lastTicks int) string {
	in, ok := s.Inspect(id)
	if !ok {
		return ""
	}
	if lastTicks <= 0 {
		lastTicks = reportTicks
	}
	toTick := s.Tick()
	fromTick := toTick - lastTicks + 1
	if fromTick < 0 {
		fromTick = 0
	}

	var b strings.Builder
	fmt.Fprintf(&b, "--- Ship-Sense debug report ---\n")
	fmt.Fprintf(&b, "agent=%s kind=%s tick_range=[%d..%d]\n", id, in.Agent.Kind, fromTick, toTick)

	b.WriteString("\n== records ==\n")
	for _, l := range rawLines(in) {
		b.WriteString("  ")
		b.WriteString(l)
		b.WriteByte('\n')
	}
	if path := s.PathOf(id); len(path) > 0 {
		b.WriteString("  waypoints:")
		for _, p := range path {
			fmt.Fprintf(&b, " (%.0f,%.0f)", p.X, p.Y)
		}
		b.WriteByte('\n')
	}

	var events []sim.SimLogEntry
	for _, e := range s.SimLog().FilterAgent(id.String()) {
		if e.Tick >= fromTick && e.Tick <= toTick {
			events = append(events, e)
		}
	}
	counts := map[string]int{}
	for _, e := range events {
		counts[e.Category+"/"+e.Key]++
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	b.WriteString("\n== summary ==\n")
	if len(keys) == 0 {
		b.WriteString("  (no events in range)\n")
	}
	for _, k := range keys {
		fmt.Fprintf(&b, "  %-24s %d\n", k, counts[k])
	}

	b.WriteString("\n== events ==\n")
	for _, e := range events {
		b.WriteString("  ")
		b.WriteString(e.String())
		b.WriteByte('\n')
	}

	ps := s.PlannerStats()
	ss := s.SeparationStats()
	fmt.Fprintf(&b, "\n== sim ==\n  agents=%d paths=%d searches=%d fallbacks=%d expanded=%d\n",
		len(s.Agents()), s.ActivePaths(), ps.Searches, ps.Fallbacks, ps.Expanded)
	fmt.Fprintf(&b, "  overlaps=%d severe=%d iterations=%d max_pen=%.1f\n",
		ss.Overlaps, ss.Severe, ss.Iterations, ss.MaxPenetration)
	return b.String()
}

// copyReport puts the selected agent's debug report on the clipboard.
func (g *Game) copyReport() {
	in, ok := g.selection()
	if !ok {
		g.setStatus("select an agent first")
		return
	}
	report := agentDebugReport(g.sim, in.Agent.ID, reportTicks)
	if err := clipboard.WriteAll(report); err != nil {
		g.logger.Warn("clipboard write failed", "err", err)
		g.setStatus("clipboard: %v", err)
		return
	}
	g.logger.Debug("debug report copied", "agent", in.Agent.ID, "bytes", len(report))
	g.setStatus("report for %s copied", in.Agent.ID)
}
