package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/jakecoffman/cp"

	"github.com/Garsondee/Ship-Sense/internal/behavior"
	"github.com/Garsondee/Ship-Sense/internal/config"
	"github.com/Garsondee/Ship-Sense/internal/nav"
	"github.com/Garsondee/Ship-Sense/internal/sim"
	"github.com/Garsondee/Ship-Sense/internal/sim/simtest"
)

// sampleTicks is how often the reporter samples a run.
const sampleTicks = 60

type runStats struct {
	runIndex int
	seed     int64
	agents   int

	firstAggressiveTick int
	firstFleeTick       int
	firstTrappedTick    int
	firstKillTick       int

	stateChanges int
	replans      int
	endShort     int
	stuck        int
	trapped      int
	sepStops     int
	shots        int
	kills        int
	survivors    int
	affected     map[string]struct{}

	planner       nav.Stats
	windowSummary *sim.WindowReport
}

type scenario struct {
	about string
	build func(seed int64) []simtest.SimOption
}

var scenarios = map[string]scenario{
	"mixed-fleet": {
		about: "six allies and six hostiles, player flying a loop",
		build: mixedFleet,
	},
	"standoff": {
		about: "four hostiles around a stationary player that takes damage",
		build: standoff,
	},
	"crowd": {
		about: "sixteen allies packed into a small box",
		build: crowd,
	},
}

func main() {
	var runs int
	var ticks int
	var seedBase int64
	var seedStep int64
	var scenarioName string
	var configPath string
	var logLevel string

	flag.IntVar(&runs, "runs", 5, "number of headless simulation runs")
	flag.IntVar(&ticks, "ticks", 3600, "ticks per run")
	flag.Int64Var(&seedBase, "seed-base", 42, "base RNG seed for run 1")
	flag.Int64Var(&seedStep, "seed-step", 1, "seed increment between runs")
	flag.StringVar(&scenarioName, "scenario", "mixed-fleet", "scenario name ("+scenarioNames()+")")
	flag.StringVar(&configPath, "config", "", "YAML tuning file (defaults when empty)")
	flag.StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "headless-report"})
	level, err := log.ParseLevel(logLevel)
	if err != nil {
		logger.Fatal("bad -log-level", "value", logLevel, "err", err)
	}
	logger.SetLevel(level)

	if runs <= 0 {
		logger.Fatal("-runs must be > 0")
	}
	if ticks <= 0 {
		logger.Fatal("-ticks must be > 0")
	}
	sc, ok := scenarios[scenarioName]
	if !ok {
		logger.Fatal("unsupported scenario", "scenario", scenarioName, "supported", scenarioNames())
	}
	cfg := config.Default()
	if configPath != "" {
		if cfg, err = config.Load(configPath); err != nil {
			logger.Fatal("load config", "err", err)
		}
	}

	fmt.Printf("=== Headless Navigation Report ===\n")
	fmt.Printf("scenario=%s (%s) runs=%d ticks=%d seed_base=%d seed_step=%d\n\n",
		scenarioName, sc.about, runs, ticks, seedBase, seedStep)

	all := make([]runStats, 0, runs)
	for i := 0; i < runs; i++ {
		seed := seedBase + int64(i)*seedStep
		opts := append([]simtest.SimOption{
			simtest.WithSeed(seed),
			simtest.WithConfig(cfg),
			simtest.WithLogger(logger.WithPrefix(fmt.Sprintf("run%d", i+1))),
		}, sc.build(seed)...)
		stats := runScenario(i+1, seed, ticks, opts)
		all = append(all, stats)
		printRun(stats)
	}

	printAggregate(all)
}

func scenarioNames() string {
	names := make([]string, 0, len(scenarios))
	for n := range scenarios {
		names = append(names, n)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func mixedFleet(_ int64) []simtest.SimOption {
	var opts []simtest.SimOption
	for i := 0; i < 6; i++ {
		opts = append(opts,
			simtest.WithAlly(i, -3000+float64(i%3)*400, -3000+float64(i/3)*400),
			simtest.WithHostile(10+i, 2500+float64(i%3)*400, 2500+float64(i/3)*400),
		)
	}
	return append(opts,
		simtest.WithPlayer(0, 0),
		simtest.WithPlayerRoute(
			cp.Vector{X: 2000, Y: 0},
			cp.Vector{X: 2000, Y: 2000},
			cp.Vector{X: -2000, Y: 2000},
			cp.Vector{X: -2000, Y: -2000},
		),
	)
}

func standoff(_ int64) []simtest.SimOption {
	return []simtest.SimOption{
		simtest.WithPlayer(0, 0),
		simtest.WithHostile(1, 1200, 0),
		simtest.WithHostile(2, -1200, 0),
		simtest.WithHostile(3, 0, 1200),
		simtest.WithHostile(4, 0, -1200),
		simtest.WithShotDamage(5),
	}
}

func crowd(_ int64) []simtest.SimOption {
	var opts []simtest.SimOption
	for i := 0; i < 16; i++ {
		opts = append(opts, simtest.WithAlly(i, float64(i%4)*180-270, float64(i/4)*180-270))
	}
	return opts
}

func runScenario(runIndex int, seed int64, ticks int, opts []simtest.SimOption) runStats {
	ts := simtest.NewTestSim(opts...)
	agents := countAgents(ts.Snapshot())
	reporter := sim.NewSimReporter(600, ts.Config.Progress.TrappedAfter, false)
	for done := 0; done < ticks; {
		n := min(sampleTicks, ticks-done)
		ts.RunTicks(n)
		done += n
		reporter.Collect(ts.CurrentTick(), ts.Snapshot())
	}

	entries := ts.SimLog.Entries()
	affected := map[string]struct{}{}
	for _, e := range entries {
		if e.Category == sim.CatProgress {
			affected[e.Agent] = struct{}{}
		}
	}

	return runStats{
		runIndex:            runIndex,
		seed:                seed,
		agents:              agents,
		firstAggressiveTick: firstTick(entries, sim.CatState, "change", "→ aggressive"),
		firstFleeTick:       firstTick(entries, sim.CatState, "", "flee"),
		firstTrappedTick:    firstTick(entries, sim.CatProgress, "trapped", ""),
		firstKillTick:       firstTick(entries, sim.CatLifecycle, "killed", ""),
		stateChanges:        ts.SimLog.CountCategory(sim.CatState, "change"),
		replans:             ts.SimLog.CountCategory(sim.CatPath, "replan"),
		endShort:            ts.SimLog.CountCategory(sim.CatPath, "end_short"),
		stuck:               ts.SimLog.CountCategory(sim.CatProgress, "stuck"),
		trapped:             ts.SimLog.CountCategory(sim.CatProgress, "trapped"),
		sepStops:            ts.SimLog.CountCategory(sim.CatSeparation, "stop"),
		shots:               ts.ShotsFired(),
		kills:               ts.SimLog.CountCategory(sim.CatLifecycle, "killed"),
		survivors:           countAgents(ts.Snapshot()),
		affected:            affected,
		planner:             ts.Sim.PlannerStats(),
		windowSummary:       reporter.WindowSummary(),
	}
}

// countAgents counts non-player agents.
func countAgents(snaps []sim.AgentSnapshot) int {
	n := 0
	for _, a := range snaps {
		if a.Kind != behavior.KindPlayer {
			n++
		}
	}
	return n
}

func firstTick(entries []sim.SimLogEntry, category, key, contains string) int {
	for _, e := range entries {
		if e.Category != category || (key != "" && e.Key != key) {
			continue
		}
		if contains == "" || strings.Contains(e.Value, contains) {
			return e.Tick
		}
	}
	return -1
}

// detectGridlock flags runs where agents spent most of the window trapped
// rather than travelling.
func detectGridlock(rs runStats) (bool, string) {
	if rs.agents == 0 || rs.windowSummary == nil {
		return false, "no_data"
	}
	var reasons []string
	if rs.trapped >= 2*rs.agents {
		reasons = append(reasons, "many_traps")
	}
	alive, moving := 0.0, 0.0
	for kind, v := range rs.windowSummary.AvgAlive {
		alive += v
		moving += rs.windowSummary.AvgMoving[kind]
	}
	if alive > 0 && moving/alive < 0.25 {
		reasons = append(reasons, "low_motion")
	}
	if len(reasons) < 2 {
		if len(reasons) == 0 {
			return false, "flowing"
		}
		return false, reasons[0] + "_only"
	}
	return true, strings.Join(reasons, "+")
}

func printRun(rs runStats) {
	fmt.Printf("--- Run %d (seed=%d agents=%d) ---\n", rs.runIndex, rs.seed, rs.agents)
	fmt.Printf("phase_markers: first_aggressive=%d first_flee=%d first_trapped=%d first_kill=%d\n",
		rs.firstAggressiveTick, rs.firstFleeTick, rs.firstTrappedTick, rs.firstKillTick)
	fmt.Printf("event_totals: state_change=%d replan=%d end_short=%d separation_stop=%d shots=%d kills=%d\n",
		rs.stateChanges, rs.replans, rs.endShort, rs.sepStops, rs.shots, rs.kills)
	fmt.Printf("progress_events: stuck=%d trapped=%d affected_agents=%d\n",
		rs.stuck, rs.trapped, len(rs.affected))
	fmt.Printf("planner: searches=%d fallbacks=%d expanded=%d\n",
		rs.planner.Searches, rs.planner.Fallbacks, rs.planner.Expanded)
	fmt.Printf("affected_labels: %s\n", joinSet(rs.affected))
	gridlock, reason := detectGridlock(rs)
	fmt.Printf("survivors=%d/%d gridlock=%v (%s)\n", rs.survivors, rs.agents, gridlock, reason)
	if rs.windowSummary != nil {
		fmt.Print(rs.windowSummary.Format())
	}
	fmt.Println()
}

func printAggregate(all []runStats) {
	var totalState, totalReplan, totalEndShort, totalStuck, totalTrapped int
	var totalSep, totalShots, totalKills, totalFallbacks, totalSearches int
	aggressiveTicks := make([]int, 0, len(all))
	trappedTicks := make([]int, 0, len(all))
	killTicks := make([]int, 0, len(all))
	affectedGlobal := map[string]struct{}{}
	gridlocks := 0

	statePct := map[behavior.Kind]map[behavior.State]float64{}
	windows := 0

	for _, rs := range all {
		totalState += rs.stateChanges
		totalReplan += rs.replans
		totalEndShort += rs.endShort
		totalStuck += rs.stuck
		totalTrapped += rs.trapped
		totalSep += rs.sepStops
		totalShots += rs.shots
		totalKills += rs.kills
		totalSearches += rs.planner.Searches
		totalFallbacks += rs.planner.Fallbacks
		if rs.firstAggressiveTick >= 0 {
			aggressiveTicks = append(aggressiveTicks, rs.firstAggressiveTick)
		}
		if rs.firstTrappedTick >= 0 {
			trappedTicks = append(trappedTicks, rs.firstTrappedTick)
		}
		if rs.firstKillTick >= 0 {
			killTicks = append(killTicks, rs.firstKillTick)
		}
		for label := range rs.affected {
			affectedGlobal[label] = struct{}{}
		}
		if g, _ := detectGridlock(rs); g {
			gridlocks++
		}
		if rs.windowSummary != nil {
			windows++
			for kind, states := range rs.windowSummary.StatePct {
				if statePct[kind] == nil {
					statePct[kind] = map[behavior.State]float64{}
				}
				for st, pct := range states {
					statePct[kind][st] += pct
				}
			}
		}
	}

	n := len(all)
	fmt.Println("=== Aggregate ===")
	fmt.Printf("runs=%d gridlocked_runs=%d\n", n, gridlocks)
	fmt.Printf("avg_events_per_run: state_change=%.1f replan=%.1f end_short=%.1f separation_stop=%.1f shots=%.1f kills=%.1f\n",
		avg(totalState, n), avg(totalReplan, n), avg(totalEndShort, n), avg(totalSep, n), avg(totalShots, n), avg(totalKills, n))
	fmt.Printf("avg_progress_per_run: stuck=%.1f trapped=%.1f\n", avg(totalStuck, n), avg(totalTrapped, n))
	fmt.Printf("planner_fallback_rate=%s\n", ratio(totalFallbacks, totalSearches))
	fmt.Printf("phase_marker_avg_ticks: first_aggressive=%s first_trapped=%s first_kill=%s\n",
		avgTickString(aggressiveTicks), avgTickString(trappedTicks), avgTickString(killTicks))
	fmt.Printf("unique_affected_labels=%d [%s]\n", len(affectedGlobal), joinSet(affectedGlobal))

	if windows > 0 {
		fmt.Println("\n--- Mean final-window state distribution ---")
		for _, kind := range []behavior.Kind{behavior.KindAlly, behavior.KindHostile} {
			states, ok := statePct[kind]
			if !ok {
				continue
			}
			fmt.Printf("%s:", kind)
			for st := behavior.StateIdle; st <= behavior.StateFlee; st++ {
				if pct := states[st] / float64(windows); pct > 0.5 {
					fmt.Printf(" %s=%.1f%%", st, pct)
				}
			}
			fmt.Println()
		}
	}
}

func avg(sum int, n int) float64 {
	if n <= 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

func ratio(num, den int) string {
	if den == 0 {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%%", float64(num)/float64(den)*100)
}

func avgTickString(vals []int) string {
	if len(vals) == 0 {
		return "n/a"
	}
	sum := 0
	for _, v := range vals {
		sum += v
	}
	return fmt.Sprintf("%.1f", float64(sum)/float64(len(vals)))
}

func joinSet(s map[string]struct{}) string {
	if len(s) == 0 {
		return "none"
	}
	labels := make([]string, 0, len(s))
	for k := range s {
		labels = append(labels, k)
	}
	sort.Strings(labels)
	return strings.Join(labels, ",")
}
