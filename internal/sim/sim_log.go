package sim

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Garsondee/Ship-Sense/internal/behavior"
)

// SimLog categories.
const (
	CatState      = "state"
	CatPath       = "path"
	CatProgress   = "progress"
	CatSeparation = "separation"
	CatCombat     = "combat"
	CatLifecycle  = "lifecycle"
	CatMove       = "move"
)

// SimLogEntry is one recorded event.
type SimLogEntry struct {
	Tick     int
	Agent    string // label e.g. "A3", or "--" for global events
	Kind     string // "ally", "hostile", "player" or "--"
	Category string
	Key      string
	Value    string
	NumVal   float64
}

// String formats the entry as a fixed-width log line.
//
//	[T=042] A3   state      change           patrol → flee
func (e SimLogEntry) String() string {
	return fmt.Sprintf("[T=%03d] %-4s %-10s %-16s %s",
		e.Tick, e.Agent, e.Category, e.Key, e.Value)
}

// SimLog collects structured events from the tick pipeline. Unlike the
// viewer's thought log it is unbounded and machine-readable.
type SimLog struct {
	entries []SimLogEntry
	verbose bool
}

// NewSimLog creates a SimLog. Verbose logs also record per-tick positions.
func NewSimLog(verbose bool) *SimLog {
	return &SimLog{verbose: verbose}
}

// Add records a new entry.
func (sl *SimLog) Add(tick int, agent, kind, category, key, value string, numVal float64) {
	sl.entries = append(sl.entries, SimLogEntry{
		Tick:     tick,
		Agent:    agent,
		Kind:     kind,
		Category: category,
		Key:      key,
		Value:    value,
		NumVal:   numVal,
	})
}

// AddVerbose records an entry only when verbose mode is on.
func (sl *SimLog) AddVerbose(tick int, agent, kind, category, key, value string, numVal float64) {
	if !sl.verbose {
		return
	}
	sl.Add(tick, agent, kind, category, key, value, numVal)
}

// Verbose reports whether per-tick entries are recorded.
func (sl *SimLog) Verbose() bool { return sl.verbose }

// Entries returns all recorded entries.
func (sl *SimLog) Entries() []SimLogEntry {
	return sl.entries
}

// Filter returns entries matching the given category and/or key.
// Pass empty string to match any value for that field.
func (sl *SimLog) Filter(category, key string) []SimLogEntry {
	var out []SimLogEntry
	for _, e := range sl.entries {
		if category != "" && e.Category != category {
			continue
		}
		if key != "" && e.Key != key {
			continue
		}
		out = append(out, e)
	}
	return out
}

// FilterAgent returns entries for one agent label.
func (sl *SimLog) FilterAgent(label string) []SimLogEntry {
	var out []SimLogEntry
	for _, e := range sl.entries {
		if e.Agent == label {
			out = append(out, e)
		}
	}
	return out
}

// FilterTickRange returns entries within [fromTick, toTick] inclusive.
func (sl *SimLog) FilterTickRange(fromTick, toTick int) []SimLogEntry {
	var out []SimLogEntry
	for _, e := range sl.entries {
		if e.Tick >= fromTick && e.Tick <= toTick {
			out = append(out, e)
		}
	}
	return out
}

// CountCategory returns how many entries match the given category and key.
func (sl *SimLog) CountCategory(category, key string) int {
	n := 0
	for _, e := range sl.entries {
		if (category == "" || e.Category == category) && (key == "" || e.Key == key) {
			n++
		}
	}
	return n
}

// LastOf returns the most recent entry matching category+key, or false if none.
func (sl *SimLog) LastOf(category, key string) (SimLogEntry, bool) {
	for i := len(sl.entries) - 1; i >= 0; i-- {
		e := sl.entries[i]
		if (category == "" || e.Category == category) && (key == "" || e.Key == key) {
			return e, true
		}
	}
	return SimLogEntry{}, false
}

// HasEntry returns true if at least one entry matches category, key, and value substring.
func (sl *SimLog) HasEntry(category, key, valueSubstr string) bool {
	for _, e := range sl.entries {
		if category != "" && e.Category != category {
			continue
		}
		if key != "" && e.Key != key {
			continue
		}
		if valueSubstr != "" && !strings.Contains(e.Value, valueSubstr) {
			continue
		}
		return true
	}
	return false
}

// DropBefore discards entries older than tick and returns how many went.
// Long-running hosts use it to bound the log.
func (sl *SimLog) DropBefore(tick int) int {
	n := 0
	for n < len(sl.entries) && sl.entries[n].Tick < tick {
		n++
	}
	if n > 0 {
		sl.entries = append(sl.entries[:0], sl.entries[n:]...)
	}
	return n
}

// Tally counts entries per "category/key".
func (sl *SimLog) Tally() map[string]int {
	out := make(map[string]int)
	for _, e := range sl.entries {
		out[e.Category+"/"+e.Key]++
	}
	return out
}

// Format returns the full log as a single string for t.Log output.
func (sl *SimLog) Format() string {
	return formatEntries(sl.entries)
}

// FormatRange returns a log string filtered to a tick range.
func (sl *SimLog) FormatRange(fromTick, toTick int) string {
	return formatEntries(sl.FilterTickRange(fromTick, toTick))
}

func formatEntries(entries []SimLogEntry) string {
	var sb strings.Builder
	for _, e := range entries {
		sb.WriteString(e.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Summary returns a short human-readable summary of the given agents.
func (sl *SimLog) Summary(tick int, agents []AgentSnapshot) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "--- Summary at T=%03d ---\n", tick)

	states := map[behavior.Kind]map[behavior.State]int{}
	alive := map[behavior.Kind]int{}
	for _, a := range agents {
		alive[a.Kind]++
		if a.Kind == behavior.KindPlayer {
			continue
		}
		if states[a.Kind] == nil {
			states[a.Kind] = map[behavior.State]int{}
		}
		states[a.Kind][a.State]++
	}
	for _, kind := range []behavior.Kind{behavior.KindAlly, behavior.KindHostile} {
		counts, ok := states[kind]
		if !ok {
			continue
		}
		fmt.Fprintf(&sb, "%s states: ", kind)
		for st := behavior.StateIdle; st <= behavior.StateFlee; st++ {
			if n := counts[st]; n > 0 {
				fmt.Fprintf(&sb, "%s=%d  ", st, n)
			}
		}
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "Alive: ally=%d  hostile=%d  player=%d\n",
		alive[behavior.KindAlly], alive[behavior.KindHostile], alive[behavior.KindPlayer])

	tally := sl.Tally()
	keys := make([]string, 0, len(tally))
	for k := range tally {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&sb, "  %-28s %d\n", k, tally[k])
	}
	return sb.String()
}
