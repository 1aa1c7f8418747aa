package game

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/Garsondee/Ship-Sense/internal/sim"
)

const (
	logPanelWidth = 380
	logMaxEntries = 80
	logLineHeight = 14
)

// ThoughtEntry is a single line in the thought log.
type ThoughtEntry struct {
	Tick    int
	Label   string // e.g. "A3"
	Kind    string
	Message string
}

// ThoughtLog is a ring buffer of agent events rendered on-screen.
type ThoughtLog struct {
	entries []ThoughtEntry
	head    int
	count   int
}

// NewThoughtLog creates a thought log with a fixed capacity.
func NewThoughtLog() *ThoughtLog {
	return &ThoughtLog{
		entries: make([]ThoughtEntry, logMaxEntries),
	}
}

// Add appends an entry to the log.
func (tl *ThoughtLog) Add(tick int, label, kind, msg string) {
	tl.entries[tl.head] = ThoughtEntry{
		Tick:    tick,
		Label:   label,
		Kind:    kind,
		Message: msg,
	}
	tl.head = (tl.head + 1) % logMaxEntries
	if tl.count < logMaxEntries {
		tl.count++
	}
}

// AddSimEntry turns a SimLog event into a thought. Per-tick movement noise
// is skipped.
func (tl *ThoughtLog) AddSimEntry(e sim.SimLogEntry) bool {
	var msg string
	switch e.Category {
	case sim.CatMove:
		return false
	case sim.CatState:
		msg = e.Value
	case sim.CatPath:
		msg = fmt.Sprintf("%s %s", e.Key, e.Value)
	default:
		msg = e.Key
		if e.Value != "" {
			msg += " " + e.Value
		}
	}
	tl.Add(e.Tick, e.Agent, e.Kind, msg)
	return true
}

// Recent returns entries in chronological order (oldest first).
func (tl *ThoughtLog) Recent() []ThoughtEntry {
	result := make([]ThoughtEntry, tl.count)
	for i := 0; i < tl.count; i++ {
		idx := (tl.head - tl.count + i + logMaxEntries) % logMaxEntries
		result[i] = tl.entries[idx]
	}
	return result
}

func kindColor(kind string) color.RGBA {
	switch kind {
	case "ally":
		return color.RGBA{R: 80, G: 200, B: 120, A: 255}
	case "hostile":
		return color.RGBA{R: 220, G: 80, B: 70, A: 255}
	case "player":
		return color.RGBA{R: 110, G: 160, B: 240, A: 255}
	default:
		return color.RGBA{R: 160, G: 160, B: 160, A: 255}
	}
}

// Draw renders the thought log panel on the right side of the screen.
func (tl *ThoughtLog) Draw(screen *ebiten.Image, panelX, panelH int) {
	vector.FillRect(screen, float32(panelX), 0, float32(logPanelWidth), float32(panelH), color.RGBA{R: 8, G: 10, B: 16, A: 248}, false)
	vector.StrokeLine(screen, float32(panelX), 0, float32(panelX), float32(panelH), 1.0, color.RGBA{R: 50, G: 60, B: 90, A: 255}, false)

	vector.FillRect(screen, float32(panelX), 0, float32(logPanelWidth), 18, color.RGBA{R: 18, G: 24, B: 40, A: 255}, false)
	drawText(screen, "THOUGHT LOG", panelX+8, 3, color.White)
	vector.StrokeLine(screen, float32(panelX), 18, float32(panelX+logPanelWidth), 18, 1.0, color.RGBA{R: 50, G: 70, B: 110, A: 200}, false)

	entries := tl.Recent()
	maxVisible := (panelH - 26) / logLineHeight
	if len(entries) > maxVisible {
		entries = entries[len(entries)-maxVisible:]
	}
	recent := 3

	y := 22
	for i, e := range entries {
		isRecent := i >= len(entries)-recent
		if isRecent {
			vector.FillRect(screen, float32(panelX+2), float32(y), float32(logPanelWidth-4), float32(logLineHeight), color.RGBA{R: 26, G: 34, B: 52, A: 160}, false)
		}
		vector.FillRect(screen, float32(panelX+5), float32(y+4), 3, 6, kindColor(e.Kind), false)

		textCol := color.RGBA{R: 150, G: 150, B: 160, A: 255}
		if isRecent {
			textCol = color.RGBA{R: 235, G: 235, B: 240, A: 255}
		}
		drawText(screen, fmt.Sprintf("%5d [%s] %s", e.Tick, e.Label, e.Message), panelX+12, y, textCol)
		y += logLineHeight
	}
}
