package game

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/Garsondee/Ship-Sense/internal/behavior"
	"github.com/Garsondee/Ship-Sense/internal/sim"
)

// Inspector panel, rendered into an offscreen buffer at 1x then blitted at
// inspScale.
const (
	inspScale = 2
	inspBufW  = 300
	inspBufH  = 300
	inspPad   = 4
	inspLineH = 14
)

// Inspector holds the selected agent and view toggle state.
type Inspector struct {
	selected sim.AgentID
	has      bool
	rawView  bool // false = curated, true = raw dump
}

func (in *Inspector) is(id sim.AgentID) bool { return in.has && in.selected == id }

func (in *Inspector) selectID(id sim.AgentID) {
	in.selected = id
	in.has = true
}

func (in *Inspector) clear() { in.has = false }

// handleInspectorClick selects the agent under the cursor, or clears the
// selection on empty space. Clicks outside the playfield are ignored.
func (g *Game) handleInspectorClick(mx, my int) bool {
	if mx < g.offX || my < g.offY || mx >= g.offX+g.gameWidth || my >= g.offY+g.gameHeight {
		return false
	}
	if id, ok := g.pickAgent(mx, my); ok {
		g.inspector.selectID(id)
		return true
	}
	g.inspector.clear()
	return false
}

// selection resolves the selected agent, dropping a stale selection.
func (g *Game) selection() (sim.Inspection, bool) {
	if !g.inspector.has {
		return sim.Inspection{}, false
	}
	in, ok := g.sim.Inspect(g.inspector.selected)
	if !ok {
		g.inspector.clear()
	}
	return in, ok
}

func (g *Game) damageSelected() {
	in, ok := g.selection()
	if !ok {
		return
	}
	g.sim.ApplyDamage(in.Agent.ID, debugDamage)
	g.setStatus("%s hit for %.0f", in.Agent.ID, debugDamage)
}

// swapSelected replaces the selected ship with one of the other class.
func (g *Game) swapSelected() {
	in, ok := g.selection()
	if !ok || in.Agent.Kind == behavior.KindPlayer {
		return
	}
	kind := behavior.KindHostile
	if in.Agent.Kind == behavior.KindHostile {
		kind = behavior.KindAlly
	}
	spec := g.shipSpec(kind, in.Agent.Kinematics.Position)
	id, ok := g.sim.Replace(in.Agent.ID, spec)
	if !ok {
		return
	}
	g.inspector.selectID(id)
	g.setStatus("%s swapped to %s as %s", in.Agent.ID, kind, id)
}

func (g *Game) destroySelected() {
	in, ok := g.selection()
	if !ok {
		return
	}
	g.sim.Destroy(in.Agent.ID)
	g.inspector.clear()
	g.setStatus("%s destroyed", in.Agent.ID)
}

// drawInspector renders the inspector panel into an offscreen buffer at 1x,
// then blits it onto the screen at inspScale.
func (g *Game) drawInspector(screen *ebiten.Image) {
	in, ok := g.selection()
	if !ok {
		return
	}

	buf := g.inspBuf
	buf.Clear()
	bw := float32(inspBufW)
	bh := float32(inspBufH)

	panelBorder := color.RGBA{R: 60, G: 80, B: 120, A: 255}
	vector.FillRect(buf, 0, 0, bw, bh, color.RGBA{R: 10, G: 12, B: 20, A: 230}, false)
	vector.StrokeRect(buf, 0, 0, bw, bh, 1.0, panelBorder, false)

	lx := inspPad
	ly := inspPad
	title := fmt.Sprintf("[ %s %s ]", strings.ToUpper(in.Agent.Kind.String()), in.Agent.ID)
	drawText(buf, title, lx, ly, kindColor(in.Agent.Kind.String()))
	ly += inspLineH + 2

	viewName := "CURATED"
	if g.inspector.rawView {
		viewName = "RAW"
	}
	drawText(buf, fmt.Sprintf("view: %s  [I] toggle", viewName), lx, ly, color.White)
	ly += inspLineH + 4
	vector.StrokeLine(buf, float32(lx), float32(ly), bw-float32(inspPad), float32(ly), 1.0, panelBorder, false)
	ly += 4

	var lines []string
	if g.inspector.rawView {
		lines = rawLines(in)
	} else {
		lines = curatedLines(in)
	}
	for _, l := range lines {
		drawText(buf, l, lx, ly, color.RGBA{R: 210, G: 215, B: 230, A: 255})
		ly += inspLineH
	}

	px := g.offX + g.gameWidth - inspBufW*inspScale - 8
	py := g.offY + 8
	opts := &ebiten.DrawImageOptions{}
	opts.GeoM.Scale(float64(inspScale), float64(inspScale))
	opts.GeoM.Translate(float64(px), float64(py))
	screen.DrawImage(buf, opts)
}

// curatedLines is the organised, human-readable inspector view.
func curatedLines(in sim.Inspection) []string {
	k := in.Agent.Kinematics
	out := []string{
		"-- SITUATION --",
		fmt.Sprintf("pos:(%.0f,%.0f) spd:%.0f/%.0f", k.Position.X, k.Position.Y, k.Velocity.Length(), k.Speed),
		fmt.Sprintf("hp: %s %.0f", healthBar(in.Agent.Health, in.Agent.MaxHealth), in.Agent.Health),
	}
	if !in.HasRecords {
		return append(out, "(no behavior records)")
	}
	b := in.Behavior
	timer := "inf"
	if b.State != behavior.StateAggressive {
		timer = fmt.Sprintf("%.1fs", b.TimeRemaining)
	}
	out = append(out,
		"-- BEHAVIOR --",
		fmt.Sprintf("state: %s (%s)", b.State, timer),
	)
	if b.HasDestination {
		out = append(out, fmt.Sprintf("dest: (%.0f,%.0f)", b.Destination.X, b.Destination.Y))
	}
	if b.State == behavior.StatePatrol {
		out = append(out, fmt.Sprintf("patrol: %d/%d", b.PatrolIndex+1, len(b.PatrolWaypoints)))
	}
	if b.State == behavior.StateAggressive {
		out = append(out, fmt.Sprintf("strafe:%+.0f cooldown:%.1fs", b.StrafeSign, b.FireCooldown))
	}

	p := in.Path
	out = append(out, "-- NAVIGATION --")
	if p.Active {
		out = append(out,
			fmt.Sprintf("path: wp %d/%d", p.CurrentIndex+1, len(p.Waypoints)),
			fmt.Sprintf("closest:%.0f stall:%.1fs", p.ClosestDistance, p.NoProgressTime),
		)
	} else {
		out = append(out, "path: direct")
	}
	o := in.Output
	out = append(out, fmt.Sprintf("target:(%.0f,%.0f) planned:%v", o.Target.X, o.Target.Y, o.Planned))
	if in.Scratch.StuckTime > 0 {
		out = append(out, fmt.Sprintf("stuck: %.1fs", in.Scratch.StuckTime))
	}
	return out
}

// rawLines dumps every record field verbatim.
func rawLines(in sim.Inspection) []string {
	a, b, p, s, o := in.Agent, in.Behavior, in.Path, in.Scratch, in.Output
	k := a.Kinematics
	return []string{
		fmt.Sprintf("id=%s idx=%d gen=%d kind=%s", a.ID, a.ID.Index, a.ID.Gen, a.Kind),
		fmt.Sprintf("pos=(%.1f,%.1f) vel=(%.1f,%.1f)", k.Position.X, k.Position.Y, k.Velocity.X, k.Velocity.Y),
		fmt.Sprintf("rot=%.2f spd=%.0f r=%.0f la=%.2f mv=%v", k.Rotation, k.Speed, k.Radius, k.LookAheadMultiplier, k.Moving),
		fmt.Sprintf("hp=%.1f/%.1f rec=%v", a.Health, a.MaxHealth, in.HasRecords),
		"-- behavior --",
		fmt.Sprintf("st=%s t=%.2f", b.State, b.TimeRemaining),
		fmt.Sprintf("dest=%v (%.0f,%.0f)", b.HasDestination, b.Destination.X, b.Destination.Y),
		fmt.Sprintf("patrol=%d/%d head=(%.2f,%.2f)", b.PatrolIndex, len(b.PatrolWaypoints), b.LastHeading.X, b.LastHeading.Y),
		fmt.Sprintf("strafe=%.0f cd=%.2f", b.StrafeSign, b.FireCooldown),
		"-- path --",
		fmt.Sprintf("act=%v idx=%d n=%d", p.Active, p.CurrentIndex, len(p.Waypoints)),
		fmt.Sprintf("close=%.1f np=%.2f", p.ClosestDistance, p.NoProgressTime),
		fmt.Sprintf("goal=(%.0f,%.0f)", p.LastGoal.X, p.LastGoal.Y),
		"-- scratch --",
		fmt.Sprintf("dir=(%.2f,%.2f) stuck=%.2f", s.LastDirection.X, s.LastDirection.Y, s.StuckTime),
		"-- output --",
		fmt.Sprintf("tgt=(%.0f,%.0f) plan=%v", o.Target.X, o.Target.Y, o.Planned),
		fmt.Sprintf("aim=%v (%.0f,%.0f) fire=%v", o.HasAim, o.Aim.X, o.Aim.Y, o.Fire),
	}
}

func healthBar(hp, maxHP float64) string {
	const width = 14
	filled := 0
	if maxHP > 0 {
		filled = int(hp / maxHP * width)
	}
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}
	return strings.Repeat("#", filled) + strings.Repeat(".", width-filled)
}
