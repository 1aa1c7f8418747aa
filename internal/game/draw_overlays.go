package game

import (
	"image"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/jakecoffman/cp"

	"github.com/Garsondee/Ship-Sense/internal/behavior"
	"github.com/Garsondee/Ship-Sense/internal/sim"
)

func imageRect(x, y, w, h int) image.Rectangle {
	return image.Rect(x, y, x+w, y+h)
}

// toScreen maps a world point to window pixels.
func (g *Game) toScreen(p cp.Vector) (float32, float32) {
	x, y := g.cam.toScreen(p)
	return x + float32(g.offX), y + float32(g.offY)
}

var stateColors = [...]color.RGBA{
	behavior.StateIdle:         {R: 140, G: 140, B: 150, A: 255},
	behavior.StatePatrol:       {R: 90, G: 200, B: 140, A: 255},
	behavior.StateLongDistance: {R: 90, G: 160, B: 230, A: 255},
	behavior.StateWander:       {R: 200, G: 190, B: 90, A: 255},
	behavior.StateAggressive:   {R: 240, G: 70, B: 60, A: 255},
	behavior.StateFlee:         {R: 240, G: 150, B: 40, A: 255},
}

func stateColor(st behavior.State) color.RGBA {
	if st >= 0 && int(st) < len(stateColors) {
		return stateColors[st]
	}
	return color.RGBA{R: 255, G: 255, B: 255, A: 255}
}

func (g *Game) drawWorld(dst *ebiten.Image) {
	ox, oy := float32(g.offX), float32(g.offY)
	vector.FillRect(dst, ox, oy, float32(g.gameWidth), float32(g.gameHeight), color.RGBA{R: 10, G: 12, B: 22, A: 255}, false)

	g.drawWorldBounds(dst)
	if g.showGrid {
		g.drawWalkability(dst)
	}
	if g.showPaths {
		g.drawPaths(dst)
	}
	g.drawShots(dst)
	g.drawAgents(dst)
}

// drawWorldBounds outlines the world and the walkable interior.
func (g *Game) drawWorldBounds(dst *ebiten.Image) {
	for i, r := range [2]struct{ min, max cp.Vector }{
		{g.sim.World().Min, g.sim.World().Max},
		{g.sim.Bounds().Min, g.sim.Bounds().Max},
	} {
		x0, y0 := g.toScreen(r.min)
		x1, y1 := g.toScreen(r.max)
		col := color.RGBA{R: 60, G: 70, B: 110, A: 255}
		if i == 1 {
			col = color.RGBA{R: 40, G: 50, B: 80, A: 160}
		}
		vector.StrokeRect(dst, x0, y0, x1-x0, y1-y0, 1.0, col, false)
	}
}

// drawWalkability shades every blocked cell of the last rebuilt grid.
func (g *Game) drawWalkability(dst *ebiten.Image) {
	grid := g.sim.Grid()
	cols, rows, walkable := g.sim.DebugGrid()
	cs := grid.CellSize()
	half := cp.Vector{X: cs / 2, Y: cs / 2}
	blocked := color.RGBA{R: 150, G: 40, B: 40, A: 70}
	lines := color.RGBA{R: 30, G: 36, B: 56, A: 120}
	drawLines := g.cam.scale()*cs >= 6

	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			c := grid.CellCenter(x, y)
			x0, y0 := g.toScreen(c.Sub(half))
			x1, y1 := g.toScreen(c.Add(half))
			if !walkable[y*cols+x] {
				vector.FillRect(dst, x0, y0, x1-x0, y1-y0, blocked, false)
			} else if drawLines {
				vector.StrokeRect(dst, x0, y0, x1-x0, y1-y0, 1.0, lines, false)
			}
		}
	}
}

// drawPaths renders planned polylines, the current waypoint and each agent's
// steering target.
func (g *Game) drawPaths(dst *ebiten.Image) {
	for _, a := range g.sim.Agents() {
		selected := g.inspector.is(a.ID)
		alpha := uint8(70)
		if selected {
			alpha = 200
		}

		if path := g.sim.PathOf(a.ID); len(path) > 1 {
			lineCol := color.RGBA{R: 120, G: 170, B: 255, A: alpha}
			for i := 1; i < len(path); i++ {
				x0, y0 := g.toScreen(path[i-1])
				x1, y1 := g.toScreen(path[i])
				vector.StrokeLine(dst, x0, y0, x1, y1, 1.5, lineCol, false)
			}
			for _, p := range path {
				px, py := g.toScreen(p)
				vector.FillCircle(dst, px, py, 2.5, lineCol, false)
			}
			if in, ok := g.sim.Inspect(a.ID); ok && in.Path.Active && in.Path.CurrentIndex < len(path) {
				px, py := g.toScreen(path[in.Path.CurrentIndex])
				vector.StrokeCircle(dst, px, py, 5, 1.0, color.RGBA{R: 200, G: 220, B: 255, A: alpha}, false)
			}
		}

		out, ok := g.sim.Output(a.ID)
		if !ok {
			continue
		}
		sx, sy := g.toScreen(a.Kinematics.Position)
		tx, ty := g.toScreen(out.Target)
		tcol := stateColor(out.State)
		tcol.A = alpha
		vector.StrokeLine(dst, sx, sy, tx, ty, 1.0, tcol, false)
		drawCross(dst, tx, ty, 4, tcol)
		if out.HasAim {
			ax, ay := g.toScreen(out.Aim)
			vector.StrokeLine(dst, sx, sy, ax, ay, 1.0, color.RGBA{R: 255, G: 90, B: 90, A: alpha / 2}, false)
		}
	}
}

func (g *Game) drawShots(dst *ebiten.Image) {
	for _, s := range g.shots {
		x0, y0 := g.toScreen(s.from)
		x1, y1 := g.toScreen(s.to)
		a := uint8(20 * s.ttl)
		vector.StrokeLine(dst, x0, y0, x1, y1, 2.0, color.RGBA{R: 255, G: 220, B: 120, A: a}, false)
	}
}

// drawAgents draws each hull as a circle with a heading tick, a health bar and
// a state-coloured rim.
func (g *Game) drawAgents(dst *ebiten.Image) {
	scale := float32(g.cam.scale())
	for _, a := range g.sim.Agents() {
		k := a.Kinematics
		x, y := g.toScreen(k.Position)
		r := float32(k.Radius) * scale
		if r < 3 {
			r = 3
		}

		fill := kindColor(a.Kind.String())
		fill.A = 90
		vector.FillCircle(dst, x, y, r, fill, false)

		rim := kindColor(a.Kind.String())
		if out, ok := g.sim.Output(a.ID); ok {
			rim = stateColor(out.State)
		}
		vector.StrokeCircle(dst, x, y, r, 1.5, rim, false)

		hx := x + r*float32(math.Cos(k.Rotation))
		hy := y + r*float32(math.Sin(k.Rotation))
		vector.StrokeLine(dst, x, y, hx, hy, 1.5, color.RGBA{R: 230, G: 230, B: 240, A: 220}, false)

		if a.MaxHealth > 0 && a.Health < a.MaxHealth {
			frac := float32(a.Health / a.MaxHealth)
			vector.FillRect(dst, x-r, y-r-6, 2*r, 3, color.RGBA{R: 60, G: 20, B: 20, A: 200}, false)
			vector.FillRect(dst, x-r, y-r-6, 2*r*frac, 3, color.RGBA{R: 90, G: 220, B: 90, A: 220}, false)
		}
		if g.inspector.is(a.ID) {
			vector.StrokeCircle(dst, x, y, r+4, 1.0, color.RGBA{R: 255, G: 255, B: 255, A: 200}, false)
		}
	}
}

func drawCross(dst *ebiten.Image, x, y, size float32, c color.Color) {
	vector.StrokeLine(dst, x-size, y-size, x+size, y+size, 1.0, c, false)
	vector.StrokeLine(dst, x-size, y+size, x+size, y-size, 1.0, c, false)
}

// pickAgent returns the agent under a window pixel, if any.
func (g *Game) pickAgent(mx, my int) (sim.AgentID, bool) {
	w := g.cam.toWorld(float64(mx-g.offX), float64(my-g.offY))
	minPick := 8 / g.cam.scale()
	best := math.MaxFloat64
	var hit sim.AgentID
	found := false
	for _, a := range g.sim.Agents() {
		d := a.Kinematics.Position.Distance(w)
		if d <= math.Max(a.Kinematics.Radius, minPick) && d < best {
			best = d
			hit = a.ID
			found = true
		}
	}
	return hit, found
}
