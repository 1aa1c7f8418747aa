package game

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"
)

// hudFace is the 7x13 bitmap font every panel uses.
var hudFace text.Face = text.NewGoXFace(basicfont.Face7x13)

const (
	hudCharW = 7
	hudLineH = 14
)

func drawText(dst *ebiten.Image, s string, x, y int, clr color.Color) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(float64(x), float64(y))
	op.ColorScale.ScaleWithColor(clr)
	text.Draw(dst, s, hudFace, op)
}

func speedLabel(speed float64) string {
	switch speed {
	case 0:
		return "PAUSED"
	case 1, 2, 4:
		return fmt.Sprintf("%.0fx", speed)
	default:
		return fmt.Sprintf("%.1fx", speed)
	}
}

func onOff(v bool) string {
	if v {
		return "*"
	}
	return " "
}

// hudLines is the key legend plus live counters.
func (g *Game) hudLines() []string {
	stats := g.sim.PlannerStats()
	sep := g.sim.SeparationStats()
	return []string{
		fmt.Sprintf("T=%d  SIM: %s  P=pause  ,/. speed", g.sim.Tick(), speedLabel(g.simSpeed)),
		fmt.Sprintf("agents=%d paths=%d  searches=%d fallbacks=%d", len(g.sim.Agents()), g.sim.ActivePaths(), stats.Searches, stats.Fallbacks),
		fmt.Sprintf("overlaps=%d max_pen=%.0f", sep.Overlaps, sep.MaxPenetration),
		fmt.Sprintf("[G]%s grid  [T]%s paths  [L]%s log", onOff(g.showGrid), onOff(g.showPaths), onOff(g.showLog)),
		"WASD=fly player  arrows=pan  scroll,=/-=zoom  F=follow",
		"click=inspect  I=raw  C=copy report",
		"J=damage  X=swap class  K=destroy  N=spawn hostile",
		"[H] toggle HUD",
	}
}

// drawHUD renders the legend into hudBuf at 1x and blits it scaled in the
// bottom-left corner.
func (g *Game) drawHUD(screen *ebiten.Image) {
	lines := g.hudLines()
	if g.status != "" {
		lines = append(lines, "> "+g.status)
	}
	const padX, padY = 5, 4
	maxLen := 0
	for _, l := range lines {
		if len(l) > maxLen {
			maxLen = len(l)
		}
	}
	boxW := float32(maxLen*hudCharW + padX*2)
	boxH := float32(len(lines)*hudLineH + padY*2)
	bufH := float32(g.height / hudScale)
	bx := float32(4)
	by := bufH - boxH - 4

	g.hudBuf.Clear()
	vector.FillRect(g.hudBuf, bx, by, boxW, boxH, color.RGBA{R: 6, G: 8, B: 14, A: 210}, false)
	vector.StrokeRect(g.hudBuf, bx, by, boxW, boxH, 1.0, color.RGBA{R: 60, G: 80, B: 120, A: 180}, false)
	for i, line := range lines {
		drawText(g.hudBuf, line, int(bx)+padX, int(by)+padY+i*hudLineH, color.RGBA{R: 210, G: 215, B: 230, A: 255})
	}

	opts := &ebiten.DrawImageOptions{}
	opts.GeoM.Scale(float64(hudScale), float64(hudScale))
	screen.DrawImage(g.hudBuf, opts)
}
