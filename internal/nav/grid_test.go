package nav

import (
	"testing"

	"github.com/jakecoffman/cp"

	"github.com/Garsondee/Ship-Sense/internal/config"
)

func defaultGrid() *ObstacleGrid {
	return NewObstacleGridFromConfig(config.Default().World)
}

func TestObstacleGrid_Dimensions(t *testing.T) {
	g := defaultGrid()
	// 10000 / 128 = 78.125, rounded up.
	if g.Cols() != 79 || g.Rows() != 79 {
		t.Fatalf("expected 79x79 grid, got %dx%d", g.Cols(), g.Rows())
	}
}

func TestObstacleGrid_BoundaryBlocked(t *testing.T) {
	g := defaultGrid()
	for _, c := range [][2]int{{0, 0}, {1, 0}, {0, 40}, {78, 78}, {77, 40}, {40, 77}} {
		if !g.IsBlocked(c[0], c[1]) {
			t.Fatalf("boundary cell (%d,%d) should be blocked", c[0], c[1])
		}
	}
	for _, c := range [][2]int{{1, 1}, {2, 2}, {39, 39}, {76, 76}} {
		if g.IsBlocked(c[0], c[1]) {
			t.Fatalf("interior cell (%d,%d) should be walkable", c[0], c[1])
		}
	}
}

func TestObstacleGrid_ClearKeepsBoundary(t *testing.T) {
	g := defaultGrid()
	g.MarkObstacle(cp.Vector{}, 400, true)
	g.Clear()
	if g.IsBlocked(39, 39) {
		t.Fatal("Clear should reopen interior cells")
	}
	if !g.IsBlocked(0, 0) {
		t.Fatal("Clear must not reopen boundary cells")
	}
}

func TestObstacleGrid_MarkObstacleUnblockNeverOpensBoundary(t *testing.T) {
	g := defaultGrid()
	g.MarkObstacle(g.CellCenter(1, 1), 10, true)
	if !g.IsBlocked(1, 1) {
		t.Fatal("(1,1) should be blocked by the obstacle")
	}
	g.MarkObstacle(g.CellCenter(0, 0), 1000, false)
	for _, c := range [][2]int{{0, 0}, {0, 1}, {1, 0}} {
		if !g.IsBlocked(c[0], c[1]) {
			t.Fatalf("unblocking must not touch boundary cell (%d,%d)", c[0], c[1])
		}
	}
	// The first interior cell sits margin+64 from the edge.
	if g.IsBlocked(1, 1) {
		t.Fatal("interior cell (1,1) should be reopened")
	}
}

func TestObstacleGrid_MarkObstacleRadius(t *testing.T) {
	g := defaultGrid()
	center := g.CellCenter(40, 40)
	// Neighbour centers are exactly 128 away: on the footprint edge counts as blocked.
	g.MarkObstacle(center, 128, true)
	for _, c := range [][2]int{{40, 40}, {41, 40}, {39, 40}, {40, 41}, {40, 39}} {
		if !g.IsBlocked(c[0], c[1]) {
			t.Fatalf("cell (%d,%d) inside footprint should be blocked", c[0], c[1])
		}
	}
	// Diagonal neighbours are 181 away.
	if g.IsBlocked(41, 41) {
		t.Fatal("diagonal neighbour lies outside the footprint and should stay walkable")
	}
}

func TestObstacleGrid_CellAtOutOfBounds(t *testing.T) {
	g := defaultGrid()
	if g.CellAt(-1, 0) != nil || g.CellAt(0, -1) != nil || g.CellAt(g.Cols(), 0) != nil {
		t.Fatal("out-of-range coordinates should return nil")
	}
	if !g.IsBlocked(-1, 0) {
		t.Fatal("out-of-range cells count as blocked")
	}
}

func TestObstacleGrid_WorldToCell(t *testing.T) {
	g := defaultGrid()
	x, y := g.WorldToCell(cp.Vector{X: 0, Y: 0})
	// (0 - -5000) / 128 = 39.06
	if x != 39 || y != 39 {
		t.Fatalf("expected (39,39) got (%d,%d)", x, y)
	}
	x, y = g.WorldToCell(cp.Vector{X: -5001, Y: 5001})
	if x != -1 || y != 78 {
		t.Fatalf("expected (-1,78) for out-of-world point, got (%d,%d)", x, y)
	}
}

func TestObstacleGrid_CellCenter(t *testing.T) {
	g := defaultGrid()
	c := g.CellCenter(39, 39)
	if c.X != 56 || c.Y != 56 {
		t.Fatalf("expected (56,56) got (%.0f,%.0f)", c.X, c.Y)
	}
}

func TestObstacleGrid_ClampInterior(t *testing.T) {
	g := defaultGrid()
	p := g.ClampInterior(cp.Vector{X: 9000, Y: -9000})
	if p.X != 4744 || p.Y != -4744 {
		t.Fatalf("expected (4744,-4744) got (%.0f,%.0f)", p.X, p.Y)
	}
	if g.CellAtPoint(p) == nil || !g.CellAtPoint(p).Walkable {
		t.Fatal("clamped point should land in a walkable cell")
	}
}

func TestObstacleGrid_WalkabilityIsCopy(t *testing.T) {
	g := defaultGrid()
	w := g.Walkability()
	if len(w) != g.Cols()*g.Rows() {
		t.Fatalf("expected %d flags, got %d", g.Cols()*g.Rows(), len(w))
	}
	w[g.index(40, 40)] = false
	if g.IsBlocked(40, 40) {
		t.Fatal("mutating the projection must not change the grid")
	}
}

func TestRect_ClampAndContains(t *testing.T) {
	r := Rect{Min: cp.Vector{X: -10, Y: -10}, Max: cp.Vector{X: 10, Y: 20}}
	if !r.Contains(cp.Vector{X: 10, Y: 20}) {
		t.Fatal("edges are inside")
	}
	p := r.Clamp(cp.Vector{X: 50, Y: -50})
	if p.X != 10 || p.Y != -10 {
		t.Fatalf("expected (10,-10) got (%.0f,%.0f)", p.X, p.Y)
	}
	if r.Span() != 20 {
		t.Fatalf("span should be the shorter side, got %.0f", r.Span())
	}
}
