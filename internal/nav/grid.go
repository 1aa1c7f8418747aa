// Package nav owns the per-tick obstacle grid, the A* planner that searches
// it, and the per-agent path records that follow and monitor planned paths.
package nav

import (
	"math"

	"github.com/jakecoffman/cp"

	"github.com/Garsondee/Ship-Sense/internal/config"
)

// Rect is an axis-aligned world-space box.
type Rect struct {
	Min, Max cp.Vector
}

// RectFromWorld returns the bounds described by a world config.
func RectFromWorld(w config.World) Rect {
	return Rect{Min: cp.Vector{X: w.MinX, Y: w.MinY}, Max: cp.Vector{X: w.MaxX, Y: w.MaxY}}
}

// Width of the box.
func (r Rect) Width() float64 { return r.Max.X - r.Min.X }

// Height of the box.
func (r Rect) Height() float64 { return r.Max.Y - r.Min.Y }

// Span is the shorter side of the box.
func (r Rect) Span() float64 { return math.Min(r.Width(), r.Height()) }

// Center of the box.
func (r Rect) Center() cp.Vector { return r.Min.Lerp(r.Max, 0.5) }

// Inset shrinks the box by d on every side.
func (r Rect) Inset(d float64) Rect {
	return Rect{
		Min: cp.Vector{X: r.Min.X + d, Y: r.Min.Y + d},
		Max: cp.Vector{X: r.Max.X - d, Y: r.Max.Y - d},
	}
}

// Contains reports whether p lies inside the box, edges included.
func (r Rect) Contains(p cp.Vector) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// Clamp returns the point of the box nearest to p.
func (r Rect) Clamp(p cp.Vector) cp.Vector {
	return cp.Vector{
		X: math.Max(r.Min.X, math.Min(r.Max.X, p.X)),
		Y: math.Max(r.Min.Y, math.Min(r.Max.Y, p.Y)),
	}
}

// Corners returns the four corners, clockwise from Min.
func (r Rect) Corners() [4]cp.Vector {
	return [4]cp.Vector{
		r.Min,
		{X: r.Max.X, Y: r.Min.Y},
		r.Max,
		{X: r.Min.X, Y: r.Max.Y},
	}
}

// Cell is one grid square. G, H and Parent are A* scratch and are reset at
// the start of every search.
type Cell struct {
	X, Y     int
	Walkable bool

	G, H   float64
	Parent int // cell index, -1 for none

	boundary bool
	closed   bool
}

// ObstacleGrid is a uniform grid over the world. Cells near the world edge are
// blocked at construction and stay blocked; everything else is rebuilt from
// circular footprints every time a path is requested.
type ObstacleGrid struct {
	bounds   Rect
	interior Rect
	cellSize float64
	cols     int
	rows     int
	cells    []Cell
}

// NewObstacleGrid builds a grid covering bounds. Every cell whose center lies
// within margin of an edge, or outside the world, is permanently blocked.
func NewObstacleGrid(bounds Rect, cellSize, margin float64) *ObstacleGrid {
	cols := int(math.Ceil(bounds.Width() / cellSize))
	rows := int(math.Ceil(bounds.Height() / cellSize))
	g := &ObstacleGrid{
		bounds:   bounds,
		interior: bounds.Inset(margin + cellSize),
		cellSize: cellSize,
		cols:     cols,
		rows:     rows,
		cells:    make([]Cell, cols*rows),
	}
	edge := bounds.Inset(margin)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			c := &g.cells[y*cols+x]
			c.X, c.Y = x, y
			c.Parent = -1
			c.boundary = !edge.Contains(g.CellCenter(x, y))
			c.Walkable = !c.boundary
		}
	}
	return g
}

// NewObstacleGridFromConfig is NewObstacleGrid for a world config.
func NewObstacleGridFromConfig(w config.World) *ObstacleGrid {
	return NewObstacleGrid(RectFromWorld(w), w.CellSize, w.BoundaryMargin)
}

// Cols is the grid width in cells.
func (g *ObstacleGrid) Cols() int { return g.cols }

// Rows is the grid height in cells.
func (g *ObstacleGrid) Rows() int { return g.rows }

// CellSize is the side length of a cell in world units.
func (g *ObstacleGrid) CellSize() float64 { return g.cellSize }

// Bounds returns the world box the grid covers.
func (g *ObstacleGrid) Bounds() Rect { return g.bounds }

// Interior is the box path endpoints are clamped into.
func (g *ObstacleGrid) Interior() Rect { return g.interior }

// Clear makes every non-boundary cell walkable again.
func (g *ObstacleGrid) Clear() {
	for i := range g.cells {
		g.cells[i].Walkable = !g.cells[i].boundary
	}
}

// MarkObstacle sets the walkability of every cell whose center lies within
// radius of center. blocked=true blocks them; blocked=false re-opens them.
// Boundary cells are never re-opened.
func (g *ObstacleGrid) MarkObstacle(center cp.Vector, radius float64, blocked bool) {
	if radius <= 0 {
		return
	}
	x0, y0 := g.WorldToCell(cp.Vector{X: center.X - radius, Y: center.Y - radius})
	x1, y1 := g.WorldToCell(cp.Vector{X: center.X + radius, Y: center.Y + radius})
	x0, y0 = max(x0, 0), max(y0, 0)
	x1, y1 = min(x1, g.cols-1), min(y1, g.rows-1)
	r2 := radius * radius
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			c := &g.cells[y*g.cols+x]
			if c.boundary {
				continue
			}
			if g.CellCenter(x, y).DistanceSq(center) <= r2 {
				c.Walkable = !blocked
			}
		}
	}
}

// CellAt returns the cell at (x, y), or nil outside the grid.
func (g *ObstacleGrid) CellAt(x, y int) *Cell {
	if x < 0 || y < 0 || x >= g.cols || y >= g.rows {
		return nil
	}
	return &g.cells[y*g.cols+x]
}

// CellAtPoint returns the cell containing p, or nil outside the grid.
func (g *ObstacleGrid) CellAtPoint(p cp.Vector) *Cell {
	return g.CellAt(g.WorldToCell(p))
}

// IsBlocked reports whether (x, y) is outside the grid or not walkable.
func (g *ObstacleGrid) IsBlocked(x, y int) bool {
	c := g.CellAt(x, y)
	return c == nil || !c.Walkable
}

// WorldToCell converts a world point to grid coordinates. Points outside the
// world map to coordinates outside the grid.
func (g *ObstacleGrid) WorldToCell(p cp.Vector) (int, int) {
	return int(math.Floor((p.X - g.bounds.Min.X) / g.cellSize)),
		int(math.Floor((p.Y - g.bounds.Min.Y) / g.cellSize))
}

// CellCenter converts grid coordinates to the world-space cell center.
func (g *ObstacleGrid) CellCenter(x, y int) cp.Vector {
	return cp.Vector{
		X: g.bounds.Min.X + (float64(x)+0.5)*g.cellSize,
		Y: g.bounds.Min.Y + (float64(y)+0.5)*g.cellSize,
	}
}

// ClampInterior clamps p into the walkable interior.
func (g *ObstacleGrid) ClampInterior(p cp.Vector) cp.Vector {
	return g.interior.Clamp(p)
}

// Walkability returns a row-major copy of the walkable flags.
func (g *ObstacleGrid) Walkability() []bool {
	out := make([]bool, len(g.cells))
	for i := range g.cells {
		out[i] = g.cells[i].Walkable
	}
	return out
}

func (g *ObstacleGrid) index(x, y int) int { return y*g.cols + x }

func (g *ObstacleGrid) resetScratch() {
	for i := range g.cells {
		c := &g.cells[i]
		c.G = math.Inf(1)
		c.H = 0
		c.Parent = -1
		c.closed = false
	}
}
