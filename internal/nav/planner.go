package nav

import (
	"container/heap"
	"math"

	"github.com/jakecoffman/cp"

	"github.com/Garsondee/Ship-Sense/internal/config"
)

// Stats counts planner activity since creation.
type Stats struct {
	Searches  int
	Fallbacks int
	Expanded  int
}

// Planner runs A* over an ObstacleGrid and simplifies the result into a
// short waypoint list.
type Planner struct {
	grid      *ObstacleGrid
	cfg       config.Planner
	heuristic func(dx, dy float64) float64
	open      openList
	stats     Stats
}

// NewPlanner binds a planner to grid. The grid is read at FindPath time, so
// callers rebuild it before each query.
func NewPlanner(grid *ObstacleGrid, cfg config.Planner) *Planner {
	p := &Planner{grid: grid}
	p.SetConfig(cfg)
	return p
}

// SetConfig swaps the tunables.
func (p *Planner) SetConfig(cfg config.Planner) {
	p.cfg = cfg
	p.heuristic = heuristicFor(cfg.Heuristic)
}

// Stats returns the running counters.
func (p *Planner) Stats() Stats { return p.stats }

// Grid returns the grid the planner searches.
func (p *Planner) Grid() *ObstacleGrid { return p.grid }

func heuristicFor(name string) func(dx, dy float64) float64 {
	switch name {
	case config.HeuristicOctile:
		return func(dx, dy float64) float64 {
			return dx + dy + (math.Sqrt2-2)*math.Min(dx, dy)
		}
	case config.HeuristicEuclidean:
		return math.Hypot
	default:
		// Manhattan overestimates diagonal moves, so paths are not always
		// shortest. Kept as the default because tuning was done against it.
		return func(dx, dy float64) float64 { return dx + dy }
	}
}

type openEntry struct {
	idx  int
	f, h float64
}

// openList is a min-heap on F, ties broken toward lower H. Entries are never
// decreased in place; stale duplicates are skipped when popped.
type openList []openEntry

func (ol openList) Len() int { return len(ol) }
func (ol openList) Less(i, j int) bool {
	if ol[i].f != ol[j].f {
		return ol[i].f < ol[j].f
	}
	return ol[i].h < ol[j].h
}
func (ol openList) Swap(i, j int)       { ol[i], ol[j] = ol[j], ol[i] }
func (ol *openList) Push(x interface{}) { *ol = append(*ol, x.(openEntry)) }
func (ol *openList) Pop() interface{} {
	old := *ol
	e := old[len(old)-1]
	*ol = old[:len(old)-1]
	return e
}

var dirs = [8][2]int{
	{1, 0}, {-1, 0}, {0, 1}, {0, -1},
	{1, 1}, {1, -1}, {-1, 1}, {-1, -1},
}

// FindPath returns world waypoints from start to goal. Both endpoints are
// clamped into the grid interior first. The result always starts at the
// clamped start and ends at the clamped goal, except when no route can be
// searched: a blocked or missing endpoint cell, or an exhausted open set, yield
// the single-point path [clampedGoal].
func (p *Planner) FindPath(start, goal cp.Vector) []cp.Vector {
	g := p.grid
	start = g.ClampInterior(start)
	goal = g.ClampInterior(goal)
	p.stats.Searches++

	sc := g.CellAtPoint(start)
	gc := g.CellAtPoint(goal)
	if sc == nil || gc == nil || !sc.Walkable || !gc.Walkable {
		return p.fallback(goal)
	}

	sIdx := g.index(sc.X, sc.Y)
	gIdx := g.index(gc.X, gc.Y)
	if sIdx == gIdx {
		if start == goal {
			return []cp.Vector{goal}
		}
		return []cp.Vector{start, goal}
	}

	g.resetScratch()
	h := func(c *Cell) float64 {
		return p.heuristic(math.Abs(float64(c.X-gc.X)), math.Abs(float64(c.Y-gc.Y)))
	}

	sc.G = 0
	sc.H = h(sc)
	p.open = p.open[:0]
	heap.Push(&p.open, openEntry{idx: sIdx, f: sc.H, h: sc.H})

	for p.open.Len() > 0 {
		e := heap.Pop(&p.open).(openEntry)
		cur := &g.cells[e.idx]
		if cur.closed {
			continue
		}
		if e.idx == gIdx {
			return p.simplify(start, goal, p.chain(gIdx))
		}
		cur.closed = true
		p.stats.Expanded++

		for _, d := range dirs {
			nx, ny := cur.X+d[0], cur.Y+d[1]
			if g.IsBlocked(nx, ny) {
				continue
			}
			diagonal := d[0] != 0 && d[1] != 0
			// No corner-cutting past blocked cells.
			if diagonal && (g.IsBlocked(cur.X+d[0], cur.Y) || g.IsBlocked(cur.X, cur.Y+d[1])) {
				continue
			}
			nIdx := g.index(nx, ny)
			next := &g.cells[nIdx]
			if next.closed {
				continue
			}
			cost := 1.0
			if diagonal {
				cost = math.Sqrt2
			}
			tentative := cur.G + cost
			if tentative >= next.G {
				continue
			}
			next.G = tentative
			next.H = h(next)
			next.Parent = e.idx
			heap.Push(&p.open, openEntry{idx: nIdx, f: tentative + next.H, h: next.H})
		}
	}
	return p.fallback(goal)
}

func (p *Planner) fallback(goal cp.Vector) []cp.Vector {
	p.stats.Fallbacks++
	return []cp.Vector{goal}
}

// chain walks parent links back from end and returns cell indices in
// start-to-end order.
func (p *Planner) chain(end int) []int {
	var cells []int
	for i := end; i >= 0; i = p.grid.cells[i].Parent {
		cells = append(cells, i)
	}
	for i, j := 0, len(cells)-1; i < j; i, j = i+1, j-1 {
		cells[i], cells[j] = cells[j], cells[i]
	}
	return cells
}

// simplify keeps start and goal and emits an intermediate cell center only
// where the path turns by more than the angle threshold and is farther than
// the minimum spacing from the last emitted waypoint, or wherever it has run
// twice the spacing without emitting one.
func (p *Planner) simplify(start, goal cp.Vector, cells []int) []cp.Vector {
	center := func(i int) cp.Vector {
		c := &p.grid.cells[i]
		return p.grid.CellCenter(c.X, c.Y)
	}
	spacing := p.cfg.MinWaypointSpacing
	cosLimit := math.Cos(p.cfg.SimplifyAngleDeg * math.Pi / 180)

	out := []cp.Vector{start}
	last := start
	for i := 1; i < len(cells)-1; i++ {
		prev, cur, next := center(cells[i-1]), center(cells[i]), center(cells[i+1])
		in, fwd := cur.Sub(prev), next.Sub(cur)
		turned := in.Dot(fwd) < cosLimit*in.Length()*fwd.Length()
		d := cur.Distance(last)
		if (turned && d > spacing) || d >= 2*spacing {
			out = append(out, cur)
			last = cur
		}
	}
	return append(out, goal)
}
