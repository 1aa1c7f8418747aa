package nav

import (
	"math/rand"
	"testing"

	"github.com/jakecoffman/cp"

	"github.com/Garsondee/Ship-Sense/internal/config"
)

func newPlanner(heuristic string) *Planner {
	cfg := config.Default()
	cfg.Planner.Heuristic = heuristic
	return NewPlanner(NewObstacleGridFromConfig(cfg.World), cfg.Planner)
}

func pathLength(path []cp.Vector) float64 {
	total := 0.0
	for i := 1; i < len(path); i++ {
		total += path[i].Distance(path[i-1])
	}
	return total
}

func checkWalkable(t *testing.T, g *ObstacleGrid, path []cp.Vector) {
	t.Helper()
	for i, wp := range path {
		c := g.CellAtPoint(wp)
		if c == nil || !c.Walkable {
			t.Fatalf("waypoint %d (%.0f,%.0f) lies in a blocked cell", i, wp.X, wp.Y)
		}
	}
}

func TestPlanner_StraightLineHasTwoWaypoints(t *testing.T) {
	p := newPlanner(config.HeuristicManhattan)
	path := p.FindPath(cp.Vector{X: 0, Y: 0}, cp.Vector{X: 1000, Y: 0})
	if len(path) != 2 {
		t.Fatalf("expected 2 waypoints, got %d: %v", len(path), path)
	}
	if path[0] != (cp.Vector{X: 0, Y: 0}) || path[1] != (cp.Vector{X: 1000, Y: 0}) {
		t.Fatalf("expected [(0,0) (1000,0)], got %v", path)
	}
}

func TestPlanner_RoutesAroundObstacle(t *testing.T) {
	for _, h := range []string{config.HeuristicManhattan, config.HeuristicOctile, config.HeuristicEuclidean} {
		t.Run(h, func(t *testing.T) {
			p := newPlanner(h)
			p.Grid().MarkObstacle(cp.Vector{X: 500, Y: 0}, 300, true)
			start, goal := cp.Vector{X: 0, Y: 0}, cp.Vector{X: 1000, Y: 0}
			path := p.FindPath(start, goal)
			if len(path) < 3 {
				t.Fatalf("expected at least 3 waypoints around the obstacle, got %d: %v", len(path), path)
			}
			if path[0] != start || path[len(path)-1] != goal {
				t.Fatalf("path must start at start and end at goal: %v", path)
			}
			checkWalkable(t, p.Grid(), path)
			if l := pathLength(path); l > 1.6*start.Distance(goal) {
				t.Fatalf("detour too long: %.0f for a %.0f straight line", l, start.Distance(goal))
			}
		})
	}
}

func TestPlanner_BlockedStartFallsBack(t *testing.T) {
	p := newPlanner(config.HeuristicManhattan)
	p.Grid().MarkObstacle(cp.Vector{X: 0, Y: 0}, 200, true)
	goal := cp.Vector{X: 2000, Y: 500}
	path := p.FindPath(cp.Vector{X: 0, Y: 0}, goal)
	if len(path) != 1 || path[0] != goal {
		t.Fatalf("expected single-point fallback to goal, got %v", path)
	}
	if p.Stats().Fallbacks != 1 {
		t.Fatalf("expected one fallback, got %d", p.Stats().Fallbacks)
	}
}

func TestPlanner_BlockedGoalFallsBack(t *testing.T) {
	p := newPlanner(config.HeuristicManhattan)
	goal := cp.Vector{X: 2000, Y: 500}
	p.Grid().MarkObstacle(goal, 200, true)
	path := p.FindPath(cp.Vector{X: 0, Y: 0}, goal)
	if len(path) != 1 || path[0] != goal {
		t.Fatalf("expected single-point fallback to goal, got %v", path)
	}
}

func TestPlanner_GoalOutsideWorldIsClamped(t *testing.T) {
	p := newPlanner(config.HeuristicManhattan)
	path := p.FindPath(cp.Vector{X: 0, Y: 0}, cp.Vector{X: 20000, Y: 0})
	last := path[len(path)-1]
	want := p.Grid().ClampInterior(cp.Vector{X: 20000, Y: 0})
	if last != want {
		t.Fatalf("expected path to end at clamped goal %v, got %v", want, last)
	}
	checkWalkable(t, p.Grid(), path)
}

func TestPlanner_EnclosedGoalFallsBack(t *testing.T) {
	p := newPlanner(config.HeuristicManhattan)
	g := p.Grid()
	goal := g.CellCenter(60, 60)
	g.MarkObstacle(goal, 400, true)
	g.MarkObstacle(goal, 10, false)
	path := p.FindPath(g.CellCenter(20, 20), goal)
	if len(path) != 1 || path[0] != goal {
		t.Fatalf("expected fallback when the open set is exhausted, got %v", path)
	}
	if p.Stats().Expanded == 0 {
		t.Fatal("search should have expanded nodes before giving up")
	}
}

func TestPlanner_SameCell(t *testing.T) {
	p := newPlanner(config.HeuristicManhattan)
	start, goal := cp.Vector{X: 10, Y: 10}, cp.Vector{X: 40, Y: 20}
	path := p.FindPath(start, goal)
	if len(path) != 2 || path[0] != start || path[1] != goal {
		t.Fatalf("expected [start goal], got %v", path)
	}
	path = p.FindPath(goal, goal)
	if len(path) != 1 || path[0] != goal {
		t.Fatalf("expected [goal] for identical endpoints, got %v", path)
	}
}

func TestPlanner_NoCornerCutting(t *testing.T) {
	p := newPlanner(config.HeuristicManhattan)
	g := p.Grid()
	// Two diagonal blocks leave only a corner-touching gap between them.
	g.MarkObstacle(g.CellCenter(50, 50), 1, true)
	g.MarkObstacle(g.CellCenter(51, 51), 1, true)
	goal := g.CellCenter(51, 50)
	p.FindPath(g.CellCenter(50, 51), goal)

	gIdx := g.index(51, 50)
	cells := p.chain(gIdx)
	for i := 1; i < len(cells); i++ {
		a, b := g.cells[cells[i-1]], g.cells[cells[i]]
		dx, dy := b.X-a.X, b.Y-a.Y
		if dx != 0 && dy != 0 && (g.IsBlocked(a.X+dx, a.Y) || g.IsBlocked(a.X, a.Y+dy)) {
			t.Fatalf("diagonal step (%d,%d)->(%d,%d) cuts a blocked corner", a.X, a.Y, b.X, b.Y)
		}
	}
	if len(cells) < 3 {
		t.Fatalf("route should go around the blocked corner, got %d cells", len(cells))
	}
}

func TestPlanner_RandomPairsStayAnchoredAndWalkable(t *testing.T) {
	p := newPlanner(config.HeuristicManhattan)
	g := p.Grid()
	rng := rand.New(rand.NewSource(7)) // #nosec G404 -- test determinism
	inner := g.Interior()
	for i := 0; i < 50; i++ {
		start := cp.Vector{X: inner.Min.X + rng.Float64()*inner.Width(), Y: inner.Min.Y + rng.Float64()*inner.Height()}
		goal := cp.Vector{X: inner.Min.X + rng.Float64()*inner.Width(), Y: inner.Min.Y + rng.Float64()*inner.Height()}
		path := p.FindPath(start, goal)
		if path[0] != start || path[len(path)-1] != goal {
			t.Fatalf("run %d: path not anchored at endpoints: %v", i, path)
		}
		checkWalkable(t, g, path)
		// Open field: waypoint count stays small and there is no real detour.
		if l := pathLength(path); l > 1.3*start.Distance(goal)+2*g.CellSize() {
			t.Fatalf("run %d: path %.0f much longer than straight %.0f", i, l, start.Distance(goal))
		}
	}
}

func TestPlanner_Deterministic(t *testing.T) {
	p := newPlanner(config.HeuristicManhattan)
	p.Grid().MarkObstacle(cp.Vector{X: 500, Y: 300}, 500, true)
	a := p.FindPath(cp.Vector{X: -2000, Y: 0}, cp.Vector{X: 3000, Y: 1000})
	b := p.FindPath(cp.Vector{X: -2000, Y: 0}, cp.Vector{X: 3000, Y: 1000})
	if len(a) != len(b) {
		t.Fatalf("path lengths differ between identical calls: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("waypoint %d differs: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestPlanner_SimplifyBoundsSpacing(t *testing.T) {
	p := newPlanner(config.HeuristicOctile)
	path := p.FindPath(cp.Vector{X: -4000, Y: -4000}, cp.Vector{X: 4000, Y: 4000})
	spacing := config.Default().Planner.MinWaypointSpacing
	for i := 1; i < len(path)-1; i++ {
		if d := path[i].Distance(path[i-1]); d <= spacing {
			t.Fatalf("intermediate waypoint %d only %.0f from the previous one", i, d)
		}
	}
}
