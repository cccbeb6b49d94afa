package path

import (
	"sync"
	"time"

	"github.com/outpost-rts/outpost/internal/core/config"
	"github.com/outpost-rts/outpost/internal/core/observability/log"
	"github.com/outpost-rts/outpost/pkg/geom"
	"github.com/outpost-rts/outpost/pkg/sequence"
)

const (
	orthCost = 1.0
	diagCost = 1.4
)

var neighborOffsets = [8]Cell{
	{X: 1, Y: 0}, {X: -1, Y: 0}, {X: 0, Y: 1}, {X: 0, Y: -1},
	{X: 1, Y: 1}, {X: 1, Y: -1}, {X: -1, Y: 1}, {X: -1, Y: -1},
}

// Finder runs A* searches over a walkability grid and memoizes completed
// paths. Safe for use from the simulation goroutine plus concurrent readers
// of IsWalkable.
type Finder struct {
	mu   sync.Mutex
	grid *Grid
	cfg  config.PathConfig
	lg   log.Log

	cache *cache

	// obstaclesDirty is set when a dynamic obstacle moved; the cache is
	// dropped wholesale on the next throttled invalidation pass rather than
	// immediately, trading staleness for throughput.
	obstaclesDirty  bool
	sinceInvalidate time.Duration
}

// NewFinder builds a pathfinder for the given map dimensions.
func NewFinder(mapWidth, mapHeight float64, cfg config.PathConfig, lg log.Log) *Finder {
	if lg == nil {
		lg = log.Provide()
	}
	return &Finder{
		grid:  NewGrid(mapWidth, mapHeight, cfg.CellSize, cfg.ObstacleCost),
		cfg:   cfg,
		lg:    lg.With(log.String("system", "path")),
		cache: newCache(),
	}
}

// Grid exposes the underlying grid for map setup (static terrain) and for
// obstacle bookkeeping by the engine.
func (f *Finder) Grid() *Grid { return f.grid }

// IsWalkable reports whether the cell containing the point is passable.
func (f *Finder) IsWalkable(p geom.Vec2) bool {
	return f.grid.Walkable(f.grid.CellAt(p))
}

// ObstaclesChanged records that dynamic obstacles moved. Cached paths stay
// valid until the next invalidation interval elapses.
func (f *Finder) ObstaclesChanged() {
	f.mu.Lock()
	f.obstaclesDirty = true
	f.mu.Unlock()
}

// Advance accumulates simulation time and performs the throttled wholesale
// cache invalidation when due.
func (f *Finder) Advance(dt time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sinceInvalidate += dt
	if f.sinceInvalidate < f.cfg.CacheInvalidateInterval {
		return
	}
	f.sinceInvalidate = 0
	if f.obstaclesDirty {
		dropped := f.cache.Len()
		f.cache.Clear()
		f.obstaclesDirty = false
		f.lg.Debug("path cache invalidated", log.Int("entries", dropped))
	}
}

// FindPath returns world-space waypoints from start to end, or an empty
// slice when no path exists within the expansion cap. Callers must treat an
// empty path as command failure and leave the unit idle.
func (f *Finder) FindPath(start, end geom.Vec2) []geom.Vec2 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.findPath(start, end, true)
}

func (f *Finder) findPath(start, end geom.Vec2, allowRetarget bool) []geom.Vec2 {
	startCell := f.grid.CellAt(start)
	endCell := f.grid.CellAt(end)

	if !f.grid.InBounds(startCell) || !f.grid.InBounds(endCell) {
		return nil
	}

	// Destination on blocked terrain: retarget to the nearest walkable cell
	// and try once more.
	if !f.grid.Walkable(endCell) {
		if !allowRetarget {
			return nil
		}
		alt, ok := f.grid.NearestWalkable(endCell)
		if !ok {
			return nil
		}
		return f.findPath(start, f.grid.Center(alt), false)
	}

	if cached, ok := f.cache.Get(startCell, endCell); ok {
		return cached
	}

	waypoints := f.search(startCell, endCell)
	if len(waypoints) > 0 {
		f.cache.Put(startCell, endCell, waypoints)
	}
	return waypoints
}

type node struct {
	cell   Cell
	parent *node
	g      float64
}

// search is plain A*: 8-directional moves, Manhattan heuristic scaled by the
// orthogonal move cost, min-queue on f = g + h with insertion-order
// tie-breaking. Expansions are capped; hitting the cap returns no path
// rather than a truncated one.
func (f *Finder) search(start, goal Cell) []geom.Vec2 {
	if start == goal {
		return []geom.Vec2{f.grid.Center(goal)}
	}

	open := sequence.NewPriorityQueue[*node]()
	bestG := map[Cell]float64{start: 0}
	closed := map[Cell]bool{}

	open.Enqueue(&node{cell: start}, heuristic(start, goal))

	expansions := 0
	for {
		current, ok := open.Dequeue()
		if !ok {
			return nil
		}
		if closed[current.cell] {
			continue
		}
		if current.cell == goal {
			return f.reconstruct(current)
		}
		closed[current.cell] = true

		expansions++
		if expansions > f.cfg.MaxExpansions {
			f.lg.Debug("search expansion cap reached",
				log.Int("cap", f.cfg.MaxExpansions))
			return nil
		}

		for i, off := range neighborOffsets {
			next := Cell{X: current.cell.X + off.X, Y: current.cell.Y + off.Y}
			if !f.grid.Walkable(next) || closed[next] {
				continue
			}
			stepCost := orthCost
			if i >= 4 {
				stepCost = diagCost
			}
			g := current.g + stepCost*f.grid.CostMultiplier(next)
			if prev, seen := bestG[next]; seen && g >= prev {
				continue
			}
			bestG[next] = g
			open.Enqueue(&node{cell: next, parent: current, g: g}, g+heuristic(next, goal))
		}
	}
}

func (f *Finder) reconstruct(n *node) []geom.Vec2 {
	var cells []Cell
	for cur := n; cur != nil; cur = cur.parent {
		cells = append(cells, cur.cell)
	}
	// cells is goal..start; emit start..goal skipping the start cell, which
	// the unit already occupies.
	out := make([]geom.Vec2, 0, len(cells)-1)
	for i := len(cells) - 2; i >= 0; i-- {
		out = append(out, f.grid.Center(cells[i]))
	}
	return out
}

func heuristic(a, b Cell) float64 {
	dx := a.X - b.X
	if dx < 0 {
		dx = -dx
	}
	dy := a.Y - b.Y
	if dy < 0 {
		dy = -dy
	}
	return orthCost * float64(dx+dy)
}
