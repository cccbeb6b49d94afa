package path

import (
	"math"

	"github.com/outpost-rts/outpost/pkg/geom"
)

// Cell addresses one square of the walkability grid.
type Cell struct {
	X int
	Y int
}

// Grid quantizes world space into fixed-size cells. Each cell is either
// statically blocked (impassable terrain), carries a dynamic obstacle cost
// multiplier, or is plain walkable.
type Grid struct {
	cellSize float64
	w, h     int

	blocked []bool
	// dynamic counts overlapping dynamic obstacles per cell; any nonzero
	// count applies the obstacle cost multiplier.
	dynamic []int

	obstacleCost float64
}

// NewGrid covers a mapWidth x mapHeight world with cells of cellSize units.
func NewGrid(mapWidth, mapHeight, cellSize, obstacleCost float64) *Grid {
	w := int(math.Ceil(mapWidth / cellSize))
	h := int(math.Ceil(mapHeight / cellSize))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return &Grid{
		cellSize:     cellSize,
		w:            w,
		h:            h,
		blocked:      make([]bool, w*h),
		dynamic:      make([]int, w*h),
		obstacleCost: obstacleCost,
	}
}

func (g *Grid) Width() int        { return g.w }
func (g *Grid) Height() int       { return g.h }
func (g *Grid) CellSize() float64 { return g.cellSize }

// CellAt quantizes a world point.
func (g *Grid) CellAt(p geom.Vec2) Cell {
	return Cell{X: int(p.X / g.cellSize), Y: int(p.Y / g.cellSize)}
}

// Center returns the world-space center of a cell.
func (g *Grid) Center(c Cell) geom.Vec2 {
	return geom.Vec2{
		X: (float64(c.X) + 0.5) * g.cellSize,
		Y: (float64(c.Y) + 0.5) * g.cellSize,
	}
}

// InBounds reports whether the cell lies on the grid.
func (g *Grid) InBounds(c Cell) bool {
	return c.X >= 0 && c.Y >= 0 && c.X < g.w && c.Y < g.h
}

// Walkable reports whether the cell can be entered at all.
func (g *Grid) Walkable(c Cell) bool {
	return g.InBounds(c) && !g.blocked[c.Y*g.w+c.X]
}

// CostMultiplier is 1.0 for normal terrain and the obstacle cost for cells
// under at least one dynamic obstacle. Blocked cells have no cost; they are
// simply not walkable.
func (g *Grid) CostMultiplier(c Cell) float64 {
	if !g.InBounds(c) {
		return 1
	}
	if g.dynamic[c.Y*g.w+c.X] > 0 {
		return g.obstacleCost
	}
	return 1
}

// SetBlocked marks static terrain over a world-space rectangle centered at
// pos. Static blocking never changes during a match once the map is built.
func (g *Grid) SetBlocked(pos geom.Vec2, width, height float64, blocked bool) {
	g.forEachCellIn(pos, width, height, func(i int) {
		g.blocked[i] = blocked
	})
}

// AddObstacle overlays a dynamic obstacle footprint, raising traversal cost
// without making cells impassable.
func (g *Grid) AddObstacle(pos geom.Vec2, width, height float64) {
	g.forEachCellIn(pos, width, height, func(i int) {
		g.dynamic[i]++
	})
}

// RemoveObstacle removes a previously added footprint.
func (g *Grid) RemoveObstacle(pos geom.Vec2, width, height float64) {
	g.forEachCellIn(pos, width, height, func(i int) {
		if g.dynamic[i] > 0 {
			g.dynamic[i]--
		}
	})
}

func (g *Grid) forEachCellIn(pos geom.Vec2, width, height float64, fn func(i int)) {
	minC := g.CellAt(geom.Vec2{X: pos.X - width/2, Y: pos.Y - height/2})
	maxC := g.CellAt(geom.Vec2{X: pos.X + width/2, Y: pos.Y + height/2})
	for y := minC.Y; y <= maxC.Y; y++ {
		for x := minC.X; x <= maxC.X; x++ {
			c := Cell{X: x, Y: y}
			if g.InBounds(c) {
				fn(y*g.w + x)
			}
		}
	}
}

// NearestWalkable brute-force scans for the closest walkable cell to c,
// used when a destination lands on blocked terrain.
func (g *Grid) NearestWalkable(c Cell) (Cell, bool) {
	if g.Walkable(c) {
		return c, true
	}
	best := Cell{}
	bestD := math.MaxFloat64
	found := false
	for y := 0; y < g.h; y++ {
		for x := 0; x < g.w; x++ {
			cand := Cell{X: x, Y: y}
			if !g.Walkable(cand) {
				continue
			}
			dx := float64(cand.X - c.X)
			dy := float64(cand.Y - c.Y)
			d := dx*dx + dy*dy
			if d < bestD {
				best = cand
				bestD = d
				found = true
			}
		}
	}
	return best, found
}
