package path

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/outpost-rts/outpost/internal/core/config"
	"github.com/outpost-rts/outpost/pkg/geom"
)

func testPathConfig() config.PathConfig {
	return config.PathConfig{
		CellSize:                32,
		MaxExpansions:           4096,
		ObstacleCost:            100,
		CacheInvalidateInterval: 2 * time.Second,
	}
}

func TestFindPath(t *testing.T) {
	t.Run("Straight Line", func(t *testing.T) {
		f := NewFinder(640, 640, testPathConfig(), nil)
		path := f.FindPath(geom.Vec2{X: 16, Y: 16}, geom.Vec2{X: 176, Y: 16})
		require.NotEmpty(t, path)
		require.Equal(t, geom.Vec2{X: 176, Y: 16}, path[len(path)-1])
		// Five cells to the right: one waypoint each, start cell skipped.
		require.Len(t, path, 5)
	})

	t.Run("Diagonal Uses Diagonal Steps", func(t *testing.T) {
		f := NewFinder(640, 640, testPathConfig(), nil)
		// 5 cells right, 5 cells down on an open grid: the diagonal path has
		// 5 steps, the axis-only alternative 10.
		path := f.FindPath(geom.Vec2{X: 16, Y: 16}, geom.Vec2{X: 176, Y: 176})
		require.NotEmpty(t, path)
		require.Len(t, path, 5)
	})

	t.Run("Routes Around A Wall", func(t *testing.T) {
		f := NewFinder(640, 640, testPathConfig(), nil)
		// Vertical wall at x in [96,128) covering most of the map height.
		f.Grid().SetBlocked(geom.Vec2{X: 112, Y: 240}, 32, 480, true)

		start := geom.Vec2{X: 16, Y: 240}
		end := geom.Vec2{X: 240, Y: 240}
		path := f.FindPath(start, end)
		require.NotEmpty(t, path)
		for _, wp := range path {
			require.True(t, f.IsWalkable(wp), "waypoint %v crosses the wall", wp)
		}
		require.Equal(t, end, path[len(path)-1])
	})

	t.Run("Blocked Destination Retargets Once", func(t *testing.T) {
		f := NewFinder(640, 640, testPathConfig(), nil)
		blocked := geom.Vec2{X: 336, Y: 336}
		f.Grid().SetBlocked(blocked, 32, 32, true)

		path := f.FindPath(geom.Vec2{X: 16, Y: 16}, blocked)
		require.NotEmpty(t, path)
		last := path[len(path)-1]
		require.True(t, f.IsWalkable(last))
		require.NotEqual(t, f.Grid().CellAt(blocked), f.Grid().CellAt(last))
	})

	t.Run("Unreachable Returns Empty", func(t *testing.T) {
		f := NewFinder(640, 640, testPathConfig(), nil)
		// Box in the start cell completely.
		f.Grid().SetBlocked(geom.Vec2{X: 112, Y: 48}, 32, 96, true)
		f.Grid().SetBlocked(geom.Vec2{X: 48, Y: 112}, 96, 32, true)
		// start at (16,16); walls at x=96..128 for y=0..96 and y=96..128 for
		// x=0..96 leave no way out, and the whole pocket plus the wall edge
		// is searched before giving up.
		path := f.FindPath(geom.Vec2{X: 16, Y: 16}, geom.Vec2{X: 400, Y: 400})
		require.Empty(t, path)
	})

	t.Run("Expansion Cap Returns Empty", func(t *testing.T) {
		cfg := testPathConfig()
		cfg.MaxExpansions = 3
		f := NewFinder(640, 640, cfg, nil)
		path := f.FindPath(geom.Vec2{X: 16, Y: 16}, geom.Vec2{X: 600, Y: 600})
		require.Empty(t, path)
	})

	t.Run("Out Of Bounds Returns Empty", func(t *testing.T) {
		f := NewFinder(640, 640, testPathConfig(), nil)
		require.Empty(t, f.FindPath(geom.Vec2{X: -100, Y: 16}, geom.Vec2{X: 16, Y: 16}))
		require.Empty(t, f.FindPath(geom.Vec2{X: 16, Y: 16}, geom.Vec2{X: 10000, Y: 16}))
	})
}

func TestPathCache(t *testing.T) {
	t.Run("Callers Cannot Corrupt Cached Paths", func(t *testing.T) {
		f := NewFinder(640, 640, testPathConfig(), nil)
		start := geom.Vec2{X: 16, Y: 16}
		end := geom.Vec2{X: 176, Y: 16}

		first := f.FindPath(start, end)
		require.NotEmpty(t, first)
		// Consume waypoints the way a moving unit does.
		first[0] = geom.Vec2{X: -1, Y: -1}
		first = first[1:]

		second := f.FindPath(start, end)
		require.Len(t, second, 5)
		require.Equal(t, geom.Vec2{X: 48, Y: 16}, second[0])
	})

	t.Run("Invalidation Is Throttled", func(t *testing.T) {
		f := NewFinder(640, 640, testPathConfig(), nil)
		start := geom.Vec2{X: 16, Y: 16}
		end := geom.Vec2{X: 176, Y: 16}
		require.NotEmpty(t, f.FindPath(start, end))
		require.Equal(t, 1, f.cache.Len())

		f.ObstaclesChanged()
		// Under the interval: cache untouched.
		f.Advance(500 * time.Millisecond)
		require.Equal(t, 1, f.cache.Len())
		// Crossing the interval drops it wholesale.
		f.Advance(2 * time.Second)
		require.Equal(t, 0, f.cache.Len())
	})

	t.Run("Clean Advance Keeps Cache", func(t *testing.T) {
		f := NewFinder(640, 640, testPathConfig(), nil)
		require.NotEmpty(t, f.FindPath(geom.Vec2{X: 16, Y: 16}, geom.Vec2{X: 176, Y: 16}))
		f.Advance(5 * time.Second)
		require.Equal(t, 1, f.cache.Len())
	})
}

func TestGrid(t *testing.T) {
	t.Run("Cost Multiplier", func(t *testing.T) {
		g := NewGrid(640, 640, 32, 100)
		c := g.CellAt(geom.Vec2{X: 100, Y: 100})
		require.Equal(t, 1.0, g.CostMultiplier(c))

		g.AddObstacle(geom.Vec2{X: 100, Y: 100}, 10, 10)
		require.Equal(t, 100.0, g.CostMultiplier(c))
		require.True(t, g.Walkable(c))

		g.RemoveObstacle(geom.Vec2{X: 100, Y: 100}, 10, 10)
		require.Equal(t, 1.0, g.CostMultiplier(c))
	})

	t.Run("Static Blocks Are Impassable", func(t *testing.T) {
		g := NewGrid(640, 640, 32, 100)
		c := g.CellAt(geom.Vec2{X: 100, Y: 100})
		g.SetBlocked(geom.Vec2{X: 100, Y: 100}, 10, 10, true)
		require.False(t, g.Walkable(c))
	})

	t.Run("NearestWalkable", func(t *testing.T) {
		g := NewGrid(640, 640, 32, 100)
		g.SetBlocked(geom.Vec2{X: 112, Y: 112}, 32, 32, true)
		blocked := g.CellAt(geom.Vec2{X: 112, Y: 112})

		alt, ok := g.NearestWalkable(blocked)
		require.True(t, ok)
		require.True(t, g.Walkable(alt))
		require.NotEqual(t, blocked, alt)
	})
}
