package fog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/outpost-rts/outpost/internal/core/config"
	"github.com/outpost-rts/outpost/internal/core/game"
	"github.com/outpost-rts/outpost/pkg/geom"
)

func testFogConfig() config.FogConfig {
	return config.FogConfig{
		CellSize:          50,
		GracePeriod:       60 * time.Second,
		RecomputeInterval: 500 * time.Millisecond,
	}
}

func scout(owner game.PlayerID, pos geom.Vec2, sight float64) *game.Unit {
	return &game.Unit{
		Entity:     game.Entity{Owner: owner, Pos: pos, Radius: 10, Alive: true},
		Type:       "lancer",
		Health:     10, MaxHealth: 10,
		SightRange: sight,
	}
}

func TestVisibilityLifecycle(t *testing.T) {
	cfg := testFogConfig()
	store := game.NewEntityStore(2000, 2000, nil)
	g := NewGrid(2000, 2000, cfg, nil)
	g.Track(1)

	home := geom.Vec2{X: 500, Y: 500}
	u := scout(1, home, 200)
	store.InsertUnit(u)

	t.Run("Initially Hidden", func(t *testing.T) {
		require.Equal(t, Hidden, g.StateAt(1, home))
	})

	t.Run("Unit Sight Makes Visible", func(t *testing.T) {
		g.Advance(time.Millisecond, store)
		require.Equal(t, Visible, g.StateAt(1, home))
		require.True(t, g.IsVisible(1, home))
		require.True(t, g.IsExplored(1, home))
		// Beyond sight range stays hidden.
		require.Equal(t, Hidden, g.StateAt(1, geom.Vec2{X: 1500, Y: 1500}))
	})

	t.Run("Grace Period Holds Visibility", func(t *testing.T) {
		// Move the unit far away; the old cells keep Visible until the grace
		// period elapses.
		u.Pos = geom.Vec2{X: 1800, Y: 1800}
		g.Advance(time.Second, store)
		require.Equal(t, Visible, g.StateAt(1, home))
	})

	t.Run("Explored After Grace", func(t *testing.T) {
		for i := 0; i < 70; i++ {
			g.Advance(time.Second, store)
		}
		require.Equal(t, Explored, g.StateAt(1, home))
		require.False(t, g.IsVisible(1, home))
		require.True(t, g.IsExplored(1, home))
	})

	t.Run("Never Regresses To Hidden", func(t *testing.T) {
		for i := 0; i < 200; i++ {
			g.Advance(time.Second, store)
		}
		require.Equal(t, Explored, g.StateAt(1, home))
	})
}

func TestRecomputeThrottle(t *testing.T) {
	cfg := testFogConfig()
	store := game.NewEntityStore(2000, 2000, nil)
	g := NewGrid(2000, 2000, cfg, nil)
	g.Track(1)

	u := scout(1, geom.Vec2{X: 500, Y: 500}, 200)
	store.InsertUnit(u)

	// First advance computes immediately.
	g.Advance(time.Millisecond, store)
	require.True(t, g.IsVisible(1, u.Pos))

	// New position is not reflected until the interval elapses.
	u.Pos = geom.Vec2{X: 1500, Y: 1500}
	g.Advance(100*time.Millisecond, store)
	require.False(t, g.IsVisible(1, u.Pos))

	g.Advance(500*time.Millisecond, store)
	require.True(t, g.IsVisible(1, u.Pos))
}

func TestEntityVisibility(t *testing.T) {
	cfg := testFogConfig()
	store := game.NewEntityStore(2000, 2000, nil)
	g := NewGrid(2000, 2000, cfg, nil)
	g.Track(1)
	g.Track(2)

	observer := scout(1, geom.Vec2{X: 500, Y: 500}, 300)
	store.InsertUnit(observer)

	t.Run("Owner Always Sees Own Units", func(t *testing.T) {
		far := scout(1, geom.Vec2{X: 1900, Y: 1900}, 100)
		store.InsertUnit(far)
		g.Advance(time.Millisecond, store)
		require.True(t, g.IsUnitVisibleTo(1, far))
	})

	t.Run("Enemy In Sight Is Visible", func(t *testing.T) {
		enemy := scout(2, geom.Vec2{X: 600, Y: 500}, 100)
		store.InsertUnit(enemy)
		g.Advance(time.Second, store)
		require.True(t, g.IsUnitVisibleTo(1, enemy))
	})

	t.Run("Dead Units Are Never Visible", func(t *testing.T) {
		enemy := scout(2, geom.Vec2{X: 600, Y: 500}, 100)
		store.InsertUnit(enemy)
		enemy.Kill()
		require.False(t, g.IsUnitVisibleTo(1, enemy))
	})
}

func TestCloakDetection(t *testing.T) {
	cfg := testFogConfig()
	store := game.NewEntityStore(2000, 2000, nil)
	g := NewGrid(2000, 2000, cfg, nil)
	g.Track(1)

	observer := scout(1, geom.Vec2{X: 500, Y: 500}, 400)
	store.InsertUnit(observer)

	shade := scout(2, geom.Vec2{X: 600, Y: 500}, 100)
	shade.Cloaked = true
	store.InsertUnit(shade)

	t.Run("Cloaked Invisible Without Detector", func(t *testing.T) {
		g.Advance(time.Millisecond, store)
		// The cell is visible but the cloaked unit is not.
		require.True(t, g.IsVisible(1, shade.Pos))
		require.False(t, g.IsUnitVisibleTo(1, shade))
	})

	t.Run("Detector In Range Reveals", func(t *testing.T) {
		detector := scout(1, geom.Vec2{X: 550, Y: 500}, 300)
		detector.DetectorRange = 300
		store.InsertUnit(detector)

		g.Advance(time.Second, store)
		require.True(t, g.IsUnitVisibleTo(1, shade))
	})

	t.Run("Detector Out Of Range Does Not", func(t *testing.T) {
		far := game.NewEntityStore(2000, 2000, nil)
		fg := NewGrid(2000, 2000, cfg, nil)
		fg.Track(1)

		eye := scout(1, geom.Vec2{X: 500, Y: 500}, 1500)
		eye.DetectorRange = 50
		far.InsertUnit(eye)

		hidden := scout(2, geom.Vec2{X: 900, Y: 500}, 100)
		hidden.Cloaked = true
		far.InsertUnit(hidden)

		fg.Advance(time.Millisecond, far)
		require.True(t, fg.IsVisible(1, hidden.Pos))
		require.False(t, fg.IsUnitVisibleTo(1, hidden))
	})
}
