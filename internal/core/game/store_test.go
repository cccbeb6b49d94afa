package game

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/outpost-rts/outpost/internal/core/config"
	"github.com/outpost-rts/outpost/internal/core/events/bus"
	"github.com/outpost-rts/outpost/pkg/geom"
)

func testUnit(owner PlayerID, pos geom.Vec2) *Unit {
	cfg := config.DefaultConfig()
	return NewUnit("lancer", "vanguard", cfg.Factions["vanguard"].Units["lancer"], owner, pos)
}

func testWorker(owner PlayerID, pos geom.Vec2) *Unit {
	cfg := config.DefaultConfig()
	return NewUnit("fabricator", "vanguard", cfg.Factions["vanguard"].Units["fabricator"], owner, pos)
}

func testBase(owner PlayerID, pos geom.Vec2) *Building {
	cfg := config.DefaultConfig()
	b := NewBuilding("bastion", "vanguard", cfg.Factions["vanguard"].Buildings["bastion"], owner, pos)
	b.Progress = 100
	return b
}

func TestEntityStore(t *testing.T) {
	t.Run("IDs Are Monotonic Across Kinds", func(t *testing.T) {
		s := NewEntityStore(1000, 1000, nil)
		id1 := s.InsertUnit(testUnit(1, geom.Vec2{X: 10, Y: 10}))
		id2 := s.InsertBuilding(testBase(1, geom.Vec2{X: 200, Y: 200}))
		id3 := s.InsertResource(NewResourceNode(ResourceMinerals, 100, 5, geom.Vec2{X: 500, Y: 500}))

		require.Less(t, id1, id2)
		require.Less(t, id2, id3)
	})

	t.Run("Insert Clamps To Bounds", func(t *testing.T) {
		s := NewEntityStore(1000, 1000, nil)
		id := s.InsertUnit(testUnit(1, geom.Vec2{X: -50, Y: 5000}))
		u := s.Unit(id)
		require.Equal(t, geom.Vec2{X: 0, Y: 1000}, u.Pos)
	})

	t.Run("Lookup Missing Returns Nil", func(t *testing.T) {
		s := NewEntityStore(1000, 1000, nil)
		require.Nil(t, s.Unit(99))
		require.Nil(t, s.Building(99))
		require.Nil(t, s.Resource(99))
		require.Nil(t, s.Combatant(99))
	})

	t.Run("Deferred Removal", func(t *testing.T) {
		s := NewEntityStore(1000, 1000, nil)
		id := s.InsertUnit(testUnit(1, geom.Vec2{X: 10, Y: 10}))
		s.Unit(id).Kill()

		// Dead units stay resolvable until the end-of-tick sweep.
		require.NotNil(t, s.Unit(id))
		s.RemoveDead()
		require.Nil(t, s.Unit(id))
	})

	t.Run("Removal Publishes Events", func(t *testing.T) {
		b := bus.New()
		destroyed := 0
		_, err := b.Subscribe(EventUnitDestroyed, func(bus.Event) error {
			destroyed++
			return nil
		})
		require.NoError(t, err)

		s := NewEntityStore(1000, 1000, b)
		id := s.InsertUnit(testUnit(1, geom.Vec2{X: 10, Y: 10}))
		s.Unit(id).Kill()
		s.RemoveDead()
		require.Equal(t, 1, destroyed)
	})

	t.Run("Units Sorted By ID", func(t *testing.T) {
		s := NewEntityStore(1000, 1000, nil)
		for i := 0; i < 20; i++ {
			s.InsertUnit(testUnit(1, geom.Vec2{X: float64(i), Y: 0}))
		}
		units := s.Units()
		require.Len(t, units, 20)
		for i := 1; i < len(units); i++ {
			require.Less(t, units[i-1].ID, units[i].ID)
		}
	})
}

func TestSpatialQueries(t *testing.T) {
	s := NewEntityStore(2000, 2000, nil)
	near := s.InsertUnit(testUnit(1, geom.Vec2{X: 100, Y: 100}))
	far := s.InsertUnit(testUnit(1, geom.Vec2{X: 1500, Y: 1500}))
	enemyNear := s.InsertUnit(testUnit(2, geom.Vec2{X: 150, Y: 100}))
	enemyFar := s.InsertUnit(testUnit(2, geom.Vec2{X: 1900, Y: 1900}))

	t.Run("UnitsInRadius", func(t *testing.T) {
		got := s.UnitsInRadius(geom.Vec2{X: 100, Y: 100}, 200)
		ids := make([]EntityID, 0, len(got))
		for _, u := range got {
			ids = append(ids, u.ID)
		}
		require.Contains(t, ids, near)
		require.Contains(t, ids, enemyNear)
		require.NotContains(t, ids, far)
	})

	t.Run("UnitsOwnedBy", func(t *testing.T) {
		require.Len(t, s.UnitsOwnedBy(1), 2)
		require.Len(t, s.UnitsOwnedBy(2), 2)
		require.Empty(t, s.UnitsOwnedBy(3))
	})

	t.Run("NearestEnemy Respects Sight Range", func(t *testing.T) {
		u := s.Unit(near)
		e := s.NearestEnemy(u)
		require.NotNil(t, e)
		require.Equal(t, enemyNear, e.ID)

		// A unit alone in a corner sees nobody.
		lone := s.Unit(far)
		e = s.NearestEnemy(lone)
		if e != nil {
			require.LessOrEqual(t, geom.Distance(lone.Pos, e.Pos), lone.SightRange)
		}
		_ = enemyFar
	})

	t.Run("NearestFriendlyBase Requires Completion", func(t *testing.T) {
		u := s.Unit(near)
		require.Nil(t, s.NearestFriendlyBase(u))

		incomplete := testBase(1, geom.Vec2{X: 300, Y: 300})
		incomplete.Progress = 50
		s.InsertBuilding(incomplete)
		require.Nil(t, s.NearestFriendlyBase(u))

		s.InsertBuilding(testBase(1, geom.Vec2{X: 400, Y: 400}))
		base := s.NearestFriendlyBase(u)
		require.NotNil(t, base)
		require.True(t, base.Completed())
	})

	t.Run("NearestResource Skips Depleted", func(t *testing.T) {
		drained := NewResourceNode(ResourceMinerals, 10, 5, geom.Vec2{X: 120, Y: 120})
		drained.Extract(10)
		s.InsertResource(drained)
		full := s.InsertResource(NewResourceNode(ResourceMinerals, 100, 5, geom.Vec2{X: 600, Y: 600}))

		got := s.NearestResource(geom.Vec2{X: 100, Y: 100}, ResourceMinerals)
		require.NotNil(t, got)
		require.Equal(t, full, got.ID)
	})
}
