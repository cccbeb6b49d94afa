package behavior

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/outpost-rts/outpost/internal/core/combat"
	"github.com/outpost-rts/outpost/internal/core/config"
	"github.com/outpost-rts/outpost/internal/core/economy"
	"github.com/outpost-rts/outpost/internal/core/game"
	"github.com/outpost-rts/outpost/internal/core/path"
	"github.com/outpost-rts/outpost/pkg/geom"
)

const tickDt = 1.0 / 60

type fixture struct {
	store  *game.EntityStore
	f      *game.Faction
	enemy  *game.Faction
	ledger *economy.Ledger
	up     *Updater
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := config.DefaultConfig()
	f, err := game.NewFaction(&cfg, "vanguard")
	require.NoError(t, err)
	ef, err := game.NewFaction(&cfg, "legion")
	require.NoError(t, err)

	store := game.NewEntityStore(2000, 2000, nil)
	finder := path.NewFinder(2000, 2000, cfg.Path, nil)
	resolver := combat.NewResolverWithRNG(cfg.Combat, nil, rand.New(rand.NewSource(7)))
	ledger := economy.NewLedger(cfg.Economy, nil)
	ledger.Register(1)
	ledger.Register(2)

	factions := map[game.PlayerID]*game.Faction{1: f, 2: ef}
	return &fixture{
		store:  store,
		f:      f,
		enemy:  ef,
		ledger: ledger,
		up:     NewUpdater(store, finder, resolver, ledger, factions, nil),
	}
}

func (fx *fixture) soldier(t *testing.T, owner game.PlayerID, pos geom.Vec2) *game.Unit {
	t.Helper()
	faction := fx.f
	typ := "lancer"
	if owner == 2 {
		faction = fx.enemy
		typ = "ravager"
	}
	u, err := faction.SpawnUnit(fx.store, typ, owner, pos)
	require.NoError(t, err)
	return u
}

func (fx *fixture) worker(t *testing.T, pos geom.Vec2) *game.Unit {
	t.Helper()
	u, err := fx.f.SpawnUnit(fx.store, "fabricator", 1, pos)
	require.NoError(t, err)
	return u
}

func (fx *fixture) base(t *testing.T, pos geom.Vec2) *game.Building {
	t.Helper()
	b, err := fx.f.SpawnBuilding(fx.store, "bastion", 1, pos)
	require.NoError(t, err)
	b.Progress = 100
	return b
}

func TestMoving(t *testing.T) {
	t.Run("Reaches Target And Goes Idle", func(t *testing.T) {
		fx := newFixture(t)
		u := fx.soldier(t, 1, geom.Vec2{X: 100, Y: 100})
		target := geom.Vec2{X: 400, Y: 100}
		u.MoveTarget = &target
		u.State = game.TaskMoving

		for i := 0; i < 2000 && u.State == game.TaskMoving; i++ {
			fx.up.Update(u, tickDt)
		}
		require.Equal(t, game.TaskIdle, u.State)
		require.Nil(t, u.MoveTarget)
		require.Less(t, geom.Distance(u.Pos, target), arrivalDistance)
	})

	t.Run("No Target Goes Idle", func(t *testing.T) {
		fx := newFixture(t)
		u := fx.soldier(t, 1, geom.Vec2{X: 100, Y: 100})
		u.State = game.TaskMoving
		fx.up.Update(u, tickDt)
		require.Equal(t, game.TaskIdle, u.State)
	})

	t.Run("Chases Combat Target Back Into Range", func(t *testing.T) {
		fx := newFixture(t)
		attacker := fx.soldier(t, 1, geom.Vec2{X: 100, Y: 100})
		victim := fx.soldier(t, 2, geom.Vec2{X: 600, Y: 100})
		attacker.TargetUnit = victim.ID
		attacker.State = game.TaskAttacking

		// Out of range, so the first update converts to a chase.
		fx.up.Update(attacker, tickDt)
		require.Equal(t, game.TaskMoving, attacker.State)

		for i := 0; i < 2000 && victim.Health == victim.MaxHealth; i++ {
			fx.up.Update(attacker, tickDt)
		}
		require.Equal(t, game.TaskAttacking, attacker.State)
		require.Less(t, victim.Health, victim.MaxHealth)
	})

	t.Run("Dead Target Clears And Idles", func(t *testing.T) {
		fx := newFixture(t)
		attacker := fx.soldier(t, 1, geom.Vec2{X: 100, Y: 100})
		victim := fx.soldier(t, 2, geom.Vec2{X: 150, Y: 100})
		victim.Kill()
		attacker.TargetUnit = victim.ID
		attacker.State = game.TaskAttacking

		fx.up.Update(attacker, tickDt)
		require.Equal(t, game.TaskIdle, attacker.State)
		require.Zero(t, attacker.TargetUnit)
	})
}

func TestGathering(t *testing.T) {
	t.Run("Harvest Deposit Cycle Credits The Ledger", func(t *testing.T) {
		fx := newFixture(t)
		fx.base(t, geom.Vec2{X: 400, Y: 400})
		node := game.NewResourceNode(game.ResourceMinerals, 1000, 5, geom.Vec2{X: 500, Y: 400})
		fx.store.InsertResource(node)

		w := fx.worker(t, geom.Vec2{X: 490, Y: 400})
		w.TargetResource = node.ID
		w.State = game.TaskGathering

		start := fx.ledger.Minerals(1)
		deposited := false
		for i := 0; i < 5000; i++ {
			fx.up.Update(w, tickDt)
			if fx.ledger.Minerals(1) > start {
				deposited = true
				break
			}
		}
		require.True(t, deposited)
		// One full cargo load.
		require.Equal(t, start+w.CargoMax, fx.ledger.Minerals(1))
		require.Equal(t, game.TaskGathering, w.State)
	})

	t.Run("Depleted Node With Cargo Heads Home", func(t *testing.T) {
		fx := newFixture(t)
		base := fx.base(t, geom.Vec2{X: 400, Y: 400})
		node := game.NewResourceNode(game.ResourceMinerals, 0, 5, geom.Vec2{X: 500, Y: 400})
		fx.store.InsertResource(node)

		w := fx.worker(t, geom.Vec2{X: 500, Y: 400})
		w.TargetResource = node.ID
		w.Cargo = 3
		w.CargoKind = game.ResourceMinerals
		w.State = game.TaskGathering

		fx.up.Update(w, tickDt)
		require.Equal(t, game.TaskReturning, w.State)
		require.Equal(t, base.ID, w.TargetBuilding)
	})

	t.Run("Depleted Node Without Cargo Idles", func(t *testing.T) {
		fx := newFixture(t)
		node := game.NewResourceNode(game.ResourceMinerals, 0, 5, geom.Vec2{X: 500, Y: 400})
		fx.store.InsertResource(node)

		w := fx.worker(t, geom.Vec2{X: 500, Y: 400})
		w.TargetResource = node.ID
		w.State = game.TaskGathering

		fx.up.Update(w, tickDt)
		require.Equal(t, game.TaskIdle, w.State)
		require.Zero(t, w.TargetResource)
	})

	t.Run("No Base Strands The Worker Idle", func(t *testing.T) {
		fx := newFixture(t)
		node := game.NewResourceNode(game.ResourceMinerals, 100, 5, geom.Vec2{X: 500, Y: 400})
		fx.store.InsertResource(node)

		w := fx.worker(t, geom.Vec2{X: 500, Y: 400})
		w.TargetResource = node.ID
		w.State = game.TaskGathering

		for i := 0; i < 1000 && w.State == game.TaskGathering; i++ {
			fx.up.Update(w, tickDt)
		}
		// Cargo filled but nowhere to return it.
		require.Equal(t, game.TaskIdle, w.State)
		require.Equal(t, w.CargoMax, w.Cargo)
	})
}

func TestConstruction(t *testing.T) {
	t.Run("Worker Pushes Site To Completion", func(t *testing.T) {
		fx := newFixture(t)
		site, err := fx.f.SpawnBuilding(fx.store, "bastion", 1, geom.Vec2{X: 400, Y: 400})
		require.NoError(t, err)
		require.False(t, site.Completed())

		w := fx.worker(t, geom.Vec2{X: 400, Y: 460})
		w.TargetBuilding = site.ID
		w.State = game.TaskBuilding

		// Bastion takes 60 seconds of work.
		for i := 0; i < 61; i++ {
			fx.up.Update(w, 1.0)
		}
		require.True(t, site.Completed())
		require.Equal(t, game.TaskIdle, w.State)
		require.Zero(t, w.TargetBuilding)
	})

	t.Run("Finished Site Frees The Worker", func(t *testing.T) {
		fx := newFixture(t)
		site := fx.base(t, geom.Vec2{X: 400, Y: 400})

		w := fx.worker(t, geom.Vec2{X: 400, Y: 460})
		w.TargetBuilding = site.ID
		w.State = game.TaskBuilding

		fx.up.Update(w, tickDt)
		require.Equal(t, game.TaskIdle, w.State)
	})
}

func TestPatrolling(t *testing.T) {
	t.Run("Ping Pongs Between Endpoints", func(t *testing.T) {
		fx := newFixture(t)
		u := fx.soldier(t, 1, geom.Vec2{X: 100, Y: 100})
		from := geom.Vec2{X: 100, Y: 100}
		to := geom.Vec2{X: 220, Y: 100}
		u.PatrolFrom, u.PatrolTo = from, to
		u.State = game.TaskPatrolling

		swapped := false
		for i := 0; i < 2000; i++ {
			fx.up.Update(u, tickDt)
			if u.PatrolTo == from {
				swapped = true
				break
			}
		}
		require.True(t, swapped)
		require.Equal(t, to, u.PatrolFrom)
		require.Equal(t, game.TaskPatrolling, u.State)
	})

	t.Run("Engages Enemy In Range", func(t *testing.T) {
		fx := newFixture(t)
		u := fx.soldier(t, 1, geom.Vec2{X: 100, Y: 100})
		enemy := fx.soldier(t, 2, geom.Vec2{X: 200, Y: 100})
		u.PatrolFrom = geom.Vec2{X: 100, Y: 100}
		u.PatrolTo = geom.Vec2{X: 100, Y: 300}
		u.State = game.TaskPatrolling

		fx.up.Update(u, tickDt)
		require.Equal(t, game.TaskAttacking, u.State)
		require.Equal(t, enemy.ID, u.TargetUnit)
	})
}

func TestHoldingPosition(t *testing.T) {
	t.Run("Attacks In Range Without Moving", func(t *testing.T) {
		fx := newFixture(t)
		u := fx.soldier(t, 1, geom.Vec2{X: 100, Y: 100})
		victim := fx.soldier(t, 2, geom.Vec2{X: 180, Y: 100})
		u.State = game.TaskHoldingPosition
		pos := u.Pos

		for i := 0; i < 10; i++ {
			fx.up.Update(u, tickDt)
		}
		require.Equal(t, game.TaskHoldingPosition, u.State)
		require.Equal(t, pos, u.Pos)
		require.Less(t, victim.Health, victim.MaxHealth)
	})

	t.Run("Never Chases", func(t *testing.T) {
		fx := newFixture(t)
		u := fx.soldier(t, 1, geom.Vec2{X: 100, Y: 100})
		victim := fx.soldier(t, 2, geom.Vec2{X: 350, Y: 100})
		u.State = game.TaskHoldingPosition
		pos := u.Pos

		for i := 0; i < 60; i++ {
			fx.up.Update(u, tickDt)
		}
		require.Equal(t, game.TaskHoldingPosition, u.State)
		require.Equal(t, pos, u.Pos)
		require.Equal(t, victim.MaxHealth, victim.Health)
	})
}

func TestIdleAndDead(t *testing.T) {
	t.Run("Idle Auto Acquires In Attack Range", func(t *testing.T) {
		fx := newFixture(t)
		u := fx.soldier(t, 1, geom.Vec2{X: 100, Y: 100})
		enemy := fx.soldier(t, 2, geom.Vec2{X: 190, Y: 100})

		fx.up.Update(u, tickDt)
		require.Equal(t, game.TaskAttacking, u.State)
		require.Equal(t, enemy.ID, u.TargetUnit)
	})

	t.Run("Idle Ignores Enemies Beyond Attack Range", func(t *testing.T) {
		fx := newFixture(t)
		u := fx.soldier(t, 1, geom.Vec2{X: 100, Y: 100})
		fx.soldier(t, 2, geom.Vec2{X: 350, Y: 100})

		fx.up.Update(u, tickDt)
		require.Equal(t, game.TaskIdle, u.State)
	})

	t.Run("Zero Health Kills", func(t *testing.T) {
		fx := newFixture(t)
		u := fx.soldier(t, 1, geom.Vec2{X: 100, Y: 100})
		u.Health = 0
		fx.up.Update(u, tickDt)
		require.Equal(t, game.TaskDead, u.State)
		require.False(t, u.Alive)
	})

	t.Run("Dead Is Terminal", func(t *testing.T) {
		fx := newFixture(t)
		u := fx.soldier(t, 1, geom.Vec2{X: 100, Y: 100})
		u.Kill()
		fx.up.Update(u, tickDt)
		require.Equal(t, game.TaskDead, u.State)
	})
}
