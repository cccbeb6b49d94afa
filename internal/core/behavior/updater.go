package behavior

import (
	"github.com/outpost-rts/outpost/internal/core/combat"
	"github.com/outpost-rts/outpost/internal/core/economy"
	"github.com/outpost-rts/outpost/internal/core/game"
	"github.com/outpost-rts/outpost/internal/core/observability/log"
	"github.com/outpost-rts/outpost/internal/core/path"
	"github.com/outpost-rts/outpost/pkg/geom"
)

// arrivalDistance is how close a unit must get to its move target before the
// move counts as complete.
const arrivalDistance = 5.0

// gatherMargin pads harvest/deposit interaction range beyond the collision
// radii.
const gatherMargin = 10.0

// Updater advances the unit task state machine. One transition function per
// state; Dead is terminal and skipped entirely.
type Updater struct {
	store    *game.EntityStore
	finder   *path.Finder
	resolver *combat.Resolver
	ledger   *economy.Ledger
	factions map[game.PlayerID]*game.Faction
	lg       log.Log
}

// NewUpdater wires the unit state machine to its collaborators.
func NewUpdater(
	store *game.EntityStore,
	finder *path.Finder,
	resolver *combat.Resolver,
	ledger *economy.Ledger,
	factions map[game.PlayerID]*game.Faction,
	lg log.Log,
) *Updater {
	if lg == nil {
		lg = log.Provide()
	}
	return &Updater{
		store:    store,
		finder:   finder,
		resolver: resolver,
		ledger:   ledger,
		factions: factions,
		lg:       lg.With(log.String("system", "behavior")),
	}
}

// Update advances one unit by dt seconds.
func (up *Updater) Update(u *game.Unit, dt float64) {
	if u == nil || u.State == game.TaskDead {
		return
	}
	if !u.Alive || u.Health <= 0 {
		u.Kill()
		return
	}
	if u.Cooldown > 0 {
		u.Cooldown -= dt
	}

	switch u.State {
	case game.TaskIdle:
		up.updateIdle(u)
	case game.TaskMoving:
		up.updateMoving(u, dt)
	case game.TaskAttacking:
		up.updateAttacking(u, dt)
	case game.TaskGathering:
		up.updateGathering(u, dt)
	case game.TaskReturning:
		up.updateReturning(u, dt)
	case game.TaskBuilding:
		up.updateBuilding(u, dt)
	case game.TaskPatrolling:
		up.updatePatrolling(u, dt)
	case game.TaskHoldingPosition:
		up.updateHolding(u)
	}
}

// updateIdle auto-acquires enemies that wander into attack range.
func (up *Updater) updateIdle(u *game.Unit) {
	if !u.CanAttack() {
		return
	}
	enemy := up.store.NearestEnemy(u)
	if enemy == nil {
		return
	}
	if u.DistanceTo(enemy.Pos, enemy.Radius) <= u.AttackRange {
		u.TargetUnit = enemy.ID
		u.State = game.TaskAttacking
	}
}

func (up *Updater) updateMoving(u *game.Unit, dt float64) {
	// Chasing a combat target: re-enter Attacking the moment it is in range.
	if target := up.combatTarget(u); target != nil {
		if u.DistanceTo(target.Position(), target.CollisionRadius()) <= u.AttackRange {
			u.State = game.TaskAttacking
			u.MoveTarget = nil
			u.Path = nil
			return
		}
		pos := target.Position()
		u.MoveTarget = &pos
	}

	if u.MoveTarget == nil {
		u.State = game.TaskIdle
		u.Path = nil
		return
	}

	// A nil path means none was requested yet for this move; an empty
	// non-nil path means it is already consumed.
	if u.Path == nil && up.combatTarget(u) == nil {
		u.Path = up.finder.FindPath(u.Pos, *u.MoveTarget)
		if len(u.Path) == 0 {
			u.MoveTarget = nil
			u.State = game.TaskIdle
			return
		}
	}

	up.stepAlongPath(u, dt)

	if geom.Distance(u.Pos, *u.MoveTarget) < arrivalDistance {
		u.MoveTarget = nil
		u.Path = nil
		u.State = game.TaskIdle
	}
}

func (up *Updater) updateAttacking(u *game.Unit, dt float64) {
	target := up.combatTarget(u)
	if target == nil {
		u.TargetUnit = 0
		u.TargetBuilding = 0
		u.State = game.TaskIdle
		return
	}
	if u.DistanceTo(target.Position(), target.CollisionRadius()) > u.AttackRange {
		// Close the distance.
		pos := target.Position()
		u.MoveTarget = &pos
		u.Path = nil
		u.State = game.TaskMoving
		return
	}
	up.resolver.Attack(u, target)
}

func (up *Updater) updateGathering(u *game.Unit, dt float64) {
	node := up.store.Resource(u.TargetResource)
	if node == nil || node.Depleted() {
		u.TargetResource = 0
		if u.Cargo > 0 {
			up.startReturning(u)
		} else {
			u.State = game.TaskIdle
		}
		return
	}
	if u.DistanceTo(node.Pos, node.Radius) > gatherMargin {
		up.moveToward(u, node.Pos, dt)
		return
	}
	u.CargoKind = node.Kind
	u.Harvest(node, dt)
	if u.Cargo >= u.CargoMax || node.Depleted() {
		up.startReturning(u)
	}
}

func (up *Updater) startReturning(u *game.Unit) {
	base := up.store.NearestFriendlyBase(u)
	if base == nil {
		u.State = game.TaskIdle
		return
	}
	u.TargetBuilding = base.ID
	u.State = game.TaskReturning
}

func (up *Updater) updateReturning(u *game.Unit, dt float64) {
	base := up.store.Building(u.TargetBuilding)
	if base == nil || !base.Alive {
		base = up.store.NearestFriendlyBase(u)
		if base == nil {
			u.TargetBuilding = 0
			u.State = game.TaskIdle
			return
		}
		u.TargetBuilding = base.ID
	}
	if u.DistanceTo(base.Pos, base.Radius) > gatherMargin {
		up.moveToward(u, base.Pos, dt)
		return
	}

	// Deposit: credit the ledger and the building's storage, clamped there.
	if u.Cargo > 0 {
		up.ledger.Deposit(u.Owner, u.CargoKind, u.Cargo)
		base.StoreResources(u.Cargo)
		u.Cargo = 0
	}
	u.TargetBuilding = 0

	// Resume gathering if the target resource is still viable, otherwise the
	// nearest node of the same kind, otherwise go idle.
	node := up.store.Resource(u.TargetResource)
	if node == nil || node.Depleted() {
		node = up.store.NearestResource(u.Pos, u.CargoKind)
	}
	if node != nil && !node.Depleted() {
		u.TargetResource = node.ID
		u.State = game.TaskGathering
		return
	}
	u.TargetResource = 0
	u.State = game.TaskIdle
}

// updateBuilding has a worker push a construction site toward completion.
func (up *Updater) updateBuilding(u *game.Unit, dt float64) {
	b := up.store.Building(u.TargetBuilding)
	if b == nil || !b.Alive || b.Completed() {
		u.TargetBuilding = 0
		u.State = game.TaskIdle
		return
	}
	if u.DistanceTo(b.Pos, b.Radius) > gatherMargin {
		up.moveToward(u, b.Pos, dt)
		return
	}
	f, ok := up.factions[u.Owner]
	if !ok {
		u.State = game.TaskIdle
		return
	}
	def, err := f.BuildingDef(b.Type)
	if err != nil || def.BuildTime <= 0 {
		u.State = game.TaskIdle
		return
	}
	b.Progress += 100 / def.BuildTime * dt
	if b.Progress >= 100 {
		b.Progress = 100
		u.TargetBuilding = 0
		u.State = game.TaskIdle
	}
}

// updatePatrolling ping-pongs between the patrol endpoints and engages
// enemies that come into attack range.
func (up *Updater) updatePatrolling(u *game.Unit, dt float64) {
	if u.CanAttack() {
		if enemy := up.store.NearestEnemy(u); enemy != nil &&
			u.DistanceTo(enemy.Pos, enemy.Radius) <= u.AttackRange {
			u.TargetUnit = enemy.ID
			u.State = game.TaskAttacking
			return
		}
	}
	up.moveToward(u, u.PatrolTo, dt)
	if geom.Distance(u.Pos, u.PatrolTo) < arrivalDistance {
		u.PatrolFrom, u.PatrolTo = u.PatrolTo, u.PatrolFrom
	}
}

// updateHolding attacks in range but never chases.
func (up *Updater) updateHolding(u *game.Unit) {
	if !u.CanAttack() {
		return
	}
	enemy := up.store.NearestEnemy(u)
	if enemy == nil {
		return
	}
	if u.DistanceTo(enemy.Pos, enemy.Radius) <= u.AttackRange {
		up.resolver.Attack(u, enemy)
	}
}

// combatTarget resolves the unit's weak target reference, unit first.
func (up *Updater) combatTarget(u *game.Unit) game.Combatant {
	if u.TargetUnit != 0 {
		if t := up.store.Unit(u.TargetUnit); t != nil && t.IsAlive() {
			return t
		}
		u.TargetUnit = 0
	}
	if u.TargetBuilding != 0 {
		if t := up.store.Building(u.TargetBuilding); t != nil && t.Alive {
			return t
		}
		u.TargetBuilding = 0
	}
	return nil
}

// stepAlongPath consumes waypoints toward the move target, falling back to a
// straight line when no path is set.
func (up *Updater) stepAlongPath(u *game.Unit, dt float64) {
	goal := *u.MoveTarget
	if len(u.Path) > 0 {
		goal = u.Path[0]
	}
	up.step(u, goal, dt)
	if len(u.Path) > 0 && geom.Distance(u.Pos, u.Path[0]) < arrivalDistance {
		u.Path = u.Path[1:]
	}
}

// moveToward is direct steering used while chasing or closing on an
// interaction target.
func (up *Updater) moveToward(u *game.Unit, goal geom.Vec2, dt float64) {
	up.step(u, goal, dt)
}

func (up *Updater) step(u *game.Unit, goal geom.Vec2, dt float64) {
	delta := goal.Sub(u.Pos)
	dist := delta.Length()
	if dist == 0 {
		return
	}
	stepLen := u.MoveSpeed * dt
	if stepLen > dist {
		stepLen = dist
	}
	u.Pos = up.store.ClampToBounds(u.Pos.Add(delta.Normalized().Scale(stepLen)))
}
