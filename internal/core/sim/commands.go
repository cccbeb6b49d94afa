package sim

import (
	"github.com/outpost-rts/outpost/internal/core/ai"
	"github.com/outpost-rts/outpost/internal/core/game"
	"github.com/outpost-rts/outpost/internal/core/observability/log"
	"github.com/outpost-rts/outpost/pkg/geom"
)

type commandKind int

const (
	cmdMove commandKind = iota
	cmdAttack
	cmdGather
	cmdBuild
	cmdPatrol
	cmdHold
	cmdStop
)

// command is one queued order. Commands are validated when applied, not when
// issued: a unit that dies in between is silently skipped.
type command struct {
	player       game.PlayerID
	kind         commandKind
	units        []game.EntityID
	target       geom.Vec2
	targetID     game.EntityID
	buildingType string
}

func (e *Engine) enqueue(c command) {
	e.cmdMu.Lock()
	e.pending = append(e.pending, c)
	e.cmdMu.Unlock()
}

// IssueMove orders units toward target. Ids that are missing, dead, or not
// owned by player are dropped without error.
func (e *Engine) IssueMove(player game.PlayerID, units []game.EntityID, target geom.Vec2) {
	e.enqueue(command{player: player, kind: cmdMove, units: units, target: target})
}

// IssueAttack orders units to attack the entity with the given id.
func (e *Engine) IssueAttack(player game.PlayerID, units []game.EntityID, target game.EntityID) {
	e.enqueue(command{player: player, kind: cmdAttack, units: units, targetID: target})
}

// IssueGather orders worker units onto a resource node. Non-workers in the
// selection are dropped.
func (e *Engine) IssueGather(player game.PlayerID, units []game.EntityID, resource game.EntityID) {
	e.enqueue(command{player: player, kind: cmdGather, units: units, targetID: resource})
}

// IssueBuild spends the building's cost and places it at pos under
// construction, then sends the worker to raise it.
func (e *Engine) IssueBuild(player game.PlayerID, worker game.EntityID, buildingType string, pos geom.Vec2) {
	e.enqueue(command{
		player:       player,
		kind:         cmdBuild,
		units:        []game.EntityID{worker},
		buildingType: buildingType,
		target:       pos,
	})
}

// IssuePatrol orders units to ping-pong between their current position and
// target.
func (e *Engine) IssuePatrol(player game.PlayerID, units []game.EntityID, target geom.Vec2) {
	e.enqueue(command{player: player, kind: cmdPatrol, units: units, target: target})
}

// IssueHold orders units to stand their ground, attacking in range but never
// chasing.
func (e *Engine) IssueHold(player game.PlayerID, units []game.EntityID) {
	e.enqueue(command{player: player, kind: cmdHold, units: units})
}

// IssueStop clears all orders and returns units to idle.
func (e *Engine) IssueStop(player game.PlayerID, units []game.EntityID) {
	e.enqueue(command{player: player, kind: cmdStop, units: units})
}

// Commander returns the command surface bound to one player, suitable for
// handing to an AI director or an input layer.
func (e *Engine) Commander(player game.PlayerID) ai.Commander {
	return &playerCommander{engine: e, player: player}
}

type playerCommander struct {
	engine *Engine
	player game.PlayerID
}

func (pc *playerCommander) IssueMove(units []game.EntityID, target geom.Vec2) {
	pc.engine.IssueMove(pc.player, units, target)
}

func (pc *playerCommander) IssueAttack(units []game.EntityID, target game.EntityID) {
	pc.engine.IssueAttack(pc.player, units, target)
}

func (pc *playerCommander) IssueGather(units []game.EntityID, resource game.EntityID) {
	pc.engine.IssueGather(pc.player, units, resource)
}

// applyPending drains the queue at tick start so every command lands on a
// consistent world state.
func (e *Engine) applyPending() {
	e.cmdMu.Lock()
	batch := e.pending
	e.pending = nil
	e.cmdMu.Unlock()

	for _, c := range batch {
		e.applyCommand(c)
	}
}

func (e *Engine) applyCommand(c command) {
	for _, id := range c.units {
		u := e.store.Unit(id)
		if u == nil || !u.Alive || u.Owner != c.player {
			continue
		}
		switch c.kind {
		case cmdMove:
			e.applyMove(u, c.target)
		case cmdAttack:
			e.applyAttack(u, c.targetID)
		case cmdGather:
			e.applyGather(u, c.targetID)
		case cmdBuild:
			e.applyBuild(u, c.buildingType, c.target)
		case cmdPatrol:
			u.ClearOrders()
			u.PatrolFrom = u.Pos
			u.PatrolTo = c.target
			u.State = game.TaskPatrolling
		case cmdHold:
			u.ClearOrders()
			u.State = game.TaskHoldingPosition
		case cmdStop:
			u.ClearOrders()
			u.State = game.TaskIdle
		}
	}
}

func (e *Engine) applyMove(u *game.Unit, target geom.Vec2) {
	u.ClearOrders()
	t := e.store.ClampToBounds(target)
	u.MoveTarget = &t
	u.State = game.TaskMoving
}

func (e *Engine) applyAttack(u *game.Unit, targetID game.EntityID) {
	if !u.CanAttack() {
		return
	}
	u.ClearOrders()
	if t := e.store.Unit(targetID); t != nil && t.Alive && t.Owner != u.Owner {
		u.TargetUnit = targetID
		u.State = game.TaskAttacking
		return
	}
	if b := e.store.Building(targetID); b != nil && b.Alive && b.Owner != u.Owner {
		u.TargetBuilding = targetID
		u.State = game.TaskAttacking
	}
}

func (e *Engine) applyGather(u *game.Unit, resourceID game.EntityID) {
	if !u.Worker() {
		return
	}
	r := e.store.Resource(resourceID)
	if r == nil || r.Depleted() {
		return
	}
	u.ClearOrders()
	u.TargetResource = resourceID
	u.State = game.TaskGathering
}

func (e *Engine) applyBuild(u *game.Unit, buildingType string, pos geom.Vec2) {
	if !u.Worker() {
		return
	}
	f, ok := e.factions[u.Owner]
	if !ok {
		return
	}
	def, err := f.BuildingDef(buildingType)
	if err != nil {
		return
	}
	if !e.ledger.CanAfford(u.Owner, def.MineralCost, def.GasCost, 0) {
		return
	}
	if !e.ledger.Spend(u.Owner, def.MineralCost, def.GasCost) {
		return
	}
	b, err := f.SpawnBuilding(e.store, buildingType, u.Owner, e.store.ClampToBounds(pos))
	if err != nil {
		e.lg.Warn("build order failed", log.Error(err))
		return
	}
	u.ClearOrders()
	u.TargetBuilding = b.ID
	u.State = game.TaskBuilding
}
