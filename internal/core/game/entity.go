package game

import (
	"github.com/outpost-rts/outpost/internal/core/config"
	"github.com/outpost-rts/outpost/pkg/geom"
)

// EntityID uniquely identifies an entity for its lifetime. IDs are assigned
// by the EntityStore on insertion and never reused within a match.
type EntityID uint64

// PlayerID identifies a player. NeutralPlayer owns resource nodes and any
// other unowned entity.
type PlayerID int

const NeutralPlayer PlayerID = 0

// Entity is the shared base of units, buildings and resource nodes.
type Entity struct {
	ID     EntityID
	Pos    geom.Vec2
	Owner  PlayerID
	Radius float64
	Alive  bool
}

// Combatant is anything the combat resolver can damage: units and buildings.
// Target references between entities are weak (EntityID lookups), so callers
// must re-resolve a Combatant through the store every tick.
type Combatant interface {
	EntityID() EntityID
	OwnerID() PlayerID
	Position() geom.Vec2
	CollisionRadius() float64
	IsAlive() bool
	CombatClass() config.UnitClass
	ArmorValue() float64
	// ApplyDamage routes damage through the shield before health and reports
	// whether the hit was lethal.
	ApplyDamage(amount float64) (killed bool)
}

// TaskState is the unit task state machine state. Dead is terminal.
type TaskState int

const (
	TaskIdle TaskState = iota
	TaskMoving
	TaskAttacking
	TaskGathering
	TaskReturning
	TaskBuilding
	TaskPatrolling
	TaskHoldingPosition
	TaskDead
)

var taskNames = [...]string{
	TaskIdle:            "idle",
	TaskMoving:          "moving",
	TaskAttacking:       "attacking",
	TaskGathering:       "gathering",
	TaskReturning:       "returning",
	TaskBuilding:        "building",
	TaskPatrolling:      "patrolling",
	TaskHoldingPosition: "holding",
	TaskDead:            "dead",
}

func (s TaskState) String() string {
	if s < 0 || int(s) >= len(taskNames) {
		return "unknown"
	}
	return taskNames[s]
}

// Event types published on the bus by the store and the engine.
const (
	EventUnitSpawned       = "unit.spawned"
	EventUnitDestroyed     = "unit.destroyed"
	EventBuildingSpawned   = "building.spawned"
	EventBuildingDestroyed = "building.destroyed"
	EventBuildingCompleted = "building.completed"
	EventResourceDepleted  = "resource.depleted"
)
