package game

import (
	"github.com/outpost-rts/outpost/internal/core/config"
	"github.com/outpost-rts/outpost/pkg/geom"
)

// Unit is a mobile entity. Stats come from its faction's UnitDef; mutable
// combat and task state lives here.
type Unit struct {
	Entity
	Type    string
	Faction string

	Health    float64
	MaxHealth float64
	Shield    float64
	MaxShield float64
	Armor     float64

	Damage      float64
	AttackRange float64
	AttackSpeed float64
	MoveSpeed   float64
	SightRange  float64
	Class       config.UnitClass

	// Cooldown is the remaining time in seconds until the unit may attack
	// again. The engine decrements it each tick.
	Cooldown float64

	State TaskState

	// Weak references resolved through the store every tick. Zero means none.
	TargetUnit     EntityID
	TargetBuilding EntityID
	TargetResource EntityID

	// MoveTarget and Path drive the Moving state. Path waypoints are consumed
	// front to back.
	MoveTarget *geom.Vec2
	Path       []geom.Vec2

	// Patrol endpoints; the unit ping-pongs between them while Patrolling.
	PatrolFrom geom.Vec2
	PatrolTo   geom.Vec2

	// Worker fields. CargoMax == 0 means the unit cannot gather.
	Cargo           int
	CargoKind       ResourceKind
	CargoMax        int
	HarvestRate     float64
	harvestProgress float64

	Cloaked       bool
	DetectorRange float64

	Selected bool
}

// NewUnit builds a unit from a stat block. Position and owner come from the
// caller; the store assigns the ID on insertion.
func NewUnit(typ, faction string, def config.UnitDef, owner PlayerID, pos geom.Vec2) *Unit {
	return &Unit{
		Entity: Entity{
			Pos:    pos,
			Owner:  owner,
			Radius: def.Radius,
			Alive:  true,
		},
		Type:          typ,
		Faction:       faction,
		Health:        def.MaxHealth,
		MaxHealth:     def.MaxHealth,
		Shield:        def.MaxShield,
		MaxShield:     def.MaxShield,
		Armor:         def.Armor,
		Damage:        def.Damage,
		AttackRange:   def.AttackRange,
		AttackSpeed:   def.AttackSpeed,
		MoveSpeed:     def.MoveSpeed,
		SightRange:    def.SightRange,
		Class:         def.Class,
		State:         TaskIdle,
		CargoMax:      def.CargoMax,
		HarvestRate:   def.HarvestRate,
		Cloaked:       def.Cloaked,
		DetectorRange: def.DetectorRange,
	}
}

func (u *Unit) EntityID() EntityID            { return u.ID }
func (u *Unit) OwnerID() PlayerID             { return u.Owner }
func (u *Unit) Position() geom.Vec2           { return u.Pos }
func (u *Unit) CollisionRadius() float64      { return u.Radius }
func (u *Unit) IsAlive() bool                 { return u.Alive && u.State != TaskDead }
func (u *Unit) CombatClass() config.UnitClass { return u.Class }
func (u *Unit) ArmorValue() float64           { return u.Armor }

// CanAttack reports whether the unit has a weapon at all.
func (u *Unit) CanAttack() bool { return u.Damage > 0 && u.AttackSpeed > 0 }

// Worker reports whether the unit can gather resources.
func (u *Unit) Worker() bool { return u.CargoMax > 0 }

// Detector reports whether the unit reveals cloaked enemies.
func (u *Unit) Detector() bool { return u.DetectorRange > 0 }

// ApplyDamage absorbs damage shield-first and kills the unit when health
// reaches zero. Dead is terminal: further damage is ignored.
func (u *Unit) ApplyDamage(amount float64) bool {
	if !u.IsAlive() || amount <= 0 {
		return false
	}
	if u.Shield > 0 {
		absorbed := min(u.Shield, amount)
		u.Shield -= absorbed
		amount -= absorbed
	}
	if amount > 0 {
		u.Health -= amount
		if u.Health <= 0 {
			u.Health = 0
			u.Kill()
			return true
		}
	}
	return false
}

// ClearOrders drops every standing order without touching the task state.
// Callers set the new state themselves.
func (u *Unit) ClearOrders() {
	u.MoveTarget = nil
	u.Path = nil
	u.TargetUnit = 0
	u.TargetBuilding = 0
	u.TargetResource = 0
}

// Kill transitions the unit to the terminal Dead state and clears its task so
// later stages of the tick skip it. The store removes it at end of tick.
func (u *Unit) Kill() {
	u.Alive = false
	u.State = TaskDead
	u.MoveTarget = nil
	u.Path = nil
	u.TargetUnit = 0
	u.TargetBuilding = 0
	u.TargetResource = 0
}

// Harvest accrues progress at HarvestRate and extracts the node's yield per
// completed harvest action, clamped to cargo space and to what the node
// holds. It returns the amount actually extracted from the node.
func (u *Unit) Harvest(node *ResourceNode, dt float64) int {
	if !u.Worker() || node == nil || node.Amount <= 0 {
		return 0
	}
	quantum := node.Yield
	if quantum < 1 {
		quantum = 1
	}
	u.harvestProgress += u.HarvestRate * dt
	want := int(u.harvestProgress) / quantum * quantum
	if want == 0 {
		return 0
	}
	u.harvestProgress -= float64(want)

	space := u.CargoMax - u.Cargo
	if want > space {
		want = space
	}
	got := node.Extract(want)
	u.Cargo += got
	return got
}

// DistanceTo measures edge-to-edge distance against another entity position,
// accounting for both collision radii.
func (u *Unit) DistanceTo(pos geom.Vec2, radius float64) float64 {
	d := geom.Distance(u.Pos, pos) - u.Radius - radius
	if d < 0 {
		return 0
	}
	return d
}
