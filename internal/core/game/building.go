package game

import (
	"math"

	"github.com/outpost-rts/outpost/internal/core/config"
	"github.com/outpost-rts/outpost/pkg/geom"
)

// ProductionItem is one queued unit in a building's production queue.
type ProductionItem struct {
	UnitType  string
	Remaining float64 // build seconds left
}

// Building is a static entity. Footprint is rectangular; Pos is the center.
type Building struct {
	Entity
	Type    string
	Faction string

	Health    float64
	MaxHealth float64
	Shield    float64
	MaxShield float64
	Armor     float64

	Width  float64
	Height float64

	SightRange    float64
	Class         config.UnitClass
	DetectorRange float64

	// Progress runs 0..100; production only proceeds at 100.
	Progress float64

	Queue      []ProductionItem
	RallyPoint geom.Vec2

	Storage         int
	StorageCapacity int
	SupplyProvided  int

	// Base marks a deposit point for workers.
	Base bool

	Produces []string
}

// NewBuilding constructs a building from its stat block. A building starts
// under construction (progress 0) unless completed by the caller.
func NewBuilding(typ, faction string, def config.BuildingDef, owner PlayerID, pos geom.Vec2) *Building {
	radius := math.Max(def.Width, def.Height) / 2
	return &Building{
		Entity: Entity{
			Pos:    pos,
			Owner:  owner,
			Radius: radius,
			Alive:  true,
		},
		Type:            typ,
		Faction:         faction,
		Health:          def.MaxHealth,
		MaxHealth:       def.MaxHealth,
		Shield:          def.MaxShield,
		MaxShield:       def.MaxShield,
		Armor:           def.Armor,
		Width:           def.Width,
		Height:          def.Height,
		SightRange:      def.SightRange,
		Class:           def.Class,
		DetectorRange:   def.DetectorRange,
		StorageCapacity: def.StorageCapacity,
		SupplyProvided:  def.SupplyProvided,
		Base:            def.Base,
		Produces:        def.Produces,
		RallyPoint:      geom.Vec2{X: pos.X + radius + 20, Y: pos.Y + radius + 20},
	}
}

func (b *Building) EntityID() EntityID            { return b.ID }
func (b *Building) OwnerID() PlayerID             { return b.Owner }
func (b *Building) Position() geom.Vec2           { return b.Pos }
func (b *Building) CollisionRadius() float64      { return b.Radius }
func (b *Building) IsAlive() bool                 { return b.Alive }
func (b *Building) CombatClass() config.UnitClass { return b.Class }
func (b *Building) ArmorValue() float64           { return b.Armor }

// Completed reports whether construction has finished.
func (b *Building) Completed() bool { return b.Progress >= 100 }

// Detector reports whether the building reveals cloaked enemies.
func (b *Building) Detector() bool { return b.DetectorRange > 0 }

// CanProduce reports whether the building's roster includes the unit type.
func (b *Building) CanProduce(unitType string) bool {
	for _, t := range b.Produces {
		if t == unitType {
			return true
		}
	}
	return false
}

// Enqueue appends a unit to the production queue. The caller is responsible
// for having already charged the cost.
func (b *Building) Enqueue(unitType string, buildTime float64) {
	b.Queue = append(b.Queue, ProductionItem{UnitType: unitType, Remaining: buildTime})
}

// ApplyDamage absorbs damage shield-first; destroyed buildings flip Alive and
// are removed by the store at end of tick.
func (b *Building) ApplyDamage(amount float64) bool {
	if !b.Alive || amount <= 0 {
		return false
	}
	if b.Shield > 0 {
		absorbed := min(b.Shield, amount)
		b.Shield -= absorbed
		amount -= absorbed
	}
	if amount > 0 {
		b.Health -= amount
		if b.Health <= 0 {
			b.Health = 0
			b.Alive = false
			return true
		}
	}
	return false
}

// StoreResources deposits into building storage, clamped to remaining
// capacity, and returns the amount actually stored.
func (b *Building) StoreResources(amount int) int {
	if amount <= 0 {
		return 0
	}
	space := b.StorageCapacity - b.Storage
	if amount > space {
		amount = space
	}
	if amount < 0 {
		amount = 0
	}
	b.Storage += amount
	return amount
}
