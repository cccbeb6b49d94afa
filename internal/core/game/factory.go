package game

import (
	"fmt"
	"math"

	"github.com/outpost-rts/outpost/internal/core/config"
	"github.com/outpost-rts/outpost/pkg/geom"
)

// Faction wraps a faction descriptor with generic constructors. It replaces
// per-faction subclassing: behavior differences live entirely in the tables.
type Faction struct {
	Tag string
	Def config.FactionDef
}

// NewFaction looks up a faction descriptor by tag.
func NewFaction(cfg *config.Config, tag string) (*Faction, error) {
	def, ok := cfg.Factions[tag]
	if !ok {
		return nil, fmt.Errorf("unknown faction %q", tag)
	}
	return &Faction{Tag: tag, Def: def}, nil
}

// UnitDef resolves a unit stat block by type.
func (f *Faction) UnitDef(unitType string) (config.UnitDef, error) {
	def, ok := f.Def.Units[unitType]
	if !ok {
		return config.UnitDef{}, fmt.Errorf("faction %q has no unit type %q", f.Tag, unitType)
	}
	return def, nil
}

// BuildingDef resolves a building stat block by type.
func (f *Faction) BuildingDef(buildingType string) (config.BuildingDef, error) {
	def, ok := f.Def.Buildings[buildingType]
	if !ok {
		return config.BuildingDef{}, fmt.Errorf("faction %q has no building type %q", f.Tag, buildingType)
	}
	return def, nil
}

// SpawnUnit constructs and inserts one unit of the given type.
func (f *Faction) SpawnUnit(store *EntityStore, unitType string, owner PlayerID, pos geom.Vec2) (*Unit, error) {
	def, err := f.UnitDef(unitType)
	if err != nil {
		return nil, err
	}
	u := NewUnit(unitType, f.Tag, def, owner, pos)
	store.InsertUnit(u)
	return u, nil
}

// SpawnBuilding constructs and inserts one building, under construction.
func (f *Faction) SpawnBuilding(store *EntityStore, buildingType string, owner PlayerID, pos geom.Vec2) (*Building, error) {
	def, err := f.BuildingDef(buildingType)
	if err != nil {
		return nil, err
	}
	b := NewBuilding(buildingType, f.Tag, def, owner, pos)
	store.InsertBuilding(b)
	return b, nil
}

// SpawnStartingForces places the faction's initial base (already completed),
// workers and combat units around basePos.
func (f *Faction) SpawnStartingForces(store *EntityStore, owner PlayerID, basePos geom.Vec2) (*Building, error) {
	base, err := f.SpawnBuilding(store, f.Def.StartingBase, owner, basePos)
	if err != nil {
		return nil, err
	}
	base.Progress = 100

	spawnRing := base.Radius + 40
	n := f.Def.StartingWorkers
	for _, counts := range f.Def.StartingCombat {
		n += counts
	}
	i := 0
	place := func() geom.Vec2 {
		angle := 2 * math.Pi * float64(i) / float64(max(n, 1))
		i++
		return geom.Vec2{
			X: basePos.X + spawnRing*math.Cos(angle),
			Y: basePos.Y + spawnRing*math.Sin(angle),
		}
	}

	for w := 0; w < f.Def.StartingWorkers; w++ {
		if _, err := f.SpawnUnit(store, f.Def.WorkerType, owner, place()); err != nil {
			return nil, err
		}
	}
	for unitType, count := range f.Def.StartingCombat {
		for c := 0; c < count; c++ {
			if _, err := f.SpawnUnit(store, unitType, owner, place()); err != nil {
				return nil, err
			}
		}
	}
	return base, nil
}
