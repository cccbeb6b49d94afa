package config

import "fmt"

// UnitClass is the coarse combat classification used by the damage
// multiplier table.
type UnitClass string

const (
	ClassStandard   UnitClass = "standard"
	ClassLight      UnitClass = "light"
	ClassArmored    UnitClass = "armored"
	ClassMassive    UnitClass = "massive"
	ClassBiological UnitClass = "biological"
	ClassMechanical UnitClass = "mechanical"
	ClassAir        UnitClass = "air"
	ClassShielded   UnitClass = "shielded"
)

// UnitDef is the stat block for one unit type. All units of a type are
// constructed from this table; there is no per-faction subclassing.
type UnitDef struct {
	Name         string    `json:"name" yaml:"name"`
	Class        UnitClass `json:"class" yaml:"class"`
	MineralCost  int       `json:"mineral_cost" yaml:"mineral_cost"`
	GasCost      int       `json:"gas_cost" yaml:"gas_cost"`
	SupplyCost   int       `json:"supply_cost" yaml:"supply_cost"`
	BuildTime    float64   `json:"build_time" yaml:"build_time"`
	MaxHealth    float64   `json:"max_health" yaml:"max_health"`
	MaxShield    float64   `json:"max_shield" yaml:"max_shield"`
	Armor        float64   `json:"armor" yaml:"armor"`
	Damage       float64   `json:"damage" yaml:"damage"`
	AttackRange  float64   `json:"attack_range" yaml:"attack_range"`
	AttackSpeed  float64   `json:"attack_speed" yaml:"attack_speed"`
	MoveSpeed    float64   `json:"move_speed" yaml:"move_speed"`
	SightRange   float64   `json:"sight_range" yaml:"sight_range"`
	Radius       float64   `json:"radius" yaml:"radius"`
	CargoMax     int       `json:"cargo_max" yaml:"cargo_max"`
	HarvestRate  float64   `json:"harvest_rate" yaml:"harvest_rate"`
	Cloaked      bool      `json:"cloaked" yaml:"cloaked"`
	DetectorRange float64  `json:"detector_range" yaml:"detector_range"`
}

// Worker reports whether units of this type can gather resources.
func (d UnitDef) Worker() bool { return d.CargoMax > 0 }

// BuildingDef is the stat block for one building type.
type BuildingDef struct {
	Name            string    `json:"name" yaml:"name"`
	Class           UnitClass `json:"class" yaml:"class"`
	MineralCost     int       `json:"mineral_cost" yaml:"mineral_cost"`
	GasCost         int       `json:"gas_cost" yaml:"gas_cost"`
	BuildTime       float64   `json:"build_time" yaml:"build_time"`
	MaxHealth       float64   `json:"max_health" yaml:"max_health"`
	MaxShield       float64   `json:"max_shield" yaml:"max_shield"`
	Armor           float64   `json:"armor" yaml:"armor"`
	Width           float64   `json:"width" yaml:"width"`
	Height          float64   `json:"height" yaml:"height"`
	SightRange      float64   `json:"sight_range" yaml:"sight_range"`
	Produces        []string  `json:"produces" yaml:"produces"`
	StorageCapacity int       `json:"storage_capacity" yaml:"storage_capacity"`
	SupplyProvided  int       `json:"supply_provided" yaml:"supply_provided"`
	// Base marks the faction's headquarters: workers deposit cargo here and
	// the AI expands by building more of them.
	Base          bool    `json:"base" yaml:"base"`
	DetectorRange float64 `json:"detector_range" yaml:"detector_range"`
}

// FactionDef describes one playable faction: its rosters and starting forces.
type FactionDef struct {
	Name      string                 `json:"name" yaml:"name"`
	Units     map[string]UnitDef     `json:"units" yaml:"units"`
	Buildings map[string]BuildingDef `json:"buildings" yaml:"buildings"`

	// Starting forces spawned by the faction factory.
	StartingBase    string         `json:"starting_base" yaml:"starting_base"`
	StartingWorkers int            `json:"starting_workers" yaml:"starting_workers"`
	StartingCombat  map[string]int `json:"starting_combat" yaml:"starting_combat"`

	// WorkerType and the default combat type queued by the AI.
	WorkerType string `json:"worker_type" yaml:"worker_type"`
	ArmyType   string `json:"army_type" yaml:"army_type"`
}

func (f FactionDef) validate(tag string) error {
	if len(f.Units) == 0 || len(f.Buildings) == 0 {
		return fmt.Errorf("config: faction %q needs unit and building rosters", tag)
	}
	if _, ok := f.Buildings[f.StartingBase]; !ok {
		return fmt.Errorf("config: faction %q starting base %q not in roster", tag, f.StartingBase)
	}
	if _, ok := f.Units[f.WorkerType]; !ok {
		return fmt.Errorf("config: faction %q worker type %q not in roster", tag, f.WorkerType)
	}
	if _, ok := f.Units[f.ArmyType]; !ok {
		return fmt.Errorf("config: faction %q army type %q not in roster", tag, f.ArmyType)
	}
	for name, u := range f.Units {
		if u.Radius <= 0 {
			return fmt.Errorf("config: faction %q unit %q radius must be positive", tag, name)
		}
	}
	return nil
}
