package config

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"
)

// Config carries every tunable of the simulation core. Zero values are not
// meaningful; start from DefaultConfig and override.
type Config struct {
	// World dimensions in world units.
	MapWidth  float64 `json:"map_width" yaml:"map_width"`
	MapHeight float64 `json:"map_height" yaml:"map_height"`

	// Tick is the fixed simulation timestep.
	Tick time.Duration `json:"tick" yaml:"tick"`

	Path    PathConfig    `json:"path" yaml:"path"`
	Fog     FogConfig     `json:"fog" yaml:"fog"`
	Combat  CombatConfig  `json:"combat" yaml:"combat"`
	AI      AIConfig      `json:"ai" yaml:"ai"`
	Economy EconomyConfig `json:"economy" yaml:"economy"`

	// Factions maps faction tag to its descriptor. Units and buildings are
	// constructed generically from these tables.
	Factions map[string]FactionDef `json:"factions" yaml:"factions"`
}

type PathConfig struct {
	// CellSize is the pathfinding grid quantum in world units.
	CellSize float64 `json:"cell_size" yaml:"cell_size"`
	// MaxExpansions caps A* node expansions per search.
	MaxExpansions int `json:"max_expansions" yaml:"max_expansions"`
	// ObstacleCost multiplies move cost for cells under a dynamic obstacle.
	ObstacleCost float64 `json:"obstacle_cost" yaml:"obstacle_cost"`
	// CacheInvalidateInterval throttles wholesale path cache invalidation
	// when dynamic obstacles move.
	CacheInvalidateInterval time.Duration `json:"cache_invalidate_interval" yaml:"cache_invalidate_interval"`
}

type FogConfig struct {
	CellSize float64 `json:"cell_size" yaml:"cell_size"`
	// GracePeriod is how long an uncovered Visible cell stays Visible before
	// dropping to Explored.
	GracePeriod time.Duration `json:"grace_period" yaml:"grace_period"`
	// RecomputeInterval throttles visibility recomputation.
	RecomputeInterval time.Duration `json:"recompute_interval" yaml:"recompute_interval"`
}

type CombatConfig struct {
	// CritChance is the probability of a critical hit doubling post-armor damage.
	CritChance float64 `json:"crit_chance" yaml:"crit_chance"`
	// LogCapacity bounds the combat event ring buffer.
	LogCapacity int `json:"log_capacity" yaml:"log_capacity"`
}

type AIConfig struct {
	// UpdateInterval is the base director cadence; difficulty scales it down.
	UpdateInterval time.Duration `json:"update_interval" yaml:"update_interval"`
	// Profiles keyed by difficulty name ("easy", "normal", "hard").
	Profiles map[string]AIProfile `json:"profiles" yaml:"profiles"`
}

// AIProfile tunes one difficulty level of the director.
type AIProfile struct {
	WorkerCap       int           `json:"worker_cap" yaml:"worker_cap"`
	ArmyCap         int           `json:"army_cap" yaml:"army_cap"`
	ExpandThreshold int           `json:"expand_threshold" yaml:"expand_threshold"`
	AttackDuration  time.Duration `json:"attack_duration" yaml:"attack_duration"`
	DefendDuration  time.Duration `json:"defend_duration" yaml:"defend_duration"`
	// ReactionScale multiplies the base update interval; lower reacts faster.
	ReactionScale float64 `json:"reaction_scale" yaml:"reaction_scale"`
	// EventChance is the per-evaluation probability of a forced random
	// transition, simulating erratic play.
	EventChance float64 `json:"event_chance" yaml:"event_chance"`
	// RetreatHealthFrac sends combat units home below this health fraction.
	RetreatHealthFrac float64 `json:"retreat_health_frac" yaml:"retreat_health_frac"`
}

type EconomyConfig struct {
	// StartingMinerals and StartingGas seed each player's ledger.
	StartingMinerals int `json:"starting_minerals" yaml:"starting_minerals"`
	StartingGas      int `json:"starting_gas" yaml:"starting_gas"`
	// SupplyCap is the hard ceiling on total supply.
	SupplyCap int `json:"supply_cap" yaml:"supply_cap"`
}

// LoadYAML loads config from a YAML reader.
func LoadYAML(r io.Reader) (*Config, error) {
	c := DefaultConfig()
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("decode config yaml: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadJSON loads config from a JSON reader.
func LoadJSON(r io.Reader) (*Config, error) {
	c := DefaultConfig()
	dec := json.NewDecoder(r)
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("decode config json: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects configs the simulation cannot run on.
func (c *Config) Validate() error {
	if c.MapWidth <= 0 || c.MapHeight <= 0 {
		return fmt.Errorf("config: map dimensions must be positive, got %gx%g", c.MapWidth, c.MapHeight)
	}
	if c.Tick <= 0 {
		return fmt.Errorf("config: tick must be positive, got %v", c.Tick)
	}
	if c.Path.CellSize <= 0 {
		return fmt.Errorf("config: path cell size must be positive, got %g", c.Path.CellSize)
	}
	if c.Fog.CellSize <= 0 {
		return fmt.Errorf("config: fog cell size must be positive, got %g", c.Fog.CellSize)
	}
	if len(c.Factions) == 0 {
		return fmt.Errorf("config: at least one faction is required")
	}
	for tag, f := range c.Factions {
		if err := f.validate(tag); err != nil {
			return err
		}
	}
	return nil
}

// Profile returns the AI profile for a difficulty name, falling back to
// "normal" when the name is unknown.
func (c *Config) Profile(difficulty string) AIProfile {
	if p, ok := c.AI.Profiles[difficulty]; ok {
		return p
	}
	return c.AI.Profiles["normal"]
}
