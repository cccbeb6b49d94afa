package config

import "time"

// DefaultConfig returns the stock skirmish configuration: a 3200x3200 world,
// 60 Hz timestep, and two factions with mirrored economies.
func DefaultConfig() Config {
	return Config{
		MapWidth:  3200,
		MapHeight: 3200,
		Tick:      time.Second / 60,
		Path: PathConfig{
			CellSize:                32,
			MaxExpansions:           4096,
			ObstacleCost:            100,
			CacheInvalidateInterval: 2 * time.Second,
		},
		Fog: FogConfig{
			CellSize:          50,
			GracePeriod:       60 * time.Second,
			RecomputeInterval: 500 * time.Millisecond,
		},
		Combat: CombatConfig{
			CritChance:  0.05,
			LogCapacity: 100,
		},
		AI: AIConfig{
			UpdateInterval: time.Second,
			Profiles: map[string]AIProfile{
				"easy": {
					WorkerCap:         8,
					ArmyCap:           6,
					ExpandThreshold:   800,
					AttackDuration:    20 * time.Second,
					DefendDuration:    15 * time.Second,
					ReactionScale:     2.0,
					EventChance:       0.02,
					RetreatHealthFrac: 0.2,
				},
				"normal": {
					WorkerCap:         12,
					ArmyCap:           10,
					ExpandThreshold:   600,
					AttackDuration:    20 * time.Second,
					DefendDuration:    15 * time.Second,
					ReactionScale:     1.0,
					EventChance:       0.05,
					RetreatHealthFrac: 0.25,
				},
				"hard": {
					WorkerCap:         16,
					ArmyCap:           16,
					ExpandThreshold:   500,
					AttackDuration:    25 * time.Second,
					DefendDuration:    10 * time.Second,
					ReactionScale:     0.5,
					EventChance:       0.1,
					RetreatHealthFrac: 0.3,
				},
			},
		},
		Economy: EconomyConfig{
			StartingMinerals: 50,
			StartingGas:      0,
			SupplyCap:        200,
		},
		Factions: map[string]FactionDef{
			"vanguard": vanguardFaction(),
			"legion":   legionFaction(),
		},
	}
}

// vanguardFaction: shielded, mechanical, fewer but tougher units.
func vanguardFaction() FactionDef {
	return FactionDef{
		Name: "Vanguard",
		Units: map[string]UnitDef{
			"fabricator": {
				Name: "Fabricator", Class: ClassLight,
				MineralCost: 50, SupplyCost: 1, BuildTime: 12,
				MaxHealth: 30, MaxShield: 20, Armor: 0,
				Damage: 4, AttackRange: 10, AttackSpeed: 1.0,
				MoveSpeed: 80, SightRange: 250, Radius: 10,
				CargoMax: 8, HarvestRate: 2.5,
			},
			"lancer": {
				Name: "Lancer", Class: ClassShielded,
				MineralCost: 100, SupplyCost: 2, BuildTime: 24,
				MaxHealth: 80, MaxShield: 40, Armor: 1,
				Damage: 12, AttackRange: 120, AttackSpeed: 0.8,
				MoveSpeed: 90, SightRange: 280, Radius: 12,
			},
			"sentinel": {
				Name: "Sentinel", Class: ClassArmored,
				MineralCost: 150, GasCost: 50, SupplyCost: 3, BuildTime: 36,
				MaxHealth: 160, MaxShield: 60, Armor: 2,
				Damage: 20, AttackRange: 160, AttackSpeed: 0.6,
				MoveSpeed: 70, SightRange: 320, Radius: 16,
				DetectorRange: 300,
			},
		},
		Buildings: map[string]BuildingDef{
			"bastion": {
				Name: "Bastion", Class: ClassArmored,
				MineralCost: 400, BuildTime: 60,
				MaxHealth: 1500, MaxShield: 300, Armor: 3,
				Width: 130, Height: 130, SightRange: 300,
				Produces:        []string{"fabricator", "lancer", "sentinel"},
				StorageCapacity: 5000, SupplyProvided: 15,
				Base: true, DetectorRange: 350,
			},
		},
		StartingBase:    "bastion",
		StartingWorkers: 4,
		StartingCombat:  map[string]int{"lancer": 2},
		WorkerType:      "fabricator",
		ArmyType:        "lancer",
	}
}

// legionFaction: unshielded, biological, cheap numbers plus a cloaked raider.
func legionFaction() FactionDef {
	return FactionDef{
		Name: "Legion",
		Units: map[string]UnitDef{
			"drudge": {
				Name: "Drudge", Class: ClassLight,
				MineralCost: 50, SupplyCost: 1, BuildTime: 10,
				MaxHealth: 40, Armor: 0,
				Damage: 5, AttackRange: 10, AttackSpeed: 1.0,
				MoveSpeed: 85, SightRange: 250, Radius: 10,
				CargoMax: 8, HarvestRate: 2.5,
			},
			"ravager": {
				Name: "Ravager", Class: ClassBiological,
				MineralCost: 80, SupplyCost: 2, BuildTime: 18,
				MaxHealth: 100, Armor: 0,
				Damage: 10, AttackRange: 15, AttackSpeed: 1.2,
				MoveSpeed: 110, SightRange: 260, Radius: 12,
			},
			"shade": {
				Name: "Shade", Class: ClassBiological,
				MineralCost: 120, GasCost: 40, SupplyCost: 2, BuildTime: 30,
				MaxHealth: 70, Armor: 0,
				Damage: 16, AttackRange: 20, AttackSpeed: 1.0,
				MoveSpeed: 120, SightRange: 280, Radius: 11,
				Cloaked: true,
			},
		},
		Buildings: map[string]BuildingDef{
			"warcamp": {
				Name: "Warcamp", Class: ClassArmored,
				MineralCost: 350, BuildTime: 50,
				MaxHealth: 1250, Armor: 2,
				Width: 130, Height: 130, SightRange: 300,
				Produces:        []string{"drudge", "ravager", "shade"},
				StorageCapacity: 5000, SupplyProvided: 15,
				Base: true, DetectorRange: 350,
			},
		},
		StartingBase:    "warcamp",
		StartingWorkers: 4,
		StartingCombat:  map[string]int{"ravager": 2},
		WorkerType:      "drudge",
		ArmyType:        "ravager",
	}
}
