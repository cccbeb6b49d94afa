package combat

import "github.com/outpost-rts/outpost/internal/core/config"

// damageMultipliers is the static attacker-class x target-class table. The
// attacker's class selects the row; the target's coarse classification picks
// the column. Missing entries default to 1.0.
var damageMultipliers = map[config.UnitClass]map[config.UnitClass]float64{
	config.ClassLight: {
		config.ClassLight:      1.0,
		config.ClassArmored:    0.75,
		config.ClassMassive:    0.5,
		config.ClassBiological: 1.25,
	},
	config.ClassArmored: {
		config.ClassLight:    1.0,
		config.ClassArmored:  1.25,
		config.ClassMassive:  1.5,
		config.ClassShielded: 1.25,
	},
	config.ClassBiological: {
		config.ClassLight:      1.25,
		config.ClassBiological: 1.0,
		config.ClassMechanical: 0.75,
		config.ClassShielded:   0.75,
	},
	config.ClassMechanical: {
		config.ClassArmored: 1.25,
		config.ClassAir:     1.25,
	},
	config.ClassShielded: {
		config.ClassBiological: 1.25,
		config.ClassArmored:    1.0,
		config.ClassMassive:    1.25,
	},
	config.ClassMassive: {
		config.ClassLight:   1.5,
		config.ClassArmored: 1.25,
	},
	config.ClassAir: {
		config.ClassAir:   1.25,
		config.ClassLight: 1.0,
	},
}

// Multiplier looks up the damage multiplier for an attacker class hitting a
// target class.
func Multiplier(attacker, target config.UnitClass) float64 {
	row, ok := damageMultipliers[attacker]
	if !ok {
		return 1.0
	}
	m, ok := row[target]
	if !ok {
		return 1.0
	}
	return m
}
