package combat

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/outpost-rts/outpost/internal/core/config"
)

func TestMultiplier(t *testing.T) {
	t.Run("Table Lookup", func(t *testing.T) {
		require.Equal(t, 0.75, Multiplier(config.ClassLight, config.ClassArmored))
		require.Equal(t, 1.5, Multiplier(config.ClassArmored, config.ClassMassive))
	})

	t.Run("Missing Entries Default To One", func(t *testing.T) {
		require.Equal(t, 1.0, Multiplier(config.ClassStandard, config.ClassArmored))
		require.Equal(t, 1.0, Multiplier(config.ClassLight, config.ClassAir))
	})
}
