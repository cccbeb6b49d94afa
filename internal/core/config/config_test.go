package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConfig(t *testing.T) {
	t.Run("Defaults Are Valid", func(t *testing.T) {
		cfg := DefaultConfig()
		require.NoError(t, cfg.Validate())
		require.Equal(t, time.Second/60, cfg.Tick)
		require.Contains(t, cfg.Factions, "vanguard")
		require.Contains(t, cfg.Factions, "legion")
	})

	t.Run("Profile Fallback", func(t *testing.T) {
		cfg := DefaultConfig()
		require.Equal(t, cfg.AI.Profiles["normal"], cfg.Profile("nightmare"))
		require.Equal(t, cfg.AI.Profiles["hard"], cfg.Profile("hard"))
	})

	t.Run("Validate Rejects Bad Dimensions", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.MapWidth = 0
		require.Error(t, cfg.Validate())
	})

	t.Run("Validate Rejects Missing Factions", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Factions = nil
		require.Error(t, cfg.Validate())
	})
}

func TestLoadYAML(t *testing.T) {
	t.Run("Overrides Defaults", func(t *testing.T) {
		src := `
map_width: 1600
map_height: 1600
economy:
  starting_minerals: 200
`
		cfg, err := LoadYAML(strings.NewReader(src))
		require.NoError(t, err)
		require.Equal(t, 1600.0, cfg.MapWidth)
		require.Equal(t, 200, cfg.Economy.StartingMinerals)
		// Untouched sections keep their defaults.
		require.Equal(t, 32.0, cfg.Path.CellSize)
		require.Contains(t, cfg.Factions, "vanguard")
	})

	t.Run("Invalid Override Fails", func(t *testing.T) {
		_, err := LoadYAML(strings.NewReader("map_width: -5\n"))
		require.Error(t, err)
	})

	t.Run("Malformed YAML Fails", func(t *testing.T) {
		_, err := LoadYAML(strings.NewReader("map_width: [broken"))
		require.Error(t, err)
	})
}

func TestLoadJSON(t *testing.T) {
	t.Run("Overrides Defaults", func(t *testing.T) {
		cfg, err := LoadJSON(strings.NewReader(`{"map_width": 800, "map_height": 800}`))
		require.NoError(t, err)
		require.Equal(t, 800.0, cfg.MapWidth)
		require.Equal(t, 800.0, cfg.MapHeight)
	})
}

func TestFactionDefs(t *testing.T) {
	cfg := DefaultConfig()

	t.Run("Workers Declared", func(t *testing.T) {
		for tag, f := range cfg.Factions {
			def, ok := f.Units[f.WorkerType]
			require.True(t, ok, "faction %s missing worker type", tag)
			require.True(t, def.Worker())
		}
	})

	t.Run("Base Produces Worker", func(t *testing.T) {
		for tag, f := range cfg.Factions {
			base, ok := f.Buildings[f.StartingBase]
			require.True(t, ok, "faction %s missing starting base", tag)
			require.True(t, base.Base)
			require.Contains(t, base.Produces, f.WorkerType, "faction %s", tag)
		}
	})

	t.Run("Detectors Come From Stat Tables", func(t *testing.T) {
		v := cfg.Factions["vanguard"]
		require.Greater(t, v.Units["sentinel"].DetectorRange, 0.0)
		require.Equal(t, 0.0, v.Units["lancer"].DetectorRange)
	})
}
