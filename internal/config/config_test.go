package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "orrery.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := writeConfig(t, `
[ship]
max_speed = 20.0
reload = "1500ms"

[physics]
gravity = [0.0, 0.0, 0.0]

[logging]
format = "json"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, float32(20), cfg.Ship.MaxSpeed)
	require.Equal(t, 1500*time.Millisecond, cfg.Ship.Reload)
	require.Equal(t, [3]float32{}, cfg.Physics.Gravity)
	require.Equal(t, "json", cfg.Logging.Format)

	// Untouched keys keep their defaults.
	require.Equal(t, float32(0.57), cfg.Ship.ComboBrakeRatio)
	require.Equal(t, 10, cfg.Physics.MaxSubSteps)
	require.Equal(t, "info", cfg.Logging.Level)
	require.Equal(t, "assets/audio/cannon.wav", cfg.Audio.Cues["cannon"])
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(writeConfig(t, "[ship\nmax_speed = 1"))
	require.ErrorContains(t, err, "parse config")

	_, err = Load(writeConfig(t, "[ship]\nbrake_divisor = 1.0\n"))
	require.ErrorContains(t, err, "brake_divisor")

	_, err = Load(writeConfig(t, "[physics]\nfixed_step = \"0s\"\n"))
	require.ErrorContains(t, err, "fixed_step")
}

func TestShippedConfigLoads(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "config", "orrery.toml"))
	require.NoError(t, err)
	require.Equal(t, 10, cfg.Physics.MaxSubSteps)
	require.Equal(t, 2*time.Second, cfg.Ship.Reload)
	require.Empty(t, cfg.Database.DSN)
}
