package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jmorken/codeclock/internal/config"
)

func TestDefaults(t *testing.T) {
	s := config.Default()
	require.Equal(t, 4, s.EpinephrineIntervalMinutes)
	require.Equal(t, 200.0, s.AdultDefibrillatorEnergy)
	require.Equal(t, 10, s.ECMOActivationTimeMinutes)
	require.False(t, s.PreferLidocaine)
	require.NotEmpty(t, s.ECMOInclusionCriteria)
	require.NoError(t, s.Validate())
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"epinephrine_interval_minutes: 3\nadult_defibrillator_energy: 360\nprefer_lidocaine: true\n",
	), 0o600))

	s, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, 3, s.EpinephrineIntervalMinutes)
	require.Equal(t, 360.0, s.AdultDefibrillatorEnergy)
	require.True(t, s.PreferLidocaine)
	// Untouched keys keep defaults.
	require.Equal(t, 10, s.ECMOActivationTimeMinutes)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	s, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	require.Equal(t, config.Default().EpinephrineIntervalMinutes, s.EpinephrineIntervalMinutes)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("epinephrine_interval_minutes: 3\n"), 0o600))
	t.Setenv("CODECLOCK_EPI_INTERVAL_MINUTES", "5")

	s, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, 5, s.EpinephrineIntervalMinutes)
}

func TestLoadRejectsOutOfRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("epinephrine_interval_minutes: 0\n"), 0o600))

	_, err := config.Load(path)
	require.Error(t, err)
}

func TestDurationHelpers(t *testing.T) {
	s := config.Default()
	require.Equal(t, "4m0s", s.EpinephrineInterval().String())
	require.Equal(t, "10m0s", s.ECMOActivationTime().String())
}
