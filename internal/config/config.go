package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Settings are rescuer-configurable inputs consumed at evaluation time.
// The protocol tables themselves are not configurable.
type Settings struct {
	EpinephrineIntervalMinutes int     `yaml:"epinephrine_interval_minutes" env:"EPI_INTERVAL_MINUTES"`
	AdultDefibrillatorEnergy   float64 `yaml:"adult_defibrillator_energy" env:"ADULT_DEFIB_ENERGY"`
	ECMOActivationTimeMinutes  int     `yaml:"ecmo_activation_time_minutes" env:"ECMO_ACTIVATION_MINUTES"`
	PreferLidocaine            bool    `yaml:"prefer_lidocaine" env:"PREFER_LIDOCAINE"`

	ECMOInclusionCriteria []string `yaml:"ecmo_inclusion_criteria" env:"ECMO_INCLUSION_CRITERIA"`
	ECMOExclusionCriteria []string `yaml:"ecmo_exclusion_criteria" env:"ECMO_EXCLUSION_CRITERIA"`

	DBPath string `yaml:"db_path" env:"DB_PATH"`
}

func Default() Settings {
	return Settings{
		EpinephrineIntervalMinutes: 4,
		AdultDefibrillatorEnergy:   200,
		ECMOActivationTimeMinutes:  10,
		PreferLidocaine:            false,
		ECMOInclusionCriteria: []string{
			"witnessed arrest",
			"age under 70",
			"initial shockable rhythm",
			"no-flow time under 5 min",
		},
		ECMOExclusionCriteria: []string{
			"unwitnessed arrest",
			"terminal illness",
			"severe comorbidity",
		},
		DBPath: defaultDBPath(),
	}
}

// Load builds settings from defaults, then the yaml file at path if it
// exists, then CODECLOCK_-prefixed environment variables.
func Load(path string) (Settings, error) {
	s := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(raw, &s); err != nil {
				return Settings{}, fmt.Errorf("parse settings file %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return Settings{}, fmt.Errorf("read settings file %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(&s, env.Options{Prefix: "CODECLOCK_"}); err != nil {
		return Settings{}, fmt.Errorf("parse env: %w", err)
	}

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func (s Settings) Validate() error {
	if s.EpinephrineIntervalMinutes < 1 || s.EpinephrineIntervalMinutes > 10 {
		return fmt.Errorf("epinephrine_interval_minutes must be between 1 and 10, got %d", s.EpinephrineIntervalMinutes)
	}
	if s.AdultDefibrillatorEnergy < 100 || s.AdultDefibrillatorEnergy > 360 {
		return fmt.Errorf("adult_defibrillator_energy must be between 100 and 360, got %v", s.AdultDefibrillatorEnergy)
	}
	if s.ECMOActivationTimeMinutes < 1 {
		return fmt.Errorf("ecmo_activation_time_minutes must be positive, got %d", s.ECMOActivationTimeMinutes)
	}
	return nil
}

func (s Settings) EpinephrineInterval() time.Duration {
	return time.Duration(s.EpinephrineIntervalMinutes) * time.Minute
}

func (s Settings) ECMOActivationTime() time.Duration {
	return time.Duration(s.ECMOActivationTimeMinutes) * time.Minute
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "codeclock.db"
	}
	return filepath.Join(home, ".local", "state", "codeclock", "sessions.db")
}
