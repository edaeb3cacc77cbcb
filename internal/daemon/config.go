// Package daemon manages the Vigor daemon lifecycle and configuration.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/vigor-app/vigor/internal/app/progression"
	"github.com/vigor-app/vigor/internal/domain"
)

// Config holds all daemon configuration.
type Config struct {
	API           APIConfig           `toml:"api"`
	Storage       StorageConfig       `toml:"storage"`
	Progression   ProgressionConfig   `toml:"progression"`
	Goals         GoalsConfig         `toml:"goals"`
	Notifications NotificationsConfig `toml:"notifications"`
	Telemetry     TelemetryConfig     `toml:"telemetry"`
	Logging       LoggingConfig       `toml:"logging"`
}

// APIConfig controls the HTTP API server.
type APIConfig struct {
	Host        string   `toml:"host"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
}

// StorageConfig controls where the database lives.
type StorageConfig struct {
	Dir string `toml:"dir"`
}

// ProgressionConfig tunes XP math. Zero values fall back to defaults so
// a partial [progression] section only overrides what it names.
type ProgressionConfig struct {
	StreakBonusPerDay float64 `toml:"streak_bonus_per_day"`
	StreakBonusCap    float64 `toml:"streak_bonus_cap"`
	EasyMultiplier    float64 `toml:"easy_multiplier"`
	MediumMultiplier  float64 `toml:"medium_multiplier"`
	HardMultiplier    float64 `toml:"hard_multiplier"`
}

// GoalsConfig controls weekly goal generation.
type GoalsConfig struct {
	Enabled      bool `toml:"enabled"`
	GoalsPerWeek int  `toml:"goals_per_week"`
}

// NotificationsConfig controls notification delivery.
type NotificationsConfig struct {
	Enabled    bool   `toml:"enabled"`
	MaxPerDay  int    `toml:"max_per_day"`
	QuietStart string `toml:"quiet_start"`
	QuietEnd   string `toml:"quiet_end"`
}

// TelemetryConfig controls metrics exposure.
type TelemetryConfig struct {
	Prometheus bool `toml:"prometheus"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// DefaultConfig returns the shipped configuration.
func DefaultConfig() Config {
	home := vigorHome()
	return Config{
		API: APIConfig{
			Host:        "127.0.0.1",
			Port:        8420,
			CORSOrigins: []string{"*"},
		},
		Storage: StorageConfig{
			Dir: home,
		},
		Goals: GoalsConfig{
			Enabled:      true,
			GoalsPerWeek: 3,
		},
		Notifications: NotificationsConfig{
			Enabled:    true,
			MaxPerDay:  3,
			QuietStart: "22:00",
			QuietEnd:   "08:00",
		},
		Telemetry: TelemetryConfig{
			Prometheus: false,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  filepath.Join(home, "vigor.log"),
		},
	}
}

// LoadConfig reads config from ~/.vigor/config.toml, falling back to defaults.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	path := filepath.Join(vigorHome(), "config.toml")

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes the config to ~/.vigor/config.toml.
func SaveConfig(cfg Config) error {
	path := filepath.Join(vigorHome(), "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(cfg)
}

// Tuning maps the config section onto the XP tuning knobs, keeping
// defaults for anything left unset.
func (c ProgressionConfig) Tuning() progression.Tuning {
	t := progression.DefaultTuning()
	if c.StreakBonusPerDay > 0 {
		t.StreakBonusPerDay = c.StreakBonusPerDay
	}
	if c.StreakBonusCap > 0 {
		t.StreakBonusCap = c.StreakBonusCap
	}
	if c.EasyMultiplier > 0 {
		t.DifficultyMultipliers[domain.DifficultyEasy] = c.EasyMultiplier
	}
	if c.MediumMultiplier > 0 {
		t.DifficultyMultipliers[domain.DifficultyMedium] = c.MediumMultiplier
	}
	if c.HardMultiplier > 0 {
		t.DifficultyMultipliers[domain.DifficultyHard] = c.HardMultiplier
	}
	return t
}

// Policy maps the notifications section onto the delivery policy.
func (c NotificationsConfig) Policy() domain.NotificationPolicy {
	p := domain.DefaultNotificationPolicy()
	if c.MaxPerDay > 0 {
		p.MaxPerDay = c.MaxPerDay
	}
	if c.QuietStart != "" {
		p.QuietStart = c.QuietStart
	}
	if c.QuietEnd != "" {
		p.QuietEnd = c.QuietEnd
	}
	return p
}

// vigorHome returns the Vigor data directory.
func vigorHome() string {
	if env := os.Getenv("VIGOR_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".vigor")
}

// VigorHome is exported for use by other packages.
func VigorHome() string {
	return vigorHome()
}
