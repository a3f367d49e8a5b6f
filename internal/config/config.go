// Package config provides Viper-based configuration loading for the combat simulator.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// DamageConfig holds the damage formula constants.
type DamageConfig struct {
	BRVScale           float64 `mapstructure:"brv_scale"`
	HPScale            float64 `mapstructure:"hp_scale"`
	BreakBonus         float64 `mapstructure:"break_bonus"`
	WoundRate          float64 `mapstructure:"wound_rate"`
	CriticalMultiplier float64 `mapstructure:"critical_multiplier"`
	CriticalChance     float64 `mapstructure:"critical_chance"`
}

// ATBConfig holds turn gauge settings.
type ATBConfig struct {
	// Threshold is the gauge value at which a combatant becomes ready.
	Threshold float64 `mapstructure:"threshold"`
	// Rate scales speed into gauge units per second.
	Rate float64 `mapstructure:"rate"`
}

// BraveConfig holds Brave recovery settings.
type BraveConfig struct {
	// RecoveryRate is the fraction of baseline Brave restored at each turn end.
	RecoveryRate float64 `mapstructure:"recovery_rate"`
}

// DefendConfig describes the buff applied by the Defend action.
type DefendConfig struct {
	Buff     string  `mapstructure:"buff"`
	Value    float64 `mapstructure:"value"`
	Duration int     `mapstructure:"duration"`
}

// CombatConfig groups every tunable combat constant.
type CombatConfig struct {
	Damage     DamageConfig `mapstructure:"damage"`
	ATB        ATBConfig    `mapstructure:"atb"`
	Brave      BraveConfig  `mapstructure:"brave"`
	FleeChance float64      `mapstructure:"flee_chance"`
	Defend     DefendConfig `mapstructure:"defend"`
	// Tick is the simulated seconds advanced per update step.
	Tick float64 `mapstructure:"tick"`
}

// ContentConfig locates the YAML and Lua content directories.
type ContentConfig struct {
	JobsDir    string `mapstructure:"jobs_dir"`
	EnemiesDir string `mapstructure:"enemies_dir"`
	SkillsDir  string `mapstructure:"skills_dir"`
	ScriptsDir string `mapstructure:"scripts_dir"`
}

// ScriptingConfig holds Lua sandbox settings.
type ScriptingConfig struct {
	// InstructionLimit caps the VM instructions a single hook call may run.
	InstructionLimit int `mapstructure:"instruction_limit"`
}

// ReportsConfig toggles battle report persistence.
type ReportsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Config is the top-level application configuration.
type Config struct {
	Database  DatabaseConfig  `mapstructure:"database"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Combat    CombatConfig    `mapstructure:"combat"`
	Content   ContentConfig   `mapstructure:"content"`
	Scripting ScriptingConfig `mapstructure:"scripting"`
	Reports   ReportsConfig   `mapstructure:"reports"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateCombat(c.Combat); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateContent(c.Content); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Scripting.InstructionLimit < 0 {
		errs = append(errs, fmt.Sprintf("scripting.instruction_limit must be >= 0, got %d", c.Scripting.InstructionLimit))
	}
	// The database is only contacted when reports are persisted.
	if c.Reports.Enabled {
		if err := validateDatabase(c.Database); err != nil {
			errs = append(errs, err.Error())
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateCombat(c CombatConfig) error {
	var errs []string
	positive := map[string]float64{
		"combat.damage.brv_scale":           c.Damage.BRVScale,
		"combat.damage.hp_scale":            c.Damage.HPScale,
		"combat.damage.break_bonus":         c.Damage.BreakBonus,
		"combat.damage.critical_multiplier": c.Damage.CriticalMultiplier,
		"combat.atb.threshold":              c.ATB.Threshold,
		"combat.atb.rate":                   c.ATB.Rate,
		"combat.tick":                       c.Tick,
	}
	for _, key := range []string{
		"combat.damage.brv_scale",
		"combat.damage.hp_scale",
		"combat.damage.break_bonus",
		"combat.damage.critical_multiplier",
		"combat.atb.threshold",
		"combat.atb.rate",
		"combat.tick",
	} {
		if positive[key] <= 0 {
			errs = append(errs, fmt.Sprintf("%s must be > 0, got %v", key, positive[key]))
		}
	}
	unit := []struct {
		key string
		v   float64
	}{
		{"combat.damage.wound_rate", c.Damage.WoundRate},
		{"combat.damage.critical_chance", c.Damage.CriticalChance},
		{"combat.brave.recovery_rate", c.Brave.RecoveryRate},
		{"combat.flee_chance", c.FleeChance},
	}
	for _, u := range unit {
		if u.v < 0 || u.v > 1 {
			errs = append(errs, fmt.Sprintf("%s must be within [0, 1], got %v", u.key, u.v))
		}
	}
	if c.Defend.Buff == "" {
		errs = append(errs, "combat.defend.buff must not be empty")
	}
	if c.Defend.Duration < 1 {
		errs = append(errs, fmt.Sprintf("combat.defend.duration must be >= 1, got %d", c.Defend.Duration))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateContent(c ContentConfig) error {
	var errs []string
	if c.JobsDir == "" {
		errs = append(errs, "content.jobs_dir must not be empty")
	}
	if c.EnemiesDir == "" {
		errs = append(errs, "content.enemies_dir must not be empty")
	}
	if c.SkillsDir == "" {
		errs = append(errs, "content.skills_dir must not be empty")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with BRAVE_ prefix
	v.SetEnvPrefix("BRAVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Defaults returns a Config populated only from built-in defaults.
//
// Postcondition: The returned Config passes Validate.
func Defaults() Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// Unmarshal of scalar defaults cannot fail.
	_ = v.Unmarshal(&cfg)
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "brave")
	v.SetDefault("database.password", "brave")
	v.SetDefault("database.name", "brave")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("combat.damage.brv_scale", 0.1)
	v.SetDefault("combat.damage.hp_scale", 0.15)
	v.SetDefault("combat.damage.break_bonus", 1.5)
	v.SetDefault("combat.damage.wound_rate", 0.25)
	v.SetDefault("combat.damage.critical_multiplier", 1.5)
	v.SetDefault("combat.damage.critical_chance", 0.1)
	v.SetDefault("combat.atb.threshold", 1000.0)
	v.SetDefault("combat.atb.rate", 1.0)
	v.SetDefault("combat.brave.recovery_rate", 0.2)
	v.SetDefault("combat.flee_chance", 0.5)
	v.SetDefault("combat.defend.buff", "defense_up")
	v.SetDefault("combat.defend.value", 0.5)
	v.SetDefault("combat.defend.duration", 1)
	v.SetDefault("combat.tick", 0.1)

	v.SetDefault("content.jobs_dir", "content/jobs")
	v.SetDefault("content.enemies_dir", "content/enemies")
	v.SetDefault("content.skills_dir", "content/skills")
	v.SetDefault("content.scripts_dir", "content/scripts")

	v.SetDefault("scripting.instruction_limit", 100000)

	v.SetDefault("reports.enabled", false)
}
