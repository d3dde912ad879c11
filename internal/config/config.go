// Package config provides Viper-based configuration loading for the encounter
// server and simulator.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/cory-johannsen/encounter/internal/game/combat"
)

// EnvPrefix is the prefix for environment variable overrides.
const EnvPrefix = "ENCOUNTER"

// ServerConfig holds gRPC listener settings.
type ServerConfig struct {
	// GRPCHost is the bind address for the encounter gRPC service.
	GRPCHost string `mapstructure:"grpc_host"`
	// GRPCPort is the TCP port for the encounter gRPC service.
	GRPCPort int `mapstructure:"grpc_port"`
	// MaxSessions caps concurrently active encounters; 0 means unlimited.
	MaxSessions int `mapstructure:"max_sessions"`
}

// Addr returns the "host:port" gRPC address.
//
// Postcondition: Returns a non-empty string in "host:port" format.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.GRPCHost, s.GRPCPort)
}

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

// SQLiteConfig holds the local encounter log settings.
type SQLiteConfig struct {
	// Path is the database file; empty disables the log.
	Path string `mapstructure:"path"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
	// Output is "stderr", "stdout" or a file path; empty means stderr.
	Output string `mapstructure:"output"`
}

// EngineConfig holds the combat rule knobs.
type EngineConfig struct {
	// Seed fixes the dice source; 0 selects the crypto source.
	Seed                  int64         `mapstructure:"seed"`
	AutoRunAI             bool          `mapstructure:"auto_run_ai"`
	RollInitiative        bool          `mapstructure:"roll_initiative"`
	PlayerDeathThreshold  int           `mapstructure:"player_death_threshold"`
	MonsterDeathThreshold int           `mapstructure:"monster_death_threshold"`
	DefendACBonus         int           `mapstructure:"defend_ac_bonus"`
	MaxAIChain            int           `mapstructure:"max_ai_chain"`
	EscapeBase            int           `mapstructure:"escape_base"`
	EscapeStep            int           `mapstructure:"escape_step"`
	EscapeMin             int           `mapstructure:"escape_min"`
	EscapeMax             int           `mapstructure:"escape_max"`
	// TurnTimeout auto-passes a human turn after this long; 0 disables it.
	TurnTimeout time.Duration `mapstructure:"turn_timeout"`
	// SessionRetention keeps an ended session queryable this long before it is
	// evicted; 0 evicts it as soon as the verdict is delivered.
	SessionRetention time.Duration `mapstructure:"session_retention"`
}

// Rules converts the engine section into combat.Rules.
func (e EngineConfig) Rules() combat.Rules {
	return combat.Rules{
		PlayerDeathThreshold:  e.PlayerDeathThreshold,
		MonsterDeathThreshold: e.MonsterDeathThreshold,
		DefendACBonus:         e.DefendACBonus,
		RollInitiative:        e.RollInitiative,
		MaxAIChain:            e.MaxAIChain,
	}
}

// Escape converts the escape numbers into the agility escape policy.
func (e EngineConfig) Escape() combat.AgilityEscapePolicy {
	return combat.AgilityEscapePolicy{Base: e.EscapeBase, Step: e.EscapeStep, Min: e.EscapeMin, Max: e.EscapeMax}
}

// ContentConfig holds content directory locations.
type ContentConfig struct {
	// Root holds the monsters, abilities, encounters and parties subdirectories.
	Root string `mapstructure:"root"`
	// AIDomains holds HTN domain YAML files.
	AIDomains string `mapstructure:"ai_domains"`
	// AIScripts holds one Lua script directory per domain ID.
	AIScripts string `mapstructure:"ai_scripts"`
	// InstructionLimit bounds each Lua hook call; 0 means unlimited.
	InstructionLimit int `mapstructure:"instruction_limit"`
}

// Config is the top-level application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	SQLite   SQLiteConfig   `mapstructure:"sqlite"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Content  ContentConfig  `mapstructure:"content"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	for _, err := range []error{
		validateServer(c.Server),
		validateDatabase(c.Database),
		validateLogging(c.Logging),
		validateEngine(c.Engine),
		validateContent(c.Content),
	} {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateServer(s ServerConfig) error {
	var errs []string
	if s.GRPCHost == "" {
		errs = append(errs, "server.grpc_host must not be empty")
	}
	if s.GRPCPort < 1 || s.GRPCPort > 65535 {
		errs = append(errs, fmt.Sprintf("server.grpc_port must be 1-65535, got %d", s.GRPCPort))
	}
	if s.MaxSessions < 0 {
		errs = append(errs, fmt.Sprintf("server.max_sessions must be >= 0, got %d", s.MaxSessions))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
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

func validateEngine(e EngineConfig) error {
	var errs []string
	if err := e.Rules().Validate(); err != nil {
		errs = append(errs, "engine: "+err.Error())
	}
	if e.EscapeMin < 0 || e.EscapeMax > 100 || e.EscapeMin > e.EscapeMax {
		errs = append(errs, fmt.Sprintf("engine.escape_min/escape_max must satisfy 0 <= min <= max <= 100, got %d/%d", e.EscapeMin, e.EscapeMax))
	}
	if e.TurnTimeout < 0 {
		errs = append(errs, "engine.turn_timeout must not be negative")
	}
	if e.SessionRetention < 0 {
		errs = append(errs, "engine.session_retention must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateContent(c ContentConfig) error {
	if c.Root == "" {
		return errors.New("content.root must not be empty")
	}
	if c.InstructionLimit < 0 {
		return fmt.Errorf("content.instruction_limit must be >= 0, got %d", c.InstructionLimit)
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

	// Environment variable overrides with ENCOUNTER_ prefix
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

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

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.grpc_host", "127.0.0.1")
	v.SetDefault("server.grpc_port", 50061)
	v.SetDefault("server.max_sessions", 0)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "encounter")
	v.SetDefault("database.password", "encounter")
	v.SetDefault("database.name", "encounter")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("sqlite.path", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stderr")

	rules := combat.DefaultRules()
	escape := combat.DefaultEscapePolicy()
	v.SetDefault("engine.seed", 0)
	v.SetDefault("engine.auto_run_ai", true)
	v.SetDefault("engine.roll_initiative", rules.RollInitiative)
	v.SetDefault("engine.player_death_threshold", rules.PlayerDeathThreshold)
	v.SetDefault("engine.monster_death_threshold", rules.MonsterDeathThreshold)
	v.SetDefault("engine.defend_ac_bonus", rules.DefendACBonus)
	v.SetDefault("engine.max_ai_chain", rules.MaxAIChain)
	v.SetDefault("engine.escape_base", escape.Base)
	v.SetDefault("engine.escape_step", escape.Step)
	v.SetDefault("engine.escape_min", escape.Min)
	v.SetDefault("engine.escape_max", escape.Max)
	v.SetDefault("engine.turn_timeout", "0s")
	v.SetDefault("engine.session_retention", "5m")

	v.SetDefault("content.root", "content")
	v.SetDefault("content.ai_domains", "content/ai")
	v.SetDefault("content.ai_scripts", "content/scripts")
	v.SetDefault("content.instruction_limit", 100000)
}
