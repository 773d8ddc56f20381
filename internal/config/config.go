// Package config loads warband configuration from a YAML file, defaults and
// WARBAND_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/peterkuimelis/warband/internal/game"
	"github.com/peterkuimelis/warband/internal/sequence"
)

// EnvPrefix prefixes every environment override, e.g. WARBAND_RULES_MAX_TURNS.
const EnvPrefix = "WARBAND"

// Config is the full configuration.
type Config struct {
	Rules     RulesConfig     `mapstructure:"rules"`
	Sequences SequencesConfig `mapstructure:"sequences"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Files     FilesConfig     `mapstructure:"files"`
	AI        AIConfig        `mapstructure:"ai"`
	Server    ServerConfig    `mapstructure:"server"`
}

type RulesConfig struct {
	MaxActionPoints int `mapstructure:"max_action_points"`
	ReservePool     int `mapstructure:"reserve_pool"`
	StartingLife    int `mapstructure:"starting_life"`
	BoardSize       int `mapstructure:"board_size"`
	MaxHand         int `mapstructure:"max_hand"`
	InitialHand     int `mapstructure:"initial_hand"`
	MaxTurns        int `mapstructure:"max_turns"`
}

// SequencesConfig holds the phase orders. Phases with equal slots run
// concurrently.
type SequencesConfig struct {
	CardPlay []sequence.Step `mapstructure:"card_play"`
	Combat   []sequence.Step `mapstructure:"combat"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json or console
}

// FilesConfig names the card and deck files. Empty means built-in.
type FilesConfig struct {
	Cards string `mapstructure:"cards"`
	Decks string `mapstructure:"decks"`
}

type AIConfig struct {
	Seed int64 `mapstructure:"seed"` // 0 seeds from the clock
}

type ServerConfig struct {
	GamePort string `mapstructure:"game_port"`
	WebPort  int    `mapstructure:"web_port"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	cfg, err := load(viper.New(), "")
	if err != nil {
		panic(err) // defaults always validate
	}
	return cfg
}

// Load reads the configuration file at path. An empty path looks for
// warband.yaml in the working directory and carries on without one.
func Load(path string) (*Config, error) {
	return load(viper.New(), path)
}

func load(v *viper.Viper, path string) (*Config, error) {
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("warband")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	r := game.DefaultRules()
	v.SetDefault("rules.max_action_points", r.MaxActionPoints)
	v.SetDefault("rules.reserve_pool", r.ReservePool)
	v.SetDefault("rules.starting_life", r.StartingLife)
	v.SetDefault("rules.board_size", r.BoardSize)
	v.SetDefault("rules.max_hand", r.MaxHand)
	v.SetDefault("rules.initial_hand", r.InitialHand)
	v.SetDefault("rules.max_turns", r.MaxTurns)

	v.SetDefault("sequences.card_play", stepMaps(sequence.DefaultCardPlay()))
	v.SetDefault("sequences.combat", stepMaps(sequence.DefaultCombat()))

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("files.cards", "")
	v.SetDefault("files.decks", "")

	v.SetDefault("ai.seed", 0)

	v.SetDefault("server.game_port", "9000")
	v.SetDefault("server.web_port", 8080)
}

// stepMaps renders steps the way they decode from YAML.
func stepMaps(steps []sequence.Step) []map[string]any {
	out := make([]map[string]any, len(steps))
	for i, s := range steps {
		out[i] = map[string]any{"id": string(s.ID), "slot": s.Slot}
	}
	return out
}

// Validate checks rule values and phase orders.
func (c *Config) Validate() error {
	r := c.Rules
	for name, n := range map[string]int{
		"max_action_points": r.MaxActionPoints,
		"starting_life":     r.StartingLife,
		"board_size":        r.BoardSize,
		"max_hand":          r.MaxHand,
		"max_turns":         r.MaxTurns,
	} {
		if n <= 0 {
			return fmt.Errorf("rules.%s must be positive, got %d", name, n)
		}
	}
	if r.ReservePool < 0 || r.InitialHand < 0 {
		return fmt.Errorf("rules.reserve_pool and rules.initial_hand must not be negative")
	}
	if err := sequence.Validate(c.Sequences.CardPlay, sequence.CardPlayPhases); err != nil {
		return fmt.Errorf("sequences.card_play: %w", err)
	}
	if err := sequence.Validate(c.Sequences.Combat, sequence.CombatPhases); err != nil {
		return fmt.Errorf("sequences.combat: %w", err)
	}
	return nil
}

// GameRules converts the rules section.
func (c *Config) GameRules() game.Rules {
	return game.Rules{
		MaxActionPoints: c.Rules.MaxActionPoints,
		ReservePool:     c.Rules.ReservePool,
		StartingLife:    c.Rules.StartingLife,
		BoardSize:       c.Rules.BoardSize,
		MaxHand:         c.Rules.MaxHand,
		InitialHand:     c.Rules.InitialHand,
		MaxTurns:        c.Rules.MaxTurns,
	}
}

// DuelConfig returns a duel config carrying the configured rules and phase
// orders. Decks, logging and presentation are left to the caller.
func (c *Config) DuelConfig() game.DuelConfig {
	return game.DuelConfig{
		Rules:         c.GameRules(),
		CardPlaySteps: c.Sequences.CardPlay,
		CombatSteps:   c.Sequences.Combat,
	}
}

// Collection loads the configured card library and decks.
func (c *Config) Collection() (*game.Collection, error) {
	return c.Files.Collection()
}

// Collection loads the card file over the built-in library, then the decks.
func (f FilesConfig) Collection() (*game.Collection, error) {
	lib := game.DefaultLibrary()
	if f.Cards != "" {
		cards, err := game.LoadCollection(f.Cards, lib)
		if err != nil {
			return nil, fmt.Errorf("load cards: %w", err)
		}
		lib = cards.Library
	}
	return game.LoadCollection(f.Decks, lib)
}

// NewLogger builds the operational logger described by the logging section.
func NewLogger(cfg LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
