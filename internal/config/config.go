// Package config loads cuetest settings from .cuetest.yaml and CUETEST_*
// environment variables. Command-line flags override both.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	"github.com/roach88/cuetest/internal/equiv"
)

// DefaultFile is looked up in the working directory when no path is given.
const DefaultFile = ".cuetest.yaml"

// EnvPrefix prefixes environment overrides, e.g. CUETEST_EQUIV_GRAMMAR.
const EnvPrefix = "CUETEST"

// Config holds all cuetest configuration.
type Config struct {
	Format     string      `mapstructure:"format"`
	Processors []string    `mapstructure:"processors"`
	Options    []string    `mapstructure:"options"`
	Jobs       int         `mapstructure:"jobs"`
	Equiv      EquivConfig `mapstructure:"equiv"`
	Log        LogConfig   `mapstructure:"log"`
}

// EquivConfig holds comparator defaults for the equiv command.
type EquivConfig struct {
	Grammar                 string `mapstructure:"grammar"`
	IgnoreFieldOrder        bool   `mapstructure:"ignore_field_order"`
	IgnoreAttributeArgOrder bool   `mapstructure:"ignore_attribute_arg_order"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Default returns the configuration used when nothing is configured.
func Default() *Config {
	return &Config{
		Format: "text",
		Log:    LogConfig{Level: "warn", Format: "text"},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("format", d.Format)
	// Lists have no default; binding keeps them reachable from the
	// environment while leaving them nil when unset.
	_ = v.BindEnv("processors")
	_ = v.BindEnv("options")
	v.SetDefault("jobs", d.Jobs)
	v.SetDefault("equiv.grammar", d.Equiv.Grammar)
	v.SetDefault("equiv.ignore_field_order", d.Equiv.IgnoreFieldOrder)
	v.SetDefault("equiv.ignore_attribute_arg_order", d.Equiv.IgnoreAttributeArgOrder)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// Load reads configuration from path and the environment. With an empty
// path, DefaultFile is read from the working directory if it exists.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	} else {
		v.SetConfigName(strings.TrimSuffix(DefaultFile, ".yaml"))
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values no command could use.
func (c *Config) Validate() error {
	switch c.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid config: format %q must be text or json", c.Format)
	}
	if c.Jobs < 0 {
		return fmt.Errorf("invalid config: jobs must not be negative, got %d", c.Jobs)
	}
	if c.Equiv.Grammar != "" {
		if _, err := equiv.LookupGrammar(c.Equiv.Grammar); err != nil {
			return fmt.Errorf("invalid config: equiv.grammar: %w", err)
		}
	}
	if _, err := c.Log.level(); err != nil {
		return fmt.Errorf("invalid config: log.level: %w", err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid config: log.format %q must be text or json", c.Log.Format)
	}
	return nil
}

func (c LogConfig) level() (slog.Level, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(c.Level))
	return level, err
}

// Logger builds a logger writing to w. verbose forces debug level.
func (c LogConfig) Logger(w io.Writer, verbose bool) (*slog.Logger, error) {
	level, err := c.level()
	if err != nil {
		return nil, err
	}
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}
