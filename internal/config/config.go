// Package config loads runtime settings from defaults, an optional YAML
// file and PERFTRACKER_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"perftracker/internal/util"
)

const EnvPrefix = "PERFTRACKER"

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Addr            string        `mapstructure:"addr"`
	LogDir          string        `mapstructure:"log_dir"`
	LogFile         string        `mapstructure:"log_file"`
	LogLevel        string        `mapstructure:"log_level"`
	MaxEntries      int           `mapstructure:"max_entries"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	DBPath          string        `mapstructure:"db_path"`
}

// NewViper returns a viper instance with defaults and env binding applied,
// so commands can bind their flags on top before calling FromViper.
func NewViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("addr", ":8080")
	v.SetDefault("log_dir", ".."+string(os.PathSeparator)+"log")
	v.SetDefault("log_file", "perftracker.log")
	v.SetDefault("log_level", "info")
	v.SetDefault("max_entries", 100)
	v.SetDefault("shutdown_timeout", 25*time.Second)
	v.SetDefault("db_path", "file:workload.db?mode=memory&cache=shared")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the optional file at path and returns the merged configuration.
func Load(path string) (Config, error) {
	v := NewViper()
	if err := ReadFile(v, path); err != nil {
		return Config{}, err
	}
	return FromViper(v)
}

// ReadFile merges a YAML config file into v. An empty path is a no-op.
func ReadFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	return nil
}

func FromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.MaxEntries < 0 {
		return fmt.Errorf("%w: max_entries must be >= 0, got %d", ErrInvalidConfig, c.MaxEntries)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("%w: shutdown_timeout must be positive", ErrInvalidConfig)
	}
	if _, err := util.ParseLogLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Level returns the LOG_LEVEL_* value for LogLevel. Validate has already
// rejected unknown names.
func (c Config) Level() int {
	level, err := util.ParseLogLevel(c.LogLevel)
	if err != nil {
		return util.LOG_LEVEL_INFO
	}
	return level
}

// Retention converts MaxEntries, where 0 keeps every record, into the
// tracker.Options convention where 0 selects the default and negative is
// unbounded.
func (c Config) Retention() int {
	if c.MaxEntries == 0 {
		return -1
	}
	return c.MaxEntries
}
