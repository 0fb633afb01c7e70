// Package config handles global configuration loading using viper.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/lanescope/lanescope/internal/core"
)

// GlobalConfig is the top-level static configuration. Maps to the
// `lanescope:` root key in YAML.
type GlobalConfig struct {
	Log       LogConfig        `mapstructure:"log"`
	Decode    DecodeConfig     `mapstructure:"decode"`
	Reporters []ReporterConfig `mapstructure:"reporters"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level   string        `mapstructure:"level"`
	Format  string        `mapstructure:"format"` // json | text
	Outputs OutputsConfig `mapstructure:"outputs"`
}

// OutputsConfig contains log output settings. Stdout is always enabled.
type OutputsConfig struct {
	File FileOutputConfig `mapstructure:"file"`
}

// FileOutputConfig contains rotating file output settings.
type FileOutputConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Path     string         `mapstructure:"path"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig contains log rotation settings.
type RotationConfig struct {
	MaxSizeMB  int  `mapstructure:"max_size_mb"`
	MaxAgeDays int  `mapstructure:"max_age_days"`
	MaxBackups int  `mapstructure:"max_backups"`
	Compress   bool `mapstructure:"compress"`
}

// DecodeConfig contains decode pipeline settings.
type DecodeConfig struct {
	// Track enables request/completion correlation across the capture.
	Track bool `mapstructure:"track"`
	// Meta enables decoding of the trailing symbol metadata region.
	Meta bool `mapstructure:"meta"`
	// Replay runs a second pass over the capture so every request carries
	// links to completions that arrive later in the file.
	Replay bool `mapstructure:"replay"`
}

// ReporterConfig selects one output reporter plugin by name.
type ReporterConfig struct {
	Type    string                 `mapstructure:"type"`
	Options map[string]any `mapstructure:"options"`
}

type configRoot struct {
	Lanescope GlobalConfig `mapstructure:"lanescope"`
}

// Load loads configuration from file. The YAML file uses `lanescope:` as
// root key; env vars override via the LANESCOPE_ prefix (e.g.,
// LANESCOPE_LOG_LEVEL).
func Load(path string) (*GlobalConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	var root configRoot
	if err := v.Unmarshal(&root); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg := root.Lanescope

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Default returns the configuration used when no config file is given.
func Default() *GlobalConfig {
	v := viper.New()
	setDefaults(v)

	var root configRoot
	if err := v.Unmarshal(&root); err != nil {
		panic(fmt.Sprintf("default config does not unmarshal: %v", err))
	}
	cfg := root.Lanescope
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("lanescope.log.level", "info")
	v.SetDefault("lanescope.log.format", "text")
	v.SetDefault("lanescope.log.outputs.file.enabled", false)
	v.SetDefault("lanescope.log.outputs.file.path", "/var/log/lanescope/lanescope.log")
	v.SetDefault("lanescope.log.outputs.file.rotation.max_size_mb", 100)
	v.SetDefault("lanescope.log.outputs.file.rotation.max_age_days", 30)
	v.SetDefault("lanescope.log.outputs.file.rotation.max_backups", 5)
	v.SetDefault("lanescope.log.outputs.file.rotation.compress", true)

	v.SetDefault("lanescope.decode.track", true)
	v.SetDefault("lanescope.decode.meta", true)
	v.SetDefault("lanescope.decode.replay", false)
}

// Validate checks configuration consistency.
func (cfg *GlobalConfig) Validate() error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Log.Level] {
		return fmt.Errorf("%w: invalid log level %q (must be debug/info/warn/error)", core.ErrConfigInvalid, cfg.Log.Level)
	}
	if cfg.Log.Format != "json" && cfg.Log.Format != "text" {
		return fmt.Errorf("%w: invalid log format %q (must be json/text)", core.ErrConfigInvalid, cfg.Log.Format)
	}

	if len(cfg.Reporters) == 0 {
		cfg.Reporters = []ReporterConfig{{Type: "console"}}
	}
	for _, r := range cfg.Reporters {
		if r.Type == "" {
			return fmt.Errorf("%w: reporter requires 'type' field", core.ErrConfigInvalid)
		}
	}
	return nil
}
