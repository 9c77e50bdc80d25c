// Package config loads local app settings. The values are read by Viper from
// a config file or environment variables.
package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds the locally stored settings the core consumes.
type Config struct {
	// RestSeconds is the configured rest duration between exercise steps.
	RestSeconds int `mapstructure:"rest_seconds"`

	// CurrentDay is the locally cached program day. Zero means unset.
	CurrentDay int `mapstructure:"current_day"`

	Log LogConfig `mapstructure:"log"`
}

// LogConfig controls the rotated log file.
type LogConfig struct {
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

// CurrentDayValue returns the cached day and whether one is set.
func (c Config) CurrentDayValue() (int, bool) {
	if c.CurrentDay <= 0 {
		return 0, false
	}
	return c.CurrentDay, true
}

// Load reads configuration from the given directory (file name "config", any
// viper-supported extension) and from COMPANION_* environment variables.
// A missing config file is fine; defaults and env vars apply.
func Load(path string) (Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("companion")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("rest_seconds", 60)
	v.SetDefault("current_day", 0)
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
