// Package config loads hammer2 tool settings from a config file, the
// environment and command line flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by the tools.
const EnvPrefix = "HAMMER2"

// Config holds the settings shared by all commands.
type Config struct {
	// LogLevel overrides the level implied by --verbose and --quiet.
	LogLevel string        `mapstructure:"log_level" yaml:"log_level"`
	Output   string        `mapstructure:"output" yaml:"output"`
	// Timeout bounds each command. Zero means no limit.
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout"`
	Fsck     FsckConfig    `mapstructure:"fsck" yaml:"fsck"`
}

// FsckConfig holds the persistent defaults of the fsck command.
type FsckConfig struct {
	// CacheCount is the subtree size threshold for caching. Zero disables the cache.
	CacheCount        int  `mapstructure:"cache_count" yaml:"cache_count"`
	CacheSize         int  `mapstructure:"cache_size" yaml:"cache_size"`
	Strict            bool `mapstructure:"strict" yaml:"strict"`
	VerifyData        bool `mapstructure:"verify_data" yaml:"verify_data"`
	CountEmpty        bool `mapstructure:"count_empty" yaml:"count_empty"`
	ResetCachePerZone bool `mapstructure:"reset_cache_per_zone" yaml:"reset_cache_per_zone"`
}

// New returns a viper instance with the defaults, config search paths and
// environment binding in place.
func New() *viper.Viper {
	v := viper.New()
	v.SetConfigName("hammer2-config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("$HOME/.hammer2")
	v.AddConfigPath("/etc/hammer2")

	v.SetDefault("log_level", "")
	v.SetDefault("output", "table")
	v.SetDefault("timeout", time.Duration(0))
	v.SetDefault("fsck.cache_count", 0)
	v.SetDefault("fsck.cache_size", 1<<16)
	v.SetDefault("fsck.strict", false)
	v.SetDefault("fsck.verify_data", false)
	v.SetDefault("fsck.count_empty", false)
	v.SetDefault("fsck.reset_cache_per_zone", false)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config file into v and decodes the result. An explicit path
// must exist; a missing file on the search paths is not an error.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}
