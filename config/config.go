// Package config loads cmd/btidxbench's settings from a YAML file via
// github.com/spf13/viper, the same pattern tuannm99-novasql's
// internal/config.go uses for its storage/server settings.
package config

import (
	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
)

// Config holds the settings cmd/btidxbench needs. The core btreeidx,
// node, and pagedfile packages never depend on this package — they take
// plain Go values so the index stays usable as a library.
type Config struct {
	Index struct {
		Path       string `mapstructure:"path"`
		CachePages int    `mapstructure:"cache_pages"`
	} `mapstructure:"index"`
	Metrics struct {
		ListenAddr string `mapstructure:"listen_addr"`
	} `mapstructure:"metrics"`
	SentryDSN string `mapstructure:"sentry_dsn"`
}

// Default returns the settings used when no config file is supplied.
func Default() *Config {
	cfg := &Config{}
	cfg.Index.Path = "table.idx"
	cfg.Index.CachePages = 64
	cfg.Metrics.ListenAddr = ":9090"
	return cfg
}

// Load reads a YAML config file at path and merges it over Default().
func Load(path string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetDefault("index.path", cfg.Index.Path)
	v.SetDefault("index.cache_pages", cfg.Index.CachePages)
	v.SetDefault("metrics.listen_addr", cfg.Metrics.ListenAddr)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "config: read %q", path)
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "config: unmarshal")
	}
	return cfg, nil
}
