// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Playback PlaybackConfig `toml:"playback"`
	Backend  BackendConfig  `toml:"backend"`
	Single   RatioConfig    `toml:"single"`
	Range    RatioConfig    `toml:"range"`
	Server   ServerConfig   `toml:"server"`
}

// PlaybackConfig maps viewer settings.
type PlaybackConfig struct {
	IntervalMs   *int    `toml:"interval-ms"`
	FallbackRows *int    `toml:"fallback-rows"`
	FallbackCols *int    `toml:"fallback-cols"`
	Source       *string `toml:"source"`
}

// BackendConfig maps the simulation backend connection.
type BackendConfig struct {
	URL       *string `toml:"url"`
	TimeoutMs *int    `toml:"timeout-ms"`
}

// RatioConfig maps default slider values of a run form.
type RatioConfig struct {
	Humanities  *int `toml:"humanities"`
	Science     *int `toml:"science"`
	Engineering *int `toml:"engineering"`
}

// ServerConfig maps the local record server.
type ServerConfig struct {
	Addr    *string `toml:"addr"`
	DataDir *string `toml:"data-dir"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}
