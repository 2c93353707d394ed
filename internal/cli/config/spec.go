package config

import (
	"github.com/yndnr/aranea-go/internal/core/domain"
	"github.com/yndnr/aranea-go/internal/storage"
)

// CLIConfig is the configuration for aranea-cli.
type CLIConfig struct {
	// Output is the default output format.
	Output string `json:"output" yaml:"output" toml:"output"`

	Local  LocalConfig  `json:"local" yaml:"local" toml:"local"`
	Remote RemoteConfig `json:"remote" yaml:"remote" toml:"remote"`
}

// LocalConfig selects the byte store the local commands operate on.
type LocalConfig struct {
	Backend      string `json:"backend" yaml:"backend" toml:"backend"`
	DataDir      string `json:"data_dir" yaml:"data_dir" toml:"data_dir"`
	SettingsPath string `json:"settings_path" yaml:"settings_path" toml:"settings_path"`
}

// RemoteConfig points the remote commands at a running agent.
type RemoteConfig struct {
	Server string `json:"server" yaml:"server" toml:"server"`
	Token  string `json:"token" yaml:"token" toml:"token"`
}

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		Output: "table",
		Local: LocalConfig{
			Backend:      storage.BackendDir,
			DataDir:      ".",
			SettingsPath: domain.DefaultSettingsPath,
		},
		Remote: RemoteConfig{
			Server: "127.0.0.1:8080",
		},
	}
}
