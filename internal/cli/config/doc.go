// Package config holds aranea-cli's own defaults, read from a TOML file
// (default ~/.config/aranea/cli.toml). Command-line flags and ARANEA_*
// environment variables take precedence over the file.
package config
