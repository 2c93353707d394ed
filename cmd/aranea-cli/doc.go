// Package main provides the entry point for aranea-cli.
//
// aranea-cli edits device settings directly on a byte store, converts
// between the settings file format and JSON, YAML or TOML, and drives a
// running aranea-agent through its HTTP API.
package main
