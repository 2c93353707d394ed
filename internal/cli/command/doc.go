// Package command defines the aranea-cli commands on urfave/cli/v2.
//
// Local commands open the settings store directly on a byte store
// (--backend, --data-dir, --path):
//
//   - settings.go: settings show|set|reset|raw
//   - endpoint.go: endpoint list|add|remove|clear
//   - codec.go: codec decode|encode, no store needed
//   - token.go: token generate|hash for the agent's auth_token_hash
//
// Remote commands (remote.go) drive a running agent over HTTP.
// config.go manages the CLI's own TOML profile and version.go prints
// build information.
package command
