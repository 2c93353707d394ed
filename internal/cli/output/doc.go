// Package output renders aranea-cli results.
//
//   - formatter.go: Formatter interface, format names and the factory
//   - table.go: tabwriter tables for structs, slices and maps
//   - json.go, yaml.go, toml.go: machine-readable encoders
//   - decode.go: the reverse direction, for commands that read a record
//
// YAML uses gopkg.in/yaml.v3 and TOML uses github.com/BurntSushi/toml.
package output
