// Package confloader loads process configuration with koanf.
//
// Sources are layered, later ones overriding earlier ones:
//
//  1. Defaults (a struct rendered through its yaml tags)
//  2. A YAML configuration file
//  3. Environment variables with the ARANEA_ prefix
//
// Watcher reports changes to the configuration file so that settings
// such as the log level can be reloaded without a restart.
package confloader
