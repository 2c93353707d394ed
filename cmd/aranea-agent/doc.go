// Package main provides the entry point for aranea-agent.
//
// aranea-agent owns one device settings store on a byte-store backend
// (a directory, an embedded badger database or memory) and serves the
// HTTP management API over it.
//
// Usage:
//
//	aranea-agent -config /etc/aranea/agent.yaml
//
// Configuration is read from defaults, then the YAML file, then ARANEA_*
// environment variables. Changes to log.level in the file apply without
// a restart.
package main
