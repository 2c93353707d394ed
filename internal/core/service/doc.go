// Package service holds the settings lifecycle.
//
// ConfigStore owns the in-memory ConfigRecord and persists it through an
// injected storage.Backend. It mounts the backend, writes factory defaults
// on first boot and falls back to defaults whenever the settings file
// cannot be read. Mutators only touch memory; callers persist with Save.
//
// ConfigStore is not safe for concurrent use. Callers that share one
// instance must serialize access themselves.
package service
