// Package storage provides the byte-store backends that hold the settings
// file.
//
// A Backend behaves like a small flash filesystem: it is mounted once,
// then files are addressed by rooted slash paths ("/config.json") and
// read or written whole. Three implementations are provided:
//
//   - DirBackend: files under a host directory
//   - BadgerBackend: one badger key per path
//   - MemoryBackend: an in-process map with fault injection for tests
//
// Backends that can enumerate their contents also implement Browser,
// which backs the file API of the agent.
package storage
