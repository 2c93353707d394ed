// Package domain defines the core domain model of the aranea settings store.
//
// Domain types are plain values without IO dependencies:
//
//   - ConfigRecord: the device settings persisted to flash storage
//   - Errors: coded domain errors shared by the store, the HTTP layer and the CLI
package domain
