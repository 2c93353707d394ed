// Package httpserver provides the HTTP management server of aranea-agent.
//
// It uses the standard library net/http with method-pattern routing. The
// handler chain is Recover, RequestID (ULID), Metrics, AccessLog,
// RateLimit (per client IP) and Auth (argon2id bearer token on mutating
// routes and on reads that expose secrets). Route handlers live in the
// handler subpackage.
package httpserver
