// Package buildinfo exposes version metadata injected via ldflags:
//
//	go build -ldflags "-X github.com/yndnr/aranea-go/internal/infra/buildinfo.Version=v1.0.0"
//
// Commit and GoVersion fall back to the module build info when not set.
package buildinfo
