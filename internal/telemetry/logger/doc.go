// Package logger provides structured logging for the aranea agent and CLI.
//
// It wraps log/slog:
//
//   - logger.go: construction, levels and the package-level default logger
//   - context.go: request-scoped loggers and request IDs
//   - redact.go: masking of Wi-Fi passwords, tokens and hashes
//
// Output is JSON by default; "text" selects the slog text handler. The
// level can be changed at runtime with SetLevel.
package logger
