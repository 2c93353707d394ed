// Package config defines the aranea-agent process configuration.
//
//   - spec.go: AgentConfig struct definition
//   - default.go: Default configuration values
//   - verify.go: Business validation
//   - sanitize.go: Log sanitization (hide sensitive values)
//
// Configuration is loaded via internal/infra/confloader from defaults, a
// YAML file and ARANEA_ environment variables. It is separate from the
// device settings record the agent serves.
package config
