// Package config provides server configuration for warmd.
//
// This package defines the server configuration structure and validation:
//
//   - spec.go: ServerConfig struct definition
//   - default.go: Default configuration values
//   - verify.go: Validation (limits, ports, lock file name, log settings)
//   - sanitize.go: Normalization applied after loading
//
// Configuration is loaded via internal/infra/confloader and supports
// multiple sources: files, environment variables, and flags.
package config
