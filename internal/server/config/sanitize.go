// Package config defines the server configuration structure.
package config

import (
	"math"
	"path/filepath"
	"strings"
)

// Sanitize normalizes a loaded configuration in place and returns it.
//
// String values are trimmed and lower-cased where case does not matter,
// the accept burst is derived from the rate, and an explicit project root
// is made absolute.
func Sanitize(cfg *ServerConfig) *ServerConfig {
	cfg.Server.Host = strings.TrimSpace(cfg.Server.Host)
	if cfg.Server.AcceptRate > 0 && cfg.Server.AcceptBurst == 0 {
		cfg.Server.AcceptBurst = int(math.Ceil(cfg.Server.AcceptRate))
	}

	cfg.Project.LockFile = strings.TrimSpace(cfg.Project.LockFile)
	if root := strings.TrimSpace(cfg.Project.Root); root != "" {
		if abs, err := filepath.Abs(root); err == nil {
			root = abs
		}
		cfg.Project.Root = root
	}

	cfg.Metrics.Addr = strings.TrimSpace(cfg.Metrics.Addr)
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}

	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	cfg.Log.Format = strings.ToLower(strings.TrimSpace(cfg.Log.Format))
	return cfg
}
