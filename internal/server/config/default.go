// Package config defines the server configuration structure.
package config

import "time"

// Default configuration values.
const (
	DefaultHost            = "127.0.0.1"
	DefaultBasePort        = 8000
	DefaultPortScanLimit   = 100
	DefaultMaxConnections  = 100
	DefaultQueueCapacity   = 32
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultMaxLineLength   = 1 << 20
	DefaultShutdownTimeout = 10 * time.Second

	DefaultLockFile = ".warmd.port"

	DefaultMetricsPath = "/metrics"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// DefaultAnchors are the project root markers.
var DefaultAnchors = []string{".warmd.yaml", "go.mod", ".git"}

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			Host:            DefaultHost,
			BasePort:        DefaultBasePort,
			PortScanLimit:   DefaultPortScanLimit,
			MaxConnections:  DefaultMaxConnections,
			QueueCapacity:   DefaultQueueCapacity,
			ReadTimeout:     DefaultReadTimeout,
			WriteTimeout:    DefaultWriteTimeout,
			MaxLineLength:   DefaultMaxLineLength,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Project: ProjectSection{
			Anchors:  append([]string(nil), DefaultAnchors...),
			LockFile: DefaultLockFile,
		},
		Metrics: MetricsSection{
			Path: DefaultMetricsPath,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
