// Package config defines the server configuration structure.
package config

import "time"

// ServerConfig is the root configuration for a warmd server.
type ServerConfig struct {
	Server  ServerSection  `koanf:"server" yaml:"server"`
	Project ProjectSection `koanf:"project" yaml:"project"`
	Metrics MetricsSection `koanf:"metrics" yaml:"metrics"`
	Log     LogSection     `koanf:"log" yaml:"log"`
}

// ServerSection configures the request listener and its limits.
type ServerSection struct {
	// Host is the interface the listener binds to.
	Host string `koanf:"host" yaml:"host"`

	// BasePort is the first port tried. Zero asks the OS for an ephemeral port.
	BasePort int `koanf:"base_port" yaml:"base_port"`

	// PortScanLimit is how many consecutive ports are tried from BasePort.
	PortScanLimit int `koanf:"port_scan_limit" yaml:"port_scan_limit"`

	// MaxConnections caps connections admitted but not yet fully handled.
	MaxConnections int `koanf:"max_connections" yaml:"max_connections"`

	// QueueCapacity bounds admitted connections waiting for the worker.
	QueueCapacity int `koanf:"queue_capacity" yaml:"queue_capacity"`

	// ReadTimeout bounds how long a client may take to send its line.
	ReadTimeout time.Duration `koanf:"read_timeout" yaml:"read_timeout"`

	// WriteTimeout bounds writing the response.
	WriteTimeout time.Duration `koanf:"write_timeout" yaml:"write_timeout"`

	// MaxLineLength is the largest accepted request, excluding the newline.
	MaxLineLength int `koanf:"max_line_length" yaml:"max_line_length"`

	// ShutdownTimeout bounds draining queued requests on shutdown.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" yaml:"shutdown_timeout"`

	// AcceptRate limits accepted connections per second. Zero disables.
	AcceptRate float64 `koanf:"accept_rate" yaml:"accept_rate"`

	// AcceptBurst is the limiter burst. Zero means ceil(AcceptRate).
	AcceptBurst int `koanf:"accept_burst" yaml:"accept_burst"`
}

// ProjectSection configures where the discovery file lives.
type ProjectSection struct {
	// Root is the project root. Empty means locate it from the working
	// directory using Anchors.
	Root string `koanf:"root" yaml:"root"`

	// Anchors are file or directory names that mark a project root.
	Anchors []string `koanf:"anchors" yaml:"anchors"`

	// LockFile is the discovery file name inside Root.
	LockFile string `koanf:"lock_file" yaml:"lock_file"`

	// ReclaimStaleLock removes a discovery file whose port is dead.
	ReclaimStaleLock bool `koanf:"reclaim_stale_lock" yaml:"reclaim_stale_lock"`
}

// MetricsSection configures the Prometheus endpoint.
type MetricsSection struct {
	// Addr enables the metrics listener when non-empty (e.g. "127.0.0.1:9108").
	Addr string `koanf:"addr" yaml:"addr"`
	Path string `koanf:"path" yaml:"path"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level" yaml:"level"`
	Format string `koanf:"format" yaml:"format"`
}
