// Package config defines the server configuration structure.
package config

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/yndnr/warmd-go/internal/infra/portlock"
	"github.com/yndnr/warmd-go/internal/telemetry/logger"
)

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifyProject(&cfg.Project); err != nil {
		return err
	}
	if err := verifyMetrics(&cfg.Metrics); err != nil {
		return err
	}
	return verifyLog(&cfg.Log)
}

func verifyServer(cfg *ServerSection) error {
	if strings.TrimSpace(cfg.Host) == "" {
		return errors.New("server.host is required")
	}
	if cfg.BasePort < 0 || cfg.BasePort > 65535 {
		return fmt.Errorf("server.base_port must be within 0-65535, got %d", cfg.BasePort)
	}
	if cfg.PortScanLimit < 1 {
		return errors.New("server.port_scan_limit must be at least 1")
	}
	if cfg.MaxConnections < 1 {
		return errors.New("server.max_connections must be at least 1")
	}
	if cfg.QueueCapacity < 1 {
		return errors.New("server.queue_capacity must be at least 1")
	}
	if cfg.ReadTimeout <= 0 {
		return errors.New("server.read_timeout must be positive")
	}
	if cfg.WriteTimeout <= 0 {
		return errors.New("server.write_timeout must be positive")
	}
	if cfg.MaxLineLength < 1 {
		return errors.New("server.max_line_length must be at least 1")
	}
	if cfg.ShutdownTimeout <= 0 {
		return errors.New("server.shutdown_timeout must be positive")
	}
	if cfg.AcceptRate < 0 {
		return errors.New("server.accept_rate must not be negative")
	}
	if cfg.AcceptBurst < 0 {
		return errors.New("server.accept_burst must not be negative")
	}
	return nil
}

func verifyProject(cfg *ProjectSection) error {
	if err := portlock.ValidateName(cfg.LockFile); err != nil {
		return fmt.Errorf("project.lock_file: %w", err)
	}
	if cfg.Root == "" && len(cfg.Anchors) == 0 {
		return errors.New("project.anchors is required when project.root is empty")
	}
	return nil
}

func verifyMetrics(cfg *MetricsSection) error {
	if cfg.Addr == "" {
		return nil
	}
	if _, _, err := net.SplitHostPort(cfg.Addr); err != nil {
		return fmt.Errorf("metrics.addr: %w", err)
	}
	if !strings.HasPrefix(cfg.Path, "/") {
		return errors.New("metrics.path must start with /")
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	if !logger.ValidLevel(cfg.Level) {
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", cfg.Level)
	}
	switch strings.ToLower(cfg.Format) {
	case "json", "text", "console":
		return nil
	}
	return fmt.Errorf("log.format %q is not one of json, text", cfg.Format)
}
