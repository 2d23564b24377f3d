package command

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/warmd-go/internal/core/service"
	"github.com/yndnr/warmd-go/internal/infra/buildinfo"
	"github.com/yndnr/warmd-go/internal/infra/confloader"
	"github.com/yndnr/warmd-go/internal/infra/shutdown"
	"github.com/yndnr/warmd-go/internal/server/config"
	"github.com/yndnr/warmd-go/internal/server/lineserver"
	"github.com/yndnr/warmd-go/internal/telemetry/logger"
	"github.com/yndnr/warmd-go/internal/telemetry/metric"
)

// shutdownGrace is added to server.shutdown_timeout for the remaining hooks.
const shutdownGrace = 5 * time.Second

// ServeCommand runs the server in the foreground.
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the warm line server for the project",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Usage: "interface to bind"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "first port to try (0 = ephemeral)"},
			&cli.IntFlag{Name: "max-connections", Usage: "admitted connection cap"},
			&cli.DurationFlag{Name: "read-timeout", Usage: "time allowed to send the request line"},
			&cli.IntFlag{Name: "max-line-length", Usage: "largest request line in bytes"},
			&cli.StringFlag{Name: "metrics-addr", Usage: "serve Prometheus metrics on this address"},
			&cli.BoolFlag{Name: "reclaim-stale-lock", Usage: "remove a discovery file left by a dead server"},
		},
		Action: runServe,
	}
}

// serveFlags maps serve flags to configuration keys.
var serveFlags = map[string]string{
	"host":               "server.host",
	"port":               "server.base_port",
	"max-connections":    "server.max_connections",
	"read-timeout":       "server.read_timeout",
	"max-line-length":    "server.max_line_length",
	"metrics-addr":       "metrics.addr",
	"reclaim-stale-lock": "project.reclaim_stale_lock",
}

func serveOverrides(c *cli.Context) map[string]any {
	overrides := make(map[string]any)
	for flag, key := range serveFlags {
		if c.IsSet(flag) {
			overrides[key] = c.Value(flag)
		}
	}
	return overrides
}

func runServe(c *cli.Context) error {
	cfg, err := loadConfig(c, serveOverrides(c))
	if err != nil {
		return err
	}

	log, err := initLogger(c, cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	shutdown.SetLogger(log)
	defer shutdown.RunOnPanic()

	log.Info("starting warmd", buildinfo.Get().LogAttrs()...)

	root, err := resolveRoot(cfg)
	if err != nil {
		return err
	}

	metrics := metric.Global()
	srv := lineserver.New(
		lineserver.FromServerConfig(cfg, root),
		service.NewEvaluator(),
		lineserver.WithLogger(log),
		lineserver.WithMetrics(metrics),
	)

	// Setup graceful shutdown; hooks run in reverse order.
	shutdownHandler := shutdown.NewHandler(cfg.Server.ShutdownTimeout + shutdownGrace)

	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		log.Info("shutting down line server")
		return srv.Close(ctx)
	})

	if cfg.Metrics.Addr != "" {
		metricsServer, err := startMetrics(cfg.Metrics, metrics, log)
		if err != nil {
			return err
		}
		shutdownHandler.OnShutdown(func(ctx context.Context) error {
			log.Info("shutting down metrics server")
			return metricsServer.Shutdown(ctx)
		})
	}

	if file := ParseGlobalFlags(c).ConfigFile; file != "" {
		watcher, err := watchLogLevel(c, file, log)
		if err != nil {
			log.Warn("config reload disabled", "file", file, "error", err)
		} else {
			shutdownHandler.OnShutdown(func(context.Context) error {
				return watcher.Stop()
			})
		}
	}

	if err := srv.Start(c.Context); err != nil {
		shutdownHandler.Shutdown()
		return err
	}
	fmt.Fprintf(c.App.Writer, "warmd listening on %s (root %s)\n", srv.Addr(), root)

	// Stop on a signal, on ctx cancellation or when the server dies.
	waitCtx, cancel := context.WithCancel(c.Context)
	defer cancel()
	go func() {
		<-srv.Done()
		cancel()
	}()

	if err := shutdownHandler.Wait(waitCtx); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}
	if err := srv.Err(); err != nil {
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

// initLogger initializes the structured logger.
func initLogger(c *cli.Context, cfg *config.ServerConfig) (logger.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: c.App.ErrWriter,
	})
	if err != nil {
		return nil, err
	}
	logger.SetDefault(log)
	return log, nil
}

// startMetrics serves the Prometheus registry on cfg.Addr.
func startMetrics(cfg config.MetricsSection, reg *metric.Registry, log logger.Logger) (*http.Server, error) {
	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle(cfg.Path, reg.Handler())
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("metrics server listening", "addr", ln.Addr().String(), "path", cfg.Path)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server error", "error", err)
		}
	}()
	return srv, nil
}

// watchLogLevel re-applies log.level whenever the config file changes.
// Other settings need a restart.
func watchLogLevel(c *cli.Context, file string, log logger.Logger) (*confloader.Watcher, error) {
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		return nil, err
	}
	if err := w.Watch(file); err != nil {
		w.Stop()
		return nil, err
	}

	w.OnChange(func(string) {
		cfg, err := loadConfig(c, nil)
		if err != nil {
			log.Warn("config reload failed", "file", file, "error", err)
			return
		}
		if cfg.Log.Level != logger.GetLevel() {
			logger.SetLevel(cfg.Log.Level)
			log.Info("log level changed", "level", cfg.Log.Level)
		}
	})
	w.StartAsync()
	return w, nil
}
