package lineserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/yndnr/warmd-go/internal/core/domain"
	"github.com/yndnr/warmd-go/internal/core/session"
	"github.com/yndnr/warmd-go/internal/infra/portlock"
	"github.com/yndnr/warmd-go/internal/infra/shutdown"
	"github.com/yndnr/warmd-go/internal/server/config"
	"github.com/yndnr/warmd-go/internal/telemetry/logger"
	"github.com/yndnr/warmd-go/internal/telemetry/metric"
)

var (
	// ErrServerStarted is returned by Start on a server that is already running.
	ErrServerStarted = errors.New("lineserver: server already started")

	// ErrServerClosed is returned by Start on a server that has been closed.
	ErrServerClosed = errors.New("lineserver: server closed")
)

// Config holds the line server configuration.
type Config struct {
	// Host is the interface to bind (default: 127.0.0.1).
	Host string
	// BasePort is the first port tried; 0 asks the OS for an ephemeral port.
	BasePort int
	// PortScanLimit is how many consecutive ports are tried (default: 100).
	PortScanLimit int
	// MaxConnections caps admitted connections not yet fully handled (default: 100).
	MaxConnections int
	// QueueCapacity bounds connections waiting for the worker (default: 32).
	QueueCapacity int
	// ReadTimeout bounds reading the request line (default: 30s).
	ReadTimeout time.Duration
	// WriteTimeout bounds writing the response (default: 30s).
	WriteTimeout time.Duration
	// MaxLineLength is the largest request accepted, newline excluded (default: 1 MiB).
	MaxLineLength int
	// ShutdownTimeout bounds draining queued requests in Close (default: 10s).
	ShutdownTimeout time.Duration
	// AcceptRate limits admissions per second; 0 disables the limiter.
	AcceptRate float64
	// AcceptBurst is the limiter burst.
	AcceptBurst int

	// RootDir is the project root holding the discovery file. Required.
	RootDir string
	// LockFile is the discovery file name (default: .warmd.port).
	LockFile string
	// ReclaimStaleLock removes a discovery file whose port is no longer served.
	ReclaimStaleLock bool
}

// DefaultConfig returns the default configuration. RootDir must still be set.
func DefaultConfig() *Config {
	return &Config{
		Host:            config.DefaultHost,
		BasePort:        config.DefaultBasePort,
		PortScanLimit:   config.DefaultPortScanLimit,
		MaxConnections:  config.DefaultMaxConnections,
		QueueCapacity:   config.DefaultQueueCapacity,
		ReadTimeout:     config.DefaultReadTimeout,
		WriteTimeout:    config.DefaultWriteTimeout,
		MaxLineLength:   config.DefaultMaxLineLength,
		ShutdownTimeout: config.DefaultShutdownTimeout,
		LockFile:        config.DefaultLockFile,
	}
}

// FromServerConfig builds a Config from the loaded server configuration and
// the resolved project root.
func FromServerConfig(cfg *config.ServerConfig, rootDir string) *Config {
	return &Config{
		Host:             cfg.Server.Host,
		BasePort:         cfg.Server.BasePort,
		PortScanLimit:    cfg.Server.PortScanLimit,
		MaxConnections:   cfg.Server.MaxConnections,
		QueueCapacity:    cfg.Server.QueueCapacity,
		ReadTimeout:      cfg.Server.ReadTimeout,
		WriteTimeout:     cfg.Server.WriteTimeout,
		MaxLineLength:    cfg.Server.MaxLineLength,
		ShutdownTimeout:  cfg.Server.ShutdownTimeout,
		AcceptRate:       cfg.Server.AcceptRate,
		AcceptBurst:      cfg.Server.AcceptBurst,
		RootDir:          rootDir,
		LockFile:         cfg.Project.LockFile,
		ReclaimStaleLock: cfg.Project.ReclaimStaleLock,
	}
}

// withDefaults fills zero values from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Host == "" {
		c.Host = d.Host
	}
	if c.PortScanLimit <= 0 {
		c.PortScanLimit = d.PortScanLimit
	}
	if c.MaxConnections <= 0 {
		c.MaxConnections = d.MaxConnections
	}
	if c.QueueCapacity <= 0 {
		c.QueueCapacity = d.QueueCapacity
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = d.ReadTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	if c.MaxLineLength <= 0 {
		c.MaxLineLength = d.MaxLineLength
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = d.ShutdownTimeout
	}
	if c.LockFile == "" {
		c.LockFile = d.LockFile
	}
	return c
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		s.logger = logger.Ensure(l)
	}
}

// WithMetrics sets the metrics registry. By default a private registry is used.
func WithMetrics(r *metric.Registry) Option {
	return func(s *Server) {
		if r != nil {
			s.metrics = r
		}
	}
}

// WithExitHooks sets the registry the discovery-file cleanup is registered on.
// By default the process-wide registry is used.
func WithExitHooks(r *shutdown.Registry) Option {
	return func(s *Server) {
		if r != nil {
			s.exitHooks = r
		}
	}
}

// WithSession sets the session context shared by all requests. By default a
// fresh session rooted at Config.RootDir is created on Start.
func WithSession(sc *session.Context) Option {
	return func(s *Server) {
		s.session = sc
	}
}

type serverState int

const (
	stateNew serverState = iota
	stateRunning
	stateClosed
)

// Server is a warm line server. It is started once and closed once.
type Server struct {
	cfg       Config
	executor  session.Executor
	session   *session.Context
	logger    logger.Logger
	metrics   *metric.Registry
	exitHooks *shutdown.Registry

	mu    sync.Mutex
	state serverState

	ln         net.Listener
	port       int
	lock       *portlock.Lock
	unregister func()
	baseCtx    context.Context

	admission *admission
	queue     *queue
	nextID    atomic.Uint64
	abandon   atomic.Bool
	closing   atomic.Bool

	acceptWG   sync.WaitGroup
	rejectWG   sync.WaitGroup
	workerDone chan struct{}
	ready      chan struct{}
	done       chan struct{}

	closeOnce sync.Once
	closeErr  error

	errMu sync.Mutex
	err   error
}

// New creates a server that evaluates requests with executor.
func New(cfg *Config, executor session.Executor, opts ...Option) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	c := cfg.withDefaults()

	s := &Server{
		cfg:        c,
		executor:   executor,
		logger:     logger.Default(),
		metrics:    metric.NewRegistry(),
		exitHooks:  shutdown.DefaultRegistry(),
		workerDone: make(chan struct{}),
		ready:      make(chan struct{}),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "lineserver")

	var limiter *rate.Limiter
	if c.AcceptRate > 0 {
		burst := c.AcceptBurst
		if burst <= 0 {
			burst = int(c.AcceptRate)
			if burst < 1 {
				burst = 1
			}
		}
		limiter = rate.NewLimiter(rate.Limit(c.AcceptRate), burst)
	}
	s.admission = newAdmission(c.MaxConnections, limiter)
	s.queue = newQueue(c.QueueCapacity)

	return s
}

// Start binds the listener, writes the discovery file and starts the accept
// loop and the worker. It returns once the server is ready; cancelling ctx
// afterwards closes the server.
//
// On failure nothing is left behind: the listener is closed, no discovery
// file is written, and the server cannot be started again.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case stateRunning:
		return ErrServerStarted
	case stateClosed:
		return ErrServerClosed
	}

	if err := s.start(ctx); err != nil {
		s.state = stateClosed
		s.setErr(err)
		s.closeOnce.Do(func() { close(s.done) })
		return err
	}
	s.state = stateRunning

	go func() {
		select {
		case <-ctx.Done():
			s.logger.Info("context cancelled, closing server")
			s.Close(context.Background())
		case <-s.done:
		}
	}()

	return nil
}

func (s *Server) start(ctx context.Context) error {
	if s.executor == nil {
		return errors.New("lineserver: nil executor")
	}
	if s.cfg.RootDir == "" {
		return domain.ErrProjectRootMissing.WithDetails("no root directory configured")
	}

	if s.session == nil {
		sc, err := session.NewContext(s.cfg.RootDir)
		if err != nil {
			return fmt.Errorf("lineserver: create session: %w", err)
		}
		s.session = sc
	}

	ln, port, err := listen(ctx, s.cfg.Host, s.cfg.BasePort, s.cfg.PortScanLimit)
	if err != nil {
		return err
	}

	lock, err := portlock.Acquire(s.cfg.RootDir, s.cfg.LockFile, port, portlock.Options{
		ReclaimStale: s.cfg.ReclaimStaleLock,
		ProbeHost:    s.cfg.Host,
		Logger:       s.logger,
	})
	if err != nil {
		ln.Close()
		return err
	}

	s.ln = ln
	s.port = port
	s.lock = lock
	s.unregister = s.exitHooks.Register("discovery file "+lock.Path(), lock.Release)
	s.baseCtx = logger.WithSessionID(logger.WithLogger(context.WithoutCancel(ctx), s.logger), s.session.ID)

	if err := s.metrics.Register(metric.NewSessionCollector(s.session.ID, s.session)); err != nil {
		s.logger.Warn("session metrics not registered", "error", err)
	}

	go s.runWorker()
	s.acceptWG.Add(1)
	go s.acceptLoop()

	close(s.ready)
	s.logger.Info("server started",
		"addr", ln.Addr().String(),
		"port", port,
		"lock_file", lock.Path(),
		"session_id", s.session.ID,
		"max_connections", s.cfg.MaxConnections,
	)
	return nil
}

// Close shuts the server down: stop accepting, stop queueing, drain the
// worker within ctx and ShutdownTimeout, remove the discovery file and drop
// the exit hook. It is safe to call more than once; later calls wait for
// and return the first result.
func (s *Server) Close(ctx context.Context) error {
	s.mu.Lock()
	prev := s.state
	s.state = stateClosed
	s.mu.Unlock()

	if prev == stateNew {
		s.closeOnce.Do(func() { close(s.done) })
		return s.closeErr
	}

	s.closeOnce.Do(func() {
		s.closeErr = s.shutdown(ctx)
		close(s.done)
	})
	<-s.done
	return s.closeErr
}

func (s *Server) shutdown(ctx context.Context) error {
	s.closing.Store(true)
	s.logger.Info("shutting down server")

	var firstErr error
	if err := s.ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		firstErr = err
	}
	s.acceptWG.Wait()

	s.queue.close()

	drainCtx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer cancel()
	select {
	case <-s.workerDone:
	case <-drainCtx.Done():
		s.abandon.Store(true)
		s.logger.Warn("drain timed out, abandoning queued requests",
			"pending", s.queue.len(),
			"error", drainCtx.Err(),
		)
	}
	s.rejectWG.Wait()

	if err := s.lock.Release(); err != nil {
		s.logger.Error("failed to remove lock file", "path", s.lock.Path(), "error", err)
		if firstErr == nil {
			firstErr = err
		}
	}
	s.unregister()

	s.logger.Info("server stopped", "requests", s.session.Requests())
	return firstErr
}

// fail records a fatal loop error and closes the server in the background.
func (s *Server) fail(err error) {
	s.setErr(err)
	s.logger.Error("fatal server error, shutting down", "error", err)
	go s.Close(context.Background())
}

func (s *Server) setErr(err error) {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

// Err returns the error that stopped the server, if any. It is meaningful
// after Done is closed.
func (s *Server) Err() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

// Ready is closed once the port is bound and the discovery file written.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Done is closed once the server has fully stopped.
func (s *Server) Done() <-chan struct{} {
	return s.done
}

// Port returns the bound port, or 0 before Ready.
func (s *Server) Port() int {
	select {
	case <-s.ready:
		return s.port
	default:
		return 0
	}
}

// Addr returns the listener address, or nil before Ready.
func (s *Server) Addr() net.Addr {
	select {
	case <-s.ready:
		return s.ln.Addr()
	default:
		return nil
	}
}

// LockPath returns the discovery file path, or "" before Ready.
func (s *Server) LockPath() string {
	select {
	case <-s.ready:
		return s.lock.Path()
	default:
		return ""
	}
}

// Session returns the shared session context. It is nil before Start.
func (s *Server) Session() *session.Context {
	return s.session
}

// Stats is a point-in-time view of the server.
type Stats struct {
	Port       int
	InFlight   int
	QueueDepth int
	Requests   uint64
}

// Stats returns current counters. Safe to call from any goroutine.
func (s *Server) Stats() Stats {
	st := Stats{
		Port:       s.Port(),
		InFlight:   s.admission.inFlight(),
		QueueDepth: s.queue.len(),
	}
	if sc := s.session; sc != nil {
		st.Requests = sc.Requests()
	}
	return st
}
