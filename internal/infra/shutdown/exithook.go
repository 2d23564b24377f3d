package shutdown

import (
	"sort"
	"sync"

	"github.com/yndnr/warmd-go/internal/telemetry/logger"
)

// Registry holds cleanup functions that must run when the process exits
// without a graceful shutdown (panic, fatal signal path).
//
// Each hook runs at most once: Run drains the registry, and an unregistered
// hook is never run.
type Registry struct {
	mu     sync.Mutex
	nextID uint64
	hooks  map[uint64]exitHook
	logger logger.Logger
}

type exitHook struct {
	id   uint64
	name string
	fn   func() error
}

// NewRegistry creates an empty exit-hook registry.
func NewRegistry(l logger.Logger) *Registry {
	return &Registry{
		hooks:  make(map[uint64]exitHook),
		logger: logger.Ensure(l),
	}
}

// Register adds fn under name and returns a function that removes it.
// The returned function is safe to call more than once.
func (r *Registry) Register(name string, fn func() error) (unregister func()) {
	r.mu.Lock()
	r.nextID++
	id := r.nextID
	r.hooks[id] = exitHook{id: id, name: name, fn: fn}
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		delete(r.hooks, id)
		r.mu.Unlock()
	}
}

// Len returns the number of pending hooks.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.hooks)
}

// Run executes and removes every pending hook, newest first.
// Failures and panics are logged and never propagated.
func (r *Registry) Run() {
	r.mu.Lock()
	pending := make([]exitHook, 0, len(r.hooks))
	for _, h := range r.hooks {
		pending = append(pending, h)
	}
	r.hooks = make(map[uint64]exitHook)
	log := r.logger
	r.mu.Unlock()

	// Newest first, matching Handler hook order.
	sort.Slice(pending, func(i, j int) bool { return pending[i].id > pending[j].id })

	for _, h := range pending {
		runOne(log, h)
	}
}

func runOne(log logger.Logger, h exitHook) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("exit hook panicked", "hook", h.name, "panic", rec)
		}
	}()
	if err := h.fn(); err != nil {
		log.Warn("exit hook failed", "hook", h.name, "error", err)
	}
}

var defaultRegistry = NewRegistry(nil)

// DefaultRegistry returns the process-wide exit-hook registry.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// SetLogger replaces the logger used by the process-wide registry.
func SetLogger(l logger.Logger) {
	defaultRegistry.mu.Lock()
	defaultRegistry.logger = logger.Ensure(l)
	defaultRegistry.mu.Unlock()
}

// RegisterExitHook registers fn on the process-wide registry.
func RegisterExitHook(name string, fn func() error) (unregister func()) {
	return defaultRegistry.Register(name, fn)
}

// RunExitHooks runs the process-wide exit hooks.
func RunExitHooks() {
	defaultRegistry.Run()
}

// RunOnPanic runs the process-wide exit hooks if the calling goroutine is
// panicking, then re-panics. Use it directly with defer:
//
//	defer shutdown.RunOnPanic()
func RunOnPanic() {
	if r := recover(); r != nil {
		RunExitHooks()
		panic(r)
	}
}
