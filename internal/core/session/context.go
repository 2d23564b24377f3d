// Package session defines the warm execution session shared by every request.
//
// A Context is created once per running server and handed by pointer to the
// Executor for each request. The server guarantees that at most one Execute
// call is in flight at any time, so Context is deliberately not synchronized
// for mutation by executors. Read-only accessors that may be called from other
// goroutines (metrics, status) go through the atomic request counter only.
package session

import (
	"context"
	"crypto/rand"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
)

// IDPrefix is the prefix for session context IDs.
const IDPrefix = "wdss-"

// Context is the shared, mutable execution state visible across sequential
// requests.
type Context struct {
	// ID identifies this session for logs and status output.
	// Format: wdss-{ulid_lowercase}.
	ID string

	// RootDir is the project root the server was started for.
	RootDir string

	// CreatedAt is the session creation time.
	CreatedAt time.Time

	// Vars holds executor-defined state that survives between requests.
	Vars map[string]string

	// LastResult is the response of the most recent successful request.
	LastResult string

	// LastRequestID is the id of the most recently dispatched request.
	LastRequestID uint64

	requests atomic.Uint64
}

// NewContext creates a session context rooted at rootDir.
func NewContext(rootDir string) (*Context, error) {
	id, err := GenerateID()
	if err != nil {
		return nil, err
	}
	return &Context{
		ID:        id,
		RootDir:   rootDir,
		CreatedAt: time.Now(),
		Vars:      make(map[string]string),
	}, nil
}

// GenerateID generates a new session ID using ULID.
func GenerateID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return IDPrefix + strings.ToLower(id.String()), nil
}

// ValidateID reports whether id has the session ID format.
func ValidateID(id string) bool {
	if !strings.HasPrefix(id, IDPrefix) {
		return false
	}
	_, err := ulid.Parse(strings.ToUpper(id[len(IDPrefix):]))
	return err == nil
}

// MarkDispatched records that requestID is about to be executed.
// Called by the server's worker before each Execute.
func (c *Context) MarkDispatched(requestID uint64) {
	c.LastRequestID = requestID
	c.requests.Add(1)
}

// Requests returns how many requests have been dispatched to this session.
// Safe to call concurrently with the worker.
func (c *Context) Requests() uint64 {
	return c.requests.Load()
}

// Uptime returns how long the session has been alive.
func (c *Context) Uptime() time.Duration {
	return time.Since(c.CreatedAt)
}

// VarNames returns the sorted names of all session variables.
func (c *Context) VarNames() []string {
	names := make([]string, 0, len(c.Vars))
	for k := range c.Vars {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Executor evaluates one request line against the session.
//
// Execute is never called concurrently. There is no mid-flight cancellation:
// ctx carries request-scoped values (logger, request id) but is not cancelled
// by server shutdown while an execution is running.
type Executor interface {
	Execute(ctx context.Context, line string, requestID uint64, sc *Context) (string, error)
}

// ExecutorFunc adapts a plain function to the Executor interface.
type ExecutorFunc func(ctx context.Context, line string, requestID uint64, sc *Context) (string, error)

// Execute calls f.
func (f ExecutorFunc) Execute(ctx context.Context, line string, requestID uint64, sc *Context) (string, error) {
	return f(ctx, line, requestID, sc)
}
