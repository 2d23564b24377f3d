package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/yndnr/warmd-go/internal/core/domain"
	"github.com/yndnr/warmd-go/internal/core/session"
	"github.com/yndnr/warmd-go/internal/telemetry/logger"
)

// MaxSleep caps the sleep command.
const MaxSleep = time.Minute

// Request is one parsed request line.
type Request struct {
	// Name is the lower-cased command name.
	Name string
	// Args are the whitespace-separated arguments.
	Args []string
	// Rest is everything after the command name, leading spaces removed.
	Rest string
	// ID is the server-assigned request id.
	ID uint64
}

// CommandFunc evaluates one command against the session.
type CommandFunc func(ctx context.Context, req *Request, sc *session.Context) (string, error)

// Evaluator is the default session.Executor.
type Evaluator struct {
	mu       sync.RWMutex
	commands map[string]CommandFunc
}

var _ session.Executor = (*Evaluator)(nil)

// NewEvaluator creates an evaluator with the built-in commands registered.
func NewEvaluator() *Evaluator {
	e := &Evaluator{commands: make(map[string]CommandFunc)}
	e.Register("ping", cmdPing)
	e.Register("echo", cmdEcho)
	e.Register("set", cmdSet)
	e.Register("get", cmdGet)
	e.Register("del", cmdDel)
	e.Register("keys", cmdKeys)
	e.Register("incr", cmdIncr)
	e.Register("info", cmdInfo)
	e.Register("sleep", cmdSleep)
	return e
}

// Register adds or replaces the command name.
func (e *Evaluator) Register(name string, fn CommandFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.commands[strings.ToLower(name)] = fn
}

// Commands returns the registered command names.
func (e *Evaluator) Commands() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, 0, len(e.commands))
	for name := range e.commands {
		names = append(names, name)
	}
	return names
}

// Execute parses line and runs the matching command.
func (e *Evaluator) Execute(ctx context.Context, line string, requestID uint64, sc *session.Context) (string, error) {
	req, err := Parse(line)
	if err != nil {
		return "", err
	}
	req.ID = requestID

	e.mu.RLock()
	fn, ok := e.commands[req.Name]
	e.mu.RUnlock()
	if !ok {
		return "", domain.ErrUnknownCommand.WithDetails(req.Name)
	}

	logger.L(ctx).Debug("evaluating command", "command", req.Name, "args", len(req.Args))
	return fn(ctx, req, sc)
}

// Parse splits a request line into command name and arguments.
func Parse(line string) (*Request, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, domain.ErrMissingArgument.WithDetails("empty request")
	}

	name, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimLeft(rest, " \t")
	return &Request{
		Name: strings.ToLower(name),
		Args: strings.Fields(rest),
		Rest: rest,
	}, nil
}

func wantArgs(req *Request, n int, usage string) error {
	if len(req.Args) < n {
		return domain.ErrMissingArgument.WithDetails("usage: " + usage)
	}
	return nil
}

func cmdPing(_ context.Context, req *Request, _ *session.Context) (string, error) {
	if req.Rest != "" {
		return req.Rest, nil
	}
	return "PONG", nil
}

func cmdEcho(_ context.Context, req *Request, _ *session.Context) (string, error) {
	return req.Rest, nil
}

func cmdSet(_ context.Context, req *Request, sc *session.Context) (string, error) {
	if err := wantArgs(req, 2, "set <key> <value>"); err != nil {
		return "", err
	}
	key := req.Args[0]
	value := strings.TrimLeft(strings.TrimPrefix(req.Rest, key), " \t")
	sc.Vars[key] = value
	return "OK", nil
}

func cmdGet(_ context.Context, req *Request, sc *session.Context) (string, error) {
	if err := wantArgs(req, 1, "get <key>"); err != nil {
		return "", err
	}
	v, ok := sc.Vars[req.Args[0]]
	if !ok {
		return "", domain.ErrInvalidArgument.WithDetails("no such key " + strconv.Quote(req.Args[0]))
	}
	return v, nil
}

func cmdDel(_ context.Context, req *Request, sc *session.Context) (string, error) {
	if err := wantArgs(req, 1, "del <key>"); err != nil {
		return "", err
	}
	if _, ok := sc.Vars[req.Args[0]]; !ok {
		return "0", nil
	}
	delete(sc.Vars, req.Args[0])
	return "1", nil
}

func cmdKeys(_ context.Context, _ *Request, sc *session.Context) (string, error) {
	return strings.Join(sc.VarNames(), " "), nil
}

func cmdIncr(_ context.Context, req *Request, sc *session.Context) (string, error) {
	if err := wantArgs(req, 1, "incr <key>"); err != nil {
		return "", err
	}
	key := req.Args[0]
	n := int64(0)
	if v, ok := sc.Vars[key]; ok {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return "", domain.ErrInvalidArgument.WithDetails("value of " + strconv.Quote(key) + " is not an integer")
		}
		n = parsed
	}
	n++
	sc.Vars[key] = strconv.FormatInt(n, 10)
	return sc.Vars[key], nil
}

func cmdInfo(_ context.Context, req *Request, sc *session.Context) (string, error) {
	return fmt.Sprintf("session=%s root=%s requests=%d keys=%d started=%q request_id=%d",
		sc.ID,
		sc.RootDir,
		sc.Requests(),
		len(sc.Vars),
		humanize.Time(sc.CreatedAt),
		req.ID,
	), nil
}

func cmdSleep(ctx context.Context, req *Request, _ *session.Context) (string, error) {
	if err := wantArgs(req, 1, "sleep <duration>"); err != nil {
		return "", err
	}
	d, err := time.ParseDuration(req.Args[0])
	if err != nil || d < 0 {
		return "", domain.ErrInvalidArgument.WithDetails("bad duration " + strconv.Quote(req.Args[0]))
	}
	if d > MaxSleep {
		return "", domain.ErrInvalidArgument.WithDetails("duration exceeds " + MaxSleep.String())
	}

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return "OK", nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
