package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/yndnr/warmd-go/internal/core/domain"
	"github.com/yndnr/warmd-go/internal/core/session"
)

func newSession(t *testing.T) *session.Context {
	t.Helper()
	sc, err := session.NewContext(t.TempDir())
	if err != nil {
		t.Fatalf("NewContext() error = %v", err)
	}
	return sc
}

func run(t *testing.T, e *Evaluator, sc *session.Context, line string) (string, error) {
	t.Helper()
	sc.MarkDispatched(sc.LastRequestID + 1)
	return e.Execute(context.Background(), line, sc.LastRequestID, sc)
}

func TestParse(t *testing.T) {
	tests := []struct {
		line     string
		wantName string
		wantArgs []string
		wantRest string
	}{
		{"ping", "ping", nil, ""},
		{"PING", "ping", nil, ""},
		{"echo  hello   world", "echo", []string{"hello", "world"}, "hello   world"},
		{"  set k v  ", "set", []string{"k", "v"}, "k v"},
	}

	for _, tt := range tests {
		req, err := Parse(tt.line)
		if err != nil {
			t.Fatalf("Parse(%q) error = %v", tt.line, err)
		}
		if req.Name != tt.wantName {
			t.Errorf("Parse(%q).Name = %q, want %q", tt.line, req.Name, tt.wantName)
		}
		if strings.Join(req.Args, ",") != strings.Join(tt.wantArgs, ",") {
			t.Errorf("Parse(%q).Args = %v, want %v", tt.line, req.Args, tt.wantArgs)
		}
		if req.Rest != tt.wantRest {
			t.Errorf("Parse(%q).Rest = %q, want %q", tt.line, req.Rest, tt.wantRest)
		}
	}

	if _, err := Parse("   "); !errors.Is(err, domain.ErrMissingArgument) {
		t.Errorf("Parse(blank) error = %v, want ErrMissingArgument", err)
	}
}

func TestEvaluator_Commands(t *testing.T) {
	e := NewEvaluator()
	sc := newSession(t)

	steps := []struct {
		line string
		want string
	}{
		{"ping", "PONG"},
		{"ping hi there", "hi there"},
		{"echo  keep   spacing", "keep   spacing"},
		{"keys", ""},
		{"set greeting hello  world", "OK"},
		{"get greeting", "hello  world"},
		{"incr counter", "1"},
		{"INCR counter", "2"},
		{"keys", "counter greeting"},
		{"del greeting", "1"},
		{"del greeting", "0"},
		{"keys", "counter"},
		{"sleep 1ms", "OK"},
	}

	for _, step := range steps {
		got, err := run(t, e, sc, step.line)
		if err != nil {
			t.Fatalf("%q: error = %v", step.line, err)
		}
		if got != step.want {
			t.Errorf("%q = %q, want %q", step.line, got, step.want)
		}
	}
}

func TestEvaluator_Errors(t *testing.T) {
	e := NewEvaluator()
	sc := newSession(t)
	sc.Vars["word"] = "abc"

	tests := []struct {
		line string
		want *domain.DomainError
	}{
		{"", domain.ErrMissingArgument},
		{"frobnicate", domain.ErrUnknownCommand},
		{"get", domain.ErrMissingArgument},
		{"get missing", domain.ErrInvalidArgument},
		{"set onlykey", domain.ErrMissingArgument},
		{"incr word", domain.ErrInvalidArgument},
		{"sleep soon", domain.ErrInvalidArgument},
		{"sleep -1s", domain.ErrInvalidArgument},
		{"sleep 2h", domain.ErrInvalidArgument},
	}

	for _, tt := range tests {
		_, err := run(t, e, sc, tt.line)
		if !errors.Is(err, tt.want) {
			t.Errorf("%q: error = %v, want %v", tt.line, err, tt.want)
		}
	}

	_, err := run(t, e, sc, "frobnicate now")
	var de *domain.DomainError
	if !errors.As(err, &de) || de.ClientMessage() != "unknown command: frobnicate" {
		t.Errorf("unknown command message = %v", err)
	}
}

func TestEvaluator_StatePersistsAcrossRequests(t *testing.T) {
	e := NewEvaluator()
	sc := newSession(t)

	for i := 0; i < 5; i++ {
		run(t, e, sc, "incr n")
	}
	if sc.Vars["n"] != "5" {
		t.Errorf("n = %q, want 5", sc.Vars["n"])
	}
}

func TestEvaluator_Info(t *testing.T) {
	e := NewEvaluator()
	sc := newSession(t)

	got, err := run(t, e, sc, "info")
	if err != nil {
		t.Fatalf("info error = %v", err)
	}
	for _, want := range []string{"session=" + sc.ID, "root=" + sc.RootDir, "requests=1", "request_id=1"} {
		if !strings.Contains(got, want) {
			t.Errorf("info = %q, missing %q", got, want)
		}
	}
}

func TestEvaluator_SleepHonorsContext(t *testing.T) {
	e := NewEvaluator()
	sc := newSession(t)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := e.Execute(ctx, "sleep 30s", 1, sc)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want deadline exceeded", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("sleep ignored context cancellation")
	}
}

func TestEvaluator_Register(t *testing.T) {
	e := NewEvaluator()
	sc := newSession(t)

	e.Register("Double", func(_ context.Context, req *Request, _ *session.Context) (string, error) {
		if len(req.Args) != 1 {
			return "", domain.ErrMissingArgument
		}
		return req.Args[0] + req.Args[0], nil
	})
	e.Register("ping", func(context.Context, *Request, *session.Context) (string, error) {
		return "custom", nil
	})

	if got, _ := run(t, e, sc, "double ab"); got != "abab" {
		t.Errorf("double = %q, want abab", got)
	}
	if got, _ := run(t, e, sc, "ping"); got != "custom" {
		t.Errorf("ping = %q, want replaced handler", got)
	}

	names := e.Commands()
	sort.Strings(names)
	if i := sort.SearchStrings(names, "double"); i >= len(names) || names[i] != "double" {
		t.Errorf("Commands() = %v, missing double", names)
	}
}
