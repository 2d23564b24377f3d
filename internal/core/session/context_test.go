package session

import (
	"context"
	"strings"
	"testing"
)

func TestNewContext(t *testing.T) {
	sc, err := NewContext("/tmp/project")
	if err != nil {
		t.Fatalf("NewContext() error = %v", err)
	}
	if !strings.HasPrefix(sc.ID, IDPrefix) {
		t.Errorf("ID = %q, want prefix %q", sc.ID, IDPrefix)
	}
	if !ValidateID(sc.ID) {
		t.Errorf("ValidateID(%q) = false", sc.ID)
	}
	if sc.RootDir != "/tmp/project" {
		t.Errorf("RootDir = %q", sc.RootDir)
	}
	if sc.Vars == nil {
		t.Error("Vars should be initialized")
	}
	if sc.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
}

func TestGenerateID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id, err := GenerateID()
		if err != nil {
			t.Fatalf("GenerateID() error = %v", err)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestValidateID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"wdss-01arz3ndektsv4rrffq69g5fav", true},
		{"01arz3ndektsv4rrffq69g5fav", false},
		{"wdss-", false},
		{"wdss-not-a-ulid", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			if got := ValidateID(tt.id); got != tt.want {
				t.Errorf("ValidateID(%q) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}

func TestContext_MarkDispatched(t *testing.T) {
	sc, _ := NewContext("")
	sc.MarkDispatched(7)
	sc.MarkDispatched(8)

	if sc.LastRequestID != 8 {
		t.Errorf("LastRequestID = %d, want 8", sc.LastRequestID)
	}
	if got := sc.Requests(); got != 2 {
		t.Errorf("Requests() = %d, want 2", got)
	}
}

func TestContext_VarNames(t *testing.T) {
	sc, _ := NewContext("")
	sc.Vars["b"] = "2"
	sc.Vars["a"] = "1"
	sc.Vars["c"] = "3"

	got := strings.Join(sc.VarNames(), ",")
	if got != "a,b,c" {
		t.Errorf("VarNames() = %q, want %q", got, "a,b,c")
	}
}

func TestExecutorFunc(t *testing.T) {
	var gotLine string
	var gotID uint64
	exec := ExecutorFunc(func(ctx context.Context, line string, requestID uint64, sc *Context) (string, error) {
		gotLine, gotID = line, requestID
		return "ok", nil
	})

	out, err := exec.Execute(context.Background(), "hello", 3, nil)
	if err != nil || out != "ok" {
		t.Fatalf("Execute() = %q, %v", out, err)
	}
	if gotLine != "hello" || gotID != 3 {
		t.Errorf("got line=%q id=%d", gotLine, gotID)
	}
}
