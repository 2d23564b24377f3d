package connection

import (
	"bufio"
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// serveOnce accepts one connection, reads a line and answers with reply(line).
func serveOnce(t *testing.T, reply func(string) string) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		line, _ := bufio.NewReader(conn).ReadString('\n')
		conn.Write([]byte(reply(strings.TrimSuffix(line, "\n"))))
	}()
	return ln.Addr().String()
}

func TestNewClient(t *testing.T) {
	c := NewClient("127.0.0.1:8000")
	if c.Addr() != "127.0.0.1:8000" {
		t.Errorf("Addr() = %q", c.Addr())
	}
	if c.dialTimeout != DefaultDialTimeout || c.ioTimeout != DefaultIOTimeout {
		t.Errorf("timeouts = %v/%v, want defaults", c.dialTimeout, c.ioTimeout)
	}

	c = NewClient("x", WithDialTimeout(time.Second), WithIOTimeout(2*time.Second), WithIOTimeout(0))
	if c.dialTimeout != time.Second || c.ioTimeout != 2*time.Second {
		t.Errorf("timeouts = %v/%v", c.dialTimeout, c.ioTimeout)
	}
}

func TestClient_Send(t *testing.T) {
	addr := serveOnce(t, func(line string) string { return "got " + line + "\n" })

	resp, err := NewClient(addr).Send(context.Background(), "PING")
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if resp != "got PING" {
		t.Errorf("Send() = %q, want %q", resp, "got PING")
	}
}

func TestClient_Send_ResponseWithoutNewline(t *testing.T) {
	addr := serveOnce(t, func(string) string { return "bare" })

	resp, err := NewClient(addr).Send(context.Background(), "x")
	if err != nil || resp != "bare" {
		t.Errorf("Send() = %q, %v; want %q", resp, err, "bare")
	}
}

func TestClient_Send_ServerError(t *testing.T) {
	addr := serveOnce(t, func(string) string { return "ERROR: Server at capacity, please retry\n" })

	_, err := NewClient(addr).Send(context.Background(), "x")
	var se *ServerError
	if !errors.As(err, &se) {
		t.Fatalf("Send() error = %v, want *ServerError", err)
	}
	if !se.IsCapacity() {
		t.Errorf("IsCapacity() = false for %q", se.Message)
	}
}

func TestClient_Send_RejectsMultiline(t *testing.T) {
	if _, err := NewClient("127.0.0.1:1").Send(context.Background(), "a\nb"); err == nil {
		t.Error("Send() should reject multi-line requests")
	}
}

func TestClient_Send_ConnectRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()

	if _, err := NewClient(addr, WithDialTimeout(time.Second)).Send(context.Background(), "x"); err == nil {
		t.Error("Send() to closed port should fail")
	}
}

func TestClient_Send_IOTimeout(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	hold := make(chan struct{})
	defer close(hold)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		<-hold
		conn.Close()
	}()

	start := time.Now()
	_, err = NewClient(ln.Addr().String(), WithIOTimeout(100*time.Millisecond)).Send(context.Background(), "x")
	if err == nil {
		t.Fatal("Send() should time out")
	}
	if time.Since(start) > 5*time.Second {
		t.Error("IO timeout not applied")
	}
}

func TestParseResponse(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr string
	}{
		{"42\n", "42", ""},
		{"", "", ""},
		{"ERROR: read timeout: no complete line within 30s\n", "", "read timeout: no complete line within 30s"},
		{"ERRORS are fine\n", "ERRORS are fine", ""},
	}

	for _, tt := range tests {
		got, err := ParseResponse(tt.raw)
		if tt.wantErr != "" {
			var se *ServerError
			if !errors.As(err, &se) || se.Message != tt.wantErr {
				t.Errorf("ParseResponse(%q) error = %v, want %q", tt.raw, err, tt.wantErr)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseResponse(%q) = %q, %v; want %q", tt.raw, got, err, tt.want)
		}
	}
}

func TestDiscoverAddr(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, ".warmd.port"), []byte("8123\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	port, err := DiscoverPort(root, ".warmd.port")
	if err != nil || port != 8123 {
		t.Errorf("DiscoverPort() = %d, %v; want 8123", port, err)
	}

	addr, err := DiscoverAddr("127.0.0.1", root, ".warmd.port")
	if err != nil || addr != "127.0.0.1:8123" {
		t.Errorf("DiscoverAddr() = %q, %v", addr, err)
	}
}

func TestDiscoverPort_Errors(t *testing.T) {
	root := t.TempDir()

	if _, err := DiscoverPort(root, ".warmd.port"); err == nil {
		t.Error("missing discovery file should fail")
	}
	if _, err := DiscoverPort(root, "../escape"); err == nil {
		t.Error("lock file with separator should fail")
	}
}
