package connection

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

// ErrorPrefix marks an error response line.
const ErrorPrefix = "ERROR: "

// Default client timeouts.
const (
	DefaultDialTimeout = 5 * time.Second
	DefaultIOTimeout   = 60 * time.Second
)

// ServerError is an error response returned by the server.
type ServerError struct {
	Message string
}

func (e *ServerError) Error() string {
	return "server error: " + e.Message
}

// IsCapacity reports whether the server turned the request away because it
// was at capacity.
func (e *ServerError) IsCapacity() bool {
	return strings.HasPrefix(e.Message, "Server at capacity")
}

// Client sends single-line requests to a warmd server.
type Client struct {
	addr        string
	dialTimeout time.Duration
	ioTimeout   time.Duration
	dialer      net.Dialer
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithDialTimeout sets the connect timeout.
func WithDialTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.dialTimeout = d
		}
	}
}

// WithIOTimeout bounds writing the request and reading the response.
func WithIOTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.ioTimeout = d
		}
	}
}

// NewClient creates a client for addr (host:port).
func NewClient(addr string, opts ...ClientOption) *Client {
	c := &Client{
		addr:        addr,
		dialTimeout: DefaultDialTimeout,
		ioTimeout:   DefaultIOTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Addr returns the server address.
func (c *Client) Addr() string {
	return c.addr
}

// Send writes line on a fresh connection and returns the response without
// its trailing newline. An "ERROR: " response is returned as *ServerError.
func (c *Client) Send(ctx context.Context, line string) (string, error) {
	if strings.ContainsAny(line, "\r\n") {
		return "", errors.New("request must be a single line")
	}

	dialCtx, cancel := context.WithTimeout(ctx, c.dialTimeout)
	conn, err := c.dialer.DialContext(dialCtx, "tcp", c.addr)
	cancel()
	if err != nil {
		return "", fmt.Errorf("connect %s: %w", c.addr, err)
	}
	defer conn.Close()

	deadline := time.Now().Add(c.ioTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return "", err
	}

	if _, err := conn.Write([]byte(line + "\n")); err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}

	resp, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil && resp == "" {
		return "", fmt.Errorf("read response: %w", err)
	}
	return ParseResponse(resp)
}

// ParseResponse strips the line terminator and converts error lines.
func ParseResponse(raw string) (string, error) {
	resp := strings.TrimSuffix(raw, "\n")
	if msg, ok := strings.CutPrefix(resp, ErrorPrefix); ok {
		return "", &ServerError{Message: msg}
	}
	return resp, nil
}
