package lineserver

import (
	"bufio"
	"errors"
	"io"
	"net"
	"strings"
	"time"

	"github.com/yndnr/warmd-go/internal/core/domain"
)

const (
	// lingerTimeout bounds how long unread client input is drained before
	// closing, so the client sees our response instead of a reset.
	lingerTimeout = 250 * time.Millisecond
	lingerMax     = 4 << 20
)

// writeLine writes line to c under a write deadline and flushes it.
func writeLine(c net.Conn, timeout time.Duration, line string) error {
	if err := c.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
		return err
	}
	w := bufio.NewWriter(c)
	if _, err := w.WriteString(line); err != nil {
		return err
	}
	return w.Flush()
}

// lingerClose half-closes c, discards pending input for a short while and
// closes it.
func lingerClose(c net.Conn) error {
	type closeWriter interface {
		CloseWrite() error
	}
	if cw, ok := c.(closeWriter); ok {
		if err := cw.CloseWrite(); err == nil {
			_ = c.SetReadDeadline(time.Now().Add(lingerTimeout))
			_, _ = io.Copy(io.Discard, io.LimitReader(c, lingerMax))
		}
	}
	return c.Close()
}

// errorLine renders err as a single "ERROR: <detail>\n" response line.
func errorLine(err error) string {
	detail := err.Error()
	var de *domain.DomainError
	if errors.As(err, &de) {
		detail = de.ClientMessage()
	}
	return "ERROR: " + flatten(detail) + "\n"
}

// resultLine terminates result with a newline unless it already ends in one.
func resultLine(result string) string {
	if strings.HasSuffix(result, "\n") {
		return result
	}
	return result + "\n"
}

func flatten(s string) string {
	s = strings.TrimSpace(s)
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)
}
