package lineserver

import (
	"bufio"
	"errors"
	"io"
	"net"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/yndnr/warmd-go/internal/core/domain"
)

const readChunk = 4096

// lineReader reads a single '\n'-terminated request line from a connection.
type lineReader struct {
	conn    net.Conn
	br      *bufio.Reader
	timeout time.Duration
	maxLen  int
}

func newLineReader(c net.Conn, timeout time.Duration, maxLen int) *lineReader {
	return &lineReader{
		conn:    c,
		br:      bufio.NewReaderSize(c, readChunk),
		timeout: timeout,
		maxLen:  maxLen,
	}
}

// readLine returns the line content without its terminator. The deadline is
// set when the read starts. A partial line ended by EOF is returned as-is.
func (r *lineReader) readLine() (string, error) {
	if err := r.conn.SetReadDeadline(time.Now().Add(r.timeout)); err != nil {
		return "", domain.ErrTransportFailure.WithCause(err)
	}

	var buf []byte
	for {
		chunk, err := r.br.ReadSlice('\n')
		content := len(buf) + len(chunk)
		if err == nil {
			content-- // terminator
		}
		if content > r.maxLen {
			return "", r.tooLong()
		}
		buf = append(buf, chunk...)

		switch {
		case err == nil:
			return string(buf[:len(buf)-1]), nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			if len(buf) == 0 {
				return "", domain.ErrTransportFailure.WithDetails("connection closed before a request was sent")
			}
			return string(buf), nil
		case isTimeout(err):
			return "", domain.ErrReadTimeout.WithDetails("no complete line within " + r.timeout.String()).WithCause(err)
		default:
			return "", domain.ErrTransportFailure.WithCause(err)
		}
	}
}

func (r *lineReader) tooLong() error {
	return domain.ErrLineTooLong.WithDetails("exceeds " + humanize.IBytes(uint64(r.maxLen)) + " limit")
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
