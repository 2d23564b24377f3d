// Package portlock manages the per-directory discovery file that records the
// TCP port of the running server.
//
// The file holds the decimal port followed by a newline. It is created with
// an atomic no-replace rename so that two servers racing for the same
// directory cannot both succeed: the loser fails with
// domain.ErrStartupConflict and leaves the winner's file untouched.
package portlock

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/yndnr/warmd-go/internal/core/domain"
	"github.com/yndnr/warmd-go/internal/telemetry/logger"
)

// DefaultProbeTimeout bounds the dial used to decide whether a recorded port
// is still served.
const DefaultProbeTimeout = 500 * time.Millisecond

// Options configures Acquire.
type Options struct {
	// ReclaimStale removes an existing lock file whose port no longer
	// accepts connections, then retries once.
	ReclaimStale bool

	// ProbeHost is the host dialed when probing a recorded port.
	// Defaults to 127.0.0.1.
	ProbeHost string

	// ProbeTimeout bounds the probe dial. Defaults to DefaultProbeTimeout.
	ProbeTimeout time.Duration

	// Logger receives lock lifecycle events.
	Logger logger.Logger
}

// Lock is a held discovery file.
type Lock struct {
	path   string
	port   int
	logger logger.Logger

	once sync.Once
	err  error
}

// Acquire writes port to dir/name. It fails with domain.ErrStartupConflict
// if the file already exists (and is not reclaimed).
func Acquire(dir, name string, port int, opts Options) (*Lock, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("portlock: invalid port %d", port)
	}

	log := logger.Ensure(opts.Logger).With("component", "portlock")
	dest := filepath.Join(dir, name)
	payload := []byte(strconv.Itoa(port) + "\n")

	err := writeNoReplace(dest, payload)
	if errors.Is(err, fs.ErrExist) && opts.ReclaimStale {
		if reclaimed, rerr := reclaim(dest, opts); rerr != nil {
			log.Warn("stale lock check failed", "path", dest, "error", rerr)
		} else if reclaimed {
			log.Warn("removed stale lock file", "path", dest)
			err = writeNoReplace(dest, payload)
		}
	}
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			details := dest
			if existing, rerr := ReadPort(dest); rerr == nil {
				details = fmt.Sprintf("%s (port %d)", dest, existing)
			}
			return nil, domain.ErrStartupConflict.WithDetails(details).WithCause(err)
		}
		return nil, fmt.Errorf("portlock: write %s: %w", dest, err)
	}

	log.Info("lock file written", "path", dest, "port", port)
	return &Lock{path: dest, port: port, logger: log}, nil
}

// Path returns the lock file path.
func (l *Lock) Path() string { return l.path }

// Port returns the port recorded in the lock file.
func (l *Lock) Port() int { return l.port }

// Release removes the lock file. Only the first call does any work; later
// calls return the first result. A file that is already gone, or that now
// records a different port, is left alone and is not an error.
func (l *Lock) Release() error {
	l.once.Do(func() {
		l.err = l.remove()
	})
	return l.err
}

func (l *Lock) remove() error {
	data, err := os.ReadFile(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("portlock: read %s: %w", l.path, err)
	}
	if !bytes.Equal(bytes.TrimSpace(data), []byte(strconv.Itoa(l.port))) {
		l.logger.Warn("lock file owned by another instance, leaving it", "path", l.path)
		return nil
	}
	if err := os.Remove(l.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("portlock: remove %s: %w", l.path, err)
	}
	l.logger.Info("lock file removed", "path", l.path)
	return nil
}

// ReadPort reads the port recorded in a lock file.
func ReadPort(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	text := strings.TrimSpace(string(data))
	port, err := strconv.Atoi(text)
	if err != nil || port <= 0 || port > 65535 {
		return 0, fmt.Errorf("portlock: %s: malformed port %q", path, text)
	}
	return port, nil
}

// ValidateName rejects lock file names that are empty or contain a path
// separator.
func ValidateName(name string) error {
	if name == "" || name == "." || name == ".." {
		return fmt.Errorf("portlock: invalid lock file name %q", name)
	}
	if strings.ContainsRune(name, '/') || strings.ContainsRune(name, filepath.Separator) {
		return fmt.Errorf("portlock: lock file name %q must not contain a path separator", name)
	}
	return nil
}

// writeNoReplace writes payload to a temp file next to dest, syncs it and
// renames it into place without replacing an existing dest. The temp file is
// removed on every failure path.
func writeNoReplace(dest string, payload []byte) error {
	dir := filepath.Dir(dest)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dest)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := renameNoReplace(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// reclaim reports whether dest was stale and has been removed. A lock whose
// port still accepts connections is never removed.
func reclaim(dest string, opts Options) (bool, error) {
	port, err := ReadPort(dest)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return true, nil
		}
		return false, err
	}

	host := opts.ProbeHost
	if host == "" {
		host = "127.0.0.1"
	}
	timeout := opts.ProbeTimeout
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}

	conn, err := net.DialTimeout("tcp", net.JoinHostPort(host, strconv.Itoa(port)), timeout)
	if err == nil {
		conn.Close()
		return false, nil
	}

	if err := os.Remove(dest); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}
	return true, nil
}
