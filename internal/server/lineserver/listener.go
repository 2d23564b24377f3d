package lineserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/yndnr/warmd-go/internal/core/domain"
	"github.com/yndnr/warmd-go/internal/telemetry/metric"
)

// listen binds host:port for port = base, base+1, ... trying at most limit
// ports. A base of 0 binds an ephemeral port.
func listen(ctx context.Context, host string, base, limit int) (net.Listener, int, error) {
	var lc net.ListenConfig

	if base == 0 {
		ln, err := lc.Listen(ctx, "tcp", net.JoinHostPort(host, "0"))
		if err != nil {
			return nil, 0, domain.ErrPortUnavailable.WithDetails(host + ":0").WithCause(err)
		}
		return ln, ln.Addr().(*net.TCPAddr).Port, nil
	}

	var lastErr error
	last := base
	for i := 0; i < limit; i++ {
		port := base + i
		if port > 65535 {
			break
		}
		last = port
		ln, err := lc.Listen(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
		if err == nil {
			return ln, port, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}

	return nil, 0, domain.ErrPortUnavailable.
		WithDetails(fmt.Sprintf("%s ports %d-%d", host, base, last)).
		WithCause(lastErr)
}

// acceptLoop accepts connections until the listener is closed. Any other
// accept error is fatal and shuts the server down.
func (s *Server) acceptLoop() {
	defer s.acceptWG.Done()
	defer func() {
		if rec := recover(); rec != nil {
			s.fail(fmt.Errorf("lineserver: accept panic: %v", rec))
		}
	}()

	for {
		c, err := s.ln.Accept()
		if err != nil {
			if s.closing.Load() || errors.Is(err, net.ErrClosed) {
				return
			}
			s.fail(fmt.Errorf("accept: %w", err))
			return
		}
		s.admit(c)
	}
}

// admit gates c through the limiter and the admission counter, then queues
// it. Rejected connections get the capacity message and are closed without
// blocking the accept loop.
func (s *Server) admit(c net.Conn) {
	if !s.admission.allow() {
		s.reject(c, metric.ReasonRateLimited)
		return
	}
	if !s.admission.tryAcquire() {
		s.reject(c, metric.ReasonCapacity)
		return
	}
	s.metrics.IncInFlight()

	sl := newSlot(c, s.nextID.Add(1), func() {
		s.admission.release()
		s.metrics.DecInFlight()
	})

	if err := s.queue.push(sl); err != nil {
		sl.release()
		reason := metric.ReasonQueueFull
		if errors.Is(err, errQueueClosed) {
			reason = metric.ReasonShutdown
		}
		s.reject(c, reason)
		return
	}

	go s.readRequest(sl)

	s.metrics.IncAccepted()
	s.metrics.SetQueueDepth(s.queue.len())
	s.logger.Debug("connection admitted",
		"request_id", sl.id,
		"remote", sl.remote,
		"in_flight", s.admission.inFlight(),
	)
}

// reject sends the capacity message to c and closes it in the background.
func (s *Server) reject(c net.Conn, reason string) {
	s.metrics.RecordRejection(reason)
	s.logger.Warn("connection rejected",
		"remote", c.RemoteAddr().String(),
		"reason", reason,
	)

	s.rejectWG.Add(1)
	go func() {
		defer s.rejectWG.Done()
		s.turnAway(c)
	}()
}

// turnAway sends the capacity message to c and closes it.
func (s *Server) turnAway(c net.Conn) {
	if err := writeLine(c, s.cfg.WriteTimeout, errorLine(domain.ErrCapacityExceeded)); err != nil {
		s.logger.Debug("capacity message not delivered",
			"remote", c.RemoteAddr().String(),
			"error", domain.ErrTransportFailure.WithCause(err),
		)
	}
	if err := lingerClose(c); err != nil {
		s.logger.Debug("close failed", "remote", c.RemoteAddr().String(), "error", err)
	}
}
