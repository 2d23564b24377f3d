package lineserver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yndnr/warmd-go/internal/core/domain"
	"github.com/yndnr/warmd-go/internal/telemetry/logger"
	"github.com/yndnr/warmd-go/internal/telemetry/metric"
)

type connState int

const (
	stateIdle connState = iota
	stateReading
	stateDispatching
	stateResponding
	stateConnClosed
)

func (st connState) String() string {
	switch st {
	case stateIdle:
		return "idle"
	case stateReading:
		return "reading"
	case stateDispatching:
		return "dispatching"
	case stateResponding:
		return "responding"
	case stateConnClosed:
		return "closed"
	default:
		return "unknown"
	}
}

func (s *Server) slotLogger(sl *slot) (context.Context, logger.Logger) {
	ctx := logger.WithRequestID(s.baseCtx, sl.id)
	return ctx, logger.L(ctx).With("remote", sl.remote)
}

// readRequest reads the request line of a freshly admitted slot, so each
// connection's read timeout starts at admission and runs on its own. A failed
// read is answered and closed here; the worker only dispatches slots whose
// line arrived.
func (s *Server) readRequest(sl *slot) {
	defer close(sl.read)

	line, err := newLineReader(sl.conn, s.cfg.ReadTimeout, s.cfg.MaxLineLength).readLine()
	if err == nil {
		sl.line = strings.TrimSpace(line)
		return
	}
	sl.readErr = err

	_, log := s.slotLogger(sl)
	outcome := readOutcome(err)
	state := stateReading
	defer func() {
		s.finish(sl, log, state, outcome, outcome == metric.OutcomeTooLong, sl.admitted)
	}()

	if outcome == metric.OutcomeTransport {
		log.Warn("read failed", "error", err)
		return
	}
	log.Info("request rejected", "error", err)
	state = stateResponding
	s.respond(log, sl, errorLine(err))
}

// handle dispatches one slot once its line has been read, responds, then
// closes the connection and releases its admission slot. Slots whose read
// failed were already answered by readRequest.
func (s *Server) handle(sl *slot) {
	<-sl.read
	if sl.readErr != nil {
		return
	}

	start := time.Now()
	ctx, log := s.slotLogger(sl)

	state := stateDispatching
	outcome := metric.OutcomeOK
	defer func() {
		s.finish(sl, log, state, outcome, false, start)
	}()

	log.Debug("dispatching request", "line", sl.line, "queued_for", start.Sub(sl.admitted))
	result, err := s.dispatch(ctx, sl.line, sl.id)

	state = stateResponding
	if err != nil {
		outcome = metric.OutcomeError
		var de *domain.DomainError
		if errors.As(err, &de) && de.Is(domain.ErrExecutorFailure) && strings.HasPrefix(de.Details, "panic:") {
			outcome = metric.OutcomePanic
		}
		log.Warn("request failed", "error", err)
		s.respond(log, sl, errorLine(err))
		return
	}
	s.session.LastResult = result
	log.Debug("request completed", "result", result)
	s.respond(log, sl, resultLine(result))
}

// finish closes the connection, releases the slot and records the request.
func (s *Server) finish(sl *slot, log logger.Logger, state connState, outcome string, linger bool, start time.Time) {
	var err error
	if linger {
		err = lingerClose(sl.conn)
	} else {
		err = sl.conn.Close()
	}
	if err != nil {
		log.Debug("close failed", "state", state.String(), "error", err)
	}
	state = stateConnClosed
	sl.release()

	dur := time.Since(start)
	s.metrics.RecordRequest(outcome, dur)
	log.Debug("connection closed",
		"state", state.String(),
		"outcome", outcome,
		"duration", dur,
	)
}

// dispatch calls the executor, converting panics and plain errors into
// ExecutorFailure.
func (s *Server) dispatch(ctx context.Context, line string, id uint64) (result string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			result = ""
			err = domain.ErrExecutorFailure.WithDetails(fmt.Sprintf("panic: %v", rec))
		}
	}()

	s.session.MarkDispatched(id)
	result, err = s.executor.Execute(ctx, line, id, s.session)
	if err != nil {
		var de *domain.DomainError
		if !errors.As(err, &de) {
			return "", domain.ErrExecutorFailure.WithDetails(err.Error()).WithCause(err)
		}
		return "", de
	}
	return result, nil
}

// respond writes one response line. Send failures are logged and dropped.
func (s *Server) respond(log logger.Logger, sl *slot, line string) {
	if err := writeLine(sl.conn, s.cfg.WriteTimeout, line); err != nil {
		log.Warn("response not delivered", "error", domain.ErrTransportFailure.WithCause(err))
	}
}

func readOutcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrReadTimeout):
		return metric.OutcomeTimeout
	case errors.Is(err, domain.ErrLineTooLong):
		return metric.OutcomeTooLong
	default:
		return metric.OutcomeTransport
	}
}
