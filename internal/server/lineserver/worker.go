package lineserver

import (
	"fmt"

	"github.com/yndnr/warmd-go/internal/telemetry/metric"
)

// runWorker handles queued connections one at a time, in admission order,
// until the queue is closed and drained.
func (s *Server) runWorker() {
	defer close(s.workerDone)
	defer func() {
		if rec := recover(); rec != nil {
			s.fail(fmt.Errorf("lineserver: worker panic: %v", rec))
			s.queue.close()
			for sl := range s.queue.items() {
				s.drop(sl)
			}
		}
	}()

	for sl := range s.queue.items() {
		s.metrics.SetQueueDepth(s.queue.len())
		<-sl.read
		if s.abandon.Load() {
			s.drop(sl)
			continue
		}
		s.handle(sl)
	}
}

// drop turns away a queued connection that will not be handled. A slot
// whose read failed has already been answered.
func (s *Server) drop(sl *slot) {
	<-sl.read
	if sl.readErr != nil {
		return
	}
	s.metrics.RecordRejection(metric.ReasonShutdown)
	s.turnAway(sl.conn)
	sl.release()
}
