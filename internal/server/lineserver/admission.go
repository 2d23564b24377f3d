package lineserver

import (
	"net"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// admission bounds the number of connections admitted but not yet fully
// handled. The counter stays within [0, max].
type admission struct {
	max     int64
	active  atomic.Int64
	limiter *rate.Limiter
}

func newAdmission(max int, limiter *rate.Limiter) *admission {
	return &admission{max: int64(max), limiter: limiter}
}

// allow reports whether the accept rate limiter lets a connection through.
func (a *admission) allow() bool {
	return a.limiter == nil || a.limiter.Allow()
}

// tryAcquire takes a slot if one is free.
func (a *admission) tryAcquire() bool {
	for {
		cur := a.active.Load()
		if cur >= a.max {
			return false
		}
		if a.active.CompareAndSwap(cur, cur+1) {
			return true
		}
	}
}

func (a *admission) release() {
	a.active.Add(-1)
}

func (a *admission) inFlight() int {
	return int(a.active.Load())
}

// slot is an admitted connection paired with its request id. The request
// line is read as soon as the slot is admitted; read is closed once line or
// readErr is set.
type slot struct {
	conn     net.Conn
	id       uint64
	remote   string
	admitted time.Time

	read    chan struct{}
	line    string
	readErr error

	releaseOnce sync.Once
	releaseFn   func()
}

func newSlot(c net.Conn, id uint64, release func()) *slot {
	remote := ""
	if addr := c.RemoteAddr(); addr != nil {
		remote = addr.String()
	}
	return &slot{
		conn:      c,
		id:        id,
		remote:    remote,
		admitted:  time.Now(),
		read:      make(chan struct{}),
		releaseFn: release,
	}
}

// release returns the admission slot. Only the first call has an effect.
func (s *slot) release() {
	s.releaseOnce.Do(s.releaseFn)
}
