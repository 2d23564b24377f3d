// Package metric provides Prometheus metrics for warmd.
package metric

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeStats struct {
	requests uint64
	uptime   time.Duration
}

func (f fakeStats) Requests() uint64      { return f.requests }
func (f fakeStats) Uptime() time.Duration { return f.uptime }

func TestSessionCollector(t *testing.T) {
	c := NewSessionCollector("wdss-test", fakeStats{requests: 7, uptime: 90 * time.Second})

	if n := testutil.CollectAndCount(c); n != 2 {
		t.Fatalf("CollectAndCount() = %d, want 2", n)
	}

	expected := `
# HELP warmd_session_requests_total Requests dispatched to the session.
# TYPE warmd_session_requests_total counter
warmd_session_requests_total{session="wdss-test"} 7
`
	if err := testutil.CollectAndCompare(c, strings.NewReader(expected), "warmd_session_requests_total"); err != nil {
		t.Errorf("CollectAndCompare() error = %v", err)
	}
}

func TestSessionCollector_Registered(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(NewSessionCollector("wdss-x", fakeStats{requests: 1, uptime: time.Second}))

	body := scrape(t, r)
	if !strings.Contains(body, `warmd_session_uptime_seconds{session="wdss-x"} 1`) {
		t.Errorf("expected session uptime in scrape output")
	}
}
