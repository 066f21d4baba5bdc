package authcore

import (
	"sort"
	"sync/atomic"
	"time"
)

// MetricID identifies one in-process counter.
type MetricID uint16

const (
	MetricRegisterSuccess MetricID = iota
	MetricRegisterRejected
	MetricLoginSuccess
	MetricLoginFailure
	MetricLoginRateLimited
	MetricAccountLocked
	MetricRefreshSuccess
	MetricRefreshFailure
	MetricMFAChallengeCreated
	MetricMFAVerifySuccess
	MetricMFAVerifyFailure
	MetricRecoverySetup
	MetricRecoveryChallengeCreated
	MetricRecoveryAnswerIncorrect
	MetricPasswordResetSuccess
	MetricPasswordResetFailure
	MetricAdminUserUpdated
	MetricAdminUserDeleted
	MetricBackendFailure
	// MetricLoginLatency is the only histogram; it times credential checks.
	MetricLoginLatency
	metricIDCount
)

// latencyBounds are the inclusive upper bounds of the login latency
// buckets. Anything slower lands in the final overflow bucket.
var latencyBounds = [...]time.Duration{
	5 * time.Millisecond,
	10 * time.Millisecond,
	25 * time.Millisecond,
	50 * time.Millisecond,
	100 * time.Millisecond,
	250 * time.Millisecond,
	500 * time.Millisecond,
}

const histBucketCount = len(latencyBounds) + 1

// counterSlot occupies a full cache line so hot counters bumped from
// different cores do not contend.
type counterSlot struct {
	atomic.Uint64
	_ [56]byte
}

// Metrics holds lock-free counters and the login latency histogram.
// A nil *Metrics is a valid no-op.
type Metrics struct {
	counting bool
	timing   bool
	counters [metricIDCount]counterSlot
	latency  [histBucketCount]atomic.Uint64
}

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics creates counters according to cfg. Latency histograms need
// both flags.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		counting: cfg.Enabled,
		timing:   cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

func (m *Metrics) Enabled() bool        { return m != nil && m.counting }
func (m *Metrics) LatencyEnabled() bool { return m != nil && m.timing }

// Inc adds one to the counter id.
func (m *Metrics) Inc(id MetricID) {
	if !m.Enabled() || id >= MetricLoginLatency {
		return
	}
	m.counters[id].Add(1)
}

// Observe records d for MetricLoginLatency. Other ids are ignored.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if !m.LatencyEnabled() || id != MetricLoginLatency {
		return
	}
	m.latency[latencyBucket(d)].Add(1)
}

// Value reads one counter.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= MetricLoginLatency {
		return 0
	}
	return m.counters[id].Load()
}

// Snapshot copies every counter. Disabled metrics return empty maps.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		Counters:   map[MetricID]uint64{},
		Histograms: map[MetricID][]uint64{},
	}
	if !m.Enabled() {
		return snap
	}
	for id := MetricID(0); id < MetricLoginLatency; id++ {
		snap.Counters[id] = m.counters[id].Load()
	}
	if m.timing {
		buckets := make([]uint64, histBucketCount)
		for i := range m.latency {
			buckets[i] = m.latency[i].Load()
		}
		snap.Histograms[MetricLoginLatency] = buckets
	}
	return snap
}

// latencyBucket compares at millisecond resolution, so 5.9ms still counts
// as 5ms.
func latencyBucket(d time.Duration) int {
	d = d.Truncate(time.Millisecond)
	return sort.Search(len(latencyBounds), func(i int) bool { return d <= latencyBounds[i] })
}
