package materna

import (
	"sync/atomic"
	"time"
)

// MetricID identifies one counter or histogram tracked by [Metrics].
type MetricID uint16

const (
	// MetricLoginSuccess counts logins that established a session.
	MetricLoginSuccess MetricID = iota
	// MetricLoginFailure counts logins rejected by the backend.
	MetricLoginFailure
	// MetricLoginRoleRejected counts logins rejected by the patient role gate.
	MetricLoginRoleRejected
	// MetricRegisterSuccess counts registrations that established a session.
	MetricRegisterSuccess
	// MetricRegisterFailure counts registrations rejected by the backend.
	MetricRegisterFailure
	// MetricSessionRestored counts sessions restored from the store at startup.
	MetricSessionRestored
	// MetricRestoreRejectedExpired counts restores skipped because the persisted JWT was expired.
	MetricRestoreRejectedExpired
	// MetricLogout counts voluntary logouts.
	MetricLogout
	// MetricForcedLogout counts forced complete logouts.
	MetricForcedLogout
	// MetricAuthFailure counts detected authentication failures.
	MetricAuthFailure
	// MetricFailureBroadcast counts failure callbacks invoked.
	MetricFailureBroadcast
	// MetricCallbackPanic counts failure callbacks that panicked during broadcast.
	MetricCallbackPanic
	// MetricRefreshSuccess counts successful token refreshes.
	MetricRefreshSuccess
	// MetricRefreshFailure counts failed token refreshes.
	MetricRefreshFailure
	// MetricValidateSuccess counts token validations that passed.
	MetricValidateSuccess
	// MetricValidateFailure counts token validations that failed.
	MetricValidateFailure
	// MetricWipe counts complete-wipe runs.
	MetricWipe
	// MetricWipeEnumerationFallback counts wipes where key enumeration failed and the fixed-key tier ran alone.
	MetricWipeEnumerationFallback
	// MetricWipeVerifyRetry counts wipes where the verify step found residual auth keys.
	MetricWipeVerifyRetry
	// MetricWipeLatency is the complete-wipe duration histogram.
	MetricWipeLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics is the in-process counter set. Exporters under metrics/export
// render snapshots; the core never touches a metrics backend directly.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of all counters and histograms.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics creates a Metrics set from cfg. A disabled set is inert and
// safe to call.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether the set records anything.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled reports whether the wipe-latency histogram records.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc increments the counter for id.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records d into the wipe-latency histogram.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if id != MetricWipeLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value returns the current value of the counter for id.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies all counters and histograms.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricWipeLatency].buckets[i])
		}
		s.Histograms[MetricWipeLatency] = buckets
	}

	return s
}

func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 5:
		return 0
	case ms <= 10:
		return 1
	case ms <= 25:
		return 2
	case ms <= 50:
		return 3
	case ms <= 100:
		return 4
	case ms <= 250:
		return 5
	case ms <= 500:
		return 6
	default:
		return 7
	}
}
