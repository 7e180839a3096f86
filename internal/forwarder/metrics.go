package forwarder

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type ForwarderMetrics struct {
	beacons         int64
	dropped         int64
	recordsSent     int64
	sendErrors      int64
	descriptorsSent int64
	lastEvent       int64 // unix nanos

	promBeacons         prometheus.Counter
	promDropped         prometheus.Counter
	promRecordsSent     prometheus.Counter
	promSendErrors      prometheus.Counter
	promDescriptorsSent prometheus.Counter
}

// NewForwarderMetrics creates the counters. With a nil reg the prometheus
// collectors exist but are not registered anywhere.
func NewForwarderMetrics(reg prometheus.Registerer) *ForwarderMetrics {
	f := promauto.With(reg)

	return &ForwarderMetrics{
		promBeacons: f.NewCounter(prometheus.CounterOpts{
			Name: "asterix_beacons_total",
			Help: "Beacons handed to the forwarder.",
		}),
		promDropped: f.NewCounter(prometheus.CounterOpts{
			Name: "asterix_beacons_dropped_total",
			Help: "Beacons dropped because the forwarder was not active.",
		}),
		promRecordsSent: f.NewCounter(prometheus.CounterOpts{
			Name: "asterix_records_sent_total",
			Help: "Cat. 62 records handed to the transport.",
		}),
		promSendErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "asterix_send_errors_total",
			Help: "Records the transport failed to send.",
		}),
		promDescriptorsSent: f.NewCounter(prometheus.CounterOpts{
			Name: "asterix_descriptors_sent_total",
			Help: "Records sent with an attached descriptor.",
		}),
	}
}

func (m *ForwarderMetrics) RecordBeacon(at time.Time) {
	atomic.AddInt64(&m.beacons, 1)
	atomic.StoreInt64(&m.lastEvent, at.UnixNano())
	m.promBeacons.Inc()
}

func (m *ForwarderMetrics) RecordDropped() {
	atomic.AddInt64(&m.dropped, 1)
	m.promDropped.Inc()
}

func (m *ForwarderMetrics) RecordSent(withDescriptor bool) {
	atomic.AddInt64(&m.recordsSent, 1)
	m.promRecordsSent.Inc()
	if withDescriptor {
		atomic.AddInt64(&m.descriptorsSent, 1)
		m.promDescriptorsSent.Inc()
	}
}

func (m *ForwarderMetrics) RecordSendError() {
	atomic.AddInt64(&m.sendErrors, 1)
	m.promSendErrors.Inc()
}

func (m *ForwarderMetrics) GetStats() Stats {
	s := Stats{
		Beacons:         atomic.LoadInt64(&m.beacons),
		Dropped:         atomic.LoadInt64(&m.dropped),
		RecordsSent:     atomic.LoadInt64(&m.recordsSent),
		SendErrors:      atomic.LoadInt64(&m.sendErrors),
		DescriptorsSent: atomic.LoadInt64(&m.descriptorsSent),
	}
	if ns := atomic.LoadInt64(&m.lastEvent); ns != 0 {
		s.LastEvent = time.Unix(0, ns)
	}
	return s
}
