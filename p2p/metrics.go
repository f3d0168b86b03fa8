package p2p

import (
	"github.com/geanlabs/beaconcore/types"
	"github.com/prometheus/client_golang/prometheus"
)

// Rejection reasons reported on the rejected counter.
const (
	reasonTooLarge = "too_large"
	reasonCorrupt  = "corrupt"
	reasonDecode   = "decode"
	reasonHandler  = "handler"
)

// Metrics counts gossip traffic per fork.
type Metrics struct {
	received  *prometheus.CounterVec
	rejected  *prometheus.CounterVec
	published *prometheus.CounterVec
}

// NewMetrics creates the payload gossip counters and registers them with reg
// when it is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		received: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "beaconcore",
			Subsystem: "p2p",
			Name:      "payloads_received_total",
			Help:      "Execution payloads received over gossip and decoded.",
		}, []string{"fork"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "beaconcore",
			Subsystem: "p2p",
			Name:      "payloads_rejected_total",
			Help:      "Execution payload gossip messages that were dropped.",
		}, []string{"fork", "reason"}),
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "beaconcore",
			Subsystem: "p2p",
			Name:      "payloads_published_total",
			Help:      "Execution payloads published over gossip.",
		}, []string{"fork"}),
	}
	if reg != nil {
		reg.MustRegister(m.received, m.rejected, m.published)
	}
	return m
}

func (m *Metrics) incReceived(fork types.ForkName) {
	if m != nil {
		m.received.WithLabelValues(fork.String()).Inc()
	}
}

func (m *Metrics) incRejected(fork types.ForkName, reason string) {
	if m != nil {
		m.rejected.WithLabelValues(fork.String(), reason).Inc()
	}
}

func (m *Metrics) incPublished(fork types.ForkName) {
	if m != nil {
		m.published.WithLabelValues(fork.String()).Inc()
	}
}
