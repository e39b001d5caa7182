// Package metrics defines the Prometheus collectors for the
// collaboration server. A Set is built against an explicit registerer
// so tests and embedded instances can use private registries.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Set holds every collector the server exports.
type Set struct {
	ConnectionsActive prometheus.Gauge
	SessionsActive    prometheus.Gauge
	EventsRelayed     *prometheus.CounterVec
	DeliveryFailures  prometheus.Counter
}

// New registers the collectors with reg and returns the set.
func New(reg prometheus.Registerer) *Set {
	factory := promauto.With(reg)
	return &Set{
		ConnectionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "cozyui_connections_active",
			Help: "Number of currently registered collaboration connections",
		}),
		SessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "cozyui_sessions_active",
			Help: "Number of sessions with at least one member",
		}),
		EventsRelayed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cozyui_events_relayed_total",
			Help: "Interaction events fanned out to session members",
		}, []string{"type"}),
		DeliveryFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "cozyui_delivery_failures_total",
			Help: "Per-member deliveries dropped due to slow or closed connections",
		}),
	}
}

// NewUnregistered returns a set backed by a throwaway registry, for
// components that run without an exporter (tests, library use).
func NewUnregistered() *Set {
	return New(prometheus.NewRegistry())
}
