// Package metrics collects Prometheus metrics for the monitor loop.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds the monitor's Prometheus metrics.
type Collector struct {
	ticks            prometheus.Counter
	ticksSkipped     prometheus.Counter
	locationFailures prometheus.Counter
	transitions      *prometheus.CounterVec
	notifications    prometheus.Counter
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fencewatch_ticks_total",
			Help: "Completed monitor ticks.",
		}),
		ticksSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fencewatch_ticks_skipped_total",
			Help: "Ticks skipped because the previous tick was still in flight.",
		}),
		locationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fencewatch_location_failures_total",
			Help: "Ticks aborted because the location provider failed.",
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fencewatch_transitions_total",
			Help: "Detected geofence transitions by action.",
		}, []string{"action"}),
		notifications: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fencewatch_notifications_total",
			Help: "Notifications handed to the sink.",
		}),
	}

	reg.MustRegister(
		c.ticks,
		c.ticksSkipped,
		c.locationFailures,
		c.transitions,
		c.notifications,
	)
	return c
}

func (c *Collector) RecordTick()            { c.ticks.Inc() }
func (c *Collector) RecordTickSkipped()     { c.ticksSkipped.Inc() }
func (c *Collector) RecordLocationFailure() { c.locationFailures.Inc() }
func (c *Collector) RecordNotification()    { c.notifications.Inc() }

func (c *Collector) RecordTransition(action string) {
	c.transitions.WithLabelValues(action).Inc()
}
