package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Setup flow metrics
	FlowsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "homelybridge_flows_started_total",
		Help: "The total number of setup flows started",
	})

	FlowOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "homelybridge_flow_outcomes_total",
		Help: "The total number of finished setup flows by outcome",
	}, []string{"outcome"})

	// Polling metrics
	PollCycles = promauto.NewCounter(prometheus.CounterOpts{
		Name: "homelybridge_poll_cycles_total",
		Help: "The total number of alarm state refresh cycles",
	})

	PollErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "homelybridge_poll_errors_total",
		Help: "The total number of failed location polls by reason",
	}, []string{"reason"})

	// Projector metrics
	ProjectionFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "homelybridge_projection_fallbacks_total",
		Help: "The total number of raw alarm states projected onto unknown",
	})

	ConfiguredLocations = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "homelybridge_configured_locations",
		Help: "The number of configured installations",
	})
)
