package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "stopwatchd"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	commandDuration *prom.HistogramVec
	commandResults  *prom.CounterVec
	stopwatches     *prom.GaugeVec
	queueDepth      prom.Gauge
	connections     *prom.CounterVec
	events          *prom.CounterVec
}

// NewPrometheusRecorder constructs the collectors and registers them on reg.
// A nil reg gets a private registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		commandDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "command_duration_seconds",
			Help:      "Time from enqueue to reply for daemon commands",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		}, []string{"command"}),
		commandResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "command_results_total",
			Help:      "Commands by kind and outcome",
		}, []string{"command", "result"}),
		stopwatches: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "stopwatches",
			Help:      "Live stopwatches by state",
		}, []string{"state"}),
		queueDepth: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Commands waiting for the manager",
		}),
		connections: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "connections_total",
			Help:      "Client connections by outcome",
		}, []string{"result"}),
		events: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Stopwatch events published by type",
		}, []string{"type"}),
	}
	reg.MustRegister(pr.commandDuration, pr.commandResults, pr.stopwatches, pr.queueDepth, pr.connections, pr.events)
	return pr
}

func (p *PrometheusRecorder) ObserveCommandDuration(kind string, d time.Duration) {
	if p == nil {
		return
	}
	p.commandDuration.WithLabelValues(kind).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncCommandResult(kind string, result ResultLabel) {
	if p == nil {
		return
	}
	p.commandResults.WithLabelValues(kind, string(result)).Inc()
}

func (p *PrometheusRecorder) SetStopwatches(state string, n int) {
	if p == nil {
		return
	}
	p.stopwatches.WithLabelValues(state).Set(float64(n))
}

func (p *PrometheusRecorder) SetQueueDepth(n int) {
	if p == nil {
		return
	}
	p.queueDepth.Set(float64(n))
}

func (p *PrometheusRecorder) IncConnection(accepted bool) {
	if p == nil {
		return
	}
	res := "rejected"
	if accepted {
		res = "accepted"
	}
	p.connections.WithLabelValues(res).Inc()
}

func (p *PrometheusRecorder) IncEvent(eventType string) {
	if p == nil {
		return
	}
	p.events.WithLabelValues(eventType).Inc()
}
