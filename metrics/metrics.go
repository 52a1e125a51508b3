package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var ExecutionsStarted = promauto.NewCounter(prometheus.CounterOpts{
	Name: "loom_executions_started_total",
	Help: "Number of executions submitted.",
})

var ExecutionsFinished = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "loom_executions_finished_total",
	Help: "Number of executions reaching a terminal state.",
}, []string{"status"})

var NodeRuns = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "loom_node_runs_total",
	Help: "Number of node invocations by kind and result.",
}, []string{"kind", "result"})

var NodeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "loom_node_duration_seconds",
	Help:    "Wall-clock duration of node invocations.",
	Buckets: prometheus.DefBuckets,
}, []string{"kind"})
