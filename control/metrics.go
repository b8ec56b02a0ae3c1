// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Transport-layer counters exported through docker/go-metrics.
// The collectors are usable immediately; RegisterMetrics exposes them on the
// default Prometheus registry.

package control

import (
	"sync"

	metrics "github.com/docker/go-metrics"
)

var (
	ConnectAttempts    metrics.Counter
	ConnectFailures    metrics.Counter
	BindAttempts       metrics.Counter
	Accepts            metrics.Counter
	OptionTuneWarnings metrics.LabeledCounter
	ReadinessWait      metrics.Timer

	ns           *metrics.Namespace
	registerOnce sync.Once
)

func init() {
	ns = metrics.NewNamespace("hioload", "net", nil)
	ConnectAttempts = ns.NewCounter("connect_attempts", "The number of connect(2) attempts across all candidates")
	ConnectFailures = ns.NewCounter("connect_failures", "The number of connects that exhausted every candidate")
	BindAttempts = ns.NewCounter("bind_attempts", "The number of bind(2) attempts on filter-matching candidates")
	Accepts = ns.NewCounter("accepts", "The number of accepted inbound connections")
	OptionTuneWarnings = ns.NewLabeledCounter("option_tune_warnings", "The number of best-effort socket option failures", "option")
	ReadinessWait = ns.NewTimer("readiness_wait", "The time spent blocked in the readiness multiplexer")
}

// RegisterMetrics registers the namespace with the default registry once.
func RegisterMetrics() {
	registerOnce.Do(func() {
		metrics.Register(ns)
	})
}
