// Package metrics exposes Prometheus instruments for RPC traffic and the
// balance engine.
package metrics

import (
	"context"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "splitx"

// Metrics holds the collectors registered for one server.
type Metrics struct {
	rpcRequests        *prometheus.CounterVec
	rpcDuration        *prometheus.HistogramVec
	balanceComputation prometheus.Histogram
	suggestions        prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		rpcRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rpc_requests_total",
			Help:      "RPC calls by procedure and result code.",
		}, []string{"procedure", "code"}),
		rpcDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rpc_duration_seconds",
			Help:      "RPC latency by procedure.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"procedure"}),
		balanceComputation: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "balance_computation_seconds",
			Help:      "Time spent folding expenses into a ledger and minimizing settlements.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		suggestions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settlement_suggestions_total",
			Help:      "Settlement suggestions returned to callers.",
		}),
	}
	reg.MustRegister(m.rpcRequests, m.rpcDuration, m.balanceComputation, m.suggestions)
	return m
}

// Interceptor records a count and a latency sample for every unary call.
func (m *Metrics) Interceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			resp, err := next(ctx, req)

			procedure := req.Spec().Procedure
			code := "ok"
			if err != nil {
				code = connect.CodeOf(err).String()
			}
			m.rpcRequests.WithLabelValues(procedure, code).Inc()
			m.rpcDuration.WithLabelValues(procedure).Observe(time.Since(start).Seconds())
			return resp, err
		}
	}
}

// ObserveBalanceComputation records how long one balance computation took.
// A nil receiver is a no-op so services can run without metrics.
func (m *Metrics) ObserveBalanceComputation(d time.Duration) {
	if m == nil {
		return
	}
	m.balanceComputation.Observe(d.Seconds())
}

// AddSuggestions counts suggestions handed out.
func (m *Metrics) AddSuggestions(n int) {
	if m == nil {
		return
	}
	m.suggestions.Add(float64(n))
}
