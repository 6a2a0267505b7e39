package server

import (
	"context"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Metrics keeps in-process counters and mirrors them into OpenTelemetry
// instruments.
type Metrics struct {
	RequestsTotal     atomic.Int64
	ActiveConnections atomic.Int64
	ErrorsTotal       atomic.Int64
	Errors4xx         atomic.Int64
	Errors5xx         atomic.Int64
	ParseErrors       atomic.Int64
	TotalLatencyNs    atomic.Int64

	requests    metric.Int64Counter
	parseErrors metric.Int64Counter
	active      metric.Int64UpDownCounter
	duration    metric.Float64Histogram
}

// NewMetrics creates the instruments on meter. A nil meter records nothing
// beyond the in-process counters.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter(instrumentationName)
	}

	m := &Metrics{}
	var err error

	m.requests, err = meter.Int64Counter("http.server.requests",
		metric.WithDescription("Number of requests handled"),
		metric.WithUnit("{request}"))
	if err != nil {
		return nil, err
	}

	m.parseErrors, err = meter.Int64Counter("http.server.parse_errors",
		metric.WithDescription("Number of connections whose request could not be parsed"),
		metric.WithUnit("{connection}"))
	if err != nil {
		return nil, err
	}

	m.active, err = meter.Int64UpDownCounter("http.server.active_connections",
		metric.WithDescription("Number of connections being served"),
		metric.WithUnit("{connection}"))
	if err != nil {
		return nil, err
	}

	m.duration, err = meter.Float64Histogram("http.server.request.duration",
		metric.WithDescription("Time from accept to response written"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

func (m *Metrics) ConnOpened() {
	m.ActiveConnections.Add(1)
	m.active.Add(context.Background(), 1)
}

func (m *Metrics) ConnClosed() {
	m.ActiveConnections.Add(-1)
	m.active.Add(context.Background(), -1)
}

// RecordParseError counts a connection whose request was rejected by the parser
func (m *Metrics) RecordParseError(ctx context.Context) {
	m.ParseErrors.Add(1)
	m.parseErrors.Add(ctx, 1)
}

// RecordRequest records a completed request
func (m *Metrics) RecordRequest(ctx context.Context, method string, statusCode int, duration time.Duration) {
	m.RequestsTotal.Add(1)
	m.TotalLatencyNs.Add(duration.Nanoseconds())

	if statusCode >= 400 && statusCode < 500 {
		m.Errors4xx.Add(1)
	} else if statusCode >= 500 {
		m.Errors5xx.Add(1)
		m.ErrorsTotal.Add(1)
	}

	attrs := metric.WithAttributes(
		attribute.String("http.request.method", method),
		attribute.Int("http.response.status_code", statusCode),
	)
	m.requests.Add(ctx, 1, attrs)
	m.duration.Record(ctx, duration.Seconds(), attrs)
}

// AverageLatency returns average request latency
func (m *Metrics) AverageLatency() time.Duration {
	totalReqs := m.RequestsTotal.Load()
	if totalReqs == 0 {
		return 0
	}

	avgNs := m.TotalLatencyNs.Load() / totalReqs
	return time.Duration(avgNs)
}

// MetricsSnapshot is a point-in-time copy of the counters
type MetricsSnapshot struct {
	RequestsTotal     int64
	ActiveConnections int64
	ErrorsTotal       int64
	Errors4xx         int64
	Errors5xx         int64
	ParseErrors       int64
	AverageLatency    time.Duration
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		RequestsTotal:     m.RequestsTotal.Load(),
		ActiveConnections: m.ActiveConnections.Load(),
		ErrorsTotal:       m.ErrorsTotal.Load(),
		Errors4xx:         m.Errors4xx.Load(),
		Errors5xx:         m.Errors5xx.Load(),
		ParseErrors:       m.ParseErrors.Load(),
		AverageLatency:    m.AverageLatency(),
	}
}
