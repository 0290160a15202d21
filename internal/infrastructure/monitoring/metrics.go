package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "talentscout"

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Service metrics
	ServiceCalls    *prometheus.CounterVec
	ServiceDuration *prometheus.HistogramVec

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec
	WSBroadcasts  prometheus.Counter
	WSDropped     *prometheus.CounterVec

	// Agent metrics
	AgentRuns   *prometheus.CounterVec
	AgentChunks *prometheus.CounterVec
	ToolCalls   *prometheus.CounterVec

	Uptime    prometheus.GaugeFunc
	startTime time.Time
}

// NewMetrics registers the backend metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{startTime: time.Now()}

	m.RequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	m.RequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.005, .01, .05, .1, .5, 1, 5, 15, 60, 300},
		},
		[]string{"method", "path"},
	)

	m.ServiceCalls = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "service_calls_total",
			Help:      "Total number of outbound service calls",
		},
		[]string{"service", "method", "status"},
	)
	m.ServiceDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "service_duration_seconds",
			Help:      "Outbound service call duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method"},
	)

	m.WSConnections = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "ws_connections",
		Help:      "Number of registered WebSocket connections",
	})
	m.WSMessages = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_messages_total",
			Help:      "Total number of WebSocket messages",
		},
		[]string{"direction", "type"},
	)
	m.WSBroadcasts = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ws_broadcasts_total",
		Help:      "Total number of broadcast calls",
	})
	m.WSDropped = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_dropped_total",
			Help:      "Messages not delivered to a registered connection",
		},
		[]string{"reason"},
	)

	m.AgentRuns = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "agent_runs_total",
			Help:      "Total number of agent runs",
		},
		[]string{"status"},
	)
	m.AgentChunks = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "agent_chunks_total",
			Help:      "Total number of streamed agent chunks",
		},
		[]string{"type"},
	)
	m.ToolCalls = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Total number of agent tool invocations",
		},
		[]string{"tool", "status"},
	)

	m.Uptime = factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "uptime_seconds",
		Help:      "Backend uptime in seconds",
	}, func() float64 {
		return time.Since(m.startTime).Seconds()
	})

	return m
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordServiceCall records an outbound service call
func (m *Metrics) RecordServiceCall(service, method, status string, duration time.Duration) {
	m.ServiceCalls.WithLabelValues(service, method, status).Inc()
	m.ServiceDuration.WithLabelValues(service, method).Observe(duration.Seconds())
}

// ConnectionOpened increments the WebSocket connection gauge.
func (m *Metrics) ConnectionOpened() { m.WSConnections.Inc() }

// ConnectionClosed decrements the WebSocket connection gauge.
func (m *Metrics) ConnectionClosed() { m.WSConnections.Dec() }

// MessageSent records an outbound WebSocket message.
func (m *Metrics) MessageSent(msgType string) {
	m.WSMessages.WithLabelValues("out", msgType).Inc()
}

// MessageReceived records an inbound WebSocket frame.
func (m *Metrics) MessageReceived() {
	m.WSMessages.WithLabelValues("in", "frame").Inc()
}

// Broadcast records one broadcast call.
func (m *Metrics) Broadcast() { m.WSBroadcasts.Inc() }

// Dropped records an undelivered message.
func (m *Metrics) Dropped(reason string) {
	m.WSDropped.WithLabelValues(reason).Inc()
}

// AgentRun records the outcome of an agent run.
func (m *Metrics) AgentRun(status string) {
	m.AgentRuns.WithLabelValues(status).Inc()
}

// AgentChunk records a streamed chunk.
func (m *Metrics) AgentChunk(chunkType string) {
	m.AgentChunks.WithLabelValues(chunkType).Inc()
}

// ToolCall records a tool invocation.
func (m *Metrics) ToolCall(tool, status string) {
	m.ToolCalls.WithLabelValues(tool, status).Inc()
}
