package httpapi

import (
	"net/http"
	"time"

	"mysterybox/internal/application"
	"mysterybox/internal/streaming"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics observes the tracker, the RPC client and the event stream. It
// satisfies the observer interfaces those packages accept.
type Metrics struct {
	registry    *prometheus.Registry
	startTime   time.Time
	acks        *prometheus.CounterVec
	rpcDuration *prometheus.HistogramVec
	published   *prometheus.CounterVec
	consumed    *prometheus.CounterVec
	consumeErrs *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry:  prometheus.NewRegistry(),
		startTime: time.Now(),
		acks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mysterybox",
			Name:      "acknowledgements_total",
			Help:      "Acknowledge calls by effect kind and resulting state.",
		}, []string{"kind", "state"}),
		rpcDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "mysterybox",
			Name:      "rpc_duration_seconds",
			Help:      "Duration of NEAR JSON-RPC round trips.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
		}, []string{"method", "result"}),
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mysterybox",
			Name:      "events_published_total",
			Help:      "Acknowledgement events published.",
		}, []string{"kind", "result"}),
		consumed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mysterybox",
			Name:      "events_consumed_total",
			Help:      "Acknowledgement events consumed by the notifier.",
		}, []string{"kind"}),
		consumeErrs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mysterybox",
			Name:      "event_consume_errors_total",
			Help:      "Notifier errors by stage.",
		}, []string{"stage"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "mysterybox",
			Name:      "uptime_seconds",
			Help:      "Seconds since the process started.",
		}, func() float64 { return time.Since(m.startTime).Seconds() }),
		m.acks,
		m.rpcDuration,
		m.published,
		m.consumed,
		m.consumeErrs,
	)
	return m
}

func (m *Metrics) OnAcknowledge(kind streaming.AckKind, state application.AckState) {
	m.acks.WithLabelValues(string(kind), string(state)).Inc()
}

func (m *Metrics) ObserveRPC(method string, duration time.Duration, err error) {
	m.rpcDuration.WithLabelValues(method, resultLabel(err)).Observe(duration.Seconds())
}

func (m *Metrics) OnPublished(kind streaming.AckKind, err error) {
	m.published.WithLabelValues(string(kind), resultLabel(err)).Inc()
}

func (m *Metrics) OnConsumed(kind streaming.AckKind) {
	m.consumed.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) IncConsumeErr(stage string) {
	m.consumeErrs.WithLabelValues(stage).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
