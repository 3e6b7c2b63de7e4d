package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests can build as many as they like.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	reg *prometheus.Registry

	requestDuration     *prometheus.HistogramVec
	participationOps    *prometheus.CounterVec
	eventsCreated       prometheus.Counter
	rateLimitRejections prometheus.Counter
	tokensBlacklisted   prometheus.Counter
	authFailures        *prometheus.CounterVec
	panicsRecovered     prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(reg)
	return &Metrics{
		reg: reg,
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests by route and status.",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.3, 0.6, 1, 3, 6},
		}, []string{"method", "route", "status"}),
		participationOps: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "participation_operations_total",
			Help: "Participation registry operations by kind and outcome.",
		}, []string{"op", "result"}),
		eventsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "events_created_total",
			Help: "Total number of events created.",
		}),
		rateLimitRejections: factory.NewCounter(prometheus.CounterOpts{
			Name: "event_rate_limit_rejections_total",
			Help: "Event creations rejected by the daily limit.",
		}),
		tokensBlacklisted: factory.NewCounter(prometheus.CounterOpts{
			Name: "tokens_blacklisted_total",
			Help: "Tokens invalidated through logout.",
		}),
		authFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_failures_total",
			Help: "Rejected authentication attempts by reason.",
		}, []string{"reason"}),
		panicsRecovered: factory.NewCounter(prometheus.CounterOpts{
			Name: "http_panics_recovered_total",
			Help: "Total number of HTTP requests recovered from a panic.",
		}),
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// Middleware observes request latency labelled by the matched route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if m == nil {
			return
		}
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) ParticipationOp(op, result string) {
	if m == nil {
		return
	}
	m.participationOps.WithLabelValues(op, result).Inc()
}

func (m *Metrics) EventCreated() {
	if m == nil {
		return
	}
	m.eventsCreated.Inc()
}

func (m *Metrics) RateLimited() {
	if m == nil {
		return
	}
	m.rateLimitRejections.Inc()
}

func (m *Metrics) TokenBlacklisted() {
	if m == nil {
		return
	}
	m.tokensBlacklisted.Inc()
}

func (m *Metrics) AuthFailed(reason string) {
	if m == nil {
		return
	}
	m.authFailures.WithLabelValues(reason).Inc()
}

func (m *Metrics) PanicRecovered() {
	if m == nil {
		return
	}
	m.panicsRecovered.Inc()
}
