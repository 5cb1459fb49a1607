package observability

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

// Metrics agrupa los colectores del proceso en un registro propio.
type Metrics struct {
	registry *prometheus.Registry

	upstreamRequests *prometheus.CounterVec
	upstreamLatency  *prometheus.HistogramVec
	httpRequests     *prometheus.CounterVec
	sessionEvents    *prometheus.CounterVec
	fetchesCanceled  prometheus.Counter
}

// NewMetrics registra los colectores; cada instancia es independiente.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		upstreamRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "blogverse_upstream_requests_total",
			Help: "Calls to the blog API by operation and status code (0 on transport failure)",
		}, []string{"op", "status"}),
		upstreamLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "blogverse_upstream_request_duration_seconds",
			Help:    "Blog API call latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "blogverse_http_requests_total",
			Help: "Served requests by method, route and status",
		}, []string{"method", "route", "status"}),
		sessionEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "blogverse_session_events_total",
			Help: "Session logins and logouts",
		}, []string{"kind"}),
		fetchesCanceled: factory.NewCounter(prometheus.CounterOpts{
			Name: "blogverse_fetches_canceled_total",
			Help: "View fetches canceled by a newer fetch or a logout",
		}),
	}
}

// ObserveUpstream implementa blogapi.Recorder.
func (m *Metrics) ObserveUpstream(op string, status int, elapsed time.Duration) {
	m.upstreamRequests.WithLabelValues(op, strconv.Itoa(status)).Inc()
	m.upstreamLatency.WithLabelValues(op).Observe(elapsed.Seconds())
}

// SessionEvent cuenta un login (authenticated=true) o un logout.
func (m *Metrics) SessionEvent(authenticated bool) {
	kind := "logout"
	if authenticated {
		kind = "login"
	}
	m.sessionEvents.WithLabelValues(kind).Inc()
}

// FetchCanceled cuenta una carga de vista cancelada.
func (m *Metrics) FetchCanceled() {
	m.fetchesCanceled.Inc()
}

// Middleware cuenta cada request por la ruta registrada, no por el path crudo.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

// Handler expone el registro en formato Prometheus.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry expone el registro para pruebas.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// NewServer arma el listener de administracion: solo sirve /metrics, separado del
// router publico.
func (m *Metrics) NewServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
