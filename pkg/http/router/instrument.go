package router

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// apiCollector counts and times the API requests.
type apiCollector struct {
	gatherer prometheus.Gatherer

	requests  *prometheus.CounterVec
	durations *prometheus.HistogramVec
}

// newAPICollector registers the request metrics on reg, or on the default
// prometheus registry when reg is nil.
func newAPICollector(reg prometheus.Registerer) (*apiCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "routegen_api_requests_total",
		Help: "Handled API requests, labeled by method, path and status code.",
	}, []string{"method", "path", "code"})
	if err := reg.Register(requests); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, err
		}
		requests = are.ExistingCollector.(*prometheus.CounterVec)
	}

	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "routegen_api_request_duration_seconds",
		Help:    "API request latency in seconds.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"method", "path"})
	if err := reg.Register(durations); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, err
		}
		durations = are.ExistingCollector.(*prometheus.HistogramVec)
	}

	return &apiCollector{gatherer: gatherer, requests: requests, durations: durations}, nil
}

func (c *apiCollector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := newStatusRecorder(w)
		next.ServeHTTP(rec, r)

		c.requests.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(rec.status)).Inc()
		c.durations.WithLabelValues(r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}

func (c *apiCollector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}
