// Package promhook exposes sofetch lifecycle events as Prometheus metrics.
package promhook

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/danbahrami/sofetch"
)

// Collector records per-request metrics via sofetch hooks:
//
//	<ns>_requests_total{method,status}
//	<ns>_request_duration_seconds{method}
//	<ns>_failures_total{kind}
//	<ns>_in_flight_requests
//
// One Collector may be attached to multiple clients.
type Collector struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	failures *prometheus.CounterVec
	inFlight prometheus.Gauge

	starts sync.Map // *http.Request -> time.Time
}

// New registers the collector's metrics with reg (use
// prometheus.DefaultRegisterer for the default registry).
func New(reg prometheus.Registerer, namespace string) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Completed requests by method and status code.",
		}, []string{"method", "status"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Request duration from dispatch to settle.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "failures_total",
			Help:      "Failures by taxonomy kind (HTTPError, TransportError, ...).",
		}, []string{"kind"}),
		inFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "in_flight_requests",
			Help:      "Requests currently between send and settle.",
		}),
	}
}

// Attach registers the collector's observers on h. The returned closure
// removes them.
func (c *Collector) Attach(h *sofetch.Hooks) func() {
	unsubs := []func(){
		h.OnRequest(func(ctx context.Context, req *http.Request) error {
			c.starts.Store(req, time.Now())
			c.inFlight.Inc()
			return nil
		}),
		h.OnSuccess(func(ctx context.Context, req *http.Request, resp *http.Response) error {
			c.settle(req, strconv.Itoa(resp.StatusCode))
			return nil
		}),
		h.OnError(func(ctx context.Context, req *http.Request, err error) error {
			status := "0"
			if he, ok := sofetch.AsHTTPError(err); ok {
				status = strconv.Itoa(he.StatusCode)
			}
			var f sofetch.Failure
			if errors.As(err, &f) {
				c.failures.WithLabelValues(f.FailureName()).Inc()
			} else {
				c.failures.WithLabelValues("unknown").Inc()
			}
			c.settle(req, status)
			return nil
		}),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

func (c *Collector) settle(req *http.Request, status string) {
	c.inFlight.Dec()
	c.requests.WithLabelValues(req.Method, status).Inc()
	if v, ok := c.starts.LoadAndDelete(req); ok {
		c.duration.WithLabelValues(req.Method).Observe(time.Since(v.(time.Time)).Seconds())
	}
}
