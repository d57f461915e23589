package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var durationBuckets = []float64{0.001, 0.0025, 0.005, 0.010, 0.025, 0.050, 0.100, 0.250, 0.500, 1.0, 2.5, 5.0, 10.0}

// A Manager collects prometheus metrics and serves them
// along with a health endpoint.
type Manager struct {
	reqDurationMetric      *prometheus.HistogramVec
	reqTotalMetric         *prometheus.CounterVec
	errorMetric            *prometheus.CounterVec
	tcpConnTotalMetric     prometheus.Counter
	tcpConnCurrentMetric   prometheus.Gauge
	sessionTotalMetric     *prometheus.CounterVec
	sessionCurrentMetric   *prometheus.GaugeVec
	toolCallTotalMetric    *prometheus.CounterVec
	toolCallDurationMetric *prometheus.HistogramVec

	registry *prometheus.Registry
	server   *http.Server
}

// NewManager returns a new *Manager that will serve
// the health and metrics endpoints on the given listen address.
func NewManager(listen string) *Manager {

	r := prometheus.NewRegistry()

	mc := &Manager{

		reqTotalMetric: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "The total number of requests.",
			},
			[]string{"method", "url", "code"},
		),
		reqDurationMetric: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_requests_duration_seconds",
				Help:    "The average duration of the requests",
				Buckets: durationBuckets,
			},
			[]string{"method", "url"},
		),
		errorMetric: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_errors_5xx_total",
				Help: "The total number of 5xx errors.",
			},
			[]string{"method", "url", "code"},
		),
		tcpConnTotalMetric: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tcp_connections_total",
				Help: "The total number of TCP connection.",
			},
		),
		tcpConnCurrentMetric: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "tcp_connections_current",
				Help: "The current number of TCP connection.",
			},
		),
		sessionTotalMetric: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mcp_sessions_total",
				Help: "The total number of sessions.",
			},
			[]string{"transport"},
		),
		sessionCurrentMetric: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "mcp_sessions_current",
				Help: "The current number of sessions.",
			},
			[]string{"transport"},
		),
		toolCallTotalMetric: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mcp_tool_calls_total",
				Help: "The total number of tool calls.",
			},
			[]string{"tool", "outcome"},
		),
		toolCallDurationMetric: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mcp_tool_calls_duration_seconds",
				Help:    "The average duration of the tool calls",
				Buckets: durationBuckets,
			},
			[]string{"tool"},
		),

		registry: r,
	}

	r.MustRegister(collectors.NewGoCollector())
	r.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	r.MustRegister(mc.reqTotalMetric)
	r.MustRegister(mc.reqDurationMetric)
	r.MustRegister(mc.errorMetric)
	r.MustRegister(mc.tcpConnTotalMetric)
	r.MustRegister(mc.tcpConnCurrentMetric)
	r.MustRegister(mc.sessionTotalMetric)
	r.MustRegister(mc.sessionCurrentMetric)
	r.MustRegister(mc.toolCallTotalMetric)
	r.MustRegister(mc.toolCallDurationMetric)

	mc.server = &http.Server{
		Addr:              listen,
		ReadHeaderTimeout: time.Second,
		Handler:           mc,
	}

	return mc
}

// Start starts the health server. It blocks until the given
// context is canceled or the server fails.
func (c *Manager) Start(ctx context.Context) error {

	errCh := make(chan error, 1)

	sctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.server.BaseContext = func(net.Listener) context.Context { return sctx }
	c.server.RegisterOnShutdown(func() { cancel() })

	go func() {
		err := c.server.ListenAndServe()
		if err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				slog.Error("unable to start health server", "err", err)
			}
		}
		errCh <- err
	}()

	select {
	case <-sctx.Done():
	case err := <-errCh:
		return err
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()

	return c.server.Shutdown(stopCtx)
}

// MeasureRequest starts measuring an HTTP request. The returned
// function must be called with the response status code.
func (c *Manager) MeasureRequest(method string, path string) func(int) time.Duration {

	timer := prometheus.NewTimer(
		prometheus.ObserverFunc(
			func(v float64) {
				c.reqDurationMetric.With(
					prometheus.Labels{
						"method": method,
						"url":    path,
					},
				).Observe(v)
			},
		),
	)

	return func(code int) time.Duration {

		c.reqTotalMetric.With(prometheus.Labels{
			"method": method,
			"url":    path,
			"code":   strconv.Itoa(code),
		}).Inc()

		if code >= http.StatusInternalServerError {

			c.errorMetric.With(prometheus.Labels{
				"method": method,
				"url":    path,
				"code":   strconv.Itoa(code),
			}).Inc()
		}

		return timer.ObserveDuration()
	}
}

// MeasureToolCall starts measuring a tool call. The returned
// function must be called with the outcome of the call.
func (c *Manager) MeasureToolCall(tool string) func(outcome string) time.Duration {

	timer := prometheus.NewTimer(
		prometheus.ObserverFunc(
			func(v float64) {
				c.toolCallDurationMetric.With(prometheus.Labels{"tool": tool}).Observe(v)
			},
		),
	)

	return func(outcome string) time.Duration {
		c.toolCallTotalMetric.With(prometheus.Labels{
			"tool":    tool,
			"outcome": outcome,
		}).Inc()

		return timer.ObserveDuration()
	}
}

// RegisterSession records a new session on the given transport.
func (c *Manager) RegisterSession(transport string) {
	c.sessionTotalMetric.With(prometheus.Labels{"transport": transport}).Inc()
	c.sessionCurrentMetric.With(prometheus.Labels{"transport": transport}).Inc()
}

// UnregisterSession records the end of a session on the given transport.
func (c *Manager) UnregisterSession(transport string) {
	c.sessionCurrentMetric.With(prometheus.Labels{"transport": transport}).Dec()
}

func (c *Manager) RegisterTCPConnection() {
	c.tcpConnTotalMetric.Inc()
	c.tcpConnCurrentMetric.Inc()
}

func (c *Manager) UnregisterTCPConnection() {
	c.tcpConnCurrentMetric.Dec()
}

func (c *Manager) ServeHTTP(w http.ResponseWriter, req *http.Request) {

	switch req.URL.Path {

	case "/":
		w.WriteHeader(http.StatusNoContent)

	case "/metrics":
		promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{}).ServeHTTP(w, req)

	default:
		http.Error(w, "Not found", http.StatusNotFound)
	}
}
