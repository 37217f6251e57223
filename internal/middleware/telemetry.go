package middleware

import (
	"bufio"
	"errors"
	"math"
	"net"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const slowRequestThreshold = time.Second

// RouteLatency is the rolling latency summary of one route pattern.
type RouteLatency struct {
	Route   string `json:"route"`
	Samples int    `json:"samples"`
	P50Ms   int64  `json:"p50Ms"`
	P95Ms   int64  `json:"p95Ms"`
}

// ring keeps the most recent samples of one route.
type ring struct {
	buf  []int64
	next int
	full bool
}

func (r *ring) push(v int64) {
	r.buf[r.next] = v
	r.next++
	if r.next == len(r.buf) {
		r.next = 0
		r.full = true
	}
}

func (r *ring) sorted() []int64 {
	n := r.next
	if r.full {
		n = len(r.buf)
	}
	out := make([]int64, n)
	copy(out, r.buf[:n])
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

type latencyAggregator struct {
	mu     sync.Mutex
	size   int
	routes map[string]*ring
}

func newLatencyAggregator(size int) *latencyAggregator {
	return &latencyAggregator{size: size, routes: make(map[string]*ring)}
}

func (a *latencyAggregator) record(route string, ms int64) (p50, p95 int64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	rg, ok := a.routes[route]
	if !ok {
		rg = &ring{buf: make([]int64, a.size)}
		a.routes[route] = rg
	}
	rg.push(ms)
	values := rg.sorted()
	return percentile(values, 0.5), percentile(values, 0.95)
}

func (a *latencyAggregator) routesSnapshot() []RouteLatency {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]RouteLatency, 0, len(a.routes))
	for route, rg := range a.routes {
		values := rg.sorted()
		out = append(out, RouteLatency{
			Route:   route,
			Samples: len(values),
			P50Ms:   percentile(values, 0.5),
			P95Ms:   percentile(values, 0.95),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Route < out[j].Route })
	return out
}

// percentile expects values sorted ascending.
func percentile(values []int64, p float64) int64 {
	n := len(values)
	switch {
	case n == 0:
		return 0
	case p <= 0:
		return values[0]
	case p >= 1:
		return values[n-1]
	}
	idx := int(math.Ceil(p*float64(n))) - 1
	if idx < 0 {
		idx = 0
	}
	return values[idx]
}

var routeLatency = newLatencyAggregator(200)

// RouteLatencies reports the rolling latency window of every route seen.
func RouteLatencies() []RouteLatency {
	return routeLatency.routesSnapshot()
}

type telemetryRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *telemetryRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *telemetryRecorder) Write(data []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(data)
	r.bytes += n
	return n, err
}

func (r *telemetryRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack lets the staff websocket upgrade through the recorder.
func (r *telemetryRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("hijacker not supported")
	}
	if r.status == 0 {
		r.status = http.StatusSwitchingProtocols
	}
	return h.Hijack()
}

func routeKey(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if pattern := rc.RoutePattern(); pattern != "" {
			return r.Method + " " + pattern
		}
	}
	return r.Method + " " + r.URL.Path
}

// Telemetry logs one line per request and feeds the per-route latency window.
// Server errors log at error level and slow requests at warn.
func Telemetry(logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &telemetryRecorder{ResponseWriter: w}

			next.ServeHTTP(rec, r)

			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}
			elapsed := time.Since(start)
			route := routeKey(r)
			p50, p95 := routeLatency.record(route, elapsed.Milliseconds())

			level := zapcore.InfoLevel
			switch {
			case status >= 500:
				level = zapcore.ErrorLevel
			case elapsed >= slowRequestThreshold:
				level = zapcore.WarnLevel
			}
			if ce := logger.Check(level, "http_request"); ce != nil {
				ce.Write(
					zap.String("route", route),
					zap.String("path", r.URL.Path),
					zap.String("requestId", readRequestID(r)),
					zap.Int("status", status),
					zap.Int("bytes", rec.bytes),
					zap.Int64("duration_ms", elapsed.Milliseconds()),
					zap.Int64("p50_ms", p50),
					zap.Int64("p95_ms", p95),
				)
			}
		})
	}
}
