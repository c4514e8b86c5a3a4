package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	gatewayStartedTotal   atomic.Uint64
	gatewaySucceededTotal atomic.Uint64
	gatewayFailedTotal    atomic.Uint64
	signInsTotal          atomic.Uint64
	signOutsTotal         atomic.Uint64

	gatewayDuration   = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000, 120000})
	gatewayByEndpoint = newLabeledCounter()
	wizardTransitions = newLabeledCounter()
)

// IncGatewayStarted counts a backend call about to be issued.
func IncGatewayStarted(endpoint string) {
	gatewayStartedTotal.Add(1)
	gatewayByEndpoint.Inc(endpoint)
}

// IncGatewaySucceeded counts a backend call that returned a usable response.
func IncGatewaySucceeded() {
	gatewaySucceededTotal.Add(1)
}

// IncGatewayFailed counts a backend call that ended in a network or API error.
func IncGatewayFailed() {
	gatewayFailedTotal.Add(1)
}

// ObserveGatewayDurationMs records a backend call duration in milliseconds.
func ObserveGatewayDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	gatewayDuration.Observe(value)
}

// IncWizardTransition counts a wizard step change into the named step.
func IncWizardTransition(step string) {
	wizardTransitions.Inc(step)
}

// IncSignIn counts an established session.
func IncSignIn() {
	signInsTotal.Add(1)
}

// IncSignOut counts a destroyed session.
func IncSignOut() {
	signOutsTotal.Add(1)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "gateway_requests_started_total", "Total backend requests started", gatewayStartedTotal.Load())
	writeCounter(&buf, "gateway_requests_succeeded_total", "Total backend requests succeeded", gatewaySucceededTotal.Load())
	writeCounter(&buf, "gateway_requests_failed_total", "Total backend requests failed", gatewayFailedTotal.Load())
	writeLabeledCounter(&buf, "gateway_requests_by_endpoint_total", "Backend requests by endpoint", "endpoint", gatewayByEndpoint.Snapshot())
	writeHistogram(&buf, "gateway_request_duration_ms", "Backend request duration in milliseconds", gatewayDuration.Snapshot())
	writeLabeledCounter(&buf, "wizard_transitions_total", "Wizard step transitions by target step", "step", wizardTransitions.Snapshot())
	writeCounter(&buf, "session_sign_ins_total", "Total sessions established", signInsTotal.Load())
	writeCounter(&buf, "session_sign_outs_total", "Total sessions destroyed", signOutsTotal.Load())
	return buf.String()
}

type labeledCounter struct {
	mu     sync.Mutex
	values map[string]uint64
}

func newLabeledCounter() *labeledCounter {
	return &labeledCounter{values: make(map[string]uint64)}
}

func (l *labeledCounter) Inc(label string) {
	if label == "" {
		label = "unknown"
	}
	l.mu.Lock()
	l.values[label]++
	l.mu.Unlock()
}

func (l *labeledCounter) Snapshot() map[string]uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]uint64, len(l.values))
	for k, v := range l.values {
		out[k] = v
	}
	return out
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

// Observe places the value in the first bucket whose bound covers it.
func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			return
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeLabeledCounter(buf *bytes.Buffer, name, help, label string, values map[string]uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(buf, "%s{%s=%q} %d\n", name, label, k, values[k])
	}
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// SinceMillis returns the elapsed time since start in milliseconds.
func SinceMillis(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
