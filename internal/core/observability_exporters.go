package core

import (
	"context"
	"encoding/json"
	"expvar"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var expvarSeq uint64

// OperationStats aggregates outcomes for a single service operation.
type OperationStats struct {
	Calls           int64   `json:"calls"`
	Errors          int64   `json:"errors"`
	TotalDurationMS float64 `json:"total_duration_ms"`
}

// ExpvarMetricsRecorder publishes per-operation counters and timing totals
// via expvar for deployments that prefer process-local metrics.
type ExpvarMetricsRecorder struct {
	name  string
	mu    sync.Mutex
	stats map[string]OperationStats
}

// ExpvarMetricsSnapshot captures a read-only view of the recorded metrics.
type ExpvarMetricsSnapshot struct {
	Operations map[string]OperationStats `json:"operations"`
	RecordedAt time.Time                 `json:"recorded_at"`
}

// NewExpvarMetricsRecorder constructs an expvar-backed recorder and publishes
// it under the supplied name. When name is empty, a unique identifier is
// generated.
func NewExpvarMetricsRecorder(name string) *ExpvarMetricsRecorder {
	if name == "" {
		id := atomic.AddUint64(&expvarSeq, 1)
		name = fmt.Sprintf("order_service_metrics_%d", id)
	}
	rec := &ExpvarMetricsRecorder{
		name:  name,
		stats: make(map[string]OperationStats),
	}
	expvar.Publish(name, expvar.Func(func() any {
		return rec.Snapshot()
	}))
	return rec
}

// Name returns the expvar export name associated with the recorder.
func (r *ExpvarMetricsRecorder) Name() string {
	return r.name
}

// Snapshot returns an immutable copy of the aggregated metrics.
func (r *ExpvarMetricsRecorder) Snapshot() ExpvarMetricsSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	ops := make(map[string]OperationStats, len(r.stats))
	for op, s := range r.stats {
		ops[op] = s
	}
	return ExpvarMetricsSnapshot{
		Operations: ops,
		RecordedAt: time.Now().UTC(),
	}
}

// Observe records a service operation outcome.
func (r *ExpvarMetricsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	r.mu.Lock()
	s := r.stats[operation]
	s.Calls++
	if !success {
		s.Errors++
	}
	s.TotalDurationMS += float64(duration) / float64(time.Millisecond)
	r.stats[operation] = s
	r.mu.Unlock()
}

// PrometheusMetricsRecorder exposes operation counters and latency histograms
// through a prometheus registry.
type PrometheusMetricsRecorder struct {
	operations *prometheus.CounterVec
	latency    *prometheus.HistogramVec
}

// NewPrometheusMetricsRecorder registers the recorder's collectors with reg.
// A nil registry falls back to the default prometheus registerer.
func NewPrometheusMetricsRecorder(reg prometheus.Registerer) (*PrometheusMetricsRecorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	rec := &PrometheusMetricsRecorder{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ordercore",
			Name:      "service_operations_total",
			Help:      "Service operations by name and outcome.",
		}, []string{"operation", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ordercore",
			Name:      "service_operation_duration_seconds",
			Help:      "Service operation latency by name.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	if err := reg.Register(rec.operations); err != nil {
		return nil, fmt.Errorf("register operations counter: %w", err)
	}
	if err := reg.Register(rec.latency); err != nil {
		return nil, fmt.Errorf("register latency histogram: %w", err)
	}
	return rec, nil
}

// Observe records a service operation outcome.
func (r *PrometheusMetricsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	status := "error"
	if success {
		status = "success"
	}
	r.operations.WithLabelValues(operation, status).Inc()
	r.latency.WithLabelValues(operation).Observe(duration.Seconds())
}

// JSONTraceEntry represents a serialized trace span emitted by JSONTraceTracer.
type JSONTraceEntry struct {
	Operation  string    `json:"operation"`
	Status     string    `json:"status"`
	DurationMS float64   `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	EndedAt    time.Time `json:"ended_at"`
}

// JSONTraceTracer serializes spans to a writer and retains them for inspection.
type JSONTraceTracer struct {
	mu      sync.Mutex
	entries []JSONTraceEntry
	enc     *json.Encoder
}

// NewJSONTracer constructs a tracer that writes spans as JSON lines to the
// writer. The tracer retains all encoded spans for later inspection via
// Entries().
func NewJSONTracer(w io.Writer) *JSONTraceTracer {
	var enc *json.Encoder
	if w != nil {
		enc = json.NewEncoder(w)
	}
	return &JSONTraceTracer{enc: enc}
}

// Entries returns a copy of all recorded spans.
func (t *JSONTraceTracer) Entries() []JSONTraceEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]JSONTraceEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Start implements the Tracer interface.
func (t *JSONTraceTracer) Start(ctx context.Context, operation string) (context.Context, TraceSpan) {
	return ctx, &jsonTraceSpan{
		tracer:    t,
		operation: operation,
		started:   time.Now().UTC(),
	}
}

type jsonTraceSpan struct {
	tracer    *JSONTraceTracer
	operation string
	started   time.Time
}

func (s *jsonTraceSpan) End(err error) {
	status := "success"
	var errMsg string
	if err != nil {
		status = "error"
		errMsg = err.Error()
	}
	ended := time.Now().UTC()
	entry := JSONTraceEntry{
		Operation:  s.operation,
		Status:     status,
		DurationMS: float64(ended.Sub(s.started)) / float64(time.Millisecond),
		Error:      errMsg,
		StartedAt:  s.started,
		EndedAt:    ended,
	}

	s.tracer.mu.Lock()
	s.tracer.entries = append(s.tracer.entries, entry)
	if s.tracer.enc != nil {
		_ = s.tracer.enc.Encode(entry)
	}
	s.tracer.mu.Unlock()
}

// JSONAuditRecorder writes audit entries as JSON lines and retains them for
// inspection.
type JSONAuditRecorder struct {
	mu      sync.Mutex
	entries []AuditEntry
	enc     *json.Encoder
}

// NewJSONAuditRecorder constructs a recorder that encodes entries to w.
// A nil writer retains entries without encoding them.
func NewJSONAuditRecorder(w io.Writer) *JSONAuditRecorder {
	var enc *json.Encoder
	if w != nil {
		enc = json.NewEncoder(w)
	}
	return &JSONAuditRecorder{enc: enc}
}

// Record implements the AuditRecorder interface.
func (r *JSONAuditRecorder) Record(_ context.Context, entry AuditEntry) {
	r.mu.Lock()
	r.entries = append(r.entries, entry)
	if r.enc != nil {
		_ = r.enc.Encode(entry)
	}
	r.mu.Unlock()
}

// Entries returns a copy of all recorded audit entries.
func (r *JSONAuditRecorder) Entries() []AuditEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]AuditEntry, len(r.entries))
	copy(out, r.entries)
	return out
}
