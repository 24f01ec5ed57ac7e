package core

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
)

type capturedObservation struct {
	op      string
	success bool
}

type captureMetrics struct {
	mu  sync.Mutex
	obs []capturedObservation
}

func (c *captureMetrics) Observe(_ context.Context, op string, success bool, _ time.Duration) {
	c.mu.Lock()
	c.obs = append(c.obs, capturedObservation{op: op, success: success})
	c.mu.Unlock()
}

type captureSpan struct {
	op  string
	err error
}

type captureTracer struct {
	mu    sync.Mutex
	spans []*captureSpan
}

func (c *captureTracer) Start(ctx context.Context, op string) (context.Context, TraceSpan) {
	span := &captureSpan{op: op}
	c.mu.Lock()
	c.spans = append(c.spans, span)
	c.mu.Unlock()
	return ctx, span
}

func (s *captureSpan) End(err error) { s.err = err }

func TestServiceEmitsMetricsTracesAndAudit(t *testing.T) {
	metrics := &captureMetrics{}
	tracer := &captureTracer{}
	audit := NewJSONAuditRecorder(nil)
	svc := NewInMemoryService(
		WithMetricsRecorder(metrics),
		WithTracer(tracer),
		WithAuditRecorder(audit),
	)
	ctx := asPrincipal("seller-1")

	product := mustCreateProduct(t, svc, ctx, "laptop", 1200, 10)
	if _, err := svc.GetProduct(ctx, "missing"); err == nil {
		t.Fatalf("expected lookup failure")
	}

	metrics.mu.Lock()
	obs := append([]capturedObservation(nil), metrics.obs...)
	metrics.mu.Unlock()
	if len(obs) != 2 {
		t.Fatalf("observations = %d, want 2", len(obs))
	}
	if obs[0].op != "create_product" || !obs[0].success {
		t.Fatalf("first observation = %+v", obs[0])
	}
	if obs[1].op != "get_product" || obs[1].success {
		t.Fatalf("second observation = %+v", obs[1])
	}

	if len(tracer.spans) != 2 {
		t.Fatalf("spans = %d, want 2", len(tracer.spans))
	}
	if tracer.spans[0].err != nil {
		t.Fatalf("create span err = %v", tracer.spans[0].err)
	}
	if tracer.spans[1].err == nil {
		t.Fatalf("failed lookup span should carry the error")
	}

	entries := audit.Entries()
	if len(entries) != 2 {
		t.Fatalf("audit entries = %d, want 2", len(entries))
	}
	if entries[0].Status != AuditStatusSuccess || entries[0].EntityID != product.ID {
		t.Fatalf("first entry = %+v", entries[0])
	}
	if entries[0].Principal != "seller-1" {
		t.Fatalf("principal = %q", entries[0].Principal)
	}
	if entries[1].Status != AuditStatusError || entries[1].Error == "" {
		t.Fatalf("second entry = %+v", entries[1])
	}
}

func TestExpvarMetricsRecorderAggregates(t *testing.T) {
	rec := NewExpvarMetricsRecorder("")
	rec.Observe(context.Background(), "create_order", true, 10*time.Millisecond)
	rec.Observe(context.Background(), "create_order", false, 5*time.Millisecond)
	rec.Observe(context.Background(), "", true, time.Millisecond)

	snap := rec.Snapshot()
	stats, ok := snap.Operations["create_order"]
	if !ok {
		t.Fatalf("create_order missing from snapshot: %+v", snap)
	}
	if stats.Calls != 2 || stats.Errors != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	if stats.TotalDurationMS < 14 || stats.TotalDurationMS > 16 {
		t.Fatalf("duration total = %v", stats.TotalDurationMS)
	}
	if len(snap.Operations) != 1 {
		t.Fatalf("empty operation names must be dropped: %+v", snap.Operations)
	}
	if rec.Name() == "" {
		t.Fatalf("generated name should not be empty")
	}
}

func TestJSONTracerRecordsSpans(t *testing.T) {
	buf := &bytes.Buffer{}
	tracer := NewJSONTracer(buf)
	_, span := tracer.Start(context.Background(), "update_order")
	span.End(nil)
	_, span = tracer.Start(context.Background(), "delete_order")
	span.End(context.DeadlineExceeded)

	entries := tracer.Entries()
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].Operation != "update_order" || entries[0].Status != "success" {
		t.Fatalf("first entry = %+v", entries[0])
	}
	if entries[1].Status != "error" || entries[1].Error == "" {
		t.Fatalf("second entry = %+v", entries[1])
	}
	if !strings.Contains(buf.String(), "update_order") {
		t.Fatalf("encoded output missing span: %s", buf.String())
	}
}

func TestPrometheusMetricsRecorder(t *testing.T) {
	registry := prometheus.NewRegistry()
	rec, err := NewPrometheusMetricsRecorder(registry)
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}
	rec.Observe(context.Background(), "create_order", true, 20*time.Millisecond)
	rec.Observe(context.Background(), "create_order", true, 30*time.Millisecond)
	rec.Observe(context.Background(), "create_order", false, time.Millisecond)

	success := rec.operations.WithLabelValues("create_order", "success")
	if got := promtestutil.ToFloat64(success); got != 2 {
		t.Fatalf("success counter = %v, want 2", got)
	}
	failure := rec.operations.WithLabelValues("create_order", "error")
	if got := promtestutil.ToFloat64(failure); got != 1 {
		t.Fatalf("error counter = %v, want 1", got)
	}

	// Double registration on the same registry must fail.
	if _, err := NewPrometheusMetricsRecorder(registry); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
}
