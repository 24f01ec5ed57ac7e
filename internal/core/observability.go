package core

import (
	"context"
	"time"
)

// MetricsRecorder observes service operation outcomes.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

// TraceSpan represents an in-flight operation span.
type TraceSpan interface {
	End(err error)
}

// Tracer starts spans around service operations.
type Tracer interface {
	Start(ctx context.Context, operation string) (context.Context, TraceSpan)
}

// AuditStatus classifies recorded audit outcomes.
type AuditStatus string

// Audit outcome classifications.
const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusError   AuditStatus = "error"
)

// AuditEntry captures who did what to which record, and how it went.
type AuditEntry struct {
	Operation  string      `json:"operation"`
	Status     AuditStatus `json:"status"`
	Entity     EntityType  `json:"entity,omitempty"`
	EntityID   string      `json:"entity_id,omitempty"`
	Principal  string      `json:"principal,omitempty"`
	Error      string      `json:"error,omitempty"`
	OccurredAt time.Time   `json:"occurred_at"`
}

// AuditRecorder persists audit entries emitted by the service.
type AuditRecorder interface {
	Record(ctx context.Context, entry AuditEntry)
}

// observe wraps a service operation with metrics, tracing, and audit
// recording. The returned error is fn's error unchanged.
func (s *Service) observe(ctx context.Context, operation string, entity EntityType, fn func(ctx context.Context) (string, error)) error {
	start := time.Now()
	var span TraceSpan
	if s.tracer != nil {
		ctx, span = s.tracer.Start(ctx, operation)
	}
	entityID, err := fn(ctx)
	if span != nil {
		span.End(err)
	}
	if s.metrics != nil {
		s.metrics.Observe(ctx, operation, err == nil, time.Since(start))
	}
	if s.audit != nil {
		entry := AuditEntry{
			Operation:  operation,
			Status:     AuditStatusSuccess,
			Entity:     entity,
			EntityID:   entityID,
			OccurredAt: time.Now().UTC(),
		}
		if p, ok := PrincipalFromContext(ctx); ok {
			entry.Principal = p.ID
		}
		if err != nil {
			entry.Status = AuditStatusError
			entry.Error = err.Error()
		}
		s.audit.Record(ctx, entry)
	}
	return err
}
