package reports

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ExportStatus describes the lifecycle stage of an export request.
type ExportStatus string

const (
	ExportStatusQueued    ExportStatus = "queued"
	ExportStatusRunning   ExportStatus = "running"
	ExportStatusSucceeded ExportStatus = "succeeded"
	ExportStatusFailed    ExportStatus = "failed"
)

// ExportArtifact captures a stored report artifact.
type ExportArtifact struct {
	ID          string            `json:"id"`
	Format      Format            `json:"format"`
	ContentType string            `json:"content_type"`
	SizeBytes   int64             `json:"size_bytes"`
	URL         string            `json:"url,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// ExportRecord tracks an export request and resulting artifacts.
type ExportRecord struct {
	ID          string           `json:"id"`
	Kind        Kind             `json:"kind"`
	Limit       int              `json:"limit,omitempty"`
	Formats     []Format         `json:"formats"`
	Status      ExportStatus     `json:"status"`
	Error       string           `json:"error,omitempty"`
	Artifacts   []ExportArtifact `json:"artifacts,omitempty"`
	RequestedBy string           `json:"requested_by"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
}

// ExportInput represents an enqueue request for the worker.
type ExportInput struct {
	Kind        Kind
	Limit       int
	Formats     []Format
	RequestedBy string
}

// ExportScheduler queues report export requests and exposes status.
type ExportScheduler interface {
	EnqueueExport(ctx context.Context, input ExportInput) (ExportRecord, error)
	GetExport(id string) (ExportRecord, bool)
}

// AuditLogger records export audit entries.
type AuditLogger interface {
	Record(ctx context.Context, entry AuditEntry)
}

// AuditEntry captures audit trail metadata for exports.
type AuditEntry struct {
	ID         string            `json:"id"`
	Action     string            `json:"action"`
	Actor      string            `json:"actor"`
	Kind       Kind              `json:"kind"`
	Status     ExportStatus      `json:"status"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// Worker executes report exports asynchronously. Exports run on a single
// goroutine; enqueueing is non-blocking up to the queue capacity.
type Worker struct {
	source Source
	store  ObjectStore
	audit  AuditLogger

	queue chan exportTask
	mu    sync.RWMutex
	jobs  map[string]*ExportRecord

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type exportTask struct {
	id    string
	input ExportInput
	ctx   context.Context
}

// NewWorker constructs an export worker.
func NewWorker(source Source, store ObjectStore, audit AuditLogger) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		source: source,
		store:  store,
		audit:  audit,
		queue:  make(chan exportTask, 32),
		jobs:   make(map[string]*ExportRecord),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins processing export requests.
func (w *Worker) Start() {
	w.wg.Add(1)
	go w.loop()
}

// Stop signals the worker to halt and waits for completion.
func (w *Worker) Stop(ctx context.Context) error {
	w.cancel()
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case task := <-w.queue:
			w.process(task)
		}
	}
}

// EnqueueExport schedules an export job and returns the queued record. The
// request context's principal is retained for running the report; the job
// itself outlives the request.
func (w *Worker) EnqueueExport(ctx context.Context, input ExportInput) (ExportRecord, error) {
	if w.source == nil {
		return ExportRecord{}, fmt.Errorf("report source not configured")
	}
	if strings.TrimSpace(string(input.Kind)) == "" {
		return ExportRecord{}, fmt.Errorf("report kind required")
	}
	switch input.Kind {
	case KindTopCustomers, KindTopSellers:
	default:
		return ExportRecord{}, fmt.Errorf("unknown report kind %s", input.Kind)
	}

	formats := input.Formats
	if len(formats) == 0 {
		formats = []Format{FormatJSON, FormatCSV}
	}
	uniq := make([]Format, 0, len(formats))
	seen := make(map[Format]struct{})
	for _, format := range formats {
		if _, duplicate := seen[format]; duplicate {
			continue
		}
		switch format {
		case FormatJSON, FormatCSV:
		default:
			return ExportRecord{}, fmt.Errorf("unsupported report format %s", format)
		}
		uniq = append(uniq, format)
		seen[format] = struct{}{}
	}

	id := uuid.NewString()
	now := time.Now().UTC()
	record := ExportRecord{
		ID:          id,
		Kind:        input.Kind,
		Limit:       input.Limit,
		Formats:     uniq,
		Status:      ExportStatusQueued,
		RequestedBy: input.RequestedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	w.mu.Lock()
	w.jobs[id] = &record
	queued := record.copy()
	w.mu.Unlock()

	w.record(ctx, id, ExportStatusQueued, nil)

	select {
	case w.queue <- exportTask{id: id, input: input, ctx: context.WithoutCancel(ctx)}:
	default:
		return ExportRecord{}, fmt.Errorf("export queue full")
	}

	return queued, nil
}

// GetExport returns a snapshot of the export record.
func (w *Worker) GetExport(id string) (ExportRecord, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	record, ok := w.jobs[id]
	if !ok {
		return ExportRecord{}, false
	}
	return record.copy(), true
}

func (w *Worker) process(task exportTask) {
	w.mu.RLock()
	record, ok := w.jobs[task.id]
	var formats []Format
	if ok {
		formats = append([]Format(nil), record.Formats...)
	}
	w.mu.RUnlock()
	if !ok {
		return
	}

	w.updateStatus(task.id, ExportStatusRunning, "")

	result, err := runReport(task.ctx, w.source, task.input.Kind, task.input.Limit)
	if err != nil {
		w.fail(task.id, fmt.Sprintf("report run failed: %v", err))
		return
	}

	artifacts := make([]ExportArtifact, 0, len(formats))
	for _, format := range formats {
		payload, contentType, err := renderResult(format, result)
		if err != nil {
			w.fail(task.id, err.Error())
			return
		}
		artifact := ExportArtifact{
			ID:          uuid.NewString(),
			Format:      format,
			ContentType: contentType,
			SizeBytes:   int64(len(payload)),
			Metadata:    map[string]string{"rows": fmt.Sprintf("%d", len(result.Rows))},
			CreatedAt:   time.Now().UTC(),
		}
		if w.store != nil {
			stored, err := w.store.Put(w.ctx, artifactKey(task.input.Kind, format, artifact.ID), payload, contentType, artifact.Metadata)
			if err != nil {
				w.fail(task.id, fmt.Sprintf("store artifact failed: %v", err))
				return
			}
			artifact.URL = stored.URL
			if stored.SizeBytes > 0 {
				artifact.SizeBytes = stored.SizeBytes
			}
		}
		artifacts = append(artifacts, artifact)
	}

	w.complete(task.id, artifacts)
}

func artifactKey(kind Kind, format Format, id string) string {
	return fmt.Sprintf("reports/%s/%s.%s", kind, id, format)
}

func (w *Worker) updateStatus(id string, status ExportStatus, message string) {
	now := time.Now().UTC()
	w.mu.Lock()
	if record, ok := w.jobs[id]; ok {
		record.Status = status
		record.Error = message
		record.UpdatedAt = now
	}
	w.mu.Unlock()
	var md map[string]string
	if message != "" {
		md = map[string]string{"note": message}
	}
	w.record(w.ctx, id, status, md)
}

func (w *Worker) complete(id string, artifacts []ExportArtifact) {
	now := time.Now().UTC()
	w.mu.Lock()
	if record, ok := w.jobs[id]; ok {
		record.Status = ExportStatusSucceeded
		record.Error = ""
		record.Artifacts = artifacts
		record.UpdatedAt = now
		record.CompletedAt = &now
	}
	w.mu.Unlock()
	w.record(w.ctx, id, ExportStatusSucceeded, nil)
}

func (w *Worker) fail(id, reason string) {
	now := time.Now().UTC()
	w.mu.Lock()
	if record, ok := w.jobs[id]; ok {
		record.Status = ExportStatusFailed
		record.Error = reason
		record.UpdatedAt = now
		record.CompletedAt = &now
	}
	w.mu.Unlock()
	w.record(w.ctx, id, ExportStatusFailed, map[string]string{"error": reason})
}

func (w *Worker) record(ctx context.Context, id string, status ExportStatus, metadata map[string]string) {
	if w.audit == nil {
		return
	}
	w.mu.RLock()
	var actor string
	var kind Kind
	if record, ok := w.jobs[id]; ok {
		actor = record.RequestedBy
		kind = record.Kind
	}
	w.mu.RUnlock()
	w.audit.Record(ctx, AuditEntry{
		ID:         uuid.NewString(),
		Action:     "report_export",
		Actor:      actor,
		Kind:       kind,
		Status:     status,
		Metadata:   metadata,
		OccurredAt: time.Now().UTC(),
	})
}

func (r ExportRecord) copy() ExportRecord {
	dup := r
	dup.Formats = append([]Format(nil), r.Formats...)
	if len(r.Artifacts) > 0 {
		dup.Artifacts = append([]ExportArtifact(nil), r.Artifacts...)
	}
	return dup
}
