// Command ordercore-report runs a sales report against the configured store
// and exports the artifacts through the blob backend.
//
// Usage:
//
//	ordercore-report -kind top_customers -limit 10 -formats json,csv -principal <id>
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"ordercore/internal/blob"
	"ordercore/internal/core"
	"ordercore/internal/reports"
)

var exitFunc = os.Exit

func main() {
	exitFunc(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("ordercore-report", flag.ContinueOnError)
	kind := fs.String("kind", string(reports.KindTopCustomers), "report kind: top_customers|top_sellers")
	limit := fs.Int("limit", 0, "maximum rows (0 applies the report default)")
	formats := fs.String("formats", "json,csv", "comma separated artifact formats")
	principal := fs.String("principal", "", "acting principal id (required)")
	timeout := fs.Duration("timeout", 30*time.Second, "export timeout")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *principal == "" {
		fmt.Fprintln(os.Stderr, "ordercore-report: -principal is required")
		return 2
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	store, err := core.OpenPersistentStore(core.NewDefaultRulesEngine())
	if err != nil {
		fmt.Fprintf(os.Stderr, "ordercore-report: open store: %v\n", err)
		return 1
	}
	blobStore, err := blob.Open(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ordercore-report: open blob store: %v\n", err)
		return 1
	}

	service := core.NewService(store)
	audit := core.NewJSONAuditRecorder(os.Stderr)
	worker := reports.NewWorker(service, reports.NewBlobObjectStore(blobStore), reportAudit{rec: audit})
	worker.Start()
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer stopCancel()
		_ = worker.Stop(stopCtx)
	}()

	var parsed []reports.Format
	for _, f := range strings.Split(*formats, ",") {
		f = strings.TrimSpace(f)
		if f != "" {
			parsed = append(parsed, reports.Format(f))
		}
	}

	ctx = core.WithPrincipal(ctx, core.Principal{Base: core.Base{ID: *principal}})
	record, err := worker.EnqueueExport(ctx, reports.ExportInput{
		Kind:        reports.Kind(*kind),
		Limit:       *limit,
		Formats:     parsed,
		RequestedBy: *principal,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "ordercore-report: enqueue: %v\n", err)
		return 1
	}

	record, err = waitForExport(ctx, worker, record.ID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ordercore-report: %v\n", err)
		return 1
	}

	for _, artifact := range record.Artifacts {
		fmt.Printf("%s\t%s\t%d bytes\t%s\n", artifact.Format, artifact.ContentType, artifact.SizeBytes, artifact.URL)
	}
	return 0
}

func waitForExport(ctx context.Context, worker *reports.Worker, id string) (reports.ExportRecord, error) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		record, ok := worker.GetExport(id)
		if !ok {
			return reports.ExportRecord{}, fmt.Errorf("export %s disappeared", id)
		}
		switch record.Status {
		case reports.ExportStatusSucceeded:
			return record, nil
		case reports.ExportStatusFailed:
			return reports.ExportRecord{}, fmt.Errorf("export failed: %s", record.Error)
		}
		select {
		case <-ctx.Done():
			return reports.ExportRecord{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

// reportAudit forwards export audit entries to the service audit recorder so
// both surfaces share one sink.
type reportAudit struct {
	rec core.AuditRecorder
}

func (a reportAudit) Record(ctx context.Context, entry reports.AuditEntry) {
	status := core.AuditStatusSuccess
	if entry.Status == reports.ExportStatusFailed {
		status = core.AuditStatusError
	}
	a.rec.Record(ctx, core.AuditEntry{
		Operation:  entry.Action,
		Status:     status,
		Principal:  entry.Actor,
		Error:      entry.Metadata["error"],
		OccurredAt: entry.OccurredAt,
	})
}
