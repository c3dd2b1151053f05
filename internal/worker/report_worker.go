// Package worker keeps derived artefacts in step with record events.
package worker

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"ledger/internal/amqp"
	"ledger/internal/core"
	applog "ledger/internal/log"
	"ledger/internal/report"
)

// Report formats written for every touched month.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// MonthLister is satisfied by *services.RecordService.
type MonthLister interface {
	MonthRecords(ctx context.Context, month core.Month) (expenses, incomes []core.Record, err error)
}

// ReportWorker rewrites the monthly report files of every month a record
// event touches, so dir always holds the current reports.
type ReportWorker struct {
	records MonthLister
	dir     string
	formats []string
	logger  *applog.Logger
}

func NewReportWorker(records MonthLister, dir string, logger *applog.Logger) *ReportWorker {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &ReportWorker{
		records: records,
		dir:     dir,
		formats: []string{FormatCSV, FormatXLSX},
		logger:  logger.WithComponent(applog.ComponentWorker),
	}
}

// HandleRecordEvent regenerates the reports of the event's month. Events
// without a month are skipped.
func (w *ReportWorker) HandleRecordEvent(ctx context.Context, ev *amqp.RecordEvent) error {
	if ev.Month == "" {
		w.logger.WarnContext(ctx, "Record event without month, skipping",
			"type", ev.Type(),
			applog.FieldRecordID, ev.ID)
		return nil
	}
	month, err := core.ParseMonth(ev.Month)
	if err != nil {
		w.logger.WarnContext(ctx, "Record event with invalid month, skipping",
			"type", ev.Type(),
			applog.FieldMonth, ev.Month)
		return nil
	}

	w.logger.InfoContext(ctx, "Processing record event",
		"type", ev.Type(),
		applog.FieldRecordID, ev.ID,
		applog.FieldMonth, ev.Month)
	return w.RefreshMonth(ctx, month)
}

// RefreshMonth writes every report format for month.
func (w *ReportWorker) RefreshMonth(ctx context.Context, month core.Month) error {
	expenses, incomes, err := w.records.MonthRecords(ctx, month)
	if err != nil {
		return fmt.Errorf("list %s: %w", month, err)
	}
	rows := report.BuildRows(expenses, incomes)

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	for _, format := range w.formats {
		var buf bytes.Buffer
		switch format {
		case FormatCSV:
			err = report.WriteCSV(&buf, rows)
		case FormatXLSX:
			err = report.WriteXLSX(&buf, rows)
		default:
			err = fmt.Errorf("unknown format %q", format)
		}
		if err != nil {
			return fmt.Errorf("render %s report: %w", format, err)
		}
		path := filepath.Join(w.dir, report.Filename(month, format))
		if err := writeFileAtomic(path, buf.Bytes()); err != nil {
			return err
		}
	}

	w.logger.InfoContext(ctx, "Reports refreshed",
		applog.FieldMonth, month.String(),
		"rows", len(rows))
	return nil
}

// StartupSync refreshes the given months once, for reports missed while
// the worker was down. Failures are logged and the rest still run.
func (w *ReportWorker) StartupSync(ctx context.Context, months []core.Month) error {
	var failed int
	for _, m := range months {
		if err := w.RefreshMonth(ctx, m); err != nil {
			w.logger.ErrorContext(ctx, "Startup report refresh failed",
				applog.FieldMonth, m.String(),
				applog.FieldError, err)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("startup sync: %d of %d months failed", failed, len(months))
	}
	return nil
}

// writeFileAtomic replaces path so that readers never see a partial file.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".report-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
