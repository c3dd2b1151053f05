package records

import (
	"context"
	"errors"

	"ledger/internal/core"
)

// ErrNotFound is returned when no record has the given (kind, id).
var ErrNotFound = errors.New("record not found")

// Ports for outbound adapters.
type (
	RecordWriter interface {
		// Create stores r and returns it with its assigned id.
		Create(ctx context.Context, r core.Record) (core.Record, error)
		Update(ctx context.Context, r core.Record) error
		Delete(ctx context.Context, kind core.Kind, id int64) error
	}

	RecordReader interface {
		Get(ctx context.Context, kind core.Kind, id int64) (core.Record, error)
		// ListMonth returns the month's records of one kind, newest first.
		ListMonth(ctx context.Context, kind core.Kind, month core.Month) ([]core.Record, error)
	}

	// ChartReader provides aggregated monthly data for the analysis view.
	ChartReader interface {
		// CategoryTotals groups a month's records of one kind by category.
		// Empty categories are reported under core.UncategorizedLabel.
		CategoryTotals(ctx context.Context, kind core.Kind, month core.Month) ([]core.CategoryTotal, error)
		MonthTotal(ctx context.Context, kind core.Kind, month core.Month) (core.Money, error)
	}

	Store interface {
		RecordWriter
		RecordReader
		ChartReader
		Ping(ctx context.Context) error
		Close() error
	}
)
