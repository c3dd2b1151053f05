package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"ledger/internal/amqp"
	"ledger/internal/cache"
	"ledger/internal/core"
	applog "ledger/internal/log"
	"ledger/internal/records"
)

// TrendMonths is the length of the income/expense trend line.
const TrendMonths = 6

// EventPublisher is satisfied by *amqp.Client.
type EventPublisher interface {
	PublishRecordEvent(ctx context.Context, ev *amqp.RecordEvent) error
}

// RecordService orchestrates record operations across the store, the
// chart cache and the event publisher. Publishing is best effort: a
// failure is logged and never fails the operation.
type RecordService struct {
	store     records.Store
	publisher EventPublisher
	charts    cache.Cache[core.ChartData]
	logger    *applog.Logger
	now       func() time.Time

	// chartGen counts invalidations. An aggregation that raced a write
	// must not repopulate the cache.
	chartGen atomic.Uint64
}

// NewRecordService wires a store with optional publisher and chart cache.
func NewRecordService(store records.Store, publisher EventPublisher, charts cache.Cache[core.ChartData], logger *applog.Logger) *RecordService {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &RecordService{
		store:     store,
		publisher: publisher,
		charts:    charts,
		logger:    logger.WithComponent(applog.ComponentRecords),
		now:       time.Now,
	}
}

// Create saves a record and returns it with its id.
func (s *RecordService) Create(ctx context.Context, r core.Record) (core.Record, error) {
	saved, err := s.store.Create(ctx, r)
	if err != nil {
		return core.Record{}, fmt.Errorf("save record: %w", err)
	}
	s.invalidateCharts()
	s.publish(ctx, amqp.OpCreated, saved.Kind, saved.ID, saved.Date.Period())
	return saved, nil
}

// Update replaces every editable field of an existing record.
func (s *RecordService) Update(ctx context.Context, r core.Record) error {
	if err := s.store.Update(ctx, r); err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	s.invalidateCharts()
	s.publish(ctx, amqp.OpUpdated, r.Kind, r.ID, r.Date.Period())
	return nil
}

func (s *RecordService) Delete(ctx context.Context, kind core.Kind, id int64) error {
	if !kind.Valid() {
		return core.ErrInvalidKind
	}
	// The month goes into the event; consumers cannot look it up later.
	var month core.Month
	if r, err := s.store.Get(ctx, kind, id); err == nil {
		month = r.Date.Period()
	}
	if err := s.store.Delete(ctx, kind, id); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	s.invalidateCharts()
	s.publish(ctx, amqp.OpDeleted, kind, id, month)
	return nil
}

// MonthRecords lists both kinds for a month, newest first.
func (s *RecordService) MonthRecords(ctx context.Context, month core.Month) (expenses, incomes []core.Record, err error) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		expenses, err = s.store.ListMonth(gctx, core.KindExpense, month)
		return err
	})
	g.Go(func() error {
		var err error
		incomes, err = s.store.ListMonth(gctx, core.KindIncome, month)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("list %s: %w", month, err)
	}
	return expenses, incomes, nil
}

// CurrentChartData aggregates the analysis datasets for the current month.
func (s *RecordService) CurrentChartData(ctx context.Context) (core.ChartData, error) {
	return s.ChartData(ctx, core.CurrentMonth(s.now()))
}

// ChartData aggregates category totals, the month summary and the
// trailing trend ending with month.
func (s *RecordService) ChartData(ctx context.Context, month core.Month) (core.ChartData, error) {
	key := month.String()
	if s.charts != nil {
		if data, ok := s.charts.Get(key); ok {
			return data, nil
		}
	}

	gen := s.chartGen.Load()
	data := core.ChartData{Month: month}
	months := month.Trailing(TrendMonths)
	data.Trend = core.Trend{
		Months:  months,
		Income:  make([]core.Money, len(months)),
		Expense: make([]core.Money, len(months)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		data.Expense, err = s.store.CategoryTotals(gctx, core.KindExpense, month)
		return err
	})
	g.Go(func() error {
		var err error
		data.Income, err = s.store.CategoryTotals(gctx, core.KindIncome, month)
		return err
	})
	for i, m := range months {
		g.Go(func() error {
			var err error
			data.Trend.Income[i], err = s.store.MonthTotal(gctx, core.KindIncome, m)
			if err != nil {
				return err
			}
			data.Trend.Expense[i], err = s.store.MonthTotal(gctx, core.KindExpense, m)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return core.ChartData{}, fmt.Errorf("chart data for %s: %w", month, err)
	}

	// The last trend point is the requested month.
	last := len(months) - 1
	data.Summary = []core.KindTotal{
		{Kind: core.KindIncome, Total: data.Trend.Income[last]},
		{Kind: core.KindExpense, Total: data.Trend.Expense[last]},
	}

	if s.charts != nil && s.chartGen.Load() == gen {
		s.charts.Set(key, data)
	}
	return data, nil
}

func (s *RecordService) Get(ctx context.Context, kind core.Kind, id int64) (core.Record, error) {
	return s.store.Get(ctx, kind, id)
}

func (s *RecordService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Close closes the store.
func (s *RecordService) Close() error {
	if s.store == nil {
		return nil
	}
	if err := s.store.Close(); err != nil {
		return fmt.Errorf("close store: %w", err)
	}
	return nil
}

// Every mutation can move totals of up to TrendMonths cached months.
func (s *RecordService) invalidateCharts() {
	s.chartGen.Add(1)
	if s.charts != nil {
		s.charts.Purge()
	}
}

func (s *RecordService) publish(ctx context.Context, op amqp.EventOp, kind core.Kind, id int64, month core.Month) {
	if s.publisher == nil {
		return
	}
	m := ""
	if !month.IsZero() {
		m = month.String()
	}
	if err := s.publisher.PublishRecordEvent(ctx, amqp.NewRecordEvent(op, string(kind), id, m)); err != nil {
		fields := applog.NewFields().
			WithOperation(applog.OpPublish).
			WithRecord(string(kind), id, 0).
			WithError(err)
		s.logger.WarnContext(ctx, "Failed to publish record event", fields.ToSlice()...)
	}
}

// IsNotFound reports whether err means the record does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, records.ErrNotFound)
}
