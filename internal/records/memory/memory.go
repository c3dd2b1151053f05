package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"ledger/internal/core"
	"ledger/internal/records"
)

// Store keeps records in process memory. Ids are assigned per kind.
type Store struct {
	mu     sync.Mutex
	items  map[core.Kind][]core.Record
	nextID map[core.Kind]int64
}

var _ records.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		items:  make(map[core.Kind][]core.Record),
		nextID: map[core.Kind]int64{core.KindIncome: 1, core.KindExpense: 1},
	}
}

// Create stores the record and assigns the next id for its kind.
func (s *Store) Create(_ context.Context, r core.Record) (core.Record, error) {
	r.Normalize()
	if err := r.Validate(); err != nil {
		return core.Record{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = s.nextID[r.Kind]
	s.nextID[r.Kind]++
	s.items[r.Kind] = append(s.items[r.Kind], r)
	return r, nil
}

func (s *Store) Update(_ context.Context, r core.Record) error {
	r.Normalize()
	if err := r.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(r.Kind, r.ID)
	if i < 0 {
		return fmt.Errorf("update %s %d: %w", r.Kind, r.ID, records.ErrNotFound)
	}
	s.items[r.Kind][i] = r
	return nil
}

func (s *Store) Delete(_ context.Context, kind core.Kind, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(kind, id)
	if i < 0 {
		return fmt.Errorf("delete %s %d: %w", kind, id, records.ErrNotFound)
	}
	list := s.items[kind]
	s.items[kind] = append(list[:i:i], list[i+1:]...)
	return nil
}

func (s *Store) Get(_ context.Context, kind core.Kind, id int64) (core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(kind, id)
	if i < 0 {
		return core.Record{}, fmt.Errorf("get %s %d: %w", kind, id, records.ErrNotFound)
	}
	return s.items[kind][i], nil
}

// ListMonth returns the month's records ordered by date then id, newest first.
func (s *Store) ListMonth(_ context.Context, kind core.Kind, month core.Month) ([]core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Record
	for _, r := range s.items[kind] {
		if month.Contains(r.Date) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date.Time)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) CategoryTotals(ctx context.Context, kind core.Kind, month core.Month) ([]core.CategoryTotal, error) {
	list, _ := s.ListMonth(ctx, kind, month)
	sums := make(map[string]core.Money)
	for _, r := range list {
		c := core.CategoryOrUncategorized(r.Category)
		sums[c] = sums[c].Add(r.Amount)
	}
	names := make([]string, 0, len(sums))
	for c := range sums {
		names = append(names, c)
	}
	sort.Strings(names)
	out := make([]core.CategoryTotal, 0, len(names))
	for _, c := range names {
		out = append(out, core.CategoryTotal{Category: c, Total: sums[c]})
	}
	return out, nil
}

func (s *Store) MonthTotal(ctx context.Context, kind core.Kind, month core.Month) (core.Money, error) {
	list, _ := s.ListMonth(ctx, kind, month)
	var total core.Money
	for _, r := range list {
		total = total.Add(r.Amount)
	}
	return total, nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func (s *Store) indexOf(kind core.Kind, id int64) int {
	for i, r := range s.items[kind] {
		if r.ID == id {
			return i
		}
	}
	return -1
}
