package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"ledger/internal/core"
	"ledger/internal/records"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

var _ records.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows one writer at a time.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// table maps a kind to its table name. Only constant names reach SQL text.
func table(kind core.Kind) (string, error) {
	switch kind {
	case core.KindExpense:
		return "expense", nil
	case core.KindIncome:
		return "income", nil
	default:
		return "", core.ErrInvalidKind
	}
}

func (r *SQLiteRepository) Create(ctx context.Context, rec core.Record) (core.Record, error) {
	rec.Normalize()
	if err := rec.Validate(); err != nil {
		return core.Record{}, err
	}

	var (
		res sql.Result
		err error
	)
	switch rec.Kind {
	case core.KindExpense:
		res, err = r.db.ExecContext(ctx,
			`INSERT INTO expense (date, category, description, amount_cents, payment_method, tags, mood, need_or_want)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.Date.String(), nullable(rec.Category), nullable(rec.Description), rec.Amount.Cents,
			nullable(rec.PaymentMethod), nullable(rec.Tags), nullable(rec.Mood), nullable(string(rec.NeedOrWant)))
	case core.KindIncome:
		res, err = r.db.ExecContext(ctx,
			`INSERT INTO income (date, category, description, amount_cents) VALUES (?, ?, ?, ?)`,
			rec.Date.String(), nullable(rec.Category), nullable(rec.Description), rec.Amount.Cents)
	}
	if err != nil {
		return core.Record{}, fmt.Errorf("insert %s: %w", rec.Kind, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.Record{}, fmt.Errorf("read inserted id: %w", err)
	}
	rec.ID = id

	slog.InfoContext(ctx, "Record saved to SQLite",
		"id", rec.ID,
		"kind", rec.Kind,
		"date", rec.Date.String(),
		"amount_cents", rec.Amount.Cents)

	return rec, nil
}

func (r *SQLiteRepository) Update(ctx context.Context, rec core.Record) error {
	rec.Normalize()
	if err := rec.Validate(); err != nil {
		return err
	}

	var (
		res sql.Result
		err error
	)
	switch rec.Kind {
	case core.KindExpense:
		res, err = r.db.ExecContext(ctx,
			`UPDATE expense SET date = ?, category = ?, description = ?, amount_cents = ?,
			 payment_method = ?, tags = ?, mood = ?, need_or_want = ?, updated_at = CURRENT_TIMESTAMP
			 WHERE id = ?`,
			rec.Date.String(), nullable(rec.Category), nullable(rec.Description), rec.Amount.Cents,
			nullable(rec.PaymentMethod), nullable(rec.Tags), nullable(rec.Mood), nullable(string(rec.NeedOrWant)),
			rec.ID)
	case core.KindIncome:
		res, err = r.db.ExecContext(ctx,
			`UPDATE income SET date = ?, category = ?, description = ?, amount_cents = ?, updated_at = CURRENT_TIMESTAMP
			 WHERE id = ?`,
			rec.Date.String(), nullable(rec.Category), nullable(rec.Description), rec.Amount.Cents, rec.ID)
	}
	if err != nil {
		return fmt.Errorf("update %s %d: %w", rec.Kind, rec.ID, err)
	}
	return expectOneRow(res, rec.Kind, rec.ID)
}

func (r *SQLiteRepository) Delete(ctx context.Context, kind core.Kind, id int64) error {
	name, err := table(kind)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, "DELETE FROM "+name+" WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete %s %d: %w", kind, id, err)
	}
	return expectOneRow(res, kind, id)
}

func (r *SQLiteRepository) Get(ctx context.Context, kind core.Kind, id int64) (core.Record, error) {
	q, err := selectQuery(kind, "WHERE id = ?")
	if err != nil {
		return core.Record{}, err
	}
	rec, err := scanRecord(kind, r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Record{}, fmt.Errorf("get %s %d: %w", kind, id, records.ErrNotFound)
	}
	if err != nil {
		return core.Record{}, fmt.Errorf("get %s %d: %w", kind, id, err)
	}
	return rec, nil
}

func (r *SQLiteRepository) ListMonth(ctx context.Context, kind core.Kind, month core.Month) ([]core.Record, error) {
	q, err := selectQuery(kind, "WHERE date LIKE ? ORDER BY date DESC, id DESC")
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, q, month.String()+"%")
	if err != nil {
		return nil, fmt.Errorf("list %s for %s: %w", kind, month, err)
	}
	defer rows.Close()

	var out []core.Record
	for rows.Next() {
		rec, err := scanRecord(kind, rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", kind, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CategoryTotals(ctx context.Context, kind core.Kind, month core.Month) ([]core.CategoryTotal, error) {
	name, err := table(kind)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT COALESCE(NULLIF(category, ''), ?) AS cat, SUM(amount_cents)
		 FROM `+name+` WHERE date LIKE ? GROUP BY cat ORDER BY cat`,
		core.UncategorizedLabel, month.String()+"%")
	if err != nil {
		return nil, fmt.Errorf("category totals %s for %s: %w", kind, month, err)
	}
	defer rows.Close()

	var out []core.CategoryTotal
	for rows.Next() {
		var ct core.CategoryTotal
		if err := rows.Scan(&ct.Category, &ct.Total.Cents); err != nil {
			return nil, fmt.Errorf("scan category total: %w", err)
		}
		out = append(out, ct)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) MonthTotal(ctx context.Context, kind core.Kind, month core.Month) (core.Money, error) {
	name, err := table(kind)
	if err != nil {
		return core.Money{}, err
	}
	var total int64
	err = r.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(amount_cents), 0) FROM "+name+" WHERE date LIKE ?",
		month.String()+"%").Scan(&total)
	if err != nil {
		return core.Money{}, fmt.Errorf("month total %s for %s: %w", kind, month, err)
	}
	return core.Money{Cents: total}, nil
}

func selectQuery(kind core.Kind, tail string) (string, error) {
	switch kind {
	case core.KindExpense:
		return `SELECT id, date, category, description, amount_cents, payment_method, tags, mood, need_or_want
			FROM expense ` + tail, nil
	case core.KindIncome:
		return `SELECT id, date, category, description, amount_cents FROM income ` + tail, nil
	default:
		return "", core.ErrInvalidKind
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(kind core.Kind, row rowScanner) (core.Record, error) {
	var (
		rec                           core.Record
		date                          string
		category, description         sql.NullString
		payment, tags, mood, needWant sql.NullString
	)
	rec.Kind = kind

	dest := []any{&rec.ID, &date, &category, &description, &rec.Amount.Cents}
	if kind == core.KindExpense {
		dest = append(dest, &payment, &tags, &mood, &needWant)
	}
	if err := row.Scan(dest...); err != nil {
		return core.Record{}, err
	}

	d, err := core.ParseDate(date)
	if err != nil {
		return core.Record{}, err
	}
	rec.Date = d
	rec.Category = category.String
	rec.Description = description.String
	rec.PaymentMethod = payment.String
	rec.Tags = tags.String
	rec.Mood = mood.String
	rec.NeedOrWant = core.NeedOrWant(needWant.String)
	return rec, nil
}

func expectOneRow(res sql.Result, kind core.Kind, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", kind, id, records.ErrNotFound)
	}
	return nil
}

// nullable stores empty strings as NULL.
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
