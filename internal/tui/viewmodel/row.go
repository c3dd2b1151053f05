package viewmodel

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"ledger/internal/api"
	"ledger/internal/core"
)

// RowKey is the identity of a row; ids are only unique per kind.
type RowKey struct {
	ID   int64
	Kind core.Kind
}

func (k RowKey) String() string {
	return fmt.Sprintf("%s/%d", k.Kind, k.ID)
}

// Field names an editable cell. The names match the wire keys.
type Field string

const (
	FieldDate          Field = "date"
	FieldCategory      Field = "category"
	FieldDescription   Field = "description"
	FieldAmount        Field = "amount"
	FieldPaymentMethod Field = "payment_method"
	FieldTags          Field = "tags"
	FieldMood          Field = "mood"
	FieldNeedOrWant    Field = "need_or_want"
)

var (
	incomeFields  = []Field{FieldDate, FieldCategory, FieldDescription, FieldAmount}
	expenseFields = []Field{FieldDate, FieldCategory, FieldDescription, FieldAmount, FieldPaymentMethod, FieldTags, FieldMood, FieldNeedOrWant}

	fieldTitles = map[Field]string{
		FieldDate:          "日期",
		FieldCategory:      "類別",
		FieldDescription:   "描述",
		FieldAmount:        "金額",
		FieldPaymentMethod: "付款方式",
		FieldTags:          "標籤",
		FieldMood:          "心情",
		FieldNeedOrWant:    "需要/想要",
	}
)

// Fields lists a kind's columns in display order: eight for expense rows,
// four for income rows.
func Fields(kind core.Kind) []Field {
	if kind == core.KindExpense {
		return append([]Field(nil), expenseFields...)
	}
	return append([]Field(nil), incomeFields...)
}

// Title is the column header of f.
func (f Field) Title() string {
	return fieldTitles[f]
}

// NeedOrWantOptions are the values offered by the need/want selector.
var NeedOrWantOptions = []string{"", string(core.Need), string(core.Want)}

// Row is the rendered state of one record.
type Row struct {
	Key           RowKey
	Date          string
	Category      string
	Description   string
	Amount        string
	PaymentMethod string
	Tags          string
	Mood          string
	NeedOrWant    string
}

// RowFromRecord projects a server record. The amount always carries two
// decimals.
func RowFromRecord(r api.Record) Row {
	row := Row{
		Key:         RowKey{ID: r.ID, Kind: r.Type},
		Date:        r.Date,
		Category:    api.Value(r.Category),
		Description: api.Value(r.Description),
		Amount:      r.Amount.String(),
	}
	if r.Type == core.KindExpense {
		row.PaymentMethod = api.Value(r.PaymentMethod)
		row.Tags = api.Value(r.Tags)
		row.Mood = api.Value(r.Mood)
		row.NeedOrWant = api.Value(r.NeedOrWant)
	}
	return row
}

// Get returns the value of f.
func (r Row) Get(f Field) string {
	switch f {
	case FieldDate:
		return r.Date
	case FieldCategory:
		return r.Category
	case FieldDescription:
		return r.Description
	case FieldAmount:
		return r.Amount
	case FieldPaymentMethod:
		return r.PaymentMethod
	case FieldTags:
		return r.Tags
	case FieldMood:
		return r.Mood
	case FieldNeedOrWant:
		return r.NeedOrWant
	}
	return ""
}

// Set assigns f. Expense-only fields are ignored on income rows.
func (r *Row) Set(f Field, v string) {
	switch f {
	case FieldDate:
		r.Date = v
	case FieldCategory:
		r.Category = v
	case FieldDescription:
		r.Description = v
	case FieldAmount:
		r.Amount = v
	}
	if r.Key.Kind != core.KindExpense {
		return
	}
	switch f {
	case FieldPaymentMethod:
		r.PaymentMethod = v
	case FieldTags:
		r.Tags = v
	case FieldMood:
		r.Mood = v
	case FieldNeedOrWant:
		r.NeedOrWant = v
	}
}

// Cells returns the display text of every column of the row's kind.
func (r Row) Cells() []string {
	fields := Fields(r.Key.Kind)
	cells := make([]string, 0, len(fields))
	for _, f := range fields {
		cells = append(cells, r.Get(f))
	}
	return cells
}

// ErrEditAmount rejects an edited amount before any request is sent.
var ErrEditAmount = errors.New("金額必須是大於 0 的數字")

// EditRequest validates the edited row and builds the PATCH payload.
// Expense-only fields are sent only for expense rows.
func EditRequest(r Row) (api.EditRecordRequest, error) {
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil || !amount.IsPositive() {
		return api.EditRecordRequest{}, ErrEditAmount
	}
	req := api.EditRecordRequest{
		ID:          r.Key.ID,
		Type:        r.Key.Kind,
		Date:        r.Date,
		Category:    r.Category,
		Description: r.Description,
		Amount:      r.Amount,
	}
	if r.Key.Kind == core.KindExpense {
		req.PaymentMethod = &r.PaymentMethod
		req.Tags = &r.Tags
		req.Mood = &r.Mood
		req.NeedOrWant = &r.NeedOrWant
	}
	return req, nil
}

// Saved returns the row as it is displayed after a successful edit.
func (r Row) Saved() Row {
	if d, err := decimal.NewFromString(r.Amount); err == nil {
		r.Amount = d.StringFixed(2)
	}
	return r
}
