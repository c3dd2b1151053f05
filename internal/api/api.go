// Package api holds the JSON wire types and messages shared by the
// server and the terminal client.
package api

import (
	"ledger/internal/core"
)

// Routes.
const (
	PathAddRecord    = "/add_record"
	PathEditRecord   = "/edit_record"
	PathDeleteRecord = "/delete_record"
	PathChartData    = "/chart_data"
	PathRecords      = "/records"
	PathExport       = "/export_csv"
)

// Server error messages. Clients show them verbatim.
const (
	MsgAmountNotPositive = "金額必須大於 0"
	MsgAmountFormat      = "金額格式錯誤"
	MsgMissingFields     = "缺少必要欄位"
	MsgIncompleteFields  = "欄位不完整"
	MsgInvalidType       = "類型錯誤"
	MsgInvalidDate       = "日期格式錯誤"
	MsgInvalidNeedOrWant = "need_or_want 必須是 need 或 want"
	MsgServerError       = "伺服器錯誤"
	MsgMissingParams     = "缺少參數"
	MsgNotFound          = "找不到紀錄"
	MsgChartError        = "取得圖表資料時發生錯誤"
	MsgMissingYearMonth  = "缺少 year 或 month 參數"
	MsgInvalidMonth      = "月份格式錯誤"
	MsgExportFailed      = "匯出報表失敗"
	MsgBadRequest        = "請求格式錯誤"
	MsgTooManyRequests   = "請求過於頻繁，請稍後再試"
)

// Reply is the envelope of every JSON endpoint.
type Reply struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func (r Reply) Result() (bool, string) {
	return r.Success, r.Error
}

// Record is a record on the wire. Optional text fields are null when
// empty; the expense-only fields are always null for income.
type Record struct {
	ID            int64      `json:"id"`
	Type          core.Kind  `json:"type"`
	Date          string     `json:"date"`
	Category      *string    `json:"category"`
	Description   *string    `json:"description"`
	Amount        core.Money `json:"amount"`
	PaymentMethod *string    `json:"payment_method"`
	Tags          *string    `json:"tags"`
	Mood          *string    `json:"mood"`
	NeedOrWant    *string    `json:"need_or_want"`
}

func FromRecord(r core.Record) Record {
	return Record{
		ID:            r.ID,
		Type:          r.Kind,
		Date:          r.Date.String(),
		Category:      Optional(r.Category),
		Description:   Optional(r.Description),
		Amount:        r.Amount,
		PaymentMethod: Optional(r.PaymentMethod),
		Tags:          Optional(r.Tags),
		Mood:          Optional(r.Mood),
		NeedOrWant:    Optional(string(r.NeedOrWant)),
	}
}

// Core converts back to the domain type.
func (r Record) Core() (core.Record, error) {
	date, err := core.ParseDate(r.Date)
	if err != nil {
		return core.Record{}, err
	}
	rec := core.Record{
		ID:            r.ID,
		Kind:          r.Type,
		Date:          date,
		Category:      Value(r.Category),
		Description:   Value(r.Description),
		Amount:        r.Amount,
		PaymentMethod: Value(r.PaymentMethod),
		Tags:          Value(r.Tags),
		Mood:          Value(r.Mood),
		NeedOrWant:    core.NeedOrWant(Value(r.NeedOrWant)),
	}
	return rec, nil
}

// Optional maps "" to nil.
func Optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Value maps nil to "".
func Value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// AddRecordReply answers POST /add_record.
type AddRecordReply struct {
	Reply
	Data *Record `json:"data,omitempty"`
}

// EditRecordRequest is the body of PATCH /edit_record. Expense-only
// fields are omitted for income.
type EditRecordRequest struct {
	ID            int64     `json:"id"`
	Type          core.Kind `json:"type"`
	Date          string    `json:"date"`
	Category      string    `json:"category"`
	Description   string    `json:"description"`
	Amount        string    `json:"amount"`
	PaymentMethod *string   `json:"payment_method,omitempty"`
	Tags          *string   `json:"tags,omitempty"`
	Mood          *string   `json:"mood,omitempty"`
	NeedOrWant    *string   `json:"need_or_want,omitempty"`
}

// DeleteRecordRequest is the body of POST /delete_record.
type DeleteRecordRequest struct {
	ID   int64     `json:"id"`
	Type core.Kind `json:"type"`
}

// RecordsReply answers GET /records.
type RecordsReply struct {
	Reply
	Month    string   `json:"month"`
	Expenses []Record `json:"expenses"`
	Incomes  []Record `json:"incomes"`
}

type CategoryTotal struct {
	Category string     `json:"category"`
	Total    core.Money `json:"total"`
}

// TypeTotal carries the display label (收入/支出) in Type.
type TypeTotal struct {
	Type  string     `json:"type"`
	Total core.Money `json:"total"`
}

type Trend struct {
	Labels  []string     `json:"labels"`
	Income  []core.Money `json:"income"`
	Expense []core.Money `json:"expense"`
}

// ChartReply answers GET /chart_data. The dataset fields are pointers so
// a client can tell a missing key from an empty list.
type ChartReply struct {
	Reply
	ExpenseData *[]CategoryTotal `json:"expense_data,omitempty"`
	IncomeData  *[]CategoryTotal `json:"income_data,omitempty"`
	SummaryData *[]TypeTotal     `json:"summary_data,omitempty"`
	TrendData   *Trend           `json:"trend_data,omitempty"`
}

// Complete reports whether every dataset the renderer needs is present.
func (c ChartReply) Complete() bool {
	return c.Success && c.ExpenseData != nil && c.IncomeData != nil && c.SummaryData != nil
}

// FromChartData builds a successful reply.
func FromChartData(d core.ChartData) ChartReply {
	expense := categoryTotals(d.Expense)
	income := categoryTotals(d.Income)
	summary := make([]TypeTotal, 0, len(d.Summary))
	for _, s := range d.Summary {
		summary = append(summary, TypeTotal{Type: s.Kind.Label(), Total: s.Total})
	}
	trend := &Trend{
		Labels:  make([]string, 0, len(d.Trend.Months)),
		Income:  d.Trend.Income,
		Expense: d.Trend.Expense,
	}
	for _, m := range d.Trend.Months {
		trend.Labels = append(trend.Labels, m.String())
	}
	return ChartReply{
		Reply:       Reply{Success: true},
		ExpenseData: &expense,
		IncomeData:  &income,
		SummaryData: &summary,
		TrendData:   trend,
	}
}

func categoryTotals(in []core.CategoryTotal) []CategoryTotal {
	out := make([]CategoryTotal, 0, len(in))
	for _, c := range in {
		out = append(out, CategoryTotal{Category: core.CategoryOrUncategorized(c.Category), Total: c.Total})
	}
	return out
}
