package http

import (
	"net/http"
	"net/url"

	"ledger/internal/core"
	applog "ledger/internal/log"
)

type rowView struct {
	ID            int64
	Date          string
	Category      string
	Description   string
	Amount        string
	PaymentMethod string
	Tags          string
	Mood          string
	NeedOrWant    string
}

type indexData struct {
	Month             string
	Year              int
	MonthNumber       string
	Prev, Next        string
	Today             string
	ExpenseCategories []string
	IncomeCategories  []string
	Expenses          []rowView
	Incomes           []rowView
	ExpenseTotal      string
	IncomeTotal       string
	Error             string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	month, err := monthFromQuery(r.URL.Query(), s.now())
	msg := ""
	if err != nil {
		month, msg = core.CurrentMonth(s.now()), "月份格式錯誤"
	}
	s.renderIndex(w, r, http.StatusOK, month, msg)
}

// handleIndexCreate is the form fallback of the month page: it inserts
// the record and redirects back to the month the form was posted from.
func (s *Server) handleIndexCreate(w http.ResponseWriter, r *http.Request) {
	month, err := monthFromQuery(r.URL.Query(), s.now())
	if err != nil {
		month = core.CurrentMonth(s.now())
	}

	if err := r.ParseForm(); err != nil {
		s.renderIndex(w, r, http.StatusBadRequest, month, "請求格式錯誤")
		return
	}

	kind, err := core.ParseKind(r.PostForm.Get("form_type"))
	if err != nil {
		s.renderIndex(w, r, http.StatusBadRequest, month, "類型錯誤")
		return
	}
	date, err := core.ParseDate(r.PostForm.Get("date"))
	if err != nil {
		s.renderIndex(w, r, http.StatusBadRequest, month, "日期格式錯誤")
		return
	}
	amount, err := core.ParseAmount(r.PostForm.Get("amount"))
	if err != nil {
		s.renderIndex(w, r, http.StatusBadRequest, month, "請輸入大於 0 的有效金額")
		return
	}
	nw, err := core.ParseNeedOrWant(r.PostForm.Get("need_or_want"))
	if err != nil {
		nw = ""
	}

	rec := core.Record{
		Kind:          kind,
		Date:          date,
		Category:      sanitizeInput(r.PostForm.Get("category")),
		Description:   sanitizeInput(r.PostForm.Get("description")),
		Amount:        amount,
		PaymentMethod: sanitizeInput(r.PostForm.Get("payment_method")),
		Tags:          sanitizeInput(r.PostForm.Get("tags")),
		Mood:          sanitizeInput(r.PostForm.Get("mood")),
		NeedOrWant:    nw,
	}
	rec.Normalize()

	if _, err := s.records.Create(r.Context(), rec); err != nil {
		applog.FromContext(r.Context()).Error("Failed to save record from form",
			applog.NewFields().WithOperation(applog.OpCreate).WithRecord(string(kind), 0, amount.Cents).WithError(err).ToSlice()...)
		s.renderIndex(w, r, http.StatusInternalServerError, month, "伺服器錯誤")
		return
	}

	http.Redirect(w, r, "/?month_select="+url.QueryEscape(month.String()), http.StatusSeeOther)
}

func (s *Server) renderIndex(w http.ResponseWriter, r *http.Request, status int, month core.Month, msg string) {
	logger := applog.FromContext(r.Context())
	if s.templates == nil {
		logger.Error("Templates not loaded", applog.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	expenses, incomes, err := s.records.MonthRecords(r.Context(), month)
	if err != nil {
		logger.Error("Failed to list records for page", applog.FieldMonth, month.String(), applog.FieldError, err)
		status, msg = http.StatusInternalServerError, "伺服器錯誤"
	}

	now := s.now()
	data := indexData{
		Month:             month.String(),
		Year:              month.Year,
		MonthNumber:       month.String()[5:],
		Prev:              month.AddMonths(-1).String(),
		Next:              month.AddMonths(1).String(),
		Today:             core.NewDate(now.Year(), int(now.Month()), now.Day()).String(),
		ExpenseCategories: core.Categories(core.KindExpense),
		IncomeCategories:  core.Categories(core.KindIncome),
		Expenses:          rowViews(expenses),
		Incomes:           rowViews(incomes),
		ExpenseTotal:      total(expenses).String(),
		IncomeTotal:       total(incomes).String(),
		Error:             msg,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		logger.Error("Index template execution failed",
			applog.FieldComponent, applog.ComponentTemplate,
			applog.FieldError, err)
	}
}

func rowViews(recs []core.Record) []rowView {
	out := make([]rowView, 0, len(recs))
	for _, r := range recs {
		out = append(out, rowView{
			ID:            r.ID,
			Date:          r.Date.String(),
			Category:      r.Category,
			Description:   r.Description,
			Amount:        r.Amount.String(),
			PaymentMethod: r.PaymentMethod,
			Tags:          r.Tags,
			Mood:          r.Mood,
			NeedOrWant:    string(r.NeedOrWant),
		})
	}
	return out
}

func total(recs []core.Record) core.Money {
	var m core.Money
	for _, r := range recs {
		m = m.Add(r.Amount)
	}
	return m
}
