package http

import (
	"errors"
	"net/http"

	"ledger/internal/api"
	"ledger/internal/core"
	applog "ledger/internal/log"
	"ledger/internal/records"
)

func (s *Server) handleAddRecord(w http.ResponseWriter, r *http.Request) {
	logger := applog.FromContext(r.Context())
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		logger.Warn("Parse body error", applog.FieldError, err, applog.FieldPath, r.URL.Path)
		BadRequestError(api.MsgBadRequest).Write(w)
		return
	}

	// A missing amount reads as zero and is rejected as not positive.
	amountStr := p.Get("amount")
	if amountStr == "" {
		amountStr = "0"
	}
	amount, err := core.ParseAmount(amountStr)
	if err != nil {
		amountError(err).Write(w)
		return
	}

	if p.Get("date") == "" || p.Get("type") == "" {
		BadRequestError(api.MsgMissingFields).Write(w)
		return
	}
	kind, err := core.ParseKind(p.Get("type"))
	if err != nil {
		BadRequestError(api.MsgInvalidType).Write(w)
		return
	}

	rec, resp := recordFromBody(p, kind, amount)
	if resp != nil {
		resp.Write(w)
		return
	}

	saved, err := s.records.Create(r.Context(), rec)
	if err != nil {
		fields := applog.NewFields().
			WithOperation(applog.OpCreate).
			WithRecord(string(kind), 0, amount.Cents).
			WithError(err)
		logger.Error("Failed to save record", fields.ToSlice()...)
		InternalServerError(api.MsgServerError).Write(w)
		return
	}

	logger.Info("Record created",
		applog.NewFields().WithOperation(applog.OpCreate).WithRecord(string(saved.Kind), saved.ID, saved.Amount.Cents).ToSlice()...)

	data := api.FromRecord(saved)
	NewJSONResponse(api.AddRecordReply{Reply: api.Reply{Success: true}, Data: &data}).Write(w)
}

func (s *Server) handleEditRecord(w http.ResponseWriter, r *http.Request) {
	logger := applog.FromContext(r.Context())
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		logger.Warn("Parse body error", applog.FieldError, err, applog.FieldPath, r.URL.Path)
		BadRequestError(api.MsgBadRequest).Write(w)
		return
	}

	for _, key := range []string{"id", "type", "date", "amount"} {
		if p.Get(key) == "" {
			BadRequestError(api.MsgIncompleteFields).Write(w)
			return
		}
	}

	amount, err := core.ParseAmount(p.Get("amount"))
	if err != nil {
		amountError(err).Write(w)
		return
	}
	id, err := p.GetInt64("id")
	if err != nil || id <= 0 {
		BadRequestError(api.MsgBadRequest).Write(w)
		return
	}
	kind, err := core.ParseKind(p.Get("type"))
	if err != nil {
		BadRequestError(api.MsgInvalidType).Write(w)
		return
	}

	rec, resp := recordFromBody(p, kind, amount)
	if resp != nil {
		resp.Write(w)
		return
	}
	rec.ID = id

	if err := s.records.Update(r.Context(), rec); err != nil {
		if errors.Is(err, records.ErrNotFound) {
			NotFoundError(api.MsgNotFound).Write(w)
			return
		}
		logger.Error("Failed to update record",
			applog.NewFields().WithOperation(applog.OpUpdate).WithRecord(string(kind), id, amount.Cents).WithError(err).ToSlice()...)
		InternalServerError(api.MsgServerError).Write(w)
		return
	}

	logger.Info("Record updated",
		applog.NewFields().WithOperation(applog.OpUpdate).WithRecord(string(kind), id, amount.Cents).ToSlice()...)
	Success().Write(w)
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	logger := applog.FromContext(r.Context())
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		logger.Warn("Parse body error", applog.FieldError, err, applog.FieldPath, r.URL.Path)
		BadRequestError(api.MsgBadRequest).Write(w)
		return
	}

	if p.Get("id") == "" || p.Get("type") == "" {
		BadRequestError(api.MsgMissingParams).Write(w)
		return
	}
	kind, err := core.ParseKind(p.Get("type"))
	if err != nil {
		BadRequestError(api.MsgInvalidType).Write(w)
		return
	}
	id, err := p.GetInt64("id")
	if err != nil || id <= 0 {
		BadRequestError(api.MsgBadRequest).Write(w)
		return
	}

	if err := s.records.Delete(r.Context(), kind, id); err != nil {
		if errors.Is(err, records.ErrNotFound) {
			NotFoundError(api.MsgNotFound).Write(w)
			return
		}
		logger.Error("Failed to delete record",
			applog.NewFields().WithOperation(applog.OpDelete).WithRecord(string(kind), id, 0).WithError(err).ToSlice()...)
		InternalServerError(api.MsgServerError).Write(w)
		return
	}

	logger.Info("Record deleted",
		applog.NewFields().WithOperation(applog.OpDelete).WithRecord(string(kind), id, 0).ToSlice()...)
	Success().Write(w)
}

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	month, err := monthFromQuery(r.URL.Query(), s.now())
	if err != nil {
		BadRequestError(api.MsgInvalidMonth).Write(w)
		return
	}

	expenses, incomes, err := s.records.MonthRecords(r.Context(), month)
	if err != nil {
		applog.FromContext(r.Context()).Error("Failed to list records",
			applog.FieldOperation, applog.OpList,
			applog.FieldMonth, month.String(),
			applog.FieldError, err)
		InternalServerError(api.MsgServerError).Write(w)
		return
	}

	NewJSONResponse(api.RecordsReply{
		Reply:    api.Reply{Success: true},
		Month:    month.String(),
		Expenses: wireRecords(expenses),
		Incomes:  wireRecords(incomes),
	}).Write(w)
}

// recordFromBody reads the date and the optional fields shared by add
// and edit. A non-nil response reports the first invalid field.
func recordFromBody(p *RequestBodyParser, kind core.Kind, amount core.Money) (core.Record, *JSONResponseBuilder) {
	date, err := core.ParseDate(p.Get("date"))
	if err != nil {
		return core.Record{}, BadRequestError(api.MsgInvalidDate)
	}

	rec := core.Record{
		Kind:        kind,
		Date:        date,
		Category:    p.Get("category"),
		Description: p.Get("description"),
		Amount:      amount,
	}
	if kind == core.KindExpense {
		rec.PaymentMethod = p.Get("payment_method")
		rec.Tags = p.Get("tags")
		rec.Mood = p.Get("mood")
		nw, err := core.ParseNeedOrWant(p.Get("need_or_want"))
		if err != nil {
			return core.Record{}, BadRequestError(api.MsgInvalidNeedOrWant)
		}
		rec.NeedOrWant = nw
	}
	rec.Normalize()
	if err := rec.Validate(); err != nil {
		return core.Record{}, BadRequestError(api.MsgBadRequest)
	}
	return rec, nil
}

func amountError(err error) *JSONResponseBuilder {
	if errors.Is(err, core.ErrInvalidAmount) {
		return BadRequestError(api.MsgAmountNotPositive)
	}
	return BadRequestError(api.MsgAmountFormat)
}

func wireRecords(recs []core.Record) []api.Record {
	out := make([]api.Record, 0, len(recs))
	for _, r := range recs {
		out = append(out, api.FromRecord(r))
	}
	return out
}
