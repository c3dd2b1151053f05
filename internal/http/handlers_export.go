package http

import (
	"bytes"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"ledger/internal/api"
	"ledger/internal/core"
	applog "ledger/internal/log"
	"ledger/internal/report"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// handleExport downloads a month as CSV, or as a workbook with format=xlsx.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	logger := applog.FromContext(r.Context())
	q := r.URL.Query()
	yearStr, monthStr := strings.TrimSpace(q.Get("year")), strings.TrimSpace(q.Get("month"))
	if yearStr == "" || monthStr == "" {
		BadRequestError(api.MsgMissingYearMonth).Write(w)
		return
	}
	year, yErr := strconv.Atoi(yearStr)
	monthNum, mErr := strconv.Atoi(monthStr)
	if yErr != nil || mErr != nil {
		BadRequestError(api.MsgInvalidMonth).Write(w)
		return
	}
	month, err := core.NewMonth(year, monthNum)
	if err != nil {
		BadRequestError(api.MsgInvalidMonth).Write(w)
		return
	}

	expenses, incomes, err := s.records.MonthRecords(r.Context(), month)
	if err != nil {
		logger.Error("Failed to load export rows",
			applog.FieldComponent, applog.ComponentExport,
			applog.FieldMonth, month.String(),
			applog.FieldError, err)
		InternalServerError(api.MsgExportFailed).Write(w)
		return
	}
	rows := report.BuildRows(expenses, incomes)

	var (
		buf         bytes.Buffer
		contentType = "text/csv; charset=utf-8"
		ext         = "csv"
	)
	if strings.EqualFold(q.Get("format"), "xlsx") {
		contentType, ext = xlsxContentType, "xlsx"
		err = report.WriteXLSX(&buf, rows)
	} else {
		err = report.WriteCSV(&buf, rows)
	}
	if err != nil {
		logger.Error("Failed to render export",
			applog.FieldComponent, applog.ComponentExport,
			applog.FieldMonth, month.String(),
			applog.FieldError, err)
		InternalServerError(api.MsgExportFailed).Write(w)
		return
	}

	logger.Info("Export generated",
		applog.FieldOperation, applog.OpExport,
		applog.FieldMonth, month.String(),
		"format", ext,
		"rows", len(rows))

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": report.Filename(month, ext),
	}))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
