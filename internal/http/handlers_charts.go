package http

import (
	"net/http"

	"ledger/internal/api"
	"ledger/internal/core"
	applog "ledger/internal/log"
)

// handleChartData serves the analysis datasets of the current month.
func (s *Server) handleChartData(w http.ResponseWriter, r *http.Request) {
	data, err := s.records.ChartData(r.Context(), core.CurrentMonth(s.now()))
	if err != nil {
		applog.FromContext(r.Context()).Error("Failed to build chart data",
			applog.FieldComponent, applog.ComponentCharts,
			applog.FieldOperation, applog.OpChart,
			applog.FieldError, err)
		InternalServerError(api.MsgChartError).Write(w)
		return
	}
	NewJSONResponse(api.FromChartData(data)).Write(w)
}
