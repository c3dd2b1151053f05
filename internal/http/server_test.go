package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"ledger/internal/api"
	"ledger/internal/cache"
	"ledger/internal/core"
	"ledger/internal/records/memory"
	"ledger/internal/services"
)

var fixedNow = time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	svc := services.NewRecordService(memory.New(), nil, cache.NewLRUCache[core.ChartData](8, time.Minute), nil)
	srv := NewServer(":0", svc, Options{Now: func() time.Time { return fixedNow }})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func do(t *testing.T, srv *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if strings.HasPrefix(body, "{") {
		req.Header.Set("Content-Type", "application/json")
	} else if body != "" {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decodeReply(t *testing.T, rr *httptest.ResponseRecorder) api.Reply {
	t.Helper()
	var reply api.Reply
	if err := json.Unmarshal(rr.Body.Bytes(), &reply); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return reply
}

func TestAddRecord_Validation(t *testing.T) {
	srv := newTestServer(t)
	tests := []struct {
		name    string
		body    string
		status  int
		message string
	}{
		{"amount not numeric", `{"date":"2025-03-02","type":"expense","amount":"abc"}`, 400, api.MsgAmountFormat},
		{"amount zero", `{"date":"2025-03-02","type":"expense","amount":"0"}`, 400, api.MsgAmountNotPositive},
		{"amount missing", `{"date":"2025-03-02","type":"expense"}`, 400, api.MsgAmountNotPositive},
		{"negative number", `{"date":"2025-03-02","type":"expense","amount":-3}`, 400, api.MsgAmountNotPositive},
		{"missing date", `{"type":"expense","amount":"10"}`, 400, api.MsgMissingFields},
		{"missing type", `{"date":"2025-03-02","amount":"10"}`, 400, api.MsgMissingFields},
		{"unknown type", `{"date":"2025-03-02","type":"transfer","amount":"10"}`, 400, api.MsgInvalidType},
		{"bad date", `{"date":"03/02/2025","type":"income","amount":"10"}`, 400, api.MsgInvalidDate},
		{"bad need_or_want", `{"date":"2025-03-02","type":"expense","amount":"10","need_or_want":"maybe"}`, 400, api.MsgInvalidNeedOrWant},
		{"malformed json", `{"date":`, 400, api.MsgBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, srv, http.MethodPost, api.PathAddRecord, tt.body)
			if rr.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", rr.Code, tt.status, rr.Body.String())
			}
			reply := decodeReply(t, rr)
			if reply.Success || reply.Error != tt.message {
				t.Errorf("reply = %+v, want error %q", reply, tt.message)
			}
		})
	}
}

func TestAddRecord_Success(t *testing.T) {
	srv := newTestServer(t)

	rr := do(t, srv, http.MethodPost, api.PathAddRecord,
		`{"date":"2025-03-02","type":"expense","category":"飲食","description":"","amount":"120.5","payment_method":"cash","need_or_want":"need"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}

	var reply api.AddRecordReply
	if err := json.Unmarshal(rr.Body.Bytes(), &reply); err != nil {
		t.Fatal(err)
	}
	if !reply.Success || reply.Data == nil {
		t.Fatalf("reply = %+v", reply)
	}
	d := reply.Data
	if d.ID != 1 || d.Type != core.KindExpense || d.Date != "2025-03-02" || d.Amount.Cents != 12050 {
		t.Errorf("data = %+v", d)
	}
	if d.Description != nil {
		t.Errorf("empty description should be null, got %q", *d.Description)
	}
	if api.Value(d.NeedOrWant) != "need" || api.Value(d.PaymentMethod) != "cash" {
		t.Errorf("expense fields = %v %v", d.NeedOrWant, d.PaymentMethod)
	}
	if !strings.Contains(rr.Body.String(), `"amount":120.50`) {
		t.Errorf("amount must be a JSON number: %s", rr.Body.String())
	}

	// Income ignores expense-only fields.
	rr = do(t, srv, http.MethodPost, api.PathAddRecord,
		`{"date":"2025-03-01","type":"income","category":"薪水","amount":30000,"mood":"happy"}`)
	if err := json.Unmarshal(rr.Body.Bytes(), &reply); err != nil {
		t.Fatal(err)
	}
	if reply.Data.Mood != nil || reply.Data.ID != 1 {
		t.Errorf("income data = %+v", reply.Data)
	}
}

func TestAddRecord_FormEncoded(t *testing.T) {
	srv := newTestServer(t)
	rr := do(t, srv, http.MethodPost, api.PathAddRecord, "date=2025-03-02&type=income&amount=10")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}
}

func TestEditRecord(t *testing.T) {
	srv := newTestServer(t)
	do(t, srv, http.MethodPost, api.PathAddRecord, `{"date":"2025-03-02","type":"expense","amount":"50"}`)

	tests := []struct {
		name    string
		body    string
		status  int
		message string
	}{
		{"missing amount", `{"id":"1","type":"expense","date":"2025-03-02"}`, 400, api.MsgIncompleteFields},
		{"missing id", `{"type":"expense","date":"2025-03-02","amount":"1"}`, 400, api.MsgIncompleteFields},
		{"zero amount", `{"id":"1","type":"expense","date":"2025-03-02","amount":"0"}`, 400, api.MsgAmountNotPositive},
		{"bad amount", `{"id":"1","type":"expense","date":"2025-03-02","amount":"x"}`, 400, api.MsgAmountFormat},
		{"bad type", `{"id":"1","type":"gift","date":"2025-03-02","amount":"1"}`, 400, api.MsgInvalidType},
		{"unknown id", `{"id":"99","type":"expense","date":"2025-03-02","amount":"1"}`, 404, api.MsgNotFound},
		{"wrong kind", `{"id":1,"type":"income","date":"2025-03-02","amount":"1"}`, 404, api.MsgNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, srv, http.MethodPatch, api.PathEditRecord, tt.body)
			if rr.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", rr.Code, tt.status, rr.Body.String())
			}
			if reply := decodeReply(t, rr); reply.Error != tt.message {
				t.Errorf("error = %q, want %q", reply.Error, tt.message)
			}
		})
	}

	rr := do(t, srv, http.MethodPatch, api.PathEditRecord,
		`{"id":"1","type":"expense","date":"2025-03-03","category":"交通","description":"bus","amount":"12.3","payment_method":"card","tags":"","mood":"ok","need_or_want":"want"}`)
	if rr.Code != http.StatusOK || !decodeReply(t, rr).Success {
		t.Fatalf("edit failed: %d %s", rr.Code, rr.Body.String())
	}

	var list api.RecordsReply
	rr = do(t, srv, http.MethodGet, api.PathRecords+"?month=2025-03", "")
	if err := json.Unmarshal(rr.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if len(list.Expenses) != 1 {
		t.Fatalf("expenses = %+v", list.Expenses)
	}
	got := list.Expenses[0]
	if got.Date != "2025-03-03" || api.Value(got.Category) != "交通" || got.Amount.Cents != 1230 || api.Value(got.NeedOrWant) != "want" {
		t.Errorf("edited record = %+v", got)
	}
}

func TestDeleteRecord(t *testing.T) {
	srv := newTestServer(t)
	do(t, srv, http.MethodPost, api.PathAddRecord, `{"date":"2025-03-02","type":"income","amount":"50"}`)

	tests := []struct {
		name    string
		body    string
		status  int
		message string
	}{
		{"missing id", `{"type":"income"}`, 400, api.MsgMissingParams},
		{"missing type", `{"id":"1"}`, 400, api.MsgMissingParams},
		{"bad type", `{"id":"1","type":"both"}`, 400, api.MsgInvalidType},
		{"unknown id", `{"id":"7","type":"income"}`, 404, api.MsgNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, srv, http.MethodPost, api.PathDeleteRecord, tt.body)
			if rr.Code != tt.status {
				t.Fatalf("status = %d, want %d", rr.Code, tt.status)
			}
			if reply := decodeReply(t, rr); reply.Error != tt.message {
				t.Errorf("error = %q, want %q", reply.Error, tt.message)
			}
		})
	}

	rr := do(t, srv, http.MethodPost, api.PathDeleteRecord, `{"id":"1","type":"income"}`)
	if rr.Code != http.StatusOK || !decodeReply(t, rr).Success {
		t.Fatalf("delete failed: %d %s", rr.Code, rr.Body.String())
	}
	rr = do(t, srv, http.MethodPost, api.PathDeleteRecord, `{"id":"1","type":"income"}`)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("second delete = %d, want 404", rr.Code)
	}
}

func TestChartData(t *testing.T) {
	srv := newTestServer(t)
	for _, body := range []string{
		`{"date":"2025-03-02","type":"expense","category":"飲食","amount":"100"}`,
		`{"date":"2025-03-04","type":"expense","amount":"20"}`,
		`{"date":"2025-03-05","type":"income","category":"薪水","amount":"1000"}`,
		`{"date":"2025-01-10","type":"expense","category":"交通","amount":"5"}`,
	} {
		if rr := do(t, srv, http.MethodPost, api.PathAddRecord, body); rr.Code != http.StatusOK {
			t.Fatalf("seed %s: %d", body, rr.Code)
		}
	}

	rr := do(t, srv, http.MethodGet, api.PathChartData, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	var reply api.ChartReply
	if err := json.Unmarshal(rr.Body.Bytes(), &reply); err != nil {
		t.Fatal(err)
	}
	if !reply.Complete() || reply.TrendData == nil {
		t.Fatalf("incomplete reply %s", rr.Body.String())
	}

	summary := *reply.SummaryData
	if summary[0].Type != "收入" || summary[0].Total.Cents != 100000 || summary[1].Type != "支出" || summary[1].Total.Cents != 12000 {
		t.Errorf("summary = %+v", summary)
	}

	cats := map[string]int64{}
	for _, c := range *reply.ExpenseData {
		cats[c.Category] = c.Total.Cents
	}
	if cats["飲食"] != 10000 || cats[core.UncategorizedLabel] != 2000 || len(cats) != 2 {
		t.Errorf("expense categories = %+v", cats)
	}

	trend := reply.TrendData
	wantLabels := "2024-10,2024-11,2024-12,2025-01,2025-02,2025-03"
	if strings.Join(trend.Labels, ",") != wantLabels {
		t.Errorf("labels = %v", trend.Labels)
	}
	if trend.Expense[3].Cents != 500 || trend.Expense[5].Cents != 12000 || trend.Income[5].Cents != 100000 {
		t.Errorf("trend = %+v", trend)
	}
}

type failingService struct{ RecordService }

func (failingService) ChartData(context.Context, core.Month) (core.ChartData, error) {
	return core.ChartData{}, errors.New("disk on fire")
}

func TestChartData_Error(t *testing.T) {
	srv := NewServer(":0", failingService{}, Options{})
	defer srv.Shutdown(context.Background())

	rr := do(t, srv, http.MethodGet, api.PathChartData, "")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
	reply := decodeReply(t, rr)
	if reply.Success || reply.Error != api.MsgChartError {
		t.Errorf("reply = %+v", reply)
	}
}

func TestListRecords_InvalidMonth(t *testing.T) {
	srv := newTestServer(t)
	rr := do(t, srv, http.MethodGet, api.PathRecords+"?month=2025-13", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestExport(t *testing.T) {
	srv := newTestServer(t)
	do(t, srv, http.MethodPost, api.PathAddRecord, `{"date":"2025-03-02","type":"expense","category":"飲食","amount":"100"}`)
	do(t, srv, http.MethodPost, api.PathAddRecord, `{"date":"2025-03-01","type":"income","category":"薪水","amount":"1000"}`)

	rr := do(t, srv, http.MethodGet, api.PathExport+"?year=2025", "")
	if rr.Code != http.StatusBadRequest || decodeReply(t, rr).Error != api.MsgMissingYearMonth {
		t.Fatalf("missing month: %d %s", rr.Code, rr.Body.String())
	}

	rr = do(t, srv, http.MethodGet, api.PathExport+"?year=2025&month=3", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, "attachment") || !strings.Contains(cd, "2025-03.csv") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	body := strings.TrimPrefix(rr.Body.String(), "\ufeff")
	lines := strings.Split(strings.TrimSpace(body), "\n")
	if len(lines) != 3 || !strings.HasPrefix(lines[1], "2025-03-01,薪水") || !strings.HasSuffix(lines[2], ",支出") {
		t.Errorf("csv = %q", body)
	}

	rr = do(t, srv, http.MethodGet, api.PathExport+"?year=2025&month=03&format=xlsx", "")
	if rr.Code != http.StatusOK || rr.Header().Get("Content-Type") != xlsxContentType {
		t.Fatalf("xlsx: %d %s", rr.Code, rr.Header().Get("Content-Type"))
	}
	f, err := excelize.OpenReader(bytes.NewReader(rr.Body.Bytes()))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
}

func TestIndexAndHealth(t *testing.T) {
	srv := newTestServer(t)
	do(t, srv, http.MethodPost, api.PathAddRecord, `{"date":"2025-03-02","type":"expense","category":"飲食","amount":"100"}`)

	rr := do(t, srv, http.MethodGet, "/?month_select=2025-03", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("index status = %d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{`data-row-id="1"`, `data-type="expense"`, "view-mode", "edit-input", "100.00", `id="alert_expense"`} {
		if !strings.Contains(body, want) {
			t.Errorf("index missing %q", want)
		}
	}

	for _, path := range []string{"/healthz", "/readyz"} {
		if rr := do(t, srv, http.MethodGet, path, ""); rr.Code != http.StatusOK {
			t.Fatalf("%s status = %d", path, rr.Code)
		}
	}
}

func TestIndexFormFallback(t *testing.T) {
	srv := newTestServer(t)

	rr := do(t, srv, http.MethodPost, "/?month_select=2025-03", "form_type=income&date=2025-03-09&amount=abc")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("invalid form status = %d", rr.Code)
	}

	rr = do(t, srv, http.MethodPost, "/?month_select=2025-03", "form_type=income&date=2025-03-09&category=家人&amount=300")
	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/?month_select=2025-03" {
		t.Fatalf("redirect = %d %q", rr.Code, rr.Header().Get("Location"))
	}

	rr = do(t, srv, http.MethodGet, "/?year=2025&month=3", "")
	if !strings.Contains(rr.Body.String(), `data-type="income"`) {
		t.Error("income row not rendered")
	}
}

func TestSecurityAndMethods(t *testing.T) {
	srv := newTestServer(t)

	rr := do(t, srv, http.MethodGet, api.PathAddRecord, "")
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET add_record = %d, want 405", rr.Code)
	}

	rr = do(t, srv, http.MethodGet, "/chart_data", "")
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" || rr.Header().Get("X-Request-ID") == "" {
		t.Errorf("missing middleware headers: %v", rr.Header())
	}
}

func TestRateLimitOnMutations(t *testing.T) {
	svc := services.NewRecordService(memory.New(), nil, nil, nil)
	srv := NewServer(":0", svc, Options{RateLimitPerMinute: 2, Now: func() time.Time { return fixedNow }})
	defer srv.Shutdown(context.Background())

	body := `{"date":"2025-03-02","type":"income","amount":"1"}`
	for i := 0; i < 2; i++ {
		if rr := do(t, srv, http.MethodPost, api.PathAddRecord, body); rr.Code != http.StatusOK {
			t.Fatalf("request %d = %d", i, rr.Code)
		}
	}
	rr := do(t, srv, http.MethodPost, api.PathAddRecord, body)
	if rr.Code != http.StatusTooManyRequests || decodeReply(t, rr).Error != api.MsgTooManyRequests {
		t.Fatalf("third request = %d %s", rr.Code, rr.Body.String())
	}
	if rr := do(t, srv, http.MethodGet, api.PathChartData, ""); rr.Code != http.StatusOK {
		t.Errorf("reads must not be limited, got %d", rr.Code)
	}
	rr = do(t, srv, http.MethodGet, "/metrics", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rr.Code)
	}
	for _, want := range []string{"rate_limit_hits_total 1\n", "http_requests_total ", "suspicious_requests_total 0\n"} {
		if !strings.Contains(rr.Body.String(), want) {
			t.Errorf("metrics missing %q in %q", want, rr.Body.String())
		}
	}
}
