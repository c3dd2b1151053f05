package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/api"
	"ledger/internal/cache"
	"ledger/internal/core"
	httpserver "ledger/internal/http"
	"ledger/internal/records/memory"
	"ledger/internal/services"
)

var fixedNow = time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	svc := services.NewRecordService(memory.New(), nil, cache.NewLRUCache[core.ChartData](8, time.Minute), nil)
	srv := httpserver.NewServer(":0", svc, httpserver.Options{Now: func() time.Time { return fixedNow }})
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(func() {
		ts.Close()
		_ = srv.Shutdown(context.Background())
	})
	return New(ts.URL, 5*time.Second, nil)
}

func addExpense(t *testing.T, c *Client, date, amount string) api.Record {
	t.Helper()
	rec, err := c.AddRecord(context.Background(), map[string]string{
		"date":         date,
		"type":         "expense",
		"category":     "飲食",
		"description":  "lunch",
		"amount":       amount,
		"need_or_want": "need",
	})
	require.NoError(t, err)
	return rec
}

func TestClient_AddRecord(t *testing.T) {
	c := newTestClient(t)

	rec := addExpense(t, c, "2025-03-02", "120.5")
	assert.Positive(t, rec.ID)
	assert.Equal(t, core.KindExpense, rec.Type)
	assert.Equal(t, "2025-03-02", rec.Date)
	assert.Equal(t, "120.50", rec.Amount.String())
	assert.Equal(t, "need", api.Value(rec.NeedOrWant))
	assert.Nil(t, rec.Tags)
}

func TestClient_AddRecordRejected(t *testing.T) {
	c := newTestClient(t)

	_, err := c.AddRecord(context.Background(), map[string]string{
		"date": "2025-03-02", "type": "expense", "amount": "0",
	})
	require.Error(t, err)
	assert.True(t, IsAPIError(err))
	assert.Equal(t, api.MsgAmountNotPositive, ServerMessage(err, "新增失敗"))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
}

func TestClient_EditAndDelete(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	rec := addExpense(t, c, "2025-03-02", "10")

	mood := "happy"
	err := c.EditRecord(ctx, api.EditRecordRequest{
		ID:          rec.ID,
		Type:        core.KindExpense,
		Date:        "2025-03-03",
		Category:    "交通",
		Description: "bus",
		Amount:      "25",
		Mood:        &mood,
	})
	require.NoError(t, err)

	list, err := c.ListRecords(ctx, core.Month{Year: 2025, Month: time.March})
	require.NoError(t, err)
	require.Len(t, list.Expenses, 1)
	assert.Equal(t, "25.00", list.Expenses[0].Amount.String())
	assert.Equal(t, "happy", api.Value(list.Expenses[0].Mood))

	require.NoError(t, c.DeleteRecord(ctx, rec.ID, core.KindExpense))

	err = c.DeleteRecord(ctx, rec.ID, core.KindExpense)
	require.Error(t, err)
	assert.Equal(t, api.MsgNotFound, ServerMessage(err, "刪除失敗！"))
}

func TestClient_ChartData(t *testing.T) {
	c := newTestClient(t)
	addExpense(t, c, "2025-03-02", "40")

	reply, err := c.ChartData(context.Background())
	require.NoError(t, err)
	require.True(t, reply.Complete())
	require.Len(t, *reply.ExpenseData, 1)
	assert.Equal(t, "飲食", (*reply.ExpenseData)[0].Category)
	require.NotNil(t, reply.TrendData)
	assert.Equal(t, "2025-03", reply.TrendData.Labels[len(reply.TrendData.Labels)-1])
}

func TestClient_ChartDataIncompleteIsNotAnError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"expense_data":[]}`))
	}))
	defer ts.Close()

	reply, err := New(ts.URL, time.Second, nil).ChartData(context.Background())
	require.NoError(t, err)
	assert.False(t, reply.Complete())
	assert.NotNil(t, reply.ExpenseData)
	assert.Nil(t, reply.IncomeData)
}

func TestClient_TransportAndDecodeFailures(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	}))

	_, err := New(ts.URL, time.Second, nil).ChartData(context.Background())
	require.Error(t, err)
	assert.False(t, IsAPIError(err))
	assert.Contains(t, err.Error(), "decode")

	url := ts.URL
	ts.Close()
	err = New(url, time.Second, nil).DeleteRecord(context.Background(), 1, core.KindIncome)
	require.Error(t, err)
	assert.False(t, IsAPIError(err))
	assert.Equal(t, "連線錯誤，請稍後再試。", ServerMessage(err, "連線錯誤，請稍後再試。"))
}

func TestClient_Export(t *testing.T) {
	c := newTestClient(t)
	addExpense(t, c, "2025-03-02", "40")
	month := core.Month{Year: 2025, Month: time.March}

	name, data, err := c.Export(context.Background(), month, "csv")
	require.NoError(t, err)
	assert.Equal(t, "財務報表_2025-03.csv", name)
	assert.True(t, strings.HasPrefix(string(data), "\ufeff日期,類別,描述,金額,類型"))

	name, data, err = c.Export(context.Background(), month, "xlsx")
	require.NoError(t, err)
	assert.Equal(t, "財務報表_2025-03.xlsx", name)
	assert.Equal(t, "PK", string(data[:2]))
}
