package tui

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/api"
	"ledger/internal/client"
	"ledger/internal/core"
	applog "ledger/internal/log"
	"ledger/internal/prefs"
	"ledger/internal/tui/themes"
	"ledger/internal/tui/viewmodel"
)

var (
	fixedNow = time.Date(2025, time.March, 15, 9, 30, 0, 0, time.UTC)
	march    = core.Month{Year: 2025, Month: time.March}
	april    = core.Month{Year: 2025, Month: time.April}
)

type fakeAPI struct {
	mu sync.Mutex

	records map[core.Month]api.RecordsReply
	listErr error

	added     []map[string]string
	addRecord api.Record
	addErr    error

	edits   []api.EditRecordRequest
	editErr error

	deletes   []viewmodel.RowKey
	deleteErr error

	chart      api.ChartReply
	chartErr   error
	chartCalls int

	exports []string
}

func (f *fakeAPI) AddRecord(_ context.Context, fields map[string]string) (api.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.added = append(f.added, fields)
	return f.addRecord, f.addErr
}

func (f *fakeAPI) EditRecord(_ context.Context, req api.EditRecordRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, req)
	return f.editErr
}

func (f *fakeAPI) DeleteRecord(_ context.Context, id int64, kind core.Kind) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, viewmodel.RowKey{ID: id, Kind: kind})
	return f.deleteErr
}

func (f *fakeAPI) ChartData(context.Context) (api.ChartReply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chartCalls++
	return f.chart, f.chartErr
}

func (f *fakeAPI) ListRecords(_ context.Context, month core.Month) (api.RecordsReply, error) {
	if f.listErr != nil {
		return api.RecordsReply{}, f.listErr
	}
	reply := f.records[month]
	reply.Success = true
	reply.Month = month.String()
	return reply, nil
}

func (f *fakeAPI) Export(_ context.Context, month core.Month, format string) (string, []byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exports = append(f.exports, format)
	return "財務報表_" + month.String() + "." + format, []byte("report"), nil
}

type memPrefs map[string]string

func (p memPrefs) Get(key string) (string, bool) {
	v, ok := p[key]
	return v, ok
}

func (p memPrefs) Set(key, value string) error {
	p[key] = value
	return nil
}

func rec(id int64, kind core.Kind, date, amount string) api.Record {
	m, err := core.ParseAmount(amount)
	if err != nil {
		panic(err)
	}
	r := api.Record{ID: id, Type: kind, Date: date, Amount: m, Category: api.Optional("飲食")}
	if kind == core.KindExpense {
		r.NeedOrWant = api.Optional("need")
	}
	return r
}

func completeChart() api.ChartReply {
	return api.FromChartData(core.ChartData{
		Expense: []core.CategoryTotal{{Category: "飲食", Total: core.Money{Cents: 1500}}},
		Income:  []core.CategoryTotal{{Category: "薪資", Total: core.Money{Cents: 300000}}},
		Summary: []core.KindTotal{
			{Kind: core.KindIncome, Total: core.Money{Cents: 300000}},
			{Kind: core.KindExpense, Total: core.Money{Cents: 1500}},
		},
	})
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		records: map[core.Month]api.RecordsReply{
			march: {
				Expenses: []api.Record{rec(1, core.KindExpense, "2025-03-10", "10")},
				Incomes:  []api.Record{rec(1, core.KindIncome, "2025-03-01", "3000")},
			},
		},
		chart: completeChart(),
	}
}

func newTestModel(t *testing.T, f *fakeAPI, p memPrefs) Model {
	t.Helper()
	if p == nil {
		p = memPrefs{}
	}
	m := New(Config{
		API:           f,
		Prefs:         p,
		Logger:        applog.New(applog.Config{Output: io.Discard}),
		Now:           func() time.Time { return fixedNow },
		ExportDir:     t.TempDir(),
		Width:         140,
		Height:        50,
		NoticeVisible: time.Millisecond,
		NoticeFade:    time.Millisecond,
	})
	return run(m, m.Init())
}

func update(m Model, msg tea.Msg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

// run executes cmd and feeds every resulting message back into the
// model. Notice timers and quit are dropped so tests stay synchronous.
func run(m Model, cmd tea.Cmd) Model {
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case nil, noticeFadeMsg, noticeRemoveMsg, tea.QuitMsg:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		default:
			var next tea.Cmd
			m, next = update(m, msg)
			queue = append(queue, next)
		}
	}
	return m
}

func press(m Model, keys ...tea.KeyMsg) Model {
	for _, k := range keys {
		var cmd tea.Cmd
		m, cmd = update(m, k)
		m = run(m, cmd)
	}
	return m
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

var (
	keyEnter   = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc     = tea.KeyMsg{Type: tea.KeyEscape}
	keyTab     = tea.KeyMsg{Type: tea.KeyTab}
	keyDelete  = tea.KeyMsg{Type: tea.KeyCtrlX}
	keySwitch  = tea.KeyMsg{Type: tea.KeyCtrlO}
	keyTheme   = tea.KeyMsg{Type: tea.KeyCtrlT}
	keyRight   = tea.KeyMsg{Type: tea.KeyRight}
	expenseKey = viewmodel.RowKey{ID: 1, Kind: core.KindExpense}
)

func noticeText(m Model, p viewmodel.Placeholder) string {
	n, ok := m.Notices().Get(p)
	if !ok {
		return ""
	}
	return n.Message
}

func TestModel_InitLoadsCurrentMonth(t *testing.T) {
	m := newTestModel(t, newFakeAPI(), nil)

	assert.Equal(t, march, m.Table().Month)
	assert.Equal(t, 1, m.Table().Len(core.KindExpense))
	assert.Equal(t, 1, m.Table().Len(core.KindIncome))
	assert.Equal(t, TabRecords, m.ActiveTab())
}

func TestModel_CreatePrependsWhenMonthMatches(t *testing.T) {
	f := newFakeAPI()
	f.addRecord = rec(7, core.KindExpense, "2025-03-15", "120")
	m := newTestModel(t, f, nil)

	m.Form().Set(viewmodel.FieldAmount, "120")
	m = press(m, keyEnter)

	require.Len(t, f.added, 1)
	assert.Equal(t, "expense", f.added[0]["type"])
	assert.Equal(t, "2025-03-15", f.added[0]["date"])
	assert.Equal(t, "120", f.added[0]["amount"])

	keys := m.Table().Keys()
	require.NotEmpty(t, keys)
	assert.Equal(t, viewmodel.RowKey{ID: 7, Kind: core.KindExpense}, keys[0])
	assert.Equal(t, "新增成功", noticeText(m, viewmodel.PlaceholderAdd))
	assert.Empty(t, m.Form().Amount, "form is reset after a create")
	assert.Equal(t, 1, f.chartCalls)
}

func TestModel_CreateOutsideDisplayedMonthIsNotPrepended(t *testing.T) {
	f := newFakeAPI()
	f.addRecord = rec(8, core.KindIncome, "2025-02-28", "50")
	m := newTestModel(t, f, nil)

	m.Form().SetKind(core.KindIncome)
	m.Form().Set(viewmodel.FieldDate, "2025-02-28")
	m.Form().Set(viewmodel.FieldAmount, "50")
	m = press(m, keyEnter)

	require.Len(t, f.added, 1)
	assert.Equal(t, 1, m.Table().Len(core.KindIncome))
	assert.Equal(t, "新增成功", noticeText(m, viewmodel.PlaceholderAdd))
}

func TestModel_InvalidFormSendsNothing(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *viewmodel.Form)
		want  string
	}{
		{"missing amount", func(f *viewmodel.Form) {}, viewmodel.MsgInvalidAmount},
		{"negative amount", func(f *viewmodel.Form) { f.Set(viewmodel.FieldAmount, "-3") }, viewmodel.MsgInvalidAmount},
		{"no kind", func(f *viewmodel.Form) { f.SetKind("") }, viewmodel.MsgPickKind},
		{"no date", func(f *viewmodel.Form) {
			f.Set(viewmodel.FieldAmount, "5")
			f.Set(viewmodel.FieldDate, "")
		}, viewmodel.MsgPickDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeAPI()
			m := newTestModel(t, f, nil)
			tt.setup(m.Form())
			m = press(m, keyEnter)

			assert.Empty(t, f.added)
			assert.Equal(t, tt.want, noticeText(m, viewmodel.PlaceholderAdd))
		})
	}
}

func TestModel_CreateFailures(t *testing.T) {
	f := newFakeAPI()
	f.addErr = &client.APIError{Status: 400, Message: "金額必須大於 0"}
	m := newTestModel(t, f, nil)
	m.Form().Set(viewmodel.FieldAmount, "1")
	m = press(m, keyEnter)
	assert.Equal(t, "金額必須大於 0", noticeText(m, viewmodel.PlaceholderAdd))
	assert.Equal(t, "1", m.Form().Amount, "form keeps its values after a failure")

	f.addErr = &client.APIError{Status: 500}
	m = press(m, keyEnter)
	assert.Equal(t, "新增失敗", noticeText(m, viewmodel.PlaceholderAdd))

	f.addErr = errors.New("connection refused")
	m = press(m, keyEnter)
	assert.Equal(t, "發生錯誤，請稍後再試", noticeText(m, viewmodel.PlaceholderAdd))
	assert.Equal(t, 0, f.chartCalls)
}

func TestModel_AmountButtons(t *testing.T) {
	m := newTestModel(t, newFakeAPI(), nil)
	// type, date, category, description, amount, buttons
	for range 5 {
		m = press(m, keyTab)
	}
	m = press(m, keyEnter, keyRight, keyEnter)
	assert.Equal(t, "60.00", m.Form().Amount)
}

func TestModel_ChartsRedrawWithoutLeaking(t *testing.T) {
	f := newFakeAPI()
	m := newTestModel(t, f, nil)

	m = press(m, keySwitch)
	assert.Equal(t, TabAnalysis, m.ActiveTab())
	for range 3 {
		m = press(m, runes("r"))
	}

	assert.Equal(t, 4, f.chartCalls)
	assert.Equal(t, len(Canvases), m.Charts().Live())
	acquired, released := m.Charts().Stats()
	assert.Equal(t, 16, acquired)
	assert.Equal(t, 12, released)

	view := m.View()
	assert.Contains(t, view, "支出分類")
	assert.Contains(t, view, "近六個月收支趨勢")
}

func TestModel_IncompleteChartReply(t *testing.T) {
	f := newFakeAPI()
	f.chart.SummaryData = nil
	m := newTestModel(t, f, nil)

	m = press(m, keySwitch)
	assert.Equal(t, 0, m.Charts().Live())
	assert.Equal(t, "無法載入圖表資料，請稍後再試。", noticeText(m, viewmodel.PlaceholderChart))

	f.chart = completeChart()
	m = press(m, runes("r"))
	assert.Equal(t, len(Canvases), m.Charts().Live())
	assert.Empty(t, noticeText(m, viewmodel.PlaceholderChart))
}

func TestModel_ChartTransportFailure(t *testing.T) {
	f := newFakeAPI()
	f.chartErr = errors.New("timeout")
	m := newTestModel(t, f, nil)

	m = press(m, keySwitch)
	assert.Equal(t, "圖表載入失敗，請確認網路或稍後再試。", noticeText(m, viewmodel.PlaceholderChart))
}

func editingModel(t *testing.T, f *fakeAPI) Model {
	t.Helper()
	m := newTestModel(t, f, nil)
	m = press(m, keyEsc, runes("e"))
	require.True(t, m.EditMode().Enabled())
	return m
}

func TestModel_EditRejectsNonPositiveAmount(t *testing.T) {
	f := newFakeAPI()
	m := editingModel(t, f)

	m.EditMode().SetField(m.Table(), expenseKey, viewmodel.FieldAmount, "-5")
	m = press(m, keyEnter)

	assert.Empty(t, f.edits)
	assert.Equal(t, "金額必須是大於 0 的數字", noticeText(m, viewmodel.PlaceholderExpense))
	assert.True(t, m.EditMode().Enabled())
	row, _ := m.Table().Get(expenseKey)
	assert.Equal(t, "10.00", row.Amount)
}

func TestModel_EditSuccess(t *testing.T) {
	f := newFakeAPI()
	m := editingModel(t, f)

	m.EditMode().SetField(m.Table(), expenseKey, viewmodel.FieldAmount, "25.5")
	m.EditMode().SetField(m.Table(), expenseKey, viewmodel.FieldNeedOrWant, "want")
	m = press(m, keyEnter)

	require.Len(t, f.edits, 1)
	req := f.edits[0]
	assert.Equal(t, int64(1), req.ID)
	assert.Equal(t, "25.5", req.Amount)
	require.NotNil(t, req.NeedOrWant)
	assert.Equal(t, "want", *req.NeedOrWant)

	row, _ := m.Table().Get(expenseKey)
	assert.Equal(t, "25.50", row.Amount)
	assert.False(t, m.EditMode().Enabled())
	assert.Equal(t, "交易已更新！", noticeText(m, viewmodel.PlaceholderExpense))
	assert.Equal(t, 0, f.chartCalls, "an edit does not refresh the charts")
}

func TestModel_EditFailureNeedsAcknowledgement(t *testing.T) {
	f := newFakeAPI()
	f.editErr = &client.APIError{Status: 404, Message: "找不到紀錄"}
	m := editingModel(t, f)

	m = press(m, keyEnter)
	assert.Equal(t, "❌ 更新失敗！", m.Acknowledgement())

	m = press(m, runes("e"))
	assert.True(t, m.EditMode().Enabled(), "keys are swallowed until acknowledged")
	m = press(m, keyEnter)
	assert.Empty(t, m.Acknowledgement())

	f.editErr = errors.New("reset by peer")
	m = press(m, keyEnter)
	assert.Equal(t, "⚠️ 發生連線錯誤！", m.Acknowledgement())
	assert.True(t, m.EditMode().Enabled())
}

func TestModel_DeleteConfirmed(t *testing.T) {
	f := newFakeAPI()
	m := editingModel(t, f)

	m = press(m, keyDelete)
	require.True(t, m.confirm.IsOpen())
	require.NotNil(t, m.pendingDelete)
	assert.Empty(t, f.deletes, "nothing is sent before confirming")

	m = press(m, runes("y"))
	assert.Equal(t, []viewmodel.RowKey{expenseKey}, f.deletes)
	_, ok := m.Table().Get(expenseKey)
	assert.False(t, ok)
	assert.False(t, m.confirm.IsOpen())
	assert.Nil(t, m.pendingDelete)
	assert.False(t, m.EditMode().Enabled())
	assert.Equal(t, "交易已刪除！", noticeText(m, viewmodel.PlaceholderExpense))
	assert.Equal(t, 1, f.chartCalls)
}

func TestModel_DeleteCancelledThenConfirmedRunsOnce(t *testing.T) {
	f := newFakeAPI()
	m := editingModel(t, f)

	m = press(m, keyDelete, runes("n"))
	assert.False(t, m.confirm.IsOpen())
	assert.Nil(t, m.pendingDelete)

	m = press(m, keyDelete, keyDelete, runes("y"), runes("y"))
	assert.Len(t, f.deletes, 1)
}

func TestModel_DeleteFailures(t *testing.T) {
	f := newFakeAPI()
	f.deleteErr = &client.APIError{Status: 404, Message: "找不到紀錄"}
	m := editingModel(t, f)

	m = press(m, keyDelete, runes("y"))
	assert.Equal(t, "找不到紀錄", m.Acknowledgement())
	_, ok := m.Table().Get(expenseKey)
	assert.True(t, ok, "row stays after a failed delete")
	assert.Nil(t, m.pendingDelete)

	m = press(m, keyEnter)
	f.deleteErr = errors.New("no route to host")
	m = press(m, keyDelete, runes("y"))
	assert.Equal(t, "連線錯誤，請稍後再試。", m.Acknowledgement())
	assert.Equal(t, 0, f.chartCalls)
}

func TestModel_DeleteNeedsEditMode(t *testing.T) {
	f := newFakeAPI()
	m := newTestModel(t, f, nil)
	m = press(m, keyEsc, keyDelete)
	assert.False(t, m.confirm.IsOpen())
}

func TestModel_MonthNavigationIgnoresStaleReplies(t *testing.T) {
	f := newFakeAPI()
	m := newTestModel(t, f, nil)
	m = press(m, keyEsc)

	var cmd tea.Cmd
	m, cmd = update(m, runes("]"))
	assert.Equal(t, april, m.Table().Month)
	assert.Empty(t, m.Table().Keys())

	m, _ = update(m, recordsLoadedMsg{month: march, reply: f.records[march]})
	assert.Empty(t, m.Table().Keys(), "stale reply for another month is ignored")

	m = run(m, cmd)
	assert.Equal(t, april, m.Table().Month)
}

func TestModel_Export(t *testing.T) {
	f := newFakeAPI()
	m := newTestModel(t, f, nil)
	m = press(m, keyEsc, runes("x"))

	require.Equal(t, []string{"csv"}, f.exports)
	path := filepath.Join(m.exportDir, "財務報表_2025-03.csv")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "report", string(data))
	assert.True(t, strings.HasSuffix(noticeText(m, viewmodel.PlaceholderAdd), path))
}

func TestModel_NoticeTimersIgnoreStaleSequence(t *testing.T) {
	m := newTestModel(t, newFakeAPI(), nil)
	n := m.Notices()
	first, _ := n.Show(viewmodel.PlaceholderAdd, "first", viewmodel.SeverityInfo)
	second, _ := n.Show(viewmodel.PlaceholderAdd, "second", viewmodel.SeverityInfo)

	m, cmd := update(m, noticeFadeMsg{placeholder: viewmodel.PlaceholderAdd, seq: first})
	assert.Nil(t, cmd)
	got, _ := n.Get(viewmodel.PlaceholderAdd)
	assert.Equal(t, viewmodel.NoticeShown, got.Phase)

	m, cmd = update(m, noticeFadeMsg{placeholder: viewmodel.PlaceholderAdd, seq: second})
	require.NotNil(t, cmd)
	got, _ = n.Get(viewmodel.PlaceholderAdd)
	assert.Equal(t, viewmodel.NoticeFading, got.Phase)

	m, _ = update(m, cmd())
	_, ok := m.Notices().Get(viewmodel.PlaceholderAdd)
	assert.False(t, ok)
}

func TestModel_ThemeIsPersisted(t *testing.T) {
	p := memPrefs{}
	m := newTestModel(t, newFakeAPI(), p)
	assert.Equal(t, themes.NameLight, m.Theme().Name)

	m = press(m, keyTheme)
	assert.Equal(t, themes.NameDark, m.Theme().Name)
	assert.Equal(t, themes.NameDark, p[prefs.KeyTheme])

	reopened := newTestModel(t, newFakeAPI(), p)
	assert.Equal(t, themes.NameDark, reopened.Theme().Name)

	m = press(m, keyTheme)
	assert.Equal(t, themes.NameLight, p[prefs.KeyTheme])
}

func TestModel_ViewShowsRecords(t *testing.T) {
	m := newTestModel(t, newFakeAPI(), nil)
	view := m.View()

	assert.Contains(t, view, "收支紀錄")
	assert.Contains(t, view, "2025-03-10")
	assert.Contains(t, view, "3000.00")
	assert.Contains(t, view, "2025-03")
}

func TestCharts_NegativeTotalsDoNotPanic(t *testing.T) {
	pie := NewCategoryPie("支出分類", []api.CategoryTotal{
		{Category: "飲食", Total: core.Money{Cents: 100}},
		{Category: "退款", Total: core.Money{Cents: -250}},
	})
	trend := NewTrendChart("近六個月收支趨勢", &api.Trend{
		Labels:  []string{"2025-02", "2025-03"},
		Income:  []core.Money{{Cents: -500}, {Cents: 300}},
		Expense: []core.Money{{Cents: 200}, {Cents: -100}},
	})

	require.NotPanics(t, func() {
		out := pie.Render(themes.Light, 60)
		assert.Contains(t, out, "退款")
	})
	require.NotPanics(t, func() {
		out := trend.Render(themes.Light, 60)
		assert.Contains(t, out, "2025-03")
	})
}
