package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"ledger/internal/client"
	applog "ledger/internal/log"
	"ledger/internal/tui/themes"
	"ledger/internal/tui/viewmodel"
)

// User-facing messages.
const (
	msgAddFailed        = "新增失敗"
	msgAdded            = "新增成功"
	msgAddError         = "發生錯誤，請稍後再試"
	msgChartIncomplete  = "無法載入圖表資料，請稍後再試。"
	msgChartUnreachable = "圖表載入失敗，請確認網路或稍後再試。"
	msgUpdated          = "交易已更新！"
	msgUpdateFailed     = "❌ 更新失敗！"
	msgUpdateError      = "⚠️ 發生連線錯誤！"
	msgDeleted          = "交易已刪除！"
	msgDeleteFailed     = "刪除失敗！"
	msgDeleteError      = "連線錯誤，請稍後再試。"
	msgLoadFailed       = "無法載入紀錄，請稍後再試。"
	msgExportFailed     = "匯出報表失敗"
	msgExported         = "報表已匯出：%s"
	msgConfirmTitle     = "確認刪除"
	msgConfirmBody      = "確定要刪除這筆%s紀錄嗎？此動作無法復原。"
)

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	km := m.keymap
	if key.Matches(msg, km.ForceQuit) {
		m.quitting = true
		return tea.Quit
	}

	// Blocking acknowledgement swallows everything until dismissed.
	if m.ack != "" {
		if key.Matches(msg, km.Confirm, km.Cancel) {
			m.ack = ""
		}
		return nil
	}

	if m.confirm.IsOpen() {
		switch {
		case key.Matches(msg, km.Confirm):
			return m.confirm.Confirm()
		case key.Matches(msg, km.Cancel):
			m.confirm.Cancel()
			m.pendingDelete = nil
		}
		return nil
	}

	switch {
	case key.Matches(msg, km.SwitchView):
		return m.switchTab()
	case key.Matches(msg, km.ToggleTheme):
		return m.switchTheme()
	case key.Matches(msg, km.DismissNotices):
		for _, p := range []viewmodel.Placeholder{viewmodel.PlaceholderAdd, viewmodel.PlaceholderChart, viewmodel.PlaceholderExpense, viewmodel.PlaceholderIncome} {
			m.notices.Clear(p)
		}
		return nil
	}

	if m.tab == TabAnalysis {
		switch {
		case key.Matches(msg, km.Refresh):
			return m.refreshCharts()
		case key.Matches(msg, km.Quit):
			m.quitting = true
			return tea.Quit
		}
		return nil
	}

	if m.focus == FocusForm {
		return m.handleFormKey(msg)
	}
	if m.edit.Enabled() {
		return m.handleEditKey(msg)
	}
	return m.handleTableKey(msg)
}

func (m *Model) switchTab() tea.Cmd {
	if m.tab == TabAnalysis {
		m.tab = TabRecords
		return nil
	}
	m.tab = TabAnalysis
	return m.refreshCharts()
}

// switchTheme applies the other theme and persists the choice.
func (m *Model) switchTheme() tea.Cmd {
	m.theme = themes.Next(m.theme.Name)
	m.logger.Debug("Theme changed", "theme", m.theme.Name)
	if m.prefs == nil {
		return nil
	}
	return saveThemeCmd(m.prefs, m.theme.Name)
}

func (m *Model) setFocus(f Focus) {
	m.focus = f
	m.syncInput()
}

// currentInput is the form input under the cursor.
func (m *Model) currentInput() viewmodel.Field {
	inputs := m.form.Inputs()
	m.formIndex = clamp(m.formIndex, len(inputs))
	return inputs[m.formIndex]
}

// currentRow is the table row under the cursor.
func (m *Model) currentRow() (viewmodel.RowKey, bool) {
	keys := m.table.Keys()
	if len(keys) == 0 {
		return viewmodel.RowKey{}, false
	}
	m.rowIndex = clamp(m.rowIndex, len(keys))
	return keys[m.rowIndex], true
}

// currentColumn is the editable cell under the cursor in edit mode.
func (m *Model) currentColumn() (viewmodel.RowKey, viewmodel.Field, bool) {
	k, ok := m.currentRow()
	if !ok {
		return viewmodel.RowKey{}, "", false
	}
	fields := viewmodel.Fields(k.Kind)
	m.colIndex = clamp(m.colIndex, len(fields))
	return k, fields[m.colIndex], true
}

// syncInput loads the focused text value into the line editor.
func (m *Model) syncInput() {
	if m.focus == FocusForm {
		m.input.SetValue(m.form.Get(m.currentInput()))
		return
	}
	if !m.edit.Enabled() {
		m.input.SetValue("")
		return
	}
	k, f, ok := m.currentColumn()
	if !ok {
		m.input.SetValue("")
		return
	}
	d, _ := m.edit.Draft(m.table, k)
	m.input.SetValue(d.Get(f))
}

func (m *Model) handleFormKey(msg tea.KeyMsg) tea.Cmd {
	km := m.keymap
	cur := m.currentInput()

	switch {
	case key.Matches(msg, km.NextField):
		m.formIndex = wrap(m.formIndex+1, len(m.form.Inputs()))
		m.syncInput()
		return nil
	case key.Matches(msg, km.PrevField):
		m.formIndex = wrap(m.formIndex-1, len(m.form.Inputs()))
		m.syncInput()
		return nil
	case key.Matches(msg, km.Back):
		m.setFocus(FocusTable)
		return nil
	case key.Matches(msg, km.Submit):
		if cur == viewmodel.InputButtons {
			m.form.Press(viewmodel.AmountButtons[m.buttonIndex])
			return nil
		}
		return m.submitForm()
	}

	if cur == viewmodel.InputButtons {
		switch {
		case key.Matches(msg, km.Left):
			m.buttonIndex = wrap(m.buttonIndex-1, len(viewmodel.AmountButtons))
		case key.Matches(msg, km.Right):
			m.buttonIndex = wrap(m.buttonIndex+1, len(viewmodel.AmountButtons))
		}
		return nil
	}
	if m.form.Options(cur) != nil {
		switch {
		case key.Matches(msg, km.Left):
			m.form.Cycle(cur, -1)
		case key.Matches(msg, km.Right):
			m.form.Cycle(cur, 1)
		}
		return nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.form.Set(cur, m.input.Value())
	return cmd
}

// submitForm validates locally and posts the form. Nothing is sent when
// validation fails.
func (m *Model) submitForm() tea.Cmd {
	values := m.form.Values()
	if err := viewmodel.ValidateForm(values); err != nil {
		return m.notify(viewmodel.PlaceholderAdd, err.Error(), viewmodel.SeverityDanger)
	}
	return addRecordCmd(m.api, m.timeout, values)
}

func (m *Model) handleTableKey(msg tea.KeyMsg) tea.Cmd {
	km := m.keymap
	switch {
	case key.Matches(msg, km.Up):
		m.rowIndex = clamp(m.rowIndex-1, len(m.table.Keys()))
	case key.Matches(msg, km.Down):
		m.rowIndex = clamp(m.rowIndex+1, len(m.table.Keys()))
	case key.Matches(msg, km.ToggleEdit):
		return m.dispatch(ActionToggleEdit)
	case key.Matches(msg, km.PrevMonth):
		return m.changeMonth(-1)
	case key.Matches(msg, km.NextMonth):
		return m.changeMonth(1)
	case key.Matches(msg, km.ExportCSV):
		return m.export("csv")
	case key.Matches(msg, km.ExportXLSX):
		return m.export("xlsx")
	case key.Matches(msg, km.Refresh):
		return loadRecordsCmd(m.api, m.timeout, m.table.Month)
	case key.Matches(msg, km.NewRecord):
		m.setFocus(FocusForm)
	case key.Matches(msg, km.Quit):
		m.quitting = true
		return tea.Quit
	}
	return nil
}

func (m *Model) handleEditKey(msg tea.KeyMsg) tea.Cmd {
	km := m.keymap
	switch {
	case msg.Type == tea.KeyUp:
		m.rowIndex = clamp(m.rowIndex-1, len(m.table.Keys()))
		m.syncInput()
		return nil
	case msg.Type == tea.KeyDown:
		m.rowIndex = clamp(m.rowIndex+1, len(m.table.Keys()))
		m.syncInput()
		return nil
	case key.Matches(msg, km.NextColumn):
		m.colIndex++
		if k, ok := m.currentRow(); ok {
			m.colIndex = wrap(m.colIndex, len(viewmodel.Fields(k.Kind)))
		}
		m.syncInput()
		return nil
	case key.Matches(msg, km.PrevColumn):
		m.colIndex--
		if k, ok := m.currentRow(); ok {
			m.colIndex = wrap(m.colIndex, len(viewmodel.Fields(k.Kind)))
		}
		m.syncInput()
		return nil
	case key.Matches(msg, km.Done):
		return m.dispatch(ActionToggleEdit)
	case key.Matches(msg, km.Save):
		return m.dispatch(ActionSave)
	case key.Matches(msg, km.Delete):
		return m.dispatch(ActionDelete)
	}

	k, f, ok := m.currentColumn()
	if !ok {
		return nil
	}
	if f == viewmodel.FieldNeedOrWant {
		step := 0
		switch {
		case key.Matches(msg, km.Left):
			step = -1
		case key.Matches(msg, km.Right):
			step = 1
		}
		if step != 0 {
			d, _ := m.edit.Draft(m.table, k)
			m.edit.SetField(m.table, k, f, cycle(viewmodel.NeedOrWantOptions, d.NeedOrWant, step))
		}
		return nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.edit.SetField(m.table, k, f, m.input.Value())
	return cmd
}

// dispatch raises a table action through the delegated registry.
func (m *Model) dispatch(action string) tea.Cmd {
	t := Target{Action: action, EditMode: m.edit.Enabled()}
	if k, ok := m.currentRow(); ok {
		t.Row = &k
	}
	cmd, ok := m.actions.Dispatch(m, t)
	if !ok {
		m.logger.Debug("No handler for action", "action", action)
	}
	return cmd
}

func (m *Model) toggleEdit(Target) tea.Cmd {
	m.edit.Toggle()
	m.colIndex = 0
	m.syncInput()
	return nil
}

// saveRow validates the row's draft and sends the update. An invalid
// amount keeps the row in edit mode.
func (m *Model) saveRow(t Target) tea.Cmd {
	draft, ok := m.edit.Draft(m.table, *t.Row)
	if !ok {
		return nil
	}
	req, err := viewmodel.EditRequest(draft)
	if err != nil {
		return m.notify(viewmodel.PlaceholderFor(t.Row.Kind), err.Error(), viewmodel.SeverityDanger)
	}
	return editRecordCmd(m.api, m.timeout, draft, req)
}

// openDelete records the pending delete and arms the dialog with a
// handler bound to this row only.
func (m *Model) openDelete(t Target) tea.Cmd {
	k := *t.Row
	m.pendingDelete = &k
	c, timeout := m.api, m.timeout
	m.confirm.Open(msgConfirmTitle, fmt.Sprintf(msgConfirmBody, k.Kind.Label()), func() tea.Cmd {
		return deleteRecordCmd(c, timeout, k)
	})
	return nil
}

func (m *Model) changeMonth(step int) tea.Cmd {
	month := m.table.Month.AddMonths(step)
	m.table.Load(month, nil, nil)
	m.edit.Exit()
	m.rowIndex, m.colIndex = 0, 0
	return loadRecordsCmd(m.api, m.timeout, month)
}

// export runs the export sub-flow for the displayed month.
func (m *Model) export(format string) tea.Cmd {
	month, err := viewmodel.ExportMonth(m.table.Month.String())
	if err != nil {
		return m.notify(viewmodel.PlaceholderAdd, err.Error(), viewmodel.SeverityWarning)
	}
	return exportCmd(m.api, m.timeout, m.exportDir, month, format)
}

func (m *Model) handleRecordsLoaded(msg recordsLoadedMsg) tea.Cmd {
	if msg.month != m.table.Month {
		return nil
	}
	if msg.err != nil {
		m.logger.Error("Failed to load records",
			applog.FieldMonth, msg.month.String(),
			applog.FieldError, msg.err)
		return m.notify(viewmodel.PlaceholderExpense, client.ServerMessage(msg.err, msgLoadFailed), viewmodel.SeverityDanger)
	}
	m.table.Load(msg.month, msg.reply.Expenses, msg.reply.Incomes)
	m.rowIndex = clamp(m.rowIndex, len(m.table.Keys()))
	m.syncInput()
	return nil
}

func (m *Model) handleRecordAdded(msg recordAddedMsg) tea.Cmd {
	if msg.err != nil {
		if client.IsAPIError(msg.err) {
			return m.notify(viewmodel.PlaceholderAdd, client.ServerMessage(msg.err, msgAddFailed), viewmodel.SeverityDanger)
		}
		m.logger.Error("Failed to add record", applog.FieldError, msg.err)
		return m.notify(viewmodel.PlaceholderAdd, msgAddError, viewmodel.SeverityDanger)
	}

	m.form.Reset()
	m.formIndex, m.buttonIndex = 0, 0
	m.syncInput()

	row := viewmodel.RowFromRecord(msg.record)
	if len(msg.record.Date) >= 7 && msg.record.Date[:7] == m.table.Month.String() {
		m.table.Prepend(row)
	}
	m.logger.Info("Record added",
		applog.NewFields().WithOperation(applog.OpCreate).WithRecord(string(row.Key.Kind), row.Key.ID, msg.record.Amount.Cents).ToSlice()...)

	return tea.Batch(
		m.refreshCharts(),
		m.notify(viewmodel.PlaceholderAdd, msgAdded, viewmodel.SeveritySuccess),
	)
}

func (m *Model) handleRecordEdited(msg recordEditedMsg) tea.Cmd {
	if msg.err != nil {
		if client.IsAPIError(msg.err) {
			m.ack = msgUpdateFailed
		} else {
			m.logger.Error("Failed to update record", applog.FieldRecordID, msg.row.Key.ID, applog.FieldError, msg.err)
			m.ack = msgUpdateError
		}
		return nil
	}

	m.table.Replace(msg.row.Saved())
	m.edit.Exit()
	m.syncInput()
	return m.notify(viewmodel.PlaceholderFor(msg.row.Key.Kind), msgUpdated, viewmodel.SeveritySuccess)
}

func (m *Model) handleRecordDeleted(msg recordDeletedMsg) tea.Cmd {
	m.pendingDelete = nil
	if msg.err != nil {
		if client.IsAPIError(msg.err) {
			m.ack = client.ServerMessage(msg.err, msgDeleteFailed)
		} else {
			m.logger.Error("Failed to delete record", applog.FieldRecordID, msg.key.ID, applog.FieldError, msg.err)
			m.ack = msgDeleteError
		}
		return nil
	}

	m.table.Remove(msg.key)
	m.confirm.Cancel()
	m.edit.Exit()
	m.rowIndex = clamp(m.rowIndex, len(m.table.Keys()))
	m.syncInput()
	return tea.Batch(
		m.notify(viewmodel.PlaceholderFor(msg.key.Kind), msgDeleted, viewmodel.SeveritySuccess),
		m.refreshCharts(),
	)
}

// handleChartData draws every chart, or only a notice when the reply is
// unusable.
func (m *Model) handleChartData(msg chartDataMsg) tea.Cmd {
	if msg.err != nil {
		m.logger.Error("Failed to load chart data", applog.FieldError, msg.err)
		return m.notify(viewmodel.PlaceholderChart, msgChartUnreachable, viewmodel.SeverityDanger)
	}
	reply := msg.reply
	if !reply.Complete() {
		return m.notify(viewmodel.PlaceholderChart, msgChartIncomplete, viewmodel.SeverityDanger)
	}

	m.notices.Clear(viewmodel.PlaceholderChart)
	m.charts.Draw(CanvasExpensePie, NewCategoryPie("支出分類", *reply.ExpenseData))
	m.charts.Draw(CanvasIncomePie, NewCategoryPie("收入分類", *reply.IncomeData))
	m.charts.Draw(CanvasTrend, NewTrendChart("近六個月收支趨勢", reply.TrendData))
	m.charts.Draw(CanvasSummaryPie, NewSummaryPie("本月收支", *reply.SummaryData))
	return nil
}

func (m *Model) handleExportDone(msg exportDoneMsg) tea.Cmd {
	if msg.err != nil {
		m.logger.Error("Export failed", applog.FieldError, msg.err)
		return m.notify(viewmodel.PlaceholderAdd, client.ServerMessage(msg.err, msgExportFailed), viewmodel.SeverityDanger)
	}
	m.logger.Info("Report exported", "path", msg.path)
	return m.notify(viewmodel.PlaceholderAdd, fmt.Sprintf(msgExported, msg.path), viewmodel.SeveritySuccess)
}

// clamp keeps i inside [0, n).
func clamp(i, n int) int {
	if n <= 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// wrap is i modulo n, always non-negative.
func wrap(i, n int) int {
	if n <= 0 {
		return 0
	}
	return (i%n + n) % n
}

func cycle(options []string, current string, step int) string {
	i := 0
	for j, o := range options {
		if o == current {
			i = j
		}
	}
	return options[wrap(i+step, len(options))]
}
