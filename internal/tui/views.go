package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"

	"ledger/internal/core"
	"ledger/internal/tui/viewmodel"
)

const (
	minChartWidth = 30
	appTitle      = "記帳本"
)

// View renders the whole screen.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var body string
	if m.tab == TabAnalysis {
		body = m.renderAnalysis()
	} else {
		body = m.renderRecords()
	}

	screen := lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		body,
		m.renderHelp(),
	)

	switch {
	case m.ack != "":
		return m.overlay(m.renderAck())
	case m.confirm.IsOpen():
		return m.overlay(m.renderConfirm())
	}
	return screen
}

func (m Model) renderHeader() string {
	t := m.theme
	tabs := []string{"收支紀錄", "分析"}
	rendered := make([]string, len(tabs))
	for i, name := range tabs {
		if Tab(i) == m.tab {
			rendered[i] = t.TabActive.Render(name)
		} else {
			rendered[i] = t.TabInactive.Render(name)
		}
	}
	right := t.Faint.Render(fmt.Sprintf("%s  主題: %s", m.table.Month, m.theme.Name))
	return lipgloss.JoinHorizontal(lipgloss.Center,
		t.Title.Render(appTitle),
		"  ",
		lipgloss.JoinHorizontal(lipgloss.Top, rendered...),
		"  ",
		right,
	)
}

func (m Model) renderNotice(p viewmodel.Placeholder) string {
	n, ok := m.notices.Get(p)
	if !ok {
		return ""
	}
	t := m.theme
	style := t.StatusInfo
	switch n.Severity {
	case viewmodel.SeveritySuccess:
		style = t.StatusSuccess
	case viewmodel.SeverityDanger:
		style = t.StatusDanger
	case viewmodel.SeverityWarning:
		style = t.StatusWarning
	}
	if n.Phase == viewmodel.NoticeFading {
		style = style.Faint(true)
	}
	return style.Render(n.Message)
}

func (m Model) renderRecords() string {
	form := m.renderForm()
	tables := lipgloss.JoinVertical(lipgloss.Left,
		m.renderTable(core.KindExpense),
		m.renderTable(core.KindIncome),
	)
	if m.width > 0 && m.width < 100 {
		return lipgloss.JoinVertical(lipgloss.Left, form, tables)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, form, "  ", tables)
}

func (m Model) renderForm() string {
	t := m.theme
	var b strings.Builder
	b.WriteString(t.Subtitle.Render("新增紀錄"))
	b.WriteString("\n")
	if n := m.renderNotice(viewmodel.PlaceholderAdd); n != "" {
		b.WriteString(n + "\n")
	}

	focused := m.focus == FocusForm && m.tab == TabRecords
	inputs := m.form.Inputs()
	for i, in := range inputs {
		active := focused && i == m.formIndex
		b.WriteString(m.renderFormInput(in, active))
		b.WriteString("\n")
	}

	box := t.RoundedBox
	if focused {
		box = box.BorderForeground(t.Primary)
	}
	return box.Render(strings.TrimRight(b.String(), "\n"))
}

func (m Model) renderFormInput(in viewmodel.Field, active bool) string {
	t := m.theme
	label := formLabel(in)
	marker := "  "
	if active {
		marker = t.Highlighted.Render("> ")
	}

	if in == viewmodel.InputButtons {
		buttons := make([]string, len(viewmodel.AmountButtons))
		for i, btn := range viewmodel.AmountButtons {
			if active && i == m.buttonIndex {
				buttons[i] = t.Selected.Render(btn.Label)
			} else {
				buttons[i] = t.Faint.Render(btn.Label)
			}
		}
		return marker + strings.Join(buttons, " ")
	}

	value := m.form.Get(in)
	switch {
	case m.form.Options(in) != nil:
		shown := optionLabel(in, value)
		if active {
			shown = "‹ " + shown + " ›"
		}
		value = shown
	case active:
		value = m.input.View()
	}
	return marker + t.Bold.Render(label) + " " + t.Input.Render(value)
}

func formLabel(in viewmodel.Field) string {
	if in == viewmodel.InputType {
		return "類型"
	}
	return in.Title()
}

func optionLabel(in viewmodel.Field, value string) string {
	if value == "" {
		if in == viewmodel.InputType {
			return "請選擇收支類型"
		}
		return viewmodel.CategoryPlaceholder
	}
	if in == viewmodel.InputType {
		return core.Kind(value).Label()
	}
	return value
}

func (m Model) renderTable(kind core.Kind) string {
	t := m.theme
	fields := viewmodel.Fields(kind)
	rows := m.table.Rows(kind)
	keys := m.table.Keys()

	widths := make([]int, len(fields))
	for i, f := range fields {
		widths[i] = lipgloss.Width(f.Title())
	}
	cells := make([][]string, len(rows))
	for r, row := range rows {
		if d, ok := m.edit.Peek(m.table, row.Key); ok {
			row = d
		}
		cells[r] = row.Cells()
		for i, c := range cells[r] {
			widths[i] = max(widths[i], lipgloss.Width(c))
		}
	}

	var b strings.Builder
	title := kind.Label() + "  " + t.Faint.Render("["+m.edit.Label()+"]")
	b.WriteString(t.Subtitle.Render(title))
	b.WriteString("\n")
	if n := m.renderNotice(viewmodel.PlaceholderFor(kind)); n != "" {
		b.WriteString(n + "\n")
	}

	header := make([]string, len(fields))
	for i, f := range fields {
		header[i] = pad(f.Title(), widths[i])
	}
	b.WriteString(t.Header.Render(strings.Join(header, " │ ")))
	b.WriteString("\n")

	selected, hasSelection := m.selectedKey(keys)
	for r, row := range rows {
		isSel := hasSelection && row.Key == selected && m.focus == FocusTable
		parts := make([]string, len(fields))
		for i := range fields {
			cell := cells[r][i]
			if isSel && m.edit.Enabled() && i == m.colIndex && fields[i] != viewmodel.FieldNeedOrWant {
				cell = m.input.View()
			}
			parts[i] = pad(cell, widths[i])
			if isSel && m.edit.Enabled() && i == m.colIndex {
				parts[i] = t.Highlighted.Render(parts[i])
			}
		}
		line := strings.Join(parts, " │ ")
		if isSel && !m.edit.Enabled() {
			line = t.Selected.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	if len(rows) == 0 {
		b.WriteString(t.Faint.Render("本月尚無紀錄"))
		b.WriteString("\n")
	}

	amountStyle := t.ExpenseAmount
	if kind == core.KindIncome {
		amountStyle = t.IncomeAmount
	}
	b.WriteString("合計 " + amountStyle.Render(m.table.Total(kind).String()))
	return t.BorderedBox.Render(b.String())
}

func (m Model) selectedKey(keys []viewmodel.RowKey) (viewmodel.RowKey, bool) {
	if len(keys) == 0 || m.rowIndex < 0 || m.rowIndex >= len(keys) {
		return viewmodel.RowKey{}, false
	}
	return keys[m.rowIndex], true
}

func pad(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

func (m Model) renderAnalysis() string {
	t := m.theme
	width := minChartWidth
	if m.width > 0 {
		width = max(minChartWidth, m.width/2-4)
	}

	var header strings.Builder
	header.WriteString(t.Subtitle.Render("收支分析"))
	if n := m.renderNotice(viewmodel.PlaceholderChart); n != "" {
		header.WriteString("\n" + n)
	}

	boxes := make([]string, 0, len(Canvases))
	for _, c := range Canvases {
		out := m.charts.Render(c, t, width)
		if out == "" {
			out = t.Faint.Render("載入中…")
		}
		boxes = append(boxes, t.BorderedBox.Render(out))
	}

	top := lipgloss.JoinHorizontal(lipgloss.Top, boxes[0], boxes[1])
	bottom := lipgloss.JoinHorizontal(lipgloss.Top, boxes[2], boxes[3])
	return lipgloss.JoinVertical(lipgloss.Left, header.String(), top, bottom)
}

func (m Model) renderConfirm() string {
	t := m.theme
	hint := t.Faint.Render("y 確認 · n 取消")
	return t.Dialog.Render(lipgloss.JoinVertical(lipgloss.Left,
		t.Title.Render(m.confirm.Title),
		"",
		m.confirm.Body,
		"",
		hint,
	))
}

func (m Model) renderAck() string {
	t := m.theme
	return t.Dialog.Render(lipgloss.JoinVertical(lipgloss.Left,
		m.ack,
		"",
		t.Faint.Render("Enter 確定"),
	))
}

func (m Model) overlay(content string) string {
	if m.width == 0 || m.height == 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m Model) renderHelp() string {
	var keys help.KeyMap
	switch {
	case m.tab == TabAnalysis:
		keys = analysisKeys(m.keymap)
	case m.focus == FocusForm:
		keys = formKeys(m.keymap)
	case m.edit.Enabled():
		keys = editKeys(m.keymap)
	default:
		keys = tableKeys(m.keymap)
	}
	return m.help.View(keys)
}
