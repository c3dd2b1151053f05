package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"ledger/internal/api"
	"ledger/internal/core"
	"ledger/internal/prefs"
	"ledger/internal/tui/viewmodel"
)

// Requests run as commands; their replies come back as messages. None is
// cancelled or retried.

func loadRecordsCmd(c API, timeout time.Duration, month core.Month) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		reply, err := c.ListRecords(ctx, month)
		return recordsLoadedMsg{month: month, reply: reply, err: err}
	}
}

func addRecordCmd(c API, timeout time.Duration, values map[string]string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		rec, err := c.AddRecord(ctx, values)
		return recordAddedMsg{record: rec, err: err}
	}
}

func editRecordCmd(c API, timeout time.Duration, row viewmodel.Row, req api.EditRecordRequest) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		return recordEditedMsg{row: row, err: c.EditRecord(ctx, req)}
	}
}

func deleteRecordCmd(c API, timeout time.Duration, key viewmodel.RowKey) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		return recordDeletedMsg{key: key, err: c.DeleteRecord(ctx, key.ID, key.Kind)}
	}
}

func fetchChartsCmd(c API, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		reply, err := c.ChartData(ctx)
		return chartDataMsg{reply: reply, err: err}
	}
}

// exportCmd downloads a month report and writes it into dir under the
// name the server suggested.
func exportCmd(c API, timeout time.Duration, dir string, month core.Month, format string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		name, data, err := c.Export(ctx, month, format)
		if err != nil {
			return exportDoneMsg{err: err}
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return exportDoneMsg{err: fmt.Errorf("create export dir: %w", err)}
		}
		path := filepath.Join(dir, filepath.Base(name))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return exportDoneMsg{err: fmt.Errorf("write export: %w", err)}
		}
		return exportDoneMsg{path: path}
	}
}

func saveThemeCmd(p Preferences, name string) tea.Cmd {
	return func() tea.Msg {
		return themeSavedMsg{name: name, err: p.Set(prefs.KeyTheme, name)}
	}
}

func noticeTimer(d time.Duration, msg tea.Msg) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return msg })
}
