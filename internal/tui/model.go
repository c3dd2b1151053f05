package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"ledger/internal/api"
	"ledger/internal/core"
	applog "ledger/internal/log"
	"ledger/internal/prefs"
	"ledger/internal/tui/themes"
	"ledger/internal/tui/viewmodel"
)

// API is the part of the HTTP client the TUI uses.
type API interface {
	AddRecord(ctx context.Context, fields map[string]string) (api.Record, error)
	EditRecord(ctx context.Context, req api.EditRecordRequest) error
	DeleteRecord(ctx context.Context, id int64, kind core.Kind) error
	ChartData(ctx context.Context) (api.ChartReply, error)
	ListRecords(ctx context.Context, month core.Month) (api.RecordsReply, error)
	Export(ctx context.Context, month core.Month, format string) (string, []byte, error)
}

// Preferences is the durable store behind the theme switcher.
type Preferences interface {
	Get(key string) (string, bool)
	Set(key, value string) error
}

// Tab is the active view.
type Tab int

const (
	TabRecords Tab = iota
	TabAnalysis
)

// Focus is the active area of the records view.
type Focus int

const (
	FocusForm Focus = iota
	FocusTable
)

const (
	noticeVisible  = 3 * time.Second
	noticeFade     = 500 * time.Millisecond
	defaultTimeout = 10 * time.Second
)

// Config wires the model.
type Config struct {
	API       API
	Prefs     Preferences
	Logger    *applog.Logger
	Now       func() time.Time
	ExportDir string
	StartTab  Tab
	Timeout   time.Duration
	Width     int
	Height    int

	// Notice timings; zero picks 3s visible and 500ms fade.
	NoticeVisible time.Duration
	NoticeFade    time.Duration
}

// Model holds the whole UI state. Only Update mutates it.
type Model struct {
	api       API
	prefs     Preferences
	logger    *applog.Logger
	now       func() time.Time
	exportDir string
	timeout   time.Duration

	noticeVisible time.Duration
	noticeFade    time.Duration

	keymap KeyMap
	help   help.Model
	theme  themes.Theme

	tab   Tab
	focus Focus

	form        *viewmodel.Form
	formIndex   int
	buttonIndex int
	input       textinput.Model

	table    *viewmodel.Table
	edit     *viewmodel.EditMode
	rowIndex int
	colIndex int

	notices       *viewmodel.Notices
	charts        *ChartRegistry
	actions       *ActionRegistry
	confirm       *ConfirmDialog
	pendingDelete *viewmodel.RowKey
	ack           string

	width    int
	height   int
	quitting bool
}

// New builds the model and applies the stored theme.
func New(cfg Config) Model {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	exportDir := cfg.ExportDir
	if exportDir == "" {
		exportDir = "."
	}

	input := textinput.New()
	input.Prompt = ""
	input.Cursor.SetMode(cursor.CursorStatic)
	input.CharLimit = 200

	m := Model{
		api:           cfg.API,
		prefs:         cfg.Prefs,
		logger:        logger.WithComponent(applog.ComponentTUI),
		now:           now,
		exportDir:     exportDir,
		timeout:       timeout,
		noticeVisible: orDefault(cfg.NoticeVisible, noticeVisible),
		noticeFade:    orDefault(cfg.NoticeFade, noticeFade),
		keymap:        DefaultKeyMap(),
		help:          help.New(),
		theme:         themes.Light,
		tab:           cfg.StartTab,
		focus:         FocusForm,
		form:          viewmodel.NewForm(now),
		input:         input,
		table:         viewmodel.NewTable(core.CurrentMonth(now())),
		edit:          &viewmodel.EditMode{},
		notices:       viewmodel.NewNotices(),
		charts:        NewChartRegistry(),
		actions:       &ActionRegistry{},
		confirm:       &ConfirmDialog{},
		width:         cfg.Width,
		height:        cfg.Height,
	}

	if m.prefs != nil {
		if name, ok := m.prefs.Get(prefs.KeyTheme); ok {
			if t, ok := themes.Get(name); ok {
				m.theme = t
			}
		}
	}

	m.actions.On(IsAction(ActionToggleEdit), (*Model).toggleEdit)
	m.actions.On(OnEditableRow(ActionSave), (*Model).saveRow)
	m.actions.On(OnEditableRow(ActionDelete), (*Model).openDelete)

	m.input.Focus()
	m.syncInput()
	return m
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}

// Init loads the displayed month, and the charts when the analysis view
// starts active.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{loadRecordsCmd(m.api, m.timeout, m.table.Month)}
	if m.tab == TabAnalysis {
		cmds = append(cmds, m.refreshCharts())
	}
	return tea.Batch(cmds...)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		cmd := m.handleKey(msg)
		return m, cmd

	case recordsLoadedMsg:
		cmd := m.handleRecordsLoaded(msg)
		return m, cmd

	case recordAddedMsg:
		cmd := m.handleRecordAdded(msg)
		return m, cmd

	case recordEditedMsg:
		cmd := m.handleRecordEdited(msg)
		return m, cmd

	case recordDeletedMsg:
		cmd := m.handleRecordDeleted(msg)
		return m, cmd

	case chartDataMsg:
		cmd := m.handleChartData(msg)
		return m, cmd

	case exportDoneMsg:
		cmd := m.handleExportDone(msg)
		return m, cmd

	case themeSavedMsg:
		if msg.err != nil {
			m.logger.Warn("Failed to persist theme", "theme", msg.name, applog.FieldError, msg.err)
		}
		return m, nil

	case noticeFadeMsg:
		if m.notices.Fade(msg.placeholder, msg.seq) {
			return m, noticeTimer(m.noticeFade, noticeRemoveMsg(msg))
		}
		return m, nil

	case noticeRemoveMsg:
		m.notices.Remove(msg.placeholder, msg.seq)
		return m, nil
	}
	return m, nil
}

// notify shows a notice and schedules its fade and removal.
func (m *Model) notify(p viewmodel.Placeholder, message string, severity viewmodel.Severity) tea.Cmd {
	seq, ok := m.notices.Show(p, message, severity)
	if !ok {
		return nil
	}
	return noticeTimer(m.noticeVisible, noticeFadeMsg{placeholder: p, seq: seq})
}

func (m *Model) refreshCharts() tea.Cmd {
	return fetchChartsCmd(m.api, m.timeout)
}

// Accessors.

func (m Model) Theme() themes.Theme { return m.theme }
func (m Model) ActiveTab() Tab { return m.tab }
func (m Model) Table() *viewmodel.Table { return m.table }
func (m Model) Form() *viewmodel.Form { return m.form }
func (m Model) Notices() *viewmodel.Notices { return m.notices }
func (m Model) Charts() *ChartRegistry { return m.charts }
func (m Model) EditMode() *viewmodel.EditMode { return m.edit }
func (m Model) Acknowledgement() string { return m.ack }
