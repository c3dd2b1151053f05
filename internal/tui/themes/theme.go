package themes

import "github.com/charmbracelet/lipgloss"

// Names accepted by Get and stored in the preferences file.
const (
	NameLight = "light"
	NameDark  = "dark"
)

// Theme defines the visual style for the TUI.
type Theme struct {
	Name string

	Title         lipgloss.Style
	Subtitle      lipgloss.Style
	Normal        lipgloss.Style
	Bold          lipgloss.Style
	Faint         lipgloss.Style
	Selected      lipgloss.Style
	Highlighted   lipgloss.Style
	Input         lipgloss.Style
	TabActive     lipgloss.Style
	TabInactive   lipgloss.Style
	Header        lipgloss.Style
	BorderedBox   lipgloss.Style
	RoundedBox    lipgloss.Style
	Dialog        lipgloss.Style
	StatusSuccess lipgloss.Style
	StatusDanger  lipgloss.Style
	StatusWarning lipgloss.Style
	StatusInfo    lipgloss.Style
	IncomeAmount  lipgloss.Style
	ExpenseAmount lipgloss.Style

	Primary    lipgloss.Color
	Muted      lipgloss.Color
	Border     lipgloss.Color
	Foreground lipgloss.Color
	Background lipgloss.Color
}

// Chart colors shared by both themes.
var (
	PieColors = []lipgloss.Color{
		"#007bff", "#28a745", "#ffc107", "#dc3545", "#6c757d", "#17a2b8",
	}
	IncomeColor  = lipgloss.Color("#28a745")
	ExpenseColor = lipgloss.Color("#dc3545")
)

// Light mirrors the default bootstrap palette.
var Light = build(NameLight, palette{
	primary:    "#0d6efd",
	foreground: "#212529",
	background: "#ffffff",
	muted:      "#6c757d",
	border:     "#dee2e6",
	highlight:  "#e9ecef",
	success:    "#198754",
	danger:     "#dc3545",
	warning:    "#b58105",
	info:       "#0aa2c0",
})

// Dark mirrors bootstrap's dark color mode.
var Dark = build(NameDark, palette{
	primary:    "#6ea8fe",
	foreground: "#dee2e6",
	background: "#212529",
	muted:      "#adb5bd",
	border:     "#495057",
	highlight:  "#343a40",
	success:    "#75b798",
	danger:     "#ea868f",
	warning:    "#ffda6a",
	info:       "#6edff6",
})

// Get returns the theme called name.
func Get(name string) (Theme, bool) {
	switch name {
	case NameLight:
		return Light, true
	case NameDark:
		return Dark, true
	default:
		return Theme{}, false
	}
}

// Next returns the other theme, for the switcher.
func Next(name string) Theme {
	if name == NameDark {
		return Light
	}
	return Dark
}

type palette struct {
	primary, foreground, background, muted, border, highlight lipgloss.Color
	success, danger, warning, info                           lipgloss.Color
}

func build(name string, p palette) Theme {
	return Theme{
		Name: name,

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.primary),
		Subtitle: lipgloss.NewStyle().
			Foreground(p.muted),
		Normal: lipgloss.NewStyle().
			Foreground(p.foreground),
		Bold: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.foreground),
		Faint: lipgloss.NewStyle().
			Faint(true).
			Foreground(p.muted),
		Selected: lipgloss.NewStyle().
			Background(p.primary).
			Foreground(p.background).
			Bold(true),
		Highlighted: lipgloss.NewStyle().
			Background(p.highlight).
			Foreground(p.foreground),
		Input: lipgloss.NewStyle().
			Foreground(p.primary).
			Underline(true),
		TabActive: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.background).
			Background(p.primary).
			Padding(0, 2),
		TabInactive: lipgloss.NewStyle().
			Foreground(p.muted).
			Padding(0, 2),
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.foreground).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(p.border),
		BorderedBox: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(p.border).
			Padding(0, 1),
		RoundedBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.border).
			Padding(0, 1),
		Dialog: lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(p.danger).
			Padding(1, 3),

		StatusSuccess: lipgloss.NewStyle().Foreground(p.success).Bold(true),
		StatusDanger:  lipgloss.NewStyle().Foreground(p.danger).Bold(true),
		StatusWarning: lipgloss.NewStyle().Foreground(p.warning).Bold(true),
		StatusInfo:    lipgloss.NewStyle().Foreground(p.info).Bold(true),
		IncomeAmount:  lipgloss.NewStyle().Foreground(IncomeColor),
		ExpenseAmount: lipgloss.NewStyle().Foreground(ExpenseColor),

		Primary:    p.primary,
		Muted:      p.muted,
		Border:     p.border,
		Foreground: p.foreground,
		Background: p.background,
	}
}
