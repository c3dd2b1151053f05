package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"ledger/internal/api"
	"ledger/internal/core"
	"ledger/internal/tui/themes"
)

// Canvas identifies a chart slot of the analysis view.
type Canvas string

const (
	CanvasExpensePie Canvas = "expensePieChart"
	CanvasIncomePie  Canvas = "incomePieChart"
	CanvasTrend      Canvas = "trendChart"
	CanvasSummaryPie Canvas = "summaryPieChart"
)

// Canvases in drawing order.
var Canvases = []Canvas{CanvasExpensePie, CanvasIncomePie, CanvasTrend, CanvasSummaryPie}

// Chart renders itself into a text block.
type Chart interface {
	Render(theme themes.Theme, width int) string
}

type chartHandle struct {
	chart    Chart
	released bool
}

func (h *chartHandle) release() {
	h.chart = nil
	h.released = true
}

// ChartRegistry owns one live chart per canvas. Drawing releases the
// previous handle before acquiring the new one.
type ChartRegistry struct {
	live     map[Canvas]*chartHandle
	acquired int
	released int
}

func NewChartRegistry() *ChartRegistry {
	return &ChartRegistry{live: make(map[Canvas]*chartHandle, len(Canvases))}
}

func (r *ChartRegistry) Draw(canvas Canvas, chart Chart) {
	if old, ok := r.live[canvas]; ok {
		old.release()
		r.released++
		delete(r.live, canvas)
	}
	r.live[canvas] = &chartHandle{chart: chart}
	r.acquired++
}

// Live is the number of charts currently held.
func (r *ChartRegistry) Live() int {
	return len(r.live)
}

// Stats reports how many handles were acquired and released in total.
func (r *ChartRegistry) Stats() (acquired, released int) {
	return r.acquired, r.released
}

func (r *ChartRegistry) Get(canvas Canvas) (Chart, bool) {
	h, ok := r.live[canvas]
	if !ok || h.released {
		return nil, false
	}
	return h.chart, true
}

// Render draws the canvas, or nothing when it holds no chart.
func (r *ChartRegistry) Render(canvas Canvas, theme themes.Theme, width int) string {
	chart, ok := r.Get(canvas)
	if !ok {
		return ""
	}
	return chart.Render(theme, width)
}

// Slice is one wedge of a pie.
type Slice struct {
	Label string
	Value core.Money
	Color lipgloss.Color
}

// PieChart is drawn as proportional bars with the legend below.
type PieChart struct {
	Title  string
	Slices []Slice
}

// NewCategoryPie colors categories from the shared palette in order.
func NewCategoryPie(title string, totals []api.CategoryTotal) PieChart {
	p := PieChart{Title: title}
	for i, t := range totals {
		p.Slices = append(p.Slices, Slice{
			Label: t.Category,
			Value: t.Total,
			Color: themes.PieColors[i%len(themes.PieColors)],
		})
	}
	return p
}

// NewSummaryPie draws income against expense.
func NewSummaryPie(title string, totals []api.TypeTotal) PieChart {
	p := PieChart{Title: title}
	for _, t := range totals {
		color := themes.IncomeColor
		if t.Type == core.KindExpense.Label() {
			color = themes.ExpenseColor
		}
		p.Slices = append(p.Slices, Slice{Label: t.Type, Value: t.Total, Color: color})
	}
	return p
}

func (p PieChart) Render(theme themes.Theme, width int) string {
	var b strings.Builder
	b.WriteString(theme.Bold.Render(p.Title))
	b.WriteString("\n")

	var sum int64
	for _, s := range p.Slices {
		sum += s.Value.Cents
	}
	if sum == 0 {
		b.WriteString(theme.Faint.Render("尚無資料"))
		return b.String()
	}

	barWidth := max(width-30, 10)
	legend := make([]string, 0, len(p.Slices))
	for _, s := range p.Slices {
		share := float64(s.Value.Cents) / float64(sum)
		n := min(max(int(share*float64(barWidth)+0.5), 0), barWidth)
		bar := lipgloss.NewStyle().Foreground(s.Color).Render(strings.Repeat("█", n))
		fmt.Fprintf(&b, "%s %5.1f%% %s\n", bar, share*100, s.Value)
		legend = append(legend, lipgloss.NewStyle().Foreground(s.Color).Render("■")+" "+s.Label)
	}
	b.WriteString(strings.Join(legend, "  "))
	return b.String()
}

// Series is one line of a line chart.
type Series struct {
	Name   string
	Values []core.Money
	Color  lipgloss.Color
}

// LineChart draws one bar per series per label, legend at the bottom.
type LineChart struct {
	Title  string
	Labels []string
	Series []Series
}

// NewTrendChart puts the expense series first and income second.
func NewTrendChart(title string, trend *api.Trend) LineChart {
	c := LineChart{Title: title}
	if trend == nil {
		return c
	}
	c.Labels = trend.Labels
	c.Series = []Series{
		{Name: core.KindExpense.Label(), Values: trend.Expense, Color: themes.ExpenseColor},
		{Name: core.KindIncome.Label(), Values: trend.Income, Color: themes.IncomeColor},
	}
	return c
}

func (c LineChart) Render(theme themes.Theme, width int) string {
	var b strings.Builder
	b.WriteString(theme.Bold.Render(c.Title))
	b.WriteString("\n")
	if len(c.Labels) == 0 {
		b.WriteString(theme.Faint.Render("尚無資料"))
		return b.String()
	}

	var peak int64
	for _, s := range c.Series {
		for _, v := range s.Values {
			peak = max(peak, v.Cents)
		}
	}
	barWidth := max(width-24, 10)

	for i, label := range c.Labels {
		for j, s := range c.Series {
			var v core.Money
			if i < len(s.Values) {
				v = s.Values[i]
			}
			n := 0
			if peak > 0 {
				n = int(float64(v.Cents) / float64(peak) * float64(barWidth))
			}
			n = min(max(n, 0), barWidth)
			prefix := strings.Repeat(" ", len(label))
			if j == 0 {
				prefix = label
			}
			bar := lipgloss.NewStyle().Foreground(s.Color).Render(strings.Repeat("▇", n))
			fmt.Fprintf(&b, "%s %s %s\n", theme.Faint.Render(prefix), bar, v)
		}
	}

	legend := make([]string, 0, len(c.Series))
	for _, s := range c.Series {
		legend = append(legend, lipgloss.NewStyle().Foreground(s.Color).Render("■")+" "+s.Name)
	}
	b.WriteString(strings.Join(legend, "  "))
	return b.String()
}
