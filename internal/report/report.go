// Package report renders a month of records as a CSV or Excel download.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"

	"github.com/xuri/excelize/v2"

	"ledger/internal/core"
)

const (
	sheetName = "財務報表"
	utf8BOM   = "\ufeff"
)

// Header is the column row of both formats.
var Header = []string{"日期", "類別", "描述", "金額", "類型"}

// Row is one exported record.
type Row struct {
	Date        core.Date
	Category    string
	Description string
	Amount      core.Money
	Kind        core.Kind
}

// BuildRows merges a month's records, incomes ahead of expenses on the
// same day, ordered by date.
func BuildRows(expenses, incomes []core.Record) []Row {
	rows := make([]Row, 0, len(expenses)+len(incomes))
	for _, recs := range [][]core.Record{incomes, expenses} {
		for _, r := range recs {
			rows = append(rows, Row{
				Date:        r.Date,
				Category:    r.Category,
				Description: r.Description,
				Amount:      r.Amount,
				Kind:        r.Kind,
			})
		}
	}
	slices.SortStableFunc(rows, func(a, b Row) int {
		return a.Date.Compare(b.Date.Time)
	})
	return rows
}

// Filename is the download name for month, e.g. 財務報表_2025-03.csv.
func Filename(month core.Month, ext string) string {
	return fmt.Sprintf("財務報表_%s.%s", month, ext)
}

// WriteCSV writes rows as UTF-8 CSV with a byte order mark so that
// spreadsheet applications detect the encoding.
func WriteCSV(w io.Writer, rows []Row) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return fmt.Errorf("write bom: %w", err)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range rows {
		rec := []string{r.Date.String(), r.Category, r.Description, r.Amount.String(), r.Kind.Label()}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes rows as a single-sheet workbook with income, expense
// and balance totals under the table.
func WriteXLSX(w io.Writer, rows []Row) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	if err := fillSheet(f, sheetName, rows); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

type sheetStyles struct {
	header, income, expense, number int
}

func newSheetStyles(f *excelize.File) (sheetStyles, error) {
	var st sheetStyles
	var err error
	if st.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#007BFF"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	}); err != nil {
		return st, fmt.Errorf("header style: %w", err)
	}
	if st.income, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Color: "#28A745"},
	}); err != nil {
		return st, fmt.Errorf("income style: %w", err)
	}
	if st.expense, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Color: "#DC3545"},
	}); err != nil {
		return st, fmt.Errorf("expense style: %w", err)
	}
	if st.number, err = f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "right"},
		NumFmt:    4, // #,##0.00
	}); err != nil {
		return st, fmt.Errorf("number style: %w", err)
	}
	return st, nil
}

// fillSheet writes the header, one line per row and the totals block
// into sheet.
func fillSheet(f *excelize.File, sheet string, rows []Row) error {
	st, err := newSheetStyles(f)
	if err != nil {
		return err
	}

	set := func(cell string, v any) error {
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("set %s: %w", cell, err)
		}
		return nil
	}
	style := func(from, to string, id int) error {
		if err := f.SetCellStyle(sheet, from, to, id); err != nil {
			return fmt.Errorf("style %s:%s: %w", from, to, err)
		}
		return nil
	}

	for i, h := range Header {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("header cell: %w", err)
		}
		if err := set(cell, h); err != nil {
			return err
		}
	}
	if err := style("A1", "E1", st.header); err != nil {
		return err
	}

	var income, expense core.Money
	row := 2
	for _, r := range rows {
		kindStyle := st.expense
		if r.Kind == core.KindIncome {
			kindStyle = st.income
			income = income.Add(r.Amount)
		} else {
			expense = expense.Add(r.Amount)
		}

		values := []any{r.Date.String(), r.Category, r.Description, r.Amount.Float64(), r.Kind.Label()}
		for i, v := range values {
			if err := set(fmt.Sprintf("%c%d", 'A'+i, row), v); err != nil {
				return err
			}
		}
		if err := style(fmt.Sprintf("A%d", row), fmt.Sprintf("C%d", row), kindStyle); err != nil {
			return err
		}
		if err := style(fmt.Sprintf("D%d", row), fmt.Sprintf("D%d", row), st.number); err != nil {
			return err
		}
		if err := style(fmt.Sprintf("E%d", row), fmt.Sprintf("E%d", row), kindStyle); err != nil {
			return err
		}
		row++
	}

	row++
	totals := []struct {
		label string
		value float64
	}{
		{"收入合計", income.Float64()},
		{"支出合計", expense.Float64()},
		{"結餘", income.Float64() - expense.Float64()},
	}
	for _, t := range totals {
		if err := set(fmt.Sprintf("C%d", row), t.label); err != nil {
			return err
		}
		if err := set(fmt.Sprintf("D%d", row), t.value); err != nil {
			return err
		}
		if err := style(fmt.Sprintf("D%d", row), fmt.Sprintf("D%d", row), st.number); err != nil {
			return err
		}
		row++
	}

	widths := []struct {
		col   string
		width float64
	}{{"A", 14}, {"B", 12}, {"C", 28}, {"D", 14}, {"E", 8}}
	for _, cw := range widths {
		if err := f.SetColWidth(sheet, cw.col, cw.col, cw.width); err != nil {
			return fmt.Errorf("column %s width: %w", cw.col, err)
		}
	}
	return nil
}
