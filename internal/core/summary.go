package core

// UncategorizedLabel groups records stored without a category.
const UncategorizedLabel = "未分類"

// CategoryTotal is an amount aggregated by category name.
type CategoryTotal struct {
	Category string
	Total    Money
}

// KindTotal is the month total for one kind.
type KindTotal struct {
	Kind  Kind
	Total Money
}

// Trend holds per-month totals, oldest month first.
type Trend struct {
	Months  []Month
	Income  []Money
	Expense []Money
}

// ChartData is everything the analysis view draws for one month.
type ChartData struct {
	Month   Month
	Expense []CategoryTotal
	Income  []CategoryTotal
	Summary []KindTotal
	Trend   Trend
}

var categories = map[Kind][]string{
	KindIncome:  {"薪水", "獎助學金", "家人", "投資", "其他"},
	KindExpense: {"交通", "飲食", "娛樂", "學習", "日用品", "其他"},
}

// Categories returns the fixed category list for a kind, nil for an
// unknown kind.
func Categories(k Kind) []string {
	list, ok := categories[k]
	if !ok {
		return nil
	}
	return append([]string(nil), list...)
}

// CategoryOrUncategorized maps an empty category to UncategorizedLabel.
func CategoryOrUncategorized(c string) string {
	if c == "" {
		return UncategorizedLabel
	}
	return c
}
