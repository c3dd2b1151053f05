package viewmodel

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"ledger/internal/core"
)

// CategoryPlaceholder is the empty first option of the category selector.
const CategoryPlaceholder = "請選擇"

// Form input keys. They double as the wire keys of POST /add_record.
const (
	InputType    Field = "type"
	InputButtons Field = "amount_buttons"
)

// AmountButton is one control of the amount button bar.
type AmountButton struct {
	Label string
	// Set holds a literal for quick-amount buttons; otherwise Delta is
	// added, and Clear blanks the field.
	Set   string
	Delta int64
	Clear bool
}

// AmountButtons mirrors the amount shortcuts under the form.
var AmountButtons = []AmountButton{
	{Label: "+10", Delta: 10},
	{Label: "+50", Delta: 50},
	{Label: "+100", Delta: 100},
	{Label: "+500", Delta: 500},
	{Label: "+1000", Delta: 1000},
	{Label: "100", Set: "100"},
	{Label: "500", Set: "500"},
	{Label: "清除", Clear: true},
}

// Form is the create-record form. Kind is "", income or expense.
type Form struct {
	Kind          core.Kind
	Date          string
	Category      string
	Description   string
	Amount        string
	PaymentMethod string
	Tags          string
	Mood          string
	NeedOrWant    string

	categories []string
	now        func() time.Time
}

// NewForm starts with today's date and the expense kind applied through
// the change handler.
func NewForm(now func() time.Time) *Form {
	if now == nil {
		now = time.Now
	}
	f := &Form{now: now}
	f.Date = f.today()
	f.SetKind(core.KindExpense)
	return f
}

func (f *Form) today() string {
	return core.Date{Time: f.now()}.String()
}

// SetKind is the kind change handler.
func (f *Form) SetKind(kind core.Kind) {
	f.Kind = kind
	if kind != core.KindExpense {
		f.PaymentMethod, f.Tags, f.Mood, f.NeedOrWant = "", "", "", ""
	}
	if list := core.Categories(kind); list != nil {
		f.categories = list
		f.Category = ""
	}
	if f.CommonVisible() && !core.IsDate(f.Date) {
		f.Date = f.today()
	}
}

// CycleKind moves through "", income and expense.
func (f *Form) CycleKind(step int) {
	kinds := []core.Kind{"", core.KindIncome, core.KindExpense}
	i := 0
	for j, k := range kinds {
		if k == f.Kind {
			i = j
		}
	}
	f.SetKind(kinds[((i+step)%len(kinds)+len(kinds))%len(kinds)])
}

func (f *Form) CommonVisible() bool {
	return f.Kind == core.KindIncome || f.Kind == core.KindExpense
}

func (f *Form) ExpenseVisible() bool {
	return f.Kind == core.KindExpense
}

// CategoryOptions lists the selector options; "" is the placeholder.
func (f *Form) CategoryOptions() []string {
	return append([]string{""}, f.categories...)
}

// Inputs lists the visible inputs in display order.
func (f *Form) Inputs() []Field {
	inputs := []Field{InputType, FieldDate}
	if f.CommonVisible() {
		inputs = append(inputs, FieldCategory, FieldDescription, FieldAmount, InputButtons)
	}
	if f.ExpenseVisible() {
		inputs = append(inputs, FieldPaymentMethod, FieldTags, FieldMood, FieldNeedOrWant)
	}
	return inputs
}

// Options returns the choices of a selector input, nil for free text.
func (f *Form) Options(in Field) []string {
	switch in {
	case InputType:
		return []string{"", string(core.KindIncome), string(core.KindExpense)}
	case FieldCategory:
		return f.CategoryOptions()
	case FieldNeedOrWant:
		return NeedOrWantOptions
	}
	return nil
}

// Cycle steps a selector input through its options.
func (f *Form) Cycle(in Field, step int) {
	if in == InputType {
		f.CycleKind(step)
		return
	}
	opts := f.Options(in)
	if len(opts) == 0 {
		return
	}
	cur := f.Get(in)
	i := 0
	for j, o := range opts {
		if o == cur {
			i = j
		}
	}
	f.Set(in, opts[((i+step)%len(opts)+len(opts))%len(opts)])
}

func (f *Form) Get(in Field) string {
	switch in {
	case InputType:
		return string(f.Kind)
	case FieldDate:
		return f.Date
	case FieldCategory:
		return f.Category
	case FieldDescription:
		return f.Description
	case FieldAmount:
		return f.Amount
	case FieldPaymentMethod:
		return f.PaymentMethod
	case FieldTags:
		return f.Tags
	case FieldMood:
		return f.Mood
	case FieldNeedOrWant:
		return f.NeedOrWant
	}
	return ""
}

// Set writes an input. Setting the type runs the change handler.
func (f *Form) Set(in Field, v string) {
	switch in {
	case InputType:
		f.SetKind(core.Kind(v))
	case FieldDate:
		f.Date = v
	case FieldCategory:
		f.Category = v
	case FieldDescription:
		f.Description = v
	case FieldAmount:
		f.Amount = v
	case FieldPaymentMethod:
		f.PaymentMethod = v
	case FieldTags:
		f.Tags = v
	case FieldMood:
		f.Mood = v
	case FieldNeedOrWant:
		f.NeedOrWant = v
	}
}

// AddAmount adds delta to the amount, reading an empty or non-numeric
// value as zero, and writes it back with two decimals.
func (f *Form) AddAmount(delta decimal.Decimal) {
	current, err := decimal.NewFromString(strings.TrimSpace(f.Amount))
	if err != nil {
		current = decimal.Zero
	}
	f.Amount = current.Add(delta).StringFixed(2)
}

func (f *Form) ClearAmount() {
	f.Amount = ""
}

// Press applies an amount button.
func (f *Form) Press(b AmountButton) {
	switch {
	case b.Clear:
		f.ClearAmount()
	case b.Set != "":
		f.Amount = b.Set
	default:
		f.AddAmount(decimal.NewFromInt(b.Delta))
	}
}

// Values serialises every named input into a flat object, hidden inputs
// included.
func (f *Form) Values() map[string]string {
	return map[string]string{
		"type":           string(f.Kind),
		"date":           f.Date,
		"category":       f.Category,
		"description":    f.Description,
		"amount":         f.Amount,
		"payment_method": f.PaymentMethod,
		"tags":           f.Tags,
		"mood":           f.Mood,
		"need_or_want":   f.NeedOrWant,
	}
}

// Reset restores the form after a successful create: every input blank,
// kind "" through the change handler, today's date and only the
// placeholder category.
func (f *Form) Reset() {
	*f = Form{now: f.now}
	f.SetKind("")
	f.Date = f.today()
}

// ValidationError is a form problem reported before any request.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Client-side validation messages.
const (
	MsgPickDate      = "請選擇日期"
	MsgPickKind      = "請選擇收支類型"
	MsgInvalidAmount = "請輸入大於 0 的有效金額"
)

// ValidateForm checks the serialised form: a date, a kind and a positive
// numeric amount.
func ValidateForm(values map[string]string) error {
	if strings.TrimSpace(values["date"]) == "" {
		return &ValidationError{Message: MsgPickDate}
	}
	if strings.TrimSpace(values["type"]) == "" {
		return &ValidationError{Message: MsgPickKind}
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(values["amount"]))
	if err != nil || !amount.IsPositive() {
		return &ValidationError{Message: MsgInvalidAmount}
	}
	return nil
}

// IsValidationError reports whether err is a *ValidationError.
func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// MsgPickMonth asks for a valid month before exporting.
const MsgPickMonth = "請先選擇正確的年月！"

// ExportMonth splits a YYYY-MM selector value into the year and month of
// an export request.
func ExportMonth(selector string) (core.Month, error) {
	parts := strings.Split(strings.TrimSpace(selector), "-")
	if len(parts) != 2 || len(parts[0]) != 4 || len(parts[1]) != 2 {
		return core.Month{}, &ValidationError{Message: MsgPickMonth}
	}
	year, yErr := strconv.Atoi(parts[0])
	month, mErr := strconv.Atoi(parts[1])
	if yErr != nil || mErr != nil {
		return core.Month{}, &ValidationError{Message: MsgPickMonth}
	}
	m, err := core.NewMonth(year, month)
	if err != nil {
		return core.Month{}, &ValidationError{Message: MsgPickMonth}
	}
	return m, nil
}
