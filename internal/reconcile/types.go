package reconcile

import (
	"fmt"
	"time"
)

// ExpenseKind names one of the four expense collections of a day.
type ExpenseKind string

const (
	ExpenseSupplier       ExpenseKind = "supplier"
	ExpenseSundry         ExpenseKind = "sundry"
	ExpenseAdministrative ExpenseKind = "administrative"
	ExpenseOther          ExpenseKind = "other"
)

// ExpenseKinds lists the collections in display order.
var ExpenseKinds = []ExpenseKind{ExpenseSupplier, ExpenseSundry, ExpenseAdministrative, ExpenseOther}

// PayrollKind names one of the five payroll collections of a day.
type PayrollKind string

const (
	PayrollAdvance        PayrollKind = "advance"
	PayrollOvertime       PayrollKind = "overtime"
	PayrollExtra          PayrollKind = "extra"
	PayrollBonus          PayrollKind = "bonus"
	PayrollLeftoverSalary PayrollKind = "leftover_salary"
)

var PayrollKinds = []PayrollKind{PayrollAdvance, PayrollOvertime, PayrollExtra, PayrollBonus, PayrollLeftoverSalary}

func ParseExpenseKind(s string) (ExpenseKind, error) {
	for _, k := range ExpenseKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown expense collection %q", s)
}

func ParsePayrollKind(s string) (PayrollKind, error) {
	for _, k := range PayrollKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown payroll collection %q", s)
}

// DocumentType tags the paper backing an expense.
type DocumentType string

const (
	DocumentDeliveryNote DocumentType = "delivery_note"
	DocumentInvoice      DocumentType = "invoice"
)

// SourceKind tells who owns an expense line.
type SourceKind string

const (
	SourceManual   SourceKind = "manual"
	SourceExternal SourceKind = "external"
)

// Source is either Manual or External, the latter carrying the invoice
// that was paid through the invoicing workflow.
type Source struct {
	Kind      SourceKind `json:"kind"`
	InvoiceID string     `json:"invoice_id,omitempty"`
}

func Manual() Source { return Source{Kind: SourceManual} }

func External(invoiceID string) Source {
	return Source{Kind: SourceExternal, InvoiceID: invoiceID}
}

func (s Source) IsExternal() bool { return s.Kind == SourceExternal }

// ExpenseItem is a single supplier, sundry, administrative or other expense.
// Amount keeps what the cashier typed; it is parsed only when totals are built.
type ExpenseItem struct {
	Name           string       `json:"name"`
	Amount         string       `json:"amount"`
	Details        string       `json:"details"`
	Documents      []string     `json:"documents"`
	PaymentMethod  string       `json:"payment_method"`
	DocumentType   DocumentType `json:"document_type"`
	Source         Source       `json:"source"`
	Withholding    bool         `json:"withholding"`
	OriginalAmount string       `json:"original_amount,omitempty"`
}

// PayrollEntry is an advance, overtime doubling, extra, bonus or leftover salary.
// Days is only meaningful for leftover salaries.
type PayrollEntry struct {
	ID        string    `json:"id"`
	Employee  string    `json:"employee"`
	Amount    string    `json:"amount"`
	Days      string    `json:"days,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Offer is something given away during the day. Offers are informational
// and do not count as expenses.
type Offer struct {
	Name    string `json:"name"`
	Amount  string `json:"amount"`
	Details string `json:"details"`
}

// Payments holds the non-cash payment methods. Cash is always derived.
type Payments struct {
	Card1       string `json:"card1"`
	Card2       string `json:"card2"`
	Check       string `json:"check"`
	MealTickets string `json:"meal_tickets"`
}

// PaymentField addresses one payment method.
type PaymentField string

const (
	PaymentCard1       PaymentField = "card1"
	PaymentCard2       PaymentField = "card2"
	PaymentCheck       PaymentField = "check"
	PaymentMealTickets PaymentField = "meal_tickets"
	PaymentCash        PaymentField = "cash"
)

// Set assigns an editable payment method. Cash is rejected.
func (p *Payments) Set(field PaymentField, value string) error {
	switch field {
	case PaymentCard1:
		p.Card1 = value
	case PaymentCard2:
		p.Card2 = value
	case PaymentCheck:
		p.Check = value
	case PaymentMealTickets:
		p.MealTickets = value
	case PaymentCash:
		return fmt.Errorf("cash is derived and cannot be set")
	default:
		return fmt.Errorf("unknown payment method %q", field)
	}
	return nil
}

// Expenses groups the four expense collections.
type Expenses struct {
	Supplier       []ExpenseItem `json:"supplier"`
	Sundry         []ExpenseItem `json:"sundry"`
	Administrative []ExpenseItem `json:"administrative"`
	Other          []ExpenseItem `json:"other"`
}

// List returns a pointer to the collection for kind, or nil for an unknown kind.
func (e *Expenses) List(kind ExpenseKind) *[]ExpenseItem {
	switch kind {
	case ExpenseSupplier:
		return &e.Supplier
	case ExpenseSundry:
		return &e.Sundry
	case ExpenseAdministrative:
		return &e.Administrative
	case ExpenseOther:
		return &e.Other
	}
	return nil
}

// Payroll groups the five payroll collections.
type Payroll struct {
	Advances         []PayrollEntry `json:"advances"`
	Overtime         []PayrollEntry `json:"overtime"`
	Extras           []PayrollEntry `json:"extras"`
	Bonuses          []PayrollEntry `json:"bonuses"`
	LeftoverSalaries []PayrollEntry `json:"leftover_salaries"`
}

func (p *Payroll) List(kind PayrollKind) *[]PayrollEntry {
	switch kind {
	case PayrollAdvance:
		return &p.Advances
	case PayrollOvertime:
		return &p.Overtime
	case PayrollExtra:
		return &p.Extras
	case PayrollBonus:
		return &p.Bonuses
	case PayrollLeftoverSalary:
		return &p.LeftoverSalaries
	}
	return nil
}

// MaxPhotos bounds the cash-drawer photos attached to a day.
const MaxPhotos = 3

// Sheet is every field of a day the cashier edits directly.
type Sheet struct {
	GrossReceipts string   `json:"gross_receipts"`
	Payments      Payments `json:"payments"`
	Expenses      Expenses `json:"expenses"`
	Offers        []Offer  `json:"offers"`
	Photos        []string `json:"photos"`
}

// Clone returns a deep copy so callers can hand a sheet out without sharing slices.
func (s Sheet) Clone() Sheet {
	out := s
	for _, kind := range ExpenseKinds {
		src := *s.Expenses.List(kind)
		if src == nil {
			continue
		}
		dst := make([]ExpenseItem, len(src))
		for i, item := range src {
			dst[i] = item
			if item.Documents != nil {
				dst[i].Documents = append([]string(nil), item.Documents...)
			}
		}
		*out.Expenses.List(kind) = dst
	}
	if s.Offers != nil {
		out.Offers = append([]Offer(nil), s.Offers...)
	}
	if s.Photos != nil {
		out.Photos = append([]string(nil), s.Photos...)
	}
	return out
}

// Day is the reconciled record of one calendar date.
// Saved is false when no session has been written for the date yet; the
// payroll and externally paid invoices may still exist.
type Day struct {
	Date    string  `json:"date"`
	Sheet   Sheet   `json:"sheet"`
	Payroll Payroll `json:"payroll"`
	Locked  bool    `json:"locked"`
	Saved   bool    `json:"saved"`
}

// DateLayout is the key format of a day.
const DateLayout = "2006-01-02"

// ValidateDate checks a YYYY-MM-DD key.
func ValidateDate(date string) error {
	if date == "" {
		return fmt.Errorf("date is empty")
	}
	if _, err := time.Parse(DateLayout, date); err != nil {
		return fmt.Errorf("invalid date format: %w", err)
	}
	return nil
}
