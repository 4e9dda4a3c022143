package reconcile

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount reads the number a typed amount starts with, so "120 DT" is 120
// and "1,5" is 1. Input without a leading number counts as 0, as does
// anything that is not finite.
func ParseAmount(s string) float64 {
	s = numberPrefix(strings.TrimSpace(s))
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// numberPrefix returns the longest leading [sign]digits[.digits][e[sign]digits]
// of s, or "" when s does not start with a number.
func numberPrefix(s string) string {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return ""
	}
	end := i
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		k := j
		for k < len(s) && isDigit(s[k]) {
			k++
		}
		if k > j {
			end = k
		}
	}
	return s[:end]
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// FormatAmount renders an amount with the three decimals of the dinar.
func FormatAmount(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(3)
}

// FormatCash is FormatAmount with an all-zero fraction stripped ("620.000" -> "620").
func FormatCash(v float64) string {
	s := FormatAmount(v)
	if strings.HasSuffix(s, ".000") {
		s = strings.TrimSuffix(s, ".000")
	}
	if s == "-0" {
		s = "0"
	}
	return s
}

func SumExpenses(items []ExpenseItem) float64 {
	var total float64
	for _, item := range items {
		total += ParseAmount(item.Amount)
	}
	return total
}

func SumPayroll(entries []PayrollEntry) float64 {
	var total float64
	for _, e := range entries {
		total += ParseAmount(e.Amount)
	}
	return total
}

func SumOffers(offers []Offer) float64 {
	var total float64
	for _, o := range offers {
		total += ParseAmount(o.Amount)
	}
	return total
}

// Totals is the per-collection breakdown of a day's outflows.
type Totals struct {
	Expenses map[ExpenseKind]float64 `json:"expenses"`
	Payroll  map[PayrollKind]float64 `json:"payroll"`
	Offers   float64                 `json:"offers"`
	Grand    float64                 `json:"grand"`
}

// ComputeTotals sums every expense and payroll collection. Grand is what gets
// subtracted from gross receipts; offers are reported but not included.
func ComputeTotals(expenses Expenses, payroll Payroll) Totals {
	t := Totals{
		Expenses: make(map[ExpenseKind]float64, len(ExpenseKinds)),
		Payroll:  make(map[PayrollKind]float64, len(PayrollKinds)),
	}
	for _, kind := range ExpenseKinds {
		sum := SumExpenses(*expenses.List(kind))
		t.Expenses[kind] = sum
		t.Grand += sum
	}
	for _, kind := range PayrollKinds {
		sum := SumPayroll(*payroll.List(kind))
		t.Payroll[kind] = sum
		t.Grand += sum
	}
	return t
}
