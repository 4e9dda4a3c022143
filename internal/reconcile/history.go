package reconcile

import "sort"

// Group is the aggregated amount of one name across a range of days.
type Group struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	Count  int     `json:"count"`
}

// grouper keeps groups in order of first appearance. Keys are exact: "Ali"
// and "ALI" stay two groups.
type grouper struct {
	index  map[string]int
	groups []Group
}

func newGrouper() *grouper {
	return &grouper{index: make(map[string]int)}
}

func (g *grouper) add(name string, amount float64) {
	i, ok := g.index[name]
	if !ok {
		i = len(g.groups)
		g.index[name] = i
		g.groups = append(g.groups, Group{Name: name})
	}
	g.groups[i].Amount += amount
	g.groups[i].Count++
}

func (g *grouper) result() []Group {
	if g.groups == nil {
		return []Group{}
	}
	return g.groups
}

// GroupPayroll aggregates payroll entries by employee name.
func GroupPayroll(entries []PayrollEntry) []Group {
	g := newGrouper()
	for _, e := range entries {
		g.add(e.Employee, ParseAmount(e.Amount))
	}
	return g.result()
}

// GroupExpenses aggregates expense lines by name.
func GroupExpenses(items []ExpenseItem) []Group {
	g := newGrouper()
	for _, item := range items {
		g.add(item.Name, ParseAmount(item.Amount))
	}
	return g.result()
}

// TopN ranks groups by amount, dropping those whose aggregated amount is not
// positive. n <= 0 keeps every remaining group.
func TopN(groups []Group, n int) []Group {
	out := make([]Group, 0, len(groups))
	for _, g := range groups {
		if g.Amount > 0 {
			out = append(out, g)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Amount > out[j].Amount })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// RangeSummary aggregates several days, typically a month.
type RangeSummary struct {
	From          string                  `json:"from"`
	To            string                  `json:"to"`
	Days          int                     `json:"days"`
	LockedDays    int                     `json:"locked_days"`
	GrossReceipts float64                 `json:"gross_receipts"`
	TotalExpenses float64                 `json:"total_expenses"`
	NetReceipts   float64                 `json:"net_receipts"`
	Cash          float64                 `json:"cash"`
	Expenses      map[ExpenseKind]float64 `json:"expenses"`
	Payroll       map[PayrollKind]float64 `json:"payroll"`
	Employees     []Group                 `json:"employees"`
	Suppliers     []Group                 `json:"suppliers"`
	TopEmployees  []Group                 `json:"top_employees"`
	TopSuppliers  []Group                 `json:"top_suppliers"`
	Daily         []DailyLine             `json:"daily"`
}

// DailyLine is one row of the range table.
type DailyLine struct {
	Date          string  `json:"date"`
	GrossReceipts float64 `json:"gross_receipts"`
	TotalExpenses float64 `json:"total_expenses"`
	NetReceipts   float64 `json:"net_receipts"`
	Cash          float64 `json:"cash"`
	Locked        bool    `json:"locked"`
}

// TopLimit is the size of the rankings in a RangeSummary.
const TopLimit = 5

// SummarizeRange folds days (in the order given) into a RangeSummary.
func SummarizeRange(from, to string, days []Day) RangeSummary {
	rs := RangeSummary{
		From:     from,
		To:       to,
		Expenses: make(map[ExpenseKind]float64, len(ExpenseKinds)),
		Payroll:  make(map[PayrollKind]float64, len(PayrollKinds)),
		Daily:    []DailyLine{},
	}
	employees := newGrouper()
	suppliers := newGrouper()

	for _, day := range days {
		sum := Summarize(day.Sheet, day.Payroll)
		rs.Days++
		if day.Locked {
			rs.LockedDays++
		}
		rs.GrossReceipts += sum.Balance.GrossReceipts
		rs.TotalExpenses += sum.Balance.TotalExpenses
		rs.NetReceipts += sum.Balance.NetReceipts
		rs.Cash += sum.Balance.Cash
		for kind, v := range sum.Totals.Expenses {
			rs.Expenses[kind] += v
		}
		for kind, v := range sum.Totals.Payroll {
			rs.Payroll[kind] += v
		}
		for _, kind := range PayrollKinds {
			for _, e := range *day.Payroll.List(kind) {
				employees.add(e.Employee, ParseAmount(e.Amount))
			}
		}
		for _, item := range day.Sheet.Expenses.Supplier {
			suppliers.add(item.Name, ParseAmount(item.Amount))
		}
		rs.Daily = append(rs.Daily, DailyLine{
			Date:          day.Date,
			GrossReceipts: sum.Balance.GrossReceipts,
			TotalExpenses: sum.Balance.TotalExpenses,
			NetReceipts:   sum.Balance.NetReceipts,
			Cash:          sum.Balance.Cash,
			Locked:        day.Locked,
		})
	}

	rs.Employees = employees.result()
	rs.Suppliers = suppliers.result()
	rs.TopEmployees = TopN(rs.Employees, TopLimit)
	rs.TopSuppliers = TopN(rs.Suppliers, TopLimit)
	return rs
}
