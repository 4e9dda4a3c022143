package report

import (
	"fmt"

	"bey-cash/internal/reconcile"

	"github.com/xuri/excelize/v2"
)

// RangeWorkbook lays a range summary out on four sheets: the totals, one row
// per day, and the employee and supplier groupings.
func RangeWorkbook(rs reconcile.RangeSummary) (*excelize.File, error) {
	f := excelize.NewFile()

	summary := "Summary"
	if err := f.SetSheetName("Sheet1", summary); err != nil {
		return nil, err
	}
	rows := [][]interface{}{
		{"From", rs.From},
		{"To", rs.To},
		{"Days", rs.Days},
		{"Locked days", rs.LockedDays},
		{"Gross receipts", rs.GrossReceipts},
		{"Total expenses", rs.TotalExpenses},
		{"Net receipts", rs.NetReceipts},
		{"Cash", rs.Cash},
	}
	for _, kind := range reconcile.ExpenseKinds {
		rows = append(rows, []interface{}{"Expenses " + string(kind), rs.Expenses[kind]})
	}
	for _, kind := range reconcile.PayrollKinds {
		rows = append(rows, []interface{}{"Payroll " + string(kind), rs.Payroll[kind]})
	}
	if err := writeRows(f, summary, nil, rows); err != nil {
		return nil, err
	}
	f.SetColWidth(summary, "A", "A", 28)
	f.SetColWidth(summary, "B", "B", 16)

	daily := make([][]interface{}, 0, len(rs.Daily))
	for _, d := range rs.Daily {
		locked := ""
		if d.Locked {
			locked = "yes"
		}
		daily = append(daily, []interface{}{d.Date, d.GrossReceipts, d.TotalExpenses, d.NetReceipts, d.Cash, locked})
	}
	if err := addSheet(f, "Daily",
		[]string{"Date", "Gross receipts", "Total expenses", "Net receipts", "Cash", "Locked"}, daily); err != nil {
		return nil, err
	}

	if err := addSheet(f, "Employees", []string{"Employee", "Entries", "Amount"}, groupRows(rs.Employees)); err != nil {
		return nil, err
	}
	if err := addSheet(f, "Suppliers", []string{"Supplier", "Lines", "Amount"}, groupRows(rs.Suppliers)); err != nil {
		return nil, err
	}

	f.SetActiveSheet(0)
	return f, nil
}

func groupRows(groups []reconcile.Group) [][]interface{} {
	out := make([][]interface{}, 0, len(groups))
	for _, g := range groups {
		out = append(out, []interface{}{g.Name, g.Count, g.Amount})
	}
	return out
}

func addSheet(f *excelize.File, name string, headers []string, rows [][]interface{}) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet %s: %w", name, err)
	}
	if err := writeRows(f, name, headers, rows); err != nil {
		return err
	}
	return f.SetColWidth(name, "A", "A", 20)
}

func writeRows(f *excelize.File, sheet string, headers []string, rows [][]interface{}) error {
	start := 1
	if headers != nil {
		if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
			return err
		}
		start = 2
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, start+i)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}
