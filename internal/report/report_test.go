package report

import (
	"bytes"
	"testing"

	"bey-cash/internal/reconcile"
)

func sampleDay() reconcile.Day {
	return reconcile.Day{
		Date: "2026-10-18",
		Sheet: reconcile.Sheet{
			GrossReceipts: "1000",
			Payments:      reconcile.Payments{Card1: "200", Check: "50", MealTickets: "30"},
			Expenses: reconcile.Expenses{
				Supplier: []reconcile.ExpenseItem{
					{Name: "Délice", Amount: "100", DocumentType: reconcile.DocumentInvoice, Source: reconcile.External("inv-1")},
				},
				Sundry: []reconcile.ExpenseItem{{Name: "gas", Amount: "12.5", Source: reconcile.Manual()}},
			},
			Offers: []reconcile.Offer{{Name: "coffee", Amount: "2"}},
		},
		Payroll: reconcile.Payroll{
			Advances: []reconcile.PayrollEntry{{ID: "p1", Employee: "Sami", Amount: "20"}},
		},
		Saved: true,
	}
}

func TestDailyPDF(t *testing.T) {
	out, err := DailyPDF(DefaultConfig(), sampleDay())
	if err != nil {
		t.Fatalf("DailyPDF: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Fatalf("output is not a PDF: %q", out[:min(len(out), 16)])
	}
}

func TestRangeWorkbook(t *testing.T) {
	day := sampleDay()
	rs := reconcile.SummarizeRange(day.Date, day.Date, []reconcile.Day{day})

	f, err := RangeWorkbook(rs)
	if err != nil {
		t.Fatalf("RangeWorkbook: %v", err)
	}
	defer f.Close()

	want := []string{"Summary", "Daily", "Employees", "Suppliers"}
	got := f.GetSheetList()
	if len(got) != len(want) {
		t.Fatalf("sheets = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sheets = %v, want %v", got, want)
		}
	}

	date, err := f.GetCellValue("Daily", "A2")
	if err != nil || date != "2026-10-18" {
		t.Errorf("Daily!A2 = %q, %v", date, err)
	}
	supplier, _ := f.GetCellValue("Suppliers", "A2")
	if supplier != "Délice" {
		t.Errorf("Suppliers!A2 = %q", supplier)
	}
	employee, _ := f.GetCellValue("Employees", "A2")
	if employee != "Sami" {
		t.Errorf("Employees!A2 = %q", employee)
	}
}
