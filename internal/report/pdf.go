// Package report renders days and ranges for printing and spreadsheets.
package report

import (
	"bytes"
	"fmt"
	"time"

	"bey-cash/internal/reconcile"

	"github.com/jung-kurt/gofpdf/v2"
)

// Margins defines page margins in mm
type Margins struct {
	Top    float64
	Right  float64
	Bottom float64
	Left   float64
}

// Config holds PDF configuration
type Config struct {
	Restaurant string
	Size       string // "A4", "Letter"
	FontFamily string
	FontSize   float64
	Margins    Margins
}

// DefaultConfig returns the A4 layout printed at closing time.
func DefaultConfig() Config {
	return Config{
		Restaurant: "Business Bey",
		Size:       "A4",
		FontFamily: "Arial",
		FontSize:   10,
		Margins:    Margins{Top: 20, Right: 15, Bottom: 20, Left: 15},
	}
}

// generator wraps gofpdf with the header, footer and table helpers of a report.
type generator struct {
	pdf   *gofpdf.Fpdf
	cfg   Config
	title string
	tr    func(string) string
	now   time.Time
}

func newGenerator(cfg Config, title string) *generator {
	pdf := gofpdf.New("P", "mm", cfg.Size, "")
	pdf.SetFont(cfg.FontFamily, "", cfg.FontSize)
	pdf.SetMargins(cfg.Margins.Left, cfg.Margins.Top, cfg.Margins.Right)
	pdf.SetAutoPageBreak(true, cfg.Margins.Bottom)
	pdf.SetTitle(title, true)

	g := &generator{
		pdf:   pdf,
		cfg:   cfg,
		title: title,
		// core fonts are cp1252; names typed with accents must be translated
		tr:  pdf.UnicodeTranslatorFromDescriptor(""),
		now: time.Now(),
	}
	pdf.SetHeaderFunc(g.header)
	pdf.SetFooterFunc(g.footer)
	return g
}

func (g *generator) header() {
	pdf := g.pdf
	pdf.SetFont(g.cfg.FontFamily, "B", 14)
	pdf.CellFormat(0, 7, g.tr(g.cfg.Restaurant), "", 1, "C", false, 0, "")
	pdf.SetFont(g.cfg.FontFamily, "B", 12)
	pdf.CellFormat(0, 6, g.tr(g.title), "", 1, "C", false, 0, "")
	pdf.Ln(4)
	pdf.SetFont(g.cfg.FontFamily, "", g.cfg.FontSize)
}

func (g *generator) footer() {
	pdf := g.pdf
	pdf.SetY(-15)
	pdf.SetTextColor(128, 128, 128)
	pdf.SetFont(g.cfg.FontFamily, "", 8)
	text := fmt.Sprintf("Page %d | printed %s", pdf.PageNo(), g.now.Format("02/01/2006 15:04"))
	pdf.CellFormat(0, 5, text, "", 0, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

func (g *generator) section(title string) {
	g.pdf.Ln(2)
	g.pdf.SetFont(g.cfg.FontFamily, "B", 11)
	g.pdf.CellFormat(0, 7, g.tr(title), "", 1, "L", false, 0, "")
	g.pdf.SetFont(g.cfg.FontFamily, "", g.cfg.FontSize)
}

// table draws a bordered table; the last column is right-aligned.
func (g *generator) table(headers []string, rows [][]string, widths []float64) {
	pdf := g.pdf
	pdf.SetFont(g.cfg.FontFamily, "B", 9)
	pdf.SetFillColor(240, 240, 240)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, g.tr(h), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont(g.cfg.FontFamily, "", 9)
	for _, row := range rows {
		for i, cell := range row {
			align := "L"
			if i == len(row)-1 {
				align = "R"
			}
			pdf.CellFormat(widths[i], 6, g.tr(cell), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}
}

// keyValue prints label/value pairs as a two-column block.
func (g *generator) keyValue(pairs [][2]string, bold map[string]bool) {
	for _, p := range pairs {
		style := ""
		if bold[p[0]] {
			style = "B"
		}
		g.pdf.SetFont(g.cfg.FontFamily, style, g.cfg.FontSize)
		g.pdf.CellFormat(90, 6, g.tr(p[0]), "", 0, "L", false, 0, "")
		g.pdf.CellFormat(40, 6, p[1], "", 1, "R", false, 0, "")
	}
	g.pdf.SetFont(g.cfg.FontFamily, "", g.cfg.FontSize)
}

func (g *generator) output() ([]byte, error) {
	var buf bytes.Buffer
	if err := g.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

var expenseTitles = map[reconcile.ExpenseKind]string{
	reconcile.ExpenseSupplier:       "Supplier expenses",
	reconcile.ExpenseSundry:         "Sundry expenses",
	reconcile.ExpenseAdministrative: "Administrative expenses",
	reconcile.ExpenseOther:          "Other expenses",
}

var payrollTitles = map[reconcile.PayrollKind]string{
	reconcile.PayrollAdvance:        "Advances",
	reconcile.PayrollOvertime:       "Overtime",
	reconcile.PayrollExtra:          "Extras",
	reconcile.PayrollBonus:          "Bonuses",
	reconcile.PayrollLeftoverSalary: "Leftover salaries",
}

// DailyPDF renders the closing sheet of one day.
func DailyPDF(cfg Config, day reconcile.Day) ([]byte, error) {
	title := "Daily cash report " + day.Date
	if day.Locked {
		title += " (locked)"
	}
	g := newGenerator(cfg, title)
	g.pdf.AddPage()

	sum := reconcile.Summarize(day.Sheet, day.Payroll)
	b := sum.Balance

	g.section("Balance")
	g.keyValue([][2]string{
		{"Gross receipts", reconcile.FormatAmount(b.GrossReceipts)},
		{"Total expenses", reconcile.FormatAmount(b.TotalExpenses)},
		{"Net receipts", reconcile.FormatAmount(b.NetReceipts)},
		{"Card terminal 1", reconcile.FormatAmount(b.Card1)},
		{"Card terminal 2", reconcile.FormatAmount(b.Card2)},
		{"Check", reconcile.FormatAmount(b.Check)},
		{"Meal tickets", reconcile.FormatAmount(b.MealTickets)},
		{"Cash", b.CashDisplay},
	}, map[string]bool{"Net receipts": true, "Cash": true})

	for _, kind := range reconcile.ExpenseKinds {
		items := *day.Sheet.Expenses.List(kind)
		if len(items) == 0 {
			continue
		}
		rows := make([][]string, 0, len(items))
		for _, item := range items {
			note := item.Details
			if item.Source.IsExternal() {
				note = "invoice " + note
			}
			if item.Withholding {
				note += " (withholding 1%)"
			}
			rows = append(rows, []string{item.Name, string(item.DocumentType), note, reconcile.FormatAmount(reconcile.ParseAmount(item.Amount))})
		}
		g.section(fmt.Sprintf("%s: %s", expenseTitles[kind], reconcile.FormatAmount(sum.Totals.Expenses[kind])))
		g.table([]string{"Name", "Document", "Details", "Amount"}, rows, []float64{55, 30, 65, 30})
	}

	for _, kind := range reconcile.PayrollKinds {
		entries := *day.Payroll.List(kind)
		if len(entries) == 0 {
			continue
		}
		rows := make([][]string, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, []string{e.Employee, e.Days, reconcile.FormatAmount(reconcile.ParseAmount(e.Amount))})
		}
		g.section(fmt.Sprintf("%s: %s", payrollTitles[kind], reconcile.FormatAmount(sum.Totals.Payroll[kind])))
		g.table([]string{"Employee", "Days", "Amount"}, rows, []float64{100, 40, 40})
	}

	if len(day.Sheet.Offers) > 0 {
		rows := make([][]string, 0, len(day.Sheet.Offers))
		for _, o := range day.Sheet.Offers {
			rows = append(rows, []string{o.Name, o.Details, reconcile.FormatAmount(reconcile.ParseAmount(o.Amount))})
		}
		g.section(fmt.Sprintf("Offers (not counted): %s", reconcile.FormatAmount(sum.Totals.Offers)))
		g.table([]string{"Name", "Details", "Amount"}, rows, []float64{70, 80, 30})
	}

	return g.output()
}
