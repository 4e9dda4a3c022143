package reconcile

// Balance is the auto-balanced payment breakdown of a day.
// Cash + Card1 + Card2 + Check + MealTickets always equals NetReceipts.
type Balance struct {
	GrossReceipts float64 `json:"gross_receipts"`
	TotalExpenses float64 `json:"total_expenses"`
	NetReceipts   float64 `json:"net_receipts"`
	Card1         float64 `json:"card1"`
	Card2         float64 `json:"card2"`
	Check         float64 `json:"check"`
	MealTickets   float64 `json:"meal_tickets"`
	Cash          float64 `json:"cash"`
	CashDisplay   string  `json:"cash_display"`
}

// AutoBalance derives cash as the remainder of net receipts once every other
// payment method is taken out.
func AutoBalance(grossReceipts, totalExpenses float64, p Payments) Balance {
	b := Balance{
		GrossReceipts: grossReceipts,
		TotalExpenses: totalExpenses,
		NetReceipts:   grossReceipts - totalExpenses,
		Card1:         ParseAmount(p.Card1),
		Card2:         ParseAmount(p.Card2),
		Check:         ParseAmount(p.Check),
		MealTickets:   ParseAmount(p.MealTickets),
	}
	b.Cash = b.NetReceipts - b.Card1 - b.Card2 - b.Check - b.MealTickets
	b.CashDisplay = FormatCash(b.Cash)
	return b
}

// Summary is what a client shows under the sheet: totals plus the balance.
type Summary struct {
	Totals  Totals  `json:"totals"`
	Balance Balance `json:"balance"`
}

// Summarize recomputes totals and balance of a sheet and its payroll.
func Summarize(sheet Sheet, payroll Payroll) Summary {
	totals := ComputeTotals(sheet.Expenses, payroll)
	totals.Offers = SumOffers(sheet.Offers)
	return Summary{
		Totals:  totals,
		Balance: AutoBalance(ParseAmount(sheet.GrossReceipts), totals.Grand, sheet.Payments),
	}
}
