package reconcile

import "github.com/shopspring/decimal"

// withholdingRate is the share of an invoice paid out when the 1% withholding
// tax is retained at source.
var withholdingRate = decimal.NewFromFloat(0.99)

// ToggleWithholding switches the withholding tax on or off. Turning it on caches
// the typed amount in OriginalAmount; turning it off restores that cached value
// as is, so on/off cycles never drift.
func ToggleWithholding(item ExpenseItem) ExpenseItem {
	if item.Withholding {
		item.Amount = item.OriginalAmount
		item.OriginalAmount = ""
		item.Withholding = false
		return item
	}
	item.OriginalAmount = item.Amount
	item.Amount = decimal.NewFromFloat(ParseAmount(item.Amount)).Mul(withholdingRate).StringFixed(3)
	item.Withholding = true
	return item
}
