package database

import (
	"bey-cash/internal/models"

	"gorm.io/gorm"
)

// RangeTotals holds the saved totals of the sessions in a date range.
type RangeTotals struct {
	Sessions      int64   `json:"sessions"`
	TotalExpenses float64 `json:"total_expenses"`
	NetReceipts   float64 `json:"net_receipts"`
	Cash          float64 `json:"cash"`
}

// GetRangeTotals sums the derived columns written on save, from and to included.
func GetRangeTotals(db *gorm.DB, from, to string) (*RangeTotals, error) {
	var result RangeTotals

	// COALESCE ensures we get 0 instead of NULL if no sessions exist
	err := db.Model(&models.Session{}).
		Where("date BETWEEN ? AND ?", from, to).
		Select("COALESCE(SUM(total_expenses), 0) AS total_expenses, " +
			"COALESCE(SUM(net_receipts), 0) AS net_receipts, " +
			"COALESCE(SUM(cash), 0) AS cash").
		Scan(&result).Error
	if err != nil {
		return nil, err
	}

	err = db.Model(&models.Session{}).
		Where("date BETWEEN ? AND ?", from, to).
		Count(&result.Sessions).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}
