package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	RoleAdmin   = "admin"
	RoleCashier = "cashier"
)

// User - A cashier or admin of the restaurant
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:50" json:"username"`
	PasswordHash string    `json:"-"`    // Never return this in JSON
	Role         string    `json:"role"` // 'admin', 'cashier'
	CreatedAt    time.Time `json:"created_at"`
}

// Session - The reconciled record of one calendar date
// Expense collections are stored serialized; a malformed list reads back as empty.
type Session struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	Date          string `gorm:"uniqueIndex;size:10" json:"date"` // YYYY-MM-DD
	GrossReceipts string `gorm:"size:32" json:"gross_receipts"`
	Card1         string `gorm:"size:32" json:"card1"`
	Card2         string `gorm:"size:32" json:"card2"`
	Check         string `gorm:"column:check_amount;size:32" json:"check"`
	MealTickets   string `gorm:"size:32" json:"meal_tickets"`

	SupplierExpenses       datatypes.JSON `json:"supplier_expenses"`
	SundryExpenses         datatypes.JSON `json:"sundry_expenses"`
	AdministrativeExpenses datatypes.JSON `json:"administrative_expenses"`
	OtherExpenses          datatypes.JSON `json:"other_expenses"`
	Offers                 datatypes.JSON `json:"offers"`
	Photos                 datatypes.JSON `json:"photos"`

	// Derived on save, kept for range queries and reports
	TotalExpenses float64 `json:"total_expenses"`
	NetReceipts   float64 `json:"net_receipts"`
	Cash          float64 `json:"cash"`

	Locked    bool      `gorm:"index" json:"locked"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PayrollEntry - An advance, overtime, extra, bonus or leftover salary
type PayrollEntry struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"` // UUID
	Date      string    `gorm:"index;size:10" json:"date"`
	Kind      string    `gorm:"index;size:20" json:"kind"`
	Employee  string    `gorm:"size:100" json:"employee"`
	Amount    string    `gorm:"size:32" json:"amount"`
	Days      string    `gorm:"size:8" json:"days"`
	CreatedAt time.Time `json:"created_at"`
}

// DirectoryEntry - Reference names offered for autocompletion
type DirectoryEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Kind      string    `gorm:"uniqueIndex:idx_directory_name;size:20" json:"kind"` // 'supplier', 'designation', 'employee'
	Name      string    `gorm:"uniqueIndex:idx_directory_name;size:100" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Invoice - A supplier invoice handled by the invoicing workflow
// Once paid, it shows up in the session of PaidOn as an external expense.
type Invoice struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"` // UUID
	Supplier      string    `gorm:"size:100" json:"supplier"`
	Number        string    `gorm:"size:50" json:"number"`
	Amount        string    `gorm:"size:32" json:"amount"`
	Collection    string    `gorm:"size:20" json:"collection"` // expense collection it lands in
	DocumentType  string    `gorm:"size:20" json:"document_type"`
	PaymentMethod string    `gorm:"size:20" json:"payment_method"`
	Paid          bool      `gorm:"index" json:"paid"`
	PaidOn        string    `gorm:"index;size:10" json:"paid_on"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Draft - An unsaved snapshot of a session, one per user and date
// Data is kept as raw text so a corrupt snapshot can still be read and discarded.
type Draft struct {
	Key     string    `gorm:"column:draft_key;primaryKey;size:80" json:"key"`
	UserID  uint      `gorm:"index" json:"user_id"`
	Date    string    `gorm:"index;size:10" json:"date"`
	Data    string    `gorm:"type:longtext" json:"data"`
	SavedAt time.Time `json:"saved_at"`
}

// Heartbeat - Last time a logged-in user was seen by the server
type Heartbeat struct {
	UserID   uint      `gorm:"primaryKey" json:"user_id"`
	Username string    `gorm:"size:50" json:"username"`
	DeviceID string    `gorm:"size:32" json:"device_id"`
	LastSeen time.Time `gorm:"index" json:"last_seen"`
}
