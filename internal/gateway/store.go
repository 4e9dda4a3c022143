package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"bey-cash/internal/models"
	"bey-cash/internal/reconcile"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Store is the gorm-backed Gateway. It also serves the invoicing workflow,
// the range history and the login heartbeat.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db, now: time.Now}
}

var _ Gateway = (*Store)(nil)

// decodeList parses a serialized list. A malformed list reads as empty.
func decodeList[T any](raw datatypes.JSON, column, date string) []T {
	if len(raw) == 0 {
		return nil
	}
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		log.Printf("session %s: malformed %s, reading as empty: %v", date, column, err)
		return nil
	}
	return out
}

func encodeList[T any](list []T) (datatypes.JSON, error) {
	if list == nil {
		list = []T{}
	}
	b, err := json.Marshal(list)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

func sheetFromRow(row *models.Session) reconcile.Sheet {
	return reconcile.Sheet{
		GrossReceipts: row.GrossReceipts,
		Payments: reconcile.Payments{
			Card1:       row.Card1,
			Card2:       row.Card2,
			Check:       row.Check,
			MealTickets: row.MealTickets,
		},
		Expenses: reconcile.Expenses{
			Supplier:       decodeList[reconcile.ExpenseItem](row.SupplierExpenses, "supplier_expenses", row.Date),
			Sundry:         decodeList[reconcile.ExpenseItem](row.SundryExpenses, "sundry_expenses", row.Date),
			Administrative: decodeList[reconcile.ExpenseItem](row.AdministrativeExpenses, "administrative_expenses", row.Date),
			Other:          decodeList[reconcile.ExpenseItem](row.OtherExpenses, "other_expenses", row.Date),
		},
		Offers: decodeList[reconcile.Offer](row.Offers, "offers", row.Date),
		Photos: decodeList[string](row.Photos, "photos", row.Date),
	}
}

func fillRow(row *models.Session, sheet reconcile.Sheet, summary reconcile.Summary) error {
	row.GrossReceipts = sheet.GrossReceipts
	row.Card1 = sheet.Payments.Card1
	row.Card2 = sheet.Payments.Card2
	row.Check = sheet.Payments.Check
	row.MealTickets = sheet.Payments.MealTickets

	var err error
	if row.SupplierExpenses, err = encodeList(sheet.Expenses.Supplier); err != nil {
		return err
	}
	if row.SundryExpenses, err = encodeList(sheet.Expenses.Sundry); err != nil {
		return err
	}
	if row.AdministrativeExpenses, err = encodeList(sheet.Expenses.Administrative); err != nil {
		return err
	}
	if row.OtherExpenses, err = encodeList(sheet.Expenses.Other); err != nil {
		return err
	}
	if row.Offers, err = encodeList(sheet.Offers); err != nil {
		return err
	}
	if row.Photos, err = encodeList(sheet.Photos); err != nil {
		return err
	}

	row.TotalExpenses = summary.Balance.TotalExpenses
	row.NetReceipts = summary.Balance.NetReceipts
	row.Cash = summary.Balance.Cash
	return nil
}

func findSession(tx *gorm.DB, date string) (*models.Session, error) {
	var row models.Session
	err := tx.Where("date = ?", date).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func isLocked(tx *gorm.DB, date string) (bool, error) {
	row, err := findSession(tx, date)
	if err != nil || row == nil {
		return false, err
	}
	return row.Locked, nil
}

func payrollFromRows(rows []models.PayrollEntry) reconcile.Payroll {
	var p reconcile.Payroll
	for _, r := range rows {
		list := p.List(reconcile.PayrollKind(r.Kind))
		if list == nil {
			log.Printf("payroll %s: unknown kind %q, skipped", r.ID, r.Kind)
			continue
		}
		*list = append(*list, reconcile.PayrollEntry{
			ID:        r.ID,
			Employee:  r.Employee,
			Amount:    r.Amount,
			Days:      r.Days,
			CreatedAt: r.CreatedAt,
		})
	}
	return p
}

func listPayroll(tx *gorm.DB, date string) (reconcile.Payroll, error) {
	var rows []models.PayrollEntry
	if err := tx.Where("date = ?", date).Order("created_at ASC").Find(&rows).Error; err != nil {
		return reconcile.Payroll{}, err
	}
	return payrollFromRows(rows), nil
}

func invoiceItem(inv models.Invoice) reconcile.ExpenseItem {
	details := ""
	if inv.Number != "" {
		details = "invoice " + inv.Number
	}
	return reconcile.ExpenseItem{
		Name:          inv.Supplier,
		Amount:        inv.Amount,
		Details:       details,
		PaymentMethod: inv.PaymentMethod,
		DocumentType:  reconcile.DocumentType(inv.DocumentType),
		Source:        reconcile.External(inv.ID),
	}
}

func externalFromInvoices(invoices []models.Invoice) reconcile.Expenses {
	var e reconcile.Expenses
	for _, inv := range invoices {
		list := e.List(reconcile.ExpenseKind(inv.Collection))
		if list == nil {
			list = &e.Supplier
		}
		*list = append(*list, invoiceItem(inv))
	}
	return e
}

func paidInvoices(tx *gorm.DB, date string) ([]models.Invoice, error) {
	var invoices []models.Invoice
	err := tx.Where("paid = ? AND paid_on = ?", true, date).Order("created_at ASC").Find(&invoices).Error
	return invoices, err
}

func payrollEmpty(p reconcile.Payroll) bool {
	for _, kind := range reconcile.PayrollKinds {
		if len(*p.List(kind)) > 0 {
			return false
		}
	}
	return true
}

// Load builds the day for date. Stored external lines are replaced by the
// invoices currently paid on that date.
func (s *Store) Load(ctx context.Context, date string) (*reconcile.Day, error) {
	if err := reconcile.ValidateDate(date); err != nil {
		return nil, err
	}
	tx := s.db.WithContext(ctx)

	row, err := findSession(tx, date)
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", date, err)
	}
	payroll, err := listPayroll(tx, date)
	if err != nil {
		return nil, fmt.Errorf("load payroll %s: %w", date, err)
	}
	invoices, err := paidInvoices(tx, date)
	if err != nil {
		return nil, fmt.Errorf("load invoices %s: %w", date, err)
	}

	if row == nil && payrollEmpty(payroll) && len(invoices) == 0 {
		return nil, nil
	}

	day := &reconcile.Day{Date: date, Payroll: payroll}
	if row != nil {
		day.Sheet = sheetFromRow(row)
		day.Locked = row.Locked
		day.Saved = true
	}
	day.Sheet.Expenses = reconcile.MergeExternalExpenses(day.Sheet.Expenses, externalFromInvoices(invoices))
	return day, nil
}

// Save writes the sheet of date, creating the session on first save.
func (s *Store) Save(ctx context.Context, date string, sheet reconcile.Sheet) error {
	if err := reconcile.ValidateDate(date); err != nil {
		return err
	}
	if len(sheet.Photos) > reconcile.MaxPhotos {
		return fmt.Errorf("at most %d photos per day", reconcile.MaxPhotos)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := findSession(tx, date)
		if err != nil {
			return err
		}
		if row != nil && row.Locked {
			return ErrLocked
		}
		if row == nil {
			row = &models.Session{Date: date}
		}

		payroll, err := listPayroll(tx, date)
		if err != nil {
			return err
		}
		if err := fillRow(row, sheet, reconcile.Summarize(sheet, payroll)); err != nil {
			return fmt.Errorf("encode session %s: %w", date, err)
		}
		return tx.Save(row).Error
	})
}

// refreshTotals recomputes the derived columns after the payroll of date changed.
func refreshTotals(tx *gorm.DB, date string) error {
	row, err := findSession(tx, date)
	if err != nil || row == nil {
		return err
	}
	payroll, err := listPayroll(tx, date)
	if err != nil {
		return err
	}
	sum := reconcile.Summarize(sheetFromRow(row), payroll)
	return tx.Model(row).Updates(map[string]interface{}{
		"total_expenses": sum.Balance.TotalExpenses,
		"net_receipts":   sum.Balance.NetReceipts,
		"cash":           sum.Balance.Cash,
	}).Error
}

func (s *Store) LockStatus(ctx context.Context, date string) (bool, error) {
	if err := reconcile.ValidateDate(date); err != nil {
		return false, err
	}
	return isLocked(s.db.WithContext(ctx), date)
}

// Lock freezes date. A day never saved gets an empty locked session.
func (s *Store) Lock(ctx context.Context, date string) error {
	if err := reconcile.ValidateDate(date); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := findSession(tx, date)
		if err != nil {
			return err
		}
		if row == nil {
			row = &models.Session{Date: date}
			payroll, err := listPayroll(tx, date)
			if err != nil {
				return err
			}
			if err := fillRow(row, reconcile.Sheet{}, reconcile.Summarize(reconcile.Sheet{}, payroll)); err != nil {
				return err
			}
		}
		row.Locked = true
		return tx.Save(row).Error
	})
}

func (s *Store) Unlock(ctx context.Context, date string) error {
	if err := reconcile.ValidateDate(date); err != nil {
		return err
	}
	res := s.db.WithContext(ctx).Model(&models.Session{}).Where("date = ?", date).Update("locked", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) ListPayroll(ctx context.Context, date string) (reconcile.Payroll, error) {
	return listPayroll(s.db.WithContext(ctx), date)
}

func (s *Store) CreatePayroll(ctx context.Context, date string, kind reconcile.PayrollKind, entry reconcile.PayrollEntry) (reconcile.PayrollEntry, error) {
	if err := reconcile.ValidateDate(date); err != nil {
		return reconcile.PayrollEntry{}, err
	}
	if _, err := reconcile.ParsePayrollKind(string(kind)); err != nil {
		return reconcile.PayrollEntry{}, err
	}
	entry.Employee = strings.TrimSpace(entry.Employee)
	if entry.Employee == "" {
		return reconcile.PayrollEntry{}, errors.New("employee is required")
	}
	if kind != reconcile.PayrollLeftoverSalary {
		entry.Days = ""
	}

	row := models.PayrollEntry{
		ID:        uuid.NewString(),
		Date:      date,
		Kind:      string(kind),
		Employee:  entry.Employee,
		Amount:    entry.Amount,
		Days:      entry.Days,
		CreatedAt: s.now(),
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := isLocked(tx, date)
		if err != nil {
			return err
		}
		if locked {
			return ErrLocked
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		return refreshTotals(tx, date)
	})
	if err != nil {
		return reconcile.PayrollEntry{}, err
	}

	entry.ID = row.ID
	entry.CreatedAt = row.CreatedAt
	return entry, nil
}

func (s *Store) DeletePayroll(ctx context.Context, kind reconcile.PayrollKind, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row models.PayrollEntry
		err := tx.Where("id = ? AND kind = ?", id, string(kind)).First(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		locked, err := isLocked(tx, row.Date)
		if err != nil {
			return err
		}
		if locked {
			return ErrLocked
		}
		if err := tx.Delete(&row).Error; err != nil {
			return err
		}
		return refreshTotals(tx, row.Date)
	})
}

func (s *Store) UpsertDirectory(ctx context.Context, kind DirectoryKind, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("name is required")
	}
	entry := models.DirectoryEntry{Kind: string(kind), Name: name}
	return s.db.WithContext(ctx).
		Where("kind = ? AND name = ?", entry.Kind, entry.Name).
		FirstOrCreate(&entry).Error
}

// Directory lists the names of kind, alphabetically.
func (s *Store) Directory(ctx context.Context, kind DirectoryKind) ([]string, error) {
	names := []string{}
	err := s.db.WithContext(ctx).Model(&models.DirectoryEntry{}).
		Where("kind = ?", string(kind)).
		Order("name ASC").
		Pluck("name", &names).Error
	return names, err
}

// CreateInvoice registers an unpaid invoice.
func (s *Store) CreateInvoice(ctx context.Context, inv models.Invoice) (models.Invoice, error) {
	inv.Supplier = strings.TrimSpace(inv.Supplier)
	if inv.Supplier == "" {
		return models.Invoice{}, errors.New("supplier is required")
	}
	if inv.Collection == "" {
		inv.Collection = string(reconcile.ExpenseSupplier)
	}
	if _, err := reconcile.ParseExpenseKind(inv.Collection); err != nil {
		return models.Invoice{}, err
	}
	if inv.DocumentType == "" {
		inv.DocumentType = string(reconcile.DocumentInvoice)
	}
	inv.ID = uuid.NewString()
	inv.Paid = false
	inv.PaidOn = ""
	if err := s.db.WithContext(ctx).Create(&inv).Error; err != nil {
		return models.Invoice{}, err
	}
	return inv, nil
}

func (s *Store) ListInvoices(ctx context.Context, paid *bool) ([]models.Invoice, error) {
	invoices := []models.Invoice{}
	q := s.db.WithContext(ctx).Order("created_at DESC")
	if paid != nil {
		q = q.Where("paid = ?", *paid)
	}
	err := q.Find(&invoices).Error
	return invoices, err
}

func findInvoice(tx *gorm.DB, id string) (*models.Invoice, error) {
	var inv models.Invoice
	err := tx.Where("id = ?", id).First(&inv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// PayInvoice marks the invoice paid on date, which makes it appear as an
// external expense of that day.
func (s *Store) PayInvoice(ctx context.Context, id, date, method string) (models.Invoice, error) {
	if err := reconcile.ValidateDate(date); err != nil {
		return models.Invoice{}, err
	}
	var out models.Invoice
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inv, err := findInvoice(tx, id)
		if err != nil {
			return err
		}
		locked, err := isLocked(tx, date)
		if err != nil {
			return err
		}
		if locked {
			return ErrLocked
		}
		inv.Paid = true
		inv.PaidOn = date
		if method != "" {
			inv.PaymentMethod = method
		}
		if err := tx.Save(inv).Error; err != nil {
			return err
		}
		out = *inv
		return nil
	})
	return out, err
}

// UnpayInvoice reverts the paid status of the invoice.
func (s *Store) UnpayInvoice(ctx context.Context, invoiceID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inv, err := findInvoice(tx, invoiceID)
		if err != nil {
			return err
		}
		if !inv.Paid {
			return nil
		}
		locked, err := isLocked(tx, inv.PaidOn)
		if err != nil {
			return err
		}
		if locked {
			return ErrLocked
		}
		inv.Paid = false
		inv.PaidOn = ""
		return tx.Save(inv).Error
	})
}

// Range loads every day between from and to (inclusive) that has a session,
// payroll or a paid invoice, in date order.
func (s *Store) Range(ctx context.Context, from, to string) ([]reconcile.Day, error) {
	if err := reconcile.ValidateDate(from); err != nil {
		return nil, err
	}
	if err := reconcile.ValidateDate(to); err != nil {
		return nil, err
	}
	tx := s.db.WithContext(ctx)

	var sessions []models.Session
	if err := tx.Where("date BETWEEN ? AND ?", from, to).Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("range sessions: %w", err)
	}
	var payrollRows []models.PayrollEntry
	if err := tx.Where("date BETWEEN ? AND ?", from, to).Order("created_at ASC").Find(&payrollRows).Error; err != nil {
		return nil, fmt.Errorf("range payroll: %w", err)
	}
	var invoices []models.Invoice
	if err := tx.Where("paid = ? AND paid_on BETWEEN ? AND ?", true, from, to).Order("created_at ASC").Find(&invoices).Error; err != nil {
		return nil, fmt.Errorf("range invoices: %w", err)
	}

	days := make(map[string]*reconcile.Day)
	day := func(date string) *reconcile.Day {
		d, ok := days[date]
		if !ok {
			d = &reconcile.Day{Date: date}
			days[date] = d
		}
		return d
	}

	for i := range sessions {
		d := day(sessions[i].Date)
		d.Sheet = sheetFromRow(&sessions[i])
		d.Locked = sessions[i].Locked
		d.Saved = true
	}
	payrollByDate := make(map[string][]models.PayrollEntry)
	for _, r := range payrollRows {
		payrollByDate[r.Date] = append(payrollByDate[r.Date], r)
	}
	for date, rows := range payrollByDate {
		day(date).Payroll = payrollFromRows(rows)
	}
	invoicesByDate := make(map[string][]models.Invoice)
	for _, inv := range invoices {
		invoicesByDate[inv.PaidOn] = append(invoicesByDate[inv.PaidOn], inv)
	}
	for _, d := range days {
		d.Sheet.Expenses = reconcile.MergeExternalExpenses(d.Sheet.Expenses, externalFromInvoices(invoicesByDate[d.Date]))
	}
	for date := range invoicesByDate {
		if _, ok := days[date]; !ok {
			day(date).Sheet.Expenses = externalFromInvoices(invoicesByDate[date])
		}
	}

	out := make([]reconcile.Day, 0, len(days))
	for _, d := range days {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

// RecordHeartbeat notes that the user is logged in on deviceID.
func (s *Store) RecordHeartbeat(ctx context.Context, userID uint, username, deviceID string) (models.Heartbeat, error) {
	hb := models.Heartbeat{
		UserID:   userID,
		Username: username,
		DeviceID: deviceID,
		LastSeen: s.now(),
	}
	err := s.db.WithContext(ctx).Save(&hb).Error
	return hb, err
}

// OnlineUsers returns the users seen within window.
func (s *Store) OnlineUsers(ctx context.Context, window time.Duration) ([]models.Heartbeat, error) {
	users := []models.Heartbeat{}
	err := s.db.WithContext(ctx).
		Where("last_seen >= ?", s.now().Add(-window)).
		Order("last_seen DESC").
		Find(&users).Error
	return users, err
}
