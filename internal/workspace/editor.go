// Package workspace is the editing model of a cashier: one open day, its
// unsaved edits, the draft autosave and the lock that freezes it.
package workspace

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"bey-cash/internal/drafts"
	"bey-cash/internal/gateway"
	"bey-cash/internal/reconcile"

	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrLocked            = gateway.ErrLocked
	ErrNoDay             = errors.New("no day is open")
	ErrReadOnly          = errors.New("cash is derived and cannot be edited")
	ErrNoLine            = errors.New("no such line")
	ErrExternalLine      = errors.New("line comes from the invoicing workflow")
	ErrTooManyPhotos     = fmt.Errorf("at most %d photos per day", reconcile.MaxPhotos)
	ErrUnsupportedFile   = errors.New("only images and PDF files can be attached")
	ErrStale             = errors.New("another day was opened meanwhile")
	ErrReplaceIncomplete = errors.New("payroll entry was deleted but could not be recreated")
)

// LockedNotice is the alert raised when a locked day is edited.
const LockedNotice = "This day is locked. Ask an admin to unlock it before making changes."

// View is a read-only copy of the editor state.
type View struct {
	Date         string            `json:"date"`
	Sheet        reconcile.Sheet   `json:"sheet"`
	Payroll      reconcile.Payroll `json:"payroll"`
	Summary      reconcile.Summary `json:"summary"`
	Locked       bool              `json:"locked"`
	Dirty        bool              `json:"dirty"`
	DraftPending bool              `json:"draft_pending"`
}

// Editor holds the day a cashier is working on.
//
// The mutex guards the state only; it is released around every gateway or
// draft store call. A load answered after another day was opened is dropped
// by comparing generations.
type Editor struct {
	mu      sync.Mutex
	draftMu sync.Mutex // orders draft writes against the delete after a save; taken before mu

	gw       gateway.Gateway
	drafts   drafts.Store
	notify   Notifier
	debounce *drafts.Debouncer
	now      func() time.Time

	date       string
	sheet      reconcile.Sheet
	payroll    reconcile.Payroll
	locked     bool
	interacted bool
	generation uint64
	revision   uint64
}

func NewEditor(gw gateway.Gateway, store drafts.Store, notify Notifier, debounce time.Duration) *Editor {
	return &Editor{
		gw:       gw,
		drafts:   store,
		notify:   notify,
		debounce: drafts.NewDebouncer(debounce),
		now:      time.Now,
	}
}

// Open switches to date. Without a saved session for it, the local draft is
// restored and the day counts as edited.
func (e *Editor) Open(ctx context.Context, date string) error {
	if err := reconcile.ValidateDate(date); err != nil {
		return err
	}
	// pending snapshot of the previous day goes out first
	e.debounce.Flush()

	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.date = date
	e.sheet = reconcile.Sheet{}
	e.payroll = reconcile.Payroll{}
	e.locked = false
	e.interacted = false
	e.revision++
	e.mu.Unlock()

	return e.load(ctx, gen, date)
}

// Refresh reloads the open day. Unsaved edits survive; only external lines
// and payroll are taken from the backend.
func (e *Editor) Refresh(ctx context.Context) error {
	e.mu.Lock()
	if e.date == "" {
		e.mu.Unlock()
		return ErrNoDay
	}
	e.generation++
	gen := e.generation
	date := e.date
	e.mu.Unlock()

	return e.load(ctx, gen, date)
}

func (e *Editor) load(ctx context.Context, gen uint64, date string) error {
	day, err := e.gw.Load(ctx, date)
	if err != nil {
		log.Printf("workspace %s: load failed: %v", date, err)
		e.notify.Toast(LevelError, "Could not load "+date)
		return fmt.Errorf("load %s: %w", date, err)
	}

	var draft *drafts.Draft
	if day == nil || !day.Saved {
		draft, err = e.drafts.Load(ctx, date)
		if err != nil {
			log.Printf("workspace %s: draft unreadable, ignored: %v", date, err)
			draft = nil
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.generation || date != e.date {
		log.Printf("workspace %s: stale load dropped", date)
		return ErrStale
	}
	e.apply(day, draft)
	return nil
}

func (e *Editor) apply(day *reconcile.Day, draft *drafts.Draft) {
	e.payroll = reconcile.Payroll{}
	e.locked = false
	if day != nil {
		e.payroll = day.Payroll
		e.locked = day.Locked
	}

	switch {
	case day != nil && day.Saved && !e.interacted:
		e.sheet = day.Sheet.Clone()
	case day != nil && day.Saved:
		e.sheet.Expenses = reconcile.MergeExternalExpenses(e.sheet.Expenses, day.Sheet.Expenses)
	case draft != nil && !e.interacted:
		e.sheet = draft.Data.Clone()
		e.interacted = true
		if day != nil {
			e.sheet.Expenses = reconcile.MergeExternalExpenses(e.sheet.Expenses, day.Sheet.Expenses)
		}
	case day != nil:
		e.sheet.Expenses = reconcile.MergeExternalExpenses(e.sheet.Expenses, day.Sheet.Expenses)
	}
}

// View returns a copy of the current state with totals recomputed.
func (e *Editor) View() View {
	e.mu.Lock()
	defer e.mu.Unlock()
	sheet := e.sheet.Clone()
	return View{
		Date:         e.date,
		Sheet:        sheet,
		Payroll:      e.payroll,
		Summary:      reconcile.Summarize(sheet, e.payroll),
		Locked:       e.locked,
		Dirty:        e.interacted,
		DraftPending: e.debounce.Pending(),
	}
}

// edit runs fn on the state unless the day is locked. A successful fn marks
// the day edited and schedules the draft snapshot.
func (e *Editor) edit(fn func() error) error {
	e.mu.Lock()
	if e.date == "" {
		e.mu.Unlock()
		return ErrNoDay
	}
	if e.locked {
		e.mu.Unlock()
		e.notify.Alert(LockedNotice)
		return ErrLocked
	}
	if err := fn(); err != nil {
		e.mu.Unlock()
		return err
	}
	e.touchLocked()
	e.mu.Unlock()
	return nil
}

// touchLocked must be called with mu held.
func (e *Editor) touchLocked() {
	e.interacted = true
	e.revision++
	date := e.date
	e.debounce.Trigger(func() { e.writeDraft(date) })
}

func (e *Editor) writeDraft(date string) {
	e.draftMu.Lock()
	defer e.draftMu.Unlock()

	e.mu.Lock()
	if e.date != date || !e.interacted {
		e.mu.Unlock()
		return
	}
	d := drafts.Draft{Date: date, Timestamp: e.now(), Data: e.sheet.Clone()}
	e.mu.Unlock()

	if err := e.drafts.Save(context.Background(), d); err != nil {
		log.Printf("workspace %s: draft not written: %v", date, err)
	}
}

// FlushDraft writes the pending draft snapshot now.
func (e *Editor) FlushDraft() {
	e.debounce.Flush()
}

func (e *Editor) expenseList(kind reconcile.ExpenseKind) (*[]reconcile.ExpenseItem, error) {
	list := e.sheet.Expenses.List(kind)
	if list == nil {
		return nil, fmt.Errorf("unknown expense collection %q", kind)
	}
	return list, nil
}

func (e *Editor) SetGrossReceipts(value string) error {
	return e.edit(func() error {
		e.sheet.GrossReceipts = value
		return nil
	})
}

func (e *Editor) SetPayment(field reconcile.PaymentField, value string) error {
	if field == reconcile.PaymentCash {
		return ErrReadOnly
	}
	return e.edit(func() error {
		return e.sheet.Payments.Set(field, value)
	})
}

// AddExpense appends a manual line to kind.
func (e *Editor) AddExpense(kind reconcile.ExpenseKind, item reconcile.ExpenseItem) error {
	return e.edit(func() error {
		list, err := e.expenseList(kind)
		if err != nil {
			return err
		}
		item.Source = reconcile.Manual()
		item.Withholding, item.OriginalAmount = false, ""
		if item.DocumentType == "" {
			item.DocumentType = reconcile.DocumentDeliveryNote
		}
		*list = append(*list, item)
		return nil
	})
}

// UpdateExpense replaces a manual line. External lines belong to invoicing.
// Withholding only changes through ToggleWithholding: the line keeps its state,
// unless a new amount is typed, which drops it.
func (e *Editor) UpdateExpense(kind reconcile.ExpenseKind, index int, item reconcile.ExpenseItem) error {
	return e.edit(func() error {
		list, err := e.expenseList(kind)
		if err != nil {
			return err
		}
		if index < 0 || index >= len(*list) {
			return ErrNoLine
		}
		prev := (*list)[index]
		if prev.Source.IsExternal() {
			return ErrExternalLine
		}
		item.Withholding, item.OriginalAmount = false, ""
		if prev.Withholding && item.Amount == prev.Amount {
			item.Withholding, item.OriginalAmount = true, prev.OriginalAmount
		}
		item.Source = reconcile.Manual()
		(*list)[index] = item
		return nil
	})
}

func (e *Editor) ToggleWithholding(kind reconcile.ExpenseKind, index int) error {
	return e.edit(func() error {
		list, err := e.expenseList(kind)
		if err != nil {
			return err
		}
		if index < 0 || index >= len(*list) {
			return ErrNoLine
		}
		(*list)[index] = reconcile.ToggleWithholding((*list)[index])
		return nil
	})
}

// AttachDocument adds a scanned delivery note or invoice to a line.
func (e *Editor) AttachDocument(kind reconcile.ExpenseKind, index int, data []byte) error {
	url, err := DataURL(data)
	if err != nil {
		return err
	}
	return e.edit(func() error {
		list, err := e.expenseList(kind)
		if err != nil {
			return err
		}
		if index < 0 || index >= len(*list) {
			return ErrNoLine
		}
		(*list)[index].Documents = append((*list)[index].Documents, url)
		return nil
	})
}

// RemoveExpense deletes a line. An external line first has its invoice
// unpaid; if that fails the line stays.
func (e *Editor) RemoveExpense(ctx context.Context, kind reconcile.ExpenseKind, index int) error {
	e.mu.Lock()
	if e.date == "" {
		e.mu.Unlock()
		return ErrNoDay
	}
	if e.locked {
		e.mu.Unlock()
		e.notify.Alert(LockedNotice)
		return ErrLocked
	}
	list, err := e.expenseList(kind)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	if index < 0 || index >= len(*list) {
		e.mu.Unlock()
		return ErrNoLine
	}
	item := (*list)[index]
	if !item.Source.IsExternal() {
		*list = append((*list)[:index], (*list)[index+1:]...)
		e.touchLocked()
		e.mu.Unlock()
		return nil
	}
	date := e.date
	e.mu.Unlock()

	invoiceID := item.Source.InvoiceID
	if err := e.gw.UnpayInvoice(ctx, invoiceID); err != nil {
		log.Printf("workspace %s: unpay invoice %s failed: %v", date, invoiceID, err)
		if errors.Is(err, gateway.ErrLocked) {
			e.markLocked(date)
			e.notify.Alert(LockedNotice)
			return err
		}
		e.notify.Toast(LevelError, "Could not cancel the invoice payment")
		return fmt.Errorf("unpay invoice %s: %w", invoiceID, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.date != date {
		return ErrStale
	}
	list, _ = e.expenseList(kind)
	kept := (*list)[:0]
	for _, it := range *list {
		if it.Source.IsExternal() && it.Source.InvoiceID == invoiceID {
			continue
		}
		kept = append(kept, it)
	}
	*list = kept
	e.touchLocked()
	return nil
}

func (e *Editor) AddOffer(offer reconcile.Offer) error {
	return e.edit(func() error {
		e.sheet.Offers = append(e.sheet.Offers, offer)
		return nil
	})
}

func (e *Editor) RemoveOffer(index int) error {
	return e.edit(func() error {
		if index < 0 || index >= len(e.sheet.Offers) {
			return ErrNoLine
		}
		e.sheet.Offers = append(e.sheet.Offers[:index], e.sheet.Offers[index+1:]...)
		return nil
	})
}

// AttachPhoto adds a cash-drawer photo, at most MaxPhotos per day.
func (e *Editor) AttachPhoto(data []byte) error {
	url, err := DataURL(data)
	if err != nil {
		return err
	}
	return e.edit(func() error {
		if len(e.sheet.Photos) >= reconcile.MaxPhotos {
			return ErrTooManyPhotos
		}
		e.sheet.Photos = append(e.sheet.Photos, url)
		return nil
	})
}

func (e *Editor) RemovePhoto(index int) error {
	return e.edit(func() error {
		if index < 0 || index >= len(e.sheet.Photos) {
			return ErrNoLine
		}
		e.sheet.Photos = append(e.sheet.Photos[:index], e.sheet.Photos[index+1:]...)
		return nil
	})
}

// mutationTarget returns the open date, raising the lock alert when frozen.
func (e *Editor) mutationTarget() (string, error) {
	e.mu.Lock()
	date, locked := e.date, e.locked
	e.mu.Unlock()

	if date == "" {
		return "", ErrNoDay
	}
	if locked {
		e.notify.Alert(LockedNotice)
		return "", ErrLocked
	}
	return date, nil
}

func (e *Editor) markLocked(date string) {
	e.mu.Lock()
	if e.date == date {
		e.locked = true
	}
	e.mu.Unlock()
}

// remoteFailed reports a failed gateway call the way the cashier sees it.
func (e *Editor) remoteFailed(date string, err error, message string) {
	log.Printf("workspace %s: %s: %v", date, message, err)
	if errors.Is(err, gateway.ErrLocked) {
		e.markLocked(date)
		e.notify.Alert(LockedNotice)
		return
	}
	e.notify.Toast(LevelError, message)
}

// AddPayroll creates the entry remotely, then reloads the day.
func (e *Editor) AddPayroll(ctx context.Context, kind reconcile.PayrollKind, entry reconcile.PayrollEntry) (reconcile.PayrollEntry, error) {
	date, err := e.mutationTarget()
	if err != nil {
		return reconcile.PayrollEntry{}, err
	}

	created, err := e.gw.CreatePayroll(ctx, date, kind, entry)
	if err != nil {
		e.remoteFailed(date, err, "Could not add the payroll entry")
		return reconcile.PayrollEntry{}, err
	}
	e.rememberEmployee(ctx, created.Employee)
	e.notify.Toast(LevelSuccess, "Payroll entry added")

	if err := e.Refresh(ctx); err != nil && !errors.Is(err, ErrStale) {
		return created, err
	}
	return created, nil
}

// ReplacePayroll updates an entry by deleting it and creating the new
// version. The two calls are not atomic: if the create fails the old entry
// is already gone and ErrReplaceIncomplete is returned.
func (e *Editor) ReplacePayroll(ctx context.Context, kind reconcile.PayrollKind, id string, entry reconcile.PayrollEntry) (reconcile.PayrollEntry, error) {
	date, err := e.mutationTarget()
	if err != nil {
		return reconcile.PayrollEntry{}, err
	}

	if err := e.gw.DeletePayroll(ctx, kind, id); err != nil {
		e.remoteFailed(date, err, "Could not update the payroll entry")
		return reconcile.PayrollEntry{}, err
	}
	created, err := e.gw.CreatePayroll(ctx, date, kind, entry)
	if err != nil {
		e.remoteFailed(date, err, "The payroll entry was removed but could not be recreated")
		_ = e.Refresh(ctx)
		return reconcile.PayrollEntry{}, fmt.Errorf("%w: %v", ErrReplaceIncomplete, err)
	}
	e.rememberEmployee(ctx, created.Employee)
	e.notify.Toast(LevelSuccess, "Payroll entry updated")

	if err := e.Refresh(ctx); err != nil && !errors.Is(err, ErrStale) {
		return created, err
	}
	return created, nil
}

func (e *Editor) DeletePayroll(ctx context.Context, kind reconcile.PayrollKind, id string) error {
	date, err := e.mutationTarget()
	if err != nil {
		return err
	}

	if err := e.gw.DeletePayroll(ctx, kind, id); err != nil {
		e.remoteFailed(date, err, "Could not delete the payroll entry")
		return err
	}
	e.notify.Toast(LevelSuccess, "Payroll entry deleted")

	if err := e.Refresh(ctx); err != nil && !errors.Is(err, ErrStale) {
		return err
	}
	return nil
}

func (e *Editor) rememberEmployee(ctx context.Context, name string) {
	if strings.TrimSpace(name) == "" {
		return
	}
	if err := e.gw.UpsertDirectory(ctx, gateway.DirectoryEmployee, name); err != nil {
		log.Printf("workspace: employee %q not added to directory: %v", name, err)
	}
}

// Save writes the open day. On success the day is clean again and its draft
// is dropped, unless it was edited while the save was in flight.
func (e *Editor) Save(ctx context.Context) error {
	date, err := e.mutationTarget()
	if err != nil {
		return err
	}

	e.mu.Lock()
	sheet := e.sheet.Clone()
	rev := e.revision
	e.mu.Unlock()

	if err := e.gw.Save(ctx, date, sheet); err != nil {
		e.remoteFailed(date, err, "Could not save "+date)
		return err
	}

	e.draftMu.Lock()
	e.mu.Lock()
	clean := e.date == date && e.revision == rev
	if clean {
		e.interacted = false
		e.debounce.Stop()
	}
	e.mu.Unlock()

	if clean {
		if err := e.drafts.Delete(ctx, date); err != nil {
			log.Printf("workspace %s: draft not deleted: %v", date, err)
		}
	}
	e.draftMu.Unlock()
	e.rememberNames(ctx, sheet)
	e.notify.Toast(LevelSuccess, "Day "+date+" saved")
	return nil
}

// rememberNames feeds the supplier and designation directories from a saved sheet.
func (e *Editor) rememberNames(ctx context.Context, sheet reconcile.Sheet) {
	for _, kind := range reconcile.ExpenseKinds {
		dir := gateway.DirectoryDesignation
		if kind == reconcile.ExpenseSupplier {
			dir = gateway.DirectorySupplier
		}
		for _, item := range *sheet.Expenses.List(kind) {
			if item.Source.IsExternal() || strings.TrimSpace(item.Name) == "" {
				continue
			}
			if err := e.gw.UpsertDirectory(ctx, dir, item.Name); err != nil {
				log.Printf("workspace: %s %q not added to directory: %v", dir, item.Name, err)
			}
		}
	}
}

// CheckLock asks the backend whether the open day is locked.
func (e *Editor) CheckLock(ctx context.Context) (bool, error) {
	e.mu.Lock()
	date := e.date
	e.mu.Unlock()
	if date == "" {
		return false, ErrNoDay
	}

	locked, err := e.gw.LockStatus(ctx, date)
	if err != nil {
		return false, err
	}
	e.mu.Lock()
	if e.date == date {
		e.locked = locked
	}
	e.mu.Unlock()
	return locked, nil
}

// Unlock reopens the day for edits.
func (e *Editor) Unlock(ctx context.Context) error {
	e.mu.Lock()
	date := e.date
	e.mu.Unlock()
	if date == "" {
		return ErrNoDay
	}

	if err := e.gw.Unlock(ctx, date); err != nil {
		log.Printf("workspace %s: unlock failed: %v", date, err)
		e.notify.Toast(LevelError, "Could not unlock "+date)
		return err
	}
	e.mu.Lock()
	if e.date == date {
		e.locked = false
	}
	e.mu.Unlock()
	e.notify.Toast(LevelSuccess, "Day "+date+" unlocked")
	return nil
}

// Close cancels the pending draft snapshot.
func (e *Editor) Close() {
	e.debounce.Stop()
}

// DataURL inlines an image or PDF so it can travel inside the sheet.
func DataURL(data []byte) (string, error) {
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") && !mt.Is("application/pdf") {
		return "", ErrUnsupportedFile
	}
	return "data:" + mt.String() + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
