package workspace

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"bey-cash/internal/database"
	"bey-cash/internal/drafts"
	"bey-cash/internal/gateway"
	"bey-cash/internal/models"
	"bey-cash/internal/reconcile"
)

// fakeGateway keeps days in memory and counts calls.
type fakeGateway struct {
	mu        sync.Mutex
	days      map[string]*reconcile.Day
	calls     map[string]int
	nextID    int
	unpayErr  error
	createErr error
	loadHook  func(date string)
	unpaid    []string
	directory map[gateway.DirectoryKind][]string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		days:      make(map[string]*reconcile.Day),
		calls:     make(map[string]int),
		directory: make(map[gateway.DirectoryKind][]string),
	}
}

func (g *fakeGateway) count(name string) {
	g.mu.Lock()
	g.calls[name]++
	g.mu.Unlock()
}

func (g *fakeGateway) callCount(name string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[name]
}

func (g *fakeGateway) day(date string) *reconcile.Day {
	d, ok := g.days[date]
	if !ok {
		d = &reconcile.Day{Date: date}
		g.days[date] = d
	}
	return d
}

func (g *fakeGateway) Load(ctx context.Context, date string) (*reconcile.Day, error) {
	g.count("Load")
	if g.loadHook != nil {
		g.loadHook(date)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	d, ok := g.days[date]
	if !ok {
		return nil, nil
	}
	cp := *d
	cp.Sheet = d.Sheet.Clone()
	for _, kind := range reconcile.PayrollKinds {
		list := cp.Payroll.List(kind)
		*list = append([]reconcile.PayrollEntry(nil), (*list)...)
	}
	return &cp, nil
}

func (g *fakeGateway) Save(ctx context.Context, date string, sheet reconcile.Sheet) error {
	g.count("Save")
	g.mu.Lock()
	defer g.mu.Unlock()
	d := g.day(date)
	if d.Locked {
		return gateway.ErrLocked
	}
	d.Sheet = sheet.Clone()
	d.Saved = true
	return nil
}

func (g *fakeGateway) LockStatus(ctx context.Context, date string) (bool, error) {
	g.count("LockStatus")
	g.mu.Lock()
	defer g.mu.Unlock()
	d, ok := g.days[date]
	return ok && d.Locked, nil
}

func (g *fakeGateway) Unlock(ctx context.Context, date string) error {
	g.count("Unlock")
	g.mu.Lock()
	defer g.mu.Unlock()
	g.day(date).Locked = false
	return nil
}

func (g *fakeGateway) CreatePayroll(ctx context.Context, date string, kind reconcile.PayrollKind, entry reconcile.PayrollEntry) (reconcile.PayrollEntry, error) {
	g.count("CreatePayroll")
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.createErr != nil {
		return reconcile.PayrollEntry{}, g.createErr
	}
	d := g.day(date)
	if d.Locked {
		return reconcile.PayrollEntry{}, gateway.ErrLocked
	}
	g.nextID++
	entry.ID = fmt.Sprintf("p%d", g.nextID)
	list := d.Payroll.List(kind)
	*list = append(*list, entry)
	return entry, nil
}

func (g *fakeGateway) DeletePayroll(ctx context.Context, kind reconcile.PayrollKind, id string) error {
	g.count("DeletePayroll")
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, d := range g.days {
		list := d.Payroll.List(kind)
		for i, e := range *list {
			if e.ID == id {
				*list = append((*list)[:i], (*list)[i+1:]...)
				return nil
			}
		}
	}
	return gateway.ErrNotFound
}

func (g *fakeGateway) UpsertDirectory(ctx context.Context, kind gateway.DirectoryKind, name string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.directory[kind] = append(g.directory[kind], name)
	return nil
}

func (g *fakeGateway) UnpayInvoice(ctx context.Context, invoiceID string) error {
	g.count("UnpayInvoice")
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.unpayErr != nil {
		return g.unpayErr
	}
	g.unpaid = append(g.unpaid, invoiceID)
	return nil
}

// memoryDrafts is a drafts.Store kept in a map.
type memoryDrafts struct {
	mu     sync.Mutex
	drafts map[string]drafts.Draft
	saves  int
}

func newMemoryDrafts() *memoryDrafts {
	return &memoryDrafts{drafts: make(map[string]drafts.Draft)}
}

func (m *memoryDrafts) Save(ctx context.Context, d drafts.Draft) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drafts[d.Date] = d
	m.saves++
	return nil
}

func (m *memoryDrafts) Load(ctx context.Context, date string) (*drafts.Draft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drafts[date]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (m *memoryDrafts) Delete(ctx context.Context, date string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drafts, date)
	return nil
}

func (m *memoryDrafts) has(date string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.drafts[date]
	return ok
}

func newTestEditor(t *testing.T) (*Editor, *fakeGateway, *memoryDrafts, *Recorder) {
	t.Helper()
	gw := newFakeGateway()
	store := newMemoryDrafts()
	rec := &Recorder{}
	e := NewEditor(gw, store, rec, time.Hour)
	t.Cleanup(e.Close)
	return e, gw, store, rec
}

func countAlerts(notices []Notice) int {
	n := 0
	for _, notice := range notices {
		if notice.Kind == "alert" {
			n++
		}
	}
	return n
}

const today = "2026-10-18"

func TestEditor_AutoBalanceScenario(t *testing.T) {
	e, _, _, _ := newTestEditor(t)
	ctx := context.Background()
	if err := e.Open(ctx, today); err != nil {
		t.Fatal(err)
	}

	steps := []error{
		e.SetGrossReceipts("1000.000"),
		e.SetPayment(reconcile.PaymentCard1, "200.000"),
		e.SetPayment(reconcile.PaymentCard2, "0"),
		e.SetPayment(reconcile.PaymentCheck, "50.000"),
		e.SetPayment(reconcile.PaymentMealTickets, "30.000"),
		e.AddExpense(reconcile.ExpenseSupplier, reconcile.ExpenseItem{Name: "Delice", Amount: "100.000"}),
	}
	for i, err := range steps {
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}

	v := e.View()
	if v.Summary.Balance.NetReceipts != 900 || v.Summary.Balance.Cash != 620 {
		t.Fatalf("balance = %+v", v.Summary.Balance)
	}
	if !v.Dirty {
		t.Error("edits should mark the day dirty")
	}
	if err := e.SetPayment(reconcile.PaymentCash, "1"); !errors.Is(err, ErrReadOnly) {
		t.Errorf("setting cash = %v, want ErrReadOnly", err)
	}
}

func TestEditor_DraftRoundTrip(t *testing.T) {
	e, gw, store, _ := newTestEditor(t)
	ctx := context.Background()
	if err := e.Open(ctx, today); err != nil {
		t.Fatal(err)
	}
	e.SetGrossReceipts("420.000")
	e.AddExpense(reconcile.ExpenseSundry, reconcile.ExpenseItem{Name: "gas", Amount: "100.000"})
	e.ToggleWithholding(reconcile.ExpenseSundry, 0)
	e.AddOffer(reconcile.Offer{Name: "tea", Amount: "1.000"})
	e.FlushDraft()

	if !store.has(today) {
		t.Fatal("no draft written after flush")
	}
	before := e.View().Sheet

	// a fresh editor, as after a reload of the page
	fresh := NewEditor(gw, store, &Recorder{}, time.Hour)
	defer fresh.Close()
	if err := fresh.Open(ctx, today); err != nil {
		t.Fatal(err)
	}

	v := fresh.View()
	if !reflect.DeepEqual(v.Sheet, before) {
		t.Fatalf("restored sheet differs:\n got %+v\nwant %+v", v.Sheet, before)
	}
	if !v.Dirty {
		t.Error("a restored draft should mark the day interacted")
	}
}

func TestEditor_DebouncedDraft(t *testing.T) {
	gw := newFakeGateway()
	store := newMemoryDrafts()
	e := NewEditor(gw, store, &Recorder{}, 10*time.Millisecond)
	defer e.Close()
	ctx := context.Background()
	if err := e.Open(ctx, today); err != nil {
		t.Fatal(err)
	}

	for _, v := range []string{"1", "12", "123"} {
		e.SetGrossReceipts(v)
	}

	deadline := time.Now().Add(time.Second)
	for !store.has(today) && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	d, _ := store.Load(ctx, today)
	if d == nil || d.Data.GrossReceipts != "123" {
		t.Fatalf("draft = %+v, want the last edit", d)
	}
	store.mu.Lock()
	saves := store.saves
	store.mu.Unlock()
	if saves != 1 {
		t.Fatalf("draft written %d times, want 1", saves)
	}
}

func TestEditor_SaveClearsDirtyAndDraft(t *testing.T) {
	e, gw, store, rec := newTestEditor(t)
	ctx := context.Background()
	e.Open(ctx, today)
	e.SetGrossReceipts("10")
	e.AddExpense(reconcile.ExpenseSupplier, reconcile.ExpenseItem{Name: "Sotugat", Amount: "5"})
	e.FlushDraft()

	if err := e.Save(ctx); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if e.View().Dirty {
		t.Error("day still dirty after save")
	}
	if store.has(today) {
		t.Error("draft kept after save")
	}
	if gw.days[today].Sheet.GrossReceipts != "10" {
		t.Errorf("saved sheet = %+v", gw.days[today].Sheet)
	}
	if got := gw.directory[gateway.DirectorySupplier]; len(got) != 1 || got[0] != "Sotugat" {
		t.Errorf("supplier directory = %v", got)
	}
	notices := rec.Drain()
	if len(notices) != 1 || notices[0].Level != LevelSuccess {
		t.Errorf("notices = %+v", notices)
	}
}

func TestEditor_LockedDayRejectsMutations(t *testing.T) {
	e, gw, _, rec := newTestEditor(t)
	ctx := context.Background()
	gw.days[today] = &reconcile.Day{
		Date:   today,
		Sheet:  reconcile.Sheet{GrossReceipts: "500"},
		Locked: true,
		Saved:  true,
	}
	if err := e.Open(ctx, today); err != nil {
		t.Fatal(err)
	}
	rec.Drain()

	actions := map[string]func() error{
		"save": func() error { return e.Save(ctx) },
		"add payroll": func() error {
			_, err := e.AddPayroll(ctx, reconcile.PayrollAdvance, reconcile.PayrollEntry{Employee: "Sami", Amount: "5"})
			return err
		},
		"add expense":    func() error { return e.AddExpense(reconcile.ExpenseSupplier, reconcile.ExpenseItem{Name: "x"}) },
		"set receipts":   func() error { return e.SetGrossReceipts("1") },
		"remove expense": func() error { return e.RemoveExpense(ctx, reconcile.ExpenseSupplier, 0) },
		"delete payroll": func() error { return e.DeletePayroll(ctx, reconcile.PayrollAdvance, "x") },
		"add offer":      func() error { return e.AddOffer(reconcile.Offer{Name: "x"}) },
	}
	for name, action := range actions {
		if err := action(); !errors.Is(err, ErrLocked) {
			t.Errorf("%s = %v, want ErrLocked", name, err)
		}
		if n := countAlerts(rec.Drain()); n != 1 {
			t.Errorf("%s raised %d alerts, want exactly 1", name, n)
		}
	}

	if gw.callCount("Save") != 0 || gw.callCount("CreatePayroll") != 0 || gw.callCount("DeletePayroll") != 0 {
		t.Errorf("locked day reached the backend: %v", gw.calls)
	}
	if v := e.View(); v.Sheet.GrossReceipts != "500" || v.Dirty {
		t.Errorf("locked day changed: %+v", v)
	}

	// reading is still allowed, and unlock reopens the day
	if locked, err := e.CheckLock(ctx); err != nil || !locked {
		t.Fatalf("CheckLock = %v, %v", locked, err)
	}
	if err := e.Unlock(ctx); err != nil {
		t.Fatal(err)
	}
	if err := e.SetGrossReceipts("600"); err != nil {
		t.Fatalf("edit after unlock: %v", err)
	}
}

func TestEditor_MergeKeepsManualEdits(t *testing.T) {
	e, gw, _, _ := newTestEditor(t)
	ctx := context.Background()
	gw.days[today] = &reconcile.Day{
		Date: today,
		Sheet: reconcile.Sheet{
			GrossReceipts: "900",
			Expenses: reconcile.Expenses{Supplier: []reconcile.ExpenseItem{
				{Name: "saved manual", Amount: "1", Source: reconcile.Manual()},
			}},
		},
		Saved: true,
	}
	e.Open(ctx, today)
	e.AddExpense(reconcile.ExpenseSupplier, reconcile.ExpenseItem{Name: "typed", Amount: "2"})
	e.SetGrossReceipts("950")

	// an invoice gets paid elsewhere meanwhile
	gw.days[today].Sheet.Expenses.Supplier = append(gw.days[today].Sheet.Expenses.Supplier,
		reconcile.ExpenseItem{Name: "Sotugat", Amount: "250", Source: reconcile.External("inv-9")})
	gw.days[today].Sheet.GrossReceipts = "0"

	if err := e.Refresh(ctx); err != nil {
		t.Fatal(err)
	}
	v := e.View()
	if v.Sheet.GrossReceipts != "950" {
		t.Errorf("local receipts overwritten: %q", v.Sheet.GrossReceipts)
	}
	names := []string{}
	for _, item := range v.Sheet.Expenses.Supplier {
		names = append(names, item.Name)
	}
	want := []string{"Sotugat", "saved manual", "typed"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("supplier lines = %v, want %v", names, want)
	}
}

func TestEditor_CleanDayTakesRemote(t *testing.T) {
	e, gw, _, _ := newTestEditor(t)
	ctx := context.Background()
	gw.days[today] = &reconcile.Day{Date: today, Sheet: reconcile.Sheet{GrossReceipts: "100"}, Saved: true}
	e.Open(ctx, today)

	gw.days[today].Sheet.GrossReceipts = "200"
	e.Refresh(ctx)

	if got := e.View().Sheet.GrossReceipts; got != "200" {
		t.Fatalf("clean day kept %q, want remote value", got)
	}
}

func TestEditor_RemoveExternalLine(t *testing.T) {
	e, gw, _, rec := newTestEditor(t)
	ctx := context.Background()
	gw.days[today] = &reconcile.Day{
		Date: today,
		Sheet: reconcile.Sheet{Expenses: reconcile.Expenses{Supplier: []reconcile.ExpenseItem{
			{Name: "Sotugat", Amount: "250", Source: reconcile.External("inv-1")},
			{Name: "bread", Amount: "3", Source: reconcile.Manual()},
		}}},
		Saved: true,
	}
	e.Open(ctx, today)

	gw.unpayErr = errors.New("invoicing is down")
	if err := e.RemoveExpense(ctx, reconcile.ExpenseSupplier, 0); err == nil {
		t.Fatal("remove should fail when unpay fails")
	}
	if n := len(e.View().Sheet.Expenses.Supplier); n != 2 {
		t.Fatalf("line removed despite unpay failure: %d lines", n)
	}
	if notices := rec.Drain(); len(notices) != 1 || notices[0].Level != LevelError {
		t.Errorf("notices = %+v", notices)
	}

	gw.unpayErr = nil
	if err := e.RemoveExpense(ctx, reconcile.ExpenseSupplier, 0); err != nil {
		t.Fatalf("RemoveExpense: %v", err)
	}
	lines := e.View().Sheet.Expenses.Supplier
	if len(lines) != 1 || lines[0].Name != "bread" {
		t.Fatalf("lines = %+v", lines)
	}
	if len(gw.unpaid) != 1 || gw.unpaid[0] != "inv-1" {
		t.Errorf("unpaid = %v", gw.unpaid)
	}

	// manual lines never reach the invoicing workflow
	if err := e.RemoveExpense(ctx, reconcile.ExpenseSupplier, 0); err != nil {
		t.Fatal(err)
	}
	if gw.callCount("UnpayInvoice") != 2 {
		t.Errorf("unpay calls = %d, want 2", gw.callCount("UnpayInvoice"))
	}
}

func TestEditor_ExternalLineIsNotEditable(t *testing.T) {
	e, gw, _, _ := newTestEditor(t)
	ctx := context.Background()
	gw.days[today] = &reconcile.Day{
		Date: today,
		Sheet: reconcile.Sheet{Expenses: reconcile.Expenses{Supplier: []reconcile.ExpenseItem{
			{Name: "Sotugat", Amount: "250", Source: reconcile.External("inv-1")},
		}}},
		Saved: true,
	}
	e.Open(ctx, today)

	err := e.UpdateExpense(reconcile.ExpenseSupplier, 0, reconcile.ExpenseItem{Name: "x", Amount: "1"})
	if !errors.Is(err, ErrExternalLine) {
		t.Fatalf("UpdateExpense = %v, want ErrExternalLine", err)
	}
	if e.View().Dirty {
		t.Error("failed edit marked the day dirty")
	}
}

func TestEditor_UpdateKeepsWithholding(t *testing.T) {
	e, _, _, _ := newTestEditor(t)
	ctx := context.Background()
	e.Open(ctx, today)

	// withholding sent by the client is ignored on add
	e.AddExpense(reconcile.ExpenseSupplier, reconcile.ExpenseItem{Name: "Delice", Amount: "100", Withholding: true})
	line := e.View().Sheet.Expenses.Supplier[0]
	if line.Withholding || line.OriginalAmount != "" {
		t.Fatalf("added line = %+v", line)
	}

	if err := e.ToggleWithholding(reconcile.ExpenseSupplier, 0); err != nil {
		t.Fatal(err)
	}
	// renaming keeps the withholding and its cached original
	err := e.UpdateExpense(reconcile.ExpenseSupplier, 0, reconcile.ExpenseItem{Name: "Délice", Amount: "99.000"})
	if err != nil {
		t.Fatalf("UpdateExpense: %v", err)
	}
	line = e.View().Sheet.Expenses.Supplier[0]
	if !line.Withholding || line.OriginalAmount != "100" || line.Name != "Délice" {
		t.Fatalf("renamed line = %+v", line)
	}
	e.ToggleWithholding(reconcile.ExpenseSupplier, 0)
	if got := e.View().Sheet.Expenses.Supplier[0].Amount; got != "100" {
		t.Fatalf("amount after toggling off = %q, want 100", got)
	}

	// a client claiming withholding without an original cannot blank the amount
	e.UpdateExpense(reconcile.ExpenseSupplier, 0, reconcile.ExpenseItem{Name: "Délice", Amount: "100", Withholding: true})
	line = e.View().Sheet.Expenses.Supplier[0]
	if line.Withholding {
		t.Fatalf("client set withholding: %+v", line)
	}
	e.ToggleWithholding(reconcile.ExpenseSupplier, 0)
	e.ToggleWithholding(reconcile.ExpenseSupplier, 0)
	if got := e.View().Sheet.Expenses.Supplier[0].Amount; got != "100" {
		t.Fatalf("amount after a toggle cycle = %q, want 100", got)
	}

	// typing a new amount on a withheld line drops the withholding
	e.ToggleWithholding(reconcile.ExpenseSupplier, 0)
	e.UpdateExpense(reconcile.ExpenseSupplier, 0, reconcile.ExpenseItem{Name: "Délice", Amount: "150"})
	line = e.View().Sheet.Expenses.Supplier[0]
	if line.Withholding || line.OriginalAmount != "" || line.Amount != "150" {
		t.Fatalf("retyped line = %+v", line)
	}
}

// slowDrafts holds Save until release is closed.
type slowDrafts struct {
	*memoryDrafts
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (s *slowDrafts) Save(ctx context.Context, d drafts.Draft) error {
	s.once.Do(func() { close(s.entered) })
	<-s.release
	return s.memoryDrafts.Save(ctx, d)
}

func TestEditor_LateDraftWriteAfterSave(t *testing.T) {
	gw := newFakeGateway()
	store := &slowDrafts{memoryDrafts: newMemoryDrafts(), entered: make(chan struct{}), release: make(chan struct{})}
	e := NewEditor(gw, store, &Recorder{}, time.Hour)
	t.Cleanup(e.Close)
	ctx := context.Background()
	e.Open(ctx, today)
	e.SetGrossReceipts("500")

	flushed := make(chan struct{})
	go func() {
		e.FlushDraft()
		close(flushed)
	}()
	<-store.entered

	saved := make(chan error, 1)
	go func() { saved <- e.Save(ctx) }()
	time.Sleep(20 * time.Millisecond)
	close(store.release)

	if err := <-saved; err != nil {
		t.Fatalf("Save: %v", err)
	}
	<-flushed
	if store.has(today) {
		t.Fatal("draft written before the save survived it")
	}
	if e.View().Dirty {
		t.Fatal("day still dirty after save")
	}
}

func TestEditor_PayrollRoundTrip(t *testing.T) {
	e, gw, _, _ := newTestEditor(t)
	ctx := context.Background()
	e.Open(ctx, today)

	created, err := e.AddPayroll(ctx, reconcile.PayrollBonus, reconcile.PayrollEntry{Employee: "Sami", Amount: "30"})
	if err != nil {
		t.Fatalf("AddPayroll: %v", err)
	}
	if v := e.View(); len(v.Payroll.Bonuses) != 1 || v.Summary.Totals.Payroll[reconcile.PayrollBonus] != 30 {
		t.Fatalf("payroll after add = %+v", v.Payroll)
	}

	replaced, err := e.ReplacePayroll(ctx, reconcile.PayrollBonus, created.ID, reconcile.PayrollEntry{Employee: "Sami", Amount: "45"})
	if err != nil {
		t.Fatalf("ReplacePayroll: %v", err)
	}
	if replaced.ID == created.ID {
		t.Error("replace should create a new remote entry")
	}
	if v := e.View(); len(v.Payroll.Bonuses) != 1 || v.Payroll.Bonuses[0].Amount != "45" {
		t.Fatalf("payroll after replace = %+v", v.Payroll)
	}

	if err := e.DeletePayroll(ctx, reconcile.PayrollBonus, replaced.ID); err != nil {
		t.Fatalf("DeletePayroll: %v", err)
	}
	if v := e.View(); len(v.Payroll.Bonuses) != 0 {
		t.Fatalf("payroll after delete = %+v", v.Payroll)
	}
	if got := gw.directory[gateway.DirectoryEmployee]; len(got) != 2 {
		t.Errorf("employee directory = %v", got)
	}
}

func TestEditor_ReplacePayrollLosesEntryOnCreateFailure(t *testing.T) {
	e, gw, _, _ := newTestEditor(t)
	ctx := context.Background()
	e.Open(ctx, today)
	created, err := e.AddPayroll(ctx, reconcile.PayrollAdvance, reconcile.PayrollEntry{Employee: "Mona", Amount: "20"})
	if err != nil {
		t.Fatal(err)
	}

	gw.createErr = errors.New("backend down")
	_, err = e.ReplacePayroll(ctx, reconcile.PayrollAdvance, created.ID, reconcile.PayrollEntry{Employee: "Mona", Amount: "25"})
	if !errors.Is(err, ErrReplaceIncomplete) {
		t.Fatalf("ReplacePayroll = %v, want ErrReplaceIncomplete", err)
	}
	if v := e.View(); len(v.Payroll.Advances) != 0 {
		t.Fatalf("advances = %+v, the entry is gone after a failed replace", v.Payroll.Advances)
	}
}

func TestEditor_StaleLoadDropped(t *testing.T) {
	e, gw, _, _ := newTestEditor(t)
	ctx := context.Background()
	gw.days["2026-10-17"] = &reconcile.Day{Date: "2026-10-17", Sheet: reconcile.Sheet{GrossReceipts: "17"}, Saved: true}
	gw.days[today] = &reconcile.Day{Date: today, Sheet: reconcile.Sheet{GrossReceipts: "18"}, Saved: true}

	// while yesterday is loading, the cashier jumps to today
	gw.loadHook = func(date string) {
		if date == "2026-10-17" {
			gw.loadHook = nil
			if err := e.Open(ctx, today); err != nil {
				t.Errorf("Open(today): %v", err)
			}
		}
	}

	if err := e.Open(ctx, "2026-10-17"); !errors.Is(err, ErrStale) {
		t.Fatalf("Open(yesterday) = %v, want ErrStale", err)
	}
	v := e.View()
	if v.Date != today || v.Sheet.GrossReceipts != "18" {
		t.Fatalf("view = %s/%q, the stale response overwrote today", v.Date, v.Sheet.GrossReceipts)
	}
}

func TestEditor_Photos(t *testing.T) {
	e, _, _, _ := newTestEditor(t)
	e.Open(context.Background(), today)
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")

	for i := 0; i < reconcile.MaxPhotos; i++ {
		if err := e.AttachPhoto(png); err != nil {
			t.Fatalf("photo %d: %v", i, err)
		}
	}
	if err := e.AttachPhoto(png); !errors.Is(err, ErrTooManyPhotos) {
		t.Fatalf("fourth photo = %v, want ErrTooManyPhotos", err)
	}
	if err := e.AttachPhoto([]byte("just some text")); !errors.Is(err, ErrUnsupportedFile) {
		t.Fatalf("text attachment = %v, want ErrUnsupportedFile", err)
	}

	photos := e.View().Sheet.Photos
	if len(photos) != 3 || photos[0][:22] != "data:image/png;base64," {
		t.Fatalf("photos = %v", photos)
	}
	if err := e.RemovePhoto(0); err != nil {
		t.Fatal(err)
	}
	if len(e.View().Sheet.Photos) != 2 {
		t.Fatal("photo not removed")
	}
}

func TestEditor_NoDayOpen(t *testing.T) {
	e, _, _, _ := newTestEditor(t)
	if err := e.SetGrossReceipts("1"); !errors.Is(err, ErrNoDay) {
		t.Fatalf("edit without a day = %v", err)
	}
	if err := e.Save(context.Background()); !errors.Is(err, ErrNoDay) {
		t.Fatalf("save without a day = %v", err)
	}
}

func TestEditor_WithStoreAndDrafts(t *testing.T) {
	db, err := database.OpenMemory(t.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { database.Close(db) })
	store := gateway.NewStore(db)
	ctx := context.Background()
	m := NewManager(store, func(userID uint) drafts.Store { return drafts.NewDBStore(db, userID) }, time.Hour)
	defer m.Close()

	e, rec := m.Get(1)
	if err := e.Open(ctx, today); err != nil {
		t.Fatal(err)
	}
	e.SetGrossReceipts("300")
	e.FlushDraft()

	// invoice paid from the invoicing screen while the day is still a draft
	inv, err := store.CreateInvoice(ctx, models.Invoice{Supplier: "Sotugat", Amount: "40"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.PayInvoice(ctx, inv.ID, today, "cash"); err != nil {
		t.Fatal(err)
	}

	// page reload: same user, new editor
	m.Release(1)
	e, rec = m.Get(1)
	if err := e.Open(ctx, today); err != nil {
		t.Fatal(err)
	}
	v := e.View()
	if v.Sheet.GrossReceipts != "300" || !v.Dirty {
		t.Fatalf("draft not restored: %+v", v)
	}
	if len(v.Sheet.Expenses.Supplier) != 1 || v.Sheet.Expenses.Supplier[0].Source.InvoiceID != inv.ID {
		t.Fatalf("paid invoice not spliced in: %+v", v.Sheet.Expenses.Supplier)
	}
	if v.Summary.Balance.Cash != 260 {
		t.Errorf("cash = %v, want 260", v.Summary.Balance.Cash)
	}

	if err := e.Save(ctx); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if d, _ := drafts.NewDBStore(db, 1).Load(ctx, today); d != nil {
		t.Error("draft still stored after save")
	}
	if err := store.Lock(ctx, today); err != nil {
		t.Fatal(err)
	}
	e.Refresh(ctx)
	rec.Drain()
	if err := e.Save(ctx); !errors.Is(err, ErrLocked) {
		t.Fatalf("save on locked day = %v", err)
	}
	if n := countAlerts(rec.Drain()); n != 1 {
		t.Errorf("alerts = %d, want 1", n)
	}
}
