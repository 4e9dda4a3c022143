package ai

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"bey-cash/internal/database"
	"bey-cash/internal/gateway"
	"bey-cash/internal/reconcile"

	"github.com/google/generative-ai-go/genai"
)

func newTestAgent(t *testing.T) (*Agent, *gateway.Store) {
	t.Helper()
	db, err := database.OpenMemory(t.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { database.Close(db) })
	store := gateway.NewStore(db)
	return NewAgent(db, store, "", ""), store
}

func TestAsk_WithoutKey(t *testing.T) {
	a, _ := newTestAgent(t)
	if _, err := a.Ask(context.Background(), "how much cash yesterday?"); !errors.Is(err, ErrNoAPIKey) {
		t.Fatalf("Ask = %v, want ErrNoAPIKey", err)
	}
}

func TestExecuteTools(t *testing.T) {
	a, store := newTestAgent(t)
	ctx := context.Background()
	sheet := reconcile.Sheet{
		GrossReceipts: "500",
		Expenses:      reconcile.Expenses{Supplier: []reconcile.ExpenseItem{{Name: "Sotugat", Amount: "100", Documents: []string{"data:image/png;base64,AAAA"}}}},
		Photos:        []string{"data:image/png;base64,AAAA"},
	}
	if err := store.Save(ctx, "2026-10-01", sheet); err != nil {
		t.Fatal(err)
	}
	if err := store.Lock(ctx, "2026-10-01"); err != nil {
		t.Fatal(err)
	}

	out := a.execute(ctx, genai.FunctionCall{Name: "get_day_summary", Args: map[string]interface{}{"date": "2026-10-01"}})
	raw, ok := out["result"].(string)
	if !ok {
		t.Fatalf("day summary = %v", out)
	}
	var day DaySummary
	if err := json.Unmarshal([]byte(raw), &day); err != nil {
		t.Fatal(err)
	}
	if !day.Locked || day.Summary.Balance.Cash != 400 {
		t.Errorf("day = %+v", day)
	}
	if strings.Contains(raw, "base64") {
		t.Error("attachments leaked to the model")
	}

	out = a.execute(ctx, genai.FunctionCall{Name: "get_range_summary", Args: map[string]interface{}{
		"start_date": "2026-10-31", "end_date": "2026-10-01",
	}})
	if raw, _ := out["result"].(string); !strings.Contains(raw, `"name":"Sotugat"`) {
		t.Errorf("range summary = %v", out)
	}

	out = a.execute(ctx, genai.FunctionCall{Name: "get_saved_totals", Args: map[string]interface{}{
		"start_date": "2026-10-01", "end_date": "2026-10-31",
	}})
	if raw, _ := out["result"].(string); !strings.Contains(raw, `"sessions":1`) {
		t.Errorf("saved totals = %v", out)
	}

	out = a.execute(ctx, genai.FunctionCall{Name: "get_lock_status", Args: map[string]interface{}{"date": "13/10/2026"}})
	if _, ok := out["error"]; !ok {
		t.Errorf("bad date accepted: %v", out)
	}

	out = a.execute(ctx, genai.FunctionCall{Name: "drop_tables"})
	if _, ok := out["error"]; !ok {
		t.Errorf("unknown tool accepted: %v", out)
	}
}
