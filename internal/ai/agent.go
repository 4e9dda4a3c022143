package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"bey-cash/internal/database"
	"bey-cash/internal/gateway"
	"bey-cash/internal/reconcile"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
	"gorm.io/gorm"
)

// ErrNoAPIKey is returned when the assistant is not configured.
var ErrNoAPIKey = errors.New("server missing Gemini API key")

// maxToolRounds bounds the call/answer exchanges of one question.
const maxToolRounds = 4

// Agent answers admin questions about the cash sheets.
type Agent struct {
	db     *gorm.DB
	store  *gateway.Store
	apiKey string
	model  string
	now    func() time.Time
}

func NewAgent(db *gorm.DB, store *gateway.Store, apiKey, model string) *Agent {
	if model == "" {
		model = "gemini-2.0-flash-001"
	}
	return &Agent{db: db, store: store, apiKey: apiKey, model: model, now: time.Now}
}

var dateRange = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"start_date": {Type: genai.TypeString, Description: "Start date (YYYY-MM-DD)"},
		"end_date":   {Type: genai.TypeString, Description: "End date (YYYY-MM-DD)"},
	},
	Required: []string{"start_date", "end_date"},
}

var singleDate = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"date": {Type: genai.TypeString, Description: "Day (YYYY-MM-DD)"},
	},
	Required: []string{"date"},
}

var tools = []*genai.Tool{
	{
		FunctionDeclarations: []*genai.FunctionDeclaration{
			{
				Name:        "get_day_summary",
				Description: "Get the cash sheet of one day: gross receipts, payments, every expense line, payroll entries, totals and the computed cash.",
				Parameters:  singleDate,
			},
			{
				Name:        "get_range_summary",
				Description: "Aggregate several days: totals per expense and payroll collection, amounts per employee and per supplier, top five of each.",
				Parameters:  dateRange,
			},
			{
				Name:        "get_saved_totals",
				Description: "Fast totals of the saved sessions in a date range: number of sessions, expenses, net receipts and cash.",
				Parameters:  dateRange,
			},
			{
				Name:        "get_lock_status",
				Description: "Tell whether a day is locked (frozen by an admin) or still editable.",
				Parameters:  singleDate,
			},
		},
	},
}

// Ask runs one question through the model, answering its tool calls from the
// database until it replies with text.
func (a *Agent) Ask(ctx context.Context, userMessage string) (string, error) {
	if a.apiKey == "" {
		return "", ErrNoAPIKey
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(a.apiKey))
	if err != nil {
		return "", err
	}
	defer client.Close()

	model := client.GenerativeModel(a.model)
	model.Tools = tools

	today := a.now().Format(reconcile.DateLayout)
	systemPrompt := fmt.Sprintf(`SYSTEM: Today is %s. You are the back-office assistant of a restaurant cash desk.
Amounts are in dinars with three decimals.

RULES:
1. For one day ("yesterday", "on the 12th"), call 'get_day_summary' with that date.
2. For weeks, months or "who got the most advances", call 'get_range_summary'.
3. For a quick total over saved days, 'get_saved_totals' is enough.
4. Before telling someone they can still edit a day, call 'get_lock_status'.
5. Never invent figures: only report numbers a tool returned.

USER: %s`, today, userMessage)

	session := model.StartChat()
	resp, err := session.SendMessage(ctx, genai.Text(systemPrompt))
	if err != nil {
		return "", err
	}

	for round := 0; round < maxToolRounds; round++ {
		calls := functionCalls(resp)
		if len(calls) == 0 {
			return printResponse(resp), nil
		}
		parts := make([]genai.Part, 0, len(calls))
		for _, call := range calls {
			parts = append(parts, genai.FunctionResponse{
				Name:     call.Name,
				Response: a.execute(ctx, call),
			})
		}
		resp, err = session.SendMessage(ctx, parts...)
		if err != nil {
			return "", err
		}
	}
	return printResponse(resp), nil
}

func functionCalls(resp *genai.GenerateContentResponse) []genai.FunctionCall {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil
	}
	var calls []genai.FunctionCall
	for _, part := range resp.Candidates[0].Content.Parts {
		if call, ok := part.(genai.FunctionCall); ok {
			calls = append(calls, call)
		}
	}
	return calls
}

// execute runs one tool call. Failures go back to the model as an "error" field.
func (a *Agent) execute(ctx context.Context, call genai.FunctionCall) map[string]interface{} {
	result, err := a.dispatch(ctx, call)
	if err != nil {
		log.Printf("ai: tool %s failed: %v", call.Name, err)
		return map[string]interface{}{"error": err.Error()}
	}
	b, err := json.Marshal(result)
	if err != nil {
		return map[string]interface{}{"error": err.Error()}
	}
	return map[string]interface{}{"result": string(b)}
}

func (a *Agent) dispatch(ctx context.Context, call genai.FunctionCall) (interface{}, error) {
	switch call.Name {
	case "get_day_summary":
		date, err := dateArg(call.Args, "date")
		if err != nil {
			return nil, err
		}
		return a.daySummary(ctx, date)
	case "get_range_summary":
		from, to, err := rangeArgs(call.Args)
		if err != nil {
			return nil, err
		}
		days, err := a.store.Range(ctx, from, to)
		if err != nil {
			return nil, err
		}
		return reconcile.SummarizeRange(from, to, days), nil
	case "get_saved_totals":
		from, to, err := rangeArgs(call.Args)
		if err != nil {
			return nil, err
		}
		return database.GetRangeTotals(a.db.WithContext(ctx), from, to)
	case "get_lock_status":
		date, err := dateArg(call.Args, "date")
		if err != nil {
			return nil, err
		}
		locked, err := a.store.LockStatus(ctx, date)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"date": date, "locked": locked}, nil
	}
	return nil, fmt.Errorf("unknown tool %q", call.Name)
}

// DaySummary is what the model sees of one day.
type DaySummary struct {
	Date    string            `json:"date"`
	Saved   bool              `json:"saved"`
	Locked  bool              `json:"locked"`
	Sheet   reconcile.Sheet   `json:"sheet"`
	Payroll reconcile.Payroll `json:"payroll"`
	Summary reconcile.Summary `json:"summary"`
}

func (a *Agent) daySummary(ctx context.Context, date string) (*DaySummary, error) {
	day, err := a.store.Load(ctx, date)
	if err != nil {
		return nil, err
	}
	if day == nil {
		return &DaySummary{Date: date, Summary: reconcile.Summarize(reconcile.Sheet{}, reconcile.Payroll{})}, nil
	}
	sheet := day.Sheet.Clone()
	// photos and scans are data URLs, useless to the model
	sheet.Photos = nil
	for _, kind := range reconcile.ExpenseKinds {
		for i := range *sheet.Expenses.List(kind) {
			(*sheet.Expenses.List(kind))[i].Documents = nil
		}
	}
	return &DaySummary{
		Date:    date,
		Saved:   day.Saved,
		Locked:  day.Locked,
		Sheet:   sheet,
		Payroll: day.Payroll,
		Summary: reconcile.Summarize(day.Sheet, day.Payroll),
	}, nil
}

func dateArg(args map[string]interface{}, name string) (string, error) {
	s, ok := args[name].(string)
	if !ok {
		return "", fmt.Errorf("%s is required", name)
	}
	if err := reconcile.ValidateDate(s); err != nil {
		return "", fmt.Errorf("%s: dates must be in YYYY-MM-DD format", name)
	}
	return s, nil
}

func rangeArgs(args map[string]interface{}) (string, string, error) {
	from, err := dateArg(args, "start_date")
	if err != nil {
		return "", "", err
	}
	to, err := dateArg(args, "end_date")
	if err != nil {
		return "", "", err
	}
	if to < from {
		from, to = to, from
	}
	return from, to, nil
}

func printResponse(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "I could not find an answer."
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			return string(txt)
		}
	}
	return "I could not find an answer."
}
