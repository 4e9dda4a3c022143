package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"bey-cash/internal/reconcile"
	"bey-cash/internal/workspace"

	"github.com/gin-gonic/gin"
)

// MaxUpload bounds a photo or scanned document.
const MaxUpload = 5 << 20

type valueRequest struct {
	Value string `json:"value"`
}

type openRequest struct {
	Date string `json:"date"`
}

// respond answers with the workspace state and the notices raised meanwhile.
func respond(c *gin.Context, status int, e *workspace.Editor, rec *workspace.Recorder, extra gin.H) {
	body := gin.H{"workspace": e.View(), "notices": rec.Drain()}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(status, body)
}

// respondErr is respond for a failed action: the error joins the body.
func respondErr(c *gin.Context, e *workspace.Editor, rec *workspace.Recorder, err error) {
	status := statusOf(err)
	msg := err.Error()
	if status == http.StatusLocked {
		msg = workspace.LockedNotice
	}
	respond(c, status, e, rec, gin.H{"error": msg})
}

// mutate runs fn on the caller's editor and writes the outcome.
func (h *Handler) mutate(c *gin.Context, fn func(e *workspace.Editor) error) {
	e, rec := h.Workspaces.Get(currentUser(c))
	if err := fn(e); err != nil {
		respondErr(c, e, rec, err)
		return
	}
	respond(c, http.StatusOK, e, rec, nil)
}

// --- GET: /api/workspace ---
func (h *Handler) GetWorkspace(c *gin.Context) {
	e, rec := h.Workspaces.Get(currentUser(c))
	respond(c, http.StatusOK, e, rec, nil)
}

// --- POST: /api/workspace/open ---
// Without a date the workspace opens today.
func (h *Handler) OpenDay(c *gin.Context) {
	var req openRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, "Invalid input")
		return
	}
	if req.Date == "" {
		req.Date = time.Now().Format(reconcile.DateLayout)
	}
	if err := reconcile.ValidateDate(req.Date); err != nil {
		badRequest(c, "Date must be YYYY-MM-DD")
		return
	}
	h.mutate(c, func(e *workspace.Editor) error {
		return e.Open(c.Request.Context(), req.Date)
	})
}

// --- POST: /api/workspace/refresh ---
func (h *Handler) RefreshDay(c *gin.Context) {
	h.mutate(c, func(e *workspace.Editor) error {
		return e.Refresh(c.Request.Context())
	})
}

// --- GET: /api/workspace/lock ---
func (h *Handler) CheckWorkspaceLock(c *gin.Context) {
	e, rec := h.Workspaces.Get(currentUser(c))
	locked, err := e.CheckLock(c.Request.Context())
	if err != nil {
		respondErr(c, e, rec, err)
		return
	}
	respond(c, http.StatusOK, e, rec, gin.H{"locked": locked})
}

// --- PUT: /api/workspace/receipts ---
func (h *Handler) SetReceipts(c *gin.Context) {
	var req valueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid input")
		return
	}
	h.mutate(c, func(e *workspace.Editor) error {
		return e.SetGrossReceipts(req.Value)
	})
}

// --- PUT: /api/workspace/payments/:field ---
func (h *Handler) SetPayment(c *gin.Context) {
	field := reconcile.PaymentField(c.Param("field"))
	switch field {
	case reconcile.PaymentCard1, reconcile.PaymentCard2, reconcile.PaymentCheck, reconcile.PaymentMealTickets, reconcile.PaymentCash:
	default:
		badRequest(c, "Unknown payment method "+string(field))
		return
	}
	var req valueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid input")
		return
	}
	h.mutate(c, func(e *workspace.Editor) error {
		return e.SetPayment(field, req.Value)
	})
}

// --- POST: /api/workspace/expenses/:kind ---
func (h *Handler) AddExpense(c *gin.Context) {
	kind, ok := expenseKindParam(c)
	if !ok {
		return
	}
	var item reconcile.ExpenseItem
	if err := c.ShouldBindJSON(&item); err != nil {
		badRequest(c, "Invalid expense line")
		return
	}
	h.mutate(c, func(e *workspace.Editor) error {
		return e.AddExpense(kind, item)
	})
}

// --- PUT: /api/workspace/expenses/:kind/:index ---
func (h *Handler) UpdateExpense(c *gin.Context) {
	kind, ok := expenseKindParam(c)
	if !ok {
		return
	}
	index, ok := indexParam(c)
	if !ok {
		return
	}
	var item reconcile.ExpenseItem
	if err := c.ShouldBindJSON(&item); err != nil {
		badRequest(c, "Invalid expense line")
		return
	}
	h.mutate(c, func(e *workspace.Editor) error {
		return e.UpdateExpense(kind, index, item)
	})
}

// --- DELETE: /api/workspace/expenses/:kind/:index ---
// Removing a line paid from invoicing unpays the invoice first.
func (h *Handler) RemoveExpense(c *gin.Context) {
	kind, ok := expenseKindParam(c)
	if !ok {
		return
	}
	index, ok := indexParam(c)
	if !ok {
		return
	}
	h.mutate(c, func(e *workspace.Editor) error {
		return e.RemoveExpense(c.Request.Context(), kind, index)
	})
}

// --- POST: /api/workspace/expenses/:kind/:index/withholding ---
func (h *Handler) ToggleWithholding(c *gin.Context) {
	kind, ok := expenseKindParam(c)
	if !ok {
		return
	}
	index, ok := indexParam(c)
	if !ok {
		return
	}
	h.mutate(c, func(e *workspace.Editor) error {
		return e.ToggleWithholding(kind, index)
	})
}

// --- POST: /api/workspace/expenses/:kind/:index/documents ---
func (h *Handler) AttachDocument(c *gin.Context) {
	kind, ok := expenseKindParam(c)
	if !ok {
		return
	}
	index, ok := indexParam(c)
	if !ok {
		return
	}
	data, ok := readUpload(c)
	if !ok {
		return
	}
	h.mutate(c, func(e *workspace.Editor) error {
		return e.AttachDocument(kind, index, data)
	})
}

// --- POST: /api/workspace/offers ---
func (h *Handler) AddOffer(c *gin.Context) {
	var offer reconcile.Offer
	if err := c.ShouldBindJSON(&offer); err != nil {
		badRequest(c, "Invalid offer")
		return
	}
	h.mutate(c, func(e *workspace.Editor) error {
		return e.AddOffer(offer)
	})
}

// --- DELETE: /api/workspace/offers/:index ---
func (h *Handler) RemoveOffer(c *gin.Context) {
	index, ok := indexParam(c)
	if !ok {
		return
	}
	h.mutate(c, func(e *workspace.Editor) error {
		return e.RemoveOffer(index)
	})
}

// --- POST: /api/workspace/photos ---
func (h *Handler) AttachPhoto(c *gin.Context) {
	data, ok := readUpload(c)
	if !ok {
		return
	}
	h.mutate(c, func(e *workspace.Editor) error {
		return e.AttachPhoto(data)
	})
}

// --- DELETE: /api/workspace/photos/:index ---
func (h *Handler) RemovePhoto(c *gin.Context) {
	index, ok := indexParam(c)
	if !ok {
		return
	}
	h.mutate(c, func(e *workspace.Editor) error {
		return e.RemovePhoto(index)
	})
}

// readUpload reads the multipart "file" field.
func readUpload(c *gin.Context) ([]byte, bool) {
	fh, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "No file uploaded")
		return nil, false
	}
	if fh.Size > MaxUpload {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File is larger than 5 MB"})
		return nil, false
	}
	f, err := fh.Open()
	if err != nil {
		badRequest(c, "Unreadable file")
		return nil, false
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, MaxUpload))
	if err != nil {
		badRequest(c, "Unreadable file")
		return nil, false
	}
	return data, true
}

// --- POST: /api/workspace/payroll/:kind ---
func (h *Handler) AddPayroll(c *gin.Context) {
	kind, ok := payrollKindParam(c)
	if !ok {
		return
	}
	var entry reconcile.PayrollEntry
	if err := c.ShouldBindJSON(&entry); err != nil {
		badRequest(c, "Invalid payroll entry")
		return
	}
	e, rec := h.Workspaces.Get(currentUser(c))
	created, err := e.AddPayroll(c.Request.Context(), kind, entry)
	if err != nil {
		respondErr(c, e, rec, err)
		return
	}
	respond(c, http.StatusCreated, e, rec, gin.H{"entry": created})
}

// --- PUT: /api/workspace/payroll/:kind/:id ---
func (h *Handler) ReplacePayroll(c *gin.Context) {
	kind, ok := payrollKindParam(c)
	if !ok {
		return
	}
	var entry reconcile.PayrollEntry
	if err := c.ShouldBindJSON(&entry); err != nil {
		badRequest(c, "Invalid payroll entry")
		return
	}
	e, rec := h.Workspaces.Get(currentUser(c))
	created, err := e.ReplacePayroll(c.Request.Context(), kind, c.Param("id"), entry)
	if err != nil {
		respondErr(c, e, rec, err)
		return
	}
	respond(c, http.StatusOK, e, rec, gin.H{"entry": created})
}

// --- DELETE: /api/workspace/payroll/:kind/:id ---
func (h *Handler) DeletePayroll(c *gin.Context) {
	kind, ok := payrollKindParam(c)
	if !ok {
		return
	}
	h.mutate(c, func(e *workspace.Editor) error {
		return e.DeletePayroll(c.Request.Context(), kind, c.Param("id"))
	})
}

// --- POST: /api/workspace/save ---
func (h *Handler) SaveDay(c *gin.Context) {
	h.mutate(c, func(e *workspace.Editor) error {
		return e.Save(c.Request.Context())
	})
}

// --- POST: /api/workspace/unlock (admin) ---
func (h *Handler) UnlockDay(c *gin.Context) {
	h.mutate(c, func(e *workspace.Editor) error {
		return e.Unlock(c.Request.Context())
	})
}
