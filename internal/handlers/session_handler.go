package handlers

import (
	"fmt"
	"net/http"

	"bey-cash/internal/reconcile"
	"bey-cash/internal/report"

	"github.com/gin-gonic/gin"
)

// SessionResponse is a stored day with its totals.
type SessionResponse struct {
	reconcile.Day
	Summary reconcile.Summary `json:"summary"`
}

func newSessionResponse(date string, day *reconcile.Day) SessionResponse {
	if day == nil {
		day = &reconcile.Day{Date: date}
	}
	return SessionResponse{Day: *day, Summary: reconcile.Summarize(day.Sheet, day.Payroll)}
}

// --- GET: /api/sessions/:date ---
func (h *Handler) GetSession(c *gin.Context) {
	date, ok := dateParam(c)
	if !ok {
		return
	}
	day, err := h.Store.Load(c.Request.Context(), date)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newSessionResponse(date, day))
}

// --- PUT: /api/sessions/:date ---
// Writes a whole sheet at once. Locked days answer 423.
func (h *Handler) PutSession(c *gin.Context) {
	date, ok := dateParam(c)
	if !ok {
		return
	}
	var sheet reconcile.Sheet
	if err := c.ShouldBindJSON(&sheet); err != nil {
		badRequest(c, "Invalid sheet")
		return
	}
	ctx := c.Request.Context()
	if err := h.Store.Save(ctx, date, sheet); err != nil {
		fail(c, err)
		return
	}
	day, err := h.Store.Load(ctx, date)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newSessionResponse(date, day))
}

// --- GET: /api/sessions/:date/lock ---
func (h *Handler) GetLockStatus(c *gin.Context) {
	date, ok := dateParam(c)
	if !ok {
		return
	}
	locked, err := h.Store.LockStatus(c.Request.Context(), date)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": date, "locked": locked})
}

// --- POST: /api/sessions/:date/lock (admin) ---
func (h *Handler) LockSession(c *gin.Context) {
	date, ok := dateParam(c)
	if !ok {
		return
	}
	if err := h.Store.Lock(c.Request.Context(), date); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": date, "locked": true})
}

// --- POST: /api/sessions/:date/unlock (admin) ---
func (h *Handler) UnlockSession(c *gin.Context) {
	date, ok := dateParam(c)
	if !ok {
		return
	}
	if err := h.Store.Unlock(c.Request.Context(), date); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": date, "locked": false})
}

// --- GET: /api/sessions/:date/report.pdf ---
func (h *Handler) SessionReport(c *gin.Context) {
	date, ok := dateParam(c)
	if !ok {
		return
	}
	day, err := h.Store.Load(c.Request.Context(), date)
	if err != nil {
		fail(c, err)
		return
	}
	if day == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Nothing recorded for " + date})
		return
	}

	out, err := report.DailyPDF(h.Report, *day)
	if err != nil {
		fail(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=\"cash_%s.pdf\"", date))
	c.Data(http.StatusOK, "application/pdf", out)
}

// --- GET: /api/payroll/:date ---
func (h *Handler) ListPayroll(c *gin.Context) {
	date, ok := dateParam(c)
	if !ok {
		return
	}
	payroll, err := h.Store.ListPayroll(c.Request.Context(), date)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"date":    date,
		"payroll": payroll,
		"totals":  reconcile.ComputeTotals(reconcile.Expenses{}, payroll).Payroll,
	})
}
