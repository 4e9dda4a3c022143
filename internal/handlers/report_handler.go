package handlers

import (
	"fmt"
	"net/http"
	"time"

	"bey-cash/internal/database"
	"bey-cash/internal/reconcile"
	"bey-cash/internal/report"

	"github.com/gin-gonic/gin"
)

// HistoryResponse is the range view: the aggregation of every day plus the
// totals written on save.
type HistoryResponse struct {
	reconcile.RangeSummary
	Saved *database.RangeTotals `json:"saved"`
}

// rangeQuery reads ?from=&to= or ?month=YYYY-MM. Nothing means the current month.
func rangeQuery(c *gin.Context) (string, string, bool) {
	if month := c.Query("month"); month != "" {
		start, err := time.Parse("2006-01", month)
		if err != nil {
			badRequest(c, "Month must be YYYY-MM")
			return "", "", false
		}
		end := start.AddDate(0, 1, -1)
		return start.Format(reconcile.DateLayout), end.Format(reconcile.DateLayout), true
	}

	from, to := c.Query("from"), c.Query("to")
	if from == "" && to == "" {
		now := time.Now()
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.Local)
		return start.Format(reconcile.DateLayout), start.AddDate(0, 1, -1).Format(reconcile.DateLayout), true
	}
	if reconcile.ValidateDate(from) != nil || reconcile.ValidateDate(to) != nil {
		badRequest(c, "from and to must be YYYY-MM-DD")
		return "", "", false
	}
	if to < from {
		badRequest(c, "to is before from")
		return "", "", false
	}
	return from, to, true
}

func (h *Handler) summarize(c *gin.Context) (reconcile.RangeSummary, bool) {
	from, to, ok := rangeQuery(c)
	if !ok {
		return reconcile.RangeSummary{}, false
	}
	days, err := h.Store.Range(c.Request.Context(), from, to)
	if err != nil {
		fail(c, err)
		return reconcile.RangeSummary{}, false
	}
	return reconcile.SummarizeRange(from, to, days), true
}

// --- GET: /api/history ---
func (h *Handler) GetHistory(c *gin.Context) {
	rs, ok := h.summarize(c)
	if !ok {
		return
	}
	saved, err := database.GetRangeTotals(h.DB.WithContext(c.Request.Context()), rs.From, rs.To)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, HistoryResponse{RangeSummary: rs, Saved: saved})
}

// --- GET: /api/history/export.xlsx ---
func (h *Handler) ExportHistory(c *gin.Context) {
	rs, ok := h.summarize(c)
	if !ok {
		return
	}
	f, err := report.RangeWorkbook(rs)
	if err != nil {
		fail(c, err)
		return
	}
	defer f.Close()

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"history_%s_%s.xlsx\"", rs.From, rs.To))
	if err := f.Write(c.Writer); err != nil {
		fail(c, err)
	}
}
