// Package handlers exposes the cash desk over HTTP.
package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"bey-cash/internal/ai"
	"bey-cash/internal/auth"
	"bey-cash/internal/gateway"
	"bey-cash/internal/reconcile"
	"bey-cash/internal/report"
	"bey-cash/internal/workspace"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// OnlineWindow is how recent a heartbeat must be to count a user as online.
const OnlineWindow = 2 * time.Minute

// Handler carries what the routes need.
type Handler struct {
	DB         *gorm.DB
	Store      *gateway.Store
	Workspaces *workspace.Manager
	Tokens     *auth.Tokens
	Agent      *ai.Agent
	Report     report.Config
}

func currentUser(c *gin.Context) uint {
	return c.GetUint("userID")
}

// statusOf maps the domain errors onto HTTP codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, gateway.ErrLocked):
		return http.StatusLocked
	case errors.Is(err, gateway.ErrNotFound), errors.Is(err, workspace.ErrNoLine):
		return http.StatusNotFound
	case errors.Is(err, workspace.ErrNoDay), errors.Is(err, workspace.ErrStale):
		return http.StatusConflict
	case errors.Is(err, workspace.ErrReadOnly),
		errors.Is(err, workspace.ErrExternalLine),
		errors.Is(err, workspace.ErrTooManyPhotos),
		errors.Is(err, workspace.ErrUnsupportedFile):
		return http.StatusUnprocessableEntity
	case errors.Is(err, workspace.ErrReplaceIncomplete):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// fail writes err with its status. A lock violation carries the alert text.
func fail(c *gin.Context, err error) {
	status := statusOf(err)
	msg := err.Error()
	if status == http.StatusLocked {
		msg = workspace.LockedNotice
	}
	if status == http.StatusInternalServerError {
		log.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, gin.H{"error": msg})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// dateParam reads and checks the :date path parameter.
func dateParam(c *gin.Context) (string, bool) {
	date := c.Param("date")
	if err := reconcile.ValidateDate(date); err != nil {
		badRequest(c, "Date must be YYYY-MM-DD")
		return "", false
	}
	return date, true
}

func indexParam(c *gin.Context) (int, bool) {
	i, err := strconv.Atoi(c.Param("index"))
	if err != nil || i < 0 {
		badRequest(c, "Index must be a non-negative integer")
		return 0, false
	}
	return i, true
}

func expenseKindParam(c *gin.Context) (reconcile.ExpenseKind, bool) {
	kind, err := reconcile.ParseExpenseKind(c.Param("kind"))
	if err != nil {
		badRequest(c, err.Error())
		return "", false
	}
	return kind, true
}

func payrollKindParam(c *gin.Context) (reconcile.PayrollKind, bool) {
	kind, err := reconcile.ParsePayrollKind(c.Param("kind"))
	if err != nil {
		badRequest(c, err.Error())
		return "", false
	}
	return kind, true
}
