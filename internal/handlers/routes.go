package handlers

import (
	"log"
	"net/http"

	"bey-cash/internal/middleware"
	"bey-cash/internal/models"

	"github.com/gin-gonic/gin"
)

// Routes mounts the API on r.
func (h *Handler) Routes(r *gin.Engine, allowRegistration bool) {
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "online"}) })
	r.POST("/login", h.Login)

	// --- FEATURE FLAG: Registration ---
	if allowRegistration {
		r.POST("/register", h.Register)
		log.Println("⚠️ WARNING: Registration route is OPEN. Disable this in production!")
	} else {
		log.Println("🔒 Registration route is safely DISABLED.")
	}

	// --- PROTECTED ROUTES ---
	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware(h.Tokens))
	{
		api.POST("/logout", h.Logout)
		api.POST("/heartbeat", h.Heartbeat)
		api.GET("/system/status", h.GetSystemStatus)

		api.GET("/sessions/:date", h.GetSession)
		api.PUT("/sessions/:date", h.PutSession)
		api.GET("/sessions/:date/lock", h.GetLockStatus)
		api.GET("/sessions/:date/report.pdf", h.SessionReport)
		api.GET("/payroll/:date", h.ListPayroll)

		ws := api.Group("/workspace")
		ws.GET("", h.GetWorkspace)
		ws.POST("/open", h.OpenDay)
		ws.POST("/refresh", h.RefreshDay)
		ws.GET("/lock", h.CheckWorkspaceLock)
		ws.PUT("/receipts", h.SetReceipts)
		ws.PUT("/payments/:field", h.SetPayment)
		ws.POST("/expenses/:kind", h.AddExpense)
		ws.PUT("/expenses/:kind/:index", h.UpdateExpense)
		ws.DELETE("/expenses/:kind/:index", h.RemoveExpense)
		ws.POST("/expenses/:kind/:index/withholding", h.ToggleWithholding)
		ws.POST("/expenses/:kind/:index/documents", h.AttachDocument)
		ws.POST("/offers", h.AddOffer)
		ws.DELETE("/offers/:index", h.RemoveOffer)
		ws.POST("/photos", h.AttachPhoto)
		ws.DELETE("/photos/:index", h.RemovePhoto)
		ws.POST("/payroll/:kind", h.AddPayroll)
		ws.PUT("/payroll/:kind/:id", h.ReplacePayroll)
		ws.DELETE("/payroll/:kind/:id", h.DeletePayroll)
		ws.POST("/save", h.SaveDay)

		api.GET("/directories/:kind", h.ListDirectory)
		api.POST("/directories/:kind", h.AddDirectoryEntry)

		api.GET("/invoices", h.ListInvoices)
		api.POST("/invoices", h.CreateInvoice)
		api.POST("/invoices/:id/pay", h.PayInvoice)
		api.POST("/invoices/:id/unpay", h.UnpayInvoice)

		api.GET("/history", h.GetHistory)
		api.GET("/history/export.xlsx", h.ExportHistory)

		// ADMIN ONLY
		admin := api.Group("")
		admin.Use(middleware.RequireRole(models.RoleAdmin))
		{
			admin.POST("/sessions/:date/lock", h.LockSession)
			admin.POST("/sessions/:date/unlock", h.UnlockSession)
			admin.POST("/workspace/unlock", h.UnlockDay)
			admin.POST("/ask", h.AskAI)
		}
	}
}
