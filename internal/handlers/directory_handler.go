package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"bey-cash/internal/gateway"
	"bey-cash/internal/models"
	"bey-cash/internal/reconcile"

	"github.com/gin-gonic/gin"
)

type directoryRequest struct {
	Name string `json:"name" binding:"required"`
}

func directoryKindParam(c *gin.Context) (gateway.DirectoryKind, bool) {
	kind, err := gateway.ParseDirectoryKind(c.Param("kind"))
	if err != nil {
		badRequest(c, err.Error())
		return "", false
	}
	return kind, true
}

// --- GET: /api/directories/:kind ---
func (h *Handler) ListDirectory(c *gin.Context) {
	kind, ok := directoryKindParam(c)
	if !ok {
		return
	}
	names, err := h.Store.Directory(c.Request.Context(), kind)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"kind": kind, "names": names})
}

// --- POST: /api/directories/:kind ---
func (h *Handler) AddDirectoryEntry(c *gin.Context) {
	kind, ok := directoryKindParam(c)
	if !ok {
		return
	}
	var req directoryRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		badRequest(c, "Name is required")
		return
	}
	if err := h.Store.UpsertDirectory(c.Request.Context(), kind, req.Name); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"kind": kind, "name": strings.TrimSpace(req.Name)})
}

type invoiceRequest struct {
	Supplier      string `json:"supplier" binding:"required"`
	Number        string `json:"number"`
	Amount        string `json:"amount" binding:"required"`
	Collection    string `json:"collection"`
	DocumentType  string `json:"document_type"`
	PaymentMethod string `json:"payment_method"`
}

type payRequest struct {
	Date          string `json:"date" binding:"required"`
	PaymentMethod string `json:"payment_method"`
}

// --- GET: /api/invoices?paid=true|false ---
func (h *Handler) ListInvoices(c *gin.Context) {
	var paid *bool
	if raw := c.Query("paid"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			badRequest(c, "paid must be true or false")
			return
		}
		paid = &v
	}
	invoices, err := h.Store.ListInvoices(c.Request.Context(), paid)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, invoices)
}

// --- POST: /api/invoices ---
func (h *Handler) CreateInvoice(c *gin.Context) {
	var req invoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Supplier and amount are required")
		return
	}
	inv, err := h.Store.CreateInvoice(c.Request.Context(), models.Invoice{
		Supplier:      req.Supplier,
		Number:        req.Number,
		Amount:        req.Amount,
		Collection:    req.Collection,
		DocumentType:  req.DocumentType,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := h.Store.UpsertDirectory(c.Request.Context(), gateway.DirectorySupplier, inv.Supplier); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, inv)
}

// --- POST: /api/invoices/:id/pay ---
// A paid invoice shows up as an external expense line of the payment day.
func (h *Handler) PayInvoice(c *gin.Context) {
	var req payRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Payment date is required")
		return
	}
	if err := reconcile.ValidateDate(req.Date); err != nil {
		badRequest(c, "Date must be YYYY-MM-DD")
		return
	}
	inv, err := h.Store.PayInvoice(c.Request.Context(), c.Param("id"), req.Date, req.PaymentMethod)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

// --- POST: /api/invoices/:id/unpay ---
func (h *Handler) UnpayInvoice(c *gin.Context) {
	if err := h.Store.UnpayInvoice(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "paid": false})
}
