package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/zichdan/paycore/internal/domain/entities"
	domainerrors "github.com/zichdan/paycore/internal/domain/errors"
	"github.com/zichdan/paycore/internal/interfaces/http/middleware"
	"github.com/zichdan/paycore/internal/interfaces/http/response"
	"github.com/zichdan/paycore/internal/usecases"
)

// MerchantHandler handles payment links, invoices and API keys
type MerchantHandler struct {
	merchants *usecases.MerchantUsecase
}

// NewMerchantHandler creates a new merchant handler
func NewMerchantHandler(merchants *usecases.MerchantUsecase) *MerchantHandler {
	return &MerchantHandler{merchants: merchants}
}

// CreatePaymentLink creates a shareable payment link
// POST /api/v1/merchant/links
func (h *MerchantHandler) CreatePaymentLink(c *gin.Context) {
	var input entities.CreatePaymentLinkInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("User not authenticated"))
		return
	}

	link, err := h.merchants.CreateLink(c.Request.Context(), userID, input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"message": "Payment link created",
		"link":    link,
	})
}

// GetPaymentLink resolves a payment link by slug, public
// GET /api/v1/pay/:slug
func (h *MerchantHandler) GetPaymentLink(c *gin.Context) {
	link, err := h.merchants.GetLink(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"link": link})
}

// ListPaymentLinks lists the caller's payment links
// GET /api/v1/merchant/links
func (h *MerchantHandler) ListPaymentLinks(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("User not authenticated"))
		return
	}

	links, err := h.merchants.ListLinks(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	if links == nil {
		links = []*entities.PaymentLink{}
	}

	response.Success(c, http.StatusOK, gin.H{"links": links})
}

// PayPaymentLink pays a payment link from the caller's wallet
// POST /api/v1/pay/:slug
func (h *MerchantHandler) PayPaymentLink(c *gin.Context) {
	var input entities.PayLinkInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("User not authenticated"))
		return
	}

	payment, err := h.merchants.PayLink(c.Request.Context(), userID, c.Param("slug"), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"message": "Payment successful",
		"payment": payment,
	})
}

// CreateInvoice creates a draft invoice
// POST /api/v1/merchant/invoices
func (h *MerchantHandler) CreateInvoice(c *gin.Context) {
	var input entities.CreateInvoiceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("User not authenticated"))
		return
	}

	invoice, err := h.merchants.CreateInvoice(c.Request.Context(), userID, input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"message": "Invoice created",
		"invoice": invoice,
	})
}

// SendInvoice marks a draft invoice as sent
// POST /api/v1/merchant/invoices/:id/send
func (h *MerchantHandler) SendInvoice(c *gin.Context) {
	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("Invalid invoice ID"))
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("User not authenticated"))
		return
	}

	invoice, err := h.merchants.SendInvoice(c.Request.Context(), userID, invoiceID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"message": "Invoice sent",
		"invoice": invoice,
	})
}

// ListInvoices lists the caller's invoices
// GET /api/v1/merchant/invoices
func (h *MerchantHandler) ListInvoices(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("User not authenticated"))
		return
	}

	invoices, err := h.merchants.ListInvoices(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	if invoices == nil {
		invoices = []*entities.Invoice{}
	}

	response.Success(c, http.StatusOK, gin.H{"invoices": invoices})
}

// PayInvoice pays an invoice in full or partially
// POST /api/v1/invoices/:number/pay
func (h *MerchantHandler) PayInvoice(c *gin.Context) {
	var input entities.PayLinkInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("User not authenticated"))
		return
	}

	payment, err := h.merchants.PayInvoice(c.Request.Context(), userID, c.Param("number"), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"message": "Invoice payment successful",
		"payment": payment,
	})
}

type createAPIKeyRequest struct {
	Name string `json:"name" binding:"required"`
}

// CreateAPIKey issues a new merchant API key. The secret is returned
// once and never stored in clear.
// POST /api/v1/merchant/api-keys
func (h *MerchantHandler) CreateAPIKey(c *gin.Context) {
	var req createAPIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("User not authenticated"))
		return
	}

	key, err := h.merchants.CreateAPIKey(c.Request.Context(), userID, req.Name)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"message": "API key created. Store the secret now, it will not be shown again.",
		"apiKey":  key,
	})
}

// ListAPIKeys lists the caller's API keys without secrets
// GET /api/v1/merchant/api-keys
func (h *MerchantHandler) ListAPIKeys(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("User not authenticated"))
		return
	}

	keys, err := h.merchants.ListAPIKeys(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	if keys == nil {
		keys = []*entities.MerchantAPIKey{}
	}

	response.Success(c, http.StatusOK, gin.H{"apiKeys": keys})
}

// RevokeAPIKey revokes a key so it no longer authenticates
// DELETE /api/v1/merchant/api-keys/:id
func (h *MerchantHandler) RevokeAPIKey(c *gin.Context) {
	keyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("Invalid key ID"))
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("User not authenticated"))
		return
	}

	if err := h.merchants.RevokeAPIKey(c.Request.Context(), userID, keyID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "API key revoked"})
}
