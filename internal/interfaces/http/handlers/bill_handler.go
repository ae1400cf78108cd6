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

// BillHandler handles bill payment endpoints
type BillHandler struct {
	bills *usecases.BillUsecase
}

// NewBillHandler creates a new bill handler
func NewBillHandler(bills *usecases.BillUsecase) *BillHandler {
	return &BillHandler{bills: bills}
}

// ListProviders lists active bill providers
// GET /api/v1/bills/providers
func (h *BillHandler) ListProviders(c *gin.Context) {
	providers, err := h.bills.ListProviders(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	if providers == nil {
		providers = []*entities.BillProvider{}
	}

	response.Success(c, http.StatusOK, gin.H{"providers": providers})
}

// ListPackages lists packages for a bill provider
// GET /api/v1/bills/providers/:code/packages
func (h *BillHandler) ListPackages(c *gin.Context) {
	packages, err := h.bills.ListPackages(c.Request.Context(), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}

	if packages == nil {
		packages = []*entities.BillPackage{}
	}

	response.Success(c, http.StatusOK, gin.H{"packages": packages})
}

type validateCustomerRequest struct {
	ProviderCode string `json:"providerCode" binding:"required"`
	CustomerID   string `json:"customerId" binding:"required"`
}

// ValidateCustomer resolves a customer id with the provider
// POST /api/v1/bills/validate
func (h *BillHandler) ValidateCustomer(c *gin.Context) {
	var req validateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	info, err := h.bills.ValidateCustomer(c.Request.Context(), req.ProviderCode, req.CustomerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"customer": info})
}

// PayBill pays a bill from a wallet
// POST /api/v1/bills/pay
func (h *BillHandler) PayBill(c *gin.Context) {
	var input entities.PayBillInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("User not authenticated"))
		return
	}

	payment, err := h.bills.Pay(c.Request.Context(), userID, input)
	if err != nil {
		response.Error(c, err)
		return
	}

	status := http.StatusCreated
	if payment.Status == entities.BillStatusFailed {
		status = http.StatusOK
	}

	response.Success(c, status, gin.H{"payment": payment})
}

// GetPayment returns a single bill payment for the caller
// GET /api/v1/bills/payments/:id
func (h *BillHandler) GetPayment(c *gin.Context) {
	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("Invalid payment ID"))
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("User not authenticated"))
		return
	}

	payment, err := h.bills.GetPayment(c.Request.Context(), userID, paymentID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"payment": payment})
}

// ListPayments lists the caller's bill payments
// GET /api/v1/bills/payments
func (h *BillHandler) ListPayments(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("User not authenticated"))
		return
	}

	payments, err := h.bills.ListPayments(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	if payments == nil {
		payments = []*entities.BillPayment{}
	}

	response.Success(c, http.StatusOK, gin.H{"payments": payments})
}

// ListBeneficiaries lists saved bill beneficiaries
// GET /api/v1/bills/beneficiaries
func (h *BillHandler) ListBeneficiaries(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("User not authenticated"))
		return
	}

	beneficiaries, err := h.bills.ListBeneficiaries(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	if beneficiaries == nil {
		beneficiaries = []*entities.BillBeneficiary{}
	}

	response.Success(c, http.StatusOK, gin.H{"beneficiaries": beneficiaries})
}

// DeleteBeneficiary removes a saved beneficiary
// DELETE /api/v1/bills/beneficiaries/:id
func (h *BillHandler) DeleteBeneficiary(c *gin.Context) {
	beneficiaryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("Invalid beneficiary ID"))
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("User not authenticated"))
		return
	}

	if err := h.bills.DeleteBeneficiary(c.Request.Context(), userID, beneficiaryID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Beneficiary removed"})
}
