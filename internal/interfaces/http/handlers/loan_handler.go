package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/zichdan/paycore/internal/domain/entities"
	domainerrors "github.com/zichdan/paycore/internal/domain/errors"
	"github.com/zichdan/paycore/internal/interfaces/http/middleware"
	"github.com/zichdan/paycore/internal/interfaces/http/response"
	"github.com/zichdan/paycore/internal/usecases"
)

// LoanHandler handles loan and credit score endpoints
type LoanHandler struct {
	loans  *usecases.LoanUsecase
	scores *usecases.CreditScoreUsecase
}

// NewLoanHandler creates a new loan handler
func NewLoanHandler(loans *usecases.LoanUsecase, scores *usecases.CreditScoreUsecase) *LoanHandler {
	return &LoanHandler{loans: loans, scores: scores}
}

// ListProducts lists active loan products
// GET /api/v1/loans/products
func (h *LoanHandler) ListProducts(c *gin.Context) {
	products, err := h.loans.ListProducts(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	if products == nil {
		products = []*entities.LoanProduct{}
	}

	response.Success(c, http.StatusOK, gin.H{"products": products})
}

// Apply submits a loan application
// POST /api/v1/loans
func (h *LoanHandler) Apply(c *gin.Context) {
	var input entities.LoanApplicationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("User not authenticated"))
		return
	}

	loan, err := h.loans.Apply(c.Request.Context(), userID, input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"message": "Loan application submitted",
		"loan":    loan,
	})
}

// GetLoan returns a loan with its repayment schedule
// GET /api/v1/loans/:id
func (h *LoanHandler) GetLoan(c *gin.Context) {
	loanID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("Invalid loan ID"))
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("User not authenticated"))
		return
	}

	loan, schedule, err := h.loans.Get(c.Request.Context(), userID, loanID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"loan":     loan,
		"schedule": schedule,
	})
}

// Cancel withdraws a loan application that is still pending review
// POST /api/v1/loans/:id/cancel
func (h *LoanHandler) Cancel(c *gin.Context) {
	loanID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("Invalid loan ID"))
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("User not authenticated"))
		return
	}

	loan, err := h.loans.Cancel(c.Request.Context(), userID, loanID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"message": "Loan application cancelled",
		"loan":    loan,
	})
}

// GetSummary aggregates the caller's borrowing position
// GET /api/v1/loans/summary
func (h *LoanHandler) GetSummary(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("User not authenticated"))
		return
	}

	summary, err := h.loans.Summary(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"summary": summary})
}

type repayRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

// Repay applies a repayment to the next unpaid installment
// POST /api/v1/loans/:id/repay
func (h *LoanHandler) Repay(c *gin.Context) {
	loanID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("Invalid loan ID"))
		return
	}

	var req repayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("User not authenticated"))
		return
	}

	repayment, err := h.loans.Repay(c.Request.Context(), userID, loanID, req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"message":   "Repayment applied",
		"repayment": repayment,
	})
}

// GetCreditScore returns the caller's latest credit score
// GET /api/v1/loans/credit-score
func (h *LoanHandler) GetCreditScore(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("User not authenticated"))
		return
	}

	score, err := h.scores.GetLatest(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"creditScore": score})
}

type approveRequest struct {
	ApprovedAmount *decimal.Decimal `json:"approvedAmount"`
}

// Approve approves a pending application, admin only
// POST /api/v1/admin/loans/:id/approve
func (h *LoanHandler) Approve(c *gin.Context) {
	loanID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("Invalid loan ID"))
		return
	}

	var req approveRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	loan, err := h.loans.Approve(c.Request.Context(), loanID, req.ApprovedAmount)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"message": "Loan approved",
		"loan":    loan,
	})
}

type rejectRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// Reject rejects a pending application, admin only
// POST /api/v1/admin/loans/:id/reject
func (h *LoanHandler) Reject(c *gin.Context) {
	loanID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("Invalid loan ID"))
		return
	}

	var req rejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	loan, err := h.loans.Reject(c.Request.Context(), loanID, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"message": "Loan rejected",
		"loan":    loan,
	})
}

// Disburse credits an approved loan to the borrower's wallet, admin only
// POST /api/v1/admin/loans/:id/disburse
func (h *LoanHandler) Disburse(c *gin.Context) {
	loanID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("Invalid loan ID"))
		return
	}

	loan, err := h.loans.Disburse(c.Request.Context(), loanID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"message": "Loan disbursed",
		"loan":    loan,
	})
}
