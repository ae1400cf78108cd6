package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	domainerrors "github.com/zichdan/paycore/internal/domain/errors"
	"github.com/zichdan/paycore/internal/interfaces/http/middleware"
	"github.com/zichdan/paycore/internal/interfaces/http/response"
	"github.com/zichdan/paycore/internal/usecases"
)

// WithdrawalHandler handles bank withdrawal endpoints
type WithdrawalHandler struct {
	withdrawals *usecases.WithdrawalUsecase
}

// NewWithdrawalHandler creates a new withdrawal handler
func NewWithdrawalHandler(withdrawals *usecases.WithdrawalUsecase) *WithdrawalHandler {
	return &WithdrawalHandler{withdrawals: withdrawals}
}

// ListBanks lists supported banks for a currency
// GET /api/v1/withdrawals/banks
func (h *WithdrawalHandler) ListBanks(c *gin.Context) {
	currency := c.DefaultQuery("currency", "NGN")

	banks, err := h.withdrawals.GetBanks(c.Request.Context(), currency)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"banks": banks})
}

type verifyAccountRequest struct {
	AccountNumber string `json:"accountNumber" binding:"required"`
	BankCode      string `json:"bankCode" binding:"required"`
}

// VerifyAccount resolves an account number to its holder name
// POST /api/v1/withdrawals/verify-account
func (h *WithdrawalHandler) VerifyAccount(c *gin.Context) {
	var req verifyAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	info, err := h.withdrawals.VerifyAccount(c.Request.Context(), req.AccountNumber, req.BankCode)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"account": info})
}

// Withdraw moves wallet funds to a bank account
// POST /api/v1/withdrawals
func (h *WithdrawalHandler) Withdraw(c *gin.Context) {
	var input usecases.WithdrawInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("User not authenticated"))
		return
	}

	txn, err := h.withdrawals.Withdraw(c.Request.Context(), userID, input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"message":     "Withdrawal initiated",
		"transaction": txn,
	})
}

// VerifyWithdrawal re-checks a processing withdrawal with the provider
// POST /api/v1/withdrawals/:reference/verify
func (h *WithdrawalHandler) VerifyWithdrawal(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("User not authenticated"))
		return
	}

	txn, err := h.withdrawals.VerifyWithdrawal(c.Request.Context(), userID, c.Param("reference"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"transaction": txn})
}
