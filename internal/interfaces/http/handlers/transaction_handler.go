package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/zichdan/paycore/internal/domain/entities"
	domainerrors "github.com/zichdan/paycore/internal/domain/errors"
	"github.com/zichdan/paycore/internal/interfaces/http/middleware"
	"github.com/zichdan/paycore/internal/interfaces/http/response"
	"github.com/zichdan/paycore/internal/usecases"
	"github.com/zichdan/paycore/pkg/utils"
)

// TransactionHandler handles transaction history endpoints
type TransactionHandler struct {
	txns *usecases.TransactionUsecase
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(txns *usecases.TransactionUsecase) *TransactionHandler {
	return &TransactionHandler{txns: txns}
}

// ListTransactions lists the caller's transactions with filters
// GET /api/v1/transactions
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("User not authenticated"))
		return
	}

	var filter entities.TransactionFilter
	if t := c.Query("type"); t != "" {
		filter.Type = entities.TransactionType(t)
	}
	if s := c.Query("status"); s != "" {
		filter.Status = entities.TransactionStatus(s)
	}
	if w := c.Query("walletId"); w != "" {
		id, err := uuid.Parse(w)
		if err != nil {
			response.Error(c, domainerrors.BadRequest("Invalid wallet ID"))
			return
		}
		filter.WalletID = &id
	}
	if s := c.Query("startDate"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			response.Error(c, domainerrors.BadRequest("Invalid startDate, use RFC3339"))
			return
		}
		filter.StartDate = &t
	}
	if e := c.Query("endDate"); e != "" {
		t, err := time.Parse(time.RFC3339, e)
		if err != nil {
			response.Error(c, domainerrors.BadRequest("Invalid endDate, use RFC3339"))
			return
		}
		filter.EndDate = &t
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	params := utils.GetPaginationParams(page, limit)

	txns, meta, err := h.txns.List(c.Request.Context(), userID, filter, params)
	if err != nil {
		response.Error(c, err)
		return
	}

	if txns == nil {
		txns = []*entities.Transaction{}
	}

	response.Success(c, http.StatusOK, gin.H{
		"transactions": txns,
		"pagination":   meta,
	})
}

// GetTransaction returns a single transaction visible to the caller
// GET /api/v1/transactions/:id
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	txnID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("Invalid transaction ID"))
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("User not authenticated"))
		return
	}

	txn, err := h.txns.Get(c.Request.Context(), userID, txnID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"transaction": txn})
}

// GetStats aggregates the caller's transaction volumes by type
// GET /api/v1/transactions/stats
func (h *TransactionHandler) GetStats(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("User not authenticated"))
		return
	}

	stats, err := h.txns.Stats(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	if stats == nil {
		stats = []entities.TransactionStats{}
	}

	response.Success(c, http.StatusOK, gin.H{"stats": stats})
}

type reverseRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// ReverseTransaction reverses a completed transfer within the window
// POST /api/v1/transactions/:id/reverse
func (h *TransactionHandler) ReverseTransaction(c *gin.Context) {
	txnID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("Invalid transaction ID"))
		return
	}

	var req reverseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("User not authenticated"))
		return
	}

	reversal, err := h.txns.Reverse(c.Request.Context(), userID, txnID, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"message":  "Transaction reversed",
		"reversal": reversal,
	})
}
