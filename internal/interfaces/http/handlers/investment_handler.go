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

// InvestmentHandler handles investment endpoints
type InvestmentHandler struct {
	investments *usecases.InvestmentUsecase
}

// NewInvestmentHandler creates a new investment handler
func NewInvestmentHandler(investments *usecases.InvestmentUsecase) *InvestmentHandler {
	return &InvestmentHandler{investments: investments}
}

// ListProducts lists active investment products
// GET /api/v1/investments/products
func (h *InvestmentHandler) ListProducts(c *gin.Context) {
	products, err := h.investments.ListProducts(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	if products == nil {
		products = []*entities.InvestmentProduct{}
	}

	response.Success(c, http.StatusOK, gin.H{"products": products})
}

// CreateInvestment opens a new investment position
// POST /api/v1/investments
func (h *InvestmentHandler) CreateInvestment(c *gin.Context) {
	var input entities.CreateInvestmentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("User not authenticated"))
		return
	}

	investment, err := h.investments.Create(c.Request.Context(), userID, input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"message":    "Investment created",
		"investment": investment,
	})
}

// GetInvestment returns an investment with its payout schedule
// GET /api/v1/investments/:id
func (h *InvestmentHandler) GetInvestment(c *gin.Context) {
	investmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("Invalid investment ID"))
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("User not authenticated"))
		return
	}

	investment, returns, err := h.investments.Get(c.Request.Context(), userID, investmentID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"investment": investment,
		"returns":    returns,
	})
}

// ListInvestments lists the caller's investments
// GET /api/v1/investments
func (h *InvestmentHandler) ListInvestments(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("User not authenticated"))
		return
	}

	investments, err := h.investments.List(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	if investments == nil {
		investments = []*entities.Investment{}
	}

	response.Success(c, http.StatusOK, gin.H{"investments": investments})
}

// GetPortfolio returns aggregate investment counters for the caller
// GET /api/v1/investments/portfolio
func (h *InvestmentHandler) GetPortfolio(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("User not authenticated"))
		return
	}

	portfolio, err := h.investments.Portfolio(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"portfolio": portfolio})
}

// Liquidate exits an investment before maturity
// POST /api/v1/investments/:id/liquidate
func (h *InvestmentHandler) Liquidate(c *gin.Context) {
	investmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("Invalid investment ID"))
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("User not authenticated"))
		return
	}

	investment, err := h.investments.Liquidate(c.Request.Context(), userID, investmentID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"message":    "Investment liquidated",
		"investment": investment,
	})
}

// Renew rolls a matured investment into a new position
// POST /api/v1/investments/:id/renew
func (h *InvestmentHandler) Renew(c *gin.Context) {
	investmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("Invalid investment ID"))
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("User not authenticated"))
		return
	}

	renewed, err := h.investments.Renew(c.Request.Context(), userID, investmentID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"message":    "Investment renewed",
		"investment": renewed,
	})
}
