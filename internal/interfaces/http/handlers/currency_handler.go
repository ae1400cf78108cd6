package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zichdan/paycore/internal/domain/entities"
	domainRepos "github.com/zichdan/paycore/internal/domain/repositories"
	"github.com/zichdan/paycore/internal/interfaces/http/response"
)

// CurrencyHandler serves currency reference data
type CurrencyHandler struct {
	currencyRepo domainRepos.CurrencyRepository
}

// NewCurrencyHandler creates a new currency handler
func NewCurrencyHandler(currencyRepo domainRepos.CurrencyRepository) *CurrencyHandler {
	return &CurrencyHandler{currencyRepo: currencyRepo}
}

// ListCurrencies lists active currencies, public
// GET /api/v1/currencies
func (h *CurrencyHandler) ListCurrencies(c *gin.Context) {
	currencies, err := h.currencyRepo.ListActive(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	if currencies == nil {
		currencies = []*entities.Currency{}
	}

	response.Success(c, http.StatusOK, gin.H{"currencies": currencies})
}
