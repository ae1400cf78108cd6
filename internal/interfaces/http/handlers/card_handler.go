package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/zichdan/paycore/internal/domain/entities"
	domainerrors "github.com/zichdan/paycore/internal/domain/errors"
	"github.com/zichdan/paycore/internal/interfaces/http/middleware"
	"github.com/zichdan/paycore/internal/interfaces/http/response"
	"github.com/zichdan/paycore/internal/usecases"
)

// WebhookSignatureHeader carries the provider's payload signature
const WebhookSignatureHeader = "X-Webhook-Signature"

// CardHandler handles card endpoints and provider webhooks
type CardHandler struct {
	cards *usecases.CardUsecase
}

// NewCardHandler creates a new card handler
func NewCardHandler(cards *usecases.CardUsecase) *CardHandler {
	return &CardHandler{cards: cards}
}

// IssueCard issues a new card against a wallet
// POST /api/v1/cards
func (h *CardHandler) IssueCard(c *gin.Context) {
	var input entities.CreateCardInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("User not authenticated"))
		return
	}

	card, err := h.cards.Issue(c.Request.Context(), userID, input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"message": "Card issued",
		"card":    card,
	})
}

// ListCards lists the caller's cards
// GET /api/v1/cards
func (h *CardHandler) ListCards(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("User not authenticated"))
		return
	}

	cards, err := h.cards.List(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	if cards == nil {
		cards = []*entities.Card{}
	}

	response.Success(c, http.StatusOK, gin.H{"cards": cards})
}

// GetCard returns a single card owned by the caller
// GET /api/v1/cards/:id
func (h *CardHandler) GetCard(c *gin.Context) {
	cardID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("Invalid card ID"))
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("User not authenticated"))
		return
	}

	card, err := h.cards.Get(c.Request.Context(), userID, cardID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"card": card})
}

// FreezeCard blocks new authorizations on the card
// POST /api/v1/cards/:id/freeze
func (h *CardHandler) FreezeCard(c *gin.Context) {
	cardID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("Invalid card ID"))
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("User not authenticated"))
		return
	}

	card, err := h.cards.Freeze(c.Request.Context(), userID, cardID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"message": "Card frozen",
		"card":    card,
	})
}

// UnfreezeCard re-enables authorizations on the card
// POST /api/v1/cards/:id/unfreeze
func (h *CardHandler) UnfreezeCard(c *gin.Context) {
	cardID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("Invalid card ID"))
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("User not authenticated"))
		return
	}

	card, err := h.cards.Unfreeze(c.Request.Context(), userID, cardID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"message": "Card unfrozen",
		"card":    card,
	})
}

// TerminateCard permanently closes the card
// DELETE /api/v1/cards/:id
func (h *CardHandler) TerminateCard(c *gin.Context) {
	cardID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("Invalid card ID"))
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("User not authenticated"))
		return
	}

	if err := h.cards.Terminate(c.Request.Context(), userID, cardID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Card terminated"})
}

// HandleWebhook ingests card settlement events from a provider. A
// replayed event returns 200 so providers stop retrying.
// POST /api/v1/webhooks/cards/:provider
func (h *CardHandler) HandleWebhook(c *gin.Context) {
	provider := entities.CardProviderName(c.Param("provider"))

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.Error(c, domainerrors.BadRequest("Unreadable payload"))
		return
	}

	signature := c.GetHeader(WebhookSignatureHeader)
	if signature == "" {
		// Flutterwave uses its own header name
		signature = c.GetHeader("verif-hash")
	}

	if err := h.cards.HandleWebhook(c.Request.Context(), provider, body, signature); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"status": "ok"})
}
