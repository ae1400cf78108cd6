package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/zichdan/paycore/internal/domain/entities"
	domainerrors "github.com/zichdan/paycore/internal/domain/errors"
	"github.com/zichdan/paycore/internal/interfaces/http/middleware"
	"github.com/zichdan/paycore/internal/interfaces/http/response"
	"github.com/zichdan/paycore/internal/usecases"
)

// KYCHandler handles identity verification endpoints
type KYCHandler struct {
	compliance *usecases.ComplianceUsecase
}

// NewKYCHandler creates a new KYC handler
func NewKYCHandler(compliance *usecases.ComplianceUsecase) *KYCHandler {
	return &KYCHandler{compliance: compliance}
}

type submitKYCRequest struct {
	Level entities.KYCLevel `json:"level" binding:"required"`
}

// SubmitKYC records a pending verification for review
// POST /api/v1/kyc
func (h *KYCHandler) SubmitKYC(c *gin.Context) {
	var req submitKYCRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("User not authenticated"))
		return
	}

	verification, err := h.compliance.SubmitKYC(c.Request.Context(), userID, req.Level)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"message":      "Verification submitted for review",
		"verification": verification,
	})
}

// GetStatus returns the caller's current verification standing
// GET /api/v1/kyc/status
func (h *KYCHandler) GetStatus(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("User not authenticated"))
		return
	}

	for _, level := range []entities.KYCLevel{entities.KYCTier3, entities.KYCTier2, entities.KYCTier1} {
		approved, err := h.compliance.HasApprovedKYC(c.Request.Context(), userID, level)
		if err != nil {
			response.Error(c, err)
			return
		}
		if approved {
			response.Success(c, http.StatusOK, gin.H{
				"verified": true,
				"level":    level,
			})
			return
		}
	}

	response.Success(c, http.StatusOK, gin.H{"verified": false})
}

type approveKYCRequest struct {
	ExpiresAt *time.Time `json:"expiresAt"`
}

// ApproveKYC approves a pending verification, admin only
// POST /api/v1/admin/kyc/:id/approve
func (h *KYCHandler) ApproveKYC(c *gin.Context) {
	verificationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("Invalid verification ID"))
		return
	}

	var req approveKYCRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	verification, err := h.compliance.GetVerification(c.Request.Context(), verificationID)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.compliance.ApproveKYC(c.Request.Context(), verification, req.ExpiresAt); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"message":      "Verification approved",
		"verification": verification,
	})
}

type rejectKYCRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// RejectKYC rejects a pending verification, admin only
// POST /api/v1/admin/kyc/:id/reject
func (h *KYCHandler) RejectKYC(c *gin.Context) {
	verificationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("Invalid verification ID"))
		return
	}

	var req rejectKYCRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	verification, err := h.compliance.GetVerification(c.Request.Context(), verificationID)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.compliance.RejectKYC(c.Request.Context(), verification, req.Reason); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"message":      "Verification rejected",
		"verification": verification,
	})
}
