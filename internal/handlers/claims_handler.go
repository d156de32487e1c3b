package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"harbor-backend/internal/auth"
	"harbor-backend/internal/services"
)

// ClaimsHandler handles reward eligibility and claim endpoints
type ClaimsHandler struct {
	rewardsService *services.RewardsService
}

// NewClaimsHandler creates a new ClaimsHandler
func NewClaimsHandler(rewardsService *services.RewardsService) *ClaimsHandler {
	return &ClaimsHandler{rewardsService: rewardsService}
}

// GetEligibility checks the user's eligibility for rewards based on
// their referral count.
// GET /api/claims/eligibility
func (h *ClaimsHandler) GetEligibility(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	eligibility, err := h.rewardsService.CheckEligibility(userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, eligibility)
}

// Claim processes a reward claim for an eligible tier.
// POST /api/claims/claim
func (h *ClaimsHandler) Claim(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req struct {
		TierIndex *int `json:"tierIndex" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tier index"})
		return
	}

	result, err := h.rewardsService.Claim(userID, *req.TierIndex)
	if err != nil {
		var ineligible *services.IneligibleClaimError
		switch {
		case errors.Is(err, services.ErrInvalidTier):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tier index"})
		case errors.As(err, &ineligible):
			c.JSON(http.StatusBadRequest, gin.H{
				"error":    "Not enough referrals for this tier",
				"required": ineligible.Required,
				"current":  ineligible.Current,
			})
		case errors.Is(err, services.ErrTierAlreadyClaimed):
			c.JSON(http.StatusConflict, gin.H{"error": "Tier already claimed"})
		case errors.Is(err, services.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"claimed":  result.Claimed,
		"newTotal": result.NewTotal,
	})
}
