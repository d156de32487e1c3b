package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"harbor-backend/internal/auth"
	"harbor-backend/internal/services"
)

// ReferralHandler handles referral code and referral list endpoints
type ReferralHandler struct {
	referralService *services.ReferralService
}

// NewReferralHandler creates a new ReferralHandler
func NewReferralHandler(referralService *services.ReferralService) *ReferralHandler {
	return &ReferralHandler{referralService: referralService}
}

// EnsureReferralCode generates a unique referral code if the user doesn't
// have one already; calling it again returns the existing code.
// POST /api/user/referral
func (h *ReferralHandler) EnsureReferralCode(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	code, err := h.referralService.EnsureReferralCode(userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"referral_code": code})
}

// GetReferralList returns the users the current user has referred.
// GET /api/user/referrallist
func (h *ReferralHandler) GetReferralList(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	referred, err := h.referralService.ListReferrals(userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, referred)
}
