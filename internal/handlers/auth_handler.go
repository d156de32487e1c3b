package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"harbor-backend/internal/auth"
	"harbor-backend/internal/services"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *services.AuthService
	oauthConfig *oauth2.Config
	frontendURL string
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService *services.AuthService, oauthConfig *oauth2.Config, frontendURL string) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		oauthConfig: oauthConfig,
		frontendURL: frontendURL,
	}
}

// Register creates a local account, optionally attaching a referral code.
// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required,min=3,max=50"`
		Password string `json:"password" binding:"required,min=8"`
		Email    string `json:"email" binding:"required,email"`
		RefCode  string `json:"refCode"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.authService.Register(req.Username, req.Email, req.Password, req.RefCode)
	if err != nil {
		if errors.Is(err, services.ErrEmailInUse) || errors.Is(err, services.ErrUsernameInUse) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "User registered successfully",
		"user": gin.H{
			"user_id":  user.UserID,
			"username": user.Username,
			"email":    user.Email,
		},
	})
}

// Login authenticates a local user by username or email.
// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		UsernameOrEmail string `json:"usernameOrEmail" binding:"required"`
		Password        string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.authService.Login(req.UsernameOrEmail, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	token, err := auth.GenerateToken(user.ID, user.UserID, user.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Logged in successfully",
		"token":   token,
		"user": gin.H{
			"user_id":  user.UserID,
			"email":    user.Email,
			"username": user.Username,
		},
	})
}

// GoogleLogin kicks off the Google OAuth flow. A referral code supplied
// as ?code= is parked under the OAuth state until the callback.
// GET /api/auth/google
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	state := uuid.NewString()

	if refCode := c.Query("code"); refCode != "" {
		if err := h.authService.StashPendingReferral(c.Request.Context(), state, refCode); err != nil {
			log.Printf("Warning: failed to stash referral code for oauth state: %v", err)
		}
	}

	c.Redirect(http.StatusTemporaryRedirect, h.oauthConfig.AuthCodeURL(state))
}

// GoogleCallback completes the Google OAuth flow and redirects to the
// frontend with a token.
// GET /api/auth/google/callback
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	state := c.Query("state")
	code := c.Query("code")
	if state == "" || code == "" {
		c.Redirect(http.StatusTemporaryRedirect, h.frontendURL+"/signin")
		return
	}

	ctx := c.Request.Context()

	refCode, err := h.authService.TakePendingReferral(ctx, state)
	if err != nil {
		log.Printf("Warning: failed to read pending referral: %v", err)
	}

	oauthToken, err := h.oauthConfig.Exchange(ctx, code)
	if err != nil {
		log.Printf("Google OAuth exchange failed: %v", err)
		c.Redirect(http.StatusTemporaryRedirect, h.frontendURL+"/signin")
		return
	}

	info, err := auth.FetchGoogleUserInfo(ctx, h.oauthConfig, oauthToken)
	if err != nil {
		log.Printf("Google userinfo fetch failed: %v", err)
		c.Redirect(http.StatusTemporaryRedirect, h.frontendURL+"/signin")
		return
	}

	user, err := h.authService.CompleteGoogleLogin(ctx, services.GoogleProfile{
		ID:    info.ID,
		Email: info.Email,
		Name:  info.Name,
	}, refCode)
	if err != nil {
		log.Printf("Google login failed: %v", err)
		c.Redirect(http.StatusTemporaryRedirect, h.frontendURL+"/signin")
		return
	}

	token, err := auth.GenerateToken(user.ID, user.UserID, user.Username)
	if err != nil {
		log.Printf("Failed to generate token: %v", err)
		c.Redirect(http.StatusTemporaryRedirect, h.frontendURL+"/signin")
		return
	}

	c.Redirect(http.StatusTemporaryRedirect,
		fmt.Sprintf("%s/dashboard?token=%s", h.frontendURL, token))
}

// Logout handles user logout (stateless JWT — client-side only)
// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Successfully logged out",
	})
}
