package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"harbor-backend/internal/models"
	"harbor-backend/internal/services"
	"harbor-backend/internal/store"
)

func setupTestDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err, "failed to connect database")

	err = db.AutoMigrate(
		&models.User{},
		&models.Referral{},
		&models.EarningPoint{},
		&models.RewardClaim{},
	)
	require.NoError(t, err, "failed to migrate database")

	return db
}

func seedReferrer(t *testing.T, db *gorm.DB, referralCount int) *models.User {
	referrer := models.User{
		UserID:   "USR_REFERRER",
		Provider: models.ProviderLocal,
		Username: "referrer",
		Email:    "referrer@example.com",
	}
	require.NoError(t, db.Create(&referrer).Error)

	users := store.New(db)
	for i := 0; i < referralCount; i++ {
		child := models.User{
			UserID:   fmt.Sprintf("USR_CHILD%02d", i),
			Provider: models.ProviderLocal,
			Username: fmt.Sprintf("child%02d", i),
			Email:    fmt.Sprintf("child%02d@example.com", i),
		}
		require.NoError(t, db.Create(&child).Error)
		require.NoError(t, users.AddReferral(referrer.ID, child.ID))
	}

	return &referrer
}

// performClaim invokes the claim endpoint with an authenticated context.
func performClaim(handler *ClaimsHandler, userID uint, body string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/claims/claim",
		bytes.NewBufferString(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set("user_id", userID)

	handler.Claim(c)
	return w
}

func TestClaimEndpointSuccess(t *testing.T) {
	db := setupTestDB(t)
	handler := NewClaimsHandler(services.NewRewardsService(db))
	referrer := seedReferrer(t, db, 5)

	w := performClaim(handler, referrer.ID, `{"tierIndex":0}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Success  bool   `json:"success"`
		Claimed  string `json:"claimed"`
		NewTotal string `json:"newTotal"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "50", resp.Claimed)
	assert.Equal(t, "50", resp.NewTotal)
}

func TestClaimEndpointIneligible(t *testing.T) {
	db := setupTestDB(t)
	handler := NewClaimsHandler(services.NewRewardsService(db))
	referrer := seedReferrer(t, db, 4)

	w := performClaim(handler, referrer.ID, `{"tierIndex":0}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Error    string `json:"error"`
		Required int    `json:"required"`
		Current  int    `json:"current"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 5, resp.Required)
	assert.Equal(t, 4, resp.Current)
}

func TestClaimEndpointInvalidTier(t *testing.T) {
	db := setupTestDB(t)
	handler := NewClaimsHandler(services.NewRewardsService(db))
	referrer := seedReferrer(t, db, 5)

	w := performClaim(handler, referrer.ID, `{"tierIndex":7}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = performClaim(handler, referrer.ID, `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestClaimEndpointDoubleClaim(t *testing.T) {
	db := setupTestDB(t)
	handler := NewClaimsHandler(services.NewRewardsService(db))
	referrer := seedReferrer(t, db, 5)

	w := performClaim(handler, referrer.ID, `{"tierIndex":0}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = performClaim(handler, referrer.ID, `{"tierIndex":0}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestEligibilityEndpoint(t *testing.T) {
	db := setupTestDB(t)
	handler := NewClaimsHandler(services.NewRewardsService(db))
	referrer := seedReferrer(t, db, 12)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/claims/eligibility", nil)
	c.Set("user_id", referrer.ID)

	handler.GetEligibility(c)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		ReferralCount int `json:"referralCount"`
		EligibleTiers []struct {
			MinReferrals int  `json:"minReferrals"`
			Eligible     bool `json:"eligible"`
			Claimed      bool `json:"claimed"`
		} `json:"eligibleTiers"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 12, resp.ReferralCount)
	require.Len(t, resp.EligibleTiers, 4)
	assert.True(t, resp.EligibleTiers[0].Eligible)
	assert.True(t, resp.EligibleTiers[1].Eligible)
	assert.False(t, resp.EligibleTiers[2].Eligible)
}
