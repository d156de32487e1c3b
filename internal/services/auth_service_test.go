package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"harbor-backend/internal/models"
)

func TestRegisterAndLogin(t *testing.T) {
	db := setupTestDB(t)
	service := NewAuthService(db, nil)

	user, err := service.Register("alice", "alice@example.com", "s3cretpass", "")
	require.NoError(t, err)
	assert.Equal(t, models.ProviderLocal, user.Provider)
	assert.True(t, user.IsLocal())
	assert.NotEmpty(t, user.UserID)
	assert.NotEqual(t, "s3cretpass", user.PasswordHash)

	// Login by username and by email.
	byName, err := service.Login("alice", "s3cretpass")
	require.NoError(t, err)
	assert.Equal(t, user.UserID, byName.UserID)

	byEmail, err := service.Login("alice@example.com", "s3cretpass")
	require.NoError(t, err)
	assert.Equal(t, user.UserID, byEmail.UserID)

	_, err = service.Login("alice", "wrongpass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = service.Login("nobody", "s3cretpass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	db := setupTestDB(t)
	service := NewAuthService(db, nil)

	_, err := service.Register("alice", "alice@example.com", "s3cretpass", "")
	require.NoError(t, err)

	_, err = service.Register("alice2", "alice@example.com", "s3cretpass", "")
	assert.ErrorIs(t, err, ErrEmailInUse)

	_, err = service.Register("alice", "other@example.com", "s3cretpass", "")
	assert.ErrorIs(t, err, ErrUsernameInUse)
}

func TestRegisterWithReferralCode(t *testing.T) {
	db := setupTestDB(t)
	authService := NewAuthService(db, nil)
	referralService := NewReferralService(db)

	alice := createUser(t, db, "alice")
	code, err := referralService.EnsureReferralCode(alice.ID)
	require.NoError(t, err)

	bob, err := authService.Register("bob", "bob@example.com", "s3cretpass", code)
	require.NoError(t, err)

	var got models.User
	require.NoError(t, db.First(&got, bob.ID).Error)
	require.NotNil(t, got.ReferredByID)
	assert.Equal(t, alice.ID, *got.ReferredByID)

	referred, err := referralService.ListReferrals(alice.ID)
	require.NoError(t, err)
	require.Len(t, referred, 1)
	assert.Equal(t, bob.UserID, referred[0].UserID)
}

func TestRegisterWithUnknownReferralCode(t *testing.T) {
	db := setupTestDB(t)
	service := NewAuthService(db, nil)

	// Registration proceeds; the user simply has no referrer.
	bob, err := service.Register("bob", "bob@example.com", "s3cretpass", "ref_UNKNOWN")
	require.NoError(t, err)

	var got models.User
	require.NoError(t, db.First(&got, bob.ID).Error)
	assert.Nil(t, got.ReferredByID)
}

func TestCompleteGoogleLogin(t *testing.T) {
	db := setupTestDB(t)
	service := NewAuthService(db, nil)
	ctx := context.Background()

	profile := GoogleProfile{ID: "google-123", Email: "carol@gmail.com", Name: "Carol Jones"}

	user, err := service.CompleteGoogleLogin(ctx, profile, "")
	require.NoError(t, err)
	assert.Equal(t, models.ProviderGoogle, user.Provider)
	assert.Equal(t, "Carol_Jones", user.Username)
	assert.Empty(t, user.PasswordHash)

	// Subsequent logins resolve the same account.
	again, err := service.CompleteGoogleLogin(ctx, profile, "")
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)
}

func TestCompleteGoogleLoginAppliesPendingReferral(t *testing.T) {
	db := setupTestDB(t)
	authService := NewAuthService(db, nil)
	referralService := NewReferralService(db)
	ctx := context.Background()

	alice := createUser(t, db, "alice")
	code, err := referralService.EnsureReferralCode(alice.ID)
	require.NoError(t, err)

	profile := GoogleProfile{ID: "google-456", Email: "dave@gmail.com", Name: "Dave"}
	dave, err := authService.CompleteGoogleLogin(ctx, profile, code)
	require.NoError(t, err)

	var got models.User
	require.NoError(t, db.First(&got, dave.ID).Error)
	require.NotNil(t, got.ReferredByID)
	assert.Equal(t, alice.ID, *got.ReferredByID)

	// The referrer never changes on a later login with another code.
	carolCode, err := referralService.EnsureReferralCode(createUser(t, db, "carol").ID)
	require.NoError(t, err)
	_, err = authService.CompleteGoogleLogin(ctx, profile, carolCode)
	require.NoError(t, err)

	require.NoError(t, db.First(&got, dave.ID).Error)
	assert.Equal(t, alice.ID, *got.ReferredByID)
}
