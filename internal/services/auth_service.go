package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"harbor-backend/internal/models"
	"harbor-backend/internal/store"
	"harbor-backend/internal/utils"
)

const (
	bcryptCost         = 10
	pendingReferralNS  = "oauth:referral:"
	pendingReferralTTL = 10 * time.Minute
)

// AuthService handles registration and login for both providers.
type AuthService struct {
	db       *gorm.DB
	rdb      *redis.Client
	users    *store.UserStore
	referral *ReferralService
}

// NewAuthService creates a new AuthService
func NewAuthService(db *gorm.DB, rdb *redis.Client) *AuthService {
	return &AuthService{
		db:       db,
		rdb:      rdb,
		users:    store.New(db),
		referral: NewReferralService(db),
	}
}

// Register creates a local-provider account. A supplied referral code is
// attached best-effort: an unknown code leaves the user without a
// referrer and never fails the registration.
func (s *AuthService) Register(username, email, password, refCode string) (*models.User, error) {
	if existing, err := s.users.FindByEmail(email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrEmailInUse
	}
	if existing, err := s.users.FindByUsername(username); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrUsernameInUse
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		UserID:       utils.NewUserID(),
		Provider:     models.ProviderLocal,
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.users.Create(&user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrEmailInUse
		}
		return nil, err
	}

	if refCode != "" {
		if err := s.referral.AttachReferral(user.ID, refCode); err != nil {
			log.Printf("Warning: failed to attach referral for user %s: %v", user.UserID, err)
		}
	}

	log.Printf("User registered successfully - ID: %s", user.UserID)
	return &user, nil
}

// Login authenticates a local user by email or username.
func (s *AuthService) Login(usernameOrEmail, password string) (*models.User, error) {
	user, err := s.users.FindLocalByEmailOrUsername(usernameOrEmail)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	log.Printf("Login successful - User ID: %s", user.UserID)
	return user, nil
}

// GetUserByID retrieves a user by their database id.
func (s *AuthService) GetUserByID(userID uint) (*models.User, error) {
	user, err := s.users.FindByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// StashPendingReferral parks a referral code under the OAuth state while
// the user round-trips through Google.
func (s *AuthService) StashPendingReferral(ctx context.Context, state, refCode string) error {
	if refCode == "" {
		return nil
	}
	if err := s.rdb.Set(ctx, pendingReferralNS+state, refCode, pendingReferralTTL).Err(); err != nil {
		return fmt.Errorf("failed to stash pending referral: %w", err)
	}
	return nil
}

// TakePendingReferral pops the referral code stashed for an OAuth state,
// if any.
func (s *AuthService) TakePendingReferral(ctx context.Context, state string) (string, error) {
	code, err := s.rdb.GetDel(ctx, pendingReferralNS+state).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read pending referral: %w", err)
	}
	return code, nil
}

// GoogleProfile is the subset of the Google userinfo payload the login
// flow needs.
type GoogleProfile struct {
	ID    string
	Email string
	Name  string
}

// CompleteGoogleLogin finds or creates the account linked to a Google
// profile. A pending referral code is applied only on a user whose
// referrer is still unset; an unresolvable code is silently dropped.
func (s *AuthService) CompleteGoogleLogin(ctx context.Context, profile GoogleProfile, refCode string) (*models.User, error) {
	user, err := s.users.FindByGoogleID(profile.ID)
	if err != nil {
		return nil, err
	}

	if user == nil {
		username, err := s.pickUsername(profile)
		if err != nil {
			return nil, err
		}

		googleID := profile.ID
		created := models.User{
			UserID:   utils.NewUserID(),
			Provider: models.ProviderGoogle,
			GoogleID: &googleID,
			Username: username,
			Email:    profile.Email,
		}
		if err := s.users.Create(&created); err != nil {
			return nil, err
		}
		user = &created
		log.Printf("New google user created: %s (%s)", user.UserID, user.Email)
	}

	if refCode != "" && user.ReferredByID == nil {
		if err := s.referral.AttachReferral(user.ID, refCode); err != nil {
			log.Printf("Warning: failed to attach referral for user %s: %v", user.UserID, err)
		}
	}

	return user, nil
}

// pickUsername derives a username from the Google profile, appending a
// random suffix when the natural choice is taken.
func (s *AuthService) pickUsername(profile GoogleProfile) (string, error) {
	base := strings.ReplaceAll(strings.TrimSpace(profile.Name), " ", "_")
	if base == "" {
		base = strings.SplitN(profile.Email, "@", 2)[0]
	}

	existing, err := s.users.FindByUsername(base)
	if err != nil {
		return "", err
	}
	if existing == nil {
		return base, nil
	}
	return base + "_" + utils.UniqueSuffix(), nil
}
