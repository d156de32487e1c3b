package services

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/mr-tron/base58"
	"gorm.io/gorm"

	"harbor-backend/internal/models"
	"harbor-backend/internal/store"
)

const (
	referralCodePrefix   = "ref_"
	referralCodeSuffix   = 6
	maxCodeAttempts      = 5
	maxAncestorWalkDepth = 64
)

// ReferralService issues referral codes and records referral edges.
type ReferralService struct {
	db    *gorm.DB
	users *store.UserStore
}

// NewReferralService creates a new ReferralService
func NewReferralService(db *gorm.DB) *ReferralService {
	return &ReferralService{db: db, users: store.New(db)}
}

// EnsureReferralCode returns the user's referral code, generating and
// persisting one on first call. Calling it again returns the same code.
func (s *ReferralService) EnsureReferralCode(userID uint) (string, error) {
	user, err := s.users.FindByID(userID)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", ErrUserNotFound
	}
	if user.ReferralCode != nil {
		return *user.ReferralCode, nil
	}

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := newReferralCode()
		if err != nil {
			return "", err
		}

		err = s.users.SetReferralCodeOnce(userID, code)
		if err == nil {
			log.Printf("Generated referral code %s for user %s", code, user.UserID)
			return code, nil
		}
		if errors.Is(err, store.ErrDuplicate) {
			// Another user holds this code; try a fresh suffix.
			continue
		}
		if errors.Is(err, store.ErrAlreadySet) {
			// Lost a race against a concurrent generator; the stored
			// code wins.
			current, err := s.users.FindByID(userID)
			if err != nil {
				return "", err
			}
			if current == nil || current.ReferralCode == nil {
				return "", ErrUserNotFound
			}
			return *current.ReferralCode, nil
		}
		return "", err
	}

	return "", fmt.Errorf("could not generate a unique referral code after %d attempts", maxCodeAttempts)
}

// newReferralCode builds a code from a fixed prefix and a short random
// base58 suffix, uppercased.
func newReferralCode() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	suffix := strings.ToUpper(base58.Encode(buf))
	if len(suffix) > referralCodeSuffix {
		suffix = suffix[:referralCodeSuffix]
	}
	return referralCodePrefix + suffix, nil
}

// AttachReferral links a new user to the owner of refCode. An unknown
// code is a silent no-op: the user simply ends up without a referrer.
// Self-referrals, cycles and second referrers are rejected.
func (s *ReferralService) AttachReferral(newUserID uint, refCode string) error {
	referrer, err := s.users.FindByReferralCode(refCode)
	if err != nil {
		return err
	}
	if referrer == nil {
		log.Printf("Referral code not found: %s", refCode)
		return nil
	}

	if referrer.ID == newUserID {
		return ErrSelfReferral
	}

	if err := s.checkNoCycle(referrer, newUserID); err != nil {
		return err
	}

	if err := s.users.SetReferredByOnce(newUserID, referrer.ID); err != nil {
		if errors.Is(err, store.ErrAlreadySet) {
			// Either the user is gone or a referrer is already recorded.
			user, ferr := s.users.FindByID(newUserID)
			if ferr != nil {
				return ferr
			}
			if user == nil {
				return ErrUserNotFound
			}
			return ErrAlreadyReferred
		}
		return err
	}

	if err := s.users.AddReferral(referrer.ID, newUserID); err != nil {
		return err
	}

	log.Printf("Applied referral code %s: user %d referred by user %s",
		refCode, newUserID, referrer.UserID)
	return nil
}

// checkNoCycle walks the referrer's ancestor chain and rejects the edge
// if newUserID already appears in it. The walk is depth-bounded; a chain
// deeper than the bound is treated as a cycle rather than trusted.
func (s *ReferralService) checkNoCycle(referrer *models.User, newUserID uint) error {
	current := referrer
	for depth := 0; current.ReferredByID != nil; depth++ {
		if depth >= maxAncestorWalkDepth {
			return ErrReferralCycle
		}
		if *current.ReferredByID == newUserID {
			return ErrReferralCycle
		}
		next, err := s.users.FindByID(*current.ReferredByID)
		if err != nil {
			return err
		}
		if next == nil {
			return nil
		}
		current = next
	}
	return nil
}

// ListReferrals returns the users directly referred by userID, in the
// order they were referred.
func (s *ReferralService) ListReferrals(userID uint) ([]models.User, error) {
	user, err := s.users.FindByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	referrals, err := s.users.ListReferrals(userID)
	if err != nil {
		return nil, err
	}
	if len(referrals) == 0 {
		return nil, nil
	}

	ids := make([]uint, 0, len(referrals))
	for _, r := range referrals {
		ids = append(ids, r.ReferredUserID)
	}

	fetched, err := s.users.FindByIDs(ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[uint]models.User, len(fetched))
	for _, u := range fetched {
		byID[u.ID] = u
	}

	// Preserve referral order, skipping orphaned ids.
	ordered := make([]models.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := byID[id]; ok {
			ordered = append(ordered, u)
		}
	}
	return ordered, nil
}
