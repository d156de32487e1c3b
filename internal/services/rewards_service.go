package services

import (
	"errors"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"harbor-backend/internal/models"
	"harbor-backend/internal/store"
)

// RewardTier defines a claimable reward threshold.
type RewardTier struct {
	MinReferrals int             `json:"minReferrals"`
	Reward       decimal.Decimal `json:"reward"`
}

// RewardTiers is the fixed tier ladder, ascending by referral count.
var RewardTiers = []RewardTier{
	{5, decimal.NewFromInt(50)},
	{10, decimal.NewFromInt(150)},
	{20, decimal.NewFromInt(400)},
	{50, decimal.NewFromInt(1200)},
}

// TierStatus is one tier's view for a given user.
type TierStatus struct {
	MinReferrals int             `json:"minReferrals"`
	Reward       decimal.Decimal `json:"reward"`
	Eligible     bool            `json:"eligible"`
	Claimed      bool            `json:"claimed"`
}

// ClaimResult reports a successful claim.
type ClaimResult struct {
	Claimed  decimal.Decimal `json:"claimed"`
	NewTotal decimal.Decimal `json:"newTotal"`
}

// Eligibility is the full eligibility view for a user.
type Eligibility struct {
	ReferralCount int          `json:"referralCount"`
	EligibleTiers []TierStatus `json:"eligibleTiers"`
}

// RewardsService evaluates reward tiers and processes claims.
type RewardsService struct {
	db    *gorm.DB
	users *store.UserStore
}

// NewRewardsService creates a new RewardsService
func NewRewardsService(db *gorm.DB) *RewardsService {
	return &RewardsService{db: db, users: store.New(db)}
}

// EvaluateTiers maps a direct-referral count to per-tier eligibility.
// Eligibility is independent per tier: once the count passes several
// thresholds the user is eligible for all of them at once.
func EvaluateTiers(referralCount int, claimed map[int]bool) []TierStatus {
	statuses := make([]TierStatus, len(RewardTiers))
	for i, tier := range RewardTiers {
		statuses[i] = TierStatus{
			MinReferrals: tier.MinReferrals,
			Reward:       tier.Reward,
			Eligible:     referralCount >= tier.MinReferrals,
			Claimed:      claimed[i],
		}
	}
	return statuses
}

// CheckEligibility returns the user's referral count and the tier ladder
// with eligibility and claim flags. The count is the flat number of
// direct referrals, not the size of the transitive tree.
func (s *RewardsService) CheckEligibility(userID uint) (*Eligibility, error) {
	user, err := s.users.FindByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	count, err := s.users.CountReferrals(userID)
	if err != nil {
		return nil, err
	}

	claimed, err := s.users.ClaimedTierSet(userID)
	if err != nil {
		return nil, err
	}

	return &Eligibility{
		ReferralCount: count,
		EligibleTiers: EvaluateTiers(count, claimed),
	}, nil
}

// Claim credits the tier's reward to the user. The claim row's unique
// index makes each tier claimable once; the balance and the day bucket
// are updated with atomic increments inside one transaction.
func (s *RewardsService) Claim(userID uint, tierIndex int) (*ClaimResult, error) {
	if tierIndex < 0 || tierIndex >= len(RewardTiers) {
		return nil, ErrInvalidTier
	}
	tier := RewardTiers[tierIndex]

	var result ClaimResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		users := store.New(tx)

		user, err := users.FindByID(userID)
		if err != nil {
			return err
		}
		if user == nil {
			return ErrUserNotFound
		}

		count, err := users.CountReferrals(userID)
		if err != nil {
			return err
		}
		if count < tier.MinReferrals {
			return &IneligibleClaimError{Required: tier.MinReferrals, Current: count}
		}

		claim := models.RewardClaim{
			UserID:    userID,
			TierIndex: tierIndex,
			Reward:    tier.Reward,
		}
		if err := users.CreateClaim(&claim); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return ErrTierAlreadyClaimed
			}
			return err
		}

		day := time.Now().UTC().Format("2006-01-02")
		if err := users.IncrementTotalRefRev(userID, tier.Reward); err != nil {
			return err
		}
		if err := users.AddEarning(userID, models.MetricEarnings, day, tier.Reward); err != nil {
			return err
		}

		// Mirror the reward into the referrer's friends bucket so their
		// dashboard reflects what their referrals earned.
		if user.ReferredByID != nil {
			if err := users.AddEarning(*user.ReferredByID, models.MetricFriends, day, tier.Reward); err != nil {
				return err
			}
		}

		updated, err := users.FindByID(userID)
		if err != nil {
			return err
		}
		if updated == nil {
			return ErrUserNotFound
		}

		result.Claimed = tier.Reward
		result.NewTotal = updated.TotalRefRev
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Claim processed: tier %d (%s) for user %d, new total %s",
		tierIndex, tier.Reward, userID, result.NewTotal)
	return &result, nil
}
