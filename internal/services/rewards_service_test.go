package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"harbor-backend/internal/models"
	"harbor-backend/internal/store"
)

// referChildren wires count fresh users as direct referrals of referrer.
func referChildren(t *testing.T, db *gorm.DB, referrer *models.User, count int) {
	users := store.New(db)
	for i := 0; i < count; i++ {
		child := createUser(t, db, fmt.Sprintf("%s_child%02d", referrer.Username, i))
		require.NoError(t, users.SetReferredByOnce(child.ID, referrer.ID))
		require.NoError(t, users.AddReferral(referrer.ID, child.ID))
	}
}

func TestEvaluateTiersFlags(t *testing.T) {
	statuses := EvaluateTiers(12, nil)
	require.Len(t, statuses, 4)

	assert.True(t, statuses[0].Eligible)
	assert.True(t, statuses[1].Eligible)
	assert.False(t, statuses[2].Eligible)
	assert.False(t, statuses[3].Eligible)

	assert.True(t, statuses[0].Reward.Equal(decimal.NewFromInt(50)))
	assert.True(t, statuses[1].Reward.Equal(decimal.NewFromInt(150)))
	assert.True(t, statuses[2].Reward.Equal(decimal.NewFromInt(400)))
	assert.True(t, statuses[3].Reward.Equal(decimal.NewFromInt(1200)))

	for _, s := range statuses {
		assert.False(t, s.Claimed)
	}
}

func TestEvaluateTiersMonotonic(t *testing.T) {
	// Growing the referral count never revokes eligibility.
	prev := EvaluateTiers(0, nil)
	for n := 1; n <= 60; n++ {
		cur := EvaluateTiers(n, nil)
		for i := range cur {
			if prev[i].Eligible {
				assert.True(t, cur[i].Eligible,
					"tier %d lost eligibility going from %d to %d referrals", i, n-1, n)
			}
		}
		prev = cur
	}
}

func TestEvaluateTiersClaimedFlags(t *testing.T) {
	statuses := EvaluateTiers(10, map[int]bool{0: true})
	assert.True(t, statuses[0].Claimed)
	assert.False(t, statuses[1].Claimed)
}

func TestCheckEligibility(t *testing.T) {
	db := setupTestDB(t)
	service := NewRewardsService(db)

	referrer := createUser(t, db, "referrer")
	referChildren(t, db, referrer, 5)

	eligibility, err := service.CheckEligibility(referrer.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, eligibility.ReferralCount)
	assert.True(t, eligibility.EligibleTiers[0].Eligible)
	assert.False(t, eligibility.EligibleTiers[1].Eligible)
}

func TestClaimSuccess(t *testing.T) {
	db := setupTestDB(t)
	service := NewRewardsService(db)

	referrer := createUser(t, db, "referrer")
	referChildren(t, db, referrer, 5)

	result, err := service.Claim(referrer.ID, 0)
	require.NoError(t, err)
	assert.True(t, result.Claimed.Equal(decimal.NewFromInt(50)))
	assert.True(t, result.NewTotal.Equal(decimal.NewFromInt(50)),
		"expected new total 50, got %s", result.NewTotal)

	var got models.User
	require.NoError(t, db.First(&got, referrer.ID).Error)
	assert.True(t, got.TotalRefRev.Equal(decimal.NewFromInt(50)))

	day := time.Now().UTC().Format("2006-01-02")
	earnings, err := store.New(db).EarningsByMetric(referrer.ID, models.MetricEarnings)
	require.NoError(t, err)
	assert.True(t, earnings[day].Equal(decimal.NewFromInt(50)),
		"expected today's bucket 50, got %s", earnings[day])
}

func TestClaimIneligibleReportsCounts(t *testing.T) {
	db := setupTestDB(t)
	service := NewRewardsService(db)

	referrer := createUser(t, db, "referrer")
	referChildren(t, db, referrer, 4)

	_, err := service.Claim(referrer.ID, 0)
	var ineligible *IneligibleClaimError
	require.ErrorAs(t, err, &ineligible)
	assert.Equal(t, 5, ineligible.Required)
	assert.Equal(t, 4, ineligible.Current)
}

func TestClaimInvalidTierIndex(t *testing.T) {
	db := setupTestDB(t)
	service := NewRewardsService(db)

	referrer := createUser(t, db, "referrer")

	_, err := service.Claim(referrer.ID, -1)
	assert.ErrorIs(t, err, ErrInvalidTier)

	_, err = service.Claim(referrer.ID, len(RewardTiers))
	assert.ErrorIs(t, err, ErrInvalidTier)
}

func TestClaimUnknownUser(t *testing.T) {
	db := setupTestDB(t)
	service := NewRewardsService(db)

	_, err := service.Claim(9999, 0)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestClaimTierOnlyOnce(t *testing.T) {
	db := setupTestDB(t)
	service := NewRewardsService(db)

	referrer := createUser(t, db, "referrer")
	referChildren(t, db, referrer, 10)

	_, err := service.Claim(referrer.ID, 0)
	require.NoError(t, err)

	// Double submission of the same tier is rejected.
	_, err = service.Claim(referrer.ID, 0)
	assert.ErrorIs(t, err, ErrTierAlreadyClaimed)

	// A different tier is still claimable; totals accumulate.
	result, err := service.Claim(referrer.ID, 1)
	require.NoError(t, err)
	assert.True(t, result.NewTotal.Equal(decimal.NewFromInt(200)),
		"expected 200 after both claims, got %s", result.NewTotal)

	eligibility, err := service.CheckEligibility(referrer.ID)
	require.NoError(t, err)
	assert.True(t, eligibility.EligibleTiers[0].Claimed)
	assert.True(t, eligibility.EligibleTiers[1].Claimed)
	assert.False(t, eligibility.EligibleTiers[2].Claimed)
}

func TestClaimCreditsReferrerFriendsBucket(t *testing.T) {
	db := setupTestDB(t)
	rewards := NewRewardsService(db)
	referral := NewReferralService(db)

	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")

	code, err := referral.EnsureReferralCode(alice.ID)
	require.NoError(t, err)
	require.NoError(t, referral.AttachReferral(bob.ID, code))

	referChildren(t, db, bob, 5)

	_, err = rewards.Claim(bob.ID, 0)
	require.NoError(t, err)

	day := time.Now().UTC().Format("2006-01-02")
	friends, err := store.New(db).EarningsByMetric(alice.ID, models.MetricFriends)
	require.NoError(t, err)
	assert.True(t, friends[day].Equal(decimal.NewFromInt(50)),
		"expected friends bucket 50, got %s", friends[day])
}
