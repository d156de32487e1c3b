package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RewardClaim records that a user claimed a reward tier. The unique index
// on (UserID, TierIndex) makes each tier claimable exactly once.
type RewardClaim struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	UserID    uint            `gorm:"not null;uniqueIndex:idx_claim_user_tier,priority:1" json:"user_id"`
	User      *User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	TierIndex int             `gorm:"not null;uniqueIndex:idx_claim_user_tier,priority:2" json:"tier_index"`
	Reward    decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"reward"`
	ClaimedAt time.Time       `gorm:"autoCreateTime" json:"claimed_at"`
}

func (RewardClaim) TableName() string {
	return "reward_claims"
}
