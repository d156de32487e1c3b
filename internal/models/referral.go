package models

import (
	"time"
)

// Referral represents a referral edge between a referrer and the user
// they brought in. The unique index on ReferredUserID guarantees a user
// has at most one referrer, so the relation always forms a forest.
type Referral struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ReferrerID     uint      `gorm:"not null;index" json:"referrer_id"`
	Referrer       *User     `gorm:"foreignKey:ReferrerID" json:"referrer,omitempty"`
	ReferredUserID uint      `gorm:"not null;uniqueIndex" json:"referred_user_id"`
	ReferredUser   *User     `gorm:"foreignKey:ReferredUserID" json:"referred_user,omitempty"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Referral) TableName() string {
	return "referrals"
}
