package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Metrics tracked as daily accumulator buckets per user.
const (
	MetricEarnings = "earnings" // claimed referral rewards
	MetricStake    = "stake"    // staked amounts
	MetricFriends  = "friends"  // earnings generated by referred users
)

// EarningPoint is one day's accumulator for a user metric. Day is a
// YYYY-MM-DD string; Amount only ever grows via the store's atomic upsert.
type EarningPoint struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	UserID    uint            `gorm:"not null;uniqueIndex:idx_earning_user_metric_day,priority:1" json:"user_id"`
	Metric    string          `gorm:"size:16;not null;uniqueIndex:idx_earning_user_metric_day,priority:2" json:"metric"`
	Day       string          `gorm:"size:10;not null;uniqueIndex:idx_earning_user_metric_day,priority:3" json:"day"`
	Amount    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"amount"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (EarningPoint) TableName() string {
	return "earning_points"
}
