package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Auth providers a user can be created through.
const (
	ProviderLocal  = "local"
	ProviderGoogle = "google"
)

// User represents a registered account. UserID is the public stable
// identifier carried in tokens and referral lists; ID is the database key.
type User struct {
	ID           uint            `gorm:"primaryKey" json:"-"`
	UserID       string          `gorm:"uniqueIndex;size:64;not null" json:"user_id"`
	Provider     string          `gorm:"size:16;not null;default:local" json:"provider"`
	GoogleID     *string         `gorm:"uniqueIndex;size:64" json:"-"`
	Username     string          `gorm:"uniqueIndex;size:64;not null" json:"username"`
	Email        string          `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string          `gorm:"size:255" json:"-"`
	ReferralCode *string         `gorm:"uniqueIndex;size:20" json:"referral_code,omitempty"`
	ReferredByID *uint           `gorm:"index" json:"referred_by_id,omitempty"`
	ReferredBy   *User           `gorm:"foreignKey:ReferredByID" json:"-"`
	TotalRefRev  decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"total_ref_rev"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// TableName specifies the table name for User model
func (User) TableName() string {
	return "users"
}

// IsLocal reports whether the account authenticates with a password.
func (u *User) IsLocal() bool {
	return u.Provider == ProviderLocal
}
