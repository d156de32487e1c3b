package store

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"harbor-backend/internal/models"
)

// UserStore provides the persistence operations the referral core depends
// on. Every mutating operation is a single atomic statement so concurrent
// requests against the same user cannot lose updates.
type UserStore struct {
	db *gorm.DB
}

// New creates a UserStore. Pass a transaction handle to scope the store
// to that transaction.
func New(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

// Create inserts a new user. Returns ErrDuplicate when the username,
// email or google id is already taken.
func (s *UserStore) Create(user *models.User) error {
	if err := s.db.Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return wrapStorage("create user", err)
	}
	return nil
}

// FindByID returns the user with the given database id, or nil when absent.
func (s *UserStore) FindByID(id uint) (*models.User, error) {
	return s.findOne("id = ?", id)
}

// FindByUserID returns the user with the given public identifier.
func (s *UserStore) FindByUserID(userID string) (*models.User, error) {
	return s.findOne("user_id = ?", userID)
}

// FindByGoogleID returns the user linked to the given Google account.
func (s *UserStore) FindByGoogleID(googleID string) (*models.User, error) {
	return s.findOne("google_id = ?", googleID)
}

// FindByReferralCode returns the user owning the given referral code.
func (s *UserStore) FindByReferralCode(code string) (*models.User, error) {
	return s.findOne("referral_code = ?", code)
}

// FindByEmail returns the user with the given email regardless of provider.
func (s *UserStore) FindByEmail(email string) (*models.User, error) {
	return s.findOne("email = ?", email)
}

// FindByUsername returns the user with the given username.
func (s *UserStore) FindByUsername(username string) (*models.User, error) {
	return s.findOne("username = ?", username)
}

// FindLocalByEmailOrUsername resolves a local-provider user by either
// credential identifier.
func (s *UserStore) FindLocalByEmailOrUsername(value string) (*models.User, error) {
	return s.findOne("provider = ? AND (email = ? OR username = ?)",
		models.ProviderLocal, value, value)
}

func (s *UserStore) findOne(query string, args ...interface{}) (*models.User, error) {
	var user models.User
	err := s.db.Where(query, args...).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapStorage("find user", err)
	}
	return &user, nil
}

// FindByIDs batch-fetches users by database id. Missing ids are simply
// absent from the result.
func (s *UserStore) FindByIDs(ids []uint) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []models.User
	if err := s.db.Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, wrapStorage("find users by ids", err)
	}
	return users, nil
}

// SetReferralCodeOnce assigns a referral code only while the user has
// none. Returns ErrAlreadySet when the code was already assigned and
// ErrDuplicate when another user holds the same code.
func (s *UserStore) SetReferralCodeOnce(id uint, code string) error {
	res := s.db.Model(&models.User{}).
		Where("id = ? AND referral_code IS NULL", id).
		Update("referral_code", code)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return ErrDuplicate
		}
		return wrapStorage("set referral code", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrAlreadySet
	}
	return nil
}

// SetReferredByOnce records the user's referrer. The referrer, once set,
// is never overwritten; a second call returns ErrAlreadySet.
func (s *UserStore) SetReferredByOnce(id, referrerID uint) error {
	res := s.db.Model(&models.User{}).
		Where("id = ? AND referred_by_id IS NULL", id).
		Update("referred_by_id", referrerID)
	if res.Error != nil {
		return wrapStorage("set referred by", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrAlreadySet
	}
	return nil
}

// AddReferral inserts the referral edge with set semantics: re-inserting
// an existing edge is a no-op rather than an error or a duplicate.
func (s *UserStore) AddReferral(referrerID, referredUserID uint) error {
	referral := models.Referral{
		ReferrerID:     referrerID,
		ReferredUserID: referredUserID,
	}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "referred_user_id"}},
		DoNothing: true,
	}).Create(&referral).Error
	if err != nil {
		return wrapStorage("add referral", err)
	}
	return nil
}

// ListReferrals returns a user's referral edges in insertion order.
func (s *UserStore) ListReferrals(referrerID uint) ([]models.Referral, error) {
	var referrals []models.Referral
	err := s.db.Where("referrer_id = ?", referrerID).
		Order("created_at ASC, id ASC").
		Find(&referrals).Error
	if err != nil {
		return nil, wrapStorage("list referrals", err)
	}
	return referrals, nil
}

// CountReferrals returns the number of users directly referred by a user.
func (s *UserStore) CountReferrals(referrerID uint) (int, error) {
	var count int64
	err := s.db.Model(&models.Referral{}).
		Where("referrer_id = ?", referrerID).
		Count(&count).Error
	if err != nil {
		return 0, wrapStorage("count referrals", err)
	}
	return int(count), nil
}

// IncrementTotalRefRev atomically adds delta to the user's running total
// of claimed referral rewards.
func (s *UserStore) IncrementTotalRefRev(id uint, delta decimal.Decimal) error {
	err := s.db.Model(&models.User{}).
		Where("id = ?", id).
		Update("total_ref_rev", gorm.Expr("total_ref_rev + ?", delta)).Error
	if err != nil {
		return wrapStorage("increment total ref rev", err)
	}
	return nil
}

// AddEarning accumulates amount into the user's bucket for the given
// metric and day, creating the bucket when absent. The upsert keeps
// concurrent additions from losing increments.
func (s *UserStore) AddEarning(userID uint, metric, day string, amount decimal.Decimal) error {
	point := models.EarningPoint{
		UserID: userID,
		Metric: metric,
		Day:    day,
		Amount: amount,
	}
	err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "metric"}, {Name: "day"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"amount":     gorm.Expr("earning_points.amount + excluded.amount"),
			"updated_at": time.Now(),
		}),
	}).Create(&point).Error
	if err != nil {
		return wrapStorage("add earning", err)
	}
	return nil
}

// EarningsByMetric returns the day keyed accumulator values for one metric.
func (s *UserStore) EarningsByMetric(userID uint, metric string) (map[string]decimal.Decimal, error) {
	var points []models.EarningPoint
	err := s.db.Where("user_id = ? AND metric = ?", userID, metric).
		Find(&points).Error
	if err != nil {
		return nil, wrapStorage("earnings by metric", err)
	}
	out := make(map[string]decimal.Decimal, len(points))
	for _, p := range points {
		out[p.Day] = p.Amount
	}
	return out, nil
}

// CreateClaim records a tier claim. Returns ErrDuplicate when the tier
// was already claimed by this user.
func (s *UserStore) CreateClaim(claim *models.RewardClaim) error {
	if err := s.db.Create(claim).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return wrapStorage("create claim", err)
	}
	return nil
}

// ListClaims returns a user's claims ordered by claim time.
func (s *UserStore) ListClaims(userID uint) ([]models.RewardClaim, error) {
	var claims []models.RewardClaim
	err := s.db.Where("user_id = ?", userID).
		Order("claimed_at ASC").
		Find(&claims).Error
	if err != nil {
		return nil, wrapStorage("list claims", err)
	}
	return claims, nil
}

// ClaimedTierSet returns the set of tier indexes the user has claimed.
func (s *UserStore) ClaimedTierSet(userID uint) (map[int]bool, error) {
	claims, err := s.ListClaims(userID)
	if err != nil {
		return nil, err
	}
	set := make(map[int]bool, len(claims))
	for _, c := range claims {
		set[c.TierIndex] = true
	}
	return set, nil
}
