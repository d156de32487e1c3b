package services

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"harbor-backend/internal/models"
	"harbor-backend/internal/store"
)

// ChartData holds the three day keyed accumulator series the dashboard
// charts are drawn from.
type ChartData struct {
	EarningsOverTime    map[string]decimal.Decimal `json:"earnings_over_time"`
	StakeAmountOverTime map[string]decimal.Decimal `json:"stake_amount_over_time"`
	FriendsEarnings     map[string]decimal.Decimal `json:"friends_earnings"`
}

// UserService handles user-related business logic
type UserService struct {
	db    *gorm.DB
	users *store.UserStore
}

// NewUserService creates a new UserService
func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db, users: store.New(db)}
}

// GetUserByID retrieves a user by database id
func (s *UserService) GetUserByID(userID uint) (*models.User, error) {
	user, err := s.users.FindByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// ChartData returns the user's earnings, stake and friends series.
func (s *UserService) ChartData(userID uint) (*ChartData, error) {
	user, err := s.users.FindByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	earnings, err := s.users.EarningsByMetric(userID, models.MetricEarnings)
	if err != nil {
		return nil, err
	}
	stake, err := s.users.EarningsByMetric(userID, models.MetricStake)
	if err != nil {
		return nil, err
	}
	friends, err := s.users.EarningsByMetric(userID, models.MetricFriends)
	if err != nil {
		return nil, err
	}

	return &ChartData{
		EarningsOverTime:    earnings,
		StakeAmountOverTime: stake,
		FriendsEarnings:     friends,
	}, nil
}

// RecordStake accumulates a staked amount into today's stake bucket.
func (s *UserService) RecordStake(userID uint, amount decimal.Decimal) error {
	user, err := s.users.FindByID(userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	day := time.Now().UTC().Format("2006-01-02")
	return s.users.AddEarning(userID, models.MetricStake, day, amount)
}
