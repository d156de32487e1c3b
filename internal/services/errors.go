package services

import (
	"errors"
	"fmt"
)

// Domain errors surfaced to the route layer. Persistence failures are
// wrapped separately by the store and never aliased to these.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailInUse         = errors.New("email is already in use")
	ErrUsernameInUse      = errors.New("username is already in use")
	ErrSelfReferral       = errors.New("cannot use your own referral code")
	ErrReferralCycle      = errors.New("referral would create a cycle")
	ErrAlreadyReferred    = errors.New("user already has a referrer")
	ErrInvalidTier        = errors.New("invalid tier index")
	ErrTierAlreadyClaimed = errors.New("tier already claimed")
)

// IneligibleClaimError reports a claim attempt on a tier the user has not
// reached yet, with the counts the caller needs to render the failure.
type IneligibleClaimError struct {
	Required int
	Current  int
}

func (e *IneligibleClaimError) Error() string {
	return fmt.Sprintf("not enough referrals for this tier: required %d, current %d",
		e.Required, e.Current)
}
