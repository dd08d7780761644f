package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// MaxLoginAttempts is the number of failed attempts allowed per email
// within the lockout window before logins are throttled.
const MaxLoginAttempts = 5

// LockoutWindow is the trailing interval failures are counted over, and
// also the lock duration measured from the most recent failure.
const LockoutWindow = 15 * time.Minute

// ThrottleStatus describes the throttle decision for one email.
type ThrottleStatus struct {
	Locked            bool      `json:"locked"`
	LockedUntil       time.Time `json:"locked_until,omitempty"`
	RemainingAttempts int       `json:"remaining_attempts"`
}

// LoginThrottle counts recent failed attempts per email and computes
// lockout windows. Checking the throttle never renews a lock; only a new
// failure does.
type LoginThrottle struct {
	attempts LoginAttemptStore
	logger   Logger
}

// NewLoginThrottle creates a throttle over the attempt store.
func NewLoginThrottle(attempts LoginAttemptStore) *LoginThrottle {
	return &LoginThrottle{
		attempts: attempts,
		logger:   defLogger{},
	}
}

func (t *LoginThrottle) WithLogger(logger Logger) *LoginThrottle {
	if logger != nil {
		t.logger = logger
	}
	return t
}

// Status computes the throttle decision for an email. Counting and
// deciding are separate reads; concurrent logins for the same email can
// overshoot the limit by at most the requests in flight.
func (t *LoginThrottle) Status(ctx context.Context, email string) (ThrottleStatus, error) {
	email = NormalizeEmail(email)
	now := time.Now()
	since := now.Add(-LockoutWindow)

	failures, err := t.attempts.CountRecentFailures(ctx, email, since)
	if err != nil {
		return ThrottleStatus{}, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to count login attempts")
	}

	remaining := MaxLoginAttempts - failures
	if remaining < 0 {
		remaining = 0
	}

	if failures < MaxLoginAttempts {
		return ThrottleStatus{RemainingAttempts: remaining}, nil
	}

	lastFailure, err := t.attempts.LastFailureAt(ctx, email, since)
	if err != nil {
		return ThrottleStatus{}, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read last login failure")
	}

	if lastFailure == nil {
		// Counted failures but none in the window anymore; treat as clear.
		return ThrottleStatus{RemainingAttempts: MaxLoginAttempts}, nil
	}

	lockedUntil := lastFailure.Add(LockoutWindow)
	if !now.Before(lockedUntil) {
		// The lock expired on its own; a check does not renew it.
		return ThrottleStatus{RemainingAttempts: remaining}, nil
	}

	return ThrottleStatus{
		Locked:            true,
		LockedUntil:       lockedUntil,
		RemainingAttempts: 0,
	}, nil
}
