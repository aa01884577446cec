package domain

import "time"

// User is an identity record. A user with a non-nil PasswordHash and
// Active=true has completed registration; a nil PasswordHash means the
// signup funnel was started but never finished.
type User struct {
	ID            string
	Name          string
	Email         string // stored lowercased, matched case-insensitively
	Phone         *string
	PasswordHash  *string // argon2id encoded, nil while mid-funnel
	EmailVerified bool
	PhoneVerified bool
	Active        bool
	OTPCode       *string    // single active code, nil when consumed
	OTPExpiresAt  *time.Time // set and cleared together with OTPCode
	LastLoginAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Registered reports whether the user finished the signup funnel.
func (u User) Registered() bool {
	return u.PasswordHash != nil && u.Active
}
