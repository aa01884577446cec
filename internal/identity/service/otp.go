package service

import (
	"context"
	"time"

	"github.com/moneylegal/identity/internal/identity/domain"
	"github.com/moneylegal/identity/internal/identity/store"
	"github.com/moneylegal/identity/pkg/otpx"
)

// DefaultOTPTTL is the absolute lifetime of an issued code.
const DefaultOTPTTL = 15 * time.Minute

// OTPVerdict is the outcome of checking a submitted code. Every branch is
// a distinct value so callers cannot accidentally treat a stale code as
// valid.
type OTPVerdict int

const (
	OTPValid OTPVerdict = iota
	OTPNoCodeIssued
	OTPExpired
	OTPMismatch
)

func (v OTPVerdict) String() string {
	switch v {
	case OTPValid:
		return "valid"
	case OTPNoCodeIssued:
		return "no_code_issued"
	case OTPExpired:
		return "expired"
	default:
		return "mismatch"
	}
}

// OTPService issues and checks the single-slot verification code bound to
// a user. Issuing overwrites any prior unconsumed code; there is no code
// history.
type OTPService struct {
	Generator *otpx.Generator
	TTL       time.Duration
}

func (s *OTPService) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return DefaultOTPTTL
}

// Issue stores a fresh 6-digit code for the user and returns it for
// dispatch. Any previously issued, unconsumed code stops validating.
func (s *OTPService) Issue(ctx context.Context, st store.Store, userID string, now time.Time) (string, error) {
	code, err := s.Generator.Numeric()
	if err != nil {
		return "", err
	}
	if err := st.Users().SetOTP(ctx, userID, code, now.Add(s.ttl())); err != nil {
		return "", err
	}
	return code, nil
}

// Check classifies a submitted code against the user's stored slot. Pure
// on the user snapshot: consuming the code is the caller's explicit step,
// so a code verified for an intermediate checkpoint stays usable by the
// step that finally clears it.
func (s *OTPService) Check(u domain.User, submitted string, now time.Time) OTPVerdict {
	if u.OTPCode == nil || u.OTPExpiresAt == nil {
		return OTPNoCodeIssued
	}
	if now.After(*u.OTPExpiresAt) {
		return OTPExpired
	}
	if *u.OTPCode != submitted {
		return OTPMismatch
	}
	return OTPValid
}

// Clear consumes the code. The store guard on the stored value makes the
// clear single-winner under concurrency; a loser sees store.ErrNotFound.
func (s *OTPService) Clear(ctx context.Context, st store.Store, userID, code string) error {
	return st.Users().ClearOTP(ctx, userID, code)
}
