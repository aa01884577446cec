package service

import (
	"context"
	"errors"
	"time"

	"github.com/moneylegal/identity/internal/identity/notify"
	"github.com/moneylegal/identity/internal/identity/store"
	"github.com/moneylegal/identity/pkg/cryptox"
	"github.com/moneylegal/identity/pkg/slogx"
)

// PasswordResetService drives the forgot/verify/reset flow. The same code
// slot doubles as the funnel's email-verification checkpoint, which is
// why verification alone never consumes the code.
type PasswordResetService struct {
	Store  store.Store
	OTP    *OTPService
	Tokens *TokenService
	Notify Notifier
}

// ForgotPassword issues a fresh reset code and queues its delivery. The
// response shape never reveals whether the email exists: unknown emails
// and internal failures alike return nil and are only logged.
func (s *PasswordResetService) ForgotPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	now := time.Now().UTC()
	log := slogx.FromContext(ctx)

	var code, name string
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		u, err := tx.Users().GetUserByEmail(ctx, email)
		if err != nil {
			return err
		}
		name = u.Name
		code, err = s.OTP.Issue(ctx, tx, u.ID, now)
		return err
	})
	switch {
	case errors.Is(err, store.ErrNotFound):
		log.Info("forgot-password for unknown email")
		return nil
	case err != nil:
		log.Error("forgot-password failed", "err", err)
		return nil
	}

	s.Notify.Enqueue(notify.Message{
		Kind: notify.KindPasswordReset,
		To:   email,
		Vars: map[string]string{"code": code, "name": name},
	})
	return nil
}

// VerifyResetCode checks a submitted code without consuming it. During
// the signup funnel (no password hash yet) a valid code additionally
// marks the email verified; the code stays in place for the completion
// step to clear.
func (s *PasswordResetService) VerifyResetCode(ctx context.Context, email, code string) (bool, error) {
	email = normalizeEmail(email)
	now := time.Now().UTC()

	u, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	if s.OTP.Check(u, code, now) != OTPValid {
		return false, nil
	}

	if u.PasswordHash == nil && !u.EmailVerified {
		if err := s.Store.Users().MarkEmailVerified(ctx, u.ID); err != nil {
			return false, err
		}
	}
	return true, nil
}

// ResetPassword consumes a valid code, installs the new password hash and
// unconditionally revokes every live refresh token the user owns.
func (s *PasswordResetService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	email = normalizeEmail(email)
	now := time.Now().UTC()

	u, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidResetCode
		}
		return err
	}
	if s.OTP.Check(u, code, now) != OTPValid {
		return ErrInvalidResetCode
	}

	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return err
	}

	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		// Guarded clear: a concurrent reset racing on the same code loses
		// here and surfaces as an invalid code.
		if err := s.OTP.Clear(ctx, tx, u.ID, code); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidResetCode
			}
			return err
		}
		if err := tx.Users().UpdatePasswordHash(ctx, u.ID, hash); err != nil {
			return err
		}
		return s.Tokens.RevokeAll(ctx, tx, u.ID, now)
	})
}
