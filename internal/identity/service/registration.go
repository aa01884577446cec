package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/moneylegal/identity/internal/identity/domain"
	"github.com/moneylegal/identity/internal/identity/notify"
	"github.com/moneylegal/identity/internal/identity/store"
	"github.com/moneylegal/identity/pkg/cryptox"
	"github.com/moneylegal/identity/pkg/idx"
	"github.com/moneylegal/identity/pkg/slogx"
)

// Notifier queues a message for post-commit delivery.
type Notifier interface {
	Enqueue(msg notify.Message)
}

// AuthResult is what session-creating operations hand back to the HTTP
// layer: the identity, its default tenant context and a token pair.
type AuthResult struct {
	User       domain.User
	Tenant     domain.Tenant
	Membership domain.Membership
	Tokens     domain.TokenPair
}

// RegistrationService drives the signup funnel:
// pre-register -> code verification -> completion. A user row with a nil
// password hash marks an abandoned funnel that pre-register resumes.
type RegistrationService struct {
	Store  store.Store
	Tokens *TokenService
	OTP    *OTPService
	Notify Notifier
}

// PreRegister starts (or resumes) the funnel for an email and dispatches
// a fresh verification code. An email that already completed registration
// is rejected.
func (s *RegistrationService) PreRegister(ctx context.Context, name, email string) error {
	email = normalizeEmail(email)
	now := time.Now().UTC()

	var code, userID string
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		u, err := tx.Users().GetUserByEmail(ctx, email)
		switch {
		case err == nil:
			if u.PasswordHash != nil {
				return ErrAlreadyRegistered
			}
			// Abandoned funnel: update the name, no duplicate row.
			if u.Name != name {
				if err := tx.Users().UpdateName(ctx, u.ID, name); err != nil {
					return err
				}
			}
			userID = u.ID
		case errors.Is(err, store.ErrNotFound):
			userID = idx.New().String()
			u = domain.User{
				ID:        userID,
				Name:      name,
				Email:     email,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := tx.Users().CreateUser(ctx, u); err != nil {
				// Two funnels racing on the same email; the loser sees the
				// winner's row as a conflict.
				if errors.Is(err, store.ErrAlreadyExists) {
					return ErrAlreadyRegistered
				}
				return err
			}
		default:
			return err
		}

		code, err = s.OTP.Issue(ctx, tx, userID, now)
		return err
	})
	if err != nil {
		return err
	}

	s.Notify.Enqueue(notify.Message{
		Kind: notify.KindVerificationCode,
		To:   email,
		Vars: map[string]string{"code": code, "name": name},
	})
	return nil
}

// CheckEmail reports whether a fully-registered account exists for the
// email, matched case-insensitively.
func (s *RegistrationService) CheckEmail(ctx context.Context, email string) (bool, error) {
	return s.Store.Users().ExistsByEmailWithPassword(ctx, normalizeEmail(email))
}

// RegisterInput carries the completion request.
type RegisterInput struct {
	Name     string
	Email    string
	Phone    *string
	Password string
}

// Register completes the funnel. Two branches: a mid-funnel user row is
// promoted in place (requires a verified email and clears the code slot),
// and an unknown email takes the legacy direct path that creates a full
// account without email verification. Either way the personal tenant, its
// OWNER membership and the first token pair are written in one
// transaction; the welcome mail is queued only after commit and its
// failure is swallowed.
func (s *RegistrationService) Register(ctx context.Context, in RegisterInput) (AuthResult, error) {
	email := normalizeEmail(in.Email)
	now := time.Now().UTC()

	hash, err := cryptox.HashPassword(in.Password)
	if err != nil {
		return AuthResult{}, err
	}

	var res AuthResult
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		u, err := tx.Users().GetUserByEmail(ctx, email)
		switch {
		case err == nil:
			if u.PasswordHash != nil {
				return ErrAlreadyRegistered
			}
			if !u.EmailVerified {
				return ErrEmailNotVerified
			}
			if in.Phone != nil && (u.Phone == nil || *u.Phone != *in.Phone) {
				taken, err := tx.Users().ExistsByPhone(ctx, *in.Phone)
				if err != nil {
					return err
				}
				if taken {
					return ErrPhoneTaken
				}
			}
			if u.Name != in.Name {
				if err := tx.Users().UpdateName(ctx, u.ID, in.Name); err != nil {
					return err
				}
			}
			if err := tx.Users().CompleteRegistration(ctx, u.ID, hash, in.Phone); err != nil {
				return err
			}
			u.Name = in.Name
			u.Phone = in.Phone
			u.PasswordHash = &hash
			u.Active = true
			u.OTPCode = nil
			u.OTPExpiresAt = nil
		case errors.Is(err, store.ErrNotFound):
			// Legacy direct registration, no verification checkpoint.
			if in.Phone != nil {
				taken, err := tx.Users().ExistsByPhone(ctx, *in.Phone)
				if err != nil {
					return err
				}
				if taken {
					return ErrPhoneTaken
				}
			}
			u = domain.User{
				ID:           idx.New().String(),
				Name:         in.Name,
				Email:        email,
				Phone:        in.Phone,
				PasswordHash: &hash,
				Active:       true,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			if err := tx.Users().CreateUser(ctx, u); err != nil {
				if errors.Is(err, store.ErrAlreadyExists) {
					return ErrAlreadyRegistered
				}
				return err
			}
		default:
			return err
		}

		tenant, err := createTenantWithOwner(ctx, tx, u.ID, in.Name, domain.TenantPersonal, now)
		if err != nil {
			return err
		}
		membership, err := tx.Memberships().GetMembership(ctx, tenant.ID, u.ID)
		if err != nil {
			return err
		}

		pair, err := s.Tokens.MintPair(ctx, tx, u.ID, now)
		if err != nil {
			return err
		}

		res = AuthResult{User: u, Tenant: tenant, Membership: membership, Tokens: pair}
		return nil
	})
	if err != nil {
		return AuthResult{}, err
	}

	slogx.FromContext(ctx).Info("registration completed", "user_id", res.User.ID, "tenant_id", res.Tenant.ID)
	s.Notify.Enqueue(notify.Message{
		Kind: notify.KindWelcome,
		To:   email,
		Vars: map[string]string{"name": in.Name},
	})
	return res, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
