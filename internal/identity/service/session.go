package service

import (
	"context"
	"errors"
	"time"

	"github.com/moneylegal/identity/internal/identity/domain"
	"github.com/moneylegal/identity/internal/identity/store"
	"github.com/moneylegal/identity/pkg/cryptox"
	"github.com/moneylegal/identity/pkg/slogx"
)

// SessionService owns login, refresh rotation and logout.
type SessionService struct {
	Store  store.Store
	Tokens *TokenService
}

// Login authenticates an email/password pair and opens a session. All
// credential failures (unknown email, wrong password, inactive account)
// collapse into ErrInvalidCredentials; a missing tenant membership is the
// one distinct failure since it signals broken data, not a user mistake.
func (s *SessionService) Login(ctx context.Context, email, password string) (AuthResult, error) {
	email = normalizeEmail(email)
	now := time.Now().UTC()
	log := slogx.FromContext(ctx)

	u, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, err
	}
	if u.PasswordHash == nil || cryptox.VerifyPassword(password, *u.PasswordHash) != nil {
		log.Info("login rejected", "user_id", u.ID)
		return AuthResult{}, ErrInvalidCredentials
	}
	if !u.Active {
		log.Info("login rejected for inactive account", "user_id", u.ID)
		return AuthResult{}, ErrInvalidCredentials
	}

	tenant, membership, err := defaultTenant(ctx, s.Store, u.ID)
	if err != nil {
		return AuthResult{}, err
	}

	var pair domain.TokenPair
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().TouchLastLogin(ctx, u.ID, now); err != nil {
			return err
		}
		pair, err = s.Tokens.MintPair(ctx, tx, u.ID, now)
		return err
	})
	if err != nil {
		return AuthResult{}, err
	}

	u.LastLoginAt = &now
	return AuthResult{User: u, Tenant: tenant, Membership: membership, Tokens: pair}, nil
}

// Refresh rotates a refresh token: the presented token is consumed and a
// brand-new pair is issued. Consumption is single-winner, so a replayed
// token gets ErrInvalidRefresh even when the race is exact. The tenant
// lookup happens inside the same transaction, so a user with no active
// membership left keeps their presented token.
func (s *SessionService) Refresh(ctx context.Context, rawToken string) (AuthResult, error) {
	now := time.Now().UTC()

	var res AuthResult
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		row, err := s.Tokens.Consume(ctx, tx, rawToken, now)
		if err != nil {
			return err
		}

		u, err := tx.Users().GetUserByID(ctx, row.UserID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidRefresh
			}
			return err
		}
		if !u.Active {
			return ErrInvalidRefresh
		}

		tenant, membership, err := defaultTenant(ctx, tx, u.ID)
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
	return res, nil
}

// Logout revokes exactly the presented refresh token. Idempotent.
func (s *SessionService) Logout(ctx context.Context, rawToken string) error {
	return s.Tokens.RevokeOne(ctx, s.Store, rawToken, time.Now().UTC())
}

// LogoutAll revokes every live refresh token the user owns in one
// atomic statement.
func (s *SessionService) LogoutAll(ctx context.Context, userID string) error {
	return s.Tokens.RevokeAll(ctx, s.Store, userID, time.Now().UTC())
}

// defaultTenant picks the user's earliest active membership. The store
// orders by joined_at then id, so the selection is deterministic.
func defaultTenant(ctx context.Context, st store.Store, userID string) (domain.Tenant, domain.Membership, error) {
	members, err := st.Memberships().ListActiveByUser(ctx, userID)
	if err != nil {
		return domain.Tenant{}, domain.Membership{}, err
	}
	if len(members) == 0 {
		return domain.Tenant{}, domain.Membership{}, ErrNoMembership
	}
	m := members[0]
	t, err := st.Tenants().GetTenantByID(ctx, m.TenantID)
	if err != nil {
		return domain.Tenant{}, domain.Membership{}, err
	}
	return t, m, nil
}
