package service

import (
	"context"
	"errors"
	"time"

	"github.com/moneylegal/identity/internal/identity/domain"
	"github.com/moneylegal/identity/internal/identity/store"
	"github.com/moneylegal/identity/pkg/cryptox"
	"github.com/moneylegal/identity/pkg/idx"
	"github.com/moneylegal/identity/pkg/jwtx"
)

// TokenSigner signs access-token claims.
type TokenSigner interface {
	Sign(claims jwtx.Claims) (string, error)
}

// TokenService mints access/refresh pairs and manages refresh rotation.
// Access tokens are signed JWTs; refresh tokens are opaque random strings
// persisted only as SHA-256 fingerprints.
type TokenService struct {
	Signer     TokenSigner
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func (s *TokenService) accessTTL() time.Duration {
	if s.AccessTTL > 0 {
		return s.AccessTTL
	}
	return jwtx.DefaultAccessTokenTTL
}

func (s *TokenService) refreshTTL() time.Duration {
	if s.RefreshTTL > 0 {
		return s.RefreshTTL
	}
	return jwtx.DefaultRefreshTokenTTL
}

// MintPair issues a signed access token and a fresh refresh token for the
// user, persisting the refresh fingerprint through the given store. Call
// with a Tx-scoped store when the mint is part of a larger mutation.
func (s *TokenService) MintPair(ctx context.Context, st store.Store, userID string, now time.Time) (domain.TokenPair, error) {
	claims := jwtx.NewAccessClaims(userID, s.Issuer, s.accessTTL(), now)
	access, err := s.Signer.Sign(claims)
	if err != nil {
		return domain.TokenPair{}, err
	}

	opaque, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return domain.TokenPair{}, err
	}

	row := domain.RefreshToken{
		ID:        idx.New().String(),
		UserID:    userID,
		TokenHash: cryptox.FingerprintToken(opaque),
		ExpiresAt: now.Add(s.refreshTTL()),
		CreatedAt: now,
	}
	if err := st.RefreshTokens().CreateRefreshToken(ctx, row); err != nil {
		return domain.TokenPair{}, err
	}

	return domain.TokenPair{
		AccessToken:  access,
		RefreshToken: opaque,
		TokenType:    "Bearer",
		ExpiresIn:    s.accessTTL(),
	}, nil
}

// Consume revokes the presented refresh token if it is still live and
// returns its row. Exactly one of any concurrent callers presenting the
// same token succeeds; the rest get ErrInvalidRefresh, indistinguishable
// from a genuinely stale token.
func (s *TokenService) Consume(ctx context.Context, st store.Store, rawToken string, now time.Time) (domain.RefreshToken, error) {
	hash := cryptox.FingerprintToken(rawToken)

	row, err := st.RefreshTokens().GetRefreshTokenByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.RefreshToken{}, ErrInvalidRefresh
		}
		return domain.RefreshToken{}, err
	}
	if !row.Live(now) {
		return domain.RefreshToken{}, ErrInvalidRefresh
	}

	// Guarded update; the single winner of a race sees rows-affected=1.
	if err := st.RefreshTokens().ConsumeRefreshToken(ctx, hash, now); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.RefreshToken{}, ErrInvalidRefresh
		}
		return domain.RefreshToken{}, err
	}

	return row, nil
}

// RevokeOne revokes exactly the presented token (logout). Unknown tokens
// are a no-op so logout stays idempotent.
func (s *TokenService) RevokeOne(ctx context.Context, st store.Store, rawToken string, now time.Time) error {
	hash := cryptox.FingerprintToken(rawToken)
	err := st.RefreshTokens().RevokeRefreshToken(ctx, hash, now)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return err
}

// RevokeAll revokes every live refresh token owned by the user in one
// statement (logout-all, password reset).
func (s *TokenService) RevokeAll(ctx context.Context, st store.Store, userID string, now time.Time) error {
	return st.RefreshTokens().RevokeAllUserRefreshTokens(ctx, userID, now)
}
