package jwtx

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestKey(t *testing.T) string {
	t.Helper()
	key := make([]byte, MinKeyBytes)
	for i := range key {
		key[i] = byte(i)
	}
	return base64.RawURLEncoding.EncodeToString(key)
}

func TestNewHS512_KeyValidation(t *testing.T) {
	t.Parallel()

	t.Run("rejects short keys", func(t *testing.T) {
		short := base64.RawURLEncoding.EncodeToString(make([]byte, 32))
		_, err := NewHS512(short, "issuer")
		require.Error(t, err)
	})

	t.Run("rejects undecodable keys", func(t *testing.T) {
		_, err := NewHS512("!!!not-base64!!!", "issuer")
		require.Error(t, err)
	})

	t.Run("accepts raw-url encoding", func(t *testing.T) {
		_, err := NewHS512(newTestKey(t), "issuer")
		require.NoError(t, err)
	})

	t.Run("accepts standard encoding with padding", func(t *testing.T) {
		std := base64.StdEncoding.EncodeToString(make([]byte, MinKeyBytes))
		_, err := NewHS512(std, "issuer")
		require.NoError(t, err)
	})
}

func TestHS512_SignVerifyRoundTrip(t *testing.T) {
	t.Parallel()

	h, err := NewHS512(newTestKey(t), "test-issuer")
	require.NoError(t, err)

	now := time.Now().UTC()
	claims := NewAccessClaims("user-123", "test-issuer", time.Minute, now)

	token, err := h.Sign(claims)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := h.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "user-123", got.Subject)
	require.Equal(t, "test-issuer", got.Issuer)
	require.NotEmpty(t, got.ID)
}

func TestHS512_VerifyClassification(t *testing.T) {
	t.Parallel()

	key := newTestKey(t)
	h, err := NewHS512(key, "test-issuer")
	require.NoError(t, err)

	now := time.Now().UTC()

	t.Run("empty token", func(t *testing.T) {
		_, err := h.Verify("")
		require.ErrorIs(t, err, ErrEmpty)
	})

	t.Run("expired token", func(t *testing.T) {
		claims := NewAccessClaims("user-123", "test-issuer", -time.Minute, now.Add(-2*time.Minute))
		token, err := h.Sign(claims)
		require.NoError(t, err)

		_, err = h.Verify(token)
		require.ErrorIs(t, err, ErrExpired)
	})

	t.Run("signature from another key", func(t *testing.T) {
		otherKey := make([]byte, MinKeyBytes)
		for i := range otherKey {
			otherKey[i] = byte(255 - i)
		}
		other, err := NewHS512(base64.RawURLEncoding.EncodeToString(otherKey), "test-issuer")
		require.NoError(t, err)

		token, err := other.Sign(NewAccessClaims("user-123", "test-issuer", time.Minute, now))
		require.NoError(t, err)

		_, err = h.Verify(token)
		require.ErrorIs(t, err, ErrInvalidSig)
	})

	t.Run("malformed token", func(t *testing.T) {
		_, err := h.Verify("not.a.token.at.all")
		require.ErrorIs(t, err, ErrMalformed)

		_, err = h.Verify("garbage")
		require.ErrorIs(t, err, ErrMalformed)
	})

	t.Run("issuer mismatch", func(t *testing.T) {
		foreign, err := NewHS512(key, "other-issuer")
		require.NoError(t, err)

		token, err := foreign.Sign(NewAccessClaims("user-123", "other-issuer", time.Minute, now))
		require.NoError(t, err)

		_, err = h.Verify(token)
		require.ErrorIs(t, err, ErrIssuer)
	})

	t.Run("tampered payload", func(t *testing.T) {
		token, err := h.Sign(NewAccessClaims("user-123", "test-issuer", time.Minute, now))
		require.NoError(t, err)

		tampered := token[:len(token)-4] + "AAAA"
		_, err = h.Verify(tampered)
		require.Error(t, err)
	})
}
