package jwtx

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Classification errors. Each maps to a distinct caller-visible code so
// clients can tell "silently refresh" apart from "discard and re-login".
var (
	ErrEmpty       = errors.New("jwtx: empty token")
	ErrExpired     = errors.New("jwtx: token expired")
	ErrInvalidSig  = errors.New("jwtx: invalid signature")
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrUnsupported = errors.New("jwtx: unsupported token")
	ErrIssuer      = errors.New("jwtx: issuer mismatch")
	ErrUnknown     = errors.New("jwtx: invalid token")
)

// MinKeyBytes is the minimum symmetric key material for HS512: the full
// 512-bit block, anything shorter weakens the MAC.
const MinKeyBytes = 64

// HS512 signs and verifies access tokens with a single symmetric key.
type HS512 struct {
	key    []byte
	issuer string
}

// NewHS512 builds a signer/verifier from a base64url-encoded key with at
// least MinKeyBytes of decoded material.
func NewHS512(encodedKey, issuer string) (*HS512, error) {
	key, err := base64.RawURLEncoding.DecodeString(encodedKey)
	if err != nil {
		// Accept standard encoding too; keys come from config files.
		key, err = base64.StdEncoding.DecodeString(encodedKey)
		if err != nil {
			return nil, fmt.Errorf("jwtx: decode signing key: %w", err)
		}
	}
	if len(key) < MinKeyBytes {
		return nil, fmt.Errorf("jwtx: signing key too short: need %d bytes, got %d", MinKeyBytes, len(key))
	}
	return &HS512{key: key, issuer: issuer}, nil
}

// Sign produces a compact HS512 JWT for the given claims.
func (h *HS512) Sign(claims Claims) (string, error) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	return tok.SignedString(h.key)
}

// Verify parses and validates a token, returning classified errors:
// ErrEmpty, ErrExpired, ErrInvalidSig, ErrMalformed, ErrUnsupported,
// ErrIssuer or ErrUnknown.
func (h *HS512) Verify(token string) (Claims, error) {
	if token == "" {
		return Claims{}, ErrEmpty
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrUnsupported
		}
		return h.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}))
	if err != nil {
		return Claims{}, classify(err)
	}

	if h.issuer != "" && claims.Issuer != h.issuer {
		return Claims{}, ErrIssuer
	}

	return claims, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrInvalidSig
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformed
	case errors.Is(err, jwt.ErrTokenUnverifiable), errors.Is(err, ErrUnsupported):
		return ErrUnsupported
	default:
		return ErrUnknown
	}
}
