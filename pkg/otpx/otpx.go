// Package otpx generates single-use verification codes: short numeric
// codes for email challenges and alphanumeric codes for invitations.
package otpx

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
)

const (
	// NumericMin and NumericMax bound the 6-digit code space. The lower
	// bound keeps a leading non-zero digit so codes survive naive
	// integer round-trips in clients.
	NumericMin = 100000
	NumericMax = 999999

	inviteAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// InviteCodeLength is the length of generated invitation codes.
	InviteCodeLength = 8
)

// Generator produces codes from a configurable entropy source. The zero
// source falls back to crypto/rand, which is what production uses; tests
// inject a deterministic reader.
type Generator struct {
	rand io.Reader
}

// New returns a Generator backed by crypto/rand.
func New() *Generator {
	return &Generator{rand: rand.Reader}
}

// NewWithRand returns a Generator reading entropy from r.
func NewWithRand(r io.Reader) *Generator {
	return &Generator{rand: r}
}

// Numeric returns a 6-digit code in [NumericMin, NumericMax].
func (g *Generator) Numeric() (string, error) {
	n, err := g.uint64n(NumericMax - NumericMin + 1)
	if err != nil {
		return "", fmt.Errorf("otpx: generate numeric code: %w", err)
	}
	return fmt.Sprintf("%06d", NumericMin+n), nil
}

// InviteCode returns an 8-character code from the uppercase
// alphanumeric alphabet.
func (g *Generator) InviteCode() (string, error) {
	buf := make([]byte, InviteCodeLength)
	for i := range buf {
		n, err := g.uint64n(uint64(len(inviteAlphabet)))
		if err != nil {
			return "", fmt.Errorf("otpx: generate invite code: %w", err)
		}
		buf[i] = inviteAlphabet[n]
	}
	return string(buf), nil
}

// uint64n returns a uniform value in [0, n) using rejection sampling to
// avoid modulo bias.
func (g *Generator) uint64n(n uint64) (uint64, error) {
	max := ^uint64(0) - (^uint64(0) % n)
	var b [8]byte
	for {
		if _, err := io.ReadFull(g.rand, b[:]); err != nil {
			return 0, err
		}
		v := binary.BigEndian.Uint64(b[:])
		if v < max {
			return v % n, nil
		}
	}
}
