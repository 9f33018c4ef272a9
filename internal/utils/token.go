package utils

import (
	"crypto/rand"
	"fmt"
)

// AccessTokenPrefix is the fixed prefix of every participation access token.
const AccessTokenPrefix = "JPG-FF-"

const (
	tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	tokenLength   = 5
)

// GenerateAccessToken mints a participation access token: the fixed prefix
// followed by 5 random characters drawn from [A-Z0-9]. Collisions are not
// checked here; the unique index on participations.unique_token surfaces one
// as a write error instead of a silent duplicate.
func GenerateAccessToken() (string, error) {
	// Bytes at or above the largest multiple of the alphabet size are
	// rejected; reducing them modulo 36 would skew the draw towards the
	// first characters of the alphabet.
	const limit = 256 - 256%len(tokenAlphabet)

	out := make([]byte, 0, tokenLength)
	buf := make([]byte, 2*tokenLength)
	for len(out) < tokenLength {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("access token entropy: %w", err)
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, tokenAlphabet[int(b)%len(tokenAlphabet)])
			if len(out) == tokenLength {
				break
			}
		}
	}

	return AccessTokenPrefix + string(out), nil
}
