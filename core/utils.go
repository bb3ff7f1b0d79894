package core

import (
	"crypto/rand"
	"math/big"
	"strings"
)

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

const credentialChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!#%+=@_-"

// RandomCredential generates a high-entropy opaque secret of length n.
// It is never shown to the end user; remote accounts provisioned with it
// are accessed via platform SSO, not password login.
func RandomCredential(n int) (string, error) {
	max := big.NewInt(int64(len(credentialChars)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = credentialChars[idx.Int64()]
	}
	return string(b), nil
}
