package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	alphanumericChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	digitChars        = "0123456789"
)

// generateRandomString produces a cryptographically random string of the
// given length, digits-only when numeric is true. Used for the 6-digit
// verification code and the 20-char password reset code.
func generateRandomString(length int, numeric bool) (string, error) {
	charset := alphanumericChars
	if numeric {
		charset = digitChars
	}

	max := big.NewInt(int64(len(charset)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate random string: %w", err)
		}
		out[i] = charset[n.Int64()]
	}
	return string(out), nil
}
