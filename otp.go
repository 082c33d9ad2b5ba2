package signon

import (
	"crypto/rand"
	"math/big"

	goerrors "github.com/goliatone/go-errors"
)

// DefaultOTPLength is the number of digits in a generated code.
const DefaultOTPLength = 6

// GenerateOTP returns a numeric one-time passcode of the given length,
// using crypto/rand. Lengths below 4 are clamped to DefaultOTPLength so a
// misconfigured host never weakens codes.
func GenerateOTP(length int) (string, error) {
	if length < 4 {
		length = DefaultOTPLength
	}

	digits := make([]byte, length)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate verification code")
		}
		digits[i] = byte('0' + n.Int64())
	}

	return string(digits), nil
}
