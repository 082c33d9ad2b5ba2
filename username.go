package signon

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
)

// Username syntax bounds. Applied after trimming surrounding whitespace.
const (
	UsernameMinLength = 3
	UsernameMaxLength = 30
)

var (
	usernameCharset   = regexp.MustCompile(`^[a-zA-Z0-9._]+$`)
	usernameStart     = regexp.MustCompile(`^[a-zA-Z0-9]`)
	usernameDoubleSep = regexp.MustCompile(`[._]{2}`)
)

// ReservedUsernames are rejected regardless of syntax. Hosts can extend
// this list before wiring the service.
var ReservedUsernames = []string{
	"admin",
	"administrator",
	"root",
	"support",
	"system",
}

// ValidateUsername validates and sanitizes a proposed username. The
// sanitized form is the trimmed, lower-cased input, nothing else: we never
// alter what the user typed beyond normalization. Pure and deterministic,
// no I/O.
//
// Rules, in evaluation order:
//   - required: non-empty after trimming
//   - length: between UsernameMinLength and UsernameMaxLength runes
//   - charset: letters, digits, "." and "_" only
//   - must start with a letter or digit
//   - no consecutive separators
//   - not a reserved name
//
// Failures return a nil sanitized value and a validation-category error
// with a rule-specific text code and a human readable message.
func ValidateUsername(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", usernameError("username is required", "USERNAME_REQUIRED")
	}

	if err := validation.Validate(trimmed,
		validation.RuneLength(UsernameMinLength, UsernameMaxLength).
			Error(fmt.Sprintf("username must be between %d and %d characters", UsernameMinLength, UsernameMaxLength)),
	); err != nil {
		return "", usernameError(err.Error(), "USERNAME_LENGTH")
	}

	if err := validation.Validate(trimmed,
		validation.Match(usernameCharset).
			Error("username can only contain letters, numbers, dots and underscores"),
	); err != nil {
		return "", usernameError(err.Error(), "USERNAME_CHARSET")
	}

	if !usernameStart.MatchString(trimmed) {
		return "", usernameError("username must start with a letter or number", "USERNAME_START")
	}

	if usernameDoubleSep.MatchString(trimmed) {
		return "", usernameError("username cannot contain consecutive dots or underscores", "USERNAME_SEPARATORS")
	}

	sanitized := strings.ToLower(trimmed)

	if slices.Contains(ReservedUsernames, sanitized) {
		return "", usernameError("username is reserved", "USERNAME_RESERVED")
	}

	return sanitized, nil
}

func usernameError(message, textCode string) *goerrors.Error {
	return goerrors.New(message, goerrors.CategoryValidation).
		WithTextCode(textCode).
		WithCode(goerrors.CodeBadRequest)
}
