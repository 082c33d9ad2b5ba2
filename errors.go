package signon

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = goerrors.New("identity not found", goerrors.CategoryAuth).
	WithTextCode("IDENTITY_NOT_FOUND").
	WithCode(goerrors.CodeUnauthorized)

// ErrMismatchedHashAndPassword is the credential rejection error. The
// message is what callers surface verbatim when the store gives no detail.
var ErrMismatchedHashAndPassword = goerrors.New("invalid credentials", goerrors.CategoryAuth).
	WithTextCode("INVALID_CREDENTIALS").
	WithCode(goerrors.CodeUnauthorized)

// ErrUnregisteredEmail refuses verification code dispatch for unknown
// addresses. The message is identical for lookup misses and disabled
// accounts so the dispatcher cannot be used to probe the user table.
var ErrUnregisteredEmail = goerrors.New("email not registered. Please sign up first", goerrors.CategoryAuth).
	WithTextCode("UNREGISTERED_EMAIL").
	WithCode(goerrors.CodeBadRequest)

// ErrCodeInvalid is returned when a submitted verification code does not
// match the pending code for the address.
var ErrCodeInvalid = goerrors.New("verification code is not valid", goerrors.CategoryValidation).
	WithTextCode("CODE_INVALID").
	WithCode(goerrors.CodeBadRequest)

// ErrCodeExpired is returned when the pending verification code exists but
// is outside its expiration window.
var ErrCodeExpired = goerrors.New("verification code has expired", goerrors.CategoryValidation).
	WithTextCode("CODE_EXPIRED").
	WithCode(goerrors.CodeBadRequest)

// ErrNoEmptyString rejects empty required inputs
var ErrNoEmptyString = goerrors.New("value should not be an empty string", goerrors.CategoryBadInput).
	WithTextCode("EMPTY_STRING")

// ErrTokenExpired is the error for expired session tokens
var ErrTokenExpired = goerrors.New("token is expired", goerrors.CategoryAuth).
	WithTextCode("TOKEN_EXPIRED").
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed is the error for tokens we cannot parse
var ErrTokenMalformed = goerrors.New("token is malformed", goerrors.CategoryAuth).
	WithTextCode("TOKEN_MALFORMED").
	WithCode(goerrors.CodeUnauthorized)

// ErrUnableToFindSession is the error when our request has no cookie
var ErrUnableToFindSession = goerrors.New("unable to find session", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized)

// ErrUnableToDecodeSession unable to decode JWT from session cookie
var ErrUnableToDecodeSession = goerrors.New("unable to decode session", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized)

// ErrUnableToMapClaims unable to get claims from token
var ErrUnableToMapClaims = goerrors.New("unable to map claims", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized)

const (
	textCodeDeliveryFailed = "DELIVERY_FAILED"
	textCodeUnexpected     = "UNEXPECTED_ERROR"
)

// NewDeliveryError wraps a provider failure, keeping the provider detail
// available to callers and logs.
func NewDeliveryError(cause error) *goerrors.Error {
	return goerrors.Wrap(cause, goerrors.CategoryOperation, "failed to deliver verification email").
		WithTextCode(textCodeDeliveryFailed)
}

// NewUnexpectedError converts a recovered or otherwise unclassified failure
// into the generic catch-all surfaced at the submission boundary.
func NewUnexpectedError(cause error) *goerrors.Error {
	return goerrors.Wrap(cause, goerrors.CategoryInternal, "unexpected error").
		WithTextCode(textCodeUnexpected)
}

// IsUnregisteredEmail will check for the dispatch precondition failure
// without string matching.
func IsUnregisteredEmail(err error) bool {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == ErrUnregisteredEmail.TextCode
}

// IsDeliveryError will check for provider-level delivery failures.
func IsDeliveryError(err error) bool {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == textCodeDeliveryFailed
}

// IsValidationError reports whether err came from local input validation,
// i.e. it never reached the network.
func IsValidationError(err error) bool {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.Category == goerrors.CategoryValidation ||
		richErr.Category == goerrors.CategoryBadInput
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
