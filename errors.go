package ledger

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	textCodeInvalidCredentials = "INVALID_CREDENTIALS"
	textCodeDuplicateEmail     = "DUPLICATE_EMAIL"
	textCodeDuplicateToken     = "DUPLICATE_TOKEN"
	textCodeRefreshInvalid     = "INVALID_OR_REVOKED"
	textCodeRefreshExpired     = "EXPIRED"
	textCodeUserNotFound       = "USER_NOT_FOUND"
	textCodeMissingSecret      = "MISSING_SIGNING_SECRET"
)

// ErrInvalidCredentials is returned for both unknown emails and password
// mismatches so callers cannot probe which accounts exist.
var ErrInvalidCredentials = goerrors.New("invalid credentials", goerrors.CategoryAuth).
	WithTextCode(textCodeInvalidCredentials).
	WithCode(goerrors.CodeUnauthorized)

// ErrDuplicateEmail is returned when registering an email that is already taken.
var ErrDuplicateEmail = goerrors.New("email already in use", goerrors.CategoryConflict).
	WithTextCode(textCodeDuplicateEmail).
	WithCode(goerrors.CodeConflict)

// ErrDuplicateToken surfaces a refresh-token string colliding with a persisted
// row. SessionManager regenerates and retries once before giving up.
var ErrDuplicateToken = goerrors.New("refresh token already exists", goerrors.CategoryConflict).
	WithTextCode(textCodeDuplicateToken).
	WithCode(goerrors.CodeConflict)

// ErrRefreshTokenInvalid covers unknown and revoked refresh tokens alike.
var ErrRefreshTokenInvalid = goerrors.New("refresh token invalid or revoked", goerrors.CategoryAuth).
	WithTextCode(textCodeRefreshInvalid).
	WithCode(goerrors.CodeUnauthorized)

// ErrRefreshTokenNotFound is the storage-level miss; the session layer maps
// it to ErrRefreshTokenInvalid before it ever reaches a caller.
var ErrRefreshTokenNotFound = goerrors.New("refresh token not found", goerrors.CategoryNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrRefreshTokenExpired is returned once a persisted refresh token outlives
// its expiry. The row is also flipped to revoked, so retries keep failing.
var ErrRefreshTokenExpired = goerrors.New("refresh token expired", goerrors.CategoryAuth).
	WithTextCode(textCodeRefreshExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrUserNotFound is returned when a subject id no longer resolves to a user.
var ErrUserNotFound = goerrors.New("user not found", goerrors.CategoryNotFound).
	WithTextCode(textCodeUserNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrMissingSigningSecret is fatal at startup; tokens are never signed with a
// silently defaulted secret.
var ErrMissingSigningSecret = goerrors.New("jwt signing secret is not configured", goerrors.CategoryInternal).
	WithTextCode(textCodeMissingSecret)

// ErrNoEmptyString rejects hashing an empty password.
var ErrNoEmptyString = goerrors.New("value must not be empty", goerrors.CategoryBadInput)

// ErrMismatchedHashAndPassword is the normalized bcrypt mismatch failure.
var ErrMismatchedHashAndPassword = goerrors.New("password does not match", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized)

// HasTextCode reports whether err carries the given stable text code.
func HasTextCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.TextCode == code
	}
	return false
}

// IsDuplicateKeyError detects unique-constraint violations from the storage
// drivers we target (sqlite and postgres report them as plain errors).
func IsDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}

// HTTPStatusFromError maps the error taxonomy to a transport status plus a
// caller-safe message. Internal failures are redacted unless development is set.
func HTTPStatusFromError(err error, development bool) (int, string) {
	if err == nil {
		return 200, ""
	}

	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		if development {
			return 500, err.Error()
		}
		return 500, "internal server error"
	}

	switch richErr.Category {
	case goerrors.CategoryAuth:
		return 401, richErr.Message
	case goerrors.CategoryValidation, goerrors.CategoryBadInput:
		return 400, richErr.Message
	case goerrors.CategoryConflict:
		return 400, richErr.Message
	case goerrors.CategoryNotFound:
		return 404, richErr.Message
	default:
		if development {
			return 500, richErr.Message
		}
		return 500, "internal server error"
	}
}
