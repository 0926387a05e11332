package ledger_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	ledger "github.com/goliatone/go-ledger"
)

func TestHTTPStatusFromError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		development bool
		wantStatus  int
		wantMessage string
	}{
		{
			name:        "auth errors are 401",
			err:         ledger.ErrInvalidCredentials,
			wantStatus:  401,
			wantMessage: "invalid credentials",
		},
		{
			name:        "conflicts are 400",
			err:         ledger.ErrDuplicateEmail,
			wantStatus:  400,
			wantMessage: "email already in use",
		},
		{
			name:        "not found is 404",
			err:         ledger.ErrUserNotFound,
			wantStatus:  404,
			wantMessage: "user not found",
		},
		{
			name:        "internal errors are redacted in production",
			err:         ledger.ErrMissingSigningSecret,
			wantStatus:  500,
			wantMessage: "internal server error",
		},
		{
			name:        "internal errors surface in development",
			err:         ledger.ErrMissingSigningSecret,
			development: true,
			wantStatus:  500,
			wantMessage: "jwt signing secret is not configured",
		},
		{
			name:        "plain errors are redacted in production",
			err:         errors.New("sql: connection refused"),
			wantStatus:  500,
			wantMessage: "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, message := ledger.HTTPStatusFromError(tt.err, tt.development)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantMessage, message)
		})
	}
}

func TestIsDuplicateKeyError(t *testing.T) {
	assert.True(t, ledger.IsDuplicateKeyError(errors.New("UNIQUE constraint failed: users.email")))
	assert.True(t, ledger.IsDuplicateKeyError(errors.New(`duplicate key value violates unique constraint "users_email_key"`)))
	assert.False(t, ledger.IsDuplicateKeyError(errors.New("no rows in result set")))
	assert.False(t, ledger.IsDuplicateKeyError(nil))
}

func TestHasTextCode(t *testing.T) {
	assert.True(t, ledger.HasTextCode(ledger.ErrDuplicateToken, "DUPLICATE_TOKEN"))
	assert.False(t, ledger.HasTextCode(ledger.ErrDuplicateToken, "DUPLICATE_EMAIL"))
	assert.False(t, ledger.HasTextCode(errors.New("plain"), "DUPLICATE_TOKEN"))
	assert.False(t, ledger.HasTextCode(nil, "DUPLICATE_TOKEN"))
}
