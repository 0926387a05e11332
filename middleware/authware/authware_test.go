package authware_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/goliatone/go-ledger/middleware/authware"
)

type stubClaims struct {
	userID uuid.UUID
	access bool
	badSub bool
}

func (c stubClaims) UserID() (uuid.UUID, error) {
	if c.badSub {
		return uuid.Nil, errors.New("invalid subject")
	}
	return c.userID, nil
}

func (c stubClaims) IsAccess() bool { return c.access }

type guardFixture struct {
	knownUser  authware.User
	verify     map[string]stubClaims
	resolveErr error
}

func (f *guardFixture) config() authware.Config {
	return authware.Config{
		Verify: func(raw string) authware.Claims {
			claims, ok := f.verify[raw]
			if !ok {
				return nil
			}
			return claims
		},
		ResolveUser: func(ctx context.Context, id uuid.UUID) (authware.User, error) {
			if f.resolveErr != nil {
				return authware.User{}, f.resolveErr
			}
			if id != f.knownUser.ID {
				return authware.User{}, goerrors.New("user not found", goerrors.CategoryNotFound)
			}
			return f.knownUser, nil
		},
	}
}

func newGuardFixture() *guardFixture {
	userID := uuid.New()
	return &guardFixture{
		knownUser: authware.User{ID: userID, Name: "Ada", Email: "ada@example.com"},
		verify: map[string]stubClaims{
			"valid-access":  {userID: userID, access: true},
			"valid-refresh": {userID: userID, access: false},
			"unknown-user":  {userID: uuid.New(), access: true},
			"bad-subject":   {access: true, badSub: true},
		},
	}
}

func performRequest(t *testing.T, app *fiber.App, authorization string) (*http.Response, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	resp, err := app.Test(req)
	assert.NoError(t, err)

	body := map[string]any{}
	raw, err := io.ReadAll(resp.Body)
	assert.NoError(t, err)
	if len(raw) > 0 {
		assert.NoError(t, json.Unmarshal(raw, &body))
	}

	return resp, body
}

func TestGuard(t *testing.T) {
	tests := []struct {
		name          string
		authorization string
		wantStatus    int
		wantCode      string
	}{
		{
			name:          "missing header",
			authorization: "",
			wantStatus:    fiber.StatusUnauthorized,
			wantCode:      authware.CodeMissingToken,
		},
		{
			name:          "scheme without token",
			authorization: "Bearer",
			wantStatus:    fiber.StatusUnauthorized,
			wantCode:      authware.CodeInvalidTokenFormat,
		},
		{
			name:          "too many segments",
			authorization: "Bearer one two",
			wantStatus:    fiber.StatusUnauthorized,
			wantCode:      authware.CodeInvalidTokenFormat,
		},
		{
			name:          "double space between scheme and token",
			authorization: "Bearer  valid-access",
			wantStatus:    fiber.StatusUnauthorized,
			wantCode:      authware.CodeInvalidTokenFormat,
		},
		{
			name:          "wrong scheme",
			authorization: "Token valid-access",
			wantStatus:    fiber.StatusUnauthorized,
			wantCode:      authware.CodeInvalidScheme,
		},
		{
			name:          "unverifiable token",
			authorization: "Bearer garbage",
			wantStatus:    fiber.StatusUnauthorized,
			wantCode:      authware.CodeInvalidToken,
		},
		{
			name:          "unparseable subject",
			authorization: "Bearer bad-subject",
			wantStatus:    fiber.StatusUnauthorized,
			wantCode:      authware.CodeInvalidToken,
		},
		{
			name:          "refresh token as bearer",
			authorization: "Bearer valid-refresh",
			wantStatus:    fiber.StatusUnauthorized,
			wantCode:      authware.CodeInvalidTokenType,
		},
		{
			name:          "user no longer exists",
			authorization: "Bearer unknown-user",
			wantStatus:    fiber.StatusUnauthorized,
			wantCode:      authware.CodeUserNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fixture := newGuardFixture()
			app := fiber.New()
			app.Get("/protected", authware.New(fixture.config()), func(c *fiber.Ctx) error {
				return c.SendString("ok")
			})

			resp, body := performRequest(t, app, tt.authorization)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantCode, body["code"])
			assert.Equal(t, false, body["success"])
		})
	}

	t.Run("valid token reaches the handler with the user attached", func(t *testing.T) {
		fixture := newGuardFixture()
		app := fiber.New()
		app.Get("/protected", authware.New(fixture.config()), func(c *fiber.Ctx) error {
			user, ok := authware.UserFromContext(c)
			assert.True(t, ok)
			assert.Equal(t, fixture.knownUser, user)
			return c.JSON(fiber.Map{"success": true})
		})

		resp, body := performRequest(t, app, "Bearer valid-access")
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, true, body["success"])
	})

	t.Run("resolver failure is a server error", func(t *testing.T) {
		fixture := newGuardFixture()
		fixture.resolveErr = errors.New("db is down")

		app := fiber.New()
		app.Get("/protected", authware.New(fixture.config()), func(c *fiber.Ctx) error {
			return c.SendString("ok")
		})

		resp, body := performRequest(t, app, "Bearer valid-access")
		assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, authware.CodeAuthError, body["code"])
	})
}

func TestOptionalGuard(t *testing.T) {
	handler := func(c *fiber.Ctx) error {
		user, ok := authware.UserFromContext(c)
		return c.JSON(fiber.Map{
			"success":       true,
			"authenticated": ok,
			"email":         user.Email,
		})
	}

	tests := []struct {
		name          string
		authorization string
		authenticated bool
	}{
		{"no header stays anonymous", "", false},
		{"garbage token stays anonymous", "Bearer garbage", false},
		{"refresh token stays anonymous", "Bearer valid-refresh", false},
		{"valid token attaches the user", "Bearer valid-access", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fixture := newGuardFixture()
			app := fiber.New()
			app.Get("/protected", authware.NewOptional(fixture.config()), handler)

			resp, body := performRequest(t, app, tt.authorization)
			assert.Equal(t, fiber.StatusOK, resp.StatusCode)
			assert.Equal(t, tt.authenticated, body["authenticated"])
			if tt.authenticated {
				assert.Equal(t, fixture.knownUser.Email, body["email"])
			}
		})
	}
}

func TestGuardConfigDefaults(t *testing.T) {
	t.Run("missing verifier panics", func(t *testing.T) {
		assert.Panics(t, func() {
			authware.New(authware.Config{
				ResolveUser: func(context.Context, uuid.UUID) (authware.User, error) {
					return authware.User{}, nil
				},
			})
		})
	})

	t.Run("missing resolver panics", func(t *testing.T) {
		assert.Panics(t, func() {
			authware.New(authware.Config{
				Verify: func(string) authware.Claims { return nil },
			})
		})
	})
}
