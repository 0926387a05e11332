// Package authware guards fiber routes with bearer token authentication.
//
// The package never imports the root module: the token verifier and the user
// resolver arrive as interfaces mirrored here, wired by the caller. Every
// rejection carries a stable machine-readable code so clients can branch
// without parsing messages.
package authware

import (
	"context"
	"reflect"
	"strings"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// Rejection codes. These are part of the API contract; clients switch on them.
const (
	CodeMissingToken       = "MISSING_TOKEN"
	CodeInvalidTokenFormat = "INVALID_TOKEN_FORMAT"
	CodeInvalidScheme      = "INVALID_SCHEME"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeInvalidTokenType   = "INVALID_TOKEN_TYPE"
	CodeUserNotFound       = "USER_NOT_FOUND"
	CodeAuthError          = "AUTH_ERROR"
)

// DefaultContextKey is where the resolved user is stored in fiber locals.
const DefaultContextKey = "auth_user"

// Claims mirrors the verified token payload without importing the auth package.
type Claims interface {
	UserID() (uuid.UUID, error)
	IsAccess() bool
}

// User is the request-scoped principal stored in locals after a successful
// guard pass.
type User struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// Verifier checks a raw bearer token, returning nil claims for any failure.
type Verifier func(raw string) Claims

// UserResolver loads the principal behind a subject id. A not-found error
// (per goerrors.IsNotFound) rejects with CodeUserNotFound; anything else is
// CodeAuthError.
type UserResolver func(ctx context.Context, id uuid.UUID) (User, error)

type Config struct {
	Verify      Verifier
	ResolveUser UserResolver

	// ContextKey overrides DefaultContextKey.
	ContextKey string

	// Filter skips the guard entirely when it returns true.
	Filter func(c *fiber.Ctx) bool
}

func (cfg *Config) withDefaults() {
	if cfg.Verify == nil {
		panic("authware: Verify is required")
	}
	if cfg.ResolveUser == nil {
		panic("authware: ResolveUser is required")
	}
	if cfg.ContextKey == "" {
		cfg.ContextKey = DefaultContextKey
	}
}

// New returns the required guard: requests without a valid access token and a
// resolvable user never reach the handler.
func New(config Config) fiber.Handler {
	cfg := config
	cfg.withDefaults()

	return func(c *fiber.Ctx) error {
		if cfg.Filter != nil && cfg.Filter(c) {
			return c.Next()
		}

		user, code, err := authenticate(c, cfg)
		if err != nil {
			return reject(c, code, err)
		}

		c.Locals(cfg.ContextKey, user)
		return c.Next()
	}
}

// NewOptional returns the permissive guard: a valid token attaches the user,
// anything else leaves the request anonymous and lets it through. Handlers
// behind it branch on UserFromContext.
func NewOptional(config Config) fiber.Handler {
	cfg := config
	cfg.withDefaults()

	return func(c *fiber.Ctx) error {
		if cfg.Filter != nil && cfg.Filter(c) {
			return c.Next()
		}

		user, _, err := authenticate(c, cfg)
		if err == nil {
			c.Locals(cfg.ContextKey, user)
		}

		return c.Next()
	}
}

// UserFromContext retrieves the principal the guard stored, if any.
func UserFromContext(c *fiber.Ctx) (User, bool) {
	return UserFromContextKey(c, DefaultContextKey)
}

// UserFromContextKey is UserFromContext for a non-default context key.
func UserFromContextKey(c *fiber.Ctx, key string) (User, bool) {
	user, ok := c.Locals(key).(User)
	return user, ok
}

func authenticate(c *fiber.Ctx, cfg Config) (User, string, error) {
	raw, code, err := extractBearer(c)
	if err != nil {
		return User{}, code, err
	}

	claims := cfg.Verify(raw)
	if claims == nil || reflect.ValueOf(claims).IsZero() {
		return User{}, CodeInvalidToken, goerrors.New("invalid or expired token", goerrors.CategoryAuth)
	}

	if !claims.IsAccess() {
		return User{}, CodeInvalidTokenType, goerrors.New("token type not allowed here", goerrors.CategoryAuth)
	}

	userID, err := claims.UserID()
	if err != nil {
		return User{}, CodeInvalidToken, goerrors.New("token subject is not a valid id", goerrors.CategoryAuth)
	}

	user, err := cfg.ResolveUser(c.Context(), userID)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return User{}, CodeUserNotFound, goerrors.New("user no longer exists", goerrors.CategoryAuth)
		}
		return User{}, CodeAuthError, goerrors.Wrap(err, goerrors.CategoryInternal, "could not resolve user")
	}

	return user, "", nil
}

// extractBearer pulls the token out of the Authorization header. The format
// checks are ordered so each failure maps to exactly one code: absent header,
// wrong shape, wrong scheme.
func extractBearer(c *fiber.Ctx) (string, string, error) {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return "", CodeMissingToken, goerrors.New("authorization header required", goerrors.CategoryAuth)
	}

	parts := strings.Split(header, " ")
	if len(parts) != 2 {
		return "", CodeInvalidTokenFormat, goerrors.New("authorization header format must be Bearer {token}", goerrors.CategoryAuth)
	}

	if !strings.EqualFold(parts[0], "Bearer") {
		return "", CodeInvalidScheme, goerrors.New("authorization scheme must be Bearer", goerrors.CategoryAuth)
	}

	return parts[1], "", nil
}

func reject(c *fiber.Ctx, code string, err error) error {
	status := fiber.StatusUnauthorized
	if code == CodeAuthError {
		status = fiber.StatusInternalServerError
	}

	message := "unauthorized"
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		message = richErr.Message
	}

	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   message,
		"code":    code,
	})
}
