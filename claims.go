package ledger

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenKind discriminates access from refresh bearer tokens
type TokenKind = string

const (
	// TokenKindAccess authorizes API calls directly
	TokenKindAccess TokenKind = "access"
	// TokenKindRefresh only mints new access tokens, gated by persisted state
	TokenKindRefresh TokenKind = "refresh"
)

// TokenClaims is the signed payload of every bearer token: a registered claim
// set plus the type discriminator. Claims coming out of Decode are untrusted;
// only Verify output may authorize anything.
type TokenClaims struct {
	jwt.RegisteredClaims
	TokenType TokenKind `json:"type,omitempty"`
}

// TokenKind returns the type discriminator.
func (c *TokenClaims) TokenKind() TokenKind {
	return c.TokenType
}

// UserID parses the subject claim into the owning user id.
func (c *TokenClaims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.RegisteredClaims.Subject)
}

// IsAccess reports whether the token may authorize API calls.
func (c *TokenClaims) IsAccess() bool {
	return c.TokenType == TokenKindAccess
}

// IsRefresh reports whether the token is a refresh credential.
func (c *TokenClaims) IsRefresh() bool {
	return c.TokenType == TokenKindRefresh
}

// Expires returns the expiration time, zero when absent.
func (c *TokenClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

func ensureTokenID(claims *jwt.RegisteredClaims) {
	if claims.ID == "" {
		claims.ID = uuid.NewString()
	}
}
