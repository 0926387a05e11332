package ledger

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

const (
	// DefaultAccessTokenTTL is the access token lifetime when none is configured.
	DefaultAccessTokenTTL = 15 * time.Minute
	// DefaultRefreshTokenTTL is the refresh token lifetime when none is configured.
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// TokenService mints and verifies HS256 bearer tokens carrying a subject id
// and a type discriminator. Verification is pure and stateless.
type TokenService struct {
	signingKey []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	issuer     string
	logger     Logger
}

// NewTokenService creates a TokenService. An empty signing key is a
// configuration error, never silently defaulted.
func NewTokenService(signingKey []byte, accessTTL, refreshTTL time.Duration, issuer string, logger Logger) (*TokenService, error) {
	if len(signingKey) == 0 {
		return nil, ErrMissingSigningSecret
	}
	if logger == nil {
		logger = defLogger{}
	}
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTokenTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTokenTTL
	}

	return &TokenService{
		signingKey: signingKey,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		issuer:     issuer,
		logger:     logger,
	}, nil
}

// WithLogger replaces the service logger.
func (ts *TokenService) WithLogger(logger Logger) *TokenService {
	if logger != nil {
		ts.logger = logger
	}
	return ts
}

// AccessTokenTTL returns the configured access token lifetime.
func (ts *TokenService) AccessTokenTTL() time.Duration {
	return ts.accessTTL
}

// RefreshTokenTTL returns the configured refresh token lifetime.
func (ts *TokenService) RefreshTokenTTL() time.Duration {
	return ts.refreshTTL
}

// IssueAccessToken mints a short-lived token authorizing API calls for userID.
func (ts *TokenService) IssueAccessToken(userID uuid.UUID) (string, error) {
	return ts.issue(userID, TokenKindAccess, ts.accessTTL)
}

// IssueRefreshToken mints a long-lived refresh credential for userID. The
// fresh jti per mint keeps every token string unique, which the storage-level
// unique constraint and the one-shot retry in SessionManager rely on.
func (ts *TokenService) IssueRefreshToken(userID uuid.UUID) (string, error) {
	return ts.issue(userID, TokenKindRefresh, ts.refreshTTL)
}

func (ts *TokenService) issue(userID uuid.UUID, kind TokenKind, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		TokenType: kind,
	}

	ensureTokenID(&claims.RegisteredClaims)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign JWT")
	}

	return signed, nil
}

// Verify validates signature and expiry, returning the decoded claims or nil
// on any failure. Failures are logged, never returned, so every caller treats
// nil uniformly as unauthenticated.
func (ts *TokenService) Verify(raw string) *TokenClaims {
	parserOptions := make([]jwt.ParserOption, 0, 1)
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}

	token, err := jwt.ParseWithClaims(raw, &TokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		ts.logger.Debug("token verification failed", "error", err)
		return nil
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		ts.logger.Error("token verified but claims could not be decoded")
		return nil
	}

	return claims
}

// Decode parses the claims without checking the signature. Inspection only;
// output from Decode must never authorize anything.
func (ts *TokenService) Decode(raw string) *TokenClaims {
	claims := &TokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil
	}
	return claims
}
