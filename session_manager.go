package ledger

import (
	"context"
	"errors"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// AuthResponse is the payload returned by Login and Refresh.
type AuthResponse struct {
	User         *PublicUser `json:"user"`
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresIn    int64       `json:"expires_in"`
}

// SessionManager owns the credential and session lifecycle: registration,
// login, refresh, logout. Token strings are minted by TokenService; session
// state lives in the refresh token store.
type SessionManager struct {
	repo     RepositoryManager
	tokens   *TokenService
	logger   Logger
	activity ActivitySink
	now      func() time.Time
}

func NewSessionManager(repo RepositoryManager, tokens *TokenService) *SessionManager {
	return &SessionManager{
		repo:     repo,
		tokens:   tokens,
		logger:   defLogger{},
		activity: noopActivitySink{},
		now:      time.Now,
	}
}

func (s *SessionManager) WithLogger(logger Logger) *SessionManager {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (s *SessionManager) WithActivitySink(sink ActivitySink) *SessionManager {
	s.activity = normalizeActivitySink(sink)
	return s
}

// Register creates a user with a hashed password and logs them in. The hash
// is computed before the record is ever constructed; a plaintext password
// never touches a model. Duplicate emails surface as ErrDuplicateEmail.
func (s *SessionManager) Register(ctx context.Context, name, email, password string) (*AuthResponse, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	record := &User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	}

	err = s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		created, err := s.repo.Users().RegisterTx(ctx, tx, record)
		if err != nil {
			return err
		}
		record = created
		return nil
	})

	if err != nil {
		s.logger.Error("Register failed", "email", email, "error", err)
		return nil, err
	}

	refresh, err := s.mintRefreshToken(ctx, record.ID)
	if err != nil {
		s.logger.Error("Register could not establish refresh token", "error", err)
		return nil, err
	}

	access, err := s.tokens.IssueAccessToken(record.ID)
	if err != nil {
		return nil, err
	}

	s.emitAuthEvent(ctx, ActivityEventRegister, record.ID.String(), email, nil)

	return s.authResponse(record, access, refresh), nil
}

// Login verifies credentials and establishes a session. An unknown email and
// a wrong password return the same ErrInvalidCredentials so responses do not
// reveal which accounts exist. When the user already holds a live refresh
// token it is handed back as is; a session is one refresh credential, not one
// per device.
func (s *SessionManager) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	user, err := s.repo.Users().GetByEmail(ctx, email)
	if err != nil {
		if goerrors.IsNotFound(err) {
			s.emitAuthEvent(ctx, ActivityEventLoginFailure, "", email, map[string]any{
				"error": ErrInvalidCredentials.Error(),
			})
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("Login user lookup error", "error", err)
		return nil, err
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		if errors.Is(err, ErrMismatchedHashAndPassword) {
			s.emitAuthEvent(ctx, ActivityEventLoginFailure, user.ID.String(), email, map[string]any{
				"error": ErrInvalidCredentials.Error(),
			})
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("Login password comparison error", "error", err)
		return nil, err
	}

	refresh, err := s.establishRefreshToken(ctx, user.ID)
	if err != nil {
		s.logger.Error("Login could not establish refresh token", "error", err)
		return nil, err
	}

	access, err := s.tokens.IssueAccessToken(user.ID)
	if err != nil {
		return nil, err
	}

	s.emitAuthEvent(ctx, ActivityEventLoginSuccess, user.ID.String(), email, nil)

	return s.authResponse(user, access, refresh), nil
}

// Refresh exchanges a live refresh token for a fresh access token. The
// refresh token itself is not rotated. Persisted state alone decides the
// outcome: the token string is looked up as stored, with no signature check,
// so the row's expiry governs even when it disagrees with the JWT's own. A
// row found expired is revoked before the error returns, so retrying it
// fails as revoked rather than expired again.
func (s *SessionManager) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	record, err := s.repo.RefreshTokens().GetLiveByToken(ctx, refreshToken)
	if err != nil {
		if goerrors.IsNotFound(err) {
			s.emitAuthEvent(ctx, ActivityEventRefreshDenied, "", "", map[string]any{
				"error": ErrRefreshTokenInvalid.Error(),
			})
			return nil, ErrRefreshTokenInvalid
		}
		s.logger.Error("Refresh token lookup error", "error", err)
		return nil, err
	}

	if !record.Usable(s.now()) {
		if err := s.repo.RefreshTokens().Revoke(ctx, refreshToken); err != nil {
			s.logger.Error("Refresh could not revoke expired token", "error", err)
		}
		s.emitAuthEvent(ctx, ActivityEventRefreshDenied, record.UserID.String(), "", map[string]any{
			"error": ErrRefreshTokenExpired.Error(),
		})
		return nil, ErrRefreshTokenExpired
	}

	user, err := s.repo.Users().GetUser(ctx, record.UserID)
	if err != nil {
		if goerrors.IsNotFound(err) {
			s.emitAuthEvent(ctx, ActivityEventRefreshDenied, record.UserID.String(), "", map[string]any{
				"error": ErrRefreshTokenInvalid.Error(),
			})
			return nil, ErrRefreshTokenInvalid
		}
		s.logger.Error("Refresh user lookup error", "error", err)
		return nil, err
	}

	access, err := s.tokens.IssueAccessToken(user.ID)
	if err != nil {
		return nil, err
	}

	return s.authResponse(user, access, record.Token), nil
}

// Logout revokes the given refresh token. Revoking an unknown or already
// revoked token succeeds; logout is idempotent.
func (s *SessionManager) Logout(ctx context.Context, refreshToken string) error {
	if err := s.repo.RefreshTokens().Revoke(ctx, refreshToken); err != nil {
		s.logger.Error("Logout revoke error", "error", err)
		return err
	}

	s.emitAuthEvent(ctx, ActivityEventLogout, "", "", nil)
	return nil
}

// LogoutAll revokes every refresh token the user holds.
func (s *SessionManager) LogoutAll(ctx context.Context, userID uuid.UUID) error {
	if err := s.repo.RefreshTokens().RevokeAllForUser(ctx, userID); err != nil {
		s.logger.Error("LogoutAll revoke error", "error", err)
		return err
	}

	s.emitAuthEvent(ctx, ActivityEventLogoutEverywhere, userID.String(), "", nil)
	return nil
}

// Profile returns the user's public projection.
func (s *SessionManager) Profile(ctx context.Context, userID uuid.UUID) (*PublicUser, error) {
	user, err := s.repo.Users().GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.Public(), nil
}

// establishRefreshToken reuses the user's live refresh token when one exists,
// otherwise mints and persists a fresh one.
func (s *SessionManager) establishRefreshToken(ctx context.Context, userID uuid.UUID) (string, error) {
	existing, err := s.repo.RefreshTokens().GetActiveForUser(ctx, userID)
	if err == nil {
		return existing.Token, nil
	}
	if !goerrors.IsNotFound(err) {
		return "", err
	}

	return s.mintRefreshToken(ctx, userID)
}

// mintRefreshToken issues and persists a fresh refresh token. A
// unique-constraint collision on insert gets exactly one regenerate-and-retry
// before giving up.
func (s *SessionManager) mintRefreshToken(ctx context.Context, userID uuid.UUID) (string, error) {
	for attempt := 0; attempt < 2; attempt++ {
		token, err := s.tokens.IssueRefreshToken(userID)
		if err != nil {
			return "", err
		}

		_, err = s.repo.RefreshTokens().Issue(ctx, userID, token, s.now().Add(s.tokens.RefreshTokenTTL()))
		if err == nil {
			return token, nil
		}
		if !HasTextCode(err, textCodeDuplicateToken) {
			return "", err
		}

		s.logger.Debug("refresh token collision, regenerating", "attempt", attempt)
	}

	return "", ErrDuplicateToken
}

func (s *SessionManager) authResponse(user *User, access, refresh string) *AuthResponse {
	return &AuthResponse{
		User:         user.Public(),
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.tokens.AccessTokenTTL().Seconds()),
	}
}

func (s *SessionManager) emitAuthEvent(ctx context.Context, eventType ActivityEventType, userID, email string, metadata map[string]any) {
	event := ActivityEvent{
		EventType: eventType,
		UserID:    userID,
		Email:     email,
		Metadata:  metadata,
	}

	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.now()
	}

	if err := normalizeActivitySink(s.activity).Record(ctx, event); err != nil {
		s.logger.Warn("activity sink record error: %v", err)
	}
}
