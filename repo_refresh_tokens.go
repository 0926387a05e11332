package ledger

import (
	"context"
	"database/sql"
	"errors"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RefreshTokens persists session credentials. Rows are flipped to revoked
// rather than deleted; the token column carries a unique constraint that is
// the one storage-level invariant the session layer depends on.
type RefreshTokens interface {
	repository.Repository[*RefreshToken]

	GetActiveForUser(ctx context.Context, userID uuid.UUID) (*RefreshToken, error)
	GetByToken(ctx context.Context, token string) (*RefreshToken, error)
	GetLiveByToken(ctx context.Context, token string) (*RefreshToken, error)

	Issue(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) (*RefreshToken, error)
	IssueTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, token string, expiresAt time.Time) (*RefreshToken, error)

	Revoke(ctx context.Context, token string) error
	RevokeAllForUser(ctx context.Context, userID uuid.UUID) error
}

type refreshTokens struct {
	repository.Repository[*RefreshToken]
	db *bun.DB
}

var (
	_ RefreshTokens                        = (*refreshTokens)(nil)
	_ repository.Repository[*RefreshToken] = (*refreshTokens)(nil)
)

func NewRefreshTokensRepository(db *bun.DB) RefreshTokens {
	repo := repository.NewRepository[*RefreshToken](db, repository.ModelHandlers[*RefreshToken]{
		NewRecord: func() *RefreshToken { return &RefreshToken{} },
		GetID: func(t *RefreshToken) uuid.UUID {
			if t == nil {
				return uuid.Nil
			}
			return t.ID
		},
		SetID: func(t *RefreshToken, id uuid.UUID) {
			if t != nil {
				t.ID = id
			}
		},
		GetIdentifier: func() string {
			return "token"
		},
	})

	return &refreshTokens{
		Repository: repo,
		db:         db,
	}
}

// GetActiveForUser returns a token owned by the user that is neither revoked
// nor expired, or ErrRefreshTokenNotFound when none exists.
func (r *refreshTokens) GetActiveForUser(ctx context.Context, userID uuid.UUID) (*RefreshToken, error) {
	record := &RefreshToken{}
	err := r.db.NewSelect().
		Model(record).
		Where("?TableAlias.user_id = ?", userID).
		Where("?TableAlias.revoked = ?", false).
		Where("?TableAlias.expires_at > ?", time.Now()).
		Order("created_at DESC").
		Limit(1).
		Scan(ctx)

	if err != nil {
		return nil, r.normalizeLookupError(err)
	}

	return record, nil
}

// GetByToken looks up a row by its token string regardless of state.
func (r *refreshTokens) GetByToken(ctx context.Context, token string) (*RefreshToken, error) {
	record := &RefreshToken{}
	err := r.db.NewSelect().
		Model(record).
		Where("?TableAlias.token = ?", token).
		Limit(1).
		Scan(ctx)

	if err != nil {
		return nil, r.normalizeLookupError(err)
	}

	return record, nil
}

// GetLiveByToken looks up a non-revoked row by token string. Expiry is NOT
// checked here: the session layer observes it so the sticky-revoke write and
// the Expired failure stay in one place.
func (r *refreshTokens) GetLiveByToken(ctx context.Context, token string) (*RefreshToken, error) {
	record := &RefreshToken{}
	err := r.db.NewSelect().
		Model(record).
		Where("?TableAlias.token = ?", token).
		Where("?TableAlias.revoked = ?", false).
		Limit(1).
		Scan(ctx)

	if err != nil {
		return nil, r.normalizeLookupError(err)
	}

	return record, nil
}

func (r *refreshTokens) Issue(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) (*RefreshToken, error) {
	return r.IssueTx(ctx, r.db, userID, token, expiresAt)
}

func (r *refreshTokens) IssueTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, token string, expiresAt time.Time) (*RefreshToken, error) {
	record := &RefreshToken{
		ID:        uuid.New(),
		UserID:    userID,
		Token:     token,
		ExpiresAt: expiresAt,
		Revoked:   false,
	}

	created, err := r.Repository.CreateTx(ctx, tx, record)
	if err != nil {
		if IsDuplicateKeyError(err) {
			return nil, ErrDuplicateToken
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not persist refresh token")
	}

	return created, nil
}

// Revoke flips the matching row to revoked. No-op when nothing matches.
func (r *refreshTokens) Revoke(ctx context.Context, token string) error {
	_, err := r.db.NewUpdate().
		Model((*RefreshToken)(nil)).
		Set("revoked = ?", true).
		Set("updated_at = ?", time.Now()).
		Where("token = ?", token).
		Exec(ctx)

	return err
}

// RevokeAllForUser flips every row owned by the user, regardless of state.
func (r *refreshTokens) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.NewUpdate().
		Model((*RefreshToken)(nil)).
		Set("revoked = ?", true).
		Set("updated_at = ?", time.Now()).
		Where("user_id = ?", userID).
		Exec(ctx)

	return err
}

func (r *refreshTokens) normalizeLookupError(err error) error {
	if errors.Is(err, sql.ErrNoRows) || repository.IsRecordNotFound(err) {
		return ErrRefreshTokenNotFound
	}
	return goerrors.Wrap(err, goerrors.CategoryInternal, "refresh token lookup failed")
}
