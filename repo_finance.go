package ledger

import (
	"context"
	"database/sql"
	"errors"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Categories exposes the category palette: per-user rows plus the shared
// defaults seeded at bootstrap (user_id IS NULL).
type Categories interface {
	repository.Repository[*Category]

	ListForUser(ctx context.Context, userID uuid.UUID) ([]*Category, error)
	ListDefaults(ctx context.Context) ([]*Category, error)
	GetOwned(ctx context.Context, userID, id uuid.UUID) (*Category, error)
}

type categories struct {
	repository.Repository[*Category]
	db *bun.DB
}

var _ Categories = (*categories)(nil)

func NewCategoriesRepository(db *bun.DB) Categories {
	repo := repository.NewRepository[*Category](db, repository.ModelHandlers[*Category]{
		NewRecord: func() *Category { return &Category{} },
		GetID: func(c *Category) uuid.UUID {
			if c == nil {
				return uuid.Nil
			}
			return c.ID
		},
		SetID: func(c *Category, id uuid.UUID) {
			if c != nil {
				c.ID = id
			}
		},
	})

	return &categories{Repository: repo, db: db}
}

// ListForUser returns the user's categories plus the default palette.
func (r *categories) ListForUser(ctx context.Context, userID uuid.UUID) ([]*Category, error) {
	var records []*Category
	err := r.db.NewSelect().
		Model(&records).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("?TableAlias.user_id = ?", userID).
				WhereOr("?TableAlias.user_id IS NULL")
		}).
		Order("name ASC").
		Scan(ctx)

	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "category listing failed")
	}

	return records, nil
}

func (r *categories) ListDefaults(ctx context.Context) ([]*Category, error) {
	var records []*Category
	err := r.db.NewSelect().
		Model(&records).
		Where("?TableAlias.user_id IS NULL").
		Order("name ASC").
		Scan(ctx)

	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "category listing failed")
	}

	return records, nil
}

// GetOwned fetches a category only if the user owns it. Default rows are
// shared and read-only, so they are never returned here.
func (r *categories) GetOwned(ctx context.Context, userID, id uuid.UUID) (*Category, error) {
	record := &Category{}
	err := r.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Where("?TableAlias.user_id = ?", userID).
		Limit(1).
		Scan(ctx)

	if err != nil {
		return nil, normalizeRecordLookupError(err, "category")
	}

	return record, nil
}

// Transactions is the owner-scoped income/expense store.
type Transactions interface {
	repository.Repository[*Transaction]

	ListForUser(ctx context.Context, userID uuid.UUID) ([]*Transaction, error)
	GetOwned(ctx context.Context, userID, id uuid.UUID) (*Transaction, error)
	DeleteOwned(ctx context.Context, userID, id uuid.UUID) error
}

type transactions struct {
	repository.Repository[*Transaction]
	db *bun.DB
}

var _ Transactions = (*transactions)(nil)

func NewTransactionsRepository(db *bun.DB) Transactions {
	repo := repository.NewRepository[*Transaction](db, repository.ModelHandlers[*Transaction]{
		NewRecord: func() *Transaction { return &Transaction{} },
		GetID: func(t *Transaction) uuid.UUID {
			if t == nil {
				return uuid.Nil
			}
			return t.ID
		},
		SetID: func(t *Transaction, id uuid.UUID) {
			if t != nil {
				t.ID = id
			}
		},
	})

	return &transactions{Repository: repo, db: db}
}

func (r *transactions) ListForUser(ctx context.Context, userID uuid.UUID) ([]*Transaction, error) {
	var records []*Transaction
	err := r.db.NewSelect().
		Model(&records).
		Relation("Category").
		Where("?TableAlias.user_id = ?", userID).
		Order("transaction_date DESC").
		Scan(ctx)

	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "transaction listing failed")
	}

	return records, nil
}

func (r *transactions) GetOwned(ctx context.Context, userID, id uuid.UUID) (*Transaction, error) {
	record := &Transaction{}
	err := r.db.NewSelect().
		Model(record).
		Relation("Category").
		Where("?TableAlias.id = ?", id).
		Where("?TableAlias.user_id = ?", userID).
		Limit(1).
		Scan(ctx)

	if err != nil {
		return nil, normalizeRecordLookupError(err, "transaction")
	}

	return record, nil
}

func (r *transactions) DeleteOwned(ctx context.Context, userID, id uuid.UUID) error {
	_, err := r.db.NewDelete().
		Model((*Transaction)(nil)).
		Where("id = ?", id).
		Where("user_id = ?", userID).
		Exec(ctx)

	return err
}

// TaxRules stores versioned percentage bands. Only active rules participate
// in summaries.
type TaxRules interface {
	repository.Repository[*TaxRule]

	ListActive(ctx context.Context) ([]*TaxRule, error)
}

type taxRules struct {
	repository.Repository[*TaxRule]
	db *bun.DB
}

var _ TaxRules = (*taxRules)(nil)

func NewTaxRulesRepository(db *bun.DB) TaxRules {
	repo := repository.NewRepository[*TaxRule](db, repository.ModelHandlers[*TaxRule]{
		NewRecord: func() *TaxRule { return &TaxRule{} },
		GetID: func(t *TaxRule) uuid.UUID {
			if t == nil {
				return uuid.Nil
			}
			return t.ID
		},
		SetID: func(t *TaxRule, id uuid.UUID) {
			if t != nil {
				t.ID = id
			}
		},
	})

	return &taxRules{Repository: repo, db: db}
}

func (r *taxRules) ListActive(ctx context.Context) ([]*TaxRule, error) {
	var records []*TaxRule
	err := r.db.NewSelect().
		Model(&records).
		Where("?TableAlias.active = ?", true).
		Order("min_value ASC").
		Scan(ctx)

	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "tax rule listing failed")
	}

	return records, nil
}

func normalizeRecordLookupError(err error, kind string) error {
	if errors.Is(err, sql.ErrNoRows) || repository.IsRecordNotFound(err) {
		return goerrors.New(kind+" not found", goerrors.CategoryNotFound).
			WithCode(goerrors.CodeNotFound)
	}
	return goerrors.Wrap(err, goerrors.CategoryInternal, kind+" lookup failed")
}
