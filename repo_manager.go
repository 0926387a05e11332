package ledger

import (
	"context"
	"database/sql"
	"errors"
	"log"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// RepositoryManager bundles the stores the service layer needs so that
// controllers and the session manager take one dependency instead of five.
type RepositoryManager interface {
	repository.Validator
	repository.TransactionManager
	Users() Users
	RefreshTokens() RefreshTokens
	Categories() Categories
	Transactions() Transactions
	TaxRules() TaxRules
}

type repositoryManager struct {
	db            *bun.DB
	users         Users
	refreshTokens RefreshTokens
	categories    Categories
	transactions  Transactions
	taxRules      TaxRules
}

var _ RepositoryManager = (*repositoryManager)(nil)

func NewRepositoryManager(db *bun.DB) RepositoryManager {
	return &repositoryManager{
		db:            db,
		users:         NewUsersRepository(db),
		refreshTokens: NewRefreshTokensRepository(db),
		categories:    NewCategoriesRepository(db),
		transactions:  NewTransactionsRepository(db),
		taxRules:      NewTaxRulesRepository(db),
	}
}

func (m *repositoryManager) Users() Users                 { return m.users }
func (m *repositoryManager) RefreshTokens() RefreshTokens { return m.refreshTokens }
func (m *repositoryManager) Categories() Categories       { return m.categories }
func (m *repositoryManager) Transactions() Transactions   { return m.transactions }
func (m *repositoryManager) TaxRules() TaxRules           { return m.taxRules }

func (m *repositoryManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m *repositoryManager) Validate() error {
	if m.users == nil {
		return errors.New("repository users should be initialized")
	}

	if m.refreshTokens == nil {
		return errors.New("repository refreshTokens should be initialized")
	}

	if m.categories == nil {
		return errors.New("repository categories should be initialized")
	}

	if m.transactions == nil {
		return errors.New("repository transactions should be initialized")
	}

	if m.taxRules == nil {
		return errors.New("repository taxRules should be initialized")
	}

	return nil
}

func (m *repositoryManager) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}
