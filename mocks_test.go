package ledger_test

import (
	"context"
	"database/sql"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"

	ledger "github.com/goliatone/go-ledger"
)

// MockRepositoryManager hands out the mocked stores. RunInTx executes the
// callback directly; transactional semantics are not under test here.
type MockRepositoryManager struct {
	users         *MockUsers
	refreshTokens *MockRefreshTokens
}

func NewMockRepositoryManager() *MockRepositoryManager {
	return &MockRepositoryManager{
		users:         new(MockUsers),
		refreshTokens: new(MockRefreshTokens),
	}
}

func (m *MockRepositoryManager) Users() ledger.Users                 { return m.users }
func (m *MockRepositoryManager) RefreshTokens() ledger.RefreshTokens { return m.refreshTokens }
func (m *MockRepositoryManager) Categories() ledger.Categories       { return nil }
func (m *MockRepositoryManager) Transactions() ledger.Transactions   { return nil }
func (m *MockRepositoryManager) TaxRules() ledger.TaxRules           { return nil }
func (m *MockRepositoryManager) Validate() error                     { return nil }
func (m *MockRepositoryManager) MustValidate()                       {}

func (m *MockRepositoryManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	return f(ctx, bun.Tx{})
}

// MockUsers implements ledger.Users for the methods the session manager uses.
type MockUsers struct {
	mock.Mock
	repository.Repository[*ledger.User]
}

func (m *MockUsers) GetByEmail(ctx context.Context, email string) (*ledger.User, error) {
	args := m.Called(ctx, email)
	var user *ledger.User
	if v := args.Get(0); v != nil {
		user = v.(*ledger.User)
	}
	return user, args.Error(1)
}

func (m *MockUsers) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*ledger.User, error) {
	args := m.Called(ctx, tx, email)
	var user *ledger.User
	if v := args.Get(0); v != nil {
		user = v.(*ledger.User)
	}
	return user, args.Error(1)
}

func (m *MockUsers) GetUser(ctx context.Context, id uuid.UUID) (*ledger.User, error) {
	args := m.Called(ctx, id)
	var user *ledger.User
	if v := args.Get(0); v != nil {
		user = v.(*ledger.User)
	}
	return user, args.Error(1)
}

func (m *MockUsers) Register(ctx context.Context, user *ledger.User) (*ledger.User, error) {
	args := m.Called(ctx, user)
	var record *ledger.User
	if v := args.Get(0); v != nil {
		record = v.(*ledger.User)
	}
	return record, args.Error(1)
}

func (m *MockUsers) RegisterTx(ctx context.Context, tx bun.IDB, user *ledger.User) (*ledger.User, error) {
	args := m.Called(ctx, tx, user)
	var record *ledger.User
	if v := args.Get(0); v != nil {
		record = v.(*ledger.User)
	}
	return record, args.Error(1)
}

// MockRefreshTokens implements ledger.RefreshTokens.
type MockRefreshTokens struct {
	mock.Mock
	repository.Repository[*ledger.RefreshToken]
}

func (m *MockRefreshTokens) GetActiveForUser(ctx context.Context, userID uuid.UUID) (*ledger.RefreshToken, error) {
	args := m.Called(ctx, userID)
	var record *ledger.RefreshToken
	if v := args.Get(0); v != nil {
		record = v.(*ledger.RefreshToken)
	}
	return record, args.Error(1)
}

func (m *MockRefreshTokens) GetByToken(ctx context.Context, token string) (*ledger.RefreshToken, error) {
	args := m.Called(ctx, token)
	var record *ledger.RefreshToken
	if v := args.Get(0); v != nil {
		record = v.(*ledger.RefreshToken)
	}
	return record, args.Error(1)
}

func (m *MockRefreshTokens) GetLiveByToken(ctx context.Context, token string) (*ledger.RefreshToken, error) {
	args := m.Called(ctx, token)
	var record *ledger.RefreshToken
	if v := args.Get(0); v != nil {
		record = v.(*ledger.RefreshToken)
	}
	return record, args.Error(1)
}

func (m *MockRefreshTokens) Issue(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) (*ledger.RefreshToken, error) {
	args := m.Called(ctx, userID, token, expiresAt)
	var record *ledger.RefreshToken
	if v := args.Get(0); v != nil {
		record = v.(*ledger.RefreshToken)
	}
	return record, args.Error(1)
}

func (m *MockRefreshTokens) IssueTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, token string, expiresAt time.Time) (*ledger.RefreshToken, error) {
	args := m.Called(ctx, tx, userID, token, expiresAt)
	var record *ledger.RefreshToken
	if v := args.Get(0); v != nil {
		record = v.(*ledger.RefreshToken)
	}
	return record, args.Error(1)
}

func (m *MockRefreshTokens) Revoke(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockRefreshTokens) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockActivitySink records activity expectations.
type MockActivitySink struct {
	mock.Mock
}

func (m *MockActivitySink) Record(ctx context.Context, event ledger.ActivityEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
