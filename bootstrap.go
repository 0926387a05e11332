package ledger

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

// defaultCategories is the shared palette seeded at startup. IDs derive from
// the category name so reseeding on every boot inserts nothing new.
var defaultCategories = []Category{
	{Name: "Salary", Type: EntryIncome, Color: "#22C55E", Icon: "banknote"},
	{Name: "Freelance", Type: EntryIncome, Color: "#10B981", Icon: "laptop"},
	{Name: "Investments", Type: EntryIncome, Color: "#14B8A6", Icon: "trending-up"},
	{Name: "Groceries", Type: EntryExpense, Color: "#F97316", Icon: "shopping-cart"},
	{Name: "Housing", Type: EntryExpense, Color: "#EF4444", Icon: "home"},
	{Name: "Transport", Type: EntryExpense, Color: "#3B82F6", Icon: "car"},
	{Name: "Health", Type: EntryExpense, Color: "#EC4899", Icon: "heart-pulse"},
	{Name: "Leisure", Type: EntryExpense, Color: "#8B5CF6", Icon: "gamepad-2"},
	{Name: "Other", Type: EntryExpense, Color: "#6B7280", Icon: "circle-ellipsis"},
}

// Bootstrap prepares the schema and seed data. A single instance runs once;
// calling Run again is a programming error and fails loudly rather than
// re-entering DDL.
type Bootstrap struct {
	db     *bun.DB
	logger Logger
	done   bool
}

func NewBootstrap(db *bun.DB) *Bootstrap {
	return &Bootstrap{
		db:     db,
		logger: defLogger{},
	}
}

func (b *Bootstrap) WithLogger(logger Logger) *Bootstrap {
	if logger != nil {
		b.logger = logger
	}
	return b
}

// Run creates tables and indexes if absent and seeds the default category
// palette. Safe against existing schemas, not safe against double invocation.
func (b *Bootstrap) Run(ctx context.Context) error {
	if b.done {
		return goerrors.New("bootstrap already ran", goerrors.CategoryOperation)
	}
	b.done = true

	if err := b.createSchema(ctx); err != nil {
		return err
	}

	if err := b.seedDefaultCategories(ctx); err != nil {
		return err
	}

	b.logger.Info("bootstrap complete")
	return nil
}

func (b *Bootstrap) createSchema(ctx context.Context) error {
	models := []any{
		(*User)(nil),
		(*RefreshToken)(nil),
		(*Category)(nil),
		(*Transaction)(nil),
		(*TaxRule)(nil),
	}

	for _, model := range models {
		_, err := b.db.NewCreateTable().
			Model(model).
			IfNotExists().
			WithForeignKeys().
			Exec(ctx)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "schema creation failed")
		}
	}

	indexes := []struct {
		name   string
		model  any
		column string
		unique bool
	}{
		{"idx_users_email", (*User)(nil), "email", true},
		{"idx_refresh_tokens_token", (*RefreshToken)(nil), "token", true},
		{"idx_refresh_tokens_user_id", (*RefreshToken)(nil), "user_id", false},
		{"idx_transactions_user_id", (*Transaction)(nil), "user_id", false},
		{"idx_categories_user_id", (*Category)(nil), "user_id", false},
	}

	for _, idx := range indexes {
		q := b.db.NewCreateIndex().
			Model(idx.model).
			IfNotExists().
			Index(idx.name).
			Column(idx.column)
		if idx.unique {
			q = q.Unique()
		}
		if _, err := q.Exec(ctx); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "index creation failed")
		}
	}

	return nil
}

// seedDefaultCategories inserts the shared palette with deterministic ids so
// the operation is idempotent across restarts.
func (b *Bootstrap) seedDefaultCategories(ctx context.Context) error {
	for i := range defaultCategories {
		record := defaultCategories[i]

		id, err := hashid.NewUUID("category:default:" + record.Name)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not derive category id")
		}
		record.ID = id

		_, err = b.db.NewInsert().
			Model(&record).
			On("CONFLICT (id) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "category seeding failed")
		}
	}

	return nil
}
