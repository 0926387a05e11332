package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// EntryType discriminates income from expense rows
type EntryType = string

const (
	// EntryIncome marks money coming in
	EntryIncome EntryType = "income"
	// EntryExpense marks money going out
	EntryExpense EntryType = "expense"
)

// User is the account model. PasswordHash is opaque to this package: it is
// always a bcrypt hash by the time a record is constructed, never plaintext.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string     `bun:"name,notnull" json:"name,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash  string     `bun:"password_hash,notnull" json:"-"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// PublicUser is the response shape for profile and auth payloads. The password
// hash is excluded unconditionally.
type PublicUser struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// Public returns the caller-safe projection of the user.
func (u *User) Public() *PublicUser {
	if u == nil {
		return nil
	}
	return &PublicUser{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

// RefreshToken is the persisted session credential. A row is usable only while
// Revoked is false and ExpiresAt is in the future; revocation flips the flag
// and the row is kept for auditing.
type RefreshToken struct {
	bun.BaseModel `bun:"table:refresh_tokens,alias:rft"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	User          *User      `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	Token         string     `bun:"token,notnull,unique" json:"token,omitempty"`
	ExpiresAt     time.Time  `bun:"expires_at,notnull" json:"expires_at,omitempty"`
	Revoked       bool       `bun:"revoked,notnull,default:false" json:"revoked,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Usable reports whether the row still grants authority at the given instant.
func (t *RefreshToken) Usable(now time.Time) bool {
	if t == nil {
		return false
	}
	return !t.Revoked && t.ExpiresAt.After(now)
}

// Category groups transactions. Rows with a nil UserID form the default
// palette shared by every account; bootstrap seeds them idempotently.
type Category struct {
	bun.BaseModel `bun:"table:categories,alias:cat"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        *uuid.UUID `bun:"user_id,nullzero,type:uuid" json:"user_id,omitempty"`
	Name          string     `bun:"name,notnull" json:"name,omitempty"`
	Type          EntryType  `bun:"type,notnull" json:"type,omitempty"`
	Color         string     `bun:"color,notnull,default:'#3B82F6'" json:"color,omitempty"`
	Icon          string     `bun:"icon" json:"icon,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Transaction is an owner-scoped income/expense entry. Type normalization
// happens at the request boundary; construction never mutates input.
type Transaction struct {
	bun.BaseModel `bun:"table:transactions,alias:trx"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	CategoryID    *uuid.UUID `bun:"category_id,nullzero,type:uuid" json:"category_id,omitempty"`
	Category      *Category  `bun:"rel:belongs-to,join:category_id=id" json:"category,omitempty"`
	Description   string     `bun:"description,notnull" json:"description,omitempty"`
	Amount        float64    `bun:"amount,notnull" json:"amount,omitempty"`
	Type          EntryType  `bun:"type,notnull" json:"type,omitempty"`
	Date          time.Time  `bun:"transaction_date,notnull" json:"transaction_date,omitempty"`
	Notes         string     `bun:"notes" json:"notes,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// TaxRule is a versioned percentage band applied to income totals.
type TaxRule struct {
	bun.BaseModel `bun:"table:tax_rules,alias:txr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Version       int        `bun:"version,notnull,default:1" json:"version,omitempty"`
	Name          string     `bun:"name,notnull" json:"name,omitempty"`
	MinValue      float64    `bun:"min_value,notnull,default:0" json:"min_value"`
	MaxValue      *float64   `bun:"max_value" json:"max_value,omitempty"`
	Percentage    float64    `bun:"percentage,notnull" json:"percentage"`
	Active        bool       `bun:"active,notnull,default:true" json:"active"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Applies reports whether the rule's band covers the given amount.
func (r *TaxRule) Applies(amount float64) bool {
	if r == nil || !r.Active {
		return false
	}
	if amount < r.MinValue {
		return false
	}
	if r.MaxValue != nil && amount > *r.MaxValue {
		return false
	}
	return true
}
