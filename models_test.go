package ledger_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	ledger "github.com/goliatone/go-ledger"
)

func TestRefreshTokenUsable(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name   string
		record *ledger.RefreshToken
		want   bool
	}{
		{
			name:   "live token",
			record: &ledger.RefreshToken{ExpiresAt: now.Add(time.Hour)},
			want:   true,
		},
		{
			name:   "expired token",
			record: &ledger.RefreshToken{ExpiresAt: now.Add(-time.Minute)},
			want:   false,
		},
		{
			name:   "revoked token",
			record: &ledger.RefreshToken{ExpiresAt: now.Add(time.Hour), Revoked: true},
			want:   false,
		},
		{
			name:   "revoked and expired",
			record: &ledger.RefreshToken{ExpiresAt: now.Add(-time.Minute), Revoked: true},
			want:   false,
		},
		{
			name:   "nil receiver",
			record: nil,
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.record.Usable(now))
		})
	}
}

func TestUserPublic(t *testing.T) {
	user := &ledger.User{
		ID:           uuid.New(),
		Name:         "Ada Lovelace",
		Email:        "ada@example.com",
		PasswordHash: "$2a$10$abcdefghijklmnopqrstuv",
	}

	public := user.Public()
	assert.Equal(t, user.ID, public.ID)
	assert.Equal(t, user.Email, public.Email)

	raw, err := json.Marshal(public)
	assert.NoError(t, err)
	assert.NotContains(t, string(raw), "password")
	assert.NotContains(t, string(raw), user.PasswordHash)

	var nilUser *ledger.User
	assert.Nil(t, nilUser.Public())
}

func TestUserJSONHidesPasswordHash(t *testing.T) {
	user := &ledger.User{
		ID:           uuid.New(),
		Name:         "Ada",
		Email:        "ada@example.com",
		PasswordHash: "$2a$10$abcdefghijklmnopqrstuv",
	}

	raw, err := json.Marshal(user)
	assert.NoError(t, err)
	assert.NotContains(t, string(raw), user.PasswordHash)
}

func TestTaxRuleApplies(t *testing.T) {
	max := 5000.0

	tests := []struct {
		name   string
		rule   *ledger.TaxRule
		amount float64
		want   bool
	}{
		{
			name:   "inside open band",
			rule:   &ledger.TaxRule{MinValue: 1000, Active: true},
			amount: 2500,
			want:   true,
		},
		{
			name:   "below the band",
			rule:   &ledger.TaxRule{MinValue: 1000, Active: true},
			amount: 999.99,
			want:   false,
		},
		{
			name:   "above a capped band",
			rule:   &ledger.TaxRule{MinValue: 1000, MaxValue: &max, Active: true},
			amount: 5000.01,
			want:   false,
		},
		{
			name:   "at the cap",
			rule:   &ledger.TaxRule{MinValue: 1000, MaxValue: &max, Active: true},
			amount: 5000,
			want:   true,
		},
		{
			name:   "inactive rule",
			rule:   &ledger.TaxRule{MinValue: 0, Active: false},
			amount: 100,
			want:   false,
		},
		{
			name:   "nil receiver",
			rule:   nil,
			amount: 100,
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rule.Applies(tt.amount))
		})
	}
}
