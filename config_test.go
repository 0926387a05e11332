package ledger_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	ledger "github.com/goliatone/go-ledger"
)

func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "super-secret")

		cfg := ledger.LoadConfig()
		assert.Equal(t, "development", cfg.Environment)
		assert.Equal(t, ":3000", cfg.Addr)
		assert.Equal(t, ledger.DefaultAccessTokenTTL, cfg.AccessTokenTTL)
		assert.Equal(t, ledger.DefaultRefreshTokenTTL, cfg.RefreshTokenTTL)
		assert.True(t, cfg.IsDevelopment())
		assert.NoError(t, cfg.Validate())
	})

	t.Run("env overrides", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "super-secret")
		t.Setenv("APP_ENV", "production")
		t.Setenv("PORT", "8080")
		t.Setenv("JWT_EXPIRES_IN", "30m")
		t.Setenv("REFRESH_TOKEN_EXPIRES_IN", "3600")

		cfg := ledger.LoadConfig()
		assert.Equal(t, ":8080", cfg.Addr)
		assert.Equal(t, 30*time.Minute, cfg.AccessTokenTTL)
		assert.Equal(t, time.Hour, cfg.RefreshTokenTTL)
		assert.False(t, cfg.IsDevelopment())
	})

	t.Run("unparseable durations fall back to defaults", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "super-secret")
		t.Setenv("JWT_EXPIRES_IN", "whenever")

		cfg := ledger.LoadConfig()
		assert.Equal(t, ledger.DefaultAccessTokenTTL, cfg.AccessTokenTTL)
	})

	t.Run("missing secret is fatal at validation", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")

		cfg := ledger.LoadConfig()
		err := cfg.Validate()
		assert.Equal(t, ledger.ErrMissingSigningSecret, err)
	})
}
