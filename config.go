package ledger

import (
	"os"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
)

// Config carries everything the server binary needs. Values come from the
// environment; the zero value is never valid because the signing secret has
// no default.
type Config struct {
	Environment     string
	Addr            string
	DatabaseDSN     string
	JWTSecret       string
	JWTIssuer       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	Debug           bool
}

// LoadConfig reads configuration from the environment.
func LoadConfig() Config {
	cfg := Config{
		Environment:     envOr("APP_ENV", "development"),
		Addr:            ":" + envOr("PORT", "3000"),
		DatabaseDSN:     envOr("DATABASE_DSN", "file:ledger.db?cache=shared&_pragma=foreign_keys(1)"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		JWTIssuer:       envOr("JWT_ISSUER", "go-ledger"),
		AccessTokenTTL:  envDuration("JWT_EXPIRES_IN", DefaultAccessTokenTTL),
		RefreshTokenTTL: envDuration("REFRESH_TOKEN_EXPIRES_IN", DefaultRefreshTokenTTL),
		Debug:           envBool("DEBUG"),
	}

	return cfg
}

// Validate will run validation rules. A missing JWT secret is reported as
// ErrMissingSigningSecret so main can fail before anything listens.
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return ErrMissingSigningSecret
	}

	return validation.ValidateStruct(&c,
		validation.Field(&c.Environment, validation.Required),
		validation.Field(&c.Addr, validation.Required),
		validation.Field(&c.DatabaseDSN, validation.Required),
	)
}

// IsDevelopment reports whether error details may be exposed to callers.
func (c Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envDuration accepts Go duration strings ("15m") and bare second counts.
func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}

	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}

	return fallback
}

func envBool(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}
