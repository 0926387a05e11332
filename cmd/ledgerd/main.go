package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	ledger "github.com/goliatone/go-ledger"
	"github.com/goliatone/go-ledger/middleware/authware"
)

func main() {
	cfg := ledger.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	sqldb, err := sql.Open(sqliteshim.ShimName, cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("could not open database: %v", err)
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())

	ctx := context.Background()
	if err := ledger.NewBootstrap(db).Run(ctx); err != nil {
		log.Fatalf("bootstrap failed: %v", err)
	}

	repo := ledger.NewRepositoryManager(db)
	repo.MustValidate()

	tokens, err := ledger.NewTokenService(
		[]byte(cfg.JWTSecret),
		cfg.AccessTokenTTL,
		cfg.RefreshTokenTTL,
		cfg.JWTIssuer,
		nil,
	)
	if err != nil {
		log.Fatalf("token service: %v", err)
	}

	sessions := ledger.NewSessionManager(repo, tokens).
		WithActivitySink(auditLogSink())

	guardConfig := authware.Config{
		Verify: func(raw string) authware.Claims {
			if claims := tokens.Verify(raw); claims != nil {
				return claims
			}
			return nil
		},
		ResolveUser: func(ctx context.Context, id uuid.UUID) (authware.User, error) {
			user, err := repo.Users().GetUser(ctx, id)
			if err != nil {
				return authware.User{}, err
			}
			return authware.User{ID: user.ID, Name: user.Name, Email: user.Email}, nil
		},
	}

	guard := authware.New(guardConfig)
	optionalGuard := authware.NewOptional(guardConfig)

	app := fiber.New(fiber.Config{
		AppName:               "go-ledger",
		DisableStartupMessage: !cfg.IsDevelopment(),
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		if err := db.PingContext(c.Context()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status":      "degraded",
				"environment": cfg.Environment,
				"timestamp":   time.Now().UTC().Format(time.RFC3339),
			})
		}
		return c.JSON(fiber.Map{
			"status":      "ok",
			"environment": cfg.Environment,
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
		})
	})

	authController := ledger.NewAuthController(sessions,
		ledger.WithAuthDebug(cfg.Debug),
		ledger.WithAuthDevelopment(cfg.IsDevelopment()),
	)
	ledger.RegisterAuthRoutes(app, authController, guard)

	financeController := ledger.NewFinanceController(repo, nil)
	financeController.Development = cfg.IsDevelopment()
	ledger.RegisterFinanceRoutes(app, financeController, guard, optionalGuard)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "not found",
		})
	})

	go func() {
		if err := app.Listen(cfg.Addr); err != nil {
			log.Fatalf("server error: %v", err)
		}
	}()

	sig := WaitExitSignal()
	log.Printf("received %s, shutting down", sig)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("shutdown error: %v", err)
	}

	if err := db.Close(); err != nil {
		log.Printf("database close error: %v", err)
	}
}

// auditLogSink writes auth activity to the process log. A real deployment
// would swap in a sink that persists events.
func auditLogSink() ledger.ActivitySink {
	return ledger.ActivitySinkFunc(func(_ context.Context, event ledger.ActivityEvent) error {
		log.Printf("activity %s user=%s", event.EventType, event.UserID)
		return nil
	})
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
