package ledger

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-print"
)

// AuthController exposes the session lifecycle over JSON.
type AuthController struct {
	Debug       bool
	Development bool
	Logger      Logger
	Sessions    *SessionManager
}

type AuthControllerOption func(*AuthController) *AuthController

func WithAuthLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithAuthDebug(debug bool) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Debug = debug
		return c
	}
}

func WithAuthDevelopment(development bool) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Development = development
		return c
	}
}

func NewAuthController(sessions *SessionManager, opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger:   defLogger{},
		Sessions: sessions,
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Sessions == nil {
		panic("Missing SessionManager in auth controller...")
	}

	return c
}

// RegisterAuthRoutes mounts the auth endpoints. The guard protects only the
// routes that need an established identity.
func RegisterAuthRoutes(app fiber.Router, controller *AuthController, guard fiber.Handler) {
	auth := app.Group("/api/auth")

	auth.Post("/register", controller.Register)
	auth.Post("/login", controller.Login)
	auth.Post("/refresh", controller.Refresh)
	auth.Post("/logout", guard, controller.Logout)
	auth.Post("/logout-all", guard, controller.LogoutAll)
	auth.Get("/profile", guard, controller.Profile)
}

// RegisterRequest payload
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(2, 255)),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 100)),
	)
}

// LoginRequest payload. Only presence is validated here: a malformed email
// falls through to the credential check and fails as invalid credentials, so
// the response shape never reveals why a login was rejected.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

// RefreshRequest payload
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Validate will run validation rules
func (r RefreshRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.RefreshToken, validation.Required),
	)
}

// LogoutRequest payload
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Validate will run validation rules
func (r LogoutRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.RefreshToken, validation.Required),
	)
}

func (a *AuthController) Register(ctx *fiber.Ctx) error {
	payload := new(RegisterRequest)

	if err := ctx.BodyParser(payload); err != nil {
		a.Logger.Error("register parse payload: ", "error", err)
		return a.fail(ctx, fiber.StatusBadRequest, "invalid request body")
	}

	if err := payload.Validate(); err != nil {
		return a.validationFail(ctx, err)
	}

	if a.Debug {
		fmt.Println("======= AUTH REGISTER ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("============================")
	}

	response, err := a.Sessions.Register(ctx.Context(), payload.Name, payload.Email, payload.Password)
	if err != nil {
		return a.errorResponse(ctx, err)
	}

	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    response,
	})
}

func (a *AuthController) Login(ctx *fiber.Ctx) error {
	payload := new(LoginRequest)

	if err := ctx.BodyParser(payload); err != nil {
		a.Logger.Error("login parse payload: ", "error", err)
		return a.fail(ctx, fiber.StatusBadRequest, "invalid request body")
	}

	if err := payload.Validate(); err != nil {
		return a.validationFail(ctx, err)
	}

	response, err := a.Sessions.Login(ctx.Context(), payload.Email, payload.Password)
	if err != nil {
		return a.errorResponse(ctx, err)
	}

	if a.Debug {
		fmt.Println("======= AUTH LOGIN ======")
		fmt.Println(print.MaybePrettyJSON(response.User))
		fmt.Println("=========================")
	}

	return ctx.JSON(fiber.Map{
		"success": true,
		"data":    response,
	})
}

func (a *AuthController) Refresh(ctx *fiber.Ctx) error {
	payload := new(RefreshRequest)

	if err := ctx.BodyParser(payload); err != nil {
		a.Logger.Error("refresh parse payload: ", "error", err)
		return a.fail(ctx, fiber.StatusBadRequest, "invalid request body")
	}

	if err := payload.Validate(); err != nil {
		return a.validationFail(ctx, err)
	}

	response, err := a.Sessions.Refresh(ctx.Context(), payload.RefreshToken)
	if err != nil {
		return a.errorResponse(ctx, err)
	}

	return ctx.JSON(fiber.Map{
		"success": true,
		"data":    response,
	})
}

func (a *AuthController) Logout(ctx *fiber.Ctx) error {
	payload := new(LogoutRequest)

	if err := ctx.BodyParser(payload); err != nil {
		a.Logger.Error("logout parse payload: ", "error", err)
		return a.fail(ctx, fiber.StatusBadRequest, "invalid request body")
	}

	if err := payload.Validate(); err != nil {
		return a.validationFail(ctx, err)
	}

	if err := a.Sessions.Logout(ctx.Context(), payload.RefreshToken); err != nil {
		return a.errorResponse(ctx, err)
	}

	return ctx.JSON(fiber.Map{
		"success": true,
		"message": "logged out",
	})
}

func (a *AuthController) LogoutAll(ctx *fiber.Ctx) error {
	user, ok := CurrentUser(ctx)
	if !ok {
		return a.fail(ctx, fiber.StatusUnauthorized, "unauthorized")
	}

	if err := a.Sessions.LogoutAll(ctx.Context(), user.ID); err != nil {
		return a.errorResponse(ctx, err)
	}

	return ctx.JSON(fiber.Map{
		"success": true,
		"message": "logged out everywhere",
	})
}

func (a *AuthController) Profile(ctx *fiber.Ctx) error {
	user, ok := CurrentUser(ctx)
	if !ok {
		return a.fail(ctx, fiber.StatusUnauthorized, "unauthorized")
	}

	profile, err := a.Sessions.Profile(ctx.Context(), user.ID)
	if err != nil {
		return a.errorResponse(ctx, err)
	}

	return ctx.JSON(fiber.Map{
		"success": true,
		"data":    profile,
	})
}

func (a *AuthController) errorResponse(ctx *fiber.Ctx, err error) error {
	status, message := HTTPStatusFromError(err, a.Development)
	if status >= 500 {
		a.Logger.Error("auth controller error", "error", err)
	}
	return a.fail(ctx, status, message)
}

func (a *AuthController) validationFail(ctx *fiber.Ctx, err error) error {
	return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"error":   "validation failed",
		"fields":  FormatValidationErrorToMap(err),
	})
}

func (a *AuthController) fail(ctx *fiber.Ctx, status int, message string) error {
	return ctx.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   message,
	})
}
