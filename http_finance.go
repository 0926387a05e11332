package ledger

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// FinanceController exposes categories, transactions and tax rules over JSON.
// Every transaction route requires an authenticated user; category listing
// degrades to the default palette for anonymous callers.
type FinanceController struct {
	Development bool
	Logger      Logger
	Repo        RepositoryManager
}

func NewFinanceController(repo RepositoryManager, logger Logger) *FinanceController {
	if repo == nil {
		panic("Missing RepositoryManager in finance controller...")
	}
	if logger == nil {
		logger = defLogger{}
	}

	return &FinanceController{
		Logger: logger,
		Repo:   repo,
	}
}

// RegisterFinanceRoutes mounts the finance endpoints. The optional guard lets
// anonymous callers read the default category palette; everything else sits
// behind the required guard.
func RegisterFinanceRoutes(app fiber.Router, controller *FinanceController, guard, optionalGuard fiber.Handler) {
	api := app.Group("/api")

	api.Get("/categories", optionalGuard, controller.ListCategories)
	api.Post("/categories", guard, controller.CreateCategory)
	api.Put("/categories/:id", guard, controller.UpdateCategory)
	api.Delete("/categories/:id", guard, controller.DeleteCategory)

	api.Get("/transactions", guard, controller.ListTransactions)
	api.Get("/transactions/summary", guard, controller.Summary)
	api.Post("/transactions", guard, controller.CreateTransaction)
	api.Get("/transactions/:id", guard, controller.GetTransaction)
	api.Put("/transactions/:id", guard, controller.UpdateTransaction)
	api.Delete("/transactions/:id", guard, controller.DeleteTransaction)

	api.Get("/tax-rules", guard, controller.ListTaxRules)
}

// CategoryPayload is the create shape for user categories.
type CategoryPayload struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

// Normalize trims and lowercases the discriminator before validation.
func (p *CategoryPayload) Normalize() {
	p.Type = strings.ToLower(strings.TrimSpace(p.Type))
	p.Name = strings.TrimSpace(p.Name)
}

// Validate will run validation rules
func (p CategoryPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&p.Type, validation.Required, validation.In(EntryIncome, EntryExpense)),
		validation.Field(&p.Color, is.HexColor),
	)
}

// TransactionPayload is the create/update shape for ledger entries.
type TransactionPayload struct {
	Description string     `json:"description"`
	Amount      float64    `json:"amount"`
	Type        string     `json:"type"`
	CategoryID  *uuid.UUID `json:"category_id"`
	Date        time.Time  `json:"transaction_date"`
	Notes       string     `json:"notes"`
}

// Normalize trims and lowercases the discriminator before validation. This is
// the only place entry types are normalized; models store values as given.
func (p *TransactionPayload) Normalize() {
	p.Type = strings.ToLower(strings.TrimSpace(p.Type))
	p.Description = strings.TrimSpace(p.Description)
}

// Validate will run validation rules
func (p TransactionPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Description, validation.Required, validation.Length(1, 255)),
		validation.Field(&p.Amount, validation.Required, validation.Min(0.01)),
		validation.Field(&p.Type, validation.Required, validation.In(EntryIncome, EntryExpense)),
		validation.Field(&p.Date, validation.Required),
	)
}

// SummaryResponse aggregates a user's ledger. TaxDue applies every active tax
// rule band to the income total.
type SummaryResponse struct {
	TotalIncome  float64 `json:"total_income"`
	TotalExpense float64 `json:"total_expense"`
	Balance      float64 `json:"balance"`
	TaxDue       float64 `json:"tax_due"`
	Count        int     `json:"count"`
}

func (f *FinanceController) ListCategories(ctx *fiber.Ctx) error {
	user, ok := CurrentUser(ctx)

	var (
		records []*Category
		err     error
	)

	if ok {
		records, err = f.Repo.Categories().ListForUser(ctx.Context(), user.ID)
	} else {
		records, err = f.Repo.Categories().ListDefaults(ctx.Context())
	}

	if err != nil {
		return f.errorResponse(ctx, err)
	}

	return ctx.JSON(fiber.Map{
		"success": true,
		"data":    records,
	})
}

func (f *FinanceController) CreateCategory(ctx *fiber.Ctx) error {
	user, ok := CurrentUser(ctx)
	if !ok {
		return f.fail(ctx, fiber.StatusUnauthorized, "unauthorized")
	}

	payload := new(CategoryPayload)
	if err := ctx.BodyParser(payload); err != nil {
		return f.fail(ctx, fiber.StatusBadRequest, "invalid request body")
	}

	payload.Normalize()
	if err := payload.Validate(); err != nil {
		return f.validationFail(ctx, err)
	}

	record := &Category{
		ID:     uuid.New(),
		UserID: &user.ID,
		Name:   payload.Name,
		Type:   payload.Type,
		Color:  payload.Color,
		Icon:   payload.Icon,
	}

	created, err := f.Repo.Categories().Create(ctx.Context(), record)
	if err != nil {
		return f.errorResponse(ctx, err)
	}

	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    created,
	})
}

func (f *FinanceController) UpdateCategory(ctx *fiber.Ctx) error {
	user, ok := CurrentUser(ctx)
	if !ok {
		return f.fail(ctx, fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return f.fail(ctx, fiber.StatusBadRequest, "invalid category id")
	}

	payload := new(CategoryPayload)
	if err := ctx.BodyParser(payload); err != nil {
		return f.fail(ctx, fiber.StatusBadRequest, "invalid request body")
	}

	payload.Normalize()
	if err := payload.Validate(); err != nil {
		return f.validationFail(ctx, err)
	}

	record, err := f.Repo.Categories().GetOwned(ctx.Context(), user.ID, id)
	if err != nil {
		return f.errorResponse(ctx, err)
	}

	record.Name = payload.Name
	record.Type = payload.Type
	record.Color = payload.Color
	record.Icon = payload.Icon

	updated, err := f.Repo.Categories().Update(ctx.Context(), record)
	if err != nil {
		return f.errorResponse(ctx, err)
	}

	return ctx.JSON(fiber.Map{
		"success": true,
		"data":    updated,
	})
}

func (f *FinanceController) DeleteCategory(ctx *fiber.Ctx) error {
	user, ok := CurrentUser(ctx)
	if !ok {
		return f.fail(ctx, fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return f.fail(ctx, fiber.StatusBadRequest, "invalid category id")
	}

	record, err := f.Repo.Categories().GetOwned(ctx.Context(), user.ID, id)
	if err != nil {
		return f.errorResponse(ctx, err)
	}

	if err := f.Repo.Categories().Delete(ctx.Context(), record); err != nil {
		return f.errorResponse(ctx, err)
	}

	return ctx.JSON(fiber.Map{
		"success": true,
		"message": "category deleted",
	})
}

func (f *FinanceController) ListTransactions(ctx *fiber.Ctx) error {
	user, ok := CurrentUser(ctx)
	if !ok {
		return f.fail(ctx, fiber.StatusUnauthorized, "unauthorized")
	}

	records, err := f.Repo.Transactions().ListForUser(ctx.Context(), user.ID)
	if err != nil {
		return f.errorResponse(ctx, err)
	}

	return ctx.JSON(fiber.Map{
		"success": true,
		"data":    records,
	})
}

func (f *FinanceController) GetTransaction(ctx *fiber.Ctx) error {
	user, ok := CurrentUser(ctx)
	if !ok {
		return f.fail(ctx, fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return f.fail(ctx, fiber.StatusBadRequest, "invalid transaction id")
	}

	record, err := f.Repo.Transactions().GetOwned(ctx.Context(), user.ID, id)
	if err != nil {
		return f.errorResponse(ctx, err)
	}

	return ctx.JSON(fiber.Map{
		"success": true,
		"data":    record,
	})
}

func (f *FinanceController) CreateTransaction(ctx *fiber.Ctx) error {
	user, ok := CurrentUser(ctx)
	if !ok {
		return f.fail(ctx, fiber.StatusUnauthorized, "unauthorized")
	}

	payload := new(TransactionPayload)
	if err := ctx.BodyParser(payload); err != nil {
		return f.fail(ctx, fiber.StatusBadRequest, "invalid request body")
	}

	payload.Normalize()
	if err := payload.Validate(); err != nil {
		return f.validationFail(ctx, err)
	}

	record := &Transaction{
		ID:          uuid.New(),
		UserID:      user.ID,
		CategoryID:  payload.CategoryID,
		Description: payload.Description,
		Amount:      payload.Amount,
		Type:        payload.Type,
		Date:        payload.Date,
		Notes:       payload.Notes,
	}

	created, err := f.Repo.Transactions().Create(ctx.Context(), record)
	if err != nil {
		return f.errorResponse(ctx, err)
	}

	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    created,
	})
}

func (f *FinanceController) UpdateTransaction(ctx *fiber.Ctx) error {
	user, ok := CurrentUser(ctx)
	if !ok {
		return f.fail(ctx, fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return f.fail(ctx, fiber.StatusBadRequest, "invalid transaction id")
	}

	payload := new(TransactionPayload)
	if err := ctx.BodyParser(payload); err != nil {
		return f.fail(ctx, fiber.StatusBadRequest, "invalid request body")
	}

	payload.Normalize()
	if err := payload.Validate(); err != nil {
		return f.validationFail(ctx, err)
	}

	record, err := f.Repo.Transactions().GetOwned(ctx.Context(), user.ID, id)
	if err != nil {
		return f.errorResponse(ctx, err)
	}

	record.CategoryID = payload.CategoryID
	record.Description = payload.Description
	record.Amount = payload.Amount
	record.Type = payload.Type
	record.Date = payload.Date
	record.Notes = payload.Notes

	updated, err := f.Repo.Transactions().Update(ctx.Context(), record)
	if err != nil {
		return f.errorResponse(ctx, err)
	}

	return ctx.JSON(fiber.Map{
		"success": true,
		"data":    updated,
	})
}

func (f *FinanceController) DeleteTransaction(ctx *fiber.Ctx) error {
	user, ok := CurrentUser(ctx)
	if !ok {
		return f.fail(ctx, fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return f.fail(ctx, fiber.StatusBadRequest, "invalid transaction id")
	}

	if _, err := f.Repo.Transactions().GetOwned(ctx.Context(), user.ID, id); err != nil {
		return f.errorResponse(ctx, err)
	}

	if err := f.Repo.Transactions().DeleteOwned(ctx.Context(), user.ID, id); err != nil {
		return f.errorResponse(ctx, err)
	}

	return ctx.JSON(fiber.Map{
		"success": true,
		"message": "transaction deleted",
	})
}

func (f *FinanceController) Summary(ctx *fiber.Ctx) error {
	user, ok := CurrentUser(ctx)
	if !ok {
		return f.fail(ctx, fiber.StatusUnauthorized, "unauthorized")
	}

	records, err := f.Repo.Transactions().ListForUser(ctx.Context(), user.ID)
	if err != nil {
		return f.errorResponse(ctx, err)
	}

	rules, err := f.Repo.TaxRules().ListActive(ctx.Context())
	if err != nil {
		return f.errorResponse(ctx, err)
	}

	summary := BuildSummary(records, rules)

	return ctx.JSON(fiber.Map{
		"success": true,
		"data":    summary,
	})
}

func (f *FinanceController) ListTaxRules(ctx *fiber.Ctx) error {
	rules, err := f.Repo.TaxRules().ListActive(ctx.Context())
	if err != nil {
		return f.errorResponse(ctx, err)
	}

	return ctx.JSON(fiber.Map{
		"success": true,
		"data":    rules,
	})
}

// BuildSummary totals the entries and applies the active tax bands to income.
func BuildSummary(records []*Transaction, rules []*TaxRule) SummaryResponse {
	summary := SummaryResponse{Count: len(records)}

	for _, record := range records {
		switch record.Type {
		case EntryIncome:
			summary.TotalIncome += record.Amount
		case EntryExpense:
			summary.TotalExpense += record.Amount
		}
	}

	summary.Balance = summary.TotalIncome - summary.TotalExpense

	for _, rule := range rules {
		if rule.Applies(summary.TotalIncome) {
			summary.TaxDue += summary.TotalIncome * rule.Percentage / 100
		}
	}

	return summary
}

func (f *FinanceController) errorResponse(ctx *fiber.Ctx, err error) error {
	status, message := HTTPStatusFromError(err, f.Development)
	if status >= 500 {
		f.Logger.Error("finance controller error", "error", err)
	}
	return f.fail(ctx, status, message)
}

func (f *FinanceController) validationFail(ctx *fiber.Ctx, err error) error {
	return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"error":   "validation failed",
		"fields":  FormatValidationErrorToMap(err),
	})
}

func (f *FinanceController) fail(ctx *fiber.Ctx, status int, message string) error {
	return ctx.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   message,
	})
}
