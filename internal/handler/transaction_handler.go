package handler

import (
	"net/http"

	"github.com/dafibh/sitebook/sitebook-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// TransactionHandler handles income and expense HTTP requests
type TransactionHandler struct {
	incomeService  *service.IncomeService
	expenseService *service.ExpenseService
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(incomeService *service.IncomeService, expenseService *service.ExpenseService) *TransactionHandler {
	return &TransactionHandler{
		incomeService:  incomeService,
		expenseService: expenseService,
	}
}

// IncomeRequest represents the create/update income request body
type IncomeRequest struct {
	Amount  string `json:"amount"`
	Content string `json:"content"`
	Date    string `json:"date"`
}

// ExpenseRequest represents the create/update expense request body
type ExpenseRequest struct {
	CategoryID string `json:"categoryId"`
	Amount     string `json:"amount"`
	Content    string `json:"content"`
	Date       string `json:"date"`
}

func (r IncomeRequest) toInput() (service.IncomeInput, []ValidationError) {
	var errs []ValidationError
	amount, verr := parseAmount("amount", r.Amount)
	if verr != nil {
		errs = append(errs, *verr)
	}
	date, verr := parseDate("date", r.Date)
	if verr != nil {
		errs = append(errs, *verr)
	}
	return service.IncomeInput{Amount: amount, Content: r.Content, Date: date}, errs
}

func (r ExpenseRequest) toInput() (service.ExpenseInput, []ValidationError) {
	var errs []ValidationError
	categoryID, verr := parseUUIDField("categoryId", r.CategoryID)
	if verr != nil {
		errs = append(errs, *verr)
	}
	amount, verr := parseAmount("amount", r.Amount)
	if verr != nil {
		errs = append(errs, *verr)
	}
	date, verr := parseDate("date", r.Date)
	if verr != nil {
		errs = append(errs, *verr)
	}
	return service.ExpenseInput{CategoryID: categoryID, Amount: amount, Content: r.Content, Date: date}, errs
}

// CreateIncome handles POST /api/v1/sites/:id/incomes
func (h *TransactionHandler) CreateIncome(c echo.Context) error {
	siteID, ok := parseUUIDParam(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid site ID", nil)
	}

	var req IncomeRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	input, errs := req.toInput()
	if len(errs) > 0 {
		return NewValidationError(c, "Validation failed", errs)
	}

	income, err := h.incomeService.CreateIncome(c.Request().Context(), siteID, input)
	if err != nil {
		return handleServiceError(c, err, "create income")
	}

	log.Info().Str("site_id", siteID.String()).Str("income_id", income.ID.String()).Str("amount", income.Amount.String()).Msg("Income created")
	return c.JSON(http.StatusCreated, income)
}

// GetIncomes handles GET /api/v1/sites/:id/incomes
func (h *TransactionHandler) GetIncomes(c echo.Context) error {
	siteID, ok := parseUUIDParam(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid site ID", nil)
	}

	incomes, err := h.incomeService.ListIncomes(c.Request().Context(), siteID)
	if err != nil {
		return handleServiceError(c, err, "get incomes")
	}
	return c.JSON(http.StatusOK, incomes)
}

// GetIncome handles GET /api/v1/incomes/:id
func (h *TransactionHandler) GetIncome(c echo.Context) error {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid income ID", nil)
	}

	income, err := h.incomeService.GetIncome(c.Request().Context(), id)
	if err != nil {
		return handleServiceError(c, err, "get income")
	}
	return c.JSON(http.StatusOK, income)
}

// UpdateIncome handles PUT /api/v1/incomes/:id
func (h *TransactionHandler) UpdateIncome(c echo.Context) error {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid income ID", nil)
	}

	var req IncomeRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	input, errs := req.toInput()
	if len(errs) > 0 {
		return NewValidationError(c, "Validation failed", errs)
	}

	income, err := h.incomeService.UpdateIncome(c.Request().Context(), id, input)
	if err != nil {
		return handleServiceError(c, err, "update income")
	}
	return c.JSON(http.StatusOK, income)
}

// DeleteIncome handles DELETE /api/v1/incomes/:id
func (h *TransactionHandler) DeleteIncome(c echo.Context) error {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid income ID", nil)
	}

	if err := h.incomeService.DeleteIncome(c.Request().Context(), id); err != nil {
		return handleServiceError(c, err, "delete income")
	}
	return c.NoContent(http.StatusNoContent)
}

// CreateExpense handles POST /api/v1/sites/:id/expenses
func (h *TransactionHandler) CreateExpense(c echo.Context) error {
	siteID, ok := parseUUIDParam(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid site ID", nil)
	}

	var req ExpenseRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	input, errs := req.toInput()
	if len(errs) > 0 {
		return NewValidationError(c, "Validation failed", errs)
	}

	expense, err := h.expenseService.CreateExpense(c.Request().Context(), siteID, input)
	if err != nil {
		return handleServiceError(c, err, "create expense")
	}

	log.Info().
		Str("site_id", siteID.String()).
		Str("expense_id", expense.ID.String()).
		Str("category_id", expense.CategoryID.String()).
		Str("amount", expense.Amount.String()).
		Msg("Expense created")
	return c.JSON(http.StatusCreated, expense)
}

// GetExpenses handles GET /api/v1/sites/:id/expenses
func (h *TransactionHandler) GetExpenses(c echo.Context) error {
	siteID, ok := parseUUIDParam(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid site ID", nil)
	}

	expenses, err := h.expenseService.ListExpenses(c.Request().Context(), siteID)
	if err != nil {
		return handleServiceError(c, err, "get expenses")
	}
	return c.JSON(http.StatusOK, expenses)
}

// GetExpense handles GET /api/v1/expenses/:id
func (h *TransactionHandler) GetExpense(c echo.Context) error {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid expense ID", nil)
	}

	expense, err := h.expenseService.GetExpense(c.Request().Context(), id)
	if err != nil {
		return handleServiceError(c, err, "get expense")
	}
	return c.JSON(http.StatusOK, expense)
}

// UpdateExpense handles PUT /api/v1/expenses/:id
func (h *TransactionHandler) UpdateExpense(c echo.Context) error {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid expense ID", nil)
	}

	var req ExpenseRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	input, errs := req.toInput()
	if len(errs) > 0 {
		return NewValidationError(c, "Validation failed", errs)
	}

	expense, err := h.expenseService.UpdateExpense(c.Request().Context(), id, input)
	if err != nil {
		return handleServiceError(c, err, "update expense")
	}
	return c.JSON(http.StatusOK, expense)
}

// DeleteExpense handles DELETE /api/v1/expenses/:id
func (h *TransactionHandler) DeleteExpense(c echo.Context) error {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid expense ID", nil)
	}

	if err := h.expenseService.DeleteExpense(c.Request().Context(), id); err != nil {
		return handleServiceError(c, err, "delete expense")
	}
	return c.NoContent(http.StatusNoContent)
}
