package handler

import (
	"net/http"

	"github.com/dafibh/sitebook/sitebook-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// CategoryHandler handles category-related HTTP requests
type CategoryHandler struct {
	categoryService *service.CategoryService
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(categoryService *service.CategoryService) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

// CategoryRequest represents the create/update category request body
type CategoryRequest struct {
	Name         string `json:"name"`
	BudgetAmount string `json:"budgetAmount"`
	IsActive     *bool  `json:"isActive,omitempty"`
}

func (r CategoryRequest) toInput() (service.CategoryInput, *ValidationError) {
	budget, verr := parseAmount("budgetAmount", r.BudgetAmount)
	if verr != nil {
		return service.CategoryInput{}, verr
	}
	return service.CategoryInput{Name: r.Name, BudgetAmount: budget, IsActive: r.IsActive}, nil
}

// CreateCategory handles POST /api/v1/sites/:id/categories
func (h *CategoryHandler) CreateCategory(c echo.Context) error {
	siteID, ok := parseUUIDParam(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid site ID", nil)
	}

	var req CategoryRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	input, verr := req.toInput()
	if verr != nil {
		return NewValidationError(c, "Validation failed", []ValidationError{*verr})
	}

	category, err := h.categoryService.CreateCategory(c.Request().Context(), siteID, input)
	if err != nil {
		return handleServiceError(c, err, "create category")
	}

	log.Info().Str("site_id", siteID.String()).Str("category_id", category.ID.String()).Str("name", category.Name).Msg("Category created")
	return c.JSON(http.StatusCreated, category)
}

// GetCategories handles GET /api/v1/sites/:id/categories
func (h *CategoryHandler) GetCategories(c echo.Context) error {
	siteID, ok := parseUUIDParam(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid site ID", nil)
	}

	categories, err := h.categoryService.ListCategories(c.Request().Context(), siteID)
	if err != nil {
		return handleServiceError(c, err, "get categories")
	}
	return c.JSON(http.StatusOK, categories)
}

// GetCategory handles GET /api/v1/categories/:id
func (h *CategoryHandler) GetCategory(c echo.Context) error {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid category ID", nil)
	}

	category, err := h.categoryService.GetCategory(c.Request().Context(), id)
	if err != nil {
		return handleServiceError(c, err, "get category")
	}
	return c.JSON(http.StatusOK, category)
}

// UpdateCategory handles PUT /api/v1/categories/:id
func (h *CategoryHandler) UpdateCategory(c echo.Context) error {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid category ID", nil)
	}

	var req CategoryRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	input, verr := req.toInput()
	if verr != nil {
		return NewValidationError(c, "Validation failed", []ValidationError{*verr})
	}

	category, err := h.categoryService.UpdateCategory(c.Request().Context(), id, input)
	if err != nil {
		return handleServiceError(c, err, "update category")
	}
	return c.JSON(http.StatusOK, category)
}

// DeleteCategory handles DELETE /api/v1/categories/:id
func (h *CategoryHandler) DeleteCategory(c echo.Context) error {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid category ID", nil)
	}

	if err := h.categoryService.DeleteCategory(c.Request().Context(), id); err != nil {
		return handleServiceError(c, err, "delete category")
	}

	log.Info().Str("category_id", id.String()).Msg("Category deleted")
	return c.NoContent(http.StatusNoContent)
}
