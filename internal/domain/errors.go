package domain

import "errors"

// Domain errors
var (
	ErrNotFound             = errors.New("resource not found")
	ErrInvalidInput         = errors.New("invalid input")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrInternalError        = errors.New("internal error")
	ErrNameRequired         = errors.New("name is required")
	ErrNameTooLong          = errors.New("name exceeds maximum length")
	ErrTitleRequired        = errors.New("title is required")
	ErrTitleTooLong         = errors.New("title exceeds maximum length")
	ErrContentTooLong       = errors.New("content exceeds maximum length")
	ErrAmountNotPositive    = errors.New("amount must be greater than zero")
	ErrBudgetNegative       = errors.New("budget amount cannot be negative")
	ErrDateRequired         = errors.New("date is required")
	ErrSiteNotFound         = errors.New("site not found")
	ErrCategoryNotFound     = errors.New("category not found")
	ErrCategorySiteMismatch = errors.New("category does not belong to site")
	ErrIncomeNotFound       = errors.New("income not found")
	ErrExpenseNotFound      = errors.New("expense not found")
	ErrDiaryEntryNotFound   = errors.New("diary entry not found")
)

// Validation constants
const (
	MaxSiteNameLength     = 100
	MaxCategoryNameLength = 100
	MaxDiaryTitleLength   = 200
	MaxContentLength      = 5000
)
