package service

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dafibh/sitebook/sitebook-backend/internal/domain"
	"github.com/shopspring/decimal"
)

func validateName(name string, maxLength int) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", domain.ErrNameRequired
	}
	if utf8.RuneCountInString(name) > maxLength {
		return "", domain.ErrNameTooLong
	}
	return name, nil
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", domain.ErrTitleRequired
	}
	if utf8.RuneCountInString(title) > domain.MaxDiaryTitleLength {
		return "", domain.ErrTitleTooLong
	}
	return title, nil
}

func validateContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if utf8.RuneCountInString(content) > domain.MaxContentLength {
		return "", domain.ErrContentTooLong
	}
	return content, nil
}

func validateAmount(amount decimal.Decimal) error {
	if !amount.GreaterThan(decimal.Zero) {
		return domain.ErrAmountNotPositive
	}
	return nil
}

func validateDate(date time.Time) error {
	if date.IsZero() {
		return domain.ErrDateRequired
	}
	return nil
}

// optionalText trims s and maps blank values to nil
func optionalText(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
