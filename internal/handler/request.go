package handler

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DateLayout is the calendar date format used in request and response bodies
const DateLayout = "2006-01-02"

// parseAmount parses a decimal money field. An empty value yields zero.
func parseAmount(field, raw string) (decimal.Decimal, *ValidationError) {
	if raw == "" {
		return decimal.Zero, nil
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, &ValidationError{Field: field, Message: "Must be a valid decimal number"}
	}
	return amount, nil
}

// parseDate accepts YYYY-MM-DD or RFC 3339. An empty value yields the zero time.
func parseDate(field, raw string) (time.Time, *ValidationError) {
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(DateLayout, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, &ValidationError{Field: field, Message: "Must be a date in YYYY-MM-DD format"}
	}
	return t.UTC(), nil
}

// parseUUIDField parses a UUID body field
func parseUUIDField(field, raw string) (uuid.UUID, *ValidationError) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, &ValidationError{Field: field, Message: "Must be a valid ID"}
	}
	return id, nil
}
