package common

import (
	"strconv"
	"strings"
	"time"

	"finance-app-go/internal/domain/errs"
)

const DateLayout = "2006-01-02"

func ParseIntParam(name, value string, fallback int) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		return 0, errs.Validation("%s must be a non-negative integer", name)
	}
	return parsed, nil
}

func ParseDateParam(name, value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	parsed, err := time.Parse(DateLayout, value)
	if err != nil {
		return nil, errs.Validation("%s must be a date in YYYY-MM-DD format", name)
	}
	return &parsed, nil
}

func ParseDateRequired(name, value string) (time.Time, error) {
	parsed, err := ParseDateParam(name, value)
	if err != nil {
		return time.Time{}, err
	}
	if parsed == nil {
		return time.Time{}, errs.Validation("%s is required", name)
	}
	return *parsed, nil
}
