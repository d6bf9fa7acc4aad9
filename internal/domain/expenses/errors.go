package expenses

import "finance-app-go/internal/domain/errs"

var (
	ErrExpenseNotFound      = errs.NotFound("expense not found")
	ErrInvalidAmount        = errs.Validation("amount must be greater than zero with at most two decimal places")
	ErrInvalidDescription   = errs.Validation("description must be 1-200 characters")
	ErrInvalidPaymentMethod = errs.Validation("invalid payment method")
	ErrInvalidRecurrence    = errs.Validation("invalid recurrence")
	ErrInvalidCategoryRules = errs.Validation("invalid category rules")
)
