package accounts

import "finance-app-go/internal/domain/errs"

var ErrAccountNotFound = errs.NotFound("account not found")
