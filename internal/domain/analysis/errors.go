package analysis

import "finance-app-go/internal/domain/errs"

var ErrAnalysisNotFound = errs.NotFound("analysis not found")
