package handler

import (
	"finance-app-go/internal/transport/httpserver/handler/analysis"
	"finance-app-go/internal/transport/httpserver/handler/common"
	"finance-app-go/internal/transport/httpserver/handler/expenses"
	"finance-app-go/internal/transport/httpserver/handler/retention"
)

type Handlers struct {
	Common    *common.Handlers
	Analysis  *analysis.Handlers
	Retention *retention.Handlers
	Expenses  *expenses.Handlers
}

func New(commonHandlers *common.Handlers, analysisHandlers *analysis.Handlers, retentionHandlers *retention.Handlers, expensesHandlers *expenses.Handlers) *Handlers {
	return &Handlers{
		Common:    commonHandlers,
		Analysis:  analysisHandlers,
		Retention: retentionHandlers,
		Expenses:  expensesHandlers,
	}
}
