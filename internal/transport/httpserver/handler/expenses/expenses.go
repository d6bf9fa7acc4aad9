package expenses

import (
	"net/http"
	"strings"

	expensesdomain "finance-app-go/internal/domain/expenses"
	"finance-app-go/internal/transport/httpserver/handler/common"
	"finance-app-go/internal/transport/httpserver/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type expenseRequest struct {
	Date          string                     `json:"date"`
	Amount        decimal.Decimal            `json:"amount"`
	Description   string                     `json:"description"`
	Category      string                     `json:"category"`
	Tags          []string                   `json:"tags"`
	Notes         *string                    `json:"notes"`
	PaymentMethod *string                    `json:"payment_method"`
	Recurrence    *expensesdomain.Recurrence `json:"recurrence"`
}

type expenseListResponse struct {
	Items []expensesdomain.Expense `json:"items"`
	Total int64                    `json:"total"`
}

func (h *Handlers) ListExpenses(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		common.Unauthorized(w)
		return
	}

	query := r.URL.Query()
	from, err := common.ParseDateParam("from", query.Get("from"))
	if err != nil {
		common.WriteServiceError(w, h.log, "expenses.list: invalid from", err, "user_id", user.ID)
		return
	}
	to, err := common.ParseDateParam("to", query.Get("to"))
	if err != nil {
		common.WriteServiceError(w, h.log, "expenses.list: invalid to", err, "user_id", user.ID)
		return
	}
	limit, err := common.ParseIntParam("limit", query.Get("limit"), defaultListLimit)
	if err != nil {
		common.WriteServiceError(w, h.log, "expenses.list: invalid limit", err, "user_id", user.ID)
		return
	}
	if limit == 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	offset, err := common.ParseIntParam("offset", query.Get("offset"), 0)
	if err != nil {
		common.WriteServiceError(w, h.log, "expenses.list: invalid offset", err, "user_id", user.ID)
		return
	}

	items, total, err := h.Expenses.ListExpenses(r.Context(), user.ID, expensesdomain.ListFilter{
		From:     from,
		To:       to,
		Category: strings.TrimSpace(query.Get("category")),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		common.WriteServiceError(w, h.log, "expenses.list: list expenses failed", err, "user_id", user.ID)
		return
	}

	common.WriteData(w, http.StatusOK, expenseListResponse{Items: items, Total: total})
}

func (h *Handlers) GetExpense(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		common.Unauthorized(w)
		return
	}

	expense, err := h.Expenses.GetExpense(r.Context(), user.ID, chi.URLParam(r, "id"))
	if err != nil {
		common.WriteServiceError(w, h.log, "expenses.get: get expense failed", err, "user_id", user.ID)
		return
	}

	common.WriteData(w, http.StatusOK, expense)
}

func (h *Handlers) CreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.InvalidJSON(w)
		return
	}

	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		common.Unauthorized(w)
		return
	}

	date, err := common.ParseDateRequired("date", req.Date)
	if err != nil {
		common.WriteServiceError(w, h.log, "expenses.create: invalid date", err, "user_id", user.ID)
		return
	}

	expense, err := h.Expenses.CreateExpense(r.Context(), expensesdomain.CreateExpenseInput{
		OwnerID:       user.ID,
		Amount:        req.Amount,
		Description:   req.Description,
		Category:      req.Category,
		Date:          date,
		Tags:          req.Tags,
		Notes:         req.Notes,
		PaymentMethod: req.PaymentMethod,
		Recurrence:    req.Recurrence,
	})
	if err != nil {
		common.WriteServiceError(w, h.log, "expenses.create: create expense failed", err, "user_id", user.ID)
		return
	}

	common.WriteData(w, http.StatusCreated, expense)
}

func (h *Handlers) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.InvalidJSON(w)
		return
	}

	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		common.Unauthorized(w)
		return
	}

	date, err := common.ParseDateRequired("date", req.Date)
	if err != nil {
		common.WriteServiceError(w, h.log, "expenses.update: invalid date", err, "user_id", user.ID)
		return
	}

	expenseID := chi.URLParam(r, "id")
	expense, err := h.Expenses.UpdateExpense(r.Context(), expensesdomain.UpdateExpenseInput{
		ID:            expenseID,
		OwnerID:       user.ID,
		Amount:        req.Amount,
		Description:   req.Description,
		Category:      req.Category,
		Date:          date,
		Tags:          req.Tags,
		Notes:         req.Notes,
		PaymentMethod: req.PaymentMethod,
		Recurrence:    req.Recurrence,
	})
	if err != nil {
		common.WriteServiceError(w, h.log, "expenses.update: update expense failed", err, "user_id", user.ID, "expense_id", expenseID)
		return
	}

	common.WriteData(w, http.StatusOK, expense)
}

func (h *Handlers) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		common.Unauthorized(w)
		return
	}

	expenseID := chi.URLParam(r, "id")
	if err := h.Expenses.DeleteExpense(r.Context(), user.ID, expenseID); err != nil {
		common.WriteServiceError(w, h.log, "expenses.delete: delete expense failed", err, "user_id", user.ID, "expense_id", expenseID)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
