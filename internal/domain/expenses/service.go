package expenses

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var paymentMethods = map[string]struct{}{
	"cash":           {},
	"credit_card":    {},
	"debit_card":     {},
	"bank_transfer":  {},
	"digital_wallet": {},
	"other":          {},
}

var recurrenceFrequencies = map[string]struct{}{
	"daily":   {},
	"weekly":  {},
	"monthly": {},
	"yearly":  {},
}

type Service struct {
	repo        Repository
	categorizer *Categorizer
	now         func() time.Time
}

func NewService(repo Repository, categorizer *Categorizer) *Service {
	if categorizer == nil {
		categorizer = DefaultCategorizer()
	}
	return &Service{repo: repo, categorizer: categorizer, now: time.Now}
}

func (s *Service) ListExpenses(ctx context.Context, ownerID string, filter ListFilter) ([]Expense, int64, error) {
	items, total, err := s.repo.ListExpenses(ctx, ownerID, filter)
	if err != nil {
		return nil, 0, err
	}
	if len(items) == 0 {
		return []Expense{}, total, nil
	}
	return items, total, nil
}

func (s *Service) GetExpense(ctx context.Context, ownerID, expenseID string) (*Expense, error) {
	if err := uuid.Validate(expenseID); err != nil {
		return nil, ErrExpenseNotFound
	}
	return s.repo.GetExpenseByID(ctx, ownerID, expenseID)
}

func (s *Service) CreateExpense(ctx context.Context, input CreateExpenseInput) (*Expense, error) {
	description, err := s.validateInput(input.Amount, input.Description, input.PaymentMethod, input.Recurrence)
	if err != nil {
		return nil, err
	}

	expense := Expense{
		ID:            uuid.NewString(),
		OwnerID:       input.OwnerID,
		Amount:        input.Amount.Round(2),
		Description:   description,
		Category:      s.resolveCategory(input.Category, description),
		Date:          truncateToDay(input.Date),
		Tags:          normalizeTags(input.Tags),
		Notes:         trimOptional(input.Notes),
		PaymentMethod: normalizePaymentMethod(input.PaymentMethod),
		Recurrence:    input.Recurrence,
	}

	if err := s.repo.CreateExpense(ctx, &expense); err != nil {
		return nil, err
	}

	return &expense, nil
}

func (s *Service) UpdateExpense(ctx context.Context, input UpdateExpenseInput) (*Expense, error) {
	description, err := s.validateInput(input.Amount, input.Description, input.PaymentMethod, input.Recurrence)
	if err != nil {
		return nil, err
	}

	expense, err := s.GetExpense(ctx, input.OwnerID, input.ID)
	if err != nil {
		return nil, err
	}

	expense.Amount = input.Amount.Round(2)
	expense.Description = description
	expense.Category = s.resolveCategory(input.Category, description)
	expense.Date = truncateToDay(input.Date)
	expense.Tags = normalizeTags(input.Tags)
	expense.Notes = trimOptional(input.Notes)
	expense.PaymentMethod = normalizePaymentMethod(input.PaymentMethod)
	expense.Recurrence = input.Recurrence
	expense.UpdatedAt = s.now().UTC()

	if err := s.repo.UpdateExpense(ctx, expense); err != nil {
		return nil, err
	}

	return expense, nil
}

func (s *Service) DeleteExpense(ctx context.Context, ownerID, expenseID string) error {
	if err := uuid.Validate(expenseID); err != nil {
		return ErrExpenseNotFound
	}
	deleted, err := s.repo.DeleteByID(ctx, ownerID, expenseID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrExpenseNotFound
	}
	return nil
}

func (s *Service) validateInput(amount decimal.Decimal, description string, paymentMethod *string, recurrence *Recurrence) (string, error) {
	if !amount.IsPositive() || !amount.Equal(amount.Round(2)) {
		return "", ErrInvalidAmount
	}

	description = strings.TrimSpace(description)
	if length := len([]rune(description)); length == 0 || length > MaxDescriptionLength {
		return "", ErrInvalidDescription
	}

	if method := normalizePaymentMethod(paymentMethod); method != nil {
		if _, ok := paymentMethods[*method]; !ok {
			return "", ErrInvalidPaymentMethod
		}
	}

	if recurrence != nil {
		if _, ok := recurrenceFrequencies[strings.ToLower(recurrence.Frequency)]; !ok {
			return "", ErrInvalidRecurrence
		}
		if recurrence.Interval < 1 {
			return "", ErrInvalidRecurrence
		}
		recurrence.Frequency = strings.ToLower(recurrence.Frequency)
	}

	return description, nil
}

func (s *Service) resolveCategory(category, description string) string {
	if category = strings.TrimSpace(category); category != "" {
		return category
	}
	return s.categorizer.Categorize(description)
}

func normalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(tags))
	result := make([]string, 0, len(tags))
	for _, tag := range tags {
		value := strings.ToLower(strings.TrimSpace(tag))
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		result = append(result, value)
	}

	if len(result) == 0 {
		return nil
	}
	return result
}

func normalizePaymentMethod(value *string) *string {
	if value == nil {
		return nil
	}
	method := strings.ToLower(strings.TrimSpace(*value))
	if method == "" {
		return nil
	}
	return &method
}

func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func truncateToDay(value time.Time) time.Time {
	value = value.UTC()
	return time.Date(value.Year(), value.Month(), value.Day(), 0, 0, 0, 0, time.UTC)
}
