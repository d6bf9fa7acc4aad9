package expenses

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	DefaultCategory      = "Other"
	MaxDescriptionLength = 200
)

type Expense struct {
	ID            string          `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID       string          `gorm:"type:uuid;index:idx_expenses_owner_date,priority:1;not null" json:"owner_id"`
	Amount        decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	Description   string          `gorm:"size:200;not null" json:"description"`
	Category      string          `gorm:"not null" json:"category"`
	Date          time.Time       `gorm:"type:date;index:idx_expenses_owner_date,priority:2;not null" json:"date"`
	Tags          []string        `gorm:"type:jsonb;serializer:json" json:"tags,omitempty"`
	Notes         *string         `gorm:"type:text" json:"notes,omitempty"`
	PaymentMethod *string         `gorm:"type:text" json:"payment_method,omitempty"`
	Recurrence    *Recurrence     `gorm:"type:jsonb;serializer:json" json:"recurrence,omitempty"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type Recurrence struct {
	Frequency string     `json:"frequency"`
	Interval  int        `json:"interval"`
	EndDate   *time.Time `json:"end_date,omitempty"`
}

type ListFilter struct {
	From     *time.Time
	To       *time.Time
	Category string
	Limit    int
	Offset   int
}

type CreateExpenseInput struct {
	OwnerID       string
	Amount        decimal.Decimal
	Description   string
	Category      string
	Date          time.Time
	Tags          []string
	Notes         *string
	PaymentMethod *string
	Recurrence    *Recurrence
}

type UpdateExpenseInput struct {
	ID            string
	OwnerID       string
	Amount        decimal.Decimal
	Description   string
	Category      string
	Date          time.Time
	Tags          []string
	Notes         *string
	PaymentMethod *string
	Recurrence    *Recurrence
}
