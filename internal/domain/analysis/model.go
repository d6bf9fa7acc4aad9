package analysis

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	WindowDays         = 7
	DefaultTopExpenses = 5
	dateLayout         = "2006-01-02"
)

// WeeklyAnalysis is the cached aggregate for one owner and one week. At most one row exists per
// (OwnerID, WeekStart).
type WeeklyAnalysis struct {
	ID                string              `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID           string              `gorm:"type:uuid;not null;uniqueIndex:idx_weekly_analyses_owner_week,priority:1" json:"owner_id"`
	WeekStart         time.Time           `gorm:"type:date;not null;uniqueIndex:idx_weekly_analyses_owner_week,priority:2" json:"week_start"`
	WeekEnd           time.Time           `gorm:"not null;index" json:"week_end"`
	TotalAmount       decimal.Decimal     `gorm:"type:numeric;not null" json:"total_amount"`
	TotalExpenses     int                 `gorm:"not null" json:"total_expenses"`
	AverageDailySpend decimal.Decimal     `gorm:"type:numeric;not null" json:"average_daily_spend"`
	CategoryBreakdown []CategoryBreakdown `gorm:"type:jsonb;serializer:json" json:"category_breakdown"`
	DailyTotals       []DailyTotal        `gorm:"type:jsonb;serializer:json" json:"daily_totals"`
	TopExpenses       []TopExpense        `gorm:"type:jsonb;serializer:json" json:"top_expenses"`
	Insights          Insights            `gorm:"type:jsonb;serializer:json" json:"insights"`
	Suggestions       *Suggestions        `gorm:"type:jsonb;serializer:json" json:"suggestions,omitempty"`
	GeneratedAt       time.Time           `gorm:"not null" json:"generated_at"`
	CreatedAt         time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

func (WeeklyAnalysis) TableName() string {
	return "weekly_analyses"
}

type CategoryBreakdown struct {
	Category   string          `json:"category"`
	Total      decimal.Decimal `json:"total"`
	Count      int             `json:"count"`
	Percentage decimal.Decimal `json:"percentage"`
}

type DailyTotal struct {
	Date  string          `json:"date"`
	Day   string          `json:"day"`
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
}

type TopExpense struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Date        string          `json:"date"`
}

type DaySpend struct {
	Date  string          `json:"date"`
	Day   string          `json:"day"`
	Total decimal.Decimal `json:"total"`
}

type Insights struct {
	HighestSpendingDay   *DaySpend       `json:"highest_spending_day,omitempty"`
	LowestSpendingDay    *DaySpend       `json:"lowest_spending_day,omitempty"`
	MostFrequentCategory string          `json:"most_frequent_category,omitempty"`
	AverageExpenseAmount decimal.Decimal `json:"average_expense_amount"`
}

type Suggestions struct {
	Source      string    `json:"source"`
	Items       []string  `json:"items"`
	GeneratedAt time.Time `json:"generated_at"`
}
