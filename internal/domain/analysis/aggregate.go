package analysis

import (
	"sort"
	"time"

	expensesdomain "finance-app-go/internal/domain/expenses"
	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	seven   = decimal.NewFromInt(WindowDays)
)

// Compute aggregates expenses into the analysis of the week starting at weekStart. It is pure: the
// same inputs in the same order give the same result. Expenses dated outside the seven-day window
// are ignored. The result carries no ID and no suggestions.
func Compute(ownerID string, weekStart time.Time, expenses []expensesdomain.Expense, topN int, generatedAt time.Time) WeeklyAnalysis {
	if topN <= 0 {
		topN = DefaultTopExpenses
	}
	weekStart = StartOfDay(weekStart)

	inWindow := make([]expensesdomain.Expense, 0, len(expenses))
	for _, expense := range expenses {
		if _, ok := dayIndex(weekStart, expense.Date); ok {
			inWindow = append(inWindow, expense)
		}
	}

	total := decimal.Zero
	for _, expense := range inWindow {
		total = total.Add(expense.Amount)
	}

	daily := buildDailyTotals(weekStart, inWindow)
	breakdown := buildCategoryBreakdown(inWindow, total)

	result := WeeklyAnalysis{
		OwnerID:           ownerID,
		WeekStart:         weekStart,
		WeekEnd:           WeekEnd(weekStart),
		TotalAmount:       total,
		TotalExpenses:     len(inWindow),
		AverageDailySpend: total.Div(seven),
		CategoryBreakdown: breakdown,
		DailyTotals:       daily,
		TopExpenses:       buildTopExpenses(inWindow, topN),
		Insights:          buildInsights(daily, breakdown, total, len(inWindow)),
		GeneratedAt:       generatedAt.UTC(),
	}
	return result
}

// WeekEnd is the last instant of the seven-day window that starts at weekStart.
func WeekEnd(weekStart time.Time) time.Time {
	return StartOfDay(weekStart).AddDate(0, 0, WindowDays).Add(-time.Millisecond)
}

func StartOfDay(value time.Time) time.Time {
	value = value.UTC()
	return time.Date(value.Year(), value.Month(), value.Day(), 0, 0, 0, 0, time.UTC)
}

// PreviousWeekStart returns the Monday of the week before the one containing now.
func PreviousWeekStart(now time.Time) time.Time {
	day := StartOfDay(now)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset-WindowDays)
}

func dayIndex(weekStart, date time.Time) (int, bool) {
	days := int(StartOfDay(date).Sub(weekStart).Hours() / 24)
	if days < 0 || days >= WindowDays {
		return 0, false
	}
	return days, true
}

func buildDailyTotals(weekStart time.Time, expenses []expensesdomain.Expense) []DailyTotal {
	daily := make([]DailyTotal, WindowDays)
	for i := range daily {
		day := weekStart.AddDate(0, 0, i)
		daily[i] = DailyTotal{
			Date:  day.Format(dateLayout),
			Day:   day.Weekday().String(),
			Total: decimal.Zero,
		}
	}

	for _, expense := range expenses {
		idx, _ := dayIndex(weekStart, expense.Date)
		daily[idx].Total = daily[idx].Total.Add(expense.Amount)
		daily[idx].Count++
	}
	return daily
}

func buildCategoryBreakdown(expenses []expensesdomain.Expense, total decimal.Decimal) []CategoryBreakdown {
	order := make([]string, 0)
	byCategory := make(map[string]*CategoryBreakdown)
	for _, expense := range expenses {
		category := expense.Category
		if category == "" {
			category = expensesdomain.DefaultCategory
		}
		row, ok := byCategory[category]
		if !ok {
			row = &CategoryBreakdown{Category: category, Total: decimal.Zero}
			byCategory[category] = row
			order = append(order, category)
		}
		row.Total = row.Total.Add(expense.Amount)
		row.Count++
	}

	breakdown := make([]CategoryBreakdown, 0, len(order))
	for _, category := range order {
		row := *byCategory[category]
		row.Percentage = decimal.Zero
		if total.IsPositive() {
			row.Percentage = row.Total.Mul(hundred).Div(total).Round(2)
		}
		breakdown = append(breakdown, row)
	}

	sort.SliceStable(breakdown, func(i, j int) bool {
		return breakdown[i].Total.GreaterThan(breakdown[j].Total)
	})
	return breakdown
}

func buildTopExpenses(expenses []expensesdomain.Expense, topN int) []TopExpense {
	sorted := make([]expensesdomain.Expense, len(expenses))
	copy(sorted, expenses)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Amount.GreaterThan(sorted[j].Amount)
	})
	if len(sorted) > topN {
		sorted = sorted[:topN]
	}

	top := make([]TopExpense, 0, len(sorted))
	for _, expense := range sorted {
		top = append(top, TopExpense{
			ID:          expense.ID,
			Description: expense.Description,
			Category:    expense.Category,
			Amount:      expense.Amount,
			Date:        StartOfDay(expense.Date).Format(dateLayout),
		})
	}
	return top
}

func buildInsights(daily []DailyTotal, breakdown []CategoryBreakdown, total decimal.Decimal, count int) Insights {
	insights := Insights{AverageExpenseAmount: decimal.Zero}
	if count == 0 {
		return insights
	}

	insights.AverageExpenseAmount = total.Div(decimal.NewFromInt(int64(count))).Round(2)
	if len(breakdown) > 0 {
		insights.MostFrequentCategory = breakdown[0].Category
	}

	var highest, lowest *DailyTotal
	for i := range daily {
		day := &daily[i]
		if day.Total.IsZero() {
			continue
		}
		if highest == nil || day.Total.GreaterThan(highest.Total) {
			highest = day
		}
		if lowest == nil || day.Total.LessThan(lowest.Total) {
			lowest = day
		}
	}
	if highest != nil {
		insights.HighestSpendingDay = &DaySpend{Date: highest.Date, Day: highest.Day, Total: highest.Total}
	}
	if lowest != nil {
		insights.LowestSpendingDay = &DaySpend{Date: lowest.Date, Day: lowest.Day, Total: lowest.Total}
	}
	return insights
}
