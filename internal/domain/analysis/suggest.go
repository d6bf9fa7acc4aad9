package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const SuggestionSourceRules = "rules"

type Suggester interface {
	Suggest(ctx context.Context, analysis WeeklyAnalysis) (*Suggestions, error)
}

// RuleSuggester derives short advice from the computed aggregate alone.
type RuleSuggester struct {
	// DominantShare is the category percentage above which a cap is suggested.
	DominantShare decimal.Decimal
	// SpikeFactor flags a day whose total exceeds the daily average by this factor.
	SpikeFactor decimal.Decimal
	now         func() time.Time
}

func NewRuleSuggester() *RuleSuggester {
	return &RuleSuggester{
		DominantShare: decimal.NewFromInt(50),
		SpikeFactor:   decimal.NewFromInt(2),
		now:           time.Now,
	}
}

func (s *RuleSuggester) Suggest(_ context.Context, analysis WeeklyAnalysis) (*Suggestions, error) {
	items := make([]string, 0, 4)

	if analysis.TotalExpenses == 0 {
		items = append(items, "No expenses were recorded this week. Logging purchases as they happen keeps next week's analysis accurate.")
		return s.result(items), nil
	}

	if len(analysis.CategoryBreakdown) > 0 {
		top := analysis.CategoryBreakdown[0]
		if top.Percentage.GreaterThan(s.DominantShare) {
			items = append(items, fmt.Sprintf("%s took %s%% of your spending. A weekly cap of %s for it would have the largest effect.",
				top.Category, top.Percentage.StringFixed(2), top.Total.Mul(decimal.NewFromFloat(0.8)).StringFixed(2)))
		}
	}

	if peak := analysis.Insights.HighestSpendingDay; peak != nil && analysis.AverageDailySpend.IsPositive() {
		if peak.Total.GreaterThan(analysis.AverageDailySpend.Mul(s.SpikeFactor)) {
			items = append(items, fmt.Sprintf("%s (%s) was your most expensive day at %s. Planning purchases ahead of busy days helps smooth spending.",
				peak.Day, peak.Date, peak.Total.StringFixed(2)))
		}
	}

	quietDays := 0
	for _, day := range analysis.DailyTotals {
		if day.Total.IsZero() {
			quietDays++
		}
	}
	if quietDays >= 3 {
		items = append(items, fmt.Sprintf("You had %d no-spend days this week. Keep it up.", quietDays))
	}

	if len(analysis.TopExpenses) > 0 && analysis.TotalAmount.IsPositive() {
		largest := analysis.TopExpenses[0]
		share := largest.Amount.Mul(hundred).Div(analysis.TotalAmount)
		if share.GreaterThanOrEqual(decimal.NewFromInt(40)) && analysis.TotalExpenses > 1 {
			items = append(items, fmt.Sprintf("A single purchase (%s, %s) made up %s%% of the week. Check whether it was a one-off.",
				largest.Description, largest.Amount.StringFixed(2), share.StringFixed(0)))
		}
	}

	if len(items) == 0 {
		items = append(items, "Spending was evenly spread this week. No changes suggested.")
	}
	return s.result(items), nil
}

func (s *RuleSuggester) result(items []string) *Suggestions {
	now := time.Now
	if s.now != nil {
		now = s.now
	}
	return &Suggestions{Source: SuggestionSourceRules, Items: items, GeneratedAt: now().UTC()}
}
