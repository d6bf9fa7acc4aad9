// Package notify delivers short messages to account owners. Delivery is fire-and-forget: callers
// log a failed send and move on.
package notify

import (
	"context"
	"fmt"
	"strings"

	"finance-app-go/internal/domain/analysis"
	"finance-app-go/pkg/logger"
)

type Notifier interface {
	Notify(ctx context.Context, email, subject, body string) error
}

// LogNotifier writes messages to the log instead of sending them.
type LogNotifier struct {
	log logger.Logger
}

func NewLogNotifier(log logger.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(_ context.Context, email, subject, body string) error {
	if strings.TrimSpace(email) == "" {
		return fmt.Errorf("notify: recipient email is empty")
	}
	n.log.Info("notify: message queued", "to", email, "subject", subject, "body_length", len(body))
	return nil
}

// WeeklySummary renders the subject and plain-text body for a finished weekly analysis.
func WeeklySummary(item analysis.WeeklyAnalysis) (string, string) {
	subject := fmt.Sprintf("Your spending for the week of %s", item.WeekStart.Format("Jan 2, 2006"))

	var body strings.Builder
	fmt.Fprintf(&body, "Total spent: %s across %d expenses.\n", item.TotalAmount.StringFixed(2), item.TotalExpenses)
	fmt.Fprintf(&body, "Average per day: %s.\n", item.AverageDailySpend.StringFixed(2))
	if len(item.CategoryBreakdown) > 0 {
		body.WriteString("\nBy category:\n")
		for _, row := range item.CategoryBreakdown {
			fmt.Fprintf(&body, "  %s: %s (%s%%)\n", row.Category, row.Total.StringFixed(2), row.Percentage.StringFixed(2))
		}
	}
	if item.Suggestions != nil && len(item.Suggestions.Items) > 0 {
		body.WriteString("\nSuggestions:\n")
		for _, suggestion := range item.Suggestions.Items {
			fmt.Fprintf(&body, "  - %s\n", suggestion)
		}
	}
	return subject, body.String()
}
