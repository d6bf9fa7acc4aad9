package retention

import "time"

// CutoffDate is the first day of the month that lies months calendar months before now, at
// 00:00 UTC. Expenses dated strictly before it are eligible for deletion.
func CutoffDate(months int, now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month()-time.Month(months), 1, 0, 0, 0, 0, time.UTC)
}
