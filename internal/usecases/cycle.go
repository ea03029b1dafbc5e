package usecases

import (
	"time"

	"settleline.backend/internal/domain/entities"
)

// PeriodContaining returns the cycle window [start, end) that contains t
// for the given settlement cycle. Boundaries are UTC; weeks start Monday.
func PeriodContaining(cycle entities.SettlementCycle, t time.Time) entities.CyclePeriod {
	t = t.UTC()
	switch cycle {
	case entities.SettlementCycleDaily:
		start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		return entities.CyclePeriod{Start: start, End: start.AddDate(0, 0, 1)}
	case entities.SettlementCycleWeekly:
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		offset := (int(day.Weekday()) + 6) % 7 // Monday = 0
		start := day.AddDate(0, 0, -offset)
		return entities.CyclePeriod{Start: start, End: start.AddDate(0, 0, 7)}
	case entities.SettlementCycleMonthly:
		start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
		return entities.CyclePeriod{Start: start, End: start.AddDate(0, 1, 0)}
	default:
		start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		return entities.CyclePeriod{Start: start, End: start.AddDate(0, 0, 1)}
	}
}

// ClosedPeriod returns the most recently closed cycle window as of now.
// The scheduler aggregates this window; the current, still-open window is
// never settled early.
func ClosedPeriod(cycle entities.SettlementCycle, now time.Time) entities.CyclePeriod {
	current := PeriodContaining(cycle, now)
	return PeriodContaining(cycle, current.Start.Add(-time.Second))
}
