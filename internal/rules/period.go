package rules

import (
	"strings"
	"time"

	"github.com/ukydev/garage-service/internal/apperr"
)

// PeriodKind selects the range used for the revenue dashboard.
type PeriodKind string

const (
	PeriodDay    PeriodKind = "day"
	PeriodWeek   PeriodKind = "week"
	PeriodMonth  PeriodKind = "month"
	PeriodCustom PeriodKind = "custom"
)

// ParsePeriodKind accepts day, week, month or custom, case-insensitively.
func ParsePeriodKind(s string) (PeriodKind, error) {
	switch k := PeriodKind(strings.ToLower(strings.TrimSpace(s))); k {
	case PeriodDay, PeriodWeek, PeriodMonth, PeriodCustom:
		return k, nil
	}
	return "", apperr.NewValidationError("unknown period %q", s)
}

// PeriodBounds returns the inclusive calendar range for kind relative to today.
// Weeks start on Monday. customStart and customEnd are only read for PeriodCustom.
func PeriodBounds(kind PeriodKind, today, customStart, customEnd time.Time) (start, end time.Time, err error) {
	today = truncateDay(today)
	switch kind {
	case PeriodDay:
		return today, today, nil
	case PeriodWeek:
		offset := (int(today.Weekday()) + 6) % 7
		return today.AddDate(0, 0, -offset), today, nil
	case PeriodMonth:
		return time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC), today, nil
	case PeriodCustom:
		start, end = truncateDay(customStart), truncateDay(customEnd)
		if start.After(end) {
			return time.Time{}, time.Time{}, apperr.NewValidationError("start date must not be after end date")
		}
		return start, end, nil
	}
	return time.Time{}, time.Time{}, apperr.NewValidationError("unknown period %q", kind)
}
