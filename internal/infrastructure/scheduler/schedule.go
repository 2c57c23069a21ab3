package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseDailySchedule reads the minute and hour of a "minute hour * * *"
// expression. Only daily schedules are supported, so the remaining fields
// must be "*" when present.
func ParseDailySchedule(expr string) (hour, minute int, err error) {
	parts := strings.Fields(expr)
	if len(parts) < 2 || len(parts) > 5 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidSchedule, expr)
	}
	for _, p := range parts[2:] {
		if p != "*" {
			return 0, 0, fmt.Errorf("%w: only daily schedules are supported, got %q", ErrInvalidSchedule, expr)
		}
	}

	minute, err = strconv.Atoi(parts[0])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("%w: minute must be 0-59, got %q", ErrInvalidSchedule, parts[0])
	}
	hour, err = strconv.Atoi(parts[1])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("%w: hour must be 0-23, got %q", ErrInvalidSchedule, parts[1])
	}
	return hour, minute, nil
}

// nextDailyRun returns the first hour:minute at or after now
func nextDailyRun(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if next.Before(now.Truncate(time.Minute)) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
