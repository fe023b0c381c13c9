package practice

import (
	"fmt"
	"strings"
	"time"
)

// DeadlineBucket classifies deadlines relative to the current time.
type DeadlineBucket string

const (
	DeadlineAll     DeadlineBucket = "all"
	DeadlineToday   DeadlineBucket = "today"
	DeadlineWeek    DeadlineBucket = "week"
	DeadlineMonth   DeadlineBucket = "month"
	DeadlineOverdue DeadlineBucket = "overdue"
)

// ParseDeadlineBucket accepts "", "all" and the named buckets.
func ParseDeadlineBucket(s string) (DeadlineBucket, error) {
	switch b := DeadlineBucket(strings.ToLower(s)); b {
	case "", DeadlineAll:
		return DeadlineAll, nil
	case DeadlineToday, DeadlineWeek, DeadlineMonth, DeadlineOverdue:
		return b, nil
	}
	return "", fmt.Errorf("%w: unknown deadline filter %q", ErrInvalidInput, s)
}

// Matches reports whether deadline falls in the bucket at time now.
// A missing deadline only matches DeadlineAll.
func (b DeadlineBucket) Matches(deadline *time.Time, now time.Time) bool {
	if b == "" || b == DeadlineAll {
		return true
	}
	if deadline == nil {
		return false
	}
	d := deadline.In(now.Location())
	day := startOfDay(now)

	switch b {
	case DeadlineToday:
		return !d.Before(day) && d.Before(day.AddDate(0, 0, 1))
	case DeadlineWeek:
		start := day.AddDate(0, 0, -int(day.Weekday()))
		return !d.Before(start) && d.Before(start.AddDate(0, 0, 7))
	case DeadlineMonth:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return !d.Before(start) && d.Before(start.AddDate(0, 1, 0))
	case DeadlineOverdue:
		return d.Before(now)
	}
	return false
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// normalizeStatus maps "" and "all" to the empty no-op status.
func normalizeStatus(s string) (CaseStatus, error) {
	if s == "" || strings.EqualFold(s, "all") {
		return "", nil
	}
	st := CaseStatus(strings.ToLower(s))
	if !st.Valid() {
		return "", fmt.Errorf("%w: unknown status %q", ErrInvalidInput, s)
	}
	return st, nil
}
