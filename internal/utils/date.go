package utils

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the civil date format the backends exchange.
const DateLayout = "2006-01-02"

// ParseDate validates a YYYY-MM-DD civil date.
func ParseDate(date string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(date), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", date)
	}
	return t, nil
}

// ShiftDate moves a civil date by whole calendar days. The arithmetic runs
// in UTC so no zone offset can move the result by an extra day.
func ShiftDate(date string, days int) (string, error) {
	t, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return t.AddDate(0, 0, days).Format(DateLayout), nil
}
