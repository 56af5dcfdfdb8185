package apiutil

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

func ParseNonNegativeInt64Field(raw string, field string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%s is required", field)
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value < 0 {
		return 0, fmt.Errorf("%s must be 0 or greater", field)
	}
	return value, nil
}

func ParsePositiveInt64Field(raw string, field string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%s is required", field)
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", field)
	}
	return value, nil
}

func FormatPriceCents(cents int64) string {
	return fmt.Sprintf("£%.2f", float64(cents)/100)
}

// ParseSlotTime accepts the formats booking forms and API clients send.
// Times without a zone are taken as UTC.
func ParseSlotTime(raw string, field string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%s is required", field)
	}

	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return parsed.UTC(), nil
	}
	layouts := []string{
		"2006-01-02T15:04",
		"2006-01-02 15:04",
	}
	for _, layout := range layouts {
		if parsed, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("%s must be a valid date-time", field)
}

// ParseClockMinutes parses "HH:MM" into minutes since midnight.
func ParseClockMinutes(raw string, field string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%s is required", field)
	}
	parsed, err := time.Parse("15:04", raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be HH:MM", field)
	}
	return int64(parsed.Hour()*60 + parsed.Minute()), nil
}
