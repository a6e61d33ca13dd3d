package config

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// scheduleParser accepts five-field expressions and descriptors such as
// "@hourly" or "@every 300s".
var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseSchedule parses a schedule with the same rules ValidateCronSchedule
// applies.
func ParseSchedule(schedule string) (cron.Schedule, error) {
	return scheduleParser.Parse(schedule)
}

func ValidateCronSchedule(schedule string) error {
	if schedule == "" {
		return fmt.Errorf("invalid cron schedule: cannot be empty")
	}
	if _, err := scheduleParser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", schedule, err)
	}
	return nil
}

// ValidateTimezone requires an IANA name loadable by time.LoadLocation.
func ValidateTimezone(timezone string) error {
	if timezone == "" {
		return fmt.Errorf("invalid timezone: cannot be empty")
	}
	if _, err := time.LoadLocation(timezone); err != nil {
		return fmt.Errorf("invalid timezone '%s': %w", timezone, err)
	}
	return nil
}

// ValidateDuration checks min <= d <= max.
func ValidateDuration(d, min, max time.Duration) error {
	switch {
	case min > max:
		return fmt.Errorf("invalid range: min (%v) cannot be greater than max (%v)", min, max)
	case d < min:
		return fmt.Errorf("duration %v is below minimum %v", d, min)
	case d > max:
		return fmt.Errorf("duration %v exceeds maximum %v", d, max)
	}
	return nil
}

// ValidateIntRange checks min <= v <= max.
func ValidateIntRange(v, min, max int) error {
	switch {
	case min > max:
		return fmt.Errorf("invalid range: min (%d) cannot be greater than max (%d)", min, max)
	case v < min:
		return fmt.Errorf("value %d is below minimum %d", v, min)
	case v > max:
		return fmt.Errorf("value %d exceeds maximum %d", v, max)
	}
	return nil
}

func ValidatePositiveDuration(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("duration must be positive, got %v", d)
	}
	return nil
}
