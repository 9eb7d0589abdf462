package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateCronSchedule checks that schedule is a valid 5-field cron expression
func ValidateCronSchedule(schedule string) error {
	_, err := parser.Parse(schedule)
	return err
}

// GetCronDescription describes the common rebuild schedules in words: hourly,
// every N hours, daily and weekly at a fixed time. Anything else is reported
// as a custom schedule.
func GetCronDescription(schedule string) string {
	fields := strings.Fields(schedule)
	if len(fields) != 5 || ValidateCronSchedule(schedule) != nil {
		return "Custom schedule: " + schedule
	}
	minute, hour, dom, month, dow := fields[0], fields[1], fields[2], fields[3], fields[4]
	if dom != "*" || month != "*" {
		return "Custom schedule: " + schedule
	}

	m, errM := strconv.Atoi(minute)
	if errM != nil {
		return "Custom schedule: " + schedule
	}
	if hour == "*" && dow == "*" {
		return fmt.Sprintf("Every hour at :%02d", m)
	}
	if every, ok := strings.CutPrefix(hour, "*/"); ok && dow == "*" {
		return fmt.Sprintf("Every %s hours", every)
	}

	h, errH := strconv.Atoi(hour)
	if errH != nil {
		return "Custom schedule: " + schedule
	}
	at := fmt.Sprintf("%02d:%02d", h, m)
	if dow == "*" {
		return "Daily at " + at
	}
	if d, err := strconv.Atoi(dow); err == nil && d >= 0 && d <= 7 {
		return fmt.Sprintf("Weekly on %s at %s", time.Weekday(d%7), at)
	}
	return "Custom schedule: " + schedule
}

// GetNextRunTime calculates when the schedule fires next after from
func GetNextRunTime(schedule string, from time.Time) (time.Time, error) {
	sched, err := parser.Parse(schedule)
	if err != nil {
		return time.Time{}, err
	}
	return sched.Next(from), nil
}
