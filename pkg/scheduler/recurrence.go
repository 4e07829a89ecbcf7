package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// RecurrenceEvaluator computes the next occurrence of a recurrence pattern.
// The core stores patterns raw; evaluation is a collaborator concern so
// deployments can plug in a full cron engine if they need one.
type RecurrenceEvaluator interface {
	Next(pattern string, after time.Time) (time.Time, error)
}

// Schedule determines when a recurring notification should fire next.
type Schedule interface {
	Next(from time.Time) time.Time
	String() string
}

// intervalSchedule fires at fixed intervals.
type intervalSchedule struct {
	every time.Duration
}

func (s intervalSchedule) Next(from time.Time) time.Time {
	return from.Add(s.every)
}

func (s intervalSchedule) String() string {
	return fmt.Sprintf("every %v", s.every)
}

// hourlySchedule fires every hour at a specified minute.
type hourlySchedule struct {
	minute int
}

func (s hourlySchedule) Next(from time.Time) time.Time {
	next := time.Date(
		from.Year(), from.Month(), from.Day(),
		from.Hour(), s.minute, 0, 0, from.Location(),
	)
	if !next.After(from) {
		next = next.Add(time.Hour)
	}
	return next
}

func (s hourlySchedule) String() string {
	return fmt.Sprintf("hourly at :%02d", s.minute)
}

// dailySchedule fires once per day at a specified time.
type dailySchedule struct {
	hour   int
	minute int
}

func (s dailySchedule) Next(from time.Time) time.Time {
	next := time.Date(
		from.Year(), from.Month(), from.Day(),
		s.hour, s.minute, 0, 0, from.Location(),
	)
	if !next.After(from) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func (s dailySchedule) String() string {
	return fmt.Sprintf("daily at %02d:%02d", s.hour, s.minute)
}

// weeklySchedule fires once per week on a specified day and time.
type weeklySchedule struct {
	weekday time.Weekday
	hour    int
	minute  int
}

func (s weeklySchedule) Next(from time.Time) time.Time {
	daysUntil := (int(s.weekday) - int(from.Weekday()) + 7) % 7

	next := from.AddDate(0, 0, daysUntil)
	next = time.Date(
		next.Year(), next.Month(), next.Day(),
		s.hour, s.minute, 0, 0, next.Location(),
	)
	if !next.After(from) {
		next = next.AddDate(0, 0, 7)
	}
	return next
}

func (s weeklySchedule) String() string {
	return fmt.Sprintf("weekly on %s at %02d:%02d", s.weekday, s.hour, s.minute)
}

// monthlySchedule fires once per month on a specified day and time.
type monthlySchedule struct {
	day    int
	hour   int
	minute int
}

func (s monthlySchedule) Next(from time.Time) time.Time {
	year, month := from.Year(), from.Month()

	// Month-end overflow clamps to the last day (the 31st in February
	// becomes the 28th/29th).
	day := min(s.day, daysInMonth(year, month))
	next := time.Date(year, month, day, s.hour, s.minute, 0, 0, from.Location())

	if !next.After(from) {
		if month == time.December {
			year++
			month = time.January
		} else {
			month++
		}
		day = min(s.day, daysInMonth(year, month))
		next = time.Date(year, month, day, s.hour, s.minute, 0, 0, from.Location())
	}

	return next
}

func (s monthlySchedule) String() string {
	return fmt.Sprintf("monthly on day %d at %02d:%02d", s.day, s.hour, s.minute)
}

func daysInMonth(year int, month time.Month) int {
	firstOfNext := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC)
	return firstOfNext.AddDate(0, 0, -1).Day()
}

// Factory functions for building schedules programmatically.

// EveryInterval creates a schedule that fires at fixed intervals.
func EveryInterval(d time.Duration) Schedule {
	return intervalSchedule{every: d}
}

// HourlyAt creates a schedule that fires every hour at the given minute.
func HourlyAt(minute int) Schedule {
	return hourlySchedule{minute: minute}
}

// DailyAt creates a schedule that fires daily at the given time.
func DailyAt(hour, minute int) Schedule {
	return dailySchedule{hour: hour, minute: minute}
}

// WeeklyOn creates a schedule that fires weekly on the given day and time.
func WeeklyOn(weekday time.Weekday, hour, minute int) Schedule {
	return weeklySchedule{weekday: weekday, hour: hour, minute: minute}
}

// MonthlyOn creates a schedule that fires monthly on the given day and time.
func MonthlyOn(day, hour, minute int) Schedule {
	return monthlySchedule{day: day, hour: hour, minute: minute}
}

// PatternEvaluator is the built-in RecurrenceEvaluator. It understands the
// patterns the admin panel produces:
//
//	every 15m
//	hourly at :30
//	daily at 09:30
//	weekly mon at 09:30
//	monthly 15 at 09:30
type PatternEvaluator struct{}

// Next implements RecurrenceEvaluator.
func (PatternEvaluator) Next(pattern string, after time.Time) (time.Time, error) {
	schedule, err := ParsePattern(pattern)
	if err != nil {
		return time.Time{}, err
	}
	return schedule.Next(after), nil
}

var weekdays = map[string]time.Weekday{
	"sun": time.Sunday, "mon": time.Monday, "tue": time.Tuesday,
	"wed": time.Wednesday, "thu": time.Thursday, "fri": time.Friday,
	"sat": time.Saturday,
}

// ParsePattern parses a recurrence pattern into a Schedule.
func ParsePattern(pattern string) (Schedule, error) {
	fields := strings.Fields(strings.ToLower(pattern))
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: empty pattern", ErrInvalidPattern)
	}

	switch fields[0] {
	case "every":
		if len(fields) != 2 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPattern, pattern)
		}
		d, err := time.ParseDuration(fields[1])
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("%w: bad interval in %q", ErrInvalidPattern, pattern)
		}
		return EveryInterval(d), nil

	case "hourly":
		if len(fields) != 3 || fields[1] != "at" || !strings.HasPrefix(fields[2], ":") {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPattern, pattern)
		}
		minute, err := strconv.Atoi(fields[2][1:])
		if err != nil || minute < 0 || minute > 59 {
			return nil, fmt.Errorf("%w: bad minute in %q", ErrInvalidPattern, pattern)
		}
		return HourlyAt(minute), nil

	case "daily":
		if len(fields) != 3 || fields[1] != "at" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPattern, pattern)
		}
		hour, minute, err := parseClock(fields[2])
		if err != nil {
			return nil, fmt.Errorf("%w: bad time in %q", ErrInvalidPattern, pattern)
		}
		return DailyAt(hour, minute), nil

	case "weekly":
		if len(fields) != 4 || fields[2] != "at" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPattern, pattern)
		}
		weekday, ok := weekdays[fields[1]]
		if !ok {
			return nil, fmt.Errorf("%w: bad weekday in %q", ErrInvalidPattern, pattern)
		}
		hour, minute, err := parseClock(fields[3])
		if err != nil {
			return nil, fmt.Errorf("%w: bad time in %q", ErrInvalidPattern, pattern)
		}
		return WeeklyOn(weekday, hour, minute), nil

	case "monthly":
		if len(fields) != 4 || fields[2] != "at" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPattern, pattern)
		}
		day, err := strconv.Atoi(fields[1])
		if err != nil || day < 1 || day > 31 {
			return nil, fmt.Errorf("%w: bad day in %q", ErrInvalidPattern, pattern)
		}
		hour, minute, err := parseClock(fields[3])
		if err != nil {
			return nil, fmt.Errorf("%w: bad time in %q", ErrInvalidPattern, pattern)
		}
		return MonthlyOn(day, hour, minute), nil
	}

	return nil, fmt.Errorf("%w: %q", ErrInvalidPattern, pattern)
}

func parseClock(v string) (hour, minute int, err error) {
	h, m, ok := strings.Cut(v, ":")
	if !ok {
		return 0, 0, fmt.Errorf("missing colon")
	}
	hour, err = strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("bad hour")
	}
	minute, err = strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("bad minute")
	}
	return hour, minute, nil
}
