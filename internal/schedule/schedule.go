package schedule

import (
	"strings"
	"time"

	"github.com/pkg/errors"

	"eduadmin/internal/entity"
)

var ErrUnknownUnit = errors.New("unknown duration unit")

// Days is a group's recurrence descriptor.
type Days struct {
	Odd   bool `json:"odd_days"`
	Even  bool `json:"even_days"`
	Every bool `json:"every_days"`
}

// DaysOf reads the "days" descriptor of a group record.
func DaysOf(group entity.Record) Days {
	days := group.Object("days")
	if days == nil {
		return Days{}
	}
	return Days{
		Odd:   days.Bool("odd_days"),
		Even:  days.Bool("even_days"),
		Every: days.Bool("every_days"),
	}
}

func (d Days) hosts(day int) bool {
	switch {
	case d.Every:
		return true
	case d.Odd && day%2 == 1:
		return true
	case d.Even && day%2 == 0:
		return true
	}
	return false
}

// Policy lists the weekdays on which no class is ever held.
type Policy struct {
	Excluded []time.Weekday
}

// DefaultPolicy keeps Sunday and Tuesday free of classes.
var DefaultPolicy = Policy{Excluded: []time.Weekday{time.Sunday, time.Tuesday}}

func (p Policy) excludes(wd time.Weekday) bool {
	for _, x := range p.Excluded {
		if x == wd {
			return true
		}
	}
	return false
}

// ClassDaysInMonth returns the class dates of the month in ascending order, at
// midnight UTC. The result depends only on its arguments.
func (p Policy) ClassDaysInMonth(year int, month time.Month, days Days) []time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	out := []time.Time{}
	for d := first; d.Month() == first.Month(); d = d.AddDate(0, 0, 1) {
		if p.excludes(d.Weekday()) {
			continue
		}
		if days.hosts(d.Day()) {
			out = append(out, d)
		}
	}
	return out
}

// ClassDaysInMonth uses DefaultPolicy.
func ClassDaysInMonth(year int, month time.Month, days Days) []time.Time {
	return DefaultPolicy.ClassDaysInMonth(year, month, days)
}

// MonthBounds returns the first and last calendar day of the month (UTC).
func MonthBounds(year int, month time.Month) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, -1)
}

type Unit string

const (
	UnitDay   Unit = "day"
	UnitWeek  Unit = "week"
	UnitMonth Unit = "month"
)

// ParseUnit accepts "day", "week" and "month" in any case, singular or plural.
func ParseUnit(s string) (Unit, error) {
	u := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "s")
	switch Unit(u) {
	case UnitDay, UnitWeek, UnitMonth:
		return Unit(u), nil
	}
	return "", errors.Wrapf(ErrUnknownUnit, "%q", s)
}

// CourseEndDate adds amount units to start. Months follow time.AddDate
// normalization: 2024-01-31 plus one month is 2024-03-02.
func CourseEndDate(start time.Time, amount int, unit Unit) (time.Time, error) {
	switch unit {
	case UnitDay:
		return start.AddDate(0, 0, amount), nil
	case UnitWeek:
		return start.AddDate(0, 0, 7*amount), nil
	case UnitMonth:
		return start.AddDate(0, amount, 0), nil
	}
	return time.Time{}, errors.Wrapf(ErrUnknownUnit, "%q", unit)
}
