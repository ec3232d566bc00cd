package schedule

import (
	"time"

	"eduadmin/internal/entity"
)

// State of a group relative to its course. Active moves to Expired once the
// wall clock passes the course end date; nothing moves it back.
type State string

const (
	StateActive  State = "active"
	StateExpired State = "expired"
	StateUnknown State = "unknown"
)

var startDateFields = []string{"start_date", "started_at", "date_Of_Create", "createdAt", "created_at", "date"}

// StartDateOf returns the first parseable start date among the group's known
// start fields.
func StartDateOf(group entity.Record) (time.Time, bool) {
	for _, key := range startDateFields {
		if t, ok := group.Time(key); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

// EndDateOf computes when the group's course run ends.
func EndDateOf(group, course entity.Record) (time.Time, bool) {
	start, ok := StartDateOf(group)
	if !ok {
		return time.Time{}, false
	}
	amount, ok := course.Int("duration")
	if !ok {
		return time.Time{}, false
	}
	unit, err := ParseUnit(course.Text("duration_type"))
	if err != nil {
		return time.Time{}, false
	}
	end, err := CourseEndDate(start, amount, unit)
	if err != nil {
		return time.Time{}, false
	}
	return end, true
}

// StateOf is Unknown when the start date, duration or unit cannot be read.
func StateOf(group, course entity.Record, now time.Time) State {
	end, ok := EndDateOf(group, course)
	if !ok {
		return StateUnknown
	}
	if !now.Before(end) {
		return StateExpired
	}
	return StateActive
}

// IsGroupExpired treats an undeterminable expiry as not expired.
func IsGroupExpired(group, course entity.Record, now time.Time) bool {
	return StateOf(group, course, now) == StateExpired
}
