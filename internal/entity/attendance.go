package entity

import "time"

type AttendanceRecord struct {
	GroupID   string    `json:"group_id"`
	StudentID string    `json:"student_id"`
	Date      time.Time `json:"date"`
	Status    bool      `json:"status"`
}

// AttendanceKey addresses one cell of a group's monthly attendance sheet.
type AttendanceKey struct {
	GroupID   string
	StudentID string
	Day       int
}

func (r AttendanceRecord) Key() AttendanceKey {
	return AttendanceKey{GroupID: r.GroupID, StudentID: r.StudentID, Day: r.Date.Day()}
}

// ParseAttendance reads an upstream attendance object. Group and student may be
// plain ids or populated objects. ok is false when either id or the date is missing.
func ParseAttendance(rec Record) (AttendanceRecord, bool) {
	groupID := firstID(rec, "group_id", "groupId", "group")
	studentID := firstID(rec, "student_id", "studentId", "student")
	date, okDate := rec.Time("date")
	if groupID == "" || studentID == "" || !okDate {
		return AttendanceRecord{}, false
	}
	return AttendanceRecord{
		GroupID:   groupID,
		StudentID: studentID,
		Date:      date.UTC(),
		Status:    rec.Bool("status"),
	}, true
}

func ParseAttendanceList(records []Record) []AttendanceRecord {
	out := make([]AttendanceRecord, 0, len(records))
	for _, rec := range records {
		if a, ok := ParseAttendance(rec); ok {
			out = append(out, a)
		}
	}
	return out
}

// IndexAttendance keys records by (group, student, day of month). When the same
// cell appears more than once the later record wins.
func IndexAttendance(records []AttendanceRecord) map[AttendanceKey]bool {
	out := make(map[AttendanceKey]bool, len(records))
	for _, r := range records {
		out[r.Key()] = r.Status
	}
	return out
}

func firstID(rec Record, keys ...string) string {
	for _, key := range keys {
		if id := Stringify(rec[key]); id != "" {
			return id
		}
	}
	return ""
}
