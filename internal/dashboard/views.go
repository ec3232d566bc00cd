package dashboard

import (
	"sort"
	"time"

	"eduadmin/internal/apiclient"
	"eduadmin/internal/entity"
	"eduadmin/internal/schedule"
)

type StudentCounts struct {
	Total  int `json:"total"`
	Active int `json:"active"`
	Frozen int `json:"frozen"`
}

type Summary struct {
	Students    StudentCounts     `json:"students"`
	Groups      int               `json:"groups"`
	Courses     int               `json:"courses"`
	Teachers    int               `json:"teachers"`
	Users       int               `json:"users"`
	Leads       map[string]int    `json:"leads"`
	SalaryTotal float64           `json:"salary_total"`
	ChecksTotal float64           `json:"checks_total"`
	Errors      map[string]string `json:"errors,omitempty"`
}

// Summarize builds the superadmin overview from whatever collections loaded.
func Summarize(snap Snapshot) Summary {
	out := Summary{
		Students: CountStudents(snap.Get(apiclient.Students)),
		Groups:   len(snap.Get(apiclient.Groups)),
		Courses:  len(snap.Get(apiclient.Courses)),
		Teachers: len(snap.Get(apiclient.Teachers)),
		Users:    len(snap.Get(apiclient.Users)),
		Leads:    map[string]int{},
	}
	for _, lead := range snap.Get(apiclient.Leads) {
		status := lead.String("status")
		if status == "" {
			status = "new"
		}
		out.Leads[status]++
	}
	out.SalaryTotal = sumAmounts(snap.Get(apiclient.Salaries), "amount", "salary")
	out.ChecksTotal = sumAmounts(snap.Get(apiclient.Checks), "amount", "price", "sum")
	if len(snap.Errors) > 0 {
		out.Errors = make(map[string]string, len(snap.Errors))
		for col, err := range snap.Errors {
			out.Errors[string(col)] = err.Error()
		}
	}
	return out
}

func IsFrozen(student entity.Record) bool {
	return student.String("status") == apiclient.StatusFrozen
}

func CountStudents(students []entity.Record) StudentCounts {
	c := StudentCounts{Total: len(students)}
	for _, s := range students {
		if IsFrozen(s) {
			c.Frozen++
		} else {
			c.Active++
		}
	}
	return c
}

func sumAmounts(records []entity.Record, keys ...string) float64 {
	var total float64
	for _, r := range records {
		for _, key := range keys {
			if _, ok := r[key]; ok {
				total += r.Float(key)
				break
			}
		}
	}
	return total
}

type CourseRow struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Duration     int      `json:"duration"`
	DurationType string   `json:"duration_type"`
	GroupIDs     []string `json:"group_ids"`
	StudentCount int      `json:"student_count"`
}

// Courses lists every course with the groups linked to it and the number of
// students in those groups.
func Courses(courses, groups, students []entity.Record) []CourseRow {
	out := make([]CourseRow, 0, len(courses))
	for _, c := range courses {
		row := CourseRow{
			ID:           entity.NormalizeID(c, entity.KindCourse),
			Name:         entity.DisplayName(c),
			DurationType: c.Text("duration_type"),
			GroupIDs:     []string{},
		}
		row.Duration, _ = c.Int("duration")
		for _, g := range entity.GroupsOfCourse(c, groups) {
			if id := entity.NormalizeID(g, entity.KindGroup); id != "" {
				row.GroupIDs = append(row.GroupIDs, id)
			}
		}
		row.StudentCount = len(entity.StudentsOfCourse(c, groups, students))
		out = append(out, row)
	}
	return out
}

type GroupRow struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	CourseID     string         `json:"course_id,omitempty"`
	CourseName   string         `json:"course_name,omitempty"`
	MatchedBy    string         `json:"matched_by"`
	State        schedule.State `json:"state"`
	StartDate    *time.Time     `json:"start_date,omitempty"`
	EndDate      *time.Time     `json:"end_date,omitempty"`
	Days         schedule.Days  `json:"days"`
	StudentCount int            `json:"student_count"`
}

// Groups resolves each group's course and its state at now.
func Groups(groups, courses, students []entity.Record, now time.Time) []GroupRow {
	out := make([]GroupRow, 0, len(groups))
	for _, g := range groups {
		id := entity.NormalizeID(g, entity.KindGroup)
		row := GroupRow{
			ID:           id,
			Name:         entity.DisplayName(g),
			State:        schedule.StateUnknown,
			Days:         schedule.DaysOf(g),
			StudentCount: len(entity.StudentsOfGroup(id, students)),
		}
		if start, ok := schedule.StartDateOf(g); ok {
			row.StartDate = &start
		}
		course, match := entity.CourseOf(g, courses)
		row.MatchedBy = match.String()
		if course != nil {
			row.CourseID = entity.NormalizeID(course, entity.KindCourse)
			row.CourseName = entity.DisplayName(course)
			row.State = schedule.StateOf(g, course, now)
			if end, ok := schedule.EndDateOf(g, course); ok {
				row.EndDate = &end
			}
		}
		out = append(out, row)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

type SheetRow struct {
	StudentID string  `json:"student_id"`
	Name      string  `json:"name"`
	Frozen    bool    `json:"frozen"`
	Marks     []*bool `json:"marks"`
}

// Sheet is a group's attendance grid for one month: one column per class day,
// one row per member. A nil mark means nothing was recorded.
type Sheet struct {
	GroupID string     `json:"group_id"`
	Year    int        `json:"year"`
	Month   int        `json:"month"`
	Days    []string   `json:"days"`
	Rows    []SheetRow `json:"rows"`
}

func MonthSheet(policy schedule.Policy, group entity.Record, students []entity.Record, records []entity.AttendanceRecord, year int, month time.Month) Sheet {
	groupID := entity.NormalizeID(group, entity.KindGroup)
	days := policy.ClassDaysInMonth(year, month, schedule.DaysOf(group))
	index := entity.IndexAttendance(records)

	sheet := Sheet{GroupID: groupID, Year: year, Month: int(month), Days: make([]string, 0, len(days)), Rows: []SheetRow{}}
	for _, d := range days {
		sheet.Days = append(sheet.Days, d.Format("2006-01-02"))
	}
	for _, s := range entity.StudentsOfGroup(groupID, students) {
		studentID := entity.NormalizeID(s, entity.KindStudent)
		row := SheetRow{StudentID: studentID, Name: entity.DisplayName(s), Frozen: IsFrozen(s), Marks: make([]*bool, len(days))}
		for i, d := range days {
			if present, ok := index[entity.AttendanceKey{GroupID: groupID, StudentID: studentID, Day: d.Day()}]; ok {
				p := present
				row.Marks[i] = &p
			}
		}
		sheet.Rows = append(sheet.Rows, row)
	}
	return sheet
}
