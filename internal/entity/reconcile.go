package entity

// Kind names an upstream collection. It selects the "<kind>_id" and "<kind>Id"
// identifier candidates.
type Kind string

const (
	KindStudent Kind = "student"
	KindGroup   Kind = "group"
	KindCourse  Kind = "course"
	KindTeacher Kind = "teacher"
	KindUser    Kind = "user"
	KindLead    Kind = "lead"
)

// Match tells how a group was linked to a course.
type Match int

const (
	MatchNone Match = iota
	MatchByName
	MatchByID
)

func (m Match) String() string {
	switch m {
	case MatchByID:
		return "id"
	case MatchByName:
		return "name"
	default:
		return "none"
	}
}

func idCandidates(kind Kind) []string {
	keys := []string{"_id", "id"}
	if kind != "" {
		keys = append(keys, string(kind)+"_id", string(kind)+"Id")
	}
	if kind == KindStudent {
		keys = append(keys, "code")
	}
	return keys
}

// NormalizeID returns the first non-empty identifier of rec, trying "_id", "id",
// "<kind>_id", "<kind>Id" and, for students, "code". "" means the record cannot
// be matched against anything.
func NormalizeID(rec Record, kind Kind) string {
	if rec == nil {
		return ""
	}
	for _, key := range idCandidates(kind) {
		if id := Stringify(rec[key]); id != "" {
			return id
		}
	}
	return ""
}

var groupCourseIDFields = []string{"course_id", "courseId", "course"}

var groupCourseNameFields = []string{"course", "course_name"}

// MatchCourse links a group to a course by identifier first and by the
// denormalized course name second. Name comparison is case-exact.
func MatchCourse(group, course Record) Match {
	if group == nil || course == nil {
		return MatchNone
	}
	if courseID := NormalizeID(course, KindCourse); courseID != "" {
		for _, key := range groupCourseIDFields {
			if Stringify(group[key]) == courseID {
				return MatchByID
			}
		}
	}
	name := course.Text("name")
	if name == "" {
		return MatchNone
	}
	for _, key := range groupCourseNameFields {
		if groupCourseName(group, key) == name {
			return MatchByName
		}
	}
	return MatchNone
}

func groupCourseName(group Record, key string) string {
	if nested := group.Object(key); nested != nil {
		return nested.Text("name")
	}
	return group.Text(key)
}

func GroupMatchesCourse(group, course Record) bool {
	return MatchCourse(group, course) != MatchNone
}

// CourseOf resolves the course of a group. An identifier match anywhere in
// courses beats a name match, so a group whose id and name point at different
// courses resolves to the one named by id.
func CourseOf(group Record, courses []Record) (Record, Match) {
	var byName Record
	for _, course := range courses {
		switch MatchCourse(group, course) {
		case MatchByID:
			return course, MatchByID
		case MatchByName:
			if byName == nil {
				byName = course
			}
		}
	}
	if byName != nil {
		return byName, MatchByName
	}
	return nil, MatchNone
}

// StudentGroupIDs is the de-duplicated union of the student's "groups" list and
// its singular "group_id" / "groupId" fields, in first-seen order.
func StudentGroupIDs(student Record) []string {
	seen := make(map[string]struct{})
	out := []string{}
	add := func(v any) {
		id := Stringify(v)
		if id == "" {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	switch groups := student["groups"].(type) {
	case []any:
		for _, g := range groups {
			add(g)
		}
	case []string:
		for _, g := range groups {
			add(g)
		}
	default:
		add(groups)
	}
	add(student["group_id"])
	add(student["groupId"])
	return out
}

func StudentBelongsToGroup(student Record, groupID string) bool {
	groupID = Stringify(groupID)
	if groupID == "" {
		return false
	}
	for _, id := range StudentGroupIDs(student) {
		if id == groupID {
			return true
		}
	}
	return false
}

func GroupsOfCourse(course Record, groups []Record) []Record {
	out := []Record{}
	for _, g := range groups {
		if GroupMatchesCourse(g, course) {
			out = append(out, g)
		}
	}
	return out
}

// StudentsOfCourse returns the students belonging to any group of the course.
func StudentsOfCourse(course Record, groups, students []Record) []Record {
	ids := make(map[string]struct{})
	for _, g := range GroupsOfCourse(course, groups) {
		if id := NormalizeID(g, KindGroup); id != "" {
			ids[id] = struct{}{}
		}
	}
	out := []Record{}
	if len(ids) == 0 {
		return out
	}
	for _, s := range students {
		for _, gid := range StudentGroupIDs(s) {
			if _, ok := ids[gid]; ok {
				out = append(out, s)
				break
			}
		}
	}
	return out
}

func StudentsOfGroup(groupID string, students []Record) []Record {
	out := []Record{}
	for _, s := range students {
		if StudentBelongsToGroup(s, groupID) {
			out = append(out, s)
		}
	}
	return out
}

// FindByID returns the first record whose normalized id equals id.
func FindByID(records []Record, kind Kind, id string) (Record, bool) {
	id = Stringify(id)
	if id == "" {
		return nil, false
	}
	for _, rec := range records {
		if NormalizeID(rec, kind) == id {
			return rec, true
		}
	}
	return nil, false
}
