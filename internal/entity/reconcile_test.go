package entity

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func decodeRecords(t *testing.T, raw string) []Record {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var out []Record
	if err := dec.Decode(&out); err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	return out
}

func TestNormalizeID(t *testing.T) {
	cases := []struct {
		name string
		rec  Record
		kind Kind
		want string
	}{
		{name: "mongo id wins", rec: Record{"_id": "a", "id": "b"}, kind: KindGroup, want: "a"},
		{name: "plain id", rec: Record{"id": json.Number("42")}, kind: KindCourse, want: "42"},
		{name: "snake kind id", rec: Record{"group_id": "g7"}, kind: KindGroup, want: "g7"},
		{name: "camel kind id", rec: Record{"courseId": "c3"}, kind: KindCourse, want: "c3"},
		{name: "student code", rec: Record{"code": "ST-01"}, kind: KindStudent, want: "ST-01"},
		{name: "code ignored for groups", rec: Record{"code": "X"}, kind: KindGroup, want: ""},
		{name: "empty value skipped", rec: Record{"_id": "  ", "id": "b"}, kind: KindGroup, want: "b"},
		{name: "float formatting", rec: Record{"id": 12.0}, kind: KindUser, want: "12"},
		{name: "exponent number", rec: Record{"id": json.Number("1e3")}, kind: KindUser, want: "1000"},
		{name: "nothing", rec: Record{"name": "x"}, kind: KindStudent, want: ""},
		{name: "nil record", rec: nil, kind: KindStudent, want: ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeID(tc.rec, tc.kind); got != tc.want {
				t.Fatalf("NormalizeID() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestGroupMatchesCourseEndToEnd(t *testing.T) {
	groups := decodeRecords(t, `[{"_id":"g1","course_id":"c1","course":"Math"}]`)
	courses := decodeRecords(t, `[{"_id":"c1","name":"Math"}]`)

	if MatchCourse(groups[0], courses[0]) != MatchByID {
		t.Fatalf("expected id match")
	}

	groups[0]["course_id"] = "c2"
	if got := MatchCourse(groups[0], courses[0]); got != MatchByName {
		t.Fatalf("expected name fallback, got %s", got)
	}
	if !GroupMatchesCourse(groups[0], courses[0]) {
		t.Fatalf("expected group to match course through the name")
	}

	groups[0]["course"] = "math"
	if GroupMatchesCourse(groups[0], courses[0]) {
		t.Fatalf("name matching must be case-exact")
	}
}

func TestMatchCoursePopulatedReference(t *testing.T) {
	group := Record{"_id": "g1", "course": map[string]any{"_id": "c9", "name": "Physics"}}
	if MatchCourse(group, Record{"_id": "c9"}) != MatchByID {
		t.Fatalf("expected id match through populated object")
	}
	if MatchCourse(group, Record{"_id": "c1", "name": "Physics"}) != MatchByName {
		t.Fatalf("expected name match through populated object")
	}
}

func TestCourseOfPrefersID(t *testing.T) {
	group := Record{"_id": "g1", "course_id": "c2", "course_name": "Math"}
	courses := []Record{
		{"_id": "c1", "name": "Math"},
		{"_id": "c2", "name": "English"},
	}
	course, match := CourseOf(group, courses)
	if match != MatchByID || NormalizeID(course, KindCourse) != "c2" {
		t.Fatalf("expected c2 by id, got %v %s", course, match)
	}

	course, match = CourseOf(Record{"course_name": "Math"}, courses)
	if match != MatchByName || NormalizeID(course, KindCourse) != "c1" {
		t.Fatalf("expected c1 by name, got %v %s", course, match)
	}

	if _, match := CourseOf(Record{"course_id": "zzz"}, courses); match != MatchNone {
		t.Fatalf("expected no course")
	}
}

func TestStudentGroupIDs(t *testing.T) {
	students := decodeRecords(t, `[
		{"_id":"s1","groups":["g1","g2",3],"group_id":"g1","groupId":"g4"},
		{"_id":"s2","group_id":"g2"},
		{"_id":"s3","groups":[{"_id":"g5","name":"Evening"}],"groupId":""},
		{"_id":"s4","groups":"g6"}
	]`)

	want := [][]string{
		{"g1", "g2", "3", "g4"},
		{"g2"},
		{"g5"},
		{"g6"},
	}
	for i, s := range students {
		if got := StudentGroupIDs(s); !reflect.DeepEqual(got, want[i]) {
			t.Fatalf("student %d: got %v want %v", i, got, want[i])
		}
	}
}

func TestStudentBelongsToGroupMatchesUnion(t *testing.T) {
	students := decodeRecords(t, `[
		{"_id":"s1","groups":["g1"],"groupId":"g3"},
		{"_id":"s2","group_id":7},
		{"_id":"s3"}
	]`)
	groups := decodeRecords(t, `[{"_id":"g1"},{"id":"g3"},{"group_id":7},{"name":"no id"}]`)

	for _, s := range students {
		union := map[string]bool{}
		for _, id := range StudentGroupIDs(s) {
			union[id] = true
		}
		for _, g := range groups {
			gid := NormalizeID(g, KindGroup)
			if got, want := StudentBelongsToGroup(s, gid), union[gid]; got != want {
				t.Fatalf("student %v group %q: got %v want %v", s["_id"], gid, got, want)
			}
		}
	}
	if StudentBelongsToGroup(Record{"group_id": ""}, "") {
		t.Fatalf("empty ids must never match")
	}
}

func TestStudentsOfCourse(t *testing.T) {
	course := Record{"_id": "c1", "name": "Math"}
	groups := decodeRecords(t, `[
		{"_id":"g1","course_id":"c1"},
		{"_id":"g2","course":"Math"},
		{"_id":"g3","course_id":"c2"},
		{"course_id":"c1"}
	]`)
	students := decodeRecords(t, `[
		{"_id":"s1","groups":["g1"]},
		{"_id":"s2","group_id":"g2"},
		{"_id":"s3","groupId":"g3"},
		{"_id":"s4","groups":["g3","g1"]}
	]`)

	got := StudentsOfCourse(course, groups, students)
	var ids []string
	for _, s := range got {
		ids = append(ids, NormalizeID(s, KindStudent))
	}
	if !reflect.DeepEqual(ids, []string{"s1", "s2", "s4"}) {
		t.Fatalf("unexpected students %v", ids)
	}

	if len(StudentsOfCourse(Record{"_id": "none"}, groups, students)) != 0 {
		t.Fatalf("expected no students for unknown course")
	}
}

func TestReconcilerIsPure(t *testing.T) {
	course := Record{"_id": "c1", "name": "Math"}
	groups := []Record{{"_id": "g1", "course_id": "c1"}}
	students := []Record{{"_id": "s1", "groups": []any{"g1", "g1"}}}
	before := []Record{{"_id": "s1", "groups": []any{"g1", "g1"}}}

	first := StudentsOfCourse(course, groups, students)
	second := StudentsOfCourse(course, groups, students)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("repeated calls disagree")
	}
	if !reflect.DeepEqual(students, before) {
		t.Fatalf("input mutated: %v", students)
	}
	if len(StudentsOfGroup("g1", students)) != 1 {
		t.Fatalf("expected one member")
	}
	if _, ok := FindByID(groups, KindGroup, "g1"); !ok {
		t.Fatalf("expected to find g1")
	}
}
