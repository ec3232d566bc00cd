package dashboard

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"eduadmin/internal/apiclient"
	"eduadmin/internal/entity"
	"eduadmin/internal/schedule"
)

type stubFetcher struct {
	data  map[apiclient.Collection][]entity.Record
	fail  map[apiclient.Collection]error
	calls int32
}

func (s *stubFetcher) List(_ context.Context, col apiclient.Collection) ([]entity.Record, error) {
	atomic.AddInt32(&s.calls, 1)
	if err, ok := s.fail[col]; ok {
		return nil, err
	}
	return s.data[col], nil
}

func TestLoadSettlesIndependently(t *testing.T) {
	f := &stubFetcher{
		data: map[apiclient.Collection][]entity.Record{
			apiclient.Students: {{"_id": "s1"}, {"_id": "s2", "status": "muzlagan"}},
			apiclient.Groups:   {{"_id": "g1"}},
		},
		fail: map[apiclient.Collection]error{
			apiclient.Teachers: &apiclient.HTTPError{Method: "GET", Path: "/teachers", Status: 500},
		},
	}

	snap := Load(context.Background(), f, apiclient.Students, apiclient.Groups, apiclient.Teachers)
	if f.calls != 3 {
		t.Fatalf("expected 3 fetches, got %d", f.calls)
	}
	if len(snap.Get(apiclient.Students)) != 2 || len(snap.Get(apiclient.Groups)) != 1 {
		t.Fatalf("successful collections missing: %+v", snap.Collections)
	}
	if _, ok := snap.Errors[apiclient.Teachers]; !ok {
		t.Fatalf("expected teachers error")
	}
	if snap.FirstAuthError() != nil {
		t.Fatalf("no auth error expected")
	}

	summary := Summarize(snap)
	if summary.Students.Total != 2 || summary.Students.Frozen != 1 || summary.Students.Active != 1 {
		t.Fatalf("unexpected student counts %+v", summary.Students)
	}
	if summary.Errors["teachers"] == "" {
		t.Fatalf("expected teachers error string, got %v", summary.Errors)
	}
}

func TestFirstAuthError(t *testing.T) {
	f := &stubFetcher{fail: map[apiclient.Collection]error{apiclient.Users: &apiclient.AuthError{Reason: "refresh_failed"}}}
	snap := Load(context.Background(), f, apiclient.Users, apiclient.Leads)
	if err := snap.FirstAuthError(); err == nil || !errors.As(err, new(*apiclient.AuthError)) {
		t.Fatalf("expected auth error, got %v", err)
	}
}

func TestSummarizeTotals(t *testing.T) {
	snap := Snapshot{Collections: map[apiclient.Collection][]entity.Record{
		apiclient.Leads:    {{"status": "new"}, {"status": "called"}, {}},
		apiclient.Salaries: {{"amount": float64(100)}, {"salary": "250.5"}},
		apiclient.Checks:   {{"price": float64(40)}, {"sum": float64(10)}},
	}}
	s := Summarize(snap)
	if s.Leads["new"] != 2 || s.Leads["called"] != 1 {
		t.Fatalf("unexpected lead counts %v", s.Leads)
	}
	if s.SalaryTotal != 350.5 || s.ChecksTotal != 50 {
		t.Fatalf("unexpected totals %v %v", s.SalaryTotal, s.ChecksTotal)
	}
	if s.Errors != nil {
		t.Fatalf("expected no errors")
	}
}

func TestCoursesAndGroups(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	courses := []entity.Record{
		{"_id": "c1", "name": "Math", "duration": float64(6), "duration_type": "month"},
		{"_id": "c2", "name": "English", "duration": float64(2), "duration_type": "week"},
	}
	groups := []entity.Record{
		{"_id": "g1", "name": "Math A", "course_id": "c1", "start_date": "2024-01-01"},
		{"_id": "g2", "name": "Math B", "course": "Math", "start_date": "2025-05-01"},
		{"_id": "g3", "name": "Orphan", "course_id": "c9"},
	}
	students := []entity.Record{
		{"_id": "s1", "groups": []any{"g1"}},
		{"_id": "s2", "group_id": "g2"},
		{"_id": "s3", "groupId": "g3"},
	}

	rows := Courses(courses, groups, students)
	if rows[0].ID != "c1" || len(rows[0].GroupIDs) != 2 || rows[0].StudentCount != 2 {
		t.Fatalf("unexpected math row %+v", rows[0])
	}
	if rows[1].StudentCount != 0 || len(rows[1].GroupIDs) != 0 {
		t.Fatalf("unexpected english row %+v", rows[1])
	}

	groupRows := Groups(groups, courses, students, now)
	byID := map[string]GroupRow{}
	for _, r := range groupRows {
		byID[r.ID] = r
	}
	if byID["g1"].State != schedule.StateExpired || byID["g1"].MatchedBy != "id" {
		t.Fatalf("unexpected g1 %+v", byID["g1"])
	}
	if byID["g2"].State != schedule.StateActive || byID["g2"].MatchedBy != "name" || byID["g2"].EndDate == nil {
		t.Fatalf("unexpected g2 %+v", byID["g2"])
	}
	if byID["g3"].State != schedule.StateUnknown || byID["g3"].CourseID != "" {
		t.Fatalf("unexpected g3 %+v", byID["g3"])
	}
	if groupRows[0].Name != "Math A" {
		t.Fatalf("expected rows sorted by name")
	}
}

func TestMonthSheet(t *testing.T) {
	group := entity.Record{"_id": "g1", "days": map[string]any{"odd_days": true}}
	students := []entity.Record{
		{"_id": "s1", "full_name": "Aziza", "groups": []any{"g1"}},
		{"_id": "s2", "full_name": "Bobur", "group_id": "g1", "status": "muzlagan"},
		{"_id": "s3", "group_id": "g2"},
	}
	records := []entity.AttendanceRecord{
		{GroupID: "g1", StudentID: "s1", Date: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), Status: true},
		{GroupID: "g1", StudentID: "s2", Date: time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC), Status: false},
	}

	sheet := MonthSheet(schedule.DefaultPolicy, group, students, records, 2024, time.May)
	if len(sheet.Rows) != 2 {
		t.Fatalf("expected 2 members, got %d", len(sheet.Rows))
	}
	if sheet.Days[0] != "2024-05-01" || sheet.Days[1] != "2024-05-03" {
		t.Fatalf("unexpected days %v", sheet.Days)
	}
	if m := sheet.Rows[0].Marks[0]; m == nil || !*m {
		t.Fatalf("expected s1 present on the 1st")
	}
	if sheet.Rows[0].Marks[1] != nil {
		t.Fatalf("expected no mark for s1 on the 3rd")
	}
	if m := sheet.Rows[1].Marks[1]; m == nil || *m {
		t.Fatalf("expected s2 absent on the 3rd")
	}
	if !sheet.Rows[1].Frozen || sheet.Rows[1].Name != "Bobur" {
		t.Fatalf("unexpected s2 row %+v", sheet.Rows[1])
	}
}
