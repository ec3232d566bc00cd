package schedule

import (
	"encoding/json"
	"testing"
	"time"

	"eduadmin/internal/entity"
)

func TestIsGroupExpired(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	course := entity.Record{"_id": "c1", "duration": float64(6), "duration_type": "month"}

	old := entity.Record{"_id": "g1", "start_date": now.AddDate(0, 0, -400).Format(time.RFC3339)}
	if !IsGroupExpired(old, course, now) {
		t.Fatalf("group started 400 days ago on a 6 month course must be expired")
	}

	fresh := entity.Record{"_id": "g2", "start_date": now.AddDate(0, -1, 0).Format("2006-01-02")}
	if IsGroupExpired(fresh, course, now) {
		t.Fatalf("group started a month ago must be active")
	}
	if StateOf(fresh, course, now) != StateActive {
		t.Fatalf("expected active state")
	}
}

func TestIsGroupExpiredBoundary(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	group := entity.Record{"start_date": start.Format(time.RFC3339)}
	course := entity.Record{"duration": "10", "duration_type": "day"}

	end := start.AddDate(0, 0, 10)
	if IsGroupExpired(group, course, end.Add(-time.Nanosecond)) {
		t.Fatalf("must be active just before the end date")
	}
	if !IsGroupExpired(group, course, end) {
		t.Fatalf("must be expired exactly at the end date")
	}
}

func TestEpochStartInExponentForm(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	course := entity.Record{"duration": json.Number("3"), "duration_type": "month"}
	group := entity.Record{"start_date": json.Number("1.7066592e12")}
	if StateOf(group, course, now) != StateExpired {
		t.Fatalf("expected expired state, got %s", StateOf(group, course, now))
	}
}

func TestUnknownExpiryIsNotExpired(t *testing.T) {
	now := time.Now()
	course := entity.Record{"duration": float64(1), "duration_type": "week"}

	if IsGroupExpired(entity.Record{"_id": "g1"}, course, now) {
		t.Fatalf("missing start date must not expire")
	}
	if StateOf(entity.Record{"_id": "g1"}, course, now) != StateUnknown {
		t.Fatalf("expected unknown state")
	}
	group := entity.Record{"createdAt": "2000-01-01"}
	if IsGroupExpired(group, entity.Record{"duration": float64(1), "duration_type": "decade"}, now) {
		t.Fatalf("unknown unit must not expire")
	}
	if IsGroupExpired(group, entity.Record{"duration_type": "day"}, now) {
		t.Fatalf("missing duration must not expire")
	}
}

func TestStartDateFieldOrder(t *testing.T) {
	group := entity.Record{
		"date":       "2020-01-01",
		"created_at": "2021-01-01",
		"started_at": "not a date",
		"start_date": "",
	}
	got, ok := StartDateOf(group)
	if !ok || got.Year() != 2021 {
		t.Fatalf("expected created_at to win over date, got %s", got)
	}

	group["date_Of_Create"] = "2022-03-04"
	got, _ = StartDateOf(group)
	if got.Year() != 2022 {
		t.Fatalf("expected date_Of_Create to win, got %s", got)
	}
}

func TestDaysOf(t *testing.T) {
	group := entity.Record{"days": map[string]any{"odd_days": true, "even_days": false, "every_days": "false"}}
	if got := DaysOf(group); !got.Odd || got.Even || got.Every {
		t.Fatalf("unexpected days %+v", got)
	}
	if got := DaysOf(entity.Record{}); got != (Days{}) {
		t.Fatalf("expected zero days")
	}
}
