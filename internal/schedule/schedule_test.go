package schedule

import (
	"testing"
	"time"

	"github.com/shaiso/Nodeflow/internal/domain"
)

func TestValidate_Interval(t *testing.T) {
	sched := &domain.Schedule{Type: domain.ScheduleTypeInterval, IntervalSeconds: 60}
	if err := Validate(sched); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	sched.IntervalSeconds = 0
	if err := Validate(sched); err == nil {
		t.Error("expected error for zero interval")
	}
}

func TestValidate_Cron(t *testing.T) {
	sched := &domain.Schedule{Type: domain.ScheduleTypeCron, CronExpr: "0 9 * * 1-5"}
	if err := Validate(sched); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	sched.CronExpr = "not a cron"
	if err := Validate(sched); err == nil {
		t.Error("expected error for invalid cron expression")
	}
}

func TestValidate_UnknownTypeAndTimezone(t *testing.T) {
	if err := Validate(&domain.Schedule{Type: "hourly"}); err == nil {
		t.Error("expected error for unknown schedule type")
	}

	sched := &domain.Schedule{
		Type:            domain.ScheduleTypeInterval,
		IntervalSeconds: 10,
		Timezone:        "Mars/Olympus",
	}
	if err := Validate(sched); err == nil {
		t.Error("expected error for invalid timezone")
	}

	// nil-расписание валидно: workflow просто не запускается автоматически
	if err := Validate(nil); err != nil {
		t.Errorf("nil schedule should be valid: %v", err)
	}
}

func TestNextDue_Interval(t *testing.T) {
	sched := &domain.Schedule{Type: domain.ScheduleTypeInterval, IntervalSeconds: 300}
	from := time.Date(2025, 11, 3, 10, 0, 0, 0, time.UTC)

	next, err := NextDue(sched, from)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := from.Add(5 * time.Minute); !next.Equal(want) {
		t.Errorf("expected %v, got %v", want, next)
	}
}

func TestNextDue_Cron(t *testing.T) {
	// Каждый день в 09:00
	sched := &domain.Schedule{Type: domain.ScheduleTypeCron, CronExpr: "0 9 * * *"}
	from := time.Date(2025, 11, 3, 10, 30, 0, 0, time.UTC)

	next, err := NextDue(sched, from)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2025, 11, 4, 9, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("expected %v, got %v", want, next)
	}
}

func TestNextDue_CronTimezone(t *testing.T) {
	sched := &domain.Schedule{
		Type:     domain.ScheduleTypeCron,
		CronExpr: "0 9 * * *",
		Timezone: "America/New_York",
	}
	// 10:00 UTC = 05:00 в Нью-Йорке (ноябрь, EST): ближайшие 09:00 local
	from := time.Date(2025, 11, 3, 10, 0, 0, 0, time.UTC)

	next, err := NextDue(sched, from)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2025, 11, 3, 14, 0, 0, 0, time.UTC) // 09:00 EST
	if !next.Equal(want) {
		t.Errorf("expected %v, got %v", want, next)
	}
}

func TestNextDue_InvalidCron(t *testing.T) {
	sched := &domain.Schedule{Type: domain.ScheduleTypeCron, CronExpr: "bad"}
	if _, err := NextDue(sched, time.Now()); err == nil {
		t.Error("expected error for invalid cron expression")
	}
}
