// Managarr - Media Library Housekeeping and Scheduled Deletion
// Copyright 2026 H. Elliott (helliott20)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/helliott20/managarr-sub001

package rules

import (
	"testing"
	"time"

	"github.com/helliott20/managarr-sub001/internal/models"
)

func TestNextRun(t *testing.T) {
	// Friday 2026-08-28 12:00 UTC.
	after := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		schedule models.RuleSchedule
		want     time.Time
	}{
		{
			name:     "daily after today's slot",
			schedule: models.RuleSchedule{Type: models.ScheduleDaily, TimeOfDay: "03:00"},
			want:     time.Date(2026, 8, 29, 3, 0, 0, 0, time.UTC),
		},
		{
			name:     "daily before today's slot",
			schedule: models.RuleSchedule{Type: models.ScheduleDaily, TimeOfDay: "22:30"},
			want:     time.Date(2026, 8, 28, 22, 30, 0, 0, time.UTC),
		},
		{
			name:     "every second day",
			schedule: models.RuleSchedule{Type: models.ScheduleDaily, Interval: 2, TimeOfDay: "03:00"},
			want:     time.Date(2026, 8, 30, 3, 0, 0, 0, time.UTC),
		},
		{
			name:     "weekly on sunday",
			schedule: models.RuleSchedule{Type: models.ScheduleWeekly, DayOfWeek: 0, TimeOfDay: "04:00"},
			want:     time.Date(2026, 8, 30, 4, 0, 0, 0, time.UTC),
		},
		{
			name:     "weekly on friday later today is next week",
			schedule: models.RuleSchedule{Type: models.ScheduleWeekly, DayOfWeek: 5, TimeOfDay: "03:00"},
			want:     time.Date(2026, 9, 4, 3, 0, 0, 0, time.UTC),
		},
		{
			name:     "monthly on the first",
			schedule: models.RuleSchedule{Type: models.ScheduleMonthly, DayOfMonth: 1, TimeOfDay: "05:15"},
			want:     time.Date(2026, 9, 1, 5, 15, 0, 0, time.UTC),
		},
		{
			name:     "every third month",
			schedule: models.RuleSchedule{Type: models.ScheduleMonthly, Interval: 3, DayOfMonth: 1, TimeOfDay: "05:15"},
			want:     time.Date(2026, 11, 1, 5, 15, 0, 0, time.UTC),
		},
		{
			name:     "empty time of day defaults to 03:00",
			schedule: models.RuleSchedule{Type: models.ScheduleDaily},
			want:     time.Date(2026, 8, 29, 3, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextRun(tt.schedule, after)
			if err != nil {
				t.Fatalf("NextRun() error = %v", err)
			}
			if got == nil {
				t.Fatal("NextRun() = nil, want a time")
			}
			if !got.Equal(tt.want) {
				t.Errorf("NextRun() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNextRunManual(t *testing.T) {
	got, err := NextRun(models.RuleSchedule{Type: models.ScheduleManual}, time.Now())
	if err != nil {
		t.Fatalf("NextRun() error = %v", err)
	}
	if got != nil {
		t.Errorf("manual schedule should have no next run, got %v", got)
	}

	got, err = NextRun(models.RuleSchedule{}, time.Now())
	if err != nil {
		t.Fatalf("NextRun() error = %v", err)
	}
	if got != nil {
		t.Errorf("empty schedule type should behave as manual, got %v", got)
	}
}

func TestNextRunInvalidInput(t *testing.T) {
	tests := []struct {
		name     string
		schedule models.RuleSchedule
	}{
		{"unknown type", models.RuleSchedule{Type: "hourly"}},
		{"malformed time of day", models.RuleSchedule{Type: models.ScheduleDaily, TimeOfDay: "noon"}},
		{"hour out of range", models.RuleSchedule{Type: models.ScheduleDaily, TimeOfDay: "25:00"}},
		{"minute out of range", models.RuleSchedule{Type: models.ScheduleDaily, TimeOfDay: "03:75"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NextRun(tt.schedule, time.Now()); err == nil {
				t.Error("NextRun() should reject invalid schedules")
			}
		})
	}
}

func TestCronSpecClampsDayFields(t *testing.T) {
	spec, err := cronSpec(models.RuleSchedule{Type: models.ScheduleWeekly, DayOfWeek: 9, TimeOfDay: "03:00"})
	if err != nil {
		t.Fatalf("cronSpec() error = %v", err)
	}
	if spec != "0 3 * * 0" {
		t.Errorf("spec = %q, want day-of-week clamped to sunday", spec)
	}

	spec, err = cronSpec(models.RuleSchedule{Type: models.ScheduleMonthly, DayOfMonth: 31, TimeOfDay: "03:00"})
	if err != nil {
		t.Fatalf("cronSpec() error = %v", err)
	}
	if spec != "0 3 1 * *" {
		t.Errorf("spec = %q, want day-of-month clamped to 1", spec)
	}
}
