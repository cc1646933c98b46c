// Managarr - Media Library Housekeeping and Scheduled Deletion
// Copyright 2026 H. Elliott (helliott20)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/helliott20/managarr-sub001

package rules

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/helliott20/managarr-sub001/internal/models"
)

// NextRun computes when a rule's schedule fires next, strictly after the
// given instant. Manual schedules return nil. Interval > 1 means "every
// Nth occurrence" of the base schedule: every 2nd day, every 3rd week, and
// so on.
func NextRun(s models.RuleSchedule, after time.Time) (*time.Time, error) {
	if s.Type == "" || s.Type == models.ScheduleManual {
		return nil, nil
	}

	spec, err := cronSpec(s)
	if err != nil {
		return nil, err
	}
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}

	interval := s.Interval
	if interval < 1 {
		interval = 1
	}
	next := after
	for i := 0; i < interval; i++ {
		next = sched.Next(next)
	}
	return &next, nil
}

// cronSpec renders a rule schedule as a standard five-field cron
// expression.
func cronSpec(s models.RuleSchedule) (string, error) {
	hour, minute, err := parseTimeOfDay(s.TimeOfDay)
	if err != nil {
		return "", err
	}

	switch s.Type {
	case models.ScheduleDaily:
		return fmt.Sprintf("%d %d * * *", minute, hour), nil
	case models.ScheduleWeekly:
		dow := s.DayOfWeek
		if dow < 0 || dow > 6 {
			dow = 0
		}
		return fmt.Sprintf("%d %d * * %d", minute, hour, dow), nil
	case models.ScheduleMonthly:
		dom := s.DayOfMonth
		if dom < 1 || dom > 28 {
			dom = 1
		}
		return fmt.Sprintf("%d %d %d * *", minute, hour, dom), nil
	default:
		return "", fmt.Errorf("unknown schedule type %q", s.Type)
	}
}

// parseTimeOfDay parses "HH:MM", defaulting to 03:00 when empty.
func parseTimeOfDay(tod string) (hour, minute int, err error) {
	if tod == "" {
		return 3, 0, nil
	}
	parts := strings.SplitN(tod, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time of day %q, want HH:MM", tod)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in time of day %q", tod)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in time of day %q", tod)
	}
	return hour, minute, nil
}
