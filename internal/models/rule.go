// Managarr - Media Library Housekeeping and Scheduled Deletion
// Copyright 2026 H. Elliott (helliott20)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/helliott20/managarr-sub001

package models

import (
	"time"
)

// Condition group keys. Each key gates one group of related condition
// fields in RuleConditions. A group that is absent from FiltersEnabled, or
// mapped to false, is skipped entirely during evaluation regardless of what
// its condition fields contain.
const (
	GroupAge     = "age"
	GroupRating  = "rating"
	GroupSize    = "size"
	GroupQuality = "quality"
	GroupSeries  = "series"
	GroupStatus  = "status"
	GroupTags    = "tags"
	GroupTitle   = "title"
	GroupWatch   = "watch"
)

// ConditionGroups lists every condition group key in a stable order.
var ConditionGroups = []string{
	GroupAge, GroupRating, GroupSize, GroupQuality, GroupSeries,
	GroupStatus, GroupTags, GroupTitle, GroupWatch,
}

// RuleConditions holds the per-group condition values of a deletion rule.
// Pointer fields distinguish "not set" from a zero value; string fields use
// the empty string to mean "not set". Numeric bounds are inclusive: an item
// exactly on the bound matches. String comparisons are case-insensitive.
//
// Group membership:
//   - age:     MinAgeDays, MaxAgeDays
//   - rating:  MinRating, MaxRating
//   - size:    MinSizeBytes, MaxSizeBytes
//   - quality: Resolution, QualityProfile
//   - series:  SeriesStatus, Network
//   - status:  Monitored, Downloaded
//   - tags:    Tags (item must carry every listed tag)
//   - title:   TitleContains, TitleExact
//   - watch:   WatchStatus, MinWatchCount, MaxWatchCount, LastWatchedBeforeDays
type RuleConditions struct {
	MinAgeDays            *int     `json:"min_age_days,omitempty" validate:"omitempty,min=0"`
	MaxAgeDays            *int     `json:"max_age_days,omitempty" validate:"omitempty,min=0"`
	MinRating             *float64 `json:"min_rating,omitempty" validate:"omitempty,min=0,max=10"`
	MaxRating             *float64 `json:"max_rating,omitempty" validate:"omitempty,min=0,max=10"`
	MinSizeBytes          *int64   `json:"min_size_bytes,omitempty" validate:"omitempty,min=0"`
	MaxSizeBytes          *int64   `json:"max_size_bytes,omitempty" validate:"omitempty,min=0"`
	Resolution            string   `json:"resolution,omitempty"`
	QualityProfile        string   `json:"quality_profile,omitempty"`
	SeriesStatus          string   `json:"series_status,omitempty"`
	Network               string   `json:"network,omitempty"`
	Monitored             *bool    `json:"monitored,omitempty"`
	Downloaded            *bool    `json:"downloaded,omitempty"`
	Tags                  []string `json:"tags,omitempty"`
	TitleContains         string   `json:"title_contains,omitempty"`
	TitleExact            string   `json:"title_exact,omitempty"`
	WatchStatus           string   `json:"watch_status,omitempty" validate:"omitempty,oneof=watched inProgress unwatched"`
	MinWatchCount         *int     `json:"min_watch_count,omitempty" validate:"omitempty,min=0"`
	MaxWatchCount         *int     `json:"max_watch_count,omitempty" validate:"omitempty,min=0"`
	LastWatchedBeforeDays *int     `json:"last_watched_before_days,omitempty" validate:"omitempty,min=0"`
}

// Integration action values for IntegrationStrategy.Action.
//
//   - file_only: delete files from disk, leave the library entry in place
//   - unmonitor: delete files and stop monitoring the entry
//   - remove:    delete the library entry itself (files per DeleteFiles)
const (
	ActionFileOnly  = "file_only"
	ActionUnmonitor = "unmonitor"
	ActionRemove    = "remove"
)

// IntegrationStrategy describes how one downloader integration should carry
// out a deletion for items matched by the rule.
type IntegrationStrategy struct {
	Action             string `json:"action" validate:"omitempty,oneof=file_only unmonitor remove"`
	DeleteFiles        bool   `json:"delete_files"`
	AddImportExclusion bool   `json:"add_import_exclusion"`
}

// DeletionStrategy maps media types to their integration strategies.
// Movies execute through Radarr, series through Sonarr.
type DeletionStrategy struct {
	Radarr IntegrationStrategy `json:"radarr"`
	Sonarr IntegrationStrategy `json:"sonarr"`
}

// ForMediaType returns the strategy for the given media type and whether
// the type is recognized.
func (s DeletionStrategy) ForMediaType(mediaType string) (IntegrationStrategy, bool) {
	switch mediaType {
	case MediaTypeMovie:
		return s.Radarr, true
	case MediaTypeSeries:
		return s.Sonarr, true
	default:
		return IntegrationStrategy{}, false
	}
}

// Schedule type values for RuleSchedule.Type.
const (
	ScheduleManual  = "manual"
	ScheduleDaily   = "daily"
	ScheduleWeekly  = "weekly"
	ScheduleMonthly = "monthly"
)

// RuleSchedule describes when a rule runs automatically. Manual rules only
// run when the operator triggers them. TimeOfDay is "HH:MM" in the server's
// local time. DayOfWeek follows time.Weekday (0 = Sunday); DayOfMonth is
// 1-28 so every month qualifies.
type RuleSchedule struct {
	Type       string `json:"type" validate:"omitempty,oneof=manual daily weekly monthly"`
	Interval   int    `json:"interval,omitempty" validate:"omitempty,min=1"`
	TimeOfDay  string `json:"time_of_day,omitempty"`
	DayOfWeek  int    `json:"day_of_week,omitempty" validate:"omitempty,min=0,max=6"`
	DayOfMonth int    `json:"day_of_month,omitempty" validate:"omitempty,min=1,max=28"`
}

// DeletionRule is an operator-defined policy describing which media should
// be proposed for deletion and how approved deletions execute.
//
// Matching semantics (see the rules package): a media item matches when it
// is one of the rule's target MediaTypes, is not protected, and satisfies
// every enabled condition group. A rule with no enabled groups matches
// every unprotected item of its target types; callers surface that case so
// operators are not surprised by a match-everything rule.
type DeletionRule struct {
	ID             string           `json:"id"`
	Name           string           `json:"name" validate:"required,min=1,max=200"`
	Description    string           `json:"description,omitempty" validate:"max=2000"`
	Enabled        bool             `json:"enabled"`
	MediaTypes     []string         `json:"media_types" validate:"required,min=1,dive,oneof=movie series"`
	Conditions     RuleConditions   `json:"conditions"`
	FiltersEnabled map[string]bool  `json:"filters_enabled,omitempty"`
	Strategy       DeletionStrategy `json:"deletion_strategy"`
	Schedule       RuleSchedule     `json:"schedule"`
	NextRunAt      *time.Time       `json:"next_run_at,omitempty"`
	LastRunAt      *time.Time       `json:"last_run_at,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// GroupEnabled reports whether the named condition group participates in
// matching for this rule.
func (r *DeletionRule) GroupEnabled(group string) bool {
	if r.FiltersEnabled == nil {
		return false
	}
	return r.FiltersEnabled[group]
}

// EnabledGroups returns the enabled condition groups in stable order.
func (r *DeletionRule) EnabledGroups() []string {
	var groups []string
	for _, g := range ConditionGroups {
		if r.GroupEnabled(g) {
			groups = append(groups, g)
		}
	}
	return groups
}

// TargetsType reports whether mediaType is one of the rule's target types.
func (r *DeletionRule) TargetsType(mediaType string) bool {
	for _, t := range r.MediaTypes {
		if t == mediaType {
			return true
		}
	}
	return false
}
