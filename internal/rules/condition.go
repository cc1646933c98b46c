// Managarr - Media Library Housekeeping and Scheduled Deletion
// Copyright 2026 H. Elliott (helliott20)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/helliott20/managarr-sub001

// Package rules implements deletion-rule matching: a registry of condition
// predicates and the evaluator that runs rules over the media library in
// preview or propose mode.
package rules

import (
	"strings"
	"time"

	"github.com/helliott20/managarr-sub001/internal/models"
)

// Kind identifies one condition predicate.
type Kind string

// Condition kinds. Each maps to one entry in the evaluator registry.
const (
	KindMinAgeDays        Kind = "minAgeDays"
	KindMaxAgeDays        Kind = "maxAgeDays"
	KindMinRating         Kind = "minRating"
	KindMaxRating         Kind = "maxRating"
	KindMinSizeBytes      Kind = "minSizeBytes"
	KindMaxSizeBytes      Kind = "maxSizeBytes"
	KindResolution        Kind = "resolution"
	KindQualityProfile    Kind = "qualityProfile"
	KindSeriesStatus      Kind = "seriesStatus"
	KindNetwork           Kind = "network"
	KindMonitored         Kind = "monitored"
	KindDownloaded        Kind = "downloaded"
	KindTags              Kind = "tags"
	KindTitleContains     Kind = "titleContains"
	KindTitleExact        Kind = "titleExact"
	KindWatchStatus       Kind = "watchStatus"
	KindMinWatchCount     Kind = "minWatchCount"
	KindMaxWatchCount     Kind = "maxWatchCount"
	KindLastWatchedBefore Kind = "lastWatchedBefore"
)

// Condition is one tagged predicate instance. Exactly one value field is
// meaningful per kind: Number for numeric kinds, Text for string kinds,
// Flag for boolean kinds, List for tags.
type Condition struct {
	Kind   Kind
	Number float64
	Text   string
	Flag   bool
	List   []string
}

// evalFunc decides whether one media item satisfies one condition.
// Implementations must be pure: no I/O, no mutation.
type evalFunc func(m *models.Media, c Condition, now time.Time) bool

// registry dispatches condition kinds to their predicate. New kinds are
// added here and in conditionsForGroup; nothing else changes.
var registry = map[Kind]evalFunc{
	KindMinAgeDays: func(m *models.Media, c Condition, now time.Time) bool {
		return m.AgeDays(now) >= int(c.Number)
	},
	KindMaxAgeDays: func(m *models.Media, c Condition, now time.Time) bool {
		return m.AgeDays(now) <= int(c.Number)
	},
	// Rating conditions treat missing data as a pass: an unrated item is
	// not excluded by a rating bound.
	KindMinRating: func(m *models.Media, c Condition, _ time.Time) bool {
		rating, ok := m.EffectiveRating()
		return !ok || rating >= c.Number
	},
	KindMaxRating: func(m *models.Media, c Condition, _ time.Time) bool {
		rating, ok := m.EffectiveRating()
		return !ok || rating <= c.Number
	},
	KindMinSizeBytes: func(m *models.Media, c Condition, _ time.Time) bool {
		return m.SizeBytes >= int64(c.Number)
	},
	KindMaxSizeBytes: func(m *models.Media, c Condition, _ time.Time) bool {
		return m.SizeBytes <= int64(c.Number)
	},
	KindResolution: func(m *models.Media, c Condition, _ time.Time) bool {
		return strings.EqualFold(m.Resolution, c.Text)
	},
	KindQualityProfile: func(m *models.Media, c Condition, _ time.Time) bool {
		return strings.EqualFold(m.QualityProfile, c.Text)
	},
	KindSeriesStatus: func(m *models.Media, c Condition, _ time.Time) bool {
		return strings.EqualFold(m.SeriesStatus, c.Text)
	},
	KindNetwork: func(m *models.Media, c Condition, _ time.Time) bool {
		return strings.EqualFold(m.Network, c.Text)
	},
	KindMonitored: func(m *models.Media, c Condition, _ time.Time) bool {
		return m.Monitored == c.Flag
	},
	KindDownloaded: func(m *models.Media, c Condition, _ time.Time) bool {
		return m.Downloaded == c.Flag
	},
	// The item must carry every listed tag.
	KindTags: func(m *models.Media, c Condition, _ time.Time) bool {
		for _, tag := range c.List {
			if !m.HasTag(tag) {
				return false
			}
		}
		return true
	},
	KindTitleContains: func(m *models.Media, c Condition, _ time.Time) bool {
		return strings.Contains(strings.ToLower(m.Title), strings.ToLower(c.Text))
	},
	KindTitleExact: func(m *models.Media, c Condition, _ time.Time) bool {
		return strings.EqualFold(m.Title, c.Text)
	},
	KindWatchStatus: func(m *models.Media, c Condition, _ time.Time) bool {
		return strings.EqualFold(m.WatchStatus(), c.Text)
	},
	KindMinWatchCount: func(m *models.Media, c Condition, _ time.Time) bool {
		return m.WatchCount >= int(c.Number)
	},
	KindMaxWatchCount: func(m *models.Media, c Condition, _ time.Time) bool {
		return m.WatchCount <= int(c.Number)
	},
	// Matches items whose last play is older than the cutoff. An item
	// never played has no activity since the cutoff either, so it matches.
	KindLastWatchedBefore: func(m *models.Media, c Condition, now time.Time) bool {
		cutoff := now.AddDate(0, 0, -int(c.Number))
		return m.LastWatchedAt == nil || m.LastWatchedAt.Before(cutoff)
	},
}

// evaluateCondition runs one condition against one media item. Unknown
// kinds never match; they indicate a stored rule newer than this binary.
func evaluateCondition(c Condition, m *models.Media, now time.Time) bool {
	eval, ok := registry[c.Kind]
	if !ok {
		return false
	}
	return eval(m, c, now)
}

// conditionsForGroup expands one enabled group of a rule into its concrete
// conditions. Unset fields (nil pointers, empty strings, empty lists)
// contribute nothing: an empty value disables that sub-check.
func conditionsForGroup(rc *models.RuleConditions, group string) []Condition {
	var conds []Condition
	switch group {
	case models.GroupAge:
		if rc.MinAgeDays != nil {
			conds = append(conds, Condition{Kind: KindMinAgeDays, Number: float64(*rc.MinAgeDays)})
		}
		if rc.MaxAgeDays != nil {
			conds = append(conds, Condition{Kind: KindMaxAgeDays, Number: float64(*rc.MaxAgeDays)})
		}
	case models.GroupRating:
		if rc.MinRating != nil {
			conds = append(conds, Condition{Kind: KindMinRating, Number: *rc.MinRating})
		}
		if rc.MaxRating != nil {
			conds = append(conds, Condition{Kind: KindMaxRating, Number: *rc.MaxRating})
		}
	case models.GroupSize:
		if rc.MinSizeBytes != nil {
			conds = append(conds, Condition{Kind: KindMinSizeBytes, Number: float64(*rc.MinSizeBytes)})
		}
		if rc.MaxSizeBytes != nil {
			conds = append(conds, Condition{Kind: KindMaxSizeBytes, Number: float64(*rc.MaxSizeBytes)})
		}
	case models.GroupQuality:
		if rc.Resolution != "" {
			conds = append(conds, Condition{Kind: KindResolution, Text: rc.Resolution})
		}
		if rc.QualityProfile != "" {
			conds = append(conds, Condition{Kind: KindQualityProfile, Text: rc.QualityProfile})
		}
	case models.GroupSeries:
		if rc.SeriesStatus != "" {
			conds = append(conds, Condition{Kind: KindSeriesStatus, Text: rc.SeriesStatus})
		}
		if rc.Network != "" {
			conds = append(conds, Condition{Kind: KindNetwork, Text: rc.Network})
		}
	case models.GroupStatus:
		if rc.Monitored != nil {
			conds = append(conds, Condition{Kind: KindMonitored, Flag: *rc.Monitored})
		}
		if rc.Downloaded != nil {
			conds = append(conds, Condition{Kind: KindDownloaded, Flag: *rc.Downloaded})
		}
	case models.GroupTags:
		if len(rc.Tags) > 0 {
			conds = append(conds, Condition{Kind: KindTags, List: rc.Tags})
		}
	case models.GroupTitle:
		if rc.TitleContains != "" {
			conds = append(conds, Condition{Kind: KindTitleContains, Text: rc.TitleContains})
		}
		if rc.TitleExact != "" {
			conds = append(conds, Condition{Kind: KindTitleExact, Text: rc.TitleExact})
		}
	case models.GroupWatch:
		if rc.WatchStatus != "" {
			conds = append(conds, Condition{Kind: KindWatchStatus, Text: rc.WatchStatus})
		}
		if rc.MinWatchCount != nil {
			conds = append(conds, Condition{Kind: KindMinWatchCount, Number: float64(*rc.MinWatchCount)})
		}
		if rc.MaxWatchCount != nil {
			conds = append(conds, Condition{Kind: KindMaxWatchCount, Number: float64(*rc.MaxWatchCount)})
		}
		if rc.LastWatchedBeforeDays != nil {
			conds = append(conds, Condition{Kind: KindLastWatchedBefore, Number: float64(*rc.LastWatchedBeforeDays)})
		}
	}
	return conds
}

// Matches reports whether one media item satisfies a rule at the given
// instant. Protected media never matches. The item must be one of the
// rule's target types and satisfy every condition of every enabled group.
// A rule with zero enabled groups matches every unprotected item of its
// target types.
func Matches(rule *models.DeletionRule, m *models.Media, now time.Time) bool {
	if m.Protected {
		return false
	}
	if !rule.TargetsType(m.Type) {
		return false
	}
	for _, group := range rule.EnabledGroups() {
		for _, cond := range conditionsForGroup(&rule.Conditions, group) {
			if !evaluateCondition(cond, m, now) {
				return false
			}
		}
	}
	return true
}
