package services

import (
	"sort"
	"time"

	"swimforge-engine/models"
)

// DerivedMetricsProvider serves pre-computed performance metrics (e.g. the
// efficiency index) for metric_peak criteria. A nil provider, or a metric the
// provider does not know, makes the rule evaluate to unmet — never an error.
type DerivedMetricsProvider interface {
	DerivedMetric(externalUserID, metric string) (float64, bool)
}

// compareMetric applies one of the supported operators. Unknown operators
// evaluate false so a malformed definition can never crash a sweep.
func compareMetric(value float64, operator string, threshold float64) bool {
	switch operator {
	case ">=":
		return value >= threshold
	case "<=":
		return value <= threshold
	case ">":
		return value > threshold
	case "<":
		return value < threshold
	case "==":
		return value == threshold
	default:
		return false
	}
}

// activityMetric pulls a named metric off a single activity. The second
// return is false when the activity has no value for that metric, which the
// evaluator treats as a non-match.
func activityMetric(a *models.SwimmingActivity, metric string) (float64, bool) {
	switch metric {
	case "distance":
		return float64(a.DistanceMeters), true
	case "duration":
		return float64(a.DurationSeconds), true
	case "pace":
		if a.AvgPacePer100m == nil {
			return 0, false
		}
		return float64(*a.AvgPacePer100m), true
	case "swolf":
		if a.SwolfScore == nil {
			return 0, false
		}
		return float64(*a.SwolfScore), true
	case "avg_heart_rate":
		if a.AvgHeartRate == nil {
			return 0, false
		}
		return float64(*a.AvgHeartRate), true
	case "max_heart_rate":
		if a.MaxHeartRate == nil {
			return 0, false
		}
		return float64(*a.MaxHeartRate), true
	case "calories":
		if a.Calories == nil {
			return 0, false
		}
		return float64(*a.Calories), true
	case "laps":
		if a.LapsCount == nil {
			return 0, false
		}
		return float64(*a.LapsCount), true
	case "training_effect":
		if a.TrainingEffect == nil {
			return 0, false
		}
		return *a.TrainingEffect, true
	default:
		return 0, false
	}
}

// profileMetric pulls a named aggregate off the profile row. Unknown metric
// names fail closed (rule evaluates false).
func profileMetric(p *models.SwimmerProfile, metric string) (float64, bool) {
	switch metric {
	case "total_distance":
		return float64(p.TotalDistanceMeters), true
	case "total_duration":
		return float64(p.TotalDurationSeconds), true
	case "total_sessions":
		return float64(p.TotalSessions), true
	case "open_water_sessions":
		return float64(p.OpenWaterSessions), true
	case "open_water_distance":
		return float64(p.OpenWaterDistance), true
	case "longest_session":
		return float64(p.LongestSessionMeters), true
	case "total_xp":
		return float64(p.TotalXP), true
	case "level":
		return float64(p.Level), true
	default:
		return 0, false
	}
}

// weekBucket numbers a date into a calendar-week bucket qualified by year.
// week = ceil((daysSinceJan1 + weekday(Jan1) + 1) / 7). This is NOT ISO-8601
// numbering; it is kept for compatibility with badges already earned under it.
func weekBucket(t time.Time) int {
	jan1 := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
	days := int(t.Sub(jan1).Hours() / 24)
	week := (days + int(jan1.Weekday()) + 1 + 6) / 7 // integer ceil
	if week < 1 {
		week = 1
	}
	return t.Year()*100 + week
}

// hasConsistentRun reports whether the activities contain a run of at least
// consecutiveWeeks consecutive week-buckets each holding at least minPerWeek
// activities. A gap week, or a week below the minimum, resets the run to zero.
func hasConsistentRun(activities []models.SwimmingActivity, minPerWeek, consecutiveWeeks int) bool {
	if minPerWeek <= 0 || consecutiveWeeks <= 0 {
		return false
	}

	counts := make(map[int]int)
	for i := range activities {
		counts[weekBucket(activities[i].ActivityDate)]++
	}

	weeks := make([]int, 0, len(counts))
	for w := range counts {
		weeks = append(weeks, w)
	}
	sort.Ints(weeks)

	run := 0
	prev := 0
	for _, w := range weeks {
		if counts[w] < minPerWeek {
			run = 0
			prev = 0
			continue
		}
		if prev != 0 && w == prev+1 {
			run++
		} else {
			run = 1
		}
		if run >= consecutiveWeeks {
			return true
		}
		prev = w
	}
	return false
}

// evaluateCriteria judges one badge definition against the user's history and
// profile. All ambiguity (nil criteria, unknown metric or operator, missing
// variant payload, unavailable derived-metric pipeline) resolves to "not met".
func evaluateCriteria(
	criteria *models.BadgeCriteria,
	activities []models.SwimmingActivity,
	profile *models.SwimmerProfile,
	externalUserID string,
	derived DerivedMetricsProvider,
) bool {
	if criteria == nil {
		return false
	}

	switch criteria.Type {
	case models.CriteriaSingleActivity:
		rule := criteria.SingleActivity
		if rule == nil {
			return false
		}
		for i := range activities {
			if v, ok := activityMetric(&activities[i], rule.Metric); ok &&
				compareMetric(v, rule.Operator, rule.Threshold) {
				return true
			}
		}
		return false

	case models.CriteriaAggregateTotal:
		rule := criteria.AggregateTotal
		if rule == nil || profile == nil {
			return false
		}
		v, ok := profileMetric(profile, rule.Metric)
		return ok && compareMetric(v, rule.Operator, rule.Threshold)

	case models.CriteriaConsistency:
		rule := criteria.Consistency
		if rule == nil {
			return false
		}
		return hasConsistentRun(activities, rule.MinPerWeek, rule.ConsecutiveWeeks)

	case models.CriteriaMetricPeak:
		rule := criteria.MetricPeak
		if rule == nil || derived == nil {
			return false
		}
		v, ok := derived.DerivedMetric(externalUserID, rule.Metric)
		return ok && compareMetric(v, rule.Operator, rule.Threshold)

	default:
		return false
	}
}
