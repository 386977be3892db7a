package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// BadgeCategory groups definitions for the profile UI.
type BadgeCategory string

const (
	CategoryDistance    BadgeCategory = "distance"
	CategorySession     BadgeCategory = "session"
	CategoryConsistency BadgeCategory = "consistency"
	CategoryOpenWater   BadgeCategory = "open_water"
	CategorySpecial     BadgeCategory = "special"
	CategoryMilestone   BadgeCategory = "milestone"
)

// CriteriaType selects which variant of BadgeCriteria applies.
type CriteriaType string

const (
	CriteriaSingleActivity CriteriaType = "single_activity"
	CriteriaAggregateTotal CriteriaType = "aggregate_total"
	CriteriaConsistency    CriteriaType = "consistency"
	CriteriaMetricPeak     CriteriaType = "metric_peak"
)

// ThresholdRule compares a named metric against a threshold.
// Operators: >=, <=, >, <, == — anything else never matches.
type ThresholdRule struct {
	Metric    string  `json:"metric"`
	Operator  string  `json:"operator"`
	Threshold float64 `json:"threshold"`
}

// ConsistencyRule requires MinPerWeek activities in ConsecutiveWeeks
// consecutive calendar-week buckets.
type ConsistencyRule struct {
	MinPerWeek       int `json:"min_activities_per_week"`
	ConsecutiveWeeks int `json:"consecutive_weeks"`
}

// BadgeCriteria is a tagged variant: exactly one of the pointer fields is set,
// matching Type. Stored as jsonb. A definition with no criteria (nil column)
// is never auto-awarded — those badges are granted directly, e.g. challenge
// winner badges and skill-tier badges.
type BadgeCriteria struct {
	Type           CriteriaType     `json:"type"`
	SingleActivity *ThresholdRule   `json:"single_activity,omitempty"`
	AggregateTotal *ThresholdRule   `json:"aggregate_total,omitempty"`
	Consistency    *ConsistencyRule `json:"consistency,omitempty"`
	MetricPeak     *ThresholdRule   `json:"metric_peak,omitempty"`
}

func (c BadgeCriteria) Value() (driver.Value, error) {
	return json.Marshal(c)
}

func (c *BadgeCriteria) Scan(value interface{}) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, c)
	case string:
		return json.Unmarshal([]byte(v), c)
	case nil:
		return nil
	default:
		return errors.New("unsupported type for BadgeCriteria")
	}
}

// BadgeDefinition: static config, seeded administratively and immutable after.
type BadgeDefinition struct {
	ID          string         `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Code        string         `gorm:"uniqueIndex;not null" json:"code"` // e.g., "FIRST_SPLASH"
	Name        string         `gorm:"not null" json:"name"`
	Description string         `json:"description"`
	Category    BadgeCategory  `gorm:"type:varchar(16);not null" json:"category"`
	IconURL     string         `gorm:"type:text" json:"icon_url"`
	Rarity      string         `gorm:"type:varchar(16);default:'common'" json:"rarity"` // common, rare, epic, legendary
	XPReward    int64          `gorm:"default:0" json:"xp_reward"`
	Criteria    *BadgeCriteria `gorm:"type:jsonb" json:"criteria,omitempty"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

// UserBadge: awarded instance. The unique (user, badge) index is the
// idempotency guard for concurrent award attempts.
type UserBadge struct {
	ID             string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ExternalUserID string    `gorm:"uniqueIndex:idx_user_badge;not null" json:"external_user_id"`
	BadgeID        string    `gorm:"uniqueIndex:idx_user_badge;not null" json:"badge_id"`
	AwardedAt      time.Time `gorm:"autoCreateTime" json:"awarded_at"`
	Metadata       string    `gorm:"type:jsonb" json:"metadata,omitempty"` // e.g., {"challenge_id": "..."}
}

// SkillTierBadgeCode returns the definition code for a skill-tier badge.
func SkillTierBadgeCode(level int) string {
	return fmt.Sprintf("SKILL_TIER_%d", level)
}

// DefaultBadgeDefinitions is the seed set applied on boot (insert-if-missing).
var DefaultBadgeDefinitions = []BadgeDefinition{
	{
		Code:        "FIRST_SPLASH",
		Name:        "First Splash",
		Description: "Logged your first swim",
		Category:    CategorySession,
		Rarity:      "common",
		XPReward:    50,
		Criteria: &BadgeCriteria{
			Type:           CriteriaAggregateTotal,
			AggregateTotal: &ThresholdRule{Metric: "total_sessions", Operator: ">=", Threshold: 1},
		},
	},
	{
		Code:        "POOL_SHARK",
		Name:        "Pool Shark",
		Description: "Swam 2km in a single session",
		Category:    CategoryDistance,
		Rarity:      "rare",
		XPReward:    150,
		Criteria: &BadgeCriteria{
			Type:           CriteriaSingleActivity,
			SingleActivity: &ThresholdRule{Metric: "distance", Operator: ">=", Threshold: 2000},
		},
	},
	{
		Code:        "MARATHON_SWIMMER",
		Name:        "Marathon Swimmer",
		Description: "Accumulated 42.2km of total distance",
		Category:    CategoryMilestone,
		Rarity:      "epic",
		XPReward:    500,
		Criteria: &BadgeCriteria{
			Type:           CriteriaAggregateTotal,
			AggregateTotal: &ThresholdRule{Metric: "total_distance", Operator: ">=", Threshold: 42200},
		},
	},
	{
		Code:        "WEEK_STREAK",
		Name:        "Creature of Habit",
		Description: "Swam at least 3 times a week for 2 weeks running",
		Category:    CategoryConsistency,
		Rarity:      "rare",
		XPReward:    200,
		Criteria: &BadgeCriteria{
			Type:        CriteriaConsistency,
			Consistency: &ConsistencyRule{MinPerWeek: 3, ConsecutiveWeeks: 2},
		},
	},
	{
		Code:        "OPEN_WATER_EXPLORER",
		Name:        "Open Water Explorer",
		Description: "Completed your first open water swim",
		Category:    CategoryOpenWater,
		Rarity:      "rare",
		XPReward:    150,
		Criteria: &BadgeCriteria{
			Type:           CriteriaAggregateTotal,
			AggregateTotal: &ThresholdRule{Metric: "open_water_sessions", Operator: ">=", Threshold: 1},
		},
	},
	{
		Code:        "EFFICIENCY_ACE",
		Name:        "Efficiency Ace",
		Description: "Reached an efficiency index of 75 or better",
		Category:    CategorySpecial,
		Rarity:      "epic",
		XPReward:    300,
		Criteria: &BadgeCriteria{
			Type:       CriteriaMetricPeak,
			MetricPeak: &ThresholdRule{Metric: "efficiency_index", Operator: ">=", Threshold: 75},
		},
	},
	// Challenge winner badges — granted by the lifecycle job, no criteria.
	{
		Code:        "DISTANCE_CHAMPION",
		Name:        "Distance Champion",
		Description: "Won a distance challenge",
		Category:    CategorySpecial,
		Rarity:      "epic",
		XPReward:    250,
	},
	{
		Code:        "SESSION_MASTER",
		Name:        "Session Master",
		Description: "Won a session-count challenge",
		Category:    CategorySpecial,
		Rarity:      "epic",
		XPReward:    250,
	},
	{
		Code:        "SPEED_DEMON",
		Name:        "Speed Demon",
		Description: "Won a pace challenge",
		Category:    CategorySpecial,
		Rarity:      "epic",
		XPReward:    250,
	},
	{
		Code:        "ENDURANCE_LEGEND",
		Name:        "Endurance Legend",
		Description: "Won an endurance challenge",
		Category:    CategorySpecial,
		Rarity:      "legendary",
		XPReward:    250,
	},
}
